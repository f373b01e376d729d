package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veribuy/models"
	"veribuy/services"
	"veribuy/utils"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "scan", "history", "saved", "save", "delete", "show", "insights", "export", "chat"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestScanInputs(t *testing.T) {
	_, err := scanInputs(nil, nil, 512)
	assert.Error(t, err)

	_, err = scanInputs([]string{"  "}, nil, 512)
	assert.Error(t, err)

	inputs, err := scanInputs([]string{"wireless mouse", " https://shop.test/p "}, nil, 512)
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "https://shop.test/p", inputs[1].Query)

	_, err = scanInputs(nil, []string{filepath.Join(t.TempDir(), "missing.jpg")}, 512)
	assert.ErrorIs(t, err, models.ErrEncoding)
}

func TestNewFileExporter(t *testing.T) {
	dir := t.TempDir()

	exp, err := newFileExporter("csv", filepath.Join(dir, "scans.csv"))
	require.NoError(t, err)
	require.NoError(t, exp.Export(nil))
	require.NoError(t, exp.Close())

	data, err := os.ReadFile(filepath.Join(dir, "scans.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "id,scanned_at,"))

	_, err = newFileExporter("pdf", filepath.Join(dir, "scans.pdf"))
	assert.Error(t, err)
}

type replyTransport struct{}

func (replyTransport) Send(_ context.Context, text string) (string, error) {
	return "re: " + text, nil
}

func TestChatLoop(t *testing.T) {
	session := services.NewChatSession(replyTransport{}, time.Second, utils.NewNopLogger())

	var shown []models.ChatMessage
	in := strings.NewReader("hello\n\n   \nis it fake?\nexit\nnever sent\n")
	require.NoError(t, chatLoop(context.Background(), session, in, func(m models.ChatMessage) {
		shown = append(shown, m)
	}))

	require.Len(t, shown, 3)
	assert.Equal(t, services.ChatGreeting, shown[0].Text)
	assert.Equal(t, "re: hello", shown[1].Text)
	assert.Equal(t, "re: is it fake?", shown[2].Text)
	assert.Len(t, session.Messages(), 5)
}

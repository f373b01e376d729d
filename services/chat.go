package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"veribuy/models"
	"veribuy/utils"
)

const (
	ChatGreeting      = "Hi! I'm VeriBuy AI. Ask me about product quality, seller trust, or where to find the best deals."
	ChatEmptyReply    = "I didn't get a response. Please try again."
	ChatDeliveryError = "I'm having trouble connecting right now. Please try again."
)

// ChatTransport delivers one user turn to the backend conversation and
// returns the reply text. The backend keeps the dialogue context.
type ChatTransport interface {
	Send(ctx context.Context, text string) (string, error)
}

// ChatSession is one long-lived dialogue with an append-only message log.
// Sends are serialised so the log keeps user/assistant pairs together.
type ChatSession struct {
	transport ChatTransport
	timeout   time.Duration
	logger    *utils.Logger
	now       func() time.Time

	sendMu   sync.Mutex
	mu       sync.RWMutex
	messages []models.ChatMessage
}

// NewChatSession binds a session to transport and seeds the greeting.
func NewChatSession(transport ChatTransport, timeout time.Duration, logger *utils.Logger) *ChatSession {
	s := &ChatSession{
		transport: transport,
		timeout:   timeout,
		logger:    logger.With("component", "chat"),
		now:       time.Now,
	}
	s.append(models.RoleAssistant, ChatGreeting)
	return s
}

// Send appends text as a user message, asks the backend and appends the
// reply. Delivery problems become an in-band assistant message; the only
// error returned is ErrEmptyMessage.
func (s *ChatSession) Send(ctx context.Context, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, models.ErrEmptyMessage
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.append(models.RoleUser, text)

	reply, err := s.deliver(ctx, text)
	switch {
	case err != nil:
		s.logger.Error("%v", fmt.Errorf("%w: %v", models.ErrChatDelivery, err))
		reply = ChatDeliveryError
	case strings.TrimSpace(reply) == "":
		s.logger.Warn("[chat] Empty reply from backend")
		reply = ChatEmptyReply
	}

	return s.append(models.RoleAssistant, reply), nil
}

func (s *ChatSession) deliver(ctx context.Context, text string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.transport.Send(ctx, text)
}

// Messages returns a copy of the log in send order.
func (s *ChatSession) Messages() []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *ChatSession) append(role models.Role, text string) models.ChatMessage {
	msg := models.ChatMessage{
		ID:        newID(),
		Role:      role,
		Text:      text,
		Timestamp: s.now().UTC().Truncate(time.Millisecond),
	}
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	return msg
}

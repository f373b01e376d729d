package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"veribuy/api"
	"veribuy/gemini"
	"veribuy/models"
	"veribuy/services"
	"veribuy/storage"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: withApp(func(ctx context.Context, a *app, _ *cobra.Command, _ []string) error {
			scanner, client, err := a.newScanner(ctx)
			if err != nil {
				return err
			}
			srv, err := api.New(a.cfg, a.store, scanner, chatStarter(client), a.logger)
			if err != nil {
				return err
			}
			a.logger.Info("=== VeriBuy API starting (storage: %s, model: %s) ===", a.cfg.StorageDriver, a.cfg.GeminiModel)
			return srv.Run(ctx)
		}),
	}
}

func newScanCmd() *cobra.Command {
	var queries, images []string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan products from photos or URL/search queries",
		Example: `  veribuy scan --query "wireless mouse"
  veribuy scan --image ./mouse.jpg --query https://www.amazon.in/dp/B0`,
		RunE: withApp(func(ctx context.Context, a *app, _ *cobra.Command, _ []string) error {
			inputs, err := scanInputs(queries, images, a.cfg.MaxImageDimension)
			if err != nil {
				return err
			}

			scanner, _, err := a.newScanner(ctx)
			if err != nil {
				return err
			}

			var failed int
			for _, res := range scanner.ScanBatch(ctx, inputs) {
				if res.Err != nil {
					failed++
					label := res.Input.Query
					if res.Input.Image != nil {
						label = "image"
					}
					a.printer.Card(fmt.Sprintf("Could not scan %s: %v", label, res.Err))
					continue
				}
				if err := a.store.RecordScan(ctx, *res.Record); err != nil {
					a.logger.Error("Recording scan %s: %v", res.Record.ID, err)
				}
				a.printer.Record(res.Record, a.store.IsSaved(res.Record.ID))
			}

			if err := ctx.Err(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scans failed: %w", failed, len(inputs), models.ErrIdentification)
			}
			return nil
		}),
	}
	cmd.Flags().StringSliceVarP(&queries, "query", "q", nil, "product URL or search text (repeatable)")
	cmd.Flags().StringSliceVarP(&images, "image", "i", nil, "path to a product photo (repeatable)")
	return cmd
}

// scanInputs encodes image paths and collects queries, images first.
func scanInputs(queries, images []string, maxDim int) ([]services.ScanInput, error) {
	var inputs []services.ScanInput
	for _, path := range images {
		img, err := services.EncodeImageFile(path, maxDim)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		inputs = append(inputs, services.ScanInput{Image: &img})
	}
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			inputs = append(inputs, services.ScanInput{Query: q})
		}
	}
	if len(inputs) == 0 {
		return nil, errors.New("nothing to scan: pass --query or --image")
	}
	return inputs, nil
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List recent scans, newest first",
		RunE: withApp(func(_ context.Context, a *app, _ *cobra.Command, _ []string) error {
			a.printer.List("Recent Scans", a.store.History())
			return nil
		}),
	}
}

func newSavedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "saved",
		Short: "List saved products",
		RunE: withApp(func(_ context.Context, a *app, _ *cobra.Command, _ []string) error {
			a.printer.List("Saved Products", a.store.Saved())
			return nil
		}),
	}
}

func newSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <id>",
		Short: "Save a scan, or unsave it if already saved",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
			rec, ok := a.store.Find(args[0])
			if !ok {
				return fmt.Errorf("%s: %w", args[0], models.ErrNotFound)
			}
			saved, err := a.store.ToggleSaved(ctx, rec)
			if err != nil {
				return err
			}
			if saved {
				a.printer.Card("Saved " + rec.Product.Name)
			} else {
				a.printer.Card("Removed " + rec.Product.Name + " from saved")
			}
			return nil
		}),
	}
}

func newDeleteCmd() *cobra.Command {
	var fromSaved bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a scan from history (or from saved with --saved)",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
			if fromSaved {
				return a.store.DeleteFromSaved(ctx, args[0])
			}
			return a.store.DeleteFromHistory(ctx, args[0])
		}),
	}
	cmd.Flags().BoolVar(&fromSaved, "saved", false, "delete from the saved list instead of history")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the full report for a scan",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(_ context.Context, a *app, _ *cobra.Command, args []string) error {
			rec, ok := a.store.Find(args[0])
			if !ok {
				return fmt.Errorf("%s: %w", args[0], models.ErrNotFound)
			}
			a.printer.Record(&rec, a.store.IsSaved(rec.ID))
			return nil
		}),
	}
}

func newInsightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Summarise scan history",
		RunE: withApp(func(_ context.Context, a *app, _ *cobra.Command, _ []string) error {
			report := services.NewInsightService(a.logger).Generate(a.store.History(), a.store.Saved())
			a.printer.Insights(report)
			return nil
		}),
	}
}

func newExportCmd() *cobra.Command {
	var format, out string
	var fromSaved bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export history or saved scans to CSV or XLSX",
		RunE: withApp(func(_ context.Context, a *app, _ *cobra.Command, _ []string) error {
			records := a.store.History()
			if fromSaved {
				records = a.store.Saved()
			}

			exporter, err := newFileExporter(format, out)
			if err != nil {
				return err
			}
			if err := exporter.Export(records); err != nil {
				_ = exporter.Close()
				return err
			}
			if err := exporter.Close(); err != nil {
				return err
			}
			a.logger.Info("Exported %d scans to %s", len(records), out)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file path")
	cmd.Flags().BoolVar(&fromSaved, "saved", false, "export the saved list instead of history")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newFileExporter(format, path string) (storage.RecordExporter, error) {
	switch format {
	case "csv":
		return storage.NewCSVWriter(path)
	case "xlsx":
		return storage.NewXLSXWriter(path)
	}
	return nil, fmt.Errorf("export: unknown format %q", format)
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the VeriBuy assistant (type exit to quit)",
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
			client, err := gemini.New(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}
			transport, err := chatStarter(client)(ctx)
			if err != nil {
				return err
			}
			session := services.NewChatSession(transport, a.cfg.ChatTimeout, a.logger)
			return chatLoop(ctx, session, cmd.InOrStdin(), a.printer.ChatMessage)
		}),
	}
}

// chatLoop reads one message per line until EOF, "exit" or ctx ends.
func chatLoop(ctx context.Context, session *services.ChatSession, in io.Reader, show func(models.ChatMessage)) error {
	for _, msg := range session.Messages() {
		show(msg)
	}

	lines := bufio.NewScanner(in)
	for {
		fmt.Fprint(os.Stdout, "> ")
		if !lines.Scan() {
			fmt.Fprintln(os.Stdout)
			return lines.Err()
		}
		text := strings.TrimSpace(lines.Text())
		switch strings.ToLower(text) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		reply, err := session.Send(ctx, text)
		if err != nil {
			continue
		}
		show(reply)
		if ctx.Err() != nil {
			return nil
		}
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"veribuy/api"
	"veribuy/config"
	"veribuy/gemini"
	"veribuy/render"
	"veribuy/scraper/product"
	"veribuy/services"
	"veribuy/storage"
	"veribuy/utils"
)

// app bundles what every command needs once config and storage are up.
type app struct {
	cfg     *config.Config
	logger  *utils.Logger
	kv      storage.KeyValue
	store   *storage.ScanStore
	printer *render.Printer
}

func openApp(ctx context.Context) (*app, error) {
	logger := utils.NewLogger()
	logger.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogJSON); err != nil {
		return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}

	kv, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store := storage.NewScanStore(kv, cfg.HistoryLimit, logger)
	store.Load(ctx)

	printer, err := render.NewPrinter(os.Stdout, 0)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, kv: kv, store: store, printer: printer}, nil
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		a.logger.Warn("Closing storage: %v", err)
	}
}

// newScanner connects to Gemini and builds the scan workflow.
func (a *app) newScanner(ctx context.Context) (*services.Scanner, *gemini.Client, error) {
	client, err := gemini.New(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, nil, err
	}

	var opts []services.ScannerOption
	if a.cfg.RenderPages {
		opts = append(opts, services.WithPageRenderer(product.New(a.cfg, a.logger)))
	}
	return services.NewScanner(client, a.cfg, a.logger, opts...), client, nil
}

func chatStarter(client *gemini.Client) api.ChatStarter {
	return func(ctx context.Context) (services.ChatTransport, error) {
		chat, err := client.StartChat(ctx)
		if err != nil {
			return nil, err
		}
		return chat, nil
	}
}

// withApp runs fn with an opened app and closes it afterwards.
func withApp(fn func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, a, cmd, args)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "veribuy",
		Short:         "VeriBuy - AI shopping assistant",
		Long:          "VeriBuy identifies a product from a photo or a URL/search and reports authenticity risk, review sentiment and live prices.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newScanCmd(),
		newHistoryCmd(),
		newSavedCmd(),
		newSaveCmd(),
		newDeleteCmd(),
		newShowCmd(),
		newInsightsCmd(),
		newExportCmd(),
		newChatCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

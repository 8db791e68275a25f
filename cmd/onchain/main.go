package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/onchainsheet/config"
	"github.com/spf13/cobra"
)

// app contiene los flags globales y la configuración cargada.
type app struct {
	configPath string
	verbose    bool
	format     string
	noHistory  bool
	cfg        *config.Config
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("onchain failed", "err", err)
		cancel()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "onchain",
		Short: "Update the ONCHAIN sheet of the weekly performance workbook",
		Long: `onchain refreshes token prices (CoinMarketCap) and TVL (DefiLlama) in the
ONCHAIN sheet, sorts each block of rows by TVL and cleans up intermediate files.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return a.load() },
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.DefaultPath, "path to config file")
	flags.BoolVar(&a.verbose, "verbose", false, "set log level to debug")
	flags.StringVar(&a.format, "format", "", "log format: text|json (overrides config)")
	flags.BoolVar(&a.noHistory, "no-history", false, "do not record runs in the SQLite history")

	root.AddCommand(
		newRunCmd(a),
		newRewritePricesCmd(a),
		newUpdatePricesCmd(a),
		newUpdateTVLCmd(a),
		newResortCmd(a),
		newCleanupCmd(a),
		newPerfPricesCmd(a),
		newHistoryCmd(a),
	)
	return root
}

// load carga la configuración y configura el logger.
func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	if a.format != "" {
		cfg.Log.Format = a.format
	}
	setupLogger(cfg.Log)
	a.cfg = cfg

	slog.Debug("config loaded",
		"config", a.configPath,
		"docs_dir", cfg.Workbook.DocsDir,
		"sheet", cfg.Workbook.Sheet,
		"history", !a.noHistory,
	)
	return nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

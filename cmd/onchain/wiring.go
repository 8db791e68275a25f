package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alejandrodnm/onchainsheet/config"
	"github.com/alejandrodnm/onchainsheet/internal/adapters/coinmarketcap"
	"github.com/alejandrodnm/onchainsheet/internal/adapters/defillama"
	"github.com/alejandrodnm/onchainsheet/internal/adapters/notify"
	"github.com/alejandrodnm/onchainsheet/internal/adapters/storage"
	"github.com/alejandrodnm/onchainsheet/internal/adapters/xlsx"
	"github.com/alejandrodnm/onchainsheet/internal/application/pipeline"
	"github.com/alejandrodnm/onchainsheet/internal/application/stages"
	"github.com/alejandrodnm/onchainsheet/internal/ports"
	"github.com/alejandrodnm/onchainsheet/internal/resort"
)

var errMissingAPIKey = errors.New("API_KEY is missing: put it in .env or the environment")

// stagesConfig traduce la configuración de usuario (letras de columna) a la
// de los pasos (índices). La config ya está validada.
func stagesConfig(cfg *config.Config) stages.Config {
	policy, _ := resort.ParsePolicy(cfg.Sort.FormulaPolicy)
	return stages.Config{
		Sheet:           cfg.Workbook.Sheet,
		StartRow:        cfg.Workbook.StartRow,
		RewriteStartRow: cfg.Scan.RewriteStartRow,
		StopEmptyLimit:  cfg.Scan.StopEmptyLimit,
		Columns: stages.Columns{
			Name:          config.MustColumn(cfg.Columns.Name),
			Symbol:        config.MustColumn(cfg.Columns.Symbol),
			Slug:          config.MustColumn(cfg.Columns.Slug),
			Type:          config.MustColumn(cfg.Columns.Type),
			Price:         config.MustColumn(cfg.Columns.Price),
			TVL:           config.MustColumn(cfg.Columns.TVL),
			RewriteSource: config.MustColumn(cfg.Columns.RewriteSource),
			RewriteTarget: config.MustColumn(cfg.Columns.RewriteTarget),
		},
		Policy: policy,
		Performance: stages.PerformanceConfig{
			Sheet:        cfg.Performance.Sheet,
			StartRow:     cfg.Performance.StartRow,
			Symbol:       config.MustColumn(cfg.Performance.Symbol),
			Price:        config.MustColumn(cfg.Performance.Price),
			HighlightRGB: cfg.Performance.HighlightRGB,
		},
	}
}

// onchainFiles resuelve las rutas del pipeline contra docs_dir.
func onchainFiles(cfg *config.Config) pipeline.Files {
	return pipeline.Files{
		Source:        cfg.Path(cfg.Workbook.Source),
		Rewritten:     cfg.Path(cfg.Workbook.RewrittenFile),
		Prices:        cfg.Path(cfg.Workbook.PricesFile),
		TVL:           cfg.Path(cfg.Workbook.TVLFile),
		Output:        cfg.Path(cfg.Workbook.Output),
		Intermediates: cfg.Intermediates(),
	}
}

// providers indica qué clientes de API necesita un comando.
type providers struct {
	prices bool
	tvl    bool
}

// service construye el Service de pasos con los clientes pedidos.
func (a *app) service(need providers) (*stages.Service, error) {
	var prices ports.PriceProvider
	var tvl ports.TVLProvider

	if need.prices {
		if a.cfg.API.CMCKey == "" {
			return nil, errMissingAPIKey
		}
		prices = coinmarketcap.NewClient(a.cfg.API.CMCBase, a.cfg.API.CMCKey, a.cfg.CMCDelay(), a.cfg.HTTPTimeout())
	}
	if need.tvl {
		tvl = defillama.NewClient(a.cfg.API.LlamaBase, a.cfg.LlamaDelay(), a.cfg.HTTPTimeout())
	}
	return stages.New(stagesConfig(a.cfg), xlsx.NewOpener(), prices, tvl), nil
}

// execute corre los pasos con el runner, guardando el histórico salvo --no-history.
func (a *app) execute(ctx context.Context, delay time.Duration, tasks ...pipeline.Task) error {
	var history ports.RunStorage
	if !a.noHistory {
		store, err := storage.NewSQLiteStorage(a.cfg.Storage.DSN)
		if err != nil {
			slog.Warn("history disabled: failed to open storage", "err", err, "dsn", a.cfg.Storage.DSN)
		} else {
			defer store.Close()
			history = store
		}
	}

	runner := pipeline.New(pipeline.Config{Delay: delay}, history, notify.NewConsole())
	_, err := runner.Run(ctx, tasks)
	return err
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/onchainsheet/config"
	"github.com/alejandrodnm/onchainsheet/internal/application/pipeline"
	"github.com/alejandrodnm/onchainsheet/internal/application/stages"
	"github.com/alejandrodnm/onchainsheet/internal/domain"
	"github.com/alejandrodnm/onchainsheet/internal/resort"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	var delay time.Duration
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: rewrite, prices, TVL, sort, cleanup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(providers{prices: true, tvl: true})
			if err != nil {
				return err
			}
			d := a.cfg.StepDelay()
			if cmd.Flags().Changed("delay") {
				d = delay
			}
			return a.execute(cmd.Context(), d, pipeline.OnchainTasks(svc, onchainFiles(a.cfg))...)
		},
	}
	cmd.Flags().DurationVar(&delay, "delay", 5*time.Second, "pause between stages (overrides pipeline.step_delay_seconds)")
	return cmd
}

// ioFlags son los flags --input/--output de los comandos de un solo paso.
type ioFlags struct {
	input  string
	output string
}

func (f *ioFlags) register(cmd *cobra.Command, in, out string) {
	cmd.Flags().StringVar(&f.input, "input", "", fmt.Sprintf("input workbook (default: <docs_dir>/%s)", in))
	cmd.Flags().StringVar(&f.output, "output", "", fmt.Sprintf("output workbook (default: <docs_dir>/%s)", out))
}

// paths devuelve los flags o, si están vacíos, los ficheros por defecto.
func (f *ioFlags) paths(cfg *config.Config, in, out string) (string, string) {
	input, output := f.input, f.output
	if input == "" {
		input = cfg.Path(in)
	}
	if output == "" {
		output = cfg.Path(out)
	}
	return input, output
}

type stageFunc func(svc *stages.Service, ctx context.Context, in, out string) (domain.StepResult, error)

// newStageCmd construye un comando que ejecuta un único paso.
func newStageCmd(a *app, use, short, message string, need providers, files func(*config.Config) (string, string), fn stageFunc) *cobra.Command {
	var io ioFlags
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(need)
			if err != nil {
				return err
			}
			defIn, defOut := files(a.cfg)
			in, out := io.paths(a.cfg, defIn, defOut)
			return a.execute(cmd.Context(), 0, pipeline.Task{
				Name:    use,
				Message: message,
				Run: func(ctx context.Context) (domain.StepResult, error) {
					return fn(svc, ctx, in, out)
				},
			})
		},
	}
	d := config.Default()
	in, out := files(d)
	io.register(cmd, in, out)
	return cmd
}

func newRewritePricesCmd(a *app) *cobra.Command {
	return newStageCmd(a, stages.StepRewritePrices, "Copy manual prices into the price column", "Rewriting prices...",
		providers{},
		func(c *config.Config) (string, string) { return c.Workbook.Source, c.Workbook.RewrittenFile },
		(*stages.Service).RewritePrices)
}

func newUpdatePricesCmd(a *app) *cobra.Command {
	return newStageCmd(a, stages.StepUpdatePrices, "Fetch USD prices from CoinMarketCap", "Updating prices...",
		providers{prices: true},
		func(c *config.Config) (string, string) { return c.Workbook.RewrittenFile, c.Workbook.PricesFile },
		(*stages.Service).UpdatePrices)
}

func newUpdateTVLCmd(a *app) *cobra.Command {
	return newStageCmd(a, stages.StepUpdateTVL, "Fetch protocol and chain TVL from DefiLlama", "Updating TVL...",
		providers{tvl: true},
		func(c *config.Config) (string, string) { return c.Workbook.PricesFile, c.Workbook.TVLFile },
		(*stages.Service).UpdateTVL)
}

func newPerfPricesCmd(a *app) *cobra.Command {
	return newStageCmd(a, stages.StepPerfPrices, "Update highlighted prices in PERFORMANCE_TABLE", "Updating performance table prices...",
		providers{prices: true},
		func(c *config.Config) (string, string) { return c.Performance.Input, c.Performance.Output },
		(*stages.Service).PerformancePrices)
}

func newResortCmd(a *app) *cobra.Command {
	var (
		io       ioFlags
		column   string
		startRow int
		policy   string
	)
	cmd := &cobra.Command{
		Use:   "resort",
		Short: "Sort each block of numeric rows by a column, descending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := resortOptions(a.cfg, column, startRow, policy)
			if err != nil {
				return err
			}
			svc, err := a.service(providers{})
			if err != nil {
				return err
			}
			in, out := io.paths(a.cfg, a.cfg.Workbook.TVLFile, a.cfg.Workbook.Output)
			return a.execute(cmd.Context(), 0, pipeline.Task{
				Name:    stages.StepSortByTVL,
				Message: "Sorting rows by TVL...",
				Run: func(ctx context.Context) (domain.StepResult, error) {
					return svc.Resort(ctx, in, out, opts)
				},
			})
		},
	}
	d := config.Default()
	io.register(cmd, d.Workbook.TVLFile, d.Workbook.Output)
	cmd.Flags().StringVar(&column, "column", "", "sort column letter (default: columns.tvl)")
	cmd.Flags().IntVar(&startRow, "start-row", 0, "first sortable row (default: workbook.start_row)")
	cmd.Flags().StringVar(&policy, "policy", "", "formula rewrite policy: lexical|strict (default: sort.formula_policy)")
	return cmd
}

// resortOptions combina los flags de resort con la configuración.
func resortOptions(cfg *config.Config, column string, startRow int, policy string) (resort.Options, error) {
	if column == "" {
		column = cfg.Columns.TVL
	}
	col, err := config.ColumnIndex(column)
	if err != nil {
		return resort.Options{}, fmt.Errorf("invalid --column %q: %w", column, err)
	}
	if startRow == 0 {
		startRow = cfg.Workbook.StartRow
	}
	if startRow < 1 {
		return resort.Options{}, fmt.Errorf("invalid --start-row %d: must be >= 1", startRow)
	}
	if policy == "" {
		policy = cfg.Sort.FormulaPolicy
	}
	p, err := resort.ParsePolicy(policy)
	if err != nil {
		return resort.Options{}, err
	}
	return resort.Options{SortColumn: col, StartRow: startRow, Policy: p}, nil
}

func newCleanupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   stages.StepCleanup,
		Short: "Delete the intermediate workbooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(providers{})
			if err != nil {
				return err
			}
			paths := a.cfg.Intermediates()
			return a.execute(cmd.Context(), 0, pipeline.Task{
				Name:    stages.StepCleanup,
				Message: "Cleaning up...",
				Run: func(ctx context.Context) (domain.StepResult, error) {
					return svc.Cleanup(ctx, paths)
				},
			})
		},
	}
}

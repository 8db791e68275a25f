package pipeline

import (
	"context"

	"github.com/alejandrodnm/onchainsheet/internal/application/stages"
	"github.com/alejandrodnm/onchainsheet/internal/domain"
)

// Files son las rutas que se pasan los pasos del pipeline ONCHAIN.
type Files struct {
	Source        string
	Rewritten     string
	Prices        string
	TVL           string
	Output        string
	Intermediates []string // los que borra cleanup
}

// OnchainTasks devuelve el pipeline completo: cada paso lee la salida del
// anterior y cleanup borra los intermedios al final.
func OnchainTasks(svc *stages.Service, f Files) []Task {
	return []Task{
		{
			Name:    stages.StepRewritePrices,
			Message: "Rewriting prices...",
			Run: func(ctx context.Context) (domain.StepResult, error) {
				return svc.RewritePrices(ctx, f.Source, f.Rewritten)
			},
		},
		{
			Name:    stages.StepUpdatePrices,
			Message: "Updating prices...",
			Run: func(ctx context.Context) (domain.StepResult, error) {
				return svc.UpdatePrices(ctx, f.Rewritten, f.Prices)
			},
		},
		{
			Name:    stages.StepUpdateTVL,
			Message: "Updating TVL...",
			Run: func(ctx context.Context) (domain.StepResult, error) {
				return svc.UpdateTVL(ctx, f.Prices, f.TVL)
			},
		},
		{
			Name:    stages.StepSortByTVL,
			Message: "Sorting rows by TVL...",
			Run: func(ctx context.Context) (domain.StepResult, error) {
				return svc.SortByTVL(ctx, f.TVL, f.Output)
			},
		},
		{
			Name:    stages.StepCleanup,
			Message: "Cleaning up...",
			Run: func(ctx context.Context) (domain.StepResult, error) {
				return svc.Cleanup(ctx, f.Intermediates)
			},
		},
	}
}

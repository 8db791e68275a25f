package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/onchainsheet/internal/domain"
)

// RunStorage persiste el histórico de ejecuciones del pipeline.
type RunStorage interface {
	StartRun(ctx context.Context, run domain.Run) error
	SaveStep(ctx context.Context, runID string, step domain.StepResult) error
	FinishRun(ctx context.Context, runID string, status domain.RunStatus, finishedAt time.Time) error
	// RecentRuns devuelve las últimas ejecuciones, más recientes primero,
	// con sus pasos.
	RecentRuns(ctx context.Context, limit int) ([]domain.Run, error)
	Close() error
}

// Package pipeline ejecuta una lista ordenada de pasos con una pausa fija
// entre ellos, parando en el primero que falla.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/onchainsheet/internal/domain"
	"github.com/alejandrodnm/onchainsheet/internal/ports"
	"github.com/google/uuid"
)

// Task es un paso del pipeline.
type Task struct {
	Name    string
	Message string // se loguea antes de ejecutar el paso
	Run     func(ctx context.Context) (domain.StepResult, error)
}

// Config contiene la configuración del runner.
type Config struct {
	Delay time.Duration // pausa entre pasos (no después del último)
}

// Runner ejecuta tasks en orden. storage y notifier son opcionales.
type Runner struct {
	cfg      Config
	storage  ports.RunStorage
	notifier ports.Notifier
	now      func() time.Time
}

// New crea un Runner con las dependencias inyectadas.
func New(cfg Config, storage ports.RunStorage, notifier ports.Notifier) *Runner {
	return &Runner{cfg: cfg, storage: storage, notifier: notifier, now: time.Now}
}

// Run ejecuta los pasos en orden. Si un paso falla, no se ejecuta ninguno de
// los siguientes y se devuelve su error. El Run devuelto contiene los pasos
// ejecutados en ambos casos.
func (r *Runner) Run(ctx context.Context, tasks []Task) (domain.Run, error) {
	run := domain.Run{
		ID:        uuid.New().String(),
		StartedAt: r.now(),
		Status:    domain.StatusRunning,
	}
	record := r.startRun(ctx, run)

	for i, task := range tasks {
		if task.Message != "" {
			slog.Info(task.Message)
		}

		start := r.now()
		res, err := task.Run(ctx)
		if res.Step == "" {
			res.Step = task.Name
		}
		res.Duration = r.now().Sub(start)

		if err != nil {
			res.Status = domain.StatusFailed
			res.Err = err.Error()
			run.Steps = append(run.Steps, res)
			r.saveStep(ctx, record, run.ID, res)
			slog.Error("Step failed", "step", res.Step, "err", err)
			return r.finish(ctx, record, run, domain.StatusFailed), fmt.Errorf("pipeline.Run: %s: %w", res.Step, err)
		}

		res.Status = domain.StatusOK
		run.Steps = append(run.Steps, res)
		r.saveStep(ctx, record, run.ID, res)

		if i < len(tasks)-1 {
			if err := wait(ctx, r.cfg.Delay); err != nil {
				slog.Error("Pipeline interrupted", "after", res.Step, "err", err)
				return r.finish(ctx, record, run, domain.StatusFailed), fmt.Errorf("pipeline.Run: %w", err)
			}
		}
	}

	slog.Info("All onchain stages completed successfully.")
	return r.finish(ctx, record, run, domain.StatusOK), nil
}

// finish cierra la ejecución, la persiste y la notifica.
func (r *Runner) finish(ctx context.Context, record bool, run domain.Run, status domain.RunStatus) domain.Run {
	run.Status = status
	run.FinishedAt = r.now()

	// El histórico no debe perderse si el contexto ya está cancelado.
	bg := context.WithoutCancel(ctx)
	if record {
		if err := r.storage.FinishRun(bg, run.ID, status, run.FinishedAt); err != nil {
			slog.Warn("could not finish run in history", "run", run.ID, "err", err)
		}
	}
	if r.notifier != nil {
		if err := r.notifier.NotifyRun(bg, run); err != nil {
			slog.Warn("notify failed", "err", err)
		}
	}
	return run
}

// startRun registra la ejecución. Devuelve false si no hay histórico.
func (r *Runner) startRun(ctx context.Context, run domain.Run) bool {
	if r.storage == nil {
		return false
	}
	if err := r.storage.StartRun(ctx, run); err != nil {
		slog.Warn("could not record run, continuing without history", "err", err)
		return false
	}
	return true
}

func (r *Runner) saveStep(ctx context.Context, record bool, runID string, res domain.StepResult) {
	if !record {
		return
	}
	if err := r.storage.SaveStep(context.WithoutCancel(ctx), runID, res); err != nil {
		slog.Warn("could not save step", "step", res.Step, "err", err)
	}
}

// wait duerme d respetando la cancelación del contexto.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

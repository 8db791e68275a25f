package domain

import "time"

// RunStatus es el estado final de una ejecución o de un paso.
type RunStatus string

const (
	StatusRunning RunStatus = "running"
	StatusOK      RunStatus = "ok"
	StatusFailed  RunStatus = "failed"
)

// StepResult resume lo que hizo un paso del pipeline.
type StepResult struct {
	Step     string
	Status   RunStatus
	Updated  int // celdas/filas escritas
	Skipped  int
	Failed   int // filas con error no fatal
	Duration time.Duration
	Output   string // fichero escrito, si aplica
	Err      string

	Quotes []Quote
	TVLs   []TVLReading
	Blocks []Block
}

// Run es una ejecución del pipeline completo.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     RunStatus
	Steps      []StepResult
}

// Duration devuelve lo que tardó la ejecución (0 si no terminó).
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

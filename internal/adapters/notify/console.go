package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/onchainsheet/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out io.Writer
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// NotifyRun imprime el resumen de la ejecución: una fila por paso y, si hubo
// errores, el detalle debajo de la tabla.
func (c *Console) NotifyRun(_ context.Context, run domain.Run) error {
	fmt.Fprintf(c.out, "\n[%s] run %s: %s in %s\n",
		time.Now().Format("15:04:05"), shortID(run.ID), run.Status, formatDuration(run.Duration()))

	if len(run.Steps) == 0 {
		fmt.Fprintln(c.out, "  no steps executed")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Step", "Status", "Updated", "Skipped", "Failed", "Time", "Output")
	for i, st := range run.Steps {
		table.Append(
			fmt.Sprintf("%d", i+1),
			st.Step,
			statusLabel(st.Status),
			fmt.Sprintf("%d", st.Updated),
			fmt.Sprintf("%d", st.Skipped),
			fmt.Sprintf("%d", st.Failed),
			formatDuration(st.Duration),
			truncate(st.Output, 50),
		)
	}
	table.Render()

	for _, st := range run.Steps {
		if len(st.Blocks) > 0 {
			parts := make([]string, len(st.Blocks))
			for i, b := range st.Blocks {
				parts[i] = b.String()
			}
			fmt.Fprintf(c.out, "  %s: sorted rows %s\n", st.Step, strings.Join(parts, ", "))
		}
		if st.Err != "" {
			fmt.Fprintf(c.out, "  ✗ %s: %s\n", st.Step, st.Err)
		}
	}
	return nil
}

// PrintHistory imprime las últimas ejecuciones guardadas.
func (c *Console) PrintHistory(runs []domain.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "No runs recorded yet")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Run", "Started", "Status", "Steps", "Duration", "Prices", "TVLs", "Last step")
	for _, r := range runs {
		var prices, tvls int
		for _, st := range r.Steps {
			prices += len(st.Quotes)
			tvls += len(st.TVLs)
		}
		last := "-"
		if n := len(r.Steps); n > 0 {
			last = r.Steps[n-1].Step
		}
		table.Append(
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			statusLabel(r.Status),
			fmt.Sprintf("%d", len(r.Steps)),
			formatDuration(r.Duration()),
			fmt.Sprintf("%d", prices),
			fmt.Sprintf("%d", tvls),
			last,
		)
	}
	table.Render()
}

// --- helpers ---

func statusLabel(s domain.RunStatus) string {
	switch s {
	case domain.StatusOK:
		return "✓ ok"
	case domain.StatusFailed:
		return "✗ failed"
	default:
		return string(s)
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen+3:]
}

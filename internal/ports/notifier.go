package ports

import (
	"context"

	"github.com/alejandrodnm/onchainsheet/internal/domain"
)

// Notifier presenta al usuario el resultado de una ejecución.
type Notifier interface {
	// NotifyRun muestra el resumen de pasos de la ejecución.
	// En la implementación de consola, imprime una tabla formateada.
	NotifyRun(ctx context.Context, run domain.Run) error
}

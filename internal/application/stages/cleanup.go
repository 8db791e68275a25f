package stages

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/alejandrodnm/onchainsheet/internal/domain"
)

// Cleanup borra los ficheros intermedios. Nunca falla: los que no existen se
// ignoran y cualquier otro error se resume en un único warning.
func (s *Service) Cleanup(_ context.Context, paths []string) (domain.StepResult, error) {
	res := domain.StepResult{Step: StepCleanup}

	failed := false
	for _, p := range paths {
		removed, err := removePath(p)
		switch {
		case err != nil:
			slog.Debug("cleanup failed", "path", p, "err", err)
			failed = true
			res.Failed++
		case removed:
			res.Updated++
		default:
			res.Skipped++
		}
	}

	if failed {
		slog.Warn("Some cache files could not be removed. This can be ignored.")
	} else {
		slog.Info("Cache files cleared.")
	}
	return res, nil
}

// removePath borra un fichero o, si es un directorio, su árbol completo.
func removePath(p string) (bool, error) {
	info, err := os.Lstat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return true, os.RemoveAll(p)
	}
	return true, os.Remove(p)
}

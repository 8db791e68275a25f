package ports

import "github.com/alejandrodnm/onchainsheet/internal/domain"

// WorkbookOpener abre un workbook desde disco.
type WorkbookOpener interface {
	// Open devuelve el workbook o un error que envuelve ErrNotFound / ErrParse
	// del adaptador.
	Open(path string) (Workbook, error)
}

// Workbook es un fichero de hojas cargado en memoria.
type Workbook interface {
	// Sheet carga la hoja completa. Falla con ErrSheetMissing si no existe.
	Sheet(name string) (*domain.Sheet, error)
	// FillColor devuelve el color RGB (6 hex en mayúsculas) del relleno sólido
	// de la celda, o "" si no tiene.
	FillColor(sheet string, row, col int) (string, error)
	// SaveAs escribe las celdas modificadas y guarda en path, creando
	// directorios y sobrescribiendo el fichero si existe.
	SaveAs(path string) error
	Close() error
}

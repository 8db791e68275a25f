// Package stages implementa los pasos del pipeline sobre el workbook: cada
// paso abre un fichero, modifica una hoja y guarda el resultado en otro.
package stages

import (
	"context"
	"errors"
	"strings"

	"github.com/alejandrodnm/onchainsheet/internal/domain"
	"github.com/alejandrodnm/onchainsheet/internal/ports"
	"github.com/alejandrodnm/onchainsheet/internal/resort"
)

// Nombres de los pasos, tal y como aparecen en logs e histórico.
const (
	StepRewritePrices = "rewrite-prices"
	StepUpdatePrices  = "update-prices"
	StepUpdateTVL     = "update-tvl"
	StepSortByTVL     = "sort-by-tvl"
	StepCleanup       = "cleanup"
	StepPerfPrices    = "perf-prices"
)

// Columns contiene los índices 1-based de las columnas de la hoja ONCHAIN.
type Columns struct {
	Name          int
	Symbol        int
	Slug          int
	Type          int
	Price         int
	TVL           int
	RewriteSource int
	RewriteTarget int
}

// PerformanceConfig describe la hoja PERFORMANCE_TABLE.
type PerformanceConfig struct {
	Sheet        string
	StartRow     int
	Symbol       int
	Price        int
	HighlightRGB string
}

// Config contiene la configuración de todos los pasos.
type Config struct {
	Sheet           string
	StartRow        int
	RewriteStartRow int
	StopEmptyLimit  int // filas vacías seguidas que terminan el recorrido
	Columns         Columns
	Policy          resort.Policy
	Performance     PerformanceConfig
}

// Service ejecuta los pasos con las dependencias inyectadas desde cmd/.
type Service struct {
	cfg    Config
	opener ports.WorkbookOpener
	prices ports.PriceProvider
	tvl    ports.TVLProvider
}

// New crea un Service. prices y tvl pueden ser nil si no se usan los pasos
// que los necesitan.
func New(cfg Config, opener ports.WorkbookOpener, prices ports.PriceProvider, tvl ports.TVLProvider) *Service {
	if cfg.StopEmptyLimit <= 0 {
		cfg.StopEmptyLimit = 10
	}
	cfg.Performance.HighlightRGB = strings.ToUpper(strings.TrimPrefix(cfg.Performance.HighlightRGB, "#"))
	return &Service{cfg: cfg, opener: opener, prices: prices, tvl: tvl}
}

// openSheet abre el workbook y carga la hoja. Si la hoja no existe, cierra
// el workbook antes de devolver el error.
func (s *Service) openSheet(path, sheet string) (ports.Workbook, *domain.Sheet, error) {
	wb, err := s.opener.Open(path)
	if err != nil {
		return nil, nil, err
	}
	sh, err := wb.Sheet(sheet)
	if err != nil {
		wb.Close()
		return nil, nil, err
	}
	return wb, sh, nil
}

// upperText devuelve el texto de la celda sin espacios y en mayúsculas.
func upperText(c domain.Cell) string {
	return strings.ToUpper(c.TrimmedText())
}

// abort indica si un error de fila debe parar el paso entero: contexto
// cancelado o credenciales rechazadas.
func abort(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, ports.ErrUnauthorized) {
		return err
	}
	return nil
}

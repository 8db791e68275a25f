package stages_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alejandrodnm/onchainsheet/internal/adapters/xlsx"
	"github.com/alejandrodnm/onchainsheet/internal/application/stages"
	"github.com/alejandrodnm/onchainsheet/internal/domain"
	"github.com/alejandrodnm/onchainsheet/internal/ports"
	"github.com/alejandrodnm/onchainsheet/internal/resort"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sheet = "ONCHAIN"

func testConfig() stages.Config {
	return stages.Config{
		Sheet:           sheet,
		StartRow:        4,
		RewriteStartRow: 2,
		StopEmptyLimit:  3,
		Columns: stages.Columns{
			Name: 2, Symbol: 3, Slug: 4, Type: 5, Price: 8, TVL: 15,
			RewriteSource: 6, RewriteTarget: 4,
		},
		Policy: resort.PolicyLexical,
		Performance: stages.PerformanceConfig{
			Sheet:        "PERFORMANCE_TABLE",
			StartRow:     2,
			Symbol:       3,
			Price:        5,
			HighlightRGB: "#ffff00",
		},
	}
}

// buildWorkbook guarda un workbook con las celdas dadas ("A1" → valor) en la
// hoja indicada. Los strings que empiezan por "=" se escriben como fórmula.
func buildWorkbook(t *testing.T, sheetName string, cells map[string]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheetName))

	for ref, v := range cells {
		if s, ok := v.(string); ok && len(s) > 1 && s[0] == '=' {
			require.NoError(t, f.SetCellFormula(sheetName, ref, s[1:]))
			continue
		}
		require.NoError(t, f.SetCellValue(sheetName, ref, v))
	}

	path := filepath.Join(t.TempDir(), "in.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func outPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "out", "result.xlsx")
}

// readSheet reabre un fichero con el adaptador real.
func readSheet(t *testing.T, path, name string) *domain.Sheet {
	t.Helper()
	wb, err := xlsx.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { wb.Close() })
	s, err := wb.Sheet(name)
	require.NoError(t, err)
	return s
}

func cellValue(t *testing.T, path, name, ref string) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(name, ref)
	require.NoError(t, err)
	return v
}

// --- fakes ---

type fakePrices struct {
	mu        sync.Mutex
	listings  []domain.Listing
	byID      map[int]float64
	bySymbol  map[string]float64
	errByID   map[int]error
	mapErr    error
	symbolErr error
	calls     []string
}

func (f *fakePrices) FetchListings(context.Context) ([]domain.Listing, error) {
	return f.listings, f.mapErr
}

func (f *fakePrices) PriceByID(_ context.Context, id int) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("id:%d", id))
	if err := f.errByID[id]; err != nil {
		return 0, err
	}
	p, ok := f.byID[id]
	if !ok {
		return 0, fmt.Errorf("no quote for %d", id)
	}
	return p, nil
}

func (f *fakePrices) PriceBySymbol(_ context.Context, symbol string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "symbol:"+symbol)
	if f.symbolErr != nil {
		return 0, f.symbolErr
	}
	p, ok := f.bySymbol[symbol]
	if !ok {
		return 0, fmt.Errorf("no quote for %s", symbol)
	}
	return p, nil
}

type fakeTVL struct {
	protocols map[string]map[string]float64
	chains    []domain.Chain
	chainsErr error
	protoErr  error
	requested []string
}

func (f *fakeTVL) ProtocolChainTVLs(_ context.Context, slug string) (map[string]float64, error) {
	f.requested = append(f.requested, slug)
	if f.protoErr != nil {
		return nil, f.protoErr
	}
	tvls, ok := f.protocols[slug]
	if !ok {
		return nil, fmt.Errorf("client error 404: protocol %s", slug)
	}
	return tvls, nil
}

func (f *fakeTVL) Chains(context.Context) ([]domain.Chain, error) {
	return f.chains, f.chainsErr
}

var (
	_ ports.PriceProvider = (*fakePrices)(nil)
	_ ports.TVLProvider   = (*fakeTVL)(nil)
)

func newService(prices ports.PriceProvider, tvl ports.TVLProvider) *stages.Service {
	return stages.New(testConfig(), xlsx.NewOpener(), prices, tvl)
}

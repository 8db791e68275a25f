package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alejandrodnm/onchainsheet/config"
	"github.com/alejandrodnm/onchainsheet/internal/resort"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeConfig(t *testing.T, docs string) string {
	t.Helper()
	body := "workbook:\n  docs_dir: " + docs + "\n" +
		"storage:\n  dsn: " + filepath.Join(docs, "history.db") + "\n" +
		"log:\n  level: error\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStagesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Sort.FormulaPolicy = "strict"

	sc := stagesConfig(cfg)
	assert.Equal(t, "ONCHAIN", sc.Sheet)
	assert.Equal(t, 15, sc.Columns.TVL)
	assert.Equal(t, 8, sc.Columns.Price)
	assert.Equal(t, 6, sc.Columns.RewriteSource)
	assert.Equal(t, 4, sc.Columns.RewriteTarget)
	assert.Equal(t, 3, sc.Performance.Symbol)
	assert.Equal(t, 5, sc.Performance.Price)
	assert.Equal(t, resort.PolicyStrict, sc.Policy)
}

func TestResortOptions(t *testing.T) {
	cfg := config.Default()

	opts, err := resortOptions(cfg, "", 0, "")
	require.NoError(t, err)
	assert.Equal(t, resort.Options{SortColumn: 15, StartRow: 4, Policy: resort.PolicyLexical}, opts)

	opts, err = resortOptions(cfg, "aa", 2, "strict")
	require.NoError(t, err)
	assert.Equal(t, resort.Options{SortColumn: 27, StartRow: 2, Policy: resort.PolicyStrict}, opts)

	_, err = resortOptions(cfg, "1A", 0, "")
	assert.ErrorContains(t, err, "--column")

	_, err = resortOptions(cfg, "", -1, "")
	assert.ErrorContains(t, err, "--start-row")

	_, err = resortOptions(cfg, "", 0, "fuzzy")
	assert.Error(t, err)
}

func TestOnchainFiles(t *testing.T) {
	cfg := config.Default()
	cfg.Workbook.DocsDir = "/tmp/docs"

	f := onchainFiles(cfg)
	assert.Equal(t, "/tmp/docs/Weekly_performance_modified.xlsx", f.Source)
	assert.Equal(t, "/tmp/docs/Weekly_Performance_updated.xlsx", f.Output)
	assert.Len(t, f.Intermediates, 3)
}

func TestCLI_RewritePricesAndHistory(t *testing.T) {
	t.Setenv("API_KEY", "")
	docs := t.TempDir()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "ONCHAIN"))
	require.NoError(t, f.SetCellValue("ONCHAIN", "F2", 12.5))
	require.NoError(t, f.SaveAs(filepath.Join(docs, "Weekly_performance_modified.xlsx")))
	f.Close()

	cfgPath := writeConfig(t, docs)
	_, err := runCLI(t, "--config", cfgPath, "rewrite-prices")
	require.NoError(t, err)

	got, err := excelize.OpenFile(filepath.Join(docs, "updated_file.xlsx"))
	require.NoError(t, err)
	defer got.Close()
	v, err := got.GetCellValue("ONCHAIN", "D2")
	require.NoError(t, err)
	assert.Equal(t, "12.5", v)

	out, err := runCLI(t, "--config", cfgPath, "history", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "rewrite-prices")
}

func TestCLI_UpdatePricesRequiresAPIKey(t *testing.T) {
	t.Setenv("API_KEY", "")
	_, err := runCLI(t, "--config", writeConfig(t, t.TempDir()), "--no-history", "update-prices")
	assert.ErrorIs(t, err, errMissingAPIKey)
}

func TestCLI_HistoryDisabled(t *testing.T) {
	_, err := runCLI(t, "--config", writeConfig(t, t.TempDir()), "--no-history", "history")
	assert.ErrorContains(t, err, "disabled")
}

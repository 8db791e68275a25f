package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alejandrodnm/onchainsheet/internal/resort"
	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del updater.
type Config struct {
	Workbook    WorkbookConfig    `yaml:"workbook"`
	Columns     ColumnsConfig     `yaml:"columns"`
	Scan        ScanConfig        `yaml:"scan"`
	Sort        SortConfig        `yaml:"sort"`
	Performance PerformanceConfig `yaml:"performance"`
	API         APIConfig         `yaml:"api"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Storage     StorageConfig     `yaml:"storage"`
	Log         LogConfig         `yaml:"log"`
}

// WorkbookConfig define la hoja ONCHAIN y los ficheros que se pasan los pasos.
// Las rutas relativas se resuelven contra DocsDir.
type WorkbookConfig struct {
	DocsDir       string `yaml:"docs_dir"`
	Sheet         string `yaml:"sheet"`
	StartRow      int    `yaml:"start_row"`
	Source        string `yaml:"source"`         // workbook editado a mano
	RewrittenFile string `yaml:"rewritten_file"` // salida de rewrite-prices
	PricesFile    string `yaml:"prices_file"`    // salida de update-prices
	TVLFile       string `yaml:"tvl_file"`       // salida de update-tvl
	Output        string `yaml:"output"`         // salida final ordenada
}

// ColumnsConfig contiene las letras de columna de la hoja ONCHAIN.
type ColumnsConfig struct {
	Name          string `yaml:"name"`
	Symbol        string `yaml:"symbol"`
	Slug          string `yaml:"slug"`
	Type          string `yaml:"type"`
	Price         string `yaml:"price"`
	TVL           string `yaml:"tvl"`
	RewriteSource string `yaml:"rewrite_source"`
	RewriteTarget string `yaml:"rewrite_target"`
}

// ScanConfig controla cómo se recorren las filas.
type ScanConfig struct {
	StopEmptyLimit  int `yaml:"stop_empty_limit"`  // filas vacías seguidas que terminan el recorrido
	RewriteStartRow int `yaml:"rewrite_start_row"` // rewrite-prices empieza antes que el resto
}

// SortConfig controla la ordenación por TVL.
type SortConfig struct {
	FormulaPolicy string `yaml:"formula_policy"` // lexical | strict
}

// PerformanceConfig controla la actualización de PERFORMANCE_TABLE.
type PerformanceConfig struct {
	Sheet        string `yaml:"sheet"`
	StartRow     int    `yaml:"start_row"`
	Symbol       string `yaml:"symbol"`
	Price        string `yaml:"price"`
	HighlightRGB string `yaml:"highlight_rgb"`
	Input        string `yaml:"input"`
	Output       string `yaml:"output"`
}

// APIConfig contiene base URLs, API key y ritmo de peticiones.
type APIConfig struct {
	CMCBase        string `yaml:"cmc_base"`
	LlamaBase      string `yaml:"llama_base"`
	CMCKey         string `yaml:"-"` // solo desde API_KEY
	CMCDelayMs     int    `yaml:"cmc_delay_ms"`
	LlamaDelayMs   int    `yaml:"llama_delay_ms"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// PipelineConfig controla el runner.
type PipelineConfig struct {
	StepDelaySeconds int `yaml:"step_delay_seconds"`
}

// StorageConfig controla dónde se persiste el histórico.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Si path está vacío o no existe el fichero por defecto, parte de los defaults.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	case os.IsNotExist(err) && path == DefaultPath:
		// sin fichero: defaults + entorno
	default:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultPath es la ruta de configuración por defecto.
const DefaultPath = "config/config.yaml"

// Default devuelve una configuración con todos los defaults aplicados.
func Default() *Config {
	var cfg Config
	setDefaults(&cfg)
	return &cfg
}

// Validate comprueba letras de columna, filas y política de fórmulas.
func (c *Config) Validate() error {
	cols := map[string]string{
		"columns.name":           c.Columns.Name,
		"columns.symbol":         c.Columns.Symbol,
		"columns.slug":           c.Columns.Slug,
		"columns.type":           c.Columns.Type,
		"columns.price":          c.Columns.Price,
		"columns.tvl":            c.Columns.TVL,
		"columns.rewrite_source": c.Columns.RewriteSource,
		"columns.rewrite_target": c.Columns.RewriteTarget,
		"performance.symbol":     c.Performance.Symbol,
		"performance.price":      c.Performance.Price,
	}
	for key, letters := range cols {
		if _, err := ColumnIndex(letters); err != nil {
			return fmt.Errorf("config.Validate: %s: %w", key, err)
		}
	}
	if c.Workbook.StartRow < 1 || c.Scan.RewriteStartRow < 1 || c.Performance.StartRow < 1 {
		return fmt.Errorf("config.Validate: start rows must be >= 1")
	}
	if _, err := resort.ParsePolicy(c.Sort.FormulaPolicy); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	return nil
}

// ColumnIndex convierte letras de columna (A, O, AA) a su índice 1-based.
func ColumnIndex(letters string) (int, error) {
	letters = strings.TrimSpace(letters)
	if letters == "" {
		return 0, fmt.Errorf("empty column")
	}
	return excelize.ColumnNameToNumber(letters)
}

// MustColumn es ColumnIndex para columnas ya validadas por Validate.
func MustColumn(letters string) int {
	n, err := ColumnIndex(letters)
	if err != nil {
		panic(err)
	}
	return n
}

// Path resuelve un fichero del workbook contra DocsDir.
func (c *Config) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Workbook.DocsDir, name)
}

// Intermediates devuelve los ficheros temporales que borra cleanup.
func (c *Config) Intermediates() []string {
	return []string{
		c.Path(c.Workbook.RewrittenFile),
		c.Path(c.Workbook.PricesFile),
		c.Path(c.Workbook.TVLFile),
	}
}

// CMCDelay devuelve la pausa mínima entre peticiones a CoinMarketCap.
func (c *Config) CMCDelay() time.Duration {
	return time.Duration(c.API.CMCDelayMs) * time.Millisecond
}

// LlamaDelay devuelve la pausa mínima entre peticiones a DefiLlama.
func (c *Config) LlamaDelay() time.Duration {
	return time.Duration(c.API.LlamaDelayMs) * time.Millisecond
}

// HTTPTimeout devuelve el timeout por petición.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// StepDelay devuelve la pausa entre pasos del pipeline.
func (c *Config) StepDelay() time.Duration {
	return time.Duration(c.Pipeline.StepDelaySeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.API.CMCKey = v
	}
	if v := os.Getenv("DOCS_DIR"); v != "" {
		cfg.Workbook.DocsDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	w := &cfg.Workbook
	setString(&w.DocsDir, "docs")
	setString(&w.Sheet, "ONCHAIN")
	setInt(&w.StartRow, 4)
	setString(&w.Source, "Weekly_performance_modified.xlsx")
	setString(&w.RewrittenFile, "updated_file.xlsx")
	setString(&w.PricesFile, "updated_prices.xlsx")
	setString(&w.TVLFile, "updated_tvl.xlsx")
	setString(&w.Output, "Weekly_Performance_updated.xlsx")

	c := &cfg.Columns
	setString(&c.Name, "B")
	setString(&c.Symbol, "C")
	setString(&c.Slug, "D")
	setString(&c.Type, "E")
	setString(&c.Price, "H")
	setString(&c.TVL, "O")
	setString(&c.RewriteSource, "F")
	setString(&c.RewriteTarget, "D")

	setInt(&cfg.Scan.StopEmptyLimit, 10)
	setInt(&cfg.Scan.RewriteStartRow, 2)
	setString(&cfg.Sort.FormulaPolicy, string(resort.PolicyLexical))

	p := &cfg.Performance
	setString(&p.Sheet, "PERFORMANCE_TABLE")
	setInt(&p.StartRow, 2)
	setString(&p.Symbol, "C")
	setString(&p.Price, "E")
	setString(&p.HighlightRGB, "FFFF00")
	setString(&p.Input, "Weekly_Performance_PORTFOLIO.xlsx")
	setString(&p.Output, "Weekly_Performance_PORTFOLIO_latest.xlsx")

	a := &cfg.API
	setString(&a.CMCBase, "https://pro-api.coinmarketcap.com")
	setString(&a.LlamaBase, "https://api.llama.fi")
	setInt(&a.CMCDelayMs, 2100)
	setInt(&a.LlamaDelayMs, 1000)
	setInt(&a.TimeoutSeconds, 20)

	setInt(&cfg.Pipeline.StepDelaySeconds, 5)
	setString(&cfg.Storage.DSN, "onchain.db")
	setString(&cfg.Log.Level, "info")
	setString(&cfg.Log.Format, "text")
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst <= 0 {
		*dst = def
	}
}

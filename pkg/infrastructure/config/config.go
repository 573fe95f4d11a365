// Package config loads the YAML configuration file and applies
// QUILTPLAN_* environment overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/services/planning"
)

// DefaultPath is read when no --config flag is given
const DefaultPath = "quiltplan.yaml"

// Store backends
const (
	BackendMemory    = "memory"
	BackendCSV       = "csv"
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendSheets    = "sheets"
	BackendFirestore = "firestore"
)

// Config represents the complete configuration file
type Config struct {
	Store struct {
		Backend string `yaml:"backend"`

		CSV struct {
			Dir string `yaml:"dir"`
		} `yaml:"csv"`

		SQLite struct {
			Path string `yaml:"path"`
		} `yaml:"sqlite"`

		Postgres struct {
			DSN string `yaml:"dsn"`
		} `yaml:"postgres"`

		Sheets struct {
			SpreadsheetID string `yaml:"spreadsheet_id"`
			Demand        string `yaml:"demand_sheet"`
			Stock         string `yaml:"stock_sheet"`
			Finished      string `yaml:"finished_sheet"`
		} `yaml:"sheets"`

		Firestore struct {
			ProjectID string `yaml:"project_id"`
			Prefix    string `yaml:"collection_prefix"`
		} `yaml:"firestore"`
	} `yaml:"store"`

	Planning struct {
		Lookback        int     `yaml:"lookback"`
		ReserveFraction float64 `yaml:"reserve_fraction"`
		BufferFraction  float64 `yaml:"buffer_fraction"`
		PeriodUnit      string  `yaml:"period_unit"`
		StartPeriod     int     `yaml:"start_period"`
		InitialStock    struct {
			Cotton float64 `yaml:"cotton"`
			Fibre  float64 `yaml:"fibre"`
		} `yaml:"initial_stock"`
	} `yaml:"planning"`

	UsageRates []UsageRateConfig `yaml:"usage_rates"`

	// Credentials is a key file path or a secretmanager:// reference
	Credentials string `yaml:"credentials"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`

	Export struct {
		Target string `yaml:"target"`
		Region string `yaml:"region"`
	} `yaml:"export"`
}

// UsageRateConfig is one usage_rates entry
type UsageRateConfig struct {
	Variant string  `yaml:"variant"`
	Cotton  float64 `yaml:"cotton_per_unit"`
	Fibre   float64 `yaml:"fibre_per_unit"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	cfg := &Config{}
	cfg.Store.Backend = BackendSQLite
	cfg.Store.CSV.Dir = "data"
	cfg.Store.SQLite.Path = "quiltplan.db"
	cfg.Store.Sheets.Demand = "Sales"
	cfg.Store.Sheets.Stock = "Stock"
	cfg.Store.Sheets.Finished = "Finished"
	cfg.Store.Firestore.Prefix = "quiltplan_"

	cfg.Planning.Lookback = 1
	cfg.Planning.ReserveFraction = 0.10
	cfg.Planning.BufferFraction = 0.10
	cfg.Planning.PeriodUnit = "day"
	cfg.Planning.StartPeriod = 1
	cfg.Planning.InitialStock.Cotton = 500
	cfg.Planning.InitialStock.Fibre = 250

	cfg.UsageRates = []UsageRateConfig{
		{Variant: "single", Cotton: 2, Fibre: 1},
		{Variant: "double", Cotton: 3.5, Fibre: 1.25},
		{Variant: "king", Cotton: 4.2, Fibre: 2},
	}

	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Metrics.Addr = ":9090"
	return cfg
}

// Load reads path over the defaults; a missing file leaves the defaults in place.
// Environment overrides are applied afterwards and the result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from QUILTPLAN_* variables
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	overrides := map[string]*string{
		"QUILTPLAN_STORE_BACKEND":         &c.Store.Backend,
		"QUILTPLAN_CSV_DIR":               &c.Store.CSV.Dir,
		"QUILTPLAN_SQLITE_PATH":           &c.Store.SQLite.Path,
		"QUILTPLAN_POSTGRES_DSN":          &c.Store.Postgres.DSN,
		"QUILTPLAN_SHEETS_SPREADSHEET_ID": &c.Store.Sheets.SpreadsheetID,
		"QUILTPLAN_FIRESTORE_PROJECT_ID":  &c.Store.Firestore.ProjectID,
		"QUILTPLAN_CREDENTIALS":           &c.Credentials,
		"QUILTPLAN_LOG_LEVEL":             &c.Log.Level,
		"QUILTPLAN_EXPORT_TARGET":         &c.Export.Target,
	}
	for key, field := range overrides {
		if v, ok := lookup(key); ok && v != "" {
			*field = v
		}
	}
}

// Validate checks ranges and that the selected backend is fully configured
func (c *Config) Validate() error {
	if c.Planning.Lookback < 1 {
		return fmt.Errorf("planning.lookback must be at least 1, got %d", c.Planning.Lookback)
	}
	if c.Planning.ReserveFraction < 0 {
		return fmt.Errorf("planning.reserve_fraction cannot be negative, got %v", c.Planning.ReserveFraction)
	}
	if c.Planning.BufferFraction < 0 {
		return fmt.Errorf("planning.buffer_fraction cannot be negative, got %v", c.Planning.BufferFraction)
	}
	if c.Planning.StartPeriod < 0 {
		return fmt.Errorf("planning.start_period cannot be negative, got %d", c.Planning.StartPeriod)
	}
	if c.Planning.InitialStock.Cotton < 0 || c.Planning.InitialStock.Fibre < 0 {
		return fmt.Errorf("planning.initial_stock cannot be negative")
	}
	if _, err := entities.ParsePeriodUnit(c.Planning.PeriodUnit); err != nil {
		return err
	}
	if _, err := c.Rates(); err != nil {
		return err
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendCSV:
		if c.Store.CSV.Dir == "" {
			return fmt.Errorf("store.csv.dir is required for the csv backend")
		}
	case BackendSQLite:
		if c.Store.SQLite.Path == "" {
			return fmt.Errorf("store.sqlite.path is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn is required for the postgres backend")
		}
	case BackendSheets:
		if c.Store.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("store.sheets.spreadsheet_id is required for the sheets backend")
		}
	case BackendFirestore:
		if c.Store.Firestore.ProjectID == "" {
			return fmt.Errorf("store.firestore.project_id is required for the firestore backend")
		}
	default:
		return fmt.Errorf("unknown store backend: %q", c.Store.Backend)
	}
	return nil
}

// Policy converts the planning section to an engine policy
func (c *Config) Policy() planning.Policy {
	return planning.Policy{
		Lookback:        c.Planning.Lookback,
		ReserveFraction: decimal.NewFromFloat(c.Planning.ReserveFraction),
		BufferFraction:  decimal.NewFromFloat(c.Planning.BufferFraction),
	}
}

// Rates validates and converts usage_rates
func (c *Config) Rates() ([]entities.UsageRate, error) {
	rates := make([]entities.UsageRate, 0, len(c.UsageRates))
	for _, rc := range c.UsageRates {
		variant, err := entities.ParseVariant(rc.Variant)
		if err != nil {
			return nil, fmt.Errorf("usage_rates: %w", err)
		}
		rate, err := entities.NewUsageRate(variant, decimal.NewFromFloat(rc.Cotton), decimal.NewFromFloat(rc.Fibre))
		if err != nil {
			return nil, fmt.Errorf("usage_rates: %w", err)
		}
		rates = append(rates, *rate)
	}
	if _, err := entities.NewUsageTable(rates); err != nil {
		return nil, fmt.Errorf("usage_rates: %w", err)
	}
	return rates, nil
}

// PeriodUnit returns the parsed planning.period_unit
func (c *Config) PeriodUnit() entities.PeriodUnit {
	unit, _ := entities.ParsePeriodUnit(strings.ToLower(c.Planning.PeriodUnit))
	return unit
}

// InitialStock returns planning.initial_stock as materials
func (c *Config) InitialStock() entities.Materials {
	return entities.MaterialsFromFloat(c.Planning.InitialStock.Cotton, c.Planning.InitialStock.Fibre)
}

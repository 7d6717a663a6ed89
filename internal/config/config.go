package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file.
const FileName = "extrato.yaml"

// DefaultSQLitePath is the database file used when no DSN is configured.
const DefaultSQLitePath = "extrato.db"

// Config represents the top-level extrato.yaml configuration.
type Config struct {
	Database   DatabaseConfig     `yaml:"database"`
	Log        LogConfig          `yaml:"log"`
	Import     ImportConfig       `yaml:"import"`
	Thresholds ThresholdsConfig   `yaml:"thresholds"`
	Categories []CategoryOverride `yaml:"categories,omitempty"`
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "mysql"
	DSN    string `yaml:"dsn"`
	LogSQL bool   `yaml:"log_sql,omitempty"`
}

// LogConfig controls process logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// ImportConfig controls batch imports.
type ImportConfig struct {
	Dir string `yaml:"dir"`
}

// ThresholdsConfig tunes recurrence and anomaly detection.
type ThresholdsConfig struct {
	SpikeFactor          float64 `yaml:"spike_factor"`
	SpikeFloor           float64 `yaml:"spike_floor"`
	HighValueFactor      float64 `yaml:"high_value_factor"`
	RecurringVariancePct float64 `yaml:"recurring_variance_pct"`
	CategoryIncreasePct  float64 `yaml:"category_increase_pct"`
	TrailingWindow       int     `yaml:"trailing_window"`
	MinRecurringMonths   int     `yaml:"min_recurring_months"`
}

// CategoryOverride personalizes a built-in category or adds a new one.
type CategoryOverride struct {
	Name                string              `yaml:"name"`
	Subcategories       []string            `yaml:"subcategories,omitempty"`
	Keywords            []string            `yaml:"keywords,omitempty"`
	SubcategoryKeywords map[string][]string `yaml:"subcategory_keywords,omitempty"`
}

// Load reads an extrato.yaml file from disk. Missing settings keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    DefaultSQLitePath,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Import: ImportConfig{
			Dir: "import",
		},
		Thresholds: ThresholdsConfig{
			SpikeFactor:          1.5,
			SpikeFloor:           100,
			HighValueFactor:      2,
			RecurringVariancePct: 20,
			CategoryIncreasePct:  50,
			TrailingWindow:       6,
			MinRecurringMonths:   2,
		},
	}
}

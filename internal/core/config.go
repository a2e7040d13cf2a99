package core

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/1sec-project/flowprep/internal/balance"
	"github.com/1sec-project/flowprep/internal/normalize"
	"github.com/1sec-project/flowprep/internal/schema"
)

// Config holds the entire flowprep configuration.
type Config struct {
	Schema   SchemaConfig   `yaml:"schema"`
	Balance  BalanceConfig  `yaml:"balance"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Subset   SubsetConfig   `yaml:"subset"`
	Bus      BusConfig      `yaml:"bus"`
	History  HistoryConfig  `yaml:"history"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SchemaConfig selects the column layout and how raw cells are treated.
type SchemaConfig struct {
	Profile          string `yaml:"profile"` // built-in profile name or path to a YAML schema
	StrictCategories bool   `yaml:"strict_categories"`
	NullPolicy       string `yaml:"null_policy"` // "skip" or "impute"
	AddressCache     int    `yaml:"address_cache"`
}

// BalanceConfig holds class-rebalancing settings.
type BalanceConfig struct {
	Strategy  string  `yaml:"strategy"` // "none", "random" or "smote"
	Seed      uint64  `yaml:"seed"`
	Threshold float64 `yaml:"threshold"`
	Neighbors int     `yaml:"neighbors"`
	Shuffle   bool    `yaml:"shuffle"`
}

// PipelineConfig holds batch execution settings.
type PipelineConfig struct {
	Workers        int    `yaml:"workers"`
	OutputDir      string `yaml:"output_dir"` // empty writes next to each input
	CompressOutput bool   `yaml:"compress_output"`
	Pattern        string `yaml:"pattern"` // glob for input discovery
}

// SubsetConfig holds settings for extracting experiment subsets from the
// raw dataset files.
type SubsetConfig struct {
	Percentages    []float64 `yaml:"percentages"`
	Decimals       int       `yaml:"decimals"`
	CategoryColumn int       `yaml:"category_column"`
	SubcatColumn   int       `yaml:"subcategory_column"`
}

// BusConfig holds NATS settings for publishing job results.
type BusConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Embedded      bool   `yaml:"embedded"`
	Port          int    `yaml:"port"`
	SubjectPrefix string `yaml:"subject_prefix"`
	DataDir       string `yaml:"data_dir"` // JetStream store for the embedded server
}

// MetricsConfig controls the Prometheus textfile written after each run.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config that processes BoT-IoT exports as-is.
func DefaultConfig() *Config {
	return &Config{
		Schema: SchemaConfig{
			Profile:    schema.ProfileBoTIoT,
			NullPolicy: "skip",
		},
		Balance: BalanceConfig{
			Strategy:  "none",
			Seed:      1,
			Threshold: balance.DefaultThreshold,
			Neighbors: balance.DefaultNeighbors,
		},
		Pipeline: PipelineConfig{
			Workers: 4,
			Pattern: "*.csv",
		},
		Subset: SubsetConfig{
			Decimals:       4,
			CategoryColumn: 33,
			SubcatColumn:   34,
		},
		Bus: BusConfig{
			URL:           "nats://127.0.0.1:4222",
			Port:          4222,
			SubjectPrefix: "flowprep",
			DataDir:       "./data/nats",
		},
		History: DefaultHistoryConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from a YAML file, falling back to defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the configuration to a YAML file.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate returns non-fatal warnings and fatal errors.
func (c *Config) Validate() (warnings []string, errs []error) {
	if _, err := schema.Resolve(c.Schema.Profile); err != nil {
		errs = append(errs, fmt.Errorf("schema.profile: %w", err))
	}
	if _, err := normalize.ParseNullPolicy(c.Schema.NullPolicy); err != nil {
		errs = append(errs, fmt.Errorf("schema.null_policy: %w", err))
	}
	switch strings.ToLower(c.Balance.Strategy) {
	case "", "none", "random":
	case "smote":
		if c.Balance.Neighbors < 1 {
			errs = append(errs, fmt.Errorf("balance.neighbors must be at least 1, got %d", c.Balance.Neighbors))
		}
	default:
		errs = append(errs, fmt.Errorf("balance.strategy: unknown strategy %q", c.Balance.Strategy))
	}
	if c.Balance.Threshold <= 0 || c.Balance.Threshold > 1 {
		errs = append(errs, fmt.Errorf("balance.threshold must be in (0,1], got %v", c.Balance.Threshold))
	}
	if c.Balance.Seed == 0 {
		warnings = append(warnings, "balance.seed is 0; sampling is still deterministic but shared with every unseeded run")
	}
	if c.Pipeline.Workers < 1 {
		errs = append(errs, fmt.Errorf("pipeline.workers must be at least 1, got %d", c.Pipeline.Workers))
	}
	if c.Schema.NullPolicy == "impute" && c.Balance.Strategy == "smote" {
		warnings = append(warnings, "imputed -1 sentinels take part in SMOTE neighbour distances")
	}
	for _, p := range c.Subset.Percentages {
		if p <= 0 || p > 100 {
			errs = append(errs, fmt.Errorf("subset.percentages: %v not in (0,100]", p))
		}
	}
	if c.Subset.Decimals < 0 || c.Subset.Decimals > 6 {
		errs = append(errs, fmt.Errorf("subset.decimals: %d not in [0,6]", c.Subset.Decimals))
	}
	if c.Bus.Enabled && !c.Bus.Embedded && c.Bus.URL == "" {
		errs = append(errs, fmt.Errorf("bus.url is required when the bus is enabled and not embedded"))
	}
	switch c.LogLevel() {
	case "debug", "info", "warn", "error":
	default:
		warnings = append(warnings, fmt.Sprintf("logging.level %q not recognized, using info", c.Logging.Level))
	}
	return warnings, errs
}

// LogLevel returns the parsed log level string.
func (c *Config) LogLevel() string {
	return strings.ToLower(c.Logging.Level)
}

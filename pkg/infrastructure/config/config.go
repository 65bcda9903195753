package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory
const FileName = "prodplan.yml"

// Config models prodplan.yml
type Config struct {
	Planning struct {
		TotalLaborHours      float64 `yaml:"total_labor_hours" json:"total_labor_hours"`
		MaxShiftsPerDay      int     `yaml:"max_shifts_per_day" json:"max_shifts_per_day"`
		UnknownProductPolicy string  `yaml:"unknown_product_policy" json:"unknown_product_policy"`
		AttainmentRounding   string  `yaml:"attainment_rounding" json:"attainment_rounding"`
		SolveTimeout         string  `yaml:"solve_timeout" json:"solve_timeout"`
	} `yaml:"planning" json:"planning"`
	Catalog struct {
		DuplicateDescriptions string `yaml:"duplicate_descriptions" json:"duplicate_descriptions"`
	} `yaml:"catalog" json:"catalog"`
	Store struct {
		DSN string `yaml:"dsn" json:"dsn"`
	} `yaml:"store" json:"store"`
	Tracing struct {
		Output string `yaml:"output" json:"output"`
	} `yaml:"tracing" json:"tracing"`
}

// Default returns the default configuration
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal([]byte(defaultTemplate), &cfg); err != nil {
		panic(fmt.Sprintf("default config: %v", err))
	}
	return &cfg
}

// GenerateDefault returns the default config YAML
func GenerateDefault() string {
	return defaultTemplate
}

// FromYAML parses config from raw YAML bytes on top of the defaults and validates it
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the defaults if the config file does not exist
func LoadOptional(path string) (*Config, error) {
	if path == "" {
		path = FileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures every value is in range
func (c *Config) Validate() error {
	if c.Planning.TotalLaborHours <= 0 {
		return fmt.Errorf("config.planning.total_labor_hours must be positive")
	}
	if c.Planning.MaxShiftsPerDay <= 0 {
		return fmt.Errorf("config.planning.max_shifts_per_day must be a positive integer")
	}
	switch c.Planning.UnknownProductPolicy {
	case "skip", "abort":
	default:
		return fmt.Errorf("config.planning.unknown_product_policy must be 'skip' or 'abort', got '%s'", c.Planning.UnknownProductPolicy)
	}
	switch c.Planning.AttainmentRounding {
	case "exact", "legacy":
	default:
		return fmt.Errorf("config.planning.attainment_rounding must be 'exact' or 'legacy', got '%s'", c.Planning.AttainmentRounding)
	}
	if _, err := c.SolveTimeout(); err != nil {
		return err
	}
	switch c.Catalog.DuplicateDescriptions {
	case "last_wins", "reject":
	default:
		return fmt.Errorf("config.catalog.duplicate_descriptions must be 'last_wins' or 'reject', got '%s'", c.Catalog.DuplicateDescriptions)
	}
	return nil
}

// SolveTimeout parses planning.solve_timeout
func (c *Config) SolveTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Planning.SolveTimeout)
	if err != nil {
		return 0, fmt.Errorf("config.planning.solve_timeout is not a duration: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config.planning.solve_timeout must be positive")
	}
	return d, nil
}

const defaultTemplate = `planning:
  total_labor_hours: 5000
  max_shifts_per_day: 3
  unknown_product_policy: skip   # skip | abort
  attainment_rounding: exact     # exact | legacy
  solve_timeout: 30s

catalog:
  duplicate_descriptions: last_wins   # last_wins | reject

store:
  dsn: ""   # sqlite file path or mysql:// URL; empty disables run history

tracing:
  output: ""   # span output file; empty disables tracing
`

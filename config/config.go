package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/merton/risk"
	"github.com/rustyeddy/merton/sim"
)

// Config represents a complete simulation run configuration
type Config struct {
	Portfolio  PortfolioConfig  `json:"portfolio" yaml:"portfolio"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Risk       RiskConfig       `json:"risk" yaml:"risk"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
}

// PortfolioConfig points at the obligor file, or describes a homogeneous
// portfolio when Homogeneous > 0.
type PortfolioConfig struct {
	Path        string  `json:"path,omitempty" yaml:"path,omitempty"`
	Homogeneous int     `json:"homogeneous,omitempty" yaml:"homogeneous,omitempty"`
	EAD         float64 `json:"ead,omitempty" yaml:"ead,omitempty"`
	PD          float64 `json:"pd,omitempty" yaml:"pd,omitempty"`
	LGD         float64 `json:"lgd,omitempty" yaml:"lgd,omitempty"`
}

// SimulationConfig contains Monte Carlo parameters
type SimulationConfig struct {
	AssetCorr float64 `json:"asset_corr" yaml:"asset_corr"`
	Scenarios int     `json:"scenarios" yaml:"scenarios"`
	Seed      *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
	Workers   int     `json:"workers,omitempty" yaml:"workers,omitempty"`
	ChunkSize int     `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"`
}

// RiskConfig contains reporting levels and limits
type RiskConfig struct {
	Confidence []float64 `json:"confidence" yaml:"confidence"`
	LimitLevel float64   `json:"limit_level,omitempty" yaml:"limit_level,omitempty"`
	MaxELPct   float64   `json:"max_el_pct,omitempty" yaml:"max_el_pct,omitempty"`
	MaxVaRPct  float64   `json:"max_var_pct,omitempty" yaml:"max_var_pct,omitempty"`
	MaxESPct   float64   `json:"max_es_pct,omitempty" yaml:"max_es_pct,omitempty"`
	MaxGap     float64   `json:"max_convergence_gap,omitempty" yaml:"max_convergence_gap,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type          string `json:"type" yaml:"type"` // "sqlite", "csv" or "none"
	DBPath        string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	RunsFile      string `json:"runs_file,omitempty" yaml:"runs_file,omitempty"`
	ScenariosFile string `json:"scenarios_file,omitempty" yaml:"scenarios_file,omitempty"`
	MeasuresFile  string `json:"measures_file,omitempty" yaml:"measures_file,omitempty"`
	OrgPath       string `json:"org_path,omitempty" yaml:"org_path,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on extension)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Portfolio.Path == "" && c.Portfolio.Homogeneous <= 0 {
		return fmt.Errorf("portfolio.path is required")
	}
	if c.Portfolio.Path != "" && c.Portfolio.Homogeneous > 0 {
		return fmt.Errorf("portfolio.path and portfolio.homogeneous are mutually exclusive")
	}
	if a := c.Simulation.AssetCorr; math.IsNaN(a) || a < 0 || a >= 1 {
		return fmt.Errorf("simulation.asset_corr must be in [0,1)")
	}
	if c.Simulation.Scenarios <= 0 {
		return fmt.Errorf("simulation.scenarios must be positive")
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("simulation.workers must not be negative")
	}
	if c.Simulation.ChunkSize < 0 {
		return fmt.Errorf("simulation.chunk_size must not be negative")
	}
	for _, lvl := range c.Risk.Confidence {
		if math.IsNaN(lvl) || lvl <= 0 || lvl >= 1 {
			return fmt.Errorf("risk.confidence levels must be in (0,1)")
		}
	}
	if c.Risk.LimitLevel != 0 && !contains(c.Risk.Levels(), c.Risk.LimitLevel) {
		return fmt.Errorf("risk.limit_level must be one of risk.confidence")
	}
	switch c.Journal.Type {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "csv":
		if c.Journal.RunsFile == "" || c.Journal.ScenariosFile == "" || c.Journal.MeasuresFile == "" {
			return fmt.Errorf("journal runs_file, scenarios_file and measures_file required for CSV type")
		}
	case "none", "":
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv' or 'none'")
	}
	return nil
}

// SimConfig converts the simulation section for the engine.
func (s SimulationConfig) SimConfig() sim.Config {
	return sim.Config{
		AssetCorr: s.AssetCorr,
		Scenarios: s.Scenarios,
		Seed:      s.Seed,
		Workers:   s.Workers,
		ChunkSize: s.ChunkSize,
	}
}

// Levels returns the reported confidence levels, risk.DefaultLevels when
// none are configured.
func (r RiskConfig) Levels() []float64 {
	if len(r.Confidence) == 0 {
		return risk.DefaultLevels
	}
	return r.Confidence
}

// Policy converts the risk section into limit checks. Without a LimitLevel
// the limits apply at the highest configured level.
func (r RiskConfig) Policy() risk.Policy {
	levels := r.Levels()
	lvl := r.LimitLevel
	if lvl == 0 {
		lvl = levels[len(levels)-1]
	}
	return risk.Policy{
		Confidence:         lvl,
		MaxExpectedLossPct: r.MaxELPct,
		MaxVaRPct:          r.MaxVaRPct,
		MaxESPct:           r.MaxESPct,
		MaxConvergenceGap:  r.MaxGap,
	}
}

func contains(xs []float64, x float64) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Portfolio: PortfolioConfig{
			Path: "./portfolio.csv",
		},
		Simulation: SimulationConfig{
			AssetCorr: 0.05,
			Scenarios: 100_000,
		},
		Risk: RiskConfig{
			Confidence: []float64{0.95, 0.99, 0.999},
			MaxGap:     0.05,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./merton.sqlite",
		},
	}
}

package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/merton/risk"
	"github.com/rustyeddy/merton/sim"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, 0.05, cfg.Simulation.AssetCorr)
	assert.Equal(t, 100_000, cfg.Simulation.Scenarios)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
	assert.NoError(t, cfg.Validate())
}

func valid() *Config {
	return &Config{
		Portfolio:  PortfolioConfig{Path: "pf.csv"},
		Simulation: SimulationConfig{AssetCorr: 0.1, Scenarios: 1000},
		Journal:    JournalConfig{Type: "none"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid config", func(*Config) {}, ""},
		{"empty journal type", func(c *Config) { c.Journal.Type = "" }, ""},
		{"homogeneous portfolio", func(c *Config) {
			c.Portfolio = PortfolioConfig{Homogeneous: 100, EAD: 1, PD: 0.02, LGD: 0.6}
		}, ""},
		{"missing portfolio", func(c *Config) { c.Portfolio.Path = "" }, "portfolio.path is required"},
		{"both portfolio sources", func(c *Config) { c.Portfolio.Homogeneous = 10 }, "mutually exclusive"},
		{"rho one", func(c *Config) { c.Simulation.AssetCorr = 1 }, "simulation.asset_corr must be in [0,1)"},
		{"rho negative", func(c *Config) { c.Simulation.AssetCorr = -0.2 }, "simulation.asset_corr must be in [0,1)"},
		{"zero scenarios", func(c *Config) { c.Simulation.Scenarios = 0 }, "simulation.scenarios must be positive"},
		{"negative workers", func(c *Config) { c.Simulation.Workers = -2 }, "simulation.workers must not be negative"},
		{"negative chunk", func(c *Config) { c.Simulation.ChunkSize = -1 }, "simulation.chunk_size must not be negative"},
		{"bad confidence", func(c *Config) { c.Risk.Confidence = []float64{0.99, 1} }, "risk.confidence levels must be in (0,1)"},
		{"nan confidence", func(c *Config) { c.Risk.Confidence = []float64{math.NaN()} }, "risk.confidence levels must be in (0,1)"},
		{"limit level from default levels", func(c *Config) {
			c.Risk.Confidence = nil
			c.Risk.LimitLevel = 0.99
		}, ""},
		{"limit level not reported", func(c *Config) {
			c.Risk.Confidence = []float64{0.99}
			c.Risk.LimitLevel = 0.95
		}, "risk.limit_level must be one of risk.confidence"},
		{"unknown journal", func(c *Config) { c.Journal.Type = "postgres" }, "journal.type must be 'sqlite', 'csv' or 'none'"},
		{"sqlite without path", func(c *Config) { c.Journal.Type = "sqlite" }, "journal db_path required for SQLite type"},
		{"csv without file", func(c *Config) { c.Journal.Type = "csv" }, "journal runs_file, scenarios_file and measures_file required for CSV type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
		{"yml format", ".yml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Simulation.Seed = sim.Seed(1234)
			path := filepath.Join(tmpDir, "test"+tt.ext)

			require.NoError(t, cfg.SaveToFile(path))

			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)

			assert.Equal(t, cfg.Portfolio, loaded.Portfolio)
			assert.Equal(t, cfg.Simulation, loaded.Simulation)
			assert.Equal(t, cfg.Risk.Confidence, loaded.Risk.Confidence)
			assert.Equal(t, cfg.Journal, loaded.Journal)
		})
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := `
portfolio:
  path: data/portfolio.csv
simulation:
  asset_corr: 0.12
  scenarios: 5000
  seed: 7
  workers: 2
risk:
  confidence: [0.99, 0.999]
  max_var_pct: 0.1
journal:
  type: csv
  runs_file: out/runs.csv
  scenarios_file: out/scenarios.csv
  measures_file: out/measures.csv
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	sc := cfg.Simulation.SimConfig()
	assert.Equal(t, 0.12, sc.AssetCorr)
	assert.Equal(t, 5000, sc.Scenarios)
	require.NotNil(t, sc.Seed)
	assert.Equal(t, uint64(7), *sc.Seed)
	assert.Equal(t, 2, sc.Workers)

	p := cfg.Risk.Policy()
	assert.Equal(t, 0.999, p.Confidence)
	assert.Equal(t, 0.1, p.MaxVaRPct)
}

func TestLoadInvalid(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation:\n  scenarios: 0\n"), 0644))
	_, err = LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestPolicyDefaultLevels(t *testing.T) {
	rc := RiskConfig{MaxVaRPct: 0.5, MaxESPct: 0.5}
	p := rc.Policy()
	assert.Equal(t, 0.999, p.Confidence)
	assert.Equal(t, risk.DefaultLevels, rc.Levels())

	losses := make([]float64, 1000)
	for i := range losses {
		losses[i] = float64(i % 10)
	}
	s, err := risk.Summarize(losses, 100, rc.Levels()...)
	require.NoError(t, err)

	d := risk.Evaluate(p, s, 0)
	assert.True(t, d.Allowed)
	assert.Empty(t, d.Violations)
}

package sim

import (
	"errors"
	"fmt"
	"math"
	"runtime"
)

// DefaultChunkSize is the number of scenarios drawn from one random stream.
const DefaultChunkSize = 1024

// ErrInvalidConfig is returned when a run cannot start with the given settings.
var ErrInvalidConfig = errors.New("invalid config")

// ConfigError names the offending setting.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s=%v %s", ErrInvalidConfig, e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// Config controls a single simulation run.
type Config struct {
	// AssetCorr is rho, the loading on the systematic factor, in [0,1).
	AssetCorr float64
	// Scenarios is the number of Monte Carlo scenarios.
	Scenarios int
	// Seed makes the run reproducible. When nil a seed is taken from the
	// clock and reported in Result.Seed.
	Seed *uint64
	// Workers is the number of goroutines; 0 means GOMAXPROCS.
	Workers int
	// ChunkSize is the number of scenarios per random stream; 0 means
	// DefaultChunkSize. Results for a fixed seed depend on ChunkSize but
	// not on Workers.
	ChunkSize int
}

// Validate reports the first setting outside its domain.
func (c Config) Validate() error {
	switch {
	case c.Scenarios <= 0:
		return &ConfigError{Field: "scenarios", Value: c.Scenarios, Reason: "must be positive"}
	case math.IsNaN(c.AssetCorr) || c.AssetCorr < 0 || c.AssetCorr >= 1:
		return &ConfigError{Field: "asset_corr", Value: c.AssetCorr, Reason: "must be in [0,1)"}
	case c.Workers < 0:
		return &ConfigError{Field: "workers", Value: c.Workers, Reason: "must not be negative"}
	case c.ChunkSize < 0:
		return &ConfigError{Field: "chunk_size", Value: c.ChunkSize, Reason: "must not be negative"}
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (c Config) chunkSize() int {
	if c.ChunkSize > 0 {
		return c.ChunkSize
	}
	return DefaultChunkSize
}

// Seed is a helper for filling Config.Seed.
func Seed(v uint64) *uint64 { return &v }

package sim

import "time"

// Result holds the per-scenario output of a run. Slices are indexed by
// scenario and all have length Config.Scenarios.
type Result struct {
	Losses    []float64
	LossRates []float64
	Defaults  []int

	ExpectedLossMC    float64
	ExpectedLossExact float64

	PortfolioSize int
	TotalExposure float64

	AssetCorr float64
	Seed      uint64
	Elapsed   time.Duration
}

// ElapsedMS is the simulation time in milliseconds.
func (r Result) ElapsedMS() float64 {
	return float64(r.Elapsed) / float64(time.Millisecond)
}

// Scenarios is the number of simulated scenarios.
func (r Result) Scenarios() int { return len(r.Losses) }

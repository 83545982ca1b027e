// Package journal records simulation runs and their scenario losses.
package journal

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/merton/risk"
	"github.com/rustyeddy/merton/sim"
)

var log = logrus.WithField("component", "journal")

// RunRecord is the summary row of one simulation run.
type RunRecord struct {
	RunID   string
	Created time.Time

	// Portfolio describes the input, a file path or "homogeneous(m)".
	Portfolio     string
	PortfolioSize int
	TotalExposure float64

	AssetCorr float64
	Scenarios int
	Seed      uint64
	Workers   int

	ExpectedLossMC    float64
	ExpectedLossExact float64
	LossStdDev        float64
	ElapsedMS         float64

	Tails []risk.Tail

	// Notes are free-form observations, e.g. limit violations.
	Notes []string
}

// ScenarioRecord is one simulated scenario.
type ScenarioRecord struct {
	Scenario int
	Loss     float64
	LossRate float64
	Defaults int
}

type Journal interface {
	RecordRun(ctx context.Context, run RunRecord) error
	RecordScenarios(ctx context.Context, runID string, scenarios []ScenarioRecord) error
	// Record stores a run together with its scenarios.
	Record(ctx context.Context, run RunRecord, scenarios []ScenarioRecord) error
	Close() error
}

// NewRunRecord assembles a RunRecord from a finished run.
func NewRunRecord(runID string, created time.Time, source string, workers int, res sim.Result, s risk.Summary) RunRecord {
	return RunRecord{
		RunID:             runID,
		Created:           created,
		Portfolio:         source,
		PortfolioSize:     res.PortfolioSize,
		TotalExposure:     res.TotalExposure,
		AssetCorr:         res.AssetCorr,
		Scenarios:         res.Scenarios(),
		Seed:              res.Seed,
		Workers:           workers,
		ExpectedLossMC:    res.ExpectedLossMC,
		ExpectedLossExact: res.ExpectedLossExact,
		LossStdDev:        s.StdDev,
		ElapsedMS:         res.ElapsedMS(),
		Tails:             s.Tails,
	}
}

// Scenarios flattens the per-scenario slices of res.
func Scenarios(res sim.Result) []ScenarioRecord {
	out := make([]ScenarioRecord, len(res.Losses))
	for i := range res.Losses {
		out[i] = ScenarioRecord{
			Scenario: i,
			Loss:     res.Losses[i],
			LossRate: res.LossRates[i],
			Defaults: res.Defaults[i],
		}
	}
	return out
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRun(context.Context, RunRecord) error { return nil }

func (Nop) RecordScenarios(context.Context, string, []ScenarioRecord) error { return nil }

func (Nop) Record(context.Context, RunRecord, []ScenarioRecord) error { return nil }

func (Nop) Close() error { return nil }

// Package sim runs the single-factor Gaussian copula default simulation.
//
// Each obligor's latent asset return is
//
//	r = sqrt(rho)*Y + sqrt(1-rho)*U
//
// with Y the systematic factor shared by the scenario and U an idiosyncratic
// draw. The obligor defaults when r falls below Quantile(PD).
package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/rustyeddy/merton/normal"
	"github.com/rustyeddy/merton/portfolio"
)

var log = logrus.WithField("component", "sim")

// GeneratorFunc returns the variate generator for one scenario chunk.
type GeneratorFunc func(seed, stream uint64) *normal.Generator

type Engine struct {
	log          logrus.FieldLogger
	now          func() time.Time
	newGenerator GeneratorFunc
}

type Option func(*Engine)

// WithLogger replaces the package logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock replaces time.Now for timing and clock seeding.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithGenerator replaces normal.NewSeeded as the per-chunk generator.
func WithGenerator(fn GeneratorFunc) Option {
	return func(e *Engine) { e.newGenerator = fn }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		log:          log,
		now:          time.Now,
		newGenerator: normal.NewSeeded,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Simulate runs cfg.Scenarios scenarios over p with a default Engine.
func Simulate(ctx context.Context, p portfolio.Portfolio, cfg Config) (Result, error) {
	return NewEngine().Simulate(ctx, p, cfg)
}

// model is the per-obligor data the inner loop reads.
type model struct {
	sysWeight  float64
	idioWeight float64
	thresholds []float64
	losses     []float64
	exposure   float64
}

func newModel(p portfolio.Portfolio, rho float64) (*model, error) {
	m := &model{
		sysWeight:  math.Sqrt(rho),
		idioWeight: math.Sqrt(1 - rho),
		thresholds: make([]float64, p.Len()),
		losses:     make([]float64, p.Len()),
		exposure:   p.TotalExposure(),
	}
	for j := 0; j < p.Len(); j++ {
		o := p.At(j)
		c, err := normal.Quantile(o.PD)
		if err != nil {
			return nil, fmt.Errorf("obligor %d threshold: %w", j, err)
		}
		m.thresholds[j] = c
		m.losses[j] = o.Loss()
	}
	return m, nil
}

// Simulate validates the inputs, then runs every scenario. Nothing is drawn
// if validation fails. If ctx is cancelled the partial result is discarded
// and ctx.Err() is returned.
func (e *Engine) Simulate(ctx context.Context, p portfolio.Portfolio, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if p.Len() == 0 {
		return Result{}, &ConfigError{Field: "portfolio", Value: 0, Reason: "must not be empty"}
	}
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	m, err := newModel(p, cfg.AssetCorr)
	if err != nil {
		return Result{}, err
	}

	var seed uint64
	if cfg.Seed != nil {
		seed = *cfg.Seed
	} else {
		seed = uint64(e.now().UnixNano())
	}

	n := cfg.Scenarios
	size := min(cfg.chunkSize(), n)
	chunks := (n-1)/size + 1
	workers := min(cfg.workers(), chunks)

	e.log.WithFields(logrus.Fields{
		"obligors":   p.Len(),
		"asset_corr": cfg.AssetCorr,
		"scenarios":  n,
		"workers":    workers,
		"seed":       seed,
	}).Info("simulation started")

	res := Result{
		Losses:            make([]float64, n),
		LossRates:         make([]float64, n),
		Defaults:          make([]int, n),
		ExpectedLossExact: p.ExpectedLoss(),
		PortfolioSize:     p.Len(),
		TotalExposure:     m.exposure,
		AssetCorr:         cfg.AssetCorr,
		Seed:              seed,
	}

	start := e.now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for k := 0; k < chunks; k++ {
		lo := k * size
		hi := min(lo+size, n)
		g.Go(func() error {
			return e.runChunk(gctx, m, e.newGenerator(seed, uint64(k)), &res, lo, hi)
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res.ExpectedLossMC = stat.Mean(res.Losses, nil)
	res.Elapsed = e.now().Sub(start)

	e.log.WithFields(logrus.Fields{
		"el_mc":      res.ExpectedLossMC,
		"el_exact":   res.ExpectedLossExact,
		"elapsed_ms": res.ElapsedMS(),
	}).Info("simulation finished")

	return res, nil
}

// runChunk fills scenarios [lo,hi). Each scenario draws one systematic factor
// followed by one idiosyncratic factor per obligor, in portfolio order.
func (e *Engine) runChunk(ctx context.Context, m *model, g *normal.Generator, res *Result, lo, hi int) error {
	for i := lo; i < hi; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		sys := m.sysWeight * g.Next()
		var loss float64
		var defaults int
		for j, c := range m.thresholds {
			r := sys + m.idioWeight*g.Next()
			// Strict: r == c has probability zero.
			if r < c {
				loss += m.losses[j]
				defaults++
			}
		}

		res.Losses[i] = loss
		res.Defaults[i] = defaults
		if m.exposure > 0 {
			res.LossRates[i] = loss / m.exposure
		}
	}

	e.log.WithFields(logrus.Fields{"from": lo, "to": hi}).Debug("chunk done")
	return nil
}

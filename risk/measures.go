// Package risk reduces simulated scenario losses to risk measures and checks
// them against limits.
package risk

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DefaultLevels are the confidence levels reported when none are given.
var DefaultLevels = []float64{0.95, 0.99, 0.999}

// Tail holds the tail measures at one confidence level.
type Tail struct {
	Confidence float64
	VaR        float64 // empirical quantile of the loss distribution
	ES         float64 // mean loss at or beyond VaR
	// UnexpectedLoss is VaR less the mean, the usual economic capital figure.
	UnexpectedLoss float64
}

type Summary struct {
	Scenarios int
	Exposure  float64

	Mean     float64
	Variance float64
	StdDev   float64
	Min      float64
	Max      float64

	Tails []Tail
}

// Summarize computes moments and tail measures of losses. exposure is used
// only for the rate helpers and may be zero.
func Summarize(losses []float64, exposure float64, levels ...float64) (Summary, error) {
	if len(losses) == 0 {
		return Summary{}, errors.New("risk: no scenario losses")
	}
	if len(levels) == 0 {
		levels = DefaultLevels
	}
	for _, lvl := range levels {
		if math.IsNaN(lvl) || lvl <= 0 || lvl >= 1 {
			return Summary{}, fmt.Errorf("risk: confidence level %v must be in (0,1)", lvl)
		}
	}

	sorted := make([]float64, len(losses))
	copy(sorted, losses)
	sort.Float64s(sorted)

	s := Summary{
		Scenarios: len(losses),
		Exposure:  exposure,
		Min:       sorted[0],
		Max:       sorted[len(sorted)-1],
	}
	if len(sorted) == 1 {
		s.Mean = sorted[0]
	} else {
		s.Mean, s.Variance = stat.MeanVariance(sorted, nil)
		s.StdDev = math.Sqrt(s.Variance)
	}

	for _, lvl := range levels {
		v := stat.Quantile(lvl, stat.Empirical, sorted, nil)
		s.Tails = append(s.Tails, Tail{
			Confidence:     lvl,
			VaR:            v,
			ES:             tailMean(sorted, v),
			UnexpectedLoss: v - s.Mean,
		})
	}
	return s, nil
}

// tailMean averages the sorted values >= v.
func tailMean(sorted []float64, v float64) float64 {
	i := sort.SearchFloat64s(sorted, v)
	return stat.Mean(sorted[i:], nil)
}

// Tail returns the measures at confidence level lvl.
func (s Summary) Tail(lvl float64) (Tail, bool) {
	for _, t := range s.Tails {
		if t.Confidence == lvl {
			return t, true
		}
	}
	return Tail{}, false
}

// Rate expresses an amount as a fraction of the portfolio exposure.
func (s Summary) Rate(amount float64) float64 {
	if s.Exposure <= 0 {
		return 0
	}
	return amount / s.Exposure
}

// DefaultFrequency is the fraction of obligor-scenarios that defaulted, given
// per-scenario default counts over a portfolio of m obligors.
func DefaultFrequency(defaults []int, m int) float64 {
	if len(defaults) == 0 || m <= 0 {
		return 0
	}
	var n int
	for _, d := range defaults {
		n += d
	}
	return float64(n) / float64(len(defaults)*m)
}

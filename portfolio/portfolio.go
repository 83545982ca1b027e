// Package portfolio holds the obligor records a simulation runs over.
package portfolio

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidObligor is returned when an obligor field is outside its domain.
var ErrInvalidObligor = errors.New("invalid obligor")

// Obligor is a single credit exposure.
type Obligor struct {
	ID  string  // carried from the input file, unused by the model
	EAD float64 // exposure at default, >= 0
	PD  float64 // marginal default probability, in (0,1)
	LGD float64 // loss given default as a fraction of EAD, in [0,1]
}

// Loss is the amount lost if the obligor defaults.
func (o Obligor) Loss() float64 {
	return o.EAD * o.LGD
}

// ObligorError reports which obligor failed validation and why.
type ObligorError struct {
	Index int
	ID    string
	Field string
	Value float64
}

func (e *ObligorError) Error() string {
	name := fmt.Sprintf("obligor %d", e.Index)
	if e.ID != "" {
		name = fmt.Sprintf("obligor %d (%s)", e.Index, e.ID)
	}
	return fmt.Sprintf("%s: %s: %s=%v %s", ErrInvalidObligor, name, e.Field, e.Value, fieldRule(e.Field))
}

func (e *ObligorError) Unwrap() error { return ErrInvalidObligor }

func fieldRule(field string) string {
	switch field {
	case "PD":
		return "must be in (0,1)"
	case "LGD":
		return "must be in [0,1]"
	default:
		return "must be a non-negative number"
	}
}

// Portfolio is an ordered, fixed set of obligors.
type Portfolio struct {
	obligors []Obligor
}

// New builds a portfolio from obligors. The slice is copied.
func New(obligors ...Obligor) Portfolio {
	out := make([]Obligor, len(obligors))
	copy(out, obligors)
	return Portfolio{obligors: out}
}

// Homogeneous returns m identical obligors with the given parameters.
func Homogeneous(m int, ead, pd, lgd float64) Portfolio {
	if m < 0 {
		m = 0
	}
	out := make([]Obligor, m)
	for i := range out {
		out[i] = Obligor{ID: fmt.Sprintf("%d", i+1), EAD: ead, PD: pd, LGD: lgd}
	}
	return Portfolio{obligors: out}
}

// Len is the number of obligors.
func (p Portfolio) Len() int { return len(p.obligors) }

// At returns obligor i.
func (p Portfolio) At(i int) Obligor { return p.obligors[i] }

// Obligors returns a copy of the obligor records.
func (p Portfolio) Obligors() []Obligor {
	out := make([]Obligor, len(p.obligors))
	copy(out, p.obligors)
	return out
}

// TotalExposure is the sum of EAD.
func (p Portfolio) TotalExposure() float64 {
	var sum float64
	for _, o := range p.obligors {
		sum += o.EAD
	}
	return sum
}

// ExpectedLoss is the closed-form expectation sum(EAD*LGD*PD). Correlation
// changes the shape of the loss distribution but not its mean.
func (p Portfolio) ExpectedLoss() float64 {
	var sum float64
	for _, o := range p.obligors {
		sum += o.EAD * o.LGD * o.PD
	}
	return sum
}

// Validate checks every obligor and returns the first violation found.
func (p Portfolio) Validate() error {
	for i, o := range p.obligors {
		switch {
		case math.IsNaN(o.EAD) || math.IsInf(o.EAD, 0) || o.EAD < 0:
			return &ObligorError{Index: i, ID: o.ID, Field: "EAD", Value: o.EAD}
		case math.IsNaN(o.PD) || o.PD <= 0 || o.PD >= 1:
			return &ObligorError{Index: i, ID: o.ID, Field: "PD", Value: o.PD}
		case math.IsNaN(o.LGD) || o.LGD < 0 || o.LGD > 1:
			return &ObligorError{Index: i, ID: o.ID, Field: "LGD", Value: o.LGD}
		}
	}
	return nil
}

package risk

import (
	"fmt"
	"math"
)

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Evaluate checks a summary against policy. exactEL is the closed-form
// expected loss of the same portfolio.
func Evaluate(p Policy, s Summary, exactEL float64) Decision {
	d := Decision{Allowed: true}

	if p.MaxExpectedLossPct > 0 && s.Rate(s.Mean) > p.MaxExpectedLossPct {
		d.add("EL_TOO_HIGH",
			fmt.Sprintf("expected loss %.2f%% exceeds max %.2f%%",
				100*s.Rate(s.Mean), 100*p.MaxExpectedLossPct))
	}

	if p.MaxVaRPct > 0 || p.MaxESPct > 0 {
		t, ok := s.Tail(p.Confidence)
		if !ok {
			d.add("NO_TAIL", fmt.Sprintf("no tail measures at %.2f%%", 100*p.Confidence))
		} else {
			if p.MaxVaRPct > 0 && s.Rate(t.VaR) > p.MaxVaRPct {
				d.add("VAR_TOO_HIGH",
					fmt.Sprintf("VaR(%.2f%%) %.2f%% exceeds max %.2f%%",
						100*t.Confidence, 100*s.Rate(t.VaR), 100*p.MaxVaRPct))
			}
			if p.MaxESPct > 0 && s.Rate(t.ES) > p.MaxESPct {
				d.add("ES_TOO_HIGH",
					fmt.Sprintf("ES(%.2f%%) %.2f%% exceeds max %.2f%%",
						100*t.Confidence, 100*s.Rate(t.ES), 100*p.MaxESPct))
			}
		}
	}

	if p.MaxConvergenceGap > 0 && exactEL > 0 {
		gap := math.Abs(s.Mean-exactEL) / exactEL
		if gap > p.MaxConvergenceGap {
			d.add("EL_MISMATCH",
				fmt.Sprintf("simulated EL %.2f off closed form %.2f by %.2f%% (max %.2f%%)",
					s.Mean, exactEL, 100*gap, 100*p.MaxConvergenceGap))
		}
	}

	return d
}

package risk

// Policy holds risk-appetite limits for a simulated portfolio. Percent limits
// are fractions of total exposure. A zero limit is not checked.
type Policy struct {
	// Confidence selects the tail the VaR and ES limits apply to.
	Confidence float64 // 0.99

	MaxExpectedLossPct float64 // 0.01
	MaxVaRPct          float64 // 0.05
	MaxESPct           float64 // 0.08

	// MaxConvergenceGap bounds |EL_mc - EL_exact| / EL_exact. Larger gaps
	// mean too few scenarios.
	MaxConvergenceGap float64 // 0.05
}

// DefaultPolicy only enforces a 5% convergence gap at 99%.
func DefaultPolicy() Policy {
	return Policy{
		Confidence:        0.99,
		MaxConvergenceGap: 0.05,
	}
}

package normal

import (
	"errors"
	"fmt"
	"math"
)

// ErrDomain is returned when a probability lies outside the open interval (0,1).
var ErrDomain = errors.New("numeric domain error")

// Quantile returns x such that CDF(x) == p.
func Quantile(p float64) (float64, error) {
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return 0, fmt.Errorf("%w: quantile of p=%v, want 0 < p < 1", ErrDomain, p)
	}
	return math.Sqrt2 * ErfInv(2*p-1), nil
}

// CDF is the standard normal cumulative distribution function.
func CDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// ErfInv approximates the inverse error function with the two-branch
// rational approximation of M. Giles ("Approximating the erfinv function",
// GPU Computing Gems, 2011). Relative error is a few times 1e-7.
//
// ErfInv(±1) is ±Inf and inputs outside [-1,1] give NaN.
func ErfInv(x float64) float64 {
	switch {
	case math.IsNaN(x) || x < -1 || x > 1:
		return math.NaN()
	case x == 1:
		return math.Inf(1)
	case x == -1:
		return math.Inf(-1)
	}

	w := -math.Log((1 - x) * (1 + x))
	var p float64
	if w < 5 {
		w -= 2.5
		p = 2.81022636e-08
		p = 3.43273939e-07 + p*w
		p = -3.5233877e-06 + p*w
		p = -4.39150654e-06 + p*w
		p = 0.00021858087 + p*w
		p = -0.00125372503 + p*w
		p = -0.00417768164 + p*w
		p = 0.246640727 + p*w
		p = 1.50140941 + p*w
	} else {
		w = math.Sqrt(w) - 3
		p = -0.000200214257
		p = 0.000100950558 + p*w
		p = 0.00134934322 + p*w
		p = -0.00367342844 + p*w
		p = 0.00573950773 + p*w
		p = -0.0076224613 + p*w
		p = 0.00943887047 + p*w
		p = 1.00167406 + p*w
		p = 2.83297682 + p*w
	}
	return p * x
}

// Package normal provides standard-normal variates and the normal quantile
// function used to calibrate default thresholds.
package normal

import (
	"math"
	"math/rand/v2"
)

// Generator produces standard-normal draws with the Box-Muller transform.
//
// A Generator owns its uniform source and is not safe for concurrent use.
// Give every worker its own Generator (see NewSeeded).
type Generator struct {
	src *rand.Rand

	paired   bool
	hasSpare bool
	spare    float64
}

// NewGenerator returns a Generator drawing uniforms from src. Only the cosine
// branch of each Box-Muller pair is used.
func NewGenerator(src rand.Source) *Generator {
	return &Generator{src: rand.New(src)}
}

// NewPairedGenerator is like NewGenerator but keeps the sine branch of each
// pair and returns it on the following call.
func NewPairedGenerator(src rand.Source) *Generator {
	return &Generator{src: rand.New(src), paired: true}
}

// NewSeeded returns a Generator on a PCG source. Generators with the same seed
// and different streams produce independent sequences.
func NewSeeded(seed, stream uint64) *Generator {
	return NewGenerator(rand.NewPCG(seed, splitmix(stream)))
}

// Next returns the next standard-normal draw.
func (g *Generator) Next() float64 {
	if g.hasSpare {
		g.hasSpare = false
		return g.spare
	}

	u1 := g.uniform()
	u2 := g.src.Float64()

	radius := math.Sqrt(-2 * math.Log(u1))
	angle := 2 * math.Pi * u2
	if g.paired {
		g.spare = radius * math.Sin(angle)
		g.hasSpare = true
	}
	return radius * math.Cos(angle)
}

// Fill overwrites dst with consecutive draws.
func (g *Generator) Fill(dst []float64) {
	for i := range dst {
		dst[i] = g.Next()
	}
}

// uniform returns a value in (0,1). Float64 yields [0,1) so zero is redrawn,
// log(0) would otherwise be -Inf.
func (g *Generator) uniform() float64 {
	for {
		if u := g.src.Float64(); u > 0 {
			return u
		}
	}
}

// splitmix scrambles a stream index so neighbouring indices give unrelated
// PCG states.
func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

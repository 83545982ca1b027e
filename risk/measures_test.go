package risk

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oneToHundred() []float64 {
	xs := make([]float64, 100)
	for i := range xs {
		xs[i] = float64(100 - i)
	}
	return xs
}

func TestSummarizeTails(t *testing.T) {
	t.Parallel()

	s, err := Summarize(oneToHundred(), 1000, 0.95, 0.99)
	require.NoError(t, err)

	assert.Equal(t, 100, s.Scenarios)
	assert.InDelta(t, 50.5, s.Mean, 1e-12)
	assert.InDelta(t, 841.6666666666666, s.Variance, 1e-9)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 100.0, s.Max)

	tests := []struct {
		level float64
		vaR   float64
		es    float64
	}{
		{0.95, 95, 97.5},
		{0.99, 99, 99.5},
	}
	for _, tt := range tests {
		tail, ok := s.Tail(tt.level)
		require.True(t, ok)
		assert.Equal(t, tt.vaR, tail.VaR)
		assert.InDelta(t, tt.es, tail.ES, 1e-12)
		assert.InDelta(t, tt.vaR-50.5, tail.UnexpectedLoss, 1e-12)
	}

	_, ok := s.Tail(0.5)
	assert.False(t, ok)
	assert.InDelta(t, 0.095, s.Rate(95), 1e-12)
}

func TestSummarizeDoesNotReorderInput(t *testing.T) {
	t.Parallel()

	in := []float64{3, 1, 2}
	_, err := Summarize(in, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestSummarizeDefaultLevels(t *testing.T) {
	t.Parallel()

	s, err := Summarize(oneToHundred(), 0)
	require.NoError(t, err)
	require.Len(t, s.Tails, len(DefaultLevels))
	for i, lvl := range DefaultLevels {
		assert.Equal(t, lvl, s.Tails[i].Confidence)
	}
	assert.Zero(t, s.Rate(10))
}

func TestSummarizeTailOrdering(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewPCG(1, 1))
	xs := make([]float64, 10_000)
	for i := range xs {
		xs[i] = r.ExpFloat64()
	}

	s, err := Summarize(xs, 0, 0.9, 0.99, 0.999)
	require.NoError(t, err)
	for i, tail := range s.Tails {
		assert.GreaterOrEqual(t, tail.ES, tail.VaR)
		assert.Greater(t, tail.VaR, s.Mean)
		if i > 0 {
			assert.GreaterOrEqual(t, tail.VaR, s.Tails[i-1].VaR)
		}
	}
}

func TestSummarizeSingleScenario(t *testing.T) {
	t.Parallel()

	s, err := Summarize([]float64{7}, 0, 0.99)
	require.NoError(t, err)
	assert.Equal(t, 7.0, s.Mean)
	assert.Zero(t, s.Variance)
	assert.Equal(t, 7.0, s.Tails[0].VaR)
	assert.Equal(t, 7.0, s.Tails[0].ES)
}

func TestSummarizeErrors(t *testing.T) {
	t.Parallel()

	_, err := Summarize(nil, 0)
	assert.Error(t, err)

	for _, lvl := range []float64{0, 1, -0.5, 1.2} {
		_, err := Summarize([]float64{1, 2}, 0, lvl)
		assert.Error(t, err, "level %v", lvl)
	}
}

func TestDefaultFrequency(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.25, DefaultFrequency([]int{1, 0, 2, 1}, 4), 1e-12)
	assert.Zero(t, DefaultFrequency(nil, 4))
	assert.Zero(t, DefaultFrequency([]int{1}, 0))
}

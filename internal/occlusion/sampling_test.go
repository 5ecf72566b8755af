package occlusion

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDropCount(t *testing.T) {
	tests := []struct {
		n    int
		pct  float64
		want int
	}{
		{0, 50, 0},
		{10, 0, 0},
		{10, 100, 10},
		{10, 30, 3},
		{7, 50, 4}, // 3.5 rounds half away from zero
		{3, 50, 2}, // 1.5
		{101, 30, 30},
		{99, 25, 25}, // 24.75
		{5, 10, 1},   // 0.5
		{5, 5, 0},    // 0.25
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DropCount(tt.n, tt.pct), "n=%d pct=%g", tt.n, tt.pct)
	}
}

func TestSelectDropIndices_ExactFraction(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 333} {
		for _, pct := range []float64{0, 30, 50, 100} {
			got := SelectDropIndices(n, pct, newRand(int64(n)))
			require.Len(t, got, DropCount(n, pct), "n=%d pct=%g", n, pct)
			assert.True(t, sort.IntsAreSorted(got))
			seen := make(map[int]bool)
			for _, i := range got {
				assert.False(t, seen[i], "duplicate index %d", i)
				assert.True(t, i >= 0 && i < n)
				seen[i] = true
			}
		}
	}
}

func TestSelectDropIndices_EdgeCases(t *testing.T) {
	assert.Empty(t, SelectDropIndices(50, 0, newRand(1)))

	all := SelectDropIndices(5, 100, nil) // taking everything needs no randomness
	assert.Equal(t, []int{0, 1, 2, 3, 4}, all)
}

func TestSelectDropIndices_Deterministic(t *testing.T) {
	a := SelectDropIndices(1000, 37, newRand(42))
	b := SelectDropIndices(1000, 37, newRand(42))
	c := SelectDropIndices(1000, 37, newRand(43))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSelectDropIndicesFrom_RestrictsPool(t *testing.T) {
	candidates := []int{3, 9, 27, 81, 243, 729}
	orig := append([]int(nil), candidates...)

	got := SelectDropIndicesFrom(candidates, 50, newRand(7))
	require.Len(t, got, 3)
	for _, i := range got {
		assert.Contains(t, orig, i)
	}
	assert.Equal(t, orig, candidates, "candidates must not be modified")

	assert.Nil(t, SelectDropIndicesFrom(nil, 100, newRand(7)))
	assert.Equal(t, orig, SelectDropIndicesFrom(candidates, 100, newRand(7)))
}

func TestSelectDropIndices_Uniform(t *testing.T) {
	const n, trials = 10, 5000
	hits := make([]int, n)
	rng := newRand(99)
	for i := 0; i < trials; i++ {
		for _, j := range SelectDropIndices(n, 30, rng) {
			hits[j]++
		}
	}
	// Each index is chosen with probability 0.3.
	for i, h := range hits {
		assert.InDelta(t, 0.3, float64(h)/trials, 0.03, "index %d", i)
	}
}

func TestSelectDropIndices_NilRand(t *testing.T) {
	got := SelectDropIndices(100, 30, nil)
	assert.Len(t, got, 30)
	assert.Equal(t, SelectDropIndices(100, 30, newRand(FallbackSeed)), got)
}

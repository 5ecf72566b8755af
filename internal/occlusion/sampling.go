package occlusion

import (
	"math"
	"math/rand"
	"sort"
)

// Rand is the random source threaded through every stochastic operation.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	NormFloat64() float64
}

// FallbackSeed seeds the source used when a caller passes a nil Rand to an
// operation that needs randomness.
const FallbackSeed int64 = 0

// orFallback returns rng, or a fresh source seeded with FallbackSeed when
// rng is nil.
func orFallback(rng Rand) Rand {
	if rng == nil {
		return rand.New(rand.NewSource(FallbackSeed))
	}
	return rng
}

// DropCount returns round(n * pct / 100), clamped to [0, n].
func DropCount(n int, pct float64) int {
	if n <= 0 || pct <= 0 {
		return 0
	}
	if pct >= 100 {
		return n
	}
	k := int(math.Round(float64(n) * pct / 100))
	if k > n {
		k = n
	}
	return k
}

// SelectDropIndices draws DropCount(n, pct) distinct indices in [0, n)
// uniformly without replacement. The result is sorted ascending.
func SelectDropIndices(n int, pct float64, rng Rand) []int {
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	return drawFrom(pool, pct, rng)
}

// SelectDropIndicesFrom draws DropCount(len(candidates), pct) of the
// candidate indices. candidates is not modified. The result is sorted.
func SelectDropIndicesFrom(candidates []int, pct float64, rng Rand) []int {
	pool := append([]int(nil), candidates...)
	return drawFrom(pool, pct, rng)
}

// drawFrom runs a partial Fisher-Yates shuffle over pool, consuming exactly
// k draws from rng. Taking everything consumes none.
func drawFrom(pool []int, pct float64, rng Rand) []int {
	n := len(pool)
	k := DropCount(n, pct)
	if k == 0 {
		return nil
	}
	if k < n {
		rng = orFallback(rng)
		for i := 0; i < k; i++ {
			j := i + rng.Intn(n-i)
			pool[i], pool[j] = pool[j], pool[i]
		}
	}
	chosen := pool[:k]
	sort.Ints(chosen)
	return chosen
}

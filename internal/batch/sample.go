package batch

import (
	"math/rand/v2"
	"sort"
)

// DefaultSeed makes sampled runs reproducible unless a seed is given.
const DefaultSeed = 42

// Sample picks n items at random with a seeded generator and returns them
// in their original order. n <= 0 or n >= len(items) returns items as is.
func Sample[T any](items []T, n int, seed uint64) []T {
	if n <= 0 || n >= len(items) {
		return items
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	picked := rng.Perm(len(items))[:n]
	sort.Ints(picked)

	out := make([]T, 0, n)
	for _, i := range picked {
		out = append(out, items[i])
	}
	return out
}

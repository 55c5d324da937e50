// Package combx enumerates strictly increasing index tuples.
package combx

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/combin"
)

// Count は n 個から k 個を選ぶ組み合わせの数。
func Count(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	return combin.Binomial(n, k)
}

// ForEach calls f for every tuple i1 < i2 < ... < ik drawn from {0, ..., n-1}
// in lexicographic order. The slice passed to f is reused between calls.
func ForEach(n, k int, f func([]int)) {
	if k < 0 {
		panic(fmt.Sprintf("combx: negative tuple size %d", k))
	}
	if k > n {
		return
	}
	gen := combin.NewCombinationGenerator(n, k)
	tuple := make([]int, k)
	for gen.Next() {
		f(gen.Combination(tuple))
	}
}

// All returns every tuple ForEach would visit.
func All(n, k int) [][]int {
	if k > n {
		return nil
	}
	return combin.Combinations(n, k)
}

// Shuffled returns every tuple in an order drawn from rng.
func Shuffled(n, k int, rng *rand.Rand) [][]int {
	tuples := All(n, k)
	rng.Shuffle(len(tuples), func(i, j int) {
		tuples[i], tuples[j] = tuples[j], tuples[i]
	})
	return tuples
}

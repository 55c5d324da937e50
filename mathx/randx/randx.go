package randx

import (
	"math/rand/v2"
)

// NewPCG は seed だけで決まる生成器を返す。
func NewPCG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func Uniform(min, max float64, rng *rand.Rand) float64 {
	return min + (max-min)*rng.Float64()
}

func Normal(mean, std float64, rng *rand.Rand) float64 {
	return mean + std*rng.NormFloat64()
}

// Bernoulli returns 1.0 with probability p and 0.0 otherwise.
func Bernoulli(p float64, rng *rand.Rand) float64 {
	if rng.Float64() < p {
		return 1.0
	}
	return 0.0
}

func FillUniform(data []float64, min, max float64, rng *rand.Rand) {
	for i := range data {
		data[i] = Uniform(min, max, rng)
	}
}

func FillNormal(data []float64, mean, std float64, rng *rand.Rand) {
	for i := range data {
		data[i] = Normal(mean, std, rng)
	}
}

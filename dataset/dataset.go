package dataset

import (
	"fmt"
	"math/rand/v2"

	"github.com/sw965/kite/mathx/randx"
	"github.com/sw965/kite/sparse"
	"gonum.org/v1/gonum/mat"
)

// Classification is a binary classification data set. Row i of X is labelled Y[i].
type Classification struct {
	X *mat.Dense
	Y []float64
}

// NewClassification draws X from the standard normal distribution and every
// label from Bernoulli(0.5). X is drawn before Y.
func NewClassification(nObj, nFeat int, rng *rand.Rand) (Classification, error) {
	if nObj <= 0 || nFeat <= 0 {
		return Classification{}, fmt.Errorf("dataset: shape must be positive, got %d x %d", nObj, nFeat)
	}

	data := make([]float64, nObj*nFeat)
	randx.FillNormal(data, 0.0, 1.0, rng)

	y := make([]float64, nObj)
	for i := range y {
		y[i] = randx.Bernoulli(0.5, rng)
	}
	return Classification{X: mat.NewDense(nObj, nFeat, data), Y: y}, nil
}

func (c Classification) Dims() (int, int) {
	return c.X.Dims()
}

// Sparse returns X in CSR form.
func (c Classification) Sparse() *sparse.CSR {
	return sparse.FromDense(c.X)
}

// Sparsify keeps each entry of X with probability keep and zeroes the rest.
// The receiver is left untouched.
func (c Classification) Sparsify(keep float64, rng *rand.Rand) (Classification, error) {
	if keep < 0.0 || keep > 1.0 {
		return Classification{}, fmt.Errorf("dataset: keep probability %g not in [0, 1]", keep)
	}

	x := mat.DenseCopyOf(c.X)
	rows, cols := x.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if randx.Bernoulli(keep, rng) == 0.0 {
				x.Set(i, j, 0.0)
			}
		}
	}
	y := make([]float64, len(c.Y))
	copy(y, c.Y)
	return Classification{X: x, Y: y}, nil
}

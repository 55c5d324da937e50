// Package bruteforce evaluates the factorization machine decision function by
// literally expanding every interaction term. It shares no algebra with the
// power-sum evaluation in package fm, so the two can be checked against each
// other.
package bruteforce

import (
	"fmt"

	"github.com/sw965/kite/mathx/combx"
	"gonum.org/v1/gonum/mat"
)

const (
	MinOrder = 1
	MaxOrder = 4
)

func validateInteractionOrder(order int) {
	if order < 2 || order > MaxOrder {
		panic(fmt.Sprintf("bruteforce: interaction order %d not in [2, %d]", order, MaxOrder))
	}
}

func validateFactors(x, v mat.Matrix) {
	_, nFeat := x.Dims()
	vRows, _ := v.Dims()
	if vRows != nFeat {
		panic(fmt.Sprintf("bruteforce: factor matrix has %d rows, want %d", vRows, nFeat))
	}
}

// Interaction returns, for each row of x, the sum over all i1 < ... < io of
//
//	x[i1] * ... * x[io] * sum_r v[i1, r] * ... * v[io, r]
//
// v is the n_feat x rank factor matrix of the given order. order must be 2, 3 or 4.
func Interaction(x, v mat.Matrix, order int) []float64 {
	validateInteractionOrder(order)
	validateFactors(x, v)

	_, nFeat := x.Dims()
	cols := columns(x)
	ans := make([]float64, len(cols[0]))
	combx.ForEach(nFeat, order, func(tuple []int) {
		accumulate(ans, cols, v, tuple)
	})
	return ans
}

// InteractionInOrder is Interaction summed over the given tuples in the given
// order. Every tuple must hold order strictly increasing feature indices.
func InteractionInOrder(x, v mat.Matrix, order int, tuples [][]int) []float64 {
	validateInteractionOrder(order)
	validateFactors(x, v)

	_, nFeat := x.Dims()
	cols := columns(x)
	ans := make([]float64, len(cols[0]))
	for _, tuple := range tuples {
		if len(tuple) != order {
			panic(fmt.Sprintf("bruteforce: tuple %v has %d indices, want %d", tuple, len(tuple), order))
		}
		for k, i := range tuple {
			if i < 0 || i >= nFeat || (k > 0 && tuple[k-1] >= i) {
				panic(fmt.Sprintf("bruteforce: tuple %v is not strictly increasing in [0, %d)", tuple, nFeat))
			}
		}
		accumulate(ans, cols, v, tuple)
	}
	return ans
}

func accumulate(ans []float64, cols [][]float64, v mat.Matrix, tuple []int) {
	_, rank := v.Dims()
	wProd := 0.0
	for r := 0; r < rank; r++ {
		p := 1.0
		for _, i := range tuple {
			p *= v.At(i, r)
		}
		wProd += p
	}

	for n := range ans {
		xProd := 1.0
		for _, i := range tuple {
			xProd *= cols[i][n]
		}
		ans[n] += xProd * wProd
	}
}

func columns(x mat.Matrix) [][]float64 {
	_, nFeat := x.Dims()
	cols := make([][]float64, nFeat)
	for j := range cols {
		cols[j] = mat.Col(nil, j, x)
	}
	return cols
}

// Linear returns x・w + b where w is an n_feat x 1 matrix.
func Linear(x, w mat.Matrix, b float64) []float64 {
	nObj, nFeat := x.Dims()
	wRows, wCols := w.Dims()
	if wRows != nFeat || wCols != 1 {
		panic(fmt.Sprintf("bruteforce: linear weights are %d x %d, want %d x 1", wRows, wCols, nFeat))
	}

	u := mat.NewVecDense(nObj, nil)
	u.MulVec(x, mat.NewVecDense(nFeat, mat.Col(nil, 0, w)))
	ans := make([]float64, nObj)
	for i := range ans {
		ans[i] = u.AtVec(i) + b
	}
	return ans
}

// Inference evaluates the full model. w[0] holds the linear weights and w[o-1]
// the factors of order o. Orders above len(w) contribute nothing, so w[:k]
// is exactly the order k model.
func Inference(x mat.Matrix, w []mat.Matrix, b float64) []float64 {
	if len(w) < MinOrder || len(w) > MaxOrder {
		panic(fmt.Sprintf("bruteforce: %d weight arrays, want between %d and %d", len(w), MinOrder, MaxOrder))
	}

	ans := Linear(x, w[0], b)
	if len(w) > 2 {
		validateRank(w[1:])
	}
	for order := 2; order <= len(w); order++ {
		term := Interaction(x, w[order-1], order)
		for i := range ans {
			ans[i] += term[i]
		}
	}
	return ans
}

func validateRank(factors []mat.Matrix) {
	_, rank := factors[0].Dims()
	for i, v := range factors[1:] {
		if _, c := v.Dims(); c != rank {
			panic(fmt.Sprintf("bruteforce: order %d factors have rank %d, want %d", i+3, c, rank))
		}
	}
}

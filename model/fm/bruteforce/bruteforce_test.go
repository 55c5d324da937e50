package bruteforce_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sw965/kite/dataset"
	"github.com/sw965/kite/mathx/combx"
	"github.com/sw965/kite/mathx/randx"
	"github.com/sw965/kite/model/fm/bruteforce"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func randomWeights(nFeat, rank, count int, seed uint64) []mat.Matrix {
	rng := randx.NewPCG(seed)
	linear := make([]float64, nFeat)
	randx.FillUniform(linear, -1.0, 1.0, rng)
	ws := []mat.Matrix{mat.NewDense(nFeat, 1, linear)}
	for len(ws) < count {
		data := make([]float64, nFeat*rank)
		randx.FillUniform(data, -1.0, 1.0, rng)
		ws = append(ws, mat.NewDense(nFeat, rank, data))
	}
	return ws
}

func randomX(t *testing.T, nObj, nFeat int, seed uint64) *mat.Dense {
	t.Helper()
	data, err := dataset.NewClassification(nObj, nFeat, randx.NewPCG(seed))
	require.NoError(t, err)
	return data.X
}

// nestedLoops は添字の組を入れ子のループで直接書き下したもの。
func nestedLoops(x, v mat.Matrix, order int) []float64 {
	nObj, nFeat := x.Dims()
	_, rank := v.Dims()
	ans := make([]float64, nObj)
	add := func(idx ...int) {
		w := 0.0
		for r := 0; r < rank; r++ {
			p := 1.0
			for _, i := range idx {
				p *= v.At(i, r)
			}
			w += p
		}
		for n := 0; n < nObj; n++ {
			p := 1.0
			for _, i := range idx {
				p *= x.At(n, i)
			}
			ans[n] += p * w
		}
	}

	for i := 0; i < nFeat; i++ {
		for j := i + 1; j < nFeat; j++ {
			if order == 2 {
				add(i, j)
				continue
			}
			for k := j + 1; k < nFeat; k++ {
				if order == 3 {
					add(i, j, k)
					continue
				}
				for l := k + 1; l < nFeat; l++ {
					add(i, j, k, l)
				}
			}
		}
	}
	return ans
}

func TestInteractionOrder2HandComputed(t *testing.T) {
	x := mat.NewDense(2, 3, []float64{
		1.0, 2.0, 3.0,
		-1.0, 0.0, 2.0,
	})
	v := mat.NewDense(3, 2, []float64{
		1.0, 0.0,
		2.0, 1.0,
		-1.0, 1.0,
	})

	// <v0,v1> = 2, <v0,v2> = -1, <v1,v2> = -1
	expected := []float64{
		1.0*2.0*2.0 + 1.0*3.0*-1.0 + 2.0*3.0*-1.0,
		-1.0 * 2.0 * -1.0,
	}
	assert.InDeltaSlice(t, expected, bruteforce.Interaction(x, v, 2), 1e-12)
}

func TestInteractionOrder3HandComputed(t *testing.T) {
	x := mat.NewDense(1, 4, []float64{1.0, 2.0, -1.0, 0.5})
	v := mat.NewDense(4, 1, []float64{1.0, 1.0, 2.0, 4.0})

	// rank 1 なので sum_r prod v = prod v
	expected := 1.0*2.0*-1.0*(1.0*1.0*2.0) +
		1.0*2.0*0.5*(1.0*1.0*4.0) +
		1.0*-1.0*0.5*(1.0*2.0*4.0) +
		2.0*-1.0*0.5*(1.0*2.0*4.0)
	got := bruteforce.Interaction(x, v, 3)
	require.Len(t, got, 1)
	assert.InDelta(t, expected, got[0], 1e-12)
}

func TestInteractionOrder4SingleTuple(t *testing.T) {
	x := mat.NewDense(1, 4, []float64{1.0, 2.0, 3.0, 4.0})
	v := mat.NewDense(4, 2, []float64{
		1.0, 1.0,
		1.0, 2.0,
		1.0, 3.0,
		1.0, 4.0,
	})
	got := bruteforce.Interaction(x, v, 4)
	assert.InDelta(t, 24.0*(1.0+24.0), got[0], 1e-12)
}

func TestInteractionMatchesNestedLoops(t *testing.T) {
	x := randomX(t, 12, 7, 0)
	ws := randomWeights(7, 5, 4, 1)
	for order := 2; order <= 4; order++ {
		expected := nestedLoops(x, ws[order-1], order)
		got := bruteforce.Interaction(x, ws[order-1], order)
		assert.True(t, floats.EqualApprox(expected, got, 1e-10), "order %d", order)
	}
}

func TestInteractionFewerFeaturesThanOrder(t *testing.T) {
	x := randomX(t, 3, 3, 0)
	ws := randomWeights(3, 2, 4, 0)
	assert.Equal(t, []float64{0.0, 0.0, 0.0}, bruteforce.Interaction(x, ws[3], 4))
}

func TestInteractionPanicsOnInvalidOrder(t *testing.T) {
	x := randomX(t, 2, 4, 0)
	ws := randomWeights(4, 2, 2, 0)
	for _, order := range []int{-1, 0, 1, 5} {
		assert.Panics(t, func() { bruteforce.Interaction(x, ws[1], order) }, "order %d", order)
	}
}

func TestInteractionPanicsOnFactorShape(t *testing.T) {
	x := randomX(t, 2, 4, 0)
	v := mat.NewDense(3, 2, nil)
	assert.Panics(t, func() { bruteforce.Interaction(x, v, 2) })
}

func TestEnumerationOrderDoesNotMatter(t *testing.T) {
	x := randomX(t, 10, 8, 3)
	ws := randomWeights(8, 4, 4, 4)
	for order := 2; order <= 4; order++ {
		v := ws[order-1]
		lexicographic := bruteforce.Interaction(x, v, order)
		for seed := uint64(0); seed < 3; seed++ {
			tuples := combx.Shuffled(8, order, randx.NewPCG(seed))
			shuffled := bruteforce.InteractionInOrder(x, v, order, tuples)
			assert.True(t, floats.EqualApprox(lexicographic, shuffled, 1e-10), "order %d seed %d", order, seed)
		}
	}
}

func TestInteractionInOrderRejectsBadTuples(t *testing.T) {
	x := randomX(t, 2, 4, 0)
	v := randomWeights(4, 2, 2, 0)[1]
	assert.Panics(t, func() { bruteforce.InteractionInOrder(x, v, 2, [][]int{{0, 1, 2}}) })
	assert.Panics(t, func() { bruteforce.InteractionInOrder(x, v, 2, [][]int{{1, 0}}) })
	assert.Panics(t, func() { bruteforce.InteractionInOrder(x, v, 2, [][]int{{0, 4}}) })
	assert.Panics(t, func() { bruteforce.InteractionInOrder(x, v, 5, nil) })
}

func TestInferenceOrder1(t *testing.T) {
	x := mat.NewDense(2, 3, []float64{
		1.0, 2.0, 3.0,
		-1.0, 0.5, 0.0,
	})
	w := mat.NewDense(3, 1, []float64{0.5, -1.0, 2.0})
	got := bruteforce.Inference(x, []mat.Matrix{w}, 0.25)
	assert.Equal(t, []float64{0.5 - 2.0 + 6.0 + 0.25, -0.5 - 0.5 + 0.25}, got)
}

func TestInferenceAcceptsVector(t *testing.T) {
	x := randomX(t, 5, 3, 0)
	w := mat.NewVecDense(3, []float64{1.0, 2.0, 3.0})
	wm := mat.NewDense(3, 1, []float64{1.0, 2.0, 3.0})
	assert.Equal(t, bruteforce.Inference(x, []mat.Matrix{wm}, 1.0), bruteforce.Inference(x, []mat.Matrix{w}, 1.0))
}

func TestInferenceIsAdditive(t *testing.T) {
	x := randomX(t, 15, 6, 5)
	ws := randomWeights(6, 3, 4, 6)
	b := 0.75

	full := bruteforce.Inference(x, ws, b)
	for k := 1; k < 4; k++ {
		truncated := bruteforce.Inference(x, ws[:k], b)
		expected := make([]float64, len(full))
		copy(expected, full)
		for order := k + 1; order <= 4; order++ {
			floats.Sub(expected, bruteforce.Interaction(x, ws[order-1], order))
		}
		assert.True(t, floats.EqualApprox(expected, truncated, 1e-10), "truncated to %d", k)
	}
}

func TestInferencePanicsOnWeightCount(t *testing.T) {
	x := randomX(t, 2, 4, 0)
	assert.Panics(t, func() { bruteforce.Inference(x, nil, 0.0) })
	assert.Panics(t, func() { bruteforce.Inference(x, randomWeights(4, 2, 5, 0), 0.0) })
}

func TestInferencePanicsOnShape(t *testing.T) {
	x := randomX(t, 2, 4, 0)
	assert.Panics(t, func() { bruteforce.Inference(x, []mat.Matrix{mat.NewDense(3, 1, nil)}, 0.0) })
	assert.Panics(t, func() { bruteforce.Inference(x, []mat.Matrix{mat.NewDense(4, 2, nil)}, 0.0) })

	ws := randomWeights(4, 2, 3, 0)
	ws[2] = mat.NewDense(4, 3, nil)
	assert.Panics(t, func() { bruteforce.Inference(x, ws, 0.0) })
}

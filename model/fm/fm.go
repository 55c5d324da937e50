// Package fm implements a factorization machine classifier of order 1 to 4.
//
// The order o interaction term of a row x is
//
//	sum_r e_o(x_1 v_1r, ..., x_n v_nr)
//
// where e_o is the elementary symmetric polynomial of degree o. It is computed
// from the power sums p_k = sum_f (x_f v_fr)^k with Newton's identities, which
// costs O(nnz * rank * order) per row instead of enumerating feature tuples.
package fm

import (
	"fmt"

	"github.com/sw965/kite/mathx"
	"github.com/sw965/kite/mathx/randx"
	"github.com/sw965/kite/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type Parameter struct {
	// n_feat x 1
	Linear *mat.Dense
	// Factors[o-2] は次数 o の n_feat x rank 行列。
	Factors []*mat.Dense
	Bias    float64
}

// Weights returns the linear weights followed by the factors of order 2, 3, ...
func (p *Parameter) Weights() []mat.Matrix {
	ws := make([]mat.Matrix, 0, len(p.Factors)+1)
	ws = append(ws, p.Linear)
	for _, v := range p.Factors {
		ws = append(ws, v)
	}
	return ws
}

type Classifier struct {
	Config    Config
	Parameter Parameter

	nFeatures int
	fitted    bool
	released  bool
}

func NewClassifier(cfg Config) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{Config: cfg}, nil
}

func (c *Classifier) Order() int {
	return c.Config.Order
}

func (c *Classifier) checkInput(x mat.Matrix) error {
	_, isSparse := x.(*sparse.CSR)
	switch c.Config.InputType {
	case Dense:
		if isSparse {
			return fmt.Errorf("%w: dense classifier got %T", ErrInputType, x)
		}
	case Sparse:
		if !isSparse {
			return fmt.Errorf("%w: sparse classifier got %T", ErrInputType, x)
		}
	}
	return nil
}

func (c *Classifier) checkUsable() error {
	if c.released {
		return ErrReleased
	}
	if !c.fitted {
		return ErrNotFitted
	}
	return nil
}

// Fit initializes the parameters from Config.Seed. y is only validated: with
// zero epochs the parameters stay at their initial values.
func (c *Classifier) Fit(x mat.Matrix, y []float64) error {
	if c.released {
		return ErrReleased
	}
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if err := c.checkInput(x); err != nil {
		return err
	}

	nObj, nFeat := x.Dims()
	if nObj != len(y) {
		return fmt.Errorf("%w: %d rows but %d labels", ErrShape, nObj, len(y))
	}
	for i, yi := range y {
		if yi != 0.0 && yi != 1.0 {
			return fmt.Errorf("%w: y[%d] = %g", ErrLabel, i, yi)
		}
	}

	c.Parameter = initParameter(nFeat, c.Config)
	c.nFeatures = nFeat
	c.fitted = true
	return nil
}

// 入力の表現 (dense/sparse) に依存しないように、乱数は形状と Config だけから引く。
func initParameter(nFeat int, cfg Config) Parameter {
	rng := randx.NewPCG(cfg.Seed)
	std := cfg.InitStd

	linear := make([]float64, nFeat)
	randx.FillUniform(linear, -std, std, rng)

	factors := make([]*mat.Dense, 0, cfg.Order-1)
	for order := 2; order <= cfg.Order; order++ {
		data := make([]float64, nFeat*cfg.Rank)
		randx.FillUniform(data, -std, std, rng)
		factors = append(factors, mat.NewDense(nFeat, cfg.Rank, data))
	}

	return Parameter{
		Linear:  mat.NewDense(nFeat, 1, linear),
		Factors: factors,
		Bias:    randx.Uniform(-std, std, rng),
	}
}

// LinearWeights returns a copy of the linear weights, or nil before Fit and
// after Release.
func (c *Classifier) LinearWeights() *mat.VecDense {
	if c.Parameter.Linear == nil {
		return nil
	}
	return mat.NewVecDense(c.nFeatures, mat.Col(nil, 0, c.Parameter.Linear))
}

// InteractionWeights returns a copy of the n_feat x rank factor matrix of the given order.
func (c *Classifier) InteractionWeights(order int) (*mat.Dense, error) {
	if err := c.checkUsable(); err != nil {
		return nil, err
	}
	if order < 2 || order > c.Config.Order {
		return nil, fmt.Errorf("%w: no interaction weights for order %d", ErrOrder, order)
	}
	return mat.DenseCopyOf(c.Parameter.Factors[order-2]), nil
}

// Intercept is 0 before Fit and after Release. Callers that cannot tell a
// fitted zero from a missing model check LinearWeights for nil first.
func (c *Classifier) Intercept() float64 {
	return c.Parameter.Bias
}

func (c *Classifier) DecisionFunction(x mat.Matrix) ([]float64, error) {
	if err := c.checkUsable(); err != nil {
		return nil, err
	}
	if err := c.checkInput(x); err != nil {
		return nil, err
	}
	nObj, nFeat := x.Dims()
	if nFeat != c.nFeatures {
		return nil, fmt.Errorf("%w: got %d features, fitted with %d", ErrShape, nFeat, c.nFeatures)
	}

	linear := mat.Col(nil, 0, c.Parameter.Linear)
	ev := newEvaluator(c.Config.Order, c.Config.Rank)
	ans := make([]float64, nObj)

	switch x := x.(type) {
	case *sparse.CSR:
		for i := range ans {
			cols, vals := x.RawRow(i)
			u := c.Parameter.Bias
			for p, j := range cols {
				u += vals[p] * linear[j]
			}
			ans[i] = u + ev.interactions(cols, vals, c.Parameter.Factors)
		}
	default:
		cols := make([]int, nFeat)
		for j := range cols {
			cols[j] = j
		}
		row := make([]float64, nFeat)
		for i := range ans {
			mat.Row(row, i, x)
			u := c.Parameter.Bias + floats.Dot(row, linear)
			ans[i] = u + ev.interactions(cols, row, c.Parameter.Factors)
		}
	}
	return ans, nil
}

func (c *Classifier) PredictProba(x mat.Matrix) ([]float64, error) {
	u, err := c.DecisionFunction(x)
	if err != nil {
		return nil, err
	}
	for i, ui := range u {
		u[i] = mathx.Sigmoid(ui)
	}
	return u, nil
}

func (c *Classifier) Predict(x mat.Matrix) ([]float64, error) {
	u, err := c.DecisionFunction(x)
	if err != nil {
		return nil, err
	}
	labels := make([]float64, len(u))
	for i, ui := range u {
		if ui > 0.0 {
			labels[i] = 1.0
		}
	}
	return labels, nil
}

// Release drops the parameters. Calling it again is a no-op.
func (c *Classifier) Release() error {
	c.Parameter = Parameter{}
	c.nFeatures = 0
	c.fitted = false
	c.released = true
	return nil
}

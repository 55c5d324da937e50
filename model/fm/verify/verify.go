// Package verify checks a factorization machine implementation against the
// brute-force evaluator on seeded synthetic data.
package verify

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/rs/zerolog"
	"github.com/sw965/kite/dataset"
	"github.com/sw965/kite/mathx"
	"github.com/sw965/kite/mathx/randx"
	"github.com/sw965/kite/model/fm"
	"github.com/sw965/kite/model/fm/bruteforce"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrMismatch         = errors.New("verify: decision function does not match the brute-force evaluation")
	ErrNondeterministic = errors.New("verify: identical runs produced different outputs")
	ErrLength           = errors.New("verify: desired and actual lengths differ")
)

// EquivalenceTolerance bounds the absolute or relative difference between the
// dense and sparse outputs of one model configuration.
const EquivalenceTolerance = 1e-4

// Model is the factorization machine under test.
type Model interface {
	Fit(x mat.Matrix, y []float64) error
	DecisionFunction(x mat.Matrix) ([]float64, error)
	LinearWeights() *mat.VecDense
	// InteractionWeights returns the n_feat x rank factors of order 2..Order().
	InteractionWeights(order int) (*mat.Dense, error)
	Intercept() float64
	Order() int
	Release() error
}

// Factory builds an unfitted model for cfg reading its input as the given representation.
type Factory func(cfg Config, input InputType) (Model, error)

func FMFactory(cfg Config, input InputType) (Model, error) {
	model, err := fm.NewClassifier(fm.Config{
		Order:     cfg.Order,
		Rank:      cfg.Rank,
		InitStd:   cfg.InitStd,
		Epochs:    cfg.Epochs,
		Seed:      cfg.Seed,
		InputType: input,
	})
	if err != nil {
		return nil, err
	}
	return model, nil
}

var _ Model = (*fm.Classifier)(nil)

type options struct {
	logger zerolog.Logger
}

type Option func(*options)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) options {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type Report struct {
	InputType  InputType `json:"input_type"`
	Order      int       `json:"order"`
	Decimal    int       `json:"decimal"`
	Desired    []float64 `json:"desired"`
	Actual     []float64 `json:"actual"`
	MaxAbsDiff float64   `json:"max_abs_diff"`
	// Mismatches は許容誤差を超えた行の添字。
	Mismatches []int `json:"mismatches"`
	// NonZeros counts the non-zero entries of the X the model read.
	NonZeros int  `json:"non_zeros"`
	Passed   bool `json:"passed"`
}

func (r Report) Err() error {
	if r.Passed {
		return nil
	}
	if len(r.Desired) != len(r.Actual) {
		return fmt.Errorf("%w: %d desired, %d actual", ErrLength, len(r.Desired), len(r.Actual))
	}
	return fmt.Errorf("%w: %d of %d rows differ, max |desired-actual| = %g, tolerance %g",
		ErrMismatch, len(r.Mismatches), len(r.Desired), r.MaxAbsDiff, mathx.DecimalTolerance(r.Decimal))
}

// Compare checks |desired[i] - actual[i]| < 1.5 * 10^-decimal for every i.
func Compare(desired, actual []float64, decimal int) Report {
	report := Report{
		Decimal:    decimal,
		Desired:    desired,
		Actual:     actual,
		Mismatches: make([]int, 0),
	}
	if len(desired) != len(actual) {
		report.MaxAbsDiff = math.MaxFloat64
		return report
	}

	for i := range desired {
		diff := math.Abs(desired[i] - actual[i])
		if math.IsNaN(diff) {
			diff = math.MaxFloat64
		}
		report.MaxAbsDiff = math.Max(report.MaxAbsDiff, diff)
		if !mathx.AlmostEqualDecimal(desired[i], actual[i], decimal) {
			report.Mismatches = append(report.Mismatches, i)
		}
	}
	report.Passed = len(report.Mismatches) == 0
	return report
}

// Weights reads the parameters of a fitted model in the layout the
// brute-force evaluator expects.
func Weights(model Model) ([]mat.Matrix, error) {
	linear := model.LinearWeights()
	if linear == nil {
		return nil, fmt.Errorf("verify: model has no linear weights")
	}
	ws := []mat.Matrix{linear}
	for order := 2; order <= model.Order(); order++ {
		v, err := model.InteractionWeights(order)
		if err != nil {
			return nil, fmt.Errorf("verify: reading order %d weights: %w", order, err)
		}
		ws = append(ws, v)
	}
	return ws, nil
}

// Run fits a model built by factory on seeded synthetic data, evaluates the
// brute-force decision function on the dense data and compares it with the
// model's own output on the requested representation. The model is released
// before Run returns, whatever the outcome.
func Run(cfg Config, factory Factory, input InputType, opts ...Option) (report Report, err error) {
	o := newOptions(opts)
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	logger := o.logger.With().
		Str("input", input.String()).
		Int("order", cfg.Order).
		Int("rank", cfg.Rank).
		Uint64("seed", cfg.Seed).
		Logger()

	data, err := dataset.NewClassification(cfg.NObjects, cfg.NFeatures, randx.NewPCG(cfg.Seed))
	if err != nil {
		return Report{}, err
	}
	if cfg.Sparsity > 0 {
		data, err = data.Sparsify(1-cfg.Sparsity, randx.NewPCG(cfg.Seed+1))
		if err != nil {
			return Report{}, err
		}
	}
	var x mat.Matrix = data.X
	csr := data.Sparse()
	if input == Sparse {
		x = csr
	}

	model, err := factory(cfg, input)
	if err != nil {
		return Report{}, fmt.Errorf("verify: building model: %w", err)
	}
	defer func() {
		if releaseErr := model.Release(); releaseErr != nil && err == nil {
			err = fmt.Errorf("verify: releasing model: %w", releaseErr)
		}
	}()

	if err := model.Fit(x, data.Y); err != nil {
		return Report{}, fmt.Errorf("verify: fitting model: %w", err)
	}
	ws, err := Weights(model)
	if err != nil {
		return Report{}, err
	}

	desired := bruteforce.Inference(data.X, ws, model.Intercept())
	actual, err := model.DecisionFunction(x)
	if err != nil {
		return Report{}, fmt.Errorf("verify: decision function: %w", err)
	}

	report = Compare(desired, actual, cfg.Decimal)
	report.InputType = input
	report.Order = model.Order()
	report.NonZeros = csr.NNZ()
	if report.Passed {
		logger.Debug().Float64("max_abs_diff", report.MaxAbsDiff).Msg("decision function matches brute force")
	} else {
		logger.Warn().
			Float64("max_abs_diff", report.MaxAbsDiff).
			Ints("rows", report.Mismatches).
			Msg("decision function differs from brute force")
	}
	return report, nil
}

type Equivalence struct {
	Dense      Report  `json:"dense"`
	Sparse     Report  `json:"sparse"`
	MaxAbsDiff float64 `json:"max_abs_diff"`
	Equal      bool    `json:"equal"`
}

// CompareDenseSparse runs the same configuration on both representations and
// checks the two model outputs agree within EquivalenceTolerance.
func CompareDenseSparse(cfg Config, factory Factory, opts ...Option) (Equivalence, error) {
	dense, err := Run(cfg, factory, Dense, opts...)
	if err != nil {
		return Equivalence{}, err
	}
	sparse, err := Run(cfg, factory, Sparse, opts...)
	if err != nil {
		return Equivalence{}, err
	}

	eq := Equivalence{Dense: dense, Sparse: sparse}
	if len(dense.Actual) != len(sparse.Actual) {
		eq.MaxAbsDiff = math.MaxFloat64
		return eq, nil
	}
	for i := range dense.Actual {
		eq.MaxAbsDiff = math.Max(eq.MaxAbsDiff, math.Abs(dense.Actual[i]-sparse.Actual[i]))
	}
	eq.Equal = floats.EqualFunc(dense.Actual, sparse.Actual, func(a, b float64) bool {
		return scalar.EqualWithinAbsOrRel(a, b, EquivalenceTolerance, EquivalenceTolerance)
	})

	o := newOptions(opts)
	o.logger.Debug().
		Float64("max_abs_diff", eq.MaxAbsDiff).
		Bool("equal", eq.Equal).
		Msg("dense and sparse outputs compared")
	return eq, nil
}

// CheckDeterminism runs cfg twice and requires bit-identical outputs.
func CheckDeterminism(cfg Config, factory Factory, input InputType, opts ...Option) error {
	first, err := Run(cfg, factory, input, opts...)
	if err != nil {
		return err
	}
	second, err := Run(cfg, factory, input, opts...)
	if err != nil {
		return err
	}
	if !slices.Equal(first.Actual, second.Actual) {
		return fmt.Errorf("%w: %s input, seed %d", ErrNondeterministic, input, cfg.Seed)
	}
	return nil
}

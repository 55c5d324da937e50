package verify

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sw965/kite/model/fm"
)

type InputType = fm.InputType

const (
	Dense  = fm.Dense
	Sparse = fm.Sparse
)

func ParseInputType(s string) (InputType, error) {
	return fm.ParseInputType(s)
}

// Config describes one verification scenario: the synthetic data shape, the
// model to build and the number of decimals the outputs have to agree to.
type Config struct {
	NObjects  int `json:"n_objects" validate:"min=1"`
	NFeatures int `json:"n_features" validate:"min=1"`
	Order     int `json:"order" validate:"min=1,max=4"`
	Rank      int `json:"rank" validate:"min=1"`
	// 小さい値だと高次の項がほぼ 0 になり、高次の実装を検証できない。
	InitStd float64 `json:"init_std" validate:"gte=0"`
	Epochs  int     `json:"epochs" validate:"min=0"`
	Seed    uint64  `json:"seed"`
	Decimal int     `json:"decimal" validate:"min=0,max=15"`
	// Sparsity は X の各要素を 0 にする確率。0 なら X は密のまま。
	Sparsity float64 `json:"sparsity" validate:"gte=0,lte=1"`
}

func DefaultConfig() Config {
	return Config{
		NObjects:  20,
		NFeatures: 10,
		Order:     4,
		Rank:      10,
		InitStd:   1.0,
		Epochs:    0,
		Seed:      0,
		Decimal:   4,
	}
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("verify: invalid config: %w", err)
	}
	return nil
}

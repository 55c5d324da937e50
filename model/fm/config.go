package fm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTrainingUnsupported = errors.New("fm: training epochs are not supported, only initialization")
	ErrReleased            = errors.New("fm: classifier has been released")
	ErrNotFitted           = errors.New("fm: classifier has not been fitted")
	ErrInputType           = errors.New("fm: input representation does not match input type")
	ErrShape               = errors.New("fm: shape mismatch")
	ErrLabel               = errors.New("fm: labels must be 0 or 1")
	ErrOrder               = errors.New("fm: order out of range")
)

const (
	MinOrder = 1
	MaxOrder = 4
)

type InputType int

const (
	Dense InputType = iota
	Sparse
)

func (t InputType) String() string {
	switch t {
	case Dense:
		return "dense"
	case Sparse:
		return "sparse"
	default:
		return fmt.Sprintf("InputType(%d)", int(t))
	}
}

func ParseInputType(s string) (InputType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dense":
		return Dense, nil
	case "sparse":
		return Sparse, nil
	default:
		return 0, fmt.Errorf("fm: unknown input type %q", s)
	}
}

func (t InputType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *InputType) UnmarshalText(text []byte) error {
	parsed, err := ParseInputType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

type Config struct {
	// 相互作用の最大次数。1 なら線形モデル。
	Order int
	Rank  int
	// 重みは [-InitStd, InitStd] の一様分布で初期化する。
	InitStd   float64
	Epochs    int
	Seed      uint64
	InputType InputType
}

func DefaultConfig() Config {
	return Config{
		Order:     2,
		Rank:      2,
		InitStd:   0.01,
		Epochs:    0,
		Seed:      0,
		InputType: Dense,
	}
}

func (c Config) Validate() error {
	if c.Order < MinOrder || c.Order > MaxOrder {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrOrder, c.Order, MinOrder, MaxOrder)
	}
	if c.Rank < 1 {
		return fmt.Errorf("fm: rank must be positive, got %d", c.Rank)
	}
	if c.InitStd < 0.0 {
		return fmt.Errorf("fm: init std must not be negative, got %g", c.InitStd)
	}
	if c.Epochs < 0 {
		return fmt.Errorf("fm: epochs must not be negative, got %d", c.Epochs)
	}
	if c.Epochs > 0 {
		return fmt.Errorf("%w: got %d epochs", ErrTrainingUnsupported, c.Epochs)
	}
	if c.InputType != Dense && c.InputType != Sparse {
		return fmt.Errorf("fm: unknown input type %v", c.InputType)
	}
	return nil
}

package mathx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sw965/kite/mathx"
)

func TestSigmoid(t *testing.T) {
	assert.Equal(t, 0.5, mathx.Sigmoid(0.0))
	assert.InDelta(t, 0.7310585786, mathx.Sigmoid(1.0), 1e-9)
	assert.InDelta(t, 1.0-mathx.Sigmoid(2.5), mathx.Sigmoid(-2.5), 1e-12)
}

func TestAlmostEqualDecimal(t *testing.T) {
	assert.InDelta(t, 1.5e-4, mathx.DecimalTolerance(4), 1e-18)
	assert.True(t, mathx.AlmostEqualDecimal(1.0, 1.0001, 4))
	assert.False(t, mathx.AlmostEqualDecimal(1.0, 1.0002, 4))
	assert.True(t, mathx.AlmostEqualDecimal(-3.25, -3.25, 7))
}

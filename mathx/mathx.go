package mathx

import (
	"math"
)

func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// DecimalTolerance は小数点以下 decimal 桁で一致とみなす許容誤差。
func DecimalTolerance(decimal int) float64 {
	return 1.5 * math.Pow(10.0, -float64(decimal))
}

func AlmostEqualDecimal(desired, actual float64, decimal int) bool {
	return math.Abs(desired-actual) < DecimalTolerance(decimal)
}

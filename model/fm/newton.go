package fm

import (
	"gonum.org/v1/gonum/mat"
)

type evaluator struct {
	order int
	rank  int
	// p[k] = sum_f z_f^k, e[m] = e_m(z)
	p []float64
	e []float64
}

func newEvaluator(order, rank int) *evaluator {
	return &evaluator{
		order: order,
		rank:  rank,
		p:     make([]float64, order+1),
		e:     make([]float64, order+1),
	}
}

// interactions sums the interaction terms of orders 2..order for one row whose
// non-zero entries are vals at columns cols.
func (ev *evaluator) interactions(cols []int, vals []float64, factors []*mat.Dense) float64 {
	total := 0.0
	for order := 2; order <= ev.order; order++ {
		raw := factors[order-2].RawMatrix()
		for r := 0; r < ev.rank; r++ {
			for k := range ev.p {
				ev.p[k] = 0.0
			}
			for q, j := range cols {
				z := vals[q] * raw.Data[j*raw.Stride+r]
				pow := z
				for k := 1; k <= order; k++ {
					ev.p[k] += pow
					pow *= z
				}
			}
			total += elementary(order, ev.p, ev.e)
		}
	}
	return total
}

// elementary returns e_order from the power sums p[1..order] using Newton's
// identities m e_m = sum_{k=1}^{m} (-1)^{k-1} e_{m-k} p_k. e is scratch space.
func elementary(order int, p, e []float64) float64 {
	e[0] = 1.0
	for m := 1; m <= order; m++ {
		s := 0.0
		sign := 1.0
		for k := 1; k <= m; k++ {
			s += sign * e[m-k] * p[k]
			sign = -sign
		}
		e[m] = s / float64(m)
	}
	return e[order]
}

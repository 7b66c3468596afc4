package opt

import (
	"fmt"
	"math"
)

// boundNudge keeps a start point off the bounds, where the transform has a
// zero derivative.
const boundNudge = 1e-6

// box maps an unconstrained search variable y onto a point x that respects
// per-coordinate bounds:
//
//	both bounds:  x = lo + (hi-lo)(sin y + 1)/2
//	lower only:   x = lo - 1 + sqrt(y^2 + 1)
//	upper only:   x = hi + 1 - sqrt(y^2 + 1)
//
// Unbounded coordinates pass through unchanged.
type box struct {
	lo, hi []float64
}

func newBox(lower, upper []float64, n int) (*box, error) {
	if len(lower) != n || len(upper) != n {
		return nil, fmt.Errorf("opt: bounds have %d and %d elements, want %d", len(lower), len(upper), n)
	}
	for i := range lower {
		if math.IsNaN(lower[i]) || math.IsNaN(upper[i]) || lower[i] > upper[i] {
			return nil, fmt.Errorf("opt: invalid bounds [%g, %g] for coordinate %d", lower[i], upper[i], i)
		}
	}
	return &box{lo: lower, hi: upper}, nil
}

func (b *box) kind(i int) (lower, upper bool) {
	return !math.IsInf(b.lo[i], -1), !math.IsInf(b.hi[i], 1)
}

func (b *box) external(y []float64) []float64 {
	x := make([]float64, len(y))
	for i, v := range y {
		lower, upper := b.kind(i)
		switch {
		case lower && upper:
			x[i] = b.lo[i] + (b.hi[i]-b.lo[i])*(math.Sin(v)+1)/2
		case lower:
			x[i] = b.lo[i] - 1 + math.Sqrt(v*v+1)
		case upper:
			x[i] = b.hi[i] + 1 - math.Sqrt(v*v+1)
		default:
			x[i] = v
		}
	}
	return x
}

// internal inverts external. Points outside the box are clamped first.
func (b *box) internal(x []float64) []float64 {
	y := make([]float64, len(x))
	for i, v := range x {
		lower, upper := b.kind(i)
		switch {
		case lower && upper:
			width := b.hi[i] - b.lo[i]
			if width == 0 {
				continue
			}
			s := 2*(v-b.lo[i])/width - 1
			s = math.Max(-1+boundNudge, math.Min(1-boundNudge, s))
			y[i] = math.Asin(s)
		case lower:
			d := math.Max(v-b.lo[i], boundNudge) + 1
			y[i] = math.Sqrt(d*d - 1)
		case upper:
			d := math.Max(b.hi[i]-v, boundNudge) + 1
			y[i] = math.Sqrt(d*d - 1)
		default:
			y[i] = v
		}
	}
	return y
}

// chain turns d f / dx into d f / dy in place.
func (b *box) chain(grad, y []float64) {
	for i, v := range y {
		lower, upper := b.kind(i)
		switch {
		case lower && upper:
			grad[i] *= (b.hi[i] - b.lo[i]) * math.Cos(v) / 2
		case lower:
			grad[i] *= v / math.Sqrt(v*v+1)
		case upper:
			grad[i] *= -v / math.Sqrt(v*v+1)
		}
	}
}

// objective evaluates obj in the search variable.
func (b *box) objective(obj Objective) Objective {
	return Objective{
		Func: func(y []float64) float64 {
			return obj.Func(b.external(y))
		},
		Grad: func(grad, y []float64) {
			obj.Grad(grad, b.external(y))
			b.chain(grad, y)
		},
	}
}

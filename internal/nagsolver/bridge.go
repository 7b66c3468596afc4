package nagsolver

import (
	"fmt"
	"unsafe"

	"github.com/cwbudde/nagplug/internal/e04"
	"github.com/cwbudde/nagplug/internal/solver"
)

// unpack recovers the solver from comm and checks the dimension e04 passed.
func unpack(n int, comm *e04.Comm) *core {
	if comm == nil {
		panic("nagsolver: callback received a nil comm block")
	}
	c := resolveHandle(comm.P)
	if in := c.problem.Function.InputSize(); n != in {
		panic(fmt.Sprintf("nagsolver: callback dimension %d does not match problem input size %d", n, in))
	}
	return c
}

// valueBridge is the e04.Funct passed to derivative-free routines.
func valueBridge(n int, xc *float64, fc *float64, comm *e04.Comm) {
	c := unpack(n, comm)
	fn := c.problem.Function

	x := unsafe.Slice(xc, n)
	f := unsafe.Slice(fc, fn.OutputSize())
	clear(f)
	v := fn.Value(x)
	if len(v) != len(f) {
		panic(fmt.Sprintf("nagsolver: %s returned %d values, want %d", c.name, len(v), len(f)))
	}
	copy(f, v)

	if !comm.Check {
		c.observe(x, f[0])
	}
}

// gradientBridge is the e04.FunctGrad passed to QuasiNewton. comm.Flag
// selects whether the value, the gradient or both are computed. Values
// computed for a derivative check are not observed.
func gradientBridge(n int, xc *float64, fc *float64, gc *float64, comm *e04.Comm) {
	c := unpack(n, comm)
	fn, ok := c.problem.Function.(solver.Differentiable)
	if !ok {
		panic(fmt.Sprintf("nagsolver: %s cost function %T is not differentiable", c.name, c.problem.Function))
	}
	x := unsafe.Slice(xc, n)

	wantValue := comm.Flag == e04.FlagValue || comm.Flag == e04.FlagBoth
	wantGrad := comm.Flag == e04.FlagGradient || comm.Flag == e04.FlagBoth

	if wantValue {
		*fc = 0
		v := fn.Value(x)
		if len(v) != 1 {
			panic(fmt.Sprintf("nagsolver: %s returned %d values, want 1", c.name, len(v)))
		}
		*fc = v[0]
	}
	if wantGrad {
		g := unsafe.Slice(gc, n)
		clear(g)
		gv := fn.Gradient(x, 0)
		if len(gv) != n {
			panic(fmt.Sprintf("nagsolver: %s gradient has %d elements, want %d", c.name, len(gv), n))
		}
		copy(g, gv)
	}

	if wantValue && !comm.Check {
		c.observe(x, *fc)
	}
}

// observe copies x into the working state and hands the callback a copy.
func (c *core) observe(x []float64, cost float64) {
	if c.callback == nil {
		return
	}
	copy(c.state.X, x)
	c.state.Cost = cost
	c.state.Evaluations++
	c.callback(c.problem, c.state.Clone())
}

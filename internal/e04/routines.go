package e04

import (
	"errors"
	"math"
	"unsafe"

	"gonum.org/v1/gonum/diff/fd"

	"github.com/cwbudde/nagplug/internal/opt"
)

// gradientCheckTolerance is the relative gap between a user gradient and its
// central-difference estimate above which Verify Level reports an error.
const gradientCheckTolerance = 1e-4

const machineEpsilon = 0x1p-52

func checkCommon(n int, x []float64, f *float64, comm *Comm, fail *Fail) bool {
	switch {
	case n < 1:
		fail.set(BadParam, "on entry, n = %d; constraint: n >= 1", n)
	case len(x) < n:
		fail.set(BadParam, "on entry, x has %d elements; constraint: at least n = %d", len(x), n)
	case f == nil:
		fail.set(BadParam, "on entry, f is NULL")
	case comm == nil:
		fail.set(BadParam, "on entry, comm is NULL")
	default:
		return true
	}
	return false
}

// finish stores the optimiser's best point into the caller's buffers and
// translates its error into a status code.
func finish(res opt.Result, err error, n int, x []float64, f *float64, fail *Fail) {
	if len(res.X) == n {
		copy(x[:n], res.X)
		*f = res.F
	}
	switch {
	case err == nil:
	case errors.Is(err, opt.ErrEvaluationLimit):
		fail.set(TooManyFevals, "the maximum number of function evaluations (%d) has been exceeded", res.Evaluations)
	case errors.Is(err, opt.ErrIterationLimit):
		fail.set(TooManyIter, "the maximum number of iterations (%d) has been performed", res.Iterations)
	default:
		fail.set(Internal, "%v", err)
	}
}

// SimplexEasy minimises a function of n variables with the Nelder-Mead
// simplex method. x holds the starting point on entry and the best point on
// exit; f receives the value at x. tolf and tolx bound the changes in the
// function value and the point below which the search is considered
// converged, and maxcal caps the number of calls to funct.
func SimplexEasy(n int, x []float64, f *float64, tolf, tolx float64, funct Funct, maxcal int, state *OptionState, comm *Comm, fail *Fail) {
	if !checkCommon(n, x, f, comm, fail) {
		return
	}
	switch {
	case funct == nil:
		fail.set(BadParam, "on entry, funct is NULL")
		return
	case tolf < 0:
		fail.set(BadParam, "on entry, tolf = %g; constraint: tolf >= 0", tolf)
		return
	case tolx < 0:
		fail.set(BadParam, "on entry, tolx = %g; constraint: tolx >= 0", tolx)
		return
	case maxcal < 1:
		fail.set(BadParam, "on entry, maxcal = %d; constraint: maxcal >= 1", maxcal)
		return
	}

	log := newIterationLog("SimplexEasy", n, state)
	comm.Nf = 0
	obj := opt.Objective{Func: func(xc []float64) float64 { return value(funct, xc, comm) }}
	res, err := opt.NewNelderMead().Run(obj, append([]float64(nil), x[:n]...), opt.Settings{
		MaxEvaluations:    maxcal,
		FunctionTolerance: tolf,
		StepTolerance:     tolx,
		Recorder: func(itn, _ int, _ []float64, fv float64) {
			log.iteration(itn, comm.Nf, fv)
		},
	})
	finish(res, err, n, x, f, fail)
	log.finish(fail, *f, x[:n])
}

// QuasiNewton minimises a smooth function of n variables with a BFGS
// quasi-Newton method. funct must supply the gradient when comm.Flag asks for
// it; g receives the gradient at the solution. bl and bu bound the variables
// and may be nil; bounds at or beyond Infinite Bound Size are treated as
// absent. e1 and e2 are the relative and absolute accuracy required of x;
// values below machine precision select its square root. Iteration limit,
// gradient verification and the gradient tolerance come from state.
func QuasiNewton(n int, x []float64, f *float64, g []float64, bl, bu []float64, e1, e2 float64, funct FunctGrad, state *OptionState, comm *Comm, fail *Fail) {
	if !checkCommon(n, x, f, comm, fail) {
		return
	}
	switch {
	case funct == nil:
		fail.set(BadParam, "on entry, funct is NULL")
		return
	case len(g) < n:
		fail.set(BadParam, "on entry, g has %d elements; constraint: at least n = %d", len(g), n)
		return
	case (bl == nil) != (bu == nil):
		fail.set(BadParam, "on entry, bl and bu must both be given or both be NULL")
		return
	case bl != nil && (len(bl) < n || len(bu) < n):
		fail.set(BadParam, "on entry, bl and bu must have at least n = %d elements", n)
		return
	case state == nil || state.values == nil:
		fail.set(BadParam, "option state has not been initialised")
		return
	}

	var lower, upper []float64
	if bl != nil {
		infBound := state.Float("Infinite Bound Size")
		lower = make([]float64, n)
		upper = make([]float64, n)
		for i := 0; i < n; i++ {
			if bl[i] > bu[i] {
				fail.set(BadParam, "on entry, bl[%d] = %g > bu[%d] = %g", i+1, bl[i], i+1, bu[i])
				return
			}
			lower[i], upper[i] = bl[i], bu[i]
			if lower[i] <= -infBound {
				lower[i] = math.Inf(-1)
			}
			if upper[i] >= infBound {
				upper[i] = math.Inf(1)
			}
		}
	}
	if e1 < machineEpsilon {
		e1 = math.Sqrt(machineEpsilon)
	}
	if e2 < machineEpsilon {
		e2 = math.Sqrt(machineEpsilon)
	}

	comm.Nf = 0
	call := func(flag int, xc, gc []float64) float64 {
		var fv float64
		comm.Flag = flag
		funct(n, unsafe.SliceData(xc), &fv, unsafe.SliceData(gc), comm)
		return fv
	}
	eval := func(xc []float64) float64 {
		comm.Nf++
		return call(FlagValue, xc, nil)
	}
	grad := func(dst, xc []float64) {
		call(FlagGradient, xc, dst)
	}

	x0 := append([]float64(nil), x[:n]...)
	if lower != nil {
		for i := range x0 {
			x0[i] = math.Min(math.Max(x0[i], lower[i]), upper[i])
		}
	}
	if state.Int("Verify Level") >= 0 {
		comm.Check = true
		ok := verifyGradient(x0, func(xc []float64) float64 { return call(FlagValue, xc, nil) }, grad, fail)
		comm.Check = false
		if !ok {
			return
		}
	}

	log := newIterationLog("QuasiNewton", n, state)
	res, err := opt.NewBFGS().Run(opt.Objective{Func: eval, Grad: grad}, x0, opt.Settings{
		MaxIterations:     state.Int("Major Iterations Limit"),
		GradientTolerance: state.Float("Optimality Tolerance"),
		FunctionTolerance: state.Float("Function Precision"),
		StepTolerance:     e1,
		StepAbsTolerance:  e2,
		Lower:             lower,
		Upper:             upper,
		Recorder: func(itn, _ int, _ []float64, fv float64) {
			log.iteration(itn, comm.Nf, fv)
		},
	})
	finish(res, err, n, x, f, fail)
	if fail.OK() {
		grad(g[:n], x[:n])
	}
	log.finish(fail, *f, x[:n])
}

func verifyGradient(x []float64, eval func([]float64) float64, grad func(dst, x []float64), fail *Fail) bool {
	user := make([]float64, len(x))
	grad(user, x)
	approx := fd.Gradient(nil, eval, x, &fd.Settings{Formula: fd.Central})
	for i := range user {
		if math.Abs(user[i]-approx[i]) > gradientCheckTolerance*(1+math.Abs(approx[i])) {
			fail.set(DerivErrors, "gradient element %d appears to be wrong: supplied %g, estimated %g", i+1, user[i], approx[i])
			return false
		}
	}
	return true
}

// GlobalSearch looks for the global minimum of a function of n variables
// inside the box [bl, bu] with a mayfly swarm of npop individuals. x holds a
// starting candidate on entry and the best point found on exit. The swarm
// runs for Major Iterations Limit generations.
func GlobalSearch(n int, x []float64, f *float64, bl, bu []float64, npop int, seed int64, funct Funct, state *OptionState, comm *Comm, fail *Fail) {
	if !checkCommon(n, x, f, comm, fail) {
		return
	}
	switch {
	case funct == nil:
		fail.set(BadParam, "on entry, funct is NULL")
		return
	case len(bl) < n || len(bu) < n:
		fail.set(BadParam, "on entry, bl and bu must have at least n = %d elements", n)
		return
	case npop < 20:
		fail.set(BadParam, "on entry, npop = %d; constraint: npop >= 20", npop)
		return
	case state == nil || state.values == nil:
		fail.set(BadParam, "option state has not been initialised")
		return
	}

	infBound := state.Float("Infinite Bound Size")
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i++ {
		if bl[i] <= -infBound || bu[i] >= infBound {
			fail.set(BadParam, "on entry, bound %d is infinite; the search box must be finite", i+1)
			return
		}
		if bl[i] > bu[i] {
			fail.set(BadParam, "on entry, bl[%d] = %g > bu[%d] = %g", i+1, bl[i], i+1, bu[i])
			return
		}
		lo = math.Min(lo, bl[i])
		hi = math.Max(hi, bu[i])
	}

	// The swarm searches the enclosing cube; points are projected onto the box.
	project := func(xc []float64) []float64 {
		p := make([]float64, n)
		for i := range p {
			p[i] = math.Min(math.Max(xc[i], bl[i]), bu[i])
		}
		return p
	}

	log := newIterationLog("GlobalSearch", n, state)
	comm.Nf = 0
	obj := opt.Objective{Func: func(xc []float64) float64 { return value(funct, project(xc), comm) }}
	res, err := opt.NewMayfly(npop, seed).Run(obj, project(x[:n]), opt.Settings{
		MaxIterations: state.Int("Major Iterations Limit"),
		Lower:         []float64{lo},
		Upper:         []float64{hi},
		Recorder: func(itn, _ int, _ []float64, fv float64) {
			log.iteration(itn, comm.Nf, fv)
		},
	})
	if len(res.X) == n {
		res.X = project(res.X)
	}
	finish(res, err, n, x, f, fail)
	log.finish(fail, *f, x[:n])
}

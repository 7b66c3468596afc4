package opt

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// stallIterations is how many major iterations per dimension without progress
// beyond the tolerances are needed before a run counts as converged.
const stallIterations = 20

// NelderMead is a derivative-free simplex method backed by gonum.
type NelderMead struct {
	// SimplexSize is the edge length of the initial simplex (gonum default
	// when zero).
	SimplexSize float64
}

// NewNelderMead returns a Nelder-Mead optimizer.
func NewNelderMead() Optimizer {
	return &NelderMead{}
}

// Run implements Optimizer.
func (nm *NelderMead) Run(obj Objective, x0 []float64, s Settings) (Result, error) {
	absx := s.StepAbsTolerance
	if absx == 0 {
		absx = s.StepTolerance
	}
	settings := &optimize.Settings{
		FuncEvaluations: s.MaxEvaluations,
		MajorIterations: s.MaxIterations,
		Converger:       newToleranceConverger(s.FunctionTolerance, s.StepTolerance, absx, nil),
	}
	method := &optimize.NelderMead{SimplexSize: nm.SimplexSize}

	res, err := minimize(obj, x0, settings, method, s.Recorder, nil)
	return finish(res, err)
}

// BFGS is a quasi-Newton method backed by gonum. It needs Objective.Grad.
// With Settings.Lower/Upper it searches a variable transformed into the box,
// so every evaluated point lies inside the bounds.
type BFGS struct{}

// NewBFGS returns a BFGS optimizer.
func NewBFGS() Optimizer {
	return &BFGS{}
}

// Run implements Optimizer.
func (b *BFGS) Run(obj Objective, x0 []float64, s Settings) (Result, error) {
	if obj.Grad == nil {
		return Result{}, fmt.Errorf("opt: bfgs needs a gradient")
	}

	var external func([]float64) []float64
	if len(s.Lower) > 0 || len(s.Upper) > 0 {
		bx, err := newBox(s.Lower, s.Upper, len(x0))
		if err != nil {
			return Result{}, err
		}
		obj = bx.objective(obj)
		x0 = bx.internal(x0)
		external = bx.external
	}

	settings := &optimize.Settings{
		GradientThreshold: s.GradientTolerance,
		FuncEvaluations:   s.MaxEvaluations,
		MajorIterations:   s.MaxIterations,
	}
	if s.FunctionTolerance > 0 || s.StepTolerance > 0 || s.StepAbsTolerance > 0 {
		settings.Converger = newToleranceConverger(s.FunctionTolerance, s.StepTolerance, s.StepAbsTolerance, external)
	}

	res, err := minimize(obj, x0, settings, &optimize.BFGS{}, s.Recorder, external)
	out, err := finish(res, err)
	if external != nil && len(out.X) > 0 {
		out.X = external(out.X)
	}
	return out, err
}

// errStopped ends a gonum run whose caller has stopped serving evaluations.
var errStopped = errors.New("opt: run abandoned by caller")

// minimize runs optimize.Minimize on a helper goroutine while the calling
// goroutine performs every objective, gradient and recorder call. A panic in
// any of them unwinds the caller and stops the helper.
func minimize(obj Objective, x0 []float64, settings *optimize.Settings, method optimize.Method,
	rec func(iteration, evaluations int, x []float64, f float64), external func([]float64) []float64) (*optimize.Result, error) {
	c := &callerLoop{calls: make(chan func()), quit: make(chan struct{})}
	defer close(c.quit)

	p := optimize.Problem{
		Func: func(x []float64) float64 {
			f := math.NaN()
			c.do(func() { f = obj.Func(x) })
			return f
		},
	}
	if obj.Grad != nil {
		p.Grad = func(grad, x []float64) {
			c.do(func() { obj.Grad(grad, x) })
		}
	}
	settings.Recorder = &recorder{fn: rec, loop: c, external: external}

	type outcome struct {
		res *optimize.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := optimize.Minimize(p, x0, settings, method)
		done <- outcome{res, err}
	}()

	for {
		select {
		case fn := <-c.calls:
			fn()
		case o := <-done:
			return o.res, o.err
		}
	}
}

// callerLoop hands closures from gonum's goroutines to the goroutine
// blocked in minimize.
type callerLoop struct {
	calls chan func()
	quit  chan struct{}
}

// do runs fn on the caller and waits for it. It reports false when the
// caller has left minimize, in which case fn may not have run.
func (c *callerLoop) do(fn func()) bool {
	finished := make(chan struct{})
	select {
	case c.calls <- func() { fn(); close(finished) }:
	case <-c.quit:
		return false
	}
	select {
	case <-finished:
		return true
	case <-c.quit:
		return false
	}
}

func (c *callerLoop) stopped() bool {
	select {
	case <-c.quit:
		return true
	default:
		return false
	}
}

func finish(res *optimize.Result, err error) (Result, error) {
	if res == nil {
		if err == nil {
			err = fmt.Errorf("opt: minimizer returned no result")
		}
		return Result{}, err
	}

	out := Result{
		X:           append([]float64(nil), res.X...),
		F:           res.F,
		Iterations:  res.Stats.MajorIterations,
		Evaluations: res.Stats.FuncEvaluations,
	}
	if err == nil {
		err = res.Status.Err()
	}
	if err == nil {
		return out, nil
	}

	switch res.Status {
	case optimize.FunctionEvaluationLimit:
		return out, fmt.Errorf("%w (%d)", ErrEvaluationLimit, out.Evaluations)
	case optimize.IterationLimit:
		return out, fmt.Errorf("%w (%d)", ErrIterationLimit, out.Iterations)
	}
	return out, err
}

// toleranceConverger stops once either the best value or the best point has
// stayed within its tolerance for long enough.
type toleranceConverger struct {
	tolf       float64
	relx, absx float64
	// external maps the searched variable to the reported point.
	external func([]float64) []float64

	anchorX []float64
	anchorF float64
	stallX  int
	stallF  int
	limit   int
}

func newToleranceConverger(tolf, relx, absx float64, external func([]float64) []float64) *toleranceConverger {
	return &toleranceConverger{tolf: tolf, relx: relx, absx: absx, external: external}
}

func (c *toleranceConverger) Init(dim int) {
	c.anchorX = nil
	c.anchorF = math.Inf(1)
	c.stallX, c.stallF = 0, 0
	c.limit = stallIterations * max(dim, 1)
}

func (c *toleranceConverger) Converged(loc *optimize.Location) optimize.Status {
	x := loc.X
	if c.external != nil {
		x = c.external(x)
	}
	if c.anchorX == nil {
		c.anchorX = append([]float64(nil), x...)
		c.anchorF = loc.F
		return optimize.NotTerminated
	}

	if math.Abs(c.anchorF-loc.F) > c.tolf*(1+math.Abs(loc.F)) {
		c.anchorF = loc.F
		c.stallF = 0
	} else {
		c.stallF++
	}

	if floats.Distance(c.anchorX, x, math.Inf(1)) > c.relx*floats.Norm(x, math.Inf(1))+c.absx {
		copy(c.anchorX, x)
		c.stallX = 0
	} else {
		c.stallX++
	}

	if c.stallF >= c.limit || c.stallX >= c.limit {
		return optimize.FunctionConvergence
	}
	return optimize.NotTerminated
}

// recorder forwards gonum major iterations to a Settings.Recorder on the
// caller's goroutine and stops the run once the caller is gone.
type recorder struct {
	fn       func(iteration, evaluations int, x []float64, f float64)
	loop     *callerLoop
	external func([]float64) []float64
}

func (r *recorder) Init() error { return nil }

func (r *recorder) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if r.loop.stopped() {
		return errStopped
	}
	if op != optimize.MajorIteration || r.fn == nil {
		return nil
	}
	x := loc.X
	if r.external != nil {
		x = r.external(x)
	}
	if !r.loop.do(func() { r.fn(stats.MajorIterations, stats.FuncEvaluations, x, loc.F) }) {
		return errStopped
	}
	return nil
}

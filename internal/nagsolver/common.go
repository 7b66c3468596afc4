package nagsolver

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/nagplug/internal/e04"
	"github.com/cwbudde/nagplug/internal/param"
	"github.com/cwbudde/nagplug/internal/solver"
)

// Canonical e04 option names the adapters set directly.
const (
	iterationsOption = "Major Iterations Limit"
	printFileOption  = "Print File"
)

// Keys shared by every adapter.
const (
	KeyMaxIterations = "max-iterations"
	KeyPrintFile     = Prefix + "print-file"
	KeyVerifyLevel   = Prefix + "verify-level"
	KeyOutputFile    = Prefix + "output_file"
)

// baseTranslations are merged into every adapter's table.
var baseTranslations = map[string]string{
	"max-iterations": iterationsOption,
	"verify-level":   "Verify Level",
	"print-file":     "Print file",
}

func translations(extra map[string]string) map[string]string {
	t := make(map[string]string, len(baseTranslations)+len(extra))
	for k, v := range baseTranslations {
		t[k] = v
	}
	for k, v := range extra {
		t[k] = v
	}
	return t
}

// core is the state and behaviour shared by all adapters. It implements
// every solver.Solver method except Solve.
type core struct {
	name    string
	lib     Library
	problem solver.Problem
	params  *param.Store
	table   optionTable

	x []float64
	f []float64

	state    solver.State
	callback solver.IterationCallback
	result   solver.Result

	fdLog int
}

func newCore(name string, lib Library, problem solver.Problem, table optionTable) *core {
	if problem.Function == nil {
		panic(fmt.Sprintf("nagsolver: %s: problem has no cost function", name))
	}
	if out := problem.Function.OutputSize(); out != 1 {
		panic(fmt.Sprintf("nagsolver: %s: cost function must be scalar, has %d outputs", name, out))
	}
	n := problem.Function.InputSize()
	c := &core{
		name:    name,
		lib:     lib,
		problem: problem,
		params:  param.NewStore(),
		table:   table,
		x:       make([]float64, n),
		f:       make([]float64, 1),
		state:   solver.State{X: make([]float64, n)},
		result:  solver.NoSolution{},
		fdLog:   -1,
	}
	c.initializeParameters()
	return c
}

func (c *core) initializeParameters() {
	c.params.Clear()

	// Shared parameters.
	param.Declare(c.params, KeyMaxIterations, "number of iterations", param.Int(3000))

	// e04 output.
	param.Declare(c.params, KeyPrintFile, "file descriptor", param.Int(0))
	param.Declare(c.params, KeyVerifyLevel, "verify level", param.Int(3))
	param.Declare(c.params, KeyOutputFile, "log filename", param.String(""))
}

// updateParameters pushes every library parameter, then the shared iteration
// limit, then the log file. Errors accumulate in fail.
func (c *core) updateParameters(state *e04.OptionState, fail *e04.Fail) {
	u := updater{lib: c.lib, table: c.table, state: state, fail: fail}
	for _, key := range c.params.KeysWithPrefix(Prefix) {
		if key == Prefix+KeyMaxIterations {
			continue
		}
		p, _ := c.params.Get(key)
		u.apply(key, p.Value)
	}

	if limit, ok := c.iterationLimit(); ok {
		u.push(iterationsOption, limit.Value)
	}

	filename, _ := c.params.String(KeyOutputFile)
	if filename == "" {
		return
	}
	if c.fdLog > 2 {
		c.lib.CloseFile(c.fdLog, fail)
		c.fdLog = -1
	}
	c.lib.OpenFile(filename, e04.ModeWrite, &c.fdLog, fail)
	if c.fdLog < 0 {
		return
	}
	u.push(printFileOption, param.Int(c.fdLog))
}

// iterationLimit returns the shared iteration limit. A prefixed spelling of
// the key takes precedence.
func (c *core) iterationLimit() (param.Parameter, bool) {
	if p, ok := c.params.Get(Prefix + KeyMaxIterations); ok {
		return p, true
	}
	return c.params.Get(KeyMaxIterations)
}

// run performs one solve: it prepares the comm and status blocks, applies the
// parameters and calls routine once unless the option phase already failed.
func (c *core) run(routine string, call func(comm *e04.Comm, state *e04.OptionState, fail *e04.Fail)) solver.Result {
	if sp := c.problem.StartingPoint; sp != nil {
		copy(c.x, sp)
	}
	c.state.Evaluations = 0

	comm := e04.Comm{P: acquireHandle(c)}
	defer releaseHandle(comm.P)

	var fail e04.Fail
	fail.Init()
	var state e04.OptionState

	c.lib.InitOptions(&state, &fail)
	c.updateParameters(&state, &fail)

	logger := slog.With("solver", c.name, "routine", routine)
	if fail.OK() {
		logger.Info("Starting solve", "n", len(c.x))
		call(&comm, &state, &fail)
	}

	if !fail.OK() {
		logger.Warn("Solve failed", "code", fail.Code.String(), "error", fail.Message)
		c.result = solver.Failure{Message: fail.Message}
		return c.result
	}

	logger.Info("Solve finished", "value", c.f[0], "evaluations", comm.Nf)
	c.result = solver.Success{
		X:     append([]float64(nil), c.x...),
		Value: append([]float64(nil), c.f...),
	}
	return c.result
}

func (c *core) Name() string { return c.name }

func (c *core) Problem() solver.Problem { return c.problem }

func (c *core) Parameters() *param.Store { return c.params }

func (c *core) SetIterationCallback(cb solver.IterationCallback) { c.callback = cb }

func (c *core) Minimum() solver.Result { return c.result }

// Close releases the log file opened for nag.output_file.
func (c *core) Close() error {
	if c.fdLog <= 2 {
		return nil
	}
	var fail e04.Fail
	c.lib.CloseFile(c.fdLog, &fail)
	c.fdLog = -1
	if !fail.OK() {
		return fmt.Errorf("nagsolver: closing log file: %s", fail.Message)
	}
	return nil
}

package e04

import "unsafe"

// Comm is passed unchanged from a routine to every callback invocation.
// P is an opaque word owned by the caller; the library never interprets it.
type Comm struct {
	P uintptr
	// Flag tells a gradient callback what to compute: FlagValue,
	// FlagGradient or FlagBoth.
	Flag int
	// Nf counts the callback invocations of the current routine call.
	Nf int
	// Check is set while a routine verifies derivatives. Values computed
	// then are not iterates and are not counted in Nf.
	Check bool
}

// Callback request flags.
const (
	FlagValue    = 0
	FlagGradient = 1
	FlagBoth     = 2
)

// Funct evaluates the objective at the n coordinates starting at xc and
// stores the value at fc.
type Funct func(n int, xc *float64, fc *float64, comm *Comm)

// FunctGrad evaluates the objective and/or its gradient, according to
// comm.Flag. The gradient is written to the n values starting at gc.
type FunctGrad func(n int, xc *float64, fc *float64, gc *float64, comm *Comm)

// value calls funct at x and returns the scalar it wrote.
func value(funct Funct, x []float64, comm *Comm) float64 {
	var f float64
	comm.Nf++
	funct(len(x), unsafe.SliceData(x), &f, comm)
	return f
}

// Package e04 is a minimisation library with a C-style calling convention:
// routines report through a status block instead of returning errors,
// objective functions are raw-pointer callbacks that receive an opaque
// communication block, and optional parameters live in an option state that
// is configured one name at a time.
package e04

import "fmt"

// Code is a status code written into a Fail block.
type Code int

const (
	NoError Code = iota
	BadParam
	OptionInvalid
	TooManyFevals
	TooManyIter
	DerivErrors
	FileOpen
	Internal
)

func (c Code) String() string {
	switch c {
	case NoError:
		return "NE_NOERROR"
	case BadParam:
		return "NE_BAD_PARAM"
	case OptionInvalid:
		return "NE_OPTION_INVALID"
	case TooManyFevals:
		return "NE_TOO_MANY_FEVALS"
	case TooManyIter:
		return "NE_TOO_MANY_ITER"
	case DerivErrors:
		return "NE_DERIV_ERRORS"
	case FileOpen:
		return "NE_FILE_OPEN"
	case Internal:
		return "NE_INTERNAL_ERROR"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Fail is the status block every entry point writes to. The zero value means
// no error. Once a code is set, later errors are ignored so the first
// diagnostic survives until the caller inspects it.
type Fail struct {
	Code    Code
	Message string
}

// Init resets the block to NoError.
func (f *Fail) Init() {
	f.Code = NoError
	f.Message = ""
}

// OK reports whether no error has been recorded.
func (f *Fail) OK() bool {
	return f.Code == NoError
}

func (f *Fail) set(code Code, format string, args ...any) {
	if f == nil || f.Code != NoError {
		return
	}
	f.Code = code
	f.Message = code.String() + ": " + fmt.Sprintf(format, args...)
}

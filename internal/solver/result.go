package solver

import "fmt"

// Result is the outcome of a solve: NoSolution, Success or Failure.
type Result interface {
	isResult()
}

// NoSolution is the result of a solver that has not run yet.
type NoSolution struct{}

// Success carries the minimiser and the cost value at that point.
type Success struct {
	X     []float64 `json:"x"`
	Value []float64 `json:"value"`
}

// Failure carries the external library's diagnostic message.
type Failure struct {
	Message string `json:"message"`
}

func (NoSolution) isResult() {}
func (Success) isResult() {}
func (Failure) isResult() {}

func (NoSolution) String() string { return "no solution" }

func (s Success) String() string {
	return fmt.Sprintf("success: x=%v value=%v", s.X, s.Value)
}

func (f Failure) String() string {
	return "failure: " + f.Message
}

// Error lets a Failure be returned where an error is expected.
func (f Failure) Error() string {
	return f.Message
}

// Outcome names a result for logs, metrics and persisted records.
func Outcome(r Result) string {
	switch r.(type) {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "none"
	}
}

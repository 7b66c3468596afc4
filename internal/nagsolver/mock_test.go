package nagsolver

import (
	"github.com/cwbudde/nagplug/internal/e04"
)

type libCall struct {
	op    string // "double", "int", "string", "open", "close", "routine"
	name  string
	value any
}

// recordingLib records option, file and routine calls and forwards them to
// the native library. A non-empty failMessage makes every routine fail
// without touching its buffers.
type recordingLib struct {
	e04.Native
	calls       []libCall
	failMessage string
}

func (l *recordingLib) record(op, name string, value any) {
	l.calls = append(l.calls, libCall{op: op, name: name, value: value})
}

func (l *recordingLib) OptionSetDouble(name string, v float64, state *e04.OptionState, fail *e04.Fail) {
	l.record("double", name, v)
	l.Native.OptionSetDouble(name, v, state, fail)
}

func (l *recordingLib) OptionSetInteger(name string, v int, state *e04.OptionState, fail *e04.Fail) {
	l.record("int", name, v)
	l.Native.OptionSetInteger(name, v, state, fail)
}

func (l *recordingLib) OptionSetString(assignment string, state *e04.OptionState, fail *e04.Fail) {
	l.record("string", assignment, nil)
	l.Native.OptionSetString(assignment, state, fail)
}

func (l *recordingLib) OpenFile(name string, mode e04.FileMode, fid *int, fail *e04.Fail) {
	l.Native.OpenFile(name, mode, fid, fail)
	l.record("open", name, *fid)
}

func (l *recordingLib) CloseFile(fid int, fail *e04.Fail) {
	l.record("close", "", fid)
	l.Native.CloseFile(fid, fail)
}

func (l *recordingLib) mockFailure(fail *e04.Fail) bool {
	if l.failMessage == "" {
		return false
	}
	fail.Code = e04.Internal
	fail.Message = l.failMessage
	return true
}

func (l *recordingLib) SimplexEasy(n int, x []float64, f *float64, tolf, tolx float64, funct e04.Funct, maxcal int, state *e04.OptionState, comm *e04.Comm, fail *e04.Fail) {
	l.record("routine", "SimplexEasy", maxcal)
	if l.mockFailure(fail) {
		return
	}
	l.Native.SimplexEasy(n, x, f, tolf, tolx, funct, maxcal, state, comm, fail)
}

func (l *recordingLib) QuasiNewton(n int, x []float64, f *float64, g []float64, bl, bu []float64, e1, e2 float64, funct e04.FunctGrad, state *e04.OptionState, comm *e04.Comm, fail *e04.Fail) {
	l.record("routine", "QuasiNewton", nil)
	if l.mockFailure(fail) {
		return
	}
	l.Native.QuasiNewton(n, x, f, g, bl, bu, e1, e2, funct, state, comm, fail)
}

func (l *recordingLib) GlobalSearch(n int, x []float64, f *float64, bl, bu []float64, npop int, seed int64, funct e04.Funct, state *e04.OptionState, comm *e04.Comm, fail *e04.Fail) {
	l.record("routine", "GlobalSearch", npop)
	if l.mockFailure(fail) {
		return
	}
	l.Native.GlobalSearch(n, x, f, bl, bu, npop, seed, funct, state, comm, fail)
}

// named returns the option calls that used name.
func (l *recordingLib) named(name string) []libCall {
	var out []libCall
	for _, c := range l.calls {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

func (l *recordingLib) ops(op string) []libCall {
	var out []libCall
	for _, c := range l.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func (l *recordingLib) reset() {
	l.calls = nil
}

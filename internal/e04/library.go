package e04

// Native exposes the package-level entry points as methods so callers can
// depend on an interface and substitute the library in tests.
type Native struct{}

func (Native) InitOptions(state *OptionState, fail *Fail) { InitOptions(state, fail) }

func (Native) OptionSetDouble(name string, v float64, state *OptionState, fail *Fail) {
	OptionSetDouble(name, v, state, fail)
}

func (Native) OptionSetInteger(name string, v int, state *OptionState, fail *Fail) {
	OptionSetInteger(name, v, state, fail)
}

func (Native) OptionSetString(assignment string, state *OptionState, fail *Fail) {
	OptionSetString(assignment, state, fail)
}

func (Native) OpenFile(name string, mode FileMode, fid *int, fail *Fail) {
	OpenFile(name, mode, fid, fail)
}

func (Native) CloseFile(fid int, fail *Fail) { CloseFile(fid, fail) }

func (Native) SimplexEasy(n int, x []float64, f *float64, tolf, tolx float64, funct Funct, maxcal int, state *OptionState, comm *Comm, fail *Fail) {
	SimplexEasy(n, x, f, tolf, tolx, funct, maxcal, state, comm, fail)
}

func (Native) QuasiNewton(n int, x []float64, f *float64, g []float64, bl, bu []float64, e1, e2 float64, funct FunctGrad, state *OptionState, comm *Comm, fail *Fail) {
	QuasiNewton(n, x, f, g, bl, bu, e1, e2, funct, state, comm, fail)
}

func (Native) GlobalSearch(n int, x []float64, f *float64, bl, bu []float64, npop int, seed int64, funct Funct, state *OptionState, comm *Comm, fail *Fail) {
	GlobalSearch(n, x, f, bl, bu, npop, seed, funct, state, comm, fail)
}

// Package nagsolver implements solver plugins on top of the e04 library:
// parameters are pushed into e04 option calls, problems are evaluated through
// raw-pointer callbacks and every Solve maps the e04 status block onto a
// solver.Result.
package nagsolver

import "github.com/cwbudde/nagplug/internal/e04"

// Library is the subset of the e04 entry points the adapters call.
// e04.Native is the production implementation.
type Library interface {
	InitOptions(state *e04.OptionState, fail *e04.Fail)
	OptionSetDouble(name string, v float64, state *e04.OptionState, fail *e04.Fail)
	OptionSetInteger(name string, v int, state *e04.OptionState, fail *e04.Fail)
	OptionSetString(assignment string, state *e04.OptionState, fail *e04.Fail)

	OpenFile(name string, mode e04.FileMode, fid *int, fail *e04.Fail)
	CloseFile(fid int, fail *e04.Fail)

	SimplexEasy(n int, x []float64, f *float64, tolf, tolx float64, funct e04.Funct, maxcal int, state *e04.OptionState, comm *e04.Comm, fail *e04.Fail)
	QuasiNewton(n int, x []float64, f *float64, g []float64, bl, bu []float64, e1, e2 float64, funct e04.FunctGrad, state *e04.OptionState, comm *e04.Comm, fail *e04.Fail)
	GlobalSearch(n int, x []float64, f *float64, bl, bu []float64, npop int, seed int64, funct e04.Funct, state *e04.OptionState, comm *e04.Comm, fail *e04.Fail)
}

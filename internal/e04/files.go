package e04

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// FileMode selects how OpenFile opens a file.
type FileMode int

const (
	ModeRead FileMode = iota
	ModeWrite
	ModeAppend
)

// firstFileID is the lowest id OpenFile hands out; 0-2 are the standard
// streams.
const firstFileID = 3

// The file table is process-scoped: ids stay valid across routine calls until
// CloseFile.
var files = struct {
	sync.Mutex
	next  int
	table map[int]*os.File
}{next: firstFileID, table: make(map[int]*os.File)}

// OpenFile opens name and stores its id in fid. On failure fid is set to -1.
func OpenFile(name string, mode FileMode, fid *int, fail *Fail) {
	*fid = -1

	var flag int
	switch mode {
	case ModeRead:
		flag = os.O_RDONLY
	case ModeWrite:
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case ModeAppend:
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	default:
		fail.set(BadParam, "mode = %d is not a valid file mode", int(mode))
		return
	}

	f, err := os.OpenFile(name, flag, 0o644)
	if err != nil {
		fail.set(FileOpen, "cannot open file %q: %v", name, err)
		return
	}

	files.Lock()
	defer files.Unlock()
	id := files.next
	files.next++
	files.table[id] = f
	*fid = id
}

// CloseFile closes a file opened by OpenFile.
func CloseFile(fid int, fail *Fail) {
	files.Lock()
	f, ok := files.table[fid]
	delete(files.table, fid)
	files.Unlock()

	if !ok {
		fail.set(BadParam, "file id %d is not open", fid)
		return
	}
	if err := f.Close(); err != nil {
		fail.set(Internal, "closing file id %d: %v", fid, err)
	}
}

// printer returns the writer for a Print File id, or nil when printing is
// disabled. Ids 1 and 2 map to the standard streams.
func printer(fid int) io.Writer {
	switch fid {
	case 1:
		return os.Stdout
	case 2:
		return os.Stderr
	}
	if fid < firstFileID {
		return nil
	}
	files.Lock()
	defer files.Unlock()
	if f, ok := files.table[fid]; ok {
		return f
	}
	return nil
}

// iterationLog writes routine progress to the Print File selected in state.
type iterationLog struct {
	w     io.Writer
	level int
}

func newIterationLog(routine string, n int, state *OptionState) *iterationLog {
	if state == nil {
		return nil
	}
	l := &iterationLog{w: printer(state.Int("Print File")), level: state.Int("Print Level")}
	if l.w == nil || l.level <= 0 {
		return nil
	}
	fmt.Fprintf(l.w, "%s: n = %d\n", routine, n)
	if l.level >= 2 {
		fmt.Fprintf(l.w, "%8s %8s %24s\n", "Itn", "Nf", "Objective")
	}
	return l
}

func (l *iterationLog) iteration(itn, nf int, f float64) {
	if l == nil || l.level < 2 {
		return
	}
	fmt.Fprintf(l.w, "%8d %8d %24.15e\n", itn, nf, f)
}

func (l *iterationLog) finish(fail *Fail, f float64, x []float64) {
	if l == nil {
		return
	}
	if fail.OK() {
		fmt.Fprintf(l.w, "Exit: optimal solution found, f = %.15e\n", f)
	} else {
		fmt.Fprintf(l.w, "Exit: %s\n", fail.Message)
	}
	fmt.Fprintf(l.w, "x = %v\n", x)
}

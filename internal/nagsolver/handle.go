package nagsolver

import (
	"fmt"
	"sync"
)

// Solvers cross the e04 boundary as handles in Comm.P. A handle is valid from
// acquire until release, which brackets one Solve call.
var handles = struct {
	sync.Mutex
	next uintptr
	live map[uintptr]*core
}{next: 1, live: make(map[uintptr]*core)}

func acquireHandle(c *core) uintptr {
	handles.Lock()
	defer handles.Unlock()
	h := handles.next
	handles.next++
	handles.live[h] = c
	return h
}

func releaseHandle(h uintptr) {
	handles.Lock()
	defer handles.Unlock()
	delete(handles.live, h)
}

// resolveHandle returns the solver behind h. An unknown handle means the
// callback was invoked outside a Solve and is fatal.
func resolveHandle(h uintptr) *core {
	if h == 0 {
		panic("nagsolver: callback received a null context")
	}
	handles.Lock()
	c, ok := handles.live[h]
	handles.Unlock()
	if !ok {
		panic(fmt.Sprintf("nagsolver: callback received stale context %d", h))
	}
	return c
}

package nagsolver

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cwbudde/nagplug/internal/e04"
	"github.com/cwbudde/nagplug/internal/param"
)

// Prefix marks parameters that belong to the e04 library.
const Prefix = "nag."

// optionTable holds the per-adapter renaming and suppression rules. Keys are
// stripped of Prefix.
type optionTable struct {
	translate map[string]string
	suppress  map[string]struct{}
}

func newOptionTable(translate map[string]string, suppress ...string) optionTable {
	t := optionTable{translate: translate, suppress: make(map[string]struct{}, len(suppress))}
	for _, key := range suppress {
		t.suppress[key] = struct{}{}
	}
	return t
}

// updater pushes parameter values into an e04 option state. Errors are left
// in fail for the caller to inspect.
type updater struct {
	lib   Library
	table optionTable
	state *e04.OptionState
	fail  *e04.Fail
}

// apply strips, suppresses or translates key and pushes v.
func (u updater) apply(key string, v param.Value) {
	key = strings.TrimPrefix(key, Prefix)
	if _, ok := u.table.suppress[key]; ok {
		return
	}
	name := key
	if translated, ok := u.table.translate[key]; ok {
		name = translated
	}
	u.push(name, v)
}

// push sets option name to v without any renaming.
func (u updater) push(name string, v param.Value) {
	switch v := v.(type) {
	case param.Float:
		slog.Debug("Setting option", "option", name, "value", float64(v))
		u.lib.OptionSetDouble(name, float64(v), u.state, u.fail)
	case param.Int:
		slog.Debug("Setting option", "option", name, "value", int(v))
		u.lib.OptionSetInteger(name, int(v), u.state, u.fail)
	case param.String:
		if v == "" {
			return
		}
		slog.Debug("Setting option", "option", name, "value", string(v))
		u.lib.OptionSetString(name+" = "+string(v), u.state, u.fail)
	default:
		panic(fmt.Sprintf("nagsolver: parameter %q has unsupported value type %T", name, v))
	}
}

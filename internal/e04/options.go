package e04

import (
	"strconv"
	"strings"
)

type optionKind int

const (
	optionInt optionKind = iota
	optionFloat
)

type optionDef struct {
	name string // canonical spelling
	kind optionKind
	def  float64
}

// Recognised optional parameters, keyed by normalised name.
var optionDefs = map[string]optionDef{}

func init() {
	for _, d := range []optionDef{
		{"Major Iterations Limit", optionInt, 3000},
		{"Verify Level", optionInt, 0},
		{"Print File", optionInt, 0},
		{"Print Level", optionInt, 2},
		{"Optimality Tolerance", optionFloat, 1e-8},
		{"Function Precision", optionFloat, 0},
		{"Infinite Bound Size", optionFloat, 1e20},
	} {
		optionDefs[normalizeOption(d.name)] = d
	}
}

// normalizeOption folds case and collapses runs of whitespace.
func normalizeOption(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// OptionState holds the optional parameters of one routine call. It must be
// initialised with InitOptions before use.
type OptionState struct {
	values map[string]float64
	set    map[string]bool
}

// InitOptions resets state to the library defaults.
func InitOptions(state *OptionState, fail *Fail) {
	if state == nil {
		fail.set(BadParam, "option state is NULL")
		return
	}
	state.values = make(map[string]float64, len(optionDefs))
	state.set = make(map[string]bool)
	for key, d := range optionDefs {
		state.values[key] = d.def
	}
}

func lookupOption(name string, state *OptionState, fail *Fail) (string, optionDef, bool) {
	if state == nil || state.values == nil {
		fail.set(BadParam, "option state has not been initialised")
		return "", optionDef{}, false
	}
	key := normalizeOption(name)
	d, ok := optionDefs[key]
	if !ok {
		fail.set(OptionInvalid, "%q is not a recognised optional parameter", name)
		return "", optionDef{}, false
	}
	return key, d, true
}

// OptionSetDouble sets a real-valued optional parameter.
func OptionSetDouble(name string, v float64, state *OptionState, fail *Fail) {
	key, d, ok := lookupOption(name, state, fail)
	if !ok {
		return
	}
	if d.kind != optionFloat {
		fail.set(OptionInvalid, "%s expects an integer value", d.name)
		return
	}
	state.values[key] = v
	state.set[key] = true
}

// OptionSetInteger sets an integer optional parameter.
func OptionSetInteger(name string, v int, state *OptionState, fail *Fail) {
	key, d, ok := lookupOption(name, state, fail)
	if !ok {
		return
	}
	if d.kind != optionInt {
		fail.set(OptionInvalid, "%s expects a real value", d.name)
		return
	}
	state.values[key] = float64(v)
	state.set[key] = true
}

// OptionSetString parses an assignment of the form "Name = value". The value
// is converted to the option's type.
func OptionSetString(assignment string, state *OptionState, fail *Fail) {
	name, raw, found := strings.Cut(assignment, "=")
	if !found {
		fail.set(OptionInvalid, "%q is not of the form name = value", assignment)
		return
	}
	raw = strings.TrimSpace(raw)

	_, d, ok := lookupOption(name, state, fail)
	if !ok {
		return
	}
	switch d.kind {
	case optionInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			fail.set(OptionInvalid, "%s: %q is not an integer", d.name, raw)
			return
		}
		OptionSetInteger(d.name, v, state, fail)
	case optionFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fail.set(OptionInvalid, "%s: %q is not a real number", d.name, raw)
			return
		}
		OptionSetDouble(d.name, v, state, fail)
	}
}

// Int returns the current value of an integer option. Unknown names yield 0.
func (s *OptionState) Int(name string) int {
	return int(s.values[normalizeOption(name)])
}

// Float returns the current value of a real option. Unknown names yield 0.
func (s *OptionState) Float(name string) float64 {
	return s.values[normalizeOption(name)]
}

// IsSet reports whether name was assigned since the last InitOptions.
func (s *OptionState) IsSet(name string) bool {
	return s.set[normalizeOption(name)]
}

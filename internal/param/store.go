// Package param holds solver parameters: a map from symbolic keys to tagged
// values with a human-readable description.
//
// A key's tag is fixed the first time it is declared. Writing a value with a
// different tag through Set is a programming error and panics; runtime input
// (files, flags, requests) goes through Assign, which converts to the
// declared tag and reports errors instead.
package param

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnknownKey is returned by Assign for keys that were never declared.
	ErrUnknownKey = errors.New("param: unknown parameter")

	// ErrKindMismatch is returned when a value cannot be converted to the
	// declared kind of a key.
	ErrKindMismatch = errors.New("param: value does not match declared kind")
)

// Parameter is a described, tagged value.
type Parameter struct {
	Description string
	Value       Value
}

// Store maps parameter keys to parameters. The zero value is ready to use.
// A Store is owned by a single solver and is not safe for concurrent use.
type Store struct {
	params map[string]Parameter
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{params: make(map[string]Parameter)}
}

// Set inserts or overwrites a parameter. It panics if value is nil or if key
// already holds a value of a different kind.
func (s *Store) Set(key, description string, value Value) {
	if value == nil {
		panic(fmt.Sprintf("param: nil value for %q", key))
	}
	if s.params == nil {
		s.params = make(map[string]Parameter)
	}
	if old, ok := s.params[key]; ok && old.Value.Kind() != value.Kind() {
		panic(fmt.Sprintf("param: %q declared as %s, cannot store %s", key, old.Value.Kind(), value.Kind()))
	}
	s.params[key] = Parameter{Description: description, Value: value}
}

// Get returns the parameter stored under key.
func (s *Store) Get(key string) (Parameter, bool) {
	p, ok := s.params[key]
	return p, ok
}

// Clear removes every parameter.
func (s *Store) Clear() {
	s.params = make(map[string]Parameter)
}

// Len returns the number of parameters.
func (s *Store) Len() int {
	return len(s.params)
}

// Keys returns all keys in lexical order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.params))
	for k := range s.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// KeysWithPrefix returns the keys starting with prefix, in lexical order.
func (s *Store) KeysWithPrefix(prefix string) []string {
	var keys []string
	for _, k := range s.Keys() {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Float returns the value of a float parameter.
func (s *Store) Float(key string) (float64, bool) {
	v, ok := s.params[key].Value.(Float)
	return float64(v), ok
}

// Int returns the value of an integer parameter.
func (s *Store) Int(key string) (int, bool) {
	v, ok := s.params[key].Value.(Int)
	return int(v), ok
}

// String returns the value of a string parameter.
func (s *Store) String(key string) (string, bool) {
	v, ok := s.params[key].Value.(String)
	return string(v), ok
}

// Assign overwrites the value of an already declared key, converting raw to
// the declared kind. The description is preserved.
func (s *Store) Assign(key string, raw any) error {
	old, ok := s.params[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	v, err := Convert(old.Value.Kind(), raw)
	if err != nil {
		return fmt.Errorf("parameter %s: %w", key, err)
	}
	s.params[key] = Parameter{Description: old.Description, Value: v}
	return nil
}

// AssignAll applies every entry of values, stopping at the first error.
// Keys are applied in lexical order so errors are reported deterministically.
func (s *Store) AssignAll(values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.Assign(k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

// ParseAssignment splits a "key=value" string.
func ParseAssignment(s string) (key, value string, err error) {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("invalid parameter assignment %q, expected key=value", s)
	}
	return key, strings.TrimSpace(value), nil
}

// Declare installs a default parameter. Adapters call it from their
// constructors.
func Declare(s *Store, key, description string, value Value) {
	s.Set(key, description, value)
}

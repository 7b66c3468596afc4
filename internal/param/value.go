package param

import (
	"fmt"
	"strconv"
)

// Kind is the declared tag of a parameter value.
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a tagged parameter value. The set of implementations is closed:
// Float, Int and String are the only types that satisfy it.
type Value interface {
	Kind() Kind
	String() string
	sealed()
}

// Float is a floating-point parameter value.
type Float float64

// Int is an integer parameter value.
type Int int

// String is a text parameter value. An empty String means "library default".
type String string

func (Float) Kind() Kind { return KindFloat }
func (Int) Kind() Kind { return KindInt }
func (String) Kind() Kind { return KindString }

func (v Float) String() string { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v Int) String() string { return strconv.Itoa(int(v)) }
func (v String) String() string { return string(v) }

func (Float) sealed() {}
func (Int) sealed() {}
func (String) sealed() {}

// Convert coerces a loosely typed value (decoded YAML/JSON, or a raw CLI
// string) into a Value of the requested kind.
func Convert(kind Kind, raw any) (Value, error) {
	switch kind {
	case KindFloat:
		switch v := raw.(type) {
		case Float:
			return v, nil
		case Int:
			return Float(v), nil
		case float64:
			return Float(v), nil
		case float32:
			return Float(v), nil
		case int:
			return Float(v), nil
		case int64:
			return Float(v), nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a float", ErrKindMismatch, v)
			}
			return Float(f), nil
		}
	case KindInt:
		switch v := raw.(type) {
		case Int:
			return v, nil
		case int:
			return Int(v), nil
		case int64:
			return Int(v), nil
		case float64:
			if v != float64(int(v)) {
				return nil, fmt.Errorf("%w: %v is not an integer", ErrKindMismatch, v)
			}
			return Int(int(v)), nil
		case string:
			i, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not an integer", ErrKindMismatch, v)
			}
			return Int(i), nil
		}
	case KindString:
		switch v := raw.(type) {
		case String:
			return v, nil
		case string:
			return String(v), nil
		}
	}
	return nil, fmt.Errorf("%w: cannot use %T as %s", ErrKindMismatch, raw, kind)
}

package rules

import (
	"fmt"
	"math"
	"strconv"
)

// floatTolerance is the absolute slack used when two float values are
// compared for equality.
const floatTolerance = 1e-9

type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindString
)

// Value is the payload of a Fact: an int, a float or a string. The zero
// Value is invalid.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

func Int(v int) Value       { return Value{kind: KindInt, i: int64(v)} }
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }
func String(v string) Value { return Value{kind: KindString, s: v} }
func (v Value) Kind() Kind  { return v.kind }

// IsValid reports whether v can be stored as a fact. NaN is rejected since
// it never equals itself and would defeat fact deduplication.
func (v Value) IsValid() bool {
	if v.kind == KindFloat && math.IsNaN(v.f) {
		return false
	}
	return v.kind != KindInvalid
}

// ValueOf converts decoded JSON/YAML scalars.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case Value:
		return t, nil
	case int:
		return Int(t), nil
	case int64:
		return Value{kind: KindInt, i: t}, nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case bool:
		if t {
			return Int(1), nil
		}
		return Int(0), nil
	default:
		return Value{}, fmt.Errorf("unsupported fact value %v (%T)", x, x)
	}
}

// Number reports the numeric value of int and float values.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

func (v Value) Text() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Equal compares numerically across int and float; floats match within
// floatTolerance.
func (v Value) Equal(o Value) bool {
	if v.kind == KindString || o.kind == KindString {
		return v.kind == o.kind && v.s == o.s
	}
	if v.kind == KindInt && o.kind == KindInt {
		return v.i == o.i
	}
	a, okA := v.Number()
	b, okB := o.Number()
	if !okA || !okB {
		return false
	}
	return math.Abs(a-b) <= floatTolerance
}

// Any returns the underlying Go value.
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return int(v.i)
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	}
	return "<invalid>"
}

package bayes

import (
	"fmt"
	"math"
	"slices"
)

// Factor is a table over binary variables. Entry i encodes the assignment
// with the first scope variable as the most significant bit.
type Factor struct {
	scope  []string
	values []float64
}

type FactorError struct {
	Op     string
	Reason string
}

func (e *FactorError) Error() string {
	return fmt.Sprintf("factor %s: %s", e.Op, e.Reason)
}

func NewFactor(scope []string, values []float64) (*Factor, error) {
	f := &Factor{scope: slices.Clone(scope), values: slices.Clone(values)}
	if err := f.check("new"); err != nil {
		return nil, err
	}
	return f, nil
}

// scalar is the identity for Product.
func scalar(v float64) *Factor {
	return &Factor{values: []float64{v}}
}

func (f *Factor) Scope() []string { return slices.Clone(f.scope) }

func (f *Factor) Values() []float64 { return slices.Clone(f.values) }

func (f *Factor) Contains(variable string) bool {
	return slices.Contains(f.scope, variable)
}

// Value looks up the entry for assignment restricted to the factor's scope.
// Variables missing from assignment read as 0.
func (f *Factor) Value(assignment map[string]int) float64 {
	idx := 0
	for _, v := range f.scope {
		idx = idx<<1 | (assignment[v] & 1)
	}
	return f.values[idx]
}

func (f *Factor) check(op string) error {
	if f == nil {
		return &FactorError{Op: op, Reason: "nil factor"}
	}
	seen := make(map[string]struct{}, len(f.scope))
	for _, v := range f.scope {
		if _, dup := seen[v]; dup {
			return &FactorError{Op: op, Reason: fmt.Sprintf("variable %q repeated in scope", v)}
		}
		seen[v] = struct{}{}
	}
	if want := 1 << len(f.scope); len(f.values) != want {
		return &FactorError{Op: op, Reason: fmt.Sprintf("scope %v needs %d entries, got %d", f.scope, want, len(f.values))}
	}
	for i, x := range f.values {
		if x < 0 || math.IsNaN(x) {
			return &FactorError{Op: op, Reason: fmt.Sprintf("entry %d is %v", i, x)}
		}
	}
	return nil
}

// Product multiplies two factors. The result scope is a's scope followed by
// b's variables not already in a, in b's order.
func Product(a, b *Factor) (*Factor, error) {
	if err := a.check("product"); err != nil {
		return nil, err
	}
	if err := b.check("product"); err != nil {
		return nil, err
	}

	scope := slices.Clone(a.scope)
	for _, v := range b.scope {
		if !slices.Contains(scope, v) {
			scope = append(scope, v)
		}
	}
	posA := positions(scope, a.scope)
	posB := positions(scope, b.scope)

	out := &Factor{scope: scope, values: make([]float64, 1<<len(scope))}
	bits := make([]int, len(scope))
	for idx := range out.values {
		decode(idx, bits)
		out.values[idx] = a.values[encode(bits, posA)] * b.values[encode(bits, posB)]
	}
	return out, nil
}

// Marginalize sums variable out of f.
func Marginalize(f *Factor, variable string) (*Factor, error) {
	if err := f.check("marginalize"); err != nil {
		return nil, err
	}
	k := slices.Index(f.scope, variable)
	if k < 0 {
		return nil, &FactorError{Op: "marginalize", Reason: fmt.Sprintf("variable %q not in scope %v", variable, f.scope)}
	}

	scope := slices.Delete(slices.Clone(f.scope), k, k+1)
	out := &Factor{scope: scope, values: make([]float64, 1<<len(scope))}
	full := make([]int, len(f.scope))
	reduced := make([]int, len(scope))
	for idx := range out.values {
		decode(idx, reduced)
		copy(full[:k], reduced[:k])
		copy(full[k+1:], reduced[k:])
		var sum float64
		for state := 0; state < 2; state++ {
			full[k] = state
			sum += f.values[encode(full, nil)]
		}
		out.values[idx] = sum
	}
	return out, nil
}

// Restrict fixes variable to value and drops it from the scope. A variable
// outside the scope leaves f unchanged.
func Restrict(f *Factor, variable string, value int) (*Factor, error) {
	if err := f.check("restrict"); err != nil {
		return nil, err
	}
	if value != 0 && value != 1 {
		return nil, &FactorError{Op: "restrict", Reason: fmt.Sprintf("value %d for %q is not binary", value, variable)}
	}
	k := slices.Index(f.scope, variable)
	if k < 0 {
		return f, nil
	}

	scope := slices.Delete(slices.Clone(f.scope), k, k+1)
	out := &Factor{scope: scope, values: make([]float64, 1<<len(scope))}
	full := make([]int, len(f.scope))
	reduced := make([]int, len(scope))
	for idx := range out.values {
		decode(idx, reduced)
		copy(full[:k], reduced[:k])
		copy(full[k+1:], reduced[k:])
		full[k] = value
		out.values[idx] = f.values[encode(full, nil)]
	}
	return out, nil
}

func positions(scope, sub []string) []int {
	pos := make([]int, len(sub))
	for i, v := range sub {
		pos[i] = slices.Index(scope, v)
	}
	return pos
}

func decode(idx int, bits []int) {
	n := len(bits)
	for i := range bits {
		bits[i] = (idx >> (n - 1 - i)) & 1
	}
}

// encode packs bits[pos[0]], bits[pos[1]], ... into an index; nil pos means
// all of bits in order.
func encode(bits []int, pos []int) int {
	idx := 0
	if pos == nil {
		for _, b := range bits {
			idx = idx<<1 | b
		}
		return idx
	}
	for _, p := range pos {
		idx = idx<<1 | bits[p]
	}
	return idx
}

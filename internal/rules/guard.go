package rules

import (
	"fmt"

	"github.com/awmpietro/golang-vehicle-diagnosis/internal/rules/eval"
)

// Guard is one pattern of a rule's left-hand side.
type Guard interface {
	Matches(facts FactSet) bool
	String() string
}

// ExactGuard matches when some fact under Key equals Value.
type ExactGuard struct {
	Key   string
	Value Value
}

func Eq(key string, v Value) ExactGuard { return ExactGuard{Key: key, Value: v} }

func (g ExactGuard) Matches(facts FactSet) bool {
	for _, v := range facts.Values(g.Key) {
		if v.Equal(g.Value) {
			return true
		}
	}
	return false
}

func (g ExactGuard) String() string { return g.Key + "=" + g.Value.String() }

// RangeGuard matches when some numeric fact under Key lies in [Min, Max].
type RangeGuard struct {
	Key string
	Min float64
	Max float64
}

func Between(key string, lo, hi float64) RangeGuard { return RangeGuard{Key: key, Min: lo, Max: hi} }

func (g RangeGuard) Matches(facts FactSet) bool {
	for _, v := range facts.Values(g.Key) {
		if x, ok := v.Number(); ok && x >= g.Min && x <= g.Max {
			return true
		}
	}
	return false
}

func (g RangeGuard) String() string {
	return fmt.Sprintf("%s in [%g, %g]", g.Key, g.Min, g.Max)
}

// ExprGuard matches when a boolean expression over working memory holds.
// Like Eq and Between, each comparison against a key holds when some fact
// under that key satisfies it, however many facts the key has. Unbound
// identifiers or evaluation errors do not match.
type ExprGuard struct {
	compiled *eval.Compiled
}

func Expr(cond string) (ExprGuard, error) {
	c, err := eval.Compile(cond, eval.Existential())
	if err != nil {
		return ExprGuard{}, fmt.Errorf("invalid expression %q: %w", cond, err)
	}
	return ExprGuard{compiled: c}, nil
}

func (g ExprGuard) Matches(facts FactSet) bool {
	if g.compiled == nil {
		return false
	}
	ok, err := eval.Eval(g.compiled, bindings(facts))
	return err == nil && ok
}

func (g ExprGuard) String() string {
	if g.compiled == nil {
		return "<nil expr>"
	}
	return g.compiled.Source
}

func bindings(facts FactSet) map[string]any {
	keys := facts.Keys()
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		values := facts.Values(key)
		list := make([]any, len(values))
		for i, v := range values {
			list[i] = v.Any()
		}
		out[key] = list
	}
	return out
}

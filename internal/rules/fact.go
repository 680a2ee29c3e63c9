package rules

import "slices"

// Well-known fact keys.
const (
	SymptomKey   = "symptom"
	DiagnosisKey = "diagnosis"
)

// Fact is an immutable key/value record. Facts are comparable, so identical
// facts collapse in working memory.
type Fact struct {
	Key   string
	Value Value
}

func F(key string, v Value) Fact { return Fact{Key: key, Value: v} }

func (f Fact) String() string { return f.Key + "=" + f.Value.String() }

// FactSet is the read side of working memory that guards match against.
type FactSet interface {
	Keys() []string
	Values(key string) []Value
}

// WorkingMemory is an append-only set of facts that remembers declaration
// order. It is not safe for concurrent use.
type WorkingMemory struct {
	facts []Fact
	keys  []string
	index map[Fact]struct{}
	byKey map[string][]Value
}

func NewWorkingMemory() *WorkingMemory {
	return &WorkingMemory{
		index: make(map[Fact]struct{}),
		byKey: make(map[string][]Value),
	}
}

// Declare adds f and reports whether it was new. Facts with an empty key
// or an invalid value are dropped.
func (wm *WorkingMemory) Declare(f Fact) bool {
	if f.Key == "" || !f.Value.IsValid() {
		return false
	}
	if _, ok := wm.index[f]; ok {
		return false
	}
	wm.index[f] = struct{}{}
	wm.facts = append(wm.facts, f)
	if _, ok := wm.byKey[f.Key]; !ok {
		wm.keys = append(wm.keys, f.Key)
	}
	wm.byKey[f.Key] = append(wm.byKey[f.Key], f.Value)
	return true
}

func (wm *WorkingMemory) Values(key string) []Value { return wm.byKey[key] }

// Keys returns the distinct keys in first-declared order.
func (wm *WorkingMemory) Keys() []string { return slices.Clone(wm.keys) }

func (wm *WorkingMemory) Facts() []Fact { return slices.Clone(wm.facts) }

func (wm *WorkingMemory) Len() int { return len(wm.facts) }

func (wm *WorkingMemory) Reset() {
	wm.facts = nil
	wm.keys = nil
	clear(wm.index)
	clear(wm.byKey)
}

package rules

import (
	"fmt"
	"strings"
)

// Rule declares Then once every guard in When matches at the same time.
// Rules never retract facts.
type Rule struct {
	Name string
	When []Guard
	Then []Fact
}

func (r Rule) matches(facts FactSet) bool {
	for _, g := range r.When {
		if !g.Matches(facts) {
			return false
		}
	}
	return true
}

func (r Rule) String() string {
	when := make([]string, len(r.When))
	for i, g := range r.When {
		when[i] = g.String()
	}
	then := make([]string, len(r.Then))
	for i, f := range r.Then {
		then[i] = f.String()
	}
	return fmt.Sprintf("%s: %s => %s", r.Name, strings.Join(when, ", "), strings.Join(then, ", "))
}

type RuleError struct {
	Rule   string
	Reason string
}

func (e *RuleError) Error() string {
	if e.Rule == "" {
		return "rules: " + e.Reason
	}
	return fmt.Sprintf("rule %q: %s", e.Rule, e.Reason)
}

func validateRules(rules []Rule) error {
	seen := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		if strings.TrimSpace(r.Name) == "" {
			return &RuleError{Reason: "rule without name"}
		}
		if _, dup := seen[r.Name]; dup {
			return &RuleError{Rule: r.Name, Reason: "defined twice"}
		}
		seen[r.Name] = struct{}{}
		if len(r.When) == 0 {
			return &RuleError{Rule: r.Name, Reason: "no guards"}
		}
		for _, g := range r.When {
			if g == nil {
				return &RuleError{Rule: r.Name, Reason: "nil guard"}
			}
		}
		for _, f := range r.Then {
			if f.Key == "" || !f.Value.IsValid() {
				return &RuleError{Rule: r.Name, Reason: fmt.Sprintf("invalid fact %s", f)}
			}
		}
	}
	return nil
}

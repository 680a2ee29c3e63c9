package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ruleFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	Name    string        `yaml:"name"`
	When    []patternSpec `yaml:"when"`
	Declare []factSpec    `yaml:"declare"`
}

type patternSpec struct {
	Key     string    `yaml:"key"`
	Equals  any       `yaml:"equals"`
	Between []float64 `yaml:"between"`
	Expr    string    `yaml:"expr"`
}

type factSpec struct {
	Key   string `yaml:"key"`
	Value any    `yaml:"value"`
}

// LoadRuleFile reads additional rules from a YAML file.
func LoadRuleFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	return ParseRuleFile(data)
}

// ParseRuleFile decodes rules of the form
//
//	rules:
//	  - name: weak_battery
//	    when:
//	      - {key: battery_issue_prob, between: [0.3, 1]}
//	      - {expr: "difficulty_starting == 1"}
//	    declare:
//	      - {key: diagnosis, value: "Revisar el alternador"}
func ParseRuleFile(data []byte) ([]Rule, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rule file: %w", err)
	}

	out := make([]Rule, 0, len(file.Rules))
	for _, spec := range file.Rules {
		r := Rule{Name: spec.Name}
		for i, p := range spec.When {
			g, err := p.guard()
			if err != nil {
				return nil, &RuleError{Rule: spec.Name, Reason: fmt.Sprintf("pattern %d: %v", i, err)}
			}
			r.When = append(r.When, g)
		}
		for i, f := range spec.Declare {
			v, err := ValueOf(f.Value)
			if err != nil {
				return nil, &RuleError{Rule: spec.Name, Reason: fmt.Sprintf("declare %d: %v", i, err)}
			}
			r.Then = append(r.Then, F(f.Key, v))
		}
		out = append(out, r)
	}

	if err := validateRules(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p patternSpec) guard() (Guard, error) {
	switch {
	case p.Expr != "":
		return Expr(p.Expr)
	case p.Key == "":
		return nil, fmt.Errorf("pattern needs key or expr")
	case p.Between != nil:
		if len(p.Between) != 2 || p.Between[0] > p.Between[1] {
			return nil, fmt.Errorf("between needs [lo, hi], got %v", p.Between)
		}
		return Between(p.Key, p.Between[0], p.Between[1]), nil
	case p.Equals != nil:
		v, err := ValueOf(p.Equals)
		if err != nil {
			return nil, err
		}
		return Eq(p.Key, v), nil
	}
	return nil, fmt.Errorf("pattern for %q needs equals or between", p.Key)
}

package eval

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm"
)

// Compiled is a validated boolean condition ready to run many times.
type Compiled struct {
	Source  string
	program *vm.Program
	idents  []string
}

// MissingVariablesError reports identifiers the condition uses that the
// environment does not bind.
type MissingVariablesError struct {
	Vars []string
}

func (e *MissingVariablesError) Error() string {
	return fmt.Sprintf("missing variables [%s]", strings.Join(e.Vars, ", "))
}

// Option tunes how a condition is compiled.
type Option func(*config)

type config struct {
	existential bool
}

// Existential compiles the condition for environments that bind every
// identifier to a list of candidate values. A comparison against a key
// holds when some candidate satisfies it, and "x in key" holds when some
// candidate equals x.
func Existential() Option {
	return func(c *config) { c.existential = true }
}

func Compile(cond string, opts ...Option) (*Compiled, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	cond = strings.TrimSpace(cond)
	tree, err := parse(cond)
	if err != nil {
		return nil, err
	}
	collector := &identCollector{}
	ast.Walk(&tree.Node, collector)

	exprOpts := []expr.Option{expr.AsBool(), expr.AllowUndefinedVariables()}
	if cfg.existential {
		if err := checkOperands(tree.Node); err != nil {
			return nil, err
		}
		exprOpts = append(exprOpts, expr.Patch(anyOfPatcher{}))
	}

	program, err := expr.Compile(cond, exprOpts...)
	if err != nil {
		return nil, err
	}

	return &Compiled{Source: cond, program: program, idents: collector.sorted()}, nil
}

// Eval runs c against vars. Every identifier in the condition must be bound.
func Eval(c *Compiled, vars map[string]any) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("nil condition")
	}

	var missing []string
	for _, name := range c.idents {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return false, &MissingVariablesError{Vars: missing}
	}

	out, err := expr.Run(c.program, vars)
	if err != nil {
		return false, err
	}

	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("cond must evaluate to bool (got %T)", out)
	}

	return b, nil
}

// Identifiers returns the names the condition reads, sorted.
func (c *Compiled) Identifiers() []string { return slices.Clone(c.idents) }

type identCollector struct {
	seen map[string]struct{}
}

func (v *identCollector) Visit(node *ast.Node) {
	id, ok := (*node).(*ast.IdentifierNode)
	if !ok {
		return
	}
	if v.seen == nil {
		v.seen = map[string]struct{}{}
	}
	v.seen[id.Value] = struct{}{}
}

func (v *identCollector) sorted() []string {
	out := make([]string, 0, len(v.seen))
	for name := range v.seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

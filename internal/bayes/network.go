package bayes

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// sumTolerance bounds how far a conditional distribution may drift from 1.
const sumTolerance = 1e-6

// Edge points from parent to child.
type Edge struct {
	Parent string
	Child  string
}

// CPT is P(Variable | Evidence). Values[s][j] is the probability of
// Variable=s under parent assignment j, where j carries the first evidence
// variable as its most significant bit. A CPT with no evidence is a prior.
type CPT struct {
	Variable string
	Evidence []string
	Values   [2][]float64
}

// Factor returns the CPT as a factor over (Variable, Evidence...).
func (c CPT) Factor() (*Factor, error) {
	scope := append([]string{c.Variable}, c.Evidence...)
	values := append(slices.Clone(c.Values[0]), c.Values[1]...)
	return NewFactor(scope, values)
}

type ModelError struct {
	Variable string
	Reason   string
}

func (e *ModelError) Error() string {
	if e.Variable == "" {
		return "invalid model: " + e.Reason
	}
	return fmt.Sprintf("invalid model at %q: %s", e.Variable, e.Reason)
}

// Network is an immutable, validated Bayesian network over binary variables.
// It is safe for concurrent read-only use.
type Network struct {
	variables []string
	edges     []Edge
	parents   map[string][]string
	cpts      map[string]CPT
	factors   map[string]*Factor
	order     []string
}

// NewNetwork builds and validates a network. variables fixes the insertion
// order; variables only mentioned by edges are appended in first-seen order.
func NewNetwork(variables []string, edges []Edge, cpts []CPT) (*Network, error) {
	n := &Network{
		parents: make(map[string][]string),
		cpts:    make(map[string]CPT, len(cpts)),
	}

	seen := make(map[string]struct{})
	add := func(v string) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		n.variables = append(n.variables, v)
	}
	for _, v := range variables {
		if strings.TrimSpace(v) == "" {
			return nil, &ModelError{Reason: "empty variable name"}
		}
		if _, dup := seen[v]; dup {
			return nil, &ModelError{Variable: v, Reason: "variable declared twice"}
		}
		add(v)
	}

	edgeSeen := make(map[Edge]struct{}, len(edges))
	for _, e := range edges {
		if e.Parent == "" || e.Child == "" {
			return nil, &ModelError{Reason: fmt.Sprintf("edge %q -> %q has an empty endpoint", e.Parent, e.Child)}
		}
		if _, dup := edgeSeen[e]; dup {
			continue
		}
		edgeSeen[e] = struct{}{}
		add(e.Parent)
		add(e.Child)
		n.edges = append(n.edges, e)
		n.parents[e.Child] = append(n.parents[e.Child], e.Parent)
	}

	for _, c := range cpts {
		if _, dup := n.cpts[c.Variable]; dup {
			return nil, &ModelError{Variable: c.Variable, Reason: "more than one CPT"}
		}
		n.cpts[c.Variable] = CPT{
			Variable: c.Variable,
			Evidence: slices.Clone(c.Evidence),
			Values:   [2][]float64{slices.Clone(c.Values[0]), slices.Clone(c.Values[1])},
		}
	}

	order, err := n.validate()
	if err != nil {
		return nil, err
	}
	n.order = order

	n.factors = make(map[string]*Factor, len(n.variables))
	for _, v := range n.variables {
		f, err := n.cpts[v].Factor()
		if err != nil {
			return nil, &ModelError{Variable: v, Reason: err.Error()}
		}
		n.factors[v] = f
	}
	return n, nil
}

// Validate checks acyclicity, CPT coverage, CPT evidence against the DAG
// parents, and that every conditional distribution sums to 1.
func (n *Network) Validate() error {
	_, err := n.validate()
	return err
}

func (n *Network) validate() ([]string, error) {
	order, err := n.topologicalOrder()
	if err != nil {
		return nil, err
	}

	for v := range n.cpts {
		if !slices.Contains(n.variables, v) {
			return nil, &ModelError{Variable: v, Reason: "CPT for a variable that is not in the graph"}
		}
	}

	for _, v := range n.variables {
		c, ok := n.cpts[v]
		if !ok {
			return nil, &ModelError{Variable: v, Reason: "missing CPT"}
		}
		if err := checkEvidence(v, c.Evidence, n.parents[v]); err != nil {
			return nil, err
		}
		if err := checkDistributions(c); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func checkEvidence(v string, evidence, parents []string) error {
	seen := make(map[string]struct{}, len(evidence))
	for _, e := range evidence {
		if _, dup := seen[e]; dup {
			return &ModelError{Variable: v, Reason: fmt.Sprintf("evidence %q listed twice", e)}
		}
		seen[e] = struct{}{}
	}
	if len(seen) != len(parents) {
		return &ModelError{Variable: v, Reason: fmt.Sprintf("CPT evidence %v does not match parents %v", evidence, parents)}
	}
	for _, p := range parents {
		if _, ok := seen[p]; !ok {
			return &ModelError{Variable: v, Reason: fmt.Sprintf("CPT evidence %v does not match parents %v", evidence, parents)}
		}
	}
	return nil
}

func checkDistributions(c CPT) error {
	cols := 1 << len(c.Evidence)
	for s, row := range c.Values {
		if len(row) != cols {
			return &ModelError{Variable: c.Variable, Reason: fmt.Sprintf("row %d has %d columns, want %d", s, len(row), cols)}
		}
		for j, p := range row {
			if p < 0 || p > 1 || math.IsNaN(p) {
				return &ModelError{Variable: c.Variable, Reason: fmt.Sprintf("probability %v at [%d][%d] is outside [0,1]", p, s, j)}
			}
		}
	}
	for j := 0; j < cols; j++ {
		if sum := c.Values[0][j] + c.Values[1][j]; math.Abs(sum-1) > sumTolerance {
			return &ModelError{Variable: c.Variable, Reason: fmt.Sprintf("column %d sums to %v", j, sum)}
		}
	}
	return nil
}

// topologicalOrder runs Kahn's algorithm, breaking ties by insertion order.
func (n *Network) topologicalOrder() ([]string, error) {
	indegree := make(map[string]int, len(n.variables))
	children := make(map[string][]string, len(n.variables))
	for _, e := range n.edges {
		indegree[e.Child]++
		children[e.Parent] = append(children[e.Parent], e.Child)
	}

	order := make([]string, 0, len(n.variables))
	done := make(map[string]bool, len(n.variables))
	for len(order) < len(n.variables) {
		progressed := false
		for _, v := range n.variables {
			if done[v] || indegree[v] > 0 {
				continue
			}
			done[v] = true
			order = append(order, v)
			for _, c := range children[v] {
				indegree[c]--
			}
			progressed = true
		}
		if !progressed {
			var stuck []string
			for _, v := range n.variables {
				if !done[v] {
					stuck = append(stuck, v)
				}
			}
			return nil, &ModelError{Reason: fmt.Sprintf("graph has a cycle through %v", stuck)}
		}
	}
	return order, nil
}

// Variables returns the variables in insertion order.
func (n *Network) Variables() []string { return slices.Clone(n.variables) }

// TopologicalOrder returns a stable parents-first ordering.
func (n *Network) TopologicalOrder() []string { return slices.Clone(n.order) }

func (n *Network) Edges() []Edge { return slices.Clone(n.edges) }

func (n *Network) Has(variable string) bool {
	_, ok := n.cpts[variable]
	return ok
}

func (n *Network) Parents(variable string) []string {
	return slices.Clone(n.parents[variable])
}

func (n *Network) CPT(variable string) (CPT, bool) {
	c, ok := n.cpts[variable]
	if !ok {
		return CPT{}, false
	}
	return CPT{
		Variable: c.Variable,
		Evidence: slices.Clone(c.Evidence),
		Values:   [2][]float64{slices.Clone(c.Values[0]), slices.Clone(c.Values[1])},
	}, true
}

func (n *Network) factor(variable string) *Factor {
	return n.factors[variable]
}

package bayes

import (
	"fmt"
	"strings"

	"github.com/awalterschulze/gographviz"
	"gopkg.in/yaml.v3"
)

// Compiler turns a DOT structure plus a YAML parameter file into a validated
// Network. Node declaration order in the DOT text is the insertion order.
type Compiler struct{}

func NewCompiler() *Compiler { return &Compiler{} }

type cptFile struct {
	CPTs []cptSpec `yaml:"cpts"`
}

type cptSpec struct {
	Variable string      `yaml:"variable"`
	Evidence []string    `yaml:"evidence"`
	Values   [][]float64 `yaml:"values"`
}

func (c *Compiler) Compile(dot string, cptYAML []byte) (*Network, error) {
	ast, err := gographviz.ParseString(dot)
	if err != nil {
		return nil, &ModelError{Reason: fmt.Sprintf("failed to parse DOT: %v", err)}
	}

	g := gographviz.NewGraph()
	if err := gographviz.Analyse(ast, g); err != nil {
		return nil, &ModelError{Reason: fmt.Sprintf("failed to analyze DOT: %v", err)}
	}
	if !g.Directed {
		return nil, &ModelError{Reason: "network graph must be a digraph"}
	}

	variables := make([]string, 0, len(g.Nodes.Nodes))
	for _, n := range g.Nodes.Nodes {
		variables = append(variables, unquote(n.Name))
	}

	edges := make([]Edge, 0, len(g.Edges.Edges))
	for _, e := range g.Edges.Edges {
		edges = append(edges, Edge{Parent: unquote(e.Src), Child: unquote(e.Dst)})
	}

	var file cptFile
	if err := yaml.Unmarshal(cptYAML, &file); err != nil {
		return nil, &ModelError{Reason: fmt.Sprintf("failed to parse CPT file: %v", err)}
	}

	known := make(map[string]struct{}, len(variables))
	for _, v := range variables {
		known[v] = struct{}{}
	}

	cpts := make([]CPT, 0, len(file.CPTs))
	for _, spec := range file.CPTs {
		name := strings.TrimSpace(spec.Variable)
		if name == "" {
			return nil, &ModelError{Reason: "CPT without variable name"}
		}
		if _, ok := known[name]; !ok {
			return nil, &ModelError{Variable: name, Reason: "CPT for a variable that is not in the graph"}
		}
		if len(spec.Values) != 2 {
			return nil, &ModelError{Variable: name, Reason: fmt.Sprintf("expected 2 rows of values, got %d", len(spec.Values))}
		}
		cpts = append(cpts, CPT{
			Variable: name,
			Evidence: spec.Evidence,
			Values:   [2][]float64{spec.Values[0], spec.Values[1]},
		})
	}

	return NewNetwork(variables, edges, cpts)
}

// DOT renders the network structure as a digraph named name.
func (n *Network) DOT(name string) (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName(name); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}
	for _, v := range n.variables {
		if err := g.AddNode(name, v, nil); err != nil {
			return "", fmt.Errorf("add node %q: %w", v, err)
		}
	}
	for _, e := range n.edges {
		if err := g.AddEdge(e.Parent, e.Child, true, nil); err != nil {
			return "", fmt.Errorf("add edge %s -> %s: %w", e.Parent, e.Child, err)
		}
	}
	return g.String(), nil
}

// unquote strips the quotes gographviz keeps around quoted IDs.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

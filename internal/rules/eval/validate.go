package eval

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

var allowedBinary = map[string]bool{
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"&&": true, "||": true, "and": true, "or": true,
	"in": true,
	"contains": true, "startsWith": true, "endsWith": true,
}

// Validate rejects conditions that reach outside plain comparisons over
// working-memory keys: member access, arithmetic, function calls and
// negation. A guard built from these only ever turns true as facts are
// added.
func Validate(cond string) error {
	_, err := parse(cond)
	return err
}

func parse(cond string) (*parser.Tree, error) {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return nil, fmt.Errorf("empty condition")
	}
	tree, err := parser.Parse(cond)
	if err != nil {
		return nil, err
	}
	r := &restriction{}
	ast.Walk(&tree.Node, r)
	if r.err != nil {
		return nil, r.err
	}
	return tree, nil
}

// restriction records the first node outside the allowed subset.
type restriction struct {
	err error
}

func (r *restriction) Visit(node *ast.Node) {
	if r.err != nil {
		return
	}
	switch n := (*node).(type) {
	case *ast.NilNode, *ast.IdentifierNode, *ast.IntegerNode, *ast.FloatNode, *ast.BoolNode, *ast.StringNode:
	case *ast.UnaryNode:
		switch n.Node.(type) {
		case *ast.IntegerNode, *ast.FloatNode:
			if n.Operator == "-" {
				return
			}
		}
		r.err = fmt.Errorf("operator %q is not allowed", n.Operator)
	case *ast.BinaryNode:
		if !allowedBinary[n.Operator] {
			r.err = fmt.Errorf("operator %q is not allowed", n.Operator)
		}
	case *ast.CallNode, *ast.BuiltinNode:
		r.err = fmt.Errorf("function calls are not allowed")
	case *ast.MemberNode, *ast.ChainNode:
		r.err = fmt.Errorf("member access is not allowed")
	default:
		r.err = fmt.Errorf("%T is not allowed", n)
	}
}

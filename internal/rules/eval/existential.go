package eval

import (
	"fmt"

	"github.com/expr-lang/expr/ast"
)

var comparisons = map[string]bool{
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"contains": true, "startsWith": true, "endsWith": true,
}

// checkOperands requires every identifier to be one side of a comparison
// whose other side is a literal, or the right side of "in".
func checkOperands(root ast.Node) error {
	c := &operandCheck{}
	ast.Walk(&root, c)
	if c.err != nil {
		return c.err
	}
	if c.compared != c.idents {
		return fmt.Errorf("every key must be compared against a literal")
	}
	return nil
}

type operandCheck struct {
	idents   int
	compared int
	err      error
}

func (c *operandCheck) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		c.idents++
	case *ast.BinaryNode:
		left, lok := n.Left.(*ast.IdentifierNode)
		right, rok := n.Right.(*ast.IdentifierNode)
		if lok && rok && c.err == nil {
			c.err = fmt.Errorf("comparison between keys %q and %q is not supported", left.Value, right.Value)
			return
		}
		switch {
		case n.Operator == "in":
			if rok {
				c.compared++
			}
		case comparisons[n.Operator]:
			if lok || rok {
				c.compared++
			}
		}
	}
}

// anyOfPatcher turns "key OP literal" into any(key, # OP literal) so the
// comparison runs against each value bound to key. Membership needs no
// rewrite since "x in key" already scans the list.
type anyOfPatcher struct{}

func (anyOfPatcher) Visit(node *ast.Node) {
	n, ok := (*node).(*ast.BinaryNode)
	if !ok || !comparisons[n.Operator] {
		return
	}
	var key *ast.IdentifierNode
	pred := &ast.BinaryNode{Operator: n.Operator, Left: n.Left, Right: n.Right}
	if id, ok := n.Left.(*ast.IdentifierNode); ok {
		key, pred.Left = id, &ast.PointerNode{}
	} else if id, ok := n.Right.(*ast.IdentifierNode); ok {
		key, pred.Right = id, &ast.PointerNode{}
	}
	if key == nil {
		return
	}
	ast.Patch(node, &ast.BuiltinNode{
		Name:      "any",
		Arguments: []ast.Node{&ast.IdentifierNode{Value: key.Value}, &ast.PredicateNode{Node: pred}},
	})
}

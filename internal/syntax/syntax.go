// Package syntax wraps the tree-sitter Python grammar behind the small
// surface the detectors need: call expressions and string interpolation.
package syntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// SyntaxError reports source that could not be turned into a clean tree.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Tree is a parsed Python module together with its source bytes.
type Tree struct {
	root *sitter.Node
	src  []byte
}

// Parse builds a syntax tree for src. Sources that contain syntax errors are
// rejected with a *SyntaxError so they never reach the detectors.
func Parse(ctx context.Context, src []byte) (*Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse python source: %w", err)
	}

	root := tree.RootNode()
	if root.HasError() {
		line, msg := firstError(root)
		return nil, &SyntaxError{Line: line, Msg: msg}
	}

	return &Tree{root: root, src: src}, nil
}

func firstError(root *sitter.Node) (int, string) {
	line, msg := lineOf(root), "invalid syntax"
	walk(root, func(n *sitter.Node) bool {
		switch {
		case n.IsMissing():
			line, msg = lineOf(n), fmt.Sprintf("missing %q", n.Type())
			return false
		case n.Type() == "ERROR":
			line = lineOf(n)
			return false
		}
		return true
	})
	return line, msg
}

// walk visits n and its descendants in pre-order. Returning false from fn
// stops the whole walk.
func walk(n *sitter.Node, fn func(*sitter.Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if !walk(n.Child(i), fn) {
			return false
		}
	}
	return true
}

func lineOf(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

func (t *Tree) text(n *sitter.Node) string {
	return n.Content(t.src)
}

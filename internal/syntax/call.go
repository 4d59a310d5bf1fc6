package syntax

import sitter "github.com/smacker/go-tree-sitter"

// Call is a read-only view over one call expression.
type Call struct {
	// Line is the 1-based line where the call expression starts.
	Line int
	// Name is set when the callee is a bare identifier: eval(...).
	Name string
	// Receiver is set when the callee is an attribute access on a bare
	// identifier: pickle.loads(...) has Receiver "pickle".
	Receiver string
	// Method is the attribute name of an attribute callee, whatever the
	// receiver expression is.
	Method string

	args *sitter.Node
}

// Calls invokes fn for every call expression in source order.
func (t *Tree) Calls(fn func(Call)) {
	walk(t.root, func(n *sitter.Node) bool {
		if n.Type() == "call" {
			fn(t.newCall(n))
		}
		return true
	})
}

func (t *Tree) newCall(n *sitter.Node) Call {
	call := Call{Line: lineOf(n), args: n.ChildByFieldName("arguments")}

	callee := n.ChildByFieldName("function")
	if callee == nil {
		return call
	}

	switch callee.Type() {
	case "identifier":
		call.Name = t.text(callee)
	case "attribute":
		if attr := callee.ChildByFieldName("attribute"); attr != nil {
			call.Method = t.text(attr)
		}
		if obj := callee.ChildByFieldName("object"); obj != nil && obj.Type() == "identifier" {
			call.Receiver = t.text(obj)
		}
	}
	return call
}

// FirstPositional returns the first positional argument, or nil when the
// call has none (no arguments, keyword-only, splats, or a generator argument).
func (c Call) FirstPositional() *sitter.Node {
	if c.args == nil || c.args.Type() != "argument_list" {
		return nil
	}
	for i := 0; i < int(c.args.NamedChildCount()); i++ {
		arg := c.args.NamedChild(i)
		switch arg.Type() {
		case "comment":
			continue
		case "keyword_argument", "list_splat", "dictionary_splat":
			return nil
		default:
			return arg
		}
	}
	return nil
}

// IsInterpolated reports whether n is a string built by interpolation with at
// least one substituted segment, such as f"select {name}". Parentheses and
// implicit concatenation are looked through.
func (t *Tree) IsInterpolated(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "parenthesized_expression", "concatenated_string":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if t.IsInterpolated(n.NamedChild(i)) {
				return true
			}
		}
	case "string":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if n.NamedChild(i).Type() == "interpolation" {
				return true
			}
		}
	}
	return false
}

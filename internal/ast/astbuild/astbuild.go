// Package astbuild writes syntax tree fixtures by hand. Trees built here
// have the same shape the tree-sitter front end produces, so builders can be
// tested without parsing text.
package astbuild

import "github.com/standardbeagle/cxxmodel/internal/ast"

// N creates an interior node.
func N(typ string, children ...*ast.Node) *ast.Node {
	return ast.New(typ, children...)
}

// L creates a named leaf.
func L(typ, text string) *ast.Node {
	return ast.Leaf(typ, text)
}

// Tok creates an anonymous token.
func Tok(text string) *ast.Node {
	return ast.Token(text)
}

// Toks creates a run of anonymous tokens.
func Toks(texts ...string) []*ast.Node {
	out := make([]*ast.Node, len(texts))
	for i, t := range texts {
		out[i] = ast.Token(t)
	}
	return out
}

// F stores n under a field name.
func F(field string, n *ast.Node) *ast.Node {
	n.Field = field
	return n
}

// Ident is an identifier leaf.
func Ident(name string) *ast.Node {
	return L("identifier", name)
}

// Missing creates a zero-width token inserted by error recovery.
func Missing(text string) *ast.Node {
	n := ast.Token(text)
	n.Missing = true
	return n
}

// EOF creates the end-of-input tag.
func EOF() *ast.Node {
	return &ast.Node{Type: ast.EOF}
}

// Params builds a parameter_list with "(" ... ")" around the given items,
// separating them with commas.
func Params(items ...*ast.Node) *ast.Node {
	ch := []*ast.Node{Tok("(")}
	for i, it := range items {
		if i > 0 {
			ch = append(ch, Tok(","))
		}
		ch = append(ch, it)
	}
	ch = append(ch, Tok(")"))
	return N("parameter_list", ch...)
}

// Param builds a parameter_declaration "type name".
func Param(typ *ast.Node, name string) *ast.Node {
	children := []*ast.Node{F("type", typ)}
	if name != "" {
		children = append(children, F("declarator", Ident(name)))
	}
	return N("parameter_declaration", children...)
}

// Prim is a primitive_type leaf.
func Prim(name string) *ast.Node {
	return L("primitive_type", name)
}

// TypeID is a type_identifier leaf.
func TypeID(name string) *ast.Node {
	return L("type_identifier", name)
}

// Body is an empty compound statement.
func Body() *ast.Node {
	return N("compound_statement", Tok("{"), Tok("}"))
}

// Root wraps top-level nodes in a translation_unit followed by the end tag
// and lays the tree out. It returns the root and the laid out source.
func Root(children ...*ast.Node) (*ast.Node, string) {
	root := N("translation_unit", children...)
	root.Append(EOF())
	src := ast.Layout(root)
	return root, src
}

// Build lays out a detached fragment and returns it.
func Build(n *ast.Node) *ast.Node {
	ast.Layout(n)
	return n
}

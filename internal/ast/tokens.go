package ast

// spine lists the wrapper kinds whose tokens belong to the enclosing
// declaration for modifier scanning. Everything else (parameters, bodies,
// template arguments) is reported as one opaque node.
var spine = map[string]bool{
	"function_declarator":         true,
	"parameter_list":              true,
	"reference_declarator":        true,
	"pointer_declarator":          true,
	"delete_method_clause":        true,
	"default_method_clause":       true,
	"pure_virtual_clause":         true,
	"virtual_specifier":           true,
	"virtual":                     true,
	"storage_class_specifier":     true,
	"type_qualifier":              true,
	"explicit_function_specifier": true,
	"ref_qualifier":               true,
}

// Tokens flattens the modifier-bearing spine of a declaration node into the
// left-to-right sequence of leaves and opaque subtrees that a modifier scan
// walks. The node itself is never returned.
func Tokens(n *Node) []*Node {
	var out []*Node
	var visit func(*Node)
	visit = func(p *Node) {
		for _, c := range p.Children() {
			if c.IsLeaf() || !spine[c.Type] {
				out = append(out, c)
				continue
			}
			visit(c)
		}
	}
	if n != nil {
		visit(n)
	}
	return out
}

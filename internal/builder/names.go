package builder

import (
	"strings"

	"github.com/standardbeagle/cxxmodel/internal/ast"
)

// declaratorKinds wrap a name with pointer, reference, array, init or call
// syntax.
var declaratorKinds = map[string]bool{
	"function_declarator":      true,
	"pointer_declarator":       true,
	"reference_declarator":     true,
	"array_declarator":         true,
	"init_declarator":          true,
	"parenthesized_declarator": true,
	"attributed_declarator":    true,
	"variadic_declarator":      true,
}

// innermost follows the declarator chain of n down to the node that spells
// the declared name.
func innermost(n *ast.Node) *ast.Node {
	for n != nil && declaratorKinds[n.Type] {
		next := n.ChildByField("declarator")
		if next == nil {
			// reference and variadic declarators keep the name unfielded
			next = n.ChildOfType("identifier", "field_identifier", "type_identifier", "qualified_identifier",
				"destructor_name", "operator_name", "template_function",
				"pointer_declarator", "reference_declarator", "function_declarator", "array_declarator")
		}
		if next == nil {
			return nil
		}
		n = next
	}
	return n
}

// functionDeclarator finds the function_declarator under a declaration.
func functionDeclarator(n *ast.Node) *ast.Node {
	for d := n.ChildByField("declarator"); d != nil; {
		if d.Type == "function_declarator" {
			// (*fp)(int) declares a pointer, not a function
			if d.ChildByField("declarator").Is("parenthesized_declarator") {
				return nil
			}
			return d
		}
		if !declaratorKinds[d.Type] {
			return nil
		}
		next := d.ChildByField("declarator")
		if next == nil {
			next = d.ChildOfType("function_declarator", "pointer_declarator", "reference_declarator")
		}
		d = next
	}
	return nil
}

// nameHolder is the part of a declarator that names the declaration.
type nameHolder struct {
	node      *ast.Node // name node, for diagnostics
	name      string
	qualifier string    // explicit A::B:: prefix of out-of-line members
	args      *ast.Node // template_argument_list of an explicit specialization
}

// holdName extracts the name from a name node of any supported shape.
func holdName(n *ast.Node) nameHolder {
	h := nameHolder{node: n}
	var quals []string
	for n != nil {
		switch n.Type {
		case "qualified_identifier":
			if s := n.ChildByField("scope"); s != nil {
				quals = append(quals, ast.Render(s))
			}
			n = n.ChildByField("name")
			continue
		case "template_function", "template_type", "template_method":
			h.args = n.ChildByField("arguments")
			h.name = ast.Render(n.ChildByField("name"))
		case "destructor_name", "operator_name", "operator_cast":
			h.name = ast.Render(n)
		default:
			if n.IsLeaf() && !n.Missing && n.Type != ast.EOF {
				h.name = n.Text
			}
		}
		h.node = n
		break
	}
	h.qualifier = strings.Join(quals, "::")
	return h
}

// functionName is the name holder of a function-like declaration.
func functionName(decl *ast.Node) nameHolder {
	fd := functionDeclarator(decl)
	if fd == nil {
		return nameHolder{node: decl}
	}
	return holdName(innermost(fd.ChildByField("declarator")))
}

// destructorName strips the leading tilde from the function name holder.
func destructorName(decl *ast.Node) nameHolder {
	h := functionName(decl)
	h.name = strings.TrimSpace(strings.TrimPrefix(h.name, "~"))
	return h
}

// declaratorName is the name holder of a variable, field or alias
// declarator.
func declaratorName(declarator *ast.Node) nameHolder {
	return holdName(innermost(declarator))
}

// isDestructor reports whether the function declarator names a destructor.
func isDestructor(decl *ast.Node) bool {
	fd := functionDeclarator(decl)
	return fd != nil && fd.Find("destructor_name") != nil
}

// unquote strips the delimiters of an include path.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '<' && s[len(s)-1] == '>') {
		return s[1 : len(s)-1]
	}
	return s
}

// stripTemplateArgs removes every balanced <...> group, turning A<T>::B<U>
// into A::B.
func stripTemplateArgs(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var sb strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '<':
			depth++
		case c == '>' && depth > 0:
			depth--
		case depth == 0:
			sb.WriteByte(c)
		}
	}
	return strings.TrimSpace(sb.String())
}

package builder

import (
	"strings"

	"github.com/standardbeagle/cxxmodel/internal/ast"
	"github.com/standardbeagle/cxxmodel/internal/model"
)

// TypeBuilder accumulates a type reference. A nil or empty builder creates
// the built-in int.
type TypeBuilder struct {
	name       string
	quals      model.Qualifiers
	isDecltype bool
	decltype   model.Expr
	param      *model.Declaration
}

// NewTypeBuilder starts a type spelled name.
func NewTypeBuilder(name string) *TypeBuilder {
	return &TypeBuilder{name: name}
}

// SetName sets the classifier name. The first non-empty name wins.
func (b *TypeBuilder) SetName(name string) *TypeBuilder {
	if b.name == "" {
		b.name = name
	}
	return b
}

func (b *TypeBuilder) SetConst() *TypeBuilder {
	b.quals.Const = true
	return b
}

func (b *TypeBuilder) AddPointer() *TypeBuilder {
	b.quals.Pointer++
	return b
}

func (b *TypeBuilder) SetReference(r model.RefQualifier) *TypeBuilder {
	b.quals.Reference = r
	return b
}

// SetDecltype makes the builder create a decltype type over expr.
func (b *TypeBuilder) SetDecltype(spelling string, expr model.Expr) *TypeBuilder {
	b.name = spelling
	b.isDecltype = true
	b.decltype = expr
	return b
}

// SetTemplateParam binds the type to a template parameter declaration.
func (b *TypeBuilder) SetTemplateParam(p *model.Declaration) *TypeBuilder {
	b.param = p
	return b
}

// Create materializes the type for owner. Names of template parameters
// visible from bc resolve to template parameter types.
func (b *TypeBuilder) Create(bc *Context, owner *model.Declaration) model.Type {
	return b.create(bc, owner, nil)
}

func (b *TypeBuilder) create(bc *Context, owner *model.Declaration, own map[string]*model.Declaration) model.Type {
	s := bc.Session
	if b == nil {
		return s.BuiltinType("int")
	}
	switch {
	case b.param != nil:
		return s.NewTemplateParamType(b.param, b.quals)
	case b.isDecltype:
		return s.NewDecltypeType(b.name, b.decltype, owner, b.quals)
	case b.name == "":
		return s.NewSimpleType("int", b.quals, model.NoUID)
	}
	if p := own[b.name]; p != nil {
		return s.NewTemplateParamType(p, b.quals)
	}
	if p := bc.tmpl.lookup(b.name); p != nil {
		return s.NewTemplateParamType(p, b.quals)
	}
	return s.NewSimpleType(b.name, b.quals, bc.scopeDecl().UID())
}

// typeFromAST captures the type of a declaration: the type specifier of
// holder plus the pointer and reference layers of declarator.
func typeFromAST(holder, typeNode, declarator *ast.Node) *TypeBuilder {
	b := &TypeBuilder{}
	for _, c := range holder.Children() {
		if c.Type == "type_qualifier" && ast.Render(c) == "const" {
			b.quals.Const = true
		}
	}
	decorate(b, declarator)

	switch {
	case typeNode == nil:
	case typeNode.Type == "type_descriptor":
		inner := typeFromAST(typeNode, typeNode.ChildByField("type"), typeNode.ChildByField("declarator"))
		inner.quals.Const = inner.quals.Const || b.quals.Const
		inner.quals.Pointer += b.quals.Pointer
		if b.quals.Reference != model.RefNone {
			inner.quals.Reference = b.quals.Reference
		}
		return inner
	case typeNode.Type == "decltype":
		b.SetDecltype(ast.Render(typeNode), lowerExpr(decltypeOperand(typeNode)))
	case typeNode.Is("class_specifier", "struct_specifier", "union_specifier", "enum_specifier"):
		b.name = ast.Render(typeNode.ChildByField("name"))
	default:
		b.name = ast.Render(typeNode)
	}
	return b
}

// decorate adds the pointer and reference layers of a declarator chain,
// stopping at the function declarator of a return type.
func decorate(b *TypeBuilder, d *ast.Node) {
	for d != nil {
		switch d.Type {
		case "pointer_declarator", "abstract_pointer_declarator":
			b.quals.Pointer++
		case "reference_declarator", "abstract_reference_declarator":
			if first := d.FirstChild(); first != nil && first.Text == "&&" {
				b.quals.Reference = model.RefRValue
			} else {
				b.quals.Reference = model.RefLValue
			}
		case "function_declarator", "abstract_function_declarator":
			return
		case "init_declarator", "array_declarator", "parenthesized_declarator", "variadic_declarator":
		default:
			return
		}
		next := d.ChildByField("declarator")
		if next == nil {
			next = d.ChildOfType("pointer_declarator", "reference_declarator", "abstract_pointer_declarator",
				"abstract_reference_declarator", "function_declarator", "array_declarator")
		}
		d = next
	}
}

func decltypeOperand(n *ast.Node) *ast.Node {
	for _, c := range n.Children() {
		if c.Named && c.Type != "decltype" {
			return c
		}
	}
	return nil
}

// lowerExpr converts a decltype operand into a model expression. Forms
// that cannot name a type yield nil.
func lowerExpr(n *ast.Node) model.Expr {
	if n == nil {
		return nil
	}
	switch n.Type {
	case "identifier", "field_identifier":
		return &model.IdentExpr{Name: n.Text}
	case "qualified_identifier":
		return &model.QualifiedExpr{Name: ast.Render(n)}
	case "number_literal":
		return &model.LiteralExpr{Kind: numberKind(n.Text), Text: n.Text}
	case "string_literal", "raw_string_literal", "concatenated_string":
		return &model.LiteralExpr{Kind: model.LitString, Text: ast.Render(n)}
	case "char_literal":
		return &model.LiteralExpr{Kind: model.LitChar, Text: ast.Render(n)}
	case "true", "false":
		return &model.LiteralExpr{Kind: model.LitBool, Text: n.Text}
	case "null", "nullptr":
		return &model.LiteralExpr{Kind: model.LitNull, Text: ast.Render(n)}
	case "call_expression":
		call := &model.CallExpr{Callee: lowerExpr(n.ChildByField("function"))}
		if call.Callee == nil {
			return nil
		}
		for _, a := range n.ChildByField("arguments").Children() {
			if !a.Named {
				continue
			}
			x := lowerExpr(a)
			if x == nil {
				return nil
			}
			call.Args = append(call.Args, x)
		}
		return call
	case "field_expression":
		base := lowerExpr(n.ChildByField("argument"))
		if base == nil {
			return nil
		}
		op := n.ChildByField("operator")
		return &model.MemberExpr{
			Base:  base,
			Name:  ast.Render(n.ChildByField("field")),
			Arrow: op != nil && op.Text == "->",
		}
	case "pointer_expression":
		op := n.ChildByField("operator")
		x := lowerExpr(n.ChildByField("argument"))
		if op == nil || x == nil {
			return nil
		}
		return &model.UnaryExpr{Op: op.Text[0], X: x}
	case "parenthesized_expression":
		for _, c := range n.Children() {
			if c.Named {
				if x := lowerExpr(c); x != nil {
					return &model.ParenExpr{X: x}
				}
			}
		}
	}
	return nil
}

func numberKind(text string) model.LiteralKind {
	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "0x") {
		if strings.Contains(lower, "p") {
			return model.LitFloat
		}
		return model.LitInt
	}
	if strings.ContainsAny(lower, ".e") {
		return model.LitFloat
	}
	return model.LitInt
}

package builder

import (
	"context"

	"github.com/standardbeagle/cxxmodel/internal/ast"
	"github.com/standardbeagle/cxxmodel/internal/debug"
	cxerrors "github.com/standardbeagle/cxxmodel/internal/errors"
	"github.com/standardbeagle/cxxmodel/internal/model"
)

// Walk builds every declaration under root in source order. A failing
// declaration is reported and skipped; the walk resumes at its next
// sibling. The error, if any, is a *errors.MultiError.
func Walk(ctx context.Context, root *ast.Node, bc *Context) ([]*model.Declaration, error) {
	w := &walker{ctx: ctx}
	for _, c := range root.Children() {
		if err := ctx.Err(); err != nil {
			w.errs = append(w.errs, err)
			break
		}
		w.node(c, bc)
	}
	debug.LogBuild("walked file %d: %d declarations, %d errors", bc.File, len(w.decls), len(w.errs))
	return w.decls, cxerrors.NewMultiError(w.errs).ErrorOrNil()
}

type walker struct {
	ctx   context.Context
	decls []*model.Declaration
	errs  []error
}

func (w *walker) add(d *model.Declaration, err error) *model.Declaration {
	if err != nil {
		w.errs = append(w.errs, err)
		return nil
	}
	w.decls = append(w.decls, d)
	return d
}

func (w *walker) children(n *ast.Node, bc *Context) {
	for _, c := range n.Children() {
		w.node(c, bc)
	}
}

func (w *walker) node(n *ast.Node, bc *Context) {
	switch n.Type {
	case "translation_unit", "declaration_list",
		"preproc_if", "preproc_ifdef", "preproc_else", "preproc_elif", "preproc_elifdef":
		w.children(n, bc)
	case "linkage_specification":
		if body := n.ChildByField("body"); body != nil {
			w.node(body, bc)
		}
	case "namespace_definition":
		if ns := w.add(NewNamespace(w.ctx, n, bc)); ns != nil {
			w.children(n.ChildByField("body"), bc.WithScope(w.ctx, ns, model.VisibilityNone))
		}
	case "preproc_def", "preproc_function_def":
		w.add(NewMacro(w.ctx, n, bc))
	case "preproc_include":
		w.add(NewInclude(w.ctx, n, bc))
	case "template_declaration":
		for _, c := range n.Children() {
			if c.Named && c.Field != "parameters" {
				w.node(c, bc)
			}
		}
	case "template_instantiation":
		if functionDeclarator(n) != nil {
			w.add(NewFunctionInstantiation(w.ctx, n, bc))
		}
	case "class_specifier", "struct_specifier", "union_specifier":
		w.class(n, bc)
	case "enum_specifier":
		w.enum(n, bc)
	case "function_definition":
		w.function(n, bc)
	case "declaration", "field_declaration":
		w.declaration(n, bc)
	case "friend_declaration":
		w.friend(n, bc)
	case "alias_declaration", "type_definition":
		w.typeHead(n, bc)
		for _, b := range typeAliasBuildersFromAST(bc, n) {
			w.add(b.Create(w.ctx, bc))
		}
	}
}

// typeHead builds a class or enum defined inside the type specifier of n,
// as in "struct P { int x; } p;".
func (w *walker) typeHead(n *ast.Node, bc *Context) {
	t := n.ChildByField("type")
	switch {
	case t.Is("class_specifier", "struct_specifier", "union_specifier") && t.ChildByField("body") != nil:
		w.class(t, bc)
	case t.Is("enum_specifier") && t.ChildByField("body") != nil:
		w.enum(t, bc)
	}
}

func (w *walker) class(n *ast.Node, bc *Context) {
	body := n.ChildByField("body")
	if body == nil {
		w.add(NewForwardClass(w.ctx, n, bc))
		return
	}
	class := w.add(NewClass(w.ctx, n, bc))
	if class == nil {
		return
	}
	vis := model.VisibilityPublic
	if n.Type == "class_specifier" {
		vis = model.VisibilityPrivate
	}
	cbc := bc.WithScope(w.ctx, class, vis)
	for _, c := range body.Children() {
		if c.Type == "access_specifier" {
			if v := model.ParseVisibility(ast.Render(c)); v != model.VisibilityNone {
				cbc = bc.WithScope(w.ctx, class, v)
			}
			continue
		}
		w.node(c, cbc)
	}
}

func (w *walker) enum(n *ast.Node, bc *Context) {
	enum := w.add(NewEnum(w.ctx, n, bc))
	if enum == nil {
		return
	}
	ebc := bc.WithScope(w.ctx, enum, bc.Visibility)
	for _, c := range n.ChildByField("body").Children() {
		if c.Type == "enumerator" {
			w.add(NewEnumerator(w.ctx, c, ebc))
		}
	}
}

func inClass(bc *Context) bool {
	if bc.Scope == nil {
		return false
	}
	switch bc.Scope.Kind {
	case model.KindClass, model.KindStruct, model.KindUnion:
		return true
	}
	return false
}

// function dispatches a function declaration or definition to the factory
// for its kind.
func (w *walker) function(n *ast.Node, bc *Context) {
	var fn *model.Declaration
	h := functionName(n)
	switch {
	case inClass(bc) && isDestructor(n):
		fn = w.add(NewDestructor(w.ctx, n, bc))
	case inClass(bc) && h.qualifier == "" && h.name == bc.Scope.Name:
		fn = w.add(NewConstructor(w.ctx, n, bc))
	case inClass(bc):
		fn = w.add(NewMethod(w.ctx, n, bc))
	case h.qualifier != "" && n.Type == "function_definition":
		fn = w.add(NewFunctionDefinition(w.ctx, n, bc))
	default:
		fn = w.add(NewFunction(w.ctx, n, bc))
	}
	if fn != nil {
		w.lambdas(n.ChildByField("body"), bc.WithScope(w.ctx, fn, model.VisibilityNone))
	}
}

func (w *walker) declaration(n *ast.Node, bc *Context) {
	w.typeHead(n, bc)
	if n.ChildByField("declarator") == nil {
		if t := n.ChildByField("type"); t.Is("class_specifier", "struct_specifier", "union_specifier") && t.ChildByField("body") == nil {
			w.add(NewForwardClass(w.ctx, t, bc))
		}
		return
	}
	if functionDeclarator(n) != nil {
		w.function(n, bc)
		return
	}
	kind := model.KindVariable
	if n.Type == "field_declaration" {
		kind = model.KindField
	}
	decls, errs := createAll(w.ctx, bc, fieldBuildersFromAST(bc, n, kind))
	w.decls = append(w.decls, decls...)
	w.errs = append(w.errs, errs...)
	for _, c := range n.Children() {
		if c.Field == "declarator" || c.Field == "default_value" {
			w.lambdas(c, bc)
		}
	}
}

func (w *walker) friend(n *ast.Node, bc *Context) {
	inner := n.ChildOfType("declaration", "function_definition", "field_declaration")
	if inner == nil || functionDeclarator(inner) == nil {
		// friend classes introduce no declaration
		return
	}
	fn := w.add(NewFriendFunction(w.ctx, n, bc))
	if fn != nil {
		w.lambdas(inner.ChildByField("body"), bc.WithScope(w.ctx, fn, model.VisibilityNone))
	}
}

// lambdas builds the lambda expressions under n. Nested lambdas are scoped
// to the lambda that contains them.
func (w *walker) lambdas(n *ast.Node, bc *Context) {
	n.Walk(func(c *ast.Node) bool {
		if c.Type != "lambda_expression" {
			return true
		}
		if fn := w.add(NewLambda(w.ctx, c, bc)); fn != nil {
			w.lambdas(c.ChildByField("body"), bc.WithScope(w.ctx, fn, model.VisibilityNone))
		}
		return false
	})
}

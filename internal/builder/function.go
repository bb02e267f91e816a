package builder

import (
	"context"
	"fmt"

	"github.com/standardbeagle/cxxmodel/internal/ast"
	cxerrors "github.com/standardbeagle/cxxmodel/internal/errors"
	"github.com/standardbeagle/cxxmodel/internal/model"
)

// FunctionBuilder builds every member of the function signature family.
type FunctionBuilder struct {
	kind         model.Kind
	flags        model.Flags
	name         string
	qualified    string // overrides scope + name when set
	start, end   int
	node         *ast.Node
	scope        *model.Declaration
	visibility   model.Visibility
	returnType   *TypeBuilder
	params       *ParameterListBuilder
	tmpl         *TemplateDescriptorBuilder
	body         model.BodyKind
	ref          model.RefQualifier
	inits        *InitializerListBuilder
	friendClass  *model.Declaration
	instantiated string

	requireBody bool
	bodyErr     error
	consumed    bool
}

// NewFunctionBuilder starts a builder for a declaration of kind k.
func NewFunctionBuilder(k model.Kind) *FunctionBuilder {
	return &FunctionBuilder{kind: k}
}

// SetName sets the declared name. The first non-empty name wins.
func (b *FunctionBuilder) SetName(name string) *FunctionBuilder {
	if !b.consumed && b.name == "" {
		b.name = name
	}
	return b
}

// SetQualifiedName replaces the qualified name derived from the scope.
func (b *FunctionBuilder) SetQualifiedName(q string) *FunctionBuilder {
	if !b.consumed {
		b.qualified = q
	}
	return b
}

func (b *FunctionBuilder) SetSpan(start, end int) *FunctionBuilder {
	if !b.consumed {
		b.start, b.end = start, end
	}
	return b
}

func (b *FunctionBuilder) AddFlags(f model.Flags) *FunctionBuilder {
	if !b.consumed {
		b.flags |= f
	}
	return b
}

// SetScope overrides the scope of the build context.
func (b *FunctionBuilder) SetScope(scope *model.Declaration) *FunctionBuilder {
	if !b.consumed {
		b.scope = scope
	}
	return b
}

func (b *FunctionBuilder) SetVisibility(v model.Visibility) *FunctionBuilder {
	if !b.consumed {
		b.visibility = v
	}
	return b
}

func (b *FunctionBuilder) SetReturnType(t *TypeBuilder) *FunctionBuilder {
	if !b.consumed {
		b.returnType = t
	}
	return b
}

func (b *FunctionBuilder) SetParameters(p *ParameterListBuilder) *FunctionBuilder {
	if !b.consumed {
		b.params = p
	}
	return b
}

func (b *FunctionBuilder) SetTemplate(t *TemplateDescriptorBuilder) *FunctionBuilder {
	if !b.consumed {
		b.tmpl = t
	}
	return b
}

func (b *FunctionBuilder) SetBody(k model.BodyKind) *FunctionBuilder {
	if !b.consumed {
		b.body = k
		if k == model.BodyDefault || k == model.BodyDelete {
			b.flags |= model.FlagDefaultedOrDeleted
		}
	}
	return b
}

func (b *FunctionBuilder) SetRefQualifier(r model.RefQualifier) *FunctionBuilder {
	if !b.consumed {
		b.ref = r
	}
	return b
}

// SetInitializers attaches a member initializer list. Only constructors
// keep it.
func (b *FunctionBuilder) SetInitializers(l *InitializerListBuilder) *FunctionBuilder {
	if !b.consumed {
		b.inits = l
	}
	return b
}

func (b *FunctionBuilder) SetFriendClass(c *model.Declaration) *FunctionBuilder {
	if !b.consumed {
		b.friendClass = c
		b.flags |= model.FlagFriend
	}
	return b
}

func (b *FunctionBuilder) SetInstantiatedName(name string) *FunctionBuilder {
	if !b.consumed {
		b.instantiated = name
	}
	return b
}

// RequireBody makes Create fail with ErrMissingBody when no body kind was
// set. Out-of-line definitions require a body.
func (b *FunctionBuilder) RequireBody() *FunctionBuilder {
	if !b.consumed {
		b.requireBody = true
	}
	return b
}

// Create materializes the declaration. It can be called once.
func (b *FunctionBuilder) Create(ctx context.Context, bc *Context) (*model.Declaration, error) {
	if b.consumed {
		return nil, cxerrors.NewBuildError("FunctionBuilder", "", cxerrors.ErrBuilderConsumed)
	}
	b.consumed = true
	if b.name == "" {
		if b.node != nil {
			return nil, bc.parseError(b.node, cxerrors.ErrMissingName)
		}
		return nil, cxerrors.NewBuildError("FunctionBuilder", "name", cxerrors.ErrMissingName)
	}
	if b.params == nil {
		return nil, cxerrors.NewBuildError("FunctionBuilder", "parameters", cxerrors.ErrMissingCollaborator)
	}

	s := bc.Session
	if b.scope != nil && b.scope != bc.Scope {
		bc = bc.WithScope(ctx, b.scope, bc.Visibility)
	}
	name := s.InternName(b.name)
	qualified := b.qualified
	if qualified == "" {
		if b.kind == model.KindDestructor {
			qualified = qualify(bc.scopeName(), "~"+name)
		} else {
			qualified = qualify(bc.scopeName(), name)
		}
	}
	data := &model.FunctionData{Body: b.body, RefQualifier: b.ref}
	d := &model.Declaration{
		Kind:          b.kind,
		Flags:         b.flags,
		Name:          name,
		QualifiedName: s.InternQualified(qualified),
		RawName:       s.InternQualified(rawName(qualified)),
		File:          bc.File,
		Start:         b.start,
		End:           b.end,
		Scope:         bc.scopeRef(nil),
		Visibility:    b.visibility,
		Data:          data,
	}
	bc.begin(d)

	bt := b.tmpl.create(bc, d)
	own := bt.names()
	data.Template, data.Specialization = bt.template(), bt.specialization()
	if len(data.Specialization) > 0 {
		d.Flags |= model.FlagSpecialization
	}

	if b.kind == model.KindConstructor || b.kind == model.KindDestructor {
		data.ReturnType = model.NoType
	} else {
		data.ReturnType = b.returnType.create(bc, d, own)
	}
	data.Params = b.params.create(bc, d, own)
	if data.Params.IsVariadic() {
		d.Flags |= model.FlagVariadic
	}

	if b.requireBody && b.body == model.BodyNone {
		bt.abort(bc)
		bc.abort(d)
		if b.bodyErr != nil {
			return nil, b.bodyErr
		}
		return nil, cxerrors.NewBuildError("FunctionBuilder", "body", cxerrors.ErrMissingBody)
	}
	if b.kind == model.KindConstructor && b.inits != nil {
		data.Initializers = b.inits.create(s)
	}
	if b.friendClass != nil {
		data.FriendClass = model.DirectRef(s.Repo, b.friendClass)
	}
	if b.instantiated != "" {
		data.InstantiatedName = s.InternQualified(b.instantiated)
	}
	bt.finish(bc)
	bc.finish(d)
	return d, nil
}

// ParameterListBuilder collects parameters in declaration order.
type ParameterListBuilder struct {
	params []*ParameterBuilder
}

func NewParameterListBuilder() *ParameterListBuilder {
	return &ParameterListBuilder{}
}

func (b *ParameterListBuilder) Add(p *ParameterBuilder) *ParameterListBuilder {
	b.params = append(b.params, p)
	return b
}

// create builds the list. A sole unnamed void parameter is an empty list.
func (b *ParameterListBuilder) create(bc *Context, owner *model.Declaration, own map[string]*model.Declaration) *model.ParameterList {
	if len(b.params) == 0 || len(b.params) == 1 && b.params[0].isVoid() {
		return model.EmptyParameters
	}
	out := make([]model.Parameter, 0, len(b.params))
	for _, p := range b.params {
		out = append(out, model.Parameter{
			Name:     bc.Session.InternName(p.name),
			Type:     p.typ.create(bc, owner, own),
			Default:  bc.Session.InternText(p.def),
			Variadic: p.variadic,
			Start:    p.start,
			End:      p.end,
		})
	}
	return model.NewParameterList(out)
}

// ParameterBuilder describes one parameter.
type ParameterBuilder struct {
	name       string
	typ        *TypeBuilder
	def        string
	variadic   bool
	start, end int
}

func NewParameterBuilder(name string, typ *TypeBuilder) *ParameterBuilder {
	return &ParameterBuilder{name: name, typ: typ}
}

func (b *ParameterBuilder) SetDefault(text string) *ParameterBuilder {
	b.def = text
	return b
}

func (b *ParameterBuilder) SetVariadic() *ParameterBuilder {
	b.variadic = true
	return b
}

func (b *ParameterBuilder) SetSpan(start, end int) *ParameterBuilder {
	b.start, b.end = start, end
	return b
}

func (b *ParameterBuilder) isVoid() bool {
	t := b.typ
	return b.name == "" && t != nil && t.name == "void" && !t.isDecltype &&
		t.quals == model.Qualifiers{}
}

// InitializerListBuilder collects constructor member initializers in order.
type InitializerListBuilder struct {
	items []model.Initializer
}

func NewInitializerListBuilder() *InitializerListBuilder {
	return &InitializerListBuilder{}
}

func (b *InitializerListBuilder) Add(name, args string, start, end int) *InitializerListBuilder {
	b.items = append(b.items, model.Initializer{Name: name, Args: args, Start: start, End: end})
	return b
}

func (b *InitializerListBuilder) create(s *model.Session) []model.Initializer {
	if len(b.items) == 0 {
		return nil
	}
	out := make([]model.Initializer, len(b.items))
	for i, it := range b.items {
		it.Name = s.InternName(it.Name)
		it.Args = s.InternText(it.Args)
		out[i] = it
	}
	return out
}

// functionFromAST fills a builder from a function declaration or
// definition node.
func functionFromAST(bc *Context, n *ast.Node, kind model.Kind) (*FunctionBuilder, nameHolder) {
	b := NewFunctionBuilder(kind)
	b.node = n
	b.start, b.end = spanOf(n)

	var h nameHolder
	if kind == model.KindDestructor {
		h = destructorName(n)
	} else {
		h = functionName(n)
	}
	b.name = h.name
	if h.node != nil && h.name == "" {
		b.node = h.node
	}

	m := scanModifiers(n)
	b.flags |= m.flags
	b.body = m.body
	b.ref = m.ref
	b.visibility = bc.Visibility
	b.returnType = typeFromAST(n, n.ChildByField("type"), n.ChildByField("declarator"))
	fd := functionDeclarator(n)
	b.params = paramsFromAST(fd.ChildByField("parameters"))
	b.tmpl = templateFromAST(bc, n, h.args)
	if kind == model.KindConstructor {
		b.inits = initializersFromAST(n.ChildOfType("field_initializer_list"))
	}
	b.bodyErr = bc.parseError(n, cxerrors.ErrMissingBody)
	return b, h
}

func paramsFromAST(list *ast.Node) *ParameterListBuilder {
	b := NewParameterListBuilder()
	for _, c := range list.Children() {
		switch c.Type {
		case "parameter_declaration", "optional_parameter_declaration", "variadic_parameter_declaration":
			d := c.ChildByField("declarator")
			p := NewParameterBuilder(declaratorName(d).name, typeFromAST(c, c.ChildByField("type"), d))
			p.def = ast.Render(c.ChildByField("default_value"))
			p.variadic = c.Type == "variadic_parameter_declaration"
			p.start, p.end = c.Start, c.End
			b.Add(p)
		case "...":
			p := NewParameterBuilder("", NewTypeBuilder("...")).SetVariadic()
			p.start, p.end = c.Start, c.End
			b.Add(p)
		}
	}
	return b
}

func initializersFromAST(list *ast.Node) *InitializerListBuilder {
	if list == nil {
		return nil
	}
	b := NewInitializerListBuilder()
	for _, fi := range list.Children() {
		if fi.Type != "field_initializer" {
			continue
		}
		var name, args string
		for _, c := range fi.Children() {
			switch {
			case c.Is("argument_list", "initializer_list"):
				args = ast.Render(c)
			case c.Named && name == "":
				name = ast.Render(c)
			}
		}
		b.Add(name, args, fi.Start, fi.End)
	}
	return b
}

// NewFunction builds a free function declaration or definition.
func NewFunction(ctx context.Context, n *ast.Node, bc *Context) (*model.Declaration, error) {
	b, h := functionFromAST(bc, n, model.KindFunction)
	if h.qualifier != "" {
		b.qualified = qualify(qualify(bc.scopeName(), h.qualifier), h.name)
	}
	return b.Create(ctx, bc)
}

// NewMethod builds a member function declared inside its class.
func NewMethod(ctx context.Context, n *ast.Node, bc *Context) (*model.Declaration, error) {
	b, _ := functionFromAST(bc, n, model.KindMethod)
	return b.Create(ctx, bc)
}

// NewConstructor builds a constructor declared inside its class.
func NewConstructor(ctx context.Context, n *ast.Node, bc *Context) (*model.Declaration, error) {
	b, _ := functionFromAST(bc, n, model.KindConstructor)
	return b.Create(ctx, bc)
}

// NewDestructor builds a destructor declared inside its class. The stored
// name has no tilde.
func NewDestructor(ctx context.Context, n *ast.Node, bc *Context) (*model.Declaration, error) {
	b, _ := functionFromAST(bc, n, model.KindDestructor)
	return b.Create(ctx, bc)
}

// NewFunctionDefinition builds an out-of-line definition such as
// A::f() {}. The qualifier is resolved through the project registry; a
// class qualifier makes the result a method, constructor or destructor of
// that class.
func NewFunctionDefinition(ctx context.Context, n *ast.Node, bc *Context) (*model.Declaration, error) {
	kind := model.KindFunction
	if isDestructor(n) {
		kind = model.KindDestructor
	}
	b, h := functionFromAST(bc, n, kind)
	b.flags |= model.FlagDefinition
	b.requireBody = true

	if h.qualifier == "" {
		return b.Create(ctx, bc)
	}
	owner := resolveQualifier(ctx, bc, h.qualifier)
	switch {
	case owner == nil:
		b.qualified = qualify(qualify(bc.scopeName(), h.qualifier), h.name)
	case owner.Kind == model.KindNamespace:
		b.scope = owner
	default:
		b.scope = owner
		switch {
		case kind == model.KindDestructor:
		case h.name == owner.Name:
			b.kind = model.KindConstructor
			b.inits = initializersFromAST(n.ChildOfType("field_initializer_list"))
		default:
			b.kind = model.KindMethod
		}
	}
	return b.Create(ctx, bc)
}

// resolveQualifier finds the class or namespace named by an explicit
// qualifier, trying the enclosing scope first.
func resolveQualifier(ctx context.Context, bc *Context, qualifier string) *model.Declaration {
	reg := bc.Session.Registry()
	bare := stripTemplateArgs(qualifier)
	for _, q := range []string{qualify(bc.scopeName(), bare), bare} {
		if c := reg.FindClassifier(ctx, q); c != nil && c.Kind != model.KindTemplateParam {
			return c
		}
		for _, d := range reg.FindDeclarations(ctx, q) {
			if d.Kind == model.KindNamespace {
				return d
			}
		}
		if bc.Scope == nil {
			break
		}
	}
	return nil
}

// NewFriendFunction builds a friend function declared in the class bc.Scope.
// The function lives in the scope enclosing the class.
func NewFriendFunction(ctx context.Context, n *ast.Node, bc *Context) (*model.Declaration, error) {
	if n.Type == "friend_declaration" {
		if inner := n.ChildOfType("declaration", "function_definition", "field_declaration"); inner != nil {
			n = inner
		}
	}
	b, _ := functionFromAST(bc, n, model.KindFriendFunction)
	class := bc.Scope
	b.visibility = model.VisibilityNone
	if class != nil {
		b.SetFriendClass(class)
		outer := class.ScopeDecl(ctx)
		if outer == nil {
			outer = bc.Session.Global()
		}
		b.scope = outer
	} else {
		b.flags |= model.FlagFriend
	}
	return b.Create(ctx, bc)
}

// NewLambda builds a lambda expression. Its name is derived from its
// position.
func NewLambda(ctx context.Context, n *ast.Node, bc *Context) (*model.Declaration, error) {
	b := NewFunctionBuilder(model.KindLambda)
	b.node = n
	b.start, b.end = spanOf(n)
	pos := bc.position(n)
	b.name = fmt.Sprintf("lambda@%d:%d", pos.Line, pos.Column)
	b.flags |= model.FlagLambda
	b.visibility = model.VisibilityNone

	decl := n.ChildByField("declarator")
	b.params = paramsFromAST(decl.ChildByField("parameters"))
	if trailing := decl.ChildOfType("trailing_return_type"); trailing != nil {
		if td := trailing.ChildOfType("type_descriptor"); td != nil {
			b.returnType = typeFromAST(nil, td, nil)
		}
	}
	m := scanModifiers(decl)
	b.flags |= m.flags &^ model.FlagVariadic
	if n.ChildByField("body") != nil {
		b.body = model.BodyRegular
	}
	b.tmpl = templateFromAST(bc, n, nil)
	return b.Create(ctx, bc)
}

// NewFunctionInstantiation builds an explicit instantiation such as
// template void f<int>(int).
func NewFunctionInstantiation(ctx context.Context, n *ast.Node, bc *Context) (*model.Declaration, error) {
	b, h := functionFromAST(bc, n, model.KindFunctionInstantiation)
	inst := h.name
	if h.qualifier != "" {
		inst = qualify(h.qualifier, h.name)
		b.qualified = qualify(qualify(bc.scopeName(), h.qualifier), h.name)
	}
	b.instantiated = inst
	return b.Create(ctx, bc)
}

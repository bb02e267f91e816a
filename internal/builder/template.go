package builder

import (
	"github.com/standardbeagle/cxxmodel/internal/ast"
	"github.com/standardbeagle/cxxmodel/internal/model"
)

// TemplateParamSpec describes one parameter of a template header.
type TemplateParamSpec struct {
	Name     string
	Kind     model.TemplateParamKind
	Default  string
	Type     *TypeBuilder // value parameters only
	Variadic bool
	Start    int
	End      int
}

// TemplateDescriptorBuilder accumulates a template header and the
// specialization arguments of the declared name.
type TemplateDescriptorBuilder struct {
	params    []TemplateParamSpec
	spec      []SpecParamBuilder
	inherited int
	header    bool
}

// NewTemplateDescriptorBuilder starts a descriptor for a declaration with a
// template header.
func NewTemplateDescriptorBuilder() *TemplateDescriptorBuilder {
	return &TemplateDescriptorBuilder{header: true}
}

func (b *TemplateDescriptorBuilder) AddParam(p TemplateParamSpec) *TemplateDescriptorBuilder {
	b.header = true
	b.params = append(b.params, p)
	return b
}

func (b *TemplateDescriptorBuilder) AddSpecParam(p SpecParamBuilder) *TemplateDescriptorBuilder {
	b.spec = append(b.spec, p)
	return b
}

// SetInherited records how many parameters enclosing templates contribute.
func (b *TemplateDescriptorBuilder) SetInherited(n int) *TemplateDescriptorBuilder {
	b.inherited = n
	return b
}

// builtTemplate is a descriptor whose parameters are registered but not yet
// published. The owner publishes or aborts them together with itself.
type builtTemplate struct {
	tmpl   *model.Template
	spec   []model.SpecParam
	own    map[string]*model.Declaration
	params []*model.Declaration
}

func (t *builtTemplate) template() *model.Template {
	if t == nil {
		return nil
	}
	return t.tmpl
}

func (t *builtTemplate) specialization() []model.SpecParam {
	if t == nil {
		return nil
	}
	return t.spec
}

func (t *builtTemplate) names() map[string]*model.Declaration {
	if t == nil {
		return nil
	}
	return t.own
}

func (t *builtTemplate) finish(bc *Context) {
	if t == nil {
		return
	}
	for _, p := range t.params {
		bc.finish(p)
	}
}

func (t *builtTemplate) abort(bc *Context) {
	if t == nil {
		return
	}
	for _, p := range t.params {
		bc.abort(p)
	}
}

// create registers every parameter with the same mode as the owner, then
// builds the descriptor over their identities.
func (b *TemplateDescriptorBuilder) create(bc *Context, owner *model.Declaration) *builtTemplate {
	if b == nil {
		return nil
	}
	s := bc.Session
	out := &builtTemplate{own: make(map[string]*model.Declaration, len(b.params))}
	uids := make([]model.UID, 0, len(b.params))
	pc := *bc
	pc.Scope = owner
	for i, spec := range b.params {
		name := s.InternName(spec.Name)
		data := &model.TemplateParamData{ParamKind: spec.Kind, Index: b.inherited + i, Default: s.InternText(spec.Default)}
		p := &model.Declaration{
			Kind:          model.KindTemplateParam,
			Name:          name,
			RawName:       name,
			QualifiedName: s.InternQualified(qualify(owner.QualifiedName, name)),
			File:          bc.File,
			Start:         spec.Start,
			End:           spec.End,
			Scope:         model.DirectRef(s.Repo, owner),
			Data:          data,
		}
		if spec.Variadic {
			p.Flags |= model.FlagVariadic
		}
		pc.begin(p)
		out.own[name] = p
		out.params = append(out.params, p)
		if spec.Type != nil {
			data.Type = spec.Type.create(&pc, p, out.own)
		}
		uids = append(uids, p.UID())
	}

	if b.spec != nil {
		out.spec = make([]model.SpecParam, 0, len(b.spec))
		for _, sp := range b.spec {
			out.spec = append(out.spec, sp.specParam(bc, owner, out.own))
		}
	}
	if !b.header && len(out.spec) == 0 {
		return out
	}
	suffix := s.InternText(model.SpecSuffix(out.spec))
	out.tmpl = model.NewTemplate(uids, suffix, b.inherited)
	return out
}

// SpecParamBuilder builds one specialization argument.
type SpecParamBuilder interface {
	specParam(bc *Context, owner *model.Declaration, own map[string]*model.Declaration) model.SpecParam
}

// TypeSpecParamBuilder is a type argument.
type TypeSpecParamBuilder struct {
	Type *TypeBuilder
}

func (b *TypeSpecParamBuilder) specParam(bc *Context, owner *model.Declaration, own map[string]*model.Declaration) model.SpecParam {
	return &model.TypeSpecParam{Type: b.Type.create(bc, owner, own)}
}

// ExprSpecParamBuilder is a constant expression argument kept as text.
type ExprSpecParamBuilder struct {
	Expr string
}

func (b *ExprSpecParamBuilder) specParam(bc *Context, _ *model.Declaration, _ map[string]*model.Declaration) model.SpecParam {
	return &model.ExprSpecParam{Expr: bc.Session.InternText(b.Expr)}
}

// VariadicSpecParamBuilder is a pack. Without nested arguments it stands
// for the literal 1.
type VariadicSpecParamBuilder struct {
	Params []SpecParamBuilder
}

func (b *VariadicSpecParamBuilder) specParam(bc *Context, owner *model.Declaration, own map[string]*model.Declaration) model.SpecParam {
	nested := b.Params
	if len(nested) == 0 {
		nested = []SpecParamBuilder{&ExprSpecParamBuilder{Expr: "1"}}
	}
	out := make([]model.SpecParam, 0, len(nested))
	for _, n := range nested {
		out = append(out, n.specParam(bc, owner, own))
	}
	return &model.VariadicSpecParam{Params: out}
}

// templateFromAST locates the template header directly enclosing n and the
// specialization arguments of its name. Headers further out belong to
// enclosing class templates and only contribute to the inherited count.
func templateFromAST(bc *Context, n *ast.Node, args *ast.Node) *TemplateDescriptorBuilder {
	var b *TemplateDescriptorBuilder
	header := n.Parent()
	if header.Is("template_declaration") {
		b = NewTemplateDescriptorBuilder()
		for _, p := range header.ChildByField("parameters").Children() {
			if spec, ok := templateParamFromAST(p); ok {
				b.params = append(b.params, spec)
			}
		}
		outer := 0
		for t := header.Parent(); t.Is("template_declaration"); t = t.Parent() {
			for _, p := range t.ChildByField("parameters").Children() {
				if _, ok := templateParamFromAST(p); ok {
					outer++
				}
			}
		}
		b.inherited = bc.tmpl.inherited() + outer
	}
	if args != nil {
		if b == nil {
			b = &TemplateDescriptorBuilder{inherited: bc.tmpl.inherited()}
		}
		b.spec = specParamsFromAST(args)
	}
	return b
}

func templateParamFromAST(p *ast.Node) (TemplateParamSpec, bool) {
	spec := TemplateParamSpec{Start: p.Start, End: p.End}
	switch p.Type {
	case "type_parameter_declaration", "variadic_type_parameter_declaration":
		spec.Kind = model.TemplateParamTypeKind
		spec.Name = ast.Render(p.ChildOfType("type_identifier"))
		spec.Variadic = p.Type == "variadic_type_parameter_declaration"
	case "optional_type_parameter_declaration":
		spec.Kind = model.TemplateParamTypeKind
		spec.Name = ast.Render(p.ChildByField("name"))
		spec.Default = ast.Render(p.ChildByField("default_type"))
	case "parameter_declaration", "optional_parameter_declaration", "variadic_parameter_declaration":
		spec.Kind = model.TemplateParamValueKind
		d := p.ChildByField("declarator")
		spec.Name = declaratorName(d).name
		spec.Type = typeFromAST(p, p.ChildByField("type"), d)
		spec.Default = ast.Render(p.ChildByField("default_value"))
		spec.Variadic = p.Type == "variadic_parameter_declaration"
	case "template_template_parameter_declaration":
		spec.Kind = model.TemplateParamTemplateKind
		for _, c := range p.Children() {
			if c.Is("type_parameter_declaration", "variadic_type_parameter_declaration", "optional_type_parameter_declaration") {
				inner, _ := templateParamFromAST(c)
				spec.Name, spec.Default, spec.Variadic = inner.Name, inner.Default, inner.Variadic
			}
		}
	default:
		return spec, false
	}
	return spec, true
}

// specParamsFromAST converts a template_argument_list. The result is non-nil
// even for an empty "<>" list.
func specParamsFromAST(args *ast.Node) []SpecParamBuilder {
	out := []SpecParamBuilder{}
	for _, a := range args.Children() {
		if !a.Named {
			continue
		}
		out = append(out, specParamFromAST(a))
	}
	return out
}

func specParamFromAST(a *ast.Node) SpecParamBuilder {
	switch a.Type {
	case "type_descriptor":
		return &TypeSpecParamBuilder{Type: typeFromAST(nil, a, nil)}
	case "parameter_pack_expansion":
		pattern := a.ChildByField("pattern")
		if pattern == nil {
			return &VariadicSpecParamBuilder{}
		}
		return &VariadicSpecParamBuilder{Params: []SpecParamBuilder{specParamFromAST(pattern)}}
	}
	return &ExprSpecParamBuilder{Expr: ast.Render(a)}
}

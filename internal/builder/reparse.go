package builder

import (
	"context"
	"strings"

	cxerrors "github.com/standardbeagle/cxxmodel/internal/errors"
	"github.com/standardbeagle/cxxmodel/internal/model"
)

// Creator materializes one declaration. Every incremental builder is a
// Creator.
type Creator interface {
	Create(ctx context.Context, bc *Context) (*model.Declaration, error)
}

// Remap maps the identity of a declaration from before a reparse to its
// rebuilt replacement, or nil when it was not rebuilt.
type Remap func(model.UID) *model.Declaration

// FromDeclaration captures d as a pre-filled builder so the declaration can
// be rebuilt without a syntax tree. The context passed to Create must carry
// the rebuilt scope of d. Template parameters and built-ins report false:
// the former are rebuilt by their owner's template descriptor.
func FromDeclaration(ctx context.Context, s *model.Session, d *model.Declaration, remap Remap) (Creator, bool) {
	if d == nil {
		return nil, false
	}
	switch {
	case d.Kind == model.KindTemplateParam, d.Kind == model.KindBuiltin:
		return nil, false
	case d.Kind.IsFunction():
		b := captureFunction(ctx, s, d)
		if f := d.Function(); f != nil && f.FriendClass != nil && remap != nil {
			return &friendRebind{FunctionBuilder: b, class: f.FriendClass.UID(), remap: remap}, true
		}
		return b, true
	}
	switch data := d.Data.(type) {
	case *model.FieldData:
		b := NewFieldBuilder(model.KindField)
		b.name, b.flags, b.visibility = d.Name, d.Flags, d.Visibility
		b.start, b.end = d.Start, d.End
		b.typ = captureType(data.Type)
		b.bitWidth, b.init = data.BitWidth, data.Default
		return b, true
	case *model.VariableData:
		b := NewFieldBuilder(model.KindVariable)
		b.name, b.flags, b.visibility = d.Name, d.Flags, d.Visibility
		b.start, b.end = d.Start, d.End
		b.typ = captureType(data.Type)
		b.init = data.Init
		b.tmpl = captureTemplate(ctx, s, data.Template, data.Specialization)
		return b, true
	case *model.MacroData:
		b := NewMacroBuilder()
		b.name, b.body, b.kind = d.Name, data.Body, data.Kind
		b.start, b.end = d.Start, d.End
		if data.Params != nil {
			b.SetParams(data.Params...)
		}
		return b, true
	case *model.TypeAliasData:
		b := NewTypeAliasBuilder()
		b.name = d.Name
		b.start, b.end = d.Start, d.End
		b.typ = captureType(data.Type)
		b.tmpl = captureTemplate(ctx, s, data.Template, nil)
		return b, true
	case *model.ForwardClassData:
		b := NewForwardClassBuilder(data.Keyword)
		b.name = d.Name
		b.start, b.end = d.Start, d.End
		return b, true
	}
	c := &declCreator{proto: *d}
	c.proto.SetUID(model.NoUID)
	if cd, ok := d.Data.(*model.ClassData); ok {
		c.tmpl = captureTemplate(ctx, s, cd.Template, cd.Specialization)
	}
	return c, true
}

func captureFunction(ctx context.Context, s *model.Session, d *model.Declaration) *FunctionBuilder {
	f := d.Function()
	b := NewFunctionBuilder(d.Kind)
	b.name, b.qualified = d.Name, d.QualifiedName
	b.flags, b.visibility = d.Flags, d.Visibility
	b.start, b.end = d.Start, d.End
	b.params = NewParameterListBuilder()
	if f == nil {
		return b
	}
	b.body, b.ref = f.Body, f.RefQualifier
	b.instantiated = f.InstantiatedName
	if d.Kind != model.KindConstructor && d.Kind != model.KindDestructor {
		b.returnType = captureType(f.ReturnType)
	}
	for _, p := range f.Params.All() {
		pb := NewParameterBuilder(p.Name, captureType(p.Type))
		pb.def, pb.variadic = p.Default, p.Variadic
		pb.start, pb.end = p.Start, p.End
		b.params.Add(pb)
	}
	if len(f.Initializers) > 0 {
		b.inits = NewInitializerListBuilder()
		for _, in := range f.Initializers {
			b.inits.Add(in.Name, in.Args, in.Start, in.End)
		}
	}
	if f.FriendClass != nil {
		b.friendClass = f.FriendClass.Get(ctx)
	}
	b.tmpl = captureTemplate(ctx, s, f.Template, f.Specialization)
	return b
}

// friendRebind points a captured friend function at the rebuilt befriending
// class, which may be created after the capture is taken.
type friendRebind struct {
	*FunctionBuilder
	class model.UID
	remap Remap
}

func (c *friendRebind) Create(ctx context.Context, bc *Context) (*model.Declaration, error) {
	if d := c.remap(c.class); d != nil && !c.consumed {
		c.friendClass = d
	}
	return c.FunctionBuilder.Create(ctx, bc)
}

// captureType turns a built type back into a builder. Template parameter
// uses are captured by name and rebind to the rebuilt parameters.
func captureType(t model.Type) *TypeBuilder {
	switch t := t.(type) {
	case nil:
		return nil
	case *model.SimpleType:
		return &TypeBuilder{name: t.Name, quals: t.Qualifiers}
	case *model.TemplateParamType:
		return &TypeBuilder{name: t.Name, quals: t.Qualifiers}
	case *model.DecltypeType:
		b := &TypeBuilder{quals: t.Qualifiers}
		return b.SetDecltype(undecorate(t.Spelling, t.Qualifiers), t.Expr)
	}
	if t == model.NoType {
		return nil
	}
	return NewTypeBuilder(t.Text())
}

// undecorate strips the qualifiers that type construction adds around a
// spelling.
func undecorate(spelling string, q model.Qualifiers) string {
	switch q.Reference {
	case model.RefLValue:
		spelling = strings.TrimSuffix(spelling, "&")
	case model.RefRValue:
		spelling = strings.TrimSuffix(spelling, "&&")
	}
	for i := 0; i < q.Pointer; i++ {
		spelling = strings.TrimSuffix(spelling, "*")
	}
	if q.Const {
		spelling = strings.TrimPrefix(spelling, "const ")
	}
	return spelling
}

func captureTemplate(ctx context.Context, s *model.Session, t *model.Template, spec []model.SpecParam) *TemplateDescriptorBuilder {
	if t == nil {
		return nil
	}
	b := NewTemplateDescriptorBuilder().SetInherited(t.Inherited)
	for _, p := range t.Params {
		// captures are taken before the old declarations are removed
		d := s.Repo.Resolve(ctx, p)
		if d == nil {
			continue
		}
		data, _ := d.Data.(*model.TemplateParamData)
		ps := TemplateParamSpec{Name: d.Name, Variadic: d.Flags.Has(model.FlagVariadic), Start: d.Start, End: d.End}
		if data != nil {
			ps.Kind, ps.Default = data.ParamKind, data.Default
			ps.Type = captureType(data.Type)
		}
		b.params = append(b.params, ps)
	}
	if spec != nil {
		b.spec = make([]SpecParamBuilder, 0, len(spec))
		for _, sp := range spec {
			b.spec = append(b.spec, captureSpec(sp))
		}
	}
	return b
}

func captureSpec(sp model.SpecParam) SpecParamBuilder {
	switch sp := sp.(type) {
	case *model.TypeSpecParam:
		return &TypeSpecParamBuilder{Type: captureType(sp.Type)}
	case *model.VariadicSpecParam:
		v := &VariadicSpecParamBuilder{}
		for _, n := range sp.Params {
			v.Params = append(v.Params, captureSpec(n))
		}
		return v
	}
	return &ExprSpecParamBuilder{Expr: sp.Text()}
}

// declCreator rebuilds the kinds without an incremental builder of their
// own: classes, enums, enumerators, namespaces and includes.
type declCreator struct {
	proto    model.Declaration
	tmpl     *TemplateDescriptorBuilder
	consumed bool
}

func (c *declCreator) Create(ctx context.Context, bc *Context) (*model.Declaration, error) {
	if c.consumed {
		return nil, cxerrors.NewBuildError("DeclarationBuilder", "", cxerrors.ErrBuilderConsumed)
	}
	c.consumed = true
	d := c.proto
	d.File = bc.File
	d.Scope = bc.scopeRef(nil)
	switch data := c.proto.Data.(type) {
	case *model.ClassData:
		cp := &model.ClassData{Bases: data.Bases}
		d.Data = cp
		bc.begin(&d)
		bt := c.tmpl.create(bc, &d)
		cp.Template, cp.Specialization = bt.template(), bt.specialization()
		bt.finish(bc)
		bc.finish(&d)
		return &d, nil
	case *model.EnumData:
		cp := *data
		d.Data = &cp
	case *model.EnumeratorData:
		cp := *data
		d.Data = &cp
	case *model.NamespaceData:
		cp := *data
		d.Data = &cp
	case *model.IncludeData:
		cp := *data
		if bc.Includes != nil {
			cp.Target = bc.Includes(cp.Path, cp.System)
		}
		d.Data = &cp
	}
	bc.begin(&d)
	bc.finish(&d)
	return &d, nil
}

package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/cxxmodel/internal/model"
)

func templateParams(t *testing.T, f *fixture, d *model.Declaration) []*model.Declaration {
	t.Helper()
	tmpl := d.Template()
	require.NotNil(t, tmpl, "%s has no template", d.QualifiedName)
	out := make([]*model.Declaration, 0, len(tmpl.Params))
	for _, u := range tmpl.Params {
		p := f.s.Repo.Resolve(ctxBG, u)
		require.NotNil(t, p, "unresolved parameter %s", u)
		out = append(out, p)
	}
	return out
}

func TestClassTemplate_Params(t *testing.T) {
	f := newFixture(t)
	decls := f.walk(t, "template<typename T, int N = 3> class Arr {\n  T data;\n};\n")

	arr := find(t, decls, model.KindClass, "Arr")
	assert.False(t, arr.Flags.Has(model.FlagSpecialization))
	assert.Empty(t, arr.Template().Suffix)
	assert.Zero(t, arr.Template().Inherited)

	params := templateParams(t, f, arr)
	require.Len(t, params, 2)

	T, N := params[0], params[1]
	assert.Equal(t, model.KindTemplateParam, T.Kind)
	assert.Equal(t, "Arr::T", T.QualifiedName)
	assert.Same(t, arr, T.ScopeDecl(ctxBG))
	tdata := T.Data.(*model.TemplateParamData)
	assert.Equal(t, model.TemplateParamTypeKind, tdata.ParamKind)
	assert.Equal(t, 0, tdata.Index)

	ndata := N.Data.(*model.TemplateParamData)
	assert.Equal(t, "N", N.Name)
	assert.Equal(t, model.TemplateParamValueKind, ndata.ParamKind)
	assert.Equal(t, 1, ndata.Index)
	assert.Equal(t, "3", ndata.Default)
	assert.Equal(t, "int", ndata.Type.Text())

	field := find(t, decls, model.KindField, "Arr::data")
	pt, ok := field.DeclaredType().(*model.TemplateParamType)
	require.True(t, ok, "field type %T", field.DeclaredType())
	assert.Equal(t, T.UID(), pt.Param)
	assert.Equal(t, "T", pt.Text())

	for _, p := range params {
		assert.NotEmpty(t, f.reg.FindDeclarations(ctxBG, p.QualifiedName))
	}
}

func TestClassTemplate_Specializations(t *testing.T) {
	f := newFixture(t)
	decls := f.walk(t, `template<typename T, int N> class Arr {};
template<> class Arr<int, 4> {};
template<typename T> class Arr<T*, 1> {};
`)

	primary := find(t, decls, model.KindClass, "Arr")
	assert.Len(t, primary.Template().Params, 2)

	explicit := find(t, decls, model.KindClass, "Arr<int, 4>")
	assert.Equal(t, "Arr", explicit.Name)
	assert.Equal(t, "Arr<int, 4>", explicit.RawName)
	assert.True(t, explicit.Flags.Has(model.FlagSpecialization))
	assert.True(t, explicit.Template().Specialization)
	assert.Empty(t, explicit.Template().Params)
	spec := explicit.SpecParams()
	require.Len(t, spec, 2)
	assert.IsType(t, &model.TypeSpecParam{}, spec[0])
	assert.IsType(t, &model.ExprSpecParam{}, spec[1])

	partial := find(t, decls, model.KindClass, "Arr<T*, 1>")
	params := templateParams(t, f, partial)
	require.Len(t, params, 1)
	ts, ok := partial.SpecParams()[0].(*model.TypeSpecParam)
	require.True(t, ok)
	pt, ok := ts.Type.(*model.TemplateParamType)
	require.True(t, ok, "spec type %T", ts.Type)
	assert.Equal(t, params[0].UID(), pt.Param)
	assert.Equal(t, 1, pt.Pointer)
}

func TestTemplate_InheritedCounts(t *testing.T) {
	f := newFixture(t)
	decls := f.walk(t, `template<typename T> struct Outer {
  template<typename U> void f(U u);
  struct Inner {
    template<typename V, typename W> void g();
  };
};
`)

	outer := find(t, decls, model.KindStruct, "Outer")
	assert.Equal(t, 1, outer.Template().TotalParams())

	fn := find(t, decls, model.KindMethod, "Outer::f")
	assert.Equal(t, 1, fn.Template().Inherited)
	assert.Equal(t, 2, fn.Template().TotalParams())
	u := templateParams(t, f, fn)[0]
	assert.Equal(t, 1, u.Data.(*model.TemplateParamData).Index)
	pt, ok := fn.Parameters().At(0).Type.(*model.TemplateParamType)
	require.True(t, ok)
	assert.Equal(t, u.UID(), pt.Param)

	g := find(t, decls, model.KindMethod, "Outer::Inner::g")
	assert.Equal(t, 1, g.Template().Inherited)
	assert.Equal(t, 3, g.Template().TotalParams())
	w := templateParams(t, f, g)[1]
	assert.Equal(t, 2, w.Data.(*model.TemplateParamData).Index)
}

func TestTemplate_VariadicPack(t *testing.T) {
	f := newFixture(t)
	decls := f.walk(t, "template<typename... Ts> struct V {};\n")

	ts := templateParams(t, f, find(t, decls, model.KindStruct, "V"))[0]
	assert.Equal(t, "Ts", ts.Name)
	assert.True(t, ts.Flags.Has(model.FlagVariadic))

	d, err := NewFieldBuilder(model.KindVariable).SetName("v").
		SetTemplate(NewTemplateDescriptorBuilder().AddSpecParam(&VariadicSpecParamBuilder{})).
		Create(ctxBG, f.context(true))
	require.NoError(t, err)
	assert.Equal(t, "<1>", d.Template().Suffix)
	assert.True(t, d.Flags.Has(model.FlagSpecialization))
	pack, ok := d.SpecParams()[0].(*model.VariadicSpecParam)
	require.True(t, ok)
	require.Len(t, pack.Params, 1)
	assert.Equal(t, "1", pack.Params[0].Text())
}

func TestTemplate_ManualBuilder(t *testing.T) {
	f := newFixture(t)
	tb := NewTemplateDescriptorBuilder().
		AddParam(TemplateParamSpec{Name: "T", Kind: model.TemplateParamTypeKind}).
		AddParam(TemplateParamSpec{Name: "N", Kind: model.TemplateParamValueKind, Type: NewTypeBuilder("T").SetConst(), Default: "0"})

	d, err := NewFieldBuilder(model.KindVariable).SetName("zero").
		SetType(NewTypeBuilder("T").SetConst()).
		SetTemplate(tb).
		Create(ctxBG, f.context(true))
	require.NoError(t, err)

	params := templateParams(t, f, d)
	require.Len(t, params, 2)
	assert.Equal(t, "zero::T", params[0].QualifiedName)

	vt, ok := d.DeclaredType().(*model.TemplateParamType)
	require.True(t, ok)
	assert.Equal(t, params[0].UID(), vt.Param)
	assert.Equal(t, "const T", vt.Text())

	nt, ok := params[1].Data.(*model.TemplateParamData).Type.(*model.TemplateParamType)
	require.True(t, ok)
	assert.Equal(t, params[0].UID(), nt.Param)
	assert.Equal(t, 3, f.reg.count())
}

func TestTemplate_LocalMode(t *testing.T) {
	f := newFixture(t)
	d, err := NewFunctionBuilder(model.KindFunction).SetName("f").
		SetParameters(NewParameterListBuilder().Add(NewParameterBuilder("t", NewTypeBuilder("T")))).
		SetTemplate(NewTemplateDescriptorBuilder().AddParam(TemplateParamSpec{Name: "T"})).
		Create(ctxBG, f.context(false))
	require.NoError(t, err)

	require.Len(t, d.Template().Params, 1)
	u := d.Template().Params[0]
	assert.Equal(t, model.UIDSelf, u.Kind)
	p := f.s.Repo.Resolve(ctxBG, u)
	require.NotNil(t, p)
	assert.Equal(t, "T", p.Name)

	pt, ok := d.Parameters().At(0).Type.(*model.TemplateParamType)
	require.True(t, ok)
	assert.Equal(t, u, pt.Param)
	assert.Zero(t, f.s.Repo.Stats().Live)
	assert.Zero(t, f.reg.count())
}

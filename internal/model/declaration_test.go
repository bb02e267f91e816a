package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cxerrors "github.com/standardbeagle/cxxmodel/internal/errors"
)

func TestDeclaration_ConstructorsHaveNoReturnType(t *testing.T) {
	f := newFixture(t, Options{})
	for _, k := range []Kind{KindConstructor, KindDestructor} {
		d := &Declaration{Kind: k, Name: "X", Data: &FunctionData{ReturnType: f.s.BuiltinType("int")}}
		rt := d.ReturnType()
		require.NotNil(t, rt, k.String())
		assert.Equal(t, NoType, rt)
		assert.Empty(t, rt.Text())
		assert.False(t, rt.IsPointer(ctxBG))
		assert.Nil(t, rt.Classifier(ctxBG))
	}

	fn := &Declaration{Kind: KindFunction, Name: "f", Data: &FunctionData{ReturnType: f.s.BuiltinType("int")}}
	assert.Equal(t, "int", fn.ReturnType().Text())
}

func TestDeclaration_Parameters(t *testing.T) {
	fn := &Declaration{Kind: KindFunction, Name: "f", Data: &FunctionData{}}
	assert.Same(t, EmptyParameters, fn.Parameters())
	assert.Equal(t, 0, fn.Parameters().Len())

	v := &Declaration{Kind: KindVariable, Name: "v", Data: &VariableData{}}
	assert.Nil(t, v.Parameters())

	list := NewParameterList([]Parameter{{Name: "a"}, {Name: "rest", Variadic: true}})
	assert.Equal(t, 2, list.Len())
	assert.True(t, list.IsVariadic())
	p, ok := list.Lookup("rest")
	assert.True(t, ok)
	assert.True(t, p.Variadic)
	_, ok = list.Lookup("missing")
	assert.False(t, ok)
	assert.Same(t, EmptyParameters, NewParameterList(nil))
}

func TestDeclaration_InitializerListOnlyOnConstructors(t *testing.T) {
	inits := []Initializer{{Name: "a_", Args: "(1)"}}
	ctor := &Declaration{Kind: KindConstructor, Name: "C", Data: &FunctionData{Initializers: inits}}
	method := &Declaration{Kind: KindMethod, Name: "m", Data: &FunctionData{Initializers: inits}}

	assert.Equal(t, inits, ctor.InitializerList())
	assert.Nil(t, method.InitializerList())
}

func TestDeclaration_MacroParameterListIsNotImplemented(t *testing.T) {
	d := &Declaration{Kind: KindMacro, Name: "M", Data: &MacroData{Params: []string{"x"}}}
	list, err := d.MacroParameterList()
	assert.Nil(t, list)
	assert.ErrorIs(t, err, cxerrors.ErrNotImplemented)
}

func TestDeclaration_TemplateAccessors(t *testing.T) {
	params := []UID{{Kind: UIDDecl, File: 1, Local: 4}}
	tmpl := NewTemplate(params, "<T*>", 1)
	assert.True(t, tmpl.Specialization)
	assert.Equal(t, 2, tmpl.TotalParams())
	assert.False(t, NewTemplate(params, "", 0).Specialization)

	spec := []SpecParam{
		&ExprSpecParam{Expr: "3"},
		&VariadicSpecParam{Params: []SpecParam{&ExprSpecParam{Expr: "1"}, &ExprSpecParam{Expr: "2"}}},
	}
	cls := &Declaration{Kind: KindClass, Name: "A", Data: &ClassData{Template: tmpl, Specialization: spec}}
	assert.Equal(t, params, cls.TemplateParams())
	assert.Equal(t, spec, cls.SpecParams())
	assert.Equal(t, "<3, 12>", SpecSuffix(spec))

	plain := &Declaration{Kind: KindEnum, Name: "E", Data: &EnumData{}}
	assert.Nil(t, plain.Template())
	assert.Nil(t, plain.TemplateParams())
}

func TestEqual(t *testing.T) {
	a := &Declaration{Kind: KindMacro, Name: "M", Start: 1}
	b := &Declaration{Kind: KindMacro, Name: "M", Start: 50}
	assert.True(t, Equal(a, b))

	i1 := &Declaration{Kind: KindInclude, Name: "x.h", Start: 3, Data: &IncludeData{Path: "x.h"}}
	i2 := &Declaration{Kind: KindInclude, Name: "x.h", Start: 3, Data: &IncludeData{Path: "x.h", System: true}}
	assert.False(t, Equal(i1, i2))

	d1 := &Declaration{Kind: KindVariable, QualifiedName: "ns::v", File: 1, Start: 4, End: 9}
	d2 := &Declaration{Kind: KindVariable, QualifiedName: "ns::v", File: 1, Start: 4, End: 9}
	assert.True(t, Equal(d1, d2))
	d1.SetUID(UID{Kind: UIDDecl, File: 1, Local: 1})
	d2.SetUID(UID{Kind: UIDDecl, File: 1, Local: 2})
	assert.False(t, Equal(d1, d2))

	assert.False(t, Equal(d1, nil))
	assert.True(t, Equal(nil, nil))
}

func TestRef_Snapshot(t *testing.T) {
	f := newFixture(t, Options{})
	target := f.variable("t", nil)
	ref := DirectRef(f.s.Repo, target)
	require.True(t, ref.IsDirect())

	ref.Snapshot()
	assert.False(t, ref.IsDirect())
	assert.Equal(t, target.UID(), ref.UID())
	assert.Same(t, target, ref.Get(ctxBG))

	unregistered := DirectRef(f.s.Repo, &Declaration{Kind: KindVariable, Name: "x"})
	unregistered.Snapshot()
	assert.True(t, unregistered.IsDirect(), "targets without identity keep the pointer")

	var nilRef *Ref
	assert.Nil(t, nilRef.Get(ctxBG))
	assert.True(t, nilRef.UID().IsZero())
	assert.Nil(t, DirectRef(f.s.Repo, nil))
	assert.Nil(t, TokenRef(f.s.Repo, NoUID))
}

func TestUID_TextForm(t *testing.T) {
	cases := []UID{
		{Kind: UIDDecl, File: 12, Local: 345},
		BuiltinUID("unsigned int"),
		UnresolvedUID("Foo<int>"),
		UserMacroUID(3, "NDEBUG"),
		GlobalUID(),
	}
	for _, u := range cases {
		t.Run(u.String(), func(t *testing.T) {
			got, err := ParseUID(u.Key())
			require.NoError(t, err)
			assert.Equal(t, u, got)
		})
	}

	d := &Declaration{Kind: KindVariable, Name: "local", File: 1}
	_, err := ParseUID(SelfUID(d).Key())
	assert.Error(t, err)
	assert.Equal(t, "<none>", NoUID.String())
}

func TestBuiltins(t *testing.T) {
	f := newFixture(t, Options{})
	b := f.s.Builtins

	assert.Same(t, b.Get("unsigned"), b.Get("unsigned int"))
	assert.Same(t, b.Get("long  int"), b.Get("long"))
	assert.Equal(t, "std::nullptr_t", b.Get("nullptr_t").Name)
	assert.True(t, IsBuiltinName("unsigned long long int"))
	assert.False(t, IsBuiltinName("std::string"))

	unk := b.Unknown("Mystery")
	assert.NotSame(t, unk, b.Get("Mystery"))
	assert.Equal(t, UIDUnresolved, unk.UID().Kind)
	assert.Equal(t, UIDBuiltin, b.Get("int").UID().Kind)
}

func TestSession_GlobalNamespace(t *testing.T) {
	f := newFixture(t, Options{})
	g := f.s.Global()
	assert.Equal(t, KindNamespace, g.Kind)
	assert.Equal(t, "::", g.Name)
	assert.Empty(t, g.QualifiedName)
	assert.Equal(t, UIDGlobal, g.UID().Kind)
}

func TestSession_Independent(t *testing.T) {
	a := newFixture(t, Options{})
	b := newFixture(t, Options{})
	da := a.variable("v", nil)
	db := b.variable("v", nil)

	assert.Equal(t, da.UID(), db.UID(), "identities are session scoped")
	assert.Same(t, da, a.s.Repo.Resolve(ctxBG, da.UID()))
	assert.Same(t, db, b.s.Repo.Resolve(ctxBG, db.UID()))
}

func TestFlags_Names(t *testing.T) {
	assert.Nil(t, Flags(0).Names())
	assert.Equal(t, []string{"friend", "const", "system"}, (FlagSystem | FlagFriend | FlagConst).Names())
	assert.Equal(t, []string{"specialization"}, FlagSpecialization.Names())
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTripEveryKind(t *testing.T) {
	f := newFixture(t, Options{})
	s := f.s

	cls := f.add(&Declaration{Kind: KindClass, Name: "Widget", Flags: FlagDefinition, Start: 10, End: 90,
		Data: &ClassData{Bases: []string{"Base"}}})
	tparam := f.add(&Declaration{Kind: KindTemplateParam, Name: "T",
		Data: &TemplateParamData{ParamKind: TemplateParamTypeKind, Index: 0, Default: "int"}})
	intType := s.BuiltinType("int")
	strRef := s.NewSimpleType("std::string", Qualifiers{Const: true, Reference: RefLValue}, cls.UID())

	decls := []*Declaration{
		cls,
		tparam,
		{Kind: KindNamespace, Name: "ns", Data: &NamespaceData{Inline: true}},
		{Kind: KindStruct, Name: "Pair", Data: &ClassData{
			Template:       NewTemplate([]UID{tparam.UID()}, "<int>", 0),
			Specialization: []SpecParam{&TypeSpecParam{Type: intType}},
		}},
		{Kind: KindUnion, Name: "U", Data: &ClassData{}},
		{Kind: KindEnum, Name: "Color", Data: &EnumData{Scoped: true, Underlying: "uint8_t"}},
		{Kind: KindEnumerator, Name: "Red", Data: &EnumeratorData{Value: "1"}},
		{Kind: KindFunction, Name: "parse", Flags: FlagDefinition | FlagInline, Data: &FunctionData{
			Params: NewParameterList([]Parameter{
				{Name: "text", Type: strRef, Start: 20, End: 40},
				{Name: "rest", Variadic: true},
			}),
			ReturnType: s.NewSimpleType("bool", Qualifiers{}, NoUID),
			Body:       BodyRegular,
		}},
		{Kind: KindMethod, Name: "size", Flags: FlagConst | FlagVirtual, Visibility: VisibilityPublic, Data: &FunctionData{
			ReturnType:   s.BuiltinType("size_t"),
			RefQualifier: RefLValue,
		}},
		{Kind: KindConstructor, Name: "Widget", Data: &FunctionData{
			Initializers: []Initializer{{Name: "count_", Args: "(0)", Start: 5, End: 14}},
			Body:         BodyRegular,
		}},
		{Kind: KindDestructor, Name: "~Widget", Flags: FlagDefaultedOrDeleted, Data: &FunctionData{Body: BodyDelete}},
		{Kind: KindFriendFunction, Name: "swap", Flags: FlagFriend, Data: &FunctionData{FriendClass: DirectRef(s.Repo, cls)}},
		{Kind: KindLambda, Name: "lambda", Flags: FlagLambda, Data: &FunctionData{}},
		{Kind: KindFunctionInstantiation, Name: "max", Data: &FunctionData{
			InstantiatedName: "max<int>",
			Specialization:   []SpecParam{&VariadicSpecParam{Params: []SpecParam{&ExprSpecParam{Expr: "1"}}}},
		}},
		{Kind: KindField, Name: "count_", Visibility: VisibilityPrivate, Data: &FieldData{Type: intType, BitWidth: "4", Default: "0"}},
		{Kind: KindVariable, Name: "limit", Flags: FlagStatic, Data: &VariableData{
			Type: s.NewDecltypeType("decltype(x.y)", &MemberExpr{Base: &IdentExpr{Name: "x"}, Name: "y"}, cls, Qualifiers{Const: true}),
			Init: "= 3",
		}},
		{Kind: KindTypeAlias, Name: "Ptr", Data: &TypeAliasData{
			Type:     s.NewTemplateParamType(tparam, Qualifiers{Pointer: 1}),
			Template: NewTemplate([]UID{tparam.UID()}, "", 1),
		}},
		{Kind: KindMacro, Name: "MAX", Data: &MacroData{Body: "((a)>(b)?(a):(b))", Params: []string{"a", "b"}, Kind: MacroFile}},
		{Kind: KindInclude, Name: "vector", Data: &IncludeData{Path: "vector", System: true, Target: 7}},
		{Kind: KindForwardClass, Name: "Later", Data: &ForwardClassData{Keyword: "class"}},
		{Kind: KindVariable, Name: "nopayload"},
	}

	for _, d := range decls {
		if d.UID().IsZero() {
			f.add(d)
		}
		t.Run(d.Kind.String()+"/"+d.Name, func(t *testing.T) {
			first := Encode(d)
			got, err := Decode(first, s)
			require.NoError(t, err)

			assert.Equal(t, d.Kind, got.Kind)
			assert.Equal(t, d.Flags, got.Flags)
			assert.Equal(t, d.UID(), got.UID())
			assert.Equal(t, d.Name, got.Name)
			assert.Equal(t, d.QualifiedName, got.QualifiedName)
			assert.Equal(t, d.Start, got.Start)
			assert.Equal(t, d.End, got.End)
			assert.Equal(t, d.Visibility, got.Visibility)
			assert.Equal(t, d.Scope.UID(), got.Scope.UID())
			assert.True(t, Equal(d, got))

			assert.Equal(t, first, Encode(got), "re-encoding must be stable")
		})
	}
}

func TestCodec_FunctionDetails(t *testing.T) {
	f := newFixture(t, Options{})
	s := f.s
	fn := f.add(&Declaration{Kind: KindFunction, Name: "parse", Data: &FunctionData{
		Params: NewParameterList([]Parameter{
			{Name: "text", Type: s.NewSimpleType("std::string", Qualifiers{Const: true, Reference: RefLValue}, NoUID)},
		}),
		ReturnType: s.BuiltinType("bool"),
	}})

	got, err := Decode(Encode(fn), s)
	require.NoError(t, err)

	require.Equal(t, 1, got.Parameters().Len())
	p := got.Parameters().At(0)
	assert.Equal(t, "text", p.Name)
	assert.Equal(t, "const std::string&", p.Type.Text())
	assert.True(t, p.Type.IsConst(ctxBG))
	assert.True(t, p.Type.IsReference(ctxBG))
	assert.Equal(t, "bool", got.ReturnType().Text())
	assert.Equal(t, "bool", got.ReturnType().Classifier(ctxBG).Name)
}

func TestCodec_MacroParamsNilVersusEmpty(t *testing.T) {
	f := newFixture(t, Options{})
	objectLike := f.add(&Declaration{Kind: KindMacro, Name: "DEBUG", Data: &MacroData{Body: "1"}})
	noParams := f.add(&Declaration{Kind: KindMacro, Name: "NOW", Data: &MacroData{Body: "now()", Params: []string{}}})

	got, err := Decode(Encode(objectLike), f.s)
	require.NoError(t, err)
	assert.Nil(t, got.Macro().Params)
	assert.Equal(t, "1", got.Macro().Body)

	got, err = Decode(Encode(noParams), f.s)
	require.NoError(t, err)
	assert.NotNil(t, got.Macro().Params)
	assert.Empty(t, got.Macro().Params)
}

func TestCodec_SelfIdentity(t *testing.T) {
	f := newFixture(t, Options{})
	d := &Declaration{Kind: KindVariable, Name: "local", File: testFile, Data: &VariableData{}}
	d.SetUID(SelfUID(d))

	got, err := Decode(Encode(d), f.s)
	require.NoError(t, err)
	require.Equal(t, UIDSelf, got.UID().Kind)
	assert.Same(t, got, f.s.Repo.Resolve(ctxBG, got.UID()))
}

func TestCodec_CorruptRecords(t *testing.T) {
	f := newFixture(t, Options{})
	d := f.variable("v", f.s.BuiltinType("int"))
	data := Encode(d)

	_, err := Decode(data[:len(data)/2], f.s)
	assert.Error(t, err)

	_, err = Decode(nil, f.s)
	assert.Error(t, err)

	bad := append([]byte{recordVersion + 1}, data[1:]...)
	_, err = Decode(bad, f.s)
	assert.ErrorContains(t, err, "unsupported record version")
}

func TestCodec_InternsNames(t *testing.T) {
	f := newFixture(t, Options{})
	d := f.variable("shared_name", f.s.BuiltinType("int"))

	a, err := Decode(Encode(d), f.s)
	require.NoError(t, err)
	b, err := Decode(Encode(d), f.s)
	require.NoError(t, err)
	assert.Equal(t, a.Name, b.Name)
	assert.Same(t, unsafeStringData(a.Name), unsafeStringData(b.Name))
}

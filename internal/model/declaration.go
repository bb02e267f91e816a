package model

import (
	"context"

	cxerrors "github.com/standardbeagle/cxxmodel/internal/errors"
	"github.com/standardbeagle/cxxmodel/internal/types"
)

// Declaration is any named or structural program entity. It is immutable
// once its builder returns, apart from Ref snapshots taken at disposal.
type Declaration struct {
	Kind          Kind
	Flags         Flags
	Name          string
	RawName       string // nested-name form with dots, e.g. A.B.f
	QualifiedName string
	File          types.FileID
	Start         int
	End           int
	Scope         *Ref
	Visibility    Visibility
	Data          Payload

	uid UID
}

// UID returns the identity assigned at registration, or NoUID.
func (d *Declaration) UID() UID {
	if d == nil {
		return NoUID
	}
	return d.uid
}

// SetUID is used by the repository and by local-mode builders.
func (d *Declaration) SetUID(u UID) {
	d.uid = u
}

func (d *Declaration) Span() types.Span {
	return types.Span{Start: d.Start, End: d.End}
}

// ScopeDecl resolves the enclosing scope.
func (d *Declaration) ScopeDecl(ctx context.Context) *Declaration {
	if d == nil {
		return nil
	}
	return d.Scope.Get(ctx)
}

// Function returns the function payload, or nil for other kinds.
func (d *Declaration) Function() *FunctionData {
	f, _ := d.Data.(*FunctionData)
	return f
}

// ReturnType reports the return type of a function. Constructors and
// destructors always report NoType.
func (d *Declaration) ReturnType() Type {
	if d.Kind == KindConstructor || d.Kind == KindDestructor {
		return NoType
	}
	if f := d.Function(); f != nil {
		return f.ReturnType
	}
	return nil
}

// Parameters returns the parameter list of a function, EmptyParameters for
// functions without parameters, and nil for other kinds.
func (d *Declaration) Parameters() *ParameterList {
	if f := d.Function(); f != nil {
		if f.Params == nil {
			return EmptyParameters
		}
		return f.Params
	}
	return nil
}

// InitializerList is only present on constructors.
func (d *Declaration) InitializerList() []Initializer {
	if f := d.Function(); f != nil && d.Kind == KindConstructor {
		return f.Initializers
	}
	return nil
}

// Template returns the template descriptor of a templated declaration.
func (d *Declaration) Template() *Template {
	switch p := d.Data.(type) {
	case *FunctionData:
		return p.Template
	case *ClassData:
		return p.Template
	case *VariableData:
		return p.Template
	case *TypeAliasData:
		return p.Template
	}
	return nil
}

// TemplateParams returns the parameter tokens of the template descriptor.
func (d *Declaration) TemplateParams() []UID {
	if t := d.Template(); t != nil {
		return t.Params
	}
	return nil
}

// SpecParams returns the specialization arguments, if any.
func (d *Declaration) SpecParams() []SpecParam {
	switch p := d.Data.(type) {
	case *FunctionData:
		return p.Specialization
	case *ClassData:
		return p.Specialization
	case *VariableData:
		return p.Specialization
	}
	return nil
}

// DeclaredType is the type of a variable, field, alias or value template
// parameter, or the return type of a function.
func (d *Declaration) DeclaredType() Type {
	switch p := d.Data.(type) {
	case *FieldData:
		return p.Type
	case *VariableData:
		return p.Type
	case *TypeAliasData:
		return p.Type
	case *TemplateParamData:
		return p.Type
	case *FunctionData:
		return d.ReturnType()
	}
	return nil
}

// Macro returns the macro payload, or nil for other kinds.
func (d *Declaration) Macro() *MacroData {
	m, _ := d.Data.(*MacroData)
	return m
}

// MacroParameterList would return structured parameter declarations. Macros
// store parameter names as flat text only.
func (d *Declaration) MacroParameterList() (*ParameterList, error) {
	return nil, cxerrors.NewNotImplemented("Macro.ParameterList")
}

// Payload is the kind-specific part of a declaration.
type Payload interface {
	payload()
}

// FunctionData is shared by the whole function signature family.
type FunctionData struct {
	Params           *ParameterList
	ReturnType       Type
	Template         *Template
	Specialization   []SpecParam
	RefQualifier     RefQualifier
	Body             BodyKind
	Initializers     []Initializer
	FriendClass      *Ref   // friend functions
	InstantiatedName string // function instantiations
}

// Initializer is one member initializer of a constructor.
type Initializer struct {
	Name  string
	Args  string
	Start int
	End   int
}

type FieldData struct {
	Type     Type
	BitWidth string
	Default  string
}

type VariableData struct {
	Type           Type
	Init           string
	Template       *Template
	Specialization []SpecParam
}

type ClassData struct {
	Template       *Template
	Specialization []SpecParam
	Bases          []string
}

type EnumData struct {
	Scoped     bool
	Underlying string
}

type EnumeratorData struct {
	Value string
}

// MacroData holds a macro definition. Params is nil for object-like macros
// and empty for function-like macros without parameters.
type MacroData struct {
	Body   string
	Params []string
	Kind   MacroKind
}

type TypeAliasData struct {
	Type     Type
	Template *Template
}

type TemplateParamData struct {
	ParamKind TemplateParamKind
	Index     int
	Default   string
	Type      Type // value parameters
}

type IncludeData struct {
	Path   string
	System bool
	Target types.FileID
}

type ForwardClassData struct {
	Keyword string
}

type NamespaceData struct {
	Inline bool
}

type BuiltinData struct {
	Unknown bool
}

func (*FunctionData) payload()      {}
func (*FieldData) payload()         {}
func (*VariableData) payload()      {}
func (*ClassData) payload()         {}
func (*EnumData) payload()          {}
func (*EnumeratorData) payload()    {}
func (*MacroData) payload()         {}
func (*TypeAliasData) payload()     {}
func (*TemplateParamData) payload() {}
func (*IncludeData) payload()       {}
func (*ForwardClassData) payload()  {}
func (*NamespaceData) payload()     {}
func (*BuiltinData) payload()       {}

package model

import (
	"context"
	"strings"

	"github.com/standardbeagle/cxxmodel/internal/debug"
)

// Type is a declared or computed C++ type. Queries take a context because
// some types resolve lazily; under a parser context or a resolution cycle
// they return their unresolved defaults instead.
type Type interface {
	Text() string
	IsPointer(ctx context.Context) bool
	IsReference(ctx context.Context) bool
	IsRValueReference(ctx context.Context) bool
	IsConst(ctx context.Context) bool
	// Classifier returns the declaration naming the type. Unresolvable
	// names yield an unknown built-in, never nil, except under the parser
	// context of the owning file.
	Classifier(ctx context.Context) *Declaration
}

// Qualifiers are the cv/pointer/reference decorations written around a
// type name.
type Qualifiers struct {
	Const     bool
	Pointer   int
	Reference RefQualifier
}

func (q Qualifiers) decorate(base string) string {
	var sb strings.Builder
	if q.Const {
		sb.WriteString("const ")
	}
	sb.WriteString(base)
	for i := 0; i < q.Pointer; i++ {
		sb.WriteByte('*')
	}
	switch q.Reference {
	case RefLValue:
		sb.WriteByte('&')
	case RefRValue:
		sb.WriteString("&&")
	}
	return sb.String()
}

// noType is returned by constructors and destructors.
type noType struct{}

// NoType is the distinguished non-nil "no return type" value.
var NoType Type = noType{}

func (noType) Text() string                            { return "" }
func (noType) IsPointer(context.Context) bool          { return false }
func (noType) IsReference(context.Context) bool        { return false }
func (noType) IsRValueReference(context.Context) bool  { return false }
func (noType) IsConst(context.Context) bool            { return false }
func (noType) Classifier(context.Context) *Declaration { return nil }

// SimpleType is a type spelled by name, e.g. "const std::string&".
type SimpleType struct {
	Qualifiers
	Spelling string // canonical text including qualifiers
	Name     string // classifier name as written
	Target   UID    // pre-resolved classifier, if known at build time
	Scope    UID    // scope to start name lookup from

	session *Session
}

// NewSimpleType creates a named type bound to session s.
func (s *Session) NewSimpleType(name string, q Qualifiers, scope UID) *SimpleType {
	name = s.internName(name)
	t := &SimpleType{
		Qualifiers: q,
		Name:       name,
		Spelling:   s.intern(q.decorate(name)),
		Scope:      scope,
		session:    s,
	}
	if IsBuiltinName(name) {
		t.Target = BuiltinUID(CanonicalBuiltin(name))
	}
	return t
}

// BuiltinType returns the type of a built-in name.
func (s *Session) BuiltinType(name string) *SimpleType {
	return s.NewSimpleType(CanonicalBuiltin(name), Qualifiers{}, NoUID)
}

// ClassType returns the type naming decl.
func (s *Session) ClassType(decl *Declaration) *SimpleType {
	t := s.NewSimpleType(decl.QualifiedName, Qualifiers{}, NoUID)
	t.Target = decl.UID()
	return t
}

func (t *SimpleType) Text() string                           { return t.Spelling }
func (t *SimpleType) IsPointer(context.Context) bool         { return t.Pointer > 0 }
func (t *SimpleType) IsReference(context.Context) bool       { return t.Reference != RefNone }
func (t *SimpleType) IsRValueReference(context.Context) bool { return t.Reference == RefRValue }
func (t *SimpleType) IsConst(context.Context) bool           { return t.Const }

func (t *SimpleType) Classifier(ctx context.Context) *Declaration {
	if t.session == nil {
		return nil
	}
	if !t.Target.IsZero() {
		if d := t.session.Repo.Resolve(ctx, t.Target); d != nil {
			return d
		}
	}
	scope := t.session.Repo.Resolve(ctx, t.Scope)
	if d := t.session.LookupClassifier(ctx, t.Name, scope); d != nil {
		return d
	}
	return t.session.Builtins.Unknown(t.Name)
}

// TemplateParamType is a use of a template parameter. It resolves through
// the instantiation bindings of the query context when present.
type TemplateParamType struct {
	Qualifiers
	Spelling string
	Name     string
	Param    UID

	session *Session
}

// NewTemplateParamType creates a use of param.
func (s *Session) NewTemplateParamType(param *Declaration, q Qualifiers) *TemplateParamType {
	return &TemplateParamType{
		Qualifiers: q,
		Name:       param.Name,
		Spelling:   s.intern(q.decorate(param.Name)),
		Param:      param.UID(),
		session:    s,
	}
}

// bound returns the type t is instantiated with under ctx. A binding that
// leads back to t while it is being followed yields nil. The release func
// must always be called.
func (t *TemplateParamType) bound(ctx context.Context) (context.Context, Type, func()) {
	b := instantiation(ctx)[t.Param]
	if b == nil {
		return ctx, nil, func() {}
	}
	ctx, release, ok := enterResolution(ctx, resolutionKey{owner: t.Param, spelling: "template-param " + t.Name})
	if !ok {
		debug.LogResolve("binding cycle on template parameter %s", t.Name)
		return ctx, nil, release
	}
	return ctx, b, release
}

func (t *TemplateParamType) Text() string { return t.Spelling }

func (t *TemplateParamType) IsPointer(ctx context.Context) bool {
	if t.Pointer > 0 {
		return true
	}
	ctx, b, release := t.bound(ctx)
	defer release()
	return b != nil && t.Reference == RefNone && b.IsPointer(ctx)
}

func (t *TemplateParamType) IsReference(ctx context.Context) bool {
	if t.Reference != RefNone {
		return true
	}
	ctx, b, release := t.bound(ctx)
	defer release()
	return b != nil && t.Pointer == 0 && b.IsReference(ctx)
}

func (t *TemplateParamType) IsRValueReference(ctx context.Context) bool {
	if t.Reference == RefRValue {
		return true
	}
	ctx, b, release := t.bound(ctx)
	defer release()
	return b != nil && t.Pointer == 0 && t.Reference == RefNone && b.IsRValueReference(ctx)
}

func (t *TemplateParamType) IsConst(ctx context.Context) bool {
	if t.Const {
		return true
	}
	ctx, b, release := t.bound(ctx)
	defer release()
	return b != nil && t.Pointer == 0 && b.IsConst(ctx)
}

func (t *TemplateParamType) Classifier(ctx context.Context) *Declaration {
	bctx, b, release := t.bound(ctx)
	defer release()
	if b != nil {
		return b.Classifier(bctx)
	}
	if t.session == nil {
		return nil
	}
	if d := t.session.Repo.Resolve(ctx, t.Param); d != nil {
		return d
	}
	return t.session.Builtins.Unknown(t.Name)
}

// derivedType decorates a computed type, e.g. the result of &x or *p.
type derivedType struct {
	base      Type
	addPtr    int // negative for dereference
	reference RefQualifier
}

func (t *derivedType) Text() string {
	text := t.base.Text()
	switch {
	case t.addPtr < 0:
		text = strings.TrimSuffix(text, "*")
	case t.addPtr > 0:
		text += strings.Repeat("*", t.addPtr)
	}
	if t.reference == RefLValue {
		text += "&"
	}
	return text
}

func (t *derivedType) IsPointer(ctx context.Context) bool {
	return pointerDepth(ctx, t) > 0
}

func (t *derivedType) IsReference(ctx context.Context) bool {
	if t.reference != RefNone {
		return true
	}
	return t.addPtr == 0 && t.base.IsReference(ctx)
}

func (t *derivedType) IsRValueReference(ctx context.Context) bool {
	return t.reference == RefNone && t.addPtr == 0 && t.base.IsRValueReference(ctx)
}

func (t *derivedType) IsConst(ctx context.Context) bool {
	return t.addPtr <= 0 && t.base.IsConst(ctx)
}

func (t *derivedType) Classifier(ctx context.Context) *Declaration {
	return t.base.Classifier(ctx)
}

// pointerDepth counts pointer levels through computed types.
func pointerDepth(ctx context.Context, t Type) int {
	switch v := t.(type) {
	case nil:
		return 0
	case *SimpleType:
		return v.Pointer
	case *TemplateParamType:
		bctx, b, release := v.bound(ctx)
		defer release()
		if b != nil && v.Reference == RefNone {
			return v.Pointer + pointerDepth(bctx, b)
		}
		return v.Pointer
	case *DecltypeType:
		return v.pointerDepth(ctx)
	case *derivedType:
		d := pointerDepth(ctx, v.base) + v.addPtr
		if d < 0 {
			return 0
		}
		return d
	}
	if t.IsPointer(ctx) {
		return 1
	}
	return 0
}

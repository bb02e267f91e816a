package model

import (
	"context"
	"strings"
)

// Expr is the captured expression of a decltype. Only the forms needed to
// name a type are modelled.
type Expr interface {
	String() string
	exprTag() uint8
}

const (
	exprIdent uint8 = iota + 1
	exprQualified
	exprLiteral
	exprCall
	exprMember
	exprUnary
	exprParen
)

// IdentExpr names a declaration visible from the owner's scope.
type IdentExpr struct {
	Name string
}

// QualifiedExpr is a fully spelled qualified id, e.g. ns::value.
type QualifiedExpr struct {
	Name string
}

// LiteralKind classifies literal tokens.
type LiteralKind uint8

const (
	LitInt LiteralKind = iota
	LitFloat
	LitChar
	LitString
	LitBool
	LitNull
)

type LiteralExpr struct {
	Kind LiteralKind
	Text string
}

type CallExpr struct {
	Callee Expr
	Args   []Expr
}

type MemberExpr struct {
	Base  Expr
	Name  string
	Arrow bool
}

// UnaryExpr is address-of ('&') or dereference ('*').
type UnaryExpr struct {
	Op byte
	X  Expr
}

type ParenExpr struct {
	X Expr
}

func (e *IdentExpr) String() string     { return e.Name }
func (e *QualifiedExpr) String() string { return e.Name }
func (e *LiteralExpr) String() string   { return e.Text }
func (e *ParenExpr) String() string     { return "(" + e.X.String() + ")" }
func (e *UnaryExpr) String() string     { return string(e.Op) + e.X.String() }

func (e *CallExpr) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Callee.String() + "(" + strings.Join(args, ", ") + ")"
}

func (e *MemberExpr) String() string {
	if e.Arrow {
		return e.Base.String() + "->" + e.Name
	}
	return e.Base.String() + "." + e.Name
}

func (*IdentExpr) exprTag() uint8     { return exprIdent }
func (*QualifiedExpr) exprTag() uint8 { return exprQualified }
func (*LiteralExpr) exprTag() uint8   { return exprLiteral }
func (*CallExpr) exprTag() uint8      { return exprCall }
func (*MemberExpr) exprTag() uint8    { return exprMember }
func (*UnaryExpr) exprTag() uint8     { return exprUnary }
func (*ParenExpr) exprTag() uint8     { return exprParen }

// TypeOf computes the static type of e as seen from owner. It returns nil
// when the expression cannot be resolved.
func (s *Session) TypeOf(ctx context.Context, e Expr, owner *Declaration) Type {
	switch x := e.(type) {
	case nil:
		return nil
	case *IdentExpr:
		return s.typeOfDecl(s.lookupValue(ctx, x.Name, owner))
	case *QualifiedExpr:
		return s.typeOfDecl(s.firstDeclaration(ctx, strings.TrimPrefix(x.Name, "::")))
	case *LiteralExpr:
		return s.literalType(x)
	case *CallExpr:
		return s.typeOfCall(ctx, x, owner)
	case *MemberExpr:
		return s.typeOfDecl(s.lookupMember(ctx, x, owner))
	case *UnaryExpr:
		inner := s.TypeOf(ctx, x.X, owner)
		if inner == nil {
			return nil
		}
		if x.Op == '&' {
			return &derivedType{base: inner, addPtr: 1}
		}
		return &derivedType{base: inner, addPtr: -1, reference: RefLValue}
	case *ParenExpr:
		inner := s.TypeOf(ctx, x.X, owner)
		if inner == nil {
			return nil
		}
		switch x.X.(type) {
		case *IdentExpr, *QualifiedExpr, *MemberExpr:
			// decltype((x)) names an lvalue
			return &derivedType{base: inner, reference: RefLValue}
		}
		return inner
	}
	return nil
}

func (s *Session) typeOfCall(ctx context.Context, x *CallExpr, owner *Declaration) Type {
	var callee *Declaration
	switch c := x.Callee.(type) {
	case *IdentExpr:
		callee = s.lookupValue(ctx, c.Name, owner)
		if callee == nil {
			callee = s.LookupClassifier(ctx, c.Name, owner.ScopeDecl(ctx))
		}
	case *QualifiedExpr:
		callee = s.firstDeclaration(ctx, strings.TrimPrefix(c.Name, "::"))
	case *MemberExpr:
		callee = s.lookupMember(ctx, c, owner)
	default:
		return nil
	}
	switch {
	case callee == nil:
		return nil
	case callee.Kind.IsFunction():
		return callee.ReturnType()
	case callee.Kind.IsClassifier():
		return s.ClassType(callee)
	}
	return nil
}

func (s *Session) lookupMember(ctx context.Context, x *MemberExpr, owner *Declaration) *Declaration {
	base := s.TypeOf(ctx, x.Base, owner)
	if base == nil {
		return nil
	}
	cls := base.Classifier(ctx)
	if cls == nil || cls.Kind == KindBuiltin {
		return nil
	}
	return s.firstDeclaration(ctx, cls.QualifiedName+"::"+x.Name)
}

// lookupValue finds name from owner outwards: the owner's own parameters,
// the owner itself, then each enclosing scope up to the global namespace.
func (s *Session) lookupValue(ctx context.Context, name string, owner *Declaration) *Declaration {
	if owner == nil {
		return s.firstDeclaration(ctx, name)
	}
	if owner.Name == name {
		return owner
	}
	for sc := owner; sc != nil; sc = sc.ScopeDecl(ctx) {
		if sc.Kind.IsFunction() {
			if p, ok := sc.Parameters().Lookup(name); ok {
				return &Declaration{Kind: KindVariable, Name: p.Name, File: sc.File, Data: &VariableData{Type: p.Type}}
			}
		}
		if sc == owner && !sc.Kind.IsScope() {
			continue
		}
		if d := s.firstDeclaration(ctx, qualify(sc.QualifiedName, name)); d != nil {
			return d
		}
	}
	return s.firstDeclaration(ctx, name)
}

func (s *Session) firstDeclaration(ctx context.Context, qname string) *Declaration {
	for _, d := range s.Registry().FindDeclarations(ctx, qname) {
		if d != nil {
			return d
		}
	}
	return nil
}

// LookupClassifier resolves a type name starting at scope and walking
// outwards.
func (s *Session) LookupClassifier(ctx context.Context, name string, scope *Declaration) *Declaration {
	if strings.HasPrefix(name, "::") {
		return s.Registry().FindClassifier(ctx, name[2:])
	}
	if i := strings.IndexByte(name, '<'); i > 0 {
		if d := s.lookupClassifierIn(ctx, name, scope); d != nil {
			return d
		}
		name = name[:i]
	}
	return s.lookupClassifierIn(ctx, name, scope)
}

func (s *Session) lookupClassifierIn(ctx context.Context, name string, scope *Declaration) *Declaration {
	for sc := scope; sc != nil; sc = sc.ScopeDecl(ctx) {
		if d := s.Registry().FindClassifier(ctx, qualify(sc.QualifiedName, name)); d != nil {
			return d
		}
		if sc.UID().Kind == UIDGlobal {
			return nil
		}
	}
	return s.Registry().FindClassifier(ctx, name)
}

func (s *Session) typeOfDecl(d *Declaration) Type {
	if d == nil {
		return nil
	}
	switch {
	case d.Kind == KindEnumerator:
		return nil
	case d.Kind.IsClassifier() && d.Kind != KindTemplateParam:
		return s.ClassType(d)
	}
	return d.DeclaredType()
}

func (s *Session) literalType(x *LiteralExpr) Type {
	switch x.Kind {
	case LitInt:
		suffix := strings.ToLower(strings.TrimLeft(x.Text, "0123456789abcdefABCDEFxX'"))
		unsigned := strings.Contains(suffix, "u")
		long := strings.Count(suffix, "l")
		name := "int"
		switch long {
		case 1:
			name = "long"
		case 2:
			name = "long long"
		}
		if unsigned {
			name = "unsigned " + name
		}
		return s.BuiltinType(name)
	case LitFloat:
		switch {
		case strings.HasSuffix(x.Text, "f"), strings.HasSuffix(x.Text, "F"):
			return s.BuiltinType("float")
		case strings.HasSuffix(x.Text, "l"), strings.HasSuffix(x.Text, "L"):
			return s.BuiltinType("long double")
		}
		return s.BuiltinType("double")
	case LitChar:
		return s.BuiltinType("char")
	case LitString:
		return s.NewSimpleType("char", Qualifiers{Const: true, Pointer: 1}, NoUID)
	case LitBool:
		return s.BuiltinType("bool")
	case LitNull:
		return s.BuiltinType("std::nullptr_t")
	}
	return nil
}

func qualify(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "::" + name
}

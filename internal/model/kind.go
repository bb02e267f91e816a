// Package model is the semantic declaration model: declarations, their
// identity tokens, the repository that keeps them live or persisted, and the
// lazily resolved types they carry.
package model

// Kind identifies the declaration variant.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNamespace
	KindClass
	KindStruct
	KindUnion
	KindEnum
	KindFunction
	KindMethod
	KindConstructor
	KindDestructor
	KindField
	KindVariable
	KindTemplateParam
	KindEnumerator
	KindMacro
	KindTypeAlias
	KindFriendFunction
	KindLambda
	KindFunctionInstantiation
	KindForwardClass
	KindInclude
	KindBuiltin
	kindCount
)

var kindNames = [...]string{
	KindInvalid:               "invalid",
	KindNamespace:             "namespace",
	KindClass:                 "class",
	KindStruct:                "struct",
	KindUnion:                 "union",
	KindEnum:                  "enum",
	KindFunction:              "function",
	KindMethod:                "method",
	KindConstructor:           "constructor",
	KindDestructor:            "destructor",
	KindField:                 "field",
	KindVariable:              "variable",
	KindTemplateParam:         "template-parameter",
	KindEnumerator:            "enumerator",
	KindMacro:                 "macro",
	KindTypeAlias:             "type-alias",
	KindFriendFunction:        "friend-function",
	KindLambda:                "lambda",
	KindFunctionInstantiation: "function-instantiation",
	KindForwardClass:          "forward-class",
	KindInclude:               "include",
	KindBuiltin:               "built-in",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "invalid"
}

// IsFunction reports whether k belongs to the function signature family.
func (k Kind) IsFunction() bool {
	switch k {
	case KindFunction, KindMethod, KindConstructor, KindDestructor,
		KindFriendFunction, KindLambda, KindFunctionInstantiation:
		return true
	}
	return false
}

// IsClassifier reports whether a declaration of kind k can classify a type.
func (k Kind) IsClassifier() bool {
	switch k {
	case KindClass, KindStruct, KindUnion, KindEnum, KindTypeAlias,
		KindForwardClass, KindTemplateParam, KindBuiltin:
		return true
	}
	return false
}

// IsScope reports whether declarations of kind k contain other declarations.
func (k Kind) IsScope() bool {
	switch k {
	case KindNamespace, KindClass, KindStruct, KindUnion, KindEnum:
		return true
	}
	return k.IsFunction()
}

// Flags are orthogonal capabilities shared across kinds.
type Flags uint32

const (
	FlagDefinition Flags = 1 << iota // out-of-line body
	FlagDefaultedOrDeleted
	FlagFriend
	FlagLambda
	FlagStatic
	FlagVirtual
	FlagExplicit
	FlagOverride
	FlagFinal
	FlagConst
	FlagPure
	FlagInline
	FlagVariadic
	FlagSystem
	FlagSpecialization
)

func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

var flagNames = [...]string{
	"definition", "defaulted-or-deleted", "friend", "lambda", "static",
	"virtual", "explicit", "override", "final", "const", "pure", "inline",
	"variadic", "system", "specialization",
}

// Names lists the set flags in bit order.
func (f Flags) Names() []string {
	var out []string
	for i, name := range flagNames {
		if f&(1<<i) != 0 {
			out = append(out, name)
		}
	}
	return out
}

// Visibility is the access level of a class member.
type Visibility uint8

const (
	VisibilityNone Visibility = iota
	VisibilityPublic
	VisibilityProtected
	VisibilityPrivate
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityProtected:
		return "protected"
	case VisibilityPrivate:
		return "private"
	}
	return "none"
}

// ParseVisibility maps an access specifier keyword.
func ParseVisibility(s string) Visibility {
	switch s {
	case "public":
		return VisibilityPublic
	case "protected":
		return VisibilityProtected
	case "private":
		return VisibilityPrivate
	}
	return VisibilityNone
}

// BodyKind classifies a function body.
type BodyKind uint8

const (
	BodyNone BodyKind = iota
	BodyRegular
	BodyDefault
	BodyDelete
)

func (b BodyKind) String() string {
	switch b {
	case BodyRegular:
		return "REGULAR"
	case BodyDefault:
		return "DEFAULT"
	case BodyDelete:
		return "DELETE"
	}
	return "NONE"
}

// MacroKind tells where a macro definition came from.
type MacroKind uint8

const (
	MacroFile MacroKind = iota
	MacroSystem
	MacroUser
)

// RefQualifier is the ref-qualification of a member function.
type RefQualifier uint8

const (
	RefNone RefQualifier = iota
	RefLValue
	RefRValue
)

// TemplateParamKind separates type, value and template template parameters.
type TemplateParamKind uint8

const (
	TemplateParamTypeKind TemplateParamKind = iota
	TemplateParamValueKind
	TemplateParamTemplateKind
)

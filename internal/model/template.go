package model

import (
	"strings"
)

// Template describes the template header of a declaration. Every token in
// Params is registered (global mode) or carries a self identity (local
// mode) before the descriptor is built.
type Template struct {
	Params         []UID
	Suffix         string // "<...>" specialization suffix, or empty
	Inherited      int    // parameters contributed by enclosing templates
	Specialization bool
}

// NewTemplate builds a descriptor. The specialization flag follows the
// suffix.
func NewTemplate(params []UID, suffix string, inherited int) *Template {
	return &Template{
		Params:         params,
		Suffix:         suffix,
		Inherited:      inherited,
		Specialization: suffix != "",
	}
}

// TotalParams counts own and inherited parameters.
func (t *Template) TotalParams() int {
	if t == nil {
		return 0
	}
	return len(t.Params) + t.Inherited
}

// SpecParam is one specialization argument.
type SpecParam interface {
	Text() string
	specParam()
}

// TypeSpecParam is a type argument; its text is the canonical type text.
type TypeSpecParam struct {
	Type Type
}

func (p *TypeSpecParam) Text() string {
	if p.Type == nil {
		return ""
	}
	return p.Type.Text()
}

// ExprSpecParam is a value argument kept as literal source text.
type ExprSpecParam struct {
	Expr string
}

func (p *ExprSpecParam) Text() string {
	return p.Expr
}

// VariadicSpecParam is a pack of nested arguments.
type VariadicSpecParam struct {
	Params []SpecParam
}

// Text concatenates the nested texts.
func (p *VariadicSpecParam) Text() string {
	var sb strings.Builder
	for _, n := range p.Params {
		sb.WriteString(n.Text())
	}
	return sb.String()
}

func (*TypeSpecParam) specParam()     {}
func (*ExprSpecParam) specParam()     {}
func (*VariadicSpecParam) specParam() {}

// SpecSuffix renders "<a, b>" from specialization arguments.
func SpecSuffix(params []SpecParam) string {
	if len(params) == 0 {
		return ""
	}
	texts := make([]string, len(params))
	for i, p := range params {
		texts[i] = p.Text()
	}
	return "<" + strings.Join(texts, ", ") + ">"
}

package builder

import (
	"context"
	"strings"

	"github.com/standardbeagle/cxxmodel/internal/ast"
	cxerrors "github.com/standardbeagle/cxxmodel/internal/errors"
	"github.com/standardbeagle/cxxmodel/internal/model"
)

// FieldBuilder builds data members and variables.
type FieldBuilder struct {
	kind       model.Kind
	flags      model.Flags
	name       string
	node       *ast.Node
	start, end int
	visibility model.Visibility
	typ        *TypeBuilder
	bitWidth   string
	init       string
	tmpl       *TemplateDescriptorBuilder
	consumed   bool
}

// NewFieldBuilder starts a builder for a field, or a variable when k is
// model.KindVariable.
func NewFieldBuilder(k model.Kind) *FieldBuilder {
	if k != model.KindVariable {
		k = model.KindField
	}
	return &FieldBuilder{kind: k}
}

func (b *FieldBuilder) SetName(name string) *FieldBuilder {
	if !b.consumed && b.name == "" {
		b.name = name
	}
	return b
}

func (b *FieldBuilder) SetSpan(start, end int) *FieldBuilder {
	if !b.consumed {
		b.start, b.end = start, end
	}
	return b
}

func (b *FieldBuilder) AddFlags(f model.Flags) *FieldBuilder {
	if !b.consumed {
		b.flags |= f
	}
	return b
}

func (b *FieldBuilder) SetVisibility(v model.Visibility) *FieldBuilder {
	if !b.consumed {
		b.visibility = v
	}
	return b
}

func (b *FieldBuilder) SetType(t *TypeBuilder) *FieldBuilder {
	if !b.consumed {
		b.typ = t
	}
	return b
}

func (b *FieldBuilder) SetBitWidth(w string) *FieldBuilder {
	if !b.consumed {
		b.bitWidth = w
	}
	return b
}

// SetInitializer sets the default member initializer or the variable
// initializer text.
func (b *FieldBuilder) SetInitializer(text string) *FieldBuilder {
	if !b.consumed {
		b.init = text
	}
	return b
}

func (b *FieldBuilder) SetTemplate(t *TemplateDescriptorBuilder) *FieldBuilder {
	if !b.consumed {
		b.tmpl = t
	}
	return b
}

// Create materializes the declaration. It can be called once.
func (b *FieldBuilder) Create(ctx context.Context, bc *Context) (*model.Declaration, error) {
	if b.consumed {
		return nil, cxerrors.NewBuildError("FieldBuilder", "", cxerrors.ErrBuilderConsumed)
	}
	b.consumed = true
	if b.name == "" {
		if b.node != nil {
			return nil, bc.parseError(b.node, cxerrors.ErrMissingName)
		}
		return nil, cxerrors.NewBuildError("FieldBuilder", "name", cxerrors.ErrMissingName)
	}

	s := bc.Session
	name := s.InternName(b.name)
	qualified := qualify(bc.scopeName(), name)
	d := &model.Declaration{
		Kind:          b.kind,
		Flags:         b.flags,
		Name:          name,
		QualifiedName: s.InternQualified(qualified),
		RawName:       s.InternQualified(rawName(qualified)),
		File:          bc.File,
		Start:         b.start,
		End:           b.end,
		Scope:         bc.scopeRef(nil),
		Visibility:    b.visibility,
	}
	bc.begin(d)

	if b.kind == model.KindField {
		d.Data = &model.FieldData{
			Type:     b.typ.create(bc, d, nil),
			BitWidth: s.InternText(b.bitWidth),
			Default:  s.InternText(b.init),
		}
	} else {
		data := &model.VariableData{Init: s.InternText(b.init)}
		d.Data = data
		bt := b.tmpl.create(bc, d)
		data.Template, data.Specialization = bt.template(), bt.specialization()
		if len(data.Specialization) > 0 {
			d.Flags |= model.FlagSpecialization
		}
		data.Type = b.typ.create(bc, d, bt.names())
		bt.finish(bc)
	}
	bc.finish(d)
	return d, nil
}

// fieldBuildersFromAST prepares one builder per declarator of a
// field_declaration or declaration.
func fieldBuildersFromAST(bc *Context, n *ast.Node, kind model.Kind) []*FieldBuilder {
	m := scanModifiers(n)
	typeNode := n.ChildByField("type")
	width := strings.TrimSpace(strings.TrimPrefix(ast.Render(n.ChildOfType("bitfield_clause")), ":"))

	var out []*FieldBuilder
	for _, d := range n.Children() {
		if d.Field == "default_value" && len(out) > 0 {
			out[len(out)-1].init = ast.Render(d)
			continue
		}
		if d.Field != "declarator" {
			continue
		}
		b := NewFieldBuilder(kind)
		b.node = n
		b.start, b.end = spanOf(n)
		b.flags = m.flags & (model.FlagStatic | model.FlagInline)
		b.visibility = bc.Visibility
		b.bitWidth = width

		target := d
		if d.Type == "init_declarator" {
			target = d.ChildByField("declarator")
			b.init = ast.Render(d.ChildByField("value"))
		}
		h := declaratorName(target)
		b.name = h.name
		if h.node != nil && h.name == "" {
			b.node = h.node
		}
		b.typ = typeFromAST(n, typeNode, d)
		if kind == model.KindVariable {
			b.tmpl = templateFromAST(bc, n, h.args)
		}
		out = append(out, b)
	}
	return out
}

// createAll builds every prepared declarator, continuing past failures.
func createAll(ctx context.Context, bc *Context, builders []*FieldBuilder) ([]*model.Declaration, []error) {
	var decls []*model.Declaration
	var errs []error
	for _, b := range builders {
		d, err := b.Create(ctx, bc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		decls = append(decls, d)
	}
	return decls, errs
}

// NewField builds the first data member of a field_declaration.
func NewField(ctx context.Context, n *ast.Node, bc *Context) (*model.Declaration, error) {
	bs := fieldBuildersFromAST(bc, n, model.KindField)
	if len(bs) == 0 {
		return nil, bc.parseError(n, cxerrors.ErrMissingName)
	}
	return bs[0].Create(ctx, bc)
}

// NewVariable builds the first variable of a declaration.
func NewVariable(ctx context.Context, n *ast.Node, bc *Context) (*model.Declaration, error) {
	bs := fieldBuildersFromAST(bc, n, model.KindVariable)
	if len(bs) == 0 {
		return nil, bc.parseError(n, cxerrors.ErrMissingName)
	}
	return bs[0].Create(ctx, bc)
}

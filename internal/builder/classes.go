package builder

import (
	"context"
	"strings"

	"github.com/standardbeagle/cxxmodel/internal/ast"
	cxerrors "github.com/standardbeagle/cxxmodel/internal/errors"
	"github.com/standardbeagle/cxxmodel/internal/model"
)

// anonymous names unnamed namespaces, classes and enums.
const anonymous = "(anonymous)"

var classKinds = map[string]model.Kind{
	"class_specifier":  model.KindClass,
	"struct_specifier": model.KindStruct,
	"union_specifier":  model.KindUnion,
}

// classHeadName reads the name of a class, enum or namespace head. An
// absent name node means an anonymous entity; a name node that error
// recovery left empty is a missing name.
func classHeadName(n *ast.Node) (nameHolder, bool) {
	nameNode := n.ChildByField("name")
	if nameNode == nil {
		return nameHolder{node: n, name: anonymous}, true
	}
	h := holdName(nameNode)
	return h, h.name != ""
}

// newScopeDecl registers the common part of a class-like or namespace
// declaration.
func newScopeDecl(bc *Context, n *ast.Node, kind model.Kind, h nameHolder, data model.Payload) *model.Declaration {
	s := bc.Session
	start, end := spanOf(n)
	name := s.InternName(h.name)
	qualified := qualify(qualify(bc.scopeName(), h.qualifier), name)
	d := &model.Declaration{
		Kind:          kind,
		Name:          name,
		QualifiedName: s.InternQualified(qualified),
		RawName:       s.InternQualified(rawName(qualified)),
		File:          bc.File,
		Start:         start,
		End:           end,
		Scope:         bc.scopeRef(nil),
		Visibility:    bc.Visibility,
		Data:          data,
	}
	bc.begin(d)
	return d
}

// NewClass builds a class, struct or union with a body. A template
// specialization gets its "<...>" suffix appended to the qualified name.
func NewClass(ctx context.Context, n *ast.Node, bc *Context) (*model.Declaration, error) {
	kind, ok := classKinds[n.Type]
	if !ok {
		kind = model.KindClass
	}
	h, ok := classHeadName(n)
	if !ok {
		return nil, bc.parseError(h.node, cxerrors.ErrMissingName)
	}

	data := &model.ClassData{}
	for _, c := range n.ChildOfType("base_class_clause").Children() {
		if c.Named && !c.Is("access_specifier", "virtual") {
			data.Bases = append(data.Bases, bc.Session.InternQualified(ast.Render(c)))
		}
	}

	d := newScopeDecl(bc, n, kind, h, data)
	bt := templateFromAST(bc, n, h.args).create(bc, d)
	tmpl := bt.template()
	data.Template, data.Specialization = tmpl, bt.specialization()
	if tmpl != nil && tmpl.Suffix != "" {
		d.Flags |= model.FlagSpecialization
		d.QualifiedName = bc.Session.InternQualified(d.QualifiedName + tmpl.Suffix)
		d.RawName = bc.Session.InternQualified(rawName(d.QualifiedName))
	}
	bt.finish(bc)
	bc.finish(d)
	return d, nil
}

// ForwardClassBuilder builds a class declared without a body.
type ForwardClassBuilder struct {
	name       string
	keyword    string
	start, end int
	consumed   bool
}

func NewForwardClassBuilder(keyword string) *ForwardClassBuilder {
	return &ForwardClassBuilder{keyword: keyword}
}

func (b *ForwardClassBuilder) SetName(name string) *ForwardClassBuilder {
	if !b.consumed && b.name == "" {
		b.name = name
	}
	return b
}

func (b *ForwardClassBuilder) SetSpan(start, end int) *ForwardClassBuilder {
	if !b.consumed {
		b.start, b.end = start, end
	}
	return b
}

func (b *ForwardClassBuilder) Create(ctx context.Context, bc *Context) (*model.Declaration, error) {
	if b.consumed {
		return nil, cxerrors.NewBuildError("ForwardClassBuilder", "", cxerrors.ErrBuilderConsumed)
	}
	b.consumed = true
	if b.name == "" {
		return nil, cxerrors.NewBuildError("ForwardClassBuilder", "name", cxerrors.ErrMissingName)
	}
	s := bc.Session
	name := s.InternName(b.name)
	qualified := qualify(bc.scopeName(), name)
	d := &model.Declaration{
		Kind:          model.KindForwardClass,
		Name:          name,
		QualifiedName: s.InternQualified(qualified),
		RawName:       s.InternQualified(rawName(qualified)),
		File:          bc.File,
		Start:         b.start,
		End:           b.end,
		Scope:         bc.scopeRef(nil),
		Visibility:    bc.Visibility,
		Data:          &model.ForwardClassData{Keyword: s.InternText(b.keyword)},
	}
	bc.begin(d)
	bc.finish(d)
	return d, nil
}

// NewForwardClass builds "class X;".
func NewForwardClass(ctx context.Context, n *ast.Node, bc *Context) (*model.Declaration, error) {
	keyword := "class"
	if first := n.FirstChild(); first != nil && !first.Named {
		keyword = first.Text
	}
	b := NewForwardClassBuilder(keyword)
	b.start, b.end = spanOf(n)
	nameNode := n.ChildByField("name")
	b.name = holdName(nameNode).name
	if b.name == "" {
		return nil, bc.parseError(n, cxerrors.ErrMissingName)
	}
	return b.Create(ctx, bc)
}

// NewEnum builds an enum_specifier. Its enumerators are built separately
// with the enum as scope.
func NewEnum(ctx context.Context, n *ast.Node, bc *Context) (*model.Declaration, error) {
	h, ok := classHeadName(n)
	if !ok {
		return nil, bc.parseError(h.node, cxerrors.ErrMissingName)
	}
	data := &model.EnumData{
		Scoped:     n.ChildOfType("class", "struct") != nil,
		Underlying: bc.Session.InternQualified(ast.Render(n.ChildByField("base"))),
	}
	d := newScopeDecl(bc, n, model.KindEnum, h, data)
	bc.finish(d)
	return d, nil
}

// NewEnumerator builds one enumerator of the enum bc.Scope. Enumerators of
// an unscoped enum are qualified in the scope enclosing the enum.
func NewEnumerator(ctx context.Context, n *ast.Node, bc *Context) (*model.Declaration, error) {
	nameNode := n.ChildByField("name")
	if nameNode == nil || nameNode.Missing || nameNode.Text == "" {
		return nil, bc.parseError(n, cxerrors.ErrMissingName)
	}
	s := bc.Session
	name := s.InternName(nameNode.Text)
	qualified := qualify(bc.scopeName(), name)
	if enum := bc.Scope; enum != nil {
		if data, ok := enum.Data.(*model.EnumData); ok && !data.Scoped {
			outer := ""
			if o := enum.ScopeDecl(ctx); o != nil {
				outer = o.QualifiedName
			}
			qualified = qualify(outer, name)
		}
	}
	start, end := spanOf(n)
	d := &model.Declaration{
		Kind:          model.KindEnumerator,
		Name:          name,
		QualifiedName: s.InternQualified(qualified),
		RawName:       s.InternQualified(rawName(qualified)),
		File:          bc.File,
		Start:         start,
		End:           end,
		Scope:         bc.scopeRef(nil),
		Visibility:    bc.Visibility,
		Data:          &model.EnumeratorData{Value: s.InternText(ast.Render(n.ChildByField("value")))},
	}
	bc.begin(d)
	bc.finish(d)
	return d, nil
}

// NewNamespace builds a namespace_definition. "namespace a::b" yields one
// declaration named b qualified as a::b.
func NewNamespace(ctx context.Context, n *ast.Node, bc *Context) (*model.Declaration, error) {
	var h nameHolder
	if nameNode := n.ChildByField("name"); nameNode.Is("nested_namespace_specifier") {
		parts := strings.Split(ast.Render(nameNode), "::")
		h = nameHolder{node: nameNode, name: strings.TrimSpace(parts[len(parts)-1])}
		h.qualifier = strings.Join(parts[:len(parts)-1], "::")
	} else {
		var ok bool
		if h, ok = classHeadName(n); !ok {
			return nil, bc.parseError(h.node, cxerrors.ErrMissingName)
		}
	}
	if h.name == "" {
		return nil, bc.parseError(h.node, cxerrors.ErrMissingName)
	}
	data := &model.NamespaceData{Inline: n.ChildOfType("inline") != nil}
	d := newScopeDecl(bc, n, model.KindNamespace, h, data)
	d.Visibility = model.VisibilityNone
	bc.finish(d)
	return d, nil
}

// TypeAliasBuilder builds typedef and using aliases.
type TypeAliasBuilder struct {
	name       string
	node       *ast.Node
	start, end int
	typ        *TypeBuilder
	tmpl       *TemplateDescriptorBuilder
	consumed   bool
}

func NewTypeAliasBuilder() *TypeAliasBuilder {
	return &TypeAliasBuilder{}
}

func (b *TypeAliasBuilder) SetName(name string) *TypeAliasBuilder {
	if !b.consumed && b.name == "" {
		b.name = name
	}
	return b
}

func (b *TypeAliasBuilder) SetSpan(start, end int) *TypeAliasBuilder {
	if !b.consumed {
		b.start, b.end = start, end
	}
	return b
}

func (b *TypeAliasBuilder) SetType(t *TypeBuilder) *TypeAliasBuilder {
	if !b.consumed {
		b.typ = t
	}
	return b
}

func (b *TypeAliasBuilder) SetTemplate(t *TemplateDescriptorBuilder) *TypeAliasBuilder {
	if !b.consumed {
		b.tmpl = t
	}
	return b
}

func (b *TypeAliasBuilder) Create(ctx context.Context, bc *Context) (*model.Declaration, error) {
	if b.consumed {
		return nil, cxerrors.NewBuildError("TypeAliasBuilder", "", cxerrors.ErrBuilderConsumed)
	}
	b.consumed = true
	if b.name == "" {
		if b.node != nil {
			return nil, bc.parseError(b.node, cxerrors.ErrMissingName)
		}
		return nil, cxerrors.NewBuildError("TypeAliasBuilder", "name", cxerrors.ErrMissingName)
	}
	s := bc.Session
	name := s.InternName(b.name)
	qualified := qualify(bc.scopeName(), name)
	data := &model.TypeAliasData{}
	d := &model.Declaration{
		Kind:          model.KindTypeAlias,
		Name:          name,
		QualifiedName: s.InternQualified(qualified),
		RawName:       s.InternQualified(rawName(qualified)),
		File:          bc.File,
		Start:         b.start,
		End:           b.end,
		Scope:         bc.scopeRef(nil),
		Visibility:    bc.Visibility,
		Data:          data,
	}
	bc.begin(d)
	bt := b.tmpl.create(bc, d)
	data.Template = bt.template()
	data.Type = b.typ.create(bc, d, bt.names())
	bt.finish(bc)
	bc.finish(d)
	return d, nil
}

// typeAliasBuildersFromAST prepares one builder per alias introduced by an
// alias_declaration or a type_definition.
func typeAliasBuildersFromAST(bc *Context, n *ast.Node) []*TypeAliasBuilder {
	start, end := spanOf(n)
	if n.Type == "alias_declaration" {
		b := NewTypeAliasBuilder()
		b.node = n
		b.start, b.end = start, end
		b.name = holdName(n.ChildByField("name")).name
		b.typ = typeFromAST(nil, n.ChildByField("type"), nil)
		b.tmpl = templateFromAST(bc, n, nil)
		return []*TypeAliasBuilder{b}
	}
	var out []*TypeAliasBuilder
	typeNode := n.ChildByField("type")
	for _, d := range n.Children() {
		if d.Field != "declarator" {
			continue
		}
		b := NewTypeAliasBuilder()
		b.node = n
		b.start, b.end = start, end
		b.name = declaratorName(d).name
		b.typ = typeFromAST(n, typeNode, d)
		out = append(out, b)
	}
	return out
}

// NewTypeAlias builds the first alias of a using or typedef declaration.
func NewTypeAlias(ctx context.Context, n *ast.Node, bc *Context) (*model.Declaration, error) {
	bs := typeAliasBuildersFromAST(bc, n)
	if len(bs) == 0 {
		return nil, bc.parseError(n, cxerrors.ErrMissingName)
	}
	return bs[0].Create(ctx, bc)
}

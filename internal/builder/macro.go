package builder

import (
	"context"
	"strings"

	"github.com/standardbeagle/cxxmodel/internal/ast"
	cxerrors "github.com/standardbeagle/cxxmodel/internal/errors"
	"github.com/standardbeagle/cxxmodel/internal/model"
	"github.com/standardbeagle/cxxmodel/internal/types"
)

// MacroBuilder builds a #define. Until SetParams is called the macro is
// object-like.
type MacroBuilder struct {
	name       string
	node       *ast.Node
	start, end int
	body       string
	params     []string
	kind       model.MacroKind
	consumed   bool
}

func NewMacroBuilder() *MacroBuilder {
	return &MacroBuilder{}
}

func (b *MacroBuilder) SetName(name string) *MacroBuilder {
	if !b.consumed && b.name == "" {
		b.name = name
	}
	return b
}

func (b *MacroBuilder) SetSpan(start, end int) *MacroBuilder {
	if !b.consumed {
		b.start, b.end = start, end
	}
	return b
}

func (b *MacroBuilder) SetBody(body string) *MacroBuilder {
	if !b.consumed {
		b.body = body
	}
	return b
}

// SetParams makes the macro function-like. With no names it takes no
// parameters.
func (b *MacroBuilder) SetParams(names ...string) *MacroBuilder {
	if !b.consumed {
		b.params = append(make([]string, 0, len(names)), names...)
	}
	return b
}

func (b *MacroBuilder) SetKind(k model.MacroKind) *MacroBuilder {
	if !b.consumed {
		b.kind = k
	}
	return b
}

// Create materializes the macro. Macros always live in the global scope.
func (b *MacroBuilder) Create(ctx context.Context, bc *Context) (*model.Declaration, error) {
	if b.consumed {
		return nil, cxerrors.NewBuildError("MacroBuilder", "", cxerrors.ErrBuilderConsumed)
	}
	b.consumed = true
	if b.name == "" {
		if b.node != nil {
			return nil, bc.parseError(b.node, cxerrors.ErrMissingName)
		}
		return nil, cxerrors.NewBuildError("MacroBuilder", "name", cxerrors.ErrMissingName)
	}

	s := bc.Session
	data := &model.MacroData{Body: s.InternText(b.body), Kind: b.kind}
	if b.params != nil {
		data.Params = make([]string, len(b.params))
		for i, p := range b.params {
			data.Params[i] = s.InternName(p)
		}
	}
	name := s.InternName(b.name)
	d := &model.Declaration{
		Kind:          model.KindMacro,
		Name:          name,
		QualifiedName: name,
		RawName:       name,
		File:          bc.File,
		Start:         b.start,
		End:           b.end,
		Scope:         bc.scopeRef(bc.Session.Global()),
		Data:          data,
	}
	if b.kind != model.MacroFile {
		d.Flags |= model.FlagSystem
	}
	bc.begin(d)
	bc.finish(d)
	return d, nil
}

// NewMacro builds a preproc_def or preproc_function_def.
func NewMacro(ctx context.Context, n *ast.Node, bc *Context) (*model.Declaration, error) {
	b := NewMacroBuilder()
	b.node = n
	b.start, b.end = spanOf(n)
	nameNode := n.ChildByField("name")
	if nameNode != nil && !nameNode.Missing {
		b.name = nameNode.Text
	}
	if value := n.ChildByField("value"); value != nil {
		b.body = strings.TrimSpace(value.Text)
	}
	if n.Type == "preproc_function_def" {
		var names []string
		for _, p := range n.ChildByField("parameters").Children() {
			switch {
			case p.Type == "identifier":
				names = append(names, p.Text)
			case p.Type == "...":
				names = append(names, "...")
			}
		}
		b.SetParams(names...)
	}
	return b.Create(ctx, bc)
}

// NewInclude builds an #include directive. The target file comes from the
// context's include resolver.
func NewInclude(ctx context.Context, n *ast.Node, bc *Context) (*model.Declaration, error) {
	start, end := spanOf(n)
	pathNode := n.ChildByField("path")
	raw := ast.Render(pathNode)
	path := unquote(raw)
	if path == "" {
		return nil, bc.parseError(n, cxerrors.ErrMissingName)
	}
	system := pathNode.Is("system_lib_string") || strings.HasPrefix(raw, "<")

	s := bc.Session
	data := &model.IncludeData{Path: s.InternText(path), System: system, Target: types.NoFile}
	if bc.Includes != nil {
		data.Target = bc.Includes(path, system)
	}
	name := s.InternName(path)
	d := &model.Declaration{
		Kind:          model.KindInclude,
		Name:          name,
		QualifiedName: name,
		RawName:       name,
		File:          bc.File,
		Start:         start,
		End:           end,
		Scope:         bc.scopeRef(s.Global()),
		Data:          data,
	}
	if system {
		d.Flags |= model.FlagSystem
	}
	bc.begin(d)
	bc.finish(d)
	return d, nil
}

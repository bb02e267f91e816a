// Package builder turns syntax tree fragments into model declarations. Each
// declaration kind has a one-shot factory taking an ast.Node, and the
// function-like, field, macro, alias and forward-class kinds also have an
// incremental builder that a tree walker or the fast reparse path fills
// through setters before calling Create once.
package builder

import (
	"context"
	"strings"

	"github.com/standardbeagle/cxxmodel/internal/ast"
	"github.com/standardbeagle/cxxmodel/internal/debug"
	cxerrors "github.com/standardbeagle/cxxmodel/internal/errors"
	"github.com/standardbeagle/cxxmodel/internal/model"
	"github.com/standardbeagle/cxxmodel/internal/types"
)

// IncludeResolver maps an include directive to the file it names, or
// types.NoFile when the file is unknown.
type IncludeResolver func(path string, system bool) types.FileID

// Context carries everything a factory needs besides the node itself.
// Contexts are values: walkers derive nested ones with WithScope.
type Context struct {
	Session    *model.Session
	File       types.FileID
	Path       string
	Lines      *types.LineIndex
	Index      model.FileIndex
	Scope      *model.Declaration // enclosing class or namespace, nil for global
	Visibility model.Visibility
	// Global selects repository registration. Local mode gives every
	// declaration a self identity and never persists it.
	Global   bool
	Includes IncludeResolver

	tmpl *templateScope
}

// templateScope is the template header of the enclosing class template.
type templateScope struct {
	params map[string]*model.Declaration
	total  int
	outer  *templateScope
}

func (t *templateScope) lookup(name string) *model.Declaration {
	for s := t; s != nil; s = s.outer {
		if d, ok := s.params[name]; ok {
			return d
		}
	}
	return nil
}

func (t *templateScope) inherited() int {
	if t == nil {
		return 0
	}
	return t.total
}

// WithScope returns a copy of c nested in scope.
func (c *Context) WithScope(ctx context.Context, scope *model.Declaration, vis model.Visibility) *Context {
	nc := *c
	nc.Scope = scope
	nc.Visibility = vis
	if scope == nil {
		return &nc
	}
	if t := scope.Template(); t != nil && len(t.Params) > 0 {
		ts := &templateScope{params: make(map[string]*model.Declaration, len(t.Params)), total: t.TotalParams(), outer: c.tmpl}
		for _, u := range t.Params {
			if p := c.Session.Repo.Resolve(ctx, u); p != nil {
				ts.params[p.Name] = p
			}
		}
		nc.tmpl = ts
	}
	return &nc
}

func (c *Context) scopeDecl() *model.Declaration {
	if c.Scope != nil {
		return c.Scope
	}
	return c.Session.Global()
}

func (c *Context) scopeName() string {
	if c.Scope == nil {
		return ""
	}
	return c.Scope.QualifiedName
}

func (c *Context) scopeRef(scope *model.Declaration) *model.Ref {
	if scope == nil {
		scope = c.scopeDecl()
	}
	return model.DirectRef(c.Session.Repo, scope)
}

// position locates n for diagnostics.
func (c *Context) position(n *ast.Node) types.Position {
	if n == nil {
		return types.Position{Line: 1, Column: 1}
	}
	if n.Pos.Line > 0 {
		return n.Pos
	}
	return c.Lines.Position(n.Start)
}

func (c *Context) parseError(n *ast.Node, cause error) error {
	token := ""
	if n != nil {
		token = firstLeafText(n)
	}
	return cxerrors.NewParseError(c.File, c.Path, c.position(n), token, cause)
}

// begin gives d its temporary identity so that nested resolution can refer
// to it before it is complete.
func (c *Context) begin(d *model.Declaration) {
	if c.Global {
		c.Session.Repo.Register(d)
		return
	}
	d.SetUID(model.SelfUID(d))
}

// abort undoes begin after a failed construction.
func (c *Context) abort(d *model.Declaration) {
	if c.Global {
		c.Session.Repo.Unregister(d)
		return
	}
	d.SetUID(model.NoUID)
}

// finish publishes d to the repository, the project registry and the file
// index.
func (c *Context) finish(d *model.Declaration) {
	if c.Global {
		c.Session.Repo.Commit(d)
		c.Session.Registry().RegisterDeclaration(d)
	}
	if c.Index != nil {
		c.Index.AddNameReference(d.Name, d)
	}
	debug.LogBuild("%s %s [%s]", d.Kind, d.QualifiedName, d.UID())
}

// spanOf computes the offsets of n. When parsing broke off inside n the end
// falls back to the last child that still has structure.
func spanOf(n *ast.Node) (int, int) {
	start, end := n.Start, n.End
	if n.Truncated() {
		if lnt := n.LastNonTerminal(); lnt != nil {
			end = lnt.End
		}
	}
	return start, end
}

func qualify(scope, name string) string {
	if scope == "" {
		return name
	}
	if name == "" {
		return scope
	}
	return scope + "::" + name
}

// rawName turns a qualified name into the dotted nested-name form.
func rawName(qualified string) string {
	return strings.ReplaceAll(qualified, "::", ".")
}

func firstLeafText(n *ast.Node) string {
	var text string
	n.Walk(func(c *ast.Node) bool {
		if text != "" {
			return false
		}
		if c.IsLeaf() && !c.Missing && c.Type != ast.EOF {
			text = c.Text
			return false
		}
		return true
	})
	return text
}

package builder

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/cxxmodel/internal/ast"
	"github.com/standardbeagle/cxxmodel/internal/model"
	"github.com/standardbeagle/cxxmodel/internal/parser"
	"github.com/standardbeagle/cxxmodel/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testFile types.FileID = 7

var ctxBG = context.Background()

// registry is a project registry keyed by qualified name.
type registry struct {
	mu    sync.Mutex
	decls map[string][]*model.Declaration
}

func newRegistry() *registry {
	return &registry{decls: make(map[string][]*model.Declaration)}
}

func (r *registry) RegisterDeclaration(d *model.Declaration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decls[d.QualifiedName] = append(r.decls[d.QualifiedName], d)
}

func (r *registry) UnregisterDeclaration(d *model.Declaration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.decls[d.QualifiedName]
	for i, x := range list {
		if x == d {
			r.decls[d.QualifiedName] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func (r *registry) FindClassifier(_ context.Context, q string) *model.Declaration {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.decls[q] {
		if d.Kind.IsClassifier() {
			return d
		}
	}
	return nil
}

func (r *registry) FindDeclarations(_ context.Context, q string) []*model.Declaration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.Declaration(nil), r.decls[q]...)
}

func (r *registry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, list := range r.decls {
		n += len(list)
	}
	return n
}

// nameIndex records name references like the project file index.
type nameIndex struct {
	mu    sync.Mutex
	names map[string]int
}

func (i *nameIndex) AddNameReference(name string, _ *model.Declaration) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.names == nil {
		i.names = make(map[string]int)
	}
	i.names[name]++
}

type fixture struct {
	s   *model.Session
	reg *registry
	idx *nameIndex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := newRegistry()
	s, err := model.NewSession(model.Options{Registry: reg})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return &fixture{s: s, reg: reg, idx: &nameIndex{}}
}

// context returns a build context for the test file. Global selects
// repository registration.
func (f *fixture) context(global bool) *Context {
	return &Context{
		Session: f.s,
		File:    testFile,
		Path:    "test.cpp",
		Index:   f.idx,
		Global:  global,
	}
}

// parse runs the tree-sitter front end over src.
func (f *fixture) parse(t *testing.T, bc *Context, src string) *ast.Node {
	t.Helper()
	p, err := parser.New()
	require.NoError(t, err)
	defer p.Close()
	root, err := p.Parse(ctxBG, []byte(src))
	require.NoError(t, err)
	bc.Lines = types.NewLineIndex([]byte(src))
	return root
}

// walk parses src and builds it in global mode. Build errors fail the
// test.
func (f *fixture) walk(t *testing.T, src string) []*model.Declaration {
	t.Helper()
	bc := f.context(true)
	decls, err := Walk(ctxBG, f.parse(t, bc, src), bc)
	require.NoError(t, err)
	return decls
}

// find returns the only declaration with the qualified name and kind.
func find(t *testing.T, decls []*model.Declaration, kind model.Kind, qualified string) *model.Declaration {
	t.Helper()
	var found *model.Declaration
	for _, d := range decls {
		if d.Kind == kind && d.QualifiedName == qualified {
			require.Nil(t, found, "duplicate %s %s", kind, qualified)
			found = d
		}
	}
	require.NotNil(t, found, "no %s %s", kind, qualified)
	return found
}

// class builds an empty class named name in bc and returns a context for
// its members.
func (f *fixture) class(t *testing.T, bc *Context, name string) (*model.Declaration, *Context) {
	t.Helper()
	n := buildClass(name)
	d, err := NewClass(ctxBG, n, bc)
	require.NoError(t, err)
	return d, bc.WithScope(ctxBG, d, model.VisibilityPublic)
}

package model

import (
	"context"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/cxxmodel/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testFile types.FileID = 1

var ctxBG = context.Background()

func unsafeStringData(s string) *byte {
	return unsafe.StringData(s)
}

// mapRegistry is a minimal project registry keyed by qualified name.
type mapRegistry struct {
	mu    sync.Mutex
	decls map[string][]*Declaration
}

func newMapRegistry() *mapRegistry {
	return &mapRegistry{decls: make(map[string][]*Declaration)}
}

func (r *mapRegistry) RegisterDeclaration(d *Declaration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decls[d.QualifiedName] = append(r.decls[d.QualifiedName], d)
}

func (r *mapRegistry) UnregisterDeclaration(d *Declaration) {
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

func (r *mapRegistry) FindClassifier(_ context.Context, q string) *Declaration {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.decls[q] {
		if d.Kind.IsClassifier() {
			return d
		}
	}
	return nil
}

func (r *mapRegistry) FindDeclarations(_ context.Context, q string) []*Declaration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Declaration(nil), r.decls[q]...)
}

type fixture struct {
	s   *Session
	reg *mapRegistry
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	reg := newMapRegistry()
	opts.Registry = reg
	s, err := NewSession(opts)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return &fixture{s: s, reg: reg}
}

// add registers, commits and publishes d in the global namespace unless
// it already has a scope.
func (f *fixture) add(d *Declaration) *Declaration {
	if d.File == types.NoFile {
		d.File = testFile
	}
	if d.Scope == nil {
		d.Scope = DirectRef(f.s.Repo, f.s.Global())
	}
	if d.QualifiedName == "" {
		d.QualifiedName = d.Name
	}
	if d.RawName == "" {
		d.RawName = d.Name
	}
	f.s.Repo.Register(d)
	f.s.Repo.Commit(d)
	f.reg.RegisterDeclaration(d)
	return d
}

func (f *fixture) variable(name string, typ Type) *Declaration {
	return f.add(&Declaration{Kind: KindVariable, Name: name, Data: &VariableData{Type: typ}})
}

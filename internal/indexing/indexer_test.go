package indexing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/cxxmodel/internal/config"
	"github.com/standardbeagle/cxxmodel/internal/model"
	"github.com/standardbeagle/cxxmodel/internal/project"
	"github.com/standardbeagle/cxxmodel/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var ctxBG = context.Background()

type harness struct {
	root string
	cfg  *config.Config
	p    *project.Project
	ix   *Indexer
}

func write(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newHarness(t *testing.T, files map[string]string) *harness {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		write(t, root, name, content)
	}
	cfg := config.Default(root)
	cfg.Performance.ParallelFileWorkers = 2
	cfg.Index.WatchDebounceMs = 20
	require.NoError(t, config.ValidateConfig(cfg))

	p := project.New()
	s, err := OpenSession(cfg, p)
	require.NoError(t, err)
	ix := New(cfg, s, p)
	t.Cleanup(func() {
		ix.Close()
		s.Close()
	})
	return &harness{root: root, cfg: cfg, p: p, ix: ix}
}

func (h *harness) path(name string) string {
	return filepath.Join(h.root, name)
}

const header = `namespace n {
struct A {
  void f();
  int x;
};
}
`

const source = `#include "a.h"
#include <vector>
void n::A::f() {}
int counter = 0;
`

func TestIndexAll(t *testing.T) {
	h := newHarness(t, map[string]string{
		"include/a.h":   header,
		"src/a.cpp":     "#include \"../include/a.h\"\nvoid n::A::f() {}\n",
		"build/gen.cpp": "int generated;\n",
		"notes.txt":     "int not_code;\n",
	})

	require.NoError(t, h.ix.IndexAll(ctxBG))

	a := h.p.FindClassifier(ctxBG, "n::A")
	require.NotNil(t, a)
	fs := h.p.FindDeclarations(ctxBG, "n::A::f")
	require.Len(t, fs, 2)
	for _, f := range fs {
		assert.Equal(t, model.KindMethod, f.Kind)
		assert.Same(t, a, f.ScopeDecl(ctxBG))
	}
	assert.Nil(t, h.p.FindDeclarations(ctxBG, "generated"))
	assert.Nil(t, h.p.FindDeclarations(ctxBG, "not_code"))

	st := h.ix.Stats()
	assert.Equal(t, 2, st.Files)
	assert.EqualValues(t, 2, st.Parsed)
	assert.Zero(t, st.Failed)
}

func TestIndexFile_Includes(t *testing.T) {
	h := newHarness(t, map[string]string{"a.h": header, "a.cpp": source})
	require.NoError(t, h.ix.IndexAll(ctxBG))

	hdr, ok := h.p.Lookup(h.path("a.h"))
	require.True(t, ok)
	src, ok := h.p.Lookup(h.path("a.cpp"))
	require.True(t, ok)

	targets := map[string]*model.IncludeData{}
	system := false
	for _, d := range src.Declarations() {
		if d.Kind == model.KindInclude {
			inc := d.Data.(*model.IncludeData)
			targets[inc.Path] = inc
			if inc.Path == "vector" {
				system = d.Flags.Has(model.FlagSystem)
			}
		}
	}
	require.Len(t, targets, 2)
	assert.Equal(t, hdr.ID, targets["a.h"].Target)
	assert.True(t, system)
	assert.Equal(t, types.NoFile, targets["vector"].Target)
}

func TestIndexFile_FastReparse(t *testing.T) {
	h := newHarness(t, map[string]string{"a.h": header})
	path := h.path("a.h")

	out, err := h.ix.IndexFile(ctxBG, path)
	require.NoError(t, err)
	assert.Equal(t, OutcomeParsed, out)
	old := h.p.FindClassifier(ctxBG, "n::A")
	require.NotNil(t, old)
	registered := h.p.Len()

	out, err = h.ix.IndexFile(ctxBG, path)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFastReparsed, out)
	a := h.p.FindClassifier(ctxBG, "n::A")
	require.NotNil(t, a)
	assert.NotSame(t, old, a)
	assert.Equal(t, registered, h.p.Len())
	assert.EqualValues(t, 1, h.ix.Stats().FastReparsed)

	h.cfg.Model.FastReparse = false
	out, err = h.ix.IndexFile(ctxBG, path)
	require.NoError(t, err)
	assert.Equal(t, OutcomeParsed, out)
}

func TestIndexFile_ChangedContent(t *testing.T) {
	h := newHarness(t, map[string]string{"a.h": header})
	path := h.path("a.h")
	_, err := h.ix.IndexFile(ctxBG, path)
	require.NoError(t, err)

	write(t, h.root, "a.h", "namespace n { struct B {}; }\n")
	out, err := h.ix.Reparse(ctxBG, path)
	require.NoError(t, err)
	assert.Equal(t, OutcomeParsed, out)
	assert.Nil(t, h.p.FindClassifier(ctxBG, "n::A"))
	assert.NotNil(t, h.p.FindClassifier(ctxBG, "n::B"))
}

func TestRemoveAndReparseDeleted(t *testing.T) {
	h := newHarness(t, map[string]string{"a.h": header, "b.cpp": "int b;\n"})
	require.NoError(t, h.ix.IndexAll(ctxBG))

	assert.True(t, h.ix.Remove(ctxBG, h.path("b.cpp")))
	assert.Nil(t, h.p.FindDeclarations(ctxBG, "b"))
	assert.False(t, h.ix.Remove(ctxBG, h.path("b.cpp")))

	require.NoError(t, os.Remove(h.path("a.h")))
	out, err := h.ix.Reparse(ctxBG, h.path("a.h"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, out)
	assert.Nil(t, h.p.FindClassifier(ctxBG, "n::A"))
	assert.Zero(t, h.p.Len())
}

func TestIndexAll_Cancelled(t *testing.T) {
	h := newHarness(t, map[string]string{"a.h": header})
	ctx, cancel := context.WithCancel(ctxBG)
	cancel()
	assert.ErrorIs(t, h.ix.IndexAll(ctx), context.Canceled)
}

func TestOpenSession_SQLite(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default(root)
	cfg.Storage.Backend = "sqlite"
	p := project.New()
	s, err := OpenSession(cfg, p)
	require.NoError(t, err)
	defer s.Close()
	assert.FileExists(t, cfg.StoragePath())
	assert.Same(t, p, s.Registry())
}

func TestWatch(t *testing.T) {
	h := newHarness(t, map[string]string{"a.h": header})
	require.NoError(t, h.ix.IndexAll(ctxBG))

	ctx, cancel := context.WithCancel(ctxBG)
	done := make(chan error, 1)
	go func() { done <- h.ix.Watch(ctx) }()

	require.Eventually(t, func() bool {
		write(t, h.root, "w.cpp", "int watched;\n")
		return h.p.FindDeclarations(ctxBG, "watched") != nil
	}, 5*time.Second, 100*time.Millisecond)

	require.NoError(t, os.Remove(h.path("w.cpp")))
	require.Eventually(t, func() bool {
		return h.p.FindDeclarations(ctxBG, "watched") == nil
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/cxxmodel/internal/mcp"
)

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"include/shape.h": "namespace geo {\nstruct Shape {\n  virtual double area() const = 0;\n};\n}\n",
		"src/shape.cpp":   "#include \"shape.h\"\nint registry_size = 0;\n",
		".cxxmodel.kdl":   "index {\n  include_dirs \"include\"\n}\n",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	t.Setenv("HOME", t.TempDir())
	return root
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"cxxmodel"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestIndexCommand(t *testing.T) {
	root := writeProject(t)
	out, _, err := run(t, "--root", root, "index", "--json")
	require.NoError(t, err)

	var st map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, root, st["root"])
	assert.EqualValues(t, 2, st["files"])
	assert.EqualValues(t, 0, st["failed"])

	out, _, err = run(t, "-r", root, "index")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 2 files")
}

func TestLookupCommand(t *testing.T) {
	root := writeProject(t)

	out, _, err := run(t, "--root", root, "lookup", "--json", "geo::Shape::area")
	require.NoError(t, err)
	var views []mcp.DeclarationView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "method", views[0].Kind)
	assert.Equal(t, "geo::Shape", views[0].Scope)
	assert.Subset(t, views[0].Flags, []string{"virtual", "const", "pure"})

	out, _, err = run(t, "--root", root, "lookup", "geo::Shape")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(root, "include", "shape.h")+":2:")
	assert.Contains(t, out, "struct")

	_, _, err = run(t, "--root", root, "lookup", "geo::Shap")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean geo::Shape")

	_, _, err = run(t, "--root", root, "lookup")
	assert.Error(t, err)
}

func TestDumpCommand(t *testing.T) {
	root := writeProject(t)

	out, _, err := run(t, "--root", root, "dump", "--json", "--kind", "include", "src/shape.cpp")
	require.NoError(t, err)
	var views []mcp.DeclarationView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "shape.h", views[0].Include)

	out, _, err = run(t, "--root", root, "dump", filepath.Join(root, "src", "shape.cpp"))
	require.NoError(t, err)
	assert.Contains(t, out, "registry_size")
	assert.Contains(t, out, "variable")

	_, _, err = run(t, "--root", root, "dump", "nope.cpp")
	assert.ErrorContains(t, err, "file not indexed")
}

func TestLoadConfigWithOverrides(t *testing.T) {
	root := writeProject(t)
	out, _, err := run(t, "--root", root, "--exclude", "src/**", "--workers", "3", "--storage", "memory", "index", "--json")
	require.NoError(t, err)
	var st map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.EqualValues(t, 1, st["files"])

	_, _, err = run(t, "--root", root, "--storage", "redis", "index")
	assert.ErrorContains(t, err, "storage.backend")
}

func TestGlobalFlags_HelpAndVersion(t *testing.T) {
	out, _, err := run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "--verbose")

	out, _, err = run(t, "-v")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

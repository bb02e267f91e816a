package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/cxxmodel/internal/config"
	"github.com/standardbeagle/cxxmodel/internal/indexing"
	"github.com/standardbeagle/cxxmodel/internal/project"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var ctxBG = context.Background()

const geoHeader = `namespace geo {
class Vector {
public:
  double length() const;
  int x;
  int y;
};
}
`

const geoSource = `#include "geo.h"
double geo::Vector::length() const { return 0; }
`

func newTestServer(t *testing.T) (*Server, *bytes.Buffer, string) {
	t.Helper()
	root := t.TempDir()
	for name, content := range map[string]string{"geo.h": geoHeader, "geo.cpp": geoSource} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}

	cfg := config.Default(root)
	require.NoError(t, config.ValidateConfig(cfg))
	p := project.New()
	s, err := indexing.OpenSession(cfg, p)
	require.NoError(t, err)
	ix := indexing.New(cfg, s, p)
	t.Cleanup(func() {
		ix.Close()
		s.Close()
	})
	require.NoError(t, ix.IndexAll(ctxBG))

	var logs bytes.Buffer
	return NewServer(p, root, NewWriterLogger(&logs)), &logs, root
}

func call(t *testing.T, handler mcp.ToolHandler, args string) *mcp.CallToolResult {
	t.Helper()
	res, err := handler(ctxBG, &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{
		Arguments: json.RawMessage(args),
	}})
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	return res
}

func decode(t *testing.T, res *mcp.CallToolResult, v interface{}) {
	t.Helper()
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal([]byte(text.Text), v))
}

func TestLookupDeclaration(t *testing.T) {
	s, _, root := newTestServer(t)

	res := call(t, s.handleLookupDeclaration, `{"name":"geo::Vector"}`)
	assert.False(t, res.IsError)
	var resp lookupResponse
	decode(t, res, &resp)
	require.Equal(t, 1, resp.Count)
	v := resp.Declarations[0]
	assert.Equal(t, "class", v.Kind)
	assert.Equal(t, "Vector", v.Name)
	assert.Equal(t, "geo", v.Scope)
	assert.Equal(t, filepath.Join(root, "geo.h"), v.File)
	assert.Regexp(t, `^2:\d+$`, v.Position)
	assert.NotEqual(t, "<none>", v.UID)

	res = call(t, s.handleLookupDeclaration, `{"name":"geo::Vector::length","kind":"method"}`)
	decode(t, res, &resp)
	require.Equal(t, 2, resp.Count)
	for _, m := range resp.Declarations {
		assert.Equal(t, "geo::Vector", m.Scope)
		assert.Contains(t, m.Flags, "const")
		assert.Equal(t, "double", m.Type)
	}
}

func TestLookupDeclaration_Suggestions(t *testing.T) {
	s, logs, _ := newTestServer(t)

	res := call(t, s.handleLookupDeclaration, `{"name":"geo::Vectr","suggestions":2}`)
	assert.True(t, res.IsError)
	var body struct {
		Error       string           `json:"error"`
		Suggestions []suggestionView `json:"suggestions"`
	}
	decode(t, res, &body)
	assert.Contains(t, body.Error, "geo::Vectr")
	require.NotEmpty(t, body.Suggestions)
	assert.LessOrEqual(t, len(body.Suggestions), 2)
	assert.Equal(t, "geo::Vector", body.Suggestions[0].QualifiedName)
	assert.Contains(t, logs.String(), "no match")
}

func TestLookupDeclaration_BadInput(t *testing.T) {
	s, logs, _ := newTestServer(t)
	assert.True(t, call(t, s.handleLookupDeclaration, `{"name":"  "}`).IsError)
	assert.True(t, call(t, s.handleLookupDeclaration, `{"name":`).IsError)
	assert.True(t, call(t, s.handleLookupDeclaration, `{"name":"geo::Vector","kind":"enum"}`).IsError)
	assert.Contains(t, logs.String(), "ERROR: lookup_declaration")
}

func TestFileDeclarations(t *testing.T) {
	s, _, root := newTestServer(t)

	res := call(t, s.handleFileDeclarations, `{"path":"geo.h"}`)
	assert.False(t, res.IsError)
	var resp fileResponse
	decode(t, res, &resp)
	assert.Equal(t, filepath.Join(root, "geo.h"), resp.File)
	assert.False(t, resp.Truncated)
	names := make(map[string]string)
	for _, d := range resp.Declarations {
		names[d.QualifiedName+"/"+d.Kind] = d.Visibility
	}
	assert.Contains(t, names, "geo/namespace")
	assert.Contains(t, names, "geo::Vector/class")
	assert.Equal(t, "public", names["geo::Vector::x/field"])
	assert.Equal(t, "public", names["geo::Vector::length/method"])

	res = call(t, s.handleFileDeclarations, `{"path":"geo.h","kind":"field","max":1}`)
	decode(t, res, &resp)
	assert.Equal(t, 2, resp.Total)
	assert.True(t, resp.Truncated)
	require.Len(t, resp.Declarations, 1)
	assert.Equal(t, "int", resp.Declarations[0].Type)

	res = call(t, s.handleFileDeclarations, `{"path":"`+filepath.ToSlash(filepath.Join(root, "geo.cpp"))+`","kind":"include"}`)
	decode(t, res, &resp)
	require.Len(t, resp.Declarations, 1)
	assert.Equal(t, "geo.h", resp.Declarations[0].Include)
}

func TestFileDeclarations_Errors(t *testing.T) {
	s, _, _ := newTestServer(t)
	assert.True(t, call(t, s.handleFileDeclarations, `{}`).IsError)
	assert.True(t, call(t, s.handleFileDeclarations, `{"path":"missing.h"}`).IsError)
}

func TestRecoverFromPanic(t *testing.T) {
	var logs bytes.Buffer
	s := NewServer(project.New(), t.TempDir(), NewWriterLogger(&logs))
	res, err := s.recoverFromPanic("boom", func() (*mcp.CallToolResult, error) {
		panic("broken")
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, logs.String(), "panic in boom")
}

func TestServer_OverTransport(t *testing.T) {
	s, _, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(ctxBG)
	defer cancel()

	st, ct := mcp.NewInMemoryTransports()
	ss, err := s.server.Connect(ctx, st, nil)
	require.NoError(t, err)
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)

	tools, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"lookup_declaration", "file_declarations"}, names)

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "lookup_declaration",
		Arguments: map[string]any{"name": "geo::Vector::y"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	var resp lookupResponse
	decode(t, res, &resp)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "field", resp.Declarations[0].Kind)

	require.NoError(t, cs.Close())
	require.NoError(t, ss.Wait())
}

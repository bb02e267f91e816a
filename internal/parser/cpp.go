// Package parser is the C/C++ front end. It parses source text with
// tree-sitter-cpp and lowers the concrete syntax tree into ast.Node so the
// builders never touch cgo-backed nodes.
package parser

import (
	"context"
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"

	"github.com/standardbeagle/cxxmodel/internal/ast"
	"github.com/standardbeagle/cxxmodel/internal/debug"
	"github.com/standardbeagle/cxxmodel/internal/types"
)

// Extensions handled by the C/C++ grammar.
var Extensions = []string{".c", ".cc", ".cpp", ".cxx", ".h", ".hh", ".hpp", ".hxx", ".inl"}

// Parser wraps one tree-sitter parser. A tree-sitter parser is not safe for
// concurrent use, so Parse serializes callers; indexing workers each take
// their own Parser from a Pool.
type Parser struct {
	mu sync.Mutex
	ts *tree_sitter.Parser
}

// New creates a C++ parser.
func New() (*Parser, error) {
	ts := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(tree_sitter_cpp.Language())
	if err := ts.SetLanguage(language); err != nil {
		ts.Close()
		return nil, fmt.Errorf("failed to set C++ language: %w", err)
	}
	return &Parser{ts: ts}, nil
}

// Close releases the native parser.
func (p *Parser) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ts != nil {
		p.ts.Close()
		p.ts = nil
	}
}

// Parse parses content and returns a translation_unit whose last child is
// the ast.EOF tag. Comments are dropped.
func (p *Parser) Parse(ctx context.Context, content []byte) (root *ast.Node, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ts == nil {
		return nil, fmt.Errorf("parser is closed")
	}

	defer func() {
		if r := recover(); r != nil {
			debug.LogIndex("TREE-SITTER PANIC: %v", r)
			root, err = nil, fmt.Errorf("tree-sitter panic: %v", r)
		}
	}()

	// tree-sitter may hold on to the input; parse a private copy.
	buf := make([]byte, len(content))
	copy(buf, content)

	tree := p.ts.Parse(buf, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned no tree")
	}
	defer tree.Close()

	root = lower(tree.RootNode(), buf, "")
	end := &ast.Node{Type: ast.EOF, Start: len(buf), End: len(buf)}
	end.Pos = types.NewLineIndex(buf).Position(len(buf))
	root.Append(end)
	return root, nil
}

func lower(n *tree_sitter.Node, src []byte, field string) *ast.Node {
	pt := n.StartPosition()
	out := &ast.Node{
		Type:    n.Kind(),
		Field:   field,
		Named:   n.IsNamed(),
		Missing: n.IsMissing(),
		Start:   int(n.StartByte()),
		End:     int(n.EndByte()),
		Pos:     types.Position{Line: int(pt.Row) + 1, Column: int(pt.Column) + 1},
	}
	count := n.ChildCount()
	if count == 0 {
		if !out.Missing {
			out.Text = n.Utf8Text(src)
		}
		return out
	}
	for i := uint(0); i < count; i++ {
		c := n.Child(i)
		if c == nil || c.Kind() == "comment" {
			continue
		}
		out.Append(lower(c, src, n.FieldNameForChild(uint32(i))))
	}
	return out
}

// Pool hands out parsers to concurrent workers.
type Pool struct {
	mu   sync.Mutex
	idle []*Parser
}

// Get returns an idle parser or creates one.
func (p *Pool) Get() (*Parser, error) {
	p.mu.Lock()
	if k := len(p.idle); k > 0 {
		ps := p.idle[k-1]
		p.idle = p.idle[:k-1]
		p.mu.Unlock()
		return ps, nil
	}
	p.mu.Unlock()
	return New()
}

// Put returns a parser to the pool.
func (p *Pool) Put(ps *Parser) {
	if ps == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idle = append(p.idle, ps)
}

// Close releases every idle parser.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ps := range p.idle {
		ps.Close()
	}
	p.idle = nil
}

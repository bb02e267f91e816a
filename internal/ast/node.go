// Package ast is the syntax tree the model builders consume. Node kinds use
// the tree-sitter-cpp grammar names; anonymous tokens carry their own text as
// their kind ("(", "=", "delete").
package ast

import (
	"strings"

	"github.com/standardbeagle/cxxmodel/internal/types"
)

// EOF tags the synthetic leaf appended after the last top-level node.
const EOF = "end"

// Node is one syntax tree node. Trees are built once by the parser (or by
// astbuild in tests) and are read-only afterwards.
type Node struct {
	Type    string
	Text    string // token text for leaves
	Field   string // field name under the parent, if any
	Named   bool
	Missing bool // inserted by error recovery, zero width
	Start   int
	End     int
	Pos     types.Position

	parent   *Node
	next     *Node
	children []*Node
}

// New creates an interior node and links the children under it.
func New(typ string, children ...*Node) *Node {
	n := &Node{Type: typ, Named: true}
	n.Append(children...)
	return n
}

// Leaf creates a named leaf such as an identifier.
func Leaf(typ, text string) *Node {
	return &Node{Type: typ, Text: text, Named: true}
}

// Token creates an anonymous leaf whose kind is its text.
func Token(text string) *Node {
	return &Node{Type: text, Text: text}
}

// Append links children at the end of n.
func (n *Node) Append(children ...*Node) {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.parent = n
		if k := len(n.children); k > 0 {
			n.children[k-1].next = c
		}
		n.children = append(n.children, c)
	}
}

func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

func (n *Node) Next() *Node {
	if n == nil {
		return nil
	}
	return n.next
}

func (n *Node) FirstChild() *Node {
	if n == nil || len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

func (n *Node) LastChild() *Node {
	if n == nil || len(n.children) == 0 {
		return nil
	}
	return n.children[len(n.children)-1]
}

// Children returns the ordered children. The slice must not be modified.
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	return n.children
}

func (n *Node) ChildCount() int {
	if n == nil {
		return 0
	}
	return len(n.children)
}

func (n *Node) IsLeaf() bool {
	return n != nil && len(n.children) == 0
}

func (n *Node) Is(kinds ...string) bool {
	if n == nil {
		return false
	}
	for _, k := range kinds {
		if n.Type == k {
			return true
		}
	}
	return false
}

// ChildByField returns the first child stored under field.
func (n *Node) ChildByField(field string) *Node {
	for _, c := range n.Children() {
		if c.Field == field {
			return c
		}
	}
	return nil
}

// ChildOfType returns the first direct child of one of the given kinds.
func (n *Node) ChildOfType(kinds ...string) *Node {
	for _, c := range n.Children() {
		if c.Is(kinds...) {
			return c
		}
	}
	return nil
}

// Find returns the first node of one of the given kinds in a pre-order
// walk of n's subtree, n included.
func (n *Node) Find(kinds ...string) *Node {
	if n == nil {
		return nil
	}
	if n.Is(kinds...) {
		return n
	}
	for _, c := range n.children {
		if f := c.Find(kinds...); f != nil {
			return f
		}
	}
	return nil
}

// Ancestor returns the nearest proper ancestor of one of the given kinds.
func (n *Node) Ancestor(kinds ...string) *Node {
	for p := n.Parent(); p != nil; p = p.parent {
		if p.Is(kinds...) {
			return p
		}
	}
	return nil
}

// Walk visits n's subtree in pre-order. Returning false from fn skips the
// children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// LastNonTerminal returns the last child that has children of its own.
func (n *Node) LastNonTerminal() *Node {
	ch := n.Children()
	for i := len(ch) - 1; i >= 0; i-- {
		if len(ch[i].children) > 0 {
			return ch[i]
		}
	}
	return nil
}

// Truncated reports whether parsing broke off inside n: its last child is
// the end-of-input tag or a token inserted by error recovery.
func (n *Node) Truncated() bool {
	last := n.LastChild()
	return last != nil && (last.Type == EOF || last.Missing)
}

// Span returns the node offsets.
func (n *Node) Span() types.Span {
	if n == nil {
		return types.Span{}
	}
	return types.Span{Start: n.Start, End: n.End}
}

// Render returns the canonical text of the subtree: leaf texts joined with a
// single space where two word tokens meet and after commas.
func Render(n *Node) string {
	if n == nil {
		return ""
	}
	if n.IsLeaf() {
		return n.Text
	}
	var sb strings.Builder
	var prev string
	n.Walk(func(c *Node) bool {
		if !c.IsLeaf() || c.Missing || c.Type == EOF || c.Text == "" {
			return true
		}
		if needsSpace(prev, c.Text) {
			sb.WriteByte(' ')
		}
		sb.WriteString(c.Text)
		prev = c.Text
		return true
	})
	return sb.String()
}

func needsSpace(prev, next string) bool {
	if prev == "" {
		return false
	}
	if prev == "," {
		return true
	}
	return isWordByte(prev[len(prev)-1]) && isWordByte(next[0])
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= 0x80
}

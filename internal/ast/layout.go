package ast

import (
	"strings"

	"github.com/standardbeagle/cxxmodel/internal/types"
)

// Layout assigns offsets and positions to a tree built in memory, as if its
// leaves had been written on one line separated by single spaces. It
// returns that source text. Missing tokens and the end tag get zero width.
func Layout(root *Node) string {
	var sb strings.Builder
	offset := 0
	var visit func(n *Node)
	visit = func(n *Node) {
		if n.IsLeaf() {
			if sb.Len() > 0 && !n.Missing && n.Type != EOF {
				sb.WriteByte(' ')
				offset++
			}
			n.Start = offset
			if !n.Missing && n.Type != EOF {
				sb.WriteString(n.Text)
				offset += len(n.Text)
			}
			n.End = offset
			n.Pos = types.Position{Line: 1, Column: n.Start + 1}
			return
		}
		for _, c := range n.children {
			visit(c)
		}
		n.Start = n.children[0].Start
		n.End = n.children[len(n.children)-1].End
		n.Pos = n.children[0].Pos
	}
	visit(root)
	return sb.String()
}

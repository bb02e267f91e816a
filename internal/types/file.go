package types

import "fmt"

// FileID identifies a source file within one analysis session.
// Zero is reserved for "no file" (built-ins, the global namespace).
type FileID uint32

// NoFile marks declarations that are not backed by a source file.
const NoFile FileID = 0

// Position is a 1-based line/column pair.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a half-open byte range [Start, End) in a file.
type Span struct {
	Start int
	End   int
}

// Contains reports whether offset lies inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Len returns the width of the span, or zero for inverted spans.
func (s Span) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// LineIndex maps byte offsets to positions. It is built once per file
// content and shared by everything that reports locations.
type LineIndex struct {
	starts []int
}

// NewLineIndex records the offset of every line start in content.
func NewLineIndex(content []byte) *LineIndex {
	starts := make([]int, 1, len(content)/32+1)
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts}
}

// Position converts a byte offset to a 1-based line and column.
func (li *LineIndex) Position(offset int) Position {
	if li == nil || len(li.starts) == 0 || offset < 0 {
		return Position{Line: 1, Column: 1}
	}
	lo, hi := 0, len(li.starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if li.starts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return Position{Line: lo + 1, Column: offset - li.starts[lo] + 1}
}

// LineCount returns the number of lines recorded.
func (li *LineIndex) LineCount() int {
	if li == nil {
		return 0
	}
	return len(li.starts)
}

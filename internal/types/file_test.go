package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineIndex_Position(t *testing.T) {
	content := []byte("int a;\nint b;\n\nclass C;")
	li := NewLineIndex(content)

	tests := []struct {
		name   string
		offset int
		want   Position
	}{
		{"file start", 0, Position{1, 1}},
		{"first line middle", 4, Position{1, 5}},
		{"second line start", 7, Position{2, 1}},
		{"empty line", 14, Position{3, 1}},
		{"last line", 21, Position{4, 7}},
		{"negative", -3, Position{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, li.Position(tt.offset))
		})
	}
	assert.Equal(t, 4, li.LineCount())
}

func TestSpan(t *testing.T) {
	s := Span{Start: 10, End: 20}
	assert.True(t, s.Contains(10))
	assert.False(t, s.Contains(20))
	assert.Equal(t, 10, s.Len())
	assert.Equal(t, 0, Span{Start: 5, End: 1}.Len())
}

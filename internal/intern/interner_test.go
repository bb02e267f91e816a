package intern

import (
	"fmt"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sameBacking(a, b string) bool {
	return unsafe.StringData(a) == unsafe.StringData(b)
}

func TestIntern_Canonical(t *testing.T) {
	in := New()

	src := []byte("std::vector")
	first := in.Intern(QualifiedName, string(src))
	second := in.Intern(QualifiedName, "std::"+"vector")

	assert.Equal(t, "std::vector", first)
	assert.True(t, sameBacking(first, second), "interned copies must share storage")
}

func TestIntern_CategoriesAreIndependent(t *testing.T) {
	in := New()
	in.Intern(Name, "size")
	in.Intern(Name, "size")
	in.Intern(FileText, "size")

	stats := in.Stats()
	require.Len(t, stats, int(categoryCount))
	assert.Equal(t, int64(1), stats[Name].Entries)
	assert.Equal(t, int64(1), stats[Name].Hits)
	assert.Equal(t, int64(1), stats[FileText].Entries)
	assert.Equal(t, int64(0), stats[QualifiedName].Entries)
}

func TestIntern_Empty(t *testing.T) {
	in := New()
	assert.Equal(t, "", in.Intern(Name, ""))
	assert.Equal(t, int64(0), in.Stats()[Name].Lookups)
}

func TestInternAll(t *testing.T) {
	in := New()
	assert.Nil(t, in.InternAll(Name, nil))

	list := in.InternAll(Name, []string{"a", "b", "a"})
	assert.Equal(t, []string{"a", "b", "a"}, list)
	assert.True(t, sameBacking(list[0], list[2]))
}

func TestIntern_Concurrent(t *testing.T) {
	in := New()
	var wg sync.WaitGroup
	results := make([][]string, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				results[g] = append(results[g], in.Intern(Name, fmt.Sprintf("n%d", i)))
			}
		}(g)
	}
	wg.Wait()

	for g := 1; g < 8; g++ {
		for i := range results[g] {
			assert.True(t, sameBacking(results[0][i], results[g][i]))
		}
	}
	assert.Equal(t, int64(200), in.Stats()[Name].Entries)
}

func TestCategory_String(t *testing.T) {
	assert.Equal(t, "name", Name.String())
	assert.Equal(t, "qualified-name", QualifiedName.String())
	assert.Equal(t, "file-text", FileText.String())
	assert.Equal(t, "default", Default.String())
}

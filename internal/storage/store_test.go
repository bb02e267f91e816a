package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	lite, err := OpenSQLite(filepath.Join(t.TempDir(), "model.db"))
	require.NoError(t, err)
	t.Cleanup(func() { lite.Close() })
	return map[string]Store{
		BackendMemory: NewMemory(),
		BackendSQLite: lite,
	}
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "DB")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put(ctx, "DB", 1, []byte{1, 2, 3}))
			require.NoError(t, s.Put(ctx, "DC", 1, []byte{4}))
			require.NoError(t, s.Put(ctx, "DD", 2, []byte{5}))

			got, err := s.Get(ctx, "DB")
			require.NoError(t, err)
			assert.Equal(t, []byte{1, 2, 3}, got)

			require.NoError(t, s.Put(ctx, "DB", 1, []byte{9}))
			got, err = s.Get(ctx, "DB")
			require.NoError(t, err)
			assert.Equal(t, []byte{9}, got, "put overwrites")

			n, err := s.Len(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			removed, err := s.DeleteFile(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, 2, removed)

			require.NoError(t, s.Delete(ctx, "DD"))
			n, err = s.Len(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, n)
		})
	}
}

func TestMemory_PutCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte{1}
	require.NoError(t, m.Put(ctx, "k", 0, buf))
	buf[0] = 7
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, got)
}

func TestOpen(t *testing.T) {
	s, err := Open("", "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	_, err = Open("redis", "")
	assert.Error(t, err)

	_, err = Open(BackendSQLite, "")
	assert.Error(t, err)
}

// Package storage is the identity store: a key/value store of encoded
// declaration records keyed by the text form of their identity token.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/standardbeagle/cxxmodel/internal/types"
)

// ErrNotFound is returned by Get for keys that were never written or have
// been deleted.
var ErrNotFound = errors.New("record not found")

// Store persists evicted declarations. Implementations are safe for
// concurrent use.
type Store interface {
	Put(ctx context.Context, key string, file types.FileID, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// DeleteFile drops every record written for file and returns how many
	// were removed.
	DeleteFile(ctx context.Context, file types.FileID) (int, error)
	Len(ctx context.Context) (int, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Open creates a store for the configured backend.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

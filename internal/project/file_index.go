package project

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/cxxmodel/internal/debug"
	"github.com/standardbeagle/cxxmodel/internal/model"
	"github.com/standardbeagle/cxxmodel/internal/types"
)

// FileIndex is the content index of one file: its declarations in creation
// order, a name lookup over them and the hash of the content they were
// built from.
type FileIndex struct {
	ID   types.FileID
	Path string

	mu     sync.RWMutex
	hash   uint64
	parsed bool
	decls  []*model.Declaration
	names  map[string][]*model.Declaration
	lines  *types.LineIndex
}

func newFileIndex(id types.FileID, path string) *FileIndex {
	return &FileIndex{ID: id, Path: path, names: make(map[string][]*model.Declaration)}
}

// AddNameReference records d under name. Builders call it once per
// finished declaration, so the declaration list keeps creation order.
func (fi *FileIndex) AddNameReference(name string, d *model.Declaration) {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	fi.decls = append(fi.decls, d)
	fi.names[name] = append(fi.names[name], d)
}

// SetContent records the content the next build works from and reports
// whether it differs from the previous build.
func (fi *FileIndex) SetContent(content []byte) bool {
	h := xxhash.Sum64(content)
	fi.mu.Lock()
	defer fi.mu.Unlock()
	changed := !fi.parsed || h != fi.hash
	fi.hash = h
	fi.parsed = true
	fi.lines = types.NewLineIndex(content)
	return changed
}

// Unchanged reports whether content hashes to what the file was last built
// from.
func (fi *FileIndex) Unchanged(content []byte) bool {
	h := xxhash.Sum64(content)
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return fi.parsed && fi.hash == h
}

// Hash is the xxhash of the content last built from.
func (fi *FileIndex) Hash() uint64 {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return fi.hash
}

// Lines is the line table of the content last built from.
func (fi *FileIndex) Lines() *types.LineIndex {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return fi.lines
}

// Declarations returns the declarations of the file in creation order.
func (fi *FileIndex) Declarations() []*model.Declaration {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	out := make([]*model.Declaration, len(fi.decls))
	copy(out, fi.decls)
	return out
}

// Named returns the declarations of the file with the simple name.
func (fi *FileIndex) Named(name string) []*model.Declaration {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	list := fi.names[name]
	out := make([]*model.Declaration, len(list))
	copy(out, list)
	return out
}

// Len counts the declarations of the file.
func (fi *FileIndex) Len() int {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return len(fi.decls)
}

// Dispose withdraws every declaration of the file from the registry and
// the repository and empties the index. The content hash is kept so that a
// following reparse can detect unchanged content.
func (fi *FileIndex) Dispose(ctx context.Context, s *model.Session, reg model.Registry) {
	fi.mu.Lock()
	decls := fi.decls
	fi.decls = nil
	fi.names = make(map[string][]*model.Declaration)
	fi.mu.Unlock()

	// innermost first, so scopes outlive their members
	for i := len(decls) - 1; i >= 0; i-- {
		d := decls[i]
		if reg != nil {
			reg.UnregisterDeclaration(d)
		}
		s.Repo.Remove(ctx, d.UID())
	}
	debug.LogIndex("disposed %d declarations of %s", len(decls), fi.Path)
}

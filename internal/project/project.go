// Package project holds the project-wide view of a model session: the
// registry of live declarations by qualified name and the per-file content
// indexes that own them.
package project

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/cxxmodel/internal/debug"
	"github.com/standardbeagle/cxxmodel/internal/model"
	"github.com/standardbeagle/cxxmodel/internal/types"
)

// DefaultSuggestThreshold is the minimum Jaro-Winkler similarity for a
// name to be offered by Suggest.
const DefaultSuggestThreshold = 0.8

// Project is the declaration registry of one session. It is safe for
// concurrent use by parser goroutines and readers.
type Project struct {
	mu     sync.RWMutex
	byName map[string][]*model.Declaration
	files  map[types.FileID]*FileIndex
	paths  map[string]types.FileID
	nextID types.FileID

	threshold float64
}

// New creates an empty project.
func New() *Project {
	return &Project{
		byName:    make(map[string][]*model.Declaration),
		files:     make(map[types.FileID]*FileIndex),
		paths:     make(map[string]types.FileID),
		threshold: DefaultSuggestThreshold,
	}
}

// SetSuggestThreshold changes the similarity cut-off of Suggest.
func (p *Project) SetSuggestThreshold(t float64) {
	if t <= 0 || t > 1 {
		return
	}
	p.mu.Lock()
	p.threshold = t
	p.mu.Unlock()
}

// RegisterDeclaration publishes d under its qualified name.
func (p *Project) RegisterDeclaration(d *model.Declaration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byName[d.QualifiedName] = append(p.byName[d.QualifiedName], d)
}

// UnregisterDeclaration withdraws d. Other declarations sharing its
// qualified name stay registered.
func (p *Project) UnregisterDeclaration(d *model.Declaration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	list := p.byName[d.QualifiedName]
	for i, x := range list {
		if x != d {
			continue
		}
		list = append(list[:i:i], list[i+1:]...)
		if len(list) == 0 {
			delete(p.byName, d.QualifiedName)
		} else {
			p.byName[d.QualifiedName] = list
		}
		return
	}
}

// FindClassifier returns the class, struct, union, enum or alias with the
// qualified name. Definitions win over forward declarations.
func (p *Project) FindClassifier(_ context.Context, qualifiedName string) *model.Declaration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var forward *model.Declaration
	for _, d := range p.byName[qualifiedName] {
		if !d.Kind.IsClassifier() {
			continue
		}
		if d.Kind != model.KindForwardClass {
			return d
		}
		if forward == nil {
			forward = d
		}
	}
	return forward
}

// FindDeclarations returns every live declaration with the qualified name
// in registration order.
func (p *Project) FindDeclarations(_ context.Context, qualifiedName string) []*model.Declaration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	list := p.byName[qualifiedName]
	if len(list) == 0 {
		return nil
	}
	out := make([]*model.Declaration, len(list))
	copy(out, list)
	return out
}

// Len counts the registered declarations.
func (p *Project) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for _, list := range p.byName {
		n += len(list)
	}
	return n
}

// Suggestion is a registered name similar to a query.
type Suggestion struct {
	QualifiedName string
	Score         float64
}

// Suggest returns up to limit registered qualified names similar to name,
// best first. A query without "::" is compared against the last component
// of each name.
func (p *Project) Suggest(name string, limit int) []Suggestion {
	if name == "" || limit <= 0 {
		return nil
	}
	qualified := strings.Contains(name, "::")

	p.mu.RLock()
	threshold := p.threshold
	candidates := make([]string, 0, len(p.byName))
	for q := range p.byName {
		candidates = append(candidates, q)
	}
	p.mu.RUnlock()

	var out []Suggestion
	for _, q := range candidates {
		target := q
		if !qualified {
			target = lastComponent(q)
		}
		score := similarity(name, target)
		if score >= threshold {
			out = append(out, Suggestion{QualifiedName: q, Score: score})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].QualifiedName < out[j].QualifiedName
	})
	if len(out) > limit {
		out = out[:limit]
	}
	debug.LogModel("suggest %q: %d of %d names above %.2f", name, len(out), len(candidates), threshold)
	return out
}

func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0
	}
	return float64(score)
}

// lastComponent returns the part of a qualified name after the last "::"
// that is not inside a template argument list.
func lastComponent(q string) string {
	depth := 0
	for i := len(q) - 1; i > 0; i-- {
		switch q[i] {
		case '>':
			depth++
		case '<':
			depth--
		case ':':
			if depth == 0 && q[i-1] == ':' {
				return q[i+1:]
			}
		}
	}
	return q
}

// File returns the index of the file at path, creating it with a fresh
// identity on first use.
func (p *Project) File(path string) *FileIndex {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.paths[path]; ok {
		return p.files[id]
	}
	p.nextID++
	fi := newFileIndex(p.nextID, path)
	p.paths[path] = fi.ID
	p.files[fi.ID] = fi
	return fi
}

// Lookup returns the index of an already known file.
func (p *Project) Lookup(path string) (*FileIndex, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.paths[path]
	if !ok {
		return nil, false
	}
	return p.files[id], true
}

// FileByID returns the index of a file identity.
func (p *Project) FileByID(id types.FileID) (*FileIndex, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	fi, ok := p.files[id]
	return fi, ok
}

// Files lists the known files ordered by identity.
func (p *Project) Files() []*FileIndex {
	p.mu.RLock()
	out := make([]*FileIndex, 0, len(p.files))
	for _, fi := range p.files {
		out = append(out, fi)
	}
	p.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RemoveFile disposes every declaration of the file and forgets it.
func (p *Project) RemoveFile(ctx context.Context, s *model.Session, path string) bool {
	fi, ok := p.Lookup(path)
	if !ok {
		return false
	}
	fi.Dispose(ctx, s, p)
	s.Repo.RemoveFile(ctx, fi.ID)

	p.mu.Lock()
	delete(p.paths, path)
	delete(p.files, fi.ID)
	p.mu.Unlock()
	debug.LogIndex("removed file %d %s", fi.ID, path)
	return true
}

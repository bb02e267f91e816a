package model

import (
	"context"
	"sync"

	"github.com/standardbeagle/cxxmodel/internal/intern"
	"github.com/standardbeagle/cxxmodel/internal/storage"
	"github.com/standardbeagle/cxxmodel/internal/types"
)

// DefaultCacheSize is the number of live declarations kept before the
// least recently used ones are persisted and dropped.
const DefaultCacheSize = 50000

// Options configure a Session.
type Options struct {
	Store     storage.Store // defaults to an in-memory store
	CacheSize int
	Registry  Registry
	// Macros are the user macro bindings, name to body.
	Macros map[string]string
}

// Session is one analysis session: the interner, the repository, the
// built-ins and the registry every builder works against. Sessions are
// independent of each other.
type Session struct {
	Interner *intern.Interner
	Repo     *Repository
	Builtins *Builtins

	mu       sync.RWMutex
	registry Registry
	macros   map[string]string
	global   *Declaration
}

// NewSession creates a session.
func NewSession(opts Options) (*Session, error) {
	in := intern.New()
	s := &Session{
		Interner: in,
		Builtins: newBuiltins(in),
		registry: opts.Registry,
		macros:   make(map[string]string, len(opts.Macros)),
	}
	if s.registry == nil {
		s.registry = nopRegistry{}
	}
	for k, v := range opts.Macros {
		s.macros[k] = v
	}

	store := opts.Store
	if store == nil {
		store = storage.NewMemory()
	}
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	repo, err := newRepository(s, store, size)
	if err != nil {
		return nil, err
	}
	s.Repo = repo

	s.global = &Declaration{
		Kind: KindNamespace,
		Name: "::",
		Data: &NamespaceData{},
		uid:  GlobalUID(),
	}
	return s, nil
}

// Registry returns the project registry.
func (s *Session) Registry() Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry
}

// SetRegistry installs the project registry. It is called once while the
// project is assembled, before any declaration is built.
func (s *Session) SetRegistry(r Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r == nil {
		r = nopRegistry{}
	}
	s.registry = r
}

// Global returns the global namespace.
func (s *Session) Global() *Declaration {
	return s.global
}

// SetMacros replaces the user macro bindings.
func (s *Session) SetMacros(m map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.macros = make(map[string]string, len(m))
	for k, v := range m {
		s.macros[k] = v
	}
}

// UserMacro returns the user or system macro name as seen from file. Its
// body comes from the configuration bindings and is empty when unset.
func (s *Session) UserMacro(file types.FileID, name string) *Declaration {
	s.mu.RLock()
	body := s.macros[name]
	s.mu.RUnlock()
	name = s.internName(name)
	return &Declaration{
		Kind:          KindMacro,
		Flags:         FlagSystem,
		Name:          name,
		RawName:       name,
		QualifiedName: name,
		File:          file,
		Data:          &MacroData{Body: s.Interner.Intern(intern.FileText, body), Kind: MacroUser},
		uid:           UserMacroUID(file, name),
	}
}

// Close releases the store.
func (s *Session) Close() error {
	return s.Repo.close(context.Background())
}

func (s *Session) internName(v string) string {
	return s.Interner.Intern(intern.Name, v)
}

func (s *Session) internQualified(v string) string {
	return s.Interner.Intern(intern.QualifiedName, v)
}

func (s *Session) intern(v string) string {
	return s.Interner.Intern(intern.Default, v)
}

// InternName, InternQualified and InternText expose the session pools to
// builders.
func (s *Session) InternName(v string) string      { return s.internName(v) }
func (s *Session) InternQualified(v string) string { return s.internQualified(v) }
func (s *Session) InternText(v string) string {
	return s.Interner.Intern(intern.FileText, v)
}

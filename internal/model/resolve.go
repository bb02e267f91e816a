package model

import (
	"context"
	"sync"

	"github.com/standardbeagle/cxxmodel/internal/types"
)

type parserKey struct{}
type resolvingKey struct{}
type instantiationKey struct{}

// WithParser marks ctx as the parser goroutine for file. Type queries about
// declarations of that file return their unresolved defaults under such a
// context, since the file's model is still being built.
func WithParser(ctx context.Context, file types.FileID) context.Context {
	return context.WithValue(ctx, parserKey{}, file)
}

// IsParser reports whether ctx was marked as the parser for file.
func IsParser(ctx context.Context, file types.FileID) bool {
	f, ok := ctx.Value(parserKey{}).(types.FileID)
	return ok && f == file
}

// ParserFile returns the file ctx is parsing, if any.
func ParserFile(ctx context.Context) (types.FileID, bool) {
	f, ok := ctx.Value(parserKey{}).(types.FileID)
	return f, ok
}

type resolutionKey struct {
	owner    UID
	spelling string
	inst     *DecltypeType // only when the owner has no identity
}

// resolutionSet is the set of resolutions in progress on one call chain.
type resolutionSet struct {
	mu     sync.Mutex
	active map[resolutionKey]struct{}
}

// enterResolution acquires a guard slot for key. It returns ok=false when
// the key is already being resolved further up the call chain. The
// returned release func must always be called when ok is true.
func enterResolution(ctx context.Context, key resolutionKey) (context.Context, func(), bool) {
	set, _ := ctx.Value(resolvingKey{}).(*resolutionSet)
	if set == nil {
		set = &resolutionSet{active: make(map[resolutionKey]struct{})}
		ctx = context.WithValue(ctx, resolvingKey{}, set)
	}
	set.mu.Lock()
	defer set.mu.Unlock()
	if _, busy := set.active[key]; busy {
		return ctx, func() {}, false
	}
	set.active[key] = struct{}{}
	return ctx, func() {
		set.mu.Lock()
		delete(set.active, key)
		set.mu.Unlock()
	}, true
}

// Bindings map template parameters to the types they are instantiated
// with.
type Bindings map[UID]Type

// WithInstantiation attaches template argument bindings. Resolutions under
// such a context are never cached.
func WithInstantiation(ctx context.Context, b Bindings) context.Context {
	if len(b) == 0 {
		return ctx
	}
	if outer := instantiation(ctx); len(outer) > 0 {
		merged := make(Bindings, len(outer)+len(b))
		for k, v := range outer {
			merged[k] = v
		}
		for k, v := range b {
			merged[k] = v
		}
		b = merged
	}
	return context.WithValue(ctx, instantiationKey{}, b)
}

func instantiation(ctx context.Context) Bindings {
	b, _ := ctx.Value(instantiationKey{}).(Bindings)
	return b
}

// HasInstantiation reports whether ctx carries template bindings.
func HasInstantiation(ctx context.Context) bool {
	return len(instantiation(ctx)) > 0
}

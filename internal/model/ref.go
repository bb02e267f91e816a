package model

import (
	"context"
	"sync"
)

// Ref is a back-reference that starts as a direct pointer and becomes a
// token once the target is snapshotted at disposal. Reads and the
// transition take the per-reference lock.
type Ref struct {
	mu     sync.Mutex
	direct *Declaration
	token  UID
	repo   *Repository
}

// DirectRef references d by pointer until Snapshot.
func DirectRef(repo *Repository, d *Declaration) *Ref {
	if d == nil {
		return nil
	}
	return &Ref{direct: d, repo: repo}
}

// TokenRef references a declaration by identity only.
func TokenRef(repo *Repository, u UID) *Ref {
	if u.IsZero() {
		return nil
	}
	return &Ref{token: u, repo: repo}
}

// Get returns the referenced declaration, resolving the token if needed.
func (r *Ref) Get(ctx context.Context) *Declaration {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	direct, token, repo := r.direct, r.token, r.repo
	r.mu.Unlock()
	if direct != nil {
		return direct
	}
	if repo == nil {
		if token.Kind == UIDSelf {
			return token.self
		}
		return nil
	}
	return repo.Resolve(ctx, token)
}

// UID returns the target identity. A direct target that has not been
// registered yet reports NoUID.
func (r *Ref) UID() UID {
	if r == nil {
		return NoUID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.direct != nil {
		return r.direct.UID()
	}
	return r.token
}

// IsDirect reports whether the reference still holds a pointer.
func (r *Ref) IsDirect() bool {
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.direct != nil
}

// Snapshot replaces the pointer by the target's token. Targets without an
// identity keep the pointer since the token would resolve to nothing.
func (r *Ref) Snapshot() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.direct == nil {
		return
	}
	u := r.direct.UID()
	if u.IsZero() {
		return
	}
	r.token = u
	r.direct = nil
}

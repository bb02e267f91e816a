package model

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/standardbeagle/cxxmodel/internal/debug"
	"github.com/standardbeagle/cxxmodel/internal/storage"
	"github.com/standardbeagle/cxxmodel/internal/types"
)

// Repository maps declarations to identity tokens and back. Registered
// declarations live in an LRU cache; evicted ones are written to the store
// and reconstructed on the next Resolve. A declaration being written out
// stays resolvable until its record is in the store.
type Repository struct {
	session *Session
	store   storage.Store

	mu       sync.Mutex
	live     *simplelru.LRU[UID, *Declaration]
	pending  map[UID]*Declaration // registered but not committed
	evicting map[UID]*Declaration // dropped from live, not yet persisted
	queue    []UID                // evictions waiting for drain
	next     map[types.FileID]uint32
	discard  map[UID]struct{} // removed for good, skip persistence

	// loadMu orders store writes of evicted objects against reloads and
	// deletions.
	loadMu sync.Mutex

	loads     atomic.Int64
	evictions atomic.Int64
	misses    atomic.Int64
}

func newRepository(s *Session, store storage.Store, size int) (*Repository, error) {
	r := &Repository{
		session:  s,
		store:    store,
		pending:  make(map[UID]*Declaration),
		evicting: make(map[UID]*Declaration),
		next:     make(map[types.FileID]uint32),
		discard:  make(map[UID]struct{}),
	}
	live, err := simplelru.NewLRU[UID, *Declaration](size, r.onEvict)
	if err != nil {
		return nil, err
	}
	r.live = live
	return r, nil
}

// Identify returns the token of d, or NoUID if d was never registered.
func (r *Repository) Identify(d *Declaration) UID {
	return d.UID()
}

// Register gives d a file-scoped identity and makes it resolvable while it
// is still being built. Call Commit once construction succeeds or
// Unregister when it fails.
func (r *Repository) Register(d *Declaration) UID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !d.uid.IsZero() {
		return d.uid
	}
	r.next[d.File]++
	d.uid = UID{Kind: UIDDecl, File: d.File, Local: r.next[d.File]}
	r.pending[d.uid] = d
	return d.uid
}

// Commit moves a registered declaration into the live cache.
func (r *Repository) Commit(d *Declaration) {
	u := d.UID()
	if u.Kind != UIDDecl {
		return
	}
	r.mu.Lock()
	delete(r.pending, u)
	r.live.Add(u, d)
	r.mu.Unlock()
	r.drain(context.Background())
}

// Unregister forgets a declaration whose construction failed.
func (r *Repository) Unregister(d *Declaration) {
	u := d.UID()
	if u.Kind != UIDDecl {
		return
	}
	r.mu.Lock()
	delete(r.pending, u)
	r.discard[u] = struct{}{}
	r.live.Remove(u)
	delete(r.discard, u)
	r.mu.Unlock()
	d.uid = NoUID
}

// Resolve returns the declaration for u. Live objects are returned as is;
// evicted ones are reloaded from the store; built-ins and user macros are
// rebuilt from their recipe. A missing or corrupt record yields nil.
func (r *Repository) Resolve(ctx context.Context, u UID) *Declaration {
	switch u.Kind {
	case UIDNone:
		return nil
	case UIDSelf:
		return u.self
	case UIDGlobal:
		return r.session.Global()
	case UIDBuiltin:
		return r.session.Builtins.Get(u.Name)
	case UIDUnresolved:
		return r.session.Builtins.Unknown(u.Name)
	case UIDUserMacro:
		return r.session.UserMacro(u.File, u.Name)
	}

	if d, ok := r.lookup(u); ok {
		return d
	}
	return r.load(ctx, u)
}

// lookup finds u among the objects still in memory.
func (r *Repository) lookup(u UID) (*Declaration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.live.Get(u); ok {
		return d, true
	}
	if d, ok := r.pending[u]; ok {
		return d, true
	}
	d, ok := r.evicting[u]
	return d, ok
}

func (r *Repository) load(ctx context.Context, u UID) *Declaration {
	d := r.reload(ctx, u)
	if d != nil {
		r.drain(ctx)
	}
	return d
}

func (r *Repository) reload(ctx context.Context, u UID) *Declaration {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	// Another goroutine may have reloaded it while we waited.
	if d, ok := r.lookup(u); ok {
		return d
	}

	data, err := r.store.Get(ctx, u.Key())
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			debug.LogModel("load %s failed: %v", u, err)
		}
		r.misses.Add(1)
		return nil
	}
	d, err := Decode(data, r.session)
	if err != nil {
		debug.LogModel("decode %s failed: %v", u, err)
		r.misses.Add(1)
		return nil
	}
	if d.uid != u {
		debug.LogModel("record %s carries identity %s", u, d.uid)
		r.misses.Add(1)
		return nil
	}
	r.loads.Add(1)
	r.mu.Lock()
	r.live.Add(u, d)
	r.mu.Unlock()
	return d
}

// Dispose snapshots d's back-references, persists it and drops the live
// object. Its token stays resolvable.
func (r *Repository) Dispose(ctx context.Context, d *Declaration) {
	u := d.UID()
	if u.Kind != UIDDecl {
		return
	}
	snapshotRefs(d)
	r.mu.Lock()
	removed := r.live.Remove(u) // queues the write-out through onEvict
	r.mu.Unlock()
	if removed {
		r.drain(ctx)
		return
	}
	r.loadMu.Lock()
	r.persist(ctx, u, d)
	r.loadMu.Unlock()
}

// Remove forgets u for good, e.g. when its file is reparsed or deleted.
func (r *Repository) Remove(ctx context.Context, u UID) {
	if u.Kind != UIDDecl {
		return
	}
	r.mu.Lock()
	delete(r.pending, u)
	delete(r.evicting, u)
	r.discard[u] = struct{}{}
	r.live.Remove(u)
	delete(r.discard, u)
	r.mu.Unlock()

	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	if err := r.store.Delete(ctx, u.Key()); err != nil {
		debug.LogModel("delete %s failed: %v", u, err)
	}
}

// RemoveFile forgets every persisted record of file. Live declarations of
// the file must be removed individually by their owners.
func (r *Repository) RemoveFile(ctx context.Context, file types.FileID) {
	n, err := r.store.DeleteFile(ctx, file)
	if err != nil {
		debug.LogModel("delete records of file %d failed: %v", file, err)
		return
	}
	debug.LogModel("dropped %d persisted records of file %d", n, file)
}

// onEvict runs with r.mu held, from inside the cache operation that
// dropped u. The object moves to evicting until drain has written it.
func (r *Repository) onEvict(u UID, d *Declaration) {
	if _, skip := r.discard[u]; skip {
		return
	}
	r.evictions.Add(1)
	r.evicting[u] = d
	r.queue = append(r.queue, u)
}

// drain persists queued evictions. Each object leaves evicting only after
// its record is stored, so Resolve always finds it in one of the two.
func (r *Repository) drain(ctx context.Context) {
	r.mu.Lock()
	queue := r.queue
	r.queue = nil
	r.mu.Unlock()
	if len(queue) == 0 {
		return
	}

	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	for _, u := range queue {
		r.mu.Lock()
		d, ok := r.evicting[u]
		r.mu.Unlock()
		if !ok {
			continue // removed meanwhile
		}
		snapshotRefs(d)
		r.persist(ctx, u, d)
		r.mu.Lock()
		if r.evicting[u] == d {
			delete(r.evicting, u)
		}
		r.mu.Unlock()
	}
}

func (r *Repository) persist(ctx context.Context, u UID, d *Declaration) {
	if err := r.store.Put(ctx, u.Key(), u.File, Encode(d)); err != nil {
		debug.LogModel("persist %s failed: %v", u, err)
	}
}

// Flush persists every live declaration without dropping it.
func (r *Repository) Flush(ctx context.Context) error {
	r.mu.Lock()
	keys := r.live.Keys()
	decls := make([]*Declaration, 0, len(keys))
	for _, u := range keys {
		d, _ := r.live.Peek(u)
		decls = append(decls, d)
	}
	r.mu.Unlock()

	for i, u := range keys {
		if decls[i] == nil {
			continue
		}
		if err := r.store.Put(ctx, u.Key(), u.File, Encode(decls[i])); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) close(ctx context.Context) error {
	r.drain(ctx)
	r.mu.Lock()
	for _, u := range r.live.Keys() {
		r.discard[u] = struct{}{}
	}
	r.live.Purge()
	r.discard = make(map[UID]struct{})
	r.mu.Unlock()
	return r.store.Close()
}

// RepositoryStats summarizes cache behaviour.
type RepositoryStats struct {
	Live      int
	Pending   int
	Loads     int64
	Evictions int64
	Misses    int64
}

func (r *Repository) Stats() RepositoryStats {
	r.mu.Lock()
	pending := len(r.pending)
	live := r.live.Len()
	r.mu.Unlock()
	return RepositoryStats{
		Live:      live,
		Pending:   pending,
		Loads:     r.loads.Load(),
		Evictions: r.evictions.Load(),
		Misses:    r.misses.Load(),
	}
}

// snapshotRefs turns every direct back-reference of d into a token.
func snapshotRefs(d *Declaration) {
	d.Scope.Snapshot()
	if f := d.Function(); f != nil {
		f.FriendClass.Snapshot()
	}
}

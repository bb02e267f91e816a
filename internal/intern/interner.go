// Package intern canonicalizes repeated text so that names, qualified names
// and macro bodies are stored once per session and can be compared cheaply.
package intern

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// Category selects an independent pool. Pools never share entries so that
// short-lived file text does not bloat the name pools.
type Category uint8

const (
	Default Category = iota
	Name
	QualifiedName
	FileText
	categoryCount
)

func (c Category) String() string {
	switch c {
	case Name:
		return "name"
	case QualifiedName:
		return "qualified-name"
	case FileText:
		return "file-text"
	default:
		return "default"
	}
}

const shardCount = 32 // power of two

type shard struct {
	mu      sync.RWMutex
	strings map[string]string
}

type pool struct {
	shards  [shardCount]shard
	entries atomic.Int64
	bytes   atomic.Int64
	lookups atomic.Int64
	hits    atomic.Int64
}

// Interner is safe for concurrent use. One Interner is created per analysis
// session and handed to every builder.
type Interner struct {
	pools [categoryCount]*pool
}

// New creates an empty interner.
func New() *Interner {
	in := &Interner{}
	for i := range in.pools {
		p := &pool{}
		for j := range p.shards {
			p.shards[j].strings = make(map[string]string)
		}
		in.pools[i] = p
	}
	return in
}

// Intern returns the canonical instance of s within category cat.
func (in *Interner) Intern(cat Category, s string) string {
	if s == "" {
		return ""
	}
	if cat >= categoryCount {
		cat = Default
	}
	p := in.pools[cat]
	p.lookups.Add(1)
	sh := &p.shards[xxhash.Sum64String(s)&(shardCount-1)]

	// Fast path: check if already interned
	sh.mu.RLock()
	if canonical, ok := sh.strings[s]; ok {
		sh.mu.RUnlock()
		p.hits.Add(1)
		return canonical
	}
	sh.mu.RUnlock()

	sh.mu.Lock()
	defer sh.mu.Unlock()
	// Double-check after acquiring write lock
	if canonical, ok := sh.strings[s]; ok {
		p.hits.Add(1)
		return canonical
	}
	// Clone so the pool never pins a larger backing buffer (file content).
	canonical := string([]byte(s))
	sh.strings[canonical] = canonical
	p.entries.Add(1)
	p.bytes.Add(int64(len(canonical)))
	return canonical
}

// InternAll interns every element of list in place and returns it.
// A nil list stays nil.
func (in *Interner) InternAll(cat Category, list []string) []string {
	for i, s := range list {
		list[i] = in.Intern(cat, s)
	}
	return list
}

// Stats summarizes one pool.
type Stats struct {
	Category Category
	Entries  int64
	Bytes    int64
	Lookups  int64
	Hits     int64
}

// Stats returns per-category statistics.
func (in *Interner) Stats() []Stats {
	out := make([]Stats, 0, categoryCount)
	for i, p := range in.pools {
		out = append(out, Stats{
			Category: Category(i),
			Entries:  p.entries.Load(),
			Bytes:    p.bytes.Load(),
			Lookups:  p.lookups.Load(),
			Hits:     p.hits.Load(),
		})
	}
	return out
}

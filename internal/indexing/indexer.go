// Package indexing drives the model builders over a source tree: it scans
// the project root, parses files in parallel, rebuilds files as they
// change and withdraws removed ones.
package indexing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/cxxmodel/internal/builder"
	"github.com/standardbeagle/cxxmodel/internal/config"
	"github.com/standardbeagle/cxxmodel/internal/debug"
	cxerrors "github.com/standardbeagle/cxxmodel/internal/errors"
	"github.com/standardbeagle/cxxmodel/internal/model"
	"github.com/standardbeagle/cxxmodel/internal/parser"
	"github.com/standardbeagle/cxxmodel/internal/project"
	"github.com/standardbeagle/cxxmodel/internal/storage"
)

// OpenSession creates the model session for cfg with p as its registry.
func OpenSession(cfg *config.Config, p *project.Project) (*model.Session, error) {
	path := cfg.StoragePath()
	if cfg.Storage.Backend == storage.BackendSQLite {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, cxerrors.NewStorageError("open", path, err)
		}
	}
	store, err := storage.Open(cfg.Storage.Backend, path)
	if err != nil {
		return nil, err
	}
	s, err := model.NewSession(model.Options{
		Store:     store,
		CacheSize: cfg.Storage.CacheSize,
		Registry:  p,
		Macros:    cfg.Macros,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	p.SetSuggestThreshold(cfg.Model.SuggestThreshold)
	return s, nil
}

// Outcome tells how IndexFile handled a file.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeParsed
	OutcomeFastReparsed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeParsed:
		return "parsed"
	case OutcomeFastReparsed:
		return "fast-reparsed"
	default:
		return "skipped"
	}
}

// Stats counts the work done by an Indexer.
type Stats struct {
	Files        int
	Declarations int
	Parsed       int64
	FastReparsed int64
	Failed       int64
}

// Indexer builds the model of every file under the project root.
type Indexer struct {
	cfg      *config.Config
	session  *model.Session
	project  *project.Project
	scanner  *FileScanner
	includes *IncludeResolver
	pool     parser.Pool

	locks sync.Map // path -> *sync.Mutex

	parsed       atomic.Int64
	fastReparsed atomic.Int64
	failed       atomic.Int64
}

func New(cfg *config.Config, s *model.Session, p *project.Project) *Indexer {
	return &Indexer{
		cfg:      cfg,
		session:  s,
		project:  p,
		scanner:  NewFileScanner(cfg),
		includes: NewIncludeResolver(p, cfg.Project.Root, cfg.Index.IncludeDirs),
	}
}

// Session returns the model session the indexer builds into.
func (ix *Indexer) Session() *model.Session { return ix.session }

// Project returns the registry and file indexes.
func (ix *Indexer) Project() *project.Project { return ix.project }

// Close releases the idle parsers.
func (ix *Indexer) Close() {
	ix.pool.Close()
}

// IndexAll scans the project and indexes every selected file. Headers are
// indexed before sources. Per-file build failures are collected into a
// MultiError; the files still contribute every declaration that built.
func (ix *Indexer) IndexAll(ctx context.Context) error {
	if sec := ix.cfg.Performance.IndexingTimeoutSec; sec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(sec)*time.Second)
		defer cancel()
	}

	start := time.Now()
	files, err := ix.scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan %s: %w", ix.cfg.Project.Root, err)
	}

	var headers, sources []string
	for _, f := range files {
		if IsHeader(f) {
			headers = append(headers, f)
		} else {
			sources = append(sources, f)
		}
	}

	var mu sync.Mutex
	var errs []error
	for _, group := range [][]string{headers, sources} {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(ix.cfg.Workers())
		for _, path := range group {
			g.Go(func() error {
				if _, err := ix.IndexFile(gctx, path); err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return err
					}
					mu.Lock()
					errs = append(errs, fmt.Errorf("%s: %w", path, err))
					mu.Unlock()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	debug.LogIndex("indexed %d files (%d headers) in %v, %d failed", len(files), len(headers), time.Since(start), len(errs))
	return cxerrors.NewMultiError(errs).ErrorOrNil()
}

func (ix *Indexer) lock(path string) func() {
	m, _ := ix.locks.LoadOrStore(path, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// IndexFile builds or rebuilds the file at path. Content identical to the
// last build takes the fast reparse path when enabled; anything else
// disposes the old declarations and parses again.
func (ix *Indexer) IndexFile(ctx context.Context, path string) (Outcome, error) {
	path = filepath.Clean(path)
	unlock := ix.lock(path)
	defer unlock()

	content, err := os.ReadFile(path)
	if err != nil {
		return OutcomeSkipped, err
	}
	if ix.scanner.binaryDetector.IsBinary(path, content) {
		debug.LogIndex("skipping binary file %s", path)
		return OutcomeSkipped, nil
	}

	fi := ix.project.File(path)
	bc := ix.context(fi)

	if ix.cfg.Model.FastReparse && fi.Len() > 0 && fi.Unchanged(content) {
		_, err := project.FastReparse(ctx, bc, fi)
		ix.fastReparsed.Add(1)
		if err != nil {
			ix.failed.Add(1)
		}
		return OutcomeFastReparsed, err
	}

	if fi.Len() > 0 {
		fi.Dispose(ctx, ix.session, ix.project)
	}
	fi.SetContent(content)
	bc.Lines = fi.Lines()

	ps, err := ix.pool.Get()
	if err != nil {
		return OutcomeSkipped, err
	}
	pctx := model.WithParser(ctx, fi.ID)
	root, err := ps.Parse(pctx, content)
	ix.pool.Put(ps)
	if err != nil {
		ix.failed.Add(1)
		return OutcomeSkipped, err
	}

	decls, err := builder.Walk(pctx, root, bc)
	ix.parsed.Add(1)
	if err != nil {
		ix.failed.Add(1)
	}
	debug.LogIndex("built %d declarations from %s", len(decls), path)
	return OutcomeParsed, err
}

// Reparse rebuilds a file after a change on disk. A file that no longer
// exists is removed.
func (ix *Indexer) Reparse(ctx context.Context, path string) (Outcome, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		ix.Remove(ctx, path)
		return OutcomeSkipped, nil
	}
	return ix.IndexFile(ctx, path)
}

// Remove withdraws every declaration of the file and forgets it.
func (ix *Indexer) Remove(ctx context.Context, path string) bool {
	path = filepath.Clean(path)
	unlock := ix.lock(path)
	defer unlock()
	return ix.project.RemoveFile(ctx, ix.session, path)
}

func (ix *Indexer) context(fi *project.FileIndex) *builder.Context {
	return &builder.Context{
		Session:  ix.session,
		File:     fi.ID,
		Path:     fi.Path,
		Lines:    fi.Lines(),
		Index:    fi,
		Global:   ix.cfg.Model.Global,
		Includes: ix.includes.For(fi.Path),
	}
}

// Stats reports the counters and the current size of the model.
func (ix *Indexer) Stats() Stats {
	st := Stats{
		Parsed:       ix.parsed.Load(),
		FastReparsed: ix.fastReparsed.Load(),
		Failed:       ix.failed.Load(),
	}
	for _, fi := range ix.project.Files() {
		if n := fi.Len(); n > 0 {
			st.Files++
			st.Declarations += n
		}
	}
	return st
}

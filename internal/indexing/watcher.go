package indexing

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/cxxmodel/internal/config"
	"github.com/standardbeagle/cxxmodel/internal/debug"
)

// FileEventType represents the type of file system event
type FileEventType int

const (
	FileEventCreate FileEventType = iota
	FileEventWrite
	FileEventRemove
	FileEventRename
)

// FileWatcher monitors the project root and reports debounced changes of
// the files the scanner would select.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	config    *config.Config
	debouncer *eventDebouncer
	scanner   *FileScanner
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	onFileChanged func(path string)
	onFileRemoved func(path string)

	eventsProcessed int64
	lastEventTime   time.Time
	statsMu         sync.RWMutex
}

func NewFileWatcher(cfg *config.Config, scanner *FileScanner) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	fw := &FileWatcher{
		watcher: watcher,
		config:  cfg,
		scanner: scanner,
		ctx:     ctx,
		cancel:  cancel,
	}
	fw.debouncer = newEventDebouncer(time.Duration(cfg.Index.WatchDebounceMs)*time.Millisecond, fw)
	return fw, nil
}

// SetCallbacks sets the handlers for changed or created files and for
// removed files.
func (fw *FileWatcher) SetCallbacks(onFileChanged, onFileRemoved func(path string)) {
	fw.onFileChanged = onFileChanged
	fw.onFileRemoved = onFileRemoved
}

// Start adds watches below root and begins processing events.
func (fw *FileWatcher) Start(root string) error {
	debug.LogIndex("starting file watcher for %s", root)
	if err := fw.addWatches(root); err != nil {
		return fmt.Errorf("failed to add watches starting from %s: %w", root, err)
	}

	fw.wg.Add(1)
	go fw.processEvents()
	return nil
}

// Stop closes the watcher and waits for event processing to end. Pending
// debounced events are dropped.
func (fw *FileWatcher) Stop() error {
	fw.cancel()
	fw.debouncer.stop()
	err := fw.watcher.Close()
	fw.wg.Wait()
	debug.LogIndex("file watcher stopped")
	return err
}

func (fw *FileWatcher) addWatches(root string) error {
	visited := make(map[string]bool)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil || visited[resolved] {
			return filepath.SkipDir
		}
		visited[resolved] = true

		if path != root && fw.scanner.excluded(path, true) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			debug.LogIndex("warning: failed to add watch for %s: %v", path, err)
		}
		return nil
	})
}

func (fw *FileWatcher) processEvents() {
	defer fw.wg.Done()
	for {
		select {
		case <-fw.ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			debug.LogIndex("file watcher error: %v", err)
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	info, err := os.Stat(path)
	if err != nil {
		if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && isSource(path) {
			fw.debouncer.addEvent(path, FileEventRemove)
		}
		return
	}

	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 && !fw.scanner.excluded(path, true) {
			if err := fw.addWatches(path); err != nil {
				debug.LogIndex("warning: failed to watch new directory %s: %v", path, err)
			}
		}
		return
	}

	if !fw.scanner.shouldProcessFile(path, info) {
		return
	}

	var eventType FileEventType
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = FileEventCreate
	case event.Op&fsnotify.Write != 0:
		eventType = FileEventWrite
	case event.Op&fsnotify.Rename != 0:
		eventType = FileEventRename
	default:
		return
	}
	fw.debouncer.addEvent(path, eventType)
}

func (fw *FileWatcher) record(n int) {
	fw.statsMu.Lock()
	defer fw.statsMu.Unlock()
	fw.eventsProcessed += int64(n)
	fw.lastEventTime = time.Now()
}

// WatchStats contains statistics about file watching operations
type WatchStats struct {
	EventsProcessed int64
	LastEventTime   time.Time
	IsActive        bool
}

func (fw *FileWatcher) GetStats() WatchStats {
	fw.statsMu.RLock()
	defer fw.statsMu.RUnlock()
	return WatchStats{
		EventsProcessed: fw.eventsProcessed,
		LastEventTime:   fw.lastEventTime,
		IsActive:        fw.ctx.Err() == nil,
	}
}

// eventDebouncer batches file events so a burst of writes to one file
// causes one rebuild.
type eventDebouncer struct {
	mu       sync.Mutex
	events   map[string]FileEventType
	debounce time.Duration
	timer    *time.Timer
	stopped  bool
	fw       *FileWatcher

	running sync.Mutex // held while a flush runs the callbacks
}

func newEventDebouncer(debounce time.Duration, fw *FileWatcher) *eventDebouncer {
	return &eventDebouncer{
		events:   make(map[string]FileEventType),
		debounce: debounce,
		fw:       fw,
	}
}

// addEvent stores the latest event for path and restarts the quiet period.
func (d *eventDebouncer) addEvent(path string, eventType FileEventType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.events[path] = eventType
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.debounce, d.flush)
}

// stop drops pending events and waits for a running flush.
func (d *eventDebouncer) stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	d.running.Lock()
	d.running.Unlock() //nolint:staticcheck
}

// flush hands the accumulated events to the callbacks, removals first.
func (d *eventDebouncer) flush() {
	d.running.Lock()
	defer d.running.Unlock()

	d.mu.Lock()
	events := d.events
	d.events = make(map[string]FileEventType)
	stopped := d.stopped
	d.mu.Unlock()

	if len(events) == 0 || stopped {
		return
	}
	debug.LogIndex("processing %d debounced file events", len(events))

	var removes, changes []string
	for path, eventType := range events {
		if eventType == FileEventRemove {
			removes = append(removes, path)
		} else {
			changes = append(changes, path)
		}
	}

	for _, path := range removes {
		if d.fw.onFileRemoved != nil {
			d.fw.onFileRemoved(path)
		}
	}
	for _, path := range changes {
		if d.fw.onFileChanged != nil {
			d.fw.onFileChanged(path)
		}
	}
	d.fw.record(len(events))
}

// Watch keeps the model current with the project root until ctx is
// cancelled.
func (ix *Indexer) Watch(ctx context.Context) error {
	fw, err := NewFileWatcher(ix.cfg, ix.scanner)
	if err != nil {
		return err
	}
	fw.SetCallbacks(
		func(path string) {
			if _, err := ix.Reparse(ctx, path); err != nil {
				debug.LogIndex("reparse of %s failed: %v", path, err)
			}
		},
		func(path string) { ix.Remove(ctx, path) },
	)
	if err := fw.Start(ix.cfg.Project.Root); err != nil {
		fw.Stop()
		return err
	}
	<-ctx.Done()
	return fw.Stop()
}

package indexing

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/cxxmodel/internal/config"
	"github.com/standardbeagle/cxxmodel/internal/debug"
	"github.com/standardbeagle/cxxmodel/internal/parser"
)

// headerExtensions are indexed before sources so that out-of-line
// definitions find the classes they belong to.
var headerExtensions = []string{".h", ".hh", ".hpp", ".hxx", ".inl"}

// FileScanner walks the project root and selects the C/C++ files to index.
type FileScanner struct {
	config         *config.Config
	binaryDetector *BinaryDetector
}

func NewFileScanner(cfg *config.Config) *FileScanner {
	return &FileScanner{config: cfg, binaryDetector: NewBinaryDetector()}
}

// Scan returns the absolute paths of the files to index, headers first and
// otherwise in lexical order.
func (sc *FileScanner) Scan(ctx context.Context) ([]string, error) {
	root := sc.config.Project.Root
	visited := make(map[string]bool)
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && sc.excluded(path, true) {
				return filepath.SkipDir
			}
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || visited[resolved] {
				return filepath.SkipDir
			}
			visited[resolved] = true
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 && !sc.config.Index.FollowSymlinks {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if sc.shouldProcessFile(path, info) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(files, func(i, j int) bool {
		hi, hj := IsHeader(files[i]), IsHeader(files[j])
		if hi != hj {
			return hi
		}
		return files[i] < files[j]
	})
	debug.LogIndex("scan of %s selected %d files", root, len(files))
	return files, nil
}

// IsHeader reports whether path names a header.
func IsHeader(path string) bool {
	return slices.Contains(headerExtensions, strings.ToLower(filepath.Ext(path)))
}

// isSource reports whether the C/C++ grammar handles path.
func isSource(path string) bool {
	return slices.Contains(parser.Extensions, strings.ToLower(filepath.Ext(path)))
}

// shouldProcessFile applies the extension, pattern, size and binary checks.
func (sc *FileScanner) shouldProcessFile(path string, info os.FileInfo) bool {
	if info.IsDir() || !isSource(path) {
		return false
	}
	if sc.binaryDetector.IsBinaryByExtension(path) {
		return false
	}
	if sc.excluded(path, false) || !sc.included(path) {
		return false
	}
	if limit := sc.config.Index.MaxFileSize; limit > 0 && info.Size() > limit {
		debug.LogIndex("skipping oversized file %s (%d bytes)", path, info.Size())
		return false
	}
	return true
}

// relative returns path relative to the root with forward slashes.
func (sc *FileScanner) relative(path string) string {
	rel, err := filepath.Rel(sc.config.Project.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (sc *FileScanner) excluded(path string, dir bool) bool {
	rel := sc.relative(path)
	for _, pattern := range sc.config.Exclude {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
		// "**/build/**" also names the directory itself
		if dir && strings.HasSuffix(pattern, "/**") {
			if matched, _ := doublestar.Match(strings.TrimSuffix(pattern, "/**"), rel); matched {
				return true
			}
		}
	}
	return false
}

// included reports whether path matches an include pattern. No patterns
// include every file.
func (sc *FileScanner) included(path string) bool {
	if len(sc.config.Include) == 0 {
		return true
	}
	rel := sc.relative(path)
	for _, pattern := range sc.config.Include {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

package indexing

import (
	"os"
	"path/filepath"

	"github.com/standardbeagle/cxxmodel/internal/builder"
	"github.com/standardbeagle/cxxmodel/internal/debug"
	"github.com/standardbeagle/cxxmodel/internal/project"
	"github.com/standardbeagle/cxxmodel/internal/types"
)

// IncludeResolver maps #include directives to project files.
//
// A quoted include is looked up next to the including file, then in the
// include directories, then by base name among the files already known
// when exactly one matches. An angle-bracket include only searches the
// include directories. Files found on disk get their identity on first
// reference, before they are indexed.
type IncludeResolver struct {
	project     *project.Project
	includeDirs []string
}

func NewIncludeResolver(p *project.Project, root string, includeDirs []string) *IncludeResolver {
	dirs := make([]string, 0, len(includeDirs))
	for _, d := range includeDirs {
		if !filepath.IsAbs(d) {
			d = filepath.Join(root, d)
		}
		dirs = append(dirs, filepath.Clean(d))
	}
	return &IncludeResolver{project: p, includeDirs: dirs}
}

// For returns the builder callback for includes of the file at from.
func (r *IncludeResolver) For(from string) builder.IncludeResolver {
	return func(name string, system bool) types.FileID {
		return r.Resolve(from, name, system)
	}
}

// Resolve returns the identity of the file named by an include in from,
// or types.NoFile.
func (r *IncludeResolver) Resolve(from, name string, system bool) types.FileID {
	if name == "" {
		return types.NoFile
	}
	if filepath.IsAbs(name) {
		return r.known(name)
	}

	if !system {
		if id := r.known(filepath.Join(filepath.Dir(from), name)); id != types.NoFile {
			return id
		}
	}
	for _, dir := range r.includeDirs {
		if id := r.known(filepath.Join(dir, name)); id != types.NoFile {
			return id
		}
	}
	if system {
		return types.NoFile
	}

	var candidates []*project.FileIndex
	base := filepath.Base(name)
	for _, fi := range r.project.Files() {
		if filepath.Base(fi.Path) == base {
			candidates = append(candidates, fi)
		}
	}
	if len(candidates) == 1 {
		debug.LogIndex("include %q in %s resolved by name to %s", name, from, candidates[0].Path)
		return candidates[0].ID
	}
	if len(candidates) > 1 {
		debug.LogIndex("include %q in %s is ambiguous: %d candidates", name, from, len(candidates))
	}
	return types.NoFile
}

// known returns the identity of path when it is a project file or exists
// on disk.
func (r *IncludeResolver) known(path string) types.FileID {
	path = filepath.Clean(path)
	if fi, ok := r.project.Lookup(path); ok {
		return fi.ID
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return types.NoFile
	}
	return r.project.File(path).ID
}

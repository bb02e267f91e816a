package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// File names looked up in the project root and the home directory.
const (
	KDLFileName  = ".cxxmodel.kdl"
	TOMLFileName = ".cxxmodel.toml"
)

// Defaults shared by the loaders and the validator.
const (
	DefaultMaxFileSize      = 4 * 1024 * 1024
	DefaultWatchDebounceMs  = 300
	DefaultIndexingTimeout  = 120
	DefaultCacheSize        = 50000
	DefaultSuggestThreshold = 0.8
	DefaultStoragePath      = ".cxxmodel/model.db"
)

type Config struct {
	Version     int
	Project     Project
	Index       Index
	Performance Performance
	Storage     Storage
	Model       Model
	// Macros binds user macro names to their bodies.
	Macros  map[string]string
	Include []string
	Exclude []string
}

type Project struct {
	Root string
	Name string
}

type Index struct {
	MaxFileSize      int64
	FollowSymlinks   bool
	RespectGitignore bool     // Add .gitignore patterns to the exclusions
	WatchMode        bool     // Reparse files as they change
	WatchDebounceMs  int      // Quiet period before a changed file is reparsed
	IncludeDirs      []string // Search path for #include <...>, relative to the root
}

type Performance struct {
	ParallelFileWorkers int // 0 = auto-detect (NumCPU)
	IndexingTimeoutSec  int
}

type Storage struct {
	Backend   string // memory or sqlite
	Path      string // sqlite database, relative to the root
	CacheSize int    // live declarations kept before eviction
}

type Model struct {
	Global           bool // register declarations with the repository and registry
	FastReparse      bool // rebuild unchanged files from captured state
	SuggestThreshold float64
}

// Default returns the configuration used when no file is present.
func Default(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{Root: root, Name: filepath.Base(root)},
		Index: Index{
			MaxFileSize:      DefaultMaxFileSize,
			RespectGitignore: true,
			WatchMode:        false,
			WatchDebounceMs:  DefaultWatchDebounceMs,
		},
		Performance: Performance{
			ParallelFileWorkers: 0,
			IndexingTimeoutSec:  DefaultIndexingTimeout,
		},
		Storage: Storage{
			Backend:   "memory",
			Path:      DefaultStoragePath,
			CacheSize: DefaultCacheSize,
		},
		Model: Model{
			Global:           true,
			FastReparse:      true,
			SuggestThreshold: DefaultSuggestThreshold,
		},
		Macros:  map[string]string{},
		Include: []string{},
		Exclude: defaultExclusions(),
	}
}

func defaultExclusions() []string {
	return []string{
		// VCS and hidden directories
		"**/.git/**",
		"**/.*/**",

		// Build trees
		"**/build/**",
		"**/out/**",
		"**/cmake-build-*/**",
		"**/CMakeFiles/**",
		"**/_deps/**",
		"**/bazel-*/**",
		"**/vcpkg_installed/**",
		"**/node_modules/**",

		// Generated and binary outputs
		"**/*.o",
		"**/*.obj",
		"**/*.a",
		"**/*.so",
		"**/*.dylib",
		"**/*.dll",
		"**/*.pch",
		"**/*.gch",
	}
}

// Load reads the configuration of the current directory.
func Load() (*Config, error) {
	return LoadWithRoot("")
}

// LoadWithRoot loads the configuration for the project at rootDir. A
// ~/.cxxmodel.kdl acts as the base and the project .cxxmodel.kdl overrides
// it; a project .cxxmodel.toml is applied last. Missing files fall back to
// defaults. The result is validated.
func LoadWithRoot(rootDir string) (*Config, error) {
	searchDir := rootDir
	if searchDir == "" {
		searchDir = "."
	}
	root, err := filepath.Abs(searchDir)
	if err != nil {
		root = searchDir
	}

	var base *Config
	if home, err := os.UserHomeDir(); err == nil && home != root {
		if globalCfg, err := LoadKDL(home); err == nil && globalCfg != nil {
			base = globalCfg
			base.Project.Root = root
		}
	}

	projectCfg, err := LoadKDL(root)
	if err != nil {
		return nil, err
	}

	var cfg *Config
	switch {
	case base != nil && projectCfg != nil:
		cfg = mergeConfigs(base, projectCfg)
	case projectCfg != nil:
		cfg = projectCfg
	case base != nil:
		cfg = base
	default:
		cfg = Default(root)
	}

	if err := LoadTOML(root, cfg); err != nil {
		return nil, err
	}
	if cfg.Index.RespectGitignore {
		cfg.Exclude = append(cfg.Exclude, LoadGitignore(cfg.Project.Root)...)
	}
	cfg.EnrichExclusionsWithBuildArtifacts()

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeConfigs merges a base config with a project config.
// The project config wins, but base exclusions and macros are preserved.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	if len(base.Exclude) > 0 {
		merged.Exclude = DeduplicatePatterns(append(append([]string{}, base.Exclude...), project.Exclude...))
	}

	if len(project.Include) == 0 && len(base.Include) > 0 {
		merged.Include = base.Include
	}

	if len(base.Macros) > 0 {
		merged.Macros = make(map[string]string, len(base.Macros)+len(project.Macros))
		for k, v := range base.Macros {
			merged.Macros[k] = v
		}
		for k, v := range project.Macros {
			merged.Macros[k] = v
		}
	}
	return &merged
}

// EnrichExclusionsWithBuildArtifacts adds the build directories detected
// under the project root to the exclusions.
func (c *Config) EnrichExclusionsWithBuildArtifacts() {
	if c.Project.Root == "" {
		return
	}
	detected := NewBuildArtifactDetector(c.Project.Root).DetectOutputDirectories()
	if len(detected) > 0 {
		c.Exclude = DeduplicatePatterns(append(c.Exclude, detected...))
	}
}

// Workers returns the number of parallel parse workers.
func (c *Config) Workers() int {
	if c.Performance.ParallelFileWorkers > 0 {
		return c.Performance.ParallelFileWorkers
	}
	return max(1, runtime.NumCPU()-1)
}

// StoragePath returns the sqlite path resolved against the project root.
func (c *Config) StoragePath() string {
	if c.Storage.Path == "" || filepath.IsAbs(c.Storage.Path) {
		return c.Storage.Path
	}
	return filepath.Join(c.Project.Root, c.Storage.Path)
}

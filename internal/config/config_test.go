package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cxerrors "github.com/standardbeagle/cxxmodel/internal/errors"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseKDL_Defaults(t *testing.T) {
	cfg, err := parseKDL("", "/src/proj")
	require.NoError(t, err)

	assert.Equal(t, "/src/proj", cfg.Project.Root)
	assert.Equal(t, "proj", cfg.Project.Name)
	assert.EqualValues(t, DefaultMaxFileSize, cfg.Index.MaxFileSize)
	assert.True(t, cfg.Index.RespectGitignore)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.True(t, cfg.Model.Global)
	assert.True(t, cfg.Model.FastReparse)
	assert.Equal(t, DefaultSuggestThreshold, cfg.Model.SuggestThreshold)
	assert.Contains(t, cfg.Exclude, "**/.git/**")
	assert.Empty(t, cfg.Macros)
}

func TestParseKDL_AllSections(t *testing.T) {
	content := `
project {
    name "engine"
}
index {
    max_file_size "2MB"
    watch_mode true
    watch_debounce_ms 150
    include_dirs "include" "third_party/include"
    respect_gitignore false
}
performance {
    parallel_file_workers 3
}
storage {
    backend "sqlite"
    path "cache/model.db"
    cache_size 1000
}
model {
    global false
    fast_reparse false
    suggest_threshold 0.9
}
macros {
    EXPORT "__attribute__((visibility(\"default\")))"
    NOINLINE
}
include "src/**" "lib/**"
exclude {
    "gen/**"
}
`
	cfg, err := parseKDL(content, "/src/proj")
	require.NoError(t, err)

	assert.Equal(t, "engine", cfg.Project.Name)
	assert.EqualValues(t, 2*1024*1024, cfg.Index.MaxFileSize)
	assert.True(t, cfg.Index.WatchMode)
	assert.Equal(t, 150, cfg.Index.WatchDebounceMs)
	assert.Equal(t, []string{"include", "third_party/include"}, cfg.Index.IncludeDirs)
	assert.False(t, cfg.Index.RespectGitignore)
	assert.Equal(t, 3, cfg.Workers())
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, filepath.Join("/src/proj", "cache/model.db"), cfg.StoragePath())
	assert.Equal(t, 1000, cfg.Storage.CacheSize)
	assert.False(t, cfg.Model.Global)
	assert.False(t, cfg.Model.FastReparse)
	assert.Equal(t, 0.9, cfg.Model.SuggestThreshold)
	assert.Equal(t, map[string]string{
		"EXPORT":   `__attribute__((visibility("default")))`,
		"NOINLINE": "",
	}, cfg.Macros)
	assert.Equal(t, []string{"src/**", "lib/**"}, cfg.Include)
	assert.Equal(t, []string{"gen/**"}, cfg.Exclude)
}

func TestParseKDL_Errors(t *testing.T) {
	_, err := parseKDL("index {", "/p")
	var ce *cxerrors.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Empty(t, ce.Field)
	assert.Contains(t, ce.Error(), filepath.Join("/p", KDLFileName))

	_, err = parseKDL("index {\n  max_file_size \"lots\"\n}\n", "/p")
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "index.max_file_size", ce.Field)
}

func TestParseSize(t *testing.T) {
	tests := map[string]int64{
		"512":   512,
		"10B":   10,
		"4kb":   4096,
		"2MB":   2 * 1024 * 1024,
		" 1GB ": 1024 * 1024 * 1024,
	}
	for in, want := range tests {
		got, err := parseSize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseSize("MB")
	assert.Error(t, err)
}

func TestApplyTOML(t *testing.T) {
	cfg := Default("/p")
	data := `
[project]
root = "sub"

[index]
include = ["src/**"]
exclude = ["gen/**"]
include_dirs = ["inc"]
max_file_size = "1MB"
watch = true

[performance]
workers = 2

[storage]
backend = "sqlite"

[model]
fast_reparse = false

[macros]
API = "__declspec(dllexport)"
`
	require.NoError(t, applyTOML([]byte(data), "/p", cfg))

	assert.Equal(t, filepath.Join("/p", "sub"), cfg.Project.Root)
	assert.Equal(t, []string{"src/**"}, cfg.Include)
	assert.Contains(t, cfg.Exclude, "gen/**")
	assert.Contains(t, cfg.Exclude, "**/.git/**")
	assert.Equal(t, []string{"inc"}, cfg.Index.IncludeDirs)
	assert.EqualValues(t, 1024*1024, cfg.Index.MaxFileSize)
	assert.True(t, cfg.Index.WatchMode)
	assert.Equal(t, 2, cfg.Performance.ParallelFileWorkers)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.False(t, cfg.Model.FastReparse)
	// absent keys keep their values
	assert.True(t, cfg.Model.Global)
	assert.Equal(t, DefaultCacheSize, cfg.Storage.CacheSize)
	assert.Equal(t, "__declspec(dllexport)", cfg.Macros["API"])

	err := applyTOML([]byte("[index\n"), "/p", cfg)
	var ce *cxerrors.ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestLoadWithRoot(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeFile(t, home, KDLFileName, `
exclude "**/vendor/**"
macros {
    BASE "1"
}
`)

	root := t.TempDir()
	writeFile(t, root, KDLFileName, `
project { name "demo"; }
exclude "**/gen/**"
macros {
    LOCAL "2"
}
`)
	writeFile(t, root, TOMLFileName, "[storage]\ncache_size = 42\n")
	writeFile(t, root, ".gitignore", "# comment\n/dist/\n*.tmp\n!keep.tmp\n")
	writeFile(t, root, "cmake-debug/CMakeCache.txt", "")

	cfg, err := LoadWithRoot(root)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Project.Name)
	assert.Equal(t, 42, cfg.Storage.CacheSize)
	assert.Contains(t, cfg.Exclude, "**/vendor/**")
	assert.Contains(t, cfg.Exclude, "**/gen/**")
	assert.Contains(t, cfg.Exclude, "dist/**")
	assert.Contains(t, cfg.Exclude, "**/*.tmp")
	assert.Contains(t, cfg.Exclude, "cmake-debug/**")
	assert.Equal(t, map[string]string{"BASE": "1", "LOCAL": "2"}, cfg.Macros)
}

func TestLoadWithRoot_NoFiles(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	root := t.TempDir()

	cfg, err := LoadWithRoot(root)
	require.NoError(t, err)
	abs, _ := filepath.Abs(root)
	assert.Equal(t, abs, cfg.Project.Root)
	assert.Equal(t, DefaultCacheSize, cfg.Storage.CacheSize)
}

func TestMergeConfigs(t *testing.T) {
	base := &Config{
		Include: []string{"src/**"},
		Exclude: []string{"**/vendor/**", "**/build/**"},
		Macros:  map[string]string{"A": "1", "B": "1"},
	}
	project := &Config{
		Exclude: []string{"**/build/**", "**/gen/**"},
		Macros:  map[string]string{"B": "2"},
	}

	merged := mergeConfigs(base, project)
	assert.Equal(t, []string{"**/vendor/**", "**/build/**", "**/gen/**"}, merged.Exclude)
	assert.Equal(t, []string{"src/**"}, merged.Include)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, merged.Macros)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{"empty root", func(c *Config) { c.Project.Root = "" }, "project.root"},
		{"bad backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"sqlite without path", func(c *Config) { c.Storage.Backend = "sqlite"; c.Storage.Path = "" }, "storage.path"},
		{"negative workers", func(c *Config) { c.Performance.ParallelFileWorkers = -1 }, "performance.workers"},
		{"bad glob", func(c *Config) { c.Include = []string{"src/[a"} }, "include"},
		{"threshold", func(c *Config) { c.Model.SuggestThreshold = 1.5 }, "model.suggest_threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("/p")
			tt.edit(cfg)
			err := ValidateConfig(cfg)
			var ce *cxerrors.ConfigError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestValidateConfig_SmartDefaults(t *testing.T) {
	cfg := &Config{Project: Project{Root: "/p"}}
	require.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, DefaultCacheSize, cfg.Storage.CacheSize)
	assert.Equal(t, DefaultWatchDebounceMs, cfg.Index.WatchDebounceMs)
	assert.NotNil(t, cfg.Macros)
	assert.GreaterOrEqual(t, cfg.Workers(), 1)
}

func TestGitignorePattern(t *testing.T) {
	tests := []struct {
		line string
		ok   bool
		want string
	}{
		{"", false, ""},
		{"# note", false, ""},
		{"*.o", true, "**/*.o"},
		{"/build/", true, "build/**"},
		{"obj/", true, "**/obj/**"},
		{"docs/gen", true, "docs/gen"},
		{"!keep.o", true, ""},
	}
	for _, tt := range tests {
		p, ok := ParseGitignoreLine(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		if ok {
			assert.Equal(t, tt.want, p.Exclusion(), tt.line)
		}
	}
}

func TestBuildArtifactDetector(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "CMakePresets.json", `{"configurePresets":[
		{"name":"dbg","binaryDir":"${sourceDir}/out/build/${presetName}"},
		{"name":"rel","binaryDir":"${sourceDir}/stage"}]}`)
	writeFile(t, root, "ninja-rel/build.ninja", "")
	writeFile(t, root, "src/main.cpp", "")
	writeFile(t, root, "Cargo.toml", "[build]\ntarget-dir = \"rust-out\"\n")

	got := NewBuildArtifactDetector(root).DetectOutputDirectories()
	assert.ElementsMatch(t, []string{"**/out/**", "**/stage/**", "ninja-rel/**", "**/rust-out/**"}, got)
}

func TestPresetDir(t *testing.T) {
	assert.Equal(t, "out", presetDir("${sourceDir}/out/build/${presetName}"))
	assert.Equal(t, "build", presetDir("build"))
	assert.Equal(t, "", presetDir("${sourceDir}/${presetName}"))
}

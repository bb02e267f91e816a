package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	cxerrors "github.com/standardbeagle/cxxmodel/internal/errors"
)

// tomlFile mirrors .cxxmodel.toml. Pointer fields tell an absent key from
// a zero value so only keys present in the file override.
type tomlFile struct {
	Project struct {
		Root *string `toml:"root"`
		Name *string `toml:"name"`
	} `toml:"project"`
	Index struct {
		Include          []string `toml:"include"`
		Exclude          []string `toml:"exclude"`
		IncludeDirs      []string `toml:"include_dirs"`
		MaxFileSize      *string  `toml:"max_file_size"`
		RespectGitignore *bool    `toml:"respect_gitignore"`
		Watch            *bool    `toml:"watch"`
		DebounceMs       *int     `toml:"debounce_ms"`
	} `toml:"index"`
	Performance struct {
		Workers *int `toml:"workers"`
	} `toml:"performance"`
	Storage struct {
		Backend   *string `toml:"backend"`
		Path      *string `toml:"path"`
		CacheSize *int    `toml:"cache_size"`
	} `toml:"storage"`
	Model struct {
		Global           *bool    `toml:"global"`
		FastReparse      *bool    `toml:"fast_reparse"`
		SuggestThreshold *float64 `toml:"suggest_threshold"`
	} `toml:"model"`
	Macros map[string]string `toml:"macros"`
}

// LoadTOML applies .cxxmodel.toml from dir onto cfg. A missing file leaves
// cfg untouched.
func LoadTOML(dir string, cfg *Config) error {
	path := filepath.Join(dir, TOMLFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return cxerrors.NewConfigError(TOMLFileName, "", err)
	}
	return applyTOML(data, dir, cfg)
}

func applyTOML(data []byte, dir string, cfg *Config) error {
	var f tomlFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return cxerrors.NewConfigError(TOMLFileName, "", err)
	}

	if f.Project.Root != nil {
		root := *f.Project.Root
		if !filepath.IsAbs(root) {
			root = filepath.Join(dir, root)
		}
		cfg.Project.Root = filepath.Clean(root)
	}
	setIf(&cfg.Project.Name, f.Project.Name)

	if len(f.Index.Include) > 0 {
		cfg.Include = f.Index.Include
	}
	if len(f.Index.Exclude) > 0 {
		cfg.Exclude = DeduplicatePatterns(append(cfg.Exclude, f.Index.Exclude...))
	}
	cfg.Index.IncludeDirs = append(cfg.Index.IncludeDirs, f.Index.IncludeDirs...)
	if f.Index.MaxFileSize != nil {
		sz, err := parseSize(*f.Index.MaxFileSize)
		if err != nil {
			return cxerrors.NewConfigError("index.max_file_size", *f.Index.MaxFileSize, err)
		}
		cfg.Index.MaxFileSize = sz
	}
	setIf(&cfg.Index.RespectGitignore, f.Index.RespectGitignore)
	setIf(&cfg.Index.WatchMode, f.Index.Watch)
	setIf(&cfg.Index.WatchDebounceMs, f.Index.DebounceMs)

	setIf(&cfg.Performance.ParallelFileWorkers, f.Performance.Workers)

	setIf(&cfg.Storage.Backend, f.Storage.Backend)
	setIf(&cfg.Storage.Path, f.Storage.Path)
	setIf(&cfg.Storage.CacheSize, f.Storage.CacheSize)

	setIf(&cfg.Model.Global, f.Model.Global)
	setIf(&cfg.Model.FastReparse, f.Model.FastReparse)
	setIf(&cfg.Model.SuggestThreshold, f.Model.SuggestThreshold)

	if cfg.Macros == nil {
		cfg.Macros = make(map[string]string, len(f.Macros))
	}
	for k, v := range f.Macros {
		cfg.Macros[k] = v
	}
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"

	cxerrors "github.com/standardbeagle/cxxmodel/internal/errors"
	"github.com/standardbeagle/cxxmodel/internal/storage"
)

// Validator checks a configuration and fills unset values with defaults.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults returns a ConfigError naming the first offending
// section.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if cfg.Project.Root == "" {
		return cxerrors.NewConfigError("project.root", "", errors.New("project root cannot be empty"))
	}
	if err := v.validateIndexConfig(cfg); err != nil {
		return err
	}
	if cfg.Performance.ParallelFileWorkers < 0 {
		return cxerrors.NewConfigError("performance.workers", strconv.Itoa(cfg.Performance.ParallelFileWorkers),
			errors.New("cannot be negative"))
	}
	if err := v.validateStorageConfig(&cfg.Storage); err != nil {
		return err
	}
	if t := cfg.Model.SuggestThreshold; t < 0 || t > 1 {
		return cxerrors.NewConfigError("model.suggest_threshold", fmt.Sprint(t), errors.New("must be between 0 and 1"))
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateIndexConfig(cfg *Config) error {
	if cfg.Index.MaxFileSize < 0 {
		return cxerrors.NewConfigError("index.max_file_size", strconv.FormatInt(cfg.Index.MaxFileSize, 10),
			errors.New("cannot be negative"))
	}
	if cfg.Index.WatchDebounceMs < 0 {
		return cxerrors.NewConfigError("index.watch_debounce_ms", strconv.Itoa(cfg.Index.WatchDebounceMs),
			errors.New("cannot be negative"))
	}
	for _, p := range cfg.Include {
		if !doublestar.ValidatePattern(p) {
			return cxerrors.NewConfigError("include", p, doublestar.ErrBadPattern)
		}
	}
	for _, p := range cfg.Exclude {
		if !doublestar.ValidatePattern(p) {
			return cxerrors.NewConfigError("exclude", p, doublestar.ErrBadPattern)
		}
	}
	return nil
}

func (v *Validator) validateStorageConfig(s *Storage) error {
	switch s.Backend {
	case "", storage.BackendMemory, storage.BackendSQLite:
	default:
		return cxerrors.NewConfigError("storage.backend", s.Backend, errors.New("expected memory or sqlite"))
	}
	if s.Backend == storage.BackendSQLite && s.Path == "" {
		return cxerrors.NewConfigError("storage.path", "", errors.New("sqlite backend needs a path"))
	}
	if s.CacheSize < 0 {
		return cxerrors.NewConfigError("storage.cache_size", strconv.Itoa(s.CacheSize), errors.New("cannot be negative"))
	}
	return nil
}

func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Index.MaxFileSize == 0 {
		cfg.Index.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Index.WatchDebounceMs == 0 {
		cfg.Index.WatchDebounceMs = DefaultWatchDebounceMs
	}
	if cfg.Performance.IndexingTimeoutSec <= 0 {
		cfg.Performance.IndexingTimeoutSec = DefaultIndexingTimeout
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = storage.BackendMemory
	}
	if cfg.Storage.CacheSize == 0 {
		cfg.Storage.CacheSize = DefaultCacheSize
	}
	if cfg.Model.SuggestThreshold == 0 {
		cfg.Model.SuggestThreshold = DefaultSuggestThreshold
	}
	if cfg.Macros == nil {
		cfg.Macros = map[string]string{}
	}
}

// ValidateConfig is a convenience function for quick validation.
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}

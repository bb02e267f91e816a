package errors

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/standardbeagle/cxxmodel/internal/types"
)

// Error types for the declaration model
type ErrorType string

const (
	ErrorTypeParse          ErrorType = "parse"
	ErrorTypeBuild          ErrorType = "build"
	ErrorTypeStorage        ErrorType = "storage"
	ErrorTypeConfig         ErrorType = "config"
	ErrorTypeNotImplemented ErrorType = "not_implemented"
	ErrorTypeInternal       ErrorType = "internal"
)

// Sentinel causes carried by ParseError and BuildError. Match them with errors.Is.
var (
	ErrMissingName         = stderrors.New("Missing name")
	ErrMissingBody         = stderrors.New("Missing body")
	ErrBuilderConsumed     = stderrors.New("builder already created its declaration")
	ErrMissingCollaborator = stderrors.New("required builder collaborator is absent")
	ErrNotImplemented      = stderrors.New("not implemented")
)

// ParseError is a structural failure located in a source file. It aborts
// the construction of exactly one declaration.
type ParseError struct {
	Type       ErrorType
	FileID     types.FileID
	FilePath   string
	Line       int
	Column     int
	Token      string
	Underlying error
	Timestamp  time.Time
}

// NewParseError creates a new parse error
func NewParseError(fileID types.FileID, path string, pos types.Position, token string, err error) *ParseError {
	return &ParseError{
		Type:       ErrorTypeParse,
		FileID:     fileID,
		FilePath:   path,
		Line:       pos.Line,
		Column:     pos.Column,
		Token:      token,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%v at %s:%d:%d", e.Underlying, e.FilePath, e.Line, e.Column)
	}
	return fmt.Sprintf("%v at %s:%d:%d (near token %q)", e.Underlying, e.FilePath, e.Line, e.Column, e.Token)
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// BuildError reports misuse of an incremental builder.
type BuildError struct {
	Type       ErrorType
	Builder    string
	Field      string
	Underlying error
}

// NewBuildError creates a builder error for the named builder and field
func NewBuildError(builder, field string, err error) *BuildError {
	return &BuildError{
		Type:       ErrorTypeBuild,
		Builder:    builder,
		Field:      field,
		Underlying: err,
	}
}

func (e *BuildError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %v", e.Builder, e.Field, e.Underlying)
	}
	return fmt.Sprintf("%s: %v", e.Builder, e.Underlying)
}

func (e *BuildError) Unwrap() error {
	return e.Underlying
}

// NotImplementedError signals an API/version mismatch rather than a data
// condition, e.g. asking a flat-text macro for structured parameters.
type NotImplementedError struct {
	Operation string
}

func NewNotImplemented(op string) *NotImplementedError {
	return &NotImplementedError{Operation: op}
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Operation, ErrNotImplemented)
}

func (e *NotImplementedError) Unwrap() error {
	return ErrNotImplemented
}

// StorageError wraps failures of the identity store.
type StorageError struct {
	Type       ErrorType
	Operation  string
	Key        string
	Underlying error
	Timestamp  time.Time
}

// NewStorageError creates a storage error for op on key
func NewStorageError(op, key string, err error) *StorageError {
	return &StorageError{
		Type:       ErrorTypeStorage,
		Operation:  op,
		Key:        key,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s failed for %s: %v", e.Operation, e.Key, e.Underlying)
	}
	return fmt.Sprintf("storage %s failed: %v", e.Operation, e.Underlying)
}

func (e *StorageError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %v", e.Underlying)
	}
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError collects the per-declaration failures of one file walk.
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error, dropping nil entries
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// ErrorOrNil returns nil when no errors were collected.
func (e *MultiError) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}

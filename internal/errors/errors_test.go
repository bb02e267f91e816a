package errors

import (
	"errors"
	"testing"

	"github.com/standardbeagle/cxxmodel/internal/types"
)

func TestParseError(t *testing.T) {
	err := NewParseError(456, "/src/widget.cpp", types.Position{Line: 10, Column: 5}, "~", ErrMissingName)

	if err.Type != ErrorTypeParse {
		t.Errorf("Expected Type to be ErrorTypeParse, got %v", err.Type)
	}

	if err.FileID != 456 {
		t.Errorf("Expected FileID to be 456, got %d", err.FileID)
	}

	if err.Line != 10 || err.Column != 5 {
		t.Errorf("Expected Line/Column to be 10:5, got %d:%d", err.Line, err.Column)
	}

	if !errors.Is(err, ErrMissingName) {
		t.Errorf("Expected error to unwrap to ErrMissingName")
	}

	expectedMsg := `Missing name at /src/widget.cpp:10:5 (near token "~")`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestParseError_NoToken(t *testing.T) {
	err := NewParseError(1, "a.cpp", types.Position{Line: 3, Column: 1}, "", ErrMissingBody)

	expectedMsg := "Missing body at a.cpp:3:1"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}

	var pe *ParseError
	if !errors.As(error(err), &pe) {
		t.Fatal("Expected errors.As to find ParseError")
	}
}

func TestBuildError(t *testing.T) {
	err := NewBuildError("FunctionBuilder", "parameters", ErrMissingCollaborator)

	if !errors.Is(err, ErrMissingCollaborator) {
		t.Errorf("Expected error to unwrap to ErrMissingCollaborator")
	}

	expectedMsg := "FunctionBuilder: parameters: required builder collaborator is absent"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}

	consumed := NewBuildError("MacroBuilder", "", ErrBuilderConsumed)
	if consumed.Error() != "MacroBuilder: builder already created its declaration" {
		t.Errorf("Unexpected message %q", consumed.Error())
	}
}

func TestNotImplementedError(t *testing.T) {
	err := NewNotImplemented("Macro.ParameterList")
	if !errors.Is(err, ErrNotImplemented) {
		t.Errorf("Expected error to match ErrNotImplemented")
	}
	if err.Error() != "Macro.ParameterList: not implemented" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestStorageError(t *testing.T) {
	underlying := errors.New("disk full")
	err := NewStorageError("put", "Bc", underlying)

	if err.Type != ErrorTypeStorage {
		t.Errorf("Expected Type to be ErrorTypeStorage, got %v", err.Type)
	}
	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}
	if err.Error() != "storage put failed for Bc: disk full" {
		t.Errorf("Unexpected message %q", err.Error())
	}

	noKey := NewStorageError("open", "", underlying)
	if noKey.Error() != "storage open failed: disk full" {
		t.Errorf("Unexpected message %q", noKey.Error())
	}
}

func TestConfigError(t *testing.T) {
	underlying := errors.New("invalid value")
	err := NewConfigError("storage.backend", "redis", underlying)

	if err.Field != "storage.backend" {
		t.Errorf("Expected Field to be 'storage.backend', got %s", err.Field)
	}

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := "config error for field storage.backend (value redis): invalid value"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}

	whole := NewConfigError("", "", underlying)
	if whole.Error() != "config error: invalid value" {
		t.Errorf("Expected message without field, got %q", whole.Error())
	}
}

func TestMultiError(t *testing.T) {
	err1 := errors.New("error 1")
	err2 := errors.New("error 2")

	t.Run("filters nil", func(t *testing.T) {
		err := NewMultiError([]error{err1, nil, err2})
		if len(err.Errors) != 2 {
			t.Errorf("Expected 2 errors, got %d", len(err.Errors))
		}
		if !errors.Is(err, err2) {
			t.Errorf("Expected MultiError to match err2")
		}
	})

	t.Run("single", func(t *testing.T) {
		err := NewMultiError([]error{err1})
		if err.Error() != "error 1" {
			t.Errorf("Expected single message, got %q", err.Error())
		}
	})

	t.Run("empty is nil", func(t *testing.T) {
		if NewMultiError(nil).ErrorOrNil() != nil {
			t.Errorf("Expected ErrorOrNil to be nil for no errors")
		}
		if NewMultiError([]error{err1}).ErrorOrNil() == nil {
			t.Errorf("Expected ErrorOrNil to be non-nil")
		}
	})
}

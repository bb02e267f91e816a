// Package idcodec converts identity tokens to and from their compact text
// form. The text form is used as the storage key of persisted declarations
// and as the id shown by the CLI and the query server.
//
// Layout: one kind letter, the base-63 packed (file, local) pair, then an
// optional "." followed by the name. Names may contain any character.
package idcodec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/standardbeagle/cxxmodel/internal/encoding"
	"github.com/standardbeagle/cxxmodel/internal/types"
)

var (
	ErrEmptyString = encoding.ErrEmptyString
	ErrInvalidChar = encoding.ErrInvalidChar
	ErrOverflow    = encoding.ErrOverflow
	ErrUnknownKind = errors.New("unknown token kind")
)

// Kind letters. They are part of the persisted key format.
const (
	KindDecl       byte = 'D'
	KindSelf       byte = 'S'
	KindBuiltin    byte = 'B'
	KindUserMacro  byte = 'M'
	KindGlobal     byte = 'G'
	KindUnresolved byte = 'U'
)

func validKind(k byte) bool {
	switch k {
	case KindDecl, KindSelf, KindBuiltin, KindUserMacro, KindGlobal, KindUnresolved:
		return true
	}
	return false
}

// Parts are the fields of a token.
type Parts struct {
	Kind  byte
	File  types.FileID
	Local uint32
	Name  string
}

// EncodeComposite packs a file id and a file-local index into base-63.
func EncodeComposite(file types.FileID, local uint32) string {
	return encoding.Base63Encode(encoding.PackUint32Pair(uint32(file), local))
}

// DecodeComposite reverses EncodeComposite.
func DecodeComposite(encoded string) (types.FileID, uint32, error) {
	packed, err := encoding.Base63Decode(encoded)
	if err != nil {
		return 0, 0, err
	}
	file, local := encoding.UnpackUint32Pair(packed)
	return types.FileID(file), local, nil
}

// Encode returns the text form of p.
func Encode(p Parts) string {
	var sb strings.Builder
	sb.Grow(12 + len(p.Name))
	sb.WriteByte(p.Kind)
	sb.WriteString(EncodeComposite(p.File, p.Local))
	if p.Name != "" {
		sb.WriteByte('.')
		sb.WriteString(p.Name)
	}
	return sb.String()
}

// Decode parses the text form produced by Encode.
func Decode(s string) (Parts, error) {
	if s == "" {
		return Parts{}, ErrEmptyString
	}
	if !validKind(s[0]) {
		return Parts{}, fmt.Errorf("%w: %q", ErrUnknownKind, s[0])
	}
	rest := s[1:]
	var name string
	if i := strings.IndexByte(rest, '.'); i >= 0 {
		rest, name = rest[:i], rest[i+1:]
	}
	file, local, err := DecodeComposite(rest)
	if err != nil {
		return Parts{}, fmt.Errorf("token %q: %w", s, err)
	}
	return Parts{Kind: s[0], File: file, Local: local, Name: name}, nil
}

// IsValid reports whether s decodes.
func IsValid(s string) bool {
	_, err := Decode(s)
	return err == nil
}

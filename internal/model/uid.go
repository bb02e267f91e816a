package model

import (
	"fmt"

	"github.com/standardbeagle/cxxmodel/internal/encoding"
	"github.com/standardbeagle/cxxmodel/internal/idcodec"
	"github.com/standardbeagle/cxxmodel/internal/types"
)

// UIDKind selects how a token is resolved back to a declaration.
type UIDKind uint8

const (
	UIDNone       UIDKind = iota // structurally absent
	UIDDecl                      // file-scoped, live cache or store
	UIDSelf                      // local mode, carries the object
	UIDBuiltin                   // rebuilt from the canonical name
	UIDUserMacro                 // rebuilt from configuration bindings
	UIDGlobal                    // the global namespace
	UIDUnresolved                // unknown classifier named by spelling
)

var uidLetters = [...]byte{
	UIDDecl:       idcodec.KindDecl,
	UIDSelf:       idcodec.KindSelf,
	UIDBuiltin:    idcodec.KindBuiltin,
	UIDUserMacro:  idcodec.KindUserMacro,
	UIDGlobal:     idcodec.KindGlobal,
	UIDUnresolved: idcodec.KindUnresolved,
}

// UID is a stable identity token. It is comparable and usable as a map key.
type UID struct {
	Kind  UIDKind
	File  types.FileID
	Local uint32
	Name  string

	self *Declaration
}

// NoUID is the zero token.
var NoUID UID

// SelfUID gives d a local-mode identity that resolves to d itself.
func SelfUID(d *Declaration) UID {
	return UID{Kind: UIDSelf, File: d.File, Name: d.Name, self: d}
}

func BuiltinUID(name string) UID {
	return UID{Kind: UIDBuiltin, Name: name}
}

func UnresolvedUID(spelling string) UID {
	return UID{Kind: UIDUnresolved, Name: spelling}
}

func UserMacroUID(file types.FileID, name string) UID {
	return UID{Kind: UIDUserMacro, File: file, Name: name}
}

func GlobalUID() UID {
	return UID{Kind: UIDGlobal}
}

func (u UID) IsZero() bool {
	return u.Kind == UIDNone
}

// Key returns the text form used as the storage key and external id.
func (u UID) Key() string {
	if u.Kind == UIDNone || int(u.Kind) >= len(uidLetters) {
		return ""
	}
	name := u.Name
	if u.Kind == UIDDecl || u.Kind == UIDGlobal {
		name = ""
	}
	return idcodec.Encode(idcodec.Parts{Kind: uidLetters[u.Kind], File: u.File, Local: u.Local, Name: name})
}

func (u UID) String() string {
	if u.Kind == UIDNone {
		return "<none>"
	}
	return u.Key()
}

// ParseUID parses the text form of a non-self token.
func ParseUID(s string) (UID, error) {
	p, err := idcodec.Decode(s)
	if err != nil {
		return NoUID, err
	}
	for k, letter := range uidLetters {
		if letter == p.Kind && letter != 0 {
			if UIDKind(k) == UIDSelf {
				return NoUID, fmt.Errorf("self token %q has no text form", s)
			}
			return UID{Kind: UIDKind(k), File: p.File, Local: p.Local, Name: p.Name}, nil
		}
	}
	return NoUID, fmt.Errorf("%w: %q", idcodec.ErrUnknownKind, s)
}

// WriteUID appends u to a record. A self token keeps only its file and
// name: local-mode objects are never persisted, so a self token read back
// from a record resolves to nothing unless it is the record's own identity.
func WriteUID(w *encoding.Writer, u UID) {
	w.WriteUint8(uint8(u.Kind))
	switch u.Kind {
	case UIDNone, UIDGlobal:
	case UIDDecl:
		w.WriteUvarint(uint64(u.File))
		w.WriteUvarint(uint64(u.Local))
	default:
		w.WriteUvarint(uint64(u.File))
		w.WriteString(u.Name)
	}
}

// ReadUID reads a token written by WriteUID, interning names through s.
func ReadUID(r *encoding.Reader, s *Session) UID {
	u := UID{Kind: UIDKind(r.ReadUint8())}
	switch u.Kind {
	case UIDNone, UIDGlobal:
	case UIDDecl:
		u.File = types.FileID(r.ReadUvarint())
		u.Local = uint32(r.ReadUvarint())
	default:
		u.File = types.FileID(r.ReadUvarint())
		u.Name = s.internName(r.ReadString())
	}
	return u
}

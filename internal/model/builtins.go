package model

import (
	"strings"
	"sync"

	"github.com/standardbeagle/cxxmodel/internal/intern"
)

var builtinNames = map[string]bool{
	"void": true, "bool": true, "char": true, "signed char": true, "unsigned char": true,
	"wchar_t": true, "char8_t": true, "char16_t": true, "char32_t": true,
	"short": true, "unsigned short": true, "int": true, "unsigned int": true,
	"long": true, "unsigned long": true, "long long": true, "unsigned long long": true,
	"float": true, "double": true, "long double": true, "auto": true,
	"std::nullptr_t": true, "nullptr_t": true, "size_t": true, "ptrdiff_t": true,
	"int8_t": true, "int16_t": true, "int32_t": true, "int64_t": true,
	"uint8_t": true, "uint16_t": true, "uint32_t": true, "uint64_t": true,
}

var builtinAliases = map[string]string{
	"signed":                 "int",
	"signed int":             "int",
	"unsigned":               "unsigned int",
	"short int":              "short",
	"signed short":           "short",
	"short signed":           "short",
	"unsigned short int":     "unsigned short",
	"long int":               "long",
	"signed long":            "long",
	"unsigned long int":      "unsigned long",
	"long long int":          "long long",
	"unsigned long long int": "unsigned long long",
	"nullptr_t":              "std::nullptr_t",
}

// CanonicalBuiltin normalizes spellings such as "unsigned" or "long int".
func CanonicalBuiltin(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if c, ok := builtinAliases[name]; ok {
		return c
	}
	return name
}

// IsBuiltinName reports whether name spells a fundamental type.
func IsBuiltinName(name string) bool {
	return builtinNames[CanonicalBuiltin(name)]
}

// Builtins owns the built-in classifier declarations of one session.
// Entries are created on first use and live as long as the session.
type Builtins struct {
	mu      sync.RWMutex
	known   map[string]*Declaration
	unknown map[string]*Declaration
	in      *intern.Interner
}

func newBuiltins(in *intern.Interner) *Builtins {
	return &Builtins{
		known:   make(map[string]*Declaration),
		unknown: make(map[string]*Declaration),
		in:      in,
	}
}

// Get returns the built-in named name, creating it on first use.
func (b *Builtins) Get(name string) *Declaration {
	return b.get(b.known, CanonicalBuiltin(name), false)
}

// Unknown returns the placeholder classifier for an unresolvable spelling.
func (b *Builtins) Unknown(spelling string) *Declaration {
	return b.get(b.unknown, spelling, true)
}

func (b *Builtins) get(pool map[string]*Declaration, name string, unknown bool) *Declaration {
	b.mu.RLock()
	d, ok := pool[name]
	b.mu.RUnlock()
	if ok {
		return d
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if d, ok := pool[name]; ok {
		return d
	}
	name = b.in.Intern(intern.Name, name)
	d = &Declaration{
		Kind:          KindBuiltin,
		Name:          name,
		RawName:       name,
		QualifiedName: name,
		Data:          &BuiltinData{Unknown: unknown},
	}
	if unknown {
		d.uid = UnresolvedUID(name)
	} else {
		d.uid = BuiltinUID(name)
	}
	pool[name] = d
	return d
}

// Len returns the number of built-ins created so far.
func (b *Builtins) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.known) + len(b.unknown)
}

// Package encoding provides the low-level codecs shared by the model:
// a base-63 text form for identity tokens and the binary record format
// used when declarations are written to storage.
//
// Base-63 Alphabet: A-Z (0-25), a-z (26-51), 0-9 (52-61), _ (62)
package encoding

import (
	"errors"
	"fmt"
)

const (
	Base63     = 63
	Alphabet63 = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_"
)

var (
	ErrEmptyString = errors.New("empty encoded string")
	ErrInvalidChar = errors.New("invalid character in encoded string")
	ErrOverflow    = errors.New("decoded value overflow")
)

// reverse63 maps an alphabet byte to value+1; zero marks an invalid byte.
var reverse63 = func() (t [256]uint8) {
	for i := 0; i < len(Alphabet63); i++ {
		t[Alphabet63[i]] = uint8(i + 1)
	}
	return t
}()

// Base63Encode encodes value as base-63 text. Zero encodes as "A".
func Base63Encode(value uint64) string {
	var buf [11]byte
	pos := len(buf)
	for {
		pos--
		buf[pos] = Alphabet63[value%Base63]
		value /= Base63
		if value == 0 {
			break
		}
	}
	return string(buf[pos:])
}

// Base63Decode decodes base-63 text produced by Base63Encode.
func Base63Decode(encoded string) (uint64, error) {
	if encoded == "" {
		return 0, ErrEmptyString
	}
	var value uint64
	for i := 0; i < len(encoded); i++ {
		v := reverse63[encoded[i]]
		if v == 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidChar, encoded[i])
		}
		if value > (^uint64(0)-uint64(v-1))/Base63 {
			return 0, ErrOverflow
		}
		value = value*Base63 + uint64(v-1)
	}
	return value, nil
}

// PackUint32Pair packs lower into the low 32 bits and upper into the high 32 bits.
func PackUint32Pair(lower, upper uint32) uint64 {
	return uint64(lower) | uint64(upper)<<32
}

// UnpackUint32Pair is the inverse of PackUint32Pair.
func UnpackUint32Pair(packed uint64) (lower, upper uint32) {
	return uint32(packed), uint32(packed >> 32)
}

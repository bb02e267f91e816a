// Binary file detection utility for early rejection of non-text files
// Prevents tree-sitter from attempting to parse binary data as source code
package indexing

import (
	"bytes"
	"path/filepath"
	"strings"
)

// BinaryDetector handles detection of binary files that should not be indexed
type BinaryDetector struct {
	binaryExtensions map[string]bool
}

// NewBinaryDetector creates a detector for the artifacts found in C/C++ trees.
func NewBinaryDetector() *BinaryDetector {
	extensions := map[string]bool{
		// Object code and libraries
		".o":     true,
		".obj":   true,
		".a":     true,
		".lib":   true,
		".so":    true,
		".dylib": true,
		".dll":   true,
		".exe":   true,
		".bin":   true,
		".pdb":   true,
		".ilk":   true,

		// Precompiled headers and modules
		".pch": true,
		".gch": true,
		".pcm": true,
		".ifc": true,

		// Archives
		".zip": true,
		".tar": true,
		".gz":  true,
		".xz":  true,
		".7z":  true,
	}
	return &BinaryDetector{binaryExtensions: extensions}
}

// IsBinaryByExtension checks if a file is binary based on its extension
func (bd *BinaryDetector) IsBinaryByExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	return bd.binaryExtensions[ext]
}

// IsBinaryByMagicNumber checks the first 512 bytes for object file
// signatures and for a high share of null or control bytes.
func (bd *BinaryDetector) IsBinaryByMagicNumber(content []byte) bool {
	if len(content) == 0 {
		return false
	}

	sample := content[:min(512, len(content))]

	for _, magic := range [][]byte{
		{0x7F, 0x45, 0x4C, 0x46}, // ELF
		{0x4D, 0x5A},             // PE
		{0xCF, 0xFA, 0xED, 0xFE}, // Mach-O 64
		{0xCA, 0xFE, 0xBA, 0xBE}, // Mach-O fat
		{0x1F, 0x8B},             // gzip
		{0x50, 0x4B, 0x03, 0x04}, // zip
		[]byte("!<arch>\n"),      // ar archive
		[]byte("CPCH"),           // clang precompiled header
	} {
		if bytes.HasPrefix(sample, magic) {
			return true
		}
	}

	nullBytes := 0
	nonPrintable := 0
	for _, b := range sample {
		if b == 0 {
			nullBytes++
		}
		if b < 0x20 && b != 0x09 && b != 0x0A && b != 0x0D && b != 0x0C {
			nonPrintable++
		}
	}

	if nullBytes > len(sample)/100 {
		return true
	}
	return nonPrintable > len(sample)*30/100
}

// IsBinary combines extension and magic number checks
func (bd *BinaryDetector) IsBinary(path string, content []byte) bool {
	if bd.IsBinaryByExtension(path) {
		return true
	}
	return bd.IsBinaryByMagicNumber(content)
}

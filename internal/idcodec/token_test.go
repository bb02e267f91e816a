package idcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/cxxmodel/internal/types"
)

func TestComposite_RoundTrip(t *testing.T) {
	tests := []struct {
		file  uint32
		local uint32
	}{
		{0, 0},
		{1, 0},
		{0, 1},
		{42, 7},
		{0xFFFFFFFF, 0xFFFFFFFF},
	}
	for _, tc := range tests {
		enc := EncodeComposite(types.FileID(tc.file), tc.local)
		file, local, err := DecodeComposite(enc)
		require.NoError(t, err)
		assert.Equal(t, tc.file, uint32(file))
		assert.Equal(t, tc.local, local)
	}
}

func TestEncode_Layout(t *testing.T) {
	assert.Equal(t, "DB", Encode(Parts{Kind: KindDecl, File: 1}))
	assert.Equal(t, "GA", Encode(Parts{Kind: KindGlobal}))
	assert.Equal(t, "BA.unsigned int", Encode(Parts{Kind: KindBuiltin, Name: "unsigned int"}))
}

func TestDecode_RoundTrip(t *testing.T) {
	tests := []Parts{
		{Kind: KindDecl, File: 3, Local: 19},
		{Kind: KindUserMacro, File: 2, Name: "VERSION"},
		{Kind: KindUnresolved, Name: "ns::Type.with.dots"},
		{Kind: KindBuiltin, Name: "int"},
	}
	for _, want := range tests {
		t.Run(Encode(want), func(t *testing.T) {
			got, err := Decode(Encode(want))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode("")
	assert.ErrorIs(t, err, ErrEmptyString)

	_, err = Decode("XA")
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = Decode("D!")
	assert.ErrorIs(t, err, ErrInvalidChar)

	_, err = Decode("D.name")
	assert.ErrorIs(t, err, ErrEmptyString)

	assert.True(t, IsValid("DBA"))
	assert.False(t, IsValid("D"))
}

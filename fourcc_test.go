// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFourCCRoundTrip(t *testing.T) {
	f := NewFourCC("RFRM")
	assert.Equal(t, "RFRM", f.String())
	assert.Equal(t, FourCC{'R', 'F', 'R', 'M'}, f)
}

func TestFourCCEqualityIsByteExact(t *testing.T) {
	assert.Equal(t, NewFourCC("TXTR"), NewFourCC("TXTR"))
	assert.NotEqual(t, NewFourCC("TXTR"), NewFourCC("CMDL"))
}

func TestFourCCStringEscapesNonPrintable(t *testing.T) {
	f := FourCC{0x00, 0x01, 'A', 0x7f}
	s := f.String()
	assert.Contains(t, s, "\\x00")
	assert.Contains(t, s, "\\x01")
	assert.Contains(t, s, "A")
	assert.Contains(t, s, "\\x7f")
}

func TestFourCCGoString(t *testing.T) {
	f := NewFourCC("PACK")
	assert.Equal(t, `"PACK"`, f.GoString())
}

func TestPeekFourCC(t *testing.T) {
	data := []byte("RFRM\x00\x00\x00\x00")
	f, ok := peekFourCC(data)
	require.True(t, ok)
	assert.Equal(t, NewFourCC("RFRM"), f)

	_, ok = peekFourCC([]byte{0x01, 0x02})
	assert.False(t, ok)
}

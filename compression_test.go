// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecompressLZSSMode1LiteralGroup(t *testing.T) {
	// Header byte 0x00: every one of the 8 groups is a literal single-byte
	// copy, so the remaining 8 input bytes land in out unchanged.
	input := append([]byte{0x00}, []byte{1, 2, 3, 4, 5, 6, 7, 8}...)
	out := make([]byte, 8)
	ok := decompressLZSS(1, input, out)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, out)
}

func TestDecompressLZSSRejectsShortInput(t *testing.T) {
	out := make([]byte, 8)
	ok := decompressLZSS(1, []byte{0x00, 1, 2}, out)
	assert.False(t, ok)
}

func TestDecompressBufferZeroPrefixShortcut(t *testing.T) {
	compressed := append([]byte{0, 0, 0, 0}, []byte("payload!")...)
	out, mode, err := DecompressBuffer(compressed, 8)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), mode)
	assert.Equal(t, []byte("payload!"), out)
}

func TestDecompressRawModePassesThrough(t *testing.T) {
	payload := []byte("abcdefgh")
	out := make([]byte, len(payload))
	err := Decompress(ModeRaw, payload, out)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestDecompressBufferRejectsShortPrefix(t *testing.T) {
	_, _, err := DecompressBuffer([]byte{1, 2}, 10)
	require.ErrorIs(t, err, ErrShortBuffer)
}

func TestDecompressRejectsUnsupportedMode(t *testing.T) {
	err := Decompress(999, []byte{1, 2, 3}, make([]byte, 3))
	require.ErrorIs(t, err, ErrUnsupportedCompressionMode)
}

func TestDecompressRawSizeMismatch(t *testing.T) {
	err := Decompress(ModeRaw, []byte{1, 2, 3}, make([]byte, 4))
	require.ErrorIs(t, err, ErrDecompressionFailed)
}

// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitReaderReadsMSBFirst(t *testing.T) {
	br := newBitReader([]byte{0b10110000})
	bits := make([]byte, 4)
	for i := range bits {
		b, ok := br.readBit()
		require.True(t, ok)
		bits[i] = b
	}
	assert.Equal(t, []byte{1, 0, 1, 1}, bits)
}

func TestBitReaderReadByte(t *testing.T) {
	br := newBitReader([]byte{0xA5})
	b, ok := br.readByte()
	require.True(t, ok)
	assert.Equal(t, byte(0xA5), b)

	_, ok = br.readByte()
	assert.False(t, ok)
}

func TestHuffmanTableCanonicalTwoSymbolDecode(t *testing.T) {
	table := newHuffmanTable([]huffmanSymbol{
		{value: 0x00, length: 1},
		{value: 0x41, length: 1},
	})
	br := newBitReader([]byte{0b01000000})

	first, ok := table.decode(br)
	require.True(t, ok)
	assert.Equal(t, byte(0x00), first)

	second, ok := table.decode(br)
	require.True(t, ok)
	assert.Equal(t, byte(0x41), second)
}

func TestReadHuffmanTableParsesPrelude(t *testing.T) {
	data := []byte{0x02, 0x00, 0x00, 0x01, 0x41, 0x01, 0xFF}
	table, consumed, err := readHuffmanTable(data)
	require.NoError(t, err)
	assert.Equal(t, 6, consumed)
	assert.Equal(t, []byte{0x00, 0x41}, table.symbolsByLength[1])
}

func TestReadHuffmanTableRejectsTruncatedData(t *testing.T) {
	_, _, err := readHuffmanTable([]byte{0x05, 0x00, 0x00, 0x01})
	require.ErrorIs(t, err, ErrShortBuffer)
}

func TestDecompressHuffmanLZSSLiteralByte(t *testing.T) {
	// Prelude: 2 symbols, (0x00, len 1) and (0x41, len 1), a single-bit
	// canonical code each. Bitstream "01" decodes to header byte 0x00 (top
	// bit clear, so the first of its 8 slots is a literal copy) followed by
	// literal byte 0x41, which for mode 1 (groupLen=1) fills a 1-byte out
	// buffer and the loop exits.
	input := []byte{0x02, 0x00, 0x00, 0x01, 0x41, 0x01, 0b01000000}
	out := make([]byte, 1)
	ok := decompressHuffmanLZSS(1, input, out)
	require.True(t, ok)
	assert.Equal(t, []byte{0x41}, out)
}

func TestDecompressHuffmanLZSSRejectsBadTable(t *testing.T) {
	out := make([]byte, 1)
	ok := decompressHuffmanLZSS(1, []byte{0xFF, 0xFF}, out)
	assert.False(t, ok)
}

// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import "sort"

// Compression modes 12/13/14 prefix the same group-width LZSS back
// reference scheme used by modes 1/2/3 with a canonical Huffman stage: the
// header/literal/reference byte stream that decompressLZSS reads directly
// from the input slice is, in these modes, entropy-coded first. The
// retrieved original source (lib/src/util/compression.rs) calls out to
// lzss::decompress_huffman::<M> but that function's body was not present
// in the corpus this package was built from. This file is our own design
// for that missing stage: a byte-oriented canonical Huffman table
// (symbol, code-length pairs in the header, codes assigned in
// length-then-symbol order) feeding the identical count/offset
// back-reference logic as decompressLZSS. If a real PACK file is ever
// found to disagree with this framing, only this file needs to change —
// the table format below is not attested by any retrieved source.

// huffmanSymbol is one entry of the canonical code-length table that
// prefixes a mode 12/13/14 stream.
type huffmanSymbol struct {
	value  byte
	length uint8
}

// huffmanTable is a canonical Huffman decode table built from a list of
// (symbol, code length) pairs, ordered by increasing length and then by
// symbol value, per the usual canonical-code construction (RFC 1951 §3.2.2
// describes the same scheme for DEFLATE).
type huffmanTable struct {
	// symbolsByLength[length] holds the symbols assigned to that bit length, in
	// canonical order; firstCode[length] is the numeric value of the
	// first code of that length.
	symbolsByLength [][]byte
	firstCode       []uint32
}

func newHuffmanTable(symbols []huffmanSymbol) *huffmanTable {
	maxLen := uint8(0)
	for _, s := range symbols {
		if s.length > maxLen {
			maxLen = s.length
		}
	}
	t := &huffmanTable{
		symbolsByLength: make([][]byte, maxLen+1),
		firstCode:       make([]uint32, maxLen+1),
	}
	for _, s := range symbols {
		if s.length == 0 {
			continue
		}
		t.symbolsByLength[s.length] = append(t.symbolsByLength[s.length], s.value)
	}
	for _, syms := range t.symbolsByLength {
		sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
	}
	code := uint32(0)
	for length := 1; length <= int(maxLen); length++ {
		t.firstCode[length] = code
		code = (code + uint32(len(t.symbolsByLength[length]))) << 1
	}
	return t
}

// decode reads one symbol from br using canonical code lookup.
func (t *huffmanTable) decode(br *bitReader) (byte, bool) {
	code := uint32(0)
	for length := 1; length < len(t.symbolsByLength); length++ {
		bit, ok := br.readBit()
		if !ok {
			return 0, false
		}
		code = (code << 1) | uint32(bit)
		syms := t.symbolsByLength[length]
		if len(syms) == 0 {
			continue
		}
		idx := int(code) - int(t.firstCode[length])
		if idx >= 0 && idx < len(syms) {
			return syms[idx], true
		}
	}
	return 0, false
}

// bitReader pulls bits MSB-first from a byte slice.
type bitReader struct {
	data []byte
	pos  int // bit position
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

func (r *bitReader) readBit() (byte, bool) {
	byteIdx := r.pos / 8
	if byteIdx >= len(r.data) {
		return 0, false
	}
	shift := 7 - uint(r.pos%8)
	bit := (r.data[byteIdx] >> shift) & 1
	r.pos++
	return bit, true
}

func (r *bitReader) readByte() (byte, bool) {
	var b byte
	for i := 0; i < 8; i++ {
		bit, ok := r.readBit()
		if !ok {
			return 0, false
		}
		b = (b << 1) | bit
	}
	return b, true
}

// readHuffmanTable parses the canonical code-length prelude: a uint16
// symbol count followed by that many (symbol byte, code length byte)
// pairs, and returns the table plus the number of bytes consumed.
func readHuffmanTable(data []byte) (*huffmanTable, int, error) {
	count, ok := readU16(data, 0)
	if !ok {
		return nil, 0, newDecodeError("huffman_table", ErrShortBuffer, "missing symbol count")
	}
	n := int(count)
	need := 2 + n*2
	if len(data) < need {
		return nil, 0, newDecodeError("huffman_table", ErrShortBuffer, "truncated symbol table")
	}
	symbols := make([]huffmanSymbol, n)
	for i := 0; i < n; i++ {
		symbols[i] = huffmanSymbol{
			value:  data[2+i*2],
			length: data[2+i*2+1],
		}
	}
	return newHuffmanTable(symbols), need, nil
}

// decompressHuffmanLZSS implements compression modes 12/13/14: a canonical
// Huffman stage decodes the byte stream that decompressLZSS's group/header
// logic then consumes as if it had been read directly from the input.
func decompressHuffmanLZSS(m uint, input []byte, out []byte) bool {
	table, consumed, err := readHuffmanTable(input)
	if err != nil {
		return false
	}
	br := newBitReader(input[consumed:])

	nextByte := func() (byte, bool) {
		return table.decode(br)
	}

	groupLen := 1 << (m - 1)
	outCur := 0

	var headerByte byte
	var group uint
	for {
		if group == 0 {
			b, ok := nextByte()
			if !ok {
				break
			}
			headerByte = b
			group = 8
		}

		if headerByte&0x80 == 0 {
			if outCur+groupLen > len(out) {
				return false
			}
			for i := 0; i < groupLen; i++ {
				b, ok := nextByte()
				if !ok {
					return false
				}
				out[outCur+i] = b
			}
			outCur += groupLen
		} else {
			b0, ok0 := nextByte()
			b1, ok1 := nextByte()
			if !ok0 || !ok1 {
				return false
			}
			count := int(b0>>4) + (4 - int(m))
			length := ((int(b0&0xF) << 8) | int(b1)) << (m - 1)

			if length > outCur {
				return false
			}
			seek := outCur - length
			n := count * groupLen
			if outCur+n > len(out) {
				return false
			}
			for i := 0; i < n; i++ {
				out[outCur+i] = out[seek+i]
			}
			outCur += n
		}

		headerByte <<= 1
		group--
		if outCur >= len(out) {
			break
		}
	}

	return outCur == len(out)
}

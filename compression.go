// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

// Compression mode tags, grounded on original_source's decompress_into
// (lib/src/util/compression.rs).
const (
	ModeRaw            = 0
	ModeLZSS1          = 1
	ModeLZSS2          = 2
	ModeLZSS3          = 3
	ModeLZSSHuffman1   = 12
	ModeLZSSHuffman2   = 13
	ModeLZSSHuffman3   = 14
)

// DecompressBuffer inspects the 4-byte mode prefix of compressed, then
// decompresses the remainder into a buffer of decompressedSize bytes. A
// compressed payload that begins with four zero bytes is the documented
// shortcut for "not actually compressed" and is returned as-is past the
// prefix.
func DecompressBuffer(compressed []byte, decompressedSize int) ([]byte, uint32, error) {
	if len(compressed) < 4 {
		return nil, 0, newDecodeError("decompress_buffer", ErrShortBuffer, "missing mode prefix")
	}
	if compressed[0] == 0 && compressed[1] == 0 && compressed[2] == 0 && compressed[3] == 0 {
		return compressed[4:], 0, nil
	}
	mode, ok := readU32(compressed, 0)
	if !ok {
		return nil, 0, newDecodeError("decompress_buffer", ErrShortBuffer, "missing mode prefix")
	}
	out := make([]byte, decompressedSize)
	if err := Decompress(mode, compressed[4:], out); err != nil {
		return nil, mode, err
	}
	return out, mode, nil
}

// Decompress dispatches to the decoder for mode and fills out exactly,
// mirroring original_source's decompress_into mode switch.
func Decompress(mode uint32, input []byte, out []byte) error {
	var ok bool
	switch mode {
	case ModeRaw:
		if len(input) != len(out) {
			return newDecodeError("decompress", ErrDecompressionFailed, "raw size mismatch")
		}
		copy(out, input)
		ok = true
	case ModeLZSS1:
		ok = decompressLZSS(1, input, out)
	case ModeLZSS2:
		ok = decompressLZSS(2, input, out)
	case ModeLZSS3:
		ok = decompressLZSS(3, input, out)
	case ModeLZSSHuffman1:
		ok = decompressHuffmanLZSS(1, input, out)
	case ModeLZSSHuffman2:
		ok = decompressHuffmanLZSS(2, input, out)
	case ModeLZSSHuffman3:
		ok = decompressHuffmanLZSS(3, input, out)
	default:
		return newDecodeError("decompress", ErrUnsupportedCompressionMode, "")
	}
	if !ok {
		return newDecodeError("decompress", ErrDecompressionFailed, "")
	}
	return nil
}

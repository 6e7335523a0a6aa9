// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import (
	"bytes"
	"encoding/binary"
	"io"
)

// readU16/readU32/readU64 are bounds-checked little-endian scalar reads
// over a borrowed byte span, generalized from a
// File.ReadUint16/32/64 (helper.go) to operate on any slice rather than
// only the whole memory-mapped file — form and chunk payloads are
// frequently sub-slices of the mapped input, not the file itself.

func readU8(data []byte, offset int) (uint8, bool) {
	if offset < 0 || offset+1 > len(data) {
		return 0, false
	}
	return data[offset], true
}

func readU16(data []byte, offset int) (uint16, bool) {
	if offset < 0 || offset+2 > len(data) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(data[offset:]), true
}

func readU32(data []byte, offset int) (uint32, bool) {
	if offset < 0 || offset+4 > len(data) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(data[offset:]), true
}

func readU64(data []byte, offset int) (uint64, bool) {
	if offset < 0 || offset+8 > len(data) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(data[offset:]), true
}

// structUnpack decodes a fixed-layout little-endian struct from the front
// of data, mirroring a similar struct-unpack helper but taking a
// plain slice instead of indexing into a *File, since the struct types we
// decode (FormDescriptor, ChunkDescriptor, the collision VERT/MTRL/TRIS
// records) always come from a payload slice that has already been bounds-checked by the
// caller's slicing operation.
func structUnpack(data []byte, v any) error {
	r := bytes.NewReader(data)
	return binary.Read(r, binary.LittleEndian, v)
}

// readExact reads len(v) fixed-size little-endian elements from r via
// encoding/binary, advancing r past them; it returns only an error.
func readExact(r io.Reader, v any) error {
	return binary.Read(r, binary.LittleEndian, v)
}

// structPack is the write-side mirror of structUnpack: it serializes a
// fixed-layout little-endian value straight to w. FormDescriptor and
// ChunkDescriptor round trip through structUnpack/structPack; the PACK
// directory tables are packed field by field, and the texture header is
// read with encoding/binary directly.
func structPack(w io.Writer, v any) error {
	return binary.Write(w, binary.LittleEndian, v)
}

// memWriter is a growable in-memory seekWriter, the production backing
// store WriteForm/WriteChunk's back-patching dance needs whenever a
// caller wants a freshly built form returned as a []byte rather than
// streamed to a file (ReadHeader, ReadAsset, BuildFooter's callers).
type memWriter struct {
	buf []byte
	pos int64
}

func (m *memWriter) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memWriter) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = m.pos + offset
	case io.SeekEnd:
		target = int64(len(m.buf)) + offset
	default:
		return 0, newDecodeError("mem_writer", ErrInvariantViolation, "unknown whence")
	}
	if target < 0 {
		return 0, newDecodeError("mem_writer", ErrInvariantViolation, "negative seek")
	}
	m.pos = target
	return target, nil
}

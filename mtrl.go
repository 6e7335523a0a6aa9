// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zlib"
)

// materialMetaData is the META chunk payload of a standalone MTRL asset
// (as opposed to the MTRL chunk embedded in a model's material cache),
// grounded on original_source's SMaterialMetaData (lib/src/format/mtrl.rs).
type materialMetaData struct {
	Unk1             uint32
	Unk2             uint32
	CompressedSize   uint32
	DecompressedSize uint32
	FileOffset       uint32
}

// DecodeMaterialPayload decompresses a standalone MTRL asset's body,
// grounded on original_source's MaterialData::slice. Unlike every other
// asset kind, MTRL's payload is not LZSS-compressed: it is a plain zlib
// stream whose bounds are given by the asset's META chunk.
func DecodeMaterialPayload(data []byte, meta []byte) ([]byte, error) {
	formHdr, _, _, err := SliceForm(data)
	if err != nil {
		return nil, err
	}
	if formHdr.ID != formMTRL {
		return nil, newDecodeError("decode_material", ErrBadMagic, formHdr.ID.String())
	}
	if formHdr.ReaderVersion != 168 || formHdr.WriterVersion != 168 {
		return nil, newDecodeError("decode_material", ErrVersionMismatch, "MTRL")
	}

	r := bytes.NewReader(meta)
	var m materialMetaData
	if err := binary.Read(r, binary.LittleEndian, &m); err != nil {
		return nil, newDecodeError("decode_material", ErrShortBuffer, err.Error())
	}

	end := uint64(m.FileOffset) + uint64(m.CompressedSize)
	if end > uint64(len(data)) {
		return nil, newDecodeError("decode_material", ErrShortBuffer, "compressed range out of bounds")
	}
	zr, err := zlib.NewReader(bytes.NewReader(data[m.FileOffset:end]))
	if err != nil {
		return nil, newDecodeError("decode_material", ErrDecompressionFailed, err.Error())
	}
	defer zr.Close()

	decompressed := make([]byte, m.DecompressedSize)
	if _, err := io.ReadFull(zr, decompressed); err != nil {
		return nil, newDecodeError("decode_material", ErrDecompressionFailed, err.Error())
	}
	return decompressed, nil
}

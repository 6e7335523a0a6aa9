// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import (
	"bytes"
	"encoding/binary"

	"github.com/google/uuid"
)

// ObjectTransform pairs an object id with its placement transform
// (ObjectTransform).
type ObjectTransform struct {
	ID        uuid.UUID
	Transform Transform4
}

// ModConUnknown is one entry of SModConVisualData's still-unidentified
// float-pair-plus-int-list record (SUnknown). original_source carries no
// further interpretation for this shape, so it is preserved as-is.
type ModConUnknown struct {
	F0, F1 float32
	Ints   []uint32
}

// ModConVisualData is the MCVD chunk payload, grounded verbatim on
// original_source's SModConVisualData (lib/src/format/mcon.rs). Several
// trailing fields remain uninterpreted opaque blobs there (marked
// `// TODO` in the original); they are carried through unchanged here
// rather than reinterpreted.
type ModConVisualData struct {
	Models            []uuid.UUID
	IDs2              []uuid.UUID
	Colors            []Color4
	Transforms        []Transform4
	ObjectTransforms  []ObjectTransform
	Unknowns          []ModConUnknown
	Bytes2            []byte
	Bytes3            []byte
	Bytes4            []byte
	Bytes5            []byte
	Bytes6            []byte
	Shorts1           []uint16
	Shorts2           []uint16
	Bytes7            []byte
	Bytes8            []byte
}

func readTaggedUUIDSlice(r *bytes.Reader) ([]uuid.UUID, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, count)
	for i := range out {
		var b [16]byte
		if _, err := r.Read(b[:]); err != nil {
			return nil, err
		}
		out[i] = uuidFromBytesLE(b[:])
	}
	return out, nil
}

func readTaggedColorSlice(r *bytes.Reader) ([]Color4, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	out := make([]Color4, count)
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}

func readTaggedTransformSlice(r *bytes.Reader) ([]Transform4, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	out := make([]Transform4, count)
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}

func readTaggedByteSlice(r *bytes.Reader) ([]byte, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	out := make([]byte, count)
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}

func readTaggedU16Slice(r *bytes.Reader) ([]uint16, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	out := make([]uint16, count)
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}

func readTaggedU32Slice(r *bytes.Reader) ([]uint32, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	out := make([]uint32, count)
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}

func readObjectTransformSlice(r *bytes.Reader) ([]ObjectTransform, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	out := make([]ObjectTransform, count)
	for i := range out {
		var b [16]byte
		if _, err := r.Read(b[:]); err != nil {
			return nil, err
		}
		out[i].ID = uuidFromBytesLE(b[:])
		if err := binary.Read(r, binary.LittleEndian, &out[i].Transform); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readModConUnknownSlice(r *bytes.Reader) ([]ModConUnknown, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	out := make([]ModConUnknown, count)
	for i := range out {
		if err := binary.Read(r, binary.LittleEndian, &out[i].F0); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &out[i].F1); err != nil {
			return nil, err
		}
		ints, err := readTaggedU32Slice(r)
		if err != nil {
			return nil, err
		}
		out[i].Ints = ints
	}
	return out, nil
}

func readModConVisualData(data []byte) (ModConVisualData, error) {
	r := bytes.NewReader(data)
	var v ModConVisualData
	var err error
	if v.Models, err = readTaggedUUIDSlice(r); err != nil {
		return v, newDecodeError("mcvd", ErrShortBuffer, err.Error())
	}
	if v.IDs2, err = readTaggedUUIDSlice(r); err != nil {
		return v, newDecodeError("mcvd", ErrShortBuffer, err.Error())
	}
	if v.Colors, err = readTaggedColorSlice(r); err != nil {
		return v, newDecodeError("mcvd", ErrShortBuffer, err.Error())
	}
	if v.Transforms, err = readTaggedTransformSlice(r); err != nil {
		return v, newDecodeError("mcvd", ErrShortBuffer, err.Error())
	}
	if v.ObjectTransforms, err = readObjectTransformSlice(r); err != nil {
		return v, newDecodeError("mcvd", ErrShortBuffer, err.Error())
	}
	if v.Unknowns, err = readModConUnknownSlice(r); err != nil {
		return v, newDecodeError("mcvd", ErrShortBuffer, err.Error())
	}
	if v.Bytes2, err = readTaggedByteSlice(r); err != nil {
		return v, newDecodeError("mcvd", ErrShortBuffer, err.Error())
	}
	if v.Bytes3, err = readTaggedByteSlice(r); err != nil {
		return v, newDecodeError("mcvd", ErrShortBuffer, err.Error())
	}
	if v.Bytes4, err = readTaggedByteSlice(r); err != nil {
		return v, newDecodeError("mcvd", ErrShortBuffer, err.Error())
	}
	if v.Bytes5, err = readTaggedByteSlice(r); err != nil {
		return v, newDecodeError("mcvd", ErrShortBuffer, err.Error())
	}
	if v.Bytes6, err = readTaggedByteSlice(r); err != nil {
		return v, newDecodeError("mcvd", ErrShortBuffer, err.Error())
	}
	if v.Shorts1, err = readTaggedU16Slice(r); err != nil {
		return v, newDecodeError("mcvd", ErrShortBuffer, err.Error())
	}
	if v.Shorts2, err = readTaggedU16Slice(r); err != nil {
		return v, newDecodeError("mcvd", ErrShortBuffer, err.Error())
	}
	if v.Bytes7, err = readTaggedByteSlice(r); err != nil {
		return v, newDecodeError("mcvd", ErrShortBuffer, err.Error())
	}
	if v.Bytes8, err = readTaggedByteSlice(r); err != nil {
		return v, newDecodeError("mcvd", ErrShortBuffer, err.Error())
	}
	return v, nil
}

// ModConData is a fully decoded MCON form. Only the MCVD (visual data)
// chunk is interpreted; MCHD and MCCD remain unidentified in
// original_source and are skipped here too.
type ModConData struct {
	VisualData *ModConVisualData
}

// ReadModCon decodes an MCON form, grounded on original_source's
// ModConData::slice (lib/src/format/mcon.rs). Decoding stops early if a
// "PEEK" marker is encountered, matching the original's handling of a
// trailing non-chunk sentinel some MCON assets carry.
func ReadModCon(data []byte) (*ModConData, error) {
	formHdr, formPayload, _, err := SliceForm(data)
	if err != nil {
		return nil, err
	}
	if formHdr.ID != formMCON {
		return nil, newDecodeError("read_modcon", ErrBadMagic, formHdr.ID.String())
	}
	if formHdr.ReaderVersion != 72 || formHdr.WriterVersion != 72 {
		return nil, newDecodeError("read_modcon", ErrVersionMismatch, "MCON")
	}

	result := &ModConData{}
	remaining := formPayload
	for len(remaining) > 0 {
		if tag, ok := peekFourCC(remaining); ok && tag == NewFourCC("PEEK") {
			break
		}
		chunkDesc, chunkData, rest, err := SliceChunk(remaining)
		if err != nil {
			return nil, err
		}
		switch chunkDesc.ID {
		case chunkMCVD:
			v, err := readModConVisualData(chunkData)
			if err != nil {
				return nil, err
			}
			result.VisualData = &v
		case chunkMCHD, chunkMCCD:
			// Unidentified in the original format; skipped.
		default:
			return nil, newDecodeError("read_modcon", ErrUnknownChunk, chunkDesc.ID.String())
		}
		remaining = rest
	}
	return result, nil
}

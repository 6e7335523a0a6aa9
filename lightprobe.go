// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import (
	"bytes"
	"encoding/binary"
)

// ProbeGridIndex is a baked-lighting uniform probe grid coordinate
// (CBakedLightingUniformProbeGridIndex).
type ProbeGridIndex struct {
	X, Y, Z uint16
}

// LightProbeBundleHeader is the PHDR chunk payload (LightProbeBundleHeader).
type LightProbeBundleHeader struct {
	Unk1     uint32
	Unk2     uint32
	UnkVec   Vector3
	GridIdx1 ProbeGridIndex
	GridIdx2 ProbeGridIndex
}

// LightProbeExtra trails each probe's texture metadata (LightProbeExtra).
type LightProbeExtra struct {
	Vec Vector3i
	Unk uint32
}

type lightProbeMetaData struct {
	Unk1        uint32
	Unk2        uint32
	MetaOffsets []uint64
	TxtrOffsets []uint64
}

func readTaggedU64Slice(r *bytes.Reader) ([]uint64, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	out := make([]uint64, count)
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}

func readLightProbeMetaData(data []byte) (lightProbeMetaData, error) {
	r := bytes.NewReader(data)
	var m lightProbeMetaData
	if err := binary.Read(r, binary.LittleEndian, &m.Unk1); err != nil {
		return m, newDecodeError("ltpb_meta", ErrShortBuffer, err.Error())
	}
	if err := binary.Read(r, binary.LittleEndian, &m.Unk2); err != nil {
		return m, newDecodeError("ltpb_meta", ErrShortBuffer, err.Error())
	}
	metaOffsets, err := readTaggedU64Slice(r)
	if err != nil {
		return m, newDecodeError("ltpb_meta", ErrShortBuffer, err.Error())
	}
	txtrOffsets, err := readTaggedU64Slice(r)
	if err != nil {
		return m, newDecodeError("ltpb_meta", ErrShortBuffer, err.Error())
	}
	m.MetaOffsets, m.TxtrOffsets = metaOffsets, txtrOffsets
	return m, nil
}

// LightProbeData is a fully decoded light probe bundle: its header plus
// one deswizzled texture and trailing extra record per probe, grounded
// on original_source's LightProbeData (lib/src/format/ltpb.rs).
type LightProbeData struct {
	Head     LightProbeBundleHeader
	Textures []*TextureData
	Extra    []LightProbeExtra
}

// ReadLightProbeBundle decodes an LTPB form. Each probe's own texture
// metadata and payload live at independent offsets into the asset's raw
// data given by the META chunk's parallel meta/txtr offset lists; the
// LightProbeExtra record for each probe trails its STextureMetaData at
// that same meta offset.
func ReadLightProbeBundle(data []byte, meta []byte) (*LightProbeData, error) {
	formHdr, formPayload, _, err := SliceForm(data)
	if err != nil {
		return nil, err
	}
	if formHdr.ID != formLTPB {
		return nil, newDecodeError("read_lightprobe", ErrBadMagic, formHdr.ID.String())
	}
	if formHdr.ReaderVersion != 66 || formHdr.WriterVersion != 73 {
		return nil, newDecodeError("read_lightprobe", ErrVersionMismatch, "LTPB")
	}

	metaData, err := readLightProbeMetaData(meta)
	if err != nil {
		return nil, err
	}
	if len(metaData.MetaOffsets) != len(metaData.TxtrOffsets) {
		return nil, newDecodeError("read_lightprobe", ErrInvariantViolation, "meta/txtr offset count mismatch")
	}

	var head *LightProbeBundleHeader
	remaining := formPayload
	for len(remaining) > 0 {
		chunkDesc, chunkData, rest, err := SliceChunk(remaining)
		if err != nil {
			return nil, err
		}
		switch chunkDesc.ID {
		case chunkPHDR:
			var h LightProbeBundleHeader
			r := bytes.NewReader(chunkData)
			if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
				return nil, newDecodeError("read_lightprobe", ErrShortBuffer, err.Error())
			}
			head = &h
		case chunkPTEX:
			// Probe texture payloads are located independently via META.
		default:
			return nil, newDecodeError("read_lightprobe", ErrUnknownChunk, chunkDesc.ID.String())
		}
		remaining = rest
	}
	if head == nil {
		return nil, newDecodeError("read_lightprobe", ErrMissingRequiredChunk, "PHDR")
	}

	textures := make([]*TextureData, len(metaData.MetaOffsets))
	extra := make([]LightProbeExtra, len(metaData.MetaOffsets))
	for i := range metaData.MetaOffsets {
		metaOff := metaData.MetaOffsets[i]
		txtrOff := metaData.TxtrOffsets[i]
		if metaOff > uint64(len(data)) || txtrOff > uint64(len(data)) {
			return nil, newDecodeError("read_lightprobe", ErrShortBuffer, "probe offset out of range")
		}
		probeMeta := data[metaOff:]

		texMeta, err := readTextureMetaData(probeMeta)
		if err != nil {
			return nil, err
		}
		extraOffset := textureMetaDataEncodedSize(texMeta)
		if extraOffset > uint64(len(probeMeta)) {
			return nil, newDecodeError("read_lightprobe", ErrShortBuffer, "extra record out of range")
		}
		var ex LightProbeExtra
		r := bytes.NewReader(probeMeta[extraOffset:])
		if err := binary.Read(r, binary.LittleEndian, &ex); err != nil {
			return nil, newDecodeError("read_lightprobe", ErrShortBuffer, err.Error())
		}
		extra[i] = ex

		tex, err := ReadTexture(data[txtrOff:], probeMeta)
		if err != nil {
			return nil, err
		}
		textures[i] = tex
	}

	return &LightProbeData{Head: *head, Textures: textures, Extra: extra}, nil
}

// textureMetaDataEncodedSize returns the number of bytes readTextureMetaData
// consumed to decode m, so callers can locate data immediately trailing it
// in the same buffer.
func textureMetaDataEncodedSize(m TextureMetaData) uint64 {
	// 7 leading u32 fields (Unk1, Unk2, AllocCategory, GPUOffset, Align,
	// DecompressedSize, InfoCount), then Info entries, then the u32
	// buffer count, then Buffers entries.
	return uint64(4*7) + uint64(len(m.Info))*9 + 4 + uint64(len(m.Buffers))*20
}

// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import (
	"github.com/google/uuid"
)

// BuildFooter serializes the custom FOOT form appended to a single
// extracted asset so it can be losslessly re-packed later, grounded on
// original_source's locate_meta/locate_asset_id (lib/src/format/foot.rs)
// which read the inverse of what this writes: an AINF chunk carrying the
// asset's directory metadata, a META chunk when asset.Meta is non-empty,
// and one NAME chunk per name (asset.Names, or asset.Name when Names is
// empty).
func BuildFooter(w seekWriter, asset Asset) error {
	hdr := FormDescriptor{ID: formFOOT, ReaderVersion: 1, WriterVersion: 1}
	return WriteForm(w, hdr, func(w seekWriter) error {
		ainfHdr := ChunkDescriptor{ID: chunkAINF}
		if err := WriteChunk(w, ainfHdr, func(w seekWriter) error {
			idBytes := uuidToBytesLE(asset.Info.ID)
			if _, err := w.Write(idBytes[:]); err != nil {
				return err
			}
			if err := structPack(w, asset.Info.CompressionMode); err != nil {
				return err
			}
			return structPack(w, asset.Info.OriginalOffset)
		}); err != nil {
			return err
		}
		if len(asset.Meta) > 0 {
			metaHdr := ChunkDescriptor{ID: chunkMETA}
			if err := WriteChunk(w, metaHdr, func(w seekWriter) error {
				_, err := w.Write(asset.Meta)
				return err
			}); err != nil {
				return err
			}
		}
		names := asset.Names
		if len(names) == 0 && asset.Name != "" {
			names = []string{asset.Name}
		}
		for _, name := range names {
			nameHdr := ChunkDescriptor{ID: chunkNAME}
			if err := WriteChunk(w, nameHdr, func(w seekWriter) error {
				_, err := w.Write([]byte(name))
				return err
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// LocateMeta finds the metadata blob embedded in an extracted asset's
// FOOT::AINF sibling, mirroring locate_meta.
func LocateMeta(fileData []byte) ([]byte, error) {
	_, _, remain, err := SliceForm(fileData)
	if err != nil {
		return nil, err
	}
	footHdr, footData, rest, err := SliceForm(remain)
	if err != nil {
		return nil, err
	}
	if footHdr.ID != formFOOT || footHdr.ReaderVersion != 1 || footHdr.WriterVersion != 1 {
		return nil, newDecodeError("locate_meta", ErrBadMagic, "FOOT")
	}
	if len(rest) != 0 {
		return nil, newDecodeError("locate_meta", ErrInvariantViolation, "trailing data after FOOT")
	}
	var meta []byte
	found := false
	err = WalkRecursive(footData, func(desc ChunkDescriptor, payload []byte) error {
		if desc.ID == chunkMETA {
			meta = payload
			found = true
		}
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, newDecodeError("locate_meta", ErrMissingRequiredChunk, "META")
	}
	return meta, nil
}

// LocateAssetID finds the asset id embedded in an extracted asset's
// FOOT::AINF sibling, mirroring locate_asset_id.
func LocateAssetID(fileData []byte) (uuid.UUID, error) {
	_, _, remain, err := SliceForm(fileData)
	if err != nil {
		return uuid.Nil, err
	}
	footHdr, footData, rest, err := SliceForm(remain)
	if err != nil {
		return uuid.Nil, err
	}
	if footHdr.ID != formFOOT || footHdr.ReaderVersion != 1 || footHdr.WriterVersion != 1 {
		return uuid.Nil, newDecodeError("locate_asset_id", ErrBadMagic, "FOOT")
	}
	if len(rest) != 0 {
		return uuid.Nil, newDecodeError("locate_asset_id", ErrInvariantViolation, "trailing data after FOOT")
	}
	var id uuid.UUID
	found := false
	err = WalkRecursive(footData, func(desc ChunkDescriptor, payload []byte) error {
		if desc.ID == chunkAINF {
			if len(payload) < 16 {
				return newDecodeError("locate_asset_id", ErrShortBuffer, "AINF")
			}
			id = uuidFromBytesLE(payload[:16])
			found = true
		}
		return nil
	}, nil)
	if err != nil {
		return uuid.Nil, err
	}
	if !found {
		return uuid.Nil, newDecodeError("locate_asset_id", ErrMissingRequiredChunk, "AINF")
	}
	return id, nil
}

// VideoPayload returns the raw FMV0 bitstream carried by a video asset
// without attempting to interpret it, the supplemented "FMV0 passthrough"
// feature noted in original_source's src/cmd/pak.rs ROOM/FMV0 handling:
// video assets are RFRM forms whose payload is opaque movie data rather
// than a further chunk hierarchy, and the library's job is only to hand
// that payload back intact.
func (a Asset) VideoPayload() ([]byte, error) {
	hdr, payload, _, err := SliceForm(a.Data)
	if err != nil {
		return nil, err
	}
	if hdr.ID != formFMV0 {
		return nil, newDecodeError("video_payload", ErrBadMagic, hdr.ID.String())
	}
	return payload, nil
}

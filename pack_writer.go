// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import (
	"bytes"
	"io"
	"sort"

	"github.com/google/uuid"
)

// WritePackage serializes pkg as a PACK form, grounded on
// original_source's Package::write (src/format/pack.rs): assets must
// already be ordered ascending by id, the ADIR entry offsets are
// back-patched once every asset's file position is known, and the
// payload bytes themselves are emitted in original-offset order so a
// round-tripped package is byte-reproducible.
func WritePackage(w seekWriter, pkg *Package) error {
	n := len(pkg.Assets)
	dirEntries := make([]AssetDirectoryEntry, n)
	var lastID uuid.UUID
	for i, asset := range pkg.Assets {
		if bytesLess(asset.ID[:], lastID[:]) {
			return newDecodeError("write_package", ErrInvariantViolation, "assets must be ordered by id ascending")
		}
		lastID = asset.ID
		dirEntries[i] = AssetDirectoryEntry{
			AssetType:        asset.Kind,
			AssetID:          asset.ID,
			Version:          asset.Version,
			OtherVersion:     asset.OtherVersion,
			DecompressedSize: uint64(len(asset.Data)),
			Size:             uint64(len(asset.Data)),
		}
	}

	metaEntries := make([]MetadataTableEntry, 0, n)
	metaAssetIdx := make([]int, 0, n)
	for i, asset := range pkg.Assets {
		if asset.Meta != nil {
			metaEntries = append(metaEntries, MetadataTableEntry{AssetID: asset.ID})
			metaAssetIdx = append(metaAssetIdx, i)
		}
	}

	strgEntries := make([]StringTableEntry, 0, n)
	for _, asset := range pkg.Assets {
		names := asset.Names
		if len(names) == 0 && asset.Name != "" {
			names = []string{asset.Name}
		}
		for _, name := range names {
			strgEntries = append(strgEntries, StringTableEntry{
				Kind:    asset.Kind,
				AssetID: asset.ID,
				Name:    name,
			})
		}
	}

	var adirPos int64 = -1

	packHdr := FormDescriptor{ID: formPACK, ReaderVersion: 1, WriterVersion: 1}
	err := WriteForm(w, packHdr, func(w seekWriter) error {
		toccHdr := FormDescriptor{ID: formTOCC, ReaderVersion: 3, WriterVersion: 3}
		err := WriteForm(w, toccHdr, func(w seekWriter) error {
			adirHdr := ChunkDescriptor{ID: chunkADIR, Unk: 1}
			if err := WriteChunk(w, adirHdr, func(w seekWriter) error {
				pos, err := w.Seek(0, io.SeekCurrent)
				if err != nil {
					return err
				}
				adirPos = pos
				return encodeAssetDirectory(w, dirEntries)
			}); err != nil {
				return err
			}

			metaHdr := ChunkDescriptor{ID: chunkMETA, Unk: 1}
			if err := WriteChunk(w, metaHdr, func(w seekWriter) error {
				start, err := w.Seek(0, io.SeekCurrent)
				if err != nil {
					return err
				}
				if err := encodeMetadataTable(w, metaEntries); err != nil {
					return err
				}
				for i, assetIdx := range metaAssetIdx {
					cur, err := w.Seek(0, io.SeekCurrent)
					if err != nil {
						return err
					}
					metaEntries[i].Offset = uint32(cur - start)
					data := pkg.Assets[assetIdx].Meta
					if err := structPack(w, uint32(len(data))); err != nil {
						return err
					}
					if _, err := w.Write(data); err != nil {
						return err
					}
				}
				end, err := w.Seek(0, io.SeekCurrent)
				if err != nil {
					return err
				}
				if _, err := w.Seek(start, io.SeekStart); err != nil {
					return err
				}
				if err := encodeMetadataTable(w, metaEntries); err != nil {
					return err
				}
				_, err = w.Seek(end, io.SeekStart)
				return err
			}); err != nil {
				return err
			}

			strgHdr := ChunkDescriptor{ID: chunkSTRG, Unk: 1}
			return WriteChunk(w, strgHdr, func(w seekWriter) error {
				return encodeStringTable(w, strgEntries)
			})
		})
		if err != nil {
			return err
		}

		order := make([]int, n)
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(i, j int) bool {
			return pkg.Assets[order[i]].Info.OriginalOffset < pkg.Assets[order[j]].Info.OriginalOffset
		})
		for _, i := range order {
			pos, err := w.Seek(0, io.SeekCurrent)
			if err != nil {
				return err
			}
			dirEntries[i].Offset = uint64(pos)
			if _, err := w.Write(pkg.Assets[i].Data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	pos, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if adirPos >= 0 {
		if _, err := w.Seek(adirPos, io.SeekStart); err != nil {
			return err
		}
		if err := encodeAssetDirectory(w, dirEntries); err != nil {
			return err
		}
		if _, err := w.Seek(pos, io.SeekStart); err != nil {
			return err
		}
	}

	aligned := (pos + 15) &^ 15
	if pad := aligned - pos; pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return err
		}
	}
	return nil
}

func encodeAssetDirectory(w io.Writer, entries []AssetDirectoryEntry) error {
	if err := structPack(w, uint32(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		idBytes := uuidToBytesLE(e.AssetID)
		if _, err := w.Write(e.AssetType[:]); err != nil {
			return err
		}
		if _, err := w.Write(idBytes[:]); err != nil {
			return err
		}
		fields := []any{e.Version, e.OtherVersion, e.Offset, e.DecompressedSize, e.Size}
		for _, f := range fields {
			if err := structPack(w, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeMetadataTable(w io.Writer, entries []MetadataTableEntry) error {
	if err := structPack(w, uint32(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		idBytes := uuidToBytesLE(e.AssetID)
		if _, err := w.Write(idBytes[:]); err != nil {
			return err
		}
		if err := structPack(w, e.Offset); err != nil {
			return err
		}
	}
	return nil
}

func encodeStringTable(w io.Writer, entries []StringTableEntry) error {
	if err := structPack(w, uint32(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		kindWord := uint32(e.Kind[0])<<24 | uint32(e.Kind[1])<<16 | uint32(e.Kind[2])<<8 | uint32(e.Kind[3])
		if err := structPack(w, kindWord); err != nil {
			return err
		}
		idBytes := uuidToBytesLE(e.AssetID)
		if _, err := w.Write(idBytes[:]); err != nil {
			return err
		}
		nameBytes := []byte(e.Name)
		if err := structPack(w, uint32(len(nameBytes))); err != nil {
			return err
		}
		if _, err := w.Write(nameBytes); err != nil {
			return err
		}
	}
	return nil
}

func bytesLess(a, b []byte) bool {
	return bytes.Compare(a, b) < 0
}

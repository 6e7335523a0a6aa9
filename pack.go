// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// AssetDirectoryEntry is one record of the PACK::TOCC::ADIR chunk,
// grounded on original_source's AssetDirectoryEntry (lib/src/format/pack.rs).
type AssetDirectoryEntry struct {
	AssetType        FourCC
	AssetID          uuid.UUID
	Version          uint32
	OtherVersion     uint32
	Offset           uint64
	DecompressedSize uint64
	Size             uint64
}

const assetDirectoryEntrySize = 4 + 16 + 4 + 4 + 8 + 8 + 8

// MetadataTableEntry is one record of the PACK::TOCC::META chunk: an
// asset id plus the byte offset of its length-prefixed metadata blob
// within the META chunk's payload.
type MetadataTableEntry struct {
	AssetID uuid.UUID
	Offset  uint32
}

const metadataTableEntrySize = 16 + 4

// StringTableEntry is one record of the PACK::TOCC::STRG chunk. Kind is
// stored byte-swapped on disk relative to every other FourCC in the
// format (original_source marks this "// Byteswapped").
type StringTableEntry struct {
	Kind    FourCC
	AssetID uuid.UUID
	Name    string
}

// AssetInfo is the payload of a custom FOOT::AINF chunk, written when a
// single asset is extracted for lossless re-packing.
type AssetInfo struct {
	ID               uuid.UUID
	CompressionMode  uint32
	OriginalOffset   uint64
}

// Asset is the combined, decompressed view of one package member: its
// directory metadata, optional names and metadata blob, and payload.
// Name is Names[0] when present, kept for callers that only care about a
// single display name; Names preserves every STRG entry recorded for
// this asset id.
type Asset struct {
	ID           uuid.UUID
	Kind         FourCC
	Name         string
	Names        []string
	Data         []byte
	Meta         []byte
	Info         AssetInfo
	Version      uint32
	OtherVersion uint32
}

// SparsePackageEntry is one directory entry as returned by ReadSparse:
// enough to index a package's contents without materializing payloads
// or metadata.
type SparsePackageEntry struct {
	ID            uuid.UUID
	Kind          FourCC
	Names         []string
	ReaderVersion uint32
	WriterVersion uint32
}

// Package is the fully parsed contents of a PACK form: every asset,
// decompressed and ready to re-slice as its own RFRM form.
type Package struct {
	Assets []Asset
}

// uuidFromBytesLE parses the little-endian UUID byte layout binrw's
// Uuid::from_bytes_le uses throughout the format (time-low/time-mid/
// time-hi fields byte-swapped relative to RFC 4122's big-endian wire
// form, the clock/node bytes left alone).
func uuidFromBytesLE(b []byte) uuid.UUID {
	var swapped [16]byte
	swapped[0], swapped[1], swapped[2], swapped[3] = b[3], b[2], b[1], b[0]
	swapped[4], swapped[5] = b[5], b[4]
	swapped[6], swapped[7] = b[7], b[6]
	copy(swapped[8:], b[8:16])
	var u uuid.UUID
	copy(u[:], swapped[:])
	return u
}

func uuidToBytesLE(u uuid.UUID) [16]byte {
	var b [16]byte
	b[3], b[2], b[1], b[0] = u[0], u[1], u[2], u[3]
	b[5], b[4] = u[4], u[5]
	b[7], b[6] = u[6], u[7]
	copy(b[8:], u[8:16])
	return b
}

func decodeAssetDirectory(payload []byte) ([]AssetDirectoryEntry, error) {
	count, ok := readU32(payload, 0)
	if !ok {
		return nil, newDecodeError("adir", ErrShortBuffer, "missing entry_count")
	}
	entries := make([]AssetDirectoryEntry, 0, count)
	off := 4
	for i := uint32(0); i < count; i++ {
		if off+assetDirectoryEntrySize > len(payload) {
			return nil, newDecodeError("adir", ErrShortBuffer, "truncated entry")
		}
		e := AssetDirectoryEntry{}
		copy(e.AssetType[:], payload[off:off+4])
		e.AssetID = uuidFromBytesLE(payload[off+4 : off+20])
		e.Version, _ = readU32(payload, off+20)
		e.OtherVersion, _ = readU32(payload, off+24)
		e.Offset, _ = readU64(payload, off+28)
		e.DecompressedSize, _ = readU64(payload, off+36)
		e.Size, _ = readU64(payload, off+44)
		entries = append(entries, e)
		off += assetDirectoryEntrySize
	}
	return entries, nil
}

func decodeMetadataTable(payload []byte) ([]MetadataTableEntry, error) {
	count, ok := readU32(payload, 0)
	if !ok {
		return nil, newDecodeError("meta", ErrShortBuffer, "missing entry_count")
	}
	entries := make([]MetadataTableEntry, 0, count)
	off := 4
	for i := uint32(0); i < count; i++ {
		if off+metadataTableEntrySize > len(payload) {
			return nil, newDecodeError("meta", ErrShortBuffer, "truncated entry")
		}
		var e MetadataTableEntry
		e.AssetID = uuidFromBytesLE(payload[off : off+16])
		e.Offset, _ = readU32(payload, off+16)
		entries = append(entries, e)
		off += metadataTableEntrySize
	}
	return entries, nil
}

func decodeStringTable(payload []byte) ([]StringTableEntry, error) {
	count, ok := readU32(payload, 0)
	if !ok {
		return nil, newDecodeError("strg", ErrShortBuffer, "missing entry_count")
	}
	entries := make([]StringTableEntry, 0, count)
	off := 4
	for i := uint32(0); i < count; i++ {
		if off+24 > len(payload) {
			return nil, newDecodeError("strg", ErrShortBuffer, "truncated entry")
		}
		kindWord, _ := readU32(payload, off)
		var kind FourCC
		binary.BigEndian.PutUint32(kind[:], kindWord)
		assetID := uuidFromBytesLE(payload[off+4 : off+20])
		nameLen, _ := readU32(payload, off+20)
		off += 24
		if off+int(nameLen) > len(payload) {
			return nil, newDecodeError("strg", ErrShortBuffer, "truncated name")
		}
		name := string(payload[off : off+int(nameLen)])
		off += int(nameLen)
		entries = append(entries, StringTableEntry{Kind: kind, AssetID: assetID, Name: name})
	}
	return entries, nil
}

// ReadPackage parses a PACK form from data, decompressing every asset
// payload, grounded on original_source's Package::read (src/format/pack.rs).
func ReadPackage(data []byte) (*Package, error) {
	_, _, _, toccPayload, err := sliceTOCC(data)
	if err != nil {
		return nil, err
	}

	adir, meta, strg, err := decodeTOCC(toccPayload, true)
	if err != nil {
		return nil, err
	}

	pkg := &Package{Assets: make([]Asset, 0, len(adir))}
	for _, entry := range adir {
		if entry.Offset+entry.Size > uint64(len(data)) {
			return nil, newDecodeError("read_package", ErrShortBuffer, "asset offset/size")
		}
		raw := data[entry.Offset : entry.Offset+entry.Size]

		var assetData []byte
		var compressionMode uint32
		if entry.Size != entry.DecompressedSize {
			decoded, mode, err := DecompressBuffer(raw, int(entry.DecompressedSize))
			if err != nil {
				return nil, err
			}
			assetData = decoded
			compressionMode = mode
		} else {
			assetData = raw
		}

		formHdr, _, _, err := SliceForm(assetData)
		if err != nil {
			return nil, err
		}
		if formHdr.ID != entry.AssetType || formHdr.ReaderVersion != entry.Version ||
			formHdr.WriterVersion != entry.OtherVersion ||
			entry.DecompressedSize != formHdr.PayloadSize+uint64(FormSize) {
			return nil, newDecodeError("read_package", ErrInvariantViolation, "asset form header mismatch")
		}

		names := strg[entry.AssetID]
		var name string
		if len(names) > 0 {
			name = names[0]
		}

		asset := Asset{
			ID:           entry.AssetID,
			Kind:         entry.AssetType,
			Name:         name,
			Names:        names,
			Data:         assetData,
			Meta:         meta[entry.AssetID],
			Version:      entry.Version,
			OtherVersion: entry.OtherVersion,
			Info: AssetInfo{
				ID:              entry.AssetID,
				CompressionMode: compressionMode,
				OriginalOffset:  entry.Offset,
			},
		}
		pkg.Assets = append(pkg.Assets, asset)
	}
	return pkg, nil
}

// decodeTOCC walks a TOCC form's payload, decoding ADIR and STRG always
// and META only when wantMeta is set (a sparse read skips it). STRG
// entries are grouped into per-id name lists, preserving every name
// recorded for an asset rather than the last one written.
func decodeTOCC(toccPayload []byte, wantMeta bool) ([]AssetDirectoryEntry, map[uuid.UUID][]byte, map[uuid.UUID][]string, error) {
	var adir []AssetDirectoryEntry
	meta := map[uuid.UUID][]byte{}
	strg := map[uuid.UUID][]string{}
	haveADIR := false

	err := WalkRecursive(toccPayload, func(desc ChunkDescriptor, payload []byte) error {
		switch desc.ID {
		case chunkADIR:
			entries, err := decodeAssetDirectory(payload)
			if err != nil {
				return err
			}
			adir = entries
			haveADIR = true
		case chunkMETA:
			if !wantMeta {
				return nil
			}
			entries, err := decodeMetadataTable(payload)
			if err != nil {
				return err
			}
			for _, e := range entries {
				size, ok := readU32(payload, int(e.Offset))
				if !ok {
					return newDecodeError("meta", ErrShortBuffer, "metadata entry offset")
				}
				start := int(e.Offset) + 4
				end := start + int(size)
				if end > len(payload) {
					return newDecodeError("meta", ErrShortBuffer, "metadata entry size")
				}
				meta[e.AssetID] = payload[start:end]
			}
		case chunkSTRG:
			entries, err := decodeStringTable(payload)
			if err != nil {
				return err
			}
			for _, e := range entries {
				strg[e.AssetID] = append(strg[e.AssetID], e.Name)
			}
		default:
			return newDecodeError("read_package", ErrUnknownChunk, desc.ID.String())
		}
		return nil
	}, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	if !haveADIR {
		return nil, nil, nil, newDecodeError("read_package", ErrMissingRequiredChunk, "ADIR")
	}
	return adir, meta, strg, nil
}

func sliceTOCC(data []byte) (FormDescriptor, []byte, FormDescriptor, []byte, error) {
	packHdr, packPayload, _, err := SliceForm(data)
	if err != nil {
		return FormDescriptor{}, nil, FormDescriptor{}, nil, err
	}
	if packHdr.ID != formPACK {
		return FormDescriptor{}, nil, FormDescriptor{}, nil, newDecodeError("read_package", ErrBadMagic, packHdr.ID.String())
	}
	if packHdr.ReaderVersion != 1 {
		return FormDescriptor{}, nil, FormDescriptor{}, nil, newDecodeError("read_package", ErrVersionMismatch, "PACK")
	}
	toccHdr, toccPayload, _, err := SliceForm(packPayload)
	if err != nil {
		return FormDescriptor{}, nil, FormDescriptor{}, nil, err
	}
	if toccHdr.ID != formTOCC {
		return FormDescriptor{}, nil, FormDescriptor{}, nil, newDecodeError("read_package", ErrBadMagic, toccHdr.ID.String())
	}
	if toccHdr.ReaderVersion != 3 {
		return FormDescriptor{}, nil, FormDescriptor{}, nil, newDecodeError("read_package", ErrVersionMismatch, "TOCC")
	}
	return packHdr, packPayload, toccHdr, toccPayload, nil
}

// ReadSparse indexes a PACK file's directory and string table without
// materializing metadata or asset payloads, grounded on original_source's
// read_sparse (src/format/pack.rs): consecutive ADIR entries sharing an
// asset id are deduplicated, retaining the first, and every STRG entry
// for an id is folded into that entry's Names list.
func ReadSparse(data []byte) ([]SparsePackageEntry, error) {
	_, _, _, toccPayload, err := sliceTOCC(data)
	if err != nil {
		return nil, err
	}
	adir, _, strg, err := decodeTOCC(toccPayload, false)
	if err != nil {
		return nil, err
	}

	entries := make([]SparsePackageEntry, 0, len(adir))
	seen := map[uuid.UUID]bool{}
	for _, e := range adir {
		if seen[e.AssetID] {
			continue
		}
		seen[e.AssetID] = true
		entries = append(entries, SparsePackageEntry{
			ID:            e.AssetID,
			Kind:          e.AssetType,
			Names:         strg[e.AssetID],
			ReaderVersion: e.Version,
			WriterVersion: e.OtherVersion,
		})
	}
	return entries, nil
}

// ReadHeader re-serializes data's PACK form keeping only its TOCC child
// (directory, metadata, and string table), discarding every asset
// payload, grounded on original_source's read_header (src/format/pack.rs).
// This lets a caller index a large file without loading payload bytes.
func ReadHeader(data []byte) ([]byte, error) {
	packHdr, _, toccHdr, toccPayload, err := sliceTOCC(data)
	if err != nil {
		return nil, err
	}

	w := &memWriter{}
	err = WriteForm(w, FormDescriptor{ID: packHdr.ID, ReaderVersion: packHdr.ReaderVersion, WriterVersion: packHdr.WriterVersion}, func(w seekWriter) error {
		return WriteForm(w, FormDescriptor{ID: toccHdr.ID, ReaderVersion: toccHdr.ReaderVersion, WriterVersion: toccHdr.WriterVersion}, func(w seekWriter) error {
			_, err := w.Write(toccPayload)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return w.buf, nil
}

// ReadAsset extracts one asset by id, emitting its decompressed payload
// followed by a custom FOOT form carrying enough directory/metadata/name
// state to losslessly re-pack it later, grounded on original_source's
// read_asset (src/format/pack.rs).
func ReadAsset(data []byte, id uuid.UUID) ([]byte, error) {
	_, _, _, toccPayload, err := sliceTOCC(data)
	if err != nil {
		return nil, err
	}
	adir, meta, strg, err := decodeTOCC(toccPayload, true)
	if err != nil {
		return nil, err
	}

	var entry *AssetDirectoryEntry
	for i := range adir {
		if adir[i].AssetID == id {
			entry = &adir[i]
			break
		}
	}
	if entry == nil {
		return nil, newDecodeError("read_asset", ErrDirectoryLookupFailed, id.String())
	}
	if entry.Offset+entry.Size > uint64(len(data)) {
		return nil, newDecodeError("read_asset", ErrShortBuffer, "asset offset/size")
	}
	raw := data[entry.Offset : entry.Offset+entry.Size]

	var assetData []byte
	var compressionMode uint32
	if entry.Size != entry.DecompressedSize {
		decoded, mode, err := DecompressBuffer(raw, int(entry.DecompressedSize))
		if err != nil {
			return nil, err
		}
		assetData = decoded
		compressionMode = mode
	} else {
		assetData = raw
	}

	formHdr, _, _, err := SliceForm(assetData)
	if err != nil {
		return nil, err
	}
	if formHdr.ID != entry.AssetType || formHdr.ReaderVersion != entry.Version ||
		formHdr.WriterVersion != entry.OtherVersion ||
		entry.DecompressedSize != formHdr.PayloadSize+uint64(FormSize) {
		return nil, newDecodeError("read_asset", ErrInvariantViolation, "asset form header mismatch")
	}

	asset := Asset{
		ID:    entry.AssetID,
		Kind:  entry.AssetType,
		Names: strg[entry.AssetID],
		Meta:  meta[entry.AssetID],
		Info: AssetInfo{
			ID:              entry.AssetID,
			CompressionMode: compressionMode,
			OriginalOffset:  entry.Offset,
		},
	}
	if len(asset.Names) > 0 {
		asset.Name = asset.Names[0]
	}

	out := &memWriter{}
	if _, err := out.Write(assetData); err != nil {
		return nil, err
	}
	if err := BuildFooter(out, asset); err != nil {
		return nil, err
	}
	return out.buf, nil
}

// AssetByID finds an asset by id, mirroring the directory lookup callers
// otherwise have to do by hand against Package.Assets.
func (p *Package) AssetByID(id uuid.UUID) (*Asset, bool) {
	a, ok := lo.Find(p.Assets, func(a Asset) bool { return a.ID == id })
	if !ok {
		return nil, false
	}
	return &a, true
}

// AssetsByKind groups a package's assets by their form FourCC (TXTR,
// CMDL, MTRL, ...), the grouping a caller would otherwise build by hand
// when presenting a package's contents by type.
func (p *Package) AssetsByKind() map[FourCC][]Asset {
	return lo.GroupBy(p.Assets, func(a Asset) FourCC { return a.Kind })
}

// Checksum returns a content hash over every asset's id and decompressed
// payload, suitable for cheaply detecting whether a package's contents
// changed between two reads. Assets are hashed in ascending id order so
// the result doesn't depend on directory order.
func (p *Package) Checksum() uint64 {
	sorted := append([]Asset(nil), p.Assets...)
	sort.Slice(sorted, func(i, j int) bool {
		return bytesLess(sorted[i].ID[:], sorted[j].ID[:])
	})

	digest := xxhash.New()
	for _, a := range sorted {
		b := uuidToBytesLE(a.ID)
		digest.Write(b[:])
		digest.Write(a.Data)
	}
	return digest.Sum64()
}

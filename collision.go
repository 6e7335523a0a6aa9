// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

// Collision tree forms (CLSN axis-aligned, DCLN oriented) carry no
// compression and reuse only the RFRM/chunk walker, grounded on
// original_source's retrotool/src/cmd/clsn.go convert command.

const (
	clsnReaderVersion = 11
	clsnWriterVersion = 22

	dclnReaderVersion = 9
	dclnWriterVersion = 18
)

// CollisionMaterial is one entry of a collision tree's MTRL chunk.
type CollisionMaterial struct {
	Orientation  uint32
	MaterialType uint32
	WorldType    uint32
	BehaviorList uint32
	FilterList   uint32
}

// IndexedTriangle is one entry of a collision tree's TRIS chunk.
type IndexedTriangle struct {
	Idx1, Idx2, Idx3 uint32
	Material         uint16
	Unk              uint16
}

// AABoxTreeNode is one node of a CLSN form's octree.
type AABoxTreeNode struct {
	Bounds             AABox
	Start, End         uint32
	Unk1, Unk2, Unk3, Unk4 uint8
}

// OBBoxTreeNode is one node of a DCLN form's octree.
type OBBoxTreeNode struct {
	Bounds             OBBox
	Start, End         uint32
	Unk1, Unk2, Unk3, Unk4 uint8
}

// CollisionTree is the parsed contents of a CLSN or DCLN form: vertex
// positions, the indexed triangles referencing them, and the MTRL
// material records. Octree and any other chunks are skipped and not
// kept.
type CollisionTree struct {
	Kind      FourCC
	Vertices  []Vector3
	Triangles []IndexedTriangle
	Materials []CollisionMaterial
}

// ReadCollisionTree parses a CLSN/DCLN form, mirroring the chunk walk in
// convert() (retrotool/src/cmd/clsn.go): VERT/MTRL/TRIS chunks are
// decoded, anything else is skipped.
func ReadCollisionTree(data []byte) (*CollisionTree, error) {
	hdr, payload, _, err := SliceForm(data)
	if err != nil {
		return nil, err
	}
	switch hdr.ID {
	case formCLSN:
		if hdr.ReaderVersion != clsnReaderVersion || hdr.WriterVersion != clsnWriterVersion {
			return nil, newDecodeError("read_collision_tree", ErrVersionMismatch, "CLSN")
		}
	case formDCLN:
		if hdr.ReaderVersion != dclnReaderVersion || hdr.WriterVersion != dclnWriterVersion {
			return nil, newDecodeError("read_collision_tree", ErrVersionMismatch, "DCLN")
		}
	default:
		return nil, newDecodeError("read_collision_tree", ErrBadMagic, hdr.ID.String())
	}

	tree := &CollisionTree{Kind: hdr.ID}
	err = WalkRecursive(payload, func(desc ChunkDescriptor, chunkData []byte) error {
		switch desc.ID {
		case chunkVERT:
			count, ok := readU32(chunkData, 0)
			if !ok {
				return newDecodeError("vert", ErrShortBuffer, "")
			}
			verts := make([]Vector3, count)
			if err := structUnpack(chunkData[4:4+int(count)*12], &verts); err != nil {
				return newDecodeError("vert", ErrShortBuffer, err.Error())
			}
			tree.Vertices = verts
		case chunkMTRL:
			count, ok := readU32(chunkData, 0)
			if !ok {
				return newDecodeError("mtrl", ErrShortBuffer, "")
			}
			mats := make([]CollisionMaterial, count)
			if err := structUnpack(chunkData[4:4+int(count)*20], &mats); err != nil {
				return newDecodeError("mtrl", ErrShortBuffer, err.Error())
			}
			tree.Materials = mats
		case chunkTRIS:
			count, ok := readU32(chunkData, 0)
			if !ok {
				return newDecodeError("tris", ErrShortBuffer, "")
			}
			tris := make([]IndexedTriangle, count)
			if err := structUnpack(chunkData[4:4+int(count)*16], &tris); err != nil {
				return newDecodeError("tris", ErrShortBuffer, err.Error())
			}
			tree.Triangles = tris
		}
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}
	return tree, nil
}

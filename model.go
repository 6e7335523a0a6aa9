// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import (
	"bytes"
	"encoding/binary"
	"math"
)

// ModelReadBufferInfo locates one raw GPU-data buffer slice within a
// model asset's RFRM payload (SModelReadBufferInfo).
type ModelReadBufferInfo struct {
	Size   uint32
	Offset uint32
}

// ModelBufferInfo locates one compressed GPU buffer within a read
// buffer and its decompressed size (SModelBufferInfo).
type ModelBufferInfo struct {
	ReadIndex uint32
	Offset    uint32
	Size      uint32
	DestSize  uint32
}

// ModelMetaData is the META chunk payload that drives vertex/index GPU
// buffer reconstruction (SModelMetaData).
type ModelMetaData struct {
	Unk            uint32
	GPUOffset      uint32
	ReadInfo       []ModelReadBufferInfo
	VtxBufferInfo  []ModelBufferInfo
	IdxBufferInfo  []ModelBufferInfo
}

// MeshLoadInformation is the MESH chunk payload (SMeshLoadInformation).
type MeshLoadInformation struct {
	Meshes []RenderMesh
}

// RenderMesh is one submesh entry within MESH (CRenderMesh).
type RenderMesh struct {
	MaterialIdx uint16
	VtxBufIdx   uint8
	IdxBufIdx   uint8
	IndexStart  uint32
	IndexCount  uint32
	Unk1        uint16
	Unk2        uint16
}

// ModelHeader is the common HEAD/WDHD/SKHD chunk payload (SModelHeader).
// The original carries no skinning-specific data beyond the shared
// unk+bounds prefix; world and skinned headers are decoded into this
// same shape per the format's own handling.
type ModelHeader struct {
	Unk    uint32
	Bounds AABox
}

// VertexDataComponent is one entry of a vertex buffer's component list
// (SVertexDataComponent).
type VertexDataComponent struct {
	BufferIndex uint32
	Offset      uint32
	Stride      uint32
	Format      VertexDataFormat
	Component   VertexComponent
}

// VertexBufferInfo describes one vertex buffer's layout (SVertexBufferInfo).
type VertexBufferInfo struct {
	VertexCount uint32
	Components  []VertexDataComponent
	Unk         uint8
}

// VertexBufferInfoSection is the VBUF chunk payload
// (SVertexBufferInfoSection).
type VertexBufferInfoSection struct {
	Info []VertexBufferInfo
}

// IndexBufferInfoSection is the IBUF chunk payload
// (SIndexBufferInfoSection): one element-width tag per index buffer.
type IndexBufferInfoSection struct {
	Info []BufferType
}

// ModelData is a fully decoded model asset: its submesh list, vertex and
// index buffer layouts, decompressed GPU buffers, and material cache,
// grounded on original_source's ModelData (lib/src/format/cmdl.rs).
type ModelData struct {
	Head        ModelHeader
	Materials   MaterialCache
	MaterialSet []MaterialCache
	Mesh        MeshLoadInformation
	VtxLayout   VertexBufferInfoSection
	IdxLayout   IndexBufferInfoSection
	VtxBuffers  [][]byte
	IdxBuffers  [][]byte
}

func readModelMetaData(data []byte) (ModelMetaData, error) {
	r := bytes.NewReader(data)
	var m ModelMetaData
	if err := binary.Read(r, binary.LittleEndian, &m.Unk); err != nil {
		return m, newDecodeError("model_meta", ErrShortBuffer, err.Error())
	}
	if err := binary.Read(r, binary.LittleEndian, &m.GPUOffset); err != nil {
		return m, newDecodeError("model_meta", ErrShortBuffer, err.Error())
	}

	var readCount uint32
	if err := binary.Read(r, binary.LittleEndian, &readCount); err != nil {
		return m, newDecodeError("model_meta", ErrShortBuffer, err.Error())
	}
	m.ReadInfo = make([]ModelReadBufferInfo, readCount)
	if err := binary.Read(r, binary.LittleEndian, m.ReadInfo); err != nil {
		return m, newDecodeError("model_meta", ErrShortBuffer, err.Error())
	}

	var vtxCount uint32
	if err := binary.Read(r, binary.LittleEndian, &vtxCount); err != nil {
		return m, newDecodeError("model_meta", ErrShortBuffer, err.Error())
	}
	m.VtxBufferInfo = make([]ModelBufferInfo, vtxCount)
	if err := binary.Read(r, binary.LittleEndian, m.VtxBufferInfo); err != nil {
		return m, newDecodeError("model_meta", ErrShortBuffer, err.Error())
	}

	var idxCount uint32
	if err := binary.Read(r, binary.LittleEndian, &idxCount); err != nil {
		return m, newDecodeError("model_meta", ErrShortBuffer, err.Error())
	}
	m.IdxBufferInfo = make([]ModelBufferInfo, idxCount)
	if err := binary.Read(r, binary.LittleEndian, m.IdxBufferInfo); err != nil {
		return m, newDecodeError("model_meta", ErrShortBuffer, err.Error())
	}

	return m, nil
}

// decompressGPUBuffers reassembles a set of GPU buffers (vertex or
// index data) described by bufferInfo against the asset's raw GPU-data
// chunks, grounded on decompress_gpu_buffers.
func decompressGPUBuffers(fileData []byte, readInfo []ModelReadBufferInfo, bufferInfo []ModelBufferInfo) ([][]byte, error) {
	out := make([][]byte, len(bufferInfo))
	for i, info := range bufferInfo {
		if int(info.ReadIndex) >= len(readInfo) {
			return nil, newDecodeError("model_gpu_buffers", ErrInvariantViolation, "read index out of range")
		}
		ri := readInfo[info.ReadIndex]
		if uint64(ri.Offset)+uint64(ri.Size) > uint64(len(fileData)) {
			return nil, newDecodeError("model_gpu_buffers", ErrShortBuffer, "read buffer out of range")
		}
		readBuf := fileData[ri.Offset : ri.Offset+ri.Size]
		if uint64(info.Offset)+uint64(info.Size) > uint64(len(readBuf)) {
			return nil, newDecodeError("model_gpu_buffers", ErrShortBuffer, "compressed buffer out of range")
		}
		compBuf := readBuf[info.Offset : info.Offset+info.Size]
		buf, _, err := DecompressBuffer(compBuf, int(info.DestSize))
		if err != nil {
			return nil, err
		}
		out[i] = buf
	}
	return out, nil
}

func readVertexBufferInfoSection(data []byte) (VertexBufferInfoSection, error) {
	r := bytes.NewReader(data)
	var s VertexBufferInfoSection
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return s, newDecodeError("vbuf", ErrShortBuffer, err.Error())
	}
	s.Info = make([]VertexBufferInfo, count)
	for i := range s.Info {
		var vertexCount, componentCount uint32
		if err := binary.Read(r, binary.LittleEndian, &vertexCount); err != nil {
			return s, newDecodeError("vbuf", ErrShortBuffer, err.Error())
		}
		if err := binary.Read(r, binary.LittleEndian, &componentCount); err != nil {
			return s, newDecodeError("vbuf", ErrShortBuffer, err.Error())
		}
		components := make([]VertexDataComponent, componentCount)
		if err := binary.Read(r, binary.LittleEndian, components); err != nil {
			return s, newDecodeError("vbuf", ErrShortBuffer, err.Error())
		}
		var unk uint8
		if err := binary.Read(r, binary.LittleEndian, &unk); err != nil {
			return s, newDecodeError("vbuf", ErrShortBuffer, err.Error())
		}
		s.Info[i] = VertexBufferInfo{VertexCount: vertexCount, Components: components, Unk: unk}
	}
	return s, nil
}

func readIndexBufferInfoSection(data []byte) (IndexBufferInfoSection, error) {
	r := bytes.NewReader(data)
	var s IndexBufferInfoSection
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return s, newDecodeError("ibuf", ErrShortBuffer, err.Error())
	}
	s.Info = make([]BufferType, count)
	if err := binary.Read(r, binary.LittleEndian, s.Info); err != nil {
		return s, newDecodeError("ibuf", ErrShortBuffer, err.Error())
	}
	return s, nil
}

func readMeshLoadInformation(data []byte) (MeshLoadInformation, error) {
	r := bytes.NewReader(data)
	var s MeshLoadInformation
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return s, newDecodeError("mesh", ErrShortBuffer, err.Error())
	}
	s.Meshes = make([]RenderMesh, count)
	if err := binary.Read(r, binary.LittleEndian, s.Meshes); err != nil {
		return s, newDecodeError("mesh", ErrShortBuffer, err.Error())
	}
	return s, nil
}

func readModelHeader(data []byte) (ModelHeader, error) {
	r := bytes.NewReader(data)
	var h ModelHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return h, newDecodeError("model_header", ErrShortBuffer, err.Error())
	}
	return h, nil
}

func readMaterialChunk(data []byte) (MaterialCache, []MaterialCache, error) {
	r := bytes.NewReader(data)
	var unk uint32
	if err := binary.Read(r, binary.LittleEndian, &unk); err != nil {
		return MaterialCache{}, nil, newDecodeError("mtrl", ErrShortBuffer, err.Error())
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return MaterialCache{}, nil, newDecodeError("mtrl", ErrShortBuffer, err.Error())
	}
	materials := make([]MaterialCache, count)
	for i := range materials {
		mat, err := readMaterialCache(r)
		if err != nil {
			return MaterialCache{}, nil, err
		}
		materials[i] = mat
	}
	var first MaterialCache
	if len(materials) > 0 {
		first = materials[0]
	}
	return first, materials, nil
}

// ReadModel decodes a CMDL/SMDL/WMDL form, grounded on original_source's
// ModelData::slice (lib/src/format/cmdl.rs): it validates the form's
// version against the three known model kinds, reconstructs the vertex
// and index GPU buffers from META's two read-plans, then walks the
// remaining chunks collecting the model's submesh list, buffer layouts,
// and material cache.
func ReadModel(data []byte, meta []byte) (*ModelData, error) {
	formHdr, formPayload, _, err := SliceForm(data)
	if err != nil {
		return nil, err
	}
	switch formHdr.ID {
	case formCMDL:
		if formHdr.ReaderVersion != 114 || formHdr.WriterVersion != 125 {
			return nil, newDecodeError("read_model", ErrVersionMismatch, "CMDL")
		}
	case formSMDL:
		if formHdr.ReaderVersion != 127 || formHdr.WriterVersion != 133 {
			return nil, newDecodeError("read_model", ErrVersionMismatch, "SMDL")
		}
	case formWMDL:
		if formHdr.ReaderVersion != 118 || formHdr.WriterVersion != 124 {
			return nil, newDecodeError("read_model", ErrVersionMismatch, "WMDL")
		}
	default:
		return nil, newDecodeError("read_model", ErrBadMagic, formHdr.ID.String())
	}

	metaData, err := readModelMetaData(meta)
	if err != nil {
		return nil, err
	}
	vtxBuffers, err := decompressGPUBuffers(data, metaData.ReadInfo, metaData.VtxBufferInfo)
	if err != nil {
		return nil, err
	}
	idxBuffers, err := decompressGPUBuffers(data, metaData.ReadInfo, metaData.IdxBufferInfo)
	if err != nil {
		return nil, err
	}

	var (
		head      *ModelHeader
		mtrl      *MaterialCache
		mtrlSet   []MaterialCache
		mesh      *MeshLoadInformation
		vbuf      *VertexBufferInfoSection
		ibuf      *IndexBufferInfoSection
	)

	remaining := formPayload
	for len(remaining) > 0 {
		chunkDesc, chunkData, rest, err := SliceChunk(remaining)
		if err != nil {
			return nil, err
		}
		switch chunkDesc.ID {
		case chunkWDHD, chunkSKHD, chunkHEAD:
			h, err := readModelHeader(chunkData)
			if err != nil {
				return nil, err
			}
			head = &h
		case chunkMTRL:
			first, all, err := readMaterialChunk(chunkData)
			if err != nil {
				return nil, err
			}
			mtrl, mtrlSet = &first, all
		case chunkMESH:
			m, err := readMeshLoadInformation(chunkData)
			if err != nil {
				return nil, err
			}
			mesh = &m
		case chunkVBUF:
			v, err := readVertexBufferInfoSection(chunkData)
			if err != nil {
				return nil, err
			}
			vbuf = &v
		case chunkIBUF:
			ib, err := readIndexBufferInfoSection(chunkData)
			if err != nil {
				return nil, err
			}
			ibuf = &ib
		case chunkGPU:
			// GPU data is decompressed via the META read-plans above.
		default:
			return nil, newDecodeError("read_model", ErrUnknownChunk, chunkDesc.ID.String())
		}
		remaining = rest
	}

	if head == nil {
		return nil, newDecodeError("read_model", ErrMissingRequiredChunk, "HEAD")
	}
	if mtrl == nil {
		return nil, newDecodeError("read_model", ErrMissingRequiredChunk, "MTRL")
	}
	if mesh == nil {
		return nil, newDecodeError("read_model", ErrMissingRequiredChunk, "MESH")
	}
	if vbuf == nil {
		return nil, newDecodeError("read_model", ErrMissingRequiredChunk, "VBUF")
	}
	if ibuf == nil {
		return nil, newDecodeError("read_model", ErrMissingRequiredChunk, "IBUF")
	}

	return &ModelData{
		Head:        *head,
		Materials:   *mtrl,
		MaterialSet: mtrlSet,
		Mesh:        *mesh,
		VtxLayout:   *vbuf,
		IdxLayout:   *ibuf,
		VtxBuffers:  vtxBuffers,
		IdxBuffers:  idxBuffers,
	}, nil
}

// ConvertedVertex maps each vertex component's semantic to the widened
// float32 values the core produces on demand: f16 channels expanded to
// f32, 8-bit normalized colors divided by 255, and Rgba16Float narrowed
// to three channels for Position/Normal or two for any other semantic. A
// component whose format has no defined conversion is omitted here; its
// raw bytes remain reachable through the submesh's backing vertex
// buffer.
type ConvertedVertex struct {
	Components map[VertexComponent][]float32
}

// Submesh is the rendering-friendly form one MESH entry takes once its
// index range is translated into a zero-based local index buffer and
// its referenced vertex range sliced and widened, grounded on
// original_source's submesh-slicing step (lib/src/format/cmdl.rs).
type Submesh struct {
	MaterialIdx  uint16
	LocalIndices []uint32
	VertexStart  uint32
	VertexCount  uint32
	Vertices     []ConvertedVertex
}

// Submeshes computes the rendering-friendly form of every MESH entry:
// for each submesh it resolves the referenced index range, computes the
// min/max vertex indices it touches, translates the indices into a
// zero-based local buffer, and widens the referenced vertex span's
// components via convertVertexComponent.
func (m *ModelData) Submeshes() ([]Submesh, error) {
	out := make([]Submesh, len(m.Mesh.Meshes))
	for i, rm := range m.Mesh.Meshes {
		sm, err := m.buildSubmesh(rm)
		if err != nil {
			return nil, err
		}
		out[i] = sm
	}
	return out, nil
}

func (m *ModelData) buildSubmesh(rm RenderMesh) (Submesh, error) {
	if int(rm.IdxBufIdx) >= len(m.IdxBuffers) || int(rm.IdxBufIdx) >= len(m.IdxLayout.Info) {
		return Submesh{}, newDecodeError("submesh", ErrInvariantViolation, "index buffer out of range")
	}
	indices, err := decodeIndexRange(m.IdxBuffers[rm.IdxBufIdx], m.IdxLayout.Info[rm.IdxBufIdx], rm.IndexStart, rm.IndexCount)
	if err != nil {
		return Submesh{}, err
	}
	if len(indices) == 0 {
		return Submesh{MaterialIdx: rm.MaterialIdx}, nil
	}

	min, max := indices[0], indices[0]
	for _, idx := range indices {
		if idx < min {
			min = idx
		}
		if idx > max {
			max = idx
		}
	}
	local := make([]uint32, len(indices))
	for i, idx := range indices {
		local[i] = idx - min
	}
	vertexCount := max - min + 1

	if int(rm.VtxBufIdx) >= len(m.VtxLayout.Info) {
		return Submesh{}, newDecodeError("submesh", ErrInvariantViolation, "vertex buffer out of range")
	}
	group := m.VtxLayout.Info[rm.VtxBufIdx]
	groupBuffers, err := m.vertexGroupBuffers(int(rm.VtxBufIdx))
	if err != nil {
		return Submesh{}, err
	}

	vertices := make([]ConvertedVertex, vertexCount)
	for v := uint32(0); v < vertexCount; v++ {
		vertexIndex := min + v
		comps := map[VertexComponent][]float32{}
		for _, c := range group.Components {
			if int(c.BufferIndex) >= len(groupBuffers) {
				return Submesh{}, newDecodeError("submesh", ErrInvariantViolation, "component buffer index out of range")
			}
			buf := groupBuffers[c.BufferIndex]
			size := uint64(c.Format.ByteSize())
			start := uint64(c.Offset) + uint64(vertexIndex)*uint64(c.Stride)
			if start+size > uint64(len(buf)) {
				return Submesh{}, newDecodeError("submesh", ErrShortBuffer, "vertex component out of range")
			}
			raw := buf[start : start+size]
			if values, ok := convertVertexComponent(c, raw); ok {
				comps[c.Component] = values
			}
		}
		vertices[v] = ConvertedVertex{Components: comps}
	}

	return Submesh{
		MaterialIdx:  rm.MaterialIdx,
		LocalIndices: local,
		VertexStart:  min,
		VertexCount:  vertexCount,
		Vertices:     vertices,
	}, nil
}

// vertexGroupBuffers returns the slice of m.VtxBuffers consumed by
// vertex-buffer group groupIdx: groups consume their buffers in
// declaration order, each group's count given by its trailing
// num_buffers field (VertexBufferInfo.Unk).
func (m *ModelData) vertexGroupBuffers(groupIdx int) ([][]byte, error) {
	start := 0
	for i := 0; i < groupIdx; i++ {
		start += int(m.VtxLayout.Info[i].Unk)
	}
	n := int(m.VtxLayout.Info[groupIdx].Unk)
	if start+n > len(m.VtxBuffers) {
		return nil, newDecodeError("submesh", ErrInvariantViolation, "vertex group buffer count overflows decoded buffers")
	}
	return m.VtxBuffers[start : start+n], nil
}

// decodeIndexRange reads count index values of the given element width
// starting at element offset start within buf.
func decodeIndexRange(buf []byte, bufType BufferType, start, count uint32) ([]uint32, error) {
	out := make([]uint32, count)
	switch bufType {
	case BufferTypeU8:
		if uint64(start)+uint64(count) > uint64(len(buf)) {
			return nil, newDecodeError("submesh", ErrShortBuffer, "u8 index range out of buffer")
		}
		for i := uint32(0); i < count; i++ {
			out[i] = uint32(buf[start+i])
		}
	case BufferTypeU16:
		if (uint64(start)+uint64(count))*2 > uint64(len(buf)) {
			return nil, newDecodeError("submesh", ErrShortBuffer, "u16 index range out of buffer")
		}
		for i := uint32(0); i < count; i++ {
			out[i] = uint32(binary.LittleEndian.Uint16(buf[(start+i)*2:]))
		}
	case BufferTypeU32:
		if (uint64(start)+uint64(count))*4 > uint64(len(buf)) {
			return nil, newDecodeError("submesh", ErrShortBuffer, "u32 index range out of buffer")
		}
		for i := uint32(0); i < count; i++ {
			out[i] = binary.LittleEndian.Uint32(buf[(start+i)*4:])
		}
	default:
		return nil, newDecodeError("submesh", ErrInvariantViolation, "unknown index buffer type")
	}
	return out, nil
}

// convertVertexComponent applies the core's on-demand vertex-format
// widening to one component's raw bytes. It returns (nil, false) for
// formats with no defined conversion; callers fall back to the raw,
// bit-preserving bytes in that case.
func convertVertexComponent(c VertexDataComponent, raw []byte) ([]float32, bool) {
	switch c.Format {
	case VertexFormatR16Float:
		return []float32{halfToFloat32(binary.LittleEndian.Uint16(raw[0:2]))}, true
	case VertexFormatRg16Float:
		return []float32{
			halfToFloat32(binary.LittleEndian.Uint16(raw[0:2])),
			halfToFloat32(binary.LittleEndian.Uint16(raw[2:4])),
		}, true
	case VertexFormatRgba16Float:
		all := [4]float32{
			halfToFloat32(binary.LittleEndian.Uint16(raw[0:2])),
			halfToFloat32(binary.LittleEndian.Uint16(raw[2:4])),
			halfToFloat32(binary.LittleEndian.Uint16(raw[4:6])),
			halfToFloat32(binary.LittleEndian.Uint16(raw[6:8])),
		}
		switch c.Component {
		case VertexComponentPosition, VertexComponentNormal:
			return all[:3], true
		default:
			return all[:2], true
		}
	case VertexFormatR8Unorm:
		if c.Component == VertexComponentColor {
			return []float32{float32(raw[0]) / 255}, true
		}
	case VertexFormatRg8Unorm:
		if c.Component == VertexComponentColor {
			return []float32{float32(raw[0]) / 255, float32(raw[1]) / 255}, true
		}
	case VertexFormatRgba8Unorm:
		if c.Component == VertexComponentColor {
			return []float32{
				float32(raw[0]) / 255, float32(raw[1]) / 255,
				float32(raw[2]) / 255, float32(raw[3]) / 255,
			}, true
		}
	}
	return nil, false
}

// halfToFloat32 expands an IEEE 754 binary16 value to binary32.
func halfToFloat32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h&0x7c00) >> 10
	frac := uint32(h & 0x03ff)

	switch exp {
	case 0:
		if frac == 0 {
			return math.Float32frombits(sign)
		}
		shift := uint32(0)
		for frac&0x0400 == 0 {
			frac <<= 1
			shift++
		}
		frac &= 0x03ff
		exp32 := uint32(127 - 15 + 1 - shift)
		return math.Float32frombits(sign | exp32<<23 | frac<<13)
	case 0x1f:
		return math.Float32frombits(sign | 0xff<<23 | frac<<13)
	default:
		exp32 := exp - 15 + 127
		return math.Float32frombits(sign | exp32<<23 | frac<<13)
	}
}

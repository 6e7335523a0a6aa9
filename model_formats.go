// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

// BufferType is the element width of an index buffer (EBufferType).
type BufferType uint32

const (
	BufferTypeU8 BufferType = iota
	BufferTypeU16
	BufferTypeU32
)

// VertexDataFormat is the wire format of one vertex buffer component,
// grounded verbatim on original_source's EVertexDataFormat
// (lib/src/format/cmdl.rs). Unknown is encoded as 0xFFFFFFFF on disk.
type VertexDataFormat uint32

const VertexFormatUnknown VertexDataFormat = 0xFFFFFFFF

const (
	VertexFormatR8Unorm VertexDataFormat = iota
	VertexFormatR8Uint
	VertexFormatR8Snorm
	VertexFormatR8Sint
	VertexFormatR16Unorm
	VertexFormatR16Uint
	VertexFormatR16Snorm
	VertexFormatR16Sint
	VertexFormatR16Float
	VertexFormatRg8Unorm
	VertexFormatRg8Uint
	VertexFormatRg8Snorm
	VertexFormatRg8Sint
	VertexFormatR32Uint
	VertexFormatR32Sint
	VertexFormatR32Float
	VertexFormatRg16Unorm
	VertexFormatRg16Uint
	VertexFormatRg16Snorm
	VertexFormatRg16Sint
	VertexFormatRg16Float
	VertexFormatRgba8Unorm
	VertexFormatRgba8Uint
	VertexFormatRgba8Snorm
	VertexFormatRgba8Sint
	VertexFormatRgb10a2Unorm
	VertexFormatRgb10a2Uint
	VertexFormatRg32Uint
	VertexFormatRg32Sint
	VertexFormatRg32Float
	VertexFormatRgba16Unorm
	VertexFormatRgba16Uint
	VertexFormatRgba16Snorm
	VertexFormatRgba16Sint
	VertexFormatRgba16Float
	VertexFormatRgb32Uint
	VertexFormatRgb32Sint
	VertexFormatRgb32Float
	VertexFormatRgba32Uint
	VertexFormatRgba32Sint
	VertexFormatRgba32Float
)

// ByteSize returns the on-disk width of one vertex in this format,
// grounded on EVertexDataFormat::byte_size.
func (f VertexDataFormat) ByteSize() uint32 {
	switch f {
	case VertexFormatUnknown:
		return 0
	case VertexFormatR8Unorm, VertexFormatR8Uint, VertexFormatR8Snorm, VertexFormatR8Sint:
		return 1
	case VertexFormatR16Unorm, VertexFormatR16Uint, VertexFormatR16Snorm, VertexFormatR16Sint,
		VertexFormatR16Float, VertexFormatRg8Unorm, VertexFormatRg8Uint, VertexFormatRg8Snorm,
		VertexFormatRg8Sint:
		return 2
	case VertexFormatR32Uint, VertexFormatR32Sint, VertexFormatR32Float,
		VertexFormatRg16Unorm, VertexFormatRg16Uint, VertexFormatRg16Snorm, VertexFormatRg16Sint,
		VertexFormatRg16Float, VertexFormatRgba8Unorm, VertexFormatRgba8Uint,
		VertexFormatRgba8Snorm, VertexFormatRgba8Sint, VertexFormatRgb10a2Unorm,
		VertexFormatRgb10a2Uint:
		return 4
	case VertexFormatRg32Uint, VertexFormatRg32Sint, VertexFormatRg32Float,
		VertexFormatRgba16Unorm, VertexFormatRgba16Uint, VertexFormatRgba16Snorm,
		VertexFormatRgba16Sint, VertexFormatRgba16Float:
		return 8
	case VertexFormatRgb32Uint, VertexFormatRgb32Sint, VertexFormatRgb32Float:
		return 12
	case VertexFormatRgba32Uint, VertexFormatRgba32Sint, VertexFormatRgba32Float:
		return 16
	default:
		return 0
	}
}

// Normalized reports whether integer components of this format should be
// interpreted as normalized floats ([0,1] or [-1,1]) rather than raw
// integers, grounded on EVertexDataFormat::normalized.
func (f VertexDataFormat) Normalized() bool {
	switch f {
	case VertexFormatR8Unorm, VertexFormatR8Snorm, VertexFormatR16Unorm, VertexFormatR16Snorm,
		VertexFormatRg8Unorm, VertexFormatRg8Snorm, VertexFormatRg16Unorm, VertexFormatRg16Snorm,
		VertexFormatRgba8Unorm, VertexFormatRgba8Snorm, VertexFormatRgb10a2Unorm,
		VertexFormatRgba16Unorm, VertexFormatRgba16Snorm:
		return true
	default:
		return false
	}
}

// VertexComponent is the semantic meaning of one vertex buffer component
// (EVertexComponent).
type VertexComponent uint32

const (
	VertexComponentPosition VertexComponent = iota
	VertexComponentNormal
	VertexComponentTangent0
	VertexComponentTangent1
	VertexComponentTangent2
	VertexComponentTexCoord0
	VertexComponentTexCoord1
	VertexComponentTexCoord2
	VertexComponentTexCoord3
	VertexComponentColor
	VertexComponentBoneIndices
	VertexComponentBoneWeights
	VertexComponentBakedLightingCoord
	VertexComponentBakedLightingTangent
	VertexComponentVertInstanceParams
	VertexComponentVertInstanceColor
	VertexComponentVertTransform0
	VertexComponentVertTransform1
	VertexComponentVertTransform2
	VertexComponentCurrentPosition
	VertexComponentVertInstanceOpacityParams
	VertexComponentVertInstanceColorIndexingParams
	VertexComponentVertInstanceOpacityIndexingParams
	VertexComponentVertInstancePaintParams
	VertexComponentBakedLightingLookup
	VertexComponentMaterialChoice0
	VertexComponentMaterialChoice1
	VertexComponentMaterialChoice2
	VertexComponentMaterialChoice3
)

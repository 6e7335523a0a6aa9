// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

// TextureFormat is the closed GPU pixel format taxonomy carried by a
// texture's HEAD chunk, grounded verbatim on original_source's
// ETextureFormat (lib/src/format/txtr.rs).
type TextureFormat uint32

const (
	FormatR8Unorm TextureFormat = iota
	FormatR8Snorm
	FormatR8Uint
	FormatR8Sint
	FormatR16Unorm
	FormatR16Snorm
	FormatR16Uint
	FormatR16Sint
	FormatR16Float
	FormatR32Uint
	FormatR32Sint
	FormatRgb8Unorm
	FormatRgba8Unorm
	FormatRgba8Srgb
	FormatRgba16Float
	FormatRgba32Float
	FormatDepth16Unorm
	FormatDepth16Unorm2
	FormatDepth24S8Unorm
	FormatDepth32Float
	FormatRgbaBc1Unorm
	FormatRgbaBc1Srgb
	FormatRgbaBc2Unorm
	FormatRgbaBc2Srgb
	FormatRgbaBc3Unorm
	FormatRgbaBc3Srgb
	FormatRgbaBc4Unorm
	FormatRgbaBc4Snorm
	FormatRgbaBc5Unorm
	FormatRgbaBc5Snorm
	FormatRg11B10Float
	FormatR32Float
	FormatRg8Unorm
	FormatRg8Snorm
	FormatRg8Uint
	FormatRg8Sint
	FormatRg16Float
	FormatRg16Unorm
	FormatRg16Snorm
	FormatRg16Uint
	FormatRg16Sint
	FormatRgb10A2Unorm
	FormatRgb10A2Uint
	FormatRg32Uint
	FormatRg32Sint
	FormatRg32Float
	FormatRgba16Unorm
	FormatRgba16Snorm
	FormatRgba16Uint
	FormatRgba16Sint
	FormatRgba32Uint
	FormatRgba32Sint
	FormatNone
	FormatRgbaAstc4x4
	FormatRgbaAstc5x4
	FormatRgbaAstc5x5
	FormatRgbaAstc6x5
	FormatRgbaAstc6x6
	FormatRgbaAstc8x5
	FormatRgbaAstc8x6
	FormatRgbaAstc8x8
	FormatRgbaAstc10x5
	FormatRgbaAstc10x6
	FormatRgbaAstc10x8
	FormatRgbaAstc10x10
	FormatRgbaAstc12x10
	FormatRgbaAstc12x12
	FormatRgbaAstc4x4Srgb
	FormatRgbaAstc5x4Srgb
	FormatRgbaAstc5x5Srgb
	FormatRgbaAstc6x5Srgb
	FormatRgbaAstc6x6Srgb
	FormatRgbaAstc8x5Srgb
	FormatRgbaAstc8x6Srgb
	FormatRgbaAstc8x8Srgb
	FormatRgbaAstc10x5Srgb
	FormatRgbaAstc10x6Srgb
	FormatRgbaAstc10x8Srgb
	FormatRgbaAstc10x10Srgb
	FormatRgbaAstc12x10Srgb
	FormatRgbaAstc12x12Srgb
	FormatBptcUfloat
	FormatBptcSfloat
	FormatBptcUnorm
	FormatBptcUnormSrgb
)

var astcBlockDims = map[TextureFormat][2]uint8{
	FormatRgbaAstc4x4: {4, 4}, FormatRgbaAstc4x4Srgb: {4, 4},
	FormatRgbaAstc5x4: {5, 4}, FormatRgbaAstc5x4Srgb: {5, 4},
	FormatRgbaAstc5x5: {5, 5}, FormatRgbaAstc5x5Srgb: {5, 5},
	FormatRgbaAstc6x5: {6, 5}, FormatRgbaAstc6x5Srgb: {6, 5},
	FormatRgbaAstc6x6: {6, 6}, FormatRgbaAstc6x6Srgb: {6, 6},
	FormatRgbaAstc8x5: {8, 5}, FormatRgbaAstc8x5Srgb: {8, 5},
	FormatRgbaAstc8x6: {8, 6}, FormatRgbaAstc8x6Srgb: {8, 6},
	FormatRgbaAstc8x8: {8, 8}, FormatRgbaAstc8x8Srgb: {8, 8},
	FormatRgbaAstc10x5: {10, 5}, FormatRgbaAstc10x5Srgb: {10, 5},
	FormatRgbaAstc10x6: {10, 6}, FormatRgbaAstc10x6Srgb: {10, 6},
	FormatRgbaAstc10x8: {10, 8}, FormatRgbaAstc10x8Srgb: {10, 8},
	FormatRgbaAstc10x10: {10, 10}, FormatRgbaAstc10x10Srgb: {10, 10},
	FormatRgbaAstc12x10: {12, 10}, FormatRgbaAstc12x10Srgb: {12, 10},
	FormatRgbaAstc12x12: {12, 12}, FormatRgbaAstc12x12Srgb: {12, 12},
}

var bc4x4Formats = map[TextureFormat]bool{
	FormatRgbaBc1Unorm: true, FormatRgbaBc1Srgb: true,
	FormatRgbaBc2Unorm: true, FormatRgbaBc2Srgb: true,
	FormatRgbaBc3Unorm: true, FormatRgbaBc3Srgb: true,
	FormatRgbaBc4Unorm: true, FormatRgbaBc4Snorm: true,
	FormatRgbaBc5Unorm: true, FormatRgbaBc5Snorm: true,
	FormatBptcUfloat: true, FormatBptcSfloat: true,
	FormatBptcUnorm: true, FormatBptcUnormSrgb: true,
}

// BlockSize returns the (width, height, depth) of one compressed block,
// (1, 1, 1) for uncompressed formats.
func (f TextureFormat) BlockSize() (uint8, uint8, uint8) {
	if bc4x4Formats[f] {
		return 4, 4, 1
	}
	if dim, ok := astcBlockDims[f]; ok {
		return dim[0], dim[1], 1
	}
	return 1, 1, 1
}

// IsASTC reports whether f is one of the ASTC block-compressed formats.
func (f TextureFormat) IsASTC() bool {
	_, ok := astcBlockDims[f]
	return ok
}

// IsSRGB reports whether f stores sRGB-encoded color data.
func (f TextureFormat) IsSRGB() bool {
	switch f {
	case FormatRgba8Srgb, FormatRgbaBc1Srgb, FormatRgbaBc2Srgb, FormatRgbaBc3Srgb,
		FormatRgbaAstc4x4Srgb, FormatRgbaAstc5x4Srgb, FormatRgbaAstc5x5Srgb,
		FormatRgbaAstc6x5Srgb, FormatRgbaAstc6x6Srgb, FormatRgbaAstc8x5Srgb,
		FormatRgbaAstc8x6Srgb, FormatRgbaAstc8x8Srgb, FormatRgbaAstc10x5Srgb,
		FormatRgbaAstc10x6Srgb, FormatRgbaAstc10x8Srgb, FormatRgbaAstc10x10Srgb,
		FormatRgbaAstc12x10Srgb, FormatRgbaAstc12x12Srgb, FormatBptcUnormSrgb:
		return true
	default:
		return false
	}
}

// BytesPerPixel returns the storage cost of one pixel (for uncompressed
// formats) or one block (for compressed formats), grounded on
// ETextureFormat::bytes_per_pixel.
func (f TextureFormat) BytesPerPixel() uint32 {
	switch f {
	case FormatR8Unorm, FormatR8Snorm, FormatR8Uint, FormatR8Sint:
		return 1
	case FormatR16Unorm, FormatR16Snorm, FormatR16Uint, FormatR16Sint, FormatR16Float:
		return 2
	case FormatR32Uint, FormatR32Sint:
		return 4
	case FormatRgb8Unorm:
		return 3
	case FormatRgba8Unorm, FormatRgba8Srgb:
		return 4
	case FormatRgba16Float:
		return 8
	case FormatRgba32Float:
		return 16
	case FormatDepth16Unorm, FormatDepth16Unorm2:
		return 2
	case FormatDepth24S8Unorm, FormatDepth32Float:
		return 4
	case FormatRgbaBc1Unorm, FormatRgbaBc1Srgb:
		return 8
	case FormatRgbaBc2Unorm, FormatRgbaBc2Srgb, FormatRgbaBc3Unorm, FormatRgbaBc3Srgb:
		return 16
	case FormatRgbaBc4Unorm, FormatRgbaBc4Snorm:
		return 8
	case FormatRgbaBc5Unorm, FormatRgbaBc5Snorm:
		return 16
	case FormatRg11B10Float, FormatR32Float:
		return 4
	case FormatRg8Unorm, FormatRg8Snorm, FormatRg8Uint, FormatRg8Sint:
		return 2
	case FormatRg16Float, FormatRg16Unorm, FormatRg16Snorm, FormatRg16Uint, FormatRg16Sint:
		return 4
	case FormatRgb10A2Unorm, FormatRgb10A2Uint:
		return 4
	case FormatRg32Uint, FormatRg32Sint, FormatRg32Float:
		return 8
	case FormatRgba16Unorm, FormatRgba16Snorm, FormatRgba16Uint, FormatRgba16Sint:
		return 8
	case FormatRgba32Uint, FormatRgba32Sint:
		return 16
	case FormatNone:
		return 0
	case FormatBptcUfloat, FormatBptcSfloat, FormatBptcUnorm, FormatBptcUnormSrgb:
		return 16
	default:
		if f.IsASTC() {
			return 16
		}
		return 0
	}
}

// TextureType is the dimensionality/array-ness of a texture (ETextureType).
type TextureType uint32

const (
	Texture1D TextureType = iota
	Texture2D
	Texture3D
	TextureCube
	Texture1DArray
	Texture2DArray
	Texture2DMultisample
	Texture2DMultisampleArray
	TextureCubeArray
)

// TextureWrap is a sampler wrap mode (ETextureWrap).
type TextureWrap uint8

const (
	WrapClampToEdge TextureWrap = iota
	WrapRepeat
	WrapMirroredRepeat
	WrapMirrorClamp
	WrapClampToBorder
	WrapClamp
)

// TextureFilter is a sampler min/mag filter (ETextureFilter).
type TextureFilter uint8

const (
	FilterNearest TextureFilter = iota
	FilterLinear
)

// MipFilter is a sampler mip filter (ETextureMipFilter).
type MipFilter uint8

const (
	MipFilterNearest MipFilter = iota
	MipFilterLinear
)

// AnisotropicRatio is a sampler anisotropic filtering ratio
// (ETextureAnisotropicRatio). None is encoded as 0xFF on disk.
type AnisotropicRatio uint8

const (
	AnisoNone AnisotropicRatio = 0xFF
	Aniso1    AnisotropicRatio = 0
	Aniso2    AnisotropicRatio = 1
	Aniso4    AnisotropicRatio = 2
	Aniso8    AnisotropicRatio = 3
	Aniso16   AnisotropicRatio = 4
)

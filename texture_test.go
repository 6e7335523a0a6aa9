// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildUncompressedTexture constructs a minimal, single-mip, single-GOB
// TXTR asset (1x1 RGBA8 pixel) whose GPU buffer is stored with compression
// mode 0 (raw passthrough), exercising ReadTexture's full read path:
// HEAD chunk parsing, META-driven buffer reconstruction, and deswizzling.
func buildUncompressedTexture(t *testing.T) (data []byte, meta []byte, pixel []byte) {
	t.Helper()

	pixel = []byte{10, 20, 30, 40}

	// The raw GPU buffer occupies one full GOB (512 bytes) in the GPU
	// chunk's payload, right after its 4-byte compression-mode prefix; only
	// the first bpp bytes are meaningful,
	// mirroring the single-block-at-origin case swizzle_test.go exercises.
	gpuBuf := make([]byte, gobSize)
	copy(gpuBuf, pixel)

	compPrefix := make([]byte, 4) // mode 0 == ModeRaw
	compBuf := append(compPrefix, gpuBuf...)

	w := &seekBuffer{}
	err := WriteForm(w, FormDescriptor{ID: formTXTR, ReaderVersion: 47, WriterVersion: 51}, func(w seekWriter) error {
		headHdr := ChunkDescriptor{ID: chunkHEAD}
		if err := WriteChunk(w, headHdr, func(w seekWriter) error {
			fixed := struct {
				Kind, Format, Width, Height, Layers, TileMode, Swizzle, MipCount uint32
			}{
				Kind: uint32(Texture2D), Format: uint32(FormatRgba8Unorm),
				Width: 1, Height: 1, Layers: 1, TileMode: 0, Swizzle: 0, MipCount: 1,
			}
			if err := binary.Write(w, binary.LittleEndian, fixed); err != nil {
				return err
			}
			if err := binary.Write(w, binary.LittleEndian, uint32(len(pixel))); err != nil { // MipSizes[0]
				return err
			}
			sampler := struct {
				Unk                        uint32
				Filter, MipFilter          uint8
				WrapX, WrapY, WrapZ, Aniso uint8
			}{}
			return binary.Write(w, binary.LittleEndian, sampler)
		}); err != nil {
			return err
		}
		gpuHdr := ChunkDescriptor{ID: chunkGPU}
		return WriteChunk(w, gpuHdr, func(w seekWriter) error {
			_, err := w.Write(compBuf)
			return err
		})
	})
	require.NoError(t, err)
	data = w.buf

	// META chunk payload: one read-info pointing at the GPU chunk's raw
	// bytes within data, one compressed-buffer-info covering the whole
	// decompressed GOB.
	// FormSize(32) + HEAD chunk header(24) + HEAD payload (8 fixed u32 = 32,
	// + 1 mip-size u32 = 4, + 10-byte sampler) + GPU chunk header(24).
	const headPayloadSize = 4*8 + 4 + 10
	readOffset := uint32(FormSize + ChunkSize + headPayloadSize + ChunkSize)
	var metaBuf bytes.Buffer
	fixed := struct {
		Unk1, Unk2, AllocCategory, GPUOffset, Align, DecompressedSize, InfoCount uint32
	}{DecompressedSize: uint32(gobSize), InfoCount: 1}
	require.NoError(t, binary.Write(&metaBuf, binary.LittleEndian, fixed))
	require.NoError(t, binary.Write(&metaBuf, binary.LittleEndian, TextureReadInfo{
		Index: 0, Offset: readOffset, Size: uint32(len(compBuf)),
	}))
	require.NoError(t, binary.Write(&metaBuf, binary.LittleEndian, uint32(1))) // buffer count
	require.NoError(t, binary.Write(&metaBuf, binary.LittleEndian, TextureCompressedBufferInfo{
		Index: 0, Offset: 0, Size: uint32(len(compBuf)), DestOffset: 0, DestSize: uint32(gobSize),
	}))
	meta = metaBuf.Bytes()

	return data, meta, pixel
}

func TestReadTextureDecodesSinglePixel(t *testing.T) {
	data, meta, pixel := buildUncompressedTexture(t)

	tex, err := ReadTexture(data, meta)
	require.NoError(t, err)
	assert.Equal(t, FormatRgba8Unorm, tex.Header.Format)
	assert.Equal(t, uint32(1), tex.Header.Width)
	assert.Equal(t, uint32(1), tex.Header.Height)
	require.GreaterOrEqual(t, len(tex.Data), len(pixel))
	assert.Equal(t, pixel, tex.Data[:len(pixel)])
}

// buildBC1TwoMipTexture constructs a BC1_UNORM 64x64 texture with two mip
// levels (64x64 then 32x32), both GOB-aligned with no row padding, to
// exercise MipLayerSlice across more than one mip.
func buildBC1TwoMipTexture(t *testing.T) (tex *TextureData) {
	t.Helper()

	const mip0Size = 2048 // 16x16 blocks * 8 bytes/block
	const mip1Size = 512  // 8x8 blocks * 8 bytes/block

	mip0 := make([]byte, mip0Size)
	for i := range mip0 {
		mip0[i] = byte(i)
	}
	mip1 := make([]byte, mip1Size)
	for i := range mip1 {
		mip1[i] = byte(0x80 + i)
	}
	gpuBuf := append(append([]byte{}, mip0...), mip1...)

	compPrefix := make([]byte, 4) // mode 0 == ModeRaw
	compBuf := append(compPrefix, gpuBuf...)

	w := &seekBuffer{}
	err := WriteForm(w, FormDescriptor{ID: formTXTR, ReaderVersion: 47, WriterVersion: 51}, func(w seekWriter) error {
		headHdr := ChunkDescriptor{ID: chunkHEAD}
		if err := WriteChunk(w, headHdr, func(w seekWriter) error {
			fixed := struct {
				Kind, Format, Width, Height, Layers, TileMode, Swizzle, MipCount uint32
			}{
				Kind: uint32(Texture2D), Format: uint32(FormatRgbaBc1Unorm),
				Width: 64, Height: 64, Layers: 1, TileMode: 0, Swizzle: 0, MipCount: 2,
			}
			if err := binary.Write(w, binary.LittleEndian, fixed); err != nil {
				return err
			}
			mipSizes := [2]uint32{mip0Size, mip1Size}
			if err := binary.Write(w, binary.LittleEndian, mipSizes); err != nil {
				return err
			}
			sampler := struct {
				Unk                        uint32
				Filter, MipFilter          uint8
				WrapX, WrapY, WrapZ, Aniso uint8
			}{}
			return binary.Write(w, binary.LittleEndian, sampler)
		}); err != nil {
			return err
		}
		gpuHdr := ChunkDescriptor{ID: chunkGPU}
		return WriteChunk(w, gpuHdr, func(w seekWriter) error {
			_, err := w.Write(compBuf)
			return err
		})
	})
	require.NoError(t, err)
	data := w.buf

	const headPayloadSize = 4*8 + 4*2 + 10
	readOffset := uint32(FormSize + ChunkSize + headPayloadSize + ChunkSize)
	var metaBuf bytes.Buffer
	fixed := struct {
		Unk1, Unk2, AllocCategory, GPUOffset, Align, DecompressedSize, InfoCount uint32
	}{DecompressedSize: uint32(len(gpuBuf)), InfoCount: 1}
	require.NoError(t, binary.Write(&metaBuf, binary.LittleEndian, fixed))
	require.NoError(t, binary.Write(&metaBuf, binary.LittleEndian, TextureReadInfo{
		Index: 0, Offset: readOffset, Size: uint32(len(compBuf)),
	}))
	require.NoError(t, binary.Write(&metaBuf, binary.LittleEndian, uint32(1))) // buffer count
	require.NoError(t, binary.Write(&metaBuf, binary.LittleEndian, TextureCompressedBufferInfo{
		Index: 0, Offset: 0, Size: uint32(len(compBuf)), DestOffset: 0, DestSize: uint32(len(gpuBuf)),
	}))
	meta := metaBuf.Bytes()

	tex, err = ReadTexture(data, meta)
	require.NoError(t, err)
	return tex
}

func TestTextureDataMipLayerSliceReturnsPerMipRegions(t *testing.T) {
	tex := buildBC1TwoMipTexture(t)
	require.Len(t, tex.Data, 2048+512)

	mip0, err := tex.MipLayerSlice(0, 0)
	require.NoError(t, err)
	assert.Len(t, mip0, 2048)
	assert.Equal(t, tex.Data[0:2048], mip0)

	mip1, err := tex.MipLayerSlice(1, 0)
	require.NoError(t, err)
	assert.Len(t, mip1, 512)
	assert.Equal(t, tex.Data[2048:2560], mip1)
}

func TestTextureDataMipLayerSliceRejectsOutOfRange(t *testing.T) {
	tex := buildBC1TwoMipTexture(t)

	_, err := tex.MipLayerSlice(2, 0)
	assert.ErrorIs(t, err, ErrInvariantViolation)

	_, err = tex.MipLayerSlice(0, 1)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestReadTextureRejectsBadMagic(t *testing.T) {
	w := &seekBuffer{}
	require.NoError(t, WriteForm(w, FormDescriptor{ID: NewFourCC("XXXX")}, func(w seekWriter) error { return nil }))
	_, err := ReadTexture(w.buf, nil)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestReadTextureRejectsVersionMismatch(t *testing.T) {
	w := &seekBuffer{}
	require.NoError(t, WriteForm(w, FormDescriptor{ID: formTXTR, ReaderVersion: 1, WriterVersion: 1}, func(w seekWriter) error { return nil }))
	_, err := ReadTexture(w.buf, nil)
	require.ErrorIs(t, err, ErrVersionMismatch)
}

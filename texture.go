// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import (
	"bytes"
	"encoding/binary"
)

// TextureHeader is the TXTR::HEAD chunk payload, grounded on
// original_source's STextureHeader (lib/src/format/txtr.rs).
type TextureHeader struct {
	Kind     TextureType
	Format   TextureFormat
	Width    uint32
	Height   uint32
	Layers   uint32
	TileMode uint32
	Swizzle  uint32
	MipSizes []uint32
	Sampler  TextureSamplerData
}

// TextureSamplerData is STextureHeader's trailing sampler_data field.
type TextureSamplerData struct {
	Unk       uint32
	Filter    TextureFilter
	MipFilter MipFilter
	WrapX     TextureWrap
	WrapY     TextureWrap
	WrapZ     TextureWrap
	Aniso     AnisotropicRatio
}

// TextureReadInfo locates one raw GPU-data buffer slice within the
// asset's RFRM payload (STextureReadInfo).
type TextureReadInfo struct {
	Index  uint8
	Offset uint32
	Size   uint32
}

// TextureCompressedBufferInfo locates one compressed range within a raw
// buffer and where its decompressed bytes land in the final GPU buffer
// (STextureCompressedBufferInfo).
type TextureCompressedBufferInfo struct {
	Index      uint32
	Offset     uint32
	Size       uint32
	DestOffset uint32
	DestSize   uint32
}

// TextureMetaData is the META chunk payload that drives GPU buffer
// reconstruction (STextureMetaData).
type TextureMetaData struct {
	Unk1              uint32
	Unk2              uint32
	AllocCategory     uint32
	GPUOffset         uint32
	Align             uint32
	DecompressedSize  uint32
	Info              []TextureReadInfo
	Buffers           []TextureCompressedBufferInfo
}

func readTextureHeader(data []byte) (TextureHeader, error) {
	r := bytes.NewReader(data)
	var h TextureHeader
	var fixed struct {
		Kind, Format, Width, Height, Layers, TileMode, Swizzle, MipCount uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &fixed); err != nil {
		return h, newDecodeError("texture_header", ErrShortBuffer, err.Error())
	}
	h.Kind = TextureType(fixed.Kind)
	h.Format = TextureFormat(fixed.Format)
	h.Width = fixed.Width
	h.Height = fixed.Height
	h.Layers = fixed.Layers
	h.TileMode = fixed.TileMode
	h.Swizzle = fixed.Swizzle
	h.MipSizes = make([]uint32, fixed.MipCount)
	if err := binary.Read(r, binary.LittleEndian, h.MipSizes); err != nil {
		return h, newDecodeError("texture_header", ErrShortBuffer, err.Error())
	}
	var sampler struct {
		Unk                            uint32
		Filter, MipFilter              uint8
		WrapX, WrapY, WrapZ, Aniso     uint8
	}
	if err := binary.Read(r, binary.LittleEndian, &sampler); err != nil {
		return h, newDecodeError("texture_header", ErrShortBuffer, err.Error())
	}
	h.Sampler = TextureSamplerData{
		Unk:       sampler.Unk,
		Filter:    TextureFilter(sampler.Filter),
		MipFilter: MipFilter(sampler.MipFilter),
		WrapX:     TextureWrap(sampler.WrapX),
		WrapY:     TextureWrap(sampler.WrapY),
		WrapZ:     TextureWrap(sampler.WrapZ),
		Aniso:     AnisotropicRatio(sampler.Aniso),
	}
	return h, nil
}

func readTextureMetaData(data []byte) (TextureMetaData, error) {
	r := bytes.NewReader(data)
	var m TextureMetaData
	var fixed struct {
		Unk1, Unk2, AllocCategory, GPUOffset, Align, DecompressedSize, InfoCount uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &fixed); err != nil {
		return m, newDecodeError("texture_meta", ErrShortBuffer, err.Error())
	}
	m.Unk1, m.Unk2 = fixed.Unk1, fixed.Unk2
	m.AllocCategory, m.GPUOffset, m.Align = fixed.AllocCategory, fixed.GPUOffset, fixed.Align
	m.DecompressedSize = fixed.DecompressedSize
	m.Info = make([]TextureReadInfo, fixed.InfoCount)
	if err := binary.Read(r, binary.LittleEndian, m.Info); err != nil {
		return m, newDecodeError("texture_meta", ErrShortBuffer, err.Error())
	}
	var bufferCount uint32
	if err := binary.Read(r, binary.LittleEndian, &bufferCount); err != nil {
		return m, newDecodeError("texture_meta", ErrShortBuffer, err.Error())
	}
	m.Buffers = make([]TextureCompressedBufferInfo, bufferCount)
	if err := binary.Read(r, binary.LittleEndian, m.Buffers); err != nil {
		return m, newDecodeError("texture_meta", ErrShortBuffer, err.Error())
	}
	return m, nil
}

// TextureData is a fully decoded, deswizzled texture: its header plus a
// flat row-major byte buffer covering every mip level.
type TextureData struct {
	Header TextureHeader
	Data   []byte
}

// ReadTexture decodes a TXTR form, grounded on original_source's
// TextureData::slice (lib/src/format/txtr.rs): it locates the HEAD
// chunk, decompresses every buffer listed in meta against the asset's
// raw GPU-data chunks, then deswizzles the reassembled buffer.
func ReadTexture(data []byte, meta []byte) (*TextureData, error) {
	txtrHdr, txtrPayload, _, err := SliceForm(data)
	if err != nil {
		return nil, err
	}
	if txtrHdr.ID != formTXTR {
		return nil, newDecodeError("read_texture", ErrBadMagic, txtrHdr.ID.String())
	}
	if txtrHdr.ReaderVersion != 47 || txtrHdr.WriterVersion != 51 {
		return nil, newDecodeError("read_texture", ErrVersionMismatch, "TXTR")
	}

	headDesc, headData, _, err := SliceChunk(txtrPayload)
	if err != nil {
		return nil, err
	}
	if headDesc.ID != chunkHEAD {
		return nil, newDecodeError("read_texture", ErrMissingRequiredChunk, "HEAD")
	}
	head, err := readTextureHeader(headData)
	if err != nil {
		return nil, err
	}

	metaData, err := readTextureMetaData(meta)
	if err != nil {
		return nil, err
	}

	buffer := make([]byte, metaData.DecompressedSize)
	for _, info := range metaData.Buffers {
		var read *TextureReadInfo
		for i := range metaData.Info {
			if uint32(metaData.Info[i].Index) == info.Index {
				read = &metaData.Info[i]
				break
			}
		}
		if read == nil {
			return nil, newDecodeError("read_texture", ErrInvariantViolation, "missing read info for buffer")
		}
		if uint64(read.Offset)+uint64(read.Size) > uint64(len(data)) {
			return nil, newDecodeError("read_texture", ErrShortBuffer, "read buffer out of range")
		}
		readBuf := data[read.Offset : read.Offset+read.Size]
		if uint64(info.Offset)+uint64(info.Size) > uint64(len(readBuf)) {
			return nil, newDecodeError("read_texture", ErrShortBuffer, "compressed buffer out of range")
		}
		compBuf := readBuf[info.Offset : info.Offset+info.Size]
		if uint64(info.DestOffset)+uint64(info.DestSize) > uint64(len(buffer)) {
			return nil, newDecodeError("read_texture", ErrShortBuffer, "dest buffer out of range")
		}
		dest := buffer[info.DestOffset : info.DestOffset+info.DestSize]
		if err := Decompress(mustCompressionMode(compBuf), stripModePrefix(compBuf), dest); err != nil {
			return nil, err
		}
	}

	bw, bh, _ := head.Format.BlockSize()
	bpp := int(head.Format.BytesPerPixel())
	mipSizes := make([]int, len(head.MipSizes))
	for i, s := range head.MipSizes {
		mipSizes[i] = int(s)
	}
	expected := surfaceSizeBlockLinear(int(head.Width), int(head.Height), int(bw), int(bh), bpp, len(mipSizes))
	if len(buffer) != expected {
		return nil, newDecodeError("deswizzle", ErrSwizzleSizeMismatch, "")
	}
	deswizzled, err := deswizzleSurface(int(head.Width), int(head.Height), int(bw), int(bh), bpp, mipSizes, buffer)
	if err != nil {
		return nil, err
	}

	return &TextureData{Header: head, Data: deswizzled}, nil
}

// MipLayerSlice returns the byte range of a single (mip, layer) surface
// within t.Data: mip 0 comes first (descending mip level), layers
// interleaved per mip. For mip m with rounded block extent (w_m, h_m),
// the per-layer stride s_m = blocks(w_m) * blocks(h_m) * bytes-per-block,
// and the slice for (mip, layer) lies at base_m + layer*s_m, s_m bytes
// long, where base_m sums every prior mip's full layer set. Shares
// swizzle.go's single-layer assumption: correct for Layers == 1, the
// only case deswizzleSurface currently reassembles.
func (t *TextureData) MipLayerSlice(mip, layer int) ([]byte, error) {
	if mip < 0 || mip >= len(t.Header.MipSizes) {
		return nil, newDecodeError("texture_mip_layer_slice", ErrInvariantViolation, "mip out of range")
	}
	if layer < 0 || uint32(layer) >= t.Header.Layers {
		return nil, newDecodeError("texture_mip_layer_slice", ErrInvariantViolation, "layer out of range")
	}

	blockW, blockH, _ := t.Header.Format.BlockSize()
	bpp := int(t.Header.Format.BytesPerPixel())
	w, h := int(t.Header.Width), int(t.Header.Height)

	base := 0
	stride := 0
	for m := 0; m <= mip; m++ {
		widthBlocks := ceilDiv(w, int(blockW))
		heightBlocks := ceilDiv(h, int(blockH))
		stride = widthBlocks * heightBlocks * bpp
		if m < mip {
			base += int(t.Header.Layers) * stride
		}
		w = maxInt(1, w/2)
		h = maxInt(1, h/2)
	}

	off := base + layer*stride
	if off+stride > len(t.Data) {
		return nil, newDecodeError("texture_mip_layer_slice", ErrShortBuffer, "slice out of range")
	}
	return t.Data[off : off+stride], nil
}

func mustCompressionMode(buf []byte) uint32 {
	mode, _ := readU32(buf, 0)
	return mode
}

func stripModePrefix(buf []byte) []byte {
	if len(buf) < 4 {
		return buf
	}
	return buf[4:]
}

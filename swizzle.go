// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

// Tegra X1 block-linear (de)swizzling. original_source's deswizzle()
// (lib/src/format/txtr.rs) delegates the actual memory reordering to the
// Rust tegra_swizzle crate, which has no Go equivalent in the retrieved
// corpus; this file is our own port of the GOB-based block-linear layout
// Nvidia's Tegra X1 texture units use (the same addressing scheme
// tegra_swizzle, yuzu, and Ryujinx all implement). Treat the exact mip/
// layer offset bookkeeping here as a documented Open Question rather than
// an attested algorithm: only the base GOB address function is
// well-established public knowledge.

const (
	gobWidthBytes = 64
	gobHeight     = 8
	gobSize       = gobWidthBytes * gobHeight
)

// blockHeightLog2 picks the block height (in GOBs, log2) block-linear
// surfaces use for a given mip0 height: the smallest power of two whose
// GOB count covers the surface height, capped at 16 GOBs.
func blockHeightLog2(heightGOBs int) uint {
	log2 := uint(0)
	for (1 << log2) < heightGOBs && log2 < 4 {
		log2++
	}
	return log2
}

// gobAddress returns the byte offset of byte column x, row y within a
// single GOB using the standard Tegra X1 swizzle pattern: bit-interleaved
// low address bits, linear above that.
func gobAddress(x, y int) int {
	addr := 0
	addr |= (x & 0x3f) >> 5 << 8
	addr |= (y & 0x07) >> 1 << 6
	addr |= (x & 0x1f) >> 4 << 5
	addr |= (y & 0x01) << 4
	addr |= x & 0x0f
	return addr
}

// surfaceSizeBlockLinear returns the number of bytes a single array layer
// of a block-linear surface with the given mip chain occupies, mirroring
// tegra_swizzle::surface::swizzled_surface_size for the depth=1, no
// mip-tail case this format uses.
func surfaceSizeBlockLinear(width, height int, blockW, blockH, bpp, mipCount int) int {
	total := 0
	w, h := width, height
	for mip := 0; mip < mipCount; mip++ {
		widthBlocks := ceilDiv(w, blockW)
		heightBlocks := ceilDiv(h, blockH)
		total += mipLevelSizeBlockLinear(widthBlocks, heightBlocks, bpp)
		w = maxInt(1, w/2)
		h = maxInt(1, h/2)
	}
	return total
}

func mipLevelSizeBlockLinear(widthBlocks, heightBlocks, bpp int) int {
	rowBytes := widthBlocks * bpp
	gobsWide := ceilDiv(rowBytes, gobWidthBytes)
	bhLog2 := blockHeightLog2(ceilDiv(heightBlocks, gobHeight))
	blockHeightGOBs := 1 << bhLog2
	gobsTall := ceilDiv(ceilDiv(heightBlocks, gobHeight), blockHeightGOBs)
	return gobsWide * gobsTall * blockHeightGOBs * gobSize
}

// deswizzleLevel converts one block-linear mip level (widthBlocks x
// heightBlocks blocks of bpp bytes each) into row-major order.
func deswizzleLevel(src []byte, widthBlocks, heightBlocks, bpp int) []byte {
	rowBytes := widthBlocks * bpp
	bhLog2 := blockHeightLog2(ceilDiv(heightBlocks, gobHeight))
	blockHeightGOBs := 1 << bhLog2
	gobsWide := ceilDiv(rowBytes, gobWidthBytes)

	out := make([]byte, heightBlocks*rowBytes)
	for by := 0; by < heightBlocks; by++ {
		gobRow := by / gobHeight
		rowInGob := by % gobHeight
		blockRow := gobRow / blockHeightGOBs
		gobInBlockRow := gobRow % blockHeightGOBs
		for bx := 0; bx < widthBlocks; bx++ {
			xBytes := bx * bpp
			gobCol := xBytes / gobWidthBytes
			xInGob := xBytes % gobWidthBytes

			blockIndex := blockRow*gobsWide + gobCol
			gobIndex := blockIndex*blockHeightGOBs + gobInBlockRow
			gobOffset := gobIndex * gobSize
			srcOff := gobOffset + gobAddress(xInGob, rowInGob)
			dstOff := by*rowBytes + bx*bpp

			if srcOff+bpp > len(src) || dstOff+bpp > len(out) {
				continue
			}
			copy(out[dstOff:dstOff+bpp], src[srcOff:srcOff+bpp])
		}
	}
	return out
}

// deswizzleSurface unpacks every mip level of a single-layer block-linear
// surface into a flat row-major buffer, mirroring tegra_swizzle::surface
// ::deswizzle_surface for the depth=1, no explicit mip-tail case.
func deswizzleSurface(width, height int, blockW, blockH, bpp int, mipSizes []int, data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	w, h := width, height
	srcOff := 0
	for _, mipSize := range mipSizes {
		widthBlocks := ceilDiv(w, blockW)
		heightBlocks := ceilDiv(h, blockH)
		levelSize := mipLevelSizeBlockLinear(widthBlocks, heightBlocks, bpp)
		if srcOff+levelSize > len(data) {
			return nil, newDecodeError("deswizzle", ErrSwizzleSizeMismatch, "")
		}
		level := deswizzleLevel(data[srcOff:srcOff+levelSize], widthBlocks, heightBlocks, bpp)
		if mipSize > 0 && mipSize < len(level) {
			level = level[:mipSize]
		}
		out = append(out, level...)
		srcOff += levelSize
		w = maxInt(1, w/2)
		h = maxInt(1, h/2)
	}
	return out, nil
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

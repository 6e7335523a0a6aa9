// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

// decompressLZSS implements the group-width LZSS variant used by
// compression modes 1, 2, and 3, grounded on original_source's
// decompress<const M: u8> (src/util/lzss.rs). groupWidth is 2^(m-1): mode 1
// copies single bytes, mode 2 copies in pairs, mode 3 copies in groups of
// four. out must already be sized to the expected decompressed length;
// decompressLZSS reports false if the input was exhausted without filling
// it exactly.
//
// See https://wiki.axiodl.com/w/LZSS_Compression for the bit layout this
// mirrors.
func decompressLZSS(m uint, input []byte, out []byte) bool {
	groupLen := 1 << (m - 1)
	outCur := 0

	var headerByte byte
	var group uint
	for len(input) > 0 {
		if group == 0 {
			headerByte = input[0]
			input = input[1:]
			group = 8
		}

		if headerByte&0x80 == 0 {
			if outCur+groupLen > len(out) || groupLen > len(input) {
				return false
			}
			copy(out[outCur:outCur+groupLen], input[:groupLen])
			input = input[groupLen:]
			outCur += groupLen
		} else {
			if len(input) < 2 {
				return false
			}
			count := int(input[0]>>4) + (4 - int(m))
			length := ((int(input[0]&0xF) << 8) | int(input[1])) << (m - 1)
			input = input[2:]

			if length > outCur {
				return false
			}
			seek := outCur - length
			n := count * groupLen
			if outCur+n > len(out) {
				return false
			}
			for i := 0; i < n; i++ {
				out[outCur+i] = out[seek+i]
			}
			outCur += n
		}

		headerByte <<= 1
		group--
	}

	return outCur == len(out)
}

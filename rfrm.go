// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import (
	"io"
)

// FormSize is the on-disk size of a FormDescriptor header.
const FormSize = 32

// ChunkSize is the on-disk size of a ChunkDescriptor header.
const ChunkSize = 24

// FormDescriptor is the header of a recursive "RFRM" container. PayloadSize counts bytes after this 32-byte header.
type FormDescriptor struct {
	Magic         FourCC
	PayloadSize   uint64
	Unk           uint64
	ID            FourCC
	ReaderVersion uint32
	WriterVersion uint32
}

// ChunkDescriptor is the header of a non-recursive leaf chunk inside a
// form. The payload begins Skip bytes after this
// 24-byte header.
type ChunkDescriptor struct {
	ID     FourCC
	Size   uint64
	Unk    uint32
	Skip   uint64
}

// SliceForm decodes a FormDescriptor from the front of buf and returns the
// header, the exact payload slice, and whatever follows it.
func SliceForm(buf []byte) (FormDescriptor, []byte, []byte, error) {
	var hdr FormDescriptor
	if len(buf) < FormSize {
		return hdr, nil, nil, newDecodeError("slice_form", ErrShortBuffer, "buffer smaller than form header")
	}
	if err := structUnpack(buf[:FormSize], &hdr); err != nil {
		return hdr, nil, nil, newDecodeError("slice_form", ErrShortBuffer, err.Error())
	}
	if hdr.Magic != formRFRM {
		return hdr, nil, nil, newDecodeError("slice_form", ErrBadMagic, hdr.Magic.String())
	}
	end := FormSize + int(hdr.PayloadSize)
	if hdr.PayloadSize > uint64(len(buf)-FormSize) || end < FormSize {
		return hdr, nil, nil, newDecodeError("slice_form", ErrShortBuffer, "payload_size overflows buffer")
	}
	return hdr, buf[FormSize:end], buf[end:], nil
}

// SliceChunk decodes a ChunkDescriptor from the front of buf and returns
// the header, the exact payload slice (after honoring Skip), and whatever
// follows it.
func SliceChunk(buf []byte) (ChunkDescriptor, []byte, []byte, error) {
	var hdr ChunkDescriptor
	if len(buf) < ChunkSize {
		return hdr, nil, nil, newDecodeError("slice_chunk", ErrShortBuffer, "buffer smaller than chunk header")
	}
	if err := structUnpack(buf[:ChunkSize], &hdr); err != nil {
		return hdr, nil, nil, newDecodeError("slice_chunk", ErrShortBuffer, err.Error())
	}
	start := ChunkSize + int(hdr.Skip)
	if hdr.Skip > uint64(len(buf)-ChunkSize) || start < ChunkSize {
		return hdr, nil, nil, newDecodeError("slice_chunk", ErrShortBuffer, "skip overflows buffer")
	}
	end := start + int(hdr.Size)
	if hdr.Size > uint64(len(buf)-start) || end < start {
		return hdr, nil, nil, newDecodeError("slice_chunk", ErrShortBuffer, "size overflows buffer")
	}
	return hdr, buf[start:end], buf[end:], nil
}

// seekWriter is the minimal interface a package/form/chunk writer needs:
// sequential writes plus the ability to back-patch a size field.
type seekWriter interface {
	io.Writer
	io.Seeker
}

// WriteForm reserves a 32-byte form header at the current position,
// invokes body to emit the payload, then back-patches PayloadSize with
// the number of bytes body actually wrote. On
// return the writer is positioned just past the payload.
func WriteForm(w seekWriter, hdr FormDescriptor, body func(seekWriter) error) error {
	hdr.Magic = formRFRM
	headerPos, dataPos, err := reserve(w, FormSize)
	if err != nil {
		return err
	}
	if err := body(w); err != nil {
		return err
	}
	endPos, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	hdr.PayloadSize = uint64(endPos - dataPos)
	if _, err := w.Seek(headerPos, io.SeekStart); err != nil {
		return err
	}
	if err := structPack(w, hdr); err != nil {
		return err
	}
	_, err = w.Seek(endPos, io.SeekStart)
	return err
}

// WriteChunk reserves a (24+hdr.Skip)-byte slot at the current position,
// invokes body to emit the payload, then back-patches Size with the
// number of bytes body actually wrote.
func WriteChunk(w seekWriter, hdr ChunkDescriptor, body func(seekWriter) error) error {
	headerPos, dataPos, err := reserve(w, ChunkSize+int(hdr.Skip))
	if err != nil {
		return err
	}
	if err := body(w); err != nil {
		return err
	}
	endPos, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	hdr.Size = uint64(endPos - dataPos)
	if _, err := w.Seek(headerPos, io.SeekStart); err != nil {
		return err
	}
	if err := structPack(w, hdr); err != nil {
		return err
	}
	_, err = w.Seek(endPos, io.SeekStart)
	return err
}

// reserve records the current position, seeks past reservedSize bytes to
// make room for a header that will be back-patched once the payload's true
// size is known, and returns both positions. Mirrors original_source's
// write_form/write_chunk two-pass seek dance (lib/src/format/rfrm.rs,
// chunk.rs).
func reserve(w seekWriter, reservedSize int) (headerPos, dataPos int64, err error) {
	headerPos, err = w.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, err
	}
	dataPos = headerPos + int64(reservedSize)
	if _, err = w.Seek(dataPos, io.SeekStart); err != nil {
		return 0, 0, err
	}
	return headerPos, dataPos, nil
}

// OnChunk and OnForm are the callbacks WalkRecursive invokes for each leaf
// chunk or nested form it encounters.
type OnChunk func(ChunkDescriptor, []byte) error
type OnForm func(FormDescriptor, []byte) error

// WalkRecursive iterates the records inside a form's payload in on-disk
// order: whenever the next four bytes spell "RFRM" it recurses as a
// nested form, otherwise it treats the record as a chunk. It stops once buf is exhausted and propagates any
// callback error immediately.
func WalkRecursive(buf []byte, onChunk OnChunk, onForm OnForm) error {
	for len(buf) > 0 {
		tag, ok := peekFourCC(buf)
		if ok && tag == formRFRM {
			hdr, payload, remain, err := SliceForm(buf)
			if err != nil {
				return err
			}
			if onForm != nil {
				if err := onForm(hdr, payload); err != nil {
					return err
				}
			}
			buf = remain
			continue
		}
		hdr, payload, remain, err := SliceChunk(buf)
		if err != nil {
			return err
		}
		if onChunk != nil {
			if err := onChunk(hdr, payload); err != nil {
				return err
			}
		}
		buf = remain
	}
	return nil
}

// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// seekBuffer adapts a bytes.Buffer into a seekWriter for tests that need
// to exercise WriteForm/WriteChunk's back-patching behavior.
type seekBuffer struct {
	buf []byte
	pos int64
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	copy(s.buf[s.pos:end], p)
	s.pos = end
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		s.pos = offset
	case 1:
		s.pos += offset
	case 2:
		s.pos = int64(len(s.buf)) + offset
	}
	return s.pos, nil
}

func TestWriteFormThenSliceFormRoundTrips(t *testing.T) {
	w := &seekBuffer{}
	hdr := FormDescriptor{ID: NewFourCC("TOCC"), ReaderVersion: 3, WriterVersion: 3}
	payload := []byte("hello world")
	err := WriteForm(w, hdr, func(w seekWriter) error {
		_, err := w.Write(payload)
		return err
	})
	require.NoError(t, err)

	got, body, remain, err := SliceForm(w.buf)
	require.NoError(t, err)
	require.Equal(t, NewFourCC("TOCC"), got.ID)
	require.Equal(t, uint64(len(payload)), got.PayloadSize)
	require.Equal(t, payload, body)
	require.Empty(t, remain)
}

func TestWriteChunkThenSliceChunkRoundTrips(t *testing.T) {
	w := &seekBuffer{}
	hdr := ChunkDescriptor{ID: NewFourCC("VERT")}
	payload := []byte{1, 2, 3, 4, 5}
	err := WriteChunk(w, hdr, func(w seekWriter) error {
		_, err := w.Write(payload)
		return err
	})
	require.NoError(t, err)

	got, body, remain, err := SliceChunk(w.buf)
	require.NoError(t, err)
	require.Equal(t, NewFourCC("VERT"), got.ID)
	require.Equal(t, uint64(len(payload)), got.Size)
	require.Equal(t, payload, body)
	require.Empty(t, remain)
}

func TestSliceFormRejectsBadMagic(t *testing.T) {
	buf := make([]byte, FormSize)
	copy(buf, "XXXX")
	_, _, _, err := SliceForm(buf)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestSliceFormRejectsShortBuffer(t *testing.T) {
	_, _, _, err := SliceForm([]byte("RFRM"))
	require.ErrorIs(t, err, ErrShortBuffer)
}

func TestSliceChunkHonorsSkip(t *testing.T) {
	w := &seekBuffer{}
	hdr := ChunkDescriptor{ID: NewFourCC("MTRL"), Skip: 8}
	payload := []byte{9, 9, 9}
	err := WriteChunk(w, hdr, func(w seekWriter) error {
		_, err := w.Write(payload)
		return err
	})
	require.NoError(t, err)

	got, body, _, err := SliceChunk(w.buf)
	require.NoError(t, err)
	require.Equal(t, uint64(8), got.Skip)
	require.Equal(t, payload, body)
}

func TestWalkRecursiveVisitsNestedFormsAndChunks(t *testing.T) {
	inner := &seekBuffer{}
	err := WriteChunk(inner, ChunkDescriptor{ID: NewFourCC("ADIR")}, func(w seekWriter) error {
		_, err := w.Write([]byte{1, 2, 3, 4})
		return err
	})
	require.NoError(t, err)

	outer := &seekBuffer{}
	err = WriteForm(outer, FormDescriptor{ID: NewFourCC("TOCC")}, func(w seekWriter) error {
		return WriteForm(w, FormDescriptor{ID: NewFourCC("NEST")}, func(w seekWriter) error {
			_, err := w.Write(inner.buf)
			return err
		})
	})
	require.NoError(t, err)

	_, payload, _, err := SliceForm(outer.buf)
	require.NoError(t, err)

	var sawForm, sawChunk bool
	err = WalkRecursive(payload,
		func(desc ChunkDescriptor, _ []byte) error {
			sawChunk = desc.ID == NewFourCC("ADIR")
			return nil
		},
		func(desc FormDescriptor, p []byte) error {
			sawForm = desc.ID == NewFourCC("NEST")
			return WalkRecursive(p, func(desc ChunkDescriptor, _ []byte) error {
				sawChunk = desc.ID == NewFourCC("ADIR")
				return nil
			}, nil)
		},
	)
	require.NoError(t, err)
	require.True(t, sawForm)
	require.True(t, sawChunk)
}

func TestReserveAdvancesSeekPositions(t *testing.T) {
	w := &seekBuffer{}
	headerPos, dataPos, err := reserve(w, FormSize)
	require.NoError(t, err)
	require.Equal(t, int64(0), headerPos)
	require.Equal(t, int64(FormSize), dataPos)
	require.Equal(t, int64(FormSize), w.pos)
}

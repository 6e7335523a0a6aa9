// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUUIDLE(buf *bytes.Buffer, id uuid.UUID) {
	b := uuidToBytesLE(id)
	buf.Write(b[:])
}

func buildMCVDPayload(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer

	id1 := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(1))) // Models count
	writeUUIDLE(&buf, id1)

	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(0))) // IDs2 count

	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(1))) // Colors count
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, Color4{R: 1, G: 2, B: 3, A: 4}))

	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(0))) // Transforms count

	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(1))) // ObjectTransforms count
	writeUUIDLE(&buf, id1)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, Transform4{}))

	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(1))) // Unknowns count
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, float32(1.5)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, float32(2.5)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(2))) // Ints count
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(7)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(8)))

	for i := 0; i < 5; i++ { // Bytes2..Bytes6
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(0)))
	}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(0))) // Shorts1
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(0))) // Shorts2
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(0))) // Bytes7
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(0))) // Bytes8

	return buf.Bytes()
}

func TestReadModConVisualDataDecodesAllFields(t *testing.T) {
	v, err := readModConVisualData(buildMCVDPayload(t))
	require.NoError(t, err)

	require.Len(t, v.Models, 1)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", v.Models[0].String())
	assert.Empty(t, v.IDs2)
	require.Len(t, v.Colors, 1)
	assert.Equal(t, float32(3), v.Colors[0].B)
	assert.Empty(t, v.Transforms)
	require.Len(t, v.ObjectTransforms, 1)
	assert.Equal(t, v.Models[0], v.ObjectTransforms[0].ID)
	require.Len(t, v.Unknowns, 1)
	assert.Equal(t, float32(1.5), v.Unknowns[0].F0)
	assert.Equal(t, []uint32{7, 8}, v.Unknowns[0].Ints)
	assert.Empty(t, v.Bytes2)
	assert.Empty(t, v.Bytes8)
}

func TestReadModConDecodesMCVDAndSkipsMCHDMCCD(t *testing.T) {
	mcvdPayload := buildMCVDPayload(t)

	w := &seekBuffer{}
	err := WriteForm(w, FormDescriptor{ID: formMCON, ReaderVersion: 72, WriterVersion: 72}, func(w seekWriter) error {
		if err := WriteChunk(w, ChunkDescriptor{ID: chunkMCHD}, func(w seekWriter) error { return nil }); err != nil {
			return err
		}
		if err := WriteChunk(w, ChunkDescriptor{ID: chunkMCVD}, func(w seekWriter) error {
			_, err := w.Write(mcvdPayload)
			return err
		}); err != nil {
			return err
		}
		return WriteChunk(w, ChunkDescriptor{ID: chunkMCCD}, func(w seekWriter) error { return nil })
	})
	require.NoError(t, err)

	got, err := ReadModCon(w.buf)
	require.NoError(t, err)
	require.NotNil(t, got.VisualData)
	assert.Len(t, got.VisualData.Models, 1)
}

func TestReadModConStopsAtPeekSentinel(t *testing.T) {
	w := &seekBuffer{}
	err := WriteForm(w, FormDescriptor{ID: formMCON, ReaderVersion: 72, WriterVersion: 72}, func(w seekWriter) error {
		if err := WriteChunk(w, ChunkDescriptor{ID: chunkMCHD}, func(w seekWriter) error { return nil }); err != nil {
			return err
		}
		_, err := w.Write([]byte("PEEKjunkdatathatwouldotherwisefailtoparse"))
		return err
	})
	require.NoError(t, err)

	got, err := ReadModCon(w.buf)
	require.NoError(t, err)
	assert.Nil(t, got.VisualData)
}

func TestReadModConRejectsUnknownChunk(t *testing.T) {
	w := &seekBuffer{}
	err := WriteForm(w, FormDescriptor{ID: formMCON, ReaderVersion: 72, WriterVersion: 72}, func(w seekWriter) error {
		return WriteChunk(w, ChunkDescriptor{ID: NewFourCC("ZZZZ")}, func(w seekWriter) error { return nil })
	})
	require.NoError(t, err)

	_, err = ReadModCon(w.buf)
	require.ErrorIs(t, err, ErrUnknownChunk)
}

func TestReadModConRejectsBadMagic(t *testing.T) {
	w := &seekBuffer{}
	require.NoError(t, WriteForm(w, FormDescriptor{ID: NewFourCC("XXXX")}, func(w seekWriter) error { return nil }))
	_, err := ReadModCon(w.buf)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestReadModConRejectsVersionMismatch(t *testing.T) {
	w := &seekBuffer{}
	require.NoError(t, WriteForm(w, FormDescriptor{ID: formMCON, ReaderVersion: 1, WriterVersion: 1}, func(w seekWriter) error { return nil }))
	_, err := ReadModCon(w.buf)
	require.ErrorIs(t, err, ErrVersionMismatch)
}

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

func TestIsTextureLayered(t *testing.T) {
	assert.True(t, MatBCRL.IsTextureLayered())
	assert.True(t, MatMTLL.IsTextureLayered())
	assert.True(t, MatNRML.IsTextureLayered())
	assert.False(t, MatOPCT.IsTextureLayered())
}

func TestInvertTagMapIsBijective(t *testing.T) {
	for id, tag := range materialDataIDTags {
		assert.Equal(t, id, materialDataIDByTag[tag])
	}
}

func TestReadMaterialCacheScalarAndNilTexture(t *testing.T) {
	var buf bytes.Buffer

	name := []byte("mat_test")
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(len(name))))
	buf.Write(name)

	shaderID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	unkGUID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	shaderBytes := uuidToBytesLE(shaderID)
	unkBytes := uuidToBytesLE(unkGUID)
	buf.Write(shaderBytes[:])
	buf.Write(unkBytes[:])

	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(1))) // unk1
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(2))) // unk2

	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(0))) // typeCount
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(0))) // renderTypeCount

	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(2))) // dataCount

	// data_types array: (id, type) tag pairs.
	buf.WriteString("OPCT")
	buf.WriteString("SCLR")
	buf.WriteString("DIFT")
	buf.WriteString("TXTR")

	// data array: the on-disk duplication re-reads each (id, type) pair
	// before the value.
	buf.WriteString("OPCT")
	buf.WriteString("SCLR")
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, float32(0.75)))

	buf.WriteString("DIFT")
	buf.WriteString("TXTR")
	nilID := uuidToBytesLE(uuid.Nil)
	buf.Write(nilID[:])

	m, err := readMaterialCache(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, "mat_test", m.Name)
	assert.Equal(t, shaderID, m.ShaderID)
	assert.Equal(t, unkGUID, m.UnkGUID)
	require.Len(t, m.Data, 2)

	assert.Equal(t, MatOPCT, m.Data[0].DataID)
	assert.Equal(t, MaterialDataScalar, m.Data[0].DataType)
	require.NotNil(t, m.Data[0].Value.Scalar)
	assert.InDelta(t, 0.75, *m.Data[0].Value.Scalar, 1e-6)

	assert.Equal(t, MatDIFT, m.Data[1].DataID)
	require.NotNil(t, m.Data[1].Value.Texture)
	assert.Equal(t, uuid.Nil, m.Data[1].Value.Texture.ID)
	assert.Nil(t, m.Data[1].Value.Texture.Usage)
}

func TestReadMaterialCacheRejectsUnknownDataID(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(0))) // nameLen
	var idBytes [32]byte
	buf.Write(idBytes[:]) // shaderID + unkGUID
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(0))) // unk1
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(0))) // unk2
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(0))) // typeCount
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(0))) // renderTypeCount
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(1))) // dataCount
	buf.WriteString("ZZZZ")
	buf.WriteString("SCLR")

	_, err := readMaterialCache(bytes.NewReader(buf.Bytes()))
	require.ErrorIs(t, err, ErrUnknownChunk)
}

// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retropak/retropak/log"
)

func buildTestPackageBytes(t *testing.T) []byte {
	t.Helper()
	kind := NewFourCC("TEST")
	assetData := buildTestAssetForm(t, kind, []byte("payload-bytes"))
	pkg := &Package{
		Assets: []Asset{
			{
				ID:           uuid.MustParse("00000000-0000-0000-0000-000000000001"),
				Kind:         kind,
				Name:         "test_asset",
				Data:         assetData,
				Version:      1,
				OtherVersion: 1,
			},
		},
	}
	w := &seekBuffer{}
	require.NoError(t, WritePackage(w, pkg))
	return w.buf
}

func TestNewBytesAppliesDefaultOptions(t *testing.T) {
	data := buildTestPackageBytes(t)
	f, err := NewBytes(data, nil)
	require.NoError(t, err)
	require.NotNil(t, f.opts)
	assert.True(t, f.opts.StrictVersions)
	assert.NotNil(t, f.logger)
}

func TestNewBytesMergesPartialOptions(t *testing.T) {
	data := buildTestPackageBytes(t)
	custom := log.NewStdLogger(os.Stdout)
	f, err := NewBytes(data, &Options{Logger: custom})
	require.NoError(t, err)
	assert.True(t, f.opts.StrictVersions)
}

func TestFileBytesReturnsBackingBuffer(t *testing.T) {
	data := buildTestPackageBytes(t)
	f, err := NewBytes(data, nil)
	require.NoError(t, err)
	assert.Equal(t, data, f.Bytes())
}

func TestFilePackageDecodesAndCaches(t *testing.T) {
	data := buildTestPackageBytes(t)
	f, err := NewBytes(data, nil)
	require.NoError(t, err)

	pkg, err := f.Package()
	require.NoError(t, err)
	require.Len(t, pkg.Assets, 1)
	assert.Equal(t, "test_asset", pkg.Assets[0].Name)

	pkg2, err := f.Package()
	require.NoError(t, err)
	assert.Same(t, pkg, pkg2)
}

func TestFilePackagePropagatesDecodeError(t *testing.T) {
	f, err := NewBytes([]byte("not a valid pack"), nil)
	require.NoError(t, err)

	_, err = f.Package()
	require.Error(t, err)
}

func TestFileCloseWithoutMmapIsNoop(t *testing.T) {
	f, err := NewBytes(buildTestPackageBytes(t), nil)
	require.NoError(t, err)
	assert.NoError(t, f.Close())
}

func TestFileSparseIndexesWithoutPayloads(t *testing.T) {
	f, err := NewBytes(buildTestPackageBytes(t), nil)
	require.NoError(t, err)

	entries, err := f.Sparse()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uuid.MustParse("00000000-0000-0000-0000-000000000001"), entries[0].ID)
}

func TestFileHeaderStripsPayloads(t *testing.T) {
	data := buildTestPackageBytes(t)
	f, err := NewBytes(data, nil)
	require.NoError(t, err)

	header, err := f.Header()
	require.NoError(t, err)
	assert.Less(t, len(header), len(data))
}

func TestFileAssetExtractsByID(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	f, err := NewBytes(buildTestPackageBytes(t), nil)
	require.NoError(t, err)

	extracted, err := f.Asset(id)
	require.NoError(t, err)

	gotID, err := LocateAssetID(extracted)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
}

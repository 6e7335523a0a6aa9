// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildMultiNamePackage(t *testing.T) (*Package, uuid.UUID, uuid.UUID) {
	t.Helper()
	kind := NewFourCC("TEST")
	id1 := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	id2 := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	pkg := &Package{
		Assets: []Asset{
			{
				ID:           id1,
				Kind:         kind,
				Names:        []string{"alias_one", "alias_two"},
				Data:         buildTestAssetForm(t, kind, []byte("first-payload")),
				Meta:         []byte("meta-for-one"),
				Version:      1,
				OtherVersion: 1,
			},
			{
				ID:           id2,
				Kind:         kind,
				Data:         buildTestAssetForm(t, kind, []byte("second-payload")),
				Version:      1,
				OtherVersion: 1,
			},
		},
	}
	return pkg, id1, id2
}

func TestReadPackagePreservesMultipleNamesPerAsset(t *testing.T) {
	pkg, id1, _ := buildMultiNamePackage(t)
	w := &seekBuffer{}
	require.NoError(t, WritePackage(w, pkg))

	got, err := ReadPackage(w.buf)
	require.NoError(t, err)

	asset, ok := got.AssetByID(id1)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"alias_one", "alias_two"}, asset.Names)
	assert.Equal(t, "alias_one", asset.Name)
}

func TestReadSparseDeduplicatesAndJoinsNames(t *testing.T) {
	pkg, id1, id2 := buildMultiNamePackage(t)
	w := &seekBuffer{}
	require.NoError(t, WritePackage(w, pkg))

	entries, err := ReadSparse(w.buf)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var found1, found2 bool
	for _, e := range entries {
		if e.ID == id1 {
			found1 = true
			assert.ElementsMatch(t, []string{"alias_one", "alias_two"}, e.Names)
		}
		if e.ID == id2 {
			found2 = true
			assert.Empty(t, e.Names)
		}
	}
	assert.True(t, found1)
	assert.True(t, found2)
}

func TestReadHeaderStripsAssetPayloadsButKeepsDirectory(t *testing.T) {
	pkg, id1, _ := buildMultiNamePackage(t)
	w := &seekBuffer{}
	require.NoError(t, WritePackage(w, pkg))
	full := w.buf

	headerOnly, err := ReadHeader(full)
	require.NoError(t, err)
	assert.Less(t, len(headerOnly), len(full))

	sparse, err := ReadSparse(headerOnly)
	require.NoError(t, err)
	require.Len(t, sparse, 2)

	_, _, _, toccPayload, err := sliceTOCC(headerOnly)
	require.NoError(t, err)
	adir, _, _, err := decodeTOCC(toccPayload, true)
	require.NoError(t, err)
	// The directory is kept verbatim, so its offsets still address the
	// payloads in the original file, all past the end of the header-only
	// buffer.
	for _, e := range adir {
		if e.AssetID == id1 {
			assert.GreaterOrEqual(t, e.Offset, uint64(len(headerOnly)))
		}
	}
}

func TestReadAssetExtractsPayloadAndFootMetadata(t *testing.T) {
	pkg, id1, _ := buildMultiNamePackage(t)
	w := &seekBuffer{}
	require.NoError(t, WritePackage(w, pkg))

	extracted, err := ReadAsset(w.buf, id1)
	require.NoError(t, err)

	gotID, err := LocateAssetID(extracted)
	require.NoError(t, err)
	assert.Equal(t, id1, gotID)

	meta, err := LocateMeta(extracted)
	require.NoError(t, err)
	assert.Equal(t, []byte("meta-for-one"), meta)
}

func TestReadAssetRejectsUnknownID(t *testing.T) {
	pkg, _, _ := buildMultiNamePackage(t)
	w := &seekBuffer{}
	require.NoError(t, WritePackage(w, pkg))

	_, err := ReadAsset(w.buf, uuid.New())
	require.ErrorIs(t, err, ErrDirectoryLookupFailed)
}

package memstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tpongo-afk/HighFive/internal/dtype"
	"github.com/tpongo-afk/HighFive/internal/store"
)

var (
	u8  = dtype.Descriptor{Class: dtype.ClassFixedPoint, Size: 1}
	i32 = dtype.Descriptor{Class: dtype.ClassFixedPoint, Size: 4, Signed: true}
	str = dtype.Descriptor{Class: dtype.ClassString}
)

func TestGroupTree(t *testing.T) {
	s := New()
	require.NoError(t, s.CreateGroup("/a"))
	require.NoError(t, s.CreateGroup("/a/b"))

	err := s.CreateGroup("/a")
	assert.ErrorIs(t, err, store.ErrExists)

	err = s.CreateGroup("/missing/child")
	assert.ErrorIs(t, err, store.ErrNotFound)

	kind, err := s.Stat("/a/b")
	require.NoError(t, err)
	assert.Equal(t, store.KindGroup, kind)
}

func TestDatasetUnderDataset(t *testing.T) {
	s := New()
	require.NoError(t, s.CreateDataset("/d", store.DatasetInfo{Dims: []uint64{2}, Type: u8}, store.CreateParams{}))

	err := s.CreateGroup("/d/sub")
	assert.ErrorIs(t, err, store.ErrNotGroup)
}

func TestParamsRecorded(t *testing.T) {
	s := New()
	params := store.CreateParams{ChunkDims: []uint64{4}, EarlyAlloc: true}
	require.NoError(t, s.CreateDataset("/d", store.DatasetInfo{Dims: []uint64{8}, Type: u8}, params))

	got, err := s.Params("/d")
	require.NoError(t, err)
	assert.Equal(t, []uint64{4}, got.ChunkDims)
	assert.True(t, got.EarlyAlloc)

	require.NoError(t, s.CreateGroup("/g"))
	_, err = s.Params("/g")
	assert.ErrorIs(t, err, store.ErrNotDataset)
}

func TestList(t *testing.T) {
	s := New()
	require.NoError(t, s.CreateGroup("/z"))
	require.NoError(t, s.CreateGroup("/a"))
	require.NoError(t, s.CreateGroup("/a/deep"))
	require.NoError(t, s.CreateDataset("/m", store.DatasetInfo{Dims: []uint64{1}, Type: u8}, store.CreateParams{}))

	entries, err := s.List("/")
	require.NoError(t, err)
	assert.Equal(t, []store.Entry{
		{Name: "a", Kind: store.KindGroup},
		{Name: "m", Kind: store.KindDataset},
		{Name: "z", Kind: store.KindGroup},
	}, entries)

	_, err = s.List("/m")
	assert.ErrorIs(t, err, store.ErrNotGroup)

	_, err = s.List("/nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTransferRoundTrip(t *testing.T) {
	s := New()
	require.NoError(t, s.CreateDataset("/d", store.DatasetInfo{Dims: []uint64{2, 3}, Type: u8}, store.CreateParams{}))

	// Unwritten datasets read back as zeros.
	var buf store.Buffer
	require.NoError(t, s.Transfer(store.OpRead, "/d", u8, nil, &buf))
	assert.Equal(t, make([]byte, 6), buf.Bytes)
	assert.Zero(t, buf.Lease)

	in := store.Buffer{Bytes: []byte{1, 2, 3, 4, 5, 6}}
	require.NoError(t, s.Transfer(store.OpWrite, "/d", u8, nil, &in))

	var out store.Buffer
	require.NoError(t, s.Transfer(store.OpRead, "/d", u8, nil, &out))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, out.Bytes)
}

func TestTransferSelection(t *testing.T) {
	s := New()
	require.NoError(t, s.CreateDataset("/d", store.DatasetInfo{Dims: []uint64{2, 3}, Type: u8}, store.CreateParams{}))
	in := store.Buffer{Bytes: []byte{1, 2, 3, 4, 5, 6}}
	require.NoError(t, s.Transfer(store.OpWrite, "/d", u8, nil, &in))

	// Right 2x2 corner of the 2x3 matrix.
	sel := &store.Hyperslab{Offset: []uint64{0, 1}, Count: []uint64{2, 2}}
	var out store.Buffer
	require.NoError(t, s.Transfer(store.OpRead, "/d", u8, sel, &out))
	assert.Equal(t, []byte{2, 3, 5, 6}, out.Bytes)

	// Overwrite the same corner and check the untouched column.
	patch := store.Buffer{Bytes: []byte{20, 30, 50, 60}}
	require.NoError(t, s.Transfer(store.OpWrite, "/d", u8, sel, &patch))

	var full store.Buffer
	require.NoError(t, s.Transfer(store.OpRead, "/d", u8, nil, &full))
	assert.Equal(t, []byte{1, 20, 30, 4, 50, 60}, full.Bytes)
}

func TestTransferValidation(t *testing.T) {
	s := New()
	require.NoError(t, s.CreateDataset("/d", store.DatasetInfo{Dims: []uint64{2, 3}, Type: u8}, store.CreateParams{}))

	var buf store.Buffer
	err := s.Transfer(store.OpRead, "/d", i32, nil, &buf)
	assert.ErrorContains(t, err, "type mismatch")

	short := store.Buffer{Bytes: []byte{1, 2}}
	err = s.Transfer(store.OpWrite, "/d", u8, nil, &short)
	assert.ErrorContains(t, err, "selection needs 6")

	sel := &store.Hyperslab{Offset: []uint64{0, 2}, Count: []uint64{2, 2}}
	err = s.Transfer(store.OpRead, "/d", u8, sel, &buf)
	assert.ErrorContains(t, err, "axis 1")

	err = s.Transfer(store.OpRead, "/missing", u8, nil, &buf)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.CreateGroup("/g"))
	err = s.Transfer(store.OpRead, "/g", u8, nil, &buf)
	assert.ErrorIs(t, err, store.ErrNotDataset)
}

func TestScalarTransfer(t *testing.T) {
	s := New()
	require.NoError(t, s.CreateDataset("/s", store.DatasetInfo{Type: i32}, store.CreateParams{}))

	in := store.Buffer{Bytes: []byte{1, 2, 3, 4}}
	require.NoError(t, s.Transfer(store.OpWrite, "/s", i32, nil, &in))

	var out store.Buffer
	require.NoError(t, s.Transfer(store.OpRead, "/s", i32, nil, &out))
	assert.Equal(t, []byte{1, 2, 3, 4}, out.Bytes)
}

func TestStringLease(t *testing.T) {
	s := New()
	require.NoError(t, s.CreateDataset("/s", store.DatasetInfo{Dims: []uint64{3}, Type: str}, store.CreateParams{}))

	in := store.Buffer{Strings: [][]byte{[]byte("a"), []byte("bb"), []byte("ccc")}}
	require.NoError(t, s.Transfer(store.OpWrite, "/s", str, nil, &in))

	var out store.Buffer
	require.NoError(t, s.Transfer(store.OpRead, "/s", str, nil, &out))
	require.NotZero(t, out.Lease)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("bb"), []byte("ccc")}, out.Strings)

	require.NoError(t, s.Reclaim(out.Lease))
	assert.Error(t, s.Reclaim(out.Lease), "double reclaim must fail")
}

func TestStringWriteIsCopied(t *testing.T) {
	s := New()
	require.NoError(t, s.CreateDataset("/s", store.DatasetInfo{Dims: []uint64{1}, Type: str}, store.CreateParams{}))

	payload := []byte("mutate me")
	in := store.Buffer{Strings: [][]byte{payload}}
	require.NoError(t, s.Transfer(store.OpWrite, "/s", str, nil, &in))
	payload[0] = 'X'

	var out store.Buffer
	require.NoError(t, s.Transfer(store.OpRead, "/s", str, nil, &out))
	assert.Equal(t, "mutate me", string(out.Strings[0]))
	require.NoError(t, s.Reclaim(out.Lease))
}

func TestResize(t *testing.T) {
	s := New()
	info := store.DatasetInfo{Dims: []uint64{2}, MaxDims: []uint64{4}, Type: u8}
	require.NoError(t, s.CreateDataset("/d", info, store.CreateParams{}))

	in := store.Buffer{Bytes: []byte{7, 8}}
	require.NoError(t, s.Transfer(store.OpWrite, "/d", u8, nil, &in))

	require.NoError(t, s.Resize("/d", []uint64{4}))
	var out store.Buffer
	require.NoError(t, s.Transfer(store.OpRead, "/d", u8, nil, &out))
	assert.Equal(t, []byte{7, 8, 0, 0}, out.Bytes)

	require.NoError(t, s.Resize("/d", []uint64{1}))
	out = store.Buffer{}
	require.NoError(t, s.Transfer(store.OpRead, "/d", u8, nil, &out))
	assert.Equal(t, []byte{7}, out.Bytes)

	err := s.Resize("/d", []uint64{5})
	assert.ErrorContains(t, err, "exceeds maximum")

	err = s.Resize("/d", []uint64{1, 1})
	assert.ErrorContains(t, err, "rank")
}

func TestResizeUnlimited(t *testing.T) {
	s := New()
	info := store.DatasetInfo{Dims: []uint64{1}, MaxDims: []uint64{store.Unlimited}, Type: u8}
	require.NoError(t, s.CreateDataset("/d", info, store.CreateParams{}))
	require.NoError(t, s.Resize("/d", []uint64{100000}))

	got, err := s.Dataset("/d")
	require.NoError(t, err)
	assert.Equal(t, []uint64{100000}, got.Dims)
}

func TestAttrs(t *testing.T) {
	s := New()
	require.NoError(t, s.SetAttr("/", "zeta", []byte{1}))
	require.NoError(t, s.SetAttr("/", "alpha", []byte{2}))

	names, err := s.Attrs("/")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)

	value, err := s.Attr("/", "zeta")
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, value)

	_, err = s.Attr("/", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.SetAttr("/nope", "a", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestClose(t *testing.T) {
	s := New()
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.CreateGroup("/g"), store.ErrClosed)
	_, err := s.Stat("/")
	assert.ErrorIs(t, err, store.ErrClosed)
	assert.ErrorIs(t, s.Flush(), store.ErrClosed)
	assert.ErrorIs(t, s.Close(), store.ErrClosed)
}

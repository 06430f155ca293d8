package h5

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tpongo-afk/HighFive/internal/dtype"
	"github.com/tpongo-afk/HighFive/internal/store"
)

// fakeEngine records transfers so tests can assert that container
// validation happens before the engine is ever touched.
type fakeEngine struct {
	info        store.DatasetInfo
	transfers   []store.Op
	reclaimed   []uint64
	data        []byte
	strings     [][]byte
	lease       uint64
	transferErr error
}

func (e *fakeEngine) CreateGroup(string) error { return nil }
func (e *fakeEngine) CreateDataset(string, store.DatasetInfo, store.CreateParams) error {
	return nil
}
func (e *fakeEngine) Dataset(string) (*store.DatasetInfo, error) {
	info := e.info
	return &info, nil
}
func (e *fakeEngine) Params(string) (*store.CreateParams, error) {
	return &store.CreateParams{}, nil
}
func (e *fakeEngine) Resize(string, []uint64) error { return nil }
func (e *fakeEngine) Stat(string) (store.Kind, error) { return store.KindDataset, nil }
func (e *fakeEngine) List(string) ([]store.Entry, error) { return nil, nil }

func (e *fakeEngine) Transfer(op store.Op, path string, dt dtype.Descriptor, sel *store.Hyperslab, buf *store.Buffer) error {
	e.transfers = append(e.transfers, op)
	if e.transferErr != nil {
		return e.transferErr
	}
	if op != store.OpRead {
		return nil
	}
	if e.strings != nil {
		buf.Strings = e.strings
		buf.Lease = e.lease
		return nil
	}
	if len(buf.Bytes) == len(e.data) {
		copy(buf.Bytes, e.data)
	} else {
		buf.Bytes = append([]byte(nil), e.data...)
	}
	return nil
}

func (e *fakeEngine) Reclaim(lease uint64) error {
	e.reclaimed = append(e.reclaimed, lease)
	return nil
}

func (e *fakeEngine) SetAttr(string, string, []byte) error { return nil }
func (e *fakeEngine) Attr(string, string) ([]byte, error) { return nil, store.ErrNotFound }
func (e *fakeEngine) Attrs(string) ([]string, error) { return nil, nil }
func (e *fakeEngine) Flush() error { return nil }
func (e *fakeEngine) Close() error { return nil }

func fakeFile(e *fakeEngine) *File {
	f := &File{path: ":fake:", engine: e, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	f.root = &Group{file: f, path: "/"}
	return f
}

func descOf(t *testing.T, v interface{}) dtype.Descriptor {
	t.Helper()
	d, err := dtype.Of(reflect.TypeOf(v))
	require.NoError(t, err)
	return d
}

func nativeBytes(t *testing.T, v interface{}) []byte {
	t.Helper()
	rv := reflect.ValueOf(v)
	require.Equal(t, reflect.Slice, rv.Kind())
	raw := dtype.SliceBytes(rv, int(rv.Type().Elem().Size()))
	return append([]byte(nil), raw...)
}

func TestReadRankMismatchNeverReachesEngine(t *testing.T) {
	fe := &fakeEngine{info: store.DatasetInfo{
		Dims: []uint64{2, 3},
		Type: descOf(t, float64(0)),
	}}
	ds, err := newDatasetHandle(fakeFile(fe), "/d")
	require.NoError(t, err)

	var out []float64
	err = ds.Read(&out)

	var rankErr *RankError
	require.ErrorAs(t, err, &rankErr)
	assert.Equal(t, 1, rankErr.ContainerRank)
	assert.Equal(t, 2, rankErr.SpaceRank)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	assert.Empty(t, fe.transfers)
}

func TestWriteLengthMismatchNeverReachesEngine(t *testing.T) {
	fe := &fakeEngine{info: store.DatasetInfo{
		Dims: []uint64{3},
		Type: descOf(t, float64(0)),
	}}
	ds, err := newDatasetHandle(fakeFile(fe), "/d")
	require.NoError(t, err)

	err = ds.Write([]float64{1, 2})

	var dimErr *DimensionError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 0, dimErr.Axis)
	assert.Equal(t, uint64(2), dimErr.Got)
	assert.Equal(t, uint64(3), dimErr.Want)
	assert.Empty(t, fe.transfers)
}

func TestTypeMismatchNeverReachesEngine(t *testing.T) {
	fe := &fakeEngine{info: store.DatasetInfo{
		Dims: []uint64{2},
		Type: descOf(t, float64(0)),
	}}
	ds, err := newDatasetHandle(fakeFile(fe), "/d")
	require.NoError(t, err)

	var out []int32
	err = ds.Read(&out)
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Contains(t, err.Error(), "int32")
	assert.Contains(t, err.Error(), "float64")
	assert.Empty(t, fe.transfers)
}

func TestReadRejectsNonPointer(t *testing.T) {
	fe := &fakeEngine{info: store.DatasetInfo{
		Dims: []uint64{2},
		Type: descOf(t, float64(0)),
	}}
	ds, err := newDatasetHandle(fakeFile(fe), "/d")
	require.NoError(t, err)

	var out []float64
	assert.ErrorContains(t, ds.Read(out), "non-nil pointer")
	assert.ErrorContains(t, ds.Read(nil), "non-nil pointer")
	assert.Empty(t, fe.transfers)
}

func TestReadFillsCallerSlice(t *testing.T) {
	want := []float64{1.5, 2.5, 3.5}
	fe := &fakeEngine{
		info: store.DatasetInfo{Dims: []uint64{3}, Type: descOf(t, float64(0))},
		data: nativeBytes(t, want),
	}
	ds, err := newDatasetHandle(fakeFile(fe), "/d")
	require.NoError(t, err)

	var out []float64
	require.NoError(t, ds.Read(&out))
	assert.Equal(t, want, out)
	assert.Equal(t, []store.Op{store.OpRead}, fe.transfers)
	assert.Empty(t, fe.reclaimed, "fixed-size reads hold no lease")
}

func TestStringReadReclaimsLeaseOnce(t *testing.T) {
	fe := &fakeEngine{
		info:    store.DatasetInfo{Dims: []uint64{2}, Type: descOf(t, "")},
		strings: [][]byte{[]byte("alpha"), []byte("b")},
		lease:   7,
	}
	ds, err := newDatasetHandle(fakeFile(fe), "/d")
	require.NoError(t, err)

	var out []string
	require.NoError(t, ds.Read(&out))
	assert.Equal(t, []string{"alpha", "b"}, out)
	assert.Equal(t, []uint64{7}, fe.reclaimed)
}

func TestTransferErrorWrapsEngineFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	fe := &fakeEngine{
		info:        store.DatasetInfo{Dims: []uint64{2}, Type: descOf(t, int64(0))},
		transferErr: boom,
	}
	ds, err := newDatasetHandle(fakeFile(fe), "/d")
	require.NoError(t, err)

	err = ds.Write([]int64{1, 2})
	assert.ErrorIs(t, err, ErrTransfer)
	assert.ErrorIs(t, err, boom)

	var terr *TransferError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "write", terr.Op)

	var out []int64
	err = ds.Read(&out)
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "read", terr.Op)
}

func TestScalarReadThroughEngine(t *testing.T) {
	fe := &fakeEngine{
		info: store.DatasetInfo{Type: descOf(t, float64(0))},
		data: nativeBytes(t, []float64{3.5}),
	}
	ds, err := newDatasetHandle(fakeFile(fe), "/d")
	require.NoError(t, err)

	var out float64
	require.NoError(t, ds.Read(&out))
	assert.Equal(t, 3.5, out)
}

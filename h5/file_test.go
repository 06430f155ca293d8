package h5

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.hive")

	f, err := Create(path, WithNoSync())
	require.NoError(t, err)
	assert.Equal(t, path, f.Path())
	assert.False(t, f.IsReadOnly())

	_, err = f.CreateDataset("/values", []float64{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, f.SetAttr("/@version", int64(2)))
	require.NoError(t, f.Flush())
	require.NoError(t, f.Close())

	f, err = Open(path, WithReadOnly())
	require.NoError(t, err)
	defer f.Close()
	assert.True(t, f.IsReadOnly())

	ds, err := f.OpenDataset("/values")
	require.NoError(t, err)
	got, err := ds.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, got)

	v, err := f.ReadAttr("/@version")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.hive"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateReadOnlyRejected(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "x.hive"), WithReadOnly())
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestCreateTruncatesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.hive")

	f, err := Create(path, WithNoSync())
	require.NoError(t, err)
	_, err = f.CreateDataset("/old", []int32{1})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = Create(path, WithNoSync())
	require.NoError(t, err)
	defer f.Close()
	_, err = f.OpenDataset("/old")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.hive")

	f, err := Create(path, WithNoSync())
	require.NoError(t, err)
	_, err = f.CreateDataset("/values", []int64{1, 2}, WithMaxDims(4))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = Open(path, WithReadOnly())
	require.NoError(t, err)
	defer f.Close()

	_, err = f.CreateGroup("/grp")
	assert.ErrorIs(t, err, ErrReadOnly)
	_, err = f.CreateDataset("/more", []int64{3})
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.ErrorIs(t, f.SetAttr("/@a", 1), ErrReadOnly)

	ds, err := f.OpenDataset("/values")
	require.NoError(t, err)
	assert.ErrorIs(t, ds.Write([]int64{9, 9}), ErrReadOnly)
	assert.ErrorIs(t, ds.Resize(3), ErrReadOnly)
	assert.ErrorIs(t, ds.SetAttr("units", "m"), ErrReadOnly)
}

func TestClosedFileRejectsOperations(t *testing.T) {
	f := NewMemory()
	ds, err := f.CreateDataset("/d", []int32{1, 2})
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close(), "closing twice is a no-op")

	_, err = f.OpenDataset("/d")
	assert.ErrorIs(t, err, ErrClosed)
	var out []int32
	assert.ErrorIs(t, ds.Read(&out), ErrClosed)
	assert.ErrorIs(t, ds.Write([]int32{0, 0}), ErrClosed)
	assert.ErrorIs(t, f.Flush(), ErrClosed)
	_, err = f.CreateGroup("/g")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, f.Walk(func(string, interface{}, error) error { return nil }), ErrClosed)
}

func TestMemoryFile(t *testing.T) {
	f := NewMemory()
	defer f.Close()

	assert.Equal(t, ":memory:", f.Path())
	assert.Equal(t, "/", f.Root().Path())
	assert.Equal(t, "/", f.Root().Name())

	_, err := f.CreateDataset("/d", []uint8{1})
	require.NoError(t, err)
}

func TestFileLogger(t *testing.T) {
	// Logging must not interfere with normal operation.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	f := NewMemory(WithLogger(log))
	defer f.Close()

	_, err := f.CreateDataset("/d", []int16{1, 2, 3})
	require.NoError(t, err)
}

func TestTransferErrorMessage(t *testing.T) {
	err := &TransferError{Op: "write", Err: errors.New("backend failed")}
	assert.Equal(t, "error during write: backend failed", err.Error())
	assert.ErrorIs(t, err, ErrTransfer)
}

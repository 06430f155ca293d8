package h5

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGroupHierarchy(t *testing.T) {
	f := memFile(t)

	g, err := f.CreateGroup("/a/b/c")
	require.NoError(t, err)
	assert.Equal(t, "/a/b/c", g.Path())
	assert.Equal(t, "c", g.Name())

	// Intermediates were created along the way.
	_, err = f.OpenGroup("/a")
	require.NoError(t, err)
	_, err = f.OpenGroup("/a/b")
	require.NoError(t, err)

	// Creating the same final group again fails, but reusing the
	// intermediates for a sibling is fine.
	_, err = f.CreateGroup("/a/b/c")
	assert.ErrorIs(t, err, ErrExists)
	_, err = f.CreateGroup("/a/b/d")
	require.NoError(t, err)
}

func TestCreateGroupRelative(t *testing.T) {
	f := memFile(t)

	g, err := f.CreateGroup("/top")
	require.NoError(t, err)

	sub, err := g.CreateGroup("nested/deep")
	require.NoError(t, err)
	assert.Equal(t, "/top/nested/deep", sub.Path())

	// An absolute name ignores the group it is called on.
	abs, err := g.CreateGroup("/other")
	require.NoError(t, err)
	assert.Equal(t, "/other", abs.Path())
}

func TestGroupMembers(t *testing.T) {
	f := memFile(t)

	_, err := f.CreateGroup("/z")
	require.NoError(t, err)
	_, err = f.CreateGroup("/a")
	require.NoError(t, err)
	_, err = f.CreateDataset("/m", []int32{1})
	require.NoError(t, err)

	names, err := f.Root().Members()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "m", "z"}, names)

	n, err := f.Root().NumObjects()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestOpenGroupErrors(t *testing.T) {
	f := memFile(t)

	_, err := f.CreateDataset("/d", []int32{1})
	require.NoError(t, err)
	g, err := f.CreateGroup("/g")
	require.NoError(t, err)

	_, err = f.OpenGroup("/missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.OpenGroup("/d")
	assert.ErrorIs(t, err, ErrNotGroup)
	_, err = f.OpenDataset("/missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.OpenDataset("/g")
	assert.ErrorIs(t, err, ErrNotDataset)

	root, err := f.OpenGroup("/")
	require.NoError(t, err)
	assert.Equal(t, "/", root.Path())

	// Relative resolution from a subgroup.
	ds, err := g.CreateDataset("inner", []int64{7})
	require.NoError(t, err)
	assert.Equal(t, "/g/inner", ds.Path())
	opened, err := g.OpenDataset("inner")
	require.NoError(t, err)
	assert.Equal(t, "/g/inner", opened.Path())
}

func TestInvalidNames(t *testing.T) {
	f := memFile(t)

	_, err := f.CreateGroup("")
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = f.CreateGroup("/")
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = f.CreateDataset("/with@at", []int32{1})
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = f.OpenDataset("bad\x00name")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

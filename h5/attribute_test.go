package h5

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeRoundTrip(t *testing.T) {
	f := memFile(t)

	g, err := f.CreateGroup("/g")
	require.NoError(t, err)
	ds, err := f.CreateDataset("/g/d", []int32{1, 2})
	require.NoError(t, err)

	require.NoError(t, g.SetAttr("note", "hello"))
	require.NoError(t, ds.SetAttr("scale", 2.5))
	require.NoError(t, ds.SetAttr("count", int32(7)))

	a, err := g.Attr("note")
	require.NoError(t, err)
	assert.Equal(t, "note", a.Name())
	s, err := a.ReadScalarString()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	a, err = ds.Attr("scale")
	require.NoError(t, err)
	v, err := a.ReadScalarFloat64()
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	a, err = ds.Attr("count")
	require.NoError(t, err)
	n, err := a.ReadScalarInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestAttributeValueKinds(t *testing.T) {
	f := memFile(t)
	root := f.Root()

	require.NoError(t, root.SetAttr("i", int32(-7)))
	require.NoError(t, root.SetAttr("u", uint64(1)<<63))
	require.NoError(t, root.SetAttr("f", 2.5))
	require.NoError(t, root.SetAttr("s", "text"))
	require.NoError(t, root.SetAttr("fs", []float64{1.5, 2.5}))

	tests := map[string]interface{}{
		"i":  int64(-7),
		"u":  uint64(1) << 63,
		"f":  2.5,
		"s":  "text",
		"fs": []interface{}{1.5, 2.5},
	}
	for name, want := range tests {
		a, err := root.Attr(name)
		require.NoError(t, err, name)
		got, err := a.Value()
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestAttributeOverwrite(t *testing.T) {
	f := memFile(t)

	require.NoError(t, f.Root().SetAttr("v", int64(1)))
	require.NoError(t, f.Root().SetAttr("v", int64(2)))

	a, err := f.Root().Attr("v")
	require.NoError(t, err)
	n, err := a.ReadScalarInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestAttributeListingAndPresence(t *testing.T) {
	f := memFile(t)

	ds, err := f.CreateDataset("/d", []float32{1})
	require.NoError(t, err)
	require.NoError(t, ds.SetAttr("zeta", 1))
	require.NoError(t, ds.SetAttr("alpha", 2))

	names, err := ds.Attrs()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)

	assert.True(t, ds.HasAttr("alpha"))
	assert.False(t, ds.HasAttr("missing"))

	_, err = ds.Attr("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttrPathAddressing(t *testing.T) {
	f := memFile(t)

	_, err := f.CreateGroup("/g")
	require.NoError(t, err)
	_, err = f.CreateDataset("/g/d", []int32{1})
	require.NoError(t, err)

	require.NoError(t, f.SetAttr("/@root_note", "top"))
	require.NoError(t, f.SetAttr("/g@kind", "branch"))
	require.NoError(t, f.SetAttr("/g/d@units", "kelvin"))

	v, err := f.ReadAttr("/g/d@units")
	require.NoError(t, err)
	assert.Equal(t, "kelvin", v)

	a, err := f.GetAttr("/@root_note")
	require.NoError(t, err)
	s, err := a.ReadScalarString()
	require.NoError(t, err)
	assert.Equal(t, "top", s)

	// Attributes on missing objects fail.
	assert.ErrorIs(t, f.SetAttr("/nope@x", 1), ErrNotFound)
	_, err = f.ReadAttr("/g@missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.GetAttr("/g/no-at")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestAttributeInvalidNames(t *testing.T) {
	f := memFile(t)

	for _, name := range []string{"", "a/b", "a@b", "nul\x00"} {
		err := f.Root().SetAttr(name, 1)
		assert.ErrorIs(t, err, ErrInvalidPath, "name %q", name)
	}
}

func TestAttributeInvalidValues(t *testing.T) {
	f := memFile(t)

	for _, v := range []interface{}{true, struct{ X int }{1}, map[string]int{"a": 1}, nil} {
		err := f.Root().SetAttr("bad", v)
		assert.ErrorIs(t, err, ErrUnsupported, "value %#v", v)
	}
}

func TestAttributeReadIntoTypedDest(t *testing.T) {
	f := memFile(t)

	require.NoError(t, f.Root().SetAttr("dims", []int64{128, 256}))

	a, err := f.Root().Attr("dims")
	require.NoError(t, err)
	var dims []int64
	require.NoError(t, a.Read(&dims))
	assert.Equal(t, []int64{128, 256}, dims)
}

func TestDatasetCreationAttributes(t *testing.T) {
	f := memFile(t)

	ds, err := f.CreateDataset("/d", []int32{1, 2, 3},
		WithAttribute("units", "m/s"), WithAttribute("offset", 1.5))
	require.NoError(t, err)

	names, err := ds.Attrs()
	require.NoError(t, err)
	assert.Equal(t, []string{"offset", "units"}, names)

	a, err := ds.Attr("units")
	require.NoError(t, err)
	s, err := a.ReadScalarString()
	require.NoError(t, err)
	assert.Equal(t, "m/s", s)
}

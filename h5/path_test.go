package h5

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAttrPath(t *testing.T) {
	tests := []struct {
		path    string
		objPath string
		name    string
	}{
		{"/@root_attr", "/", "root_attr"},
		{"/data@units", "/data", "units"},
		{"/grp/sub/data@scale", "/grp/sub/data", "scale"},
		{"data@units", "/data", "units"},
	}
	for _, tt := range tests {
		objPath, name, err := ParseAttrPath(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.objPath, objPath, tt.path)
		assert.Equal(t, tt.name, name, tt.path)
	}
}

func TestParseAttrPathInvalid(t *testing.T) {
	for _, path := range []string{"", "/data", "/data@", "no-at-sign"} {
		_, _, err := ParseAttrPath(path)
		assert.ErrorIs(t, err, ErrInvalidPath, "path %q", path)
	}
}

func TestJoinAttrPath(t *testing.T) {
	assert.Equal(t, "/@version", JoinAttrPath("/", "version"))
	assert.Equal(t, "/data@units", JoinAttrPath("/data", "units"))
}

func TestJoinParseRoundTrip(t *testing.T) {
	for _, obj := range []string{"/", "/data", "/a/b/c"} {
		objPath, name, err := ParseAttrPath(JoinAttrPath(obj, "x"))
		require.NoError(t, err)
		assert.Equal(t, obj, objPath)
		assert.Equal(t, "x", name)
	}
}

func TestSplitNameRejectsBadComponents(t *testing.T) {
	for _, name := range []string{"", "/", "a@b", "a/b@c", "a/\x00"} {
		_, err := splitName(name)
		assert.ErrorIs(t, err, ErrInvalidPath, "name %q", name)
	}
}

func TestSplitNameCollapsesSlashes(t *testing.T) {
	parts, err := splitName("/a//b/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, parts)
}

package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridShape(t *testing.T) {
	tests := []struct {
		name      string
		dims      []uint64
		chunkDims []uint64
		shape     []uint64
		count     uint64
	}{
		{"exact", []uint64{8, 8}, []uint64{4, 4}, []uint64{2, 2}, 4},
		{"ragged edge", []uint64{10, 10}, []uint64{4, 4}, []uint64{3, 3}, 9},
		{"single chunk", []uint64{3, 3}, []uint64{100, 100}, []uint64{1, 1}, 1},
		{"one axis", []uint64{17}, []uint64{5}, []uint64{4}, 4},
		{"zero extent", []uint64{0, 4}, []uint64{2, 2}, []uint64{0, 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGrid(tt.dims, tt.chunkDims)
			require.NoError(t, err)
			assert.Equal(t, tt.shape, g.Shape())
			assert.Equal(t, tt.count, g.Count())
		})
	}
}

func TestGridValidation(t *testing.T) {
	_, err := NewGrid([]uint64{4, 4}, []uint64{2})
	assert.Error(t, err)

	_, err = NewGrid([]uint64{4}, []uint64{0})
	assert.Error(t, err)
}

func TestGridIndexCoords(t *testing.T) {
	g, err := NewGrid([]uint64{10, 10, 10}, []uint64{4, 4, 4})
	require.NoError(t, err)

	for idx := uint64(0); idx < g.Count(); idx++ {
		coords := g.Coords(idx)
		assert.Equal(t, idx, g.Index(coords))
	}

	// Row-major: the last axis varies fastest.
	assert.Equal(t, []uint64{0, 0, 1}, g.Coords(1))
	assert.Equal(t, []uint64{0, 1, 0}, g.Coords(3))
	assert.Equal(t, []uint64{1, 0, 0}, g.Coords(9))
}

func TestGridOrigin(t *testing.T) {
	g, err := NewGrid([]uint64{10, 10}, []uint64{4, 3})
	require.NoError(t, err)
	assert.Equal(t, []uint64{8, 6}, g.Origin([]uint64{2, 2}))
}

func TestOverlapSingleAxis(t *testing.T) {
	g, err := NewGrid([]uint64{10}, []uint64{4})
	require.NoError(t, err)

	type visit struct {
		coords, chunkOff, selOff, box []uint64
	}
	var visits []visit
	err = g.Overlap([]uint64{2}, []uint64{5}, func(coords, chunkOff, selOff, box []uint64) error {
		visits = append(visits, visit{
			append([]uint64(nil), coords...),
			append([]uint64(nil), chunkOff...),
			append([]uint64(nil), selOff...),
			append([]uint64(nil), box...),
		})
		return nil
	})
	require.NoError(t, err)

	// Selection [2,7) touches chunk 0 at [2,4) and chunk 1 at [4,7).
	require.Len(t, visits, 2)
	assert.Equal(t, visit{[]uint64{0}, []uint64{2}, []uint64{0}, []uint64{2}}, visits[0])
	assert.Equal(t, visit{[]uint64{1}, []uint64{0}, []uint64{2}, []uint64{3}}, visits[1])
}

func TestOverlapTwoAxes(t *testing.T) {
	g, err := NewGrid([]uint64{6, 6}, []uint64{4, 4})
	require.NoError(t, err)

	var total uint64
	var visited [][]uint64
	err = g.Overlap([]uint64{1, 1}, []uint64{4, 4}, func(coords, chunkOff, selOff, box []uint64) error {
		visited = append(visited, append([]uint64(nil), coords...))
		total += box[0] * box[1]
		return nil
	})
	require.NoError(t, err)

	// The 4x4 box at (1,1) crosses all four chunks of the 2x2 grid.
	assert.Equal(t, [][]uint64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, visited)
	assert.Equal(t, uint64(16), total)
}

func TestOverlapZeroCount(t *testing.T) {
	g, err := NewGrid([]uint64{6, 6}, []uint64{4, 4})
	require.NoError(t, err)

	calls := 0
	err = g.Overlap([]uint64{0, 0}, []uint64{4, 0}, func(_, _, _, _ []uint64) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestNumElements(t *testing.T) {
	assert.Equal(t, uint64(1), NumElements(nil))
	assert.Equal(t, uint64(6), NumElements([]uint64{2, 3}))
	assert.Equal(t, uint64(0), NumElements([]uint64{2, 0, 3}))
}

func TestLinearOffset(t *testing.T) {
	dims := []uint64{2, 3, 4}
	assert.Equal(t, uint64(0), LinearOffset([]uint64{0, 0, 0}, dims))
	assert.Equal(t, uint64(1), LinearOffset([]uint64{0, 0, 1}, dims))
	assert.Equal(t, uint64(4), LinearOffset([]uint64{0, 1, 0}, dims))
	assert.Equal(t, uint64(12), LinearOffset([]uint64{1, 0, 0}, dims))
	assert.Equal(t, uint64(23), LinearOffset([]uint64{1, 2, 3}, dims))
}

func TestCopyRegionExtract(t *testing.T) {
	// Source is a 4x4 byte matrix 0..15; extract the middle 2x2.
	src := make([]byte, 16)
	for i := range src {
		src[i] = byte(i)
	}
	dst := make([]byte, 4)
	CopyRegion(dst, []uint64{2, 2}, []uint64{0, 0}, src, []uint64{4, 4}, []uint64{1, 1}, []uint64{2, 2}, 1)
	assert.Equal(t, []byte{5, 6, 9, 10}, dst)
}

func TestCopyRegionInsert(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	dst := make([]byte, 9)
	CopyRegion(dst, []uint64{3, 3}, []uint64{1, 1}, src, []uint64{2, 2}, []uint64{0, 0}, []uint64{2, 2}, 1)
	assert.Equal(t, []byte{
		0, 0, 0,
		0, 1, 2,
		0, 3, 4,
	}, dst)
}

func TestCopyRegionMultiByte(t *testing.T) {
	// Two uint16 rows of three; copy the second column of both rows.
	src := []byte{
		1, 0, 2, 0, 3, 0,
		4, 0, 5, 0, 6, 0,
	}
	dst := make([]byte, 4)
	CopyRegion(dst, []uint64{2, 1}, []uint64{0, 0}, src, []uint64{2, 3}, []uint64{0, 1}, []uint64{2, 1}, 2)
	assert.Equal(t, []byte{2, 0, 5, 0}, dst)
}

func TestCopyRegionScalar(t *testing.T) {
	src := []byte{7, 8}
	dst := make([]byte, 2)
	CopyRegion(dst, nil, nil, src, nil, nil, nil, 2)
	assert.Equal(t, src, dst)
}

func TestCopyElems(t *testing.T) {
	src := []string{"a", "b", "c", "d"}
	dst := make([]string, 9)
	CopyElems(dst, []uint64{3, 3}, []uint64{1, 1}, src, []uint64{2, 2}, []uint64{0, 0}, []uint64{2, 2})
	assert.Equal(t, []string{
		"", "", "",
		"", "a", "b",
		"", "c", "d",
	}, dst)
}

package rangetiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tiledIFD(t *testing.T) *ImageFileDirectory {
	t.Helper()
	tags := map[Tag]Value{
		TagImageWidth:                ValUnsigned(500),
		TagImageLength:               ValUnsigned(500),
		TagBitsPerSample:             ValList{ValShort(8)},
		TagPhotometricInterpretation: ValShort(uint16(PhotometricBlackIsZero)),
		TagSamplesPerPixel:           ValShort(1),
		TagTileWidth:                 ValUnsigned(256),
		TagTileLength:                ValUnsigned(256),
		TagTileOffsets: ValList{
			ValUnsigned(1000), ValUnsigned(2000),
			ValUnsigned(3000), ValUnsigned(4000),
		},
		TagTileByteCounts: ValList{
			ValUnsigned(500), ValUnsigned(600),
			ValUnsigned(700), ValUnsigned(800),
		},
	}
	ifd, err := FromTags(tags)
	require.NoError(t, err)
	return ifd
}

func TestTileCountCeilDivision(t *testing.T) {
	ifd := tiledIFD(t)
	grid, ok := ifd.TileCount()
	require.True(t, ok)
	assert.Equal(t, TileGrid{Columns: 2, Rows: 2}, grid)
}

func TestChunkByteRangeMatchesByteCounts(t *testing.T) {
	ifd := tiledIFD(t)
	cases := []struct {
		x, y           int
		offset, length uint64
	}{
		{0, 0, 1000, 500},
		{1, 0, 2000, 600},
		{0, 1, 3000, 700},
		{1, 1, 4000, 800},
	}
	for _, c := range cases {
		r, err := ifd.ChunkByteRange(c.x, c.y)
		require.NoError(t, err)
		assert.Equal(t, c.offset, r.Start)
		assert.Equal(t, c.length, r.Len())
	}
}

func TestChunkByteRangeOutOfBounds(t *testing.T) {
	ifd := tiledIFD(t)
	_, err := ifd.ChunkByteRange(2, 0)
	assert.IsType(t, TileIndexError{}, err)
	_, err = ifd.ChunkByteRange(0, -1)
	assert.IsType(t, TileIndexError{}, err)
}

func TestPlaneChunkByteRangePlanarLayout(t *testing.T) {
	tags := map[Tag]Value{
		TagImageWidth:                ValUnsigned(256),
		TagImageLength:               ValUnsigned(256),
		TagBitsPerSample:             ValList{ValShort(8), ValShort(8)},
		TagPhotometricInterpretation: ValShort(uint16(PhotometricBlackIsZero)),
		TagSamplesPerPixel:           ValShort(2),
		TagPlanarConfiguration:       ValShort(uint16(PlanarConfigurationPlanar)),
		TagTileWidth:                 ValUnsigned(256),
		TagTileLength:                ValUnsigned(256),
		TagTileOffsets:               ValList{ValUnsigned(10), ValUnsigned(20)},
		TagTileByteCounts:            ValList{ValUnsigned(100), ValUnsigned(200)},
	}
	ifd, err := FromTags(tags)
	require.NoError(t, err)

	r0, err := ifd.PlaneChunkByteRange(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), r0.Start)

	r1, err := ifd.PlaneChunkByteRange(0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), r1.Start)

	_, err = ifd.PlaneChunkByteRange(0, 0, 2)
	assert.IsType(t, TileIndexError{}, err)
}

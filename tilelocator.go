package rangetiff

import (
	"fmt"
	"math"
)

// TileGrid describes the column/row count of an IFD's chunk layout, for
// both tiled and stripped images (a stripped image is a tiled image with
// TileWidth == ImageWidth and one column).
type TileGrid struct {
	Columns, Rows int
}

// TileCount returns the tile/strip grid dimensions, or false if ifd has
// no chunk layout at all (which FromTags never actually produces, since
// it requires exactly one of strips or tiles).
func (ifd *ImageFileDirectory) TileCount() (TileGrid, bool) {
	chunkWidth := ifd.ChunkWidth()
	chunkHeight := ifd.ChunkHeight()
	if chunkWidth == 0 || chunkHeight == 0 {
		return TileGrid{}, false
	}
	cols := int(math.Ceil(float64(ifd.ImageWidth) / float64(chunkWidth)))
	rows := int(math.Ceil(float64(ifd.ImageHeight) / float64(chunkHeight)))
	return TileGrid{Columns: cols, Rows: rows}, true
}

// chunkIndex maps a (x, y) tile/strip coordinate, and for planar images
// a sample plane, to the flat index into StripOffsets/TileOffsets. Planar
// images store one full grid of chunks per sample before the next plane's
// grid begins, per TIFF 6.0 §8.
func chunkIndex(grid TileGrid, x, y, plane int) int {
	perPlane := grid.Columns * grid.Rows
	return plane*perPlane + y*grid.Columns + x
}

// ChunkByteRange returns the byte range of the tile or strip at column x,
// row y, plane 0. Use PlaneChunkByteRange for planar-configuration images
// with more than one sample plane.
func (ifd *ImageFileDirectory) ChunkByteRange(x, y int) (Range, error) {
	return ifd.PlaneChunkByteRange(x, y, 0)
}

// PlaneChunkByteRange returns the byte range of the tile or strip at
// column x, row y, within sample plane `plane` (always 0 for
// PlanarConfigurationChunky images).
func (ifd *ImageFileDirectory) PlaneChunkByteRange(x, y, plane int) (Range, error) {
	grid, ok := ifd.TileCount()
	if !ok {
		return Range{}, fmt.Errorf("IFD has no strip or tile layout")
	}
	if x < 0 || x >= grid.Columns {
		return Range{}, TileIndexError{Index: x, Bound: grid.Columns}
	}
	if y < 0 || y >= grid.Rows {
		return Range{}, TileIndexError{Index: y, Bound: grid.Rows}
	}

	planes := 1
	if ifd.PlanarConfiguration == PlanarConfigurationPlanar {
		planes = int(ifd.SamplesPerPixel)
	}
	if plane < 0 || plane >= planes {
		return Range{}, TileIndexError{Index: plane, Bound: planes}
	}

	idx := chunkIndex(grid, x, y, plane)

	var offsets, byteCounts []uint64
	if ifd.IsTiled() {
		offsets, byteCounts = ifd.TileOffsets, ifd.TileByteCounts
	} else {
		offsets, byteCounts = ifd.StripOffsets, ifd.StripByteCounts
	}
	if idx < 0 || idx >= len(offsets) {
		return Range{}, TileIndexError{Index: idx, Bound: len(offsets)}
	}

	start := offsets[idx]
	return Range{Start: start, End: start + byteCounts[idx]}, nil
}

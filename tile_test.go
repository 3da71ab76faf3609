package rangetiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uncompressedGrayscaleTile(x, y int, compressed []byte) *Tile {
	return &Tile{
		X: x, Y: y,
		Predictor:                 PredictorNone,
		PredictorInfo:             grayscaleInfo(4, 4, 2, 2, 8, true),
		CompressedBytes:           compressed,
		CompressionMethod:         CompressionNone,
		PhotometricInterpretation: PhotometricBlackIsZero,
	}
}

func TestTileDecodeUnsupportedCompression(t *testing.T) {
	tile := uncompressedGrayscaleTile(0, 0, []byte{1, 2, 3, 4})
	tile.CompressionMethod = CompressionMethod(999)
	_, err := tile.Decode(DefaultDecoderRegistry(), DefaultPredictorRegistry())
	assert.IsType(t, UnsupportedCompressionError{}, err)
}

func TestTileDecodeUnsupportedPredictor(t *testing.T) {
	tile := uncompressedGrayscaleTile(0, 0, []byte{1, 2, 3, 4})
	tile.Predictor = Predictor(999)
	_, err := tile.Decode(DefaultDecoderRegistry(), DefaultPredictorRegistry())
	assert.IsType(t, UnsupportedPredictorError{}, err)
}

func TestTileDecodeUncompressedNoPredictorRoundTrip(t *testing.T) {
	tile := uncompressedGrayscaleTile(0, 0, []byte{1, 2, 3, 4})
	out, err := tile.Decode(DefaultDecoderRegistry(), DefaultPredictorRegistry())
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, out)
}

func TestTileDecodeUncompressedHorizontalPredictor(t *testing.T) {
	// A 2x2 tile, horizontally predictor-encoded: row [3,5] stored as
	// deltas [3,2], row [9,1] stored as deltas [9,248] (wrapping byte sub).
	tile := uncompressedGrayscaleTile(0, 0, []byte{3, 2, 9, 248})
	tile.Predictor = PredictorHorizontal
	out, err := tile.Decode(DefaultDecoderRegistry(), DefaultPredictorRegistry())
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 5, 9, 1}, out)
}

func TestTileDecodeLengthMismatchPropagatesDecoderError(t *testing.T) {
	tile := uncompressedGrayscaleTile(0, 0, []byte{1, 2, 3}) // one byte short
	_, err := tile.Decode(DefaultDecoderRegistry(), DefaultPredictorRegistry())
	assert.Error(t, err)
}

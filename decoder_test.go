package rangetiff

import (
	"bytes"
	"compress/lzw"
	"image"
	"image/jpeg"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDecoderRegistryHasStandardCodecs(t *testing.T) {
	r := DefaultDecoderRegistry()
	for _, m := range []CompressionMethod{CompressionNone, CompressionDeflate, CompressionOldDeflate, CompressionLZW, CompressionModernJPEG} {
		_, ok := r.Get(m)
		assert.True(t, ok, "expected a decoder registered for %s", m)
	}
	_, ok := r.Get(CompressionPackBits)
	assert.False(t, ok)
}

func TestUncompressedDecoderCopiesBytes(t *testing.T) {
	d := UncompressedDecoder{}
	result := make([]byte, 4)
	err := d.DecodeTile([]byte{1, 2, 3, 4}, result, PhotometricBlackIsZero, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, result)
}

func TestUncompressedDecoderLengthMismatch(t *testing.T) {
	d := UncompressedDecoder{}
	err := d.DecodeTile([]byte{1, 2, 3}, make([]byte, 4), PhotometricBlackIsZero, nil)
	assert.Error(t, err)
}

func TestDeflateDecoderRoundTrip(t *testing.T) {
	original := []byte("some raster pixel bytes, repeated repeated repeated")
	var compressed bytes.Buffer
	w := zlib.NewWriter(&compressed)
	_, err := w.Write(original)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	d := DeflateDecoder{}
	result := make([]byte, len(original))
	err = d.DecodeTile(compressed.Bytes(), result, PhotometricBlackIsZero, nil)
	require.NoError(t, err)
	assert.Equal(t, original, result)
}

func TestLZWDecoderRoundTrip(t *testing.T) {
	original := []byte("aaaaaabbbbbbccccccdddddd")
	var compressed bytes.Buffer
	w := lzw.NewWriter(&compressed, lzw.MSB, 8)
	_, err := w.Write(original)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	d := LZWDecoder{}
	result := make([]byte, len(original))
	err = d.DecodeTile(compressed.Bytes(), result, PhotometricBlackIsZero, nil)
	require.NoError(t, err)
	assert.Equal(t, original, result)
}

func TestJPEGDecoderRejectsUnsupportedInterpretation(t *testing.T) {
	d := JPEGDecoder{}
	err := d.DecodeTile(nil, nil, PhotometricPalette, nil)
	assert.IsType(t, UnsupportedInterpretationError{}, err)
}

// flatYCbCr builds an unsubsampled (4:4:4) JPEG source image so encoding
// introduces no chroma-plane upsampling error, leaving only DCT/quantization
// rounding to tolerate in the round-trip assertions below.
func flatYCbCr(w, h int, y, cb, cr byte) *image.YCbCr {
	return &image.YCbCr{
		Y:              bytes.Repeat([]byte{y}, w*h),
		Cb:             bytes.Repeat([]byte{cb}, w*h),
		Cr:             bytes.Repeat([]byte{cr}, w*h),
		YStride:        w,
		CStride:        w,
		SubsampleRatio: image.YCbCrSubsampleRatio444,
		Rect:           image.Rect(0, 0, w, h),
	}
}

func TestJPEGDecoderRoundTripYCbCr(t *testing.T) {
	const w, h = 8, 8
	img := flatYCbCr(w, h, 180, 60, 120)

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}))

	d := JPEGDecoder{}
	result := make([]byte, w*h*3)
	require.NoError(t, d.DecodeTile(buf.Bytes(), result, PhotometricYCbCr, nil))

	for i := 0; i < w*h; i++ {
		assert.InDelta(t, 180, result[i*3+0], 2)
		assert.InDelta(t, 60, result[i*3+1], 2)
		assert.InDelta(t, 120, result[i*3+2], 2)
	}
}

// TestJPEGDecoderRoundTripRGB exercises forceRGBComponentIDs end to end:
// image/jpeg's encoder has no way to ask for literal, untransformed RGB
// samples, so this patches a freshly encoded frame's component IDs the
// same way DecodeTile does for PhotometricRGB, then asserts the decoded
// samples are the original plane values, not their YCbCr interpretation.
func TestJPEGDecoderRoundTripRGB(t *testing.T) {
	const w, h = 8, 8
	img := flatYCbCr(w, h, 200, 40, 90)

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}))

	d := JPEGDecoder{}
	result := make([]byte, w*h*3)
	require.NoError(t, d.DecodeTile(buf.Bytes(), result, PhotometricRGB, nil))

	for i := 0; i < w*h; i++ {
		assert.InDelta(t, 200, result[i*3+0], 2)
		assert.InDelta(t, 40, result[i*3+1], 2)
		assert.InDelta(t, 90, result[i*3+2], 2)
	}
}

func TestForceRGBComponentIDsRewritesSOF0(t *testing.T) {
	img := flatYCbCr(8, 8, 10, 20, 30)
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}))

	data := append([]byte(nil), buf.Bytes()...)
	forceRGBComponentIDs(data)

	sof0 := bytes.Index(data, []byte{0xFF, 0xC0})
	require.GreaterOrEqual(t, sof0, 0, "encoded stream should contain a baseline SOF0 marker")
	compStart := sof0 + 10
	assert.Equal(t, byte('R'), data[compStart])
	assert.Equal(t, byte('G'), data[compStart+3])
	assert.Equal(t, byte('B'), data[compStart+6])
}

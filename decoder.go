package rangetiff

import (
	"bytes"
	"compress/lzw"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/klauspost/compress/flate"
)

// Decoder decompresses one tile or strip's raw payload into
// resultBuffer, which is sized exactly to hold the chunk's decompressed
// sample bytes. photometricInterpretation and jpegTables are only
// consulted by codecs that need them (currently ModernJPEG).
type Decoder interface {
	DecodeTile(compressed []byte, resultBuffer []byte, photometricInterpretation PhotometricInterpretation, jpegTables []byte) error
}

// DecoderRegistry maps CompressionMethod to the Decoder that handles it.
// Callers may register additional codecs or override the defaults.
type DecoderRegistry struct {
	decoders map[CompressionMethod]Decoder
}

// NewDecoderRegistry returns an empty registry.
func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{decoders: map[CompressionMethod]Decoder{}}
}

// DefaultDecoderRegistry returns a registry pre-populated with the
// codecs this library supports out of the box.
func DefaultDecoderRegistry() *DecoderRegistry {
	r := NewDecoderRegistry()
	r.Register(CompressionNone, UncompressedDecoder{})
	r.Register(CompressionDeflate, DeflateDecoder{})
	r.Register(CompressionOldDeflate, DeflateDecoder{})
	r.Register(CompressionLZW, LZWDecoder{})
	r.Register(CompressionModernJPEG, JPEGDecoder{})
	return r
}

// Register installs decoder as the handler for method, replacing any
// existing registration.
func (r *DecoderRegistry) Register(method CompressionMethod, decoder Decoder) {
	r.decoders[method] = decoder
}

// Get returns the decoder registered for method, if any.
func (r *DecoderRegistry) Get(method CompressionMethod) (Decoder, bool) {
	d, ok := r.decoders[method]
	return d, ok
}

// UncompressedDecoder handles CompressionNone: a straight copy.
type UncompressedDecoder struct{}

func (UncompressedDecoder) DecodeTile(compressed, result []byte, _ PhotometricInterpretation, _ []byte) error {
	if len(compressed) != len(result) {
		return fmt.Errorf("uncompressed tile: expected %d bytes, got %d", len(result), len(compressed))
	}
	copy(result, compressed)
	return nil
}

// DeflateDecoder handles CompressionDeflate and CompressionOldDeflate
// via klauspost/compress's zlib-compatible flate reader.
type DeflateDecoder struct{}

func (DeflateDecoder) DecodeTile(compressed, result []byte, _ PhotometricInterpretation, _ []byte) error {
	// TIFF's Deflate payload is zlib-wrapped: a 2-byte header, the raw
	// deflate stream, then a 4-byte Adler-32 trailer. flate.NewReader
	// decodes the raw stream once the header is skipped.
	if len(compressed) < 2 {
		return EndOfFileError{Requested: 2, Got: len(compressed)}
	}
	fr := flate.NewReader(bytes.NewReader(compressed[2:]))
	defer fr.Close()
	n, err := io.ReadFull(fr, result)
	if err != nil && err != io.ErrUnexpectedEOF {
		return ExternalError{Cause: err}
	}
	if n != len(result) {
		return fmt.Errorf("deflate tile: expected %d bytes, got %d", len(result), n)
	}
	return nil
}

// LZWDecoder handles CompressionLZW using the stdlib's MSB-order, 8-bit
// LZW reader: this is the same codec golang.org/x/image/tiff relies on
// for TIFF's LZW variant, so there is no ecosystem gap to fill here.
type LZWDecoder struct{}

func (LZWDecoder) DecodeTile(compressed, result []byte, _ PhotometricInterpretation, _ []byte) error {
	lr := lzw.NewReader(bytes.NewReader(compressed), lzw.MSB, 8)
	defer lr.Close()
	n, err := io.ReadFull(lr, result)
	if err != nil && err != io.ErrUnexpectedEOF {
		return ExternalError{Cause: err}
	}
	if n != len(result) {
		return fmt.Errorf("lzw tile: expected %d bytes, got %d", len(result), n)
	}
	return nil
}

// JPEGDecoder handles CompressionModernJPEG. When jpegTables is set, the
// tables' encoded bytes are spliced in front of the tile's own JPEG
// stream, with each side's redundant SOI/EOI markers stripped, following
// the JPEGTables field's documented meaning.
type JPEGDecoder struct{}

func (JPEGDecoder) DecodeTile(compressed, result []byte, photometricInterpretation PhotometricInterpretation, jpegTables []byte) error {
	switch photometricInterpretation {
	case PhotometricRGB, PhotometricWhiteIsZero, PhotometricBlackIsZero,
		PhotometricTransparencyMask, PhotometricCMYK, PhotometricYCbCr:
	default:
		return UnsupportedInterpretationError{Interpretation: photometricInterpretation}
	}

	var stream []byte
	if len(jpegTables) >= 2 {
		// jpegTables ends with its own EOI (0xFFD9); the tile's own stream
		// begins with a redundant SOI (0xFFD8) that would otherwise confuse
		// the decoder once the tables are prepended.
		tables := jpegTables[:len(jpegTables)-2]
		if len(compressed) < 2 {
			return EndOfFileError{Requested: 2, Got: len(compressed)}
		}
		stream = make([]byte, 0, len(tables)+len(compressed)-2)
		stream = append(stream, tables...)
		stream = append(stream, compressed[2:]...)
	} else {
		stream = append([]byte(nil), compressed...)
	}

	// image/jpeg hardcodes any 3-component frame as YCbCr unless the SOF0
	// component IDs spell "RGB" — its only color-transform override knob.
	// BlackIsZero/WhiteIsZero/TransparencyMask/CMYK/YCbCr already match the
	// stdlib decoder's own defaults, so only RGB needs forcing.
	if photometricInterpretation == PhotometricRGB {
		forceRGBComponentIDs(stream)
	}

	img, err := jpeg.Decode(bytes.NewReader(stream))
	if err != nil {
		return ExternalError{Cause: err}
	}
	data, err := pixelBytes(img)
	if err != nil {
		return err
	}
	if len(data) != len(result) {
		return fmt.Errorf("jpeg tile: expected %d bytes, got %d", len(result), len(data))
	}
	copy(result, data)
	return nil
}

// forceRGBComponentIDs rewrites a baseline (SOF0) JPEG stream's component
// IDs to ASCII 'R', 'G', 'B' in place. image/jpeg otherwise assumes any
// 3-component frame is YCbCr; spelling the IDs "RGB" is the documented way
// to steer it to the identity transform instead.
func forceRGBComponentIDs(data []byte) {
	pos := 0
	for pos+1 < len(data) {
		if data[pos] != 0xFF {
			pos++
			continue
		}
		marker := data[pos+1]
		switch {
		case marker == 0x00 || marker == 0xFF:
			pos += 2
			continue
		case marker == 0xD8 || marker == 0xD9 || (marker >= 0xD0 && marker <= 0xD7):
			// SOI/EOI/RSTn carry no length field.
			pos += 2
			continue
		case marker == 0xDA:
			// Start of scan: SOF0 (if present) has already been seen.
			return
		}
		if pos+4 > len(data) {
			return
		}
		segLen := int(data[pos+2])<<8 | int(data[pos+3])
		if marker == 0xC0 {
			numComponentsOffset := pos + 9
			compStart := pos + 10
			if numComponentsOffset >= len(data) {
				return
			}
			numComponents := int(data[numComponentsOffset])
			for i := 0; i < numComponents && i < 3; i++ {
				idx := compStart + i*3
				if idx >= len(data) {
					return
				}
				data[idx] = "RGB"[i]
			}
			return
		}
		pos += 2 + segLen
	}
}

// pixelBytes extracts a tightly packed sample buffer from a decoded
// JPEG image, in the same sample order TIFF expects (no stride padding).
func pixelBytes(img image.Image) ([]byte, error) {
	switch im := img.(type) {
	case *image.Gray:
		return packPlanar(im.Pix, im.Stride, im.Rect, 1), nil
	case *image.YCbCr:
		return packYCbCr(im), nil
	case *image.CMYK:
		return packPlanar(im.Pix, im.Stride, im.Rect, 4), nil
	case *image.RGBA:
		// image/jpeg returns *image.RGBA for a baseline 3-component frame
		// whose SOF0 component IDs spell "RGB" (forceRGBComponentIDs'
		// target shape); the decoded pixels carry a synthesized alpha byte
		// TIFF's RGB samples don't, so it is dropped here.
		return packRGBA(im), nil
	default:
		return nil, fmt.Errorf("unsupported decoded JPEG pixel format %T", img)
	}
}

func packRGBA(im *image.RGBA) []byte {
	width := im.Rect.Dx()
	height := im.Rect.Dy()
	out := make([]byte, 0, width*height*3)
	for y := 0; y < height; y++ {
		row := im.Pix[y*im.Stride : y*im.Stride+width*4]
		for x := 0; x < width; x++ {
			out = append(out, row[x*4], row[x*4+1], row[x*4+2])
		}
	}
	return out
}

func packPlanar(pix []byte, stride int, rect image.Rectangle, samples int) []byte {
	width := rect.Dx()
	height := rect.Dy()
	out := make([]byte, 0, width*height*samples)
	for y := 0; y < height; y++ {
		row := pix[y*stride : y*stride+width*samples]
		out = append(out, row...)
	}
	return out
}

func packYCbCr(im *image.YCbCr) []byte {
	width := im.Rect.Dx()
	height := im.Rect.Dy()
	out := make([]byte, 0, width*height*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			yi := im.YOffset(x+im.Rect.Min.X, y+im.Rect.Min.Y)
			ci := im.COffset(x+im.Rect.Min.X, y+im.Rect.Min.Y)
			out = append(out, im.Y[yi], im.Cb[ci], im.Cr[ci])
		}
	}
	return out
}

package rangetiff

import (
	"encoding/binary"
	"fmt"
	"math"
)

// PredictorInfo is the compact, derived geometry a predictor needs to
// reverse its transform: enough to know a chunk's nominal and actual
// (edge-cropped) pixel dimensions without re-deriving them from a full
// ImageFileDirectory.
type PredictorInfo struct {
	Endianness Endianness
	Tiled      bool

	ImageWidth, ImageHeight uint64
	ChunkWidth, ChunkHeight uint64

	BitsPerSample       uint16
	SamplesPerPixel     uint16
	SampleFormat        SampleFormat
	PlanarConfiguration PlanarConfiguration
}

// NewPredictorInfo derives a PredictorInfo from an already-constructed
// IFD. endianness comes from the file header, which ImageFileDirectory
// itself does not retain.
func NewPredictorInfo(ifd *ImageFileDirectory, endianness Endianness) PredictorInfo {
	var bitsPerSample uint16
	if len(ifd.BitsPerSample) > 0 {
		bitsPerSample = ifd.BitsPerSample[0]
	}
	sampleFormat := SampleFormatUint
	if len(ifd.SampleFormat) > 0 {
		sampleFormat = ifd.SampleFormat[0]
	}
	return PredictorInfo{
		Endianness:          endianness,
		Tiled:               ifd.IsTiled(),
		ImageWidth:          ifd.ImageWidth,
		ImageHeight:         ifd.ImageHeight,
		ChunkWidth:          ifd.ChunkWidth(),
		ChunkHeight:         ifd.ChunkHeight(),
		BitsPerSample:       bitsPerSample,
		SamplesPerPixel:     ifd.SamplesPerPixel,
		SampleFormat:        sampleFormat,
		PlanarConfiguration: ifd.PlanarConfiguration,
	}
}

func (info PredictorInfo) chunksAcross() int {
	return int(math.Ceil(float64(info.ImageWidth) / float64(info.ChunkWidth)))
}

func (info PredictorInfo) chunksDown() int {
	return int(math.Ceil(float64(info.ImageHeight) / float64(info.ChunkHeight)))
}

// ChunkWidthPixels is the actual (non-padded) pixel width of chunk column
// x: equal to ChunkWidth except for the rightmost column, which may be
// narrower.
func (info PredictorInfo) ChunkWidthPixels(x int) (uint64, error) {
	across := info.chunksAcross()
	if x < 0 || x >= across {
		return 0, TileIndexError{Index: x, Bound: across}
	}
	if x == across-1 {
		return info.ImageWidth - info.ChunkWidth*uint64(x), nil
	}
	return info.ChunkWidth, nil
}

// ChunkHeightPixels is the actual pixel height of chunk row y.
func (info PredictorInfo) ChunkHeightPixels(y int) (uint64, error) {
	down := info.chunksDown()
	if y < 0 || y >= down {
		return 0, TileIndexError{Index: y, Bound: down}
	}
	if y == down-1 {
		return info.ImageHeight - info.ChunkHeight*uint64(y), nil
	}
	return info.ChunkHeight, nil
}

// bitsPerPixel is the per-sample-group bit width used to size a row:
// under Planar configuration each chunk holds one sample's plane, so the
// extra samples show up as extra rows (see planes) rather than wider
// rows.
func (info PredictorInfo) bitsPerPixel() int {
	if info.PlanarConfiguration == PlanarConfigurationPlanar {
		return int(info.BitsPerSample)
	}
	return int(info.BitsPerSample) * int(info.SamplesPerPixel)
}

// sampleStride is the element stride a predictor looks back across when
// reversing horizontal differencing: the full interleaved sample count
// for Chunky data, or 1 for Planar data (already split one sample per
// chunk).
func (info PredictorInfo) sampleStride() int {
	if info.PlanarConfiguration == PlanarConfigurationPlanar {
		return 1
	}
	return int(info.SamplesPerPixel)
}

func (info PredictorInfo) planes() int {
	if info.PlanarConfiguration == PlanarConfigurationPlanar {
		return int(info.SamplesPerPixel)
	}
	return 1
}

// OutputRowStride is the byte width of one actual (cropped) pixel row.
func (info PredictorInfo) OutputRowStride(x int) (uint64, error) {
	w, err := info.ChunkWidthPixels(x)
	if err != nil {
		return 0, err
	}
	return w * uint64(info.bitsPerPixel()) / 8, nil
}

// OutputRows is the number of actual (cropped) rows a chunk decodes to,
// folding in the extra per-plane rows of a Planar image.
func (info PredictorInfo) OutputRows(y int) (uint64, error) {
	h, err := info.ChunkHeightPixels(y)
	if err != nil {
		return 0, err
	}
	return h * uint64(info.planes()), nil
}

// DecodeDimensions is the width/height, in pixels, a codec must
// decompress into before predictor inversion. Tiles are always stored at
// their nominal, possibly zero-padded size (the TIFF tiling convention);
// a stripped image's final strip, by contrast, is stored at its true,
// un-padded row count, since strips are never padded.
func (info PredictorInfo) DecodeDimensions(x, y int) (width, height uint64, err error) {
	planes := uint64(info.planes())
	if info.Tiled {
		return info.ChunkWidth, info.ChunkHeight * planes, nil
	}
	h, err := info.ChunkHeightPixels(y)
	if err != nil {
		return 0, 0, err
	}
	return info.ChunkWidth, h * planes, nil
}

// DecodeByteSize is the number of bytes a codec must write for chunk
// (x, y), prior to predictor inversion and edge cropping.
func (info PredictorInfo) DecodeByteSize(x, y int) (uint64, error) {
	w, h, err := info.DecodeDimensions(x, y)
	if err != nil {
		return 0, err
	}
	return w * h * uint64(info.bitsPerPixel()) / 8, nil
}

// PredictorImpl reverses a predictor transform in place over a
// freshly-decompressed chunk buffer (sized per DecodeByteSize) and
// returns the actual, edge-cropped pixel bytes.
type PredictorImpl interface {
	Revert(buf []byte, info PredictorInfo, x, y int) ([]byte, error)
}

// PredictorRegistry maps Predictor to the PredictorImpl that reverses it.
type PredictorRegistry struct {
	predictors map[Predictor]PredictorImpl
}

// NewPredictorRegistry returns an empty registry.
func NewPredictorRegistry() *PredictorRegistry {
	return &PredictorRegistry{predictors: map[Predictor]PredictorImpl{}}
}

// DefaultPredictorRegistry returns a registry with the three standard
// predictors registered.
func DefaultPredictorRegistry() *PredictorRegistry {
	r := NewPredictorRegistry()
	r.Register(PredictorNone, NonePredictor{})
	r.Register(PredictorHorizontal, HorizontalPredictor{})
	r.Register(PredictorFloatingPoint, FloatingPointPredictor{})
	return r
}

// Register installs impl as the handler for p, replacing any existing
// registration.
func (r *PredictorRegistry) Register(p Predictor, impl PredictorImpl) {
	r.predictors[p] = impl
}

// Get returns the PredictorImpl registered for p, if any.
func (r *PredictorRegistry) Get(p Predictor) (PredictorImpl, bool) {
	impl, ok := r.predictors[p]
	return impl, ok
}

// fixEndianness swaps a buffer of multi-byte samples from file byte
// order into the host's native order. A no-op for 8-bit-or-narrower
// samples and whenever the file already matches the host.
func fixEndianness(buffer []byte, endianness Endianness, bitDepth uint16) {
	order := endianness.ByteOrder()
	switch {
	case bitDepth <= 8:
		return
	case bitDepth <= 16:
		for i := 0; i+2 <= len(buffer); i += 2 {
			v := order.Uint16(buffer[i:])
			binary.NativeEndian.PutUint16(buffer[i:], v)
		}
	case bitDepth <= 32:
		for i := 0; i+4 <= len(buffer); i += 4 {
			v := order.Uint32(buffer[i:])
			binary.NativeEndian.PutUint32(buffer[i:], v)
		}
	default:
		for i := 0; i+8 <= len(buffer); i += 8 {
			v := order.Uint64(buffer[i:])
			binary.NativeEndian.PutUint64(buffer[i:], v)
		}
	}
}

// revHPredictNSamp reverses horizontal differencing over one output row,
// already in host byte order, at the given element width.
func revHPredictNSamp(buf []byte, bitDepth uint16, samples int) {
	switch {
	case bitDepth <= 8:
		for i := samples; i < len(buf); i++ {
			buf[i] = buf[i] + buf[i-samples]
		}
	case bitDepth <= 16:
		stride := samples * 2
		for i := stride; i+2 <= len(buf); i += 2 {
			v := binary.NativeEndian.Uint16(buf[i:])
			p := binary.NativeEndian.Uint16(buf[i-stride:])
			binary.NativeEndian.PutUint16(buf[i:], v+p)
		}
	case bitDepth <= 32:
		stride := samples * 4
		for i := stride; i+4 <= len(buf); i += 4 {
			v := binary.NativeEndian.Uint32(buf[i:])
			p := binary.NativeEndian.Uint32(buf[i-stride:])
			binary.NativeEndian.PutUint32(buf[i:], v+p)
		}
	default:
		stride := samples * 8
		for i := stride; i+8 <= len(buf); i += 8 {
			v := binary.NativeEndian.Uint64(buf[i:])
			p := binary.NativeEndian.Uint64(buf[i-stride:])
			binary.NativeEndian.PutUint64(buf[i:], v+p)
		}
	}
}

// cropChunk trims a decoded chunk buffer, row by row, from its decode
// (nominal/padded) row stride down to the actual output row stride.
func cropChunk(buf []byte, info PredictorInfo, x, y int) ([]byte, error) {
	decodeWidth, _, err := info.DecodeDimensions(x, y)
	if err != nil {
		return nil, err
	}
	outWidth, err := info.ChunkWidthPixels(x)
	if err != nil {
		return nil, err
	}
	outRows, err := info.OutputRows(y)
	if err != nil {
		return nil, err
	}
	bpp := info.bitsPerPixel()
	fullRowStride := int(decodeWidth) * bpp / 8
	outRowStride := int(outWidth) * bpp / 8

	if fullRowStride == outRowStride {
		end := outRowStride * int(outRows)
		if end > len(buf) {
			return nil, fmt.Errorf("cropChunk: buffer too short: need %d, have %d", end, len(buf))
		}
		return buf[:end], nil
	}
	out := make([]byte, outRowStride*int(outRows))
	for r := 0; r < int(outRows); r++ {
		src := buf[r*fullRowStride : r*fullRowStride+outRowStride]
		copy(out[r*outRowStride:(r+1)*outRowStride], src)
	}
	return out, nil
}

// NonePredictor applies no transform beyond endianness fix-up.
type NonePredictor struct{}

func (NonePredictor) Revert(buf []byte, info PredictorInfo, x, y int) ([]byte, error) {
	fixEndianness(buf, info.Endianness, info.BitsPerSample)
	return cropChunk(buf, info, x, y)
}

// HorizontalPredictor reverses per-row differencing between
// horizontally adjacent samples of the same channel.
type HorizontalPredictor struct{}

func (HorizontalPredictor) Revert(buf []byte, info PredictorInfo, x, y int) ([]byte, error) {
	decodeWidth, _, err := info.DecodeDimensions(x, y)
	if err != nil {
		return nil, err
	}
	bitDepth := info.BitsPerSample
	fixEndianness(buf, info.Endianness, bitDepth)

	fullRowStride := int(decodeWidth) * info.bitsPerPixel() / 8
	samples := info.sampleStride()
	for off := 0; off+fullRowStride <= len(buf); off += fullRowStride {
		revHPredictNSamp(buf[off:off+fullRowStride], bitDepth, samples)
	}
	return cropChunk(buf, info, x, y)
}

// FloatingPointPredictor reverses the byte-shuffle-plus-horizontal-diff
// transform TIFF uses for floating point samples: the on-disk row is all
// of each value's most-significant byte, then all of the next, and so
// on, always in big-endian plane order regardless of file endianness.
type FloatingPointPredictor struct{}

func (FloatingPointPredictor) Revert(buf []byte, info PredictorInfo, x, y int) ([]byte, error) {
	var bytesPerSample int
	switch info.BitsPerSample {
	case 16, 32, 64:
		bytesPerSample = int(info.BitsPerSample) / 8
	default:
		return nil, UnsupportedBitsPerChannelError{BitsPerSample: info.BitsPerSample}
	}

	decodeWidth, decodeHeight, err := info.DecodeDimensions(x, y)
	if err != nil {
		return nil, err
	}
	outWidth, err := info.ChunkWidthPixels(x)
	if err != nil {
		return nil, err
	}
	outRows, err := info.OutputRows(y)
	if err != nil {
		return nil, err
	}

	samples := info.sampleStride()
	fullRowStride := int(decodeWidth) * samples * bytesPerSample
	outRowStride := int(outWidth) * samples * bytesPerSample

	if int(decodeHeight) < int(outRows) {
		return nil, fmt.Errorf("floating point predictor: decoded %d rows, need %d", decodeHeight, outRows)
	}

	out := make([]byte, outRowStride*int(outRows))
	for r := 0; r < int(outRows); r++ {
		inRow := buf[r*fullRowStride : (r+1)*fullRowStride]
		if outRowStride == fullRowStride {
			revPredictFloat(inRow, out[r*outRowStride:(r+1)*outRowStride], samples, bytesPerSample)
			continue
		}
		full := make([]byte, fullRowStride)
		revPredictFloat(inRow, full, samples, bytesPerSample)
		copy(out[r*outRowStride:(r+1)*outRowStride], full[:outRowStride])
	}
	return out, nil
}

// revPredictFloat reverses one row's byte-level horizontal differencing
// (stride = samples, operating on the still-shuffled bytes) and then
// de-shuffles the byte planes back into bytesPerSample-wide, host-endian
// values.
func revPredictFloat(input, output []byte, samples, bytesPerSample int) {
	for i := samples; i < len(input); i++ {
		input[i] = input[i] + input[i-samples]
	}

	planeLen := len(output) / bytesPerSample
	var wide [8]byte
	for i := 0; i < planeLen; i++ {
		for b := 0; b < bytesPerSample; b++ {
			wide[b] = input[planeLen*b+i]
		}
		switch bytesPerSample {
		case 2:
			v := binary.BigEndian.Uint16(wide[:2])
			binary.NativeEndian.PutUint16(output[i*2:], v)
		case 4:
			v := binary.BigEndian.Uint32(wide[:4])
			binary.NativeEndian.PutUint32(output[i*4:], v)
		case 8:
			v := binary.BigEndian.Uint64(wide[:8])
			binary.NativeEndian.PutUint64(output[i*8:], v)
		}
	}
}

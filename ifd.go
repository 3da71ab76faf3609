package rangetiff

import "fmt"

// ImageFileDirectory is the typed metadata record for one TIFF image
// plane. Constructed by FromTags once IfdReader has collected every tag
// in the directory.
type ImageFileDirectory struct {
	ImageWidth, ImageHeight   uint64
	BitsPerSample             []uint16
	Compression               CompressionMethod
	PhotometricInterpretation PhotometricInterpretation
	SamplesPerPixel           uint16
	PlanarConfiguration       PlanarConfiguration
	Predictor                 Predictor
	SampleFormat              []SampleFormat

	RowsPerStrip    uint64
	StripOffsets    []uint64
	StripByteCounts []uint64

	TileWidth, TileHeight uint64
	TileOffsets           []uint64
	TileByteCounts        []uint64

	ImageDescription         string
	XResolution, YResolution float64
	JPEGTables               []byte

	ModelPixelScale []float64
	ModelTiepoint   []float64
	GeoKeyDirectory *GeoKeyDirectory

	OtherTags     map[Tag]Value
	NextIFDOffset *uint64
}

// IsTiled reports whether this IFD describes tiled (rather than
// stripped) image data.
func (ifd *ImageFileDirectory) IsTiled() bool {
	return ifd.TileOffsets != nil
}

// ChunkWidth and ChunkHeight are the nominal (non-edge) dimensions of one
// tile or strip.
func (ifd *ImageFileDirectory) ChunkWidth() uint64 {
	if ifd.IsTiled() {
		return ifd.TileWidth
	}
	return ifd.ImageWidth
}

func (ifd *ImageFileDirectory) ChunkHeight() uint64 {
	if ifd.IsTiled() {
		return ifd.TileHeight
	}
	return ifd.RowsPerStrip
}

// FromTags folds a tag->Value map collected by IfdReader into a typed
// ImageFileDirectory, applying defaults and enforcing the construction
// invariants required for a directory to describe a decodable image.
func FromTags(tags map[Tag]Value) (*ImageFileDirectory, error) {
	ifd := &ImageFileDirectory{
		Compression:         CompressionNone,
		PlanarConfiguration: PlanarConfigurationChunky,
		Predictor:           PredictorNone,
		OtherTags:           map[Tag]Value{},
	}

	imageWidth, err := requireUint64(tags, TagImageWidth)
	if err != nil {
		return nil, err
	}
	ifd.ImageWidth = imageWidth

	imageHeight, err := requireUint64(tags, TagImageLength)
	if err != nil {
		return nil, err
	}
	ifd.ImageHeight = imageHeight

	bps, err := requireUint16List(tags, TagBitsPerSample)
	if err != nil {
		return nil, err
	}
	ifd.BitsPerSample = bps

	photo, ok := tags[TagPhotometricInterpretation]
	if !ok {
		return nil, RequiredTagNotFoundError{Tag: TagPhotometricInterpretation}
	}
	p, err := asUint64(photo)
	if err != nil {
		return nil, fmt.Errorf("tag %s: %w", TagPhotometricInterpretation, err)
	}
	ifd.PhotometricInterpretation = PhotometricInterpretation(p)

	samplesPerPixel, err := requireUint64(tags, TagSamplesPerPixel)
	if err != nil {
		return nil, err
	}
	ifd.SamplesPerPixel = uint16(samplesPerPixel)

	if len(ifd.BitsPerSample) == 0 {
		return nil, InvalidTagValueError{Tag: TagBitsPerSample, Reason: "must have at least one value"}
	}
	if len(ifd.BitsPerSample) != 1 && len(ifd.BitsPerSample) != int(ifd.SamplesPerPixel) {
		return nil, InvalidTagValueError{Tag: TagBitsPerSample, Reason: "length must be 1 or equal to SamplesPerPixel"}
	}
	for _, b := range ifd.BitsPerSample[1:] {
		if b != ifd.BitsPerSample[0] {
			return nil, InvalidTagValueError{Tag: TagBitsPerSample, Reason: "mixed bit depths within one image are unsupported"}
		}
	}

	if v, ok := tags[TagCompression]; ok {
		c, err := asUint64(v)
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", TagCompression, err)
		}
		ifd.Compression = CompressionMethod(c)
	}

	if v, ok := tags[TagPlanarConfiguration]; ok {
		c, err := asUint64(v)
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", TagPlanarConfiguration, err)
		}
		ifd.PlanarConfiguration = PlanarConfiguration(c)
	}

	if v, ok := tags[TagPredictor]; ok {
		c, err := asUint64(v)
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", TagPredictor, err)
		}
		ifd.Predictor = Predictor(c)
	} else {
		ifd.Predictor = PredictorNone
	}

	if v, ok := tags[TagSampleFormat]; ok {
		list, err := asUint64List(v)
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", TagSampleFormat, err)
		}
		ifd.SampleFormat = make([]SampleFormat, len(list))
		for i, x := range list {
			ifd.SampleFormat[i] = SampleFormat(x)
		}
	} else {
		ifd.SampleFormat = make([]SampleFormat, ifd.SamplesPerPixel)
		for i := range ifd.SampleFormat {
			ifd.SampleFormat[i] = SampleFormatUint
		}
	}

	stripOffsets, hasStrips, err := optionalUint64List(tags, TagStripOffsets)
	if err != nil {
		return nil, err
	}
	stripByteCounts, _, err := optionalUint64List(tags, TagStripByteCounts)
	if err != nil {
		return nil, err
	}
	tileOffsets, hasTiles, err := optionalUint64List(tags, TagTileOffsets)
	if err != nil {
		return nil, err
	}
	tileByteCounts, _, err := optionalUint64List(tags, TagTileByteCounts)
	if err != nil {
		return nil, err
	}

	if hasStrips == hasTiles {
		return nil, InvalidTagValueError{Reason: "exactly one of strip or tile offsets must be populated"}
	}

	if hasStrips {
		if len(stripOffsets) != len(stripByteCounts) {
			return nil, InvalidTagValueError{Tag: TagStripOffsets, Reason: "StripOffsets and StripByteCounts must have equal length"}
		}
		ifd.StripOffsets = stripOffsets
		ifd.StripByteCounts = stripByteCounts
		rps, err := requireUint64(tags, TagRowsPerStrip)
		if err != nil {
			return nil, err
		}
		ifd.RowsPerStrip = rps
	} else {
		if len(tileOffsets) != len(tileByteCounts) {
			return nil, InvalidTagValueError{Tag: TagTileOffsets, Reason: "TileOffsets and TileByteCounts must have equal length"}
		}
		ifd.TileOffsets = tileOffsets
		ifd.TileByteCounts = tileByteCounts
		tw, err := requireUint64(tags, TagTileWidth)
		if err != nil {
			return nil, err
		}
		th, err := requireUint64(tags, TagTileLength)
		if err != nil {
			return nil, err
		}
		ifd.TileWidth, ifd.TileHeight = tw, th
	}

	if v, ok := tags[TagXResolution]; ok {
		if r, ok := v.(ValRational); ok {
			ifd.XResolution = r.Float64()
		}
	}
	if v, ok := tags[TagYResolution]; ok {
		if r, ok := v.(ValRational); ok {
			ifd.YResolution = r.Float64()
		}
	}
	if v, ok := tags[TagImageDescription]; ok {
		if s, ok := v.(ValAscii); ok {
			ifd.ImageDescription = string(s)
		}
	}
	if v, ok := tags[TagJPEGTables]; ok {
		b, err := asByteSlice(v)
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", TagJPEGTables, err)
		}
		ifd.JPEGTables = b
	}
	if v, ok := tags[TagModelPixelScaleTag]; ok {
		f, err := asFloat64List(v)
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", TagModelPixelScaleTag, err)
		}
		ifd.ModelPixelScale = f
	}
	if v, ok := tags[TagModelTiepointTag]; ok {
		f, err := asFloat64List(v)
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", TagModelTiepointTag, err)
		}
		ifd.ModelTiepoint = f
	}

	// GeoKeyDirectoryTag is parsed last, since it may reference values
	// held in GeoAsciiParamsTag/GeoDoubleParamsTag, which must already be
	// present in the map.
	if v, ok := tags[TagGeoKeyDirectoryTag]; ok {
		raw, err := asUint16List(v)
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", TagGeoKeyDirectoryTag, err)
		}
		var asciiParams string
		if av, ok := tags[TagGeoAsciiParamsTag]; ok {
			if s, ok := av.(ValAscii); ok {
				asciiParams = string(s)
			}
		}
		var doubleParams []float64
		if dv, ok := tags[TagGeoDoubleParamsTag]; ok {
			doubleParams, err = asFloat64List(dv)
			if err != nil {
				return nil, fmt.Errorf("tag %s: %w", TagGeoDoubleParamsTag, err)
			}
		}
		gkd, err := ParseGeoKeyDirectory(raw, asciiParams, doubleParams)
		if err != nil {
			return nil, err
		}
		ifd.GeoKeyDirectory = gkd
	}

	known := map[Tag]struct{}{
		TagImageWidth: {}, TagImageLength: {}, TagBitsPerSample: {}, TagCompression: {},
		TagPhotometricInterpretation: {}, TagSamplesPerPixel: {}, TagPlanarConfiguration: {},
		TagPredictor: {}, TagSampleFormat: {}, TagStripOffsets: {}, TagStripByteCounts: {},
		TagRowsPerStrip: {}, TagTileOffsets: {}, TagTileByteCounts: {}, TagTileWidth: {}, TagTileLength: {},
		TagXResolution: {}, TagYResolution: {}, TagImageDescription: {}, TagJPEGTables: {},
		TagModelPixelScaleTag: {}, TagModelTiepointTag: {}, TagGeoKeyDirectoryTag: {},
		TagGeoAsciiParamsTag: {}, TagGeoDoubleParamsTag: {},
	}
	for t, v := range tags {
		if _, ok := known[t]; !ok {
			ifd.OtherTags[t] = v
		}
	}

	return ifd, nil
}

package rangetiff

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TIFF is an opened file's parsed metadata plus everything needed to
// fetch and decode its tiles or strips on demand.
type TIFF struct {
	source ByteSource
	header *FileHeader
	ifds   []*ImageFileDirectory

	decoders   *DecoderRegistry
	predictors *PredictorRegistry
	logger     *zap.Logger
}

// TiffOption configures Open.
type TiffOption func(o *tiffOptions) error

type tiffOptions struct {
	prefetch   uint64
	logger     *zap.Logger
	decoders   *DecoderRegistry
	predictors *PredictorRegistry
}

// WithPrefetch wraps the given ByteSource in a PrefetchCache that eagerly
// reads the first n bytes of the file, serving the header and IFD chain
// from memory when they fit inside it.
func WithPrefetch(n uint64) TiffOption {
	return func(o *tiffOptions) error {
		if n == 0 {
			return ErrInvalidOption{Msg: "prefetch size must be >=1"}
		}
		o.prefetch = n
		return nil
	}
}

// WithLogger sets the logger used for per-IFD and per-fetch debug output.
// Defaults to zap.NewNop() if never set.
func WithLogger(logger *zap.Logger) TiffOption {
	return func(o *tiffOptions) error {
		if logger == nil {
			return ErrInvalidOption{Msg: "logger must not be nil"}
		}
		o.logger = logger
		return nil
	}
}

// WithDecoderRegistry overrides the default set of compression codecs.
func WithDecoderRegistry(r *DecoderRegistry) TiffOption {
	return func(o *tiffOptions) error {
		if r == nil {
			return ErrInvalidOption{Msg: "decoder registry must not be nil"}
		}
		o.decoders = r
		return nil
	}
}

// WithPredictorRegistry overrides the default set of predictors.
func WithPredictorRegistry(r *PredictorRegistry) TiffOption {
	return func(o *tiffOptions) error {
		if r == nil {
			return ErrInvalidOption{Msg: "predictor registry must not be nil"}
		}
		o.predictors = r
		return nil
	}
}

// Open reads source's header and IFD chain and returns a TIFF ready to
// serve tile/strip fetches.
func Open(ctx context.Context, source ByteSource, opts ...TiffOption) (*TIFF, error) {
	o := &tiffOptions{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.decoders == nil {
		o.decoders = DefaultDecoderRegistry()
	}
	if o.predictors == nil {
		o.predictors = DefaultPredictorRegistry()
	}

	metadataSource := source
	if o.prefetch > 0 {
		cache, err := NewPrefetchCache(ctx, source, o.prefetch)
		if err != nil {
			return nil, fmt.Errorf("prefetch: %w", err)
		}
		metadataSource = cache
	}

	header, err := ReadHeader(ctx, metadataSource)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	o.logger.Debug("opened TIFF",
		zap.String("endianness", header.Endianness.String()),
		zap.Bool("bigtiff", header.BigTiff),
		zap.Uint64("first_ifd_offset", header.FirstIFDOffset),
	)

	ifds, err := ReadIFDs(ctx, metadataSource, header, o.logger)
	if err != nil {
		return nil, fmt.Errorf("read IFDs: %w", err)
	}

	return &TIFF{
		source:     source,
		header:     header,
		ifds:       ifds,
		decoders:   o.decoders,
		predictors: o.predictors,
		logger:     o.logger,
	}, nil
}

// IFDs returns every directory found while opening the file, in file
// order (IFD 0 is conventionally the full-resolution image).
func (t *TIFF) IFDs() []*ImageFileDirectory {
	return t.ifds
}

// Decoders returns the registry used to decompress tile/strip payloads,
// for callers that want to Register additional codecs before decoding.
func (t *TIFF) Decoders() *DecoderRegistry {
	return t.decoders
}

// Predictors returns the registry used to reverse predictor transforms.
func (t *TIFF) Predictors() *PredictorRegistry {
	return t.predictors
}

func (t *TIFF) ifdAt(z int) (*ImageFileDirectory, error) {
	if z < 0 || z >= len(t.ifds) {
		return nil, TileIndexError{Index: z, Bound: len(t.ifds)}
	}
	return t.ifds[z], nil
}

func (t *TIFF) newTile(ifd *ImageFileDirectory, x, y int, compressed []byte) *Tile {
	return &Tile{
		X: x, Y: y,
		Predictor:                 ifd.Predictor,
		PredictorInfo:             NewPredictorInfo(ifd, t.header.Endianness),
		CompressedBytes:           compressed,
		CompressionMethod:         ifd.Compression,
		PhotometricInterpretation: ifd.PhotometricInterpretation,
		JPEGTables:                ifd.JPEGTables,
	}
}

// FetchTile fetches the compressed bytes of the tile or strip at column
// x, row y within IFD z (its decoding is left to the caller via
// (*Tile).Decode, so image fetches never block on CPU-bound work).
func (t *TIFF) FetchTile(ctx context.Context, x, y, z int) (*Tile, error) {
	ifd, err := t.ifdAt(z)
	if err != nil {
		return nil, err
	}
	r, err := ifd.ChunkByteRange(x, y)
	if err != nil {
		return nil, err
	}
	compressed, err := t.source.Fetch(ctx, r)
	if err != nil {
		return nil, err
	}
	return t.newTile(ifd, x, y, compressed), nil
}

// FetchTiles fetches the compressed bytes of every (xs[i], ys[i]) tile
// in IFD z with a single batched ByteSource.FetchMany call, returning
// Tiles in the same order as the input coordinates.
func (t *TIFF) FetchTiles(ctx context.Context, xs, ys []int, z int) ([]*Tile, error) {
	if len(xs) != len(ys) {
		return nil, ErrMismatchedCoordinates
	}
	ifd, err := t.ifdAt(z)
	if err != nil {
		return nil, err
	}

	batchID := uuid.New()
	t.logger.Debug("fetching tile batch",
		zap.String("batch_id", batchID.String()),
		zap.Int("count", len(xs)),
		zap.Int("ifd", z),
	)

	ranges := make([]Range, len(xs))
	for i := range xs {
		r, err := ifd.ChunkByteRange(xs[i], ys[i])
		if err != nil {
			return nil, fmt.Errorf("tile %d (%d,%d): %w", i, xs[i], ys[i], err)
		}
		ranges[i] = r
	}

	buffers, err := t.source.FetchMany(ctx, ranges)
	if err != nil {
		return nil, fmt.Errorf("batch %s: %w", batchID, err)
	}

	tiles := make([]*Tile, len(xs))
	for i := range xs {
		tiles[i] = t.newTile(ifd, xs[i], ys[i], buffers[i])
	}
	return tiles, nil
}

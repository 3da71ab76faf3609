package rangetiff

// Tile is one compressed chunk of image data plus the metadata needed to
// decompress and un-predict it. Fetching and decoding are kept separate
// so that decoding, a synchronous CPU-bound step, never blocks on I/O.
type Tile struct {
	X, Y int

	Predictor     Predictor
	PredictorInfo PredictorInfo

	CompressedBytes           []byte
	CompressionMethod         CompressionMethod
	PhotometricInterpretation PhotometricInterpretation
	JPEGTables                []byte
}

// Decode decompresses and un-predicts this tile's bytes, returning its
// raw, row-major pixel bytes.
func (t *Tile) Decode(decoders *DecoderRegistry, predictors *PredictorRegistry) ([]byte, error) {
	decoder, ok := decoders.Get(t.CompressionMethod)
	if !ok {
		return nil, UnsupportedCompressionError{Method: t.CompressionMethod}
	}

	size, err := t.PredictorInfo.DecodeByteSize(t.X, t.Y)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if err := decoder.DecodeTile(t.CompressedBytes, buf, t.PhotometricInterpretation, t.JPEGTables); err != nil {
		return nil, err
	}

	predictor, ok := predictors.Get(t.Predictor)
	if !ok {
		return nil, UnsupportedPredictorError{Predictor: t.Predictor}
	}
	return predictor.Revert(buf, t.PredictorInfo, t.X, t.Y)
}

package rangetiff

import "fmt"

// EndOfFileError is returned by a ByteSource when it yields fewer bytes
// than were requested.
type EndOfFileError struct {
	Requested int
	Got       int
}

func (e EndOfFileError) Error() string {
	return fmt.Sprintf("end of file: expected to read %d bytes, got %d", e.Requested, e.Got)
}

// ExternalError wraps a transport/integration failure coming from a
// ByteSource implementation.
type ExternalError struct {
	Cause error
}

func (e ExternalError) Error() string {
	return fmt.Sprintf("external error: %v", e.Cause)
}

func (e ExternalError) Unwrap() error {
	return e.Cause
}

// TiffSignatureInvalidError is returned when the two-byte magic at the
// start of the file is neither "II" nor "MM", or when the version number
// that follows it is neither 42 (classic) nor 43 (BigTIFF). Version is 0
// when the magic itself was rejected.
type TiffSignatureInvalidError struct {
	Got     [2]byte
	Version uint16
}

func (e TiffSignatureInvalidError) Error() string {
	if e.Version != 0 {
		return fmt.Sprintf("invalid tiff signature: magic %q, unsupported version %d", e.Got[:], e.Version)
	}
	return fmt.Sprintf("invalid tiff signature: got %q", e.Got[:])
}

// TiffSignatureNotFoundError is returned when the BigTIFF header pair
// following the version number is not (8, 0).
type TiffSignatureNotFoundError struct {
	OffsetSize, Constant uint16
}

func (e TiffSignatureNotFoundError) Error() string {
	return fmt.Sprintf("malformed bigtiff header: offset size %d, constant %d", e.OffsetSize, e.Constant)
}

// RequiredTagNotFoundError is returned when a mandatory tag is missing at
// IFD construction time.
type RequiredTagNotFoundError struct {
	Tag Tag
}

func (e RequiredTagNotFoundError) Error() string {
	return fmt.Sprintf("required tag not found: %s", e.Tag)
}

// InvalidTagValueError is returned when a tag's value fails a type or
// structural constraint.
type InvalidTagValueError struct {
	Tag    Tag
	Reason string
}

func (e InvalidTagValueError) Error() string {
	return fmt.Sprintf("invalid value for tag %s: %s", e.Tag, e.Reason)
}

// UnsupportedCompressionError is returned when an IFD names a compression
// method with no registered decoder.
type UnsupportedCompressionError struct {
	Method CompressionMethod
}

func (e UnsupportedCompressionError) Error() string {
	return fmt.Sprintf("unsupported compression method: %s", e.Method)
}

// UnsupportedPredictorError is returned when an IFD names a predictor with
// no registered implementation.
type UnsupportedPredictorError struct {
	Predictor Predictor
}

func (e UnsupportedPredictorError) Error() string {
	return fmt.Sprintf("unsupported predictor: %s", e.Predictor)
}

// UnsupportedInterpretationError is returned when a JPEG-compressed tile
// names a PhotometricInterpretation the JPEG decoder does not handle.
type UnsupportedInterpretationError struct {
	Interpretation PhotometricInterpretation
}

func (e UnsupportedInterpretationError) Error() string {
	return fmt.Sprintf("unsupported photometric interpretation for jpeg decode: %s", e.Interpretation)
}

// UnsupportedBitsPerChannelError is returned when a predictor is asked to
// operate on a bit depth it does not support.
type UnsupportedBitsPerChannelError struct {
	BitsPerSample uint16
}

func (e UnsupportedBitsPerChannelError) Error() string {
	return fmt.Sprintf("unsupported bits per channel: %d", e.BitsPerSample)
}

// UnsupportedSampleFormatError is returned when a component is asked to
// operate on a SampleFormat it does not support.
type UnsupportedSampleFormatError struct {
	SampleFormat SampleFormat
}

func (e UnsupportedSampleFormatError) Error() string {
	return fmt.Sprintf("unsupported sample format: %s", e.SampleFormat)
}

// TileIndexError is returned when a requested chunk coordinate is out of
// range for the IFD's tile/strip grid.
type TileIndexError struct {
	Index int
	Bound int
}

func (e TileIndexError) Error() string {
	return fmt.Sprintf("tile index %d out of bounds (have %d tiles)", e.Index, e.Bound)
}

// IntSizeError is returned when dimension arithmetic would overflow the
// platform's int.
type IntSizeError struct {
	Reason string
}

func (e IntSizeError) Error() string {
	return fmt.Sprintf("integer size error: %s", e.Reason)
}

// ErrMismatchedCoordinates is returned by FetchTiles when the xs and ys
// slices have different lengths.
var ErrMismatchedCoordinates = fmt.Errorf("rangetiff: xs and ys must have the same length")

// ErrInvalidOption is returned by a functional option when it is given an
// invalid value.
type ErrInvalidOption struct {
	Msg string
}

func (e ErrInvalidOption) Error() string {
	return e.Msg
}

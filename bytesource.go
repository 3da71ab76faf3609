package rangetiff

import "context"

// ByteSource is the single external collaborator this library depends on:
// a capability to fetch one or many byte ranges. Concrete backends (HTTP
// range requests, object-store GET-with-Range, a local os.File) live
// outside the core; see the adapters package for reference
// implementations over io.ReaderAt and Google Cloud Storage.
type ByteSource interface {
	// Fetch returns exactly the bytes in r, or an error. Implementations
	// must return EndOfFileError if fewer bytes are available than
	// requested.
	Fetch(ctx context.Context, r Range) ([]byte, error)

	// FetchMany returns one blob per input range, in the same order as
	// ranges. Implementations may coalesce adjacent or overlapping
	// ranges internally before issuing the underlying transport calls.
	FetchMany(ctx context.Context, ranges []Range) ([][]byte, error)
}

// FetchManySequential is the default FetchMany behavior: one Fetch call
// per range, in order. ByteSource implementations with no native
// multi-range capability can delegate to this.
func FetchManySequential(ctx context.Context, source ByteSource, ranges []Range) ([][]byte, error) {
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		b, err := source.Fetch(ctx, r)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

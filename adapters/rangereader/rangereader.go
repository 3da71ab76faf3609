// Package rangereader adapts an io.ReaderAt (a local file, an in-memory
// buffer, anything with random access) into a rangetiff.ByteSource.
package rangereader

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/airbusgeo/rangetiff"
)

// Reader is a rangetiff.ByteSource backed by an io.ReaderAt.
type Reader struct {
	ra          io.ReaderAt
	concurrency int
}

// Option configures a Reader.
type Option func(*Reader)

// WithConcurrency bounds how many ranges FetchMany reads in parallel.
// The default is 4.
func WithConcurrency(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// New wraps ra as a rangetiff.ByteSource.
func New(ra io.ReaderAt, opts ...Option) *Reader {
	r := &Reader{ra: ra, concurrency: 4}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fetch implements rangetiff.ByteSource.
func (r *Reader) Fetch(ctx context.Context, rng rangetiff.Range) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, rng.Len())
	n, err := r.ra.ReadAt(buf, int64(rng.Start))
	if err != nil && err != io.EOF {
		return nil, rangetiff.ExternalError{Cause: err}
	}
	if uint64(n) < rng.Len() {
		return nil, rangetiff.EndOfFileError{Requested: int(rng.Len()), Got: n}
	}
	return buf, nil
}

// FetchMany implements rangetiff.ByteSource, reading up to r.concurrency
// ranges at once via errgroup and reassembling results in input order.
func (r *Reader) FetchMany(ctx context.Context, ranges []rangetiff.Range) ([][]byte, error) {
	out := make([][]byte, len(ranges))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, rng := range ranges {
		i, rng := i, rng
		g.Go(func() error {
			b, err := r.Fetch(gctx, rng)
			if err != nil {
				return fmt.Errorf("range %d [%d,%d): %w", i, rng.Start, rng.End, err)
			}
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

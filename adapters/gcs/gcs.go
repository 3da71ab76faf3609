// Package gcs adapts a Google Cloud Storage object into a
// rangetiff.ByteSource, issuing one ranged GET per fetched range.
package gcs

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"

	"github.com/airbusgeo/rangetiff"
)

// Source reads byte ranges from a single GCS object.
type Source struct {
	object      *storage.ObjectHandle
	concurrency int
}

// Option configures a Source.
type Option func(*Source)

// WithConcurrency bounds how many ranges FetchMany reads in parallel.
// The default is 8, matching the expected latency profile of many small
// metadata-region GETs against a single object.
func WithConcurrency(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// New returns a ByteSource over bucket/object using client.
func New(client *storage.Client, bucket, object string, opts ...Option) *Source {
	s := &Source{object: client.Bucket(bucket).Object(object), concurrency: 8}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch implements rangetiff.ByteSource.
func (s *Source) Fetch(ctx context.Context, r rangetiff.Range) ([]byte, error) {
	reader, err := s.object.NewRangeReader(ctx, int64(r.Start), int64(r.Len()))
	if err != nil {
		return nil, rangetiff.ExternalError{Cause: err}
	}
	defer reader.Close()

	buf := make([]byte, r.Len())
	n, err := io.ReadFull(reader, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, rangetiff.ExternalError{Cause: err}
	}
	if uint64(n) < r.Len() {
		return nil, rangetiff.EndOfFileError{Requested: int(r.Len()), Got: n}
	}
	return buf, nil
}

// FetchMany implements rangetiff.ByteSource, issuing up to s.concurrency
// ranged GETs at once via errgroup and reassembling results in input
// order.
func (s *Source) FetchMany(ctx context.Context, ranges []rangetiff.Range) ([][]byte, error) {
	out := make([][]byte, len(ranges))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, r := range ranges {
		i, r := i, r
		g.Go(func() error {
			b, err := s.Fetch(gctx, r)
			if err != nil {
				return fmt.Errorf("range %d [%d,%d): %w", i, r.Start, r.End, err)
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

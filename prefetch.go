package rangetiff

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/singleflight"
)

// PrefetchCache wraps a ByteSource and eagerly buffers the first N bytes
// of the file at construction. Metadata fetches (tag reads during IFD
// parsing) entirely inside that buffer are served from memory; anything
// that escapes it is delegated to the inner source, deduplicated through
// a singleflight group so concurrent reads of the same escaping range
// collapse into one fetch. Image fetches (tile/strip bytes) always
// bypass the buffer and go straight to the inner source: they are large
// and one-shot, so buffering them would waste memory for no benefit.
type PrefetchCache struct {
	inner  ByteSource
	mu     sync.RWMutex // guards buffer, which fetchEscaping may extend
	buffer []byte
	group  singleflight.Group
}

// NewPrefetchCache fetches [0, n) from source and returns a ByteSource
// that serves metadata reads from that buffer where possible.
func NewPrefetchCache(ctx context.Context, source ByteSource, n uint64) (*PrefetchCache, error) {
	buf, err := source.Fetch(ctx, Range{Start: 0, End: n})
	if err != nil {
		return nil, fmt.Errorf("prefetch head of file: %w", err)
	}
	return &PrefetchCache{inner: source, buffer: buf}, nil
}

// escapeHeadroom is the rule-of-thumb extra byte count fetched, beyond an
// escaping range's own length, when delegating to the inner source: the
// next several tag reads commonly land just past the prefetch window, so
// a small amount of speculative headroom often saves a second round
// trip. Sized as 2*(len + sqrt(len)), matching the heuristic used by the
// reference implementation this cache is grounded on.
func escapeHeadroom(length uint64) uint64 {
	return uint64(2 * (float64(length) + math.Sqrt(float64(length))))
}

// Fetch implements ByteSource. It is the metadata-fetch path: reads
// fully inside the prefetch buffer are served from memory.
func (p *PrefetchCache) Fetch(ctx context.Context, r Range) ([]byte, error) {
	p.mu.RLock()
	buf := p.buffer
	p.mu.RUnlock()
	if r.End <= uint64(len(buf)) {
		return buf[r.Start:r.End], nil
	}
	if r.Start < uint64(len(buf)) {
		// Partially inside the buffer: simplest correct behavior is to
		// delegate the whole range; the buffer doesn't help here because
		// ByteSource.Fetch must return a single contiguous slice.
		return p.fetchEscaping(ctx, r)
	}
	return p.fetchEscaping(ctx, r)
}

// fetchEscaping delegates a range the prefetch buffer couldn't serve. It
// widens the request by escapeHeadroom bytes so that, when the escaping
// range starts exactly at the end of the current buffer, the extra bytes
// can extend the buffer rather than being discarded — later reads that
// land just past today's window are then served from memory too.
func (p *PrefetchCache) fetchEscaping(ctx context.Context, r Range) ([]byte, error) {
	key := fmt.Sprintf("%d-%d", r.Start, r.End)
	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		widened := Range{Start: r.Start, End: r.End + escapeHeadroom(r.Len())}
		data, err := p.inner.Fetch(ctx, widened)
		if err != nil {
			data, err = p.inner.Fetch(ctx, r)
			if err != nil {
				return nil, err
			}
		}
		p.mu.Lock()
		if r.Start == uint64(len(p.buffer)) {
			p.buffer = append(p.buffer, data...)
		}
		p.mu.Unlock()
		return data[:r.Len()], nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// FetchMany implements ByteSource by calling Fetch once per range, in
// order. TIFF.Open only places PrefetchCache on the metadata-fetch path;
// batched image fetches (TIFF.FetchTiles) go to the inner source directly
// and never reach this method.
func (p *PrefetchCache) FetchMany(ctx context.Context, ranges []Range) ([][]byte, error) {
	return FetchManySequential(ctx, p, ranges)
}

package rangetiff

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
)

// EndianCursor is a stateful, offset-tracking reader over a ByteSource.
// It knows nothing about IFD structure; it just turns "read n bytes at
// the current offset" into fetches and hands back an endian-aware view.
type EndianCursor struct {
	source     ByteSource
	offset     uint64
	endianness Endianness
}

// NewEndianCursor creates a cursor positioned at offset 0.
func NewEndianCursor(source ByteSource, endianness Endianness) *EndianCursor {
	return &EndianCursor{source: source, endianness: endianness}
}

// NewEndianCursorAt creates a cursor positioned at the given offset.
func NewEndianCursorAt(source ByteSource, endianness Endianness, offset uint64) *EndianCursor {
	return &EndianCursor{source: source, endianness: endianness, offset: offset}
}

// Offset returns the cursor's current position.
func (c *EndianCursor) Offset() uint64 {
	return c.offset
}

// Seek repositions the cursor without performing any I/O.
func (c *EndianCursor) Seek(offset uint64) {
	c.offset = offset
}

// Advance moves the cursor forward by n bytes without performing any I/O.
func (c *EndianCursor) Advance(n uint64) {
	c.offset += n
}

// Read fetches n bytes starting at the cursor's current offset, advances
// the offset by n, and returns an EndianReader over the result.
func (c *EndianCursor) Read(ctx context.Context, n uint64) (*EndianReader, error) {
	r := Range{Start: c.offset, End: c.offset + n}
	c.offset += n
	data, err := c.source.Fetch(ctx, r)
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) < n {
		return nil, EndOfFileError{Requested: int(n), Got: len(data)}
	}
	return &EndianReader{data: data, order: c.endianness.ByteOrder()}, nil
}

func (c *EndianCursor) ReadU8(ctx context.Context) (uint8, error) {
	r, err := c.Read(ctx, 1)
	if err != nil {
		return 0, err
	}
	return r.ReadU8()
}

func (c *EndianCursor) ReadI8(ctx context.Context) (int8, error) {
	r, err := c.Read(ctx, 1)
	if err != nil {
		return 0, err
	}
	return r.ReadI8()
}

func (c *EndianCursor) ReadU16(ctx context.Context) (uint16, error) {
	r, err := c.Read(ctx, 2)
	if err != nil {
		return 0, err
	}
	return r.ReadU16()
}

func (c *EndianCursor) ReadI16(ctx context.Context) (int16, error) {
	r, err := c.Read(ctx, 2)
	if err != nil {
		return 0, err
	}
	return r.ReadI16()
}

func (c *EndianCursor) ReadU32(ctx context.Context) (uint32, error) {
	r, err := c.Read(ctx, 4)
	if err != nil {
		return 0, err
	}
	return r.ReadU32()
}

func (c *EndianCursor) ReadI32(ctx context.Context) (int32, error) {
	r, err := c.Read(ctx, 4)
	if err != nil {
		return 0, err
	}
	return r.ReadI32()
}

func (c *EndianCursor) ReadU64(ctx context.Context) (uint64, error) {
	r, err := c.Read(ctx, 8)
	if err != nil {
		return 0, err
	}
	return r.ReadU64()
}

func (c *EndianCursor) ReadI64(ctx context.Context) (int64, error) {
	r, err := c.Read(ctx, 8)
	if err != nil {
		return 0, err
	}
	return r.ReadI64()
}

func (c *EndianCursor) ReadF32(ctx context.Context) (float32, error) {
	r, err := c.Read(ctx, 4)
	if err != nil {
		return 0, err
	}
	return r.ReadF32()
}

func (c *EndianCursor) ReadF64(ctx context.Context) (float64, error) {
	r, err := c.Read(ctx, 8)
	if err != nil {
		return 0, err
	}
	return r.ReadF64()
}

// EndianReader is a small, non-advancing-by-fetch view over an in-memory
// blob: it tracks a read position within data already in hand (so that,
// for example, a RATIONAL's numerator and denominator can be read as two
// consecutive u32s from the same fetched 8 bytes) and interprets
// multi-byte scalars according to the file's endianness.
type EndianReader struct {
	data  []byte
	order binary.ByteOrder
	pos   int
}

func (r *EndianReader) need(n int) error {
	if r.pos+n > len(r.data) {
		return EndOfFileError{Requested: r.pos + n, Got: len(r.data)}
	}
	return nil
}

func (r *EndianReader) ReadU8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *EndianReader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

func (r *EndianReader) ReadU16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := r.order.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *EndianReader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

func (r *EndianReader) ReadU32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := r.order.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *EndianReader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *EndianReader) ReadU64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := r.order.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *EndianReader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

func (r *EndianReader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *EndianReader) ReadF64() (float64, error) {
	v, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// Bytes returns the unread remainder of the underlying blob without
// advancing the position.
func (r *EndianReader) Bytes() []byte {
	return r.data[r.pos:]
}

func (r *EndianReader) String() string {
	return fmt.Sprintf("EndianReader{%d bytes, pos=%d}", len(r.data), r.pos)
}

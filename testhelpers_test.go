package rangetiff

import (
	"bytes"
	"context"
	"encoding/binary"
)

// memSource is a ByteSource over an in-memory buffer, used throughout this
// package's tests to build synthetic TIFF/BigTIFF byte layouts by hand.
type memSource struct {
	data []byte
}

func (m *memSource) Fetch(_ context.Context, r Range) ([]byte, error) {
	if r.End > uint64(len(m.data)) {
		return nil, EndOfFileError{Requested: int(r.Len()), Got: len(m.data) - int(r.Start)}
	}
	return m.data[r.Start:r.End], nil
}

func (m *memSource) FetchMany(ctx context.Context, ranges []Range) ([][]byte, error) {
	return FetchManySequential(ctx, m, ranges)
}

// classicHeaderBytes builds a valid 8-byte classic TIFF header.
func classicHeaderBytes(order binary.ByteOrder, firstIFD uint32) []byte {
	magic := []byte("II")
	if order == binary.BigEndian {
		magic = []byte("MM")
	}
	buf := &bytes.Buffer{}
	buf.Write(magic)
	binary.Write(buf, order, uint16(42))
	binary.Write(buf, order, firstIFD)
	return buf.Bytes()
}

// bigTiffHeaderBytes builds a valid 16-byte BigTIFF header.
func bigTiffHeaderBytes(order binary.ByteOrder, firstIFD uint64) []byte {
	magic := []byte("II")
	if order == binary.BigEndian {
		magic = []byte("MM")
	}
	buf := &bytes.Buffer{}
	buf.Write(magic)
	binary.Write(buf, order, uint16(43))
	binary.Write(buf, order, uint16(8))
	binary.Write(buf, order, uint16(0))
	binary.Write(buf, order, firstIFD)
	return buf.Bytes()
}

// ifdEntry is a single in-memory IFD entry used to hand-assemble synthetic
// classic-TIFF directories.
type ifdEntry struct {
	tag   Tag
	typ   Type
	count uint32
	// inline holds the raw 4-byte value-or-offset field exactly as it
	// should appear in the entry; callers needing an indirect value must
	// place the pointed-to bytes elsewhere in the buffer themselves.
	inline [4]byte
}

// writeClassicIFD appends a classic-format IFD (entry count, entries,
// next-IFD offset) to buf at its current length, returning the offset it
// was written at.
func writeClassicIFD(buf *bytes.Buffer, order binary.ByteOrder, entries []ifdEntry, nextIFD uint32) uint32 {
	offset := uint32(buf.Len())
	binary.Write(buf, order, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(buf, order, uint16(e.tag))
		binary.Write(buf, order, uint16(e.typ))
		binary.Write(buf, order, e.count)
		buf.Write(e.inline[:])
	}
	binary.Write(buf, order, nextIFD)
	return offset
}

func u32bytes(order binary.ByteOrder, v uint32) [4]byte {
	var b [4]byte
	order.PutUint32(b[:], v)
	return b
}

func u16x2bytes(order binary.ByteOrder, a, b uint16) [4]byte {
	var out [4]byte
	order.PutUint16(out[0:2], a)
	order.PutUint16(out[2:4], b)
	return out
}

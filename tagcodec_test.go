package rangetiff

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource wraps a memSource and records every range fetched, so
// tests can assert the offset-in-field rule: no byte range beyond the
// entry itself is fetched when the value fits inline.
type countingSource struct {
	memSource
	fetched []Range
}

func (c *countingSource) Fetch(ctx context.Context, r Range) ([]byte, error) {
	c.fetched = append(c.fetched, r)
	return c.memSource.Fetch(ctx, r)
}

// TestReadTagShortArrayInline covers a classic-LE entry tag=0x0101
// type=SHORT count=2 value=[42,42], which fits entirely inside the
// 4-byte value-or-offset field.
func TestReadTagShortArrayInline(t *testing.T) {
	order := binary.LittleEndian
	buf := &bytes.Buffer{}
	binary.Write(buf, order, uint16(0x0101))
	binary.Write(buf, order, uint16(TypeShort))
	binary.Write(buf, order, uint32(2))
	binary.Write(buf, order, uint16(42))
	binary.Write(buf, order, uint16(42))

	src := &countingSource{memSource: memSource{data: buf.Bytes()}}
	tag, value, err := ReadTag(context.Background(), src, LittleEndian, 0, false)
	require.NoError(t, err)
	assert.EqualValues(t, 0x0101, tag)
	assert.Equal(t, ValList{ValShort(42), ValShort(42)}, value)

	for _, r := range src.fetched {
		assert.LessOrEqual(t, r.End, uint64(buf.Len()), "no fetch should read past the 12-byte entry")
	}
}

// TestReadTagDoubleScalarBigTiffInline covers a BigTIFF-BE entry
// type=DOUBLE count=1 value=42.0, stored in the 8-byte field and read
// without any pointer indirection.
func TestReadTagDoubleScalarBigTiffInline(t *testing.T) {
	order := binary.BigEndian
	buf := &bytes.Buffer{}
	binary.Write(buf, order, uint16(0x0202))
	binary.Write(buf, order, uint16(TypeDouble))
	binary.Write(buf, order, uint64(1))
	binary.Write(buf, order, uint64(0x4045000000000000)) // 42.0

	src := &countingSource{memSource: memSource{data: buf.Bytes()}}
	tag, value, err := ReadTag(context.Background(), src, BigEndian, 0, true)
	require.NoError(t, err)
	assert.EqualValues(t, 0x0202, tag)
	assert.Equal(t, ValDouble(42.0), value)

	for _, r := range src.fetched {
		assert.LessOrEqual(t, r.End, uint64(20), "only the 20-byte bigtiff entry itself should be fetched")
	}
}

func TestReadTagIndirectArray(t *testing.T) {
	order := binary.LittleEndian
	// Entry: tag=0x0103, type=LONG, count=3 (12 bytes, doesn't fit in the
	// 4-byte field), pointing at an offset holding the 3 values.
	entry := &bytes.Buffer{}
	binary.Write(entry, order, uint16(0x0103))
	binary.Write(entry, order, uint16(TypeLong))
	binary.Write(entry, order, uint32(3))
	binary.Write(entry, order, uint32(100)) // pointer

	data := make([]byte, 112)
	copy(data, entry.Bytes())
	order.PutUint32(data[100:104], 7)
	order.PutUint32(data[104:108], 8)
	order.PutUint32(data[108:112], 9)

	src := &memSource{data: data}
	_, value, err := ReadTag(context.Background(), src, LittleEndian, 0, false)
	require.NoError(t, err)
	assert.Equal(t, ValList{ValUnsigned(7), ValUnsigned(8), ValUnsigned(9)}, value)
}

func TestReadTagUnknownTypeCode(t *testing.T) {
	order := binary.LittleEndian
	buf := &bytes.Buffer{}
	binary.Write(buf, order, uint16(1))
	binary.Write(buf, order, uint16(999))
	binary.Write(buf, order, uint32(0))
	binary.Write(buf, order, uint32(0))

	src := &memSource{data: buf.Bytes()}
	_, _, err := ReadTag(context.Background(), src, LittleEndian, 0, false)
	assert.IsType(t, InvalidTagValueError{}, err)
}

func TestReadTagEmptyCount(t *testing.T) {
	order := binary.LittleEndian
	buf := &bytes.Buffer{}
	binary.Write(buf, order, uint16(1))
	binary.Write(buf, order, uint16(TypeShort))
	binary.Write(buf, order, uint32(0))
	binary.Write(buf, order, uint32(0))

	src := &memSource{data: buf.Bytes()}
	_, value, err := ReadTag(context.Background(), src, LittleEndian, 0, false)
	require.NoError(t, err)
	assert.Equal(t, ValList(nil), value)
}

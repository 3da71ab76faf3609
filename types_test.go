package rangetiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagStringKnownAndUnknown(t *testing.T) {
	assert.Equal(t, "ImageWidth", TagImageWidth.String())
	assert.Equal(t, "Tag(50000)", Tag(50000).String())
}

func TestTypeByteWidth(t *testing.T) {
	cases := []struct {
		typ   Type
		width int
		ok    bool
	}{
		{TypeByte, 1, true},
		{TypeShort, 2, true},
		{TypeLong, 4, true},
		{TypeDouble, 8, true},
		{TypeRational, 8, true},
		{Type(999), 0, false},
	}
	for _, c := range cases {
		w, ok := c.typ.ByteWidth()
		assert.Equal(t, c.width, w)
		assert.Equal(t, c.ok, ok)
	}
}

func TestValRationalFloat64(t *testing.T) {
	assert.Equal(t, 0.5, ValRational{Numerator: 1, Denominator: 2}.Float64())
	assert.Equal(t, 0.0, ValRational{Numerator: 1, Denominator: 0}.Float64())
	assert.Equal(t, -0.5, ValSRational{Numerator: -1, Denominator: 2}.Float64())
}

func TestEndiannessString(t *testing.T) {
	assert.Equal(t, "LittleEndian", LittleEndian.String())
	assert.Equal(t, "BigEndian", BigEndian.String())
}

func TestRangeLen(t *testing.T) {
	r := Range{Start: 10, End: 25}
	assert.EqualValues(t, 15, r.Len())
}

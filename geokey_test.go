package rangetiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGeoKeyDirectoryAsciiAndDoubleParams(t *testing.T) {
	raw := []uint16{
		1, 1, 1, 2,
		uint16(GTCitationGeoKey), uint16(TagGeoAsciiParamsTag), 5, 0,
		uint16(GeogSemiMajorAxisGeoKey), uint16(TagGeoDoubleParamsTag), 1, 0,
	}
	ascii := "WGS84|"
	doubles := []float64{6378137.0}

	d, err := ParseGeoKeyDirectory(raw, ascii, doubles)
	require.NoError(t, err)
	assert.Equal(t, ValAscii("WGS84"), d.Keys[GTCitationGeoKey])
	assert.Equal(t, ValDouble(6378137.0), d.Keys[GeogSemiMajorAxisGeoKey])
}

func TestParseGeoKeyDirectoryRejectsShortHeader(t *testing.T) {
	_, err := ParseGeoKeyDirectory([]uint16{1, 1}, "", nil)
	assert.IsType(t, InvalidTagValueError{}, err)
}

func TestParseGeoKeyDirectoryRejectsUnsupportedVersion(t *testing.T) {
	_, err := ParseGeoKeyDirectory([]uint16{2, 1, 1, 0}, "", nil)
	assert.IsType(t, InvalidTagValueError{}, err)
}

func TestEPSGCodePrefersProjectedOverGeographic(t *testing.T) {
	projected, geographic := uint16(32633), uint16(4326)
	d := &GeoKeyDirectory{
		ProjectedCSType: &projected,
		GeographicType:  &geographic,
		Keys: map[GeoKey]Value{
			ProjectedCSTypeGeoKey: ValShort(32633),
			GeographicTypeGeoKey:  ValShort(4326),
		},
	}
	epsg, ok := d.EPSGCode()
	assert.True(t, ok)
	assert.Equal(t, 32633, epsg)
}

func TestEPSGCodeTreatsUserDefinedAsAbsent(t *testing.T) {
	userDefined := uint16(32767)
	d := &GeoKeyDirectory{
		GeographicType: &userDefined,
		Keys: map[GeoKey]Value{
			GeographicTypeGeoKey: ValShort(32767),
		},
	}
	_, ok := d.EPSGCode()
	assert.False(t, ok)
}

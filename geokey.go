package rangetiff

import (
	"fmt"
	"strings"
)

// GeoKey identifies one entry of a GeoKeyDirectory. The numeric values
// match the GeoTIFF 1.0 specification's key IDs.
type GeoKey uint16

const (
	GTModelTypeGeoKey            GeoKey = 1024
	GTRasterTypeGeoKey           GeoKey = 1025
	GTCitationGeoKey              GeoKey = 1026
	GeographicTypeGeoKey          GeoKey = 2048
	GeogCitationGeoKey            GeoKey = 2049
	GeogGeodeticDatumGeoKey       GeoKey = 2050
	GeogPrimeMeridianGeoKey       GeoKey = 2051
	GeogLinearUnitsGeoKey         GeoKey = 2052
	GeogLinearUnitSizeGeoKey      GeoKey = 2053
	GeogAngularUnitsGeoKey        GeoKey = 2054
	GeogAngularUnitSizeGeoKey     GeoKey = 2055
	GeogEllipsoidGeoKey           GeoKey = 2056
	GeogSemiMajorAxisGeoKey       GeoKey = 2057
	GeogSemiMinorAxisGeoKey       GeoKey = 2058
	GeogInvFlatteningGeoKey       GeoKey = 2059
	GeogAzimuthUnitsGeoKey        GeoKey = 2060
	GeogPrimeMeridianLongGeoKey   GeoKey = 2061
	ProjectedCSTypeGeoKey         GeoKey = 3072
	PCSCitationGeoKey             GeoKey = 3073
	ProjectionGeoKey              GeoKey = 3074
	ProjCoordTransGeoKey          GeoKey = 3075
	ProjLinearUnitsGeoKey         GeoKey = 3076
	ProjLinearUnitSizeGeoKey      GeoKey = 3077
	ProjStdParallel1GeoKey        GeoKey = 3078
	ProjStdParallel2GeoKey        GeoKey = 3079
	ProjNatOriginLongGeoKey       GeoKey = 3080
	ProjNatOriginLatGeoKey        GeoKey = 3081
	ProjFalseEastingGeoKey        GeoKey = 3082
	ProjFalseNorthingGeoKey       GeoKey = 3083
	ProjFalseOriginLongGeoKey     GeoKey = 3084
	ProjFalseOriginLatGeoKey      GeoKey = 3085
	ProjFalseOriginEastingGeoKey  GeoKey = 3086
	ProjFalseOriginNorthingGeoKey GeoKey = 3087
	ProjCenterLongGeoKey          GeoKey = 3088
	ProjCenterLatGeoKey           GeoKey = 3089
	ProjCenterEastingGeoKey       GeoKey = 3090
	ProjCenterNorthingGeoKey      GeoKey = 3091
	ProjScaleAtNatOriginGeoKey    GeoKey = 3092
	ProjScaleAtCenterGeoKey       GeoKey = 3093
	ProjAzimuthAngleGeoKey        GeoKey = 3094
	ProjStraightVertPoleLongGeoKey GeoKey = 3095
	VerticalCSTypeGeoKey          GeoKey = 4096
	VerticalCitationGeoKey        GeoKey = 4097
	VerticalDatumGeoKey           GeoKey = 4098
	VerticalUnitsGeoKey           GeoKey = 4099
)

// GeoKeyDirectory is the parsed form of a GeoKeyDirectoryTag: one named,
// typed, optional field per recognized GeoKey (nil when the key was
// absent), plus Keys holding every key exactly as decoded — recognized
// or not — for callers that want raw access without a type switch.
type GeoKeyDirectory struct {
	Version, Revision, Minor uint16

	ModelType  *uint16
	RasterType *uint16
	Citation   *string

	GeographicType        *uint16
	GeogCitation          *string
	GeogGeodeticDatum     *uint16
	GeogPrimeMeridian     *uint16
	GeogLinearUnits       *uint16
	GeogLinearUnitSize    *float64
	GeogAngularUnits      *uint16
	GeogAngularUnitSize   *float64
	GeogEllipsoid         *uint16
	GeogSemiMajorAxis     *float64
	GeogSemiMinorAxis     *float64
	GeogInvFlattening     *float64
	GeogAzimuthUnits      *uint16
	GeogPrimeMeridianLong *float64

	ProjectedCSType          *uint16
	PCSCitation              *string
	Projection               *uint16
	ProjCoordTrans           *uint16
	ProjLinearUnits          *uint16
	ProjLinearUnitSize       *float64
	ProjStdParallel1         *float64
	ProjStdParallel2         *float64
	ProjNatOriginLong        *float64
	ProjNatOriginLat         *float64
	ProjFalseEasting         *float64
	ProjFalseNorthing        *float64
	ProjFalseOriginLong      *float64
	ProjFalseOriginLat       *float64
	ProjFalseOriginEasting   *float64
	ProjFalseOriginNorthing  *float64
	ProjCenterLong           *float64
	ProjCenterLat            *float64
	ProjCenterEasting        *float64
	ProjCenterNorthing       *float64
	ProjScaleAtNatOrigin     *float64
	ProjScaleAtCenter        *float64
	ProjAzimuthAngle         *float64
	ProjStraightVertPoleLong *float64

	VerticalCSType   *uint16
	VerticalCitation *string
	VerticalDatum    *uint16
	VerticalUnits    *uint16

	Keys map[GeoKey]Value
}

// EPSGCode returns the projected or geographic EPSG code named by this
// directory, if any, preferring ProjectedCSType over GeographicType
// (matching the convention that a projected CRS, if present, is the
// authoritative one). A value of 0 or 32767 (GeoTIFF's "undefined" and
// "user-defined" sentinels) is treated as absent.
func (d *GeoKeyDirectory) EPSGCode() (int, bool) {
	if v := d.ProjectedCSType; v != nil && *v != 0 && *v != 32767 {
		return int(*v), true
	}
	if v := d.GeographicType; v != nil && *v != 0 && *v != 32767 {
		return int(*v), true
	}
	return 0, false
}

// ParseGeoKeyDirectory decodes the raw uint16 array from
// GeoKeyDirectoryTag into a GeoKeyDirectory, resolving indirected values
// through the sibling GeoAsciiParamsTag and GeoDoubleParamsTag values,
// which callers must already have decoded from tags before calling this.
func ParseGeoKeyDirectory(raw []uint16, asciiParams string, doubleParams []float64) (*GeoKeyDirectory, error) {
	if len(raw) < 4 {
		return nil, InvalidTagValueError{Tag: TagGeoKeyDirectoryTag, Reason: "header shorter than 4 uint16s"}
	}
	d := &GeoKeyDirectory{
		Version:  raw[0],
		Revision: raw[1],
		Minor:    raw[2],
		Keys:     map[GeoKey]Value{},
	}
	if d.Version != 1 || d.Revision != 1 {
		return nil, InvalidTagValueError{Tag: TagGeoKeyDirectoryTag, Reason: "unsupported GeoKeyDirectory version/revision"}
	}
	keyCount := int(raw[3])

	rest := raw[4:]
	for i := 0; i < keyCount; i++ {
		base := i * 4
		if base+4 > len(rest) {
			break
		}
		keyID := GeoKey(rest[base])
		tagLocation := rest[base+1]
		count := rest[base+2]
		valueOrOffset := rest[base+3]

		var value Value
		switch Tag(tagLocation) {
		case Tag(0):
			value = ValShort(valueOrOffset)
		case TagGeoAsciiParamsTag:
			start := int(valueOrOffset)
			end := start + int(count)
			if start < 0 || end > len(asciiParams) {
				continue
			}
			value = ValAscii(strings.TrimSuffix(asciiParams[start:end], "|"))
		case TagGeoDoubleParamsTag:
			start := int(valueOrOffset)
			end := start + int(count)
			if start < 0 || end > len(doubleParams) {
				continue
			}
			if count == 1 {
				value = ValDouble(doubleParams[start])
			} else {
				list := make(ValList, 0, count)
				for _, v := range doubleParams[start:end] {
					list = append(list, ValDouble(v))
				}
				value = list
			}
		default:
			// Unrecognized tag_location: skip this key rather than error,
			// so one unknown GeoKey doesn't fail the whole directory.
			continue
		}

		d.Keys[keyID] = value
		if err := d.setNamedField(keyID, value); err != nil {
			return nil, InvalidTagValueError{Tag: TagGeoKeyDirectoryTag, Reason: fmt.Sprintf("geo key %d: %v", keyID, err)}
		}
	}
	return d, nil
}

// setNamedField assigns value to the named, typed field for keyID, for
// every GeoKey this package recognizes. Unrecognized keys are a no-op
// here; they are still reachable through Keys.
func (d *GeoKeyDirectory) setNamedField(keyID GeoKey, value Value) error {
	switch keyID {
	case GTModelTypeGeoKey:
		return setGeoUint16(&d.ModelType, value)
	case GTRasterTypeGeoKey:
		return setGeoUint16(&d.RasterType, value)
	case GTCitationGeoKey:
		return setGeoString(&d.Citation, value)
	case GeographicTypeGeoKey:
		return setGeoUint16(&d.GeographicType, value)
	case GeogCitationGeoKey:
		return setGeoString(&d.GeogCitation, value)
	case GeogGeodeticDatumGeoKey:
		return setGeoUint16(&d.GeogGeodeticDatum, value)
	case GeogPrimeMeridianGeoKey:
		return setGeoUint16(&d.GeogPrimeMeridian, value)
	case GeogLinearUnitsGeoKey:
		return setGeoUint16(&d.GeogLinearUnits, value)
	case GeogLinearUnitSizeGeoKey:
		return setGeoFloat64(&d.GeogLinearUnitSize, value)
	case GeogAngularUnitsGeoKey:
		return setGeoUint16(&d.GeogAngularUnits, value)
	case GeogAngularUnitSizeGeoKey:
		return setGeoFloat64(&d.GeogAngularUnitSize, value)
	case GeogEllipsoidGeoKey:
		return setGeoUint16(&d.GeogEllipsoid, value)
	case GeogSemiMajorAxisGeoKey:
		return setGeoFloat64(&d.GeogSemiMajorAxis, value)
	case GeogSemiMinorAxisGeoKey:
		return setGeoFloat64(&d.GeogSemiMinorAxis, value)
	case GeogInvFlatteningGeoKey:
		return setGeoFloat64(&d.GeogInvFlattening, value)
	case GeogAzimuthUnitsGeoKey:
		return setGeoUint16(&d.GeogAzimuthUnits, value)
	case GeogPrimeMeridianLongGeoKey:
		return setGeoFloat64(&d.GeogPrimeMeridianLong, value)
	case ProjectedCSTypeGeoKey:
		return setGeoUint16(&d.ProjectedCSType, value)
	case PCSCitationGeoKey:
		return setGeoString(&d.PCSCitation, value)
	case ProjectionGeoKey:
		return setGeoUint16(&d.Projection, value)
	case ProjCoordTransGeoKey:
		return setGeoUint16(&d.ProjCoordTrans, value)
	case ProjLinearUnitsGeoKey:
		return setGeoUint16(&d.ProjLinearUnits, value)
	case ProjLinearUnitSizeGeoKey:
		return setGeoFloat64(&d.ProjLinearUnitSize, value)
	case ProjStdParallel1GeoKey:
		return setGeoFloat64(&d.ProjStdParallel1, value)
	case ProjStdParallel2GeoKey:
		return setGeoFloat64(&d.ProjStdParallel2, value)
	case ProjNatOriginLongGeoKey:
		return setGeoFloat64(&d.ProjNatOriginLong, value)
	case ProjNatOriginLatGeoKey:
		return setGeoFloat64(&d.ProjNatOriginLat, value)
	case ProjFalseEastingGeoKey:
		return setGeoFloat64(&d.ProjFalseEasting, value)
	case ProjFalseNorthingGeoKey:
		return setGeoFloat64(&d.ProjFalseNorthing, value)
	case ProjFalseOriginLongGeoKey:
		return setGeoFloat64(&d.ProjFalseOriginLong, value)
	case ProjFalseOriginLatGeoKey:
		return setGeoFloat64(&d.ProjFalseOriginLat, value)
	case ProjFalseOriginEastingGeoKey:
		return setGeoFloat64(&d.ProjFalseOriginEasting, value)
	case ProjFalseOriginNorthingGeoKey:
		return setGeoFloat64(&d.ProjFalseOriginNorthing, value)
	case ProjCenterLongGeoKey:
		return setGeoFloat64(&d.ProjCenterLong, value)
	case ProjCenterLatGeoKey:
		return setGeoFloat64(&d.ProjCenterLat, value)
	case ProjCenterEastingGeoKey:
		return setGeoFloat64(&d.ProjCenterEasting, value)
	case ProjCenterNorthingGeoKey:
		return setGeoFloat64(&d.ProjCenterNorthing, value)
	case ProjScaleAtNatOriginGeoKey:
		return setGeoFloat64(&d.ProjScaleAtNatOrigin, value)
	case ProjScaleAtCenterGeoKey:
		return setGeoFloat64(&d.ProjScaleAtCenter, value)
	case ProjAzimuthAngleGeoKey:
		return setGeoFloat64(&d.ProjAzimuthAngle, value)
	case ProjStraightVertPoleLongGeoKey:
		return setGeoFloat64(&d.ProjStraightVertPoleLong, value)
	case VerticalCSTypeGeoKey:
		return setGeoUint16(&d.VerticalCSType, value)
	case VerticalCitationGeoKey:
		return setGeoString(&d.VerticalCitation, value)
	case VerticalDatumGeoKey:
		return setGeoUint16(&d.VerticalDatum, value)
	case VerticalUnitsGeoKey:
		return setGeoUint16(&d.VerticalUnits, value)
	}
	return nil
}

func setGeoUint16(field **uint16, value Value) error {
	u, err := asUint64(value)
	if err != nil {
		return err
	}
	v := uint16(u)
	*field = &v
	return nil
}

func setGeoFloat64(field **float64, value Value) error {
	f, err := asFloat64(value)
	if err != nil {
		return err
	}
	*field = &f
	return nil
}

func setGeoString(field **string, value Value) error {
	s, ok := value.(ValAscii)
	if !ok {
		return fmt.Errorf("expected an ASCII value, got %T", value)
	}
	str := string(s)
	*field = &str
	return nil
}

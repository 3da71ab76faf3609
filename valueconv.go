package rangetiff

import "fmt"

// This file holds the small conversion helpers FromTags uses to fold raw
// decoded Values into the typed, Go-native fields of ImageFileDirectory.

func requireUint64(tags map[Tag]Value, tag Tag) (uint64, error) {
	v, ok := tags[tag]
	if !ok {
		return 0, RequiredTagNotFoundError{Tag: tag}
	}
	u, err := asUint64(v)
	if err != nil {
		return 0, fmt.Errorf("tag %s: %w", tag, err)
	}
	return u, nil
}

func requireUint16List(tags map[Tag]Value, tag Tag) ([]uint16, error) {
	v, ok := tags[tag]
	if !ok {
		return nil, RequiredTagNotFoundError{Tag: tag}
	}
	u, err := asUint16List(v)
	if err != nil {
		return nil, fmt.Errorf("tag %s: %w", tag, err)
	}
	return u, nil
}

func optionalUint64List(tags map[Tag]Value, tag Tag) ([]uint64, bool, error) {
	v, ok := tags[tag]
	if !ok {
		return nil, false, nil
	}
	u, err := asUint64List(v)
	if err != nil {
		return nil, true, fmt.Errorf("tag %s: %w", tag, err)
	}
	return u, true, nil
}

// asUint64 coerces a scalar (or single-element List) Value to uint64.
func asUint64(v Value) (uint64, error) {
	switch t := v.(type) {
	case ValByte:
		return uint64(t), nil
	case ValShort:
		return uint64(t), nil
	case ValUnsigned:
		return uint64(t), nil
	case ValUnsignedBig:
		return uint64(t), nil
	case ValSigned:
		if t < 0 {
			return 0, fmt.Errorf("value %d is negative", t)
		}
		return uint64(t), nil
	case ValSignedByte:
		if t < 0 {
			return 0, fmt.Errorf("value %d is negative", t)
		}
		return uint64(t), nil
	case ValSignedShort:
		if t < 0 {
			return 0, fmt.Errorf("value %d is negative", t)
		}
		return uint64(t), nil
	case ValSignedBig:
		if t < 0 {
			return 0, fmt.Errorf("value %d is negative", t)
		}
		return uint64(t), nil
	case ValIfd:
		return uint64(t), nil
	case ValIfdBig:
		return uint64(t), nil
	case ValList:
		if len(t) == 1 {
			return asUint64(t[0])
		}
		return 0, fmt.Errorf("expected a scalar, got a list of %d values", len(t))
	default:
		return 0, fmt.Errorf("value %v cannot be interpreted as an unsigned integer", v)
	}
}

// asUint64List coerces a Value that may be a List or a bare scalar
// (tag arrays of length 1 decode as a scalar) into a slice.
func asUint64List(v Value) ([]uint64, error) {
	list, ok := v.(ValList)
	if !ok {
		u, err := asUint64(v)
		if err != nil {
			return nil, err
		}
		return []uint64{u}, nil
	}
	out := make([]uint64, len(list))
	for i, e := range list {
		u, err := asUint64(e)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = u
	}
	return out, nil
}

func asUint16List(v Value) ([]uint16, error) {
	u64, err := asUint64List(v)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, len(u64))
	for i, u := range u64 {
		out[i] = uint16(u)
	}
	return out, nil
}

// asFloat64 coerces a scalar Value (integer, float, or rational) to
// float64.
func asFloat64(v Value) (float64, error) {
	switch t := v.(type) {
	case ValFloat:
		return float64(t), nil
	case ValDouble:
		return float64(t), nil
	case ValRational:
		return t.Float64(), nil
	case ValSRational:
		return t.Float64(), nil
	case ValList:
		if len(t) == 1 {
			return asFloat64(t[0])
		}
		return 0, fmt.Errorf("expected a scalar, got a list of %d values", len(t))
	default:
		u, err := asUint64(v)
		if err != nil {
			return 0, fmt.Errorf("value %v cannot be interpreted as a number", v)
		}
		return float64(u), nil
	}
}

func asFloat64List(v Value) ([]float64, error) {
	list, ok := v.(ValList)
	if !ok {
		f, err := asFloat64(v)
		if err != nil {
			return nil, err
		}
		return []float64{f}, nil
	}
	out := make([]float64, len(list))
	for i, e := range list {
		f, err := asFloat64(e)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

// asByteSlice coerces a BYTE/UNDEFINED array Value (e.g. JPEGTables) to
// a plain []byte.
func asByteSlice(v Value) ([]byte, error) {
	switch t := v.(type) {
	case ValByte:
		return []byte{byte(t)}, nil
	case ValList:
		out := make([]byte, len(t))
		for i, e := range t {
			b, ok := e.(ValByte)
			if !ok {
				return nil, fmt.Errorf("element %d is not a byte", i)
			}
			out[i] = byte(b)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value %v cannot be interpreted as a byte array", v)
	}
}

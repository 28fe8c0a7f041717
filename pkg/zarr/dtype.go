package zarr

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// DataType describes how one element of an array is encoded
type DataType struct {
	Kind  byte // 'b', 'i', 'u' or 'f'
	Size  int  // bytes per element
	Order binary.ByteOrder
}

// Name returns the canonical name, e.g. "uint16"
func (d DataType) Name() string {
	switch d.Kind {
	case 'b':
		return "bool"
	case 'i':
		return fmt.Sprintf("int%d", d.Size*8)
	case 'u':
		return fmt.Sprintf("uint%d", d.Size*8)
	case 'f':
		return fmt.Sprintf("float%d", d.Size*8)
	}
	return "unknown"
}

// ParseV2DType parses a numpy style dtype string such as "<u2" or "|u1"
func ParseV2DType(dtype string) (DataType, error) {
	if len(dtype) < 3 {
		return DataType{}, fmt.Errorf("invalid dtype: %s", dtype)
	}

	var order binary.ByteOrder = binary.LittleEndian
	switch dtype[0] {
	case '<', '|':
	case '>':
		order = binary.BigEndian
	default:
		return DataType{}, fmt.Errorf("invalid dtype byte order: %s", dtype)
	}

	d := DataType{Kind: dtype[1], Order: order}
	if _, err := fmt.Sscanf(dtype[2:], "%d", &d.Size); err != nil {
		return DataType{}, fmt.Errorf("invalid dtype size: %s", dtype)
	}
	return d, d.validate(dtype)
}

// ParseV3DataType parses a v3 data_type name such as "uint16"
func ParseV3DataType(name string, order binary.ByteOrder) (DataType, error) {
	d := DataType{Order: order}
	switch {
	case name == "bool":
		d.Kind, d.Size = 'b', 1
		return d, nil
	case strings.HasPrefix(name, "uint"):
		d.Kind = 'u'
		name = strings.TrimPrefix(name, "uint")
	case strings.HasPrefix(name, "int"):
		d.Kind = 'i'
		name = strings.TrimPrefix(name, "int")
	case strings.HasPrefix(name, "float"):
		d.Kind = 'f'
		name = strings.TrimPrefix(name, "float")
	default:
		return DataType{}, fmt.Errorf("unsupported data type: %s", name)
	}

	var bits int
	if _, err := fmt.Sscanf(name, "%d", &bits); err != nil {
		return DataType{}, fmt.Errorf("unsupported data type size: %s", name)
	}
	d.Size = bits / 8
	return d, d.validate(name)
}

func (d DataType) validate(src string) error {
	switch d.Kind {
	case 'b':
		if d.Size == 1 {
			return nil
		}
	case 'i', 'u':
		if d.Size == 1 || d.Size == 2 || d.Size == 4 || d.Size == 8 {
			return nil
		}
	case 'f':
		if d.Size == 4 || d.Size == 8 {
			return nil
		}
	}
	return fmt.Errorf("unsupported dtype: %s", src)
}

// decode reads element i of raw as a float64
func (d DataType) decode(raw []byte, i int) float64 {
	b := raw[i*d.Size : (i+1)*d.Size]
	switch d.Kind {
	case 'b':
		return float64(b[0])
	case 'u':
		switch d.Size {
		case 1:
			return float64(b[0])
		case 2:
			return float64(d.Order.Uint16(b))
		case 4:
			return float64(d.Order.Uint32(b))
		default:
			return float64(d.Order.Uint64(b))
		}
	case 'i':
		switch d.Size {
		case 1:
			return float64(int8(b[0]))
		case 2:
			return float64(int16(d.Order.Uint16(b)))
		case 4:
			return float64(int32(d.Order.Uint32(b)))
		default:
			return float64(int64(d.Order.Uint64(b)))
		}
	default:
		if d.Size == 4 {
			return float64(math.Float32frombits(d.Order.Uint32(b)))
		}
		return math.Float64frombits(d.Order.Uint64(b))
	}
}

package zarr

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"ngffviewer/pkg/store"
)

// Array is an opened array node
type Array struct {
	Location
	Attrs Attributes

	Shape      []int
	Chunks     []int
	DType      DataType
	FillValue  float64
	Compressor Compressor
	// FortranOrder is set for v2 arrays stored with order "F"
	FortranOrder bool
	// DimensionNames are the v3 dimension_names, if any
	DimensionNames []string
	// Unsupported lists codecs and filters chunk reads cannot undo. The
	// array metadata stays usable, only GetPlane fails.
	Unsupported []string

	chunkKey func(coords []int) string
}

// v2 .zarray document
type arrayV2 struct {
	Shape              []int           `json:"shape"`
	Chunks             []int           `json:"chunks"`
	DType              string          `json:"dtype"`
	Compressor         *Compressor     `json:"compressor"`
	FillValue          json.RawMessage `json:"fill_value"`
	Order              string          `json:"order"`
	Filters            []Compressor    `json:"filters"`
	DimensionSeparator string          `json:"dimension_separator"`
}

type namedConfig struct {
	Name          string          `json:"name"`
	Configuration json.RawMessage `json:"configuration"`
}

// v3 zarr.json document for arrays
type arrayV3 struct {
	NodeType  string `json:"node_type"`
	Shape     []int  `json:"shape"`
	DataType  string `json:"data_type"`
	ChunkGrid struct {
		Name          string `json:"name"`
		Configuration struct {
			ChunkShape []int `json:"chunk_shape"`
		} `json:"configuration"`
	} `json:"chunk_grid"`
	ChunkKeyEncoding struct {
		Name          string `json:"name"`
		Configuration struct {
			Separator string `json:"separator"`
		} `json:"configuration"`
	} `json:"chunk_key_encoding"`
	Codecs         []namedConfig   `json:"codecs"`
	FillValue      json.RawMessage `json:"fill_value"`
	Attributes     Attributes      `json:"attributes"`
	DimensionNames []string        `json:"dimension_names"`
}

// OpenArray opens the array at l
func OpenArray(ctx context.Context, l Location) (*Array, error) {
	if l.Version == V3 {
		var doc arrayV3
		if err := ReadDocument(ctx, l, "zarr.json", &doc); err != nil {
			return nil, notFoundOr(err, l)
		}
		if doc.NodeType != "array" {
			return nil, errors.Wrapf(ErrNodeNotFound, "%v is a %v, not an array", l, doc.NodeType)
		}
		return arrayFromV3(l, doc)
	}

	var doc arrayV2
	if err := ReadDocument(ctx, l, ".zarray", &doc); err != nil {
		return nil, notFoundOr(err, l)
	}

	var attrs Attributes
	if err := ReadDocument(ctx, l, ".zattrs", &attrs); err != nil && !store.IsNotFound(err) {
		return nil, err
	}
	return arrayFromV2(l, doc, attrs)
}

func arrayFromV2(l Location, doc arrayV2, attrs Attributes) (*Array, error) {
	dtype, err := ParseV2DType(doc.DType)
	if err != nil {
		return nil, fmt.Errorf("array %v: %w", l, err)
	}
	if len(doc.Shape) != len(doc.Chunks) {
		return nil, fmt.Errorf("array %v: shape and chunks differ in length", l)
	}

	arr := &Array{
		Location:     l,
		Attrs:        orEmpty(attrs),
		Shape:        doc.Shape,
		Chunks:       doc.Chunks,
		DType:        dtype,
		FillValue:    parseFillValue(doc.FillValue),
		FortranOrder: doc.Order == "F",
	}
	if doc.Compressor != nil {
		arr.Compressor = *doc.Compressor
	}
	for _, f := range doc.Filters {
		arr.Unsupported = append(arr.Unsupported, f.ID)
	}

	sep := doc.DimensionSeparator
	if sep == "" {
		sep = "."
	}
	arr.chunkKey = func(coords []int) string {
		if len(coords) == 0 {
			return "0"
		}
		return joinInts(coords, sep)
	}
	return arr, nil
}

func arrayFromV3(l Location, doc arrayV3) (*Array, error) {
	arr := &Array{
		Location:       l,
		Attrs:          orEmpty(doc.Attributes),
		Shape:          doc.Shape,
		Chunks:         doc.ChunkGrid.Configuration.ChunkShape,
		FillValue:      parseFillValue(doc.FillValue),
		DimensionNames: doc.DimensionNames,
	}
	if len(arr.Shape) != len(arr.Chunks) {
		return nil, fmt.Errorf("array %v: shape and chunk_shape differ in length", l)
	}

	var order binary.ByteOrder = binary.LittleEndian
	for _, codec := range doc.Codecs {
		switch codec.Name {
		case "bytes":
			var cfg struct {
				Endian string `json:"endian"`
			}
			if len(codec.Configuration) > 0 {
				if err := json.Unmarshal(codec.Configuration, &cfg); err != nil {
					return nil, fmt.Errorf("array %v: bytes codec: %w", l, err)
				}
			}
			if cfg.Endian == "big" {
				order = binary.BigEndian
			}
		case "gzip", "zstd":
			arr.Compressor = Compressor{ID: codec.Name}
		default:
			arr.Unsupported = append(arr.Unsupported, codec.Name)
		}
	}

	dtype, err := ParseV3DataType(doc.DataType, order)
	if err != nil {
		return nil, fmt.Errorf("array %v: %w", l, err)
	}
	arr.DType = dtype

	sep := doc.ChunkKeyEncoding.Configuration.Separator
	if doc.ChunkKeyEncoding.Name == "v2" {
		if sep == "" {
			sep = "."
		}
		arr.chunkKey = func(coords []int) string {
			if len(coords) == 0 {
				return "0"
			}
			return joinInts(coords, sep)
		}
	} else {
		if sep == "" {
			sep = "/"
		}
		arr.chunkKey = func(coords []int) string {
			if len(coords) == 0 {
				return "c"
			}
			return "c" + sep + joinInts(coords, sep)
		}
	}
	return arr, nil
}

// PlaneSize is the number of elements in one y/x plane, used to order
// pyramid levels by linear size
func (a *Array) PlaneSize() int {
	n := len(a.Shape)
	if n < 2 {
		if n == 1 {
			return a.Shape[0]
		}
		return 1
	}
	return a.Shape[n-1] * a.Shape[n-2]
}

func parseFillValue(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil && b {
		return 1
	}
	// "NaN", "Infinity" and friends
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return 0
}

func joinInts(values []int, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, sep)
}

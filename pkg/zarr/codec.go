package zarr

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Compressor identifies the chunk compression of an array. An empty ID means
// chunks are stored raw.
type Compressor struct {
	ID    string `json:"id"`
	Level int    `json:"level,omitempty"`
}

// decompress undoes the chunk compression
func (c Compressor) decompress(data []byte) ([]byte, error) {
	switch c.ID {
	case "":
		return data, nil
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip chunk: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case "zlib":
		r, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("zlib chunk: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case "zstd":
		d, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd chunk: %w", err)
		}
		defer d.Close()
		return d.DecodeAll(data, nil)
	}
	return nil, fmt.Errorf("unsupported compressor: %s", c.ID)
}

// supported reports whether decompress can handle the compressor
func (c Compressor) supported() bool {
	switch c.ID {
	case "", "gzip", "zlib", "zstd":
		return true
	}
	return false
}

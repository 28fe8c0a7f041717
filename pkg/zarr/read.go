package zarr

import (
	"context"
	"fmt"

	"ngffviewer/pkg/store"
)

// Plane is one y/x plane of an array, row-major
type Plane struct {
	Data  []float64
	Shape []int // [height, width]
}

// GetPlane reads the y/x plane picked by selection. selection holds one index
// per axis; entries for the last two axes are ignored and missing entries are
// taken as 0, so a nil selection reads the first plane.
func (a *Array) GetPlane(ctx context.Context, selection []int) (*Plane, error) {
	n := len(a.Shape)
	if n < 2 {
		return nil, fmt.Errorf("array %v: need at least 2 dimensions to read a plane, got %d", a.Location, n)
	}
	if len(a.Unsupported) > 0 {
		return nil, fmt.Errorf("array %v: unsupported codecs %v", a.Location, a.Unsupported)
	}
	if !a.Compressor.supported() {
		return nil, fmt.Errorf("array %v: unsupported compressor: %s", a.Location, a.Compressor.ID)
	}

	sel := make([]int, n)
	copy(sel, selection)
	for d := 0; d < n-2; d++ {
		if sel[d] < 0 || sel[d] >= a.Shape[d] {
			return nil, fmt.Errorf("array %v: index %d out of range for axis %d of size %d", a.Location, sel[d], d, a.Shape[d])
		}
	}

	height, width := a.Shape[n-2], a.Shape[n-1]
	chunkH, chunkW := a.Chunks[n-2], a.Chunks[n-1]
	strides := a.chunkStrides()

	coords := make([]int, n)
	base := 0
	for d := 0; d < n-2; d++ {
		coords[d] = sel[d] / a.Chunks[d]
		base += (sel[d] % a.Chunks[d]) * strides[d]
	}

	out := make([]float64, height*width)
	for cy := 0; cy*chunkH < height; cy++ {
		for cx := 0; cx*chunkW < width; cx++ {
			coords[n-2], coords[n-1] = cy, cx

			raw, err := a.readChunk(ctx, coords)
			if err != nil {
				return nil, err
			}

			for y := 0; y < chunkH && cy*chunkH+y < height; y++ {
				for x := 0; x < chunkW && cx*chunkW+x < width; x++ {
					o := (cy*chunkH+y)*width + cx*chunkW + x
					if raw == nil {
						out[o] = a.FillValue
						continue
					}
					out[o] = a.DType.decode(raw, base+y*strides[n-2]+x*strides[n-1])
				}
			}
		}
	}

	return &Plane{Data: out, Shape: []int{height, width}}, nil
}

// readChunk returns the decompressed chunk bytes, or nil for a chunk that was
// never written (it reads as fill value)
func (a *Array) readChunk(ctx context.Context, coords []int) ([]byte, error) {
	key := a.Key(a.chunkKey(coords))

	data, err := a.Store.Get(ctx, key)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	raw, err := a.Compressor.decompress(data)
	if err != nil {
		return nil, fmt.Errorf("chunk %v: %w", key, err)
	}

	want := a.DType.Size
	for _, c := range a.Chunks {
		want *= c
	}
	if len(raw) < want {
		return nil, fmt.Errorf("chunk %v: expected %d bytes, got %d", key, want, len(raw))
	}
	return raw, nil
}

// chunkStrides returns element strides inside one chunk
func (a *Array) chunkStrides() []int {
	n := len(a.Chunks)
	strides := make([]int, n)
	step := 1
	if a.FortranOrder {
		for d := 0; d < n; d++ {
			strides[d] = step
			step *= a.Chunks[d]
		}
		return strides
	}
	for d := n - 1; d >= 0; d-- {
		strides[d] = step
		step *= a.Chunks[d]
	}
	return strides
}

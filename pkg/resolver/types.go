package resolver

import (
	"ngffviewer/internal/models"
	"ngffviewer/pkg/affine"
	"ngffviewer/pkg/ngff"
	"ngffviewer/pkg/zarr"
)

// SourceConfig is one entry of the viewer's input list
type SourceConfig struct {
	// Locator is the store URL or path
	Locator string

	// ChannelAxis overrides the channel axis of the data, nil when not forced
	ChannelAxis *int

	// Label renders the source itself as a label image
	Label bool

	// ModelMatrix replaces the model matrix found in the metadata
	ModelMatrix *affine.Matrix4
}

// PixelSource is one resolution level of a pyramid
type PixelSource struct {
	Array *zarr.Array

	// Labels names every axis of Array, e.g. [t c z y x]
	Labels   []string
	TileSize int
}

// Shape returns the array shape
func (p *PixelSource) Shape() []int { return p.Array.Shape }

// Interleaved reports an RGB(A) uint8 image with colour as the last axis
func (p *PixelSource) Interleaved() bool {
	shape := p.Array.Shape
	if len(shape) == 0 {
		return false
	}
	last := shape[len(shape)-1]
	return p.Array.DType.Kind == 'u' && p.Array.DType.Size == 1 && (last == 3 || last == 4)
}

// LabelSource is a label image attached to an intensity source
type LabelSource struct {
	Name        string
	Loader      []*PixelSource
	ModelMatrix affine.Matrix4
	Colors      []ngff.LabelColor
}

// GridCell is one image of a plate or well grid
type GridCell struct {
	Name   string
	Row    int
	Column int
	Loader *PixelSource
}

// Grid lays out the images of a plate or well
type Grid struct {
	Rows    int
	Columns int
	Cells   []GridCell
}

// ResolvedSource is everything needed to build the initial layer state of
// one source. Loader is never empty; Loader[0] is the full resolution level
// and each following level is smaller.
type ResolvedSource struct {
	Locator string
	Name    string

	Loader        []*PixelSource
	Labels        []*LabelSource
	ModelMatrix   affine.Matrix4
	PhysicalSizes map[string]models.PhysicalSize

	AxisLabels []string
	// ChannelAxis is -1 when the data has no channel axis
	ChannelAxis int

	Names               []string
	Colors              []string
	ContrastLimits      []models.Limits
	ContrastLimitsRange []models.Limits
	Visibilities        []bool
	DefaultSelection    models.Selection
	Colormap            string
	Opacity             float64

	// Grid is set for plates and wells
	Grid *Grid

	// Series lists every series found in a bioformats2raw container, of which
	// only Series[0] is resolved
	Series []string

	// XMLErrors holds OME-XML parse problems, reported but not fatal
	XMLErrors *ngff.ValidationError
}

// NumChannels is the number of channels described by the source metadata
func (s *ResolvedSource) NumChannels() int { return len(s.Names) }

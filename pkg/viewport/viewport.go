// Package viewport fits layers into an orthographic view and computes the
// clipping range of the camera.
package viewport

import (
	"math"

	"ngffviewer/pkg/affine"
)

// GridSpacer is the gap in pixels between the images of a grid layer
const GridSpacer = 5

// Size is the extent of a layer's full resolution image in pixels
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Layer is what the geometry needs to know about a rendered layer
type Layer interface {
	LayerSize() Size
	Matrix() affine.Matrix4
}

// Viewport is the drawing area in screen pixels
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ViewState positions an orthographic camera
type ViewState struct {
	Zoom   float64    `json:"zoom"`
	Target [2]float64 `json:"target"`
}

// DepthRange is the near and far clipping planes
type DepthRange struct {
	Near float64 `json:"near"`
	Far  float64 `json:"far"`
}

// LayerSize returns the pixel size of an image with the given base
// resolution shape. Interleaved RGB images carry colour on the last axis.
// For grids, rows and columns count the images laid out with GridSpacer
// between them; pass 0 for plain images.
func LayerSize(shape []int, interleaved bool, rows, columns int) Size {
	n := len(shape)
	if interleaved {
		n--
	}
	var height, width int
	switch {
	case n >= 2:
		height, width = shape[n-2], shape[n-1]
	case n == 1:
		height, width = 1, shape[0]
	}
	if rows > 0 && columns > 0 {
		height = (height + GridSpacer) * rows
		width = (width + GridSpacer) * columns
	}
	return Size{Width: float64(width), Height: float64(height)}
}

// PaddingFor picks the fit padding for a viewport width
func PaddingFor(width float64) float64 {
	switch {
	case width < 400:
		return 10
	case width < 600:
		return 30
	}
	return 50
}

func corners(s Size, m affine.Matrix4) [4][3]float64 {
	return [4][3]float64{
		m.TransformPoint([3]float64{0, 0, 0}),
		m.TransformPoint([3]float64{s.Width, 0, 0}),
		m.TransformPoint([3]float64{s.Width, s.Height, 0}),
		m.TransformPoint([3]float64{0, s.Height, 0}),
	}
}

// FitToViewport centres the first layer in the viewport, zoomed so its
// transformed bounding box fills the viewport less padding on every side.
// layers must not be empty; an empty list yields the zero ViewState.
func FitToViewport(layers []Layer, vp Viewport, padding float64) ViewState {
	if len(layers) == 0 {
		return ViewState{}
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range corners(layers[0].LayerSize(), layers[0].Matrix()) {
		minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
		minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
	}

	availableWidth := vp.Width - 2*padding
	availableHeight := vp.Height - 2*padding
	return ViewState{
		Zoom:   math.Log2(math.Min(availableWidth/(maxX-minX), availableHeight/(maxY-minY))),
		Target: [2]float64{(minX + maxX) / 2, (minY + maxY) / 2},
	}
}

// ResetViewState fits the first layer using the padding for the viewport width
func ResetViewState(layers []Layer, vp Viewport) ViewState {
	return FitToViewport(layers, vp, PaddingFor(vp.Width))
}

// ComputeDepthRange derives the clipping planes from the z extent of every
// layer's transformed corners. Without layers, or when the extent is flat at
// z=0, the defaults 0.1 and 1000 apply.
func ComputeDepthRange(layers []Layer) DepthRange {
	if len(layers) == 0 {
		return DepthRange{Near: 0.1, Far: 1000}
	}

	minZ, maxZ := math.Inf(1), math.Inf(-1)
	for _, l := range layers {
		for _, p := range corners(l.LayerSize(), l.Matrix()) {
			minZ = math.Min(minZ, p[2])
			maxZ = math.Max(maxZ, p[2])
		}
	}

	r := DepthRange{Near: 0.1, Far: 1000}
	if maxZ != 0 {
		r.Near = -10000 * math.Abs(maxZ)
	}
	if minZ != 0 {
		r.Far = 10000 * math.Abs(minZ)
	}
	return r
}

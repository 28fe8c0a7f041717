package models

// Selection picks one index along every axis of a pixel source, in the
// order of the source's axis labels
type Selection []int

// Clone returns a copy of the selection that can be modified freely
func (s Selection) Clone() Selection {
	if s == nil {
		return nil
	}
	return append(Selection(nil), s...)
}

// Limits is an inclusive [min, max] pair, used for contrast windows and for
// the data range a contrast window may move within
type Limits [2]float64

// PhysicalSize is the physical extent of one pixel along a spatial axis
type PhysicalSize struct {
	// Size is the length of a pixel in Unit
	Size float64 `json:"size"`

	// Unit is the axis unit, e.g. "micrometer", empty when undeclared
	Unit string `json:"unit,omitempty"`
}

// LayerKind selects how a layer is rendered
type LayerKind string

const (
	// KindImage is a single resolution image
	KindImage LayerKind = "image"

	// KindMultiscale is a pyramid with more than one resolution
	KindMultiscale LayerKind = "multiscale"

	// KindGrid is a plate or well laid out as a grid of images
	KindGrid LayerKind = "grid"
)

package layers

import (
	"ngffviewer/internal/models"
	"ngffviewer/pkg/resolver"
)

// Slider is an axis the user can step through
type Slider struct {
	Axis  string `json:"axis"`
	Index int    `json:"index"`
	Size  int    `json:"size"`
}

// SourceInfo is the static metadata of a source shown next to its controls
type SourceInfo struct {
	Name          string                         `json:"name"`
	Locator       string                         `json:"locator"`
	AxisLabels    []string                       `json:"axisLabels"`
	ChannelAxis   int                            `json:"channelAxis"`
	Names         []string                       `json:"names"`
	Shape         []int                          `json:"shape"`
	Sliders       []Slider                       `json:"sliders,omitempty"`
	PhysicalSizes map[string]models.PhysicalSize `json:"physicalSizes,omitempty"`
	Series        []string                       `json:"series,omitempty"`
	XMLErrors     []string                       `json:"xmlErrors,omitempty"`
}

// NewSourceInfo describes a resolved source, or returns nil for a failed one
func NewSourceInfo(src *resolver.ResolvedSource) *SourceInfo {
	if src == nil {
		return nil
	}
	base := src.Loader[0]
	shape := base.Shape()

	info := &SourceInfo{
		Name:          src.Name,
		Locator:       src.Locator,
		AxisLabels:    src.AxisLabels,
		ChannelAxis:   src.ChannelAxis,
		Names:         src.Names,
		Shape:         shape,
		PhysicalSizes: src.PhysicalSizes,
		Series:        src.Series,
	}
	if src.XMLErrors != nil {
		info.XMLErrors = src.XMLErrors.Errors
	}

	// Every axis except y, x, channel and interleaved colour gets a slider
	// when it has more than one position
	last := len(shape)
	if base.Interleaved() {
		last--
	}
	for i, name := range src.AxisLabels {
		if i >= last || i == src.ChannelAxis || name == "y" || name == "x" || shape[i] <= 1 {
			continue
		}
		info.Sliders = append(info.Sliders, Slider{Axis: name, Index: i, Size: shape[i]})
	}
	return info
}

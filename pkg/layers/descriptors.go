package layers

import (
	"ngffviewer/internal/models"
	"ngffviewer/pkg/affine"
	"ngffviewer/pkg/ngff"
	"ngffviewer/pkg/resolver"
	"ngffviewer/pkg/viewport"
)

// KindLabel marks descriptors of label layers
const KindLabel models.LayerKind = "label"

// Descriptor is what the rendering side is asked to draw for one layer
type Descriptor struct {
	ID                string           `json:"id"`
	Kind              models.LayerKind `json:"kind"`
	Visible           bool             `json:"visible"`
	Pickable          bool             `json:"pickable"`
	ExcludeBackground bool             `json:"excludeBackground,omitempty"`
	Opacity           float64          `json:"opacity"`
	ModelMatrix       affine.Matrix4   `json:"modelMatrix"`

	// Intensity layers
	Selections      []models.Selection `json:"selections,omitempty"`
	ContrastLimits  []models.Limits    `json:"contrastLimits,omitempty"`
	ChannelsVisible []bool             `json:"channelsVisible,omitempty"`
	Colors          []string           `json:"colors,omitempty"`
	Colormap        string             `json:"colormap,omitempty"`
	Rows            int                `json:"rows,omitempty"`
	Columns         int                `json:"columns,omitempty"`

	// Label layers
	Selection   models.Selection  `json:"selection,omitempty"`
	LabelColors []ngff.LabelColor `json:"labelColors,omitempty"`

	Loader []*resolver.PixelSource `json:"-"`
}

// LayerSize is the full resolution size of the layer, for viewport fitting
func (d Descriptor) LayerSize() viewport.Size {
	if len(d.Loader) == 0 {
		return viewport.Size{}
	}
	base := d.Loader[0]
	return viewport.LayerSize(base.Shape(), base.Interleaved(), d.Rows, d.Columns)
}

// Matrix is the model matrix of the layer
func (d Descriptor) Matrix() affine.Matrix4 { return d.ModelMatrix }

// Descriptors lists the layers to draw, in order. Each source yields its
// intensity layer followed by the labels that are on. Labels are drawn with
// the model matrix of their source. Sources with forceLabel set draw a hidden
// intensity layer and a single label layer that follows the source's own
// visibility.
func Descriptors(states []*LayerState, forceLabel []bool) []Descriptor {
	var out []Descriptor
	for i, s := range states {
		if s == nil || len(s.LayerProps.Loader) == 0 {
			continue
		}
		forced := i < len(forceLabel) && forceLabel[i]

		if forced {
			image := intensityDescriptor(s)
			image.Kind = models.KindMultiscale
			image.Visible = false
			image.ExcludeBackground = true
			out = append(out, image)
			if s.On && len(s.Labels) > 0 {
				out = append(out, labelDescriptor(s, s.Labels[0]))
			}
			continue
		}

		out = append(out, intensityDescriptor(s))
		for _, l := range s.Labels {
			if l.On {
				out = append(out, labelDescriptor(s, l))
			}
		}
	}
	return out
}

// Layers converts descriptors to the viewport geometry interface
func Layers(descriptors []Descriptor) []viewport.Layer {
	out := make([]viewport.Layer, len(descriptors))
	for i, d := range descriptors {
		out[i] = d
	}
	return out
}

func intensityDescriptor(s *LayerState) Descriptor {
	p := s.LayerProps
	d := Descriptor{
		ID:                p.ID,
		Kind:              s.Kind,
		Visible:           s.On,
		ExcludeBackground: s.Kind == models.KindMultiscale,
		Opacity:           p.Opacity,
		ModelMatrix:       p.ModelMatrix,
		Selections:        p.Selections,
		ContrastLimits:    p.ContrastLimits,
		ChannelsVisible:   p.ChannelsVisible,
		Colors:            p.Colors,
		Colormap:          p.Colormap,
		Loader:            p.Loader,
	}
	if p.Grid != nil {
		d.Rows, d.Columns = p.Grid.Rows, p.Grid.Columns
	}
	return d
}

func labelDescriptor(s *LayerState, l *LabelState) Descriptor {
	var sel models.Selection
	if len(s.LayerProps.Selections) > 0 && l.TransformSourceSelection != nil {
		sel = l.TransformSourceSelection(s.LayerProps.Selections[0])
	}
	return Descriptor{
		ID:          l.LayerProps.ID,
		Kind:        KindLabel,
		Visible:     true,
		Pickable:    true,
		Opacity:     l.LayerProps.Opacity,
		ModelMatrix: s.LayerProps.ModelMatrix,
		Selection:   sel,
		LabelColors: l.LayerProps.Colors,
		Loader:      l.LayerProps.Loader,
	}
}

// Package layers holds the view state of resolved sources and the operations
// that change it.
//
// Operations are pure: they never modify their input and return a new slice
// in which only the addressed layer is replaced. Every other entry keeps its
// pointer, so callers can detect change with a pointer comparison. Invalid
// indices and unknown label ids leave the state unchanged.
package layers

import (
	"fmt"

	"ngffviewer/internal/models"
	"ngffviewer/pkg/affine"
	"ngffviewer/pkg/ngff"
	"ngffviewer/pkg/resolver"
)

// LayerProps are the render properties of an intensity layer. Selections,
// ContrastLimits and ChannelsVisible always have the same length, one entry
// per channel.
type LayerProps struct {
	ID string `json:"id"`

	Loader []*resolver.PixelSource `json:"-"`
	Grid   *resolver.Grid          `json:"-"`

	Selections          []models.Selection `json:"selections"`
	ContrastLimits      []models.Limits    `json:"contrastLimits"`
	ContrastLimitsRange []models.Limits    `json:"contrastLimitsRange"`
	ChannelsVisible     []bool             `json:"channelsVisible"`
	Colors              []string           `json:"colors"`
	Colormap            string             `json:"colormap,omitempty"`
	Opacity             float64            `json:"opacity"`
	ModelMatrix         affine.Matrix4     `json:"modelMatrix"`
}

// LabelProps are the render properties of a label layer
type LabelProps struct {
	ID          string                  `json:"id"`
	Loader      []*resolver.PixelSource `json:"-"`
	Opacity     float64                 `json:"opacity"`
	ModelMatrix affine.Matrix4          `json:"modelMatrix"`
	Colors      []ngff.LabelColor       `json:"colors,omitempty"`
}

// LabelState is one label layer of a source
type LabelState struct {
	LayerProps LabelProps `json:"layerProps"`
	On         bool       `json:"on"`

	// TransformSourceSelection maps a selection of the intensity source onto
	// the axes of the label image
	TransformSourceSelection func(models.Selection) models.Selection `json:"-"`
}

// LayerState is the view state of one source
type LayerState struct {
	Kind       models.LayerKind `json:"kind"`
	On         bool             `json:"on"`
	LayerProps LayerProps       `json:"layerProps"`
	Labels     []*LabelState    `json:"labels,omitempty"`
}

// LayerID names the layer of the source at index
func LayerID(index int) string {
	return fmt.Sprintf("raw-%d", index)
}

// DeriveInitial builds the initial state of every source. Failed sources
// (nil entries) stay nil so indices keep matching the input list. Sources
// with forceLabel set are shown as a single label image of their own data.
func DeriveInitial(sources []*resolver.ResolvedSource, forceLabel []bool) []*LayerState {
	states := make([]*LayerState, len(sources))
	for i, src := range sources {
		if src == nil {
			continue
		}
		forced := i < len(forceLabel) && forceLabel[i]
		states[i] = initLayerState(LayerID(i), src, forced)
	}
	return states
}

func initLayerState(id string, src *resolver.ResolvedSource, forceLabel bool) *LayerState {
	n := src.NumChannels()
	props := LayerProps{
		ID:                  id,
		Loader:              src.Loader,
		Grid:                src.Grid,
		Selections:          make([]models.Selection, n),
		ContrastLimits:      append([]models.Limits(nil), src.ContrastLimits...),
		ContrastLimitsRange: append([]models.Limits(nil), src.ContrastLimitsRange...),
		ChannelsVisible:     append([]bool(nil), src.Visibilities...),
		Colors:              append([]string(nil), src.Colors...),
		Colormap:            src.Colormap,
		Opacity:             src.Opacity,
		ModelMatrix:         src.ModelMatrix,
	}
	for c := 0; c < n; c++ {
		sel := src.DefaultSelection.Clone()
		if src.ChannelAxis >= 0 {
			sel[src.ChannelAxis] = c
		}
		props.Selections[c] = sel
	}

	kind := models.KindImage
	switch {
	case src.Grid != nil:
		kind = models.KindGrid
	case len(src.Loader) > 1:
		kind = models.KindMultiscale
	}

	labels := src.Labels
	if forceLabel {
		// The intensity data doubles as its own label image
		labels = []*resolver.LabelSource{{Name: "labels", Loader: src.Loader, ModelMatrix: src.ModelMatrix}}
	}

	state := &LayerState{Kind: kind, On: true, LayerProps: props}
	for _, label := range labels {
		base := label.Loader[0]
		state.Labels = append(state.Labels, &LabelState{
			LayerProps: LabelProps{
				ID:          id + "_" + label.Name,
				Loader:      label.Loader,
				Opacity:     1,
				ModelMatrix: label.ModelMatrix,
				Colors:      label.Colors,
			},
			On:                       true,
			TransformSourceSelection: SelectionTransform(src.AxisLabels, base.Labels, base.Shape()),
		})
	}
	return state
}

// SelectionTransform returns a function mapping selections over the source
// axes onto the label axes by axis name. Axes the source lacks select 0 and
// every index is clamped to the label's shape.
func SelectionTransform(sourceAxes, labelAxes []string, labelShape []int) func(models.Selection) models.Selection {
	mapping := make([]int, len(labelAxes))
	for i, name := range labelAxes {
		mapping[i] = -1
		for j, s := range sourceAxes {
			if s == name {
				mapping[i] = j
				break
			}
		}
	}

	return func(sel models.Selection) models.Selection {
		out := make(models.Selection, len(labelAxes))
		for i, j := range mapping {
			if j < 0 || j >= len(sel) {
				continue
			}
			v := sel[j]
			if i < len(labelShape) && v >= labelShape[i] {
				v = labelShape[i] - 1
			}
			out[i] = max(v, 0)
		}
		return out
	}
}

package layers

import "ngffviewer/internal/models"

// replace returns a copy of states with the entry at index replaced by the
// result of fn. Out of range or nil entries return states unchanged.
func replace(states []*LayerState, index int, fn func(s LayerState) *LayerState) []*LayerState {
	if index < 0 || index >= len(states) || states[index] == nil {
		return states
	}
	next := fn(*states[index])
	if next == nil {
		return states
	}
	out := append([]*LayerState(nil), states...)
	out[index] = next
	return out
}

// replaceLabel copies the layer at index with the label labelID replaced by
// the result of fn
func replaceLabel(states []*LayerState, index int, labelID string, fn func(l LabelState) *LabelState) []*LayerState {
	return replace(states, index, func(s LayerState) *LayerState {
		for i, l := range s.Labels {
			if l.LayerProps.ID != labelID {
				continue
			}
			s.Labels = append([]*LabelState(nil), s.Labels...)
			s.Labels[i] = fn(*l)
			return &s
		}
		return nil
	})
}

// ToggleVisibility flips the layer at index, or its label labelID when
// labelID is not empty
func ToggleVisibility(states []*LayerState, index int, labelID string) []*LayerState {
	if labelID != "" {
		return replaceLabel(states, index, labelID, func(l LabelState) *LabelState {
			l.On = !l.On
			return &l
		})
	}
	return replace(states, index, func(s LayerState) *LayerState {
		s.On = !s.On
		return &s
	})
}

// SetOpacity sets the opacity of the layer at index, or of its label labelID.
// The value is not clamped.
func SetOpacity(states []*LayerState, index int, labelID string, opacity float64) []*LayerState {
	if labelID != "" {
		return replaceLabel(states, index, labelID, func(l LabelState) *LabelState {
			l.LayerProps.Opacity = opacity
			return &l
		})
	}
	return replace(states, index, func(s LayerState) *LayerState {
		s.LayerProps.Opacity = opacity
		return &s
	})
}

// SetSelections replaces every channel selection of the layer at index.
// selections must hold one entry per channel; a list of any other length
// leaves the state unchanged.
func SetSelections(states []*LayerState, index int, selections []models.Selection) []*LayerState {
	return replace(states, index, func(s LayerState) *LayerState {
		if len(selections) != len(s.LayerProps.ContrastLimits) {
			return nil
		}
		sels := make([]models.Selection, len(selections))
		for i, sel := range selections {
			sels[i] = sel.Clone()
		}
		s.LayerProps.Selections = sels
		return &s
	})
}

// ToggleChannelVisibility flips one channel of the layer at index
func ToggleChannelVisibility(states []*LayerState, index int, channel int) []*LayerState {
	return replace(states, index, func(s LayerState) *LayerState {
		if channel < 0 || channel >= len(s.LayerProps.ChannelsVisible) {
			return nil
		}
		visible := append([]bool(nil), s.LayerProps.ChannelsVisible...)
		visible[channel] = !visible[channel]
		s.LayerProps.ChannelsVisible = visible
		return &s
	})
}

// SetChannelContrast sets the contrast limits of one channel of the layer at
// index
func SetChannelContrast(states []*LayerState, index int, channel int, limits models.Limits) []*LayerState {
	return replace(states, index, func(s LayerState) *LayerState {
		if channel < 0 || channel >= len(s.LayerProps.ContrastLimits) {
			return nil
		}
		cl := append([]models.Limits(nil), s.LayerProps.ContrastLimits...)
		cl[channel] = limits
		s.LayerProps.ContrastLimits = cl
		return &s
	})
}

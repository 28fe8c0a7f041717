// Package visualization writes preview images of the current layer state:
// one greyscale JPEG per visible channel, windowed by the channel's contrast
// limits. Previews are a diagnostic aid, not a renderer.
package visualization

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"ngffviewer/internal/models"
	"ngffviewer/pkg/layers"
	"ngffviewer/pkg/zarr"
)

// Viewer previews one layer
type Viewer struct {
	state *layers.LayerState

	// Quality is the JPEG quality of saved previews
	Quality int
}

// NewViewer creates a preview viewer for a layer state
func NewViewer(state *layers.LayerState) *Viewer {
	return &Viewer{state: state, Quality: 90}
}

// ExtractChannel reads the plane of channel at the layer's current selection
// from pyramid level (0 is full resolution, negative counts from the lowest)
func (v *Viewer) ExtractChannel(ctx context.Context, channel int, level int) (image.Image, error) {
	props := v.state.LayerProps
	if channel < 0 || channel >= len(props.Selections) {
		return nil, fmt.Errorf("channel %d out of range, layer has %d", channel, len(props.Selections))
	}
	if level < 0 {
		level += len(props.Loader)
	}
	if level < 0 || level >= len(props.Loader) {
		return nil, fmt.Errorf("level %d out of range, layer has %d", level, len(props.Loader))
	}

	plane, err := props.Loader[level].Array.GetPlane(ctx, props.Selections[channel])
	if err != nil {
		return nil, err
	}
	return WindowPlane(plane, props.ContrastLimits[channel]), nil
}

// WindowPlane maps limits[0]..limits[1] onto the full greyscale range,
// clamping values outside the window
func WindowPlane(plane *zarr.Plane, limits models.Limits) *image.Gray16 {
	height, width := plane.Shape[0], plane.Shape[1]
	img := image.NewGray16(image.Rect(0, 0, width, height))

	span := limits[1] - limits[0]
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var t float64
			if span > 0 {
				t = (plane.Data[y*width+x] - limits[0]) / span
			}
			value := uint16(math.Max(0, math.Min(65535, t*65535)))
			img.SetGray16(x, y, color.Gray16{Y: value})
		}
	}
	return img
}

// SaveSlice saves a preview as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: v.Quality})
}

// SaveChannelSequence saves the lowest resolution of every visible channel
// to outputDir and returns the written file names
func (v *Viewer) SaveChannelSequence(ctx context.Context, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	var written []string
	for c, visible := range v.state.LayerProps.ChannelsVisible {
		if !visible {
			continue
		}
		img, err := v.ExtractChannel(ctx, c, -1)
		if err != nil {
			return written, err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("%s_channel_%03d.jpg", v.state.LayerProps.ID, c))
		if err := v.SaveSlice(img, filename); err != nil {
			return written, err
		}
		written = append(written, filename)
	}
	return written, nil
}

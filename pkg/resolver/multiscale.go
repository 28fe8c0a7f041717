package resolver

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"ngffviewer/internal/models"
	"ngffviewer/pkg/affine"
	"ngffviewer/pkg/ngff"
	"ngffviewer/pkg/zarr"
)

// MaxChannels is how many channels are visible by default
const MaxChannels = 6

var (
	white        = []string{"FFFFFF"}
	magentaGreen = []string{"FF00FF", "00FF00"}
	rgb          = []string{"FF0000", "00FF00", "0000FF"}
	cymrgb       = []string{"00FFFF", "FFFF00", "FF00FF", "FF0000", "00FF00", "0000FF"}
)

func isNodeNotFound(err error) bool {
	return errors.Is(err, zarr.ErrNodeNotFound)
}

// loadMultiscales opens every dataset of the first multiscale, largest first
func loadMultiscales(ctx context.Context, grp *zarr.Group, multiscales []ngff.Multiscale) ([]*zarr.Array, error) {
	if len(multiscales) == 0 || len(multiscales[0].Datasets) == 0 {
		return nil, fmt.Errorf("%v: multiscales declare no datasets", grp.Location)
	}

	datasets := multiscales[0].Datasets
	arrays := make([]*zarr.Array, 0, len(datasets))
	for _, ds := range datasets {
		arr, err := zarr.OpenArray(ctx, grp.Resolve(ds.Path))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open dataset %v", ds.Path)
		}
		arrays = append(arrays, arr)
	}

	sort.SliceStable(arrays, func(i, j int) bool {
		return arrays[i].PlaneSize() > arrays[j].PlaneSize()
	})
	return arrays, nil
}

func (r *Resolver) loadMultiscaleImage(ctx context.Context, cfg SourceConfig, grp *zarr.Group, attrs *ngff.Attrs, channelAxis *int) (*ResolvedSource, error) {
	arrays, err := loadMultiscales(ctx, grp, attrs.Multiscales)
	if err != nil {
		return nil, &ResolutionError{Locator: cfg.Locator, Reason: "failed to load multiscales", Err: err}
	}

	src, err := r.sourceData(ctx, cfg, arrays, attrs.Axes(), attrs.Omero, channelAxis)
	if err != nil {
		return nil, err
	}
	src.ModelMatrix = ngff.CoordinateTransformationsToMatrix(attrs.Multiscales)
	if attrs.Omero != nil && attrs.Omero.Name != "" {
		src.Name = attrs.Omero.Name
	} else if name := attrs.Multiscales[0].Name; name != "" {
		src.Name = name
	}
	return src, nil
}

// resolveArray reads a bare array as a single level pyramid
func (r *Resolver) resolveArray(ctx context.Context, cfg SourceConfig, arr *zarr.Array) (*ResolvedSource, error) {
	src, err := r.sourceData(ctx, cfg, []*zarr.Array{arr}, nil, nil, cfg.ChannelAxis)
	if err != nil {
		return nil, err
	}
	src.ModelMatrix = affine.Identity()
	return src, nil
}

// sourceData builds the loader and the per channel display metadata. omero
// rendering settings are used when present, defaults otherwise.
func (r *Resolver) sourceData(ctx context.Context, cfg SourceConfig, arrays []*zarr.Array, axes []ngff.Axis, omero *ngff.Omero, forcedAxis *int) (*ResolvedSource, error) {
	base := arrays[0]
	if len(base.Shape) < 2 {
		return nil, &ResolutionError{Locator: cfg.Locator, Reason: fmt.Sprintf("need at least 2 dimensions, got shape %v", base.Shape)}
	}
	labels := ngff.AxisLabels(axes, len(base.Shape))

	channelAxis := indexOf(labels, "c")
	if forcedAxis != nil {
		channelAxis = *forcedAxis
	}
	if channelAxis >= len(base.Shape) || channelAxis < -1 {
		return nil, &ResolutionError{Locator: cfg.Locator, Reason: fmt.Sprintf("channel axis %d out of range for %d dimensions", channelAxis, len(base.Shape))}
	}
	if channelAxis >= 0 && labels[channelAxis] != "c" {
		// Keep names unique by trading places with any existing "c"
		if prev := indexOf(labels, "c"); prev >= 0 {
			labels[prev] = labels[channelAxis]
		}
		labels[channelAxis] = "c"
	}

	tileSize := guessTileSize(base)
	loader := make([]*PixelSource, len(arrays))
	for i, arr := range arrays {
		loader[i] = &PixelSource{Array: arr, Labels: labels, TileSize: tileSize}
	}

	numChannels := 1
	if channelAxis >= 0 {
		numChannels = base.Shape[channelAxis]
	}

	src := &ResolvedSource{
		Name:             "image",
		Loader:           loader,
		ModelMatrix:      affine.Identity(),
		AxisLabels:       labels,
		ChannelAxis:      channelAxis,
		DefaultSelection: make(models.Selection, len(labels)),
		Opacity:          1,
	}

	var channels []ngff.OmeroChannel
	if omero != nil {
		channels = omero.Channels
		if omero.Rdefs != nil {
			setDefault(src.DefaultSelection, labels, "t", omero.Rdefs.DefaultT, base.Shape)
			setDefault(src.DefaultSelection, labels, "z", omero.Rdefs.DefaultZ, base.Shape)
		}
	}

	defaults := defaultColors(numChannels)
	lowres := arrays[len(arrays)-1]
	for i := 0; i < numChannels; i++ {
		var ch *ngff.OmeroChannel
		if i < len(channels) {
			ch = &channels[i]
		}

		name := fmt.Sprintf("channel_%d", i)
		color := defaults[i%len(defaults)]
		visible := i < MaxChannels
		if ch != nil {
			if ch.Label != "" {
				name = ch.Label
			}
			if ch.Color != "" {
				color = strings.ToUpper(ch.Color)
			}
			if ch.Active != nil {
				visible = *ch.Active
			}
		}

		var limits, limitsRange models.Limits
		if ch != nil && ch.Window != nil {
			limits = models.Limits{ch.Window.Start, ch.Window.End}
			limitsRange = models.Limits{ch.Window.Min, ch.Window.Max}
		} else {
			sel := src.DefaultSelection.Clone()
			if channelAxis >= 0 {
				sel[channelAxis] = i
			}
			limits = r.dataRange(ctx, lowres, sel)
			limitsRange = limits
		}

		src.Names = append(src.Names, name)
		src.Colors = append(src.Colors, color)
		src.Visibilities = append(src.Visibilities, visible)
		src.ContrastLimits = append(src.ContrastLimits, limits)
		src.ContrastLimitsRange = append(src.ContrastLimitsRange, limitsRange)
	}
	return src, nil
}

func setDefault(sel models.Selection, labels []string, axis string, value *int, shape []int) {
	i := indexOf(labels, axis)
	if i < 0 || value == nil || *value < 0 || *value >= shape[i] {
		return
	}
	sel[i] = *value
}

// dataRange returns the min and max of the plane picked by sel. Failures
// fall back to the range of the data type.
func (r *Resolver) dataRange(ctx context.Context, arr *zarr.Array, sel models.Selection) models.Limits {
	if arr.DType.Kind == 'u' && arr.DType.Size == 1 {
		return models.Limits{0, 255}
	}

	plane, err := arr.GetPlane(ctx, sel)
	if err != nil {
		r.Logger.Errorf("failed to compute data range of %v: %v", arr.Location, err)
		return dtypeRange(arr.DType)
	}

	values := make([]float64, 0, len(plane.Data))
	for _, v := range plane.Data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return models.Limits{0, 0}
	}
	return models.Limits{floats.Min(values), floats.Max(values)}
}

func dtypeRange(d zarr.DataType) models.Limits {
	bits := float64(d.Size * 8)
	switch d.Kind {
	case 'u':
		return models.Limits{0, math.Pow(2, bits) - 1}
	case 'i':
		return models.Limits{-math.Pow(2, bits-1), math.Pow(2, bits-1) - 1}
	case 'b':
		return models.Limits{0, 1}
	}
	return models.Limits{0, 1}
}

func defaultColors(n int) []string {
	switch n {
	case 1:
		return white
	case 2:
		return magentaGreen
	case 3:
		return rgb
	}
	return cymrgb
}

// guessTileSize is the largest power of two not above the smaller y/x chunk
func guessTileSize(arr *zarr.Array) int {
	n := len(arr.Chunks)
	if n == 0 {
		return 1
	}
	yx := arr.Chunks[max(0, n-2):]
	interleaved := (&PixelSource{Array: arr}).Interleaved()
	if interleaved && n >= 3 {
		yx = arr.Chunks[n-3 : n-1]
	}
	size := yx[0]
	for _, c := range yx[1:] {
		size = min(size, c)
	}
	tile := 1
	for tile*2 <= size {
		tile *= 2
	}
	return tile
}

// physicalSizes reads the pixel size of every spatial axis off the model
// matrix diagonal
func physicalSizes(attrs *ngff.Attrs) map[string]models.PhysicalSize {
	ct := ngff.CoordinateTransformationsToMatrix(attrs.Multiscales)
	indices := map[string]int{"x": affine.ScaleX, "y": affine.ScaleY, "z": affine.ScaleZ}

	sizes := map[string]models.PhysicalSize{}
	for _, a := range attrs.Axes() {
		if a.Type != "space" {
			continue
		}
		name := strings.ToLower(a.Name)
		i, ok := indices[name]
		if !ok {
			continue
		}
		sizes[name] = models.PhysicalSize{Size: ct[i], Unit: a.Unit}
	}
	return sizes
}

func indexOf(values []string, v string) int {
	for i, s := range values {
		if s == v {
			return i
		}
	}
	return -1
}

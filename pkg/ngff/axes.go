package ngff

import (
	"fmt"
	"strings"

	"ngffviewer/pkg/affine"
)

var defaultAxisLabels = []string{"t", "c", "z", "y", "x"}

// AxisLabels names each dimension of an array with ndim dimensions. Without
// axes metadata the trailing names of t,c,z,y,x are used.
func AxisLabels(axes []Axis, ndim int) []string {
	if len(axes) == ndim && ndim > 0 {
		labels := make([]string, ndim)
		for i, a := range axes {
			labels[i] = strings.ToLower(a.Name)
		}
		return labels
	}
	if ndim <= len(defaultAxisLabels) {
		return append([]string(nil), defaultAxisLabels[len(defaultAxisLabels)-ndim:]...)
	}
	labels := make([]string, ndim)
	for i := range labels {
		labels[i] = fmt.Sprintf("dim_%d", i)
	}
	copy(labels[ndim-len(defaultAxisLabels):], defaultAxisLabels)
	return labels
}

// ChannelAxisFromDimensionOrder converts an OME-XML dimension order such as
// "XYCZT" to the channel axis index of the zarr arrays, whose axis order is
// the reverse of the declared order.
func ChannelAxisFromDimensionOrder(order string) (int, bool) {
	idx := strings.IndexByte(strings.ToUpper(order), 'C')
	if idx < 0 {
		return 0, false
	}
	return len(order) - idx - 1, true
}

// CoordinateTransformationsToMatrix builds the model matrix of the first
// multiscale from the transforms of its full resolution dataset, followed by
// any multiscale level transforms.
func CoordinateTransformationsToMatrix(multiscales []Multiscale) affine.Matrix4 {
	if len(multiscales) == 0 || len(multiscales[0].Datasets) == 0 {
		return affine.Identity()
	}
	ms := multiscales[0]

	transforms := append([]CoordinateTransformation(nil), ms.Datasets[0].CoordinateTransformations...)
	transforms = append(transforms, ms.CoordinateTransformations...)
	if len(transforms) == 0 {
		return affine.Identity()
	}

	ndim := len(ms.Axes)
	if ndim == 0 {
		for _, ct := range transforms {
			if n := max(len(ct.Scale), len(ct.Translation)); n > 0 {
				ndim = n
				break
			}
		}
	}
	labels := AxisLabels(ms.Axes, ndim)
	index := map[string]int{}
	for i, l := range labels {
		index[l] = i
	}

	scale := [3]float64{1, 1, 1}
	translation := [3]float64{}
	for _, ct := range transforms {
		for i, name := range []string{"x", "y", "z"} {
			pos, ok := index[name]
			if !ok {
				continue
			}
			switch ct.Type {
			case "scale":
				if pos < len(ct.Scale) {
					scale[i] *= ct.Scale[pos]
					translation[i] *= ct.Scale[pos]
				}
			case "translation":
				if pos < len(ct.Translation) {
					translation[i] += ct.Translation[pos]
				}
			}
		}
	}
	return affine.FromScaleTranslation(scale, translation)
}

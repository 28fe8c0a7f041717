package resolver

import (
	"context"
	"fmt"

	"ngffviewer/pkg/ngff"
	"ngffviewer/pkg/zarr"
)

// resolveLabels loads every label image listed in the sibling "labels"
// group. A missing labels group means no labels; a label that fails to load
// is logged and skipped.
func (r *Resolver) resolveLabels(ctx context.Context, cfg SourceConfig, grp *zarr.Group) []*LabelSource {
	root := grp.Resolve("labels")
	labelsGrp, err := zarr.OpenGroup(ctx, root)
	if err != nil {
		r.logOptional(root.String(), err)
		return nil
	}
	attrs, err := ngff.ResolveAttrs(labelsGrp.Attrs)
	if err != nil {
		r.Logger.Errorf("%v: invalid labels group attributes: %v", cfg.Locator, err)
		return nil
	}

	var labels []*LabelSource
	for _, name := range attrs.Labels {
		label, err := loadImageLabel(ctx, root, name)
		if err != nil {
			r.Logger.Errorf("%v: skipping label %v: %v", cfg.Locator, name, err)
			continue
		}
		labels = append(labels, label)
	}
	return labels
}

func loadImageLabel(ctx context.Context, root zarr.Location, name string) (*LabelSource, error) {
	grp, err := zarr.OpenGroup(ctx, root.Resolve(name))
	if err != nil {
		return nil, err
	}
	attrs, err := ngff.ResolveAttrs(grp.Attrs)
	if err != nil {
		return nil, err
	}
	if !attrs.IsImageLabel() {
		return nil, fmt.Errorf("no 'image-label' metadata")
	}

	arrays, err := loadMultiscales(ctx, grp, attrs.Multiscales)
	if err != nil {
		return nil, err
	}

	base := arrays[0]
	axisLabels := ngff.AxisLabels(attrs.Axes(), len(base.Shape))
	tileSize := guessTileSize(base)
	loader := make([]*PixelSource, len(arrays))
	for i, arr := range arrays {
		loader[i] = &PixelSource{Array: arr, Labels: axisLabels, TileSize: tileSize}
	}

	return &LabelSource{
		Name:        name,
		Loader:      loader,
		ModelMatrix: ngff.CoordinateTransformationsToMatrix(attrs.Multiscales),
		Colors:      attrs.ImageLabel.Colors,
	}, nil
}

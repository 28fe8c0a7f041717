package resolver

import (
	"context"
	"fmt"
	"math"
	"strings"

	"ngffviewer/pkg/affine"
	"ngffviewer/pkg/ngff"
	"ngffviewer/pkg/zarr"
)

// loadPlate lays out the lowest resolution of the first image of every well.
// Image metadata is read once, from the first well, and assumed to hold for
// the whole plate.
func (r *Resolver) loadPlate(ctx context.Context, cfg SourceConfig, grp *zarr.Group, plate *ngff.Plate) (*ResolvedSource, error) {
	if len(plate.Wells) == 0 {
		return nil, &ResolutionError{Locator: cfg.Locator, Reason: "plate has no wells"}
	}

	rows := make([]string, len(plate.Rows))
	for i, row := range plate.Rows {
		rows[i] = row.Name
	}
	columns := make([]string, len(plate.Columns))
	for i, col := range plate.Columns {
		columns[i] = col.Name
	}

	firstWell := plate.Wells[0].Path
	well, err := openAttrs(ctx, grp.Resolve(firstWell))
	if err != nil || !well.IsWell() || len(well.Well.Images) == 0 {
		return nil, &ResolutionError{Locator: cfg.Locator, Reason: fmt.Sprintf("failed to read well %v", firstWell), Err: err}
	}
	imagePath := well.Well.Images[0].Path

	image, err := openImage(ctx, grp.Resolve(firstWell).Resolve(imagePath))
	if err != nil {
		return nil, &ResolutionError{Locator: cfg.Locator, Reason: "failed to read plate image metadata", Err: err}
	}
	datasets := image.Multiscales[0].Datasets
	lowest := datasets[len(datasets)-1].Path

	var cells []GridCell
	for _, w := range plate.Wells {
		arr, err := zarr.OpenArray(ctx, grp.Resolve(w.Path).Resolve(imagePath).Resolve(lowest))
		if err != nil {
			r.Logger.Errorf("%v: skipping well %v: %v", cfg.Locator, w.Path, err)
			continue
		}

		row, col, _ := strings.Cut(w.Path, "/")
		cells = append(cells, GridCell{
			Name:   row + col,
			Row:    wellIndex(w.RowIndex, rows, row),
			Column: wellIndex(w.ColumnIndex, columns, col),
			Loader: &PixelSource{Array: arr},
		})
	}
	if len(cells) == 0 {
		return nil, &ResolutionError{Locator: cfg.Locator, Reason: "no well of the plate could be opened"}
	}

	src, err := r.gridSource(ctx, cfg, image, cells, len(rows), len(columns))
	if err != nil {
		return nil, err
	}
	src.Name = "Plate"
	if plate.Name != "" {
		src.Name = plate.Name
	}
	return src, nil
}

// loadWell lays out the images of one well in a near square grid
func (r *Resolver) loadWell(ctx context.Context, cfg SourceConfig, grp *zarr.Group, well *ngff.Well) (*ResolvedSource, error) {
	if len(well.Images) == 0 {
		return nil, &ResolutionError{Locator: cfg.Locator, Reason: "well has no images"}
	}

	image, err := openImage(ctx, grp.Resolve(well.Images[0].Path))
	if err != nil {
		return nil, &ResolutionError{Locator: cfg.Locator, Reason: "failed to read well image metadata", Err: err}
	}
	datasets := image.Multiscales[0].Datasets
	lowest := datasets[len(datasets)-1].Path

	columns := int(math.Ceil(math.Sqrt(float64(len(well.Images)))))
	rows := int(math.Ceil(float64(len(well.Images)) / float64(columns)))

	var cells []GridCell
	for i, img := range well.Images {
		arr, err := zarr.OpenArray(ctx, grp.Resolve(img.Path).Resolve(lowest))
		if err != nil {
			r.Logger.Errorf("%v: skipping image %v: %v", cfg.Locator, img.Path, err)
			continue
		}
		cells = append(cells, GridCell{
			Name:   img.Path,
			Row:    i / columns,
			Column: i % columns,
			Loader: &PixelSource{Array: arr},
		})
	}
	if len(cells) == 0 {
		return nil, &ResolutionError{Locator: cfg.Locator, Reason: "no image of the well could be opened"}
	}

	src, err := r.gridSource(ctx, cfg, image, cells, rows, columns)
	if err != nil {
		return nil, err
	}
	src.Name = "Well"
	return src, nil
}

// gridSource takes the channel metadata from one representative image and
// shares its axis labels and tile size across every cell
func (r *Resolver) gridSource(ctx context.Context, cfg SourceConfig, image *ngff.Attrs, cells []GridCell, rows, columns int) (*ResolvedSource, error) {
	arrays := []*zarr.Array{cells[0].Loader.Array}
	src, err := r.sourceData(ctx, cfg, arrays, image.Axes(), image.Omero, cfg.ChannelAxis)
	if err != nil {
		return nil, err
	}

	for i := range cells {
		cells[i].Loader.Labels = src.AxisLabels
		cells[i].Loader.TileSize = src.Loader[0].TileSize
	}
	src.Grid = &Grid{Rows: rows, Columns: columns, Cells: cells}
	src.Loader = []*PixelSource{cells[0].Loader}
	src.ModelMatrix = affine.Identity()
	return src, nil
}

func openAttrs(ctx context.Context, l zarr.Location) (*ngff.Attrs, error) {
	grp, err := zarr.OpenGroup(ctx, l)
	if err != nil {
		return nil, err
	}
	return ngff.ResolveAttrs(grp.Attrs)
}

func openImage(ctx context.Context, l zarr.Location) (*ngff.Attrs, error) {
	attrs, err := openAttrs(ctx, l)
	if err != nil {
		return nil, err
	}
	if !attrs.IsMultiscales() || len(attrs.Multiscales[0].Datasets) == 0 {
		return nil, fmt.Errorf("%v has no multiscales", l)
	}
	return attrs, nil
}

func wellIndex(declared *int, names []string, name string) int {
	if declared != nil {
		return *declared
	}
	return indexOf(names, name)
}

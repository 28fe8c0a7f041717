// Package resolver turns source locators into resolved sources: pyramids of
// pixel sources plus the channel metadata, labels, physical sizes and model
// matrix a viewer needs to build its initial layer state.
//
// Resolution is an ordered decision chain. Plates take precedence over the
// bioformats2raw layout marker; bioformats2raw containers go through series
// discovery; everything else is read as a direct multiscale group.
package resolver

import (
	"context"

	"ngffviewer/pkg/logger"
	"ngffviewer/pkg/ngff"
	"ngffviewer/pkg/store"
	"ngffviewer/pkg/zarr"
)

// Resolver resolves source configs. It holds no per-source state, so one
// Resolver may resolve many sources concurrently.
type Resolver struct {
	// OpenStore builds a fresh store for a locator
	OpenStore func(locator string) (store.Store, error)
	Logger    logger.ILogger
}

// New creates a resolver opening stores with store.Open
func New(opts store.Options, log logger.ILogger) *Resolver {
	return &Resolver{
		OpenStore: func(locator string) (store.Store, error) {
			return store.Open(locator, opts)
		},
		Logger: log,
	}
}

// resolution is the state shared by the steps of one Resolve call
type resolution struct {
	cfg   SourceConfig
	group *zarr.Group
	attrs *ngff.Attrs
}

// step is one entry of the decision chain
type step struct {
	name    string
	matches func(res *resolution) bool
	resolve func(ctx context.Context, res *resolution) (*ResolvedSource, error)
}

func (r *Resolver) chain() []step {
	return []step{
		// A plate wins over any bioformats2raw marker
		{"plate", func(res *resolution) bool { return res.attrs.IsPlate() }, r.resolveDirect},
		{"bioformats2raw", func(res *resolution) bool { return res.attrs.IsBioformats2raw() }, r.resolveBioformats2raw},
		{"multiscales", func(*resolution) bool { return true }, r.resolveDirect},
	}
}

// Resolve resolves one source. Only failures to open the store root or the
// chosen image group are fatal; optional documents that cannot be fetched
// are treated as absent.
func (r *Resolver) Resolve(ctx context.Context, cfg SourceConfig) (*ResolvedSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ResolutionError{Locator: cfg.Locator, Reason: "cancelled", Err: err}
	}

	st, err := r.OpenStore(cfg.Locator)
	if err != nil {
		return nil, &ResolutionError{Locator: cfg.Locator, Reason: "failed to open store", Err: err}
	}

	version, err := zarr.DetectVersion(ctx, st)
	if err != nil {
		return nil, &ResolutionError{Locator: cfg.Locator, Reason: "failed to detect zarr version", Err: err}
	}
	r.Logger.Debugf("%v: zarr v%d store", cfg.Locator, version)

	grp, arr, err := zarr.Open(ctx, zarr.Root(st, version))
	if err != nil {
		return nil, &ResolutionError{Locator: cfg.Locator, Reason: "failed to open root node", Err: err}
	}

	var src *ResolvedSource
	if arr != nil {
		src, err = r.resolveArray(ctx, cfg, arr)
	} else {
		src, err = r.resolveGroup(ctx, cfg, grp)
	}
	if err != nil {
		return nil, err
	}

	src.Locator = cfg.Locator
	if cfg.ModelMatrix != nil {
		src.ModelMatrix = *cfg.ModelMatrix
	}
	return src, nil
}

func (r *Resolver) resolveGroup(ctx context.Context, cfg SourceConfig, grp *zarr.Group) (*ResolvedSource, error) {
	attrs, err := ngff.ResolveAttrs(grp.Attrs)
	if err != nil {
		return nil, &ResolutionError{Locator: cfg.Locator, Reason: "invalid group attributes", Err: err}
	}

	res := &resolution{cfg: cfg, group: grp, attrs: attrs}
	for _, s := range r.chain() {
		if s.matches(res) {
			r.Logger.Debugf("%v: resolving as %v (%v attributes)", cfg.Locator, s.name, attrs.Kind)
			return s.resolve(ctx, res)
		}
	}
	return nil, &ResolutionError{Locator: cfg.Locator, Reason: "no resolution strategy"}
}

// resolveDirect reads the group itself as an image, plate or well
func (r *Resolver) resolveDirect(ctx context.Context, res *resolution) (*ResolvedSource, error) {
	return r.resolveImageGroup(ctx, res.cfg, res.group, res.attrs, res.cfg.ChannelAxis)
}

// resolveImageGroup builds the source data of an image group and attaches
// its labels and physical sizes
func (r *Resolver) resolveImageGroup(ctx context.Context, cfg SourceConfig, grp *zarr.Group, attrs *ngff.Attrs, channelAxis *int) (*ResolvedSource, error) {
	var (
		src *ResolvedSource
		err error
	)
	switch {
	case attrs.IsPlate():
		src, err = r.loadPlate(ctx, cfg, grp, attrs.Plate)
	case attrs.IsWell():
		src, err = r.loadWell(ctx, cfg, grp, attrs.Well)
	case attrs.IsMultiscales():
		src, err = r.loadMultiscaleImage(ctx, cfg, grp, attrs, channelAxis)
	default:
		return nil, &ResolutionError{Locator: cfg.Locator, Reason: "no multiscales, plate or well metadata at " + grp.Location.String()}
	}
	if err != nil {
		return nil, err
	}

	if attrs.IsMultiscales() {
		src.Labels = r.resolveLabels(ctx, cfg, grp)
		src.PhysicalSizes = physicalSizes(attrs)
	}
	return src, nil
}

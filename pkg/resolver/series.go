package resolver

import (
	"context"
	"fmt"
	"strconv"

	"ngffviewer/pkg/ngff"
	"ngffviewer/pkg/store"
	"ngffviewer/pkg/zarr"
)

// supportedLayout is the only bioformats2raw layout version understood
const supportedLayout = 3

// discovery holds what series discovery knows about a container
type discovery struct {
	root  zarr.Location
	attrs *ngff.Attrs
	xml   *ngff.OMEXML
}

// seriesStrategy finds series names one way. An empty result passes on to
// the next strategy.
type seriesStrategy struct {
	name string
	find func(ctx context.Context, d *discovery) []string
}

func (r *Resolver) seriesStrategies() []seriesStrategy {
	return []seriesStrategy{
		{"explicit series", r.explicitSeries},
		{"consolidated metadata", r.consolidatedSeries},
		{"OME-XML", func(_ context.Context, d *discovery) []string {
			if d.xml == nil {
				return nil
			}
			return d.xml.SeriesPaths()
		}},
		{"group probe", r.probeSeries},
	}
}

// resolveBioformats2raw finds the series of a bioformats2raw container and
// resolves the first one
func (r *Resolver) resolveBioformats2raw(ctx context.Context, res *resolution) (*ResolvedSource, error) {
	locator := res.cfg.Locator
	if *res.attrs.Bioformats2rawLayout != supportedLayout {
		return nil, &ResolutionError{Locator: locator, Reason: "Unsupported bioformats2raw layout"}
	}

	d := &discovery{root: res.group.Location, attrs: res.attrs}

	var xmlErrors *ngff.ValidationError
	if data := r.optional(ctx, d.root.Store, d.root.Key(store.JoinKey("OME", "METADATA.ome.xml"))); data != nil {
		xml, err := ngff.ParseOMEXML(data)
		if err != nil {
			xmlErrors, _ = err.(*ngff.ValidationError)
			r.Logger.Errorf("%v: %v", locator, err)
		}
		if xml != nil && len(xml.Images) > 0 {
			d.xml = xml
		}
	}

	var series []string
	for _, s := range r.seriesStrategies() {
		if series = s.find(ctx, d); len(series) > 0 {
			r.Logger.Debugf("%v: found %d series from %v", locator, len(series), s.name)
			break
		}
	}
	if len(series) == 0 {
		return nil, &ResolutionError{Locator: locator, Reason: "no series found in bioformats2raw container"}
	}

	loc := d.root.Resolve(series[0])
	grp, err := zarr.OpenGroup(ctx, loc)
	if err != nil {
		return nil, &ResolutionError{Locator: locator, Reason: fmt.Sprintf("failed to open series %v", series[0]), Err: err}
	}
	attrs, err := ngff.ResolveAttrs(grp.Attrs)
	if err != nil {
		return nil, &ResolutionError{Locator: locator, Reason: fmt.Sprintf("invalid attributes for series %v", series[0]), Err: err}
	}

	channelAxis := res.cfg.ChannelAxis
	if len(attrs.Axes()) == 0 && d.xml != nil {
		// Arrays reverse the declared dimension order, XYCZT is stored as TZCYX
		if axis, ok := ngff.ChannelAxisFromDimensionOrder(d.xml.Images[0].DimensionOrder); ok {
			channelAxis = &axis
		}
	}

	src, err := r.resolveImageGroup(ctx, res.cfg, grp, attrs, channelAxis)
	if err != nil {
		return nil, err
	}
	src.Series = series
	src.XMLErrors = xmlErrors
	return src, nil
}

// explicitSeries reads the series list from the container attributes or
// from the attributes of its OME group
func (r *Resolver) explicitSeries(ctx context.Context, d *discovery) []string {
	if len(d.attrs.Series) > 0 {
		return d.attrs.Series
	}

	grp, err := zarr.OpenGroup(ctx, d.root.Resolve("OME"))
	if err != nil {
		r.logOptional(d.root.Key("OME"), err)
		return nil
	}
	attrs, err := ngff.ResolveAttrs(grp.Attrs)
	if err != nil {
		r.Logger.Infof("ignoring OME group attributes: %v", err)
		return nil
	}
	return attrs.Series
}

// consolidatedSeries lists the top level multiscale groups of the
// consolidated metadata
func (r *Resolver) consolidatedSeries(ctx context.Context, d *discovery) []string {
	var (
		series []string
		err    error
	)
	if d.root.Version == zarr.V3 {
		data := r.optional(ctx, d.root.Store, d.root.Key("zarr.json"))
		if data == nil {
			return nil
		}
		series, err = ngff.ConsolidatedSeriesV3(data)
	} else {
		data := r.optional(ctx, d.root.Store, d.root.Key(".zmetadata"))
		if data == nil {
			return nil
		}
		series, err = ngff.ConsolidatedSeries(data)
	}
	if err != nil {
		r.Logger.Infof("ignoring consolidated metadata: %v", err)
		return nil
	}
	return series
}

// probeSeries opens groups 0, 1, 2... and stops at the first index that is
// missing or holds no multiscales
func (r *Resolver) probeSeries(ctx context.Context, d *discovery) []string {
	r.Logger.Infof("%v: no OME group, consolidated metadata or OME-XML, probing for series", d.root)

	var series []string
	for i := 0; ; i++ {
		name := strconv.Itoa(i)
		grp, err := zarr.OpenGroup(ctx, d.root.Resolve(name))
		if err != nil {
			break
		}
		attrs, err := ngff.ResolveAttrs(grp.Attrs)
		if err != nil || !attrs.IsMultiscales() {
			break
		}
		series = append(series, name)
	}
	return series
}

// optional fetches a document that may legitimately be missing. Any failure
// yields nil.
func (r *Resolver) optional(ctx context.Context, st store.Store, key string) []byte {
	data, err := st.Get(ctx, key)
	if err != nil {
		r.logOptional(key, err)
		return nil
	}
	return data
}

func (r *Resolver) logOptional(key string, err error) {
	if store.IsNotFound(err) || isNodeNotFound(err) {
		r.Logger.Debugf("optional document %v not present", key)
		return
	}
	r.Logger.Infof("%v", &TransientFetchError{Key: key, Err: err})
}

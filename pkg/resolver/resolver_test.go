package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ngffviewer/internal/models"
	"ngffviewer/pkg/affine"
	"ngffviewer/pkg/logger"
	"ngffviewer/pkg/store"
	"ngffviewer/pkg/zarr"
)

func TestResolveMultiscales(t *testing.T) {
	st := store.NewMemoryStore()
	putImage(st, "", 2, "")

	// Lowest resolution of channel 0 holds 5..104, channel 1 is never written
	values := make([]uint16, 32*32)
	for i := range values {
		values[i] = uint16(i%100 + 5)
	}
	st.Put("1/0.0.0", uint16Chunk(values))

	r, _ := newTestResolver(st)
	src, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(src.Loader) != 2 || src.Loader[0].Shape()[1] != 64 || src.Loader[1].Shape()[1] != 32 {
		t.Errorf("Expected a two level pyramid, largest first")
	}
	if fmt.Sprint(src.AxisLabels) != "[c y x]" || src.ChannelAxis != 0 {
		t.Errorf("Unexpected axes %v, channel axis %d", src.AxisLabels, src.ChannelAxis)
	}
	if fmt.Sprint(src.Names) != "[channel_0 channel_1]" {
		t.Errorf("Unexpected names %v", src.Names)
	}
	if fmt.Sprint(src.Colors) != "[FF00FF 00FF00]" {
		t.Errorf("Expected magenta/green, got %v", src.Colors)
	}
	if src.ContrastLimits[0] != (models.Limits{5, 104}) {
		t.Errorf("Expected data range [5 104], got %v", src.ContrastLimits[0])
	}
	if src.ContrastLimits[1] != (models.Limits{0, 0}) {
		t.Errorf("Expected fill value range for unwritten channel, got %v", src.ContrastLimits[1])
	}
	if src.Loader[0].TileSize != 32 {
		t.Errorf("Expected tile size 32, got %d", src.Loader[0].TileSize)
	}
	if src.ModelMatrix[affine.ScaleX] != 0.5 {
		t.Errorf("Expected x scale 0.5, got %v", src.ModelMatrix[affine.ScaleX])
	}
	if got := src.PhysicalSizes["x"]; got.Size != 0.5 || got.Unit != "micrometer" {
		t.Errorf("Unexpected physical size %+v", got)
	}
	if _, ok := src.PhysicalSizes["c"]; ok {
		t.Errorf("Expected no physical size for the channel axis")
	}
	if src.Locator != "mem" || src.Opacity != 1 {
		t.Errorf("Unexpected locator %v or opacity %v", src.Locator, src.Opacity)
	}
}

func TestResolveOmero(t *testing.T) {
	st := store.NewMemoryStore()
	putGroup(st, "", multiscalesAttrs(`["c","z","y","x"]`, 1, `"omero":{"name":"cells","channels":[
		{"label":"DAPI","color":"0000ff","active":true,"window":{"start":10,"end":200,"min":0,"max":4095}},
		{"label":"GFP","color":"00FF00","active":false,"window":{"start":0,"end":100,"min":0,"max":255}}
	],"rdefs":{"defaultZ":3}}`))
	putArray(st, "0", "<u2", []int{2, 5, 16, 16}, []int{1, 1, 16, 16})

	r, _ := newTestResolver(st)
	src, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if src.Name != "cells" || fmt.Sprint(src.Names) != "[DAPI GFP]" {
		t.Errorf("Unexpected names %v %v", src.Name, src.Names)
	}
	if src.Colors[0] != "0000FF" {
		t.Errorf("Expected upper case colour, got %v", src.Colors[0])
	}
	if src.Visibilities[0] != true || src.Visibilities[1] != false {
		t.Errorf("Unexpected visibilities %v", src.Visibilities)
	}
	if src.ContrastLimits[0] != (models.Limits{10, 200}) || src.ContrastLimitsRange[0] != (models.Limits{0, 4095}) {
		t.Errorf("Unexpected limits %v range %v", src.ContrastLimits[0], src.ContrastLimitsRange[0])
	}
	if fmt.Sprint(src.DefaultSelection) != "[0 3 0 0]" {
		t.Errorf("Expected default z of 3, got %v", src.DefaultSelection)
	}
}

func TestPlateTakesPrecedenceOverBioformats2raw(t *testing.T) {
	st := store.NewMemoryStore()
	putGroup(st, "", `{"bioformats2raw.layout":3,"plate":{"name":"screen","rows":[{"name":"A"},{"name":"B"}],"columns":[{"name":"1"}],"wells":[{"path":"A/1"},{"path":"B/1"}]}}`)
	for _, well := range []string{"A/1", "B/1"} {
		putGroup(st, well, `{"well":{"images":[{"path":"0"}]}}`)
		putImage(st, well+"/0", 1, "")
	}

	r, _ := newTestResolver(st)
	src, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if src.Grid == nil {
		t.Fatalf("Expected a grid source")
	}
	if src.Series != nil {
		t.Errorf("Expected no series discovery for a plate, got %v", src.Series)
	}
	if src.Grid.Rows != 2 || src.Grid.Columns != 1 || len(src.Grid.Cells) != 2 {
		t.Errorf("Unexpected grid %+v", src.Grid)
	}
	if src.Grid.Cells[1].Row != 1 || src.Grid.Cells[1].Name != "B1" {
		t.Errorf("Unexpected second cell %+v", src.Grid.Cells[1])
	}
	// Cells use the lowest resolution
	if src.Loader[0].Shape()[1] != 32 || src.Name != "screen" {
		t.Errorf("Unexpected loader shape %v or name %v", src.Loader[0].Shape(), src.Name)
	}
}

func TestResolveWell(t *testing.T) {
	st := store.NewMemoryStore()
	putGroup(st, "", `{"well":{"images":[{"path":"0"},{"path":"1"},{"path":"2"}]}}`)
	for _, img := range []string{"0", "1", "2"} {
		putImage(st, img, 1, "")
	}

	r, _ := newTestResolver(st)
	src, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if src.Grid.Rows != 2 || src.Grid.Columns != 2 {
		t.Errorf("Expected a 2x2 grid, got %dx%d", src.Grid.Rows, src.Grid.Columns)
	}
	if c := src.Grid.Cells[2]; c.Row != 1 || c.Column != 0 {
		t.Errorf("Unexpected third cell position %+v", c)
	}
}

func TestExplicitSeriesBeatsConsolidatedMetadata(t *testing.T) {
	st := store.NewMemoryStore()
	putGroup(st, "", `{"bioformats2raw.layout":3}`)
	st.Put("OME/.zattrs", []byte(`{"series":["1"]}`))
	st.Put(".zmetadata", []byte(`{"metadata":{"0/.zattrs":{"multiscales":[{"datasets":[{"path":"0"}]}]}}}`))
	putImage(st, "0", 1, "")
	putImage(st, "1", 3, "")

	r, _ := newTestResolver(st)
	src, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fmt.Sprint(src.Series) != "[1]" {
		t.Errorf("Expected series [1], got %v", src.Series)
	}
	if src.NumChannels() != 3 {
		t.Errorf("Expected series 1 with 3 channels to be resolved, got %d", src.NumChannels())
	}
}

func TestConsolidatedSeries(t *testing.T) {
	st := store.NewMemoryStore()
	putGroup(st, "", `{"bioformats2raw.layout":3}`)
	st.Put(".zmetadata", []byte(`{"metadata":{
		".zattrs":{"bioformats2raw.layout":3},
		"1/.zattrs":{"multiscales":[{"datasets":[{"path":"0"}]}]},
		"0/.zattrs":{"multiscales":[{"datasets":[{"path":"0"}]}]}
	}}`))
	putImage(st, "0", 1, "")
	putImage(st, "1", 1, "")

	r, _ := newTestResolver(st)
	src, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fmt.Sprint(src.Series) != "[0 1]" {
		t.Errorf("Expected series [0 1], got %v", src.Series)
	}
}

func TestSeriesFromOMEXML(t *testing.T) {
	st := store.NewMemoryStore()
	putGroup(st, "", `{"bioformats2raw.layout":3}`)
	st.Put("OME/METADATA.ome.xml", []byte(`<OME>
		<Image ID="Image:0" Name="a"><Pixels DimensionOrder="XYCZT"/></Image>
		<Image ID="Image:1" Name="b"><Pixels DimensionOrder="XYCZT"/></Image>
	</OME>`))
	// Series without axes: XYCZT is stored as TZCYX
	putGroup(st, "0", multiscalesAttrs("", 1, ""))
	putArray(st, "0/0", "|u1", []int{1, 4, 3, 16, 16}, []int{1, 1, 1, 16, 16})

	r, _ := newTestResolver(st)
	src, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fmt.Sprint(src.Series) != "[0 1]" {
		t.Errorf("Expected series [0 1], got %v", src.Series)
	}
	if src.ChannelAxis != 2 || src.NumChannels() != 3 {
		t.Errorf("Expected channel axis 2 with 3 channels, got %d with %d", src.ChannelAxis, src.NumChannels())
	}
	if fmt.Sprint(src.AxisLabels) != "[t z c y x]" {
		t.Errorf("Unexpected axis labels %v", src.AxisLabels)
	}
	if fmt.Sprint(src.Colors) != "[FF0000 00FF00 0000FF]" {
		t.Errorf("Expected RGB defaults, got %v", src.Colors)
	}
	if src.ContrastLimits[0] != (models.Limits{0, 255}) {
		t.Errorf("Expected uint8 range, got %v", src.ContrastLimits[0])
	}
}

func TestMalformedOMEXMLIsReported(t *testing.T) {
	st := store.NewMemoryStore()
	putGroup(st, "", `{"bioformats2raw.layout":3}`)
	st.Put("OME/METADATA.ome.xml", []byte(`<OME><Image ID="Image:0"></OME>`))
	putImage(st, "0", 1, "")

	r, _ := newTestResolver(st)
	src, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if src.XMLErrors == nil || len(src.XMLErrors.Errors) == 0 {
		t.Errorf("Expected XML parse errors on the source")
	}
	if fmt.Sprint(src.Series) != "[0]" {
		t.Errorf("Expected probed series [0], got %v", src.Series)
	}
}

func TestProbeStopsAtFirstGap(t *testing.T) {
	st := store.NewMemoryStore()
	putGroup(st, "", `{"bioformats2raw.layout":3}`)
	putImage(st, "0", 1, "")
	putImage(st, "1", 1, "")
	putImage(st, "3", 1, "")

	r, _ := newTestResolver(st)
	src, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fmt.Sprint(src.Series) != "[0 1]" {
		t.Errorf("Expected series [0 1], got %v", src.Series)
	}
}

func TestUnsupportedLayout(t *testing.T) {
	st := store.NewMemoryStore()
	putGroup(st, "", `{"bioformats2raw.layout":2}`)

	r, _ := newTestResolver(st)
	_, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem"})

	var rerr *ResolutionError
	if !errors.As(err, &rerr) || rerr.Reason != "Unsupported bioformats2raw layout" {
		t.Errorf("Expected unsupported layout error, got %v", err)
	}
}

func TestOptionalFetchFailureIsAbsent(t *testing.T) {
	st := store.NewMemoryStore()
	putGroup(st, "", `{"bioformats2raw.layout":3}`)
	st.Fail(".zmetadata", errors.New("connection reset"))
	putImage(st, "0", 1, "")

	r, log := newTestResolver(st)
	src, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fmt.Sprint(src.Series) != "[0]" {
		t.Errorf("Expected probed series [0], got %v", src.Series)
	}

	found := false
	for _, line := range log.Lines {
		if strings.Contains(line, "connection reset") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected the failed fetch to be logged, got %v", log.Lines)
	}
}

func TestSeriesGroupMissingIsFatal(t *testing.T) {
	st := store.NewMemoryStore()
	putGroup(st, "", `{"bioformats2raw.layout":3,"series":["7"]}`)

	r, _ := newTestResolver(st)
	_, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem"})

	var rerr *ResolutionError
	if !errors.As(err, &rerr) {
		t.Errorf("Expected ResolutionError, got %v", err)
	}
}

func TestLabels(t *testing.T) {
	st := store.NewMemoryStore()
	putImage(st, "", 2, "")
	putGroup(st, "labels", `{"labels":["cells","broken"]}`)
	putGroup(st, "labels/cells", multiscalesAttrs(`["y","x"]`, 1, `"image-label":{"colors":[{"label-value":1,"rgba":[255,0,0,255]}]}`))
	putArray(st, "labels/cells/0", "<u4", []int{64, 64}, []int{64, 64})
	putGroup(st, "labels/broken", multiscalesAttrs(`["y","x"]`, 1, ""))
	putArray(st, "labels/broken/0", "<u4", []int{64, 64}, []int{64, 64})

	r, log := newTestResolver(st)
	src, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(src.Labels) != 1 {
		t.Fatalf("Expected 1 label, got %d", len(src.Labels))
	}
	label := src.Labels[0]
	if label.Name != "cells" || len(label.Colors) != 1 || label.Colors[0].LabelValue != 1 {
		t.Errorf("Unexpected label %+v", label)
	}
	if fmt.Sprint(label.Loader[0].Labels) != "[y x]" {
		t.Errorf("Unexpected label axes %v", label.Loader[0].Labels)
	}
	if len(log.Lines) == 0 {
		t.Errorf("Expected the broken label to be logged")
	}
}

func TestModelMatrixOverride(t *testing.T) {
	st := store.NewMemoryStore()
	putImage(st, "", 1, "")

	override := affine.FromScaleTranslation([3]float64{2, 2, 1}, [3]float64{10, 0, 0})
	r, _ := newTestResolver(st)
	src, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem", ModelMatrix: &override})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if src.ModelMatrix != override {
		t.Errorf("Expected override matrix, got %v", src.ModelMatrix)
	}
}

func TestForcedChannelAxis(t *testing.T) {
	st := store.NewMemoryStore()
	putArray(st, "", "<u2", []int{4, 8, 8}, []int{1, 8, 8})

	axis := -1
	r, _ := newTestResolver(st)
	src, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem", ChannelAxis: &axis})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if src.ChannelAxis != -1 || src.NumChannels() != 1 || src.Colors[0] != "FFFFFF" {
		t.Errorf("Expected a single white channel, got axis %d %v", src.ChannelAxis, src.Colors)
	}

	axis = 3
	if _, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem", ChannelAxis: &axis}); err == nil {
		t.Errorf("Expected out of range channel axis to fail")
	}
}

func TestResolvePlainArray(t *testing.T) {
	st := store.NewMemoryStore()
	putArray(st, "", "<u2", []int{8, 3, 16, 16}, []int{1, 1, 16, 16})

	r, _ := newTestResolver(st)
	src, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(src.Loader) != 1 || !src.ModelMatrix.IsIdentity() {
		t.Errorf("Expected a single level with identity transform")
	}
	if fmt.Sprint(src.AxisLabels) != "[c z y x]" || src.NumChannels() != 8 {
		t.Errorf("Unexpected axes %v with %d channels", src.AxisLabels, src.NumChannels())
	}
	if fmt.Sprint(src.Visibilities) != "[true true true true true true false false]" {
		t.Errorf("Expected the first 6 channels visible, got %v", src.Visibilities)
	}
}

func TestResolveV3(t *testing.T) {
	st := store.NewMemoryStore()
	st.Put("zarr.json", []byte(`{"zarr_format":3,"node_type":"group","attributes":{"ome":{"version":"0.5","multiscales":[{
		"axes":[{"name":"y","type":"space"},{"name":"x","type":"space"}],
		"datasets":[{"path":"0","coordinateTransformations":[{"type":"scale","scale":[2,2]}]}]
	}]}}}`))
	st.Put("0/zarr.json", []byte(`{"zarr_format":3,"node_type":"array","shape":[32,32],"data_type":"uint16",
		"chunk_grid":{"name":"regular","configuration":{"chunk_shape":[16,16]}},
		"chunk_key_encoding":{"name":"default"},"codecs":[{"name":"bytes","configuration":{"endian":"little"}}],"fill_value":0}`))

	r, _ := newTestResolver(st)
	src, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if src.ChannelAxis != -1 || src.Loader[0].TileSize != 16 {
		t.Errorf("Unexpected channel axis %d or tile size %d", src.ChannelAxis, src.Loader[0].TileSize)
	}
	if src.PhysicalSizes["y"].Size != 2 {
		t.Errorf("Expected y size 2, got %+v", src.PhysicalSizes)
	}
}

func TestResolveCancelled(t *testing.T) {
	st := store.NewMemoryStore()
	putImage(st, "", 1, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, _ := newTestResolver(st)
	_, err := r.Resolve(ctx, SourceConfig{Locator: "mem"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestResolveAllKeepsOrder(t *testing.T) {
	stores := map[string]store.Store{}
	for i, channels := range []int{1, 2, 3} {
		st := store.NewMemoryStore()
		putImage(st, "", channels, "")
		stores[fmt.Sprintf("s%d", i)] = st
	}

	// The first source cannot start until the last one has opened its store
	lastStarted := make(chan struct{})
	r := &Resolver{
		OpenStore: func(locator string) (store.Store, error) {
			switch locator {
			case "s2":
				<-lastStarted
			case "s0":
				close(lastStarted)
			}
			if st, ok := stores[locator]; ok {
				return st, nil
			}
			return nil, errors.New("no such store")
		},
		Logger: logger.NullLogger{},
	}

	sources, errs := r.ResolveAll(context.Background(), []SourceConfig{
		{Locator: "s2"}, {Locator: "missing"}, {Locator: "s0"},
	})
	if len(sources) != 3 || len(errs) != 3 {
		t.Fatalf("Expected 3 results, got %d/%d", len(sources), len(errs))
	}
	if sources[0] == nil || sources[2] == nil {
		t.Fatalf("Expected the first and last sources to resolve, got %v", errs)
	}
	if sources[0].NumChannels() != 3 || sources[2].NumChannels() != 1 {
		t.Errorf("Results are not in input order")
	}
	if sources[1] != nil || errs[1] == nil || errs[0] != nil || errs[2] != nil {
		t.Errorf("Expected only the second source to fail, got %v", errs)
	}
}

func TestResolveForbiddenKeysAsAbsent(t *testing.T) {
	files := store.NewMemoryStore()
	putImage(files, "img", 1, "")

	// Object store hosting answers 403 for every key that does not exist
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		data, err := files.Get(req.Context(), strings.TrimPrefix(req.URL.Path, "/"))
		if err != nil {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	r := &Resolver{
		OpenStore: func(locator string) (store.Store, error) { return store.NewHTTPStore(locator, 0) },
		Logger:    logger.NullLogger{},
	}
	src, err := r.Resolve(context.Background(), SourceConfig{Locator: srv.URL + "/img"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(src.Loader) != 2 || src.NumChannels() != 1 {
		t.Errorf("Expected a 2 level single channel image, got %d levels and %d channels", len(src.Loader), src.NumChannels())
	}
}

func TestResolveV3UnreadableCodecs(t *testing.T) {
	st := store.NewMemoryStore()
	st.Put("zarr.json", []byte(`{"zarr_format":3,"node_type":"group","attributes":{"ome":{"version":"0.5","multiscales":[{
		"axes":[{"name":"c","type":"channel"},{"name":"y","type":"space"},{"name":"x","type":"space"}],
		"datasets":[{"path":"0","coordinateTransformations":[{"type":"scale","scale":[1,1,1]}]}]
	}]}}}`))
	st.Put("0/zarr.json", []byte(`{"zarr_format":3,"node_type":"array","shape":[2,64,64],"data_type":"uint16",
		"chunk_grid":{"name":"regular","configuration":{"chunk_shape":[1,64,64]}},
		"chunk_key_encoding":{"name":"default"},"fill_value":0,
		"codecs":[{"name":"sharding_indexed","configuration":{"chunk_shape":[1,32,32],"codecs":[
			{"name":"bytes","configuration":{"endian":"little"}},
			{"name":"blosc","configuration":{"cname":"zstd","clevel":5,"shuffle":"shuffle","typesize":2}}]}}]}`))

	r, _ := newTestResolver(st)
	src, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem"})
	if err != nil {
		t.Fatalf("Expected metadata-only resolution to succeed, got %v", err)
	}
	if fmt.Sprint(src.Loader[0].Shape()) != "[2 64 64]" || src.NumChannels() != 2 {
		t.Errorf("Unexpected shape %v with %d channels", src.Loader[0].Shape(), src.NumChannels())
	}
	if src.ContrastLimits[0] != (models.Limits{0, 65535}) {
		t.Errorf("Expected the uint16 range when chunks cannot be decoded, got %v", src.ContrastLimits[0])
	}
}

func TestResolveScalarArray(t *testing.T) {
	st := store.NewMemoryStore()
	putArray(st, "", "<u2", []int{}, []int{})

	r, _ := newTestResolver(st)
	_, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem"})
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("Expected a ResolutionError for a 0-d array, got %v", err)
	}
}

func TestInterleavedEmptyShape(t *testing.T) {
	p := &PixelSource{Array: &zarr.Array{}}
	if p.Interleaved() {
		t.Errorf("Expected an array without dimensions not to be interleaved")
	}
}

func TestResolveVersionProbeFailure(t *testing.T) {
	st := store.NewMemoryStore()
	putImage(st, "", 1, "")
	st.Fail("zarr.json", errors.New("503 service unavailable"))

	r, _ := newTestResolver(st)
	_, err := r.Resolve(context.Background(), SourceConfig{Locator: "mem"})
	var resErr *ResolutionError
	if !errors.As(err, &resErr) || !strings.Contains(err.Error(), "503") {
		t.Errorf("Expected the version probe failure to be reported, got %v", err)
	}
}

func TestResolveAllLeavesReportingToCaller(t *testing.T) {
	log := &logger.MemLogger{}
	r := &Resolver{
		OpenStore: func(string) (store.Store, error) { return nil, errors.New("no such store") },
		Logger:    log,
	}

	_, errs := r.ResolveAll(context.Background(), []SourceConfig{{Locator: "missing"}})
	if errs[0] == nil {
		t.Fatalf("Expected the source to fail")
	}
	for _, line := range log.Lines {
		if strings.HasPrefix(line, "ERROR") {
			t.Errorf("Expected failures to be left to the reporter, got %q", line)
		}
	}
}

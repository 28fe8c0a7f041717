package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ngffviewer/internal/models"
	"ngffviewer/pkg/affine"
	"ngffviewer/pkg/layers"
	"ngffviewer/pkg/logger"
	"ngffviewer/pkg/resolver"
	"ngffviewer/pkg/viewport"
	"ngffviewer/pkg/zarr"
)

func testServer() *Server {
	axes := []string{"c", "y", "x"}
	src := &resolver.ResolvedSource{
		Loader: []*resolver.PixelSource{{
			Array:  &zarr.Array{Shape: []int{2, 100, 100}, Chunks: []int{1, 100, 100}, DType: zarr.DataType{Kind: 'u', Size: 2}},
			Labels: axes,
		}},
		ModelMatrix:         affine.Identity(),
		AxisLabels:          axes,
		ChannelAxis:         0,
		Names:               []string{"a", "b"},
		Colors:              []string{"FF00FF", "00FF00"},
		ContrastLimits:      []models.Limits{{0, 1}, {0, 1}},
		ContrastLimitsRange: []models.Limits{{0, 1}, {0, 1}},
		Visibilities:        []bool{true, true},
		DefaultSelection:    models.Selection{0, 0, 0},
		Opacity:             1,
	}
	c := layers.NewCollection([]*resolver.ResolvedSource{src, nil}, nil)
	return New(c, viewport.Viewport{Width: 300, Height: 300}, Transition{Seconds: 0.2, FPS: 10}, logger.NullLogger{})
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler([]string{"*"}).ServeHTTP(w, req)
	return w
}

func TestGetState(t *testing.T) {
	s := testServer()
	w := do(t, s, "GET", "/state", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp StateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(resp.Layers) != 2 || resp.Layers[1] != nil || len(resp.Descriptors) != 1 {
		t.Errorf("Unexpected state %+v", resp)
	}
	if resp.DepthRange.Near != 0.1 || resp.DepthRange.Far != 1000 {
		t.Errorf("Unexpected depth range %+v", resp.DepthRange)
	}
}

func TestToggleVisibility(t *testing.T) {
	s := testServer()
	w := do(t, s, "POST", "/layers/0/visibility", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if s.layers.States()[0].On {
		t.Errorf("Expected layer to be off")
	}

	if w := do(t, s, "POST", "/layers/1/visibility", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for failed source, got %d", w.Code)
	}
	if w := do(t, s, "POST", "/layers/5/visibility", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown layer, got %d", w.Code)
	}
}

func TestChannelRoutes(t *testing.T) {
	s := testServer()

	if w := do(t, s, "PUT", "/layers/0/channels/1/contrast", "[5, 50]"); w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := s.layers.States()[0].LayerProps.ContrastLimits[1]; got != (models.Limits{5, 50}) {
		t.Errorf("Unexpected limits %v", got)
	}

	do(t, s, "POST", "/layers/0/channels/0/visibility", "")
	if s.layers.States()[0].LayerProps.ChannelsVisible[0] {
		t.Errorf("Expected channel 0 hidden")
	}

	if w := do(t, s, "POST", "/layers/0/channels/2/visibility", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown channel, got %d", w.Code)
	}
}

func TestSetSelectionsAndOpacity(t *testing.T) {
	s := testServer()

	if w := do(t, s, "PUT", "/layers/0/selections", "[[0,0,0]]"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for wrong selection count, got %d", w.Code)
	}
	if w := do(t, s, "PUT", "/layers/0/selections", "[[1,0,0],[0,0,0]]"); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if s.layers.States()[0].LayerProps.Selections[0][0] != 1 {
		t.Errorf("Expected selections to be replaced")
	}

	if w := do(t, s, "PUT", "/layers/0/opacity", `{"opacity":0.3}`); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if s.layers.States()[0].LayerProps.Opacity != 0.3 {
		t.Errorf("Expected opacity 0.3")
	}
	if w := do(t, s, "PUT", "/layers/0/opacity", `nope`); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid body, got %d", w.Code)
	}
}

func TestResetView(t *testing.T) {
	s := testServer()

	w := do(t, s, "POST", "/view/reset", "")
	var resp ViewResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	// 300 wide viewport pads by 10: 280/100
	if resp.ViewState.Target != [2]float64{50, 50} || len(resp.Keyframes) != 0 {
		t.Errorf("Unexpected first reset %+v", resp)
	}

	w = do(t, s, "POST", "/view/reset", `{"width":700,"height":200}`)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if resp.ViewState.Zoom != 0 {
		t.Errorf("Expected zoom 0 for a 100 px high box, got %v", resp.ViewState.Zoom)
	}
	if len(resp.Keyframes) == 0 {
		t.Errorf("Expected keyframes from the previous view")
	}
}

func TestMetricsRoute(t *testing.T) {
	s := testServer()
	do(t, s, "GET", "/layers", "")
	w := do(t, s, "GET", "/metrics", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ngff_http_requests_total") {
		t.Errorf("Expected request metrics to be exported")
	}
}

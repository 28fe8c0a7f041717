// Package server exposes a layer collection over HTTP: the current state,
// the render descriptors, and one route per layer operation.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tanema/gween/ease"

	"ngffviewer/internal/models"
	"ngffviewer/pkg/layers"
	"ngffviewer/pkg/logger"
	"ngffviewer/pkg/viewport"
)

// Transition controls the keyframes returned by a view reset
type Transition struct {
	Seconds float32
	FPS     int
}

// Server serves one viewer session
type Server struct {
	layers     *layers.Collection
	viewport   viewport.Viewport
	transition Transition
	log        logger.ILogger

	viewMu sync.Mutex
	view   *viewport.ViewState

	Router *mux.Router
}

// StateResponse is the full session state
type StateResponse struct {
	Layers      []*layers.LayerState `json:"layers"`
	Sources     []*layers.SourceInfo `json:"sources"`
	Descriptors []layers.Descriptor  `json:"descriptors"`
	DepthRange  viewport.DepthRange  `json:"depthRange"`
	ViewState   *viewport.ViewState  `json:"viewState,omitempty"`
}

// ViewResponse answers a view reset
type ViewResponse struct {
	ViewState  viewport.ViewState   `json:"viewState"`
	DepthRange viewport.DepthRange  `json:"depthRange"`
	Keyframes  []viewport.ViewState `json:"keyframes,omitempty"`
}

type opacityRequest struct {
	Opacity float64 `json:"opacity"`
}

// New builds the routes for a collection
func New(c *layers.Collection, vp viewport.Viewport, transition Transition, log logger.ILogger) *Server {
	s := &Server{layers: c, viewport: vp, transition: transition, log: log, Router: mux.NewRouter()}

	r := s.Router
	r.HandleFunc("/state", s.getState).Methods("GET")
	r.HandleFunc("/layers", s.getLayers).Methods("GET")
	r.HandleFunc("/sources", s.getSources).Methods("GET")
	r.HandleFunc("/descriptors", s.getDescriptors).Methods("GET")
	r.HandleFunc("/layers/{index}/visibility", s.toggleVisibility).Methods("POST")
	r.HandleFunc("/layers/{index}/opacity", s.setOpacity).Methods("PUT")
	r.HandleFunc("/layers/{index}/selections", s.setSelections).Methods("PUT")
	r.HandleFunc("/layers/{index}/channels/{channel}/visibility", s.toggleChannelVisibility).Methods("POST")
	r.HandleFunc("/layers/{index}/channels/{channel}/contrast", s.setChannelContrast).Methods("PUT")
	r.HandleFunc("/view/reset", s.resetView).Methods("POST")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.Use(PrometheusMiddleware)
	return s
}

// Handler wraps the router with CORS for the given origins
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	return handlers.CORS(
		handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "OPTIONS"}),
		handlers.AllowedOrigins(allowedOrigins),
	)(s.Router)
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	descriptors := s.layers.Descriptors()

	s.viewMu.Lock()
	view := s.view
	s.viewMu.Unlock()

	writeJSON(w, http.StatusOK, StateResponse{
		Layers:      s.layers.States(),
		Sources:     s.layers.Sources(),
		Descriptors: descriptors,
		DepthRange:  viewport.ComputeDepthRange(layers.Layers(descriptors)),
		ViewState:   view,
	})
}

func (s *Server) getLayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.layers.States())
}

func (s *Server) getSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.layers.Sources())
}

func (s *Server) getDescriptors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.layers.Descriptors())
}

func (s *Server) toggleVisibility(w http.ResponseWriter, r *http.Request) {
	index, ok := s.layerIndex(w, r)
	if !ok {
		return
	}
	label := r.URL.Query().Get("label")
	s.apply(w, index, func(st []*layers.LayerState) []*layers.LayerState {
		return layers.ToggleVisibility(st, index, label)
	})
}

func (s *Server) setOpacity(w http.ResponseWriter, r *http.Request) {
	index, ok := s.layerIndex(w, r)
	if !ok {
		return
	}
	var req opacityRequest
	if !readJSON(w, r, &req) {
		return
	}
	label := r.URL.Query().Get("label")
	s.apply(w, index, func(st []*layers.LayerState) []*layers.LayerState {
		return layers.SetOpacity(st, index, label, req.Opacity)
	})
}

func (s *Server) setSelections(w http.ResponseWriter, r *http.Request) {
	index, ok := s.layerIndex(w, r)
	if !ok {
		return
	}
	var selections []models.Selection
	if !readJSON(w, r, &selections) {
		return
	}
	if n := len(s.layers.States()[index].LayerProps.ContrastLimits); len(selections) != n {
		http.Error(w, "expected "+strconv.Itoa(n)+" selections", http.StatusBadRequest)
		return
	}
	s.apply(w, index, func(st []*layers.LayerState) []*layers.LayerState {
		return layers.SetSelections(st, index, selections)
	})
}

func (s *Server) toggleChannelVisibility(w http.ResponseWriter, r *http.Request) {
	index, channel, ok := s.channelIndex(w, r)
	if !ok {
		return
	}
	s.apply(w, index, func(st []*layers.LayerState) []*layers.LayerState {
		return layers.ToggleChannelVisibility(st, index, channel)
	})
}

func (s *Server) setChannelContrast(w http.ResponseWriter, r *http.Request) {
	index, channel, ok := s.channelIndex(w, r)
	if !ok {
		return
	}
	var limits models.Limits
	if !readJSON(w, r, &limits) {
		return
	}
	s.apply(w, index, func(st []*layers.LayerState) []*layers.LayerState {
		return layers.SetChannelContrast(st, index, channel, limits)
	})
}

// resetView fits the first layer into the viewport. A JSON body with width
// and height replaces the configured viewport.
func (s *Server) resetView(w http.ResponseWriter, r *http.Request) {
	vp := s.viewport
	if r.ContentLength > 0 && !readJSON(w, r, &vp) {
		return
	}

	descriptors := layers.Layers(s.layers.Descriptors())
	if len(descriptors) == 0 {
		http.Error(w, "no layers to fit", http.StatusConflict)
		return
	}
	target := viewport.ResetViewState(descriptors, vp)

	s.viewMu.Lock()
	from := s.view
	s.view = &target
	s.viewMu.Unlock()

	resp := ViewResponse{ViewState: target, DepthRange: viewport.ComputeDepthRange(descriptors)}
	if from != nil {
		resp.Keyframes = viewport.Keyframes(*from, target, s.transition.Seconds, s.transition.FPS, ease.OutCubic)
	}
	writeJSON(w, http.StatusOK, resp)
}

// apply runs a layer operation and answers with the resulting layer
func (s *Server) apply(w http.ResponseWriter, index int, op func([]*layers.LayerState) []*layers.LayerState) {
	if changed := s.layers.Update(op); !changed {
		s.log.Debugf("layer %d: operation left the state unchanged", index)
	}
	writeJSON(w, http.StatusOK, s.layers.States()[index])
}

// layerIndex parses {index}, answering 404 for unknown or failed sources
func (s *Server) layerIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || index < 0 || index >= s.layers.Len() || s.layers.States()[index] == nil {
		http.Error(w, "no such layer", http.StatusNotFound)
		return 0, false
	}
	return index, true
}

func (s *Server) channelIndex(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	index, ok := s.layerIndex(w, r)
	if !ok {
		return 0, 0, false
	}
	channel, err := strconv.Atoi(mux.Vars(r)["channel"])
	if err != nil || channel < 0 || channel >= len(s.layers.States()[index].LayerProps.ChannelsVisible) {
		http.Error(w, "no such channel", http.StatusNotFound)
		return 0, 0, false
	}
	return index, channel, true
}

func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

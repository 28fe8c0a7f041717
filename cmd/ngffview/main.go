package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ngffviewer/internal/models"
	"ngffviewer/pkg/affine"
	"ngffviewer/pkg/config"
	"ngffviewer/pkg/diagnostics"
	"ngffviewer/pkg/layers"
	"ngffviewer/pkg/logger"
	"ngffviewer/pkg/resolver"
	"ngffviewer/pkg/server"
	"ngffviewer/pkg/viewport"
	"ngffviewer/pkg/visualization"
)

const release = "ngffview@dev"

// stringList collects a repeatable string flag
type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

// output is what a one-shot run prints
type output struct {
	Sources     []*layers.SourceInfo `json:"sources"`
	Errors      []string             `json:"errors"`
	Descriptors []layers.Descriptor  `json:"descriptors"`
	ViewState   viewport.ViewState   `json:"viewState"`
	DepthRange  viewport.DepthRange  `json:"depthRange"`
}

func main() {
	// Parse command line arguments
	var sources, channelAxes, modelMatrices stringList
	configPath := flag.String("config", "ngffview.yaml", "Configuration file")
	flag.Var(&sources, "source", "Store URL or path to open, repeatable (overrides the configured sources)")
	flag.Var(&channelAxes, "channel-axis", "Channel axis of the matching -source, repeatable")
	flag.Var(&modelMatrices, "model-matrix", "16 comma separated column-major values for the matching -source, repeatable")
	label := flag.Bool("label", false, "Show every -source as a label image")
	viewportSize := flag.String("viewport", "", "Viewport size as WIDTHxHEIGHT")
	logLevel := flag.String("log-level", "", "Log level (DEBUG, INFO, ERROR)")
	serve := flag.Bool("serve", false, "Serve the layer state over HTTP instead of printing it")
	initConfig := flag.Bool("init-config", false, "Write a default configuration file and exit")
	previewDir := flag.String("preview", "", "Directory to save a JPEG preview of every visible channel")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *logLevel != "" {
		cfg.Logging.LogLevel = *logLevel
	}
	if *viewportSize != "" {
		if cfg.Viewport.Width, cfg.Viewport.Height, err = parseSize(*viewportSize); err != nil {
			log.Fatalf("Invalid viewport: %v", err)
		}
	}
	if len(sources) > 0 {
		if cfg.Sources, err = flagSources(sources, channelAxes, modelMatrices, *label); err != nil {
			log.Fatalf("Invalid sources: %v", err)
		}
	}

	level, err := logger.ParseLogLevel(cfg.Logging.LogLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	lg := logger.NewStdErrLogger(level)

	configs, forceLabel, err := cfg.SourceConfigs()
	if err != nil {
		log.Fatalf("Invalid sources: %v", err)
	}

	// Resolve every source concurrently, failures stay in place
	startTime := time.Now()
	resolved, errs := resolver.New(cfg.StoreOptions(), lg).ResolveAll(context.Background(), configs)
	lg.Infof("Resolved %d sources in %.2f seconds", len(configs), time.Since(startTime).Seconds())

	locators := make([]string, len(configs))
	for i, c := range configs {
		locators[i] = c.Locator
	}
	reporter := diagnostics.NewReporter(cfg.Server.SentryDSN, cfg.Server.EnvironmentName, release, lg)
	failed := diagnostics.ReportAll(reporter, locators, errs)
	defer reporter.Flush()
	if failed > 0 {
		lg.Errorf("%d of %d sources failed", failed, len(configs))
	}

	collection := layers.NewCollection(resolved, forceLabel)
	vp := viewport.Viewport{Width: cfg.Viewport.Width, Height: cfg.Viewport.Height}

	if *previewDir != "" {
		savePreviews(collection, *previewDir, lg)
	}

	if *serve {
		transition := server.Transition{Seconds: float32(cfg.Viewport.TransitionSeconds), FPS: cfg.Viewport.TransitionFPS}
		s := server.New(collection, vp, transition, lg)
		lg.Infof("Listening on %s", cfg.Server.ListenAddress)
		if err := http.ListenAndServe(cfg.Server.ListenAddress, s.Handler(cfg.Server.AllowedOrigins)); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
		return
	}

	descriptors := collection.Descriptors()
	visible := layers.Layers(descriptors)
	out := output{
		Sources:     collection.Sources(),
		Errors:      make([]string, len(errs)),
		Descriptors: descriptors,
		ViewState:   viewport.ResetViewState(visible, vp),
		DepthRange:  viewport.ComputeDepthRange(visible),
	}
	for i, e := range errs {
		if e != nil {
			out.Errors[i] = e.Error()
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("Failed to write state: %v", err)
	}
}

// flagSources builds the source list from -source flags, pairing the
// repeatable per-source flags by position
func flagSources(locators, channelAxes, matrices []string, label bool) ([]config.Source, error) {
	if len(channelAxes) > len(locators) || len(matrices) > len(locators) {
		return nil, fmt.Errorf("more -channel-axis or -model-matrix flags than -source flags")
	}

	result := make([]config.Source, len(locators))
	for i, locator := range locators {
		result[i] = config.Source{Locator: locator, Label: label}
		if i < len(channelAxes) && channelAxes[i] != "" {
			axis, err := strconv.Atoi(channelAxes[i])
			if err != nil {
				return nil, fmt.Errorf("channel axis %q: %w", channelAxes[i], err)
			}
			result[i].ChannelAxis = &axis
		}
		if i < len(matrices) && matrices[i] != "" {
			if _, err := affine.Parse(matrices[i]); err != nil {
				return nil, err
			}
			result[i].ModelMatrix = matrices[i]
		}
	}
	return result, nil
}

func parseSize(s string) (float64, float64, error) {
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected WIDTHxHEIGHT, got %q", s)
	}
	w, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, err
	}
	h, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, err
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("viewport must be positive, got %q", s)
	}
	return w, h, nil
}

func savePreviews(c *layers.Collection, dir string, lg logger.ILogger) {
	for _, state := range c.States() {
		if state == nil || state.Kind == models.KindGrid {
			continue
		}
		viewer := visualization.NewViewer(state)
		written, err := viewer.SaveChannelSequence(context.Background(), filepath.Join(dir, state.LayerProps.ID))
		if err != nil {
			lg.Errorf("Failed to save preview of %s: %v", state.LayerProps.ID, err)
		}
		for _, f := range written {
			lg.Infof("Saved preview: %s", f)
		}
	}
}

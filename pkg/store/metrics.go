package store

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "ngff_store_fetch_seconds",
		Help: "Duration of store key fetches.",
	}, []string{"backend"})
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ngff_store_fetches_total",
		Help: "Number of store key fetches by outcome.",
	}, []string{"backend", "outcome"})
)

type instrumented struct {
	Store
	backend string
}

// Instrument records fetch counts and durations for every Get on s
func Instrument(s Store, backend string) Store {
	return &instrumented{Store: s, backend: backend}
}

func (s *instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	data, err := s.Store.Get(ctx, key)
	fetchDuration.WithLabelValues(s.backend).Observe(time.Since(start).Seconds())

	outcome := "ok"
	if IsNotFound(err) {
		outcome = "not_found"
	} else if err != nil {
		outcome = "error"
	}
	fetchTotal.WithLabelValues(s.backend, outcome).Inc()
	return data, err
}

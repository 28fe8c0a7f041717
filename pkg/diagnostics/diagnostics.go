// Package diagnostics reports sources that failed to resolve
package diagnostics

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"ngffviewer/pkg/logger"
)

// Reporter receives per-source failures after a resolution pass
type Reporter interface {
	SourceFailed(index int, locator string, err error)
	Flush()
}

// ReportAll sends every non-nil error to r. errs lines up with locators.
func ReportAll(r Reporter, locators []string, errs []error) int {
	count := 0
	for i, err := range errs {
		if err == nil {
			continue
		}
		locator := ""
		if i < len(locators) {
			locator = locators[i]
		}
		r.SourceFailed(i, locator, err)
		count++
	}
	r.Flush()
	return count
}

// LogReporter writes failures to a logger
type LogReporter struct {
	Logger logger.ILogger
}

func (r LogReporter) SourceFailed(index int, locator string, err error) {
	r.Logger.Errorf("Error fetching source %d (%v): %v", index, locator, err)
}

func (r LogReporter) Flush() {}

// SentryReporter logs failures and captures them as sentry messages
type SentryReporter struct {
	LogReporter
	hub *sentry.Hub
}

// NewSentryReporter initialises a sentry client for dsn. If that fails the
// error is logged and a nil hub leaves the reporter logging only.
func NewSentryReporter(dsn string, environment string, release string, log logger.ILogger) *SentryReporter {
	r := &SentryReporter{LogReporter: LogReporter{Logger: log}}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     release,
	})
	if err != nil {
		log.Errorf("Sentry initialization failed: %v", err)
		return r
	}
	r.hub = sentry.NewHub(client, sentry.NewScope())
	return r
}

func (r *SentryReporter) SourceFailed(index int, locator string, err error) {
	r.LogReporter.SourceFailed(index, locator, err)
	if r.hub == nil {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("locator", locator)
		scope.SetExtra("index", index)
		r.hub.CaptureMessage(fmt.Sprintf("source %d failed to resolve: %v", index, err))
	})
}

func (r *SentryReporter) Flush() {
	if r.hub != nil {
		r.hub.Flush(2 * time.Second)
	}
}

// NewReporter returns a SentryReporter when a DSN is configured, a
// LogReporter otherwise
func NewReporter(dsn string, environment string, release string, log logger.ILogger) Reporter {
	if dsn == "" {
		return LogReporter{Logger: log}
	}
	return NewSentryReporter(dsn, environment, release, log)
}

// Package logger provides the leveled logging interface used across ngffviewer.
// Packages that perform I/O accept an ILogger so tests can pass a NullLogger.
package logger

import (
	"fmt"
	"log"
	"strings"
)

// LogLevel - log level type
type LogLevel int

const (
	// LogDebug - DEBUG log level
	LogDebug LogLevel = iota

	// LogInfo - INFO log level
	LogInfo

	// LogError - ERROR log level (does not call os.Exit!)
	LogError
)

var logLevelPrefix = map[LogLevel]string{
	LogDebug: "DEBUG",
	LogInfo:  "INFO",
	LogError: "ERROR",
}

// ILogger - Generic logger interface
type ILogger interface {
	Printf(level LogLevel, format string, a ...interface{})
	Debugf(format string, a ...interface{})
	Infof(format string, a ...interface{})
	Errorf(format string, a ...interface{})
}

// ParseLogLevel converts a config string (debug, info, error) into a LogLevel.
func ParseLogLevel(level string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LogDebug, nil
	case "", "info":
		return LogInfo, nil
	case "error":
		return LogError, nil
	}
	return LogInfo, fmt.Errorf("unknown log level: %q", level)
}

// StdErrLogger writes through the standard library logger, skipping
// anything below its configured level.
type StdErrLogger struct {
	logLevel LogLevel
}

// NewStdErrLogger creates a logger writing at or above the given level
func NewStdErrLogger(level LogLevel) *StdErrLogger {
	return &StdErrLogger{logLevel: level}
}

func (l *StdErrLogger) Printf(level LogLevel, format string, a ...interface{}) {
	if level < l.logLevel {
		return
	}
	txt := logLevelPrefix[level] + ": " + fmt.Sprintf(format, a...)
	log.Println(txt)
}
func (l *StdErrLogger) Debugf(format string, a ...interface{}) {
	l.Printf(LogDebug, format, a...)
}
func (l *StdErrLogger) Infof(format string, a ...interface{}) {
	l.Printf(LogInfo, format, a...)
}
func (l *StdErrLogger) Errorf(format string, a ...interface{}) {
	l.Printf(LogError, format, a...)
}

func (l *StdErrLogger) SetLogLevel(level LogLevel) {
	l.logLevel = level
}
func (l *StdErrLogger) GetLogLevel() LogLevel {
	return l.logLevel
}

// NullLogger - For mocking out in tests
type NullLogger struct {
}

func (l NullLogger) Printf(level LogLevel, format string, a ...interface{}) {
	// We do nothing!
}
func (l NullLogger) Debugf(format string, a ...interface{}) {
	// We do nothing!
}
func (l NullLogger) Infof(format string, a ...interface{}) {
	// We do nothing!
}
func (l NullLogger) Errorf(format string, a ...interface{}) {
	// We do nothing!
}

// MemLogger keeps formatted lines in memory so tests can assert on what was logged
type MemLogger struct {
	Lines []string
}

func (l *MemLogger) Printf(level LogLevel, format string, a ...interface{}) {
	l.Lines = append(l.Lines, logLevelPrefix[level]+": "+fmt.Sprintf(format, a...))
}
func (l *MemLogger) Debugf(format string, a ...interface{}) {
	l.Printf(LogDebug, format, a...)
}
func (l *MemLogger) Infof(format string, a ...interface{}) {
	l.Printf(LogInfo, format, a...)
}
func (l *MemLogger) Errorf(format string, a ...interface{}) {
	l.Printf(LogError, format, a...)
}

// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

// Package log provides the Logger/Helper shape retropak uses for
// diagnostics, backed by logrus. Within retropak only File logs, at Error
// level, when a decode it was asked for fails; the decoders do not log.
package log

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

func sprintf(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

// Level is a logging severity, ordered least to most severe.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) logrusLevel() logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelInfo:
		return logrus.InfoLevel
	case LevelWarn:
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}

// Logger is the minimal structured-logging surface retropak depends on.
// Callers may supply their own implementation via Options.Logger.
type Logger interface {
	Log(level Level, msg string)
}

// stdLogger adapts a logrus.Logger to Logger.
type stdLogger struct {
	entry *logrus.Logger
}

// NewStdLogger returns a Logger that writes to a logrus.Logger with
// output directed at w.
func NewStdLogger(w *os.File) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &stdLogger{entry: l}
}

func (s *stdLogger) Log(level Level, msg string) {
	s.entry.WithField("level", level).Log(level.logrusLevel(), msg)
}

// filterLogger wraps a Logger, dropping records below a minimum level.
type filterLogger struct {
	logger Logger
	min    Level
}

// FilterOption configures NewFilter.
type FilterOption func(*filterLogger)

// FilterLevel sets the minimum level a filtered Logger passes through.
func FilterLevel(level Level) FilterOption {
	return func(f *filterLogger) { f.min = level }
}

// NewFilter returns a Logger that only forwards records at or above the
// configured minimum level, defaulting to LevelDebug (no filtering).
func NewFilter(logger Logger, opts ...FilterOption) Logger {
	f := &filterLogger{logger: logger, min: LevelDebug}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *filterLogger) Log(level Level, msg string) {
	if level < f.min {
		return
	}
	f.logger.Log(level, msg)
}

// Helper adds printf-style convenience methods over a Logger, matching
// the call shape retropak's File uses (logger.Errorf("...", args...)).
type Helper struct {
	logger Logger
}

// NewHelper wraps logger in a Helper.
func NewHelper(logger Logger) *Helper {
	return &Helper{logger: logger}
}

func (h *Helper) Debug(msg string) { h.logger.Log(LevelDebug, msg) }
func (h *Helper) Info(msg string)  { h.logger.Log(LevelInfo, msg) }
func (h *Helper) Warn(msg string)  { h.logger.Log(LevelWarn, msg) }
func (h *Helper) Error(msg string) { h.logger.Log(LevelError, msg) }

func (h *Helper) Debugf(format string, args ...interface{}) {
	h.logger.Log(LevelDebug, sprintf(format, args...))
}
func (h *Helper) Infof(format string, args ...interface{}) {
	h.logger.Log(LevelInfo, sprintf(format, args...))
}
func (h *Helper) Warnf(format string, args ...interface{}) {
	h.logger.Log(LevelWarn, sprintf(format, args...))
}
func (h *Helper) Errorf(format string, args ...interface{}) {
	h.logger.Log(LevelError, sprintf(format, args...))
}

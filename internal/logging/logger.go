// Package logging adapts zerolog to the core.Logger interface.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger writes key/value pairs through a zerolog.Logger.
type Logger struct {
	zl zerolog.Logger
}

// InitLogger builds a console logger on out (stdout when nil) tagged with app
// and installs it as the zerolog global logger.
func InitLogger(out io.Writer, app, level string) (*Logger, error) {
	if out == nil {
		out = os.Stdout
	}
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
	l, err := New(output, app, level)
	if err != nil {
		return nil, err
	}
	log.Logger = l.zl
	return l, nil
}

// New builds a logger writing to w. An empty level means info.
func New(w io.Writer, app, level string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zl := zerolog.New(w).Level(lvl).With().Timestamp().Str("app", app).Logger()
	return &Logger{zl: zl}, nil
}

// Wrap adapts an existing zerolog logger.
func Wrap(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl}
}

// ParseLevel accepts zerolog level names, case-insensitive.
func ParseLevel(level string) (zerolog.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(level)
}

// Zerolog returns the underlying logger.
func (l *Logger) Zerolog() zerolog.Logger { return l.zl }

func (l *Logger) Debug(msg string, args ...any) { emit(l.zl.Debug(), msg, args) }
func (l *Logger) Info(msg string, args ...any)  { emit(l.zl.Info(), msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { emit(l.zl.Warn(), msg, args) }
func (l *Logger) Error(msg string, args ...any) { emit(l.zl.Error(), msg, args) }

// emit attaches alternating key/value args. Non-string keys are skipped by
// zerolog and a trailing key gets a nil value.
func emit(e *zerolog.Event, msg string, args []any) {
	if e == nil {
		return
	}
	if len(args) > 0 {
		e = e.Fields(args)
	}
	e.Msg(msg)
}

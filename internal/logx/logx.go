// Package logx is the logging capability handed to the pipelines. Nothing in the
// pipelines reaches for a process-wide logger; callers pass a Logger in.
package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the diagnostic sink used by the pipelines.
// kv is a flat list of key/value pairs.
type Logger interface {
	Trace(msg string, kv ...any)
	Error(err error, msg string, kv ...any)
}

// New builds a zerolog.Logger for the given level and format ("json" or "console").
func New(level, format string, w io.Writer) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	switch strings.ToLower(format) {
	case "", "json":
	case "console", "text":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), fmt.Errorf("unsupported log format: %s", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// ParseLevel maps a level name to a zerolog level. Empty means trace, the add-in's
// historical default.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "trace":
		return zerolog.TraceLevel, nil
	case "off", "disabled":
		return zerolog.Disabled, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

type zlogger struct{ l zerolog.Logger }

// FromZerolog adapts a zerolog.Logger to Logger.
func FromZerolog(l zerolog.Logger) Logger { return zlogger{l: l} }

func (z zlogger) Trace(msg string, kv ...any) {
	z.l.Trace().Fields(kv).Msg(msg)
}

func (z zlogger) Error(err error, msg string, kv ...any) {
	z.l.Error().Err(err).Fields(kv).Msg(msg)
}

type nop struct{}

func (nop) Trace(string, ...any)        {}
func (nop) Error(error, string, ...any) {}

// Nop discards everything.
var Nop Logger = nop{}

// OrNop returns l, or Nop when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop
	}
	return l
}

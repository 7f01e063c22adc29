// Package logging builds the zerolog logger used by the CLI.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Verbosity levels accepted by -v.
const (
	VerbosityWarn  = 0
	VerbosityInfo  = 1
	VerbosityDebug = 2
)

// Options configures the logger.
type Options struct {
	// Verbosity is 0 (warnings), 1 (info) or 2 (debug). Out-of-range
	// values are clamped.
	Verbosity int
	// Out receives console output; defaults to stderr.
	Out io.Writer
	// NoColor disables ANSI colours on the console.
	NoColor bool
	// File, when set, also writes JSON log lines to a rotated file.
	File string
}

// Level maps a verbosity to a zerolog level.
func Level(verbosity int) zerolog.Level {
	switch {
	case verbosity <= VerbosityWarn:
		return zerolog.WarnLevel
	case verbosity == VerbosityInfo:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}

// New creates a logger writing human-readable lines to Out.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	var w io.Writer = zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    opts.NoColor,
		TimeFormat: "15:04:05",
	}
	if opts.File != "" {
		if fw := fileWriter(opts.File); fw != nil {
			w = zerolog.MultiLevelWriter(w, fw)
		}
	}

	logger := zerolog.New(w).Level(Level(opts.Verbosity)).With().Timestamp().Logger()
	if opts.Verbosity >= VerbosityDebug {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

// fileWriter returns a rotating writer, or nil if the directory cannot be
// created.
func fileWriter(path string) io.Writer {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
}

// Nop returns a logger that discards everything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

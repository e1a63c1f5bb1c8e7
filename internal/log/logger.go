package log

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New returns a secure logger writing format ("text" or "json") to w.
func New(w io.Writer, format string, verbose bool) *slog.Logger {
	if format == FormatJSON {
		return NewSecureJSONLogger(w, verbose)
	}
	return NewSecureLogger(w, verbose)
}

// NewSecureLogger creates a new slog.Logger with secure handling.
// The logger sanitizes sensitive information in all log output.
//
// Output is colored when w is a terminal. Verbose sets the level to Debug;
// otherwise only warnings and errors are written.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
		if !noColor {
			w = colorable.NewColorable(f)
		}
	}

	handler := tint.NewHandler(w, &tint.Options{
		Level:      level(verbose),
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	})

	return slog.New(NewSecureHandler(handler))
}

// NewSecureJSONLogger creates a new slog.Logger with secure handling
// that outputs JSON format. Useful for structured log aggregation.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level(verbose),
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	return slog.New(NewSecureHandler(jsonHandler))
}

func level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

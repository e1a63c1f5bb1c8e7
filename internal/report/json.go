package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/notionscan/internal/model"
)

// JSONWriter outputs documents in JSON format.
// HTML characters are not escaped so that URLs stay readable.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	settings Settings
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithSettings sets the scan options reported by Write.
func WithSettings(s Settings) JSONWriterOption {
	return func(w *JSONWriter) {
		w.settings = s
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the scan metadata (the content of scan_meta.json).
func (w *JSONWriter) Write(scan *model.Scan) (int, error) {
	return w.WriteDocument(NewScanMeta(scan, w.settings))
}

// WriteDocument marshals v to JSON and writes it with a trailing newline.
func (w *JSONWriter) WriteDocument(v any) (int, error) {
	data, err := w.marshal(v)
	if err != nil {
		return 0, err
	}
	return w.output.Write(data)
}

func (w *JSONWriter) marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent {
		enc.SetIndent(w.indentPrefix, w.indentString)
	}
	// Encode appends the trailing newline.
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

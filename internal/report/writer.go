package report

import (
	"io"

	"github.com/nao1215/notionscan/internal/model"
)

// Writer renders a finished scan to a stream.
// Implementations exist for plain text, JSON and Markdown.
type Writer interface {
	// Write outputs the scan to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(scan *model.Scan) (int, error)
}

// MultiWriter writes to multiple Writers in order.
// This is useful for printing the summary line and saving a copy.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the scan to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(scan *model.Scan) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(scan)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

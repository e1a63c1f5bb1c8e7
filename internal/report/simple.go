package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/notionscan/internal/model"
)

// SimpleWriter outputs the human-readable end-of-scan summary.
// By default it prints one line; WithVerbose adds the failures and the
// list of written files.
type SimpleWriter struct {
	baseWriter

	settings Settings

	// showEmpty prints the failures section even when there are none.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithScanSettings sets the scan options echoed in the summary line.
func WithScanSettings(s Settings) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.settings = s
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary of a scan.
func (w *SimpleWriter) Write(scan *model.Scan) (int, error) {
	var sb strings.Builder

	w.writeSummaryLine(&sb, scan)
	if w.verbose {
		w.writeFailures(&sb, scan)
		w.writeFiles(&sb, scan)
	}

	return io.WriteString(w.output, sb.String())
}

// writeSummaryLine writes the one-line summary.
func (w *SimpleWriter) writeSummaryLine(sb *strings.Builder, scan *model.Scan) {
	var pages, databases, images, failures int
	var blocks int64
	var truncated bool
	if snap := scan.Snapshot; snap != nil {
		pages = len(snap.Pages)
		databases = len(snap.Databases)
		images = len(snap.Images)
		failures = len(snap.Stats.Failures)
		blocks = snap.Stats.BlocksFetched
		truncated = snap.Stats.Truncated()
	}

	dir := scan.OutputDir
	if dir == "" {
		dir = DefaultOutputDir
	}

	fmt.Fprintf(sb,
		"✅ Done. Files saved to %s: pages: %d, databases: %d, images: %d. "+
			"concurrency=%d; includeRowValues=%t; includeComments=%t; totalBlocks=%d; failures=%d; truncated=%t\n",
		dir, pages, databases, images,
		w.settings.Concurrency, w.settings.IncludeRowValues, w.settings.IncludeComments,
		blocks, failures, truncated)
}

// writeFailures writes the non-fatal failures of the traversal.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, scan *model.Scan) {
	var failures []model.Failure
	if scan.Snapshot != nil {
		failures = scan.Snapshot.Stats.Failures
	}
	if len(failures) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString("\nFailures:\n")
	if len(failures) == 0 {
		sb.WriteString("  none\n")
		return
	}
	for _, f := range failures {
		fmt.Fprintf(sb, "  [%s] %s: %s\n", f.Scope, f.ID, f.Message)
	}
}

// writeFiles lists the written output files.
func (w *SimpleWriter) writeFiles(sb *strings.Builder, scan *model.Scan) {
	if len(scan.Files) == 0 {
		return
	}
	sb.WriteString("\nFiles:\n")
	for _, f := range scan.Files {
		fmt.Fprintf(sb, "  %s\n", f)
	}
}

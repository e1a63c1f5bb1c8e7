package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/notionscan/internal/model"
)

// ErrNothingToWrite is returned when a scan has no snapshot or bundle.
var ErrNothingToWrite = errors.New("scan has no traversal result")

// DirWriter writes every output file of a scan into one directory.
// The directory is cleared before writing.
type DirWriter struct {
	dir      string
	settings Settings
	logger   *slog.Logger
}

// DirWriterOption configures a DirWriter.
type DirWriterOption func(*DirWriter)

// WithDirSettings sets the scan options recorded in scan_meta.json.
func WithDirSettings(s Settings) DirWriterOption {
	return func(w *DirWriter) {
		w.settings = s
	}
}

// WithDirLogger sets the logger.
func WithDirLogger(logger *slog.Logger) DirWriterOption {
	return func(w *DirWriter) {
		w.logger = logger
	}
}

// NewDirWriter returns a DirWriter for dir. An empty dir means DefaultOutputDir.
func NewDirWriter(dir string, opts ...DirWriterOption) *DirWriter {
	if dir == "" {
		dir = DefaultOutputDir
	}
	w := &DirWriter{
		dir:    dir,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the output directory.
func (w *DirWriter) Dir() string {
	return w.dir
}

type outputFile struct {
	name   string
	render func(*bytes.Buffer) error
}

// Write clears the output directory and writes the scan's files into it.
// The names of the written files are appended to scan.Files.
func (w *DirWriter) Write(ctx context.Context, scan *model.Scan) error {
	if scan.Snapshot == nil || scan.Bundle == nil {
		return ErrNothingToWrite
	}

	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("failed to clear output directory: %w", err)
	}
	if err := os.MkdirAll(w.dir, defaultDirPerm); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	scan.OutputDir = w.dir

	for _, f := range w.files(scan) {
		if err := ctx.Err(); err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := f.render(&buf); err != nil {
			return fmt.Errorf("failed to render %s: %w", f.name, err)
		}
		path := filepath.Join(w.dir, f.name)
		if err := os.WriteFile(path, buf.Bytes(), defaultOutputPerm); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		scan.Files = append(scan.Files, f.name)
		w.logger.Debug("wrote output file", "file", path, "bytes", buf.Len())
	}
	return nil
}

// files lists the outputs of scan in write order. scan_meta.json and
// summary.md come last so they can report FinishedAt.
func (w *DirWriter) files(scan *model.Scan) []outputFile {
	snap, bundle := scan.Snapshot, scan.Bundle

	doc := func(v any) func(*bytes.Buffer) error {
		return func(buf *bytes.Buffer) error {
			_, err := NewJSONWriter(buf, WithPrettyPrint()).WriteDocument(v)
			return err
		}
	}

	files := []outputFile{
		{ExtractedFile, doc(NewExtractedDocument(snap))},
		{PagesFile, doc(&PagesDocument{SchemaVersion: model.SchemaVersion, Pages: bundle.Pages})},
		{DatabasesFile, doc(&DatabasesDocument{SchemaVersion: model.SchemaVersion, Databases: bundle.Databases})},
		{MediaFile, doc(&MediaDocument{SchemaVersion: model.SchemaVersion, Images: bundle.Media})},
		{GraphFile, doc(&GraphDocument{
			SchemaVersion: model.SchemaVersion,
			Nodes:         bundle.Graph.Nodes,
			Edges:         bundle.Graph.Edges,
		})},
		{FormulasFile, doc(NewFormulasDocument(snap.Databases))},
		{FormulaAuditFile, func(buf *bytes.Buffer) error {
			_, err := NewMarkdownWriter(buf).WriteFormulaAudit(snap.Databases)
			return err
		}},
	}

	if scan.CommentsFetched {
		comments := scan.Comments
		if comments == nil {
			comments = []model.CommentRecord{}
		}
		files = append(files, outputFile{CommentsFile, doc(&CommentsDocument{
			SchemaVersion: model.SchemaVersion,
			Comments:      comments,
		})})
	}

	return append(files,
		outputFile{ScanMetaFile, func(buf *bytes.Buffer) error {
			_, err := NewJSONWriter(buf, WithPrettyPrint(), WithSettings(w.settings)).Write(scan)
			return err
		}},
		outputFile{SummaryFile, func(buf *bytes.Buffer) error {
			_, err := NewMarkdownWriter(buf).Write(scan)
			return err
		}},
	)
}

// ReadScanMeta reads scan_meta.json from an output directory.
func ReadScanMeta(dir string) (*ScanMeta, error) {
	data, err := os.ReadFile(filepath.Clean(filepath.Join(dir, ScanMetaFile)))
	if err != nil {
		return nil, fmt.Errorf("failed to read scan metadata: %w", err)
	}
	var meta ScanMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ScanMetaFile, err)
	}
	if meta.SnapshotKey == "" {
		return nil, fmt.Errorf("%s has no snapshotKey", ScanMetaFile)
	}
	return &meta, nil
}

// LatestScanDir returns the name of the most recently modified
// subdirectory of dir, or "" when there is none.
func LatestScanDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read scans directory: %w", err)
	}

	var latest string
	var latestMod int64
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); latest == "" || mod > latestMod {
			latest = e.Name()
			latestMod = mod
		}
	}
	return latest, nil
}

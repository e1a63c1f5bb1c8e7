package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nao1215/notionscan/internal/database"
	"github.com/nao1215/notionscan/internal/report"
)

// LabelFormat is the time layout of snapshot labels.
const LabelFormat = "20060102_150405"

// Store records output snapshots and compares them.
type Store struct {
	db     *database.SnapshotDB
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock replaces time.Now for snapshot labels.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns a Store backed by db.
func NewStore(db *database.SnapshotDB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SnapResult describes the outcome of Snap.
type SnapResult struct {
	Key   string
	Label string
	Files int
	// Skipped is true when the outputs equal the latest snapshot.
	Skipped bool
}

func (r SnapResult) String() string {
	if r.Skipped {
		return fmt.Sprintf("Snapshot unchanged: %s (latest is identical)", r.Key)
	}
	return fmt.Sprintf("Snapshot: %s/%s", r.Key, r.Label)
}

// Snap stores every JSON file of outputDir under the snapshot key read from
// its scan_meta.json. Nothing is stored when the files are identical to the
// latest snapshot of the key.
func (s *Store) Snap(ctx context.Context, outputDir string) (*SnapResult, error) {
	meta, err := report.ReadScanMeta(outputDir)
	if err != nil {
		return nil, err
	}

	files, err := readJSONFiles(outputDir)
	if err != nil {
		return nil, err
	}

	contents := make(map[string][]byte, len(files))
	for _, f := range files {
		contents[f.Name] = f.Content
	}
	digest := Digest(contents)

	res := &SnapResult{Key: meta.SnapshotKey, Files: len(files)}
	latest, err := s.db.LatestSnapshot(ctx, meta.SnapshotKey)
	switch {
	case err == nil && latest.Digest == digest:
		s.logger.Debug("outputs unchanged, snapshot skipped", "key", meta.SnapshotKey, "latest", latest.Label)
		res.Label = latest.Label
		res.Skipped = true
		return res, nil
	case err != nil && !errors.Is(err, database.ErrSnapshotNotFound):
		return nil, err
	}

	res.Label = s.now().Format(LabelFormat)
	if _, err := s.db.SaveSnapshot(ctx, &database.Snapshot{
		Key:       meta.SnapshotKey,
		Label:     res.Label,
		RootTitle: meta.RootTitle,
		Digest:    digest,
	}, files); err != nil {
		return nil, err
	}
	s.logger.Debug("snapshot stored", "key", meta.SnapshotKey, "label", res.Label, "files", len(files))
	return res, nil
}

// DiffLatest compares the two newest snapshots of key. The returned result
// is nil when there are fewer than two snapshots.
func (s *Store) DiffLatest(ctx context.Context, key string) (*Result, error) {
	snaps, err := s.db.LatestSnapshots(ctx, key, 2)
	if err != nil {
		return nil, err
	}
	if len(snaps) < 2 {
		return nil, nil
	}
	newer, older := snaps[0], snaps[1]

	olderFiles, err := s.db.Files(ctx, older.ID)
	if err != nil {
		return nil, err
	}
	newerFiles, err := s.db.Files(ctx, newer.ID)
	if err != nil {
		return nil, err
	}

	res, err := Diff(olderFiles, newerFiles)
	if err != nil {
		return nil, err
	}
	res.From = older.Label
	res.To = newer.Label
	return res, nil
}

// Labels returns the labels of every snapshot of key, oldest first.
func (s *Store) Labels(ctx context.Context, key string) ([]string, error) {
	snaps, err := s.db.ListSnapshots(ctx, key)
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(snaps))
	for i, snap := range snaps {
		labels[i] = snap.Label
	}
	return labels, nil
}

// readJSONFiles reads the *.json files directly inside dir, sorted by name.
func readJSONFiles(dir string) ([]database.File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var files []database.File
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Clean(filepath.Join(dir, e.Name())))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}
		files = append(files, database.File{Name: e.Name(), Content: data})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

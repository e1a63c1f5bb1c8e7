package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *SnapshotDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func saveTestSnapshot(t *testing.T, db *SnapshotDB, key, label, digest string, files ...File) int64 {
	t.Helper()

	id, err := db.SaveSnapshot(context.Background(), &Snapshot{
		Key:       key,
		Label:     label,
		RootTitle: "Home",
		Digest:    digest,
	}, files)
	if err != nil {
		t.Fatalf("failed to save snapshot: %v", err)
	}
	return id
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")
		_, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("expected error to contain %q, got %q", "database not found", err.Error())
		}
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created when CreateIfNotExists=false")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "existing-db")
		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		saveTestSnapshot(t, db1, "key", "20250101_000000", "d1")
		db1.Close()

		db2, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to open existing database: %v", err)
		}
		defer db2.Close()

		snaps, err := db2.ListSnapshots(context.Background(), "key")
		if err != nil {
			t.Fatalf("failed to list snapshots: %v", err)
		}
		if len(snaps) != 1 {
			t.Errorf("expected data to persist, got %d snapshots", len(snaps))
		}
	})
}

// TestDefaultOptions tests the default options values.
func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if !opts.CreateIfNotExists {
		t.Error("expected CreateIfNotExists to be true by default")
	}
	if !opts.EnableWAL {
		t.Error("expected EnableWAL to be true by default")
	}
}

// TestSnapshots tests storing and querying snapshots.
func TestSnapshots(t *testing.T) {
	t.Parallel()

	t.Run("save and read files", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		id := saveTestSnapshot(t, db, "key", "20250101_000000", "d1",
			File{Name: "pages.json", Content: []byte(`{"pages":[]}`)},
			File{Name: "graph.json", Content: []byte(`{"nodes":[]}`)},
		)

		files, err := db.Files(ctx, id)
		if err != nil {
			t.Fatalf("failed to read files: %v", err)
		}
		if len(files) != 2 {
			t.Fatalf("expected 2 files, got %d", len(files))
		}
		if string(files["pages.json"]) != `{"pages":[]}` {
			t.Errorf("unexpected content %q", files["pages.json"])
		}

		latest, err := db.LatestSnapshot(ctx, "key")
		if err != nil {
			t.Fatalf("failed to get latest snapshot: %v", err)
		}
		if latest.ID != id || latest.Label != "20250101_000000" || latest.Digest != "d1" || latest.RootTitle != "Home" {
			t.Errorf("unexpected snapshot %+v", latest)
		}
		if latest.CreatedAt.IsZero() {
			t.Error("expected created_at to be parsed")
		}
	})

	t.Run("latest snapshots newest first", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		saveTestSnapshot(t, db, "key", "one", "d1")
		saveTestSnapshot(t, db, "key", "two", "d2")
		saveTestSnapshot(t, db, "other", "x", "d9")
		saveTestSnapshot(t, db, "key", "three", "d3")

		latest, err := db.LatestSnapshots(ctx, "key", 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(latest) != 2 || latest[0].Label != "three" || latest[1].Label != "two" {
			t.Errorf("unexpected snapshots %+v", latest)
		}

		all, err := db.ListSnapshots(ctx, "key")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var labels []string
		for _, s := range all {
			labels = append(labels, s.Label)
		}
		if strings.Join(labels, ",") != "one,two,three" {
			t.Errorf("unexpected order %v", labels)
		}

		keys, err := db.ListKeys(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Join(keys, ",") != "key,other" {
			t.Errorf("unexpected keys %v", keys)
		}
	})

	t.Run("latest snapshot of unknown key", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		_, err := db.LatestSnapshot(context.Background(), "missing")
		if !errors.Is(err, ErrSnapshotNotFound) {
			t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
		}
	})

	t.Run("duplicate file names roll back the snapshot", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		_, err := db.SaveSnapshot(ctx, &Snapshot{Key: "key", Label: "bad", Digest: "d"}, []File{
			{Name: "a.json", Content: []byte("1")},
			{Name: "a.json", Content: []byte("2")},
		})
		if err == nil {
			t.Fatal("expected error for duplicate file names")
		}

		snaps, err := db.ListSnapshots(ctx, "key")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(snaps) != 0 {
			t.Errorf("expected rollback, got %d snapshots", len(snaps))
		}
	})

	t.Run("delete removes files", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		id := saveTestSnapshot(t, db, "key", "one", "d1", File{Name: "a.json", Content: []byte("{}")})
		if err := db.DeleteSnapshot(ctx, id); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		files, err := db.Files(ctx, id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(files) != 0 {
			t.Errorf("expected files to be deleted, got %d", len(files))
		}
		if err := db.DeleteSnapshot(ctx, id); !errors.Is(err, ErrSnapshotNotFound) {
			t.Errorf("expected ErrSnapshotNotFound, got %v", err)
		}
	})
}

// TestParseTimestamp tests parsing SQLite timestamps.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{"sqlite default", "2025-01-02 03:04:05", false},
		{"rfc3339", "2025-01-02T03:04:05Z", false},
		{"rfc3339 nano", "2025-01-02T03:04:05.123456789Z", false},
		{"garbage", "yesterday", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := parseTimestamp(tt.input); got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) = %v", tt.input, got)
			}
		})
	}
}

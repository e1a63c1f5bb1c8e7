package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the name of the database file inside the database directory.
const FileName = "notionscan.db"

// ErrSnapshotNotFound is returned when no snapshot matches a query.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotDB stores scan output snapshots in SQLite.
// A snapshot is the set of JSON files of one scan, grouped under the
// snapshot key of the scanned root.
type SnapshotDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures SnapshotDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a SnapshotDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*SnapshotDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run `notionscan history snap` first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite: mode=rw refuses to create the file, mode=rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &SnapshotDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *SnapshotDB) Close() error {
	return sdb.db.Close()
}

// Path returns the database file path.
func (sdb *SnapshotDB) Path() string {
	return sdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (sdb *SnapshotDB) createTables() error {
	schema := `
	-- One row per stored scan
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		snapshot_key TEXT NOT NULL,
		label TEXT NOT NULL,
		root_title TEXT,
		digest TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_key ON snapshots(snapshot_key);

	-- Output files of a snapshot
	CREATE TABLE IF NOT EXISTS snapshot_files (
		snapshot_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		content BLOB NOT NULL,
		PRIMARY KEY (snapshot_id, name)
	);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// Snapshot is the metadata of a stored snapshot.
type Snapshot struct {
	ID        int64
	Key       string
	Label     string
	RootTitle string
	// Digest identifies the content of all files of the snapshot.
	Digest    string
	CreatedAt time.Time
}

// File is one stored output file.
type File struct {
	Name    string
	Content []byte
}

// SaveSnapshot stores a snapshot and its files in one transaction and
// returns the new snapshot id.
func (sdb *SnapshotDB) SaveSnapshot(ctx context.Context, snap *Snapshot, files []File) (id int64, err error) {
	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (snapshot_key, label, root_title, digest) VALUES (?, ?, ?, ?)`,
		snap.Key, snap.Label, snap.RootTitle, snap.Digest,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save snapshot: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get snapshot id: %w", err)
	}

	for _, f := range files {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO snapshot_files (snapshot_id, name, content) VALUES (?, ?, ?)`,
			id, f.Name, f.Content,
		); err != nil {
			return 0, fmt.Errorf("failed to save snapshot file %s: %w", f.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	snap.ID = id
	return id, nil
}

// LatestSnapshots returns up to n snapshots of key, newest first.
func (sdb *SnapshotDB) LatestSnapshots(ctx context.Context, key string, n int) ([]Snapshot, error) {
	query := `
	SELECT id, snapshot_key, label, COALESCE(root_title, ''), digest, created_at
	FROM snapshots
	WHERE snapshot_key = ?
	ORDER BY id DESC
	LIMIT ?
	`
	return sdb.querySnapshots(ctx, query, key, n)
}

// ListSnapshots returns every snapshot of key, oldest first.
func (sdb *SnapshotDB) ListSnapshots(ctx context.Context, key string) ([]Snapshot, error) {
	query := `
	SELECT id, snapshot_key, label, COALESCE(root_title, ''), digest, created_at
	FROM snapshots
	WHERE snapshot_key = ?
	ORDER BY id ASC
	`
	return sdb.querySnapshots(ctx, query, key)
}

// LatestSnapshot returns the newest snapshot of key.
func (sdb *SnapshotDB) LatestSnapshot(ctx context.Context, key string) (*Snapshot, error) {
	snaps, err := sdb.LatestSnapshots(ctx, key, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, ErrSnapshotNotFound
	}
	return &snaps[0], nil
}

func (sdb *SnapshotDB) querySnapshots(ctx context.Context, query string, args ...any) ([]Snapshot, error) {
	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var results []Snapshot
	for rows.Next() {
		var s Snapshot
		var created string
		if err := rows.Scan(&s.ID, &s.Key, &s.Label, &s.RootTitle, &s.Digest, &created); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s.CreatedAt = parseTimestamp(created)
		results = append(results, s)
	}
	return results, rows.Err()
}

// ListKeys returns every snapshot key with at least one snapshot.
func (sdb *SnapshotDB) ListKeys(ctx context.Context) ([]string, error) {
	rows, err := sdb.db.QueryContext(ctx, `SELECT DISTINCT snapshot_key FROM snapshots ORDER BY snapshot_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Files returns the files of a snapshot keyed by name.
func (sdb *SnapshotDB) Files(ctx context.Context, snapshotID int64) (map[string][]byte, error) {
	rows, err := sdb.db.QueryContext(ctx,
		`SELECT name, content FROM snapshot_files WHERE snapshot_id = ? ORDER BY name`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot files: %w", err)
	}
	defer rows.Close()

	files := make(map[string][]byte)
	for rows.Next() {
		var name string
		var content []byte
		if err := rows.Scan(&name, &content); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot file: %w", err)
		}
		files[name] = content
	}
	return files, rows.Err()
}

// DeleteSnapshot removes a snapshot and its files.
func (sdb *SnapshotDB) DeleteSnapshot(ctx context.Context, snapshotID int64) (err error) {
	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM snapshot_files WHERE snapshot_id = ?`, snapshotID); err != nil {
		return fmt.Errorf("failed to delete snapshot files: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, snapshotID)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if n == 0 {
		err = ErrSnapshotNotFound
		return err
	}
	return tx.Commit()
}

// parseTimestamp parses the timestamp formats SQLite returns for DATETIME columns.
func parseTimestamp(s string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/notionscan/internal/history"
)

func runHistory(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewHistoryCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func writeScanOutputs(t *testing.T, dir string) {
	t.Helper()

	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"scan_meta.json": `{"schemaVersion":"1.0.0","snapshotKey":"abc","rootTitle":"Home","finishedAt":"t1"}`,
		"pages.json":     `{"pages":[{"title":"Home"}]}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()
	for _, name := range []string{"snap", "diff", "list", "latest"} {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
			}
		}
		if !found {
			t.Errorf("expected %s subcommand", name)
		}
	}
	for _, flag := range []string{"output", "db-dir"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("expected persistent %s flag", flag)
		}
	}
}

func TestHistoryCommands(t *testing.T) {
	t.Parallel()

	t.Run("snap list diff", func(t *testing.T) {
		t.Parallel()

		outDir := filepath.Join(t.TempDir(), "outputs")
		dbDir := t.TempDir()
		writeScanOutputs(t, outDir)
		common := []string{"-o", outDir, "--db-dir", dbDir}

		out, err := runHistory(t, append([]string{"snap"}, common...)...)
		if err != nil {
			t.Fatalf("snap failed: %v", err)
		}
		if !strings.HasPrefix(out, "Snapshot: abc/") {
			t.Errorf("unexpected snap output %q", out)
		}

		out, err = runHistory(t, append([]string{"snap"}, common...)...)
		if err != nil {
			t.Fatalf("second snap failed: %v", err)
		}
		if !strings.Contains(out, "unchanged") {
			t.Errorf("expected identical outputs to be skipped, got %q", out)
		}

		out, err = runHistory(t, append([]string{"list"}, common...)...)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 2 || lines[0] != "Key: abc" {
			t.Errorf("unexpected list output %q", out)
		}

		out, err = runHistory(t, append([]string{"diff"}, common...)...)
		if err != nil {
			t.Fatalf("diff failed: %v", err)
		}
		if strings.TrimSpace(out) != history.NotEnoughSnapshots {
			t.Errorf("unexpected diff output %q", out)
		}
	})

	t.Run("list with explicit key and no snapshots", func(t *testing.T) {
		t.Parallel()

		outDir := filepath.Join(t.TempDir(), "outputs")
		dbDir := t.TempDir()
		writeScanOutputs(t, outDir)
		if _, err := runHistory(t, "snap", "-o", outDir, "--db-dir", dbDir); err != nil {
			t.Fatal(err)
		}

		out, err := runHistory(t, "list", "--key", "other", "-o", outDir, "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if out != "Key: other\n  (no snapshots)\n" {
			t.Errorf("unexpected list output %q", out)
		}
	})

	t.Run("diff without database", func(t *testing.T) {
		t.Parallel()

		_, err := runHistory(t, "diff", "--db-dir", t.TempDir(), "-o", t.TempDir())
		if err == nil || !strings.Contains(err.Error(), "database not found") {
			t.Fatalf("expected missing database error, got %v", err)
		}
	})

	t.Run("snap without scan outputs", func(t *testing.T) {
		t.Parallel()

		if _, err := runHistory(t, "snap", "--db-dir", t.TempDir(), "-o", t.TempDir()); err == nil {
			t.Fatal("expected error without scan_meta.json")
		}
	})

	t.Run("list without scan meta asks for a scan", func(t *testing.T) {
		t.Parallel()

		outDir := filepath.Join(t.TempDir(), "outputs")
		dbDir := t.TempDir()
		writeScanOutputs(t, outDir)
		if _, err := runHistory(t, "snap", "-o", outDir, "--db-dir", dbDir); err != nil {
			t.Fatal(err)
		}

		_, err := runHistory(t, "list", "-o", t.TempDir(), "--db-dir", dbDir)
		if err == nil || !strings.Contains(err.Error(), "run a scan first or pass --key") {
			t.Fatalf("expected hint, got %v", err)
		}
	})

	t.Run("latest", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		if err := os.Mkdir(filepath.Join(root, "20250101_000000"), 0o750); err != nil {
			t.Fatal(err)
		}

		out, err := runHistory(t, "latest", root)
		if err != nil {
			t.Fatalf("latest failed: %v", err)
		}
		if out != "20250101_000000\n" {
			t.Errorf("unexpected latest output %q", out)
		}

		out, err = runHistory(t, "latest", filepath.Join(root, "missing"))
		if err != nil {
			t.Fatalf("latest on missing dir failed: %v", err)
		}
		if out != "" {
			t.Errorf("expected no output, got %q", out)
		}
	})
}

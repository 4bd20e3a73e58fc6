package picket

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindDatabasePathEnv(t *testing.T) {
	t.Setenv("PICKET_DB", "/tmp/explicit.db")
	if got := FindDatabasePath(); got != "/tmp/explicit.db" {
		t.Errorf("FindDatabasePath() = %q, want env value", got)
	}
}

func TestFindDatabasePathTreeWalk(t *testing.T) {
	t.Setenv("PICKET_DB", "")
	tmpDir := t.TempDir()

	picketDir := filepath.Join(tmpDir, ".picket")
	if err := os.MkdirAll(picketDir, 0750); err != nil {
		t.Fatal(err)
	}
	dbPath := filepath.Join(picketDir, "project.db")
	if err := os.WriteFile(dbPath, nil, 0600); err != nil {
		t.Fatal(err)
	}

	subDir := filepath.Join(tmpDir, "a", "b")
	if err := os.MkdirAll(subDir, 0750); err != nil {
		t.Fatal(err)
	}

	origDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(origDir)
	if err := os.Chdir(subDir); err != nil {
		t.Fatal(err)
	}

	got := FindDatabasePath()
	// Resolve symlinks: on some systems TempDir is behind a symlink.
	wantInfo, _ := os.Stat(dbPath)
	gotInfo, err := os.Stat(got)
	if err != nil {
		t.Fatalf("FindDatabasePath() = %q, not statable: %v", got, err)
	}
	if !os.SameFile(wantInfo, gotInfo) {
		t.Errorf("FindDatabasePath() = %q, want %q", got, dbPath)
	}
}

func TestInitAndOpenThroughPublicAPI(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "api.db")

	store, err := InitSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("InitSQLiteStorage() failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	if reopened.Path() == "" {
		t.Error("opened store has empty path")
	}
}

package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "checklist.db")

	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='checklist_entries'").Scan(&name)
	if err != nil {
		t.Fatalf("checklist_entries table missing: %v", err)
	}

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("Failed to query journal mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("Expected WAL mode, got %s", mode)
	}
}

func TestOpenDatabaseInvalidPath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	// A regular file cannot be used as a parent directory.
	if _, err := OpenDatabase(filepath.Join(blocker, "checklist.db")); err == nil {
		t.Error("Expected error for invalid path, but OpenDatabase succeeded")
	}
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "checklist.db"))
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	defer db.Close()

	if err := InitSchema(db); err != nil {
		t.Errorf("second InitSchema failed: %v", err)
	}
}

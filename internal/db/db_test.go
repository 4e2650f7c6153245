package db

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenAndMigrate(t *testing.T) {
	conn, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer Close(conn)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := Migrate(conn, logger); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	// Second run is a no-op
	if err := Migrate(conn, logger); err != nil {
		t.Fatalf("Second Migrate failed: %v", err)
	}

	var count int
	if err := conn.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 applied migration, got %d", count)
	}

	if _, err := conn.Exec(`INSERT INTO entries (entry_id, unique_id, title, fmisid, name, latitude, longitude)
		VALUES ('a', '134253', 'Hanko', 134253, 'Hanko', 59.8, 22.9)`); err != nil {
		t.Fatalf("insert entry: %v", err)
	}
	if _, err := conn.Exec(`INSERT INTO entries (entry_id, unique_id, title, fmisid, name, latitude, longitude)
		VALUES ('b', '134253', 'Hanko', 134253, 'Hanko', 59.8, 22.9)`); err == nil {
		t.Error("Expected unique_id constraint violation")
	}
}

func TestBuildDSN(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name       string
		path       string
		wantPrefix string
		wantParam  string
	}{
		{name: "Memory", path: ":memory:", wantPrefix: ":memory:?", wantParam: "_foreign_keys=on"},
		{name: "Plain_Path", path: filepath.Join(dir, "sub", "app.db"), wantPrefix: "file:" + dir, wantParam: "_journal_mode=WAL"},
		{name: "File_URI_With_Query", path: "file:" + filepath.Join(dir, "x.db") + "?cache=shared", wantPrefix: "file:", wantParam: "cache=shared&_foreign_keys=on"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, err := buildDSN(tt.path)
			if err != nil {
				t.Fatalf("buildDSN failed: %v", err)
			}
			if !strings.HasPrefix(dsn, tt.wantPrefix) {
				t.Errorf("Expected prefix %q, got %q", tt.wantPrefix, dsn)
			}
			if !strings.Contains(dsn, tt.wantParam) {
				t.Errorf("Expected %q in %q", tt.wantParam, dsn)
			}
		})
	}
}

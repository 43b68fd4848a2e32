package migration

import (
	"io/fs"
	"testing"

	"github.com/smallbiznis/roomwatt/pkg/db"
)

func TestRunSyncsSQLiteSchema(t *testing.T) {
	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := Run(conn, "sqlite"); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, table := range []string{"rooms", "devices", "device_status", "energy_usage", "users", "user_sessions", "user_details"} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("expected table %s", table)
		}
	}
}

func TestRunRejectsUnknownType(t *testing.T) {
	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := Run(conn, "oracle"); err == nil {
		t.Fatal("expected unsupported type error")
	}
}

func TestEmbeddedMigrationsPaired(t *testing.T) {
	for _, dialect := range []string{"mysql", "postgres"} {
		entries, err := fs.ReadDir(embeddedMigrations, "sql/"+dialect)
		if err != nil {
			t.Fatalf("read %s: %v", dialect, err)
		}
		if len(entries) == 0 || len(entries)%2 != 0 {
			t.Fatalf("%s: expected up/down pairs, got %d files", dialect, len(entries))
		}
	}
}

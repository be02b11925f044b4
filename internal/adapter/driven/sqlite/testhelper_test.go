package sqlite

import (
	"io"
	"log/slog"
	"net/url"
	"testing"
)

// setupTestDB opens a migrated in-memory store private to the calling test.
// Both pools share the database through cache=shared, keyed by the escaped
// test name. WAL does not apply to memory databases, so only connPragmas are set.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	name := url.PathEscape(t.Name())
	dsn := buildDSN(name, []string{"mode=memory", "cache=shared"}, connPragmas)

	db, err := openDB(dsn, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := RunMigrations(db, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return db
}

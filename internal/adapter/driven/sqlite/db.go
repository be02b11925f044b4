package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Pool sizes. SQLite allows one writer at a time; readers run concurrently
// under WAL.
const (
	writerConns = 1
	readerConns = 4
)

// connPragmas are applied to every connection in both pools.
var connPragmas = []string{
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
	"cache_size(-64000)",
}

// DB holds the review store's reader and writer pools. WAL mode lets the
// reader pool serve product pages while the single writer inserts reviews
// and votes.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
	path   string
}

// NewDB opens the review store at dbPath in WAL mode.
func NewDB(dbPath string) (*DB, error) {
	return openDB(dbPath, buildDSN(dbPath, nil, append([]string{"journal_mode(WAL)"}, connPragmas...)))
}

// buildDSN renders a modernc file: URI with URI params followed by pragmas.
func buildDSN(name string, params []string, pragmas []string) string {
	query := make([]string, 0, len(params)+len(pragmas))
	query = append(query, params...)
	for _, p := range pragmas {
		query = append(query, "_pragma="+p)
	}
	return "file:" + name + "?" + strings.Join(query, "&")
}

// openDB opens and pings both pools against dsn. path is what Path reports.
func openDB(path, dsn string) (*DB, error) {
	writer, err := openPool(dsn, writerConns)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}

	reader, err := openPool(dsn, readerConns)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}

	return &DB{Writer: writer, Reader: reader, path: path}, nil
}

func openPool(dsn string, maxConns int) (*sql.DB, error) {
	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(maxConns)

	if err := pool.Ping(); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// PingContext checks both pools. Used by the API health endpoint.
func (db *DB) PingContext(ctx context.Context) error {
	if err := db.Writer.PingContext(ctx); err != nil {
		return fmt.Errorf("ping writer: %w", err)
	}
	if err := db.Reader.PingContext(ctx); err != nil {
		return fmt.Errorf("ping reader: %w", err)
	}
	return nil
}

// Path returns the database file path the pools were opened with.
func (db *DB) Path() string {
	return db.path
}

// Close closes the reader pool, then the writer. It returns the first error.
func (db *DB) Close() error {
	var firstErr error

	if err := db.Reader.Close(); err != nil {
		firstErr = fmt.Errorf("close reader: %w", err)
	}

	if err := db.Writer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close writer: %w", err)
	}

	return firstErr
}

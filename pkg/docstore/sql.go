package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

const (
	defaultSQLitePath  = "patternmark.db"
	defaultPostgresDSN = "postgres://localhost/patternmark?sslmode=disable"
)

// dialect captures the differences between the supported SQL databases.
type dialect struct {
	name        string // backend name reported to hooks
	driver      string
	payloadType string
	numbered    bool // $1 placeholders instead of ?
}

var (
	sqliteDialect   = dialect{name: BackendSQLite, driver: "sqlite", payloadType: "BLOB"}
	postgresDialect = dialect{name: BackendPostgres, driver: "pgx", payloadType: "BYTEA", numbered: true}
)

// rebind rewrites ? placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStore keeps documents in a single table:
//
//	documents(name TEXT PRIMARY KEY, payload BLOB, updated_at BIGINT)
//
// updated_at holds Unix milliseconds.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// NewSQLiteStore opens (or creates) a SQLite database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLStore, error) {
	if path == "" {
		path = defaultSQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, storageErr(err, "create dirs")
	}
	db, err := sql.Open(sqliteDialect.driver, path)
	if err != nil {
		return nil, storageErr(err, "open sqlite")
	}
	// SQLite allows a single writer at a time.
	db.SetMaxOpenConns(1)
	return newSQLStore(ctx, db, sqliteDialect)
}

// NewPostgresStore connects to Postgres using dsn.
func NewPostgresStore(ctx context.Context, dsn string) (*SQLStore, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, storageErr(err, "open postgres")
	}
	if err := connectWithRetry(ctx, db.PingContext); err != nil {
		_ = db.Close()
		return nil, storageErr(err, "ping postgres")
	}
	return newSQLStore(ctx, db, postgresDialect)
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
		name TEXT PRIMARY KEY,
		payload %s NOT NULL,
		updated_at BIGINT NOT NULL
	)`, d.payloadType)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, storageErr(err, "create documents table")
	}
	return &SQLStore{db: db, dialect: d}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (data []byte, hit bool, err error) {
	start := time.Now()
	defer func() { observeRead(ctx, s.dialect.name, start, hit, err) }()
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}

	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT payload FROM documents WHERE name = ?`), key)
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, storageErr(err, "select document %s", key)
	}
	return data, true, nil
}

func (s *SQLStore) Put(ctx context.Context, key string, data []byte) (err error) {
	start := time.Now()
	defer func() { observeWrite(ctx, s.dialect.name, start, len(data), err) }()
	if err := ValidateKey(key); err != nil {
		return err
	}

	const upsert = `INSERT INTO documents(name, payload, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	if data == nil {
		data = []byte{}
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.rebind(upsert), key, data, time.Now().UnixMilli()); err != nil {
		return storageErr(err, "upsert document %s", key)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.rebind(`DELETE FROM documents WHERE name = ?`), key); err != nil {
		return storageErr(err, "delete document %s", key)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM documents ORDER BY name`)
	if err != nil {
		return nil, storageErr(err, "list documents")
	}
	defer func() { _ = rows.Close() }()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storageErr(err, "scan document name")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err, "list documents")
	}
	return names, nil
}

// UpdatedAt returns the last write time of the named document.
func (s *SQLStore) UpdatedAt(ctx context.Context, key string) (time.Time, bool, error) {
	var ms int64
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT updated_at FROM documents WHERE name = ?`), key)
	if err := row.Scan(&ms); err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, storageErr(err, "select document %s", key)
	}
	return time.UnixMilli(ms).UTC(), true, nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

var (
	_ Store       = (*SQLStore)(nil)
	_ Timestamped = (*SQLStore)(nil)
)

package publish

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"
)

// DefaultTable is the table pages are stored in when none is configured
const DefaultTable = "doc_pages"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLSink stores pages in a database table keyed by page name, for sites
// that serve documentation out of a database. Postgres and SQLite are
// supported.
type SQLSink struct {
	db     *sql.DB
	table  string
	now    func() time.Time
	upsert string
}

// NewSQLSink creates the page table if needed. driver is the database/sql
// driver name the connection was opened with.
func NewSQLSink(ctx context.Context, db *sql.DB, driver, table string) (*SQLSink, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	var ddl string
	switch driver {
	case "postgres":
		ddl = `CREATE TABLE IF NOT EXISTS ` + table + ` (
			name TEXT PRIMARY KEY,
			content_type TEXT NOT NULL,
			content BYTEA NOT NULL,
			checksum_sha256 TEXT NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL
		)`
	case "sqlite3":
		ddl = `CREATE TABLE IF NOT EXISTS ` + table + ` (
			name TEXT PRIMARY KEY,
			content_type TEXT NOT NULL,
			content BLOB NOT NULL,
			checksum_sha256 TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`
	default:
		return nil, fmt.Errorf("unsupported database driver %q (must be postgres or sqlite3)", driver)
	}

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("failed to ensure %s table: %w", table, err)
	}

	return &SQLSink{
		db:     db,
		table:  table,
		now:    time.Now,
		upsert: `INSERT INTO ` + table + ` (name, content_type, content, checksum_sha256, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (name) DO UPDATE SET
				content_type = excluded.content_type,
				content = excluded.content,
				checksum_sha256 = excluded.checksum_sha256,
				updated_at = excluded.updated_at`,
	}, nil
}

// Name returns "database"
func (s *SQLSink) Name() string {
	return "database"
}

// Put inserts or replaces one page
func (s *SQLSink) Put(ctx context.Context, name string, content []byte, contentType string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if content == nil {
		content = []byte{}
	}
	hash := sha256.Sum256(content)
	_, err := s.db.ExecContext(ctx, s.upsert, name, contentType, content, hex.EncodeToString(hash[:]), s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store page %s: %w", name, err)
	}
	return nil
}

// Get returns the stored content and content type of a page
func (s *SQLSink) Get(ctx context.Context, name string) ([]byte, string, error) {
	var content []byte
	var contentType string
	err := s.db.QueryRowContext(ctx,
		`SELECT content, content_type FROM `+s.table+` WHERE name = $1`, name,
	).Scan(&content, &contentType)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("page %s not found", name)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read page %s: %w", name, err)
	}
	return content, contentType, nil
}

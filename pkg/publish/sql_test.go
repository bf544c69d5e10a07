package publish

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestNewSQLSink(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS doc_pages").WillReturnResult(sqlmock.NewResult(0, 0))

		sink, err := NewSQLSink(context.Background(), db, "postgres", "")
		require.NoError(t, err)
		assert.Equal(t, "database", sink.Name())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil database", func(t *testing.T) {
		_, err := NewSQLSink(context.Background(), nil, "postgres", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database connection is required")
	})

	t.Run("invalid table", func(t *testing.T) {
		db, _ := setupMockDB(t)
		_, err := NewSQLSink(context.Background(), db, "postgres", "pages; DROP TABLE users")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid table name")
	})

	t.Run("unsupported driver", func(t *testing.T) {
		db, _ := setupMockDB(t)
		_, err := NewSQLSink(context.Background(), db, "mysql", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database driver")
	})

	t.Run("table creation error", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS api_docs").WillReturnError(errors.New("permission denied"))

		_, err := NewSQLSink(context.Background(), db, "postgres", "api_docs")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to ensure api_docs table")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSQLSink_PutPostgres(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS doc_pages").WillReturnResult(sqlmock.NewResult(0, 0))
	sink, err := NewSQLSink(context.Background(), db, "postgres", "")
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return now }

	mock.ExpectExec("(?s)INSERT INTO doc_pages .* ON CONFLICT \\(name\\) DO UPDATE").
		WithArgs("index.md", "text/markdown; charset=utf-8", []byte("# API Reference\n"), sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, sink.Put(context.Background(), "index.md", []byte("# API Reference\n"), "text/markdown; charset=utf-8"))

	mock.ExpectExec("INSERT INTO doc_pages").WillReturnError(errors.New("connection reset"))
	err = sink.Put(context.Background(), "pets.md", nil, "text/markdown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to store page pets.md")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSink_SQLite(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	sink, err := NewSQLSink(ctx, db, "sqlite3", "pages")
	require.NoError(t, err)

	p := &Publisher{Concurrency: 2}
	require.NoError(t, p.Publish(ctx, sink, testPages()))

	content, contentType, err := sink.Get(ctx, "index.md")
	require.NoError(t, err)
	assert.Equal(t, "# API Reference\n", string(content))
	assert.Equal(t, "text/markdown; charset=utf-8", contentType)

	// publishing again replaces the page
	require.NoError(t, sink.Put(ctx, "index.md", []byte("# Renamed\n"), "text/markdown"))
	content, _, err = sink.Get(ctx, "index.md")
	require.NoError(t, err)
	assert.Equal(t, "# Renamed\n", string(content))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM pages").Scan(&count))
	assert.Equal(t, 2, count)

	_, _, err = sink.Get(ctx, "missing.md")
	assert.Error(t, err)
}

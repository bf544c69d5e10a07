//go:build integration

package publish

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres starts a disposable PostgreSQL container
func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker/Podman not available, skipping integration tests")
	}
	defer provider.Close()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("protodoc_test"),
		postgres.WithUsername("protodoc"),
		postgres.WithPassword("protodoc_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("Failed to start PostgreSQL container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	require.NoError(t, db.Ping())

	t.Cleanup(func() {
		db.Close()
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	})
	return db
}

func TestSQLSink_PostgresIntegration(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	sink, err := NewSQLSink(ctx, db, "postgres", "")
	require.NoError(t, err)
	require.NoError(t, Publish(ctx, sink, testPages()))
	require.NoError(t, Publish(ctx, sink, testPages()))

	content, contentType, err := sink.Get(ctx, "acme.greet.v1.md")
	require.NoError(t, err)
	assert.Equal(t, "# acme.greet.v1 package\n", string(content))
	assert.Equal(t, "text/markdown; charset=utf-8", contentType)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM doc_pages").Scan(&count))
	assert.Equal(t, 2, count)
}

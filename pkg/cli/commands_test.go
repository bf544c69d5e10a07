package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/protodoc/pkg/config"
	"github.com/platinummonkey/protodoc/pkg/observability"
)

const petsProto = `syntax = "proto3";

// Pet store APIs.
package pets.v1;

// Pet is an animal for sale. See {@link Store.GetPet}.
message Pet {
  string name = 1;
  Species species = 2;
}

enum Species {
  SPECIES_UNSPECIFIED = 0;
  SPECIES_CAT = 1;
}

// Store sells pets.
service Store {
  // GetPet returns one pet.
  rpc GetPet(GetPetRequest) returns (Pet);
}

message GetPetRequest {
  // Refers to {@link Nowhere}.
  string name = 1;
}
`

// writeProtoTree creates an import root holding pets/v1/pets.proto
func writeProtoTree(t *testing.T) (dir, protoRoot string) {
	t.Helper()
	dir = t.TempDir()
	protoRoot = filepath.Join(dir, "proto")
	require.NoError(t, os.MkdirAll(filepath.Join(protoRoot, "pets", "v1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(protoRoot, "pets", "v1", "pets.proto"), []byte(petsProto), 0o644))
	return dir, protoRoot
}

func TestGenerate(t *testing.T) {
	dir, protoRoot := writeProtoTree(t)
	out := filepath.Join(dir, "site")
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "stale.md"), []byte("old"), 0o644))
	output := captureOutput(t)

	err := runGenerate([]string{
		"-dir", dir, "-I", protoRoot, "-out", out,
		"-format", "markdown,html", "-clean", "-log-level", "error",
		"pets/v1/pets.proto",
	})
	require.NoError(t, err)

	// index, package, Pet, Species, Store and GetPetRequest in two formats
	assert.Contains(t, output.String(), "Generated 12 pages in "+out+" (2 warnings)")
	assert.NoFileExists(t, filepath.Join(out, "stale.md"))

	md, err := os.ReadFile(filepath.Join(out, "pets.v1.pet.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(md), "# Pet message\n"))
	assert.Contains(t, string(md), "See [Store.GetPet()](pets.v1.store.md#getpet).")

	html, err := os.ReadFile(filepath.Join(out, "pets.v1.store.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "<title>Store service - API Documentation</title>")
	assert.FileExists(t, filepath.Join(out, "index.md"))
	assert.FileExists(t, filepath.Join(out, "index.html"))
}

func TestGenerate_FailOnWarning(t *testing.T) {
	dir, protoRoot := writeProtoTree(t)
	captureOutput(t)

	err := runGenerate([]string{
		"-dir", dir, "-I", protoRoot, "-out", filepath.Join(dir, "site"),
		"-fail-on-warning", "-log-level", "error", "pets/v1/pets.proto",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 pages have warnings")
}

func TestGenerate_ConfigFile(t *testing.T) {
	dir, _ := writeProtoTree(t)
	content := "title: Pets\ninputs:\n  import_paths: [proto]\n  files: [pets/v1/pets.proto]\noutput:\n  directory: out\nobservability:\n  log_level: error\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "protodoc.yaml"), []byte(content), 0o644))
	captureOutput(t)

	require.NoError(t, runGenerate([]string{"-dir", dir}))

	index, err := os.ReadFile(filepath.Join(dir, "out", "index.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(index), "# Pets\n"))
}

func TestGenerate_DatabaseSink(t *testing.T) {
	dir, _ := writeProtoTree(t)
	dbPath := filepath.Join(dir, "docs.db")
	content := fmt.Sprintf("inputs:\n  import_paths: [proto]\n  files: [pets/v1/pets.proto]\noutput:\n  directory: out\npublish:\n  database:\n    enabled: true\n    driver: sqlite3\n    dsn: %s\n    table: pet_docs\nobservability:\n  log_level: error\n", dbPath)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "protodoc.yaml"), []byte(content), 0o644))
	captureOutput(t)

	require.NoError(t, runGenerate([]string{"-dir", dir}))

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM pet_docs").Scan(&count))
	assert.Equal(t, 6, count)

	var page string
	require.NoError(t, db.QueryRow("SELECT content FROM pet_docs WHERE name = 'pets.v1.pet.md'").Scan(&page))
	assert.True(t, strings.HasPrefix(page, "# Pet message\n"))
}

func TestGenerate_Errors(t *testing.T) {
	dir, protoRoot := writeProtoTree(t)
	captureOutput(t)

	err := runGenerate([]string{"-dir", dir, "-I", protoRoot})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no proto files given")

	err = runGenerate([]string{"-dir", dir, "-I", protoRoot, "-format", "pdf", "pets/v1/pets.proto"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")

	err = runGenerate([]string{"-dir", dir, "-I", protoRoot, "-log-level", "error", "pets/v1/missing.proto"})
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	dir, protoRoot := writeProtoTree(t)

	output := captureOutput(t)
	err := runResolve([]string{
		"-dir", dir, "-I", protoRoot, "-log-level", "error",
		"-ref", "GetPet()", "-from", "pets.v1.Store", "pets/v1/pets.proto",
	})
	require.NoError(t, err)
	assert.Equal(t, "GetPet() -> pets.v1.Store.GetPet (method)\n  documented in pets.v1.store.md#getpet\n", output.String())

	output = captureOutput(t)
	err = runResolve([]string{
		"-dir", dir, "-I", protoRoot, "-log-level", "error", "-json",
		"-ref", "Nowhere", "-from", "pets.v1.Pet", "pets/v1/pets.proto",
	})
	require.Error(t, err)
	assert.Contains(t, output.String(), `"error": "no declaration named Nowhere visible from pets.v1.Pet"`)

	assert.Error(t, runResolve([]string{"-dir", dir, "pets/v1/pets.proto"}), "ref is required")
}

func TestProtoWatcher(t *testing.T) {
	dir := t.TempDir()
	w, err := newProtoWatcher([]string{dir}, 50*time.Millisecond, observability.NopLogger())
	require.NoError(t, err)
	defer w.Close()

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) { calls.Add(1) })
	}()

	// a burst of writes produces one regeneration
	path := filepath.Join(dir, "a.proto")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", i+1)), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	// files in new directories are picked up
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(sub, "b.proto"), []byte("y"), 0o644)
		return calls.Load() >= 2
	}, 2*time.Second, 100*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestServe_StartsAndStops(t *testing.T) {
	dir, protoRoot := writeProtoTree(t)
	cfg, err := config.Load(dir, "")
	require.NoError(t, err)
	cfg.Inputs.ImportPaths = []string{protoRoot}
	cfg.Inputs.Files = []string{"pets/v1/pets.proto"}
	cfg.Serve.Addr = "127.0.0.1:0"
	cfg.Serve.RefreshSchedule = "@every 1h"
	cfg.Serve.ShutdownTimeout = 5 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, observability.NopLogger()) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunRefresh(t *testing.T) {
	var buf strings.Builder
	logger := observability.NewTextLogger(observability.InfoLevel, &buf)

	var deadline bool
	runRefresh(context.Background(), logger, time.Minute, func(ctx context.Context) error {
		_, deadline = ctx.Deadline()
		return nil
	})
	assert.True(t, deadline)
	assert.Contains(t, buf.String(), "Refreshing proto sources")

	runRefresh(context.Background(), logger, time.Minute, func(context.Context) error {
		panic("bad descriptor")
	})
	assert.Contains(t, buf.String(), "Scheduled refresh panicked")
	assert.Contains(t, buf.String(), "bad descriptor")
}

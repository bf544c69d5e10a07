package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/platinummonkey/protodoc/pkg/config"
	"github.com/platinummonkey/protodoc/pkg/docs"
	"github.com/platinummonkey/protodoc/pkg/observability"
	"github.com/platinummonkey/protodoc/pkg/publish"
)

func newGenerateCommand() *Command {
	return &Command{
		Name:        "generate",
		Description: "Render documentation pages to a directory or S3",
		Flags:       flag.NewFlagSet("generate", flag.ExitOnError),
		Run:         runGenerate,
	}
}

type generateFlags struct {
	commonFlags
	out           string
	formats       stringList
	clean         bool
	failOnWarning bool
}

func runGenerate(args []string) error {
	flags := flag.NewFlagSet("generate", flag.ContinueOnError)
	var f generateFlags
	f.register(flags)
	flags.StringVar(&f.out, "out", "", "Output directory (overrides output.directory)")
	flags.Var(&f.formats, "format", "Output format: markdown or html (repeatable)")
	flags.BoolVar(&f.clean, "clean", false, "Empty the output directory first")
	flags.BoolVar(&f.failOnWarning, "fail-on-warning", false, "Fail when a page has unresolved references")

	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := f.load(flags.Args())
	if err != nil {
		return err
	}
	if f.out != "" {
		cfg.Output.Directory = f.out
	}
	if len(f.formats) > 0 {
		cfg.Output.Formats = f.formats
		if _, err := cfg.Formats(); err != nil {
			return err
		}
	}
	if f.clean {
		cfg.Output.Clean = true
	}

	logger := newLogger(cfg)
	metrics, _ := newMetrics(cfg)
	result, err := generate(context.Background(), cfg, logger, metrics)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Generated %d pages in %s (%d warnings)\n", result.pages, cfg.Output.Directory, result.warnings)
	if f.failOnWarning && result.warnings > 0 {
		return fmt.Errorf("%d pages have warnings", result.warnings)
	}
	return nil
}

type generateResult struct {
	pages    int
	warnings int
}

// generate loads the model, renders every configured format and publishes
// the pages to the output directory and, when enabled, to S3
func generate(ctx context.Context, cfg *config.Config, logger *observability.Logger, metrics *observability.Metrics) (generateResult, error) {
	var result generateResult

	model, err := loadModel(ctx, cfg, logger, metrics)
	if err != nil {
		return result, err
	}
	formats, err := cfg.Formats()
	if err != nil {
		return result, err
	}

	sinks, closeSinks, err := newSinks(ctx, cfg)
	if err != nil {
		return result, err
	}
	defer closeSinks()
	publisher := &publish.Publisher{Logger: logger, Metrics: metrics, Concurrency: cfg.Output.Concurrency}

	for _, format := range formats {
		d := docs.NewDocumenter(model, cfg.DocsOptions(format), logger, metrics)
		pages, err := d.RenderAll(ctx)
		if err != nil {
			return result, err
		}
		for _, page := range pages {
			for _, w := range page.Warnings {
				logger.WithField("page", page.Name).Warn(w)
			}
			if len(page.Warnings) > 0 {
				result.warnings++
			}
		}
		for _, sink := range sinks {
			if err := publisher.Publish(ctx, sink, pages); err != nil {
				return result, err
			}
		}
		result.pages += len(pages)
	}
	return result, nil
}

// newSinks returns the configured destinations, cleaning the output
// directory when requested. The returned func releases database connections.
func newSinks(ctx context.Context, cfg *config.Config) ([]publish.Sink, func(), error) {
	closer := func() {}
	fs := publish.NewFileSystemSink(cfg.Output.Directory)
	if cfg.Output.Clean {
		if err := fs.Clean(); err != nil {
			return nil, closer, err
		}
	}
	sinks := []publish.Sink{fs}

	if s3 := cfg.Publish.S3; s3.Enabled {
		sink, err := publish.NewS3Sink(ctx, publish.S3Options{
			Bucket:       s3.Bucket,
			Region:       s3.Region,
			Prefix:       s3.Prefix,
			Endpoint:     s3.Endpoint,
			UsePathStyle: s3.UsePathStyle,
			AccessKey:    s3.AccessKey,
			SecretKey:    s3.SecretKey,
		})
		if err != nil {
			return nil, closer, err
		}
		sinks = append(sinks, sink)
	}

	if database := cfg.Publish.Database; database.Enabled {
		db, err := sql.Open(database.Driver, database.DSN)
		if err != nil {
			return nil, closer, fmt.Errorf("failed to open database: %w", err)
		}
		if database.Driver == "sqlite3" {
			// SQLite allows one writer at a time
			db.SetMaxOpenConns(1)
		}
		closer = func() { db.Close() }
		sink, err := publish.NewSQLSink(ctx, db, database.Driver, database.Table)
		if err != nil {
			db.Close()
			return nil, func() {}, err
		}
		sinks = append(sinks, sink)
	}
	return sinks, closer, nil
}

package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/protodoc/pkg/apimodel"
	"github.com/platinummonkey/protodoc/pkg/config"
	"github.com/platinummonkey/protodoc/pkg/observability"
)

// stringList is a flag that may be repeated or given comma separated values
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			*s = append(*s, item)
		}
	}
	return nil
}

// commonFlags are shared by every command that loads proto sources
type commonFlags struct {
	configPath  string
	dir         string
	importPaths stringList
	logLevel    string
}

func (f *commonFlags) register(flags *flag.FlagSet) {
	flags.StringVar(&f.configPath, "config", "", "Configuration file (default: protodoc.yaml in -dir)")
	flags.StringVar(&f.dir, "dir", ".", "Directory searched for the configuration file")
	flags.Var(&f.importPaths, "I", "Import path for proto files (repeatable)")
	flags.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn or error")
}

// load reads the configuration and applies command line overrides. files are
// the positional arguments and replace the configured inputs when given.
func (f *commonFlags) load(files []string) (*config.Config, error) {
	cfg, err := config.Load(f.dir, f.configPath)
	if err != nil {
		return nil, err
	}
	if len(f.importPaths) > 0 {
		cfg.Inputs.ImportPaths = f.importPaths
	}
	if len(files) > 0 {
		cfg.Inputs.Files = files
	}
	if f.logLevel != "" {
		cfg.Observability.LogLevel = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Inputs.Files) == 0 {
		return nil, fmt.Errorf("no proto files given: pass them as arguments or set inputs.files")
	}
	return cfg, nil
}

// newLogger creates the human readable logger used by the commands
func newLogger(cfg *config.Config) *observability.Logger {
	return observability.NewTextLogger(cfg.LogLevel(), os.Stderr)
}

// newMetrics creates metrics on a fresh registry, or nil when disabled
func newMetrics(cfg *config.Config) (*observability.Metrics, *prometheus.Registry) {
	if !cfg.Observability.MetricsEnabled {
		return nil, nil
	}
	registry := prometheus.NewRegistry()
	return observability.NewMetrics(registry), registry
}

// loadModel compiles the configured proto sources
func loadModel(ctx context.Context, cfg *config.Config, logger *observability.Logger, metrics *observability.Metrics) (*apimodel.Model, error) {
	ctx, span := observability.Tracer().Start(ctx, "apimodel.Load", trace.WithAttributes(
		attribute.Int("files", len(cfg.Inputs.Files)),
	))
	defer span.End()
	start := time.Now()

	model, err := apimodel.Load(ctx, apimodel.LoadOptions{
		ImportPaths: cfg.Inputs.ImportPaths,
		Files:       cfg.Inputs.Files,
	})
	if metrics != nil {
		metrics.ModelLoadDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load model")
		if metrics != nil {
			metrics.ModelLoadsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	if metrics != nil {
		metrics.ModelLoadsTotal.WithLabelValues("success").Inc()
	}

	logger.WithFields(map[string]interface{}{
		"files":    len(cfg.Inputs.Files),
		"packages": len(model.Packages()),
		"duration": time.Since(start).String(),
	}).Info("Loaded proto sources")
	return model, nil
}

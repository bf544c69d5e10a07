package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/protodoc/pkg/config"
	"github.com/platinummonkey/protodoc/pkg/docs"
	"github.com/platinummonkey/protodoc/pkg/observability"
)

func newServeCommand() *Command {
	return &Command{
		Name:        "serve",
		Description: "Serve documentation over HTTP, rendering pages on demand",
		Flags:       flag.NewFlagSet("serve", flag.ExitOnError),
		Run:         runServe,
	}
}

func runServe(args []string) error {
	flags := flag.NewFlagSet("serve", flag.ContinueOnError)
	var f commonFlags
	f.register(flags)
	addr := flags.String("addr", "", "Listen address (overrides serve.addr)")
	schedule := flags.String("refresh", "", "Cron schedule for reloading the proto sources")

	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := f.load(flags.Args())
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Serve.Addr = *addr
	}
	if *schedule != "" {
		cfg.Serve.RefreshSchedule = *schedule
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, cfg, newLogger(cfg))
}

// serve runs the documentation server until ctx is cancelled
func serve(ctx context.Context, cfg *config.Config, logger *observability.Logger) error {
	metrics, registry := newMetrics(cfg)

	providers, err := observability.InitOTel(ctx, cfg.OTelConfig(), logger)
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	var cache docs.PageCache
	if cfg.Serve.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Serve.RedisAddr,
			Password: cfg.Serve.RedisPassword,
			DB:       cfg.Serve.RedisDB,
		})
		cache = docs.NewRedisCache(redisClient, "", cfg.Serve.CacheTTL, metrics)
	} else {
		cache = docs.NewMemoryCache(cfg.Serve.CacheSize, cfg.Serve.CacheTTL, metrics)
	}

	site := docs.NewSite(cache, logger)
	formats, err := cfg.Formats()
	if err != nil {
		return err
	}
	reload := func(ctx context.Context) error {
		model, err := loadModel(ctx, cfg, logger, metrics)
		if err != nil {
			return err
		}
		return site.Swap(ctx, docs.NewDocumenter(model, cfg.DocsOptions(formats[0]), logger, metrics))
	}
	if err := reload(ctx); err != nil {
		// keep serving so readiness reports the failure and a refresh can recover
		logger.WithError(err).Error("Initial model load failed")
	}

	server := &http.Server{
		Addr: cfg.Serve.Addr,
		Handler: docs.NewServerHandler(site, docs.ServerOptions{
			Logger:   logger,
			Metrics:  metrics,
			Registry: registry,
			Health:   observability.NewHealthChecker(Version, site.Ready, redisClient),
		}),
		ReadTimeout:  cfg.Serve.ReadTimeout,
		WriteTimeout: cfg.Serve.WriteTimeout,
	}
	shutdown := observability.NewShutdownManager(logger, server, cfg.Serve.ShutdownTimeout)

	if cfg.Serve.RefreshSchedule != "" {
		scheduler := cron.New()
		_, err := scheduler.AddFunc(cfg.Serve.RefreshSchedule, func() {
			runRefresh(ctx, logger, refreshTimeout, reload)
		})
		if err != nil {
			return err
		}
		scheduler.Start()
		shutdown.RegisterShutdownFunc("scheduler", func(ctx context.Context) error {
			select {
			case <-scheduler.Stop().Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	if redisClient != nil {
		shutdown.RegisterShutdownFunc("redis", func(context.Context) error {
			return redisClient.Close()
		})
	}
	if providers != nil {
		shutdown.RegisterShutdownFunc("otel", func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, providers, logger)
		})
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.Serve.Addr).Info("Starting documentation server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if shutdownErr := shutdown.Shutdown(); shutdownErr != nil {
			logger.WithError(shutdownErr).Warn("Shutdown after server failure")
		}
		return err
	case <-ctx.Done():
		return shutdown.Shutdown()
	}
}

// refreshTimeout bounds one scheduled reload of the proto sources
const refreshTimeout = 5 * time.Minute

// runRefresh reloads the site, logging failures and recovering panics so a
// bad proto tree never takes the scheduler down
func runRefresh(ctx context.Context, logger *observability.Logger, timeout time.Duration, reload func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(map[string]any{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			}).Error("Scheduled refresh panicked")
		}
	}()

	logger.Info("Refreshing proto sources")
	if err := reload(ctx); err != nil {
		logger.WithError(err).Error("Scheduled refresh failed")
	}
}

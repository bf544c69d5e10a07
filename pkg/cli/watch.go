package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/platinummonkey/protodoc/pkg/observability"
)

func newWatchCommand() *Command {
	return &Command{
		Name:        "watch",
		Description: "Regenerate documentation whenever proto files change",
		Flags:       flag.NewFlagSet("watch", flag.ExitOnError),
		Run:         runWatch,
	}
}

func runWatch(args []string) error {
	flags := flag.NewFlagSet("watch", flag.ContinueOnError)
	var f commonFlags
	f.register(flags)
	out := flags.String("out", "", "Output directory (overrides output.directory)")
	delay := flags.Duration("delay", 500*time.Millisecond, "Quiet period before regenerating after a change")

	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := f.load(flags.Args())
	if err != nil {
		return err
	}
	if *out != "" {
		cfg.Output.Directory = *out
	}
	logger := newLogger(cfg)
	metrics, _ := newMetrics(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	regenerate := func(ctx context.Context) {
		result, err := generate(ctx, cfg, logger, metrics)
		if err != nil {
			logger.WithError(err).Error("Regeneration failed")
			return
		}
		fmt.Fprintf(stdout, "Generated %d pages in %s (%d warnings)\n", result.pages, cfg.Output.Directory, result.warnings)
	}
	regenerate(ctx)

	roots := cfg.Inputs.ImportPaths
	if len(roots) == 0 {
		roots = []string{"."}
	}
	w, err := newProtoWatcher(roots, *delay, logger)
	if err != nil {
		return err
	}
	defer w.Close()

	logger.WithField("roots", roots).Info("Watching for proto file changes")
	return w.Run(ctx, regenerate)
}

// protoWatcher reports batches of .proto file changes below a set of roots.
// Changes are coalesced until no event has arrived for the delay.
type protoWatcher struct {
	watcher *fsnotify.Watcher
	delay   time.Duration
	logger  *observability.Logger
}

func newProtoWatcher(roots []string, delay time.Duration, logger *observability.Logger) (*protoWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &protoWatcher{watcher: watcher, delay: delay, logger: logger}
	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			watcher.Close()
			return nil, err
		}
	}
	return w, nil
}

// addTree recursively adds all directories below root
func (w *protoWatcher) addTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

// Close stops watching
func (w *protoWatcher) Close() error {
	return w.watcher.Close()
}

// Run calls onChange after each quiet period following proto file changes,
// until ctx is cancelled
func (w *protoWatcher) Run(ctx context.Context, onChange func(context.Context)) error {
	timer := time.NewTimer(w.delay)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.WithError(err).Warn("Failed to watch new directory")
					}
					continue
				}
			}
			if filepath.Ext(event.Name) != ".proto" || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.WithField("file", event.Name).Debug("Proto file changed")
			timer.Reset(w.delay)

		case <-timer.C:
			onChange(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Watcher error")
		}
	}
}

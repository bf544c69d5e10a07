package publish

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/protodoc/pkg/docs"
	"github.com/platinummonkey/protodoc/pkg/observability"
)

// Sink is a destination for rendered pages
type Sink interface {
	// Name identifies the sink in logs and metrics
	Name() string
	// Put stores one page under name
	Put(ctx context.Context, name string, content []byte, contentType string) error
}

// Publisher writes rendered pages to a sink
type Publisher struct {
	Logger  *observability.Logger
	Metrics *observability.Metrics
	// Concurrency bounds the number of pages written at once. Zero means
	// GOMAXPROCS.
	Concurrency int
}

// Publish writes pages to sink with a default publisher
func Publish(ctx context.Context, sink Sink, pages []*docs.Page) error {
	return (&Publisher{}).Publish(ctx, sink, pages)
}

// Publish writes every page to sink, stopping at the first failure
func (p *Publisher) Publish(ctx context.Context, sink Sink, pages []*docs.Page) error {
	logger := p.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}
	logger = logger.WithField("sink", sink.Name())

	g, ctx := errgroup.WithContext(ctx)
	limit := p.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)

	for _, page := range pages {
		if page == nil {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := sink.Put(ctx, page.Name, page.Content, page.ContentType)
			p.record(sink.Name(), len(page.Content), err)
			if err != nil {
				return fmt.Errorf("failed to publish %s to %s: %w", page.Name, sink.Name(), err)
			}
			logger.WithField("page", page.Name).Debug("Published page")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("Publishing failed")
		return err
	}

	logger.WithField("pages", len(pages)).Info("Published pages")
	return nil
}

func (p *Publisher) record(sink string, size int, err error) {
	if p.Metrics == nil {
		return
	}
	if err != nil {
		p.Metrics.PublishOperationsTotal.WithLabelValues(sink, "error").Inc()
		return
	}
	p.Metrics.PublishOperationsTotal.WithLabelValues(sink, "success").Inc()
	p.Metrics.PublishBytesTotal.WithLabelValues(sink).Add(float64(size))
}

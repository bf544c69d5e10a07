package docs

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/platinummonkey/protodoc/pkg/observability"
)

// ErrNotLoaded is returned while no model has been loaded yet
var ErrNotLoaded = errors.New("api model not loaded")

// ErrPageNotFound is returned for file names that are not part of the site
var ErrPageNotFound = errors.New("page not found")

type siteState struct {
	documenter *Documenter
	generation uint64
}

// Site serves the pages of the current documenter, rendering on demand
// through a page cache. The documenter is replaced whenever the model is
// reloaded.
type Site struct {
	state  atomic.Pointer[siteState]
	cache  PageCache
	logger *observability.Logger
}

// NewSite creates a site with no documenter. cache may be nil.
func NewSite(cache PageCache, logger *observability.Logger) *Site {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Site{cache: cache, logger: logger}
}

// Swap installs a new documenter and drops cached pages of the previous one
func (s *Site) Swap(ctx context.Context, d *Documenter) error {
	var generation uint64 = 1
	if prev := s.state.Load(); prev != nil {
		generation = prev.generation + 1
	}
	s.state.Store(&siteState{documenter: d, generation: generation})
	s.logger.WithFields(map[string]interface{}{
		"generation": generation,
		"pages":      len(d.DocumentedEntities()) + 1,
	}).Info("Documentation model swapped")

	if s.cache == nil {
		return nil
	}
	return s.cache.Purge(ctx)
}

// Documenter returns the current documenter, or nil before the first Swap
func (s *Site) Documenter() *Documenter {
	if st := s.state.Load(); st != nil {
		return st.documenter
	}
	return nil
}

// Ready reports whether a model is loaded
func (s *Site) Ready(ctx context.Context) error {
	if s.state.Load() == nil {
		return ErrNotLoaded
	}
	return nil
}

// Page returns the named page, from the cache when possible
func (s *Site) Page(ctx context.Context, name string) (*Page, error) {
	st := s.state.Load()
	if st == nil {
		return nil, ErrNotLoaded
	}
	d := st.documenter
	key := strconv.FormatUint(st.generation, 10) + "/" + name

	if s.cache != nil {
		page, err := s.cache.Get(ctx, key)
		if err == nil {
			return page, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			observability.FromContext(ctx).WithError(err).Warn("Page cache lookup failed")
		}
	}

	var page *Page
	var err error
	if name == d.IndexFilename() {
		page, err = d.RenderIndex(ctx)
	} else {
		e, ok := d.EntityForFilename(name)
		if !ok {
			return nil, ErrPageNotFound
		}
		page, err = d.RenderPage(ctx, e)
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, page); err != nil {
			observability.FromContext(ctx).WithError(err).Warn("Page cache store failed")
		}
	}
	return page, nil
}

package docs

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/protodoc/pkg/apimodel"
	"github.com/platinummonkey/protodoc/pkg/docnode"
	"github.com/platinummonkey/protodoc/pkg/emitter"
	"github.com/platinummonkey/protodoc/pkg/observability"
)

// ErrNotDocumented is returned when a page is requested for an entity that
// has no page of its own
var ErrNotDocumented = errors.New("entity is not documented")

// Format is the file format of rendered pages
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat validates a format name from configuration
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatMarkdown, FormatHTML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown output format %q", name)
}

// Extension returns the file extension of pages in this format
func (f Format) Extension() string {
	if f == FormatHTML {
		return ".html"
	}
	return ".md"
}

// ContentType returns the media type pages in this format are served with
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

// Flavor selects how headings, note boxes, tables and code spans are written
type Flavor string

const (
	// FlavorMarkdown writes plain Markdown constructs
	FlavorMarkdown Flavor = "markdown"
	// FlavorHTML writes those constructs as raw HTML inside the Markdown
	FlavorHTML Flavor = "html"
)

// ParseFlavor validates a flavor name from configuration
func ParseFlavor(name string) (Flavor, error) {
	switch f := Flavor(strings.ToLower(name)); f {
	case FlavorMarkdown, FlavorHTML:
		return f, nil
	case "":
		return FlavorMarkdown, nil
	}
	return "", fmt.Errorf("unknown markdown flavor %q", name)
}

// Options configures a Documenter
type Options struct {
	// Title of the index page
	Title  string
	Format Format
	Flavor Flavor

	TableSpacing    emitter.TableSpacing
	PadTableColumns bool

	// Concurrency bounds the number of pages RenderAll renders at once.
	// Zero means GOMAXPROCS.
	Concurrency int
}

// DefaultTitle is the index page title when none is configured
const DefaultTitle = "API Reference"

// Page is one rendered output file
type Page struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Entity      string   `json:"entity,omitempty"`
	ContentType string   `json:"content_type"`
	Content     []byte   `json:"content"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Documenter renders the pages of one API model
type Documenter struct {
	model   *apimodel.Model
	opts    Options
	logger  *observability.Logger
	metrics *observability.Metrics

	emitter  *emitter.Emitter
	markdown *MarkdownExporter
	html     *HTMLExporter

	documented []*apimodel.Entity
	filenames  map[*apimodel.Entity]string
	byFilename map[string]*apimodel.Entity
}

// NewDocumenter prepares the page set of model. metrics may be nil.
func NewDocumenter(model *apimodel.Model, opts Options, logger *observability.Logger, metrics *observability.Metrics) *Documenter {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.Format == "" {
		opts.Format = FormatMarkdown
	}
	if opts.Flavor == "" {
		opts.Flavor = FlavorMarkdown
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	d := &Documenter{
		model:      model,
		opts:       opts,
		logger:     logger,
		metrics:    metrics,
		markdown:   NewMarkdownExporter(),
		html:       NewHTMLExporter(),
		filenames:  make(map[*apimodel.Entity]string),
		byFilename: make(map[string]*apimodel.Entity),
	}
	if opts.Flavor == FlavorHTML {
		d.emitter = emitter.NewHTML()
	} else {
		d.emitter = emitter.NewMarkdown()
	}

	for _, e := range model.Entities() {
		if hasOwnPage(e) {
			d.documented = append(d.documented, e)
		}
	}
	d.assignFilenames()
	if metrics != nil {
		metrics.EntitiesDocumented.Set(float64(len(d.documented)))
	}
	return d
}

func hasOwnPage(e *apimodel.Entity) bool {
	if e.Imported() {
		return false
	}
	switch e.Kind() {
	case apimodel.KindPackage, apimodel.KindMessage, apimodel.KindEnum, apimodel.KindService:
		return true
	}
	return false
}

// assignFilenames gives every documented entity a unique lowercase file name.
// Names that differ only in case get a numeric suffix in full name order.
func (d *Documenter) assignFilenames() {
	ext := d.opts.Format.Extension()
	d.byFilename[d.IndexFilename()] = nil
	for _, e := range d.documented {
		base := strings.ToLower(e.FullName())
		if base == "" {
			base = "default-package"
		}
		name := base + ext
		for i := 2; ; i++ {
			if _, taken := d.byFilename[name]; !taken {
				break
			}
			name = base + "-" + strconv.Itoa(i) + ext
		}
		d.filenames[e] = name
		d.byFilename[name] = e
	}
	delete(d.byFilename, d.IndexFilename())
}

// Model returns the model being documented
func (d *Documenter) Model() *apimodel.Model {
	return d.model
}

// Options returns the effective options
func (d *Documenter) Options() Options {
	return d.opts
}

// DocumentedEntities returns the entities with a page of their own, sorted
// by full name
func (d *Documenter) DocumentedEntities() []*apimodel.Entity {
	return d.documented
}

// IndexFilename is the file name of the index page
func (d *Documenter) IndexFilename() string {
	return "index" + d.opts.Format.Extension()
}

// FilenameForEntity returns the page an entity is documented on. Members are
// documented on the page of their nearest enclosing documented entity.
// Entities outside the documented set have no page.
func (d *Documenter) FilenameForEntity(e *apimodel.Entity) (string, bool) {
	for e != nil && e.Kind().IsMember() {
		e = e.Parent()
	}
	if e == nil {
		return "", false
	}
	name, ok := d.filenames[e]
	return name, ok
}

// EntityForFilename is the inverse of FilenameForEntity for page owners
func (d *Documenter) EntityForFilename(name string) (*apimodel.Entity, bool) {
	e, ok := d.byFilename[name]
	return e, ok
}

// linkTarget is the link destination of an entity. Methods have their own
// section, so links to them carry the section anchor.
func (d *Documenter) linkTarget(e *apimodel.Entity) (string, bool) {
	name, ok := d.FilenameForEntity(e)
	if !ok {
		return "", false
	}
	if e.Kind() == apimodel.KindMethod {
		name += "#" + toAnchor(e.Name())
	}
	return name, true
}

// RenderPage renders the page of a documented entity
func (d *Documenter) RenderPage(ctx context.Context, e *apimodel.Entity) (*Page, error) {
	if e == nil || e.Kind().IsMember() {
		return nil, ErrNotDocumented
	}
	name, ok := d.filenames[e]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotDocumented, e.FullName())
	}
	return d.render(ctx, name, pageTitle(e), e, d.pageTree(e))
}

// RenderIndex renders the index page listing every documented package
func (d *Documenter) RenderIndex(ctx context.Context) (*Page, error) {
	return d.render(ctx, d.IndexFilename(), d.opts.Title, nil, d.indexTree())
}

// RenderAll renders the index and every documented entity. Pages are
// rendered concurrently, each with its own emitter context, and returned
// index first then in full name order.
func (d *Documenter) RenderAll(ctx context.Context) ([]*Page, error) {
	pages := make([]*Page, len(d.documented)+1)

	g, ctx := errgroup.WithContext(ctx)
	limit := d.opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)

	g.Go(func() error {
		page, err := d.RenderIndex(ctx)
		pages[0] = page
		return err
	})
	for i, e := range d.documented {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			page, err := d.RenderPage(ctx, e)
			pages[i+1] = page
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

func (d *Documenter) render(ctx context.Context, name, title string, e *apimodel.Entity, tree docnode.Node) (*Page, error) {
	kind := "index"
	entityName := ""
	if e != nil {
		kind = e.Kind().String()
		entityName = e.FullName()
	}
	format := string(d.opts.Format)

	ctx, span := observability.Tracer().Start(ctx, "docs.RenderPage", trace.WithAttributes(
		attribute.String("page", name),
		attribute.String("entity", entityName),
		attribute.String("format", format),
	))
	defer span.End()
	start := time.Now()

	logger := observability.WithTraceContext(ctx, d.logger.WithField("page", name))
	result, err := d.emitter.Emit(tree, emitter.Options{
		ContextEntity:     e,
		FilenameForEntity: d.linkTarget,
		Resolver:          d.model,
		Logger:            logger,
		TableSpacing:      d.opts.TableSpacing,
		PadTableColumns:   d.opts.PadTableColumns,
	})
	if err != nil {
		return nil, d.renderFailed(span, name, err)
	}

	markdown := d.markdown.Export(title, result.Text)
	content := []byte(markdown)
	if d.opts.Format == FormatHTML {
		if content, err = d.html.Export(title, d.IndexFilename(), markdown); err != nil {
			return nil, d.renderFailed(span, name, err)
		}
	}

	page := &Page{
		Name:        name,
		Title:       title,
		Entity:      entityName,
		ContentType: d.opts.Format.ContentType(),
		Content:     content,
	}
	for _, w := range result.Warnings {
		page.Warnings = append(page.Warnings, w.String())
		if d.metrics != nil {
			d.metrics.RenderWarningsTotal.WithLabelValues(warningKind(w)).Inc()
		}
	}
	if d.metrics != nil {
		d.metrics.PagesRenderedTotal.WithLabelValues(format, kind).Inc()
		d.metrics.PageRenderDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
	}
	span.SetAttributes(attribute.Int("warnings", len(page.Warnings)))
	logger.WithField("warnings", len(page.Warnings)).Debug("Rendered page")
	return page, nil
}

func (d *Documenter) renderFailed(span trace.Span, name string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if d.metrics != nil {
		d.metrics.RenderErrorsTotal.WithLabelValues(string(d.opts.Format)).Inc()
	}
	return fmt.Errorf("failed to render %s: %w", name, err)
}

func warningKind(w emitter.Warning) string {
	if w.Message == emitter.WarnUnableToDetermineLinkText {
		return "link_text"
	}
	return "reference"
}

// defaultPackageLabel names the package of files with no package statement
const defaultPackageLabel = "(default)"

func pageTitle(e *apimodel.Entity) string {
	name := e.ScopedNameWithinPackage()
	if e.Kind() == apimodel.KindPackage {
		name = e.FullName()
		if name == "" {
			name = defaultPackageLabel
		}
	}
	return name + " " + e.Kind().String()
}

// Summaries lists the documented entities in full name order
func (d *Documenter) Summaries() []EntitySummary {
	out := make([]EntitySummary, 0, len(d.documented))
	for _, e := range d.documented {
		out = append(out, EntitySummary{
			Name:       e.FullName(),
			Kind:       e.Kind().String(),
			File:       d.filenames[e],
			Deprecated: e.Deprecated(),
		})
	}
	return out
}

// EntitySummary describes one documented entity
type EntitySummary struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	File       string `json:"file"`
	Deprecated bool   `json:"deprecated,omitempty"`
}

package emitter

import (
	"github.com/platinummonkey/protodoc/pkg/apimodel"
	"github.com/platinummonkey/protodoc/pkg/observability"
)

// Resolver resolves a symbolic reference relative to an entity.
// *apimodel.Model implements it.
type Resolver interface {
	ResolveReference(ref string, from *apimodel.Entity) apimodel.ResolvedReference
}

// TableSpacing controls what separates a table from the content before it
type TableSpacing int

const (
	// TableSpacingBlankLine puts a blank line before every table that follows other content
	TableSpacingBlankLine TableSpacing = iota
	// TableSpacingNewLine only starts the table on a fresh line
	TableSpacingNewLine
)

// Options configures a single Emit call
type Options struct {
	// ContextEntity is the scope used to resolve relative code references
	ContextEntity *apimodel.Entity
	// FilenameForEntity maps a resolved entity to its output file.
	// It returns false when the entity is not part of the documented set.
	FilenameForEntity func(*apimodel.Entity) (string, bool)
	Resolver          Resolver
	Logger            *observability.Logger

	TableSpacing TableSpacing
	// PadTableColumns aligns Markdown table cells to the widest cell of each column
	PadTableColumns bool
}

// Warning is a non-fatal problem found while rendering
type Warning struct {
	Reference string
	Message   string
}

func (w Warning) String() string {
	if w.Reference == "" {
		return w.Message
	}
	return w.Reference + ": " + w.Message
}

// Context is the mutable state of one Emit call. It is never shared
// between calls.
type Context struct {
	Writer  *Writer
	Options Options

	BoldRequested   bool
	ItalicRequested bool
	InsideTable     bool
	// InsideHTML is set while writing into raw HTML markup, where Markdown
	// constructs are not interpreted
	InsideHTML bool

	// following is the first character the next sibling will write, or 0
	// when unknown. It decides whether a closing emphasis delimiter is
	// recognized.
	following rune

	warnings []Warning
}

// NewContext creates a context with a fresh writer
func NewContext(opts Options) *Context {
	return &Context{
		Writer:  NewWriter(),
		Options: opts,
	}
}

// Warn records a warning and logs it
func (c *Context) Warn(reference, message string) {
	c.warnings = append(c.warnings, Warning{Reference: reference, Message: message})
	if c.Options.Logger == nil {
		return
	}
	logger := c.Options.Logger.WithField("reference", reference)
	if c.Options.ContextEntity != nil {
		logger = logger.WithField("entity", c.Options.ContextEntity.FullName())
	}
	logger.Warn(message)
}

// Warnings returns the warnings recorded so far
func (c *Context) Warnings() []Warning {
	return c.warnings
}

// emphasisState is the saved value of the emphasis flags
type emphasisState struct {
	bold, italic bool
}

func (c *Context) saveEmphasis() emphasisState {
	return emphasisState{bold: c.BoldRequested, italic: c.ItalicRequested}
}

func (c *Context) restoreEmphasis(s emphasisState) {
	c.BoldRequested = s.bold
	c.ItalicRequested = s.italic
}

// withWriter runs fn with a temporary writer swapped in and returns what fn wrote
func (c *Context) withWriter(fn func() error) (string, error) {
	saved := c.Writer
	c.Writer = NewWriter()
	defer func() { c.Writer = saved }()
	err := fn()
	return c.Writer.String(), err
}

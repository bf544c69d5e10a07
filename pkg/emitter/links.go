package emitter

import (
	"fmt"
	"strings"

	"github.com/platinummonkey/protodoc/pkg/docnode"
)

// WarnUnableToDetermineLinkText is reported when a resolved link has no usable text
const WarnUnableToDetermineLinkText = "unable to determine link text"

func (e *Emitter) writeURLLink(ctx *Context, text, url string) {
	if strings.TrimSpace(text) == "" {
		text = url
	}
	text = collapseWhitespace(text)
	if text == "" {
		return
	}
	e.writeHyperlink(ctx, text, url)
}

// writeCodeLink resolves a symbolic reference and links to the page of the
// entity it names. References that do not resolve, or that resolve outside
// the documented set, produce no output.
func (e *Emitter) writeCodeLink(ctx *Context, text string, dest *docnode.CodeDestination) {
	opts := ctx.Options
	if opts.Resolver == nil {
		ctx.Warn(dest.Reference, "no resolver configured for code references")
		return
	}

	resolved := opts.Resolver.ResolveReference(dest.Reference, opts.ContextEntity)
	if resolved.Entity == nil {
		msg := resolved.ErrorMessage
		if msg == "" {
			msg = "reference did not resolve"
		}
		ctx.Warn(dest.Reference, fmt.Sprintf("unable to resolve reference %q: %s", dest.Reference, msg))
		return
	}

	if opts.FilenameForEntity == nil {
		return
	}
	filename, ok := opts.FilenameForEntity(resolved.Entity)
	if !ok || filename == "" {
		return
	}

	if strings.TrimSpace(text) == "" {
		text = resolved.Entity.ScopedNameWithinPackage()
	}
	text = collapseWhitespace(text)
	if text == "" {
		ctx.Warn(dest.Reference, WarnUnableToDetermineLinkText)
		return
	}
	e.writeHyperlink(ctx, text, filename)
}

func (e *Emitter) writeHyperlink(ctx *Context, text, url string) {
	w := ctx.Writer
	if ctx.InsideHTML {
		w.Write(`<a href="` + escapeHTML(url) + `">` + escapeHTML(text) + `</a>`)
		return
	}
	if ctx.InsideTable {
		// GFM splits cells on | even inside a link destination
		url = strings.ReplaceAll(url, "|", "%7C")
	}
	if strings.ContainsAny(url, " ()<>") {
		url = "<" + strings.NewReplacer("<", "%3C", ">", "%3E").Replace(url) + ">"
	}
	w.Write("[" + escapeMarkdown(text, false) + "](" + url + ")")
}

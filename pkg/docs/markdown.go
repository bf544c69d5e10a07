package docs

import (
	"strings"

	"github.com/platinummonkey/protodoc/pkg/emitter"
)

// MarkdownExporter assembles Markdown pages from emitted page bodies
type MarkdownExporter struct{}

// NewMarkdownExporter creates a new Markdown exporter
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{}
}

// Export writes the page title followed by the body. The result always ends
// with a single newline.
func (e *MarkdownExporter) Export(title, body string) string {
	var b strings.Builder
	b.WriteString("# " + emitter.EscapeMarkdown(title) + "\n")

	body = strings.TrimRight(body, "\n")
	if strings.TrimSpace(body) != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimLeft(body, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

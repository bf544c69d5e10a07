package docs

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// HTMLExporter converts rendered Markdown pages into standalone HTML pages
type HTMLExporter struct {
	template *template.Template
	markdown goldmark.Markdown
}

// NewHTMLExporter creates a new HTML exporter
func NewHTMLExporter() *HTMLExporter {
	tmpl := template.Must(template.New("docs").Funcs(template.FuncMap{
		"anchor": toAnchor,
	}).Parse(htmlTemplate))

	return &HTMLExporter{
		template: tmpl,
		// raw HTML written by the HTML flavor has to pass through unchanged
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
}

// Export converts markdown and wraps it in the page template
func (e *HTMLExporter) Export(title, indexFile, markdown string) ([]byte, error) {
	var body bytes.Buffer
	if err := e.markdown.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("failed to convert markdown: %w", err)
	}

	data := struct {
		Title     string
		IndexFile string
		Content   template.HTML
	}{
		Title:     title,
		IndexFile: indexFile,
		Content:   template.HTML(body.String()),
	}

	var buf bytes.Buffer
	if err := e.template.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// toAnchor converts a heading title to the id generated for it: lowercase
// letters and digits, with spaces, dashes and underscores as '-'
func toAnchor(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r == ' ', r == '-', r == '_':
			b.WriteByte('-')
		}
	}
	return b.String()
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{ .Title }} - API Documentation</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            background: #f5f5f5;
        }
        .container {
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
        }
        header {
            background: #2c3e50;
            color: white;
            padding: 20px 0;
            margin-bottom: 30px;
        }
        header a {
            color: #ecf0f1;
        }
        .content {
            background: white;
            padding: 30px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        .content h1 {
            margin-bottom: 20px;
        }
        .content p, .content ul, .content ol {
            margin: 10px 0;
        }
        h2 {
            color: #2c3e50;
            margin: 30px 0 20px 0;
            padding-bottom: 10px;
            border-bottom: 2px solid #3498db;
        }
        h3 {
            color: #34495e;
            margin: 25px 0 15px 0;
        }
        h4 {
            color: #7f8c8d;
            margin: 20px 0 10px 0;
        }
        blockquote {
            border-left: 4px solid #e74c3c;
            background: #fdf2f2;
            padding: 10px 15px;
            margin: 15px 0;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            margin: 20px 0;
        }
        th {
            background: #ecf0f1;
            padding: 12px;
            text-align: left;
            font-weight: 600;
            border-bottom: 2px solid #bdc3c7;
        }
        td {
            padding: 12px;
            border-bottom: 1px solid #ecf0f1;
        }
        code {
            background: #f8f9fa;
            padding: 2px 6px;
            border-radius: 3px;
            font-family: "Monaco", "Menlo", "Ubuntu Mono", monospace;
            font-size: 0.9em;
            color: #e74c3c;
        }
        pre {
            background: #2c3e50;
            color: #ecf0f1;
            padding: 15px;
            border-radius: 5px;
            overflow-x: auto;
            margin: 15px 0;
        }
        pre code {
            background: none;
            color: #ecf0f1;
            padding: 0;
        }
    </style>
</head>
<body>
    <header>
        <div class="container">
            <a href="{{ .IndexFile }}">Index</a>
        </div>
    </header>

    <div class="container">
        <div class="content" id="{{ anchor .Title }}-page">
{{ .Content }}
        </div>
    </div>
</body>
</html>
`

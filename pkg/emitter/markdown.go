package emitter

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/platinummonkey/protodoc/pkg/docnode"
)

// MarkdownRenderer renders structural nodes with GitHub flavored Markdown syntax
type MarkdownRenderer struct{}

// RenderNode handles headings, note boxes, tables, code and soft breaks
func (MarkdownRenderer) RenderNode(e *Emitter, ctx *Context, node docnode.Node, docNodeSiblings bool) (bool, error) {
	w := ctx.Writer
	switch n := node.(type) {
	case *docnode.Heading:
		if ctx.InsideTable {
			writeInlineHeading(e, ctx, n.Title)
			return true, nil
		}
		w.EnsureSkippedLine()
		w.Write(strings.Repeat("#", HeadingTagLevel(n.Level)) + " " + escapeMarkdown(collapseWhitespace(n.Title), false))
		w.EnsureSkippedLine()
		return true, nil

	case *docnode.NoteBox:
		if ctx.InsideTable {
			return true, e.WriteNodes(ctx, n.Children)
		}
		w.EnsureSkippedLine()
		w.IncreaseIndent("> ")
		err := e.WriteNodes(ctx, n.Children)
		w.EnsureNewLine()
		w.DecreaseIndent()
		w.EnsureSkippedLine()
		return true, err

	case *docnode.Table:
		return true, writeMarkdownTable(e, ctx, n)

	case *docnode.CodeSpan:
		if !ctx.InsideTable {
			return false, nil
		}
		// pipes inside backticks still split GFM table cells
		code := strings.ReplaceAll(escapeHTML(n.Code), "|", "&#124;")
		w.Write("<code>" + strings.ReplaceAll(code, "\n", " ") + "</code>")
		return true, nil

	case *docnode.FencedCode:
		return true, writeTrimmedFencedCode(e, ctx, n)

	case *docnode.SoftBreak:
		writeSoftBreak(ctx)
		return true, nil
	}
	return false, nil
}

// HeadingTagLevel maps a logical heading level to an output level. Level 1 is
// reserved for the page title, so logical levels are shifted down by one and
// everything below the fourth level is clamped.
func HeadingTagLevel(level int) int {
	switch {
	case level <= 1:
		return 2
	case level <= 3:
		return 3
	default:
		return 4
	}
}

func writeInlineHeading(e *Emitter, ctx *Context, title string) {
	saved := ctx.saveEmphasis()
	ctx.BoldRequested, ctx.ItalicRequested = true, false
	e.writePlainText(ctx, collapseWhitespace(title))
	ctx.restoreEmphasis(saved)
}

func writeTrimmedFencedCode(e *Emitter, ctx *Context, n *docnode.FencedCode) error {
	e.writeFencedCode(ctx, n.Language, strings.Trim(n.Code, "\r\n\t "))
	return nil
}

// writeSoftBreak writes a space unless the text already ends in whitespace
func writeSoftBreak(ctx *Context) {
	switch last := ctx.Writer.PeekLastCharacter(); last {
	case 0, ' ', '\t', '\n':
	default:
		ctx.Writer.Write(" ")
	}
}

func writeMarkdownTable(e *Emitter, ctx *Context, t *docnode.Table) error {
	rendered, err := e.renderTableCells(ctx, t, false)
	if err != nil {
		return err
	}
	if rendered.columns == 0 {
		return nil
	}

	widths := make([]int, rendered.columns)
	if ctx.Options.PadTableColumns {
		measure := func(cells []string) {
			for i, c := range cells {
				if wd := runewidth.StringWidth(c); wd > widths[i] {
					widths[i] = wd
				}
			}
		}
		measure(rendered.header)
		for _, row := range rendered.rows {
			measure(row)
		}
	}
	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
	}

	w := ctx.Writer
	beginTable(ctx)
	w.WriteLine(markdownRow(rendered.header, widths, ctx.Options.PadTableColumns))
	delimiters := make([]string, rendered.columns)
	for i, wd := range widths {
		delimiters[i] = strings.Repeat("-", wd)
	}
	w.WriteLine(markdownRow(delimiters, widths, false))
	for _, row := range rendered.rows {
		if len(row) == 0 {
			// a row with no cells still needs a line to keep its position
			w.WriteLine("|")
			continue
		}
		w.WriteLine(markdownRow(row, widths, ctx.Options.PadTableColumns))
	}
	w.EnsureSkippedLine()
	return nil
}

func markdownRow(cells []string, widths []int, pad bool) string {
	var b strings.Builder
	b.WriteString("|")
	for i, c := range cells {
		b.WriteString(" ")
		b.WriteString(c)
		if pad {
			b.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(c)))
		}
		b.WriteString(" |")
	}
	return b.String()
}

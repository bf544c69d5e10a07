package emitter

import (
	"strconv"
	"strings"

	"github.com/platinummonkey/protodoc/pkg/docnode"
)

// HTMLRenderer renders structural nodes as raw HTML embedded in Markdown.
// Block level tags are surrounded by blank lines so Markdown content between
// them is still parsed.
type HTMLRenderer struct{}

// RenderNode handles headings, note boxes, tables, code and soft breaks
func (HTMLRenderer) RenderNode(e *Emitter, ctx *Context, node docnode.Node, docNodeSiblings bool) (bool, error) {
	w := ctx.Writer
	switch n := node.(type) {
	case *docnode.Heading:
		if ctx.InsideTable {
			writeInlineHeading(e, ctx, n.Title)
			return true, nil
		}
		tag := "h" + strconv.Itoa(HeadingTagLevel(n.Level))
		w.EnsureSkippedLine()
		w.Write("<" + tag + ">" + escapeHTML(collapseWhitespace(n.Title)) + "</" + tag + ">")
		w.EnsureSkippedLine()
		return true, nil

	case *docnode.NoteBox:
		if ctx.InsideTable {
			return true, e.WriteNodes(ctx, n.Children)
		}
		w.EnsureSkippedLine()
		w.WriteLine("<blockquote>")
		w.EnsureSkippedLine()
		savedHTML := ctx.InsideHTML
		ctx.InsideHTML = false
		err := e.WriteNodes(ctx, n.Children)
		ctx.InsideHTML = savedHTML
		w.EnsureSkippedLine()
		w.WriteLine("</blockquote>")
		w.EnsureSkippedLine()
		return true, err

	case *docnode.Table:
		return true, writeHTMLTable(e, ctx, n)

	case *docnode.CodeSpan:
		w.Write("<code>" + escapeHTML(strings.ReplaceAll(n.Code, "\n", " ")) + "</code>")
		return true, nil

	case *docnode.FencedCode:
		if ctx.InsideTable || ctx.InsideHTML {
			return false, nil
		}
		return true, writeTrimmedFencedCode(e, ctx, n)

	case *docnode.SoftBreak:
		writeSoftBreak(ctx)
		return true, nil
	}
	return false, nil
}

func writeHTMLTable(e *Emitter, ctx *Context, t *docnode.Table) error {
	rendered, err := e.renderTableCells(ctx, t, true)
	if err != nil {
		return err
	}
	if rendered.columns == 0 {
		return nil
	}

	w := ctx.Writer
	beginTable(ctx)
	w.WriteLine("<table>")
	w.WriteLine("<thead>")
	w.WriteLine("<tr>")
	for _, c := range rendered.header {
		w.WriteLine("<th>" + c + "</th>")
	}
	w.WriteLine("</tr>")
	w.WriteLine("</thead>")
	w.WriteLine("<tbody>")
	for _, row := range rendered.rows {
		w.WriteLine("<tr>")
		for _, c := range row {
			w.WriteLine("<td>" + c + "</td>")
		}
		w.WriteLine("</tr>")
	}
	w.WriteLine("</tbody>")
	w.WriteLine("</table>")
	w.EnsureSkippedLine()
	return nil
}

package emitter

import (
	"strings"

	"github.com/platinummonkey/protodoc/pkg/docnode"
)

// renderedTable holds the single-line text of every cell of a table
type renderedTable struct {
	columns int
	header  []string
	rows    [][]string
}

// TableColumns returns max(header width, longest row width)
func TableColumns(t *docnode.Table) int {
	columns := 0
	if t.Header != nil {
		columns = len(t.Header.Cells)
	}
	for _, row := range t.Rows {
		if row != nil && len(row.Cells) > columns {
			columns = len(row.Cells)
		}
	}
	return columns
}

// renderTableCells renders each cell into its own writer with InsideTable
// set. The header always gets one entry per column; data rows keep their
// own length.
func (e *Emitter) renderTableCells(ctx *Context, t *docnode.Table, insideHTML bool) (*renderedTable, error) {
	savedTable, savedHTML := ctx.InsideTable, ctx.InsideHTML
	ctx.InsideTable, ctx.InsideHTML = true, insideHTML
	defer func() {
		ctx.InsideTable, ctx.InsideHTML = savedTable, savedHTML
	}()

	out := &renderedTable{columns: TableColumns(t)}
	out.header = make([]string, out.columns)
	if t.Header != nil {
		for i, cell := range t.Header.Cells {
			text, err := e.renderCell(ctx, cell)
			if err != nil {
				return nil, err
			}
			out.header[i] = text
		}
	}
	for _, row := range t.Rows {
		if row == nil {
			out.rows = append(out.rows, nil)
			continue
		}
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			text, err := e.renderCell(ctx, cell)
			if err != nil {
				return nil, err
			}
			cells = append(cells, text)
		}
		out.rows = append(out.rows, cells)
	}
	return out, nil
}

func (e *Emitter) renderCell(ctx *Context, cell *docnode.TableCell) (string, error) {
	if cell == nil {
		return "", nil
	}
	text, err := ctx.withWriter(func() error {
		return e.WriteNodes(ctx, cell.Children)
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ReplaceAll(text, "\n", " ")), nil
}

// beginTable separates the table from preceding content
func beginTable(ctx *Context) {
	if ctx.Options.TableSpacing == TableSpacingBlankLine {
		ctx.Writer.EnsureSkippedLine()
	} else {
		ctx.Writer.EnsureNewLine()
	}
}

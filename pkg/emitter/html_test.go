package emitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/protodoc/pkg/docnode"
)

func emitHTML(t *testing.T, node docnode.Node) string {
	t.Helper()
	res, err := NewHTML().Emit(node, Options{})
	require.NoError(t, err)
	return res.Text
}

func TestHTML_Heading(t *testing.T) {
	assert.Equal(t, "<h2>Fields &amp; more</h2>\n\n", emitHTML(t, &docnode.Heading{Level: 1, Title: "Fields & more"}))
	assert.Equal(t, "<h3>Sub</h3>\n\n", emitHTML(t, &docnode.Heading{Level: 3, Title: "Sub"}))
	assert.Equal(t, "<h4>Deep</h4>\n\n", emitHTML(t, &docnode.Heading{Level: 5, Title: "Deep"}))
}

func TestHTML_NoteBox(t *testing.T) {
	tree := &docnode.Section{Children: []docnode.Node{
		docnode.Para(docnode.Text("before")),
		&docnode.NoteBox{Children: []docnode.Node{docnode.Para(docnode.Bold(docnode.Text("Deprecated")), docnode.Text(" use x"))}},
		docnode.Para(docnode.Text("after")),
	}}

	assert.Equal(t, "before\n\n<blockquote>\n\n**Deprecated** use x\n\n</blockquote>\n\nafter\n\n", emitHTML(t, tree))
}

func TestHTML_Table(t *testing.T) {
	table := &docnode.Table{
		Header: docnode.TextRow("Name", "Type"),
		Rows: []*docnode.TableRow{
			docnode.Row(docnode.Cell(docnode.Bold(docnode.Text("a<b"))), docnode.Cell(docnode.Code("int32")), docnode.Cell(docnode.Text("c"))),
			docnode.TextRow("d"),
		},
	}

	assert.Equal(t, ""+
		"<table>\n"+
		"<thead>\n"+
		"<tr>\n"+
		"<th>Name</th>\n"+
		"<th>Type</th>\n"+
		"<th></th>\n"+
		"</tr>\n"+
		"</thead>\n"+
		"<tbody>\n"+
		"<tr>\n"+
		"<td><b>a&lt;b</b></td>\n"+
		"<td><code>int32</code></td>\n"+
		"<td>c</td>\n"+
		"</tr>\n"+
		"<tr>\n"+
		"<td>d</td>\n"+
		"</tr>\n"+
		"</tbody>\n"+
		"</table>\n\n", emitHTML(t, table))
}

func TestHTML_TableRestoresFlags(t *testing.T) {
	tree := &docnode.Section{Children: []docnode.Node{
		&docnode.Table{Header: docnode.TextRow("x")},
		docnode.Para(docnode.Text("a_b")),
	}}

	// text after the table is Markdown again
	assert.Contains(t, emitHTML(t, tree), "</table>\n\na\\_b\n\n")
}

func TestHTML_CodeSpan(t *testing.T) {
	assert.Equal(t, "<code>x&lt;y</code>", emitHTML(t, docnode.Code("x<y")))
}

func TestHTML_FencedCodeInTable(t *testing.T) {
	table := &docnode.Table{Rows: []*docnode.TableRow{
		docnode.Row(docnode.Cell(&docnode.FencedCode{Code: "\nmessage A {}\n"})),
	}}

	assert.Contains(t, emitHTML(t, table), "<td><code>message A {}</code></td>")
}

package docnode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_String(t *testing.T) {
	assert.Equal(t, "Heading", (&Heading{}).Kind().String())
	assert.Equal(t, "TableCell", Cell().Kind().String())
	assert.Equal(t, "Unknown", Kind(999).String())
}

func TestIsInline(t *testing.T) {
	assert.True(t, IsInline(Text("a")))
	assert.True(t, IsInline(CodeLink("pkg.Foo", "")))
	assert.False(t, IsInline(Para()))
	assert.False(t, IsInline(&Table{}))
}

func TestWalk(t *testing.T) {
	tree := &Section{Children: []Node{
		Para(Text("intro "), Bold(Text("strong"))),
		&Table{
			Header: TextRow("Name", "Type"),
			Rows:   []*TableRow{Row(Cell(CodeLink("pkg.Foo", "")))},
		},
		&List{Items: []*ListItem{{Children: []Node{Text("item")}}}},
	}}

	var kinds []Kind
	Walk(tree, func(n Node) bool {
		kinds = append(kinds, n.Kind())
		return true
	})

	assert.Equal(t, []Kind{
		KindSection,
		KindParagraph, KindPlainText, KindEmphasisSpan, KindPlainText,
		KindTable, KindTableRow, KindTableCell, KindPlainText, KindTableCell, KindPlainText,
		KindTableRow, KindTableCell, KindLinkTag,
		KindList, KindListItem, KindPlainText,
	}, kinds)
}

func TestWalk_SkipChildren(t *testing.T) {
	tree := Para(Bold(Text("hidden")), Text("shown"))

	var texts []string
	Walk(tree, func(n Node) bool {
		if t, ok := n.(*PlainText); ok {
			texts = append(texts, t.Text)
		}
		return n.Kind() != KindEmphasisSpan
	})

	assert.Equal(t, []string{"shown"}, texts)
}

package comment

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/platinummonkey/protodoc/pkg/docnode"
)

var markdown = goldmark.New(goldmark.WithExtensions(
	extension.Table,
	extension.Strikethrough,
	extension.TaskList,
))

// inlineLink matches {@link ref} and {@link ref | text}
var inlineLink = regexp.MustCompile(`\{@link\s+([^\s}|]+)\s*(?:\|\s*([^}]*?)\s*)?\}`)

// Parse converts comment text written in Markdown into a documentation tree
func Parse(comment string) *docnode.Section {
	source := []byte(comment)
	doc := markdown.Parser().Parse(text.NewReader(source))
	c := &converter{source: source}
	return &docnode.Section{Children: c.blocks(doc)}
}

// Summary returns the first paragraph of a parsed comment, or nil
func Summary(section *docnode.Section) *docnode.Paragraph {
	if section == nil {
		return nil
	}
	for _, n := range section.Children {
		if p, ok := n.(*docnode.Paragraph); ok {
			return p
		}
	}
	return nil
}

type converter struct {
	source []byte
	// emphasis of the enclosing spans, carried into nested ones
	bold, italic bool
}

func (c *converter) blocks(parent ast.Node) []docnode.Node {
	var out []docnode.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if b := c.block(n); b != nil {
			out = append(out, b)
		}
	}
	return out
}

func (c *converter) block(n ast.Node) docnode.Node {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return &docnode.Paragraph{Children: c.inlines(n)}
	case *ast.Heading:
		return &docnode.Heading{Level: n.Level, Title: c.plainText(n)}
	case *ast.Blockquote:
		return &docnode.NoteBox{Children: c.blocks(n)}
	case *ast.FencedCodeBlock:
		return &docnode.FencedCode{Language: string(n.Language(c.source)), Code: c.lines(n.Lines())}
	case *ast.CodeBlock:
		return &docnode.FencedCode{Code: c.lines(n.Lines())}
	case *ast.ThematicBreak:
		return &docnode.HorizontalRule{}
	case *ast.List:
		list := &docnode.List{Ordered: n.IsOrdered(), Start: n.Start}
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			list.Items = append(list.Items, &docnode.ListItem{Children: c.blocks(item)})
		}
		return list
	case *ast.HTMLBlock:
		markup := c.lines(n.Lines())
		if n.HasClosure() {
			markup += string(n.ClosureLine.Value(c.source))
		}
		return &docnode.HTMLTag{Markup: strings.TrimRight(markup, "\n")}
	case *east.Table:
		return c.table(n)
	}
	if n.HasChildren() {
		return &docnode.Section{Children: c.blocks(n)}
	}
	return nil
}

func (c *converter) table(n *east.Table) *docnode.Table {
	table := &docnode.Table{}
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		row := &docnode.TableRow{}
		for cell := child.FirstChild(); cell != nil; cell = cell.NextSibling() {
			row.Cells = append(row.Cells, &docnode.TableCell{Children: c.inlines(cell)})
		}
		if _, ok := child.(*east.TableHeader); ok {
			table.Header = row
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func (c *converter) inlines(parent ast.Node) []docnode.Node {
	var out []docnode.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, c.inline(n)...)
	}
	return expandInlineLinks(mergeText(out))
}

func (c *converter) inline(n ast.Node) []docnode.Node {
	switch n := n.(type) {
	case *ast.Text:
		out := []docnode.Node{docnode.Text(unescape(n.Segment.Value(c.source)))}
		switch {
		case n.HardLineBreak():
			out = append(out, &docnode.LineBreak{})
		case n.SoftLineBreak():
			out = append(out, &docnode.SoftBreak{})
		}
		return out
	case *ast.String:
		return []docnode.Node{docnode.Text(string(n.Value))}
	case *ast.CodeSpan:
		return []docnode.Node{docnode.Code(c.codeText(n))}
	case *ast.Emphasis:
		return []docnode.Node{c.emphasis(n)}
	case *ast.Link:
		return []docnode.Node{docnode.URLLink(string(n.Destination), c.plainText(n))}
	case *ast.Image:
		return []docnode.Node{docnode.URLLink(string(n.Destination), c.plainText(n))}
	case *ast.AutoLink:
		return []docnode.Node{docnode.URLLink(string(n.URL(c.source)), string(n.Label(c.source)))}
	case *ast.RawHTML:
		var b strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(c.source))
		}
		return []docnode.Node{&docnode.HTMLTag{Markup: b.String()}}
	case *east.TaskCheckBox:
		if n.IsChecked {
			return []docnode.Node{docnode.Text("[x] ")}
		}
		return []docnode.Node{docnode.Text("[ ] ")}
	}
	var out []docnode.Node
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		out = append(out, c.inline(child)...)
	}
	return out
}

// emphasis converts a span, folding in the emphasis of its ancestors. A span
// whose only child is another span collapses into the child, so ***x*** is
// a single bold italic span.
func (c *converter) emphasis(n *ast.Emphasis) docnode.Node {
	bold, italic := c.bold, c.italic
	defer func() { c.bold, c.italic = bold, italic }()
	c.bold = bold || n.Level >= 2
	c.italic = italic || n.Level == 1

	children := c.inlines(n)
	if len(children) == 1 {
		if inner, ok := children[0].(*docnode.EmphasisSpan); ok {
			return inner
		}
	}
	return &docnode.EmphasisSpan{Bold: c.bold, Italic: c.italic, Children: children}
}

// plainText flattens the text content of inline children
func (c *converter) plainText(n ast.Node) string {
	var b strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			switch child := child.(type) {
			case *ast.Text:
				b.WriteString(unescape(child.Segment.Value(c.source)))
				if child.SoftLineBreak() || child.HardLineBreak() {
					b.WriteByte(' ')
				}
			case *ast.String:
				b.Write(child.Value)
			case *ast.CodeSpan:
				b.WriteString(c.codeText(child))
			default:
				walk(child)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func (c *converter) codeText(n *ast.CodeSpan) string {
	var b strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch child := child.(type) {
		case *ast.Text:
			b.Write(child.Segment.Value(c.source))
		case *ast.String:
			b.Write(child.Value)
		}
	}
	return strings.ReplaceAll(b.String(), "\n", " ")
}

func (c *converter) lines(lines *text.Segments) string {
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(c.source))
	}
	return b.String()
}

func unescape(v []byte) string {
	v = util.UnescapePunctuations(v)
	v = util.ResolveNumericReferences(v)
	v = util.ResolveEntityNames(v)
	return string(v)
}

func mergeText(nodes []docnode.Node) []docnode.Node {
	out := make([]docnode.Node, 0, len(nodes))
	for _, n := range nodes {
		if t, ok := n.(*docnode.PlainText); ok {
			if t.Text == "" {
				continue
			}
			if len(out) > 0 {
				if prev, ok := out[len(out)-1].(*docnode.PlainText); ok {
					prev.Text += t.Text
					continue
				}
			}
			// copy so merging never touches a node shared with another list
			out = append(out, docnode.Text(t.Text))
			continue
		}
		out = append(out, n)
	}
	return out
}

// expandInlineLinks splits plain text around {@link} tags. A tag wrapped
// onto the next line is joined across the soft break.
func expandInlineLinks(nodes []docnode.Node) []docnode.Node {
	var out []docnode.Node
	for i := 0; i < len(nodes); i++ {
		t, ok := nodes[i].(*docnode.PlainText)
		if !ok || !strings.Contains(t.Text, "{@link") {
			out = append(out, nodes[i])
			continue
		}
		text := t.Text
		if last, joined, ok := joinWrappedLink(nodes, i); ok {
			text, i = joined, last
		}
		out = append(out, splitInlineLinks(text)...)
	}
	return out
}

// joinWrappedLink joins the text at nodes[i] with the soft breaks and text
// that follow it until its trailing tag closes. It returns the index of the
// last node consumed.
func joinWrappedLink(nodes []docnode.Node, i int) (int, string, bool) {
	text := nodes[i].(*docnode.PlainText).Text
	if !unclosedLink(text) {
		return i, "", false
	}
	for j := i + 1; j < len(nodes); j++ {
		switch n := nodes[j].(type) {
		case *docnode.SoftBreak:
			text += " "
		case *docnode.PlainText:
			text += n.Text
		default:
			return i, "", false
		}
		if !unclosedLink(text) {
			return j, text, true
		}
	}
	return i, "", false
}

func unclosedLink(s string) bool {
	k := strings.LastIndex(s, "{@link")
	return k >= 0 && !strings.Contains(s[k:], "}")
}

func splitInlineLinks(text string) []docnode.Node {
	var out []docnode.Node
	rest := text
	for _, m := range inlineLink.FindAllStringSubmatchIndex(text, -1) {
		start := m[0] - (len(text) - len(rest))
		if start > 0 {
			out = append(out, docnode.Text(rest[:start]))
		}
		ref := text[m[2]:m[3]]
		label := ""
		if m[4] >= 0 {
			label = text[m[4]:m[5]]
		}
		out = append(out, linkFor(ref, label))
		rest = text[m[1]:]
	}
	if rest != "" {
		out = append(out, docnode.Text(rest))
	}
	return out
}

func linkFor(ref, label string) *docnode.LinkTag {
	if strings.Contains(ref, "://") {
		return docnode.URLLink(ref, label)
	}
	return docnode.CodeLink(strings.ReplaceAll(ref, "#", "."), label)
}

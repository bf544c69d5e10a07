package emitter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/platinummonkey/protodoc/pkg/docnode"
)

// ErrUnsupportedNode is returned when a node kind reaches an emitter that
// does not know how to render it
var ErrUnsupportedNode = errors.New("unsupported node kind")

// NodeRenderer intercepts node kinds before the base emitter sees them.
// RenderNode returns false for kinds it leaves to the base emitter.
type NodeRenderer interface {
	RenderNode(e *Emitter, ctx *Context, node docnode.Node, docNodeSiblings bool) (bool, error)
}

// Emitter renders documentation trees to text
type Emitter struct {
	renderer NodeRenderer
}

// Result is the output of one Emit call
type Result struct {
	Text     string
	Warnings []Warning
}

// New creates an emitter. A nil renderer gives the base behavior only.
func New(renderer NodeRenderer) *Emitter {
	return &Emitter{renderer: renderer}
}

// NewMarkdown creates an emitter producing plain Markdown
func NewMarkdown() *Emitter {
	return New(MarkdownRenderer{})
}

// NewHTML creates an emitter producing Markdown that uses raw HTML tags for
// headings, note boxes, tables and code spans
func NewHTML() *Emitter {
	return New(HTMLRenderer{})
}

// Emit renders root with a fresh context
func (e *Emitter) Emit(root docnode.Node, opts Options) (*Result, error) {
	ctx := NewContext(opts)
	if err := e.WriteNode(ctx, root, false); err != nil {
		return nil, err
	}
	return &Result{Text: ctx.Writer.String(), Warnings: ctx.Warnings()}, nil
}

// WriteNodes renders a sequence of sibling nodes. Adjacent plain text nodes
// are written as one run so emphasis markers do not collide.
func (e *Emitter) WriteNodes(ctx *Context, nodes []docnode.Node) error {
	nodes = mergePlainText(nodes)
	siblings := len(nodes) > 1
	outer := ctx.following
	defer func() { ctx.following = outer }()
	for i, n := range nodes {
		ctx.following = outer
		if i+1 < len(nodes) {
			ctx.following = leadingChar(nodes[i+1])
		}
		if err := e.WriteNode(ctx, n, siblings); err != nil {
			return err
		}
	}
	return nil
}

// WriteNode renders a single node, giving the renderer the first chance
func (e *Emitter) WriteNode(ctx *Context, node docnode.Node, docNodeSiblings bool) error {
	if node == nil {
		return nil
	}
	if e.renderer != nil {
		handled, err := e.renderer.RenderNode(e, ctx, node, docNodeSiblings)
		if err != nil || handled {
			return err
		}
	}
	return e.WriteBaseNode(ctx, node, docNodeSiblings)
}

// WriteBaseNode renders a node with the base behavior, skipping the renderer
// for this node only
func (e *Emitter) WriteBaseNode(ctx *Context, node docnode.Node, docNodeSiblings bool) error {
	w := ctx.Writer
	switch n := node.(type) {
	case *docnode.PlainText:
		e.writePlainText(ctx, n.Text)
	case *docnode.Paragraph:
		return e.writeBlock(ctx, n.Children, docNodeSiblings)
	case *docnode.Section:
		return e.writeBlock(ctx, n.Children, false)
	case *docnode.EmphasisSpan:
		saved := ctx.saveEmphasis()
		defer ctx.restoreEmphasis(saved)
		ctx.BoldRequested = n.Bold
		ctx.ItalicRequested = n.Italic
		return e.WriteNodes(ctx, n.Children)
	case *docnode.LinkTag:
		if n.Code != nil {
			e.writeCodeLink(ctx, n.Text, n.Code)
		} else {
			e.writeURLLink(ctx, n.Text, n.URL)
		}
	case *docnode.CodeSpan:
		fence := backtickFence(n.Code, 1)
		code := n.Code
		if strings.HasPrefix(code, "`") || strings.HasSuffix(code, "`") {
			code = " " + code + " "
		}
		w.Write(fence + code + fence)
	case *docnode.FencedCode:
		e.writeFencedCode(ctx, n.Language, n.Code)
	case *docnode.SoftBreak:
		if ctx.InsideTable {
			w.Write(" ")
		} else {
			w.Write("\n")
		}
	case *docnode.LineBreak:
		if ctx.InsideTable || ctx.InsideHTML {
			w.Write("<br/>")
		} else {
			w.Write("\\\n")
		}
	case *docnode.HorizontalRule:
		if ctx.InsideTable {
			return nil
		}
		w.EnsureSkippedLine()
		if ctx.InsideHTML {
			w.Write("<hr/>")
		} else {
			w.Write("---")
		}
		w.EnsureSkippedLine()
	case *docnode.List:
		return e.writeList(ctx, n)
	case *docnode.ListItem:
		return e.WriteNodes(ctx, n.Children)
	case *docnode.TableCell:
		return e.WriteNodes(ctx, n.Children)
	case *docnode.HTMLTag:
		w.Write(n.Markup)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedNode, node.Kind())
	}
	return nil
}

func (e *Emitter) writePlainText(ctx *Context, text string) {
	if text == "" {
		return
	}
	w := ctx.Writer
	if ctx.InsideTable {
		text = strings.ReplaceAll(text, "\n", " ")
	}
	lead, body, trail := splitSurroundingSpace(text)
	if body == "" {
		w.Write(text)
		return
	}

	var openMark, closeMark string
	if ctx.InsideHTML {
		if ctx.BoldRequested {
			openMark, closeMark = openMark+"<b>", "</b>"+closeMark
		}
		if ctx.ItalicRequested {
			openMark, closeMark = openMark+"<i>", "</i>"+closeMark
		}
		w.Write(escapeHTML(lead) + openMark + escapeHTML(body) + closeMark + escapeHTML(trail))
		return
	}

	last := w.PeekLastCharacter()
	atLineStart := (last == 0 || last == '\n') && lead == "" && !ctx.BoldRequested && !ctx.ItalicRequested
	escaped := escapeMarkdown(body, atLineStart)

	if ctx.BoldRequested || ctx.ItalicRequested {
		prev, next := last, ctx.following
		if lead != "" {
			prev = ' '
		}
		if trail != "" {
			next = ' '
		}
		// delimiters a parser would not pair fall back to inline HTML,
		// as in x**(y)**z
		flanking := canOpenEmphasis(prev, escaped) && canCloseEmphasis(escaped, next)
		if ctx.BoldRequested {
			if flanking {
				openMark, closeMark = openMark+"**", "**"+closeMark
			} else {
				openMark, closeMark = openMark+"<strong>", "</strong>"+closeMark
			}
		}
		if ctx.ItalicRequested {
			if flanking {
				openMark, closeMark = openMark+"*", "*"+closeMark
			} else {
				openMark, closeMark = openMark+"<em>", "</em>"+closeMark
			}
		}
	}
	w.Write(trimSpaceBeforeNewlines(lead + openMark + escaped + closeMark + trail))
}

// writeBlock writes paragraph-like content separated from its surroundings
// by blank lines. Inside a table the content stays on one line and sibling
// paragraphs are separated by explicit breaks.
func (e *Emitter) writeBlock(ctx *Context, children []docnode.Node, docNodeSiblings bool) error {
	w := ctx.Writer
	outer := ctx.following
	ctx.following = 0
	defer func() { ctx.following = outer }()
	if ctx.InsideTable {
		if docNodeSiblings && w.Len() > 0 {
			w.Write("<br/><br/>")
		}
		return e.WriteNodes(ctx, children)
	}
	w.EnsureSkippedLine()
	if err := e.WriteNodes(ctx, children); err != nil {
		return err
	}
	w.EnsureSkippedLine()
	return nil
}

func (e *Emitter) writeFencedCode(ctx *Context, language, code string) {
	w := ctx.Writer
	if ctx.InsideTable || ctx.InsideHTML {
		w.Write("<code>" + escapeHTML(strings.TrimSpace(code)) + "</code>")
		return
	}
	fence := backtickFence(code, 3)
	w.EnsureSkippedLine()
	w.WriteLine(fence + language)
	w.Write(code)
	w.EnsureNewLine()
	w.WriteLine(fence)
	w.EnsureSkippedLine()
}

func (e *Emitter) writeList(ctx *Context, list *docnode.List) error {
	w := ctx.Writer
	if ctx.InsideTable {
		for i, item := range list.Items {
			if i > 0 || w.Len() > 0 {
				w.Write("<br/>")
			}
			w.Write(listMarker(list, i))
			if err := e.writeListItem(ctx, item); err != nil {
				return err
			}
		}
		return nil
	}

	w.EnsureSkippedLine()
	for i, item := range list.Items {
		w.EnsureNewLine()
		marker := listMarker(list, i)
		w.Write(marker)
		w.IncreaseIndent(strings.Repeat(" ", len(marker)))
		err := e.writeListItem(ctx, item)
		w.DecreaseIndent()
		if err != nil {
			return err
		}
	}
	w.EnsureSkippedLine()
	return nil
}

// writeListItem writes a leading paragraph on the marker line and any
// further blocks below it
func (e *Emitter) writeListItem(ctx *Context, item *docnode.ListItem) error {
	for i, child := range item.Children {
		if p, ok := child.(*docnode.Paragraph); ok && i == 0 {
			if err := e.WriteNodes(ctx, p.Children); err != nil {
				return err
			}
			continue
		}
		if !ctx.InsideTable && !docnode.IsInline(child) {
			ctx.Writer.EnsureNewLine()
		}
		if err := e.WriteNode(ctx, child, len(item.Children) > 1); err != nil {
			return err
		}
	}
	return nil
}

func listMarker(list *docnode.List, index int) string {
	if !list.Ordered {
		return "- "
	}
	start := list.Start
	if start == 0 {
		start = 1
	}
	return strconv.Itoa(start+index) + ". "
}

func mergePlainText(nodes []docnode.Node) []docnode.Node {
	merge := false
	for i := 1; i < len(nodes); i++ {
		if isPlainText(nodes[i-1]) && isPlainText(nodes[i]) {
			merge = true
			break
		}
	}
	if !merge {
		return nodes
	}
	out := make([]docnode.Node, 0, len(nodes))
	for _, n := range nodes {
		if t, ok := n.(*docnode.PlainText); ok && len(out) > 0 {
			if prev, ok := out[len(out)-1].(*docnode.PlainText); ok {
				out[len(out)-1] = &docnode.PlainText{Text: prev.Text + t.Text}
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

// leadingChar is the first character n writes in Markdown, or 0 when it
// cannot be known without rendering
func leadingChar(n docnode.Node) rune {
	switch n := n.(type) {
	case *docnode.PlainText:
		r, _ := utf8.DecodeRuneInString(n.Text)
		if r == utf8.RuneError {
			return 0
		}
		return r
	case *docnode.EmphasisSpan:
		if n.Bold || n.Italic {
			return '*'
		}
		if len(n.Children) > 0 {
			return leadingChar(n.Children[0])
		}
	case *docnode.LinkTag:
		return '['
	case *docnode.CodeSpan:
		return '`'
	}
	return 0
}

func isPlainText(n docnode.Node) bool {
	_, ok := n.(*docnode.PlainText)
	return ok
}

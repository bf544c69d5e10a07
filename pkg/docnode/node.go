package docnode

// Kind identifies the variant of a documentation node
type Kind int

const (
	KindPlainText Kind = iota
	KindParagraph
	KindSection
	KindEmphasisSpan
	KindCodeSpan
	KindFencedCode
	KindSoftBreak
	KindLineBreak
	KindHorizontalRule
	KindLinkTag
	KindHeading
	KindNoteBox
	KindTable
	KindTableRow
	KindTableCell
	KindList
	KindListItem
	KindHTMLTag
)

var kindNames = map[Kind]string{
	KindPlainText:      "PlainText",
	KindParagraph:      "Paragraph",
	KindSection:        "Section",
	KindEmphasisSpan:   "EmphasisSpan",
	KindCodeSpan:       "CodeSpan",
	KindFencedCode:     "FencedCode",
	KindSoftBreak:      "SoftBreak",
	KindLineBreak:      "LineBreak",
	KindHorizontalRule: "HorizontalRule",
	KindLinkTag:        "LinkTag",
	KindHeading:        "Heading",
	KindNoteBox:        "NoteBox",
	KindTable:          "Table",
	KindTableRow:       "TableRow",
	KindTableCell:      "TableCell",
	KindList:           "List",
	KindListItem:       "ListItem",
	KindHTMLTag:        "HTMLTag",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Node is one element of a documentation tree.
// Nodes are treated as immutable once the tree is built.
type Node interface {
	Kind() Kind
}

// Container is implemented by nodes that hold an ordered list of children
type Container interface {
	Node
	ChildNodes() []Node
}

// PlainText is a run of literal text
type PlainText struct {
	Text string
}

// Paragraph groups inline content into a block
type Paragraph struct {
	Children []Node
}

// Section groups block content without adding its own markup
type Section struct {
	Children []Node
}

// EmphasisSpan applies bold and/or italic formatting to its children
type EmphasisSpan struct {
	Bold     bool
	Italic   bool
	Children []Node
}

// CodeSpan is inline code
type CodeSpan struct {
	Code string
}

// FencedCode is a block of code with an optional language hint
type FencedCode struct {
	Language string
	Code     string
}

// SoftBreak is a line wrap in the source text
type SoftBreak struct{}

// LineBreak is an explicit hard line break
type LineBreak struct{}

// HorizontalRule separates blocks
type HorizontalRule struct{}

// CodeDestination is a symbolic reference to a declared API entity
type CodeDestination struct {
	Reference string
}

// LinkTag is a hyperlink. Exactly one of URL or Code is set.
type LinkTag struct {
	Text string
	URL  string
	Code *CodeDestination
}

// Heading is a section title with an unbounded logical level starting at 1
type Heading struct {
	Level int
	Title string
}

// NoteBox renders its children in a visually distinct block
type NoteBox struct {
	Children []Node
}

// TableCell holds the content of a single cell
type TableCell struct {
	Children []Node
}

// TableRow is an ordered list of cells. Rows need not be rectangular.
type TableRow struct {
	Cells []*TableCell
}

// Table has an optional header row and ordered data rows
type Table struct {
	Header *TableRow
	Rows   []*TableRow
}

// ListItem is one entry of a List
type ListItem struct {
	Children []Node
}

// List is a bulleted or numbered list
type List struct {
	Ordered bool
	Start   int
	Items   []*ListItem
}

// HTMLTag is raw markup passed through unchanged
type HTMLTag struct {
	Markup string
}

func (*PlainText) Kind() Kind      { return KindPlainText }
func (*Paragraph) Kind() Kind      { return KindParagraph }
func (*Section) Kind() Kind        { return KindSection }
func (*EmphasisSpan) Kind() Kind   { return KindEmphasisSpan }
func (*CodeSpan) Kind() Kind       { return KindCodeSpan }
func (*FencedCode) Kind() Kind     { return KindFencedCode }
func (*SoftBreak) Kind() Kind      { return KindSoftBreak }
func (*LineBreak) Kind() Kind      { return KindLineBreak }
func (*HorizontalRule) Kind() Kind { return KindHorizontalRule }
func (*LinkTag) Kind() Kind        { return KindLinkTag }
func (*Heading) Kind() Kind        { return KindHeading }
func (*NoteBox) Kind() Kind        { return KindNoteBox }
func (*Table) Kind() Kind          { return KindTable }
func (*TableRow) Kind() Kind       { return KindTableRow }
func (*TableCell) Kind() Kind      { return KindTableCell }
func (*List) Kind() Kind           { return KindList }
func (*ListItem) Kind() Kind       { return KindListItem }
func (*HTMLTag) Kind() Kind        { return KindHTMLTag }

func (n *Paragraph) ChildNodes() []Node    { return n.Children }
func (n *Section) ChildNodes() []Node      { return n.Children }
func (n *EmphasisSpan) ChildNodes() []Node { return n.Children }
func (n *NoteBox) ChildNodes() []Node      { return n.Children }
func (n *TableCell) ChildNodes() []Node    { return n.Children }
func (n *ListItem) ChildNodes() []Node     { return n.Children }

// IsInline reports whether the node renders inside a line of text
func IsInline(n Node) bool {
	switch n.Kind() {
	case KindPlainText, KindEmphasisSpan, KindCodeSpan, KindSoftBreak, KindLineBreak, KindLinkTag, KindHTMLTag:
		return true
	}
	return false
}

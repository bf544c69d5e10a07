package docnode

// Text returns a plain text node
func Text(s string) *PlainText {
	return &PlainText{Text: s}
}

// Para returns a paragraph holding the given children
func Para(children ...Node) *Paragraph {
	return &Paragraph{Children: children}
}

// Bold wraps children in a bold span
func Bold(children ...Node) *EmphasisSpan {
	return &EmphasisSpan{Bold: true, Children: children}
}

// Italic wraps children in an italic span
func Italic(children ...Node) *EmphasisSpan {
	return &EmphasisSpan{Italic: true, Children: children}
}

// Code returns an inline code node
func Code(s string) *CodeSpan {
	return &CodeSpan{Code: s}
}

// CodeLink returns a link to a symbolic API reference
func CodeLink(ref, text string) *LinkTag {
	return &LinkTag{Text: text, Code: &CodeDestination{Reference: ref}}
}

// URLLink returns a link to a literal URL
func URLLink(url, text string) *LinkTag {
	return &LinkTag{Text: text, URL: url}
}

// Cell returns a table cell holding the given children
func Cell(children ...Node) *TableCell {
	return &TableCell{Children: children}
}

// Row returns a table row
func Row(cells ...*TableCell) *TableRow {
	return &TableRow{Cells: cells}
}

// TextRow returns a row with one plain text cell per value
func TextRow(values ...string) *TableRow {
	row := &TableRow{Cells: make([]*TableCell, 0, len(values))}
	for _, v := range values {
		row.Cells = append(row.Cells, Cell(Text(v)))
	}
	return row
}

// Walk visits n and every descendant depth-first. Returning false from fn
// skips the descendants of that node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch v := n.(type) {
	case Container:
		for _, c := range v.ChildNodes() {
			Walk(c, fn)
		}
	case *Table:
		if v.Header != nil {
			Walk(v.Header, fn)
		}
		for _, r := range v.Rows {
			Walk(r, fn)
		}
	case *TableRow:
		for _, c := range v.Cells {
			Walk(c, fn)
		}
	case *List:
		for _, item := range v.Items {
			Walk(item, fn)
		}
	}
}

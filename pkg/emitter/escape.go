package emitter

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"
)

// EscapeMarkdown escapes inline text, such as a page title, for Markdown output
func EscapeMarkdown(text string) string {
	return escapeMarkdown(text, false)
}

// escapeMarkdown escapes text so that a CommonMark parser reads it back as
// the same literal characters. atLineStart reports whether the text begins a
// line, where block markers such as "- " or "1. " would otherwise apply.
func escapeMarkdown(text string, atLineStart bool) string {
	var b strings.Builder
	b.Grow(len(text) + 8)
	lineStart := atLineStart
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '\\', '*', '_', '[', ']', '#', '|', '`', '~':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '-', '+', '=':
			if lineStart {
				b.WriteByte('\\')
			}
			b.WriteByte(c)
		case '\n':
			b.WriteByte(c)
			lineStart = true
			continue
		default:
			if lineStart && c >= '0' && c <= '9' {
				j := i
				for j < len(text) && text[j] >= '0' && text[j] <= '9' {
					j++
				}
				b.WriteString(text[i:j])
				if j < len(text) && (text[j] == '.' || text[j] == ')') {
					b.WriteByte('\\')
					b.WriteByte(text[j])
					j++
				}
				i = j - 1
				lineStart = false
				continue
			}
			b.WriteByte(c)
		}
		if c != ' ' && c != '\t' {
			lineStart = false
		}
	}
	return b.String()
}

// trimSpaceBeforeNewlines drops spaces and tabs at the end of each line
// except the last. Two trailing spaces would otherwise be a hard line break.
func trimSpaceBeforeNewlines(s string) string {
	if !strings.Contains(s, " \n") && !strings.Contains(s, "\t\n") {
		return s
	}
	lines := strings.Split(s, "\n")
	for i := 0; i < len(lines)-1; i++ {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.Join(lines, "\n")
}

// canOpenEmphasis reports whether a "*" run written after prev and followed
// by body is left-flanking. A zero prev is the start of the text.
func canOpenEmphasis(prev rune, body string) bool {
	first, _ := utf8.DecodeRuneInString(body)
	return !isMarkdownPunct(first) || prev == 0 || unicode.IsSpace(prev) || isMarkdownPunct(prev)
}

// canCloseEmphasis reports whether a "*" run written after body and followed
// by next is right-flanking. A zero next is the end of the text.
func canCloseEmphasis(body string, next rune) bool {
	last, _ := utf8.DecodeLastRuneInString(body)
	return !isMarkdownPunct(last) || next == 0 || unicode.IsSpace(next) || isMarkdownPunct(next)
}

func isMarkdownPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// escapeHTML escapes text for use inside raw HTML markup
func escapeHTML(text string) string {
	return html.EscapeString(text)
}

// collapseWhitespace replaces every run of whitespace with a single space
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// splitSurroundingSpace splits s into leading whitespace, body and trailing whitespace
func splitSurroundingSpace(s string) (lead, body, trail string) {
	body = strings.TrimLeftFunc(s, unicode.IsSpace)
	lead = s[:len(s)-len(body)]
	trimmed := strings.TrimRightFunc(body, unicode.IsSpace)
	trail = body[len(trimmed):]
	return lead, trimmed, trail
}

// backtickFence returns a run of backticks longer than any run inside code
func backtickFence(code string, minLen int) string {
	longest, run := 0, 0
	for i := 0; i < len(code); i++ {
		if code[i] == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	n := longest + 1
	if n < minLen {
		n = minLen
	}
	return strings.Repeat("`", n)
}

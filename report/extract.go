package report

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	blockCloseRe = regexp.MustCompile(`(?i)</(?:p|div|h[1-6]|li|ul|ol|blockquote)\s*>`)
	lineBreakRe  = regexp.MustCompile(`(?i)<(?:br|hr)\s*/?\s*>`)
	anyTagRe     = regexp.MustCompile(`<[^>]*>`)
	horizWSRe    = regexp.MustCompile(`[ \t]+`)
	nlEdgeWSRe   = regexp.MustCompile(` *\n *`)
	multiNLRe    = regexp.MustCompile(`\n{3,}`)
)

// ToPlainText converts sanitized HTML to plain text: block-closing tags and
// line breaks become newlines, remaining tags are stripped, the
// non-breaking-space entity decodes to a space, horizontal whitespace runs
// collapse, and newline runs collapse to at most two. Stable:
// re-applying to its own output is a no-op.
func ToPlainText(safeHTML string) string {
	s := blockCloseRe.ReplaceAllString(safeHTML, "\n")
	s = lineBreakRe.ReplaceAllString(s, "\n")
	s = anyTagRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = horizWSRe.ReplaceAllString(s, " ")
	s = nlEdgeWSRe.ReplaceAllString(s, "\n")
	s = multiNLRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// ToFormattedText walks the document tree producing a line-oriented
// rendering suited to fixed-width export: level-1 headings are uppercased
// and isolated by blank lines, level-2/3 headings keep their case, list
// items become indented bullet lines. Stable under re-application.
func ToFormattedText(safeHTML string) string {
	trimmed := strings.TrimSpace(safeHTML)
	if trimmed == "" {
		return ""
	}

	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(trimmed), ctx)
	if err != nil {
		return ToPlainText(safeHTML)
	}

	var b strings.Builder
	for _, n := range nodes {
		writeFormatted(&b, n)
	}

	out := multiNLRe.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(out)
}

func writeFormatted(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
	default:
		return
	}

	switch n.DataAtom {
	case atom.H1:
		fmt.Fprintf(b, "\n%s\n\n", strings.ToUpper(strings.TrimSpace(nodeText(n))))
	case atom.H2, atom.H3:
		fmt.Fprintf(b, "\n%s\n\n", strings.TrimSpace(nodeText(n)))
	case atom.P, atom.Div:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeFormatted(b, c)
		}
		b.WriteString("\n\n")
	case atom.Li:
		fmt.Fprintf(b, "  - %s\n", strings.TrimSpace(nodeText(n)))
	case atom.Br:
		b.WriteString("\n\n")
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeFormatted(b, c)
		}
	}
}

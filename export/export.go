// Package export renders the annotated report into the downloadable forms
// the host application offers: a standalone HTML document, markdown, plain
// and formatted text, and a paginated text-only PDF. Nothing is persisted
// here; every exporter returns bytes for the host to hand off.
package export

import (
	"fmt"
	"html"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/dundysm/spine-ai-app/report"
)

const htmlStyles = `body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 32px; color: #1f2933; background-color: #ffffff; max-width: 52rem; }
h1 { margin-bottom: 0.25rem; }
h2 { margin-top: 1.5rem; }
.findings-section { border-left: 3px solid #1e88e5; padding-left: 1rem; margin: 1rem 0; }
.impression-section { border-left: 3px solid #6a1b9a; padding-left: 1rem; margin: 1rem 0; }
.normal { background-color: #f1f8f1; border-radius: 4px; padding: 0.4rem 0.6rem; }
.abnormal { background-color: #fdecea; border-radius: 4px; padding: 0.4rem 0.6rem; }
.confidence-medium { outline: 1px dashed #f9a825; }
.confidence-low { outline: 1px dashed #e65100; }
.low-confidence-notes { margin-top: 2rem; color: #8a6d3b; background-color: #fcf8e3; padding: 0.5rem 1rem; border-radius: 4px; }
`

// HTMLDocument wraps the annotated fragment into a complete HTML page with
// the fixed review stylesheet.
func HTMLDocument(annotated, title string) []byte {
	if title == "" {
		title = "Radiology Report"
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString("<html lang=\"en\">\n")
	b.WriteString("<head>\n")
	b.WriteString("  <meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "  <title>%s</title>\n", html.EscapeString(title))
	fmt.Fprintf(&b, "  <style>%s</style>\n", htmlStyles)
	b.WriteString("</head>\n")
	b.WriteString("<body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(title))
	b.WriteString(annotated)
	b.WriteString("\n</body>\n</html>\n")
	return []byte(b.String())
}

// Markdown converts the annotated fragment back to editable markdown.
func Markdown(annotated string) (string, error) {
	md, err := htmltomarkdown.ConvertString(annotated)
	if err != nil {
		return "", fmt.Errorf("export: markdown: %w", err)
	}
	return strings.TrimSpace(md) + "\n", nil
}

// PlainText is the clipboard/plain-export projection of the report.
func PlainText(annotated string) string {
	return report.ToPlainText(annotated)
}

// FormattedText is the line-oriented projection used for fixed-width
// export and PDF layout.
func FormattedText(annotated string) string {
	return report.ToFormattedText(annotated)
}

// ClipboardText produces the text handed to the host clipboard capability.
// The core only produces the string; writing it is the host's job.
func ClipboardText(doc report.Document) string {
	return doc.PlainText
}

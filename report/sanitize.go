package report

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// markdown converts report markdown to HTML. GitHub-flavored extensions
// stay off and no typographer runs, so clinical abbreviations survive
// verbatim; single newlines become hard line breaks the way dictated
// reports expect. Raw HTML passes through here because the sanitizer
// strips it right after.
var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		gmhtml.WithHardWraps(),
		gmhtml.WithUnsafe(),
	),
)

// classValue constrains the class attribute to the fixed vocabulary applied
// by the structurer. Anything else is dropped.
var classValue = regexp.MustCompile(
	`^(?:(?:normal|abnormal|findings-section|impression-section|confidence-medium|confidence-low|low-confidence-notes)(?:\s+|$))+$`,
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"h1", "h2", "h3", "h4",
		"p", "br", "hr",
		"em", "strong", "i", "b", "u",
		"ul", "ol", "li",
		"span", "div", "blockquote",
	)
	p.AllowAttrs("class").Matching(classValue).Globally()
	return p
}

var policy = newPolicy()

// ToSafeHTML converts untrusted report text into an injection-safe HTML
// fragment. Input starting with "<" (after trimming) is treated as
// pre-rendered HTML and only sanitized; anything else is parsed as
// markdown first. Empty input yields an empty string. The function is pure
// and idempotent: sanitizing already-sanitized output returns it unchanged.
func ToSafeHTML(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	raw := trimmed
	if !strings.HasPrefix(trimmed, "<") {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(input), &buf); err != nil {
			// Unparseable source degrades to an empty document; the rest of
			// the report UI stays usable.
			return ""
		}
		raw = buf.String()
	}
	return strings.TrimSpace(policy.Sanitize(raw))
}

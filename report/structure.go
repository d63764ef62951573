package report

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Default keyword vocabularies for level tinting. Whole-word,
// case-insensitive. A block is tagged abnormal only when the abnormal
// vocabulary matches and the normal vocabulary does not; everything else is
// tagged normal — lack of any keyword deliberately reads as "nothing
// flagged" rather than raising a false alarm.
var (
	DefaultAbnormalTerms = []string{
		"bulge", "bulging", "herniation", "herniated", "protrusion",
		"extrusion", "sequestration", "stenosis", "compression",
		"impingement", "degenerative", "degeneration", "desiccation",
		"spondylolisthesis", "spondylosis", "hypertrophy", "narrowing",
		"effacement", "annular tear", "tear", "fracture", "edema",
	}
	DefaultNormalTerms = []string{
		"normal", "unremarkable", "no evidence", "no acute",
		"no significant", "intact", "preserved", "patent", "maintained",
	}
)

// DefaultMaxLevelBlockChars is the cutoff above which a block is never
// classified. Long multi-topic paragraphs that merely mention a level are
// left untinted to avoid false positives.
const DefaultMaxLevelBlockChars = 800

// levelToken matches one anatomical level reference (L1-L2 through L4-L5,
// or L5-S1), tolerating en dashes and stray spacing.
var levelToken = regexp.MustCompile(`(?i)\bL[1-5]\s*[-–]\s*(?:L[2-5]|S1)\b`)

// StructurerOptions overrides the annotation defaults.
type StructurerOptions struct {
	AbnormalTerms []string
	NormalTerms   []string
	// MaxBlockChars is the classification length cutoff in runes.
	MaxBlockChars int
	// Confidence, when set, adds confidence-medium/confidence-low classes
	// to level blocks and appends the low-confidence notes once.
	Confidence *Confidence
}

// Structurer post-processes sanitized HTML: it wraps recognized section
// headings into named containers and classifies anatomical-level blocks.
type Structurer struct {
	abnormalRe *regexp.Regexp
	normalRe   *regexp.Regexp
	maxChars   int
	conf       *Confidence
}

// NewStructurer builds a Structurer. Zero options give the defaults.
func NewStructurer(opts StructurerOptions) *Structurer {
	if len(opts.AbnormalTerms) == 0 {
		opts.AbnormalTerms = DefaultAbnormalTerms
	}
	if len(opts.NormalTerms) == 0 {
		opts.NormalTerms = DefaultNormalTerms
	}
	if opts.MaxBlockChars <= 0 {
		opts.MaxBlockChars = DefaultMaxLevelBlockChars
	}
	return &Structurer{
		abnormalRe: vocabRegexp(opts.AbnormalTerms),
		normalRe:   vocabRegexp(opts.NormalTerms),
		maxChars:   opts.MaxBlockChars,
		conf:       opts.Confidence,
	}
}

// vocabRegexp compiles a whole-word, case-insensitive alternation.
func vocabRegexp(terms []string) *regexp.Regexp {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t != "" {
			quoted = append(quoted, regexp.QuoteMeta(t))
		}
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Annotate runs both passes over safe HTML: section wrapping, then level
// tinting, then (with confidence metadata) the low-confidence notes.
// Invoking it on its own output is a no-op beyond the first pass.
func (st *Structurer) Annotate(safeHTML string) string {
	trimmed := strings.TrimSpace(safeHTML)
	if trimmed == "" {
		return ""
	}

	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(trimmed), ctx)
	if err != nil {
		return safeHTML
	}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	for _, n := range nodes {
		body.AppendChild(n)
	}

	st.wrapSections(body)
	st.tintLevels(body)
	st.appendNotes(body)

	var b strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return safeHTML
		}
	}
	return b.String()
}

// wrapSections wraps each recognized level-2 heading and its following
// siblings (up to the next level-2 heading) into a named container.
// Headings are processed in document order so later moves never disturb
// earlier containers. Headings already inside a container are not
// direct children of body and are skipped, which makes the pass
// idempotent.
func (st *Structurer) wrapSections(body *html.Node) {
	c := body.FirstChild
	for c != nil {
		next := c.NextSibling
		if isElement(c, atom.H2) {
			if cls := sectionClass(nodeText(c)); cls != "" {
				wrapper := &html.Node{
					Type:     html.ElementNode,
					Data:     "div",
					DataAtom: atom.Div,
					Attr:     []html.Attribute{{Key: "class", Val: cls}},
				}
				body.InsertBefore(wrapper, c)
				m := c
				for m != nil {
					if m != c && isElement(m, atom.H2) {
						break
					}
					after := m.NextSibling
					body.RemoveChild(m)
					wrapper.AppendChild(m)
					m = after
				}
				next = wrapper.NextSibling
			}
		}
		c = next
	}
}

// sectionClass classifies a normalized heading text. Headings matching
// neither section name start no section.
func sectionClass(text string) string {
	up := strings.ToUpper(strings.TrimSpace(text))
	switch {
	case strings.Contains(up, "IMPRESSION"), strings.Contains(up, "CONCLUSION"):
		return "impression-section"
	case strings.Contains(up, "FINDING"):
		return "findings-section"
	}
	return ""
}

// tintLevels walks the whole document depth-first and classifies every
// paragraph or div whose text names an anatomical level and stays under
// the length cutoff.
func (st *Structurer) tintLevels(n *html.Node) {
	if n.Type == html.ElementNode && (n.DataAtom == atom.P || n.DataAtom == atom.Div) {
		if !isContainer(n) {
			st.tintBlock(n)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		st.tintLevels(c)
	}
}

func (st *Structurer) tintBlock(n *html.Node) {
	if hasAnyClass(n, "normal", "abnormal") {
		// Already classified on a previous pass.
		return
	}
	text := nodeText(n)
	if utf8.RuneCountInString(text) >= st.maxChars {
		return
	}
	match := levelToken.FindString(text)
	if match == "" {
		return
	}

	cls := "normal"
	if st.abnormalRe.MatchString(text) && !st.normalRe.MatchString(text) {
		cls = "abnormal"
	}
	addClass(n, cls)

	if tier := st.conf.LevelTier(normalizeLevelKey(match)); tier == TierMedium || tier == TierLow {
		addClass(n, "confidence-"+string(tier))
	}
}

// appendNotes appends the low-confidence notes container once, at the end
// of the document.
func (st *Structurer) appendNotes(body *html.Node) {
	if st.conf == nil || len(st.conf.LowConfidenceNotes) == 0 {
		return
	}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if hasAnyClass(c, "low-confidence-notes") {
			return
		}
	}

	wrapper := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "class", Val: "low-confidence-notes"}},
	}
	list := &html.Node{Type: html.ElementNode, Data: "ul", DataAtom: atom.Ul}
	wrapper.AppendChild(list)
	for _, note := range st.conf.LowConfidenceNotes {
		li := &html.Node{Type: html.ElementNode, Data: "li", DataAtom: atom.Li}
		li.AppendChild(&html.Node{Type: html.TextNode, Data: note})
		list.AppendChild(li)
	}
	body.AppendChild(wrapper)
}

// --- node helpers ---

func isElement(n *html.Node, a atom.Atom) bool {
	return n.Type == html.ElementNode && n.DataAtom == a
}

// isContainer reports whether the node is one of the wrappers the
// structurer itself creates. Those are never tinted.
func isContainer(n *html.Node) bool {
	return hasAnyClass(n, "findings-section", "impression-section", "low-confidence-notes")
}

// nodeText concatenates the text content of a subtree, like the DOM's
// textContent.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func classAttrIndex(n *html.Node) int {
	for i, a := range n.Attr {
		if a.Key == "class" {
			return i
		}
	}
	return -1
}

func hasAnyClass(n *html.Node, classes ...string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	i := classAttrIndex(n)
	if i < 0 {
		return false
	}
	for _, have := range strings.Fields(n.Attr[i].Val) {
		for _, want := range classes {
			if have == want {
				return true
			}
		}
	}
	return false
}

func addClass(n *html.Node, cls string) {
	if hasAnyClass(n, cls) {
		return
	}
	i := classAttrIndex(n)
	if i < 0 {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: cls})
		return
	}
	n.Attr[i].Val = strings.TrimSpace(n.Attr[i].Val + " " + cls)
}

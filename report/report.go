// Package report implements the report content pipeline: sanitization of
// untrusted markdown or HTML into an allow-listed fragment, structural
// annotation (named sections, per-level normality and confidence tinting),
// deterministic text extraction for export, raw-report parsing, and the
// edit session.
package report

// DiscLevels are the five lumbar anatomical levels a standard report
// addresses, in spatial order.
var DiscLevels = []string{"L1-L2", "L2-L3", "L3-L4", "L4-L5", "L5-S1"}

// Tier is a per-finding confidence rating.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// NormalizeTier maps arbitrary input to a valid tier. Absent input means
// the unmarked default (high); any other unrecognized value degrades to
// medium, matching the analysis backend.
func NormalizeTier(s string) Tier {
	switch Tier(s) {
	case TierHigh, TierMedium, TierLow:
		return Tier(s)
	}
	if s == "" {
		return TierHigh
	}
	return TierMedium
}

// Confidence is the structured confidence metadata supplied alongside a
// report. It is read-only annotation input: it tints the rendered report
// but never alters its text.
type Confidence struct {
	Overall            Tier            `json:"overall_confidence"`
	Levels             map[string]Tier `json:"level_confidence"`
	LowConfidenceNotes []string        `json:"low_confidence_notes"`
}

// LevelTier returns the normalized tier for an anatomical level.
func (c *Confidence) LevelTier(level string) Tier {
	if c == nil {
		return TierHigh
	}
	return NormalizeTier(string(c.Levels[level]))
}

// StructuredReport is the parsed form of a raw report.
type StructuredReport struct {
	Findings           string            `json:"findings"`
	Impression         string            `json:"impression"`
	ClinicalIndication string            `json:"clinical_indication"`
	Technique          string            `json:"technique"`
	Comparison         string            `json:"comparison"`
	LevelFindings      map[string]string `json:"level_findings"`
	Confidence         *Confidence       `json:"confidence,omitempty"`
	Raw                string            `json:"raw"`
}

// Validation is the result of a report completeness check.
type Validation struct {
	Valid         bool            `json:"valid"`
	LevelChecks   map[string]bool `json:"level_checks"`
	HasImpression bool            `json:"has_impression"`
	Warnings      []string        `json:"warnings"`
}

// Document is the live report representation: the raw input, its sanitized
// HTML, and the derived plain-text projection. Only one Document is live at
// a time; edits replace it atomically.
type Document struct {
	Raw       string
	HTML      string
	PlainText string
}

// NewDocument sanitizes raw input (markdown or HTML, auto-detected) and
// derives the plain-text projection.
func NewDocument(raw string) Document {
	safe := ToSafeHTML(raw)
	return Document{
		Raw:       raw,
		HTML:      safe,
		PlainText: ToPlainText(safe),
	}
}

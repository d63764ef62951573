package report

import (
	"fmt"
	"regexp"
	"strings"
)

var impressionWordRe = regexp.MustCompile(`(?i)\bIMPRESSION\b`)

// Validate checks report completeness: every standard disc level mentioned,
// an IMPRESSION section present, and a minimum plausible length. The result
// annotates the review UI; it never blocks anything.
func Validate(raw string, sr StructuredReport) Validation {
	var warnings []string
	upper := strings.ToUpper(raw)
	levelChecks := make(map[string]bool, len(DiscLevels))

	for _, level := range DiscLevels {
		inText := strings.Contains(upper, level) ||
			strings.Contains(upper, strings.ReplaceAll(level, "-", "/"))
		levelChecks[level] = inText || strings.TrimSpace(sr.LevelFindings[level]) != ""
		if !levelChecks[level] {
			warnings = append(warnings, fmt.Sprintf("Disc level %s not explicitly mentioned.", level))
		}
	}

	hasImpression := impressionWordRe.MatchString(raw) && strings.TrimSpace(sr.Impression) != ""
	if !hasImpression {
		warnings = append(warnings, "IMPRESSION section missing or empty.")
	}

	if trimmed := strings.TrimSpace(raw); trimmed != "" && len(trimmed) < 200 {
		warnings = append(warnings, "Report appears unusually brief; consider reviewing completeness.")
	}

	return Validation{
		Valid:         len(warnings) == 0,
		LevelChecks:   levelChecks,
		HasImpression: hasImpression,
		Warnings:      warnings,
	}
}

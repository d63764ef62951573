package report

import (
	"regexp"
	"strings"
)

// Raw PACS-style reports arrive in several shapes; section extraction works
// on start markers and slices up to the next known marker instead of
// lookahead, which RE2 does not support.
var (
	impressionStartRe = regexp.MustCompile(`(?i)\bIMPRESSION\s*:?\s*\n?`)
	conclusionStartRe = regexp.MustCompile(`(?i)\bCONCLUSION\s*:?\s*\n?`)
	findingsStartRe   = regexp.MustCompile(`(?i)\bFINDINGS?\s*:?\s*\n?`)
	findingsEndRe     = regexp.MustCompile(`(?i)\n\s*(?:IMPRESSION|CONCLUSION)\b`)
	blankLineRe       = regexp.MustCompile(`\n\s*\n`)

	// levelStart matches one canonical level marker with its optional
	// ":"/"-" separator, e.g. "L4-L5:" or "l5-s1 –".
	levelStartRe = regexp.MustCompile(`(?i)\b(L[1-5]\s*[-–]\s*(?:L[2-5]|S1))\s*:?\s*[-–]?\s*`)
)

// ParseReport parses a raw report into structured data: the FINDINGS and
// IMPRESSION sections, the optional header sections, and the per-level
// findings. A report with neither section keeps everything under Findings.
func ParseReport(raw string) StructuredReport {
	sr := StructuredReport{Raw: raw}

	if loc := impressionStartRe.FindStringIndex(raw); loc != nil {
		sr.Impression = strings.TrimSpace(raw[loc[1]:])
	} else if loc := conclusionStartRe.FindStringIndex(raw); loc != nil {
		sr.Impression = strings.TrimSpace(raw[loc[1]:])
	}

	if loc := findingsStartRe.FindStringIndex(raw); loc != nil {
		rest := raw[loc[1]:]
		if end := findingsEndRe.FindStringIndex(rest); end != nil {
			rest = rest[:end[0]]
		}
		sr.Findings = strings.TrimSpace(rest)
	}

	if sr.Findings == "" && sr.Impression == "" {
		sr.Findings = strings.TrimSpace(raw)
	}

	sr.ClinicalIndication = extractSection(raw, "CLINICAL INDICATION", []string{"TECHNIQUE", "FINDINGS", "COMPARISON"})
	sr.Technique = extractSection(raw, "TECHNIQUE", []string{"COMPARISON", "FINDINGS"})
	sr.Comparison = extractSection(raw, "COMPARISON", []string{"FINDINGS"})

	sr.LevelFindings = extractLevelFindings(sr.Findings)
	return sr
}

// extractSection pulls the text between a section marker and the next
// known marker (or the next blank line when no markers are given).
func extractSection(text, name string, next []string) string {
	startRe := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\s*:?\s*\n?`)
	loc := startRe.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	rest := text[loc[1]:]

	end := len(rest)
	if len(next) > 0 {
		quoted := make([]string, len(next))
		for i, n := range next {
			quoted[i] = regexp.QuoteMeta(n)
		}
		endRe := regexp.MustCompile(`(?i)\n\s*(?:` + strings.Join(quoted, "|") + `)`)
		if m := endRe.FindStringIndex(rest); m != nil {
			end = m[0]
		}
	} else if m := blankLineRe.FindStringIndex(rest); m != nil {
		end = m[0]
	}
	return strings.TrimSpace(rest[:end])
}

// extractLevelFindings splits the FINDINGS section into per-level text,
// keyed by the canonical DiscLevels names. Levels not mentioned map to "".
func extractLevelFindings(findings string) map[string]string {
	out := make(map[string]string, len(DiscLevels))
	for _, level := range DiscLevels {
		out[level] = ""
	}
	if findings == "" {
		return out
	}

	locs := levelStartRe.FindAllStringSubmatchIndex(findings, -1)
	for i, loc := range locs {
		key := normalizeLevelKey(findings[loc[2]:loc[3]])
		if key == "" {
			continue
		}
		end := len(findings)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		out[key] = strings.TrimSpace(findings[loc[1]:end])
	}
	return out
}

// normalizeLevelKey maps level text (l4 - l5, L5–S1, ...) to its canonical
// DiscLevels entry, or "" if it names no standard level.
func normalizeLevelKey(key string) string {
	k := strings.ToUpper(key)
	k = strings.NewReplacer(" ", "", "\t", "", "–", "-").Replace(k)
	for _, std := range DiscLevels {
		if std == k || strings.ReplaceAll(std, "-", "") == strings.ReplaceAll(k, "-", "") {
			return std
		}
	}
	return ""
}

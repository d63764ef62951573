package report

import (
	"strings"
	"testing"
)

func TestToSafeHTMLStripsScript(t *testing.T) {
	out := ToSafeHTML("<script>alert(1)</script><p>ok</p>")
	if strings.Contains(out, "script") || strings.Contains(out, "alert") {
		t.Fatalf("script survived: %q", out)
	}
	if !strings.Contains(out, "<p>ok</p>") {
		t.Fatalf("content lost: %q", out)
	}
}

func TestToSafeHTMLStripsEventHandlers(t *testing.T) {
	out := ToSafeHTML(`<p onclick="steal()">text</p><div style="x">d</div>`)
	if strings.Contains(out, "onclick") || strings.Contains(out, "style") {
		t.Fatalf("attributes survived: %q", out)
	}
	if !strings.Contains(out, "text") || !strings.Contains(out, "d") {
		t.Fatalf("content lost: %q", out)
	}
}

func TestToSafeHTMLClassVocabulary(t *testing.T) {
	out := ToSafeHTML(`<p class="abnormal">a</p><p class="evil">b</p>`)
	if !strings.Contains(out, `<p class="abnormal">a</p>`) {
		t.Fatalf("allowed class dropped: %q", out)
	}
	if strings.Contains(out, "evil") {
		t.Fatalf("arbitrary class survived: %q", out)
	}
}

func TestToSafeHTMLMarkdown(t *testing.T) {
	out := ToSafeHTML("# Lumbar Spine MRI\n\nFirst line\nSecond line")
	if !strings.Contains(out, "<h1>Lumbar Spine MRI</h1>") {
		t.Fatalf("heading not rendered: %q", out)
	}
	// Single newlines become hard line breaks for dictated reports.
	if !strings.Contains(out, "<br") {
		t.Fatalf("hard wrap missing: %q", out)
	}
}

func TestToSafeHTMLPreservesClinicalText(t *testing.T) {
	// No typographer, no GFM: abbreviations and measurements stay verbatim.
	out := ToSafeHTML("T2 signal at L4-L5 measures 3x5 mm -- stable")
	plain := ToPlainText(out)
	if !strings.Contains(plain, "L4-L5") || !strings.Contains(plain, "3x5 mm") || !strings.Contains(plain, "--") {
		t.Fatalf("clinical text mangled: %q", plain)
	}
}

func TestToSafeHTMLEmptyInput(t *testing.T) {
	if out := ToSafeHTML(""); out != "" {
		t.Fatalf("empty input: %q", out)
	}
	if out := ToSafeHTML("   \n\t"); out != "" {
		t.Fatalf("whitespace input: %q", out)
	}
}

func TestToSafeHTMLIdempotent(t *testing.T) {
	inputs := []string{
		"# FINDINGS\n\nL4-L5: disc bulge\nL5-S1: normal",
		"<h2>FINDINGS</h2><p>ok</p>",
		"plain sentence with no markup",
		"<p>entities &amp; more</p>",
	}
	for _, in := range inputs {
		once := ToSafeHTML(in)
		twice := ToSafeHTML(once)
		if once != twice {
			t.Fatalf("not idempotent for %q:\n once: %q\ntwice: %q", in, once, twice)
		}
	}
}

func TestToSafeHTMLDetectsHTML(t *testing.T) {
	// Leading "<" after trimming means the input is already HTML.
	out := ToSafeHTML("  <p>already html # not a heading</p>")
	if strings.Contains(out, "<h1>") {
		t.Fatalf("HTML input went through the markdown parser: %q", out)
	}
	if !strings.Contains(out, "# not a heading") {
		t.Fatalf("content lost: %q", out)
	}
}

package report

import (
	"strings"
	"testing"
)

func TestEditSessionLifecycle(t *testing.T) {
	var committed []string
	e := NewEditSession("## FINDINGS\n\nL4-L5: bulge", EditOptions{
		OnCommit: func(html string) { committed = append(committed, html) },
	})

	if !e.ViewMode() {
		t.Fatal("session must start in view mode")
	}
	doc := e.Document()
	if !strings.Contains(doc.HTML, "<h2>FINDINGS</h2>") {
		t.Fatalf("document not sanitized: %q", doc.HTML)
	}
	if !strings.Contains(doc.PlainText, "L4-L5: bulge") {
		t.Fatalf("plain projection missing: %q", doc.PlainText)
	}

	e.EnterEdit()
	if e.ViewMode() {
		t.Fatal("still in view mode after EnterEdit")
	}
	if e.Buffer() != doc.HTML {
		t.Fatalf("buffer not seeded from displayed HTML: %q", e.Buffer())
	}

	e.SetBuffer(doc.HTML + `<p>Addendum: reviewed by radiologist.</p>`)
	e.Commit()

	if !e.ViewMode() {
		t.Fatal("commit must return to view mode")
	}
	if len(committed) != 1 {
		t.Fatalf("OnCommit called %d times", len(committed))
	}
	if !strings.Contains(e.Document().HTML, "Addendum") {
		t.Fatal("edit not applied")
	}
}

func TestEditSessionCommitSanitizes(t *testing.T) {
	var got string
	e := NewEditSession("<p>original</p>", EditOptions{
		OnCommit: func(html string) { got = html },
	})

	e.EnterEdit()
	e.SetBuffer(`<p>edited</p><script>alert(1)</script>`)
	e.Commit()

	if strings.Contains(got, "script") {
		t.Fatalf("unsanitized commit: %q", got)
	}
	if !strings.Contains(got, "<p>edited</p>") {
		t.Fatalf("edit lost: %q", got)
	}
	if e.Document().HTML != got {
		t.Fatal("live document and commit payload differ")
	}
}

func TestEditSessionCancel(t *testing.T) {
	e := NewEditSession("<p>original</p>", EditOptions{})

	e.EnterEdit()
	e.SetBuffer("<p>scratch</p>")
	e.CancelEdit()

	if !e.ViewMode() {
		t.Fatal("cancel must return to view mode")
	}
	if !strings.Contains(e.Document().HTML, "original") {
		t.Fatal("cancel mutated the document")
	}

	// Re-entering edit discards the abandoned buffer.
	e.EnterEdit()
	if strings.Contains(e.Buffer(), "scratch") {
		t.Fatalf("stale buffer survived: %q", e.Buffer())
	}
}

func TestEditSessionReplace(t *testing.T) {
	e := NewEditSession("<p>first study</p>", EditOptions{})
	e.EnterEdit()
	e.Replace("<p>second study</p>")

	if !e.ViewMode() {
		t.Fatal("replace must reset to view mode")
	}
	if !strings.Contains(e.Document().HTML, "second study") {
		t.Fatal("replace not applied")
	}
}

func TestEditSessionEmptyReport(t *testing.T) {
	e := NewEditSession("", EditOptions{})
	doc := e.Document()
	if doc.HTML != "" || doc.PlainText != "" {
		t.Fatalf("empty report: %+v", doc)
	}

	st := NewStructurer(StructurerOptions{})
	if out := st.Annotate(doc.HTML); out != "" {
		t.Fatalf("annotate of empty document: %q", out)
	}
}

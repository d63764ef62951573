package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/dundysm/spine-ai-app/report"
)

// PDFOptions controls the page layout of the PDF export.
type PDFOptions struct {
	// Title is printed as the document heading and set as PDF metadata.
	Title string
	// MarginMM is the uniform page margin. Default: 18 mm.
	MarginMM float64
	// FontPt is the body font size. Default: 11 pt.
	FontPt float64
	// LineHeightMM is the body line height. Default: 5.5 mm.
	LineHeightMM float64
}

func (o *PDFOptions) defaults() {
	if o.Title == "" {
		o.Title = "Radiology Report"
	}
	if o.MarginMM <= 0 {
		o.MarginMM = 18
	}
	if o.FontPt <= 0 {
		o.FontPt = 11
	}
	if o.LineHeightMM <= 0 {
		o.LineHeightMM = 5.5
	}
}

// PDF renders the annotated report as a paginated text-only PDF: A4 pages,
// fixed margins, lines wrapped at the printable width, automatic page
// breaks when the next line would exceed the printable height. The
// produced bytes are read back through pdfcpu before being returned, so a
// malformed render fails loudly instead of shipping a broken blob.
func PDF(annotated string, opts PDFOptions) ([]byte, error) {
	opts.defaults()

	text := report.ToFormattedText(annotated)

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(opts.Title, true)
	doc.SetMargins(opts.MarginMM, opts.MarginMM, opts.MarginMM)
	doc.SetAutoPageBreak(true, opts.MarginMM)
	doc.AddPage()
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetFont("Helvetica", "B", opts.FontPt+4)
	doc.MultiCell(0, opts.LineHeightMM+2, tr(opts.Title), "", "L", false)
	doc.Ln(opts.LineHeightMM)
	doc.SetFont("Helvetica", "", opts.FontPt)

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			doc.Ln(opts.LineHeightMM)
			continue
		}
		doc.MultiCell(0, opts.LineHeightMM, tr(line), "", "L", false)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("export: pdf render: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	if _, err := api.ReadValidateAndOptimize(bytes.NewReader(buf.Bytes()), conf); err != nil {
		return nil, fmt.Errorf("export: pdf validation: %w", err)
	}
	return buf.Bytes(), nil
}

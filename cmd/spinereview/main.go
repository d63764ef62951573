// Command spinereview runs the report pipeline from the command line: it
// sanitizes and annotates a report (markdown or HTML, with optional
// structured confidence metadata from the analysis backend) and writes the
// export targets.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dundysm/spine-ai-app/config"
	"github.com/dundysm/spine-ai-app/export"
	"github.com/dundysm/spine-ai-app/observability"
	"github.com/dundysm/spine-ai-app/report"
)

// analysisResult mirrors the JSON the analysis backend returns for a study.
type analysisResult struct {
	Report     string `json:"report"`
	Structured struct {
		Confidence *report.Confidence `json:"confidence"`
	} `json:"structured"`
}

func main() {
	var (
		inPath       = flag.String("in", "", "report file (markdown or HTML)")
		analysisPath = flag.String("analysis", "", "analysis result JSON (report + structured confidence)")
		configPath   = flag.String("config", env("SPINEREVIEW_CONFIG", ""), "configuration YAML")
		outDir       = flag.String("out", ".", "output directory")
		formats      = flag.String("formats", "text,html", "comma-separated: text,formatted,html,md,pdf")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	events := observability.NewEventLogger(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("config load failed", "error", err)
		os.Exit(1)
	}

	raw, conf, err := loadInput(*inPath, *analysisPath)
	if err != nil {
		log.Error("input load failed", "error", err)
		os.Exit(1)
	}

	safe := report.ToSafeHTML(raw)
	st := report.NewStructurer(report.StructurerOptions{
		AbnormalTerms: cfg.Report.AbnormalTerms,
		NormalTerms:   cfg.Report.NormalTerms,
		MaxBlockChars: cfg.Report.MaxLevelBlockChars,
		Confidence:    conf,
	})
	annotated := st.Annotate(safe)

	structured := report.ParseReport(raw)
	validation := report.Validate(raw, structured)
	for _, w := range validation.Warnings {
		log.Warn("report validation", "warning", w)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Error("output directory", "error", err)
		os.Exit(1)
	}

	for _, format := range strings.Split(*formats, ",") {
		format = strings.TrimSpace(format)
		if format == "" {
			continue
		}
		if err := writeFormat(format, annotated, cfg, *outDir); err != nil {
			log.Error("export failed", "format", format, "error", err)
			os.Exit(1)
		}
		log.Info("exported", "format", format, "dir", *outDir)
	}

	events.Log(context.Background(), observability.ReviewEvent{
		EventType: "report_exported",
		Action:    "export",
		Details:   *formats,
		Success:   true,
	})
}

func loadInput(inPath, analysisPath string) (string, *report.Confidence, error) {
	var raw string
	var conf *report.Confidence

	if analysisPath != "" {
		data, err := os.ReadFile(analysisPath)
		if err != nil {
			return "", nil, fmt.Errorf("read analysis: %w", err)
		}
		var res analysisResult
		if err := json.Unmarshal(data, &res); err != nil {
			return "", nil, fmt.Errorf("parse analysis: %w", err)
		}
		raw = res.Report
		conf = res.Structured.Confidence
	}

	if inPath != "" {
		data, err := os.ReadFile(inPath)
		if err != nil {
			return "", nil, fmt.Errorf("read report: %w", err)
		}
		raw = string(data)
	}

	if raw == "" {
		return "", nil, fmt.Errorf("no report: pass -in or -analysis")
	}
	return raw, conf, nil
}

func writeFormat(format, annotated string, cfg config.Config, outDir string) error {
	switch format {
	case "text":
		return os.WriteFile(filepath.Join(outDir, "report.txt"),
			[]byte(export.PlainText(annotated)+"\n"), 0o644)
	case "formatted":
		return os.WriteFile(filepath.Join(outDir, "report_formatted.txt"),
			[]byte(export.FormattedText(annotated)+"\n"), 0o644)
	case "html":
		return os.WriteFile(filepath.Join(outDir, "report.html"),
			export.HTMLDocument(annotated, cfg.Export.Title), 0o644)
	case "md":
		md, err := export.Markdown(annotated)
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(outDir, "report.md"), []byte(md), 0o644)
	case "pdf":
		pdf, err := export.PDF(annotated, export.PDFOptions{
			Title:        cfg.Export.Title,
			MarginMM:     cfg.Export.PDFMarginMM,
			FontPt:       cfg.Export.PDFFontPt,
			LineHeightMM: cfg.Export.PDFLineHtMM,
		})
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(outDir, "report.pdf"), pdf, 0o644)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

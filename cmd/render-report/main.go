// cmd/render-report renders an inspection report PDF from a job JSON file
// without a store, a bus or the HTTP server.
//
// Usage:
//
//	./render-report -input job.json
//	./render-report -input job.json -output report.pdf -banner public/report-banner.jpeg
//	./render-report -input job.json -summary   # Show severity counts only
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tendant/simple-inspector/internal/img"
	"github.com/tendant/simple-inspector/internal/job"
	"github.com/tendant/simple-inspector/internal/report"
)

func main() {
	input := flag.String("input", "", "Job JSON file path (required)")
	output := flag.String("output", "", "Output PDF path (default: derived from the customer name)")
	banner := flag.String("banner", "", "Banner image drawn in the report header (optional)")
	summary := flag.Bool("summary", false, "Show severity counts only (don't render)")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Parse()

	if *input == "" {
		fmt.Println("Error: -input flag is required")
		flag.Usage()
		os.Exit(1)
	}

	j, err := loadJob(*input)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	if *verbose {
		fmt.Printf("📄 Input: %s\n", *input)
		fmt.Printf("🔢 File #: %d\n", j.JobCount)
		fmt.Printf("🚗 Car: %s\n", j.CarNumber)
		fmt.Printf("👤 Customer: %s\n", j.CustomerName)
	}

	if *summary {
		printSummary(j)
		return
	}

	var opts report.Options
	if *verbose {
		opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	if *banner != "" {
		b, err := img.LoadBanner(*banner, img.DefaultBoxWidth, img.DefaultBoxHeight)
		if err != nil {
			fmt.Printf("⚠️  Banner skipped: %v\n", err)
		} else {
			opts.Banner = b.PNG
			if *verbose {
				fmt.Printf("🖼️  Banner: %dx%d (source %dx%d)\n", b.Width, b.Height, b.SourceWidth, b.SourceHeight)
			}
		}
	}

	start := time.Now()
	doc, err := report.Render(j, opts)
	if err != nil {
		log.Fatalf("❌ Render failed: %v", err)
	}
	elapsed := time.Since(start)

	if *output == "" {
		*output = doc.Filename
	}
	if dir := filepath.Dir(*output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("❌ Failed to create output directory: %v", err)
		}
	}
	if err := os.WriteFile(*output, doc.Bytes, 0o644); err != nil {
		log.Fatalf("❌ Failed to write report: %v", err)
	}

	fmt.Println("✅ Report rendered successfully!")
	fmt.Printf("📁 Output: %s\n", *output)
	fmt.Printf("📊 Size: %s\n", formatBytes(int64(len(doc.Bytes))))
	fmt.Printf("📄 Pages: %d\n", doc.Pages)
	fmt.Printf("⏱️  Time: %v\n", elapsed.Round(time.Millisecond))
	if *verbose {
		fmt.Printf("🖼️  Banner used: %t\n", doc.BannerUsed)
		printCounts(doc.Summary)
	}
}

// loadJob decodes a job document. A job without tabs gets the blank
// template so the report still lists every check.
func loadJob(path string) (*job.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var j job.Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(j.InspectionTabs) == 0 {
		j.InspectionTabs = job.CloneTabs(job.CanonicalTabs)
	}
	return &j, nil
}

func printSummary(j *job.Job) {
	s := report.Summarize(j)
	fmt.Println("\n📊 Findings:")
	fmt.Println(strings.Repeat("-", 40))
	printCounts(s)
	for _, sec := range report.Group(j) {
		fmt.Printf("\n%s (%d)\n", sec.Title, len(sec.Entries))
		for _, e := range sec.Entries {
			fmt.Printf("  %d. %s: %s\n", e.Number, e.Tab, e.Issue.Label)
		}
	}
	for _, e := range report.Unrecognized(j) {
		fmt.Printf("  ⚠️  unrecognized severity %q: %s: %s\n", e.Issue.Severity, e.Tab, e.Issue.Label)
	}
}

func printCounts(s report.Summary) {
	fmt.Printf("Okay:  %d\n", s.Okay)
	fmt.Printf("Minor: %d\n", s.Minor)
	fmt.Printf("Major: %d\n", s.Major)
	if s.Unrecognized > 0 {
		fmt.Printf("Unrecognized: %d\n", s.Unrecognized)
	}
}

// formatBytes formats bytes into human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

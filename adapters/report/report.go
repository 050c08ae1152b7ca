// Package report renders a summary of the final epoch of each run, first as
// markdown and then as a standalone HTML page.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"confusionflow/domain/measures"
	"confusionflow/internal/errors"
)

// Options control the report header
type Options struct {
	Title     string
	Generated time.Time
}

// Markdown returns the report as markdown
func Markdown(runs []measures.RunMeasures, opts Options) string {
	var b strings.Builder
	title := opts.Title
	if title == "" {
		title = "ConfusionFlow Report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if !opts.Generated.IsZero() {
		fmt.Fprintf(&b, "Generated %s\n\n", opts.Generated.UTC().Format(time.RFC3339))
	}

	b.WriteString("| Run | Epoch | Overall Accuracy | Macro Precision | Macro Recall | Macro F1 |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|\n")
	for _, r := range runs {
		final, ok := r.Final()
		if !ok {
			fmt.Fprintf(&b, "| %s | - | - | - | - | - |\n", cell(string(r.Run)))
			continue
		}
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | %s |\n", cell(string(r.Run)), final.Epoch,
			percent(final.OverallAccuracy), percent(final.MacroPrecision), percent(final.MacroRecall), percent(final.MacroF1))
	}

	for _, r := range runs {
		classes := r.FinalClasses()
		if len(classes) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", r.Run)
		b.WriteString("| Class | Class Size | TP | FP | FN | Precision | Recall | F1 |\n")
		b.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|\n")
		for _, c := range classes {
			fmt.Fprintf(&b, "| %s | %g | %g | %g | %g | %s | %s | %s |\n", cell(c.Class),
				c.ClassSize, c.TP, c.FP, c.FN, percent(c.Precision), percent(c.Recall), percent(c.F1))
		}
	}
	return b.String()
}

// HTML renders the markdown report as a complete HTML page
func HTML(runs []measures.RunMeasures, opts Options) []byte {
	md := Markdown(runs, opts)
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: opts.Title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML([]byte(md), p, renderer)
}

// Write saves the HTML report to path
func Write(path string, runs []measures.RunMeasures, opts Options) error {
	if len(runs) == 0 {
		return errors.InvalidInput("at least one run is required")
	}
	if err := os.WriteFile(path, HTML(runs, opts), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

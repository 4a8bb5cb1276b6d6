// Package report renders a decoding run as a Markdown or HTML summary.
package report

import (
	"fmt"
	"strings"

	"roidecode/domain/decoding"
	"roidecode/domain/run"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const title = "ROI valence decoding"

// Markdown renders the run summary, one table row per ROI in processing order
func Markdown(m *run.Manifest, table *decoding.ResultsTable) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", title)
	if m != nil {
		fmt.Fprintf(&b, "- Run: `%s`\n", m.RunID)
		fmt.Fprintf(&b, "- Fingerprint: `%s`\n", m.Fingerprint.Short())
		fmt.Fprintf(&b, "- Samples: %d from %d subjects\n", m.Samples, m.Subjects)
		fmt.Fprintf(&b, "- Seed: %d\n", m.Seed)
		fmt.Fprintf(&b, "- Code version: %s\n", m.CodeVersion)
		if !m.CreatedAt.IsZero() {
			fmt.Fprintf(&b, "- Created: %s\n", m.CreatedAt.Time().Format("2006-01-02 15:04:05 MST"))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Results\n\n")
	if len(table.Rows) == 0 {
		b.WriteString("No ROI produced a result.\n\n")
	} else {
		fmt.Fprintf(&b, "%d of %d ROIs decode valence above chance.\n\n", table.SignificantCount(), len(table.Rows))
		b.WriteString("| ROI | SVM AUC | Dummy AUC | Difference | t | p | Folds | Significant |\n")
		b.WriteString("|---|---|---|---|---|---|---|---|\n")
		for _, r := range table.Rows {
			sig := ""
			if r.Significant {
				sig = "yes"
			}
			fmt.Fprintf(&b, "| %s | %s ± %s | %s ± %s | %s | %s | %s | %d/%d | %s |\n",
				cell(r.ROIName),
				num(r.SVMAUC), num(r.SVMStd),
				num(r.DummyAUC), num(r.DummyStd),
				num(r.Difference), num(r.TStatistic), pval(r.PValue),
				r.DefinedFolds, r.TotalFolds, sig)
		}
		b.WriteString("\n")
	}

	if len(table.Skipped) > 0 {
		b.WriteString("## Skipped ROIs\n\n")
		for _, s := range table.Skipped {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", s.ROIName, s.Stage, s.Reason)
		}
		b.WriteString("\n")
	}

	var warned []decoding.ROIResult
	for _, r := range table.Rows {
		if len(r.Warnings) > 0 {
			warned = append(warned, r)
		}
	}
	if len(warned) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, r := range warned {
			for _, w := range r.Warnings {
				fmt.Fprintf(&b, "- **%s**: %s\n", r.ROIName, w)
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

// HTML renders the Markdown summary as a standalone HTML page
func HTML(m *run.Manifest, table *decoding.ResultsTable) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: title,
	})
	return markdown.ToHTML([]byte(Markdown(m, table)), p, renderer)
}

func num(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

func pval(v float64) string {
	return fmt.Sprintf("%.4g", v)
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

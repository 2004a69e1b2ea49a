package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/phishscan/internal/model"
)

// MarkdownWriter outputs reports in GitHub Flavored Markdown.
// This format is designed for tickets, incident notes and pull requests.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteDetection outputs the detection in Markdown format.
func (w *MarkdownWriter) WriteDetection(d *model.Detection) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("phishscan Report")
	md.PlainText("")

	rows := [][]string{
		{"URL", "`" + d.URL + "`"},
	}
	if d.FinalURL != "" && d.FinalURL != d.URL {
		rows = append(rows, []string{"Final URL", "`" + d.FinalURL + "`"})
	}
	if d.Domain != "" {
		rows = append(rows, []string{"Domain", "`" + d.Domain + "`"})
	}
	if d.StatusCode != 0 {
		rows = append(rows, []string{"HTTP Status", strconv.Itoa(d.StatusCode)})
	}
	rows = append(rows,
		[]string{"Checked", d.DateChecked.Format(timeFmt)},
		[]string{"Verdict", verdictText(d)},
		[]string{"Decided By", decidedBy(d)},
		[]string{"Phishing Probability", probability(d)},
	)
	if d.ModelFingerprint != "" {
		rows = append(rows, []string{"Model", "`" + shortFingerprint(d.ModelFingerprint) + "`"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeDetectionAlert(md, d)
	w.writeRedirects(md, d)
	w.writeStages(md, d)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs a table with one row per detection.
func (w *MarkdownWriter) WriteSummary(ds []*model.Detection) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H2("Summary")
	md.PlainText("")

	if len(ds) == 0 {
		md.PlainText("No detections.")
		md.PlainText("")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, 0, len(ds))
	for _, d := range ds {
		if d == nil {
			continue
		}
		rows = append(rows, []string{
			"`" + truncateString(d.URL, 60) + "`",
			verdictText(d),
			decidedBy(d),
			d.DateChecked.Format(timeFmt),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Verdict", "Decided By", "Checked"},
		Rows:   rows,
	})
	md.PlainText("")

	phishing := countPhishing(ds)
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Verdicts"),
		piechart.WithShowData(true),
	)
	if phishing > 0 {
		chart.LabelAndIntValue("Phishing", uint64(phishing))
	}
	if legit := len(rows) - phishing; legit > 0 {
		chart.LabelAndIntValue("Legitimate", uint64(legit))
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")

	return len(md.String()), md.Build()
}

// WriteEvaluation outputs the evaluation in Markdown format.
func (w *MarkdownWriter) WriteEvaluation(e *model.Evaluation) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("phishscan Model Evaluation")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Training Size", strconv.Itoa(e.TrainSize)},
			{"Test Size", strconv.Itoa(e.TestSize)},
			{"Test Fraction", strconv.FormatFloat(e.TestFraction, 'f', -1, 64)},
			{"Seed", strconv.FormatUint(e.Seed, 10)},
			{"Vocabulary", strconv.Itoa(e.Vocabulary)},
			{"Fingerprint", "`" + e.Fingerprint + "`"},
			{"Accuracy", percent(e.Accuracy)},
			{"Macro F1", fmt.Sprintf("%.3f", e.MacroF1)},
		},
	})
	md.PlainText("")

	md.H2("Per-Label Metrics")
	md.PlainText("")
	rows := make([][]string, len(e.Labels))
	for i, m := range e.Labels {
		rows[i] = []string{
			m.Label.String(),
			fmt.Sprintf("%.3f", m.Precision),
			fmt.Sprintf("%.3f", m.Recall),
			fmt.Sprintf("%.3f", m.F1),
			strconv.Itoa(m.Support),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Label", "Precision", "Recall", "F1", "Support"},
		Rows:   rows,
	})
	md.PlainText("")

	missed := e.Misclassified()
	if len(missed) == 0 {
		md.Tip("Every held-out URL was classified correctly.")
		md.PlainText("")
	} else {
		md.Warningf("%d of %d held-out URL(s) were misclassified.", len(missed), e.TestSize)
		md.PlainText("")
		md.H2("Misclassified")
		md.PlainText("")
		missRows := make([][]string, len(missed))
		for i, p := range missed {
			missRows[i] = []string{"`" + p.URL + "`", p.Want.String(), p.Got.String()}
		}
		md.Table(markdown.TableSet{
			Header: []string{"URL", "Expected", "Predicted"},
			Rows:   missRows,
		})
		md.PlainText("")
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writeDetectionAlert writes a GitHub alert matching the verdict.
func (w *MarkdownWriter) writeDetectionAlert(md *markdown.Markdown, d *model.Detection) {
	switch {
	case d.DecidedBy == "" || d.DecidedBy == model.StageResolve:
		md.Importantf("The URL could not be checked; the resolution failure policy returned %s.", d.Verdict())
	case d.Phishing:
		md.Cautionf("Phishing detected by the %s stage. Do not open this URL.", d.DecidedBy)
	default:
		md.Tip("No phishing indicators found.")
	}
	md.PlainText("")
}

// writeRedirects writes the redirect chain followed during resolution.
func (w *MarkdownWriter) writeRedirects(md *markdown.Markdown, d *model.Detection) {
	if len(d.Hops) == 0 {
		return
	}

	md.H2("Redirects")
	md.PlainText("")
	hops := make([]string, len(d.Hops))
	for i, h := range d.Hops {
		hops[i] = "`" + h + "`"
	}
	md.BulletList(hops...)
	md.PlainText("")
}

// writeStages writes a table of stage outcomes.
func (w *MarkdownWriter) writeStages(md *markdown.Markdown, d *model.Detection) {
	md.H2("Stages")
	md.PlainText("")

	rows := make([][]string, len(d.Stages))
	for i, s := range d.Stages {
		detail := s.Detail
		if detail == "" {
			detail = "-"
		}
		rows[i] = []string{
			string(s.Stage),
			outcomeText(s.Outcome),
			truncateString(detail, 60),
			s.Elapsed.String(),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Stage", "Outcome", "Detail", "Elapsed"},
		Rows:   rows,
	})
	md.PlainText("")

	if d.Error != "" {
		md.Details("Error", d.Error)
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [phishscan](https://github.com/nao1215/phishscan)*")
}

func verdictText(d *model.Detection) string {
	if d.Phishing {
		return "🔴 PHISHING"
	}
	return "🟢 LEGITIMATE"
}

func outcomeText(o model.Outcome) string {
	switch o {
	case model.OutcomeHit:
		return "🔴 hit"
	case model.OutcomeFailed:
		return "❌ failed"
	case model.OutcomePass:
		return "✅ pass"
	default:
		return "⚪ " + string(o)
	}
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

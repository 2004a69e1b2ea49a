package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/phishscan/internal/model"
)

const (
	ruleWidth = 70
	timeFmt   = "2006-01-02 15:04:05 MST"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display and plain ASCII so it can be
// piped to files or other tools.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no content are shown.
	showEmpty bool

	// verbose adds per-stage timings and the full model fingerprint.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteDetection outputs the detection in human-readable format.
func (w *SimpleWriter) WriteDetection(d *model.Detection) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb, "PHISHSCAN REPORT")
	w.writeDetectionHeader(&sb, d)
	w.writeRedirects(&sb, d)
	w.writeStages(&sb, d)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteSummary outputs one line per detection followed by totals.
func (w *SimpleWriter) WriteSummary(ds []*model.Detection) (int, error) {
	var sb strings.Builder

	w.writeSection(&sb, "SUMMARY")
	if len(ds) == 0 {
		sb.WriteString("  No detections\n\n")
		return w.output.Write([]byte(sb.String()))
	}

	for _, d := range ds {
		if d == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %-10s  %-10s  %s\n", d.Verdict(), decidedBy(d), d.URL))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  PHISHING:   %d\n", countPhishing(ds)))
	sb.WriteString(fmt.Sprintf("  TOTAL:      %d URLs\n", len(ds)))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// WriteEvaluation outputs the evaluation in human-readable format.
func (w *SimpleWriter) WriteEvaluation(e *model.Evaluation) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb, "PHISHSCAN MODEL EVALUATION")
	sb.WriteString(fmt.Sprintf("Training Size:  %d\n", e.TrainSize))
	sb.WriteString(fmt.Sprintf("Test Size:      %d (fraction %.2f, seed %d)\n", e.TestSize, e.TestFraction, e.Seed))
	sb.WriteString(fmt.Sprintf("Vocabulary:     %d tokens\n", e.Vocabulary))
	sb.WriteString(fmt.Sprintf("Fingerprint:    %s\n", e.Fingerprint))
	sb.WriteString(fmt.Sprintf("Accuracy:       %s\n", percent(e.Accuracy)))
	sb.WriteString(fmt.Sprintf("Macro F1:       %.3f\n", e.MacroF1))
	sb.WriteString("\n")

	w.writeSection(&sb, "PER-LABEL METRICS")
	sb.WriteString(fmt.Sprintf("  %-12s %9s %9s %9s %8s\n", "LABEL", "PRECISION", "RECALL", "F1", "SUPPORT"))
	for _, m := range e.Labels {
		sb.WriteString(fmt.Sprintf("  %-12s %9.3f %9.3f %9.3f %8d\n", m.Label, m.Precision, m.Recall, m.F1, m.Support))
	}
	sb.WriteString("\n")

	missed := e.Misclassified()
	if len(missed) > 0 || w.showEmpty {
		w.writeSection(&sb, "MISCLASSIFIED")
		if len(missed) == 0 {
			sb.WriteString("  None\n")
		}
		for _, p := range missed {
			sb.WriteString(fmt.Sprintf("  [!] %s (want %s, got %s)\n", p.URL, p.Want, p.Got))
		}
		sb.WriteString("\n")
	}

	w.writeFooter(&sb)
	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeBanner(sb *strings.Builder, title string) {
	pad := (ruleWidth - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(" ", pad) + title + "\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

// writeDetectionHeader writes the verdict and URL details.
func (w *SimpleWriter) writeDetectionHeader(sb *strings.Builder, d *model.Detection) {
	sb.WriteString(fmt.Sprintf("URL:            %s\n", d.URL))
	if d.FinalURL != "" && d.FinalURL != d.URL {
		sb.WriteString(fmt.Sprintf("Final URL:      %s\n", d.FinalURL))
	}
	if d.Domain != "" {
		sb.WriteString(fmt.Sprintf("Domain:         %s\n", d.Domain))
	}
	if d.StatusCode != 0 {
		sb.WriteString(fmt.Sprintf("HTTP Status:    %d\n", d.StatusCode))
	}
	sb.WriteString(fmt.Sprintf("Checked:        %s\n", d.DateChecked.Format(timeFmt)))
	sb.WriteString(fmt.Sprintf("Verdict:        %s\n", d.Verdict()))
	sb.WriteString(fmt.Sprintf("Decided By:     %s\n", decidedBy(d)))
	sb.WriteString(fmt.Sprintf("Probability:    %s\n", probability(d)))
	if d.ModelFingerprint != "" {
		fp := shortFingerprint(d.ModelFingerprint)
		if w.verbose {
			fp = d.ModelFingerprint
		}
		sb.WriteString(fmt.Sprintf("Model:          %s\n", fp))
	}
	if d.Error != "" {
		sb.WriteString(fmt.Sprintf("Error:          %s\n", d.Error))
	}
	sb.WriteString("\n")
}

// writeRedirects writes the redirect chain followed during resolution.
func (w *SimpleWriter) writeRedirects(sb *strings.Builder, d *model.Detection) {
	if len(d.Hops) == 0 && !w.showEmpty {
		return
	}

	w.writeSection(sb, "REDIRECTS")
	if len(d.Hops) == 0 {
		sb.WriteString("  No redirects\n\n")
		return
	}
	for i, hop := range d.Hops {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, hop))
	}
	sb.WriteString("\n")
}

// writeStages writes the outcome of every pipeline stage.
func (w *SimpleWriter) writeStages(sb *strings.Builder, d *model.Detection) {
	w.writeSection(sb, "STAGES")

	for _, s := range d.Stages {
		line := fmt.Sprintf("  [%s] %-10s %-7s", stageIndicator(s.Outcome), s.Stage, s.Outcome)
		if s.Detail != "" {
			line += " " + s.Detail
		}
		if w.verbose && s.Outcome != model.OutcomeSkipped {
			line += fmt.Sprintf(" (%s)", s.Elapsed)
		}
		sb.WriteString(strings.TrimRight(line, " ") + "\n")
	}
	sb.WriteString("\n")
}

// stageIndicator returns a visual indicator for a stage outcome.
func stageIndicator(o model.Outcome) string {
	switch o {
	case model.OutcomeHit:
		return "!!"
	case model.OutcomeFailed:
		return "x"
	case model.OutcomePass:
		return "+"
	case model.OutcomeSkipped:
		return "-"
	default:
		return "?"
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by phishscan\n")
	sb.WriteString("https://github.com/nao1215/phishscan\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}

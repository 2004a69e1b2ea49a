package report

import (
	"fmt"
	"io"

	"github.com/nao1215/phishscan/internal/model"
)

// Writer defines the interface for report output.
// Implementations write detections and evaluations in various formats.
type Writer interface {
	// WriteDetection outputs the report for a single URL check.
	// Returns the number of bytes written and any error encountered.
	WriteDetection(d *model.Detection) (int, error)

	// WriteSummary outputs a one-line-per-URL overview of several detections.
	// It is used after batch checks and for stored history.
	WriteSummary(ds []*model.Detection) (int, error)

	// WriteEvaluation outputs the held-out evaluation of a trained model.
	WriteEvaluation(e *model.Evaluation) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteDetection outputs the detection to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) WriteDetection(d *model.Detection) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteDetection(d) })
}

// WriteSummary outputs the summary to all configured Writers.
func (m *MultiWriter) WriteSummary(ds []*model.Detection) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteSummary(ds) })
}

// WriteEvaluation outputs the evaluation to all configured Writers.
func (m *MultiWriter) WriteEvaluation(e *model.Evaluation) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteEvaluation(e) })
}

func (m *MultiWriter) each(write func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := write(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// decidedBy describes which stage produced the verdict.
// An empty stage means the failure policy was applied.
func decidedBy(d *model.Detection) string {
	if d.DecidedBy == "" {
		return "failure policy"
	}
	return string(d.DecidedBy)
}

// probability formats the classifier probability, or "-" when the
// classifier did not run.
func probability(d *model.Detection) string {
	if d.PhishingProbability == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", *d.PhishingProbability*100)
}

// percent formats a ratio in [0, 1].
func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// shortFingerprint returns the first 12 hex digits of a model fingerprint.
func shortFingerprint(fp string) string {
	if len(fp) <= 12 {
		return fp
	}
	return fp[:12]
}

// countPhishing returns the number of detections with a phishing verdict.
func countPhishing(ds []*model.Detection) int {
	n := 0
	for _, d := range ds {
		if d != nil && d.Phishing {
			n++
		}
	}
	return n
}

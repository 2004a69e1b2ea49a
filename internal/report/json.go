package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/phishscan/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteDetection outputs the detection in JSON format.
func (w *JSONWriter) WriteDetection(d *model.Detection) (int, error) {
	return w.writeJSON(d)
}

// WriteSummary outputs the detections as a JSON array.
func (w *JSONWriter) WriteSummary(ds []*model.Detection) (int, error) {
	if ds == nil {
		ds = []*model.Detection{}
	}
	return w.writeJSON(ds)
}

// WriteEvaluation outputs the evaluation in JSON format.
func (w *JSONWriter) WriteEvaluation(e *model.Evaluation) (int, error) {
	return w.writeJSON(e)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport wraps report data with the phishscan version that produced it.
// Exactly one of Detection, Detections and Evaluation is set.
type JSONReport struct {
	// Version is the phishscan version that generated this report.
	Version string `json:"version"`

	Detection  *model.Detection   `json:"detection,omitempty"`
	Detections []*model.Detection `json:"detections,omitempty"`
	Evaluation *model.Evaluation  `json:"evaluation,omitempty"`
}

// FullJSONWriter outputs reports wrapped in a JSONReport.
type FullJSONWriter struct {
	*JSONWriter

	// version is the phishscan version string.
	version string
}

// NewFullJSONWriter creates a writer for reports with version metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// WriteDetection outputs the detection wrapped with metadata.
func (w *FullJSONWriter) WriteDetection(d *model.Detection) (int, error) {
	return w.writeJSON(&JSONReport{Version: w.version, Detection: d})
}

// WriteSummary outputs the detections wrapped with metadata.
func (w *FullJSONWriter) WriteSummary(ds []*model.Detection) (int, error) {
	return w.writeJSON(&JSONReport{Version: w.version, Detections: ds})
}

// WriteEvaluation outputs the evaluation wrapped with metadata.
func (w *FullJSONWriter) WriteEvaluation(e *model.Evaluation) (int, error) {
	return w.writeJSON(&JSONReport{Version: w.version, Evaluation: e})
}

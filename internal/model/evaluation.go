package model

// LabelMetrics holds per-label precision, recall and F1 on a test split.
type LabelMetrics struct {
	Label     Label   `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Prediction pairs a test URL with its expected and predicted labels.
type Prediction struct {
	URL  string `json:"url"`
	Want Label  `json:"want"`
	Got  Label  `json:"got"`
}

// Correct reports whether the prediction matches the expected label.
func (p Prediction) Correct() bool {
	return p.Want == p.Got
}

// Evaluation is the held-out quality report of a classifier.
// It is diagnostic output only and never influences a verdict.
type Evaluation struct {
	Labels       []LabelMetrics `json:"labels"`
	Accuracy     float64        `json:"accuracy"`
	MacroF1      float64        `json:"macro_f1"`
	TrainSize    int            `json:"train_size"`
	TestSize     int            `json:"test_size"`
	TestFraction float64        `json:"test_fraction"`
	Seed         uint64         `json:"seed"`
	Vocabulary   int            `json:"vocabulary_size"`
	Fingerprint  string         `json:"model_fingerprint"`
	Predictions  []Prediction   `json:"predictions"`
}

// Metrics returns the metrics for label l.
func (e *Evaluation) Metrics(l Label) (LabelMetrics, bool) {
	for _, m := range e.Labels {
		if m.Label == l {
			return m, true
		}
	}
	return LabelMetrics{}, false
}

// Misclassified returns the predictions that did not match.
func (e *Evaluation) Misclassified() []Prediction {
	var out []Prediction
	for _, p := range e.Predictions {
		if !p.Correct() {
			out = append(out, p)
		}
	}
	return out
}

package model

import "fmt"

// Label is the class a URL is assigned to by the classifier.
type Label string

const (
	// LabelPhishing marks a URL as a phishing attempt.
	LabelPhishing Label = "phishing"
	// LabelLegitimate marks a URL as benign.
	LabelLegitimate Label = "legitimate"
)

// Labels returns every known label in reporting order.
// Phishing comes first because ties in the classifier resolve to it.
func Labels() []Label {
	return []Label{LabelPhishing, LabelLegitimate}
}

// Valid reports whether l is one of the known labels.
func (l Label) Valid() bool {
	return l == LabelPhishing || l == LabelLegitimate
}

// String returns the label text.
func (l Label) String() string {
	return string(l)
}

// ParseLabel converts text into a Label.
// It also accepts the integer encoding used by some corpora ("1" for phishing, "0" for legitimate).
func ParseLabel(s string) (Label, error) {
	switch s {
	case "phishing", "1":
		return LabelPhishing, nil
	case "legitimate", "0":
		return LabelLegitimate, nil
	default:
		return "", fmt.Errorf("unknown label %q", s)
	}
}

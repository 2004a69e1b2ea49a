package classifier

import (
	"fmt"
	"math"

	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/textfeat"
)

// DefaultAlpha is Laplace smoothing.
const DefaultAlpha = 1.0

// Option configures Fit.
type Option func(*options)

type options struct {
	alpha float64
}

// WithAlpha sets the additive smoothing parameter.
func WithAlpha(alpha float64) Option {
	return func(o *options) {
		o.alpha = alpha
	}
}

// classStats holds the fitted parameters of one class.
type classStats struct {
	label       model.Label
	docs        int
	tokenCounts []int
	total       int
	logPrior    float64
	logProb     []float64
}

// Model is a fitted multinomial naive Bayes classifier.
type Model struct {
	alpha   float64
	width   int
	classes []*classStats
}

// Fit trains a Model on parallel slices of feature vectors and labels.
func Fit(features []textfeat.Vector, labels []model.Label, opts ...Option) (*Model, error) {
	o := options{alpha: DefaultAlpha}
	for _, opt := range opts {
		opt(&o)
	}
	if !(o.alpha > 0) || math.IsInf(o.alpha, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAlpha, o.alpha)
	}
	if len(features) != len(labels) {
		return nil, fmt.Errorf("%w: %d vectors, %d labels", ErrLengthMismatch, len(features), len(labels))
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: no examples", ErrDegenerateTrainingSet)
	}

	width := len(features[0])
	m := &Model{alpha: o.alpha, width: width}
	byLabel := make(map[model.Label]*classStats, 2)
	for _, l := range model.Labels() {
		cs := &classStats{label: l, tokenCounts: make([]int, width)}
		byLabel[l] = cs
		m.classes = append(m.classes, cs)
	}

	for i, x := range features {
		if len(x) != width {
			return nil, fmt.Errorf("%w: vector %d has width %d, want %d", ErrInconsistentWidth, i, len(x), width)
		}
		cs, ok := byLabel[labels[i]]
		if !ok {
			return nil, fmt.Errorf("%w %q at index %d", ErrUnknownLabel, labels[i], i)
		}
		cs.docs++
		for j, c := range x {
			cs.tokenCounts[j] += c
			cs.total += c
		}
	}

	for _, cs := range m.classes {
		if cs.docs == 0 {
			return nil, fmt.Errorf("%w: no %s examples", ErrDegenerateTrainingSet, cs.label)
		}
	}

	n := float64(len(features))
	denomExtra := o.alpha * float64(width)
	for _, cs := range m.classes {
		cs.logPrior = math.Log(float64(cs.docs) / n)
		cs.logProb = make([]float64, width)
		denom := math.Log(float64(cs.total) + denomExtra)
		for j, c := range cs.tokenCounts {
			cs.logProb[j] = math.Log(float64(c)+o.alpha) - denom
		}
	}
	return m, nil
}

// jointLogLikelihood returns the unnormalized log posterior of every class.
// Columns beyond the fitted width are ignored; missing columns count as zero.
func (m *Model) jointLogLikelihood(x textfeat.Vector) []float64 {
	n := len(x)
	if n > m.width {
		n = m.width
	}
	scores := make([]float64, len(m.classes))
	for i, cs := range m.classes {
		s := cs.logPrior
		for j := 0; j < n; j++ {
			if x[j] != 0 {
				s += float64(x[j]) * cs.logProb[j]
			}
		}
		scores[i] = s
	}
	return scores
}

// Predict returns the most likely label for x. Ties resolve to phishing.
func (m *Model) Predict(x textfeat.Vector) model.Label {
	scores := m.jointLogLikelihood(x)
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return m.classes[best].label
}

// PredictProba returns the posterior probability that x is phishing.
func (m *Model) PredictProba(x textfeat.Vector) float64 {
	scores := m.jointLogLikelihood(x)
	maxScore := math.Inf(-1)
	for _, s := range scores {
		maxScore = math.Max(maxScore, s)
	}
	var sum, phishing float64
	for i, s := range scores {
		p := math.Exp(s - maxScore)
		sum += p
		if m.classes[i].label == model.LabelPhishing {
			phishing = p
		}
	}
	return phishing / sum
}

// PredictAll returns Predict for every vector.
func (m *Model) PredictAll(xs []textfeat.Vector) []model.Label {
	out := make([]model.Label, len(xs))
	for i, x := range xs {
		out[i] = m.Predict(x)
	}
	return out
}

// Alpha returns the smoothing parameter.
func (m *Model) Alpha() float64 { return m.alpha }

// Width returns the fitted vector width.
func (m *Model) Width() int { return m.width }

// Documents returns the number of training examples of label l.
func (m *Model) Documents(l model.Label) int {
	if cs := m.class(l); cs != nil {
		return cs.docs
	}
	return 0
}

// TokenCounts returns a copy of the per-token counts of label l.
func (m *Model) TokenCounts(l model.Label) []int {
	if cs := m.class(l); cs != nil {
		return append([]int(nil), cs.tokenCounts...)
	}
	return nil
}

func (m *Model) class(l model.Label) *classStats {
	for _, cs := range m.classes {
		if cs.label == l {
			return cs
		}
	}
	return nil
}

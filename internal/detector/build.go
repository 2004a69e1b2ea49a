package detector

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/nao1215/phishscan/internal/classifier"
	"github.com/nao1215/phishscan/internal/corpus"
	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/textfeat"
)

// Model is a fitted vocabulary and classifier pair.
type Model struct {
	Vocabulary  *textfeat.Vocabulary
	Classifier  *classifier.Model
	Fingerprint string
	// Examples is the number of training examples.
	Examples int
}

// Build fits the vocabulary and classifier on every example.
// It fails with classifier.ErrDegenerateTrainingSet unless both labels are present.
func Build(examples []corpus.Example, opts ...classifier.Option) (*Model, error) {
	vocab, err := textfeat.Fit(corpus.URLs(examples))
	if err != nil {
		return nil, fmt.Errorf("failed to fit vocabulary: %w", err)
	}
	return fit(vocab, examples, opts...)
}

// fit trains a classifier on examples over an already fitted vocabulary.
func fit(vocab *textfeat.Vocabulary, examples []corpus.Example, opts ...classifier.Option) (*Model, error) {
	clf, err := classifier.Fit(vocab.TransformAll(corpus.URLs(examples)), corpus.Labels(examples), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to fit classifier: %w", err)
	}

	return &Model{
		Vocabulary:  vocab,
		Classifier:  clf,
		Fingerprint: Fingerprint(vocab, clf),
		Examples:    len(examples),
	}, nil
}

// Evaluate splits examples, fits a fresh classifier on the training part
// and scores it on the held-out part. The vocabulary is fitted on every
// example before the split, so held-out tokens keep their columns. It never
// affects the detection model.
func Evaluate(examples []corpus.Example, testFraction float64, seed uint64, opts ...classifier.Option) (*model.Evaluation, error) {
	train, test, err := corpus.Split(examples, testFraction, seed)
	if err != nil {
		return nil, err
	}
	vocab, err := textfeat.Fit(corpus.URLs(examples))
	if err != nil {
		return nil, fmt.Errorf("failed to fit vocabulary: %w", err)
	}
	m, err := fit(vocab, train, opts...)
	if err != nil {
		return nil, err
	}

	want := corpus.Labels(test)
	got := m.Classifier.PredictAll(m.Vocabulary.TransformAll(corpus.URLs(test)))

	eval, err := classifier.Score(want, got)
	if err != nil {
		return nil, err
	}
	eval.TrainSize = len(train)
	eval.TestSize = len(test)
	eval.TestFraction = testFraction
	eval.Seed = seed
	eval.Vocabulary = m.Vocabulary.Size()
	eval.Fingerprint = m.Fingerprint
	for i, e := range test {
		eval.Predictions = append(eval.Predictions, model.Prediction{URL: e.URL, Want: want[i], Got: got[i]})
	}
	return eval, nil
}

// Fingerprint digests the vocabulary and per-class statistics with SHA3-256.
// Two models fitted on the same corpus with the same options share a fingerprint.
func Fingerprint(vocab *textfeat.Vocabulary, clf *classifier.Model) string {
	h := sha3.New256()
	var buf [8]byte

	writeInt := func(n int) {
		binary.BigEndian.PutUint64(buf[:], uint64(n)) //nolint:gosec // counts are non-negative
		h.Write(buf[:])
	}

	for _, tok := range vocab.Tokens() {
		writeInt(len(tok))
		h.Write([]byte(tok))
	}
	fmt.Fprintf(h, "alpha=%g", clf.Alpha())
	for _, l := range model.Labels() {
		h.Write([]byte(l))
		writeInt(clf.Documents(l))
		for _, c := range clf.TokenCounts(l) {
			writeInt(c)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

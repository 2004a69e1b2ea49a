package corpus

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/nao1215/phishscan/internal/model"
)

var (
	// ErrInvalidCorpus is returned when a corpus file fails validation.
	ErrInvalidCorpus = errors.New("invalid corpus")

	// ErrInvalidTestFraction is returned when the test fraction is outside (0, 1).
	ErrInvalidTestFraction = errors.New("test fraction must be between 0 and 1 exclusive")

	// ErrCorpusTooSmall is returned when a corpus cannot be split into two non-empty parts.
	ErrCorpusTooSmall = errors.New("corpus needs at least two examples to split")
)

const (
	// DefaultTestFraction is the share of examples held out for evaluation.
	DefaultTestFraction = 0.2
	// DefaultSeed seeds the evaluation shuffle.
	DefaultSeed uint64 = 42
)

// Example is one labelled URL.
type Example struct {
	URL   string      `yaml:"url" json:"url" validate:"required"`
	Label model.Label `yaml:"label" json:"label" validate:"required,oneof=phishing legitimate"`
}

// File is the on-disk corpus layout.
type File struct {
	Examples []Example `yaml:"examples" validate:"required,min=1,dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Sample returns the built-in training corpus.
func Sample() []Example {
	return []Example{
		{URL: "http://example.com/login", Label: model.LabelPhishing},
		{URL: "http://secure.example.com/verify", Label: model.LabelPhishing},
		{URL: "http://examplebank.com/account", Label: model.LabelPhishing},
		{URL: "http://trustedsite.com/home", Label: model.LabelLegitimate},
		{URL: "http://example.com/shop", Label: model.LabelLegitimate},
		{URL: "http://online.example.com", Label: model.LabelLegitimate},
	}
}

// Parse decodes and validates a YAML corpus.
func Parse(data []byte) ([]Example, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCorpus, err)
	}
	if err := validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCorpus, err)
	}
	return f.Examples, nil
}

// Load reads and validates the YAML corpus at path.
func Load(path string) ([]Example, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file %s: %w", path, err)
	}
	examples, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return examples, nil
}

// URLs returns the URL of every example.
func URLs(examples []Example) []string {
	out := make([]string, len(examples))
	for i, e := range examples {
		out[i] = e.URL
	}
	return out
}

// Labels returns the label of every example.
func Labels(examples []Example) []model.Label {
	out := make([]model.Label, len(examples))
	for i, e := range examples {
		out[i] = e.Label
	}
	return out
}

// Split shuffles examples with a seeded generator and holds out
// ceil(testFraction*n) of them as the test set. Both partitions are always
// non-empty. The same seed and input always give the same split.
func Split(examples []Example, testFraction float64, seed uint64) (train, test []Example, err error) {
	if !(testFraction > 0 && testFraction < 1) {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidTestFraction, testFraction)
	}
	n := len(examples)
	if n < 2 {
		return nil, nil, fmt.Errorf("%w: got %d", ErrCorpusTooSmall, n)
	}

	nTest := int(math.Ceil(testFraction * float64(n)))
	nTest = min(max(nTest, 1), n-1)

	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(n)

	test = make([]Example, 0, nTest)
	train = make([]Example, 0, n-nTest)
	for i, idx := range perm {
		if i < nTest {
			test = append(test, examples[idx])
		} else {
			train = append(train, examples[idx])
		}
	}
	return train, test, nil
}

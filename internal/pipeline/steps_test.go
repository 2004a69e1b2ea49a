package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/phishscan/internal/denylist"
	"github.com/nao1215/phishscan/internal/heuristic"
	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/resolver"
	"github.com/nao1215/phishscan/internal/textfeat"
)

// fixedClassifier always returns the same label.
type fixedClassifier struct {
	label model.Label
	proba float64
	calls int
}

func (c *fixedClassifier) Predict(textfeat.Vector) model.Label {
	c.calls++
	return c.label
}

func (c *fixedClassifier) PredictProba(textfeat.Vector) float64 {
	return c.proba
}

// nullVectorizer returns an empty vector.
type nullVectorizer struct{}

func (nullVectorizer) Transform(string) textfeat.Vector { return nil }

func resolvedDetection(finalURL string) *model.Detection {
	d := model.NewDetection(finalURL)
	d.FinalURL = finalURL
	return d
}

func TestResolveStep(t *testing.T) {
	t.Parallel()

	t.Run("records resolution", func(t *testing.T) {
		t.Parallel()

		r := resolver.Func(func(_ context.Context, _ string) (*resolver.Resolution, error) {
			return &resolver.Resolution{
				FinalURL:   "https://www.Example.com/home",
				StatusCode: 200,
				Hops:       []string{"http://short.example/x", "https://www.Example.com/home"},
			}, nil
		})
		step := NewResolveStep(r, model.FailOpen, nil)
		d := model.NewDetection("http://short.example/x")

		if err := step.Do(context.Background(), d); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Decided() {
			t.Error("successful resolution must not decide")
		}
		if d.FinalURL != "https://www.Example.com/home" || d.StatusCode != 200 || len(d.Hops) != 2 {
			t.Errorf("unexpected detection %+v", d)
		}
		if d.Domain != "example.com" {
			t.Errorf("Domain = %q, want example.com", d.Domain)
		}
		if r, _ := d.Stage(model.StageResolve); r.Outcome != model.OutcomePass {
			t.Errorf("outcome = %q", r.Outcome)
		}
	})

	failing := resolver.Func(func(_ context.Context, _ string) (*resolver.Resolution, error) {
		return nil, resolver.ErrResolution
	})

	testCases := []struct {
		policy model.FailurePolicy
		want   bool
	}{
		{model.FailOpen, false},
		{model.FailClosed, true},
	}
	for _, tc := range testCases {
		t.Run("failure with policy "+string(tc.policy), func(t *testing.T) {
			t.Parallel()

			step := NewResolveStep(failing, tc.policy, nil)
			d := model.NewDetection("http://unreachable.example")
			if err := step.Do(context.Background(), d); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !d.Decided() || d.DecidedBy != model.StageResolve {
				t.Fatalf("expected decision by resolve stage, got %q", d.DecidedBy)
			}
			if d.Phishing != tc.want {
				t.Errorf("Phishing = %v, want %v", d.Phishing, tc.want)
			}
			if r, _ := d.Stage(model.StageResolve); r.Outcome != model.OutcomeFailed {
				t.Errorf("outcome = %q, want failed", r.Outcome)
			}
		})
	}
}

func TestDenylistStep(t *testing.T) {
	t.Parallel()

	step := NewDenylistStep(denylist.New("badwebsite1.com"))

	testCases := []struct {
		name     string
		finalURL string
		want     bool
	}{
		{"normalized host matches", "http://WWW.BadWebsite1.COM/path", true},
		{"other host passes", "http://example.com", false},
		{"no host passes", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d := resolvedDetection(tc.finalURL)
			if err := step.Do(context.Background(), d); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.Decided() != tc.want {
				t.Errorf("Decided() = %v, want %v", d.Decided(), tc.want)
			}
			if tc.want && (!d.Phishing || d.DecidedBy != model.StageDenylist) {
				t.Errorf("expected phishing verdict from denylist, got %v by %q", d.Phishing, d.DecidedBy)
			}
		})
	}
}

func TestHeuristicStep(t *testing.T) {
	t.Parallel()

	patterns := heuristic.MustNew("secure", "login", "account", "verify", "update", "signin")

	t.Run("standalone match decides phishing", func(t *testing.T) {
		t.Parallel()

		clf := &fixedClassifier{label: model.LabelLegitimate}
		step := NewHeuristicStep(patterns, model.HeuristicStandalone, nullVectorizer{}, clf)
		d := resolvedDetection("http://examplebank.com/account")

		if err := step.Do(context.Background(), d); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !d.Phishing || d.DecidedBy != model.StageHeuristic {
			t.Errorf("verdict = %v by %q", d.Phishing, d.DecidedBy)
		}
		if clf.calls != 0 {
			t.Error("standalone mode must not consult the classifier")
		}
	})

	t.Run("no match passes", func(t *testing.T) {
		t.Parallel()

		step := NewHeuristicStep(patterns, model.HeuristicStandalone, nil, nil)
		d := resolvedDetection("http://trustedsite.com/home")
		if err := step.Do(context.Background(), d); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Decided() {
			t.Error("expected undecided")
		}
	})

	t.Run("corroborated match decides phishing", func(t *testing.T) {
		t.Parallel()

		step := NewHeuristicStep(patterns, model.HeuristicCorroborate, nullVectorizer{}, &fixedClassifier{label: model.LabelPhishing})
		d := resolvedDetection("http://examplebank.com/account")
		if err := step.Do(context.Background(), d); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !d.Phishing || d.DecidedBy != model.StageHeuristic {
			t.Errorf("verdict = %v by %q", d.Phishing, d.DecidedBy)
		}
	})

	t.Run("uncorroborated match defers", func(t *testing.T) {
		t.Parallel()

		step := NewHeuristicStep(patterns, model.HeuristicCorroborate, nullVectorizer{}, &fixedClassifier{label: model.LabelLegitimate})
		d := resolvedDetection("http://examplebank.com/account")
		if err := step.Do(context.Background(), d); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Decided() {
			t.Error("uncorroborated match must not decide")
		}
		if r, _ := d.Stage(model.StageHeuristic); r.Detail == "" {
			t.Error("expected detail explaining the deferred match")
		}
	})

	t.Run("corroborate without classifier", func(t *testing.T) {
		t.Parallel()

		step := NewHeuristicStep(patterns, model.HeuristicCorroborate, nil, nil)
		err := step.Do(context.Background(), resolvedDetection("http://example.com/login"))
		if !errors.Is(err, ErrMissingClassifier) {
			t.Errorf("expected ErrMissingClassifier, got %v", err)
		}
	})
}

func TestClassifierStep(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		label   model.Label
		want    bool
		outcome model.Outcome
	}{
		{model.LabelPhishing, true, model.OutcomeHit},
		{model.LabelLegitimate, false, model.OutcomePass},
	}

	for _, tc := range testCases {
		t.Run(string(tc.label), func(t *testing.T) {
			t.Parallel()

			step := NewClassifierStep(nullVectorizer{}, &fixedClassifier{label: tc.label, proba: 0.25}, "abc123")
			d := resolvedDetection("http://example.com")
			if err := step.Do(context.Background(), d); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.Phishing != tc.want || d.DecidedBy != model.StageClassifier {
				t.Errorf("verdict = %v by %q", d.Phishing, d.DecidedBy)
			}
			if d.PhishingProbability == nil || *d.PhishingProbability != 0.25 {
				t.Errorf("PhishingProbability = %v", d.PhishingProbability)
			}
			if d.ModelFingerprint != "abc123" {
				t.Errorf("ModelFingerprint = %q", d.ModelFingerprint)
			}
			if r, _ := d.Stage(model.StageClassifier); r.Outcome != tc.outcome {
				t.Errorf("outcome = %q, want %q", r.Outcome, tc.outcome)
			}
		})
	}
}

func TestStepNames(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddSteps(
		NewResolveStep(resolver.Offline{}, model.FailOpen, nil),
		NewDenylistStep(nil),
		NewHeuristicStep(nil, model.HeuristicStandalone, nil, nil),
		NewClassifierStep(nil, nil, ""),
	)
	want := []string{"resolve", "denylist", "heuristic", "classifier"}
	for i, name := range p.StepNames() {
		if name != want[i] {
			t.Errorf("step %d = %q, want %q", i, name, want[i])
		}
	}
}

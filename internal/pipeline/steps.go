package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/phishscan/internal/denylist"
	"github.com/nao1215/phishscan/internal/domain"
	"github.com/nao1215/phishscan/internal/heuristic"
	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/resolver"
	"github.com/nao1215/phishscan/internal/textfeat"
)

// Vectorizer maps a URL to a feature vector.
type Vectorizer interface {
	Transform(s string) textfeat.Vector
}

// Classifier labels feature vectors.
type Classifier interface {
	Predict(x textfeat.Vector) model.Label
	PredictProba(x textfeat.Vector) float64
}

// target returns the URL later stages inspect: the resolved URL when known,
// otherwise the input.
func target(d *model.Detection) string {
	if d.FinalURL != "" {
		return d.FinalURL
	}
	return d.URL
}

// ResolveStep follows redirects and applies the failure policy when the URL
// cannot be resolved.
type ResolveStep struct {
	resolver resolver.Resolver
	policy   model.FailurePolicy
	logger   *slog.Logger
}

// NewResolveStep creates a ResolveStep.
func NewResolveStep(r resolver.Resolver, policy model.FailurePolicy, logger *slog.Logger) *ResolveStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResolveStep{resolver: r, policy: policy, logger: logger}
}

// Name returns the step name.
func (s *ResolveStep) Name() string {
	return string(model.StageResolve)
}

// Do resolves d.URL.
func (s *ResolveStep) Do(ctx context.Context, d *model.Detection) error {
	res, err := s.resolver.Resolve(ctx, d.URL)
	if err != nil {
		s.logger.Info("resolution failed, applying failure policy",
			"url", d.URL,
			"policy", s.policy,
			"error", err,
		)
		d.AddStage(model.StageResult{
			Stage:   model.StageResolve,
			Outcome: model.OutcomeFailed,
			Detail:  fmt.Sprintf("%v (fail-%s)", err, s.policy),
		})
		d.Decide(model.StageResolve, s.policy.Verdict())
		return nil
	}

	d.FinalURL = res.FinalURL
	d.StatusCode = res.StatusCode
	d.Hops = res.Hops
	d.Domain = domain.Canonicalize(res.FinalURL)
	d.AddStage(model.StageResult{
		Stage:   model.StageResolve,
		Outcome: model.OutcomePass,
		Detail:  res.FinalURL,
	})
	return nil
}

// DenylistStep flags URLs whose canonical domain is denylisted.
type DenylistStep struct {
	denylist *denylist.Denylist
}

// NewDenylistStep creates a DenylistStep.
func NewDenylistStep(d *denylist.Denylist) *DenylistStep {
	return &DenylistStep{denylist: d}
}

// Name returns the step name.
func (s *DenylistStep) Name() string {
	return string(model.StageDenylist)
}

// Do checks the canonical domain of the resolved URL.
func (s *DenylistStep) Do(_ context.Context, d *model.Detection) error {
	if d.Domain == "" {
		d.Domain = domain.Canonicalize(target(d))
	}
	if s.denylist.ContainsDomain(d.Domain) {
		d.AddStage(model.StageResult{
			Stage:   model.StageDenylist,
			Outcome: model.OutcomeHit,
			Detail:  d.Domain,
		})
		d.Decide(model.StageDenylist, true)
		return nil
	}
	d.AddStage(model.StageResult{Stage: model.StageDenylist, Outcome: model.OutcomePass})
	return nil
}

// HeuristicStep flags URLs that contain a suspicious word.
// In corroborate mode a match only counts when the classifier also predicts
// phishing; otherwise the decision is left to the classifier stage.
type HeuristicStep struct {
	patterns   *heuristic.PatternSet
	mode       model.HeuristicMode
	vectorizer Vectorizer
	classifier Classifier
}

// NewHeuristicStep creates a HeuristicStep. vectorizer and classifier are
// only consulted in corroborate mode.
func NewHeuristicStep(patterns *heuristic.PatternSet, mode model.HeuristicMode, vectorizer Vectorizer, classifier Classifier) *HeuristicStep {
	return &HeuristicStep{
		patterns:   patterns,
		mode:       mode,
		vectorizer: vectorizer,
		classifier: classifier,
	}
}

// Name returns the step name.
func (s *HeuristicStep) Name() string {
	return string(model.StageHeuristic)
}

// Do searches the resolved URL for suspicious words.
func (s *HeuristicStep) Do(_ context.Context, d *model.Detection) error {
	word, ok := s.patterns.Match(target(d))
	if !ok {
		d.AddStage(model.StageResult{Stage: model.StageHeuristic, Outcome: model.OutcomePass})
		return nil
	}

	if s.mode == model.HeuristicCorroborate {
		if s.classifier == nil || s.vectorizer == nil {
			return ErrMissingClassifier
		}
		if s.classifier.Predict(s.vectorizer.Transform(target(d))) != model.LabelPhishing {
			d.AddStage(model.StageResult{
				Stage:   model.StageHeuristic,
				Outcome: model.OutcomePass,
				Detail:  fmt.Sprintf("matched %q, not corroborated by classifier", word),
			})
			return nil
		}
		d.AddStage(model.StageResult{
			Stage:   model.StageHeuristic,
			Outcome: model.OutcomeHit,
			Detail:  fmt.Sprintf("matched %q, corroborated by classifier", word),
		})
		d.Decide(model.StageHeuristic, true)
		return nil
	}

	d.AddStage(model.StageResult{
		Stage:   model.StageHeuristic,
		Outcome: model.OutcomeHit,
		Detail:  fmt.Sprintf("matched %q", word),
	})
	d.Decide(model.StageHeuristic, true)
	return nil
}

// ClassifierStep asks the trained model for the final verdict.
type ClassifierStep struct {
	vectorizer  Vectorizer
	classifier  Classifier
	fingerprint string
}

// NewClassifierStep creates a ClassifierStep. fingerprint identifies the
// model in reports and may be empty.
func NewClassifierStep(vectorizer Vectorizer, classifier Classifier, fingerprint string) *ClassifierStep {
	return &ClassifierStep{
		vectorizer:  vectorizer,
		classifier:  classifier,
		fingerprint: fingerprint,
	}
}

// Name returns the step name.
func (s *ClassifierStep) Name() string {
	return string(model.StageClassifier)
}

// Do classifies the resolved URL.
func (s *ClassifierStep) Do(_ context.Context, d *model.Detection) error {
	x := s.vectorizer.Transform(target(d))
	label := s.classifier.Predict(x)
	p := s.classifier.PredictProba(x)

	d.PhishingProbability = &p
	d.ModelFingerprint = s.fingerprint

	outcome := model.OutcomePass
	if label == model.LabelPhishing {
		outcome = model.OutcomeHit
	}
	d.AddStage(model.StageResult{
		Stage:   model.StageClassifier,
		Outcome: outcome,
		Detail:  fmt.Sprintf("%s (p=%.3f)", label, p),
	})
	d.Decide(model.StageClassifier, label == model.LabelPhishing)
	return nil
}

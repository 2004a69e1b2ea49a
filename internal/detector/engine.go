package detector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/phishscan/internal/denylist"
	"github.com/nao1215/phishscan/internal/heuristic"
	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/pipeline"
	"github.com/nao1215/phishscan/internal/resolver"
)

// Engine runs the decision stages.
type Engine struct {
	pipeline      *pipeline.Pipeline
	failurePolicy model.FailurePolicy
	heuristicMode model.HeuristicMode
	fingerprint   string
	logger        *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFailurePolicy sets what an unresolvable URL is reported as.
// The default is model.FailOpen.
func WithFailurePolicy(p model.FailurePolicy) Option {
	return func(e *Engine) {
		e.failurePolicy = p
	}
}

// WithHeuristicMode sets how lexical matches are weighed.
// The default is model.HeuristicStandalone.
func WithHeuristicMode(m model.HeuristicMode) Option {
	return func(e *Engine) {
		e.heuristicMode = m
	}
}

// WithFingerprint sets the model fingerprint recorded on every detection.
func WithFingerprint(fp string) Option {
	return func(e *Engine) {
		e.fingerprint = fp
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New assembles an Engine. Every component is required; pass an empty
// denylist or pattern set to disable a stage in effect.
func New(
	res resolver.Resolver,
	deny *denylist.Denylist,
	patterns *heuristic.PatternSet,
	vectorizer pipeline.Vectorizer,
	classifier pipeline.Classifier,
	opts ...Option,
) (*Engine, error) {
	switch {
	case res == nil:
		return nil, fmt.Errorf("%w: resolver", ErrMissingComponent)
	case deny == nil:
		return nil, fmt.Errorf("%w: denylist", ErrMissingComponent)
	case patterns == nil:
		return nil, fmt.Errorf("%w: heuristic patterns", ErrMissingComponent)
	case vectorizer == nil:
		return nil, fmt.Errorf("%w: vectorizer", ErrMissingComponent)
	case classifier == nil:
		return nil, fmt.Errorf("%w: classifier", ErrMissingComponent)
	}

	e := &Engine{
		failurePolicy: model.FailOpen,
		heuristicMode: model.HeuristicStandalone,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	p := pipeline.New(pipeline.WithLogger(e.logger))
	p.AddSteps(
		pipeline.NewResolveStep(res, e.failurePolicy, e.logger),
		pipeline.NewDenylistStep(deny),
		pipeline.NewHeuristicStep(patterns, e.heuristicMode, vectorizer, classifier),
		pipeline.NewClassifierStep(vectorizer, classifier, e.fingerprint),
	)
	e.pipeline = p
	return e, nil
}

// NewFromModel assembles an Engine around a fitted Model.
func NewFromModel(res resolver.Resolver, deny *denylist.Denylist, patterns *heuristic.PatternSet, m *Model, opts ...Option) (*Engine, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: model", ErrMissingComponent)
	}
	opts = append([]Option{WithFingerprint(m.Fingerprint)}, opts...)
	return New(res, deny, patterns, m.Vocabulary, m.Classifier, opts...)
}

// Detect reports whether rawURL is a phishing attempt. It never fails:
// unresolvable input is handled by the failure policy.
func (e *Engine) Detect(ctx context.Context, rawURL string) bool {
	return e.Inspect(ctx, rawURL).Phishing
}

// Inspect runs a check and returns the full record of how the verdict was
// reached.
func (e *Engine) Inspect(ctx context.Context, rawURL string) *model.Detection {
	d := model.NewDetection(rawURL)
	start := time.Now()

	if err := e.pipeline.Execute(ctx, d); err != nil {
		e.logger.Warn("check ended early", "url", rawURL, "error", err)
	}
	if !d.Decided() {
		// Only reachable on cancellation or a broken stage; treat like an
		// unresolvable URL.
		d.Decide("", e.failurePolicy.Verdict())
	}
	d.Elapsed = time.Since(start)

	e.logger.Debug("check complete",
		"url", rawURL,
		"domain", d.Domain,
		"phishing", d.Phishing,
		"decided_by", d.DecidedBy,
		"elapsed", d.Elapsed,
	)
	return d
}

// FailurePolicy returns the configured failure policy.
func (e *Engine) FailurePolicy() model.FailurePolicy {
	return e.failurePolicy
}

// HeuristicMode returns the configured heuristic mode.
func (e *Engine) HeuristicMode() model.HeuristicMode {
	return e.heuristicMode
}

// Fingerprint returns the model fingerprint, if any.
func (e *Engine) Fingerprint() string {
	return e.fingerprint
}

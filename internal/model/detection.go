package model

import (
	"time"

	"github.com/google/uuid"
)

// Stage names the steps of the decision procedure in evaluation order.
type Stage string

const (
	// StageResolve follows redirects to the final URL.
	StageResolve Stage = "resolve"
	// StageDenylist checks the canonical domain against the denylist.
	StageDenylist Stage = "denylist"
	// StageHeuristic searches the final URL for suspicious words.
	StageHeuristic Stage = "heuristic"
	// StageClassifier asks the trained model for a label.
	StageClassifier Stage = "classifier"
)

// Stages returns all stages in evaluation order.
func Stages() []Stage {
	return []Stage{StageResolve, StageDenylist, StageHeuristic, StageClassifier}
}

// Outcome is the result of running a single stage.
type Outcome string

const (
	// OutcomePass means the stage found nothing and passed the URL on.
	OutcomePass Outcome = "pass"
	// OutcomeHit means the stage flagged the URL.
	OutcomeHit Outcome = "hit"
	// OutcomeFailed means the stage could not complete.
	OutcomeFailed Outcome = "failed"
	// OutcomeSkipped means an earlier stage already decided the verdict.
	OutcomeSkipped Outcome = "skipped"
)

// StageResult records what one stage observed.
type StageResult struct {
	Stage   Stage         `json:"stage"`
	Outcome Outcome       `json:"outcome"`
	Detail  string        `json:"detail,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Detection is the full record of one phishing check.
// The boolean verdict is Phishing; everything else explains how it was reached.
type Detection struct {
	// ID identifies this check in history and API responses.
	ID string `json:"id"`

	// URL is the input exactly as submitted.
	URL string `json:"url"`

	// FinalURL is the URL after following redirects. Empty if resolution failed.
	FinalURL string `json:"final_url,omitempty"`

	// StatusCode is the HTTP status of the final response.
	StatusCode int `json:"status_code,omitempty"`

	// Hops lists every URL visited while resolving, starting with the input.
	Hops []string `json:"hops,omitempty"`

	// Domain is the canonical domain of FinalURL.
	Domain string `json:"domain,omitempty"`

	// Stages holds one result per stage, in evaluation order.
	Stages []StageResult `json:"stages"`

	// DecidedBy is the stage that produced the verdict.
	DecidedBy Stage `json:"decided_by,omitempty"`

	// Phishing is the verdict.
	Phishing bool `json:"phishing"`

	// PhishingProbability is the classifier's posterior for the phishing label.
	// It is only set when the classifier stage ran.
	PhishingProbability *float64 `json:"phishing_probability,omitempty"`

	// ModelFingerprint identifies the trained model used for this check.
	ModelFingerprint string `json:"model_fingerprint,omitempty"`

	// Error holds an unexpected failure that stopped the pipeline early.
	Error string `json:"error,omitempty"`

	// DateChecked is when the check started.
	DateChecked time.Time `json:"date_checked"`

	// Elapsed is the wall time of the whole check.
	Elapsed time.Duration `json:"elapsed_ns"`

	decided bool
}

// NewDetection creates an undecided detection for rawURL.
func NewDetection(rawURL string) *Detection {
	return &Detection{
		ID:          uuid.NewString(),
		URL:         rawURL,
		Stages:      make([]StageResult, 0, len(Stages())),
		DateChecked: time.Now(),
	}
}

// AddStage appends a stage result.
func (d *Detection) AddStage(result StageResult) {
	d.Stages = append(d.Stages, result)
}

// Decide fixes the verdict. Later calls are ignored so the first deciding stage wins.
func (d *Detection) Decide(stage Stage, phishing bool) {
	if d.decided {
		return
	}
	d.decided = true
	d.DecidedBy = stage
	d.Phishing = phishing
}

// Decided reports whether a verdict has been fixed.
func (d *Detection) Decided() bool {
	return d.decided
}

// Stage returns the recorded result for s.
func (d *Detection) Stage(s Stage) (StageResult, bool) {
	for _, r := range d.Stages {
		if r.Stage == s {
			return r, true
		}
	}
	return StageResult{}, false
}

// Verdict returns a short human-readable verdict.
func (d *Detection) Verdict() string {
	if d.Phishing {
		return "PHISHING"
	}
	return "LEGITIMATE"
}

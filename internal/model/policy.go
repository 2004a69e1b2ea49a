package model

import "fmt"

// FailurePolicy decides the verdict when a URL cannot be resolved.
type FailurePolicy string

const (
	// FailOpen reports unresolvable URLs as not phishing.
	FailOpen FailurePolicy = "open"
	// FailClosed reports unresolvable URLs as phishing.
	FailClosed FailurePolicy = "closed"
)

// ParseFailurePolicy converts text into a FailurePolicy.
// An empty string yields FailOpen.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", string(FailOpen):
		return FailOpen, nil
	case string(FailClosed):
		return FailClosed, nil
	default:
		return "", fmt.Errorf("unknown resolution failure policy %q", s)
	}
}

// Verdict returns the verdict applied to an unresolvable URL.
func (p FailurePolicy) Verdict() bool {
	return p == FailClosed
}

// HeuristicMode controls how a lexical heuristic hit affects the verdict.
type HeuristicMode string

const (
	// HeuristicStandalone lets a lexical hit decide phishing on its own.
	HeuristicStandalone HeuristicMode = "standalone"
	// HeuristicCorroborate only accepts a lexical hit when the classifier agrees.
	HeuristicCorroborate HeuristicMode = "corroborate"
)

// ParseHeuristicMode converts text into a HeuristicMode.
// An empty string yields HeuristicStandalone.
func ParseHeuristicMode(s string) (HeuristicMode, error) {
	switch s {
	case "", string(HeuristicStandalone):
		return HeuristicStandalone, nil
	case string(HeuristicCorroborate):
		return HeuristicCorroborate, nil
	default:
		return "", fmt.Errorf("unknown heuristic mode %q", s)
	}
}

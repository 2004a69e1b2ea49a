// Package detector decides whether a URL is a phishing attempt.
//
// An Engine runs four stages in order and stops at the first one that
// reaches a verdict:
//
//  1. resolve: follow redirects. If that fails the failure policy decides
//     (fail-open reports not phishing, fail-closed reports phishing).
//  2. denylist: the canonical domain of the final URL is denylisted.
//  3. heuristic: the final URL contains a suspicious whole word.
//  4. classifier: the naive Bayes model predicts phishing.
//
// Build fits the vocabulary and classifier from a labelled corpus; Evaluate
// measures a separately fitted classifier on a held-out split. The Engine
// holds only immutable components, so one Engine serves any number of
// concurrent checks.
package detector

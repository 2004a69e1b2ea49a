package pipeline

import "errors"

// ErrMissingClassifier is returned by HeuristicStep in corroborate mode when
// no classifier was supplied.
var ErrMissingClassifier = errors.New("corroborate mode needs a vectorizer and classifier")

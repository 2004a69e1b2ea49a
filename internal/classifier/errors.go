package classifier

import "errors"

var (
	// ErrDegenerateTrainingSet is returned when the training data is empty or
	// has fewer than two distinct labels.
	ErrDegenerateTrainingSet = errors.New("training set needs at least two distinct labels")

	// ErrLengthMismatch is returned when features and labels differ in length.
	ErrLengthMismatch = errors.New("number of feature vectors and labels differ")

	// ErrInconsistentWidth is returned when training vectors differ in width.
	ErrInconsistentWidth = errors.New("feature vectors differ in width")

	// ErrUnknownLabel is returned for a label other than phishing or legitimate.
	ErrUnknownLabel = errors.New("unknown label")

	// ErrInvalidAlpha is returned when the smoothing parameter is not positive.
	ErrInvalidAlpha = errors.New("smoothing alpha must be positive")
)

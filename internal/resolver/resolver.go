package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// ErrResolution is wrapped by every resolution failure: malformed input,
// transport errors, timeouts and cancellation.
var ErrResolution = errors.New("url resolution failed")

// Resolution is the outcome of following a URL's redirects.
type Resolution struct {
	// FinalURL is the last URL requested.
	FinalURL string
	// StatusCode is the HTTP status of the last response.
	StatusCode int
	// Hops lists every requested URL in order, ending with FinalURL.
	Hops []string
}

// Resolver follows redirects.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (*Resolution, error)
}

// Func adapts an ordinary function to the Resolver interface.
type Func func(ctx context.Context, rawURL string) (*Resolution, error)

// Resolve calls f.
func (f Func) Resolve(ctx context.Context, rawURL string) (*Resolution, error) {
	return f(ctx, rawURL)
}

// Offline treats every well-formed http(s) URL as its own final destination
// without touching the network.
type Offline struct{}

// Resolve validates rawURL and returns it unchanged.
func (Offline) Resolve(ctx context.Context, rawURL string) (*Resolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolution, err)
	}
	u, err := parseTarget(rawURL)
	if err != nil {
		return nil, err
	}
	final := u.String()
	return &Resolution{FinalURL: final, Hops: []string{final}}, nil
}

// parseTarget accepts absolute http and https URLs only.
func parseTarget(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolution, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q in %q", ErrResolution, u.Scheme, rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrResolution, rawURL)
	}
	return u, nil
}

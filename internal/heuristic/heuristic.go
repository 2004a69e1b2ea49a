package heuristic

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrEmptyPattern is returned when a pattern is blank.
var ErrEmptyPattern = errors.New("heuristic pattern must not be empty")

// RE2's \b only knows ASCII word characters, so the boundaries are spelled
// out with Unicode classes.
const (
	wordStart = `(?:^|[^\p{L}\p{N}_])`
	wordEnd   = `(?:$|[^\p{L}\p{N}_])`
)

// PatternSet is an immutable, ordered set of suspicious words.
// It is safe for concurrent use.
type PatternSet struct {
	patterns []string
	matchers []*regexp.Regexp
}

// New compiles patterns into a PatternSet.
// Patterns are literal words, not regular expressions. Duplicates (ignoring
// case) are dropped and the first occurrence keeps its position.
func New(patterns ...string) (*PatternSet, error) {
	p := &PatternSet{}
	seen := make(map[string]struct{}, len(patterns))

	for _, raw := range patterns {
		word := strings.TrimSpace(raw)
		if word == "" {
			return nil, ErrEmptyPattern
		}
		key := strings.ToLower(norm.NFKC.String(word))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		re, err := regexp.Compile(`(?i)` + wordStart + regexp.QuoteMeta(key) + wordEnd)
		if err != nil {
			return nil, fmt.Errorf("invalid heuristic pattern %q: %w", raw, err)
		}
		p.patterns = append(p.patterns, key)
		p.matchers = append(p.matchers, re)
	}
	return p, nil
}

// MustNew is like New but panics on error. It is meant for package-level defaults.
func MustNew(patterns ...string) *PatternSet {
	p, err := New(patterns...)
	if err != nil {
		panic(err)
	}
	return p
}

// Match returns the first pattern found in rawURL as a whole word.
func (p *PatternSet) Match(rawURL string) (string, bool) {
	if p == nil || rawURL == "" {
		return "", false
	}
	s := norm.NFKC.String(rawURL)
	for i, re := range p.matchers {
		if re.MatchString(s) {
			return p.patterns[i], true
		}
	}
	return "", false
}

// Patterns returns the normalized patterns in order.
func (p *PatternSet) Patterns() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.patterns...)
}

// Len returns the number of patterns.
func (p *PatternSet) Len() int {
	if p == nil {
		return 0
	}
	return len(p.patterns)
}

// HasSuspiciousTokens reports whether any pattern of p occurs in rawURL as a whole word.
func HasSuspiciousTokens(rawURL string, p *PatternSet) bool {
	_, ok := p.Match(rawURL)
	return ok
}

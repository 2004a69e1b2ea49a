package denylist

import (
	"sort"

	"github.com/nao1215/phishscan/internal/domain"
)

// Denylist is an immutable set of canonical domains.
// It is safe for concurrent use.
type Denylist struct {
	domains map[string]struct{}
}

// New builds a Denylist from entries. Each entry is canonicalized, so
// "https://www.Evil.org/login" and "evil.org" name the same domain.
// Entries that canonicalize to nothing are dropped.
func New(entries ...string) *Denylist {
	d := &Denylist{domains: make(map[string]struct{}, len(entries))}
	for _, e := range entries {
		if c := domain.Canonicalize(e); c != "" {
			d.domains[c] = struct{}{}
		}
	}
	return d
}

// Contains reports whether the canonical domain of rawURL is denylisted.
// A URL without a domain is never denylisted.
func (d *Denylist) Contains(rawURL string) bool {
	return d.ContainsDomain(domain.Canonicalize(rawURL))
}

// ContainsDomain reports whether an already-canonical domain is denylisted.
func (d *Denylist) ContainsDomain(canonical string) bool {
	if d == nil || canonical == "" {
		return false
	}
	_, ok := d.domains[canonical]
	return ok
}

// Len returns the number of distinct domains.
func (d *Denylist) Len() int {
	if d == nil {
		return 0
	}
	return len(d.domains)
}

// Domains returns the denylisted domains in sorted order.
func (d *Denylist) Domains() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, len(d.domains))
	for k := range d.domains {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// IsDenylisted reports whether the canonical domain of rawURL is in d.
func IsDenylisted(rawURL string, d *Denylist) bool {
	return d.Contains(rawURL)
}

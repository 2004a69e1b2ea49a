package domain

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

const wwwPrefix = "www."

// Canonicalize returns the canonical domain of rawURL.
//
// The host is lowercased, internationalized names are converted to their
// ASCII (punycode) form, the port is dropped and leading "www." labels are
// removed. Input without a scheme is treated as a bare host, so the result
// of Canonicalize is itself a valid input and Canonicalize(Canonicalize(u))
// equals Canonicalize(u).
//
// Malformed input yields the empty string, which never matches a denylist.
func Canonicalize(rawURL string) string {
	host := hostname(strings.TrimSpace(rawURL))
	if host == "" {
		return ""
	}

	host = toASCII(strings.ToLower(host))
	for strings.HasPrefix(host, wwwPrefix) {
		host = strings.TrimPrefix(host, wwwPrefix)
	}

	// IPv6 literals keep their brackets so the result parses back to the same
	// host. A zone identifier needs its "%" escaped to survive that parse.
	if strings.Contains(host, ":") {
		return "[" + strings.Replace(host, "%", "%25", 1) + "]"
	}
	return host
}

// hostname extracts the host component of s, or "" if there is none.
func hostname(s string) string {
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") && !strings.HasPrefix(s, "//") {
		s = "//" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// toASCII converts an internationalized host to punycode.
// Hosts that fail IDNA processing are returned unchanged.
func toASCII(host string) string {
	if isASCII(host) {
		return host
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil || ascii == "" {
		return host
	}
	return ascii
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Package denylist holds the set of known-bad canonical domains.
//
// Entries are compared by exact canonical domain only. A denylisted
// "evil.org" does not match "login.evil.org"; list subdomains explicitly.
//
// Lists can be built from plain strings or read from flat files in either
// one-entry-per-line form (domains or URLs) or hosts-file form
// ("0.0.0.0 evil.org"). Text after '#' is ignored.
package denylist

package textfeat

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// tokenPattern matches maximal runs of at least two word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokenize returns the tokens of s in order of appearance.
// Repeated tokens are returned once per occurrence.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}
	return tokenPattern.FindAllString(strings.ToLower(norm.NFKC.String(s)), -1)
}

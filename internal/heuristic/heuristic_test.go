package heuristic

import (
	"errors"
	"reflect"
	"testing"
)

var defaultPatterns = []string{"secure", "login", "account", "verify", "update", "signin"}

func TestPatternSetMatch(t *testing.T) {
	t.Parallel()

	p := MustNew(defaultPatterns...)

	testCases := []struct {
		name      string
		url       string
		wantWord  string
		wantMatch bool
	}{
		{"path segment", "https://example.com/login", "login", true},
		{"subdomain", "http://signin.example.com", "signin", true},
		{"upper case", "http://EXAMPLE.com/VERIFY?id=1", "verify", true},
		{"hyphen boundary", "http://secure-bank.example/", "secure", true},
		{"query value", "http://example.com/?action=update", "update", true},
		{"full width", "http://example.com/ｌｏｇｉｎ", "login", true},
		{"first pattern wins", "http://example.com/login/secure", "secure", true},
		{"plural is not whole word", "http://example.com/accounts", "", false},
		{"prefix is not whole word", "http://blogin.example.com", "", false},
		{"underscore joins words", "http://example.com/my_login", "", false},
		{"digits join words", "http://example.com/login2", "", false},
		{"accented letter joins words", "http://example.com/éaccount", "", false},
		{"non-latin letter joins words", "http://example.com/loginЖ", "", false},
		{"non-ascii digit joins words", "http://example.com/٣verify", "", false},
		{"non-ascii punctuation separates", "http://example.com/«login»", "login", true},
		{"at end of input", "http://example.com/?next=signin", "signin", true},
		{"clean url", "https://www.trustedsite.com/home", "", false},
		{"empty", "", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			word, ok := p.Match(tc.url)
			if ok != tc.wantMatch || word != tc.wantWord {
				t.Errorf("Match(%q) = (%q, %v), want (%q, %v)", tc.url, word, ok, tc.wantWord, tc.wantMatch)
			}
			if got := HasSuspiciousTokens(tc.url, p); got != tc.wantMatch {
				t.Errorf("HasSuspiciousTokens(%q) = %v, want %v", tc.url, got, tc.wantMatch)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("deduplicates ignoring case", func(t *testing.T) {
		t.Parallel()
		p, err := New("Login", "login", "verify")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(p.Patterns(), []string{"login", "verify"}) {
			t.Errorf("Patterns() = %v", p.Patterns())
		}
		if p.Len() != 2 {
			t.Errorf("Len() = %d", p.Len())
		}
	})

	t.Run("quotes metacharacters", func(t *testing.T) {
		t.Parallel()
		p, err := New("pay.pal")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := p.Match("http://payxpal.example"); ok {
			t.Error("dot must be matched literally")
		}
		if _, ok := p.Match("http://pay.pal.example"); !ok {
			t.Error("expected literal match")
		}
	})

	t.Run("rejects empty pattern", func(t *testing.T) {
		t.Parallel()
		if _, err := New("login", " "); !errors.Is(err, ErrEmptyPattern) {
			t.Errorf("expected ErrEmptyPattern, got %v", err)
		}
	})

	t.Run("empty set never matches", func(t *testing.T) {
		t.Parallel()
		p, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if HasSuspiciousTokens("http://example.com/login", p) {
			t.Error("empty set must not match")
		}
	})
}

func TestMustNewPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustNew("")
}

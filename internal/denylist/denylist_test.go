package denylist

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

var defaultEntries = []string{"badwebsite1.com", "evilphisher.org", "malicious-site.biz"}

func TestDenylistContains(t *testing.T) {
	t.Parallel()

	d := New(defaultEntries...)

	testCases := []struct {
		name string
		url  string
		want bool
	}{
		{"exact domain", "http://evilphisher.org/", true},
		{"www prefix", "https://www.evilphisher.org/login", true},
		{"upper case", "HTTP://BADWEBSITE1.COM", true},
		{"with port", "http://malicious-site.biz:8080/a", true},
		{"subdomain is not a match", "http://login.evilphisher.org", false},
		{"suffix is not a match", "http://notevilphisher.org", false},
		{"unlisted", "https://example.com", false},
		{"empty", "", false},
		{"malformed", "http://%zz", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := d.Contains(tc.url); got != tc.want {
				t.Errorf("Contains(%q) = %v, want %v", tc.url, got, tc.want)
			}
			if got := IsDenylisted(tc.url, d); got != tc.want {
				t.Errorf("IsDenylisted(%q) = %v, want %v", tc.url, got, tc.want)
			}
		})
	}
}

func TestDenylistCanonicalizesEntries(t *testing.T) {
	t.Parallel()

	d := New("https://www.Evil.org/path", "evil.org", "", "  ")
	if d.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", d.Len())
	}
	if !reflect.DeepEqual(d.Domains(), []string{"evil.org"}) {
		t.Errorf("Domains() = %v", d.Domains())
	}
}

func TestNilDenylist(t *testing.T) {
	t.Parallel()

	var d *Denylist
	if d.Contains("http://evil.org") {
		t.Error("nil denylist must not match")
	}
	if d.Len() != 0 {
		t.Error("nil denylist must be empty")
	}
	if d.Domains() != nil {
		t.Error("nil denylist must have no domains")
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	input := `# phishing feed
evilphisher.org
https://www.badwebsite1.com/login   # trailing comment

0.0.0.0 malicious-site.biz tracker.example
127.0.0.1	localhost
`
	got, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"evilphisher.org",
		"https://www.badwebsite1.com/login",
		"malicious-site.biz",
		"tracker.example",
		"localhost",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %v, want %v", got, want)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "feed.txt")
	if err := os.WriteFile(path, []byte("phish.example\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("merges inline and file entries", func(t *testing.T) {
		t.Parallel()
		d, err := Load(defaultEntries, path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Len() != 4 {
			t.Errorf("Len() = %d, want 4", d.Len())
		}
		if !d.Contains("http://phish.example/") {
			t.Error("expected file entry to be denylisted")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		if _, err := Load(nil, filepath.Join(dir, "missing.txt")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

package denylist

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
)

// maxLineSize bounds a single line of a list file.
const maxLineSize = 1024 * 1024

// Parse reads denylist entries from r.
// Blank lines and text after '#' are skipped. A line that starts with an IP
// address is treated as a hosts-file line and every following name is
// returned. Any other line contributes its first field.
func Parse(r io.Reader) ([]string, error) {
	var entries []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if idx := bytes.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		fields := strings.Fields(string(line))
		if len(fields) == 0 {
			continue
		}

		if _, err := netip.ParseAddr(fields[0]); err == nil {
			entries = append(entries, fields[1:]...)
			continue
		}
		entries = append(entries, fields[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read denylist: %w", err)
	}
	return entries, nil
}

// LoadFile reads denylist entries from the file at path.
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open denylist file %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Load builds a Denylist from inline entries plus every file in paths.
func Load(entries []string, paths ...string) (*Denylist, error) {
	all := append([]string(nil), entries...)
	for _, p := range paths {
		fromFile, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		all = append(all, fromFile...)
	}
	return New(all...), nil
}

package service

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
)

var missingFontPattern = regexp.MustCompile(`^.+Client requested name "([^"]+)"`)

// MissingFonts scans exporter diagnostics for font substitution messages and
// returns the requested font names, sorted and distinct.
func MissingFonts(r io.Reader) ([]string, error) {
	fonts := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if m := missingFontPattern.FindStringSubmatch(scanner.Text()); m != nil {
			fonts[m[1]] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan error log: %w", err)
	}

	names := make([]string, 0, len(fonts))
	for name := range fonts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// MissingFontsFromFile runs MissingFonts over the error log at path.
func MissingFontsFromFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open error log: %w", err)
	}
	defer f.Close()
	return MissingFonts(f)
}

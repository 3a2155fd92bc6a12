package provider

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadURLList reads album URLs from a list file, one per line.
// Blank lines and lines starting with '#' are ignored. Each URL is
// normalized; an invalid line aborts with an error naming the line
// number so the user can fix the file.
func ReadURLList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list: %w", err)
	}
	defer f.Close()

	urls, err := ParseURLList(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return urls, nil
}

// ParseURLList parses album URLs from the given reader.
// See ReadURLList for the accepted format.
func ParseURLList(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		normalized, _, err := Normalize(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		urls = append(urls, normalized)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}

	return urls, nil
}

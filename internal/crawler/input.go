package crawler

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// ReadURLs reads one URL per line from r. Lines are trimmed and blank lines
// are skipped. Validation is left to the fetcher so that an invalid entry
// is reported once, next to the fetch results.
func ReadURLs(r io.Reader) ([]string, error) {
	urls := make([]string, 0)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read url list: %w", err)
	}

	return urls, nil
}

// LoadURLFile reads the URL list at path.
// It returns ErrInputNotFound if the file is missing and ErrNoURLs if it
// holds no URLs.
func LoadURLFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	urls, err := ReadURLs(f)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoURLs, path)
	}
	return urls, nil
}

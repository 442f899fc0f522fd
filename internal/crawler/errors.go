package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned for URLs that fail ValidateURL.
	ErrInvalidURL = errors.New("invalid url")

	// ErrNoContent is returned when a page has no usable text after cleaning.
	ErrNoContent = errors.New("no content after cleaning")

	// ErrInputNotFound is returned when the URL list file does not exist.
	ErrInputNotFound = errors.New("input file not found")

	// ErrNoURLs is returned when the URL list contains no URLs.
	ErrNoURLs = errors.New("no urls in input")
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

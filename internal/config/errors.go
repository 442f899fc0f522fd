package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers can match them with errors.Is.
var (
	// ErrNoInput is returned when no URL list file is given.
	ErrNoInput = errors.New("no input specified: provide a URL list file")

	// ErrEmptyOutput is returned when the output path is empty.
	ErrEmptyOutput = errors.New("invalid output: path must not be empty")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidLLMTimeout is returned when the model call timeout is not positive.
	ErrInvalidLLMTimeout = errors.New("invalid llm timeout: must be positive")

	// ErrInvalidConcurrency is returned when concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrEmptyModel is returned when an API key is set but no model is named.
	ErrEmptyModel = errors.New("invalid model: must not be empty when an API key is set")
)

// Package log provides an slog handler that keeps credentials out of log output.
//
// Every stage of web2proposal talks to an LLM endpoint with an API key, and
// verbose mode logs request details. The SecureHandler masks:
//   - attributes named like credentials (api_key, authorization, token, ...)
//   - values shaped like credentials (sk-... keys, bearer tokens, JWTs)
//   - API keys embedded in logged error messages
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("llm client ready", "base_url", cfg.BaseURL, "api_key", cfg.APIKey)
//	// api_key=***REDACTED***
package log

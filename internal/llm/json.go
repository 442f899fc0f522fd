package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a reply contains no JSON object.
var ErrNoJSON = errors.New("llm: response did not include json")

// DecodeJSON decodes the outermost JSON object in raw into v.
// Models sometimes wrap JSON in prose or code fences even in JSON mode,
// so everything outside the first '{' and the last '}' is ignored.
func DecodeJSON(raw string, v any) error {
	block := extractJSONBlock(raw)
	if block == "" {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(block), v); err != nil {
		return fmt.Errorf("llm: invalid json: %w", err)
	}
	return nil
}

func extractJSONBlock(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

package crawler

import "regexp"

// urlPattern accepts http(s) URLs whose host is a dotted domain with a
// 2-6 letter TLD, localhost, or a dotted IPv4 address, with an optional
// port and path.
var urlPattern = regexp.MustCompile(`(?i)^https?://` +
	`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+[A-Z]{2,6}\.?` +
	`|localhost` +
	`|\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
	`(?::\d+)?` +
	`(?:/?|[/?]\S+)$`)

// ValidateURL reports whether raw is a URL the fetcher will request.
func ValidateURL(raw string) bool {
	return urlPattern.MatchString(raw)
}

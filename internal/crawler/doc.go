// Package crawler fetches web pages and reduces them to their title and main text.
//
// # Fetching
//
// Fetcher.Fetch validates a URL, downloads it with a per-page timeout and a
// browser-like User-Agent, decodes the body to UTF-8 according to its
// declared or sniffed charset, and parses it with goquery.
//
// # Cleaning
//
// The title is the first non-empty match of h1, title, og:title and the
// "title" meta tag. Content is collected from the main container (article,
// main, .content, ... or body) after scripts, styles, navigation, headers,
// footers, asides and ad markers are removed. Every paragraph-level fragment
// is whitespace-collapsed; fragments under MinFragmentRunes are dropped and
// the rest are joined with a blank line.
//
// # Batches
//
// FetchMultiple fetches a list concurrently, drops pages that fail for any
// reason, and returns the survivors in input order.
package crawler

package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/web2proposal/internal/batch"
	"github.com/nao1215/web2proposal/internal/config"
	"github.com/nao1215/web2proposal/internal/model"
	"golang.org/x/net/html/charset"
)

// maxRedirects bounds the redirect chain followed for a single page.
const maxRedirects = 10

// Fetcher downloads web pages and reduces them to model.Page values.
// A Fetcher is safe for concurrent use.
type Fetcher struct {
	// client performs the HTTP requests. Its own timeout is not used;
	// every request carries a context deadline instead.
	client *http.Client

	// timeout bounds a single page fetch, including reading the body.
	timeout time.Duration

	// userAgent is the User-Agent header to use.
	userAgent string

	// headers are extra request headers, e.g. Accept-Language.
	headers map[string]string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// concurrency is the number of pages FetchMultiple fetches at once.
	concurrency int

	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithTimeout sets the per-page timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithHeaders sets extra request headers.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithConcurrency sets how many pages FetchMultiple fetches at once.
func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		f.concurrency = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher with defaults from the config package.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:     config.DefaultTimeout,
		userAgent:   config.DefaultUserAgent,
		headers:     map[string]string{},
		maxBodySize: config.DefaultMaxBodySize,
		concurrency: config.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		}
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Fetch downloads rawURL and returns its cleaned title and content.
//
// It fails with ErrInvalidURL for URLs rejected by ValidateURL, with a
// *StatusError for non-2xx responses and with ErrNoContent when nothing
// survives cleaning.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*model.Page, error) {
	if !ValidateURL(rawURL) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // body is fully consumed below

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body := io.LimitReader(resp.Body, f.maxBodySize)
	decoded, err := charset.NewReader(body, resp.Header.Get("Content-Type"))
	if err != nil {
		// Unknown charset label: parse the raw bytes as UTF-8.
		f.logger.Debug("charset detection failed", "url", rawURL, "error", err)
		decoded = body
	}

	doc, err := goquery.NewDocumentFromReader(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	title, content := ParseDocument(doc)
	if content == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoContent, rawURL)
	}

	return &model.Page{
		URL:     rawURL,
		Title:   title,
		Content: content,
	}, nil
}

// FetchMultiple fetches urls concurrently and returns the pages that
// succeeded, in input order. Failures are logged and dropped; an empty
// result is not an error here.
func (f *Fetcher) FetchMultiple(ctx context.Context, urls []string) []model.Page {
	processor := batch.New(
		batch.WithConcurrency(f.concurrency),
		batch.WithLogger(f.logger),
		batch.WithName("fetch"),
	)

	return batch.Map(ctx, processor, urls, func(ctx context.Context, i int, rawURL string) (model.Page, bool) {
		page, err := f.Fetch(ctx, rawURL)
		if err != nil {
			f.logger.Warn("failed to fetch page",
				"url", rawURL,
				"index", i+1,
				"total", len(urls),
				"error", err,
			)
			return model.Page{}, false
		}
		f.logger.Info("fetched page",
			"url", rawURL,
			"title", page.Title,
			"chars", len([]rune(page.Content)),
		)
		return *page, true
	})
}

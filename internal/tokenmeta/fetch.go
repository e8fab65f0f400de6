package tokenmeta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Fetcher defaults.
const (
	DefaultFetchTimeout = 5 * time.Second
	DefaultMaxBytes     = 256 << 10
)

// ErrUnsupportedScheme is returned for URIs other than http(s) and data.
var ErrUnsupportedScheme = errors.New("unsupported metadata URI scheme")

// ErrTooLarge is returned when a document exceeds the size limit.
var ErrTooLarge = errors.New("metadata document too large")

// Fetcher resolves metadata URIs into documents.
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
	logger   *zap.Logger
}

// FetcherOption configures Fetcher.
type FetcherOption func(*Fetcher)

// WithFetchTimeout bounds each remote fetch.
func WithFetchTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.timeout = d }
}

// WithMaxBytes caps the document size.
func WithMaxBytes(n int64) FetcherOption {
	return func(f *Fetcher) { f.maxBytes = n }
}

// WithFetchHTTPClient replaces the HTTP client.
func WithFetchHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithFetchLogger sets the logger.
func WithFetchLogger(l *zap.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{},
		timeout:  DefaultFetchTimeout,
		maxBytes: DefaultMaxBytes,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the document uri points at. Data URIs are decoded locally.
func (f *Fetcher) Fetch(ctx context.Context, uri string) (*Document, error) {
	if IsDataURI(uri) {
		if int64(len(uri)) > f.maxBytes*2 {
			return nil, ErrTooLarge
		}
		return DecodeDataURI(uri)
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse metadata uri: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch metadata: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, ErrTooLarge
	}

	f.logger.Debug("fetched metadata document",
		zap.String("uri", uri),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)))

	return parseDocument(body)
}

package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

const (
	// DefaultTimeout bounds a whole page download.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBodySize is the largest page body accepted. Sheet pages embed
	// the whole canvas record, so this is generous.
	DefaultMaxBodySize int64 = 20 * 1024 * 1024

	// DefaultUserAgent is a desktop Chrome string. The sheet service serves
	// a reduced page without the canvas record to unknown clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Fetcher downloads a page and returns its text.
// A Fetcher is safe for concurrent use once constructed.
type Fetcher struct {
	// client performs the requests.
	client *http.Client

	// timeout is applied to the client when it has none.
	timeout time.Duration

	// userAgent is sent with every request.
	userAgent string

	// maxBodySize limits the size of the response body.
	maxBodySize int64

	// cookie is an optional raw Cookie header value for private sheets.
	cookie string

	// headers are extra request headers.
	headers map[string]string

	// logger receives request-level debug messages.
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client used for requests, for example one
// from ProxyClient.HTTPClient. The client is copied, never modified.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithTimeout sets the request timeout. It applies to clients without
// their own timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum accepted body size in bytes.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithCookie sets a raw cookie string (e.g. "uid=1; uid_key=abc") sent with
// every request, including redirects.
func WithCookie(cookie string) Option {
	return func(f *Fetcher) {
		f.cookie = cookie
	}
}

// WithHeaders sets extra request headers.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher with the given options.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:     DefaultTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}

	var client http.Client
	if f.client != nil {
		client = *f.client
	}
	if client.Timeout == 0 {
		client.Timeout = f.timeout
	}
	if f.cookie != "" || len(f.headers) > 0 {
		client.Transport = newHeaderInjectingTransport(client.Transport, f.cookie, f.headers)
	}
	f.client = &client

	return f
}

// Fetch downloads pageURL and returns the body decoded to UTF-8.
//
// Network errors, timeouts, non-2xx responses and oversized bodies are
// returned as *FetchError. Cancelling ctx aborts the request.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")

	f.logger.Debug("fetching page", "url", pageURL)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: pageURL, StatusCode: resp.StatusCode, Err: ErrHTTPStatus}
	}

	// Read one byte past the limit so an oversized body is detected
	// rather than silently truncated.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return "", &FetchError{URL: pageURL, StatusCode: resp.StatusCode, Err: err}
	}
	if int64(len(body)) > f.maxBodySize {
		return "", &FetchError{URL: pageURL, StatusCode: resp.StatusCode, Err: ErrBodyTooLarge}
	}

	contentType := resp.Header.Get("Content-Type")
	page, err := decodeBody(body, contentType)
	if err != nil {
		return "", &FetchError{URL: pageURL, StatusCode: resp.StatusCode, Err: err}
	}

	f.logger.Debug("fetched page",
		"url", pageURL,
		"status", resp.StatusCode,
		"bytes", len(body),
		"contentType", contentType,
	)

	return page, nil
}

// decodeBody converts body to UTF-8 using the charset named in contentType.
// Bodies without a charset, or already in UTF-8, are returned unchanged.
func decodeBody(body []byte, contentType string) (string, error) {
	name := charsetFromContentType(contentType)
	if name == "" {
		return string(body), nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedCharset, name)
	}
	if canonical, _ := htmlindex.Name(enc); canonical == "utf-8" {
		return string(body), nil
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s body: %w", name, err)
	}
	return string(decoded), nil
}

// charsetFromContentType extracts the charset parameter of a Content-Type
// header. It returns "" when there is none or the header is malformed.
func charsetFromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["charset"])
}

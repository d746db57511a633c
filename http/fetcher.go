// Package http provides HTTP implementations of postmap services: a page and
// image fetcher for static sites and the JSON API server.
package http

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/postmap"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
// Kept consistent with rod.DefaultFetchTimeout (10s).
const DefaultFetchTimeout = 10 * time.Second

// DefaultMaxImageSize is the largest image FetchImage accepts.
const DefaultMaxImageSize = 20 << 20

// DefaultUserAgent identifies the importer to remote sites.
const DefaultUserAgent = "postmap/1.0 (+https://github.com/fwojciec/postmap)"

// Ensure Fetcher implements postmap.Fetcher and postmap.ImageFetcher at compile time.
var (
	_ postmap.Fetcher      = (*Fetcher)(nil)
	_ postmap.ImageFetcher = (*Fetcher)(nil)
)

// Fetcher retrieves HTML pages and images using HTTP requests.
// Unlike rod.Fetcher, this does not execute JavaScript and is suitable
// for static sites only.
type Fetcher struct {
	client       *http.Client
	timeout      time.Duration
	userAgent    string
	maxImageSize int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxImageSize limits the size of images returned by FetchImage.
func WithMaxImageSize(n int64) Option {
	return func(f *Fetcher) {
		f.maxImageSize = n
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:      DefaultFetchTimeout,
		userAgent:    DefaultUserAgent,
		maxImageSize: DefaultMaxImageSize,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the HTML content from the given URL.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// FetchImage downloads the image at url.
// Returns EINVALID if the response is not an image or exceeds the size limit.
func (f *Fetcher) FetchImage(ctx context.Context, url string) (*postmap.Image, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return nil, postmap.Errorf(postmap.EINVALID, "%s is not an image (content type %q)", url, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxImageSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxImageSize {
		return nil, postmap.Errorf(postmap.EINVALID, "%s exceeds %d bytes", url, f.maxImageSize)
	}

	return &postmap.Image{URL: url, ContentType: mediaType, Data: data}, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	return resp, nil
}

// Close releases resources. For HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}

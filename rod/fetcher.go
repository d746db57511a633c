// Package rod fetches JavaScript-rendered listing pages with headless Chrome.
package rod

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fwojciec/postmap"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout bounds a single page render.
const DefaultFetchTimeout = 30 * time.Second

// Compile-time interface verification.
var _ postmap.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML using a managed headless browser.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager      *BrowserManager
	timeout      time.Duration
	waitSelector string
	maxPages     int64
	closed       atomic.Bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout sets the time allowed for one page render.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithWaitSelector makes Fetch wait until an element matching sel exists.
// Useful for listings that load their items after the page itself.
func WithWaitSelector(sel string) Option {
	return func(f *Fetcher) {
		f.waitSelector = sel
	}
}

// WithRecycleAfter sets how many pages are rendered before the browser is
// replaced.
func WithRecycleAfter(n int64) Option {
	return func(f *Fetcher) {
		f.maxPages = n
	}
}

// NewFetcher launches a headless browser.
// Returns an error if Chrome cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{timeout: DefaultFetchTimeout, maxPages: DefaultMaxPages}
	for _, opt := range opts {
		opt(f)
	}

	manager, err := NewBrowserManager(WithMaxPages(f.maxPages))
	if err != nil {
		return nil, err
	}
	f.manager = manager
	return f, nil
}

// Fetch navigates to url and returns the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.closed.Load() {
		return "", postmap.Errorf(postmap.EINVALID, "fetcher closed")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := f.manager.Browser().Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", err
	}
	defer page.Close()
	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", f.contextErr(ctx, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", f.contextErr(ctx, err)
	}
	if f.waitSelector != "" {
		if _, err := page.Element(f.waitSelector); err != nil {
			return "", f.contextErr(ctx, err)
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", f.contextErr(ctx, err)
	}
	f.manager.PageDone()
	return html, nil
}

// contextErr prefers the context error so callers can match it with errors.Is.
func (f *Fetcher) contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// LauncherPID returns the process ID of the browser launcher.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}

// Close releases browser resources. It is safe to call more than once.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.manager.Close()
}

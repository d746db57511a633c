package rod

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultMaxPages is the number of pages rendered before the browser is
// replaced with a fresh instance.
const DefaultMaxPages = 75

// BrowserManager owns a headless Chrome instance and replaces it after a
// number of rendered pages. Chrome memory only grows over a long import, so
// a fresh process is started periodically.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	pages    atomic.Int64
	maxPages int64
	closed   atomic.Bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets the number of pages after which the browser is replaced.
func WithMaxPages(n int64) ManagerOption {
	return func(m *BrowserManager) {
		m.maxPages = n
	}
}

// NewBrowserManager launches a headless browser.
// Close must be called when the manager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	m := &BrowserManager{maxPages: DefaultMaxPages}
	for _, opt := range opts {
		opt(m)
	}

	browser, l, err := launch()
	if err != nil {
		return nil, err
	}
	m.browser, m.launcher = browser, l
	return m, nil
}

// Browser returns the current browser, replacing it first when the page
// limit has been reached. If the replacement fails to launch, the old
// browser keeps serving.
func (m *BrowserManager) Browser() *rod.Browser {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pages.Load() >= m.maxPages {
		if browser, l, err := launch(); err == nil {
			_ = m.browser.Close()
			m.launcher.Kill()
			m.browser, m.launcher = browser, l
			m.pages.Store(0)
		}
	}
	return m.browser
}

// PageDone records one rendered page.
func (m *BrowserManager) PageDone() {
	m.pages.Add(1)
}

// LauncherPID returns the process ID of the running browser launcher.
func (m *BrowserManager) LauncherPID() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.launcher == nil {
		return 0
	}
	return m.launcher.PID()
}

// Close shuts the browser down. It is safe to call more than once.
func (m *BrowserManager) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	if m.launcher != nil {
		m.launcher.Kill()
		m.launcher = nil
	}
	return err
}

func launch() (*rod.Browser, *launcher.Launcher, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(true)

	u, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return browser, l, nil
}

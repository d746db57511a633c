// Package bloom de-duplicates the URLs of a batch import.
package bloom

import (
	"net/url"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// DefaultFalsePositiveRate is used by NewURLSet.
const DefaultFalsePositiveRate = 0.001

// Filter remembers URLs in a Bloom filter. A false positive means a URL is
// skipped as a duplicate; a URL seen before is never reported as new.
// Filter is safe for concurrent use.
type Filter struct {
	mu sync.Mutex
	f  *bloom.BloomFilter
}

// NewFilter creates a filter sized for n expected URLs at the given false
// positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	if n == 0 {
		n = 1
	}
	return &Filter{f: bloom.NewWithEstimates(n, fpRate)}
}

// Seen adds the URL and reports whether it was probably added before.
// URLs are compared after Normalize.
func (f *Filter) Seen(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.TestAndAddString(Normalize(rawURL))
}

// Test reports whether the URL might have been added.
func (f *Filter) Test(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.TestString(Normalize(rawURL))
}

// EstimatedCount returns the approximate number of distinct URLs added.
func (f *Filter) EstimatedCount() uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint(f.f.ApproximatedSize())
}

// Unique splits urls into the first occurrence of each URL and the later
// duplicates, dropping blank entries. A filter hit is confirmed against the
// URLs already kept, so a false positive never drops a distinct URL.
func Unique(urls []string) (unique, duplicates []string) {
	f := NewFilter(uint(len(urls)), DefaultFalsePositiveRate)
	kept := make(map[string]struct{}, len(urls))
	unique = make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		key := Normalize(u)
		if f.Seen(u) {
			if _, ok := kept[key]; ok {
				duplicates = append(duplicates, u)
				continue
			}
		}
		kept[key] = struct{}{}
		unique = append(unique, u)
	}
	return unique, duplicates
}

// Normalize lowercases the scheme and host and drops the fragment so that
// trivially different spellings of one page compare equal. Unparseable
// input is returned trimmed.
func Normalize(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

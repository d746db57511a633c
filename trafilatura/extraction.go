// Package trafilatura provides article extraction using go-trafilatura.
package trafilatura

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/fwojciec/postmap"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

var _ postmap.ExtractionService = (*ExtractionService)(nil)

// ExtractionService fetches a page and extracts its main article as a
// single record.
type ExtractionService struct {
	fetcher postmap.Fetcher
}

// NewExtractionService creates a new ExtractionService.
func NewExtractionService(fetcher postmap.Fetcher) *ExtractionService {
	return &ExtractionService{fetcher: fetcher}
}

// Extract fetches pageURL and extracts its article. The connector only
// selects this provider; its fields are not consulted.
func (s *ExtractionService) Extract(ctx context.Context, _, pageURL string) (*postmap.ExtractionResult, error) {
	rawHTML, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return ExtractArticle(rawHTML, pageURL)
}

// ExtractArticle processes raw HTML and returns a record with the article
// title, content HTML and lead image.
func ExtractArticle(rawHTML, pageURL string) (*postmap.ExtractionResult, error) {
	if rawHTML == "" {
		return nil, postmap.Errorf(postmap.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		opts.OriginalURL = u
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, err
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, err
		}
	}

	return postmap.NewArticleResult(result.Metadata.Title, contentHTML, result.Metadata.Image), nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

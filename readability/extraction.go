// Package readability provides article extraction using go-readability.
package readability

import (
	"context"
	"net/url"
	"strings"

	"github.com/fwojciec/postmap"
	"github.com/go-shiori/go-readability"
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

// Extract fetches pageURL and extracts its article.
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

	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, postmap.Errorf(postmap.EINVALID, "invalid page URL: %v", err)
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), u)
	if err != nil {
		return nil, err
	}

	return postmap.NewArticleResult(article.Title, article.Content, article.Image), nil
}

package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// ReadabilityStrategy applies Mozilla-style readability parsing to the
// fetched HTML, stripping boilerplate around the main article body.
type ReadabilityStrategy struct {
	fetcher *fetcher
}

func NewReadabilityStrategy(f *fetcher) *ReadabilityStrategy {
	return &ReadabilityStrategy{fetcher: f}
}

func (s *ReadabilityStrategy) Name() string { return "readability" }

func (s *ReadabilityStrategy) Extract(ctx context.Context, pageURL string) (string, error) {
	body, err := s.fetcher.Get(ctx, pageURL)
	if err != nil {
		return "", err
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err != nil {
		return "", fmt.Errorf("readability parse: %w", err)
	}
	return article.TextContent, nil
}

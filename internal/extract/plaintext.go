package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// skipElements never contribute visible text.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"head":     true,
	"iframe":   true,
	"svg":      true,
}

// PlainTextStrategy is the crudest fallback: walk the HTML tree and
// concatenate every text node outside non-visible elements.
type PlainTextStrategy struct {
	fetcher *fetcher
}

func NewPlainTextStrategy(f *fetcher) *PlainTextStrategy {
	return &PlainTextStrategy{fetcher: f}
}

func (s *PlainTextStrategy) Name() string { return "plain_text" }

func (s *PlainTextStrategy) Extract(ctx context.Context, pageURL string) (string, error) {
	body, err := s.fetcher.Get(ctx, pageURL)
	if err != nil {
		return "", err
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return strings.TrimSpace(b.String()), nil
}

package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// articleSelectors are tried in order; the first match with real text
// wins. Covers semantic HTML5 plus the class names Brazilian news sites
// and blogs commonly use.
var articleSelectors = []string{
	"article",
	"main",
	"div.post-content",
	"div.entry-content",
	"div.article-body",
	"div.content",
	"div#content",
}

// ArticleStrategy pulls text from common article containers when
// readability cannot identify a main body.
type ArticleStrategy struct {
	fetcher *fetcher
}

func NewArticleStrategy(f *fetcher) *ArticleStrategy {
	return &ArticleStrategy{fetcher: f}
}

func (s *ArticleStrategy) Name() string { return "article_heuristic" }

func (s *ArticleStrategy) Extract(ctx context.Context, pageURL string) (string, error) {
	body, err := s.fetcher.Get(ctx, pageURL)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}

	doc.Find("script, style, nav, header, footer, aside, form").Remove()

	for _, sel := range articleSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		text := collapseWhitespace(node.Text())
		if len(text) >= MinContentLength {
			return text, nil
		}
	}
	return "", fmt.Errorf("no article container matched")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

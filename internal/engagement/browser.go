package engagement

import (
	"context"
	"fmt"

	"github.com/insightbr/socialharvest/internal/harvest"
)

// PageRenderer renders a page in a real browser and returns its visible
// text. Satisfied by browser.Session.
type PageRenderer interface {
	Text(ctx context.Context, pageURL string) (string, error)
}

// BrowserSource is the most expensive lookup: render the post in a
// headless browser and read the counts off the visible page. It runs last
// before the estimate fallback.
type BrowserSource struct {
	renderer PageRenderer
}

func NewBrowserSource(r PageRenderer) *BrowserSource {
	return &BrowserSource{renderer: r}
}

func (s *BrowserSource) Name() string { return "browser" }

func (s *BrowserSource) Lookup(ctx context.Context, postURL string, platform harvest.Platform) (harvest.EngagementMetrics, error) {
	text, err := s.renderer.Text(ctx, postURL)
	if err != nil {
		return harvest.EngagementMetrics{}, fmt.Errorf("render post: %w", err)
	}

	m := ParseDescription(text)
	if m.Likes == 0 && m.Comments == 0 && m.Shares == 0 && m.Views == 0 {
		return harvest.EngagementMetrics{}, fmt.Errorf("no counts visible on page")
	}
	return m, nil
}

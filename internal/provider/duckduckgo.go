package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/insightbr/socialharvest/internal/harvest"
	"github.com/insightbr/socialharvest/internal/relevance"
)

// DefaultDuckDuckGoBase is the HTML-only DuckDuckGo front end, which
// renders without JavaScript.
const DefaultDuckDuckGoBase = "https://html.duckduckgo.com"

// DuckDuckGo scrapes the HTML search front end. Keyless, paced by a
// politeness limiter.
type DuckDuckGo struct {
	base      string
	collector *colly.Collector
	limiter   *rate.Limiter
	filter    *relevance.Filter
	clock     harvest.Clock
	logger    *zap.Logger
}

func NewDuckDuckGo(base string, timeout time.Duration, qps float64, filter *relevance.Filter, clock harvest.Clock, logger *zap.Logger) *DuckDuckGo {
	if base == "" {
		base = DefaultDuckDuckGoBase
	}
	if qps <= 0 {
		qps = 0.5
	}
	c := colly.NewCollector(colly.UserAgent(userAgent))
	c.AllowURLRevisit = true
	c.SetRequestTimeout(timeout)

	return &DuckDuckGo{
		base:      base,
		collector: c,
		limiter:   rate.NewLimiter(rate.Limit(qps), 1),
		filter:    filter,
		clock:     clock,
		logger:    logger,
	}
}

func (p *DuckDuckGo) Name() string { return NameDuckDuckGo }

func (p *DuckDuckGo) Search(ctx context.Context, query harvest.SearchQuery, limit int) ([]harvest.RawResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("duckduckgo rate limit: %w", err)
	}

	limit = clampLimit(limit)
	searchURL := fmt.Sprintf("%s/html/?q=%s&kl=br-pt",
		p.base, url.QueryEscape(query.Enriched(p.clock.Now())))

	collector := p.collector.Clone()
	var results []harvest.RawResult
	var visitErr error

	collector.OnHTML("div.result", func(e *colly.HTMLElement) {
		if len(results) >= limit {
			return
		}
		link := e.ChildAttr("a.result__a", "href")
		if link == "" {
			return
		}
		results = append(results, harvest.RawResult{
			PageURL: ResolveDuckDuckGoURL(link),
			Title:   strings.TrimSpace(e.ChildText("a.result__a")),
			Snippet: strings.TrimSpace(e.ChildText("a.result__snippet")),
		})
	})
	collector.OnError(func(r *colly.Response, err error) {
		visitErr = fmt.Errorf("duckduckgo scrape: %w", err)
	})

	if err := collector.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("duckduckgo visit: %w", err)
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if visitErr != nil {
		return nil, visitErr
	}
	return screen(p.filter, NameDuckDuckGo, results), nil
}

// ResolveDuckDuckGoURL unwraps the /l/?uddg= redirect wrapper.
func ResolveDuckDuckGoURL(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return link
}

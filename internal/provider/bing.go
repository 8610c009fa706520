package provider

import (
	"context"
	"encoding/base64"
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

// DefaultBingBase is the public Bing search front end.
const DefaultBingBase = "https://www.bing.com"

// Bing scrapes the public result page. No credentials: a politeness
// limiter paces requests instead.
type Bing struct {
	base      string
	collector *colly.Collector
	limiter   *rate.Limiter
	filter    *relevance.Filter
	clock     harvest.Clock
	logger    *zap.Logger
}

// NewBing builds the scraper. qps bounds how often we hit the SERP.
func NewBing(base string, timeout time.Duration, qps float64, filter *relevance.Filter, clock harvest.Clock, logger *zap.Logger) *Bing {
	if base == "" {
		base = DefaultBingBase
	}
	if qps <= 0 {
		qps = 0.5
	}
	c := colly.NewCollector(colly.UserAgent(userAgent))
	c.AllowURLRevisit = true
	c.SetRequestTimeout(timeout)

	return &Bing{
		base:      base,
		collector: c,
		limiter:   rate.NewLimiter(rate.Limit(qps), 1),
		filter:    filter,
		clock:     clock,
		logger:    logger,
	}
}

func (p *Bing) Name() string { return NameBing }

func (p *Bing) Search(ctx context.Context, query harvest.SearchQuery, limit int) ([]harvest.RawResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("bing rate limit: %w", err)
	}

	limit = clampLimit(limit)
	searchURL := fmt.Sprintf("%s/search?q=%s&cc=%s&setlang=pt-br&count=%d",
		p.base,
		url.QueryEscape(query.Enriched(p.clock.Now())),
		countryOrDefault(query),
		limit,
	)

	collector := p.collector.Clone()
	var results []harvest.RawResult
	var visitErr error

	collector.OnHTML("li.b_algo", func(e *colly.HTMLElement) {
		if len(results) >= limit {
			return
		}
		link := e.ChildAttr("h2 a", "href")
		if link == "" {
			return
		}
		results = append(results, harvest.RawResult{
			PageURL: ResolveBingURL(link),
			Title:   strings.TrimSpace(e.ChildText("h2 a")),
			Snippet: strings.TrimSpace(e.ChildText("p")),
		})
	})
	collector.OnError(func(r *colly.Response, err error) {
		if kind := harvest.ClassifyStatus(r.StatusCode); kind == harvest.FailureRateLimited {
			visitErr = fmt.Errorf("bing throttled: status %d", r.StatusCode)
			return
		}
		visitErr = fmt.Errorf("bing scrape: %w", err)
	})

	if err := collector.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("bing visit: %w", err)
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if visitErr != nil {
		return nil, visitErr
	}
	return screen(p.filter, NameBing, results), nil
}

// ResolveBingURL unwraps Bing click-tracking redirects. The real target
// hides base64-encoded in the u parameter behind an "a1" prefix; some
// links wrap it twice.
func ResolveBingURL(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if !strings.Contains(strings.ToLower(u.Host), "bing.com") || !strings.HasPrefix(u.Path, "/ck/") {
		return link
	}

	encoded := u.Query().Get("u")
	if !strings.HasPrefix(encoded, "a1") {
		return link
	}
	decoded, ok := base64Decode(strings.TrimPrefix(encoded, "a1"))
	if !ok {
		return link
	}
	if !strings.HasPrefix(decoded, "http") {
		// Occasionally the payload is encoded a second time.
		if inner, ok := base64Decode(decoded); ok && strings.HasPrefix(inner, "http") {
			return inner
		}
		return link
	}
	return decoded
}

func base64Decode(s string) (string, bool) {
	if pad := len(s) % 4; pad != 0 {
		s += strings.Repeat("=", 4-pad)
	}
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return "", false
	}
	return string(b), true
}

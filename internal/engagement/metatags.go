package engagement

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/insightbr/socialharvest/internal/harvest"
)

// count phrases as they appear in platform meta descriptions, Portuguese
// and English forms. The capture group is fed to ParseAbbrevNumber.
var (
	likesRe    = regexp.MustCompile(`(?i)([\d.,]+\s*(?:mil|mi|m|k|b)?)\s*(?:curtidas?|likes?)`)
	commentsRe = regexp.MustCompile(`(?i)([\d.,]+\s*(?:mil|mi|m|k|b)?)\s*(?:coment[áa]rios?|comments?)`)
	viewsRe    = regexp.MustCompile(`(?i)([\d.,]+\s*(?:mil|mi|m|k|b)?)\s*(?:visualiza[çc][õo]es|views?)`)
	sharesRe   = regexp.MustCompile(`(?i)([\d.,]+\s*(?:mil|mi|m|k|b)?)\s*(?:compartilhamentos?|shares?)`)
)

// MetaTagsSource fetches the post page and reads interaction counts out
// of its meta description, where most platforms embed them for previews.
type MetaTagsSource struct {
	client *http.Client
}

func NewMetaTagsSource(timeout time.Duration) *MetaTagsSource {
	return &MetaTagsSource{client: &http.Client{Timeout: timeout}}
}

func (s *MetaTagsSource) Name() string { return "meta_tags" }

func (s *MetaTagsSource) Lookup(ctx context.Context, postURL string, platform harvest.Platform) (harvest.EngagementMetrics, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, postURL, nil)
	if err != nil {
		return harvest.EngagementMetrics{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return harvest.EngagementMetrics{}, fmt.Errorf("fetch post page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return harvest.EngagementMetrics{}, fmt.Errorf("post page status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return harvest.EngagementMetrics{}, fmt.Errorf("read post page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return harvest.EngagementMetrics{}, fmt.Errorf("parse post page: %w", err)
	}

	desc, _ := doc.Find(`meta[property="og:description"]`).Attr("content")
	if desc == "" {
		desc, _ = doc.Find(`meta[name="description"]`).Attr("content")
	}
	if desc == "" {
		return harvest.EngagementMetrics{}, fmt.Errorf("no meta description")
	}

	m := ParseDescription(desc)
	if author, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && m.Author == "" {
		m.Author = author
	}
	return m, nil
}

// ParseDescription pulls interaction counts out of a meta description.
func ParseDescription(desc string) harvest.EngagementMetrics {
	var m harvest.EngagementMetrics
	if g := likesRe.FindStringSubmatch(desc); g != nil {
		m.Likes = ParseAbbrevNumber(g[1])
	}
	if g := commentsRe.FindStringSubmatch(desc); g != nil {
		m.Comments = ParseAbbrevNumber(g[1])
	}
	if g := viewsRe.FindStringSubmatch(desc); g != nil {
		m.Views = ParseAbbrevNumber(g[1])
	}
	if g := sharesRe.FindStringSubmatch(desc); g != nil {
		m.Shares = ParseAbbrevNumber(g[1])
	}
	return m
}

const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:126.0) Gecko/20100101 Firefox/126.0"

const maxBodyBytes = 2 << 20

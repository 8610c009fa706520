package engagement

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/insightbr/socialharvest/internal/harvest"
)

// oEmbed endpoints that need no API key.
var oembedEndpoints = map[harvest.Platform]string{
	harvest.PlatformYouTube: "https://www.youtube.com/oembed",
	harvest.PlatformTikTok:  "https://www.tiktok.com/oembed",
}

// OEmbedSource resolves the post author via the platform's public oEmbed
// endpoint. It never yields counts on its own; the analyzer carries the
// author into whichever later source wins.
type OEmbedSource struct {
	client    *http.Client
	endpoints map[harvest.Platform]string
}

// NewOEmbedSource builds the source. A nil endpoints map selects the
// public endpoints.
func NewOEmbedSource(timeout time.Duration, endpoints map[harvest.Platform]string) *OEmbedSource {
	if endpoints == nil {
		endpoints = oembedEndpoints
	}
	return &OEmbedSource{client: &http.Client{Timeout: timeout}, endpoints: endpoints}
}

func (s *OEmbedSource) Name() string { return "oembed" }

func (s *OEmbedSource) Lookup(ctx context.Context, postURL string, platform harvest.Platform) (harvest.EngagementMetrics, error) {
	endpoint, ok := s.endpoints[platform]
	if !ok {
		return harvest.EngagementMetrics{}, fmt.Errorf("no oembed endpoint for %s", platform)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		endpoint+"?format=json&url="+url.QueryEscape(postURL), nil)
	if err != nil {
		return harvest.EngagementMetrics{}, fmt.Errorf("build oembed request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return harvest.EngagementMetrics{}, fmt.Errorf("oembed fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return harvest.EngagementMetrics{}, fmt.Errorf("oembed status %d", resp.StatusCode)
	}

	var doc struct {
		AuthorName string `json:"author_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return harvest.EngagementMetrics{}, fmt.Errorf("decode oembed: %w", err)
	}

	return harvest.EngagementMetrics{Author: doc.AuthorName}, nil
}

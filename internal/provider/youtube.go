package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/insightbr/socialharvest/internal/harvest"
	"github.com/insightbr/socialharvest/internal/relevance"
)

// DefaultYouTubeBase is the YouTube Data API v3 root.
const DefaultYouTubeBase = "https://www.googleapis.com/youtube/v3"

// YouTube searches videos through the Data API.
type YouTube struct {
	base   string
	client *http.Client
	creds  harvest.CredentialSource
	filter *relevance.Filter
	clock  harvest.Clock
	logger *zap.Logger
}

func NewYouTube(base string, timeout time.Duration, creds harvest.CredentialSource, filter *relevance.Filter, clock harvest.Clock, logger *zap.Logger) *YouTube {
	if base == "" {
		base = DefaultYouTubeBase
	}
	return &YouTube{
		base:   base,
		client: &http.Client{Timeout: timeout},
		creds:  creds,
		filter: filter,
		clock:  clock,
		logger: logger,
	}
}

func (p *YouTube) Name() string { return NameYouTube }

func (p *YouTube) Search(ctx context.Context, query harvest.SearchQuery, limit int) ([]harvest.RawResult, error) {
	cred, ok := p.creds.Next(NameYouTube)
	if !ok {
		p.logger.Warn("youtube credentials exhausted")
		return nil, nil
	}

	params := url.Values{
		"part":              {"snippet"},
		"type":              {"video"},
		"q":                 {query.Enriched(p.clock.Now())},
		"maxResults":        {strconv.Itoa(clampLimit(limit))},
		"key":               {cred.Secret},
		"relevanceLanguage": {"pt"},
		"regionCode":        {"BR"},
		"order":             {"relevance"},
	}
	if query.RecencyDays > 0 {
		after := p.clock.Now().AddDate(0, 0, -query.RecencyDays)
		params.Set("publishedAfter", after.UTC().Format(time.RFC3339))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build youtube request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.creds.ReportFailure(NameYouTube, cred, harvest.FailureTransient)
		return nil, fmt.Errorf("youtube call: %w", err)
	}
	defer resp.Body.Close()

	if kind := harvest.ClassifyStatus(resp.StatusCode); kind != "" {
		p.creds.ReportFailure(NameYouTube, cred, kind)
		return nil, fmt.Errorf("youtube status %d", resp.StatusCode)
	}
	p.creds.ReportSuccess(NameYouTube, cred)

	var body struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title       string `json:"title"`
				Description string `json:"description"`
				Thumbnails  struct {
					High struct {
						URL string `json:"url"`
					} `json:"high"`
				} `json:"thumbnails"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode youtube response: %w", err)
	}

	results := make([]harvest.RawResult, 0, len(body.Items))
	for _, item := range body.Items {
		if item.ID.VideoID == "" {
			continue
		}
		results = append(results, harvest.RawResult{
			PageURL:  "https://www.youtube.com/watch?v=" + item.ID.VideoID,
			ImageURL: item.Snippet.Thumbnails.High.URL,
			Title:    item.Snippet.Title,
			Snippet:  item.Snippet.Description,
		})
	}
	return screen(p.filter, NameYouTube, results), nil
}

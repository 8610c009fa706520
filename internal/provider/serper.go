package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/insightbr/socialharvest/internal/harvest"
	"github.com/insightbr/socialharvest/internal/relevance"
)

// DefaultSerperBase is the serper.dev Google SERP API root.
const DefaultSerperBase = "https://google.serper.dev"

// Serper searches Google through the serper.dev API.
type Serper struct {
	base   string
	client *http.Client
	creds  harvest.CredentialSource
	filter *relevance.Filter
	clock  harvest.Clock
	logger *zap.Logger
}

// NewSerper builds the provider. An empty base selects the public API.
func NewSerper(base string, timeout time.Duration, creds harvest.CredentialSource, filter *relevance.Filter, clock harvest.Clock, logger *zap.Logger) *Serper {
	if base == "" {
		base = DefaultSerperBase
	}
	return &Serper{
		base:   base,
		client: &http.Client{Timeout: timeout},
		creds:  creds,
		filter: filter,
		clock:  clock,
		logger: logger,
	}
}

func (p *Serper) Name() string { return NameSerper }

// Search implements harvest.Provider. An exhausted credential pool yields
// an empty result set, not an error.
func (p *Serper) Search(ctx context.Context, query harvest.SearchQuery, limit int) ([]harvest.RawResult, error) {
	cred, ok := p.creds.Next(NameSerper)
	if !ok {
		p.logger.Warn("serper credentials exhausted")
		return nil, nil
	}

	payload, err := json.Marshal(map[string]any{
		"q":   query.Enriched(p.clock.Now()),
		"gl":  countryOrDefault(query),
		"hl":  "pt-br",
		"num": clampLimit(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal serper payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.base+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build serper request: %w", err)
	}
	req.Header.Set("X-API-KEY", cred.Secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.creds.ReportFailure(NameSerper, cred, harvest.FailureTransient)
		return nil, fmt.Errorf("serper call: %w", err)
	}
	defer resp.Body.Close()

	if kind := harvest.ClassifyStatus(resp.StatusCode); kind != "" {
		p.creds.ReportFailure(NameSerper, cred, kind)
		return nil, fmt.Errorf("serper status %d", resp.StatusCode)
	}
	p.creds.ReportSuccess(NameSerper, cred)

	var body struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode serper response: %w", err)
	}

	results := make([]harvest.RawResult, 0, len(body.Organic))
	for _, item := range body.Organic {
		results = append(results, harvest.RawResult{
			PageURL: item.Link,
			Title:   item.Title,
			Snippet: item.Snippet,
		})
	}
	return screen(p.filter, NameSerper, results), nil
}

func countryOrDefault(q harvest.SearchQuery) string {
	if q.Country != "" {
		return q.Country
	}
	return "br"
}

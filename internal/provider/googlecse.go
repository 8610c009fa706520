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

// DefaultGoogleCSEBase is the Custom Search JSON API root.
const DefaultGoogleCSEBase = "https://www.googleapis.com/customsearch/v1"

// GoogleCSE searches through a Google Programmable Search Engine. The
// credential's Extra field carries the engine ID (cx).
type GoogleCSE struct {
	base   string
	client *http.Client
	creds  harvest.CredentialSource
	filter *relevance.Filter
	clock  harvest.Clock
	logger *zap.Logger
}

func NewGoogleCSE(base string, timeout time.Duration, creds harvest.CredentialSource, filter *relevance.Filter, clock harvest.Clock, logger *zap.Logger) *GoogleCSE {
	if base == "" {
		base = DefaultGoogleCSEBase
	}
	return &GoogleCSE{
		base:   base,
		client: &http.Client{Timeout: timeout},
		creds:  creds,
		filter: filter,
		clock:  clock,
		logger: logger,
	}
}

func (p *GoogleCSE) Name() string { return NameGoogleCSE }

func (p *GoogleCSE) Search(ctx context.Context, query harvest.SearchQuery, limit int) ([]harvest.RawResult, error) {
	cred, ok := p.creds.Next(NameGoogleCSE)
	if !ok {
		p.logger.Warn("google cse credentials exhausted")
		return nil, nil
	}

	// The API caps num at 10 regardless of our limit.
	num := clampLimit(limit)
	if num > 10 {
		num = 10
	}

	params := url.Values{
		"key": {cred.Secret},
		"cx":  {cred.Extra},
		"q":   {query.Enriched(p.clock.Now())},
		"num": {strconv.Itoa(num)},
		"gl":  {countryOrDefault(query)},
		"lr":  {"lang_pt"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build cse request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.creds.ReportFailure(NameGoogleCSE, cred, harvest.FailureTransient)
		return nil, fmt.Errorf("cse call: %w", err)
	}
	defer resp.Body.Close()

	if kind := harvest.ClassifyStatus(resp.StatusCode); kind != "" {
		p.creds.ReportFailure(NameGoogleCSE, cred, kind)
		return nil, fmt.Errorf("cse status %d", resp.StatusCode)
	}
	p.creds.ReportSuccess(NameGoogleCSE, cred)

	var body struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
			Pagemap struct {
				CSEImage []struct {
					Src string `json:"src"`
				} `json:"cse_image"`
			} `json:"pagemap"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode cse response: %w", err)
	}

	results := make([]harvest.RawResult, 0, len(body.Items))
	for _, item := range body.Items {
		r := harvest.RawResult{
			PageURL: item.Link,
			Title:   item.Title,
			Snippet: item.Snippet,
		}
		if len(item.Pagemap.CSEImage) > 0 {
			r.ImageURL = item.Pagemap.CSEImage[0].Src
		}
		results = append(results, r)
	}
	return screen(p.filter, NameGoogleCSE, results), nil
}

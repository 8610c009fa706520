package engagement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/insightbr/socialharvest/internal/harvest"
)

// DefaultApifyBase is the Apify platform API root.
const DefaultApifyBase = "https://api.apify.com"

// actor IDs of the scrapers we run per platform.
var apifyActors = map[harvest.Platform]string{
	harvest.PlatformInstagram: "apify~instagram-scraper",
	harvest.PlatformFacebook:  "apify~facebook-posts-scraper",
	harvest.PlatformTikTok:    "clockworks~tiktok-scraper",
}

// ApifySource runs a scraping actor synchronously and reads the counts
// from its dataset output. Tokens rotate through the credential pool
// under the "apify" provider name.
type ApifySource struct {
	base   string
	client *http.Client
	creds  harvest.CredentialSource
}

// NewApifySource builds the source. An empty base selects the public API.
func NewApifySource(base string, timeout time.Duration, creds harvest.CredentialSource) *ApifySource {
	if base == "" {
		base = DefaultApifyBase
	}
	return &ApifySource{base: base, client: &http.Client{Timeout: timeout}, creds: creds}
}

func (s *ApifySource) Name() string { return "apify" }

func (s *ApifySource) Lookup(ctx context.Context, postURL string, platform harvest.Platform) (harvest.EngagementMetrics, error) {
	actor, ok := apifyActors[platform]
	if !ok {
		return harvest.EngagementMetrics{}, fmt.Errorf("no actor for platform %s", platform)
	}

	cred, ok := s.creds.Next("apify")
	if !ok {
		return harvest.EngagementMetrics{}, harvest.ErrNoCredentials
	}

	input, err := json.Marshal(map[string]any{
		"directUrls":   []string{postURL},
		"resultsLimit": 1,
	})
	if err != nil {
		return harvest.EngagementMetrics{}, fmt.Errorf("marshal actor input: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items?token=%s&timeout=60", s.base, actor, cred.Secret)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(input))
	if err != nil {
		return harvest.EngagementMetrics{}, fmt.Errorf("build actor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.creds.ReportFailure("apify", cred, harvest.FailureTransient)
		return harvest.EngagementMetrics{}, fmt.Errorf("actor call: %w", err)
	}
	defer resp.Body.Close()

	if kind := harvest.ClassifyStatus(resp.StatusCode); kind != "" {
		s.creds.ReportFailure("apify", cred, kind)
		return harvest.EngagementMetrics{}, fmt.Errorf("actor status %d", resp.StatusCode)
	}
	s.creds.ReportSuccess("apify", cred)

	var items []struct {
		LikesCount     int64  `json:"likesCount"`
		CommentsCount  int64  `json:"commentsCount"`
		SharesCount    int64  `json:"sharesCount"`
		VideoViewCount int64  `json:"videoViewCount"`
		OwnerUsername  string `json:"ownerUsername"`
		Timestamp      string `json:"timestamp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return harvest.EngagementMetrics{}, fmt.Errorf("decode dataset: %w", err)
	}
	if len(items) == 0 {
		return harvest.EngagementMetrics{}, fmt.Errorf("empty dataset for %s", postURL)
	}

	item := items[0]
	m := harvest.EngagementMetrics{
		Likes:    item.LikesCount,
		Comments: item.CommentsCount,
		Shares:   item.SharesCount,
		Views:    item.VideoViewCount,
		Author:   item.OwnerUsername,
	}
	if ts, err := time.Parse(time.RFC3339, item.Timestamp); err == nil {
		m.PostDate = ts.Format(time.RFC3339)
	}
	return m, nil
}

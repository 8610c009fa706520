// Package harvest defines core types shared across the acquisition pipeline.
package harvest

import "time"

// RunState represents the lifecycle state of an acquisition run.
type RunState string

// Run states the orchestrator moves through. Degraded is a side-state: the
// run still finishes, but every provider came back empty.
const (
	StateIdle        RunState = "idle"
	StateSearching   RunState = "searching"
	StateExtracting  RunState = "extracting"
	StateScoring     RunState = "scoring"
	StateAggregating RunState = "aggregating"
	StateDone        RunState = "done"
	StateDegraded    RunState = "degraded"
)

// SearchQuery is an immutable query plus provider-agnostic search hints.
type SearchQuery struct {
	Text        string `json:"text"`
	Locale      string `json:"locale,omitempty"`       // e.g. "pt-BR"
	Country     string `json:"country,omitempty"`      // e.g. "br"
	RecencyDays int    `json:"recency_days,omitempty"` // 0 means no recency hint
}

// QueryContext carries the product/audience context a run was started with.
// Extraction quality scoring counts hits of these terms.
type QueryContext struct {
	Segment  string `json:"segment,omitempty"`
	Product  string `json:"product,omitempty"`
	Audience string `json:"audience,omitempty"`
}

// Terms returns the non-empty context terms, lowercasing left to callers.
func (c QueryContext) Terms() []string {
	var terms []string
	for _, t := range []string{c.Segment, c.Product, c.Audience} {
		if t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// RawResult is a single provider hit. Never mutated after creation.
type RawResult struct {
	Provider string `json:"provider"`
	PageURL  string `json:"page_url"`
	ImageURL string `json:"image_url,omitempty"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
}

// ExtractedContent is the output of the extraction cascade for one URL.
// At most one per URL per run; the first strategy clearing the minimum
// length threshold wins.
type ExtractedContent struct {
	URL         string    `json:"url"`
	Text        string    `json:"text"`
	Strategy    string    `json:"strategy"`
	Length      int       `json:"length"`
	WordCount   int       `json:"word_count"`
	Quality     int       `json:"quality"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// EngagementMetrics holds best-effort social metrics. Fields default to
// zero when a data source cannot supply them.
type EngagementMetrics struct {
	Likes           int64    `json:"likes"`
	Comments        int64    `json:"comments"`
	Shares          int64    `json:"shares"`
	Views           int64    `json:"views"`
	AuthorFollowers int64    `json:"author_followers"`
	Author          string   `json:"author,omitempty"`
	PostDate        string   `json:"post_date,omitempty"`
	Hashtags        []string `json:"hashtags,omitempty"`
	Source          string   `json:"source,omitempty"` // strategy that produced the metrics
}

// RankedItem is one surviving canonical URL after extraction and scoring.
// Created once, immutable, ordered by descending ViralScore in the output.
type RankedItem struct {
	Result     RawResult         `json:"result"`
	Content    *ExtractedContent `json:"content,omitempty"`
	Metrics    EngagementMetrics `json:"metrics"`
	Platform   Platform          `json:"platform"`
	ViralScore float64           `json:"viral_score"`
	Insights   []string          `json:"insights,omitempty"`
}

// RunStatistics aggregates counters for a single run. Mutated only by the
// orchestrator; reset at run start.
type RunStatistics struct {
	TotalSearches        int      `json:"total_searches"`
	ProvidersUsed        []string `json:"providers_used"`
	BlockedURLs          int      `json:"blocked_urls"`
	DuplicatesDropped    int      `json:"duplicates_dropped"`
	ExtractionSuccesses  int      `json:"extraction_successes"`
	ExtractionFailures   int      `json:"extraction_failures"`
	TotalContentChars    int      `json:"total_content_chars"`
	AverageQuality       float64  `json:"average_quality"`
	CredentialsExhausted int      `json:"credentials_exhausted"`
}

// AggregateResult is what a run hands back to the report/job layer. Callers
// always receive one of these for query-time failures, never an error.
type AggregateResult struct {
	RunID          string        `json:"run_id"`
	Query          SearchQuery   `json:"query"`
	Context        QueryContext  `json:"context"`
	RankedItems    []RankedItem  `json:"ranked_items"`
	Statistics     RunStatistics `json:"statistics"`
	Degraded       bool          `json:"degraded"`
	DegradedReason string        `json:"degraded_reason,omitempty"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
}

// RunRecord is the row persisted per run for the job layer to poll.
type RunRecord struct {
	ID          string        `json:"id"`
	QueryText   string        `json:"query_text"`
	State       RunState      `json:"state"`
	Degraded    bool          `json:"degraded"`
	ItemCount   int           `json:"item_count"`
	Statistics  RunStatistics `json:"statistics"`
	ArtifactURI string        `json:"artifact_uri,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`
}

// Package report renders a finished run into the persisted JSON document
// consumed by downstream dashboards. Field names here are a contract:
// readers exist outside this repo.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/insightbr/socialharvest/internal/harvest"
)

// TopPerformerCount is how many leading items the summary carries.
const TopPerformerCount = 5

// Document is the persisted shape of a run.
type Document struct {
	Query                string                   `json:"query"`
	ExtractedAt          time.Time                `json:"extracted_at"`
	TotalContent         int                      `json:"total_content"`
	Metrics              Metrics                  `json:"metrics"`
	PlatformDistribution map[string]PlatformStats `json:"platform_distribution"`
	TopPerformers        []Item                   `json:"top_performers"`
	AllContent           []Item                   `json:"all_content"`
	Degraded             bool                     `json:"degraded,omitempty"`
	DegradedReason       string                   `json:"degraded_reason,omitempty"`
}

// Metrics aggregates engagement across the whole run.
type Metrics struct {
	TotalEngagementScore float64 `json:"total_engagement_score"`
	AverageEngagement    float64 `json:"average_engagement"`
	HighestEngagement    float64 `json:"highest_engagement"`
	TotalEstimatedViews  int64   `json:"total_estimated_views"`
	TotalEstimatedLikes  int64   `json:"total_estimated_likes"`
}

// PlatformStats aggregates per platform.
type PlatformStats struct {
	Count      int     `json:"count"`
	Engagement float64 `json:"engagement"`
	Views      int64   `json:"views"`
	Likes      int64   `json:"likes"`
}

// Item is one ranked result in the document.
type Item struct {
	URL               string   `json:"url"`
	Title             string   `json:"title"`
	Snippet           string   `json:"snippet,omitempty"`
	Provider          string   `json:"provider"`
	Platform          string   `json:"platform"`
	Author            string   `json:"author,omitempty"`
	Content           string   `json:"content,omitempty"`
	ExtractionMethod  string   `json:"extraction_method,omitempty"`
	QualityScore      int      `json:"quality_score"`
	EngagementScore   float64  `json:"engagement_score"`
	EstimatedLikes    int64    `json:"estimated_likes"`
	EstimatedComments int64    `json:"estimated_comments"`
	EstimatedShares   int64    `json:"estimated_shares"`
	EstimatedViews    int64    `json:"estimated_views"`
	Insights          []string `json:"insights,omitempty"`
}

// Build converts an aggregate result into the persisted document. Item
// order follows the run's ranking; a degraded run yields a valid document
// with empty collections.
func Build(res harvest.AggregateResult) Document {
	doc := Document{
		Query:                res.Query.Text,
		ExtractedAt:          res.FinishedAt,
		TotalContent:         len(res.RankedItems),
		PlatformDistribution: make(map[string]PlatformStats),
		TopPerformers:        []Item{},
		AllContent:           []Item{},
		Degraded:             res.Degraded,
		DegradedReason:       res.DegradedReason,
	}

	for _, ranked := range res.RankedItems {
		item := toItem(ranked)
		doc.AllContent = append(doc.AllContent, item)

		doc.Metrics.TotalEngagementScore += ranked.ViralScore
		if ranked.ViralScore > doc.Metrics.HighestEngagement {
			doc.Metrics.HighestEngagement = ranked.ViralScore
		}
		doc.Metrics.TotalEstimatedViews += ranked.Metrics.Views
		doc.Metrics.TotalEstimatedLikes += ranked.Metrics.Likes

		stats := doc.PlatformDistribution[string(ranked.Platform)]
		stats.Count++
		stats.Engagement = round2(stats.Engagement + ranked.ViralScore)
		stats.Views += ranked.Metrics.Views
		stats.Likes += ranked.Metrics.Likes
		doc.PlatformDistribution[string(ranked.Platform)] = stats
	}

	doc.Metrics.TotalEngagementScore = round2(doc.Metrics.TotalEngagementScore)
	if n := len(res.RankedItems); n > 0 {
		doc.Metrics.AverageEngagement = round2(doc.Metrics.TotalEngagementScore / float64(n))
	}

	top := len(doc.AllContent)
	if top > TopPerformerCount {
		top = TopPerformerCount
	}
	doc.TopPerformers = append(doc.TopPerformers, doc.AllContent[:top]...)

	return doc
}

func toItem(r harvest.RankedItem) Item {
	item := Item{
		URL:               r.Result.PageURL,
		Title:             r.Result.Title,
		Snippet:           r.Result.Snippet,
		Provider:          r.Result.Provider,
		Platform:          string(r.Platform),
		Author:            r.Metrics.Author,
		QualityScore:      0,
		EngagementScore:   r.ViralScore,
		EstimatedLikes:    r.Metrics.Likes,
		EstimatedComments: r.Metrics.Comments,
		EstimatedShares:   r.Metrics.Shares,
		EstimatedViews:    r.Metrics.Views,
		Insights:          r.Insights,
	}
	if r.Content != nil {
		item.Content = r.Content.Text
		item.ExtractionMethod = r.Content.Strategy
		item.QualityScore = r.Content.Quality
	}
	return item
}

// Persist writes the document through the artifact store and returns its
// URI. Artifacts are grouped by day so retention can prune whole folders.
func Persist(ctx context.Context, store harvest.ArtifactStore, runID string, doc Document) (string, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	path := fmt.Sprintf("runs/%s/%s.json", doc.ExtractedAt.UTC().Format("2006-01-02"), runID)
	uri, err := store.Put(ctx, path, "application/json", data)
	if err != nil {
		return "", fmt.Errorf("persist report: %w", err)
	}
	return uri, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

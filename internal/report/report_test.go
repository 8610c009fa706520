package report

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/insightbr/socialharvest/internal/harvest"
)

func rankedItem(url string, platform harvest.Platform, score float64, likes, views int64) harvest.RankedItem {
	return harvest.RankedItem{
		Result:     harvest.RawResult{Provider: "p", PageURL: url, Title: "t"},
		Platform:   platform,
		ViralScore: score,
		Metrics:    harvest.EngagementMetrics{Likes: likes, Views: views},
	}
}

func sampleResult() harvest.AggregateResult {
	res := harvest.AggregateResult{
		Query:      harvest.SearchQuery{Text: "curso de marketing"},
		FinishedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	for i := 0; i < 7; i++ {
		platform := harvest.PlatformWeb
		if i%2 == 0 {
			platform = harvest.PlatformInstagram
		}
		res.RankedItems = append(res.RankedItems,
			rankedItem(fmt.Sprintf("https://e.example/%d", i), platform, float64(70-i*10), 100, 1000))
	}
	return res
}

func TestBuildAggregates(t *testing.T) {
	t.Parallel()

	doc := Build(sampleResult())

	require.Equal(t, "curso de marketing", doc.Query)
	require.Equal(t, 7, doc.TotalContent)
	require.Len(t, doc.AllContent, 7)
	require.Len(t, doc.TopPerformers, TopPerformerCount)

	// Top performers are the first five in ranking order.
	for i, item := range doc.TopPerformers {
		require.Equal(t, doc.AllContent[i].URL, item.URL)
	}

	require.Equal(t, 70.0, doc.Metrics.HighestEngagement)
	require.Equal(t, 280.0, doc.Metrics.TotalEngagementScore)
	require.Equal(t, 40.0, doc.Metrics.AverageEngagement)
	require.Equal(t, int64(700), doc.Metrics.TotalEstimatedLikes)
	require.Equal(t, int64(7000), doc.Metrics.TotalEstimatedViews)

	require.Equal(t, 4, doc.PlatformDistribution["instagram"].Count)
	require.Equal(t, 3, doc.PlatformDistribution["web"].Count)
	require.Equal(t, int64(400), doc.PlatformDistribution["instagram"].Likes)
}

func TestBuildDegradedRun(t *testing.T) {
	t.Parallel()

	doc := Build(harvest.AggregateResult{
		Query:          harvest.SearchQuery{Text: "x"},
		RankedItems:    []harvest.RankedItem{},
		Degraded:       true,
		DegradedReason: "no provider returned results",
	})

	require.True(t, doc.Degraded)
	require.Zero(t, doc.TotalContent)
	require.NotNil(t, doc.AllContent)
	require.NotNil(t, doc.TopPerformers)
	require.Zero(t, doc.Metrics.AverageEngagement)
}

func TestDocumentRoundTrip(t *testing.T) {
	t.Parallel()

	doc := Build(sampleResult())

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	// Contract field names.
	for _, field := range []string{
		`"query"`, `"extracted_at"`, `"total_content"`,
		`"total_engagement_score"`, `"average_engagement"`, `"highest_engagement"`,
		`"total_estimated_views"`, `"total_estimated_likes"`,
		`"platform_distribution"`, `"top_performers"`, `"all_content"`,
	} {
		require.Contains(t, string(data), field)
	}

	var back Document
	require.NoError(t, json.Unmarshal(data, &back))

	// Order of top performers and per-platform counts survive.
	require.Equal(t, doc.TopPerformers, back.TopPerformers)
	require.Equal(t, doc.PlatformDistribution, back.PlatformDistribution)
	require.Equal(t, doc.Metrics, back.Metrics)
}

type memStore struct {
	paths map[string][]byte
}

func (s *memStore) Put(ctx context.Context, path, contentType string, data []byte) (string, error) {
	if s.paths == nil {
		s.paths = map[string][]byte{}
	}
	s.paths[path] = data
	return "mem://" + path, nil
}

func TestPersist(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	doc := Build(sampleResult())

	uri, err := Persist(context.Background(), store, "run-123", doc)
	require.NoError(t, err)
	require.Equal(t, "mem://runs/2024-06-01/run-123.json", uri)

	var back Document
	require.NoError(t, json.Unmarshal(store.paths["runs/2024-06-01/run-123.json"], &back))
	require.Equal(t, doc.Query, back.Query)
}

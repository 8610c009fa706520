package engagement

import (
	"context"

	"go.uber.org/zap"

	"github.com/insightbr/socialharvest/internal/harvest"
)

// Source is one way of looking up live metrics for a post.
type Source interface {
	Name() string
	Lookup(ctx context.Context, postURL string, platform harvest.Platform) (harvest.EngagementMetrics, error)
}

// Analyzer tries sources in order and falls back to platform estimates
// when all of them fail. Analyze never returns an error for social URLs:
// worst case the caller gets an estimate.
type Analyzer struct {
	sources []Source
	logger  *zap.Logger
}

// NewAnalyzer wires an analyzer. Sources run in the given order.
func NewAnalyzer(sources []Source, logger *zap.Logger) *Analyzer {
	return &Analyzer{sources: sources, logger: logger}
}

// Analyze implements harvest.EngagementAnalyzer.
func (a *Analyzer) Analyze(ctx context.Context, postURL string, platform harvest.Platform) (harvest.EngagementMetrics, error) {
	if !harvest.IsSocialPost(postURL) {
		return harvest.EngagementMetrics{Source: "none"}, nil
	}

	// Author details found by a source that had no counts are carried
	// into whatever later source (or the estimate) wins.
	var author string
	var followers int64

	for _, src := range a.sources {
		if err := ctx.Err(); err != nil {
			return harvest.EngagementMetrics{}, err
		}

		m, err := src.Lookup(ctx, postURL, platform)
		if err != nil {
			a.logger.Debug("engagement source failed",
				zap.String("source", src.Name()),
				zap.String("url", postURL),
				zap.Error(err),
			)
			continue
		}
		if m.Author != "" && author == "" {
			author = m.Author
		}
		if m.AuthorFollowers > 0 && followers == 0 {
			followers = m.AuthorFollowers
		}
		if m.Likes == 0 && m.Comments == 0 && m.Shares == 0 && m.Views == 0 {
			continue
		}
		m.Source = src.Name()
		fillAuthor(&m, author, followers)
		return m, nil
	}

	m := Estimate(postURL, platform)
	fillAuthor(&m, author, followers)
	return m, nil
}

func fillAuthor(m *harvest.EngagementMetrics, author string, followers int64) {
	if m.Author == "" {
		m.Author = author
	}
	if m.AuthorFollowers == 0 {
		m.AuthorFollowers = followers
	}
}

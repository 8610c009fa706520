// Package extract turns page URLs into usable text. A cascade of
// strategies runs in order from highest fidelity to crudest fallback; the
// first one that yields enough content wins and the rest never run.
package extract

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/insightbr/socialharvest/internal/harvest"
)

// MinContentLength is the character threshold below which a strategy's
// output is treated as a failure and the cascade moves on.
const MinContentLength = 300

// Strategy is one way of obtaining text from a URL.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, pageURL string) (string, error)
}

// Cascade runs strategies in order and returns the first sufficient
// result, scored for quality against the run's query context.
type Cascade struct {
	strategies []Strategy
	qctx       harvest.QueryContext
	clock      harvest.Clock
	logger     *zap.Logger
}

// NewCascade wires a cascade. Strategies run in the given order.
func NewCascade(strategies []Strategy, qctx harvest.QueryContext, clock harvest.Clock, logger *zap.Logger) *Cascade {
	return &Cascade{strategies: strategies, qctx: qctx, clock: clock, logger: logger}
}

// DefaultStrategies builds the production strategy order: remote reader
// service, readability, article heuristic, naive tag strip.
func DefaultStrategies(httpTimeout time.Duration, jinaBase string) []Strategy {
	fetcher := newFetcher(httpTimeout)
	return []Strategy{
		NewJinaStrategy(jinaBase, httpTimeout),
		NewReadabilityStrategy(fetcher),
		NewArticleStrategy(fetcher),
		NewPlainTextStrategy(fetcher),
	}
}

// Extract implements harvest.Extractor. It returns harvest.ErrNoContent
// when every strategy failed or fell short of MinContentLength.
func (c *Cascade) Extract(ctx context.Context, pageURL string) (*harvest.ExtractedContent, error) {
	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := s.Extract(ctx, pageURL)
		if err != nil {
			c.logger.Debug("extraction strategy failed",
				zap.String("strategy", s.Name()),
				zap.String("url", pageURL),
				zap.Error(err),
			)
			continue
		}

		text = strings.TrimSpace(text)
		if len(text) < MinContentLength {
			c.logger.Debug("extraction strategy too short",
				zap.String("strategy", s.Name()),
				zap.String("url", pageURL),
				zap.Int("length", len(text)),
			)
			continue
		}

		return &harvest.ExtractedContent{
			URL:         pageURL,
			Text:        text,
			Strategy:    s.Name(),
			Length:      len(text),
			WordCount:   len(strings.Fields(text)),
			Quality:     ScoreQuality(text, pageURL, c.qctx.Terms()),
			ExtractedAt: c.clock.Now(),
		}, nil
	}
	return nil, harvest.ErrNoContent
}

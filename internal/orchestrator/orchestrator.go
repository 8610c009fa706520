// Package orchestrator drives a harvest run end to end: concurrent
// provider searches, merge and dedupe, a bounded extraction/scoring
// pipeline, and final ranking. A run degrades instead of failing when
// every provider comes back empty.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/insightbr/socialharvest/internal/dedup"
	"github.com/insightbr/socialharvest/internal/engagement"
	"github.com/insightbr/socialharvest/internal/harvest"
	"github.com/insightbr/socialharvest/internal/metrics"
	"github.com/insightbr/socialharvest/internal/progress"
	"github.com/insightbr/socialharvest/internal/relevance"
)

// Defaults applied by New when the config leaves a field zero.
const (
	DefaultResultsPerProvider = 10
	DefaultProviderTimeout    = 15 * time.Second
	DefaultPipelineWorkers    = 3
)

// Config sizes a run.
type Config struct {
	ResultsPerProvider int
	ProviderTimeout    time.Duration
	PipelineWorkers    int
}

// Deps are the collaborators a run needs.
type Deps struct {
	Providers    []harvest.Provider
	NewExtractor func(harvest.QueryContext) harvest.Extractor
	Analyzer     harvest.EngagementAnalyzer
	Annotator    harvest.Annotator // optional
	Filter       *relevance.Filter // optional
	Credentials  harvest.CredentialSource
	Clock        harvest.Clock
	Broker       *progress.Broker // optional
	Logger       *zap.Logger
}

// Orchestrator runs harvest pipelines. Safe for concurrent runs.
type Orchestrator struct {
	cfg  Config
	deps Deps
}

// credentialCounter is implemented by pools that can report exhaustion.
type credentialCounter interface {
	Size() int
	Providers() []string
	Exhausted(provider string) bool
}

// New validates the wiring. Zero configured credentials is the one fatal
// construction error: the pipeline could never search anything.
func New(cfg Config, deps Deps) (*Orchestrator, error) {
	if len(deps.Providers) == 0 {
		return nil, errors.New("orchestrator needs at least one provider")
	}
	if deps.NewExtractor == nil {
		return nil, errors.New("orchestrator needs an extractor factory")
	}
	if deps.Analyzer == nil {
		return nil, errors.New("orchestrator needs an engagement analyzer")
	}
	if deps.Clock == nil {
		return nil, errors.New("orchestrator needs a clock")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if counter, ok := deps.Credentials.(credentialCounter); ok && counter.Size() == 0 {
		return nil, fmt.Errorf("orchestrator: %w", harvest.ErrNoCredentials)
	}

	if cfg.ResultsPerProvider <= 0 {
		cfg.ResultsPerProvider = DefaultResultsPerProvider
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = DefaultProviderTimeout
	}
	if cfg.PipelineWorkers <= 0 {
		cfg.PipelineWorkers = DefaultPipelineWorkers
	}
	return &Orchestrator{cfg: cfg, deps: deps}, nil
}

// Run executes one harvest under a fresh run ID. It only returns an
// error when the context is cancelled; an empty internet yields a
// degraded result, not a failure.
func (o *Orchestrator) Run(ctx context.Context, query harvest.SearchQuery, qctx harvest.QueryContext) (harvest.AggregateResult, error) {
	return o.RunWithID(ctx, uuid.NewString(), query, qctx)
}

// RunWithID executes one harvest under a caller-chosen run ID, letting
// the job layer register the run before it finishes.
func (o *Orchestrator) RunWithID(ctx context.Context, runID string, query harvest.SearchQuery, qctx harvest.QueryContext) (harvest.AggregateResult, error) {
	started := o.deps.Clock.Now()
	timer := time.Now()
	defer func() { metrics.RunDuration.Observe(time.Since(timer).Seconds()) }()

	res := harvest.AggregateResult{
		RunID:       runID,
		Query:       query,
		Context:     qctx,
		RankedItems: []harvest.RankedItem{},
		StartedAt:   started,
	}
	res.Statistics.TotalSearches = len(o.deps.Providers)

	o.publish(runID, harvest.StateSearching, "querying providers", len(o.deps.Providers))
	perProvider := o.searchAll(ctx, query)
	if err := ctx.Err(); err != nil {
		return res, err
	}

	var merged []harvest.RawResult
	for i, results := range perProvider {
		if len(results) > 0 {
			res.Statistics.ProvidersUsed = append(res.Statistics.ProvidersUsed, o.deps.Providers[i].Name())
		}
		for _, r := range results {
			if o.deps.Filter != nil && (!o.deps.Filter.AllowURL(r.PageURL) || !o.deps.Filter.AllowText(r.Title, r.Snippet)) {
				res.Statistics.BlockedURLs++
				continue
			}
			merged = append(merged, r)
		}
	}

	unique, dropped := dedup.Dedupe(merged)
	res.Statistics.DuplicatesDropped = dropped
	metrics.DuplicatesDropped.Add(float64(dropped))

	if len(unique) == 0 {
		res.Degraded = true
		res.DegradedReason = "no provider returned results"
		res.FinishedAt = o.deps.Clock.Now()
		res.Statistics.CredentialsExhausted = o.countExhausted()
		metrics.DegradedRuns.Inc()
		o.publish(runID, harvest.StateDegraded, res.DegradedReason, 0)
		o.deps.Logger.Warn("run degraded", zap.String("run_id", runID), zap.String("query", query.Text))
		return res, nil
	}

	o.publish(runID, harvest.StateExtracting, "extracting content", len(unique))
	items, pipeStats := o.pipeline(ctx, runID, unique, qctx)
	if err := ctx.Err(); err != nil {
		return res, err
	}

	res.Statistics.ExtractionSuccesses = pipeStats.successes
	res.Statistics.ExtractionFailures = pipeStats.failures
	res.Statistics.TotalContentChars = pipeStats.totalChars
	if pipeStats.successes > 0 {
		res.Statistics.AverageQuality = math.Round(float64(pipeStats.qualitySum)/float64(pipeStats.successes)*100) / 100
	}
	res.Statistics.CredentialsExhausted = o.countExhausted()

	o.publish(runID, harvest.StateAggregating, "ranking results", len(items))
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ViralScore > items[j].ViralScore
	})
	res.RankedItems = items
	res.FinishedAt = o.deps.Clock.Now()

	o.publish(runID, harvest.StateDone, "run complete", len(items))
	o.deps.Logger.Info("run complete",
		zap.String("run_id", runID),
		zap.String("query", query.Text),
		zap.Int("items", len(items)),
		zap.Int("duplicates_dropped", dropped),
	)
	return res, nil
}

// searchAll queries every provider concurrently, each under its own
// timeout. A timeout or error from one provider is an empty slice; it
// never sinks the run.
func (o *Orchestrator) searchAll(ctx context.Context, query harvest.SearchQuery) [][]harvest.RawResult {
	perProvider := make([][]harvest.RawResult, len(o.deps.Providers))

	var wg sync.WaitGroup
	for i, p := range o.deps.Providers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, o.cfg.ProviderTimeout)
			defer cancel()

			results, err := p.Search(pctx, query, o.cfg.ResultsPerProvider)
			switch {
			case errors.Is(err, context.DeadlineExceeded):
				metrics.ProviderSearches.WithLabelValues(p.Name(), "timeout").Inc()
				o.deps.Logger.Warn("provider timed out", zap.String("provider", p.Name()))
			case err != nil:
				metrics.ProviderSearches.WithLabelValues(p.Name(), "error").Inc()
				o.deps.Logger.Warn("provider failed", zap.String("provider", p.Name()), zap.Error(err))
			case len(results) == 0:
				metrics.ProviderSearches.WithLabelValues(p.Name(), "empty").Inc()
			default:
				metrics.ProviderSearches.WithLabelValues(p.Name(), "ok").Inc()
				perProvider[i] = results
			}
		}()
	}
	wg.Wait()
	return perProvider
}

type pipelineStats struct {
	successes  int
	failures   int
	totalChars int
	qualitySum int
}

// pipeline extracts, analyzes and scores every unique result under the
// worker limit. Items keep their discovery index so the later stable sort
// breaks score ties by discovery order.
func (o *Orchestrator) pipeline(ctx context.Context, runID string, unique []harvest.RawResult, qctx harvest.QueryContext) ([]harvest.RankedItem, pipelineStats) {
	items := make([]harvest.RankedItem, len(unique))
	extractor := o.deps.NewExtractor(qctx)

	var mu sync.Mutex
	var stats pipelineStats

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.PipelineWorkers)
	for i, r := range unique {
		g.Go(func() error {
			item := harvest.RankedItem{
				Result:   r,
				Platform: harvest.DetectPlatform(r.PageURL),
			}

			content, err := extractor.Extract(gctx, r.PageURL)
			switch {
			case err != nil:
				metrics.Extractions.WithLabelValues("none").Inc()
				if !errors.Is(err, harvest.ErrNoContent) && !errors.Is(err, context.Canceled) {
					o.deps.Logger.Debug("extraction failed", zap.String("url", r.PageURL), zap.Error(err))
				}
				mu.Lock()
				stats.failures++
				mu.Unlock()
			default:
				metrics.Extractions.WithLabelValues(content.Strategy).Inc()
				item.Content = content
				mu.Lock()
				stats.successes++
				stats.totalChars += content.Length
				stats.qualitySum += content.Quality
				mu.Unlock()
			}

			if m, err := o.deps.Analyzer.Analyze(gctx, r.PageURL, item.Platform); err == nil {
				item.Metrics = m
			}
			item.ViralScore = engagement.Score(item.Metrics)

			if o.deps.Annotator != nil && item.Content != nil {
				item.Insights = o.deps.Annotator.Annotate(item.Content.Text, qctx)
			}

			items[i] = item
			return nil
		})
	}
	_ = g.Wait()

	o.publish(runID, harvest.StateScoring, "scoring complete", len(items))
	return items, stats
}

// countExhausted covers every credentialed provider in the pool, search
// and engagement alike.
func (o *Orchestrator) countExhausted() int {
	counter, ok := o.deps.Credentials.(credentialCounter)
	if !ok {
		return 0
	}
	n := 0
	for _, name := range counter.Providers() {
		if counter.Exhausted(name) {
			n++
		}
	}
	return n
}

func (o *Orchestrator) publish(runID string, state harvest.RunState, msg string, count int) {
	o.deps.Broker.Publish(progress.Event{
		RunID:   runID,
		State:   state,
		Message: msg,
		Count:   count,
		At:      o.deps.Clock.Now(),
	})
}

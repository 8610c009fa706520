// Package runner is the job layer: it starts harvest runs in the
// background, records their lifecycle in the run store, persists the
// report artifact, and announces completion.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/insightbr/socialharvest/internal/harvest"
	"github.com/insightbr/socialharvest/internal/report"
)

// updateTimeout bounds post-run bookkeeping writes.
const updateTimeout = 10 * time.Second

// Pipeline is the orchestrator surface the runner drives.
type Pipeline interface {
	RunWithID(ctx context.Context, runID string, query harvest.SearchQuery, qctx harvest.QueryContext) (harvest.AggregateResult, error)
}

// Screenshotter captures a rendered page image.
type Screenshotter interface {
	Screenshot(ctx context.Context, pageURL string) ([]byte, error)
}

// Runner starts and tracks background runs.
type Runner struct {
	pipeline  Pipeline
	store     harvest.RunStore
	artifacts harvest.ArtifactStore
	publisher harvest.Publisher // optional
	topic     string
	clock     harvest.Clock
	logger    *zap.Logger

	shots     Screenshotter // optional
	shotLimit int

	mu      sync.Mutex
	handles map[string]*Handle
}

// Option configures a Runner.
type Option func(*Runner)

// WithScreenshots captures page images of the top-ranked social posts
// into the artifact store alongside the report.
func WithScreenshots(s Screenshotter, limit int) Option {
	return func(r *Runner) {
		r.shots = s
		r.shotLimit = limit
		if r.shotLimit <= 0 {
			r.shotLimit = report.TopPerformerCount
		}
	}
}

// New wires a runner. publisher may be nil; topic is only used when it
// is not.
func New(pipeline Pipeline, store harvest.RunStore, artifacts harvest.ArtifactStore, publisher harvest.Publisher, topic string, clock harvest.Clock, logger *zap.Logger, opts ...Option) *Runner {
	r := &Runner{
		pipeline:  pipeline,
		store:     store,
		artifacts: artifacts,
		publisher: publisher,
		topic:     topic,
		clock:     clock,
		logger:    logger,
		handles:   make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle tracks one background run.
type Handle struct {
	ID     string
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	result harvest.AggregateResult
	err    error
}

// Done is closed when the run finishes.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Cancel aborts the run.
func (h *Handle) Cancel() { h.cancel() }

// Result returns the outcome once Done is closed.
func (h *Handle) Result() (harvest.AggregateResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err
}

// CompletionEvent is the payload published when a run finishes.
type CompletionEvent struct {
	RunID       string `json:"run_id"`
	Query       string `json:"query"`
	ItemCount   int    `json:"item_count"`
	Degraded    bool   `json:"degraded"`
	ArtifactURI string `json:"artifact_uri,omitempty"`
}

// Start registers a run record and launches the pipeline in the
// background. The returned handle outlives the caller's context.
func (r *Runner) Start(ctx context.Context, query harvest.SearchQuery, qctx harvest.QueryContext) (*Handle, error) {
	runID := uuid.NewString()
	rec := harvest.RunRecord{
		ID:        runID,
		QueryText: query.Text,
		State:     harvest.StateSearching,
		StartedAt: r.clock.Now(),
	}
	if err := r.store.CreateRun(ctx, rec); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	h := &Handle{ID: runID, cancel: cancel, done: make(chan struct{})}

	r.mu.Lock()
	r.handles[runID] = h
	r.mu.Unlock()

	go r.execute(runCtx, h, rec, query, qctx)
	return h, nil
}

// Lookup returns the handle for a live run.
func (r *Runner) Lookup(runID string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[runID]
	return h, ok
}

func (r *Runner) execute(ctx context.Context, h *Handle, rec harvest.RunRecord, query harvest.SearchQuery, qctx harvest.QueryContext) {
	defer close(h.done)
	defer h.cancel()

	res, err := r.pipeline.RunWithID(ctx, rec.ID, query, qctx)

	h.mu.Lock()
	h.result = res
	h.err = err
	h.mu.Unlock()

	finished := r.clock.Now()
	rec.FinishedAt = &finished
	rec.Statistics = res.Statistics
	rec.Degraded = res.Degraded
	rec.ItemCount = len(res.RankedItems)

	if err != nil {
		rec.State = harvest.StateIdle
		r.updateRecord(rec)
		r.logger.Warn("run aborted", zap.String("run_id", rec.ID), zap.Error(err))
		return
	}

	rec.State = harvest.StateDone
	if res.Degraded {
		rec.State = harvest.StateDegraded
	}

	doc := report.Build(res)
	if uri, perr := report.Persist(ctx, r.artifacts, rec.ID, doc); perr != nil {
		r.logger.Error("persist report failed", zap.String("run_id", rec.ID), zap.Error(perr))
	} else {
		rec.ArtifactURI = uri
	}
	r.captureScreenshots(ctx, res)

	r.updateRecord(rec)
	r.announce(rec, query)
}

// captureScreenshots renders the top-ranked social posts and stores the
// images next to the run's report. Failures are logged and skipped; a
// run never fails over a missing screenshot.
func (r *Runner) captureScreenshots(ctx context.Context, res harvest.AggregateResult) {
	if r.shots == nil {
		return
	}
	day := res.FinishedAt.UTC().Format("2006-01-02")
	taken := 0
	for _, item := range res.RankedItems {
		if taken >= r.shotLimit {
			break
		}
		if !harvest.IsSocialPost(item.Result.PageURL) {
			continue
		}
		shot, err := r.shots.Screenshot(ctx, item.Result.PageURL)
		if err != nil {
			r.logger.Debug("screenshot failed",
				zap.String("run_id", res.RunID),
				zap.String("url", item.Result.PageURL),
				zap.Error(err),
			)
			continue
		}
		path := fmt.Sprintf("runs/%s/%s/screenshots/%02d.png", day, res.RunID, taken)
		if _, err := r.artifacts.Put(ctx, path, "image/png", shot); err != nil {
			r.logger.Warn("store screenshot failed",
				zap.String("run_id", res.RunID),
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}
		taken++
	}
}

func (r *Runner) updateRecord(rec harvest.RunRecord) {
	// The run context may already be cancelled; bookkeeping still runs.
	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()
	if err := r.store.UpdateRun(ctx, rec); err != nil {
		r.logger.Error("update run record failed", zap.String("run_id", rec.ID), zap.Error(err))
	}
}

func (r *Runner) announce(rec harvest.RunRecord, query harvest.SearchQuery) {
	if r.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
	defer cancel()
	_, err := r.publisher.Publish(ctx, r.topic, CompletionEvent{
		RunID:       rec.ID,
		Query:       query.Text,
		ItemCount:   rec.ItemCount,
		Degraded:    rec.Degraded,
		ArtifactURI: rec.ArtifactURI,
	})
	if err != nil {
		r.logger.Error("publish completion failed", zap.String("run_id", rec.ID), zap.Error(err))
	}
}

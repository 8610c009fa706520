// Package progress fans run lifecycle events out to sinks: the log, the
// metrics registry, and anything else wired in.
package progress

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/insightbr/socialharvest/internal/harvest"
	"github.com/insightbr/socialharvest/internal/metrics"
)

// Event is one lifecycle notification from a run.
type Event struct {
	RunID   string
	State   harvest.RunState
	Message string
	Count   int
	At      time.Time
}

// Sink consumes events. Implementations must not block.
type Sink interface {
	Handle(Event)
}

// Broker distributes events to its sinks. Safe for concurrent use.
type Broker struct {
	mu    sync.RWMutex
	sinks []Sink
}

func NewBroker(sinks ...Sink) *Broker {
	return &Broker{sinks: sinks}
}

// Attach adds a sink. Events published earlier are not replayed.
func (b *Broker) Attach(s Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, s)
}

// Publish sends the event to every sink. A nil broker drops events.
func (b *Broker) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.sinks {
		s.Handle(e)
	}
}

// LogSink writes events to the structured log.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Handle(e Event) {
	s.Logger.Info("run progress",
		zap.String("run_id", e.RunID),
		zap.String("state", string(e.State)),
		zap.String("message", e.Message),
		zap.Int("count", e.Count),
	)
}

// MetricsSink counts state transitions in Prometheus.
type MetricsSink struct{}

func (MetricsSink) Handle(e Event) {
	metrics.RunStates.WithLabelValues(string(e.State)).Inc()
}

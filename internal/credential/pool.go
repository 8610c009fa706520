// Package credential manages per-provider API key rotation. Keys cycle
// round-robin; auth and rate-limit failures quarantine a key for a fixed
// window after which it becomes selectable again. Keys are never removed.
package credential

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/insightbr/socialharvest/internal/harvest"
	"github.com/insightbr/socialharvest/internal/metrics"
)

// DefaultQuarantine is how long a key sits out after an auth or
// rate-limit failure.
const DefaultQuarantine = 5 * time.Minute

type slot struct {
	cred            harvest.Credential
	quarantineUntil time.Time
	failures        int
}

// Pool is a thread-safe round-robin credential source. It implements
// harvest.CredentialSource.
type Pool struct {
	mu         sync.Mutex
	slots      map[string][]*slot
	cursor     map[string]int
	quarantine time.Duration
	clock      harvest.Clock
	logger     *zap.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithQuarantine overrides the quarantine window.
func WithQuarantine(d time.Duration) Option {
	return func(p *Pool) { p.quarantine = d }
}

// WithClock injects the time source. Defaults to the wall clock.
func WithClock(c harvest.Clock) Option {
	return func(p *Pool) { p.clock = c }
}

// NewPool builds a pool from per-provider credential lists. Slot numbers
// are assigned from list order.
func NewPool(creds map[string][]harvest.Credential, logger *zap.Logger, opts ...Option) *Pool {
	p := &Pool{
		slots:      make(map[string][]*slot, len(creds)),
		cursor:     make(map[string]int, len(creds)),
		quarantine: DefaultQuarantine,
		clock:      wallClock{},
		logger:     logger,
	}
	for provider, list := range creds {
		for i, c := range list {
			c.Provider = provider
			c.Slot = i
			p.slots[provider] = append(p.slots[provider], &slot{cred: c})
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns the total number of credentials across all providers.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, list := range p.slots {
		n += len(list)
	}
	return n
}

// Providers returns the provider names that have at least one credential
// configured, sorted for deterministic iteration.
func (p *Pool) Providers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.slots))
	for provider := range p.slots {
		names = append(names, provider)
	}
	sort.Strings(names)
	return names
}

// Next returns the next usable credential for the provider, advancing the
// round-robin cursor past it. Quarantined keys whose window has elapsed
// count as usable again. Returns false when every key is quarantined or
// the provider has none.
func (p *Pool) Next(provider string) (harvest.Credential, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	list := p.slots[provider]
	if len(list) == 0 {
		return harvest.Credential{}, false
	}

	now := p.clock.Now()
	start := p.cursor[provider]
	for i := 0; i < len(list); i++ {
		idx := (start + i) % len(list)
		s := list[idx]
		if now.Before(s.quarantineUntil) {
			continue
		}
		p.cursor[provider] = (idx + 1) % len(list)
		return s.cred, true
	}
	return harvest.Credential{}, false
}

// ReportFailure records a failed call. Auth and rate-limit failures start
// the quarantine window for the key; transient failures only count.
func (p *Pool) ReportFailure(provider string, cred harvest.Credential, kind harvest.FailureKind) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.lookup(provider, cred.Slot)
	if s == nil {
		return
	}
	s.failures++
	if kind.Quarantines() {
		s.quarantineUntil = p.clock.Now().Add(p.quarantine)
		metrics.CredentialQuarantines.WithLabelValues(provider, string(kind)).Inc()
		p.logger.Warn("credential quarantined",
			zap.String("provider", provider),
			zap.Int("slot", cred.Slot),
			zap.String("kind", string(kind)),
			zap.Time("until", s.quarantineUntil),
		)
	}
}

// ReportSuccess clears failure state for the key.
func (p *Pool) ReportSuccess(provider string, cred harvest.Credential) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s := p.lookup(provider, cred.Slot); s != nil {
		s.failures = 0
		s.quarantineUntil = time.Time{}
	}
}

// Exhausted reports whether the provider currently has no usable key.
func (p *Pool) Exhausted(provider string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	for _, s := range p.slots[provider] {
		if !now.Before(s.quarantineUntil) {
			return false
		}
	}
	return true
}

func (p *Pool) lookup(provider string, slotIdx int) *slot {
	list := p.slots[provider]
	if slotIdx < 0 || slotIdx >= len(list) {
		return nil
	}
	return list[slotIdx]
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

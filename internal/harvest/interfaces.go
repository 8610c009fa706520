package harvest

import (
	"context"
	"time"
)

// Provider is one external search/content/image source. Implementations
// normalize provider-specific responses into RawResults, classify HTTP
// failures for the credential pool, and return an empty slice (not an
// error) when every credential for the provider is exhausted.
type Provider interface {
	Name() string
	Search(ctx context.Context, query SearchQuery, limit int) ([]RawResult, error)
}

// Extractor turns a page URL into content. Returns ErrNoContent when no
// strategy produced enough text; that is a normal, non-fatal outcome.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (*ExtractedContent, error)
}

// EngagementAnalyzer resolves best-effort social metrics for a post URL.
type EngagementAnalyzer interface {
	Analyze(ctx context.Context, postURL string, platform Platform) (EngagementMetrics, error)
}

// CredentialSource hands out usable credentials per provider and records
// outcomes. Implementations must be safe for concurrent use.
type CredentialSource interface {
	Next(provider string) (Credential, bool)
	ReportFailure(provider string, cred Credential, kind FailureKind)
	ReportSuccess(provider string, cred Credential)
}

// Credential is one API key/token bound to one provider. Slot identifies
// the key within the provider's list so failures quarantine the right one.
type Credential struct {
	Provider string
	Secret   string
	Extra    string // secondary value, e.g. a Google CSE engine ID
	Slot     int
}

// ArtifactStore writes a persisted artifact and returns its URI.
type ArtifactStore interface {
	Put(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes run-completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// RunStore persists run records for the job layer to poll.
type RunStore interface {
	CreateRun(ctx context.Context, rec RunRecord) error
	UpdateRun(ctx context.Context, rec RunRecord) error
	GetRun(ctx context.Context, id string) (RunRecord, error)
}

// Annotator optionally attaches free-text insights to extracted content.
// A nil Annotator disables annotation.
type Annotator interface {
	Annotate(content string, qctx QueryContext) []string
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

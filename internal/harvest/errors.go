package harvest

import (
	"errors"
	"net/http"
)

// FailureKind classifies a provider call failure. Auth and RateLimited
// quarantine the credential that was used; Transient does not.
type FailureKind string

// Failure kinds reported to the credential pool.
const (
	FailureAuth        FailureKind = "auth"
	FailureRateLimited FailureKind = "rate_limited"
	FailureTransient   FailureKind = "transient"
)

// Quarantines reports whether this failure kind suspends the credential.
func (k FailureKind) Quarantines() bool {
	return k == FailureAuth || k == FailureRateLimited
}

// ClassifyStatus maps an HTTP status code to a FailureKind. 2xx codes are
// not failures and map to the empty kind.
func ClassifyStatus(code int) FailureKind {
	switch {
	case code >= 200 && code < 300:
		return ""
	case code == http.StatusUnauthorized || code == http.StatusForbidden || code == http.StatusPaymentRequired:
		return FailureAuth
	case code == http.StatusTooManyRequests:
		return FailureRateLimited
	default:
		return FailureTransient
	}
}

// ErrNoContent is returned by extractors when every strategy failed or fell
// short of the minimum length. Non-fatal: the URL still ranks without content.
var ErrNoContent = errors.New("no strategy produced enough content")

// ErrNoCredentials is returned by providers when the pool has nothing
// usable for them. Callers treat it as an empty result set.
var ErrNoCredentials = errors.New("no usable credential for provider")

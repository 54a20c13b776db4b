package gate

import (
	"time"

	"github.com/scribblepad/monetize/pkg/tier"
)

// Verdict classifies the outcome of a gate evaluation.
type Verdict string

const (
	// VerdictAllowed lets the action proceed.
	VerdictAllowed Verdict = "allowed"
	// VerdictUnavailable means the feature does not exist at all for the
	// current tier (e.g. cloud sync on free); the UI shows an upgrade
	// paywall rather than a usage meter.
	VerdictUnavailable Verdict = "unavailable"
	// VerdictLimitReached means the feature exists for the tier but its
	// quota is exhausted.
	VerdictLimitReached Verdict = "limit_reached"
	// VerdictRateLimited means the operation itself is being throttled
	// (restore purchases).
	VerdictRateLimited Verdict = "rate_limited"
)

// Decision is the structured outcome consumed by the UI collaborator:
// badges, progress bars and paywalls all render from these fields.
type Decision struct {
	Verdict Verdict      `json:"verdict"`
	Feature tier.Feature `json:"feature,omitempty"`
	Tier    tier.Tier    `json:"tier,omitempty"`

	// Limit and Used are populated for counted features.
	Limit int64 `json:"limit,omitempty"`
	Used  int64 `json:"used,omitempty"`
	// ResetsAt is when a monthly quota next resets, or when a rate-limited
	// operation may be retried.
	ResetsAt time.Time `json:"resets_at,omitzero"`
}

// Allowed reports whether the action may proceed.
func (d Decision) Allowed() bool {
	return d.Verdict == VerdictAllowed
}

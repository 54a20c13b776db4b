package entitlement

import (
	"time"

	"github.com/scribblepad/monetize/pkg/tier"
)

// NeedsUsageResetAt reports whether the monthly counters belong to an earlier
// calendar month than now. The reset boundary is the calendar month, not a
// rolling 30-day window, so a user who installs mid-month still resets on
// the first of the next month.
func (e UserEntitlements) NeedsUsageResetAt(now time.Time) bool {
	now = now.UTC()
	last := e.LastUsageReset.UTC()
	return now.Year() != last.Year() || now.Month() != last.Month()
}

// WithUsageReset returns a copy with all monthly counters zeroed and the
// reset timestamp advanced. Calling it again within the same calendar month
// is a no-op, so applying it at every app-foreground event is safe.
func (e UserEntitlements) WithUsageReset(now time.Time) UserEntitlements {
	if !e.NeedsUsageResetAt(now) {
		return e
	}

	next := e
	next.CurrentMonthVoiceNotes = 0
	next.CurrentMonthExports = 0
	next.LastUsageReset = now.UTC()
	return next
}

// WithVoiceNoteUsed returns a copy with the voice-note counter incremented.
// The counter is limit-agnostic: callers check availability through the gate
// before recording usage.
func (e UserEntitlements) WithVoiceNoteUsed() UserEntitlements {
	next := e
	next.CurrentMonthVoiceNotes++
	return next
}

// WithExportUsed returns a copy with the export counter incremented.
func (e UserEntitlements) WithExportUsed() UserEntitlements {
	next := e
	next.CurrentMonthExports++
	return next
}

// UsedFor returns the current monthly usage for a counted-monthly feature.
// Features not tracked by the entitlement record report 0.
func (e UserEntitlements) UsedFor(f tier.Feature) int64 {
	switch f {
	case tier.FeatureVoiceNotes:
		return e.CurrentMonthVoiceNotes
	case tier.FeatureExports:
		return e.CurrentMonthExports
	}
	return 0
}

// HasReachedAt reports whether the monthly quota for the feature is exhausted
// under the currently effective tier.
func (e UserEntitlements) HasReachedAt(now time.Time, f tier.Feature) bool {
	limit := tier.FeatureLimit(e.EffectiveTierAt(now), f)
	if tier.IsUnlimited(limit) {
		return false
	}
	return e.UsedFor(f) >= limit
}

// RemainingAt returns how many uses of the feature remain this month under
// the currently effective tier. Returns tier.Unlimited for uncapped features
// and never goes below zero.
func (e UserEntitlements) RemainingAt(now time.Time, f tier.Feature) int64 {
	limit := tier.FeatureLimit(e.EffectiveTierAt(now), f)
	if tier.IsUnlimited(limit) {
		return tier.Unlimited
	}
	return max(0, limit-e.UsedFor(f))
}

package entitlement

import (
	"strings"
	"time"

	"github.com/scribblepad/monetize/pkg/tier"
)

// State is the derived subscription/trial state. It is never persisted:
// the state is always a pure function of wall-clock time applied to the
// stored dates, which avoids stale-state drift.
type State string

const (
	StateFree              State = "free"
	StateTrialActive       State = "trial_active"
	StateTrialExpired      State = "trial_expired"
	StateSubscribedActive  State = "subscribed_active"
	StateSubscribedExpired State = "subscribed_expired"
	StateLifetime          State = "lifetime"
)

// StateAt derives the current state from the stored dates.
// Rules are evaluated in priority order: lifetime, monthly, trial, free.
func (e UserEntitlements) StateAt(now time.Time) State {
	now = now.UTC()

	switch e.SubscriptionType {
	case SubscriptionLifetime:
		return StateLifetime

	case SubscriptionMonthly:
		if e.SubscriptionEndDate != nil && now.Before(*e.SubscriptionEndDate) {
			return StateSubscribedActive
		}
		return StateSubscribedExpired

	case SubscriptionTrial:
		if e.TrialEndDate != nil && now.Before(*e.TrialEndDate) {
			return StateTrialActive
		}
		return StateTrialExpired
	}

	return StateFree
}

// IsPremiumAt reports whether the user currently holds premium rights.
func (e UserEntitlements) IsPremiumAt(now time.Time) bool {
	switch e.StateAt(now) {
	case StateLifetime, StateSubscribedActive, StateTrialActive:
		return true
	}
	return false
}

// EffectiveTierAt resolves the tier whose limits currently apply. Paid
// subscriptions unlock the tier their product belongs to; trials always
// grant premium; expired trials and lapsed subscriptions fall back to free.
func (e UserEntitlements) EffectiveTierAt(now time.Time) tier.Tier {
	switch e.StateAt(now) {
	case StateLifetime, StateSubscribedActive:
		return tierForProduct(e.ProductID)
	case StateTrialActive:
		return tier.TierPremium
	}
	return tier.TierFree
}

// tierForProduct maps a billing product identifier to the tier it unlocks.
// Unknown products grant premium, the lowest paid tier.
func tierForProduct(productID string) tier.Tier {
	switch {
	case strings.HasPrefix(productID, "enterprise"):
		return tier.TierEnterprise
	case strings.HasPrefix(productID, "pro"):
		return tier.TierPro
	default:
		return tier.TierPremium
	}
}

// CanStartTrialAt reports whether a free trial may be started: the trial
// must never have been used, and the user must be in the free state (no
// trial while subscribed, no second trial ever).
func (e UserEntitlements) CanStartTrialAt(now time.Time) bool {
	return !e.TrialUsed && e.StateAt(now) == StateFree
}

// TrialDaysRemainingAt returns the number of whole days left in an active
// trial, rounding partial days up. Returns 0 outside of an active trial.
func (e UserEntitlements) TrialDaysRemainingAt(now time.Time) int {
	if e.StateAt(now) != StateTrialActive || e.TrialEndDate == nil {
		return 0
	}

	remaining := e.TrialEndDate.Sub(now.UTC())
	if remaining <= 0 {
		return 0
	}

	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}

package entitlement

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the current version of the persisted entitlement document.
// Loading an older or unknown version falls back to defaults field by field.
const SchemaVersion = 1

// SubscriptionType identifies how the user is (or is not) paying.
type SubscriptionType string

const (
	SubscriptionNone     SubscriptionType = "none"
	SubscriptionTrial    SubscriptionType = "trial"
	SubscriptionMonthly  SubscriptionType = "monthly"
	SubscriptionLifetime SubscriptionType = "lifetime"
)

// UserEntitlements is the single persisted entitlement record for the
// installed user. It is treated as an immutable value: every mutator returns
// a new record, and the effective tier is always recomputed from the stored
// dates rather than cached.
type UserEntitlements struct {
	Schema           int              `json:"schema"`
	SubscriptionType SubscriptionType `json:"subscription_type"`

	SubscriptionStartDate *time.Time `json:"subscription_start_date,omitempty"`
	SubscriptionEndDate   *time.Time `json:"subscription_end_date,omitempty"` // nil for lifetime
	SubscriptionID        string     `json:"subscription_id,omitempty"`
	ProductID             string     `json:"product_id,omitempty"`

	TrialStartDate *time.Time `json:"trial_start_date,omitempty"`
	TrialEndDate   *time.Time `json:"trial_end_date,omitempty"`
	TrialUsed      bool       `json:"trial_used"` // sticky: once true, never resets

	CurrentMonthVoiceNotes int64     `json:"current_month_voice_notes"`
	CurrentMonthExports    int64     `json:"current_month_exports"`
	LastUsageReset         time.Time `json:"last_usage_reset"`

	LastRestoreAt *time.Time `json:"last_restore_at,omitempty"`
}

// Free returns the entitlement record for a fresh install: no subscription,
// no trial consumed, zeroed counters.
func Free() UserEntitlements {
	return UserEntitlements{
		Schema:           SchemaVersion,
		SubscriptionType: SubscriptionNone,
		LastUsageReset:   time.Now().UTC(),
	}
}

// ActivationParams carries the outcome of a completed purchase as reported
// by the platform billing collaborator. The engine never initiates purchases.
type ActivationParams struct {
	Type           SubscriptionType // SubscriptionMonthly or SubscriptionLifetime
	ProductID      string
	StartDate      time.Time
	EndDate        *time.Time // renewal date from billing; nil uses start+30d for monthly
	SubscriptionID string
}

// StartTrial returns a copy of the record with an active trial of the given
// length. It fails if the user has already consumed a trial or is not in the
// free state.
func (e UserEntitlements) StartTrial(now time.Time, days int) (UserEntitlements, error) {
	if days <= 0 {
		return e, ErrInvalidTrialLength
	}
	if !e.CanStartTrialAt(now) {
		return e, ErrTrialNotAvailable
	}

	start := now.UTC()
	end := start.AddDate(0, 0, days)

	next := e
	next.Schema = SchemaVersion
	next.SubscriptionType = SubscriptionTrial
	next.TrialStartDate = &start
	next.TrialEndDate = &end
	next.TrialUsed = true
	return next, nil
}

// ActivateSubscription returns a copy of the record with a paid subscription
// applied. Monthly subscriptions without a billing-provided renewal date end
// exactly 30 days after start; lifetime subscriptions have no end date.
func (e UserEntitlements) ActivateSubscription(p ActivationParams) (UserEntitlements, error) {
	if p.Type != SubscriptionMonthly && p.Type != SubscriptionLifetime {
		return e, ErrInvalidSubscriptionType
	}

	start := p.StartDate.UTC()

	next := e
	next.Schema = SchemaVersion
	next.SubscriptionType = p.Type
	next.SubscriptionStartDate = &start
	next.ProductID = p.ProductID
	next.SubscriptionID = p.SubscriptionID
	if next.SubscriptionID == "" {
		next.SubscriptionID = uuid.NewString()
	}

	switch p.Type {
	case SubscriptionLifetime:
		next.SubscriptionEndDate = nil
	case SubscriptionMonthly:
		if p.EndDate != nil {
			end := p.EndDate.UTC()
			next.SubscriptionEndDate = &end
		} else {
			end := start.AddDate(0, 0, 30)
			next.SubscriptionEndDate = &end
		}
	}

	return next, nil
}

// WithRestoreAttempt returns a copy stamped with the time of a restore-
// purchases attempt, used for restore rate limiting.
func (e UserEntitlements) WithRestoreAttempt(now time.Time) UserEntitlements {
	t := now.UTC()
	next := e
	next.LastRestoreAt = &t
	return next
}

package entitlement_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribblepad/monetize/pkg/entitlement"
	"github.com/scribblepad/monetize/pkg/tier"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestStateAt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ent  entitlement.UserEntitlements
		want entitlement.State
	}{
		{
			name: "fresh install is free",
			ent:  entitlement.Free(),
			want: entitlement.StateFree,
		},
		{
			name: "lifetime always wins",
			ent: entitlement.UserEntitlements{
				SubscriptionType:      entitlement.SubscriptionLifetime,
				SubscriptionStartDate: ptr(now.AddDate(-1, 0, 0)),
			},
			want: entitlement.StateLifetime,
		},
		{
			name: "monthly before end date is active",
			ent: entitlement.UserEntitlements{
				SubscriptionType:    entitlement.SubscriptionMonthly,
				SubscriptionEndDate: ptr(now.AddDate(0, 0, 10)),
			},
			want: entitlement.StateSubscribedActive,
		},
		{
			name: "monthly at end date is expired",
			ent: entitlement.UserEntitlements{
				SubscriptionType:    entitlement.SubscriptionMonthly,
				SubscriptionEndDate: ptr(now),
			},
			want: entitlement.StateSubscribedExpired,
		},
		{
			name: "monthly past end date falls back",
			ent: entitlement.UserEntitlements{
				SubscriptionType:    entitlement.SubscriptionMonthly,
				SubscriptionEndDate: ptr(now.AddDate(0, 0, -1)),
			},
			want: entitlement.StateSubscribedExpired,
		},
		{
			name: "trial before end date is active",
			ent: entitlement.UserEntitlements{
				SubscriptionType: entitlement.SubscriptionTrial,
				TrialEndDate:     ptr(now.AddDate(0, 0, 2)),
				TrialUsed:        true,
			},
			want: entitlement.StateTrialActive,
		},
		{
			name: "trial at end date is expired",
			ent: entitlement.UserEntitlements{
				SubscriptionType: entitlement.SubscriptionTrial,
				TrialEndDate:     ptr(now),
				TrialUsed:        true,
			},
			want: entitlement.StateTrialExpired,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.ent.StateAt(now))
		})
	}
}

func TestIsPremiumAt(t *testing.T) {
	t.Parallel()

	t.Run("trial grants premium", func(t *testing.T) {
		t.Parallel()
		ent := entitlement.UserEntitlements{
			SubscriptionType: entitlement.SubscriptionTrial,
			TrialEndDate:     ptr(now.AddDate(0, 0, 2)),
			TrialUsed:        true,
		}

		assert.True(t, ent.IsPremiumAt(now))
		assert.Equal(t, tier.TierPremium, ent.EffectiveTierAt(now))
	})

	t.Run("expired monthly falls back to free limits", func(t *testing.T) {
		t.Parallel()
		ent := entitlement.UserEntitlements{
			SubscriptionType:    entitlement.SubscriptionMonthly,
			SubscriptionEndDate: ptr(now.AddDate(0, 0, -1)), // yesterday
		}

		assert.False(t, ent.IsPremiumAt(now))
		assert.Equal(t, tier.TierFree, ent.EffectiveTierAt(now))
		assert.Equal(t, tier.ForTier(tier.TierFree), tier.ForTier(ent.EffectiveTierAt(now)))
	})

	t.Run("lifetime never expires", func(t *testing.T) {
		t.Parallel()
		ent := entitlement.UserEntitlements{SubscriptionType: entitlement.SubscriptionLifetime}

		assert.True(t, ent.IsPremiumAt(now))
		assert.True(t, ent.IsPremiumAt(now.AddDate(50, 0, 0)))
	})
}

func TestCanStartTrialAt(t *testing.T) {
	t.Parallel()

	t.Run("fresh install can start a trial", func(t *testing.T) {
		t.Parallel()
		assert.True(t, entitlement.Free().CanStartTrialAt(now))
	})

	t.Run("trial used is sticky across all later states", func(t *testing.T) {
		t.Parallel()
		ent, err := entitlement.Free().StartTrial(now, 7)
		require.NoError(t, err)

		// During the trial.
		assert.False(t, ent.CanStartTrialAt(now))
		// After the trial expired.
		assert.False(t, ent.CanStartTrialAt(now.AddDate(0, 0, 8)))

		// After upgrading and letting the subscription lapse.
		ent, err = ent.ActivateSubscription(entitlement.ActivationParams{
			Type:      entitlement.SubscriptionMonthly,
			ProductID: "premium_monthly",
			StartDate: now.AddDate(0, 0, 8),
		})
		require.NoError(t, err)
		assert.False(t, ent.CanStartTrialAt(now.AddDate(0, 2, 0)))
	})

	t.Run("active subscriber cannot start a trial", func(t *testing.T) {
		t.Parallel()
		ent, err := entitlement.Free().ActivateSubscription(entitlement.ActivationParams{
			Type:      entitlement.SubscriptionMonthly,
			ProductID: "premium_monthly",
			StartDate: now,
		})
		require.NoError(t, err)
		assert.False(t, ent.CanStartTrialAt(now))
	})
}

func TestTrialDaysRemainingAt(t *testing.T) {
	t.Parallel()

	t.Run("zero outside of an active trial", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 0, entitlement.Free().TrialDaysRemainingAt(now))
	})

	t.Run("rounds partial days up", func(t *testing.T) {
		t.Parallel()
		ent := entitlement.UserEntitlements{
			SubscriptionType: entitlement.SubscriptionTrial,
			TrialEndDate:     ptr(now.Add(36 * time.Hour)),
			TrialUsed:        true,
		}
		assert.Equal(t, 2, ent.TrialDaysRemainingAt(now))
	})

	t.Run("exact whole days", func(t *testing.T) {
		t.Parallel()
		ent := entitlement.UserEntitlements{
			SubscriptionType: entitlement.SubscriptionTrial,
			TrialEndDate:     ptr(now.AddDate(0, 0, 7)),
			TrialUsed:        true,
		}
		assert.Equal(t, 7, ent.TrialDaysRemainingAt(now))
	})

	t.Run("floored at zero after expiry", func(t *testing.T) {
		t.Parallel()
		ent := entitlement.UserEntitlements{
			SubscriptionType: entitlement.SubscriptionTrial,
			TrialEndDate:     ptr(now.Add(-time.Hour)),
			TrialUsed:        true,
		}
		assert.Equal(t, 0, ent.TrialDaysRemainingAt(now))
	})
}

func TestStartTrial(t *testing.T) {
	t.Parallel()

	t.Run("starts an active trial", func(t *testing.T) {
		t.Parallel()
		ent, err := entitlement.Free().StartTrial(now, 7)
		require.NoError(t, err)

		assert.Equal(t, entitlement.SubscriptionTrial, ent.SubscriptionType)
		assert.True(t, ent.TrialUsed)
		require.NotNil(t, ent.TrialEndDate)
		assert.Equal(t, now.AddDate(0, 0, 7), *ent.TrialEndDate)
		assert.Equal(t, entitlement.StateTrialActive, ent.StateAt(now))
	})

	t.Run("rejects a second trial", func(t *testing.T) {
		t.Parallel()
		ent, err := entitlement.Free().StartTrial(now, 7)
		require.NoError(t, err)

		_, err = ent.StartTrial(now.AddDate(0, 1, 0), 7)
		assert.ErrorIs(t, err, entitlement.ErrTrialNotAvailable)
	})

	t.Run("rejects non-positive length", func(t *testing.T) {
		t.Parallel()
		_, err := entitlement.Free().StartTrial(now, 0)
		assert.ErrorIs(t, err, entitlement.ErrInvalidTrialLength)
	})
}

func TestActivateSubscription(t *testing.T) {
	t.Parallel()

	t.Run("monthly defaults to start plus 30 days", func(t *testing.T) {
		t.Parallel()
		ent, err := entitlement.Free().ActivateSubscription(entitlement.ActivationParams{
			Type:      entitlement.SubscriptionMonthly,
			ProductID: "premium_monthly",
			StartDate: now,
		})
		require.NoError(t, err)

		require.NotNil(t, ent.SubscriptionEndDate)
		assert.Equal(t, now.AddDate(0, 0, 30), *ent.SubscriptionEndDate)
		assert.NotEmpty(t, ent.SubscriptionID)
		assert.Equal(t, entitlement.StateSubscribedActive, ent.StateAt(now))
	})

	t.Run("billing-provided renewal date overrides the default", func(t *testing.T) {
		t.Parallel()
		renewal := now.AddDate(0, 1, 3)
		ent, err := entitlement.Free().ActivateSubscription(entitlement.ActivationParams{
			Type:      entitlement.SubscriptionMonthly,
			ProductID: "premium_monthly",
			StartDate: now,
			EndDate:   &renewal,
		})
		require.NoError(t, err)

		require.NotNil(t, ent.SubscriptionEndDate)
		assert.Equal(t, renewal, *ent.SubscriptionEndDate)
	})

	t.Run("lifetime has no end date", func(t *testing.T) {
		t.Parallel()
		ent, err := entitlement.Free().ActivateSubscription(entitlement.ActivationParams{
			Type:           entitlement.SubscriptionLifetime,
			ProductID:      "lifetime_unlock",
			StartDate:      now,
			SubscriptionID: "txn-42",
		})
		require.NoError(t, err)

		assert.Nil(t, ent.SubscriptionEndDate)
		assert.Equal(t, "txn-42", ent.SubscriptionID)
		assert.Equal(t, entitlement.StateLifetime, ent.StateAt(now))
	})

	t.Run("rejects trial and none types", func(t *testing.T) {
		t.Parallel()
		_, err := entitlement.Free().ActivateSubscription(entitlement.ActivationParams{
			Type:      entitlement.SubscriptionTrial,
			StartDate: now,
		})
		assert.ErrorIs(t, err, entitlement.ErrInvalidSubscriptionType)
	})

	t.Run("preserves trial-used flag", func(t *testing.T) {
		t.Parallel()
		trial, err := entitlement.Free().StartTrial(now, 7)
		require.NoError(t, err)

		ent, err := trial.ActivateSubscription(entitlement.ActivationParams{
			Type:      entitlement.SubscriptionMonthly,
			ProductID: "premium_monthly",
			StartDate: now.AddDate(0, 0, 3),
		})
		require.NoError(t, err)
		assert.True(t, ent.TrialUsed)
	})
}

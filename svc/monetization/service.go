package monetization

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/scribblepad/monetize/pkg/adfreq"
	"github.com/scribblepad/monetize/pkg/analytics"
	"github.com/scribblepad/monetize/pkg/entitlement"
	"github.com/scribblepad/monetize/pkg/gate"
	"github.com/scribblepad/monetize/pkg/tier"
)

// Clock supplies the current time; injectable for tests.
type Clock func() time.Time

// Service is the stateful shell around the pure gating core. It owns the
// persisted entitlement record and ad-frequency records, keeps an in-memory
// snapshot refreshed at well-defined points (start, foreground resume,
// post-purchase), serializes every read-modify-write cycle and notifies
// subscribers about state transitions.
//
// Queries never touch storage; mutations persist before returning.
type Service struct {
	mu      sync.RWMutex
	current entitlement.UserEntitlements

	cfg     Config
	store   entitlement.Store
	ads     *adfreq.Controller
	engine  *gate.Engine
	emitter analytics.Emitter
	logger  *slog.Logger
	clock   Clock
	changes *changeHub

	// counterOpts collects WithCounter registrations until the gate engine
	// is built inside New.
	counterOpts []gate.Option
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEmitter sets the analytics collaborator.
func WithEmitter(e analytics.Emitter) Option {
	return func(s *Service) {
		if e != nil {
			s.emitter = e
		}
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithEntitlementStore overrides the default file-backed entitlement store.
func WithEntitlementStore(st entitlement.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithAdController overrides the default file-backed ad frequency controller.
func WithAdController(c *adfreq.Controller) Option {
	return func(s *Service) {
		if c != nil {
			s.ads = c
		}
	}
}

// WithCounter registers an external usage counter for a counted-total
// feature, such as the number of notes currently stored.
func WithCounter(f tier.Feature, fn gate.CounterFunc) Option {
	return func(s *Service) {
		s.counterOpts = append(s.counterOpts, gate.WithCounter(f, fn))
	}
}

// New builds the engine: wires stores under cfg.DataDir, loads the
// entitlement record (failing soft on corruption), applies any pending
// calendar-month usage reset and returns a ready service.
func New(ctx context.Context, cfg Config, opts ...Option) (*Service, error) {
	s := &Service{
		cfg:     cfg,
		emitter: analytics.Discard,
		logger:  slog.Default(),
		clock:   func() time.Time { return time.Now().UTC() },
		changes: newChangeHub(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = gate.NewEngine(s.counterOpts...)

	if s.store == nil {
		st, err := entitlement.NewFileStore(
			filepath.Join(cfg.DataDir, "entitlements.json"),
			entitlement.WithLogger(s.logger),
			entitlement.WithRecoveryHook(func(ctx context.Context) {
				s.emitter.Emit(ctx, analytics.Event{
					Name: analytics.EventEntitlementsRecovered,
					Tier: tier.TierFree,
					At:   s.clock(),
				})
			}),
		)
		if err != nil {
			return nil, err
		}
		s.store = st
	}

	if s.ads == nil {
		recs, err := adfreq.NewFileRecordStore(filepath.Join(cfg.DataDir, "ad_frequency.json"))
		if err != nil {
			return nil, err
		}

		placements, err := adfreq.LoadPlacements(cfg.PlacementsFile)
		if err != nil {
			return nil, err
		}

		retention := time.Duration(cfg.AdRetentionDays) * 24 * time.Hour
		ctrl, err := adfreq.NewController(recs,
			adfreq.WithPlacements(placements),
			adfreq.WithIsPremium(s.isPremiumGuard),
			adfreq.WithControllerLogger(s.logger),
			adfreq.WithRetention(retention),
		)
		if err != nil {
			return nil, err
		}
		s.ads = ctrl
	}

	ent, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if ent.NeedsUsageResetAt(now) {
		ent = ent.WithUsageReset(now)
		if err := s.store.Save(ctx, ent); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.current = ent
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "monetization engine ready",
		"state", string(ent.StateAt(now)),
		"tier", string(ent.EffectiveTierAt(now)),
	)
	return s, nil
}

// snapshot returns the cached entitlement record.
func (s *Service) snapshot() entitlement.UserEntitlements {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// isPremiumGuard backs the ad controller's unconditional premium deny.
func (s *Service) isPremiumGuard(now time.Time) bool {
	return s.snapshot().IsPremiumAt(now)
}

// Evaluate resolves the gate decision for a feature. Deterministic and free
// of side effects; safe at arbitrarily high call frequency.
func (s *Service) Evaluate(ctx context.Context, f tier.Feature) gate.Decision {
	return s.engine.EvaluateAt(ctx, s.snapshot(), s.clock(), f)
}

// EvaluateAd reports whether an ad may be shown at the placement. Premium
// users are denied before the frequency checks run. Denials emit an
// ad_blocked event.
func (s *Service) EvaluateAd(ctx context.Context, placementID string) (bool, error) {
	now := s.clock()

	ok, err := s.ads.CanShowAdAt(placementID, now)
	if err != nil {
		return false, err
	}
	if !ok {
		s.emitter.Emit(ctx, analytics.Event{
			Name: analytics.EventAdBlocked,
			Tier: s.snapshot().EffectiveTierAt(now),
			At:   now,
			Props: map[string]any{
				"placement": placementID,
			},
		})
	}
	return ok, nil
}

// Remaining returns how many uses of a counted-monthly feature remain this
// month, or tier.Unlimited for uncapped features.
func (s *Service) Remaining(f tier.Feature) int64 {
	return s.snapshot().RemainingAt(s.clock(), f)
}

// TrialDaysRemaining returns the whole days left in an active trial.
func (s *Service) TrialDaysRemaining() int {
	return s.snapshot().TrialDaysRemainingAt(s.clock())
}

// IsPremium reports whether the user currently holds premium rights.
func (s *Service) IsPremium() bool {
	return s.snapshot().IsPremiumAt(s.clock())
}

// State returns the derived subscription/trial state.
func (s *Service) State() entitlement.State {
	return s.snapshot().StateAt(s.clock())
}

// Entitlements returns a copy of the current entitlement record for UI
// readouts.
func (s *Service) Entitlements() entitlement.UserEntitlements {
	return s.snapshot()
}

// Subscribe returns a channel of entitlement state changes. The channel is
// closed when ctx is cancelled; messages to slow consumers are dropped.
func (s *Service) Subscribe(ctx context.Context) <-chan Change {
	return s.changes.subscribe(ctx)
}

// OnForeground applies the calendar-month usage reset if one is pending and
// refreshes the cached snapshot. Call it at every app-foreground event; it
// is a cheap no-op within the same month.
func (s *Service) OnForeground(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if !s.current.NeedsUsageResetAt(now) {
		return nil
	}

	next := s.current.WithUsageReset(now)
	if err := s.store.Save(ctx, next); err != nil {
		return err
	}
	s.current = next

	s.logger.InfoContext(ctx, "monthly usage counters reset", "at", now)
	return nil
}

// StartFreeTrial starts the free trial if the user is eligible, persists the
// new record and emits trial_started.
func (s *Service) StartFreeTrial(ctx context.Context) (entitlement.UserEntitlements, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	next, err := s.current.StartTrial(now, s.cfg.TrialDays)
	if err != nil {
		return s.current, err
	}
	if err := s.store.Save(ctx, next); err != nil {
		return s.current, err
	}
	s.current = next

	s.emitter.Emit(ctx, analytics.Event{
		Name: analytics.EventTrialStarted,
		Tier: next.EffectiveTierAt(now),
		At:   now,
		Props: map[string]any{
			"trial_days": s.cfg.TrialDays,
		},
	})
	s.publishLocked(now)
	return next, nil
}

// ActivatePremiumSubscription records the outcome of a completed purchase
// reported by the billing collaborator. The engine never initiates a
// purchase itself.
func (s *Service) ActivatePremiumSubscription(ctx context.Context, p entitlement.ActivationParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	next, err := s.current.ActivateSubscription(p)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, next); err != nil {
		return err
	}
	s.current = next

	s.emitter.Emit(ctx, analytics.Event{
		Name: analytics.EventUpgradeCompleted,
		Tier: next.EffectiveTierAt(now),
		At:   now,
		Props: map[string]any{
			"product_id":        p.ProductID,
			"subscription_type": string(p.Type),
		},
	})
	s.publishLocked(now)
	return nil
}

// HandleFailedPurchase records a purchase failure reported by the billing
// collaborator. Entitlements are unchanged; the failure is tracked as an
// analytics event only.
func (s *Service) HandleFailedPurchase(ctx context.Context, productID, reason string) {
	now := s.clock()
	s.emitter.Emit(ctx, analytics.Event{
		Name: analytics.EventUpgradeFailed,
		Tier: s.snapshot().EffectiveTierAt(now),
		At:   now,
		Props: map[string]any{
			"product_id": productID,
			"reason":     reason,
		},
	})
}

// RecordFeatureUsage checks the gate and, when allowed, increments the
// feature's monthly counter and persists the record in one serialized step.
// A denied decision is returned unchanged so the caller can render the
// upgrade prompt.
func (s *Service) RecordFeatureUsage(ctx context.Context, f tier.Feature) (gate.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	d := s.engine.EvaluateAt(ctx, s.current, now, f)
	if !d.Allowed() {
		if d.Verdict == gate.VerdictLimitReached {
			s.emitter.Emit(ctx, analytics.Event{
				Name:    analytics.EventFreeLimitReached,
				Feature: f,
				Tier:    d.Tier,
				At:      now,
				Props: map[string]any{
					"limit": d.Limit,
					"used":  d.Used,
				},
			})
		}
		return d, nil
	}

	next := s.current
	switch f {
	case tier.FeatureVoiceNotes:
		next = next.WithVoiceNoteUsed()
	case tier.FeatureExports:
		next = next.WithExportUsed()
	default:
		// Counted-total and capability features carry no monthly counter.
		return d, nil
	}

	if err := s.store.Save(ctx, next); err != nil {
		return d, err
	}
	s.current = next
	return d, nil
}

// RecordAdShown records a rendered impression and emits ad_shown. Must be
// called only after the ad actually rendered.
func (s *Service) RecordAdShown(ctx context.Context, placementID string) error {
	now := s.clock()
	if err := s.ads.RecordShownAt(placementID, now); err != nil {
		return err
	}

	s.emitter.Emit(ctx, analytics.Event{
		Name: analytics.EventAdShown,
		Tier: s.snapshot().EffectiveTierAt(now),
		At:   now,
		Props: map[string]any{
			"placement": placementID,
		},
	})
	return nil
}

// RecordAdLoadFailed tracks a failed ad load. The frequency budget is not
// consumed; the failure is an analytics event, not an engine error.
func (s *Service) RecordAdLoadFailed(ctx context.Context, placementID string) {
	now := s.clock()
	s.emitter.Emit(ctx, analytics.Event{
		Name: analytics.EventAdLoadFailed,
		Tier: s.snapshot().EffectiveTierAt(now),
		At:   now,
		Props: map[string]any{
			"placement": placementID,
		},
	})
}

// RestorePurchases gates a restore-purchases attempt. Attempts are limited
// to one per cooldown window per installation; within the window the caller
// gets a rate-limited decision instead of a fresh billing query.
func (s *Service) RestorePurchases(ctx context.Context) (gate.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if s.current.LastRestoreAt != nil {
		elapsed := now.Sub(*s.current.LastRestoreAt)
		if elapsed < s.cfg.RestoreCooldown {
			s.emitter.Emit(ctx, analytics.Event{
				Name: analytics.EventRestoreRateLimited,
				Tier: s.current.EffectiveTierAt(now),
				At:   now,
			})
			return gate.Decision{
				Verdict:  gate.VerdictRateLimited,
				ResetsAt: s.current.LastRestoreAt.Add(s.cfg.RestoreCooldown),
			}, nil
		}
	}

	next := s.current.WithRestoreAttempt(now)
	if err := s.store.Save(ctx, next); err != nil {
		return gate.Decision{}, err
	}
	s.current = next

	return gate.Decision{Verdict: gate.VerdictAllowed}, nil
}

// ClearUserData resets the entitlement record to a fresh install. This is
// the only path that deletes entitlement state.
func (s *Service) ClearUserData(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	next := entitlement.Free()
	if err := s.store.Save(ctx, next); err != nil {
		return err
	}
	s.current = next

	s.emitter.Emit(ctx, analytics.Event{
		Name: analytics.EventUserDataCleared,
		Tier: tier.TierFree,
		At:   now,
	})
	s.publishLocked(now)
	return nil
}

// publishLocked notifies subscribers about the current state. Caller must
// hold the write lock.
func (s *Service) publishLocked(now time.Time) {
	s.changes.publish(Change{
		State: s.current.StateAt(now),
		Tier:  s.current.EffectiveTierAt(now),
		At:    now,
	})
}

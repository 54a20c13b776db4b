package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/scribblepad/monetize/pkg/entitlement"
	"github.com/scribblepad/monetize/pkg/tier"
)

// CounterFunc returns the current usage for an externally counted resource,
// such as the total number of notes stored. Must be fast (cached or
// aggregated) as it is consulted on every gate evaluation for its feature.
type CounterFunc func(ctx context.Context) (int64, error)

// Engine evaluates gate decisions for feature access. It is deterministic
// and performs no I/O of its own: the entitlement snapshot and the clock are
// passed in by the caller, so it is safe to call at arbitrarily high
// frequency.
type Engine struct {
	counters map[tier.Feature]CounterFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithCounter registers a counter for a counted-total feature. Panics if a
// counter for the feature is already registered to force explicit startup
// configuration.
func WithCounter(f tier.Feature, fn CounterFunc) Option {
	return func(e *Engine) {
		if fn == nil {
			return
		}
		if _, exists := e.counters[f]; exists {
			panic(fmt.Sprintf("gate: counter for feature %q already registered", f))
		}
		e.counters[f] = fn
	}
}

// NewEngine creates a gate engine. Register counters for every counted-total
// feature the app gates; monthly counters come from the entitlement record
// itself.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		counters: make(map[tier.Feature]CounterFunc),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EvaluateAt resolves the gate decision for a feature against the given
// entitlement snapshot at the given time.
//
// The algorithm: derive the effective tier from the subscription state, look
// the feature up in the tier limit table, deny capability features whose
// flag is off, deny counted features whose quota is exhausted, otherwise
// allow.
func (e *Engine) EvaluateAt(ctx context.Context, ent entitlement.UserEntitlements, now time.Time, f tier.Feature) Decision {
	t := ent.EffectiveTierAt(now)

	switch tier.Meta(f).Kind {
	case tier.KindCapability:
		if !tier.HasCapability(t, f) {
			return Decision{Verdict: VerdictUnavailable, Feature: f, Tier: t}
		}
		return Decision{Verdict: VerdictAllowed, Feature: f, Tier: t}

	case tier.KindCountedMonthly:
		limit := tier.FeatureLimit(t, f)
		used := ent.UsedFor(f)
		if !tier.IsUnlimited(limit) && used >= limit {
			return Decision{
				Verdict:  VerdictLimitReached,
				Feature:  f,
				Tier:     t,
				Limit:    limit,
				Used:     used,
				ResetsAt: NextMonthStart(now),
			}
		}
		return Decision{Verdict: VerdictAllowed, Feature: f, Tier: t, Limit: limit, Used: used}

	case tier.KindCountedTotal:
		limit := tier.FeatureLimit(t, f)
		if tier.IsUnlimited(limit) {
			return Decision{Verdict: VerdictAllowed, Feature: f, Tier: t, Limit: limit}
		}

		counter, ok := e.counters[f]
		if !ok {
			// No counter registered: the cap cannot be evaluated, and
			// blocking the user on a configuration gap is worse than
			// letting the action through.
			return Decision{Verdict: VerdictAllowed, Feature: f, Tier: t, Limit: limit}
		}

		used, err := counter(ctx)
		if err != nil {
			return Decision{Verdict: VerdictAllowed, Feature: f, Tier: t, Limit: limit}
		}

		if used >= limit {
			return Decision{
				Verdict: VerdictLimitReached,
				Feature: f,
				Tier:    t,
				Limit:   limit,
				Used:    used,
			}
		}
		return Decision{Verdict: VerdictAllowed, Feature: f, Tier: t, Limit: limit, Used: used}
	}

	return Decision{Verdict: VerdictAllowed, Feature: f, Tier: t}
}

// NextMonthStart returns midnight UTC on the first day of the month after
// now, which is when calendar-month usage counters reset.
func NextMonthStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

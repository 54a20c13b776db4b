package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/scribblepad/monetize/pkg/tier"
)

// EventName identifies a monetization event.
type EventName string

const (
	EventTrialStarted          EventName = "trial_started"
	EventUpgradeCompleted      EventName = "upgrade_completed"
	EventUpgradeFailed         EventName = "upgrade_failed"
	EventFreeLimitReached      EventName = "free_limit_reached"
	EventAdShown               EventName = "ad_shown"
	EventAdBlocked             EventName = "ad_blocked"
	EventAdLoadFailed          EventName = "ad_load_failed"
	EventRestoreRateLimited    EventName = "restore_rate_limited"
	EventEntitlementsRecovered EventName = "entitlements_recovered"
	EventUserDataCleared       EventName = "user_data_cleared"
)

// Event is a structured monetization event with the fixed property set the
// analytics pipeline expects.
type Event struct {
	Name    EventName      `json:"name"`
	Feature tier.Feature   `json:"feature,omitempty"`
	Tier    tier.Tier      `json:"tier,omitempty"`
	At      time.Time      `json:"at"`
	Props   map[string]any `json:"props,omitempty"`
}

// Emitter receives monetization events. The engine does not know or care
// how events are transmitted or stored; implementations may batch, drop or
// forward them.
type Emitter interface {
	Emit(ctx context.Context, e Event)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ctx context.Context, e Event)

func (f EmitterFunc) Emit(ctx context.Context, e Event) { f(ctx, e) }

// Discard is an Emitter that drops all events.
var Discard Emitter = EmitterFunc(func(context.Context, Event) {})

// NewSlogEmitter returns an Emitter that logs every event as a structured
// info record, which is enough for local diagnosis and log-pipeline ingest.
func NewSlogEmitter(l *slog.Logger) Emitter {
	if l == nil {
		l = slog.Default()
	}
	return EmitterFunc(func(ctx context.Context, e Event) {
		attrs := []any{
			"event", string(e.Name),
			"at", e.At,
		}
		if e.Feature != "" {
			attrs = append(attrs, "feature", string(e.Feature))
		}
		if e.Tier != "" {
			attrs = append(attrs, "tier", string(e.Tier))
		}
		for k, v := range e.Props {
			attrs = append(attrs, k, v)
		}
		l.InfoContext(ctx, "monetization event", attrs...)
	})
}

// Recorder is an Emitter that keeps all events in memory, for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of all recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Named returns recorded events with the given name.
func (r *Recorder) Named(name EventName) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

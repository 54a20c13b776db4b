package analytics_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribblepad/monetize/pkg/analytics"
	"github.com/scribblepad/monetize/pkg/tier"
)

func TestRecorder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	r := analytics.NewRecorder()
	r.Emit(ctx, analytics.Event{Name: analytics.EventTrialStarted, At: time.Now()})
	r.Emit(ctx, analytics.Event{Name: analytics.EventAdShown, At: time.Now()})
	r.Emit(ctx, analytics.Event{Name: analytics.EventAdShown, At: time.Now()})

	assert.Len(t, r.Events(), 3)
	assert.Len(t, r.Named(analytics.EventAdShown), 2)
	assert.Len(t, r.Named(analytics.EventUpgradeFailed), 0)
}

func TestSlogEmitter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	emitter := analytics.NewSlogEmitter(logger)
	emitter.Emit(ctx, analytics.Event{
		Name:    analytics.EventFreeLimitReached,
		Feature: tier.FeatureVoiceNotes,
		Tier:    tier.TierFree,
		At:      time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
		Props:   map[string]any{"limit": 10},
	})

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "free_limit_reached", record["event"])
	assert.Equal(t, "voice_notes", record["feature"])
	assert.Equal(t, "free", record["tier"])
	assert.EqualValues(t, 10, record["limit"])
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	// Must not panic and must accept any event.
	analytics.Discard.Emit(context.Background(), analytics.Event{Name: analytics.EventAdBlocked})
}

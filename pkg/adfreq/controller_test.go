package adfreq_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribblepad/monetize/pkg/adfreq"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func testPlacements() map[string]adfreq.PlacementConfig {
	return map[string]adfreq.PlacementConfig{
		"editor_interstitial": {
			ID:                  "editor_interstitial",
			Format:              adfreq.FormatInterstitial,
			MaxDailyImpressions: 3,
			MinIntervalMinutes:  30,
		},
		"note_list_banner": {
			ID:                  "note_list_banner",
			Format:              adfreq.FormatBanner,
			MaxDailyImpressions: 20,
			MinIntervalMinutes:  5,
		},
	}
}

func newTestController(t *testing.T, opts ...adfreq.ControllerOption) *adfreq.Controller {
	t.Helper()

	opts = append([]adfreq.ControllerOption{adfreq.WithPlacements(testPlacements())}, opts...)
	c, err := adfreq.NewController(adfreq.NewMemoryRecordStore(), opts...)
	require.NoError(t, err)
	return c
}

func TestController_CanShowAd(t *testing.T) {
	t.Parallel()

	t.Run("fresh placement is eligible", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t)

		ok, err := c.CanShowAdAt("editor_interstitial", now)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unknown placement is denied with error", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t)

		ok, err := c.CanShowAdAt("nonexistent", now)
		assert.ErrorIs(t, err, adfreq.ErrPlacementNotFound)
		assert.False(t, ok)
	})

	t.Run("premium users never see ads", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, adfreq.WithIsPremium(func(time.Time) bool { return true }))

		ok, err := c.CanShowAdAt("editor_interstitial", now)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestController_DailyCap(t *testing.T) {
	t.Parallel()

	c := newTestController(t)

	// Three impressions spaced past the minimum interval consume the cap.
	ts := now
	for i := 0; i < 3; i++ {
		ok, err := c.CanShowAdAt("editor_interstitial", ts)
		require.NoError(t, err)
		require.True(t, ok, "impression %d should be eligible", i+1)
		require.NoError(t, c.RecordShownAt("editor_interstitial", ts))
		ts = ts.Add(time.Hour)
	}

	// Fourth check on the same day is denied.
	ok, err := c.CanShowAdAt("editor_interstitial", ts)
	require.NoError(t, err)
	assert.False(t, ok)

	remaining, err := c.RemainingTodayAt("editor_interstitial", ts)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	// After the day rolls over the budget is fresh.
	nextDay := now.AddDate(0, 0, 1)
	ok, err = c.CanShowAdAt("editor_interstitial", nextDay)
	require.NoError(t, err)
	assert.True(t, ok)

	remaining, err = c.RemainingTodayAt("editor_interstitial", nextDay)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)
}

func TestController_MinInterval(t *testing.T) {
	t.Parallel()

	c := newTestController(t)
	require.NoError(t, c.RecordShownAt("editor_interstitial", now))

	// Immediately after an impression the placement is blocked.
	ok, err := c.CanShowAdAt("editor_interstitial", now)
	require.NoError(t, err)
	assert.False(t, ok)

	// One second before the interval elapses it is still blocked.
	ok, err = c.CanShowAdAt("editor_interstitial", now.Add(30*time.Minute-time.Second))
	require.NoError(t, err)
	assert.False(t, ok)

	// At exactly the minimum interval it becomes eligible again.
	ok, err = c.CanShowAdAt("editor_interstitial", now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestController_FailedLoadDoesNotConsumeBudget(t *testing.T) {
	t.Parallel()

	c := newTestController(t)

	// An eligibility check alone must not move the counters: only a
	// rendered impression does.
	for i := 0; i < 10; i++ {
		ok, err := c.CanShowAdAt("editor_interstitial", now)
		require.NoError(t, err)
		require.True(t, ok)
	}

	remaining, err := c.RemainingTodayAt("editor_interstitial", now)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)
}

func TestController_RecordShown(t *testing.T) {
	t.Parallel()

	t.Run("unknown placement", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t)
		assert.ErrorIs(t, c.RecordShownAt("nonexistent", now), adfreq.ErrPlacementNotFound)
	})

	t.Run("persists across controller restarts", func(t *testing.T) {
		t.Parallel()
		store := adfreq.NewMemoryRecordStore()

		c, err := adfreq.NewController(store, adfreq.WithPlacements(testPlacements()))
		require.NoError(t, err)
		require.NoError(t, c.RecordShownAt("editor_interstitial", now))

		c2, err := adfreq.NewController(store, adfreq.WithPlacements(testPlacements()))
		require.NoError(t, err)

		remaining, err := c2.RemainingTodayAt("editor_interstitial", now)
		require.NoError(t, err)
		assert.Equal(t, 2, remaining)
	})
}

func TestController_Pruning(t *testing.T) {
	t.Parallel()

	store := adfreq.NewMemoryRecordStore()
	stale := time.Now().UTC().AddDate(0, 0, -45)
	fresh := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, store.Save(map[string]adfreq.Record{
		"editor_interstitial": {TodayCount: 2, LastImpressionAt: &stale},
		"note_list_banner":    {TodayCount: 1, LastImpressionAt: &fresh},
	}))

	_, err := adfreq.NewController(store, adfreq.WithPlacements(testPlacements()))
	require.NoError(t, err)

	records, err := store.Load()
	require.NoError(t, err)
	assert.NotContains(t, records, "editor_interstitial")
	assert.Contains(t, records, "note_list_banner")
}

func TestFileRecordStore(t *testing.T) {
	t.Parallel()

	t.Run("requires a path", func(t *testing.T) {
		t.Parallel()
		_, err := adfreq.NewFileRecordStore("")
		assert.ErrorIs(t, err, adfreq.ErrStorePathRequired)
	})

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "ad_frequency.json")
		store, err := adfreq.NewFileRecordStore(path)
		require.NoError(t, err)

		ts := now
		require.NoError(t, store.Save(map[string]adfreq.Record{
			"editor_interstitial": {TodayCount: 2, LastImpressionAt: &ts},
		}))

		records, err := store.Load()
		require.NoError(t, err)
		require.Contains(t, records, "editor_interstitial")
		assert.Equal(t, 2, records["editor_interstitial"].TodayCount)
	})

	t.Run("missing file yields empty set", func(t *testing.T) {
		t.Parallel()
		store, err := adfreq.NewFileRecordStore(filepath.Join(t.TempDir(), "missing.json"))
		require.NoError(t, err)

		records, err := store.Load()
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("corrupted document yields empty set", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "ad_frequency.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"note_list`), 0o644))

		store, err := adfreq.NewFileRecordStore(path)
		require.NoError(t, err)

		records, err := store.Load()
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("concurrent saves all succeed", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "ad_frequency.json")
		store, err := adfreq.NewFileRecordStore(path)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				assert.NoError(t, store.Save(map[string]adfreq.Record{
					"note_list_banner": {TodayCount: n},
				}))
			}(i)
		}
		wg.Wait()

		// Whatever save landed last, the document on disk is valid.
		records, err := store.Load()
		require.NoError(t, err)
		require.Contains(t, records, "note_list_banner")
		assert.Less(t, records["note_list_banner"].TodayCount, 50)
	})
}

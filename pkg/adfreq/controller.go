package adfreq

import (
	"log/slog"
	"sync"
	"time"
)

// IsPremiumFunc reports whether the user holds premium rights at the given
// time. Premium users never see ads, even when the controller is called
// directly rather than through the gate engine.
type IsPremiumFunc func(now time.Time) bool

const defaultRetention = 30 * 24 * time.Hour

// Controller decides whether an ad may be shown at a placement and records
// rendered impressions. All record mutation is serialized through a single
// mutex so a double-tap cannot drop an impression from the daily budget.
type Controller struct {
	mu         sync.Mutex
	placements map[string]PlacementConfig
	records    map[string]Record
	store      RecordStore
	isPremium  IsPremiumFunc
	logger     *slog.Logger
	retention  time.Duration
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithPlacements overrides the built-in placement table.
func WithPlacements(placements map[string]PlacementConfig) ControllerOption {
	return func(c *Controller) {
		if len(placements) > 0 {
			c.placements = placements
		}
	}
}

// WithIsPremium sets the premium guard consulted before every eligibility
// check.
func WithIsPremium(fn IsPremiumFunc) ControllerOption {
	return func(c *Controller) {
		if fn != nil {
			c.isPremium = fn
		}
	}
}

// WithControllerLogger sets the logger for persistence warnings.
func WithControllerLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRetention sets how long untouched placement records are kept before
// being pruned at initialization.
func WithRetention(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.retention = d
		}
	}
}

// NewController loads persisted impression records, prunes stale entries and
// returns a ready controller.
func NewController(store RecordStore, opts ...ControllerOption) (*Controller, error) {
	if store == nil {
		store = NewMemoryRecordStore()
	}

	placements, err := DefaultPlacements()
	if err != nil {
		return nil, err
	}

	c := &Controller{
		placements: placements,
		store:      store,
		isPremium:  func(time.Time) bool { return false },
		logger:     slog.Default(),
		retention:  defaultRetention,
	}
	for _, opt := range opts {
		opt(c)
	}

	records, err := store.Load()
	if err != nil {
		records = map[string]Record{}
	}
	c.records = records
	c.pruneAt(time.Now().UTC())

	return c, nil
}

// CanShowAdAt reports whether an ad may be shown at the placement right now.
// Checks run in order: premium guard, daily cap, minimum interval. Unknown
// placements return ErrPlacementNotFound and never show ads.
func (c *Controller) CanShowAdAt(placementID string, now time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg, ok := c.placements[placementID]
	if !ok {
		return false, ErrPlacementNotFound
	}

	if c.isPremium(now) {
		return false, nil
	}

	rec := c.rolledOver(placementID, now)

	if rec.TodayCount >= cfg.MaxDailyImpressions {
		return false, nil
	}

	if rec.LastImpressionAt != nil && now.Sub(*rec.LastImpressionAt) < cfg.MinInterval() {
		return false, nil
	}

	return true, nil
}

// RecordShownAt records one rendered impression and persists the updated
// record. It must be called only after the ad actually renders: failed ad
// loads never consume the frequency budget.
func (c *Controller) RecordShownAt(placementID string, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.placements[placementID]; !ok {
		return ErrPlacementNotFound
	}

	rec := c.rolledOver(placementID, now)
	ts := now.UTC()
	rec.TodayCount++
	rec.LastImpressionAt = &ts
	c.records[placementID] = rec

	if err := c.store.Save(c.records); err != nil {
		c.logger.Error("failed to persist ad impression record",
			"placement", placementID, "error", err)
		return err
	}
	return nil
}

// RemainingTodayAt returns how many impressions are left in today's budget
// for the placement.
func (c *Controller) RemainingTodayAt(placementID string, now time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg, ok := c.placements[placementID]
	if !ok {
		return 0, ErrPlacementNotFound
	}

	rec := c.rolledOver(placementID, now)
	return max(0, cfg.MaxDailyImpressions-rec.TodayCount), nil
}

// Placement returns the static configuration for a placement.
func (c *Controller) Placement(placementID string) (PlacementConfig, error) {
	cfg, ok := c.placements[placementID]
	if !ok {
		return PlacementConfig{}, ErrPlacementNotFound
	}
	return cfg, nil
}

// rolledOver returns the record for the placement with the daily counter
// zeroed when the last impression happened on an earlier calendar day. The
// rollover is computed by date comparison, never by a background timer, so
// it holds even when the app was suspended across midnight. Caller must
// hold the mutex.
func (c *Controller) rolledOver(placementID string, now time.Time) Record {
	rec := c.records[placementID]
	if rec.LastImpressionAt != nil && !sameDay(*rec.LastImpressionAt, now) {
		rec.TodayCount = 0
		c.records[placementID] = rec
	}
	return rec
}

// pruneAt drops records untouched for longer than the retention window and
// persists the trimmed set when anything was removed.
func (c *Controller) pruneAt(now time.Time) {
	pruned := false
	for id, rec := range c.records {
		if rec.LastImpressionAt == nil {
			if rec.TodayCount == 0 {
				delete(c.records, id)
				pruned = true
			}
			continue
		}
		if now.Sub(*rec.LastImpressionAt) > c.retention {
			delete(c.records, id)
			pruned = true
		}
	}

	if pruned {
		if err := c.store.Save(c.records); err != nil {
			c.logger.Warn("failed to persist pruned ad records", "error", err)
		}
	}
}

func sameDay(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

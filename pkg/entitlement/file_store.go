package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the entitlement record as a JSON document on local
// storage. Writes go through a temp file followed by a rename so a crash
// mid-write never leaves a truncated document behind, and all operations are
// serialized so concurrent read-modify-write cycles cannot drop updates.
type FileStore struct {
	mu        sync.Mutex
	path      string
	logger    *slog.Logger
	onRecover func(ctx context.Context)
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithLogger sets the logger used for recovery and persistence warnings.
func WithLogger(l *slog.Logger) FileStoreOption {
	return func(s *FileStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecoveryHook sets a callback invoked when an existing record could not
// be read and was reset to Free(). A missing file does not trigger it; a
// fresh install is not a recovery.
func WithRecoveryHook(fn func(ctx context.Context)) FileStoreOption {
	return func(s *FileStore) {
		s.onRecover = fn
	}
}

// NewFileStore creates a store writing to the given path. Parent directories
// are created on first save.
func NewFileStore(path string, opts ...FileStoreOption) (*FileStore, error) {
	if path == "" {
		return nil, ErrStorePathRequired
	}

	s := &FileStore{
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load reads the persisted record. A missing, unparseable or internally
// inconsistent document fails soft: the error is logged, the record resets
// to Free() and the fallback is persisted immediately so the corruption is
// not rediscovered on every launch.
func (s *FileStore) Load(ctx context.Context) (UserEntitlements, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s.initialize(ctx)
		}
		s.logger.ErrorContext(ctx, "failed to read entitlement record, resetting to free",
			"path", s.path, "error", err)
		return s.recover(ctx)
	}

	var e UserEntitlements
	if err := json.Unmarshal(data, &e); err != nil {
		s.logger.ErrorContext(ctx, "corrupted entitlement record, resetting to free",
			"path", s.path, "error", err)
		return s.recover(ctx)
	}

	if err := e.validate(); err != nil {
		s.logger.ErrorContext(ctx, "inconsistent entitlement record, resetting to free",
			"path", s.path, "error", err)
		return s.recover(ctx)
	}

	return e, nil
}

// Save atomically writes the record to disk.
func (s *FileStore) Save(ctx context.Context, e UserEntitlements) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, e)
}

// save writes without taking the mutex. Caller must hold it.
func (s *FileStore) save(ctx context.Context, e UserEntitlements) error {
	e.Schema = SchemaVersion

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return errors.Join(ErrFailedToPersist, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Join(ErrFailedToPersist, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Join(ErrFailedToPersist, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Join(ErrFailedToPersist, err)
	}
	return nil
}

func (s *FileStore) recover(ctx context.Context) (UserEntitlements, error) {
	if s.onRecover != nil {
		s.onRecover(ctx)
	}
	return s.initialize(ctx)
}

func (s *FileStore) initialize(ctx context.Context) (UserEntitlements, error) {
	fallback := Free()
	if err := s.save(ctx, fallback); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist recovered entitlement record",
			"path", s.path, "error", err)
	}
	return fallback, nil
}

// validate rejects documents whose fields cannot have been produced by this
// engine, such as negative counters or subscription types missing the dates
// the state machine derives from.
func (e UserEntitlements) validate() error {
	if e.CurrentMonthVoiceNotes < 0 || e.CurrentMonthExports < 0 {
		return errors.New("negative usage counter")
	}

	switch e.SubscriptionType {
	case SubscriptionNone, SubscriptionLifetime:
	case SubscriptionTrial:
		if e.TrialEndDate == nil {
			return errors.New("trial subscription without trial end date")
		}
	case SubscriptionMonthly:
		if e.SubscriptionEndDate == nil {
			return errors.New("monthly subscription without end date")
		}
		if e.SubscriptionStartDate != nil && e.SubscriptionEndDate.Before(*e.SubscriptionStartDate) {
			return errors.New("subscription ends before it starts")
		}
	default:
		return errors.New("unknown subscription type")
	}

	return nil
}

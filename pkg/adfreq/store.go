package adfreq

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Record is the mutable impression state for one placement. One record
// exists per placement, created lazily on the first ad request.
type Record struct {
	TodayCount       int        `json:"today_count"`
	LastImpressionAt *time.Time `json:"last_impression_at,omitempty"`
}

// RecordStore persists the placement-keyed impression records as a single
// document, replacing the ad-hoc string-concatenated per-day keys the app
// used historically.
type RecordStore interface {
	Load() (map[string]Record, error)
	Save(records map[string]Record) error
}

// FileRecordStore keeps the records in a local JSON file with atomic writes.
// Writes go through a shared temp file, so saves are serialized by a mutex.
// A corrupted document fails soft to an empty record set: frequency caps
// then restart from zero, which only errs on the side of showing ads the
// user was already eligible for.
type FileRecordStore struct {
	mu   sync.Mutex
	path string
}

// NewFileRecordStore creates a file-backed record store.
func NewFileRecordStore(path string) (*FileRecordStore, error) {
	if path == "" {
		return nil, ErrStorePathRequired
	}
	return &FileRecordStore{path: path}, nil
}

func (s *FileRecordStore) Load() (map[string]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return map[string]Record{}, nil
	}

	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil {
		return map[string]Record{}, nil
	}
	if records == nil {
		records = map[string]Record{}
	}
	return records, nil
}

func (s *FileRecordStore) Save(records map[string]Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(records, "", "  ")
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

// MemoryRecordStore is an in-memory RecordStore for tests.
type MemoryRecordStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryRecordStore returns an empty in-memory record store.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{records: map[string]Record{}}
}

func (s *MemoryRecordStore) Load() (map[string]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Record, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryRecordStore) Save(records map[string]Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]Record, len(records))
	for k, v := range records {
		s.records[k] = v
	}
	return nil
}

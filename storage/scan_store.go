package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"veribuy/models"
	"veribuy/utils"
)

const (
	HistoryKey = "veribuy_history"
	SavedKey   = "veribuy_saved"

	DefaultHistoryLimit = 20
)

// ScanStore keeps the two scan collections, recent history and saved
// bookmarks, and writes the whole collection back on every change.
// History is capped; saved is not. An identity appears at most once per
// collection, but the same record may sit in both.
type ScanStore struct {
	kv     KeyValue
	logger *utils.Logger
	limit  int

	mu      sync.RWMutex
	history []models.ScanRecord
	saved   []models.ScanRecord
}

// NewScanStore creates an empty store; call Load to read persisted state.
func NewScanStore(kv KeyValue, historyLimit int, logger *utils.Logger) *ScanStore {
	if historyLimit < 1 {
		historyLimit = DefaultHistoryLimit
	}
	return &ScanStore{kv: kv, logger: logger, limit: historyLimit}
}

// Load reads both collections. A collection that cannot be read or parsed
// is logged and started empty; Load never fails.
func (s *ScanStore) Load(ctx context.Context) {
	history := s.loadCollection(ctx, HistoryKey)
	if len(history) > s.limit {
		history = history[:s.limit]
	}
	saved := s.loadCollection(ctx, SavedKey)

	s.mu.Lock()
	s.history = history
	s.saved = saved
	s.mu.Unlock()

	s.logger.Info("[store] Loaded %d history and %d saved scans", len(history), len(saved))
}

func (s *ScanStore) loadCollection(ctx context.Context, key string) []models.ScanRecord {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Error("[store] %v: read %s: %v", models.ErrPersistence, key, err)
		return nil
	}

	var records []models.ScanRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.logger.Error("[store] %v: parse %s: %v", models.ErrPersistence, key, err)
		return nil
	}
	return dedupe(records)
}

// RecordScan puts rec at the front of history and evicts the oldest entries
// beyond the limit. A record already present is moved to the front.
func (s *ScanStore) RecordScan(ctx context.Context, rec models.ScanRecord) error {
	if err := models.Validate(rec); err != nil {
		return fmt.Errorf("store: refusing incomplete record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.ScanRecord, 0, len(s.history)+1)
	next = append(next, rec)
	next = append(next, without(s.history, rec.ID)...)
	if len(next) > s.limit {
		next = next[:s.limit]
	}
	s.history = next
	return s.persist(ctx, HistoryKey, s.history)
}

// ToggleSaved removes rec from saved if present, otherwise prepends it.
// It reports whether the record is saved afterwards.
func (s *ScanStore) ToggleSaved(ctx context.Context, rec models.ScanRecord) (bool, error) {
	if err := models.Validate(rec); err != nil {
		return false, fmt.Errorf("store: refusing incomplete record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := indexOf(s.saved, rec.ID) < 0
	if saved {
		next := make([]models.ScanRecord, 0, len(s.saved)+1)
		s.saved = append(append(next, rec), s.saved...)
	} else {
		s.saved = without(s.saved, rec.ID)
	}
	return saved, s.persist(ctx, SavedKey, s.saved)
}

// DeleteFromHistory removes id from history. Unknown ids are ignored.
func (s *ScanStore) DeleteFromHistory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if indexOf(s.history, id) < 0 {
		return nil
	}
	s.history = without(s.history, id)
	return s.persist(ctx, HistoryKey, s.history)
}

// DeleteFromSaved removes id from saved. Unknown ids are ignored.
func (s *ScanStore) DeleteFromSaved(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if indexOf(s.saved, id) < 0 {
		return nil
	}
	s.saved = without(s.saved, id)
	return s.persist(ctx, SavedKey, s.saved)
}

// History returns the recent scans, newest first.
func (s *ScanStore) History() []models.ScanRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.history)
}

// Saved returns the bookmarked scans, most recently saved first.
func (s *ScanStore) Saved() []models.ScanRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.saved)
}

func (s *ScanStore) FindHistory(id string) (models.ScanRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.history, id)
}

func (s *ScanStore) FindSaved(id string) (models.ScanRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.saved, id)
}

// Find looks in history first, then saved.
func (s *ScanStore) Find(id string) (models.ScanRecord, bool) {
	if rec, ok := s.FindHistory(id); ok {
		return rec, true
	}
	return s.FindSaved(id)
}

// IsSaved reports whether id is bookmarked.
func (s *ScanStore) IsSaved(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOf(s.saved, id) >= 0
}

// persist must be called with s.mu held.
func (s *ScanStore) persist(ctx context.Context, key string, records []models.ScanRecord) error {
	if records == nil {
		records = []models.ScanRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", models.ErrPersistence, key, err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("%w: write %s: %v", models.ErrPersistence, key, err)
	}
	return nil
}

func indexOf(records []models.ScanRecord, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}

func find(records []models.ScanRecord, id string) (models.ScanRecord, bool) {
	if i := indexOf(records, id); i >= 0 {
		return records[i], true
	}
	return models.ScanRecord{}, false
}

func without(records []models.ScanRecord, id string) []models.ScanRecord {
	out := make([]models.ScanRecord, 0, len(records))
	for _, r := range records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func clone(records []models.ScanRecord) []models.ScanRecord {
	out := make([]models.ScanRecord, len(records))
	copy(out, records)
	return out
}

// dedupe keeps the first occurrence of each identity.
func dedupe(records []models.ScanRecord) []models.ScanRecord {
	seen := utils.NewKeySet()
	out := make([]models.ScanRecord, 0, len(records))
	for _, r := range records {
		if r.ID == "" || !seen.Add(r.ID) {
			continue
		}
		out = append(out, r)
	}
	return out
}

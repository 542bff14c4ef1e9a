package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryStore is a thread-safe in-memory implementation of Store.
// Used when no database is configured and in tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records map[string][]AnalysisRecord // job -> records
	now     func() time.Time
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string][]AnalysisRecord),
		now:     time.Now,
	}
}

// SaveAnalysis stores a copy of rec.
func (s *InMemoryStore) SaveAnalysis(ctx context.Context, rec *AnalysisRecord) error {
	if err := validate(rec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec.ID = s.nextID
	rec.CreatedAt = s.now()

	stored := *rec
	stored.Builds = append([]string{}, rec.Builds...)
	stored.Skipped = append([]string{}, rec.Skipped...)
	stored.Failing = append([]string{}, rec.Failing...)
	s.records[rec.Job] = append(s.records[rec.Job], stored)

	return nil
}

// ListAnalyses returns the newest records of job first.
func (s *InMemoryStore) ListAnalyses(ctx context.Context, job string, limit int) ([]AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := append([]AnalysisRecord{}, s.records[job]...)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ID > records[j].ID
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}

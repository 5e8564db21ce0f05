package storage

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"mercator-hq/chatrelay/pkg/audit"
)

// MemoryStorage implements audit.Storage with an in-memory map.
type MemoryStorage struct {
	records map[string]*audit.Record
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*audit.Record),
	}
}

// Store persists a copy of the record.
func (s *MemoryStorage) Store(ctx context.Context, record *audit.Record) error {
	if err := ctx.Err(); err != nil {
		return audit.NewStorageError("memory", "store", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recordCopy := *record
	s.records[record.ID] = &recordCopy

	return nil
}

// Query returns copies of matching records, sorted and paginated.
func (s *MemoryStorage) Query(ctx context.Context, query *audit.Query) ([]*audit.Record, error) {
	s.mu.RLock()
	results := make([]*audit.Record, 0)
	for _, record := range s.records {
		if matchesQuery(record, query) {
			recordCopy := *record
			results = append(results, &recordCopy)
		}
	}
	s.mu.RUnlock()

	sortRecords(results, query.SortBy, query.SortOrder)

	start := min(query.Offset, len(results))
	results = results[start:]
	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}

	return results, nil
}

// Count returns the number of matching records.
func (s *MemoryStorage) Count(ctx context.Context, query *audit.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if matchesQuery(record, query) {
			count++
		}
	}
	return count, nil
}

// Delete removes matching records.
func (s *MemoryStorage) Delete(ctx context.Context, query *audit.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if matchesQuery(record, query) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close is a no-op for the memory backend.
func (s *MemoryStorage) Close() error {
	return nil
}

// matchesQuery applies the filter part of a query; pagination and sorting
// are handled by the caller.
func matchesQuery(record *audit.Record, query *audit.Query) bool {
	if query.StartTime != nil && record.RequestTime.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.RequestTime.After(*query.EndTime) {
		return false
	}
	if query.RequestID != "" && record.RequestID != query.RequestID {
		return false
	}
	if query.Provider != "" && record.Provider != query.Provider {
		return false
	}
	if query.Model != "" && record.Model != query.Model {
		return false
	}
	if query.Outcome != "" && record.Outcome != query.Outcome {
		return false
	}
	return true
}

// sortRecords orders records by the given field, newest first by default.
func sortRecords(records []*audit.Record, sortBy, sortOrder string) {
	key := func(r *audit.Record) int64 {
		switch sortBy {
		case "recorded_time":
			return r.RecordedTime.UnixNano()
		case "duration":
			return int64(r.Duration)
		default:
			return r.RequestTime.UnixNano()
		}
	}

	slices.SortStableFunc(records, func(a, b *audit.Record) int {
		if sortOrder == "asc" {
			return cmp.Compare(key(a), key(b))
		}
		return cmp.Compare(key(b), key(a))
	})
}

package memory

import (
	"context"
	"sort"
	"sync"

	"solana-wallet-kit/internal/domain"
	"solana-wallet-kit/internal/storage"
)

// ActionEventStore is an in-memory implementation of storage.ActionEventStore.
type ActionEventStore struct {
	mu     sync.RWMutex
	events []*domain.ActionEvent
	seen   map[string]struct{} // activity_id
}

// NewActionEventStore creates a new in-memory action event store.
func NewActionEventStore() *ActionEventStore {
	return &ActionEventStore{
		seen: make(map[string]struct{}),
	}
}

// InsertBulk adds events atomically. Fails the entire batch on any duplicate.
func (s *ActionEventStore) InsertBulk(_ context.Context, events []*domain.ActionEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e == nil || e.ActivityID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.seen[e.ActivityID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[e.ActivityID]; exists {
			return storage.ErrDuplicateKey
		}
		batch[e.ActivityID] = struct{}{}
	}

	for _, e := range events {
		eventCopy := *e
		s.events = append(s.events, &eventCopy)
		s.seen[e.ActivityID] = struct{}{}
	}
	return nil
}

// GetByPanel retrieves events of panel within [start, end] ordered by timestamp ASC.
func (s *ActionEventStore) GetByPanel(_ context.Context, panel string, start, end int64) ([]*domain.ActionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ActionEvent
	for _, e := range s.events {
		if e.Panel == panel && e.TimestampMs >= start && e.TimestampMs <= end {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result, nil
}

var _ storage.ActionEventStore = (*ActionEventStore)(nil)

package memory

import (
	"context"
	"sort"
	"sync"

	"solana-wallet-kit/internal/domain"
	"solana-wallet-kit/internal/storage"
)

// ActivityStore is an in-memory implementation of storage.ActivityStore.
type ActivityStore struct {
	mu       sync.RWMutex
	byID     map[string]*domain.Activity
	byWallet map[string][]*domain.Activity // append order
}

// NewActivityStore creates a new in-memory activity store.
func NewActivityStore() *ActivityStore {
	return &ActivityStore{
		byID:     make(map[string]*domain.Activity),
		byWallet: make(map[string][]*domain.Activity),
	}
}

// Insert adds a finished activity. Returns ErrDuplicateKey if id exists.
func (s *ActivityStore) Insert(_ context.Context, a *domain.Activity) error {
	if a == nil || a.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[a.ID]; exists {
		return storage.ErrDuplicateKey
	}

	actCopy := copyActivity(a)
	s.byID[a.ID] = actCopy
	s.byWallet[a.Wallet] = append(s.byWallet[a.Wallet], actCopy)
	return nil
}

// GetByID retrieves an activity by ID. Returns ErrNotFound if not exists.
func (s *ActivityStore) GetByID(_ context.Context, id string) (*domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.byID[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyActivity(a), nil
}

// ListByWallet retrieves the latest activities of wallet, newest first.
func (s *ActivityStore) ListByWallet(_ context.Context, wallet string, limit int) ([]*domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return newestFirst(s.byWallet[wallet], storage.NormalizeLimit(limit)), nil
}

// ListRecent retrieves the latest activities across all wallets, newest first.
func (s *ActivityStore) ListRecent(_ context.Context, limit int) ([]*domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*domain.Activity, 0, len(s.byID))
	for _, a := range s.byID {
		all = append(all, a)
	}
	return newestFirst(all, storage.NormalizeLimit(limit)), nil
}

// newestFirst sorts a copy of src by finished_at DESC, id DESC and truncates to limit.
func newestFirst(src []*domain.Activity, limit int) []*domain.Activity {
	sorted := make([]*domain.Activity, len(src))
	copy(sorted, src)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].FinishedAt != sorted[j].FinishedAt {
			return sorted[i].FinishedAt > sorted[j].FinishedAt
		}
		return sorted[i].ID > sorted[j].ID
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	result := make([]*domain.Activity, len(sorted))
	for i, a := range sorted {
		result[i] = copyActivity(a)
	}
	return result
}

func copyActivity(a *domain.Activity) *domain.Activity {
	c := *a
	if a.Signature != nil {
		sig := *a.Signature
		c.Signature = &sig
	}
	return &c
}

var _ storage.ActivityStore = (*ActivityStore)(nil)

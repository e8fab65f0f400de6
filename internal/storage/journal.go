package storage

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"solana-wallet-kit/internal/domain"
)

// Journal records finished actions: the activity row immediately, the
// analytics event in batches.
type Journal struct {
	activities ActivityStore
	events     ActionEventStore
	batchSize  int
	logger     *zap.Logger

	mu      sync.Mutex
	pending []*domain.ActionEvent
}

// NewJournal creates a Journal. events may be nil to skip analytics.
func NewJournal(activities ActivityStore, events ActionEventStore, batchSize int, logger *zap.Logger) *Journal {
	if batchSize <= 0 {
		batchSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Journal{
		activities: activities,
		events:     events,
		batchSize:  batchSize,
		logger:     logger.Named("journal"),
	}
}

// Record stores a and queues its analytics event.
func (j *Journal) Record(ctx context.Context, a *domain.Activity) error {
	if a == nil || a.ID == "" {
		return ErrInvalidInput
	}
	if err := j.activities.Insert(ctx, a); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	if j.events == nil {
		return nil
	}

	j.mu.Lock()
	j.pending = append(j.pending, domain.NewActionEvent(a))
	full := len(j.pending) >= j.batchSize
	j.mu.Unlock()

	if full {
		return j.Flush(ctx)
	}
	return nil
}

// Flush writes queued analytics events. Failed batches are dropped and logged.
func (j *Journal) Flush(ctx context.Context) error {
	if j.events == nil {
		return nil
	}
	j.mu.Lock()
	batch := j.pending
	j.pending = nil
	j.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if err := j.events.InsertBulk(ctx, batch); err != nil {
		j.logger.Warn("dropping action events", zap.Int("count", len(batch)), zap.Error(err))
		return fmt.Errorf("insert action events: %w", err)
	}
	return nil
}

// Recent lists the latest activities of wallet.
func (j *Journal) Recent(ctx context.Context, wallet string, limit int) ([]*domain.Activity, error) {
	if wallet == "" {
		return j.activities.ListRecent(ctx, limit)
	}
	return j.activities.ListByWallet(ctx, wallet, limit)
}

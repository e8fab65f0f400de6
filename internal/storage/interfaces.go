package storage

import (
	"context"

	"solana-wallet-kit/internal/domain"
)

// ActivityStore provides access to wallet_activity storage.
type ActivityStore interface {
	// Insert adds a finished activity. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, a *domain.Activity) error

	// GetByID retrieves an activity by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Activity, error)

	// ListByWallet retrieves the most recent activities of a wallet, newest first.
	// An empty wallet lists activities recorded while disconnected.
	ListByWallet(ctx context.Context, wallet string, limit int) ([]*domain.Activity, error)

	// ListRecent retrieves the most recent activities across all wallets, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.Activity, error)
}

// ActionEventStore provides access to action_events analytics storage.
type ActionEventStore interface {
	// InsertBulk adds multiple events. Fails entire batch on duplicate activity_id.
	InsertBulk(ctx context.Context, events []*domain.ActionEvent) error

	// GetByPanel retrieves events of a panel within [start, end] ms (inclusive),
	// ordered by timestamp ASC.
	GetByPanel(ctx context.Context, panel string, start, end int64) ([]*domain.ActionEvent, error)
}

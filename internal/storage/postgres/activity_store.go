package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-wallet-kit/internal/domain"
	"solana-wallet-kit/internal/storage"
)

// ActivityStore implements storage.ActivityStore using PostgreSQL.
type ActivityStore struct {
	pool *Pool
}

// NewActivityStore creates a new ActivityStore.
func NewActivityStore(pool *Pool) *ActivityStore {
	return &ActivityStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ActivityStore = (*ActivityStore)(nil)

const activityColumns = `id, panel, action, wallet, signature, outcome, error_kind, message, started_at, finished_at`

// Insert adds a finished activity. Returns ErrDuplicateKey if id exists.
func (s *ActivityStore) Insert(ctx context.Context, a *domain.Activity) (err error) {
	defer observe("insert_activity", time.Now(), &err)
	if a == nil || a.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO wallet_activity (` + activityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = s.pool.Exec(ctx, query,
		a.ID,
		a.Panel,
		a.Action,
		a.Wallet,
		a.Signature,
		string(a.Outcome),
		a.ErrorKind,
		a.Message,
		a.StartedAt,
		a.FinishedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// GetByID retrieves an activity by ID. Returns ErrNotFound if not exists.
func (s *ActivityStore) GetByID(ctx context.Context, id string) (*domain.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM wallet_activity WHERE id = $1`

	a, err := scanActivity(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get activity by id: %w", err)
	}
	return a, nil
}

// ListByWallet retrieves the latest activities of wallet, newest first.
func (s *ActivityStore) ListByWallet(ctx context.Context, wallet string, limit int) ([]*domain.Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM wallet_activity
		WHERE wallet = $1
		ORDER BY finished_at DESC, id DESC
		LIMIT $2
	`
	return s.list(ctx, query, wallet, storage.NormalizeLimit(limit))
}

// ListRecent retrieves the latest activities across all wallets, newest first.
func (s *ActivityStore) ListRecent(ctx context.Context, limit int) ([]*domain.Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM wallet_activity
		ORDER BY finished_at DESC, id DESC
		LIMIT $1
	`
	return s.list(ctx, query, storage.NormalizeLimit(limit))
}

func (s *ActivityStore) list(ctx context.Context, query string, args ...any) ([]*domain.Activity, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var result []*domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return result, nil
}

// scanActivity scans a single row into Activity.
func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var a domain.Activity
	var outcome string

	err := row.Scan(
		&a.ID,
		&a.Panel,
		&a.Action,
		&a.Wallet,
		&a.Signature,
		&outcome,
		&a.ErrorKind,
		&a.Message,
		&a.StartedAt,
		&a.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Outcome = domain.Outcome(outcome)

	return &a, nil
}

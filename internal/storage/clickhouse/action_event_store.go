package clickhouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"solana-wallet-kit/internal/domain"
	"solana-wallet-kit/internal/storage"
)

// ActionEventStore implements storage.ActionEventStore using ClickHouse.
type ActionEventStore struct {
	conn *Conn
}

// NewActionEventStore creates a new ActionEventStore.
func NewActionEventStore(conn *Conn) *ActionEventStore {
	return &ActionEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ActionEventStore = (*ActionEventStore)(nil)

// InsertBulk adds events in one batch. Fails entire batch on any duplicate activity_id.
func (s *ActionEventStore) InsertBulk(ctx context.Context, events []*domain.ActionEvent) (err error) {
	if len(events) == 0 {
		return nil
	}
	defer observe("insert_action_events", time.Now(), &err)

	// MergeTree does not enforce uniqueness, check explicitly.
	seen := make(map[string]struct{}, len(events))
	ids := make([]string, 0, len(events))
	for _, e := range events {
		if e == nil || e.ActivityID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[e.ActivityID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[e.ActivityID] = struct{}{}
		ids = append(ids, e.ActivityID)
	}

	exists, err := s.anyExists(ctx, ids)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO action_events (
			activity_id, panel, action, outcome, error_kind, duration_ms, timestamp_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		err := batch.Append(
			e.ActivityID,
			e.Panel,
			e.Action,
			string(e.Outcome),
			e.ErrorKind,
			e.DurationMs,
			e.TimestampMs,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByPanel retrieves events of panel within [start, end] ordered by timestamp ASC.
func (s *ActionEventStore) GetByPanel(ctx context.Context, panel string, start, end int64) ([]*domain.ActionEvent, error) {
	query := `
		SELECT activity_id, panel, action, outcome, error_kind, duration_ms, timestamp_ms
		FROM action_events
		WHERE panel = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, activity_id ASC
	`

	rows, err := s.conn.Query(ctx, query, panel, start, end)
	if err != nil {
		return nil, fmt.Errorf("query action events: %w", err)
	}
	defer rows.Close()

	var result []*domain.ActionEvent
	for rows.Next() {
		var e domain.ActionEvent
		var outcome string
		if err := rows.Scan(
			&e.ActivityID,
			&e.Panel,
			&e.Action,
			&outcome,
			&e.ErrorKind,
			&e.DurationMs,
			&e.TimestampMs,
		); err != nil {
			return nil, fmt.Errorf("scan action event: %w", err)
		}
		e.Outcome = domain.Outcome(outcome)
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action events: %w", err)
	}
	return result, nil
}

func (s *ActionEventStore) anyExists(ctx context.Context, ids []string) (bool, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	var count uint64
	query := `SELECT count() FROM action_events WHERE activity_id IN (` + placeholders + `)`
	if err := s.conn.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

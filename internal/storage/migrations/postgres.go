package migrations

import (
	"context"
	"fmt"

	"solana-wallet-kit/internal/storage/postgres"
)

// RunPostgresMigrations creates the wallet_activity table and its indexes.
// Every file uses IF NOT EXISTS, so running it on each start is safe.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := schemaFiles("postgres")
	if err != nil {
		return err
	}
	for _, f := range files {
		// pgx runs a multi-statement string over the simple protocol.
		if _, err := pool.Exec(ctx, f.body); err != nil {
			return fmt.Errorf("apply postgres %s: %w", f.name, err)
		}
	}
	return nil
}

package poller

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/omniboxai/omnibox/internal/db"
	"github.com/omniboxai/omnibox/internal/db/sqlc"
)

// Checkpoints is the Postgres-backed CheckpointStore. Cursors survive
// restarts so a redeploy never refetches the whole catch-up window.
type Checkpoints struct {
	queries *sqlc.Queries
	logger  *slog.Logger
}

func NewCheckpoints(log *slog.Logger, queries *sqlc.Queries) *Checkpoints {
	return &Checkpoints{
		queries: queries,
		logger:  log.With(slog.String("service", "checkpoints")),
	}
}

// Get returns the stored cursor, or "" when this (tenant, provider) pair
// has never been polled.
func (c *Checkpoints) Get(ctx context.Context, tenantID, providerName string) (string, error) {
	pgTenant, err := db.ParseUUID(tenantID)
	if err != nil {
		return "", err
	}
	row, err := c.queries.GetPollCheckpoint(ctx, sqlc.GetPollCheckpointParams{
		TenantID: pgTenant,
		Provider: providerName,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.Cursor, nil
}

func (c *Checkpoints) Put(ctx context.Context, tenantID, providerName, cursor string) error {
	pgTenant, err := db.ParseUUID(tenantID)
	if err != nil {
		return err
	}
	return c.queries.UpsertPollCheckpoint(ctx, sqlc.UpsertPollCheckpointParams{
		TenantID: pgTenant,
		Provider: providerName,
		Cursor:   cursor,
	})
}

package followup

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/omniboxai/omnibox/internal/db"
	"github.com/omniboxai/omnibox/internal/db/sqlc"
)

// Leads is the Postgres-backed LeadStore.
type Leads struct {
	queries *sqlc.Queries
	logger  *slog.Logger
}

func NewLeads(log *slog.Logger, queries *sqlc.Queries) *Leads {
	return &Leads{
		queries: queries,
		logger:  log.With(slog.String("service", "leads")),
	}
}

func (l *Leads) Create(ctx context.Context, tenantID, name, email, emailContext string) (Lead, error) {
	pgTenant, err := db.ParseUUID(tenantID)
	if err != nil {
		return Lead{}, err
	}
	row, err := l.queries.CreateLead(ctx, sqlc.CreateLeadParams{
		TenantID:     pgTenant,
		Name:         name,
		Email:        email,
		EmailContext: emailContext,
	})
	if err != nil {
		return Lead{}, err
	}
	return leadFromRow(row), nil
}

func (l *Leads) ListByTenant(ctx context.Context, tenantID string) ([]Lead, error) {
	pgTenant, err := db.ParseUUID(tenantID)
	if err != nil {
		return nil, err
	}
	rows, err := l.queries.ListLeadsByTenant(ctx, pgTenant)
	if err != nil {
		return nil, err
	}
	out := make([]Lead, 0, len(rows))
	for _, row := range rows {
		out = append(out, leadFromRow(row))
	}
	return out, nil
}

func (l *Leads) MarkFollowedUp(ctx context.Context, leadID string, at time.Time, emailContext string) error {
	pgID, err := db.ParseUUID(leadID)
	if err != nil {
		return err
	}
	return l.queries.UpdateLeadFollowUp(ctx, sqlc.UpdateLeadFollowUpParams{
		ID:             pgID,
		LastFollowUpAt: pgtype.Timestamptz{Time: at, Valid: true},
		EmailContext:   emailContext,
	})
}

func leadFromRow(row sqlc.Lead) Lead {
	lead := Lead{
		ID:           db.UUIDString(row.ID),
		TenantID:     db.UUIDString(row.TenantID),
		Name:         row.Name,
		Email:        row.Email,
		EmailContext: row.EmailContext,
		CreatedAt:    row.CreatedAt.Time,
	}
	if row.LastFollowUpAt.Valid {
		t := row.LastFollowUpAt.Time
		lead.LastFollowUpAt = &t
	}
	return lead
}

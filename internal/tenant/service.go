package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/omniboxai/omnibox/internal/db"
	"github.com/omniboxai/omnibox/internal/db/sqlc"
)

type Service struct {
	queries *sqlc.Queries
	logger  *slog.Logger
}

func NewService(log *slog.Logger, queries *sqlc.Queries) *Service {
	return &Service{
		queries: queries,
		logger:  log.With(slog.String("service", "tenant")),
	}
}

func (s *Service) Get(ctx context.Context, tenantID string) (Tenant, error) {
	pgID, err := db.ParseUUID(tenantID)
	if err != nil {
		return Tenant{}, err
	}
	row, err := s.queries.GetTenant(ctx, pgID)
	if err != nil {
		return Tenant{}, err
	}
	return fromRow(row), nil
}

// Create registers a new tenant.
func (s *Service) Create(ctx context.Context, t Tenant) (Tenant, error) {
	params := sqlc.CreateTenantParams{
		Name:             t.Name,
		ReplyPolicyText:  t.ReplyPolicy,
		ReplyFlowText:    t.ReplyFlow,
		BusinessCategory: t.BusinessCategory,
		Goal:             t.Goal,
	}
	if t.FollowUpCadence != nil {
		params.FollowUpCadenceMs = pgtype.Int8{Int64: t.FollowUpCadence.Milliseconds(), Valid: true}
	}
	row, err := s.queries.CreateTenant(ctx, params)
	if err != nil {
		return Tenant{}, err
	}
	return fromRow(row), nil
}

// ConnectCredential stores (or replaces) the tenant's credential for a
// provider and activates it.
func (s *Service) ConnectCredential(ctx context.Context, tenantID, providerName, address string, creds map[string]any) (Credential, error) {
	pgID, err := db.ParseUUID(tenantID)
	if err != nil {
		return Credential{}, err
	}
	payload, err := json.Marshal(creds)
	if err != nil {
		return Credential{}, fmt.Errorf("encode credentials: %w", err)
	}
	row, err := s.queries.UpsertTenantCredential(ctx, sqlc.UpsertTenantCredentialParams{
		TenantID:    pgID,
		Provider:    providerName,
		Address:     address,
		Credentials: payload,
	})
	if err != nil {
		return Credential{}, err
	}
	return Credential{
		ID:       db.UUIDString(row.ID),
		TenantID: db.UUIDString(row.TenantID),
		Provider: row.Provider,
		Address:  row.Address,
		Status:   row.Status,
	}, nil
}

// ListWithCadence returns tenants that have lead follow-ups enabled.
func (s *Service) ListWithCadence(ctx context.Context) ([]Tenant, error) {
	rows, err := s.queries.ListTenantsWithCadence(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Tenant, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

// ListActiveCredentials returns every active credential for the given
// provider across all tenants, the unit of work for one polling cycle.
func (s *Service) ListActiveCredentials(ctx context.Context, providerName string) ([]Credential, error) {
	rows, err := s.queries.ListActiveCredentialsByProvider(ctx, providerName)
	if err != nil {
		return nil, err
	}
	out := make([]Credential, 0, len(rows))
	for _, row := range rows {
		cred := Credential{
			ID:         db.UUIDString(row.ID),
			TenantID:   db.UUIDString(row.TenantID),
			TenantName: row.TenantName,
			Provider:   row.Provider,
			Address:    row.Address,
			Status:     row.Status,
		}
		if len(row.Credentials) > 0 {
			if err := json.Unmarshal(row.Credentials, &cred.Credentials); err != nil {
				s.logger.Warn("skipping credential with malformed payload",
					slog.String("credential_id", cred.ID),
					slog.Any("error", err))
				continue
			}
		}
		out = append(out, cred)
	}
	return out, nil
}

// ListActiveCredentialsForTenant returns the tenant's usable credentials
// across providers, for callers that pick any sendable channel.
func (s *Service) ListActiveCredentialsForTenant(ctx context.Context, tenantID string) ([]Credential, error) {
	pgID, err := db.ParseUUID(tenantID)
	if err != nil {
		return nil, err
	}
	rows, err := s.queries.ListActiveCredentialsByTenant(ctx, pgID)
	if err != nil {
		return nil, err
	}
	out := make([]Credential, 0, len(rows))
	for _, row := range rows {
		cred := Credential{
			ID:       db.UUIDString(row.ID),
			TenantID: db.UUIDString(row.TenantID),
			Provider: row.Provider,
			Address:  row.Address,
			Status:   row.Status,
		}
		if len(row.Credentials) > 0 {
			if err := json.Unmarshal(row.Credentials, &cred.Credentials); err != nil {
				s.logger.Warn("skipping credential with malformed payload",
					slog.String("credential_id", cred.ID),
					slog.Any("error", err))
				continue
			}
		}
		out = append(out, cred)
	}
	return out, nil
}

func (s *Service) GetCredential(ctx context.Context, tenantID, providerName string) (Credential, error) {
	pgID, err := db.ParseUUID(tenantID)
	if err != nil {
		return Credential{}, err
	}
	row, err := s.queries.GetTenantCredential(ctx, sqlc.GetTenantCredentialParams{
		TenantID: pgID,
		Provider: providerName,
	})
	if err != nil {
		return Credential{}, err
	}
	cred := Credential{
		ID:       db.UUIDString(row.ID),
		TenantID: db.UUIDString(row.TenantID),
		Provider: row.Provider,
		Address:  row.Address,
		Status:   row.Status,
	}
	if len(row.Credentials) > 0 {
		if err := json.Unmarshal(row.Credentials, &cred.Credentials); err != nil {
			return Credential{}, fmt.Errorf("decode credentials for %s: %w", cred.ID, err)
		}
	}
	return cred, nil
}

// SaveCredentials persists refreshed credentials and re-activates the row.
func (s *Service) SaveCredentials(ctx context.Context, credentialID string, creds map[string]any) error {
	pgID, err := db.ParseUUID(credentialID)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	return s.queries.UpdateTenantCredentials(ctx, sqlc.UpdateTenantCredentialsParams{
		ID:          pgID,
		Credentials: payload,
	})
}

// MarkNeedsReauth wipes the stored secret and flips the row to
// needs_reauth so later cycles skip it until the tenant re-authorizes.
func (s *Service) MarkNeedsReauth(ctx context.Context, credentialID string) error {
	pgID, err := db.ParseUUID(credentialID)
	if err != nil {
		return err
	}
	s.logger.Warn("credential flagged for re-authorization", slog.String("credential_id", credentialID))
	return s.queries.MarkCredentialNeedsReauth(ctx, pgID)
}

func fromRow(row sqlc.Tenant) Tenant {
	t := Tenant{
		ID:               db.UUIDString(row.ID),
		Name:             row.Name,
		ReplyPolicy:      row.ReplyPolicyText,
		ReplyFlow:        row.ReplyFlowText,
		BusinessCategory: row.BusinessCategory,
		Goal:             row.Goal,
		CreatedAt:        row.CreatedAt.Time,
		UpdatedAt:        row.UpdatedAt.Time,
	}
	if row.FollowUpCadenceMs.Valid && row.FollowUpCadenceMs.Int64 > 0 {
		d := time.Duration(row.FollowUpCadenceMs.Int64) * time.Millisecond
		t.FollowUpCadence = &d
	}
	return t
}

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/omniboxai/omnibox/internal/db"
	"github.com/omniboxai/omnibox/internal/db/sqlc"
	"github.com/omniboxai/omnibox/internal/provider"
)

// Service is the canonical message store. Deduplication happens here: the
// same provider message can arrive any number of times across polling
// cycles and converges onto a single row.
type Service struct {
	queries *sqlc.Queries
	logger  *slog.Logger
}

func NewService(log *slog.Logger, queries *sqlc.Queries) *Service {
	return &Service{
		queries: queries,
		logger:  log.With(slog.String("service", "store")),
	}
}

// Upsert persists a provider-normalized message. The second return reports
// whether the row is new; re-deliveries return the already-stored row
// untouched.
func (s *Service) Upsert(ctx context.Context, tenantID, providerName string, raw provider.RawMessage) (Message, bool, error) {
	pgTenant, err := db.ParseUUID(tenantID)
	if err != nil {
		return Message{}, false, err
	}

	row, err := s.queries.InsertMessage(ctx, sqlc.InsertMessageParams{
		TenantID:          pgTenant,
		ChannelID:         raw.ChannelID,
		ProviderMessageID: raw.ProviderMessageID,
		Provider:          providerName,
		Direction:         string(raw.Direction),
		Sender:            raw.Sender,
		Recipient:         raw.Recipient,
		Subject:           raw.Subject,
		BodyText:          NormalizeBody(raw.BodyText, raw.BodyHTML),
		BodyHtml:          raw.BodyHTML,
		ThreadRef:         raw.ThreadRef,
		SentAt:            pgtype.Timestamptz{Time: raw.SentAt, Valid: true},
		IsRead:            raw.IsRead,
	})
	if err == nil {
		return fromRow(row), true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Message{}, false, fmt.Errorf("insert message: %w", err)
	}

	// Conflict: some earlier delivery won the insert. Converge on its row.
	row, err = s.queries.GetMessageByProviderID(ctx, sqlc.GetMessageByProviderIDParams{
		TenantID:          pgTenant,
		ProviderMessageID: raw.ProviderMessageID,
	})
	if err != nil {
		return Message{}, false, fmt.Errorf("fetch deduplicated message: %w", err)
	}
	return fromRow(row), false, nil
}

func (s *Service) Get(ctx context.Context, id string) (Message, error) {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return Message{}, err
	}
	row, err := s.queries.GetMessage(ctx, pgID)
	if err != nil {
		return Message{}, err
	}
	return fromRow(row), nil
}

// MarkReplied claims the message for reply delivery. It returns true for
// exactly one caller; everyone else sees false and must not send. A
// message that was closed without a send cannot be claimed.
func (s *Service) MarkReplied(ctx context.Context, id string) (bool, error) {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return false, err
	}
	affected, err := s.queries.MarkMessageReplied(ctx, pgID)
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// MarkClosed takes a message out of the pending set without sending
// anything, recording why. Same claim semantics as MarkReplied: the
// update wins for exactly one caller, and replied rows stay untouched,
// so replied keeps meaning "a reply was actually delivered".
func (s *Service) MarkClosed(ctx context.Context, id, reason string) (bool, error) {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return false, err
	}
	affected, err := s.queries.CloseMessage(ctx, sqlc.CloseMessageParams{
		ID:           pgID,
		ClosedReason: reason,
	})
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// ReleaseReplied undoes a claim after a failed send so a later cycle can
// retry. Only the claim holder may call this.
func (s *Service) ReleaseReplied(ctx context.Context, id string) error {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return err
	}
	return s.queries.ReleaseMessageReplied(ctx, pgID)
}

func (s *Service) SetAction(ctx context.Context, id string, action Action) error {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return err
	}
	return s.queries.SetMessageAction(ctx, sqlc.SetMessageActionParams{
		ID:             pgID,
		ActionRequired: action.Required,
		ActionReason:   action.Reason,
		ActionType:     action.Type,
		Urgency:        action.Urgency,
	})
}

// HasLaterOutbound reports whether anything went out on the channel after
// the given time, meaning an inbound message was already answered.
func (s *Service) HasLaterOutbound(ctx context.Context, tenantID, channelID string, after time.Time) (bool, error) {
	pgTenant, err := db.ParseUUID(tenantID)
	if err != nil {
		return false, err
	}
	return s.queries.HasLaterOutbound(ctx, sqlc.HasLaterOutboundParams{
		TenantID:  pgTenant,
		ChannelID: channelID,
		SentAt:    pgtype.Timestamptz{Time: after, Valid: true},
	})
}

// ListPending returns inbound messages not yet replied to, not escalated
// and not closed, oldest first. Both fresh arrivals and earlier failures
// show up here, so retry needs no bookkeeping of its own.
func (s *Service) ListPending(ctx context.Context, tenantID, providerName string, limit int) ([]Message, error) {
	pgTenant, err := db.ParseUUID(tenantID)
	if err != nil {
		return nil, err
	}
	rows, err := s.queries.ListPendingInbound(ctx, sqlc.ListPendingInboundParams{
		TenantID: pgTenant,
		Provider: providerName,
		Limit:    int32(limit),
	})
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

// ListConversations returns the newest message of every channel.
func (s *Service) ListConversations(ctx context.Context, tenantID string) ([]Message, error) {
	pgTenant, err := db.ParseUUID(tenantID)
	if err != nil {
		return nil, err
	}
	rows, err := s.queries.ListConversations(ctx, pgTenant)
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

func (s *Service) ListConversationMessages(ctx context.Context, tenantID, channelID string) ([]Message, error) {
	pgTenant, err := db.ParseUUID(tenantID)
	if err != nil {
		return nil, err
	}
	rows, err := s.queries.ListConversationMessages(ctx, sqlc.ListConversationMessagesParams{
		TenantID:  pgTenant,
		ChannelID: channelID,
	})
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

func (s *Service) SetNotificationRead(ctx context.Context, id string) error {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return err
	}
	return s.queries.SetNotificationRead(ctx, pgID)
}

func (s *Service) SetFeedback(ctx context.Context, id, feedback string) error {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return err
	}
	return s.queries.SetMessageFeedback(ctx, sqlc.SetMessageFeedbackParams{
		ID:       pgID,
		Feedback: feedback,
	})
}

func fromRows(rows []sqlc.Message) []Message {
	out := make([]Message, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out
}

func fromRow(row sqlc.Message) Message {
	return Message{
		ID:                db.UUIDString(row.ID),
		TenantID:          db.UUIDString(row.TenantID),
		ChannelID:         row.ChannelID,
		ProviderMessageID: row.ProviderMessageID,
		Provider:          row.Provider,
		Direction:         row.Direction,
		Sender:            row.Sender,
		Recipient:         row.Recipient,
		Subject:           row.Subject,
		BodyText:          row.BodyText,
		BodyHTML:          row.BodyHtml,
		ThreadRef:         row.ThreadRef,
		SentAt:            row.SentAt.Time,
		IsRead:            row.IsRead,
		NotificationRead:  row.NotificationRead,
		Replied:           row.Replied,
		ActionRequired:    row.ActionRequired,
		ActionReason:      row.ActionReason,
		ActionType:        row.ActionType,
		Urgency:           row.Urgency,
		Feedback:          row.Feedback,
		ClosedReason:      row.ClosedReason,
		CreatedAt:         row.CreatedAt.Time,
		UpdatedAt:         row.UpdatedAt.Time,
	}
}

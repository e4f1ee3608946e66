package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/omniboxai/omnibox/internal/db"
	"github.com/omniboxai/omnibox/internal/db/sqlc"
	"github.com/omniboxai/omnibox/internal/store"
)

// Service maintains the per-channel conversation context projection and
// the per-channel settings that gate automated replies.
type Service struct {
	queries *sqlc.Queries
	logger  *slog.Logger
}

func NewService(log *slog.Logger, queries *sqlc.Queries) *Service {
	return &Service{
		queries: queries,
		logger:  log.With(slog.String("service", "conversation")),
	}
}

// Get returns the projected context for a channel, empty when none exists.
func (s *Service) Get(ctx context.Context, tenantID, channelID string) ([]Entry, error) {
	pgTenant, err := db.ParseUUID(tenantID)
	if err != nil {
		return nil, err
	}
	row, err := s.queries.GetConversationContext(ctx, sqlc.GetConversationContextParams{
		TenantID:  pgTenant,
		ChannelID: channelID,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeEntries(row.Context)
}

// Append merges new entries into the channel's context. Appending an entry
// whose message id is already projected is a no-op, so re-deliveries and
// retried cycles cannot double up the transcript.
func (s *Service) Append(ctx context.Context, tenantID, channelID string, entries ...Entry) ([]Entry, error) {
	if len(entries) == 0 {
		return s.Get(ctx, tenantID, channelID)
	}
	existing, err := s.Get(ctx, tenantID, channelID)
	if err != nil {
		return nil, err
	}
	merged := Merge(existing, entries)
	if err := s.put(ctx, tenantID, channelID, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Rebuild reprojects the context from the canonical message store,
// discarding whatever the JSONB column held. Recovery path for a
// corrupted or hand-edited projection.
func (s *Service) Rebuild(ctx context.Context, tenantID, channelID string, messages []store.Message) ([]Entry, error) {
	entries := make([]Entry, 0, len(messages))
	for _, m := range messages {
		entries = append(entries, EntryFromMessage(m))
	}
	merged := Merge(nil, entries)
	if err := s.put(ctx, tenantID, channelID, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// AttachFeedback sets the tenant's note on an already-projected entry.
// Returns false when the message is not in the projection yet; the caller
// may retry after the next append.
func (s *Service) AttachFeedback(ctx context.Context, tenantID, channelID, messageID, feedback string) (bool, error) {
	entries, err := s.Get(ctx, tenantID, channelID)
	if err != nil {
		return false, err
	}
	found := false
	for i := range entries {
		if entries[i].MessageID == messageID {
			entries[i].Feedback = feedback
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}
	if err := s.put(ctx, tenantID, channelID, entries); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) put(ctx context.Context, tenantID, channelID string, entries []Entry) error {
	pgTenant, err := db.ParseUUID(tenantID)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode context: %w", err)
	}
	return s.queries.UpsertConversationContext(ctx, sqlc.UpsertConversationContextParams{
		TenantID:  pgTenant,
		ChannelID: channelID,
		Context:   payload,
	})
}

// AutoReplyEnabled reports whether automated replies are on for the
// channel. Channels with no settings row default to enabled.
func (s *Service) AutoReplyEnabled(ctx context.Context, tenantID, channelID string) (bool, error) {
	pgTenant, err := db.ParseUUID(tenantID)
	if err != nil {
		return false, err
	}
	row, err := s.queries.GetConversationSettings(ctx, sqlc.GetConversationSettingsParams{
		TenantID:  pgTenant,
		ChannelID: channelID,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return row.AutoReplyEnabled, nil
}

func (s *Service) SetAutoReply(ctx context.Context, tenantID, channelID string, enabled bool) (bool, error) {
	pgTenant, err := db.ParseUUID(tenantID)
	if err != nil {
		return false, err
	}
	row, err := s.queries.UpsertConversationSettings(ctx, sqlc.UpsertConversationSettingsParams{
		TenantID:         pgTenant,
		ChannelID:        channelID,
		AutoReplyEnabled: enabled,
	})
	if err != nil {
		return false, err
	}
	s.logger.Info("auto-reply toggled",
		slog.String("tenant_id", tenantID),
		slog.String("channel_id", channelID),
		slog.Bool("enabled", row.AutoReplyEnabled))
	return row.AutoReplyEnabled, nil
}

// EntryFromMessage projects a stored message into a context entry.
func EntryFromMessage(m store.Message) Entry {
	role := RoleContact
	if m.Direction == store.DirectionOutbound {
		role = RoleTenant
	}
	return Entry{
		MessageID: m.ID,
		Role:      role,
		Sender:    m.Sender,
		Body:      m.BodyText,
		SentAt:    m.SentAt,
	}
}

func decodeEntries(raw []byte) ([]Entry, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode context: %w", err)
	}
	return entries, nil
}

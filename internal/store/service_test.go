package store

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniboxai/omnibox/internal/db/sqlc"
	"github.com/omniboxai/omnibox/internal/provider"
)

// fakeRow implements pgx.Row with a custom scan function.
type fakeRow struct {
	scanFunc func(dest ...any) error
}

func (r *fakeRow) Scan(dest ...any) error {
	return r.scanFunc(dest...)
}

// fakeDBTX implements sqlc.DBTX for unit testing.
type fakeDBTX struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (d *fakeDBTX) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	if d.execFunc != nil {
		return d.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

func (d *fakeDBTX) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, nil
}

func (d *fakeDBTX) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if d.queryRowFunc != nil {
		return d.queryRowFunc(ctx, sql, args...)
	}
	return &fakeRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

func mustParseUUID(s string) pgtype.UUID {
	var u pgtype.UUID
	_ = u.Scan(s)
	return u
}

const (
	testTenantID  = "00000000-0000-0000-0000-000000000001"
	testMessageID = "00000000-0000-0000-0000-0000000000aa"
)

// makeMessageRow creates a fakeRow that populates a sqlc.Message via Scan.
func makeMessageRow(id, tenantID pgtype.UUID, providerMessageID string, replied bool) *fakeRow {
	return &fakeRow{
		scanFunc: func(dest ...any) error {
			if len(dest) < 24 {
				return pgx.ErrNoRows
			}
			*dest[0].(*pgtype.UUID) = id
			*dest[1].(*pgtype.UUID) = tenantID
			*dest[2].(*string) = "thread-1"
			*dest[3].(*string) = providerMessageID
			*dest[4].(*string) = "gmailbox"
			*dest[5].(*string) = DirectionInbound
			*dest[6].(*string) = "alice@example.com"
			*dest[7].(*string) = "box@tenant.example"
			*dest[8].(*string) = "Hello"
			*dest[9].(*string) = "body"
			*dest[10].(*string) = ""
			*dest[11].(*string) = "<m1@example.com>"
			*dest[12].(*pgtype.Timestamptz) = pgtype.Timestamptz{Time: time.Unix(1700000000, 0), Valid: true}
			*dest[13].(*bool) = false // is_read
			*dest[14].(*bool) = false // notification_read
			*dest[15].(*bool) = replied
			*dest[16].(*bool) = false // action_required
			*dest[17].(*string) = ""
			*dest[18].(*string) = ""
			*dest[19].(*string) = ""
			*dest[20].(*string) = ""
			*dest[21].(*string) = "" // closed_reason
			*dest[22].(*pgtype.Timestamptz) = pgtype.Timestamptz{}
			*dest[23].(*pgtype.Timestamptz) = pgtype.Timestamptz{}
			return nil
		},
	}
}

func newTestService(dbtx *fakeDBTX) *Service {
	return NewService(slog.Default(), sqlc.New(dbtx))
}

func TestUpsertNewMessage(t *testing.T) {
	id := mustParseUUID(testMessageID)
	tenantUUID := mustParseUUID(testTenantID)

	svc := newTestService(&fakeDBTX{
		queryRowFunc: func(_ context.Context, sql string, _ ...any) pgx.Row {
			require.Contains(t, sql, "INSERT INTO messages")
			return makeMessageRow(id, tenantUUID, "pm-1", false)
		},
	})

	msg, isNew, err := svc.Upsert(context.Background(), testTenantID, "gmailbox", provider.RawMessage{
		ProviderMessageID: "pm-1",
		ChannelID:         "thread-1",
		Direction:         provider.DirectionInbound,
		SentAt:            time.Unix(1700000000, 0),
	})
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, testMessageID, msg.ID)
	assert.Equal(t, "pm-1", msg.ProviderMessageID)
}

func TestUpsertDuplicateConverges(t *testing.T) {
	id := mustParseUUID(testMessageID)
	tenantUUID := mustParseUUID(testTenantID)

	svc := newTestService(&fakeDBTX{
		queryRowFunc: func(_ context.Context, sql string, _ ...any) pgx.Row {
			if strings.Contains(sql, "INSERT INTO messages") {
				// ON CONFLICT DO NOTHING yields no row for duplicates.
				return &fakeRow{scanFunc: func(...any) error { return pgx.ErrNoRows }}
			}
			require.Contains(t, sql, "provider_message_id = $2")
			return makeMessageRow(id, tenantUUID, "pm-1", true)
		},
	})

	msg, isNew, err := svc.Upsert(context.Background(), testTenantID, "gmailbox", provider.RawMessage{
		ProviderMessageID: "pm-1",
		ChannelID:         "thread-1",
		Direction:         provider.DirectionInbound,
		SentAt:            time.Unix(1700000000, 0),
	})
	require.NoError(t, err)
	assert.False(t, isNew, "re-delivery must not look like a new message")
	assert.True(t, msg.Replied, "existing row state wins over the re-delivered payload")
}

func TestMarkRepliedClaims(t *testing.T) {
	svc := newTestService(&fakeDBTX{
		execFunc: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
			require.Contains(t, sql, "replied = false")
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	})
	claimed, err := svc.MarkReplied(context.Background(), testMessageID)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestMarkRepliedAlreadyClaimed(t *testing.T) {
	svc := newTestService(&fakeDBTX{
		execFunc: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	})
	claimed, err := svc.MarkReplied(context.Background(), testMessageID)
	require.NoError(t, err)
	assert.False(t, claimed, "second claimant must lose")
}

func TestMarkRepliedBadID(t *testing.T) {
	svc := newTestService(&fakeDBTX{})
	_, err := svc.MarkReplied(context.Background(), "not-a-uuid")
	assert.Error(t, err)
}

func TestMarkClosedClaims(t *testing.T) {
	svc := newTestService(&fakeDBTX{
		execFunc: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			require.Contains(t, sql, "SET closed_reason")
			require.Contains(t, sql, "replied = false")
			require.Equal(t, SkipNoReplySender, args[1])
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	})
	closed, err := svc.MarkClosed(context.Background(), testMessageID, SkipNoReplySender)
	require.NoError(t, err)
	assert.True(t, closed)
}

func TestMarkClosedLosesToReply(t *testing.T) {
	svc := newTestService(&fakeDBTX{
		execFunc: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			// Row already replied or closed; the conditional update matches nothing.
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	})
	closed, err := svc.MarkClosed(context.Background(), testMessageID, "already_answered")
	require.NoError(t, err)
	assert.False(t, closed, "a replied message must not be relabeled as closed")
}

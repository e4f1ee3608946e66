package mailgunbox

import (
	"testing"
	"time"

	"github.com/mailgun/mailgun-go/v5/events"
	"github.com/mailgun/mailgun-go/v5/mtypes"
	"github.com/stretchr/testify/assert"

	"github.com/omniboxai/omnibox/internal/provider"
)

func storedEvent(messageID, from, to, subject string) *events.Stored {
	evt := &events.Stored{}
	evt.Message.Headers.MessageID = messageID
	evt.Message.Headers.From = from
	evt.Message.Headers.To = to
	evt.Message.Headers.Subject = subject
	return evt
}

func TestStoredToRawInbound(t *testing.T) {
	evt := storedEvent("<m1@example.com>", "Alice <alice@example.com>", "box@mg.tenant.example", "Hello")
	body := &mtypes.StoredMessage{BodyPlain: "plain", BodyHtml: "<p>html</p>"}
	ts := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	raw := storedToRaw(evt, body, "box@mg.tenant.example", ts)

	assert.Equal(t, "<m1@example.com>", raw.ProviderMessageID)
	assert.Equal(t, "alice@example.com", raw.ChannelID, "channel keys on the counterpart address")
	assert.Equal(t, provider.DirectionInbound, raw.Direction)
	assert.Equal(t, "plain", raw.BodyText)
	assert.Equal(t, "<p>html</p>", raw.BodyHTML)
	assert.Equal(t, ts, raw.SentAt)
	assert.False(t, raw.IsRead)
}

func TestStoredToRawOutbound(t *testing.T) {
	evt := storedEvent("<m2@example.com>", "box@mg.tenant.example", "Alice <alice@example.com>", "Re: Hello")

	raw := storedToRaw(evt, nil, "box@mg.tenant.example", time.Now())

	assert.Equal(t, provider.DirectionOutbound, raw.Direction)
	assert.Equal(t, "alice@example.com", raw.ChannelID, "outbound mail lands in the same channel as the correspondent")
	assert.True(t, raw.IsRead)
	assert.Empty(t, raw.BodyText, "missing stored body degrades to empty, not a failure")
}

func TestChannelID(t *testing.T) {
	assert.Equal(t, "alice@example.com", channelID("Alice Liddell <Alice@Example.com>"))
	assert.Equal(t, "bob@example.com", channelID("  bob@example.com  "))
	assert.Equal(t, "", channelID(""))
}

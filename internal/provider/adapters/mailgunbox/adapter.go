package mailgunbox

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	mg "github.com/mailgun/mailgun-go/v5"
	"github.com/mailgun/mailgun-go/v5/events"
	"github.com/mailgun/mailgun-go/v5/mtypes"

	"github.com/omniboxai/omnibox/internal/provider"
)

const ProviderName = provider.Mailgunbox

// catchUpWindow bounds how far back the first fetch reaches when no
// checkpoint exists yet.
const catchUpWindow = time.Hour

type Adapter struct {
	logger *slog.Logger
}

func New(log *slog.Logger) *Adapter {
	return &Adapter{logger: log.With(slog.String("adapter", string(ProviderName)))}
}

func (a *Adapter) Type() provider.Name { return ProviderName }

func (a *Adapter) Meta() provider.Meta {
	return provider.Meta{
		Provider:    string(ProviderName),
		DisplayName: "Mailgun Inbox",
		ConfigSchema: provider.ConfigSchema{
			Fields: []provider.FieldSchema{
				{Key: "domain", Type: "string", Title: "Domain", Required: true, Order: 1},
				{Key: "api_key", Type: "secret", Title: "API Key", Required: true, Secret: true, Order: 2},
				{Key: "region", Type: "string", Title: "Region", Description: "us or eu", Order: 3},
				{Key: "address", Type: "string", Title: "Inbox Address", Required: true, Order: 4},
			},
		},
	}
}

func newClient(creds map[string]any) *mg.Client {
	apiKey, _ := creds["api_key"].(string)
	client := mg.NewMailgun(apiKey)
	if region, _ := creds["region"].(string); region == "eu" {
		client.SetAPIBase(mg.APIBaseEU)
	}
	return client
}

// ---- Fetcher ----

// FetchNew lists stored events newer than the checkpoint, which is the epoch
// millisecond timestamp of the last event seen. Mailgun has no native thread
// handle for an inbox, so the counterpart address becomes the channel id.
func (a *Adapter) FetchNew(ctx context.Context, creds map[string]any, checkpoint string, limit int) ([]provider.RawMessage, string, error) {
	client := newClient(creds)
	domain, _ := creds["domain"].(string)
	self := strings.ToLower(str(creds["address"]))

	sinceMs, _ := strconv.ParseInt(checkpoint, 10, 64)
	since := time.UnixMilli(sinceMs)
	if sinceMs == 0 {
		since = time.Now().Add(-catchUpWindow)
	}

	opts := &mg.ListEventOptions{
		Begin:  since,
		End:    time.Now(),
		Limit:  limit,
		Filter: map[string]string{"event": "stored"},
	}

	iter := client.ListEvents(domain, opts)
	var evts []events.Event
	if !iter.Next(ctx, &evts) {
		if err := iter.Err(); err != nil {
			return nil, "", fmt.Errorf("mailgunbox list events: %w", err)
		}
		return nil, checkpoint, nil
	}

	next := since
	msgs := make([]provider.RawMessage, 0, len(evts))
	for _, evt := range evts {
		stored, ok := evt.(*events.Stored)
		if !ok {
			continue
		}
		ts := stored.GetTimestamp()
		if !ts.After(since) {
			continue
		}
		if ts.After(next) {
			next = ts
		}

		body, err := client.GetStoredMessage(ctx, stored.Storage.URL)
		if err != nil {
			a.logger.Warn("stored message retrieval failed",
				slog.String("message_id", stored.Message.Headers.MessageID),
				slog.Any("error", err))
		}
		msgs = append(msgs, storedToRaw(stored, &body, self, ts))
	}
	return msgs, strconv.FormatInt(next.UnixMilli(), 10), nil
}

func storedToRaw(stored *events.Stored, body *mtypes.StoredMessage, self string, ts time.Time) provider.RawMessage {
	from := stored.Message.Headers.From
	to := stored.Message.Headers.To

	direction := provider.DirectionInbound
	counterpart := from
	if self != "" && strings.Contains(strings.ToLower(from), self) {
		direction = provider.DirectionOutbound
		counterpart = to
	}

	msg := provider.RawMessage{
		ProviderMessageID: stored.Message.Headers.MessageID,
		ChannelID:         channelID(counterpart),
		Direction:         direction,
		Sender:            from,
		Recipient:         to,
		Subject:           stored.Message.Headers.Subject,
		SentAt:            ts.UTC(),
		IsRead:            direction == provider.DirectionOutbound,
		ThreadRef:         stored.Message.Headers.MessageID,
	}
	if body != nil {
		msg.BodyText = body.BodyPlain
		msg.BodyHTML = body.BodyHtml
	}
	return msg
}

// channelID derives a stable conversation key from the counterpart address:
// the bare lowercased email, stripped of any display name.
func channelID(addr string) string {
	addr = strings.TrimSpace(addr)
	if i := strings.LastIndex(addr, "<"); i >= 0 {
		addr = strings.TrimRight(addr[i+1:], ">")
	}
	return strings.ToLower(strings.TrimSpace(addr))
}

// ---- Sender ----

func (a *Adapter) Send(ctx context.Context, creds map[string]any, out provider.OutboundMessage) (string, error) {
	client := newClient(creds)
	domain, _ := creds["domain"].(string)

	from := str(creds["address"])
	if from == "" {
		from = fmt.Sprintf("noreply@%s", domain)
	}

	m := mg.NewMessage(domain, from, out.Subject, out.Body, out.To)
	if out.InReplyTo != "" {
		m.AddHeader("In-Reply-To", out.InReplyTo)
		m.AddHeader("References", out.InReplyTo)
	}

	resp, err := client.Send(ctx, m)
	if err != nil {
		return "", fmt.Errorf("mailgunbox send: %w", err)
	}
	return resp.ID, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

var (
	_ provider.Adapter = (*Adapter)(nil)
	_ provider.Fetcher = (*Adapter)(nil)
	_ provider.Sender  = (*Adapter)(nil)
)

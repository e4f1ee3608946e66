package gmailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniboxai/omnibox/internal/provider"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func testServer(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(slog.Default(), WithBaseURL(srv.URL), WithTokenURL(srv.URL+"/token"), WithHTTPClient(srv.Client()))
}

func TestFetchNewNormalizes(t *testing.T) {
	listResp := map[string]any{
		"messages": []map[string]string{{"id": "m1"}, {"id": "m2"}},
	}
	m1 := gmailMessage{
		ID:           "m1",
		ThreadID:     "thread-1",
		LabelIDs:     []string{"INBOX", "UNREAD"},
		InternalDate: "1700000300000",
		Payload: gmailPayload{
			MimeType: "multipart/alternative",
			Headers: []gmailHeader{
				{Name: "From", Value: "Alice <alice@example.com>"},
				{Name: "To", Value: "box@tenant.example"},
				{Name: "Subject", Value: "Hello"},
				{Name: "Message-ID", Value: "<msg-1@example.com>"},
			},
			Parts: []gmailPayload{
				{MimeType: "text/plain", Body: gmailBody{Data: b64("plain body")}},
				{MimeType: "text/html", Body: gmailBody{Data: b64("<p>html body</p>")}},
			},
		},
	}
	m2 := gmailMessage{
		ID:           "m2",
		ThreadID:     "thread-1",
		LabelIDs:     []string{"SENT"},
		InternalDate: "1700000400000",
		Payload: gmailPayload{
			MimeType: "text/plain",
			Headers: []gmailHeader{
				{Name: "From", Value: "box@tenant.example"},
				{Name: "To", Value: "alice@example.com"},
				{Name: "Subject", Value: "Re: Hello"},
			},
			Body: gmailBody{Data: b64("our earlier answer")},
		},
	}

	a := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/gmail/v1/users/me/messages":
			json.NewEncoder(w).Encode(listResp)
		case "/gmail/v1/users/me/messages/m1":
			json.NewEncoder(w).Encode(m1)
		case "/gmail/v1/users/me/messages/m2":
			json.NewEncoder(w).Encode(m2)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	creds := map[string]any{"access_token": "tok", "address": "box@tenant.example"}
	msgs, next, err := a.FetchNew(context.Background(), creds, "1700000000000", 50)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	in := msgs[0]
	assert.Equal(t, "m1", in.ProviderMessageID)
	assert.Equal(t, "thread-1", in.ChannelID)
	assert.Equal(t, provider.DirectionInbound, in.Direction)
	assert.Equal(t, "Alice <alice@example.com>", in.Sender)
	assert.Equal(t, "plain body", in.BodyText)
	assert.Equal(t, "<p>html body</p>", in.BodyHTML)
	assert.Equal(t, "<msg-1@example.com>", in.ThreadRef)
	assert.False(t, in.IsRead)
	assert.Equal(t, time.UnixMilli(1700000300000).UTC(), in.SentAt)

	out := msgs[1]
	assert.Equal(t, provider.DirectionOutbound, out.Direction, "own sent mail is captured as outbound")
	assert.True(t, out.IsRead)

	assert.Equal(t, "1700000400000", next, "checkpoint advances to newest internalDate")
}

func TestFetchNewSkipsAlreadySeen(t *testing.T) {
	old := gmailMessage{ID: "m1", ThreadID: "t", InternalDate: "1699999999000",
		Payload: gmailPayload{MimeType: "text/plain", Body: gmailBody{Data: b64("x")}}}

	a := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gmail/v1/users/me/messages":
			json.NewEncoder(w).Encode(map[string]any{"messages": []map[string]string{{"id": "m1"}}})
		case "/gmail/v1/users/me/messages/m1":
			json.NewEncoder(w).Encode(old)
		}
	})

	msgs, next, err := a.FetchNew(context.Background(), map[string]any{"access_token": "tok"}, "1700000000000", 50)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Equal(t, "1700000000000", next, "checkpoint never moves backwards")
}

func TestFetchNewUnauthorized(t *testing.T) {
	a := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, _, err := a.FetchNew(context.Background(), map[string]any{"access_token": "stale"}, "", 10)
	assert.ErrorIs(t, err, provider.ErrNeedsReauth)
}

func TestRefreshRotatesToken(t *testing.T) {
	a := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "rt-1", r.Form.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fresh",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})

	creds := map[string]any{
		"client_id":     "cid",
		"client_secret": "cs",
		"refresh_token": "rt-1",
		"access_token":  "stale",
		"token_expiry":  time.Now().Add(-time.Hour).Format(time.RFC3339),
	}
	got, err := a.Refresh(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got["access_token"])
	assert.Equal(t, "rt-1", got["refresh_token"], "refresh token survives rotation")
	assert.Equal(t, "stale", creds["access_token"], "input map is not mutated")
}

func TestRefreshStillValidIsNoop(t *testing.T) {
	a := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no token call expected")
	})
	creds := map[string]any{
		"access_token": "tok",
		"token_expiry": time.Now().Add(time.Hour).Format(time.RFC3339),
	}
	got, err := a.Refresh(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, "tok", got["access_token"])
}

func TestRefreshInvalidGrant(t *testing.T) {
	a := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
	})
	creds := map[string]any{
		"client_id":     "cid",
		"client_secret": "cs",
		"refresh_token": "revoked",
	}
	_, err := a.Refresh(context.Background(), creds)
	assert.ErrorIs(t, err, provider.ErrNeedsReauth)
}

func TestSendComposesReply(t *testing.T) {
	var sent struct {
		Raw      string `json:"raw"`
		ThreadID string `json:"threadId"`
	}
	a := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/gmail/v1/users/me/messages/send", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		json.NewEncoder(w).Encode(map[string]string{"id": "sent-1"})
	})

	id, err := a.Send(context.Background(), map[string]any{"access_token": "tok", "address": "box@tenant.example"}, provider.OutboundMessage{
		ChannelID: "thread-1",
		To:        "alice@example.com",
		Subject:   "Re: Hello",
		Body:      "answer",
		InReplyTo: "<msg-1@example.com>",
	})
	require.NoError(t, err)
	assert.Equal(t, "sent-1", id)
	assert.Equal(t, "thread-1", sent.ThreadID)

	raw, err := base64.URLEncoding.DecodeString(sent.Raw)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "In-Reply-To: <msg-1@example.com>")
	assert.Contains(t, string(raw), "To: alice@example.com")
	assert.Contains(t, string(raw), "\r\n\r\nanswer")
}

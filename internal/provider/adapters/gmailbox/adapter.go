package gmailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/omniboxai/omnibox/internal/provider"
)

const ProviderName = provider.Gmailbox

const (
	defaultBaseURL  = "https://gmail.googleapis.com"
	defaultTokenURL = "https://oauth2.googleapis.com/token"
)

// refreshSkew renews tokens this long before their recorded expiry.
const refreshSkew = 2 * time.Minute

type Adapter struct {
	logger   *slog.Logger
	baseURL  string
	tokenURL string
	client   *http.Client
}

type Option func(*Adapter)

// WithBaseURL points the adapter at a different API host. Used in tests.
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.baseURL = strings.TrimRight(u, "/") }
}

func WithTokenURL(u string) Option {
	return func(a *Adapter) { a.tokenURL = u }
}

func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.client = c }
}

func New(log *slog.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		logger:   log.With(slog.String("adapter", string(ProviderName))),
		baseURL:  defaultBaseURL,
		tokenURL: defaultTokenURL,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Type() provider.Name { return ProviderName }

func (a *Adapter) Meta() provider.Meta {
	return provider.Meta{
		Provider:    string(ProviderName),
		DisplayName: "Gmail Inbox",
		ConfigSchema: provider.ConfigSchema{
			Fields: []provider.FieldSchema{
				{Key: "address", Type: "string", Title: "Mailbox Address", Required: true, Order: 1},
				{Key: "client_id", Type: "string", Title: "OAuth Client ID", Required: true, Order: 2},
				{Key: "client_secret", Type: "secret", Title: "OAuth Client Secret", Required: true, Order: 3},
				{Key: "refresh_token", Type: "secret", Title: "Refresh Token", Required: true, Order: 4},
			},
		},
	}
}

// ---- Refresher ----

func (a *Adapter) Refresh(ctx context.Context, creds map[string]any) (map[string]any, error) {
	expiry, _ := time.Parse(time.RFC3339, str(creds["token_expiry"]))
	if str(creds["access_token"]) != "" && time.Until(expiry) > refreshSkew {
		return creds, nil
	}

	refreshToken := str(creds["refresh_token"])
	if refreshToken == "" {
		return nil, provider.ErrNeedsReauth
	}

	conf := &oauth2.Config{
		ClientID:     str(creds["client_id"]),
		ClientSecret: str(creds["client_secret"]),
		Endpoint:     oauth2.Endpoint{TokenURL: a.tokenURL},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client)
	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.ErrorCode == "invalid_grant" {
			return nil, provider.ErrNeedsReauth
		}
		return nil, fmt.Errorf("gmailbox token refresh: %w", err)
	}

	out := make(map[string]any, len(creds))
	for k, v := range creds {
		out[k] = v
	}
	out["access_token"] = tok.AccessToken
	out["token_expiry"] = tok.Expiry.UTC().Format(time.RFC3339)
	if tok.RefreshToken != "" {
		out["refresh_token"] = tok.RefreshToken
	}
	return out, nil
}

// ---- Fetcher ----

// FetchNew lists messages newer than the checkpoint, which is the largest
// internalDate (epoch milliseconds) seen so far. Gmail's after: query only
// resolves to seconds, so already-seen messages in the same second are
// filtered by internalDate here and collapse in the store either way.
func (a *Adapter) FetchNew(ctx context.Context, creds map[string]any, checkpoint string, limit int) ([]provider.RawMessage, string, error) {
	sinceMs, _ := strconv.ParseInt(checkpoint, 10, 64)
	if sinceMs == 0 {
		sinceMs = time.Now().Add(-24*time.Hour).UnixMilli() - 1
	}

	q := url.Values{}
	q.Set("q", fmt.Sprintf("after:%d", sinceMs/1000))
	q.Set("maxResults", strconv.Itoa(limit))

	var list struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := a.getJSON(ctx, creds, "/gmail/v1/users/me/messages?"+q.Encode(), &list); err != nil {
		return nil, "", err
	}

	next := checkpoint
	msgs := make([]provider.RawMessage, 0, len(list.Messages))
	self := strings.ToLower(str(creds["address"]))
	for _, ref := range list.Messages {
		var gm gmailMessage
		if err := a.getJSON(ctx, creds, "/gmail/v1/users/me/messages/"+ref.ID+"?format=full", &gm); err != nil {
			return nil, "", err
		}
		internalMs, _ := strconv.ParseInt(gm.InternalDate, 10, 64)
		if internalMs <= sinceMs {
			continue
		}
		if internalMs > parseMs(next) {
			next = strconv.FormatInt(internalMs, 10)
		}
		msgs = append(msgs, normalize(gm, self))
	}
	return msgs, next, nil
}

// ---- Sender ----

func (a *Adapter) Send(ctx context.Context, creds map[string]any, out provider.OutboundMessage) (string, error) {
	from := str(creds["address"])

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", out.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", out.Subject)
	if out.InReplyTo != "" {
		fmt.Fprintf(&b, "In-Reply-To: %s\r\n", out.InReplyTo)
		fmt.Fprintf(&b, "References: %s\r\n", out.InReplyTo)
	}
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(out.Body)

	payload := map[string]string{
		"raw":      base64.URLEncoding.EncodeToString([]byte(b.String())),
		"threadId": out.ChannelID,
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := a.postJSON(ctx, creds, "/gmail/v1/users/me/messages/send", payload, &resp); err != nil {
		return "", fmt.Errorf("gmailbox send: %w", err)
	}
	return resp.ID, nil
}

// ---- Gmail wire types ----

type gmailMessage struct {
	ID           string       `json:"id"`
	ThreadID     string       `json:"threadId"`
	LabelIDs     []string     `json:"labelIds"`
	InternalDate string       `json:"internalDate"`
	Payload      gmailPayload `json:"payload"`
}

type gmailPayload struct {
	MimeType string         `json:"mimeType"`
	Headers  []gmailHeader  `json:"headers"`
	Body     gmailBody      `json:"body"`
	Parts    []gmailPayload `json:"parts"`
}

type gmailHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type gmailBody struct {
	Data string `json:"data"`
}

func normalize(gm gmailMessage, self string) provider.RawMessage {
	internalMs, _ := strconv.ParseInt(gm.InternalDate, 10, 64)

	h := func(name string) string {
		for _, hdr := range gm.Payload.Headers {
			if strings.EqualFold(hdr.Name, name) {
				return hdr.Value
			}
		}
		return ""
	}

	direction := provider.DirectionInbound
	sender := h("From")
	if hasLabel(gm.LabelIDs, "SENT") || (self != "" && strings.Contains(strings.ToLower(sender), self)) {
		direction = provider.DirectionOutbound
	}

	text, html := extractBodies(gm.Payload)
	return provider.RawMessage{
		ProviderMessageID: gm.ID,
		ChannelID:         gm.ThreadID,
		Direction:         direction,
		Sender:            sender,
		Recipient:         h("To"),
		Subject:           h("Subject"),
		BodyText:          text,
		BodyHTML:          html,
		SentAt:            time.UnixMilli(internalMs).UTC(),
		IsRead:            !hasLabel(gm.LabelIDs, "UNREAD"),
		ThreadRef:         h("Message-ID"),
	}
}

func extractBodies(p gmailPayload) (text, html string) {
	decode := func(data string) string {
		raw, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(data, "="))
		if err != nil {
			return ""
		}
		return string(raw)
	}
	switch {
	case strings.HasPrefix(p.MimeType, "text/plain"):
		return decode(p.Body.Data), ""
	case strings.HasPrefix(p.MimeType, "text/html"):
		return "", decode(p.Body.Data)
	}
	for _, part := range p.Parts {
		pt, ph := extractBodies(part)
		if text == "" {
			text = pt
		}
		if html == "" {
			html = ph
		}
	}
	return text, html
}

func hasLabel(labels []string, want string) bool {
	for _, l := range labels {
		if l == want {
			return true
		}
	}
	return false
}

// ---- HTTP plumbing ----

func (a *Adapter) getJSON(ctx context.Context, creds map[string]any, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return err
	}
	return a.do(req, creds, out)
}

func (a *Adapter) postJSON(ctx context.Context, creds map[string]any, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, strings.NewReader(string(buf)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, creds, out)
}

func (a *Adapter) do(req *http.Request, creds map[string]any, out any) error {
	req.Header.Set("Authorization", "Bearer "+str(creds["access_token"]))
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("gmailbox request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return provider.ErrNeedsReauth
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("gmailbox request %s: status %d", req.URL.Path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func parseMs(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

var (
	_ provider.Adapter   = (*Adapter)(nil)
	_ provider.Fetcher   = (*Adapter)(nil)
	_ provider.Sender    = (*Adapter)(nil)
	_ provider.Refresher = (*Adapter)(nil)
)

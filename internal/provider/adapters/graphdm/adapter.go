package graphdm

import (
	"context"
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

const ProviderName = provider.GraphDM

const (
	defaultBaseURL  = "https://graph.microsoft.com"
	defaultTokenURL = "https://login.microsoftonline.com/common/oauth2/v2.0/token"
)

const refreshSkew = 2 * time.Minute

// Adapter ingests direct-message chats through a Graph-style REST API.
// Chats map to channels one to one, so every chat id doubles as the
// conversation channel id.
type Adapter struct {
	logger   *slog.Logger
	baseURL  string
	tokenURL string
	client   *http.Client
}

type Option func(*Adapter)

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
		DisplayName: "Graph Direct Messages",
		ConfigSchema: provider.ConfigSchema{
			Fields: []provider.FieldSchema{
				{Key: "user_id", Type: "string", Title: "Account User ID", Required: true, Order: 1},
				{Key: "display_name", Type: "string", Title: "Account Display Name", Order: 2},
				{Key: "client_id", Type: "string", Title: "OAuth Client ID", Required: true, Order: 3},
				{Key: "client_secret", Type: "secret", Title: "OAuth Client Secret", Required: true, Order: 4},
				{Key: "refresh_token", Type: "secret", Title: "Refresh Token", Required: true, Order: 5},
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
		return nil, fmt.Errorf("graphdm token refresh: %w", err)
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

// FetchNew pulls chat messages created after the checkpoint, an RFC 3339
// timestamp. The service-side filter is inclusive on some deployments, so
// the boundary message is re-filtered locally.
func (a *Adapter) FetchNew(ctx context.Context, creds map[string]any, checkpoint string, limit int) ([]provider.RawMessage, string, error) {
	since, err := time.Parse(time.RFC3339Nano, checkpoint)
	if checkpoint == "" || err != nil {
		since = time.Now().Add(-24 * time.Hour).UTC()
	}

	q := url.Values{}
	q.Set("$top", strconv.Itoa(limit))
	q.Set("$filter", fmt.Sprintf("createdDateTime gt %s", since.Format(time.RFC3339Nano)))
	q.Set("$orderby", "createdDateTime asc")

	var page struct {
		Value []chatMessage `json:"value"`
	}
	if err := a.getJSON(ctx, creds, "/v1.0/me/chats/getAllMessages?"+q.Encode(), &page); err != nil {
		return nil, "", err
	}

	selfID := str(creds["user_id"])
	selfName := str(creds["display_name"])
	next := since
	msgs := make([]provider.RawMessage, 0, len(page.Value))
	for _, cm := range page.Value {
		created, err := time.Parse(time.RFC3339Nano, cm.CreatedDateTime)
		if err != nil || !created.After(since) {
			continue
		}
		if created.After(next) {
			next = created
		}
		msgs = append(msgs, normalize(cm, created, selfID, selfName))
	}
	return msgs, next.UTC().Format(time.RFC3339Nano), nil
}

// ---- Sender ----

func (a *Adapter) Send(ctx context.Context, creds map[string]any, out provider.OutboundMessage) (string, error) {
	payload := map[string]any{
		"body": map[string]string{
			"contentType": "text",
			"content":     out.Body,
		},
	}
	var resp struct {
		ID string `json:"id"`
	}
	path := "/v1.0/chats/" + url.PathEscape(out.ChannelID) + "/messages"
	if err := a.postJSON(ctx, creds, path, payload, &resp); err != nil {
		return "", fmt.Errorf("graphdm send: %w", err)
	}
	return resp.ID, nil
}

// ---- Graph wire types ----

type chatMessage struct {
	ID              string `json:"id"`
	ChatID          string `json:"chatId"`
	CreatedDateTime string `json:"createdDateTime"`
	From            struct {
		User struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
		} `json:"user"`
	} `json:"from"`
	Body struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
}

func normalize(cm chatMessage, created time.Time, selfID, selfName string) provider.RawMessage {
	direction := provider.DirectionInbound
	if selfID != "" && cm.From.User.ID == selfID {
		direction = provider.DirectionOutbound
	}
	sender := cm.From.User.DisplayName
	if sender == "" {
		sender = cm.From.User.ID
	}
	msg := provider.RawMessage{
		ProviderMessageID: cm.ID,
		ChannelID:         cm.ChatID,
		Direction:         direction,
		Sender:            sender,
		Recipient:         selfName,
		SentAt:            created.UTC(),
		IsRead:            direction == provider.DirectionOutbound,
		ThreadRef:         cm.ChatID,
	}
	if strings.EqualFold(cm.Body.ContentType, "html") {
		msg.BodyHTML = cm.Body.Content
	} else {
		msg.BodyText = cm.Body.Content
	}
	return msg
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
		return fmt.Errorf("graphdm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return provider.ErrNeedsReauth
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("graphdm request %s: status %d", req.URL.Path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
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

package provider

import (
	"errors"
	"time"
)

type Name string

const (
	Gmailbox   Name = "gmailbox"
	GraphDM    Name = "graphdm"
	Mailgunbox Name = "mailgunbox"
)

// ErrNeedsReauth signals that the stored credentials are no longer usable
// and the tenant must re-authorize the provider. Callers should mark the
// credential row and stop retrying.
var ErrNeedsReauth = errors.New("provider credentials need re-authorization")

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// RawMessage is a provider-normalized message before deduplication and
// persistence. ProviderMessageID must be stable across fetches of the same
// underlying message.
type RawMessage struct {
	ProviderMessageID string
	ChannelID         string
	Direction         Direction
	Sender            string
	Recipient         string
	Subject           string
	BodyText          string
	BodyHTML          string
	SentAt            time.Time
	IsRead            bool
	// ThreadRef carries the provider-native threading handle (RFC 5322
	// Message-ID, Graph conversation id) used when composing a reply.
	ThreadRef string
}

// OutboundMessage is a reply to be delivered into an existing conversation.
type OutboundMessage struct {
	ChannelID string
	To        string
	Subject   string
	Body      string
	// InReplyTo is the ThreadRef of the message being answered, when the
	// provider supports threading.
	InReplyTo string
}

// FieldSchema describes a single credential field for dynamic form generation.
type FieldSchema struct {
	Key         string `json:"key"`
	Type        string `json:"type"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Secret      bool   `json:"secret,omitempty"`
	Order       int    `json:"order"`
}

type ConfigSchema struct {
	Fields []FieldSchema `json:"fields"`
}

type Meta struct {
	Provider     string       `json:"provider"`
	DisplayName  string       `json:"display_name"`
	ConfigSchema ConfigSchema `json:"config_schema"`
}

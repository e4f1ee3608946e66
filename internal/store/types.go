package store

import "time"

type Message struct {
	ID                string    `json:"id"`
	TenantID          string    `json:"tenant_id"`
	ChannelID         string    `json:"channel_id"`
	ProviderMessageID string    `json:"provider_message_id"`
	Provider          string    `json:"provider"`
	Direction         string    `json:"direction"`
	Sender            string    `json:"sender"`
	Recipient         string    `json:"recipient"`
	Subject           string    `json:"subject"`
	BodyText          string    `json:"body_text"`
	BodyHTML          string    `json:"body_html,omitempty"`
	ThreadRef         string    `json:"-"`
	SentAt            time.Time `json:"sent_at"`
	IsRead            bool      `json:"is_read"`
	NotificationRead  bool      `json:"notification_read"`
	Replied           bool      `json:"replied"`
	ActionRequired    bool      `json:"action_required"`
	ActionReason      string    `json:"action_reason,omitempty"`
	ActionType        string    `json:"action_type,omitempty"`
	Urgency           string    `json:"urgency,omitempty"`
	Feedback          string    `json:"feedback,omitempty"`
	ClosedReason      string    `json:"closed_reason,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Action holds the classifier verdict persisted onto a message.
type Action struct {
	Required bool   `json:"required"`
	Reason   string `json:"reason,omitempty"`
	Type     string `json:"type,omitempty"`
	Urgency  string `json:"urgency,omitempty"`
}

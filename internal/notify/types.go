package notify

// Event types pushed to connected dashboards.
const (
	EventConversationUpdate = "conversation_update"
	EventEscalation         = "escalation"
	EventNeedsReauth        = "needs_reauth"
	EventFollowUpSent       = "follow_up_sent"
)

// Event is one fan-out payload for a tenant's dashboards.
type Event struct {
	Type      string `json:"type"`
	ChannelID string `json:"channel_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Provider  string `json:"provider,omitempty"`
	// Outcome names what the pipeline did with the message
	// (replied, escalated, filtered_out, ...).
	Outcome string `json:"outcome,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Urgency string `json:"urgency,omitempty"`
	Data    any    `json:"data,omitempty"`
}

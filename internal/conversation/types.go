package conversation

import "time"

// Entry is one line of the projected conversation context, the compact
// transcript handed to classification and reply generation.
type Entry struct {
	MessageID string    `json:"message_id"`
	Role      string    `json:"role"`
	Sender    string    `json:"sender,omitempty"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
	// Feedback is the tenant's note on this entry, set after the fact.
	Feedback string `json:"feedback,omitempty"`
	// Seq preserves insertion order among entries that share a timestamp.
	Seq int64 `json:"seq"`
}

const (
	RoleContact = "contact"
	RoleTenant  = "tenant"
)

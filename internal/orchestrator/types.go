package orchestrator

import (
	"context"
	"time"

	"github.com/omniboxai/omnibox/internal/ai"
	"github.com/omniboxai/omnibox/internal/conversation"
	"github.com/omniboxai/omnibox/internal/provider"
	"github.com/omniboxai/omnibox/internal/store"
)

// Outcome names what the pipeline did with one inbound message.
type Outcome string

const (
	// OutcomeFilteredOut: the ingestion filters ruled the message out of
	// automated handling (newsletter, bounce, self-echo).
	OutcomeFilteredOut Outcome = "filtered_out"
	// OutcomeAutoReplyDisabled: the channel has automated replies turned off.
	OutcomeAutoReplyDisabled Outcome = "auto_reply_disabled"
	// OutcomeEscalated: the classifier flagged the message for a human.
	OutcomeEscalated Outcome = "escalated"
	// OutcomeAlreadyAnswered: something already went out on the channel
	// after this message arrived, or another worker holds the claim.
	OutcomeAlreadyAnswered Outcome = "already_answered"
	// OutcomeReplied: a reply was generated, sent, and recorded.
	OutcomeReplied Outcome = "replied"
	// OutcomeRetryLater: a transient failure; the message stays pending
	// and the next cycle picks it up again.
	OutcomeRetryLater Outcome = "retry_later"
)

// Result is the orchestrator's report for one processed message.
type Result struct {
	Outcome Outcome
	Reason  string
	Verdict ai.Verdict
	// Reply holds the stored outbound message when Outcome is OutcomeReplied.
	Reply *store.Message
}

// SendFunc delivers one outbound message through whatever provider the
// inbound message arrived on, returning the provider-assigned id.
type SendFunc func(ctx context.Context, out provider.OutboundMessage) (string, error)

// MessageStore is the slice of the store the orchestrator needs.
type MessageStore interface {
	MarkReplied(ctx context.Context, id string) (bool, error)
	ReleaseReplied(ctx context.Context, id string) error
	MarkClosed(ctx context.Context, id, reason string) (bool, error)
	SetAction(ctx context.Context, id string, action store.Action) error
	HasLaterOutbound(ctx context.Context, tenantID, channelID string, after time.Time) (bool, error)
	Upsert(ctx context.Context, tenantID, providerName string, raw provider.RawMessage) (store.Message, bool, error)
}

// ContextStore projects conversation context.
type ContextStore interface {
	Get(ctx context.Context, tenantID, channelID string) ([]conversation.Entry, error)
	Append(ctx context.Context, tenantID, channelID string, entries ...conversation.Entry) ([]conversation.Entry, error)
	AutoReplyEnabled(ctx context.Context, tenantID, channelID string) (bool, error)
}

// Classifier decides whether a message needs a human.
type Classifier interface {
	Classify(ctx context.Context, in ai.ClassifyInput) ai.Verdict
}

// ReplyWriter drafts outbound replies.
type ReplyWriter interface {
	GenerateReply(ctx context.Context, in ai.ReplyInput) (string, error)
}

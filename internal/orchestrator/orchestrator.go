package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/omniboxai/omnibox/internal/ai"
	"github.com/omniboxai/omnibox/internal/conversation"
	"github.com/omniboxai/omnibox/internal/provider"
	"github.com/omniboxai/omnibox/internal/store"
	"github.com/omniboxai/omnibox/internal/tenant"
)

// Orchestrator runs one inbound message through the reply pipeline:
// filter, settings gate, already-answered check, classification, drafting,
// claim, send, record. The claim step makes delivery at-most-once: the
// replied flag is flipped with a conditional update before the provider
// send, so two workers racing on the same message cannot both deliver.
type Orchestrator struct {
	messages MessageStore
	contexts ContextStore
	classify Classifier
	writer   ReplyWriter
	logger   *slog.Logger
	// systemSender is this deployment's own notification address,
	// filtered out of automated handling.
	systemSender string
}

func New(log *slog.Logger, messages MessageStore, contexts ContextStore, classifier Classifier, writer ReplyWriter, systemSender string) *Orchestrator {
	return &Orchestrator{
		messages:     messages,
		contexts:     contexts,
		classify:     classifier,
		writer:       writer,
		logger:       log.With(slog.String("service", "orchestrator")),
		systemSender: systemSender,
	}
}

// Process handles one pending inbound message. It never returns an error
// for conditions the next cycle can retry; those come back as
// OutcomeRetryLater with the message left pending. A non-nil error means
// the message state is unknown and deserves operator attention.
func (o *Orchestrator) Process(ctx context.Context, tn tenant.Tenant, selfAddress string, msg store.Message, send SendFunc) (Result, error) {
	log := o.logger.With(
		slog.String("tenant_id", tn.ID),
		slog.String("message_id", msg.ID),
		slog.String("channel_id", msg.ChannelID),
	)

	// Filtered messages are closed immediately so they never come back as
	// pending. Closing records why and leaves replied untouched; losing
	// the close claim means someone else already dealt with the message.
	if verdict := store.Eligibility(msg, selfAddress, o.systemSender); verdict.Skip {
		if err := o.close(ctx, msg.ID, verdict.Reason); err != nil {
			return Result{}, err
		}
		log.Debug("message filtered out", slog.String("reason", verdict.Reason))
		return Result{Outcome: OutcomeFilteredOut, Reason: verdict.Reason}, nil
	}

	enabled, err := o.contexts.AutoReplyEnabled(ctx, tn.ID, msg.ChannelID)
	if err != nil {
		return retryLater(log, "settings lookup failed", err), nil
	}
	if !enabled {
		if err := o.close(ctx, msg.ID, string(OutcomeAutoReplyDisabled)); err != nil {
			return Result{}, err
		}
		log.Info("auto-reply disabled for channel, leaving message to the tenant")
		return Result{Outcome: OutcomeAutoReplyDisabled}, nil
	}

	// A later outbound message on the channel means the contact already
	// got an answer, whether from us or from the tenant typing one by hand.
	answered, err := o.messages.HasLaterOutbound(ctx, tn.ID, msg.ChannelID, msg.SentAt)
	if err != nil {
		return retryLater(log, "answered check failed", err), nil
	}
	if answered {
		if err := o.close(ctx, msg.ID, string(OutcomeAlreadyAnswered)); err != nil {
			return Result{}, err
		}
		log.Debug("channel already answered after this message")
		return Result{Outcome: OutcomeAlreadyAnswered}, nil
	}

	entries, err := o.contexts.Get(ctx, tn.ID, msg.ChannelID)
	if err != nil {
		return retryLater(log, "context lookup failed", err), nil
	}

	verdict := o.classify.Classify(ctx, ai.ClassifyInput{
		Tenant:  tn,
		Context: entries,
		Subject: msg.Subject,
		Body:    msg.BodyText,
		Sender:  msg.Sender,
	})
	if verdict.ActionRequired {
		// Escalation is sticky: action_required takes the message out of
		// the pending set and only a human puts it back.
		if err := o.messages.SetAction(ctx, msg.ID, store.Action{
			Required: true,
			Reason:   verdict.Reason,
			Type:     verdict.ActionType,
			Urgency:  verdict.Urgency,
		}); err != nil {
			return Result{}, fmt.Errorf("persist escalation: %w", err)
		}
		log.Info("message escalated",
			slog.String("reason", verdict.Reason),
			slog.String("urgency", verdict.Urgency))
		return Result{Outcome: OutcomeEscalated, Reason: verdict.Reason, Verdict: verdict}, nil
	}

	body, err := o.writer.GenerateReply(ctx, ai.ReplyInput{
		Tenant:  tn,
		Context: entries,
		Subject: msg.Subject,
		Body:    msg.BodyText,
		Sender:  msg.Sender,
	})
	if err != nil {
		return retryLater(log, "reply drafting failed", err), nil
	}

	// Claim before send. Exactly one worker wins; everyone else backs off
	// without touching the provider.
	claimed, err := o.messages.MarkReplied(ctx, msg.ID)
	if err != nil {
		return retryLater(log, "claim failed", err), nil
	}
	if !claimed {
		log.Debug("lost reply claim to another worker")
		return Result{Outcome: OutcomeAlreadyAnswered, Reason: "claimed elsewhere"}, nil
	}

	providerID, err := send(ctx, provider.OutboundMessage{
		ChannelID: msg.ChannelID,
		To:        msg.Sender,
		Subject:   replySubject(msg.Subject),
		Body:      body,
		InReplyTo: msg.ThreadRef,
	})
	if err != nil {
		// The send never happened; release the claim so a later cycle
		// retries. If the release itself fails the message stays closed,
		// which errs on the side of not double-sending.
		if relErr := o.messages.ReleaseReplied(ctx, msg.ID); relErr != nil {
			log.Error("failed to release claim after failed send",
				slog.Any("send_error", err), slog.Any("release_error", relErr))
			return Result{}, fmt.Errorf("release claim after failed send: %w", relErr)
		}
		return retryLater(log, "provider send failed", err), nil
	}

	sentAt := time.Now().UTC()
	reply, _, err := o.messages.Upsert(ctx, tn.ID, msg.Provider, provider.RawMessage{
		ProviderMessageID: providerID,
		ChannelID:         msg.ChannelID,
		Direction:         provider.DirectionOutbound,
		Sender:            selfAddress,
		Recipient:         msg.Sender,
		Subject:           replySubject(msg.Subject),
		BodyText:          body,
		SentAt:            sentAt,
		IsRead:            true,
		ThreadRef:         msg.ThreadRef,
	})
	if err != nil {
		// Delivered but not recorded. Surface loudly instead of retrying:
		// a retry would send the contact a second copy.
		return Result{}, fmt.Errorf("record sent reply %s: %w", providerID, err)
	}

	if _, err := o.contexts.Append(ctx, tn.ID, msg.ChannelID, conversation.EntryFromMessage(reply)); err != nil {
		log.Warn("failed to project reply into context", slog.Any("error", err))
	}

	log.Info("reply sent", slog.String("provider_message_id", providerID))
	return Result{Outcome: OutcomeReplied, Reply: &reply}, nil
}

// close takes a message out of the pending set without sending anything.
// The replied flag stays false; the recorded reason tells the dashboard
// why no answer went out.
func (o *Orchestrator) close(ctx context.Context, id, reason string) error {
	if _, err := o.messages.MarkClosed(ctx, id, reason); err != nil {
		return fmt.Errorf("close message %s: %w", id, err)
	}
	return nil
}

func retryLater(log *slog.Logger, reason string, err error) Result {
	log.Warn("leaving message pending for retry", slog.String("reason", reason), slog.Any("error", err))
	return Result{Outcome: OutcomeRetryLater, Reason: reason}
}

func replySubject(subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" || strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/omniboxai/omnibox/internal/conversation"
	"github.com/omniboxai/omnibox/internal/tenant"
)

type ReplyInput struct {
	Tenant  tenant.Tenant
	Context []conversation.Entry
	Subject string
	Body    string
	Sender  string
}

// GenerateReply drafts the outbound answer to an inbound message. Unlike
// classification this does not fail open: sending a broken reply is worse
// than sending none, so errors propagate and the message stays pending.
func (s *Service) GenerateReply(ctx context.Context, in ReplyInput) (string, error) {
	user := fmt.Sprintf("%s\nConversation so far:\n%s\nNewest inbound message from %s:\nSubject: %s\n\n%s\n\nWrite the reply.",
		formatBusiness(in.Tenant.Name, in.Tenant.BusinessCategory, in.Tenant.ReplyPolicy, in.Tenant.ReplyFlow, in.Tenant.Goal),
		formatContext(in.Context),
		in.Sender, in.Subject, in.Body)

	reply, err := s.complete(ctx, s.chatModel, replySystemPrompt, user, 0.7)
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("generate reply: empty draft")
	}
	return reply, nil
}

type FollowUpInput struct {
	Tenant       tenant.Tenant
	LeadName     string
	EmailContext string
}

// GenerateFollowUp drafts a nudge for a quiet lead. Falls back to a plain
// template when the model is unavailable; a generic follow-up is still
// better than a missed cadence.
func (s *Service) GenerateFollowUp(ctx context.Context, in FollowUpInput) string {
	user := fmt.Sprintf("%s\nLead: %s\nEarlier exchange summary:\n%s\n\nWrite the follow-up.",
		formatBusiness(in.Tenant.Name, in.Tenant.BusinessCategory, in.Tenant.ReplyPolicy, in.Tenant.ReplyFlow, in.Tenant.Goal),
		in.LeadName, in.EmailContext)

	note, err := s.complete(ctx, s.chatModel, followUpSystemPrompt, user, 0.7)
	if err == nil {
		if note = strings.TrimSpace(note); note != "" {
			return note
		}
	}
	if err != nil {
		s.logger.Warn("follow-up generation failed, using template", "error", err)
	}
	return followUpTemplate(in.Tenant.Name, in.LeadName)
}

func followUpTemplate(business, lead string) string {
	greeting := "Hi"
	if lead != "" {
		greeting = "Hi " + lead
	}
	return fmt.Sprintf("%s,\n\nJust checking in on my earlier message. Happy to pick this up whenever suits you.\n\nBest,\n%s", greeting, business)
}

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/omniboxai/omnibox/internal/conversation"
	"github.com/omniboxai/omnibox/internal/tenant"
)

var errEmptyCompletion = errors.New("completion returned no choices")

// Verdict is the classifier's decision about one inbound message.
type Verdict struct {
	ActionRequired bool   `json:"action_required"`
	Reason         string `json:"reason"`
	ActionType     string `json:"action_type"`
	Urgency        string `json:"urgency"`
}

type ClassifyInput struct {
	Tenant  tenant.Tenant
	Context []conversation.Entry
	Subject string
	Body    string
	Sender  string
}

// Classify decides whether the message needs human attention. The
// classifier fails open: when the model is unreachable or answers
// garbage, the verdict is "no action required" so the pipeline keeps
// moving, and the anomaly is logged for the record.
func (s *Service) Classify(ctx context.Context, in ClassifyInput) Verdict {
	user := fmt.Sprintf("%s\nConversation so far:\n%s\nNewest inbound message from %s:\nSubject: %s\n\n%s",
		formatBusiness(in.Tenant.Name, in.Tenant.BusinessCategory, in.Tenant.ReplyPolicy, in.Tenant.ReplyFlow, in.Tenant.Goal),
		formatContext(in.Context),
		in.Sender, in.Subject, in.Body)

	raw, err := s.complete(ctx, s.classifyModel, classifySystemPrompt, user, 0)
	if err != nil {
		s.logger.Warn("classification failed open",
			slog.String("tenant_id", in.Tenant.ID),
			slog.Any("error", err))
		return Verdict{}
	}

	verdict, err := parseVerdict(raw)
	if err != nil {
		s.logger.Warn("classification returned unparseable verdict, failing open",
			slog.String("tenant_id", in.Tenant.ID),
			slog.String("raw", truncate(raw, 200)),
			slog.Any("error", err))
		return Verdict{}
	}
	return verdict
}

func parseVerdict(raw string) (Verdict, error) {
	// Models occasionally wrap the object in a code fence.
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return Verdict{}, fmt.Errorf("no JSON object in verdict")
	}

	var v Verdict
	if err := json.Unmarshal([]byte(raw[start:end+1]), &v); err != nil {
		return Verdict{}, err
	}
	if !v.ActionRequired {
		// Escalation fields only mean something on escalations.
		return Verdict{}, nil
	}
	switch v.Urgency {
	case "low", "medium", "high":
	default:
		v.Urgency = "medium"
	}
	return v, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package followup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/omniboxai/omnibox/internal/ai"
	"github.com/omniboxai/omnibox/internal/notify"
	"github.com/omniboxai/omnibox/internal/provider"
	"github.com/omniboxai/omnibox/internal/tenant"
)

// Service sends cadence-based follow-ups to leads that have gone quiet.
// One RunOnce call is one scheduler tick; a tenant or lead failing never
// stops the others.
type Service struct {
	tenants TenantDirectory
	leads   LeadStore
	writer  NoteWriter
	senders SenderLookup
	hub     Broadcaster
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(log *slog.Logger, tenants TenantDirectory, leads LeadStore, writer NoteWriter, senders SenderLookup, hub Broadcaster) *Service {
	return &Service{
		tenants: tenants,
		leads:   leads,
		writer:  writer,
		senders: senders,
		hub:     hub,
		logger:  log.With(slog.String("service", "followup")),
		now:     time.Now,
	}
}

// RunOnce walks every tenant with a follow-up cadence and nudges the leads
// that are due. Returns the number of follow-ups sent.
func (s *Service) RunOnce(ctx context.Context) int {
	tenants, err := s.tenants.ListWithCadence(ctx)
	if err != nil {
		s.logger.Error("failed to list tenants for follow-up pass", slog.Any("error", err))
		return 0
	}

	sent := 0
	for _, tn := range tenants {
		n, err := s.runTenant(ctx, tn)
		sent += n
		if err != nil {
			s.logger.Warn("follow-up pass failed for tenant",
				slog.String("tenant_id", tn.ID),
				slog.Any("error", err))
		}
	}
	return sent
}

func (s *Service) runTenant(ctx context.Context, tn tenant.Tenant) (int, error) {
	if tn.FollowUpCadence == nil {
		return 0, nil
	}

	cred, sender, err := s.sendableCredential(ctx, tn.ID)
	if err != nil {
		return 0, err
	}

	leads, err := s.leads.ListByTenant(ctx, tn.ID)
	if err != nil {
		return 0, fmt.Errorf("list leads: %w", err)
	}

	now := s.now()
	sent := 0
	for _, lead := range leads {
		if !due(lead, *tn.FollowUpCadence, now) {
			continue
		}
		if err := s.followUp(ctx, tn, cred, sender, lead, now); err != nil {
			s.logger.Warn("follow-up failed for lead",
				slog.String("tenant_id", tn.ID),
				slog.String("lead_id", lead.ID),
				slog.Any("error", err))
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *Service) followUp(ctx context.Context, tn tenant.Tenant, cred tenant.Credential, sender provider.Sender, lead Lead, now time.Time) error {
	body := s.writer.GenerateFollowUp(ctx, ai.FollowUpInput{
		Tenant:       tn,
		LeadName:     lead.Name,
		EmailContext: lead.EmailContext,
	})

	providerID, err := sender.Send(ctx, cred.Credentials, provider.OutboundMessage{
		To:      lead.Email,
		Subject: followUpSubject(tn.Name),
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("send via %s: %w", cred.Provider, err)
	}

	// The send already happened; a bookkeeping failure must not trigger a
	// resend, so it is logged and the lead stays due for context purposes
	// only.
	if err := s.leads.MarkFollowedUp(ctx, lead.ID, now, appendContext(lead.EmailContext, body, now)); err != nil {
		s.logger.Error("follow-up sent but lead not updated, it may be nudged again next tick",
			slog.String("lead_id", lead.ID),
			slog.Any("error", err))
	}

	s.hub.Broadcast(tn.ID, notify.Event{
		Type:     notify.EventFollowUpSent,
		Provider: cred.Provider,
		Data: map[string]any{
			"lead_id":             lead.ID,
			"lead_email":          lead.Email,
			"provider_message_id": providerID,
		},
	})
	s.logger.Info("follow-up sent",
		slog.String("tenant_id", tn.ID),
		slog.String("lead_id", lead.ID),
		slog.String("provider", cred.Provider))
	return nil
}

// sendableCredential picks the tenant's first active credential whose
// provider can send.
func (s *Service) sendableCredential(ctx context.Context, tenantID string) (tenant.Credential, provider.Sender, error) {
	creds, err := s.tenants.ListActiveCredentialsForTenant(ctx, tenantID)
	if err != nil {
		return tenant.Credential{}, nil, fmt.Errorf("list credentials: %w", err)
	}
	for _, cred := range creds {
		sender, err := s.senders.GetSender(provider.Name(cred.Provider))
		if err != nil {
			continue
		}
		return cred, sender, nil
	}
	return tenant.Credential{}, nil, fmt.Errorf("no sendable credential for tenant %s", tenantID)
}

// due reports whether the lead's quiet period has outlasted the cadence.
// The clock starts at the last follow-up, or at lead creation when none
// has gone out yet.
func due(lead Lead, cadence time.Duration, now time.Time) bool {
	since := lead.CreatedAt
	if lead.LastFollowUpAt != nil {
		since = *lead.LastFollowUpAt
	}
	return now.Sub(since) >= cadence
}

func followUpSubject(business string) string {
	if business == "" {
		return "Checking in"
	}
	return "Checking in from " + business
}

func appendContext(existing, body string, at time.Time) string {
	note := fmt.Sprintf("[follow-up sent %s]\n%s", at.UTC().Format(time.RFC3339), body)
	if existing == "" {
		return note
	}
	return existing + "\n\n" + note
}

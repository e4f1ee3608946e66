package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/omniboxai/omnibox/internal/conversation"
	"github.com/omniboxai/omnibox/internal/notify"
	"github.com/omniboxai/omnibox/internal/orchestrator"
	"github.com/omniboxai/omnibox/internal/provider"
	"github.com/omniboxai/omnibox/internal/store"
	"github.com/omniboxai/omnibox/internal/tenant"
)

// pendingBatch caps how many pending messages one credential works off per
// tick; the rest wait for the next one.
const pendingBatch = 25

// Poller drives the ingestion loop. One RunOnce call is one tick: for every
// provider and every tenant credential, refresh, fetch from the checkpoint,
// ingest, then run the pending set through the orchestrator. Tenants are
// isolated; one failing credential never stalls the rest of the pass.
type Poller struct {
	adapters    AdapterSource
	tenants     CredentialDirectory
	messages    MessageStore
	contexts    ContextStore
	checkpoints CheckpointStore
	processor   Processor
	hub         Broadcaster
	logger      *slog.Logger
	// systemSender is this deployment's own notification address, kept
	// out of the conversation view like any other filtered sender.
	systemSender string
	fetchLimit   int
	workers      int
}

func New(log *slog.Logger, adapters AdapterSource, tenants CredentialDirectory, messages MessageStore, contexts ContextStore, checkpoints CheckpointStore, processor Processor, hub Broadcaster, systemSender string, fetchLimit, workers int) *Poller {
	if fetchLimit <= 0 {
		fetchLimit = 5
	}
	if workers <= 0 {
		workers = 1
	}
	return &Poller{
		adapters:     adapters,
		tenants:      tenants,
		messages:     messages,
		contexts:     contexts,
		checkpoints:  checkpoints,
		processor:    processor,
		hub:          hub,
		logger:       log.With(slog.String("service", "poller")),
		systemSender: systemSender,
		fetchLimit:   fetchLimit,
		workers:      workers,
	}
}

// RunOnce executes a full poll pass across all providers and credentials.
func (p *Poller) RunOnce(ctx context.Context) {
	for _, name := range p.adapters.Names() {
		fetcher, err := p.adapters.GetFetcher(name)
		if err != nil {
			continue
		}

		creds, err := p.tenants.ListActiveCredentials(ctx, string(name))
		if err != nil {
			p.logger.Error("failed to list credentials",
				slog.String("provider", string(name)),
				slog.Any("error", err))
			continue
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.workers)
		for _, cred := range creds {
			g.Go(func() error {
				if err := p.pollCredential(gctx, name, fetcher, cred); err != nil {
					p.logger.Warn("poll failed for credential",
						slog.String("provider", string(name)),
						slog.String("tenant_id", cred.TenantID),
						slog.String("credential_id", cred.ID),
						slog.Any("error", err))
				}
				return nil
			})
		}
		_ = g.Wait()
	}
}

func (p *Poller) pollCredential(ctx context.Context, name provider.Name, fetcher provider.Fetcher, cred tenant.Credential) error {
	tn, err := p.tenants.Get(ctx, cred.TenantID)
	if err != nil {
		return fmt.Errorf("load tenant: %w", err)
	}

	secrets, err := p.freshSecrets(ctx, name, cred)
	if err != nil {
		if errors.Is(err, provider.ErrNeedsReauth) {
			return p.pauseCredential(ctx, cred)
		}
		return fmt.Errorf("refresh credentials: %w", err)
	}

	checkpoint, err := p.checkpoints.Get(ctx, cred.TenantID, cred.Provider)
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}

	raws, next, err := fetcher.FetchNew(ctx, secrets, checkpoint, p.fetchLimit)
	if err != nil {
		if errors.Is(err, provider.ErrNeedsReauth) {
			return p.pauseCredential(ctx, cred)
		}
		return fmt.Errorf("fetch: %w", err)
	}

	p.ingest(ctx, cred, raws)

	if next != "" && next != checkpoint {
		if err := p.checkpoints.Put(ctx, cred.TenantID, cred.Provider, next); err != nil {
			// Not fatal: the next tick refetches and dedup drops the repeats.
			p.logger.Warn("failed to persist checkpoint",
				slog.String("tenant_id", cred.TenantID),
				slog.String("provider", cred.Provider),
				slog.Any("error", err))
		}
	}

	p.workPending(ctx, name, tn, cred, secrets)
	return nil
}

// freshSecrets runs the adapter's refresher when it has one and persists
// rotated credentials so the next tick starts from the new secret.
func (p *Poller) freshSecrets(ctx context.Context, name provider.Name, cred tenant.Credential) (map[string]any, error) {
	refresher, err := p.adapters.GetRefresher(name)
	if err != nil {
		return nil, err
	}
	if refresher == nil {
		return cred.Credentials, nil
	}

	refreshed, err := refresher.Refresh(ctx, cred.Credentials)
	if err != nil {
		return nil, err
	}
	if credsChanged(cred.Credentials, refreshed) {
		if err := p.tenants.SaveCredentials(ctx, cred.ID, refreshed); err != nil {
			p.logger.Warn("failed to persist rotated credentials",
				slog.String("credential_id", cred.ID),
				slog.Any("error", err))
		}
	}
	return refreshed, nil
}

// pauseCredential takes a revoked credential out of rotation and tells the
// tenant's dashboard to re-authorize.
func (p *Poller) pauseCredential(ctx context.Context, cred tenant.Credential) error {
	if err := p.tenants.MarkNeedsReauth(ctx, cred.ID); err != nil {
		return fmt.Errorf("mark needs_reauth: %w", err)
	}
	p.hub.Broadcast(cred.TenantID, notify.Event{
		Type:     notify.EventNeedsReauth,
		Provider: cred.Provider,
		Data:     map[string]any{"address": cred.Address},
	})
	return nil
}

// ingest stores the fetched batch, projects new messages into conversation
// context and announces them. Duplicate fetches fall out at the store.
// Inbound messages the eligibility filters reject (newsletters, bounces,
// self-echo) are kept on the record but never projected or announced.
func (p *Poller) ingest(ctx context.Context, cred tenant.Credential, raws []provider.RawMessage) {
	for _, raw := range raws {
		msg, isNew, err := p.messages.Upsert(ctx, cred.TenantID, cred.Provider, raw)
		if err != nil {
			p.logger.Error("failed to store fetched message",
				slog.String("tenant_id", cred.TenantID),
				slog.String("provider_message_id", raw.ProviderMessageID),
				slog.Any("error", err))
			continue
		}
		if !isNew {
			continue
		}
		if msg.Direction == store.DirectionInbound {
			if verdict := store.Eligibility(msg, cred.Address, p.systemSender); verdict.Skip {
				p.logger.Debug("fetched message held out of the conversation view",
					slog.String("message_id", msg.ID),
					slog.String("reason", verdict.Reason))
				continue
			}
		}
		if _, err := p.contexts.Append(ctx, cred.TenantID, msg.ChannelID, conversation.EntryFromMessage(msg)); err != nil {
			p.logger.Warn("failed to project message into context",
				slog.String("message_id", msg.ID),
				slog.Any("error", err))
		}
		p.hub.Broadcast(cred.TenantID, notify.Event{
			Type:      notify.EventConversationUpdate,
			ChannelID: msg.ChannelID,
			MessageID: msg.ID,
			Provider:  msg.Provider,
		})
	}
}

// workPending runs the credential's pending inbound messages through the
// reply pipeline. Providers that cannot send leave their messages pending
// for the dashboard.
func (p *Poller) workPending(ctx context.Context, name provider.Name, tn tenant.Tenant, cred tenant.Credential, secrets map[string]any) {
	sender, err := p.adapters.GetSender(name)
	if err != nil {
		return
	}

	pending, err := p.messages.ListPending(ctx, cred.TenantID, cred.Provider, pendingBatch)
	if err != nil {
		p.logger.Error("failed to list pending messages",
			slog.String("tenant_id", cred.TenantID),
			slog.Any("error", err))
		return
	}

	send := func(ctx context.Context, out provider.OutboundMessage) (string, error) {
		return sender.Send(ctx, secrets, out)
	}
	for _, msg := range pending {
		res, err := p.processor.Process(ctx, tn, cred.Address, msg, send)
		if err != nil {
			p.logger.Error("reply pipeline failed",
				slog.String("tenant_id", cred.TenantID),
				slog.String("message_id", msg.ID),
				slog.Any("error", err))
			continue
		}
		p.announce(cred, msg, res)
	}
}

// announce turns a pipeline outcome into dashboard events. Quiet outcomes
// (filters, retries, lost claims) stay off the wire.
func (p *Poller) announce(cred tenant.Credential, msg store.Message, res orchestrator.Result) {
	switch res.Outcome {
	case orchestrator.OutcomeReplied:
		evt := notify.Event{
			Type:      notify.EventConversationUpdate,
			ChannelID: msg.ChannelID,
			Provider:  msg.Provider,
			Outcome:   string(res.Outcome),
		}
		if res.Reply != nil {
			evt.MessageID = res.Reply.ID
		}
		p.hub.Broadcast(cred.TenantID, evt)
	case orchestrator.OutcomeEscalated:
		p.hub.Broadcast(cred.TenantID, notify.Event{
			Type:      notify.EventEscalation,
			ChannelID: msg.ChannelID,
			MessageID: msg.ID,
			Provider:  msg.Provider,
			Outcome:   string(res.Outcome),
			Reason:    res.Reason,
			Urgency:   res.Verdict.Urgency,
		})
	}
}

func credsChanged(before, after map[string]any) bool {
	if len(before) != len(after) {
		return true
	}
	for k, v := range before {
		if fmt.Sprint(after[k]) != fmt.Sprint(v) {
			return true
		}
	}
	return false
}

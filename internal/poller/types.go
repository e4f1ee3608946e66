package poller

import (
	"context"

	"github.com/omniboxai/omnibox/internal/conversation"
	"github.com/omniboxai/omnibox/internal/notify"
	"github.com/omniboxai/omnibox/internal/orchestrator"
	"github.com/omniboxai/omnibox/internal/provider"
	"github.com/omniboxai/omnibox/internal/store"
	"github.com/omniboxai/omnibox/internal/tenant"
)

// CredentialDirectory is the slice of the tenant service one poll pass needs.
type CredentialDirectory interface {
	Get(ctx context.Context, tenantID string) (tenant.Tenant, error)
	ListActiveCredentials(ctx context.Context, providerName string) ([]tenant.Credential, error)
	SaveCredentials(ctx context.Context, credentialID string, creds map[string]any) error
	MarkNeedsReauth(ctx context.Context, credentialID string) error
}

// MessageStore ingests fetched messages and hands back the pending set.
type MessageStore interface {
	Upsert(ctx context.Context, tenantID, providerName string, raw provider.RawMessage) (store.Message, bool, error)
	ListPending(ctx context.Context, tenantID, providerName string, limit int) ([]store.Message, error)
}

// ContextStore projects new messages into conversation context.
type ContextStore interface {
	Append(ctx context.Context, tenantID, channelID string, entries ...conversation.Entry) ([]conversation.Entry, error)
}

// CheckpointStore persists per-(tenant, provider) fetch cursors.
type CheckpointStore interface {
	Get(ctx context.Context, tenantID, providerName string) (string, error)
	Put(ctx context.Context, tenantID, providerName, cursor string) error
}

// AdapterSource resolves provider capabilities. Satisfied by
// *provider.Registry.
type AdapterSource interface {
	Names() []provider.Name
	GetFetcher(name provider.Name) (provider.Fetcher, error)
	GetSender(name provider.Name) (provider.Sender, error)
	GetRefresher(name provider.Name) (provider.Refresher, error)
}

// Processor runs one pending message through the reply pipeline.
type Processor interface {
	Process(ctx context.Context, tn tenant.Tenant, selfAddress string, msg store.Message, send orchestrator.SendFunc) (orchestrator.Result, error)
}

// Broadcaster pushes events to the tenant's dashboard connections.
type Broadcaster interface {
	Broadcast(tenantID string, evt notify.Event) int
}

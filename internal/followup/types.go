package followup

import (
	"context"
	"time"

	"github.com/omniboxai/omnibox/internal/ai"
	"github.com/omniboxai/omnibox/internal/notify"
	"github.com/omniboxai/omnibox/internal/provider"
	"github.com/omniboxai/omnibox/internal/tenant"
)

// Lead is a prospect the tenant wants nudged when the conversation goes
// quiet. EmailContext accumulates the exchange so far and every follow-up
// that went out.
type Lead struct {
	ID             string     `json:"id"`
	TenantID       string     `json:"tenant_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	EmailContext   string     `json:"email_context"`
	LastFollowUpAt *time.Time `json:"last_follow_up_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// TenantDirectory is the slice of the tenant service the scheduler needs.
type TenantDirectory interface {
	ListWithCadence(ctx context.Context) ([]tenant.Tenant, error)
	ListActiveCredentialsForTenant(ctx context.Context, tenantID string) ([]tenant.Credential, error)
}

// LeadStore reads and advances leads.
type LeadStore interface {
	ListByTenant(ctx context.Context, tenantID string) ([]Lead, error)
	MarkFollowedUp(ctx context.Context, leadID string, at time.Time, emailContext string) error
}

// NoteWriter drafts the follow-up body.
type NoteWriter interface {
	GenerateFollowUp(ctx context.Context, in ai.FollowUpInput) string
}

// SenderLookup resolves a provider's outbound capability. Satisfied by
// *provider.Registry.
type SenderLookup interface {
	GetSender(name provider.Name) (provider.Sender, error)
}

// Broadcaster pushes events to the tenant's dashboard connections.
type Broadcaster interface {
	Broadcast(tenantID string, evt notify.Event) int
}

package tenant

import "time"

type Tenant struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	ReplyPolicy      string `json:"reply_policy"`
	ReplyFlow        string `json:"reply_flow"`
	BusinessCategory string `json:"business_category"`
	Goal             string `json:"goal"`
	// FollowUpCadence is nil when the tenant has follow-ups disabled.
	FollowUpCadence *time.Duration `json:"follow_up_cadence,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Credential is one provider hookup for a tenant. Credentials is nil once
// the row has been flipped to needs_reauth.
type Credential struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id"`
	TenantName  string         `json:"tenant_name,omitempty"`
	Provider    string         `json:"provider"`
	Address     string         `json:"address"`
	Credentials map[string]any `json:"-"`
	Status      string         `json:"status"`
}

const (
	CredentialStatusActive      = "active"
	CredentialStatusNeedsReauth = "needs_reauth"
)

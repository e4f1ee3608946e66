package provider

import (
	"context"
	"fmt"
	"sync"
)

// Adapter is the base interface every provider adapter must implement.
type Adapter interface {
	Type() Name
	Meta() Meta
}

// Fetcher pulls messages newer than the given checkpoint. It returns the
// normalized batch and the next checkpoint to persist. An empty checkpoint
// means "start from the provider's catch-up window".
type Fetcher interface {
	FetchNew(ctx context.Context, creds map[string]any, checkpoint string, limit int) ([]RawMessage, string, error)
}

// Sender delivers an outbound reply and returns the provider-assigned
// message id.
type Sender interface {
	Send(ctx context.Context, creds map[string]any, out OutboundMessage) (string, error)
}

// Refresher renews short-lived credentials before use. It returns the
// refreshed credential map, or the input unchanged when no renewal is due.
// A permanently revoked grant surfaces as ErrNeedsReauth.
type Refresher interface {
	Refresh(ctx context.Context, creds map[string]any) (map[string]any, error)
}

// Registry holds all registered provider adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[Name]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[Name]Adapter)}
}

func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Type()] = a
}

func (r *Registry) Get(name Name) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("provider adapter not found: %s", name)
	}
	return a, nil
}

func (r *Registry) GetFetcher(name Name) (Fetcher, error) {
	a, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	f, ok := a.(Fetcher)
	if !ok {
		return nil, fmt.Errorf("provider adapter %s does not support fetching", name)
	}
	return f, nil
}

func (r *Registry) GetSender(name Name) (Sender, error) {
	a, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	s, ok := a.(Sender)
	if !ok {
		return nil, fmt.Errorf("provider adapter %s does not support sending", name)
	}
	return s, nil
}

// GetRefresher returns the adapter's refresher, or nil when the adapter's
// credentials are static and never expire.
func (r *Registry) GetRefresher(name Name) (Refresher, error) {
	a, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	rf, ok := a.(Refresher)
	if !ok {
		return nil, nil
	}
	return rf, nil
}

func (r *Registry) ListMeta() []Meta {
	r.mu.RLock()
	defer r.mu.RUnlock()
	metas := make([]Meta, 0, len(r.adapters))
	for _, a := range r.adapters {
		metas = append(metas, a.Meta())
	}
	return metas
}

func (r *Registry) Names() []Name {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]Name, 0, len(r.adapters))
	for n := range r.adapters {
		names = append(names, n)
	}
	return names
}

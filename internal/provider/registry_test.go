package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchOnlyAdapter struct{}

func (fetchOnlyAdapter) Type() Name { return "fetchonly" }
func (fetchOnlyAdapter) Meta() Meta { return Meta{Provider: "fetchonly"} }
func (fetchOnlyAdapter) FetchNew(context.Context, map[string]any, string, int) ([]RawMessage, string, error) {
	return nil, "", nil
}

type fullAdapter struct{ fetchOnlyAdapter }

func (fullAdapter) Type() Name { return "full" }
func (fullAdapter) Send(context.Context, map[string]any, OutboundMessage) (string, error) {
	return "id", nil
}
func (fullAdapter) Refresh(_ context.Context, creds map[string]any) (map[string]any, error) {
	return creds, nil
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	r.Register(fetchOnlyAdapter{})

	a, err := r.Get("fetchonly")
	require.NoError(t, err)
	assert.Equal(t, Name("fetchonly"), a.Type())

	_, err = r.Get("missing")
	assert.Error(t, err)
}

func TestRegistryCapabilities(t *testing.T) {
	r := NewRegistry()
	r.Register(fetchOnlyAdapter{})
	r.Register(fullAdapter{})

	_, err := r.GetFetcher("fetchonly")
	require.NoError(t, err)

	_, err = r.GetSender("fetchonly")
	assert.Error(t, err, "fetch-only adapter must not be usable as a sender")

	s, err := r.GetSender("full")
	require.NoError(t, err)
	id, err := s.Send(context.Background(), nil, OutboundMessage{})
	require.NoError(t, err)
	assert.Equal(t, "id", id)
}

func TestRegistryRefresherOptional(t *testing.T) {
	r := NewRegistry()
	r.Register(fetchOnlyAdapter{})
	r.Register(fullAdapter{})

	rf, err := r.GetRefresher("fetchonly")
	require.NoError(t, err)
	assert.Nil(t, rf, "static-credential adapters have no refresher")

	rf, err = r.GetRefresher("full")
	require.NoError(t, err)
	assert.NotNil(t, rf)
}

func TestRegistryListMeta(t *testing.T) {
	r := NewRegistry()
	r.Register(fetchOnlyAdapter{})
	r.Register(fullAdapter{})

	metas := r.ListMeta()
	assert.Len(t, metas, 2)
}

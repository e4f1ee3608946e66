package notify

import (
	"log/slog"
	"sync"
)

// Conn is the slice of a websocket connection the hub needs. Satisfied by
// *websocket.Conn; tests plug in a recorder.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Hub fans pipeline events out to every dashboard connection of a tenant.
// A tenant can hold any number of simultaneous connections; other tenants
// never see its events.
type Hub struct {
	mu      sync.RWMutex
	tenants map[string]map[*session]struct{}
	logger  *slog.Logger
}

// session wraps one connection with a write lock. gorilla/websocket allows
// a single concurrent writer per connection, and the poller and follow-up
// passes broadcast from separate goroutines.
type session struct {
	tenantID string
	conn     Conn
	wmu      sync.Mutex
}

func (s *session) write(v any) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *session) close() error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.conn.Close()
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		tenants: make(map[string]map[*session]struct{}),
		logger:  log.With(slog.String("service", "notify")),
	}
}

// Attach registers a connection under the tenant and returns the detach
// function the caller runs when the socket goes away.
func (h *Hub) Attach(tenantID string, conn Conn) func() {
	s := &session{tenantID: tenantID, conn: conn}

	h.mu.Lock()
	room := h.tenants[tenantID]
	if room == nil {
		room = make(map[*session]struct{})
		h.tenants[tenantID] = room
	}
	room[s] = struct{}{}
	h.mu.Unlock()

	return func() { h.detach(s) }
}

func (h *Hub) detach(s *session) {
	h.mu.Lock()
	if room, ok := h.tenants[s.tenantID]; ok {
		delete(room, s)
		if len(room) == 0 {
			delete(h.tenants, s.tenantID)
		}
	}
	h.mu.Unlock()
}

// Broadcast delivers the event to every live connection of the tenant and
// reports how many received it. Connections that fail to take the write
// are dropped and closed; a dead dashboard must not wedge the pipeline.
func (h *Hub) Broadcast(tenantID string, evt Event) int {
	h.mu.RLock()
	room := h.tenants[tenantID]
	sessions := make([]*session, 0, len(room))
	for s := range room {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range sessions {
		if err := s.write(evt); err != nil {
			h.logger.Debug("dropping dead connection",
				slog.String("tenant_id", tenantID),
				slog.Any("error", err))
			h.detach(s)
			_ = s.close()
			continue
		}
		delivered++
	}
	return delivered
}

// ConnectionCount reports live connections for a tenant.
func (h *Hub) ConnectionCount(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tenants[tenantID])
}

// Close tears down every connection, for server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	var sessions []*session
	for _, room := range h.tenants {
		for s := range room {
			sessions = append(sessions, s)
		}
	}
	h.tenants = make(map[string]map[*session]struct{})
	h.mu.Unlock()

	for _, s := range sessions {
		_ = s.close()
	}
}

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/omniboxai/omnibox/internal/auth"
	"github.com/omniboxai/omnibox/internal/notify"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The token in the upgrade request is the access control; origin
		// checks add nothing for non-browser dashboard clients.
		return true
	},
}

// WSHandler subscribes dashboard clients to their tenant's event stream.
type WSHandler struct {
	hub    *notify.Hub
	logger *slog.Logger
}

func NewWSHandler(log *slog.Logger, hub *notify.Hub) *WSHandler {
	return &WSHandler{
		hub:    hub,
		logger: log.With(slog.String("handler", "ws")),
	}
}

func (h *WSHandler) Register(e *echo.Echo) {
	e.GET("/ws/tenants/:tenant_id/messages", h.Subscribe)
}

// Subscribe upgrades the connection and parks it on the hub. The read loop
// exists only to notice the peer going away; clients never send frames.
func (h *WSHandler) Subscribe(c echo.Context) error {
	tenantID := c.Param("tenant_id")
	if err := auth.RequireTenant(c, tenantID); err != nil {
		return err
	}

	conn, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	detach := h.hub.Attach(tenantID, conn)
	h.logger.Debug("dashboard connected", slog.String("tenant_id", tenantID))

	go func() {
		defer func() {
			detach()
			_ = conn.Close()
			h.logger.Debug("dashboard disconnected", slog.String("tenant_id", tenantID))
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return nil
}

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/omniboxai/omnibox/internal/auth"
	"github.com/omniboxai/omnibox/internal/conversation"
	"github.com/omniboxai/omnibox/internal/store"
)

// ConversationsHandler serves the dashboard's read and update surface over
// the message store and the context projection.
type ConversationsHandler struct {
	messages *store.Service
	contexts *conversation.Service
	logger   *slog.Logger
}

func NewConversationsHandler(log *slog.Logger, messages *store.Service, contexts *conversation.Service) *ConversationsHandler {
	return &ConversationsHandler{
		messages: messages,
		contexts: contexts,
		logger:   log.With(slog.String("handler", "conversations")),
	}
}

func (h *ConversationsHandler) Register(e *echo.Echo) {
	g := e.Group("/tenants/:tenant_id")
	g.GET("/conversations", h.ListConversations)
	g.GET("/conversations/:channel_id/messages", h.ListMessages)
	g.POST("/conversations/:channel_id/auto_reply", h.SetAutoReply)
	g.POST("/conversations/:channel_id/rebuild", h.RebuildContext)
	g.POST("/messages/:id/read", h.MarkRead)
	g.POST("/messages/:id/feedback", h.SetFeedback)
}

func (h *ConversationsHandler) ListConversations(c echo.Context) error {
	tenantID := c.Param("tenant_id")
	if err := auth.RequireTenant(c, tenantID); err != nil {
		return err
	}
	msgs, err := h.messages.ListConversations(c.Request().Context(), tenantID)
	if err != nil {
		h.logger.Error("list conversations failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list conversations")
	}
	return c.JSON(http.StatusOK, map[string]any{"conversations": msgs})
}

func (h *ConversationsHandler) ListMessages(c echo.Context) error {
	tenantID := c.Param("tenant_id")
	if err := auth.RequireTenant(c, tenantID); err != nil {
		return err
	}
	channelID := c.Param("channel_id")
	if channelID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channel id is required")
	}
	msgs, err := h.messages.ListConversationMessages(c.Request().Context(), tenantID, channelID)
	if err != nil {
		h.logger.Error("list messages failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list messages")
	}
	return c.JSON(http.StatusOK, map[string]any{"messages": msgs})
}

type autoReplyRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *ConversationsHandler) SetAutoReply(c echo.Context) error {
	tenantID := c.Param("tenant_id")
	if err := auth.RequireTenant(c, tenantID); err != nil {
		return err
	}
	channelID := c.Param("channel_id")
	if channelID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channel id is required")
	}
	var req autoReplyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	enabled, err := h.contexts.SetAutoReply(c.Request().Context(), tenantID, channelID, req.Enabled)
	if err != nil {
		h.logger.Error("set auto-reply failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update auto-reply")
	}
	return c.JSON(http.StatusOK, map[string]any{"channel_id": channelID, "enabled": enabled})
}

// RebuildContext replays the channel's message log into a fresh context
// projection. The projection is a cache; this is the repair tool for it.
func (h *ConversationsHandler) RebuildContext(c echo.Context) error {
	tenantID := c.Param("tenant_id")
	if err := auth.RequireTenant(c, tenantID); err != nil {
		return err
	}
	channelID := c.Param("channel_id")
	if channelID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channel id is required")
	}
	ctx := c.Request().Context()
	msgs, err := h.messages.ListConversationMessages(ctx, tenantID, channelID)
	if err != nil {
		h.logger.Error("rebuild: list messages failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load messages")
	}
	entries, err := h.contexts.Rebuild(ctx, tenantID, channelID, msgs)
	if err != nil {
		h.logger.Error("rebuild failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to rebuild context")
	}
	return c.JSON(http.StatusOK, map[string]any{"channel_id": channelID, "entries": len(entries)})
}

func (h *ConversationsHandler) MarkRead(c echo.Context) error {
	msg, err := h.ownedMessage(c)
	if err != nil {
		return err
	}
	if err := h.messages.SetNotificationRead(c.Request().Context(), msg.ID); err != nil {
		h.logger.Error("mark read failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to mark notification read")
	}
	return c.NoContent(http.StatusNoContent)
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
}

// SetFeedback attaches tenant feedback to a message and folds it into the
// conversation context, so later drafts see what the tenant corrected.
func (h *ConversationsHandler) SetFeedback(c echo.Context) error {
	msg, err := h.ownedMessage(c)
	if err != nil {
		return err
	}
	var req feedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	feedback := strings.TrimSpace(req.Feedback)
	if feedback == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "feedback is required")
	}

	ctx := c.Request().Context()
	if err := h.messages.SetFeedback(ctx, msg.ID, feedback); err != nil {
		h.logger.Error("set feedback failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save feedback")
	}
	found, err := h.contexts.AttachFeedback(ctx, msg.TenantID, msg.ChannelID, msg.ID, feedback)
	if err != nil {
		h.logger.Warn("failed to project feedback into context",
			slog.String("message_id", msg.ID),
			slog.Any("error", err))
	} else if !found {
		h.logger.Debug("feedback target not projected yet",
			slog.String("message_id", msg.ID))
	}
	return c.NoContent(http.StatusNoContent)
}

// ownedMessage loads the path message and verifies it belongs to the
// token's tenant.
func (h *ConversationsHandler) ownedMessage(c echo.Context) (store.Message, error) {
	tenantID := c.Param("tenant_id")
	if err := auth.RequireTenant(c, tenantID); err != nil {
		return store.Message{}, err
	}
	id := c.Param("id")
	if id == "" {
		return store.Message{}, echo.NewHTTPError(http.StatusBadRequest, "message id is required")
	}
	msg, err := h.messages.Get(c.Request().Context(), id)
	if err != nil {
		return store.Message{}, echo.NewHTTPError(http.StatusNotFound, "message not found")
	}
	if msg.TenantID != tenantID {
		return store.Message{}, echo.NewHTTPError(http.StatusNotFound, "message not found")
	}
	return msg, nil
}

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/omniboxai/omnibox/internal/auth"
	"github.com/omniboxai/omnibox/internal/followup"
)

// LeadsHandler manages the follow-up scheduler's lead list.
type LeadsHandler struct {
	leads  *followup.Leads
	logger *slog.Logger
}

func NewLeadsHandler(log *slog.Logger, leads *followup.Leads) *LeadsHandler {
	return &LeadsHandler{
		leads:  leads,
		logger: log.With(slog.String("handler", "leads")),
	}
}

func (h *LeadsHandler) Register(e *echo.Echo) {
	g := e.Group("/tenants/:tenant_id")
	g.GET("/leads", h.ListLeads)
	g.POST("/leads", h.CreateLead)
}

func (h *LeadsHandler) ListLeads(c echo.Context) error {
	tenantID := c.Param("tenant_id")
	if err := auth.RequireTenant(c, tenantID); err != nil {
		return err
	}
	leads, err := h.leads.ListByTenant(c.Request().Context(), tenantID)
	if err != nil {
		h.logger.Error("list leads failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list leads")
	}
	return c.JSON(http.StatusOK, map[string]any{"leads": leads})
}

type createLeadRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	EmailContext string `json:"email_context"`
}

func (h *LeadsHandler) CreateLead(c echo.Context) error {
	tenantID := c.Param("tenant_id")
	if err := auth.RequireTenant(c, tenantID); err != nil {
		return err
	}
	var req createLeadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}
	lead, err := h.leads.Create(c.Request().Context(), tenantID, strings.TrimSpace(req.Name), req.Email, req.EmailContext)
	if err != nil {
		h.logger.Error("create lead failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create lead")
	}
	return c.JSON(http.StatusCreated, lead)
}

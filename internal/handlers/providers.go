package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/omniboxai/omnibox/internal/auth"
	"github.com/omniboxai/omnibox/internal/provider"
	"github.com/omniboxai/omnibox/internal/tenant"
)

// ProvidersHandler exposes adapter metadata and the credential connect flow.
type ProvidersHandler struct {
	registry *provider.Registry
	tenants  *tenant.Service
	logger   *slog.Logger
}

func NewProvidersHandler(log *slog.Logger, registry *provider.Registry, tenants *tenant.Service) *ProvidersHandler {
	return &ProvidersHandler{
		registry: registry,
		tenants:  tenants,
		logger:   log.With(slog.String("handler", "providers")),
	}
}

func (h *ProvidersHandler) Register(e *echo.Echo) {
	e.GET("/providers", h.ListProviders)
	g := e.Group("/tenants/:tenant_id")
	g.GET("/credentials", h.ListCredentials)
	g.POST("/credentials", h.ConnectCredential)
}

// ListProviders returns every adapter's metadata, including the credential
// form schema the dashboard renders for the connect flow.
func (h *ProvidersHandler) ListProviders(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"providers": h.registry.ListMeta()})
}

// ListCredentials returns the tenant's connected channels. Secrets never
// leave the server; the Credential JSON shape omits them.
func (h *ProvidersHandler) ListCredentials(c echo.Context) error {
	tenantID := c.Param("tenant_id")
	if err := auth.RequireTenant(c, tenantID); err != nil {
		return err
	}
	creds, err := h.tenants.ListActiveCredentialsForTenant(c.Request().Context(), tenantID)
	if err != nil {
		h.logger.Error("list credentials failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list credentials")
	}
	return c.JSON(http.StatusOK, map[string]any{"credentials": creds})
}

type connectCredentialRequest struct {
	Provider    string         `json:"provider"`
	Address     string         `json:"address"`
	Credentials map[string]any `json:"credentials"`
}

func (h *ProvidersHandler) ConnectCredential(c echo.Context) error {
	tenantID := c.Param("tenant_id")
	if err := auth.RequireTenant(c, tenantID); err != nil {
		return err
	}
	var req connectCredentialRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Provider = strings.TrimSpace(req.Provider)
	req.Address = strings.TrimSpace(req.Address)
	if req.Provider == "" || req.Address == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "provider and address are required")
	}
	if len(req.Credentials) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "credentials are required")
	}
	if _, err := h.registry.Get(provider.Name(req.Provider)); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown provider: "+req.Provider)
	}

	cred, err := h.tenants.ConnectCredential(c.Request().Context(), tenantID, req.Provider, req.Address, req.Credentials)
	if err != nil {
		h.logger.Error("connect credential failed",
			slog.String("provider", req.Provider),
			slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save credential")
	}
	h.logger.Info("credential connected",
		slog.String("tenant_id", tenantID),
		slog.String("provider", req.Provider))
	return c.JSON(http.StatusCreated, cred)
}

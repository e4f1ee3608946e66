package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextWithToken(t *testing.T, tokenStr, secret string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	c.Set("user", token)
	return c
}

func TestGenerateTokenRoundTrip(t *testing.T) {
	secret := "test-secret"
	tokenStr, expiresAt, err := GenerateToken("tenant-123", secret, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	c := contextWithToken(t, tokenStr, secret)
	tenantID, err := TenantIDFromContext(c)
	require.NoError(t, err)
	assert.Equal(t, "tenant-123", tenantID)
}

func TestGenerateTokenValidation(t *testing.T) {
	_, _, err := GenerateToken("", "secret", time.Hour)
	assert.Error(t, err)
	_, _, err = GenerateToken("tenant-123", "", time.Hour)
	assert.Error(t, err)
	_, _, err = GenerateToken("tenant-123", "secret", 0)
	assert.Error(t, err)
}

func TestRequireTenant(t *testing.T) {
	secret := "test-secret"
	tokenStr, _, err := GenerateToken("tenant-a", secret, time.Hour)
	require.NoError(t, err)

	c := contextWithToken(t, tokenStr, secret)
	assert.NoError(t, RequireTenant(c, "tenant-a"))

	err = RequireTenant(c, "tenant-b")
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestTenantIDFromContextMissingUser(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	_, err := TenantIDFromContext(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

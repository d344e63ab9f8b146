package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/utils"
)

func runWithRole(t *testing.T, mw echo.MiddlewareFunc, role any) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set("role", role)
	}
	h := mw(func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	require.NoError(t, h(c))
	return rec
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
	mw := RequireRole(model.RoleAdmin, model.RoleStaff)
	rec := runWithRole(t, mw, model.RoleStaff)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleRejectsOtherRole(t *testing.T) {
	mw := RequireRole(model.RoleAdmin)
	rec := runWithRole(t, mw, model.RoleUser)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
	mw := RequireRole(model.RoleAdmin)
	rec := runWithRole(t, mw, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleRejectsRawString(t *testing.T) {
	// Only the parsed enum type passes; a raw string smuggled into the
	// context is not good enough.
	mw := RequireRole(model.RoleAdmin)
	rec := runWithRole(t, mw, "ADMIN")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestJWTAuthParsesRole(t *testing.T) {
	const secret = "mw-secret"
	at, err := utils.NewAccessToken(secret, 7, model.RoleAdmin, 5)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+at.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotRole any
	h := JWTAuth(secret)(func(c echo.Context) error {
		gotRole = c.Get("role")
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.RoleAdmin, gotRole)
}

func TestJWTAuthRejectsMissingToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuth("mw-secret")(func(c echo.Context) error {
		t.Fatal("next handler should not run")
		return nil
	})
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

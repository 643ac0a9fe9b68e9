package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func callWithRole(t *testing.T, mw echo.MiddlewareFunc, role interface{}) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    if role != nil {
        c.Set("role", role)
    }
    h := mw(func(c echo.Context) error {
        return c.NoContent(http.StatusOK)
    })
    require.NoError(t, h(c))
    return rec
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
    rec := callWithRole(t, RequireRole("HOST", "SECURITY"), "SECURITY")
    assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleRejectsUnknownRole(t *testing.T) {
    rec := callWithRole(t, RequireRole("HOST"), "SECURITY")
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
    rec := callWithRole(t, RequireRole("HOST"), nil)
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleRejectsNonStringRole(t *testing.T) {
    rec := callWithRole(t, RequireRole("HOST"), 42)
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

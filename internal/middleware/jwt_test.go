package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alcaldia-digital/reportes-api/internal/model"
	"github.com/alcaldia-digital/reportes-api/internal/utils"
)

const testSecret = "middleware-test-secret"

// newProtectedEcho mounts a probe route behind JWTAuth plus any extra
// middleware, echoing the injected principal back to the test.
func newProtectedEcho(extra ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	mw := append([]echo.MiddlewareFunc{JWTAuth(testSecret)}, extra...)
	e.GET("/probe", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"id":   c.Get(CtxPrincipalID),
			"role": c.Get(CtxRole),
		})
	}, mw...)
	return e
}

func doProbe(e *echo.Echo, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, model.RoleCitizen, 15)
	require.NoError(t, err)

	rec := doProbe(newProtectedEcho(), "Bearer "+tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":42`)
	assert.Contains(t, rec.Body.String(), `"role":"citizen"`)
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec := doProbe(newProtectedEcho(), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthMalformedToken(t *testing.T) {
	rec := doProbe(newProtectedEcho(), "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongScheme(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 1, model.RoleCitizen, 15)
	require.NoError(t, err)

	rec := doProbe(newProtectedEcho(), "Token "+tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsRefreshWrapper(t *testing.T) {
	ref, err := utils.NewRefreshToken(testSecret, 1, model.KindCitizen, 7)
	require.NoError(t, err)

	rec := doProbe(newProtectedEcho(), "Bearer "+ref.Wrapper)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRolesAllowsStaff(t *testing.T) {
	e := newProtectedEcho(RequireRoles(model.DashboardRoles...))

	for _, role := range model.DashboardRoles {
		tok, err := utils.NewAccessToken(testSecret, 5, role, 15)
		require.NoError(t, err)
		rec := doProbe(e, "Bearer "+tok.Token)
		assert.Equal(t, http.StatusOK, rec.Code, "role %s should pass", role)
	}
}

func TestRequireRolesForbidsCitizen(t *testing.T) {
	e := newProtectedEcho(RequireRoles(model.DashboardRoles...))

	tok, err := utils.NewAccessToken(testSecret, 5, model.RoleCitizen, 15)
	require.NoError(t, err)
	rec := doProbe(e, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Forbidden")
}

func TestRequireRolesUnknownRoleForbidden(t *testing.T) {
	e := newProtectedEcho(RequireRoles(model.RoleSuperadmin))

	tok, err := utils.NewAccessToken(testSecret, 5, model.RoleName("intern"), 15)
	require.NoError(t, err)
	rec := doProbe(e, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

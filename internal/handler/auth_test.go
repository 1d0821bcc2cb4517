package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alcaldia-digital/reportes-api/internal/model"
	"github.com/alcaldia-digital/reportes-api/internal/repository"
	"github.com/alcaldia-digital/reportes-api/internal/service"
)

const authTestSecret = "handler-test-secret"

// memCitizens is the smallest CitizenStore that lets the full register and
// login flows run end to end through the HTTP layer.
type memCitizens struct {
	nextID  uint64
	byID    map[uint64]model.Citizen
	byEmail map[string]uint64
	byPhone map[string]uint64
}

func newMemCitizens() *memCitizens {
	return &memCitizens{nextID: 1, byID: map[uint64]model.Citizen{}, byEmail: map[string]uint64{}, byPhone: map[string]uint64{}}
}

func (m *memCitizens) Create(_ context.Context, email, phone, passwordHash, nombre, apellidos string, colonia *string) (uint64, error) {
	if _, ok := m.byEmail[email]; ok {
		return 0, repository.ErrEmailExists
	}
	if _, ok := m.byPhone[phone]; ok {
		return 0, repository.ErrPhoneExists
	}
	id := m.nextID
	m.nextID++
	e, p := email, phone
	m.byID[id] = model.Citizen{ID: id, Email: &e, Phone: &p, PasswordHash: passwordHash, Nombre: nombre, Apellidos: apellidos, Colonia: colonia}
	m.byEmail[email] = id
	m.byPhone[phone] = id
	return id, nil
}

func (m *memCitizens) GetByEmail(_ context.Context, email string) (model.Citizen, error) {
	if id, ok := m.byEmail[email]; ok {
		return m.byID[id], nil
	}
	return model.Citizen{}, repository.ErrNotFound
}

func (m *memCitizens) GetByPhone(_ context.Context, phone string) (model.Citizen, error) {
	if id, ok := m.byPhone[phone]; ok {
		return m.byID[id], nil
	}
	return model.Citizen{}, repository.ErrNotFound
}

func (m *memCitizens) GetByID(_ context.Context, id uint64) (model.Citizen, error) {
	if c, ok := m.byID[id]; ok {
		return c, nil
	}
	return model.Citizen{}, repository.ErrNotFound
}

// memStaff always misses; the auth handler tests exercise citizen flows.
type memStaff struct{}

func (memStaff) GetByEmail(context.Context, string) (model.StaffUser, error) {
	return model.StaffUser{}, repository.ErrNotFound
}
func (memStaff) GetByPhone(context.Context, string) (model.StaffUser, error) {
	return model.StaffUser{}, repository.ErrNotFound
}
func (memStaff) GetByID(context.Context, uint64) (model.StaffUser, error) {
	return model.StaffUser{}, repository.ErrNotFound
}

type memTokens struct {
	rows map[string]model.RefreshToken
	next uint64
}

func newMemTokens() *memTokens { return &memTokens{rows: map[string]model.RefreshToken{}, next: 1} }

func (m *memTokens) key(kind model.PrincipalKind, token string) string {
	return string(kind) + ":" + token
}

func (m *memTokens) Store(_ context.Context, kind model.PrincipalKind, ownerID uint64, token string, exp time.Time) error {
	id := m.next
	m.next++
	m.rows[m.key(kind, token)] = model.RefreshToken{ID: id, OwnerID: ownerID, Token: token, ExpiresAt: exp}
	return nil
}

func (m *memTokens) Find(_ context.Context, kind model.PrincipalKind, token string, ownerID uint64) (model.RefreshToken, error) {
	row, ok := m.rows[m.key(kind, token)]
	if !ok || row.OwnerID != ownerID {
		return model.RefreshToken{}, repository.ErrNotFound
	}
	return row, nil
}

func (m *memTokens) Consume(_ context.Context, kind model.PrincipalKind, token string, ownerID uint64) error {
	k := m.key(kind, token)
	row, ok := m.rows[k]
	if !ok || row.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(m.rows, k)
	return nil
}

func (m *memTokens) DeleteByID(_ context.Context, kind model.PrincipalKind, id uint64) error {
	for k, row := range m.rows {
		if row.ID == id && strings.HasPrefix(k, string(kind)+":") {
			delete(m.rows, k)
		}
	}
	return nil
}

func newAuthTestServer() *echo.Echo {
	svc := service.NewAuthService(newMemCitizens(), memStaff{}, newMemTokens(),
		authTestSecret, 15, 7, 4, nil)
	h := NewAuthHandler(svc)

	e := echo.New()
	g := e.Group("/api/v1/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/forgot-password", h.ForgotPassword)
	return e
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const registerBody = `{"email":"maria@example.com","phone":"5551112222","password":"secreta123","nombre":"María","apellidos":"García López"}`

func TestRegisterEndpoint(t *testing.T) {
	e := newAuthTestServer()

	rec := postJSON(e, "/api/v1/auth/register", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sess service.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.NotEmpty(t, sess.AccessToken)
	assert.NotEmpty(t, sess.RefreshToken)
	assert.Positive(t, sess.ExpiresIn)
	require.NotNil(t, sess.User.Nombre)
	assert.Equal(t, "María", *sess.User.Nombre)
}

func TestRegisterEndpointValidation(t *testing.T) {
	e := newAuthTestServer()

	cases := map[string]string{
		"bad email":      `{"email":"not-an-email","phone":"5551112222","password":"secreta123","nombre":"A","apellidos":"B"}`,
		"short phone":    `{"email":"a@b.com","phone":"123","password":"secreta123","nombre":"A","apellidos":"B"}`,
		"short password": `{"email":"a@b.com","phone":"5551112222","password":"corta","nombre":"A","apellidos":"B"}`,
		"no nombre":      `{"email":"a@b.com","phone":"5551112222","password":"secreta123","nombre":"","apellidos":"B"}`,
	}
	for name, body := range cases {
		rec := postJSON(e, "/api/v1/auth/register", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.Contains(t, rec.Body.String(), "ValidationError", name)
	}
}

func TestRegisterEndpointDuplicate(t *testing.T) {
	e := newAuthTestServer()

	rec := postJSON(e, "/api/v1/auth/register", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(e, "/api/v1/auth/register", registerBody)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "DuplicateIdentity")
}

func TestLoginEndpoint(t *testing.T) {
	e := newAuthTestServer()
	require.Equal(t, http.StatusCreated, postJSON(e, "/api/v1/auth/register", registerBody).Code)

	rec := postJSON(e, "/api/v1/auth/login", `{"email":"maria@example.com","password":"secreta123"}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Email is normalized to lower case before the lookup.
	rec = postJSON(e, "/api/v1/auth/login", `{"email":"MARIA@example.com","password":"secreta123"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(e, "/api/v1/auth/login", `{"phone":"5551112222","password":"secreta123"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginEndpointFailures(t *testing.T) {
	e := newAuthTestServer()
	require.Equal(t, http.StatusCreated, postJSON(e, "/api/v1/auth/register", registerBody).Code)

	rec := postJSON(e, "/api/v1/auth/login", `{"email":"maria@example.com","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "InvalidCredentials")

	rec = postJSON(e, "/api/v1/auth/login", `{"email":"nobody@example.com","password":"secreta123"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "InvalidCredentials")

	// Neither identifier supplied.
	rec = postJSON(e, "/api/v1/auth/login", `{"password":"secreta123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshEndpointRotation(t *testing.T) {
	e := newAuthTestServer()

	rec := postJSON(e, "/api/v1/auth/register", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	var first service.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	rec = postJSON(e, "/api/v1/auth/refresh", `{"refreshToken":"`+first.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var second service.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The consumed token is gone for good.
	rec = postJSON(e, "/api/v1/auth/refresh", `{"refreshToken":"`+first.RefreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "ExpiredOrRevoked")
}

func TestRefreshEndpointInvalidToken(t *testing.T) {
	e := newAuthTestServer()

	rec := postJSON(e, "/api/v1/auth/refresh", `{"refreshToken":"garbage"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "InvalidToken")

	rec = postJSON(e, "/api/v1/auth/refresh", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForgotPasswordEndpointUniform(t *testing.T) {
	e := newAuthTestServer()
	require.Equal(t, http.StatusCreated, postJSON(e, "/api/v1/auth/register", registerBody).Code)

	known := postJSON(e, "/api/v1/auth/forgot-password", `{"email":"maria@example.com"}`)
	unknown := postJSON(e, "/api/v1/auth/forgot-password", `{"email":"nobody@example.com"}`)
	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, http.StatusOK, unknown.Code)
	assert.JSONEq(t, known.Body.String(), unknown.Body.String())

	rec := postJSON(e, "/api/v1/auth/forgot-password", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

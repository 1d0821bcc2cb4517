package handler

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/alcaldia-digital/reportes-api/internal/service"
)

// AuthHandler exposes the session endpoints: register, login, refresh and
// forgot-password. All flow logic lives in the session orchestrator; this
// layer validates request shape and maps the error taxonomy to HTTP.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// ----- DTOs -----

type registerReq struct {
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Password  string  `json:"password"`
	Nombre    string  `json:"nombre"`
	Apellidos string  `json:"apellidos"`
	Colonia   *string `json:"colonia"`
}

type loginReq struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type forgotPasswordReq struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Register: create citizen and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)

	fields := map[string]string{}
	if !validEmail(req.Email) {
		fields["email"] = "correo no válido"
	}
	if len(req.Phone) < 10 {
		fields["phone"] = "el teléfono debe tener al menos 10 dígitos"
	}
	if len(req.Password) < 8 {
		fields["password"] = "mínimo 8 caracteres"
	}
	if strings.TrimSpace(req.Nombre) == "" {
		fields["nombre"] = "el nombre es obligatorio"
	}
	if strings.TrimSpace(req.Apellidos) == "" {
		fields["apellidos"] = "los apellidos son obligatorios"
	}
	if len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": fields})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	sess, err := h.Auth.Register(ctx, service.RegisterInput{
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		Nombre:    req.Nombre,
		Apellidos: req.Apellidos,
		Colonia:   req.Colonia,
	})
	if err != nil {
		if errors.Is(err, service.ErrDuplicateIdentity) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "DuplicateIdentity", "message": "email o teléfono ya registrado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "registro fallido"})
	}
	return c.JSON(http.StatusCreated, sess)
}

// Login: verify credentials (citizen table first, then staff) and return a
// new token pair. Failures are never differentiated.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if (req.Email == "" && req.Phone == "") || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "se requiere email o teléfono, y contraseña"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	sess, err := h.Auth.Login(ctx, req.Email, req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "InvalidCredentials", "message": "credenciales inválidas"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "login fallido"})
	}
	return c.JSON(http.StatusOK, sess)
}

// Refresh: redeem a refresh wrapper for a rotated token pair. The redeemed
// token can never be used again.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "refreshToken requerido"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	sess, err := h.Auth.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "InvalidToken", "message": "token de refresco inválido"})
		case errors.Is(err, service.ErrExpiredOrRevoked):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "ExpiredOrRevoked", "message": "token de refresco expirado o revocado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "refresh fallido"})
	}
	return c.JSON(http.StatusOK, sess)
}

// ForgotPassword acknowledges uniformly whether or not an account exists.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Email == "" && req.Phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": "se requiere email o teléfono"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.ForgotPassword(ctx, req.Email, req.Phone); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "InternalError", "message": "error al procesar"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func validEmail(s string) bool {
	if s == "" {
		return false
	}
	_, err := mail.ParseAddress(s)
	return err == nil
}

// reqCtx bounds every handler's store round trips the way the rest of the
// API does.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

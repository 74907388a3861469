package handlers

import (
	"errors"
	"net"
	"net/http"

	"github.com/abdul-hamid-achik/aegisvault/internal/logging"
	"github.com/abdul-hamid-achik/aegisvault/internal/middleware"
	"github.com/abdul-hamid-achik/aegisvault/internal/services"
	"github.com/abdul-hamid-achik/aegisvault/internal/twofactor"
	"github.com/abdul-hamid-achik/aegisvault/internal/validation"
)

// Authenticator exchanges codes for sessions. *services.AuthService
// satisfies it.
type Authenticator interface {
	Login(code, ipAddress, userAgent string) (*services.Session, error)
	DeleteSession(token string)
}

// Enroller provisions the second factor. *twofactor.Manager satisfies it.
type Enroller interface {
	Setup() (*twofactor.Enrollment, error)
	Provisioned() (bool, error)
}

// AuthHandler handles session and second-factor endpoints.
type AuthHandler struct {
	auth      Authenticator
	twoFactor Enroller
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth Authenticator, twoFactor Enroller) *AuthHandler {
	return &AuthHandler{auth: auth, twoFactor: twoFactor}
}

// CreateSession handles POST /api/v1/session
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	log := logging.Logger(r.Context())

	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}
	if err := validation.TOTPCode(req.Code); err != nil {
		jsonError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	session, err := h.auth.Login(req.Code, remoteIP(r), r.UserAgent())
	switch {
	case errors.Is(err, services.ErrAccountLocked):
		log.Warn("login locked out", "remote_addr", r.RemoteAddr)
		jsonError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many failed attempts, try again later")
		return
	case errors.Is(err, services.ErrInvalidCode):
		log.Warn("login failed", "remote_addr", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid verification code")
		return
	case err != nil:
		log.Error("failed to create session", "error", err)
		jsonError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create session")
		return
	}

	log.Info("session created", "session_id", session.ID)
	jsonResponse(w, http.StatusCreated, map[string]any{
		"token":      session.Token,
		"token_type": "Bearer",
		"expires_at": session.ExpiresAt,
	})
}

// DeleteSession handles DELETE /api/v1/session
func (h *AuthHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if token, ok := middleware.BearerToken(r); ok {
		h.auth.DeleteSession(token)
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetupTwoFactor handles POST /api/v1/2fa/setup
func (h *AuthHandler) SetupTwoFactor(w http.ResponseWriter, r *http.Request) {
	enrollment, err := h.twoFactor.Setup()
	if err != nil {
		logging.Logger(r.Context()).Error("failed to set up second factor", "error", err)
		jsonError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to set up second factor")
		return
	}

	status := http.StatusCreated
	if enrollment.AlreadyProvisioned {
		status = http.StatusOK
	}
	jsonResponse(w, status, enrollment)
}

// TwoFactorStatus handles GET /api/v1/2fa/status
func (h *AuthHandler) TwoFactorStatus(w http.ResponseWriter, r *http.Request) {
	ok, err := h.twoFactor.Provisioned()
	if err != nil {
		logging.Logger(r.Context()).Error("failed to read second factor status", "error", err)
		jsonError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read second factor status")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"provisioned": ok})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

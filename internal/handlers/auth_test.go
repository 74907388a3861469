package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/abdul-hamid-achik/aegisvault/internal/services"
	"github.com/abdul-hamid-achik/aegisvault/internal/twofactor"
)

type mockAuthenticator struct {
	err     error
	deleted string
}

func (m *mockAuthenticator) Login(code, ipAddress, userAgent string) (*services.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &services.Session{ID: uuid.New(), Token: "tok", ExpiresAt: time.Now().Add(time.Minute)}, nil
}

func (m *mockAuthenticator) DeleteSession(token string) { m.deleted = token }

type mockEnroller struct {
	provisioned bool
	err         error
}

func (m *mockEnroller) Setup() (*twofactor.Enrollment, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.provisioned {
		return &twofactor.Enrollment{AlreadyProvisioned: true}, nil
	}
	m.provisioned = true
	return &twofactor.Enrollment{Secret: "JBSWY3DPEHPK3PXP", URI: "otpauth://totp/AegisVault:AegisVault?secret=JBSWY3DPEHPK3PXP"}, nil
}

func (m *mockEnroller) Provisioned() (bool, error) { return m.provisioned, m.err }

func TestAuthHandler_CreateSession(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		loginErr   error
		wantStatus int
		wantCode   string
	}{
		{"success", `{"code":"123456"}`, nil, http.StatusCreated, ""},
		{"malformed body", `{`, nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"short code", `{"code":"12345"}`, nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"wrong code", `{"code":"123456"}`, services.ErrInvalidCode, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"locked", `{"code":"123456"}`, services.ErrAccountLocked, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"internal", `{"code":"123456"}`, errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAuthHandler(&mockAuthenticator{err: tt.loginErr}, &mockEnroller{})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/session", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			handler.CreateSession(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("CreateSession() status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if resp := decodeError(t, w); resp.Error.Code != tt.wantCode {
					t.Errorf("error code = %q, want %q", resp.Error.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestAuthHandler_DeleteSession(t *testing.T) {
	auth := &mockAuthenticator{}
	handler := NewAuthHandler(auth, &mockEnroller{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/session", nil)
	req.Header.Set("Authorization", "Bearer abc")
	w := httptest.NewRecorder()

	handler.DeleteSession(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("DeleteSession() status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if auth.deleted != "abc" {
		t.Errorf("deleted token = %q, want abc", auth.deleted)
	}
}

func TestAuthHandler_SetupTwoFactor(t *testing.T) {
	enroller := &mockEnroller{}
	handler := NewAuthHandler(&mockAuthenticator{}, enroller)

	for i, want := range []int{http.StatusCreated, http.StatusOK} {
		w := httptest.NewRecorder()
		handler.SetupTwoFactor(w, httptest.NewRequest(http.MethodPost, "/api/v1/2fa/setup", nil))
		if w.Code != want {
			t.Fatalf("call %d status = %d, want %d", i, w.Code, want)
		}
	}

	w := httptest.NewRecorder()
	handler.TwoFactorStatus(w, httptest.NewRequest(http.MethodGet, "/api/v1/2fa/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d", w.Code)
	}
}

func TestAuthHandler_SetupTwoFactor_Error(t *testing.T) {
	handler := NewAuthHandler(&mockAuthenticator{}, &mockEnroller{err: errors.New("disk")})

	w := httptest.NewRecorder()
	handler.SetupTwoFactor(w, httptest.NewRequest(http.MethodPost, "/api/v1/2fa/setup", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

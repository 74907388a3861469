// Package services holds the HTTP API's session layer.
package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abdul-hamid-achik/aegisvault/internal/crypto"
)

const (
	// SessionDuration is the default session lifetime.
	SessionDuration = 15 * time.Minute

	// SessionTokenLength is the length of session tokens in bytes.
	SessionTokenLength = 32
)

var (
	// ErrInvalidCode is returned when a login code does not verify.
	ErrInvalidCode = errors.New("invalid verification code")

	// ErrInvalidSession is returned for unknown or expired tokens.
	ErrInvalidSession = errors.New("invalid or expired session")

	// ErrAccountLocked is returned when too many codes failed recently.
	ErrAccountLocked = errors.New("temporarily locked due to too many failed login attempts")
)

// Verifier checks a second-factor code. *twofactor.Manager satisfies it.
type Verifier interface {
	Verify(code string) bool
}

// Session is an authenticated API session.
type Session struct {
	ID           uuid.UUID
	Token        string // Only set when creating
	IPAddress    string
	UserAgent    string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	LastActiveAt time.Time
}

// AuthService exchanges TOTP codes for bearer tokens. Sessions live in
// memory only and disappear when the process exits. Only a hash of each
// token is kept.
type AuthService struct {
	verifier        Verifier
	ttl             time.Duration
	maxAttempts     int
	lockoutDuration time.Duration
	now             func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session // keyed by hex token hash
	failures []time.Time
}

// NewAuthService creates a new AuthService. A non-positive ttl selects
// SessionDuration; maxAttempts <= 0 disables lockout.
func NewAuthService(verifier Verifier, ttl time.Duration, maxAttempts int, lockoutDuration time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = SessionDuration
	}
	return &AuthService{
		verifier:        verifier,
		ttl:             ttl,
		maxAttempts:     maxAttempts,
		lockoutDuration: lockoutDuration,
		now:             time.Now,
		sessions:        make(map[string]*Session),
	}
}

// Login verifies code and creates a session.
func (s *AuthService) Login(code, ipAddress, userAgent string) (*Session, error) {
	if s.IsLocked() {
		return nil, ErrAccountLocked
	}

	if !s.verifier.Verify(code) {
		s.recordFailure()
		return nil, ErrInvalidCode
	}

	return s.CreateSession(ipAddress, userAgent)
}

// CreateSession creates a new session without checking a code.
func (s *AuthService) CreateSession(ipAddress, userAgent string) (*Session, error) {
	token, err := crypto.GenerateTokenString(SessionTokenLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.now()
	session := &Session{
		ID:           uuid.New(),
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
		ExpiresAt:    now.Add(s.ttl),
		CreatedAt:    now,
		LastActiveAt: now,
	}

	s.mu.Lock()
	s.sessions[tokenKey(token)] = session
	s.mu.Unlock()

	out := *session
	out.Token = token // Return the plaintext token to the caller
	return &out, nil
}

// ValidateSession returns the session for token and refreshes its activity.
func (s *AuthService) ValidateSession(token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	key := tokenKey(token)

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[key]
	if !ok {
		return nil, ErrInvalidSession
	}
	now := s.now()
	if !now.Before(session.ExpiresAt) {
		delete(s.sessions, key)
		return nil, ErrInvalidSession
	}
	session.LastActiveAt = now

	out := *session
	return &out, nil
}

// DeleteSession revokes token. Unknown tokens are ignored.
func (s *AuthService) DeleteSession(token string) {
	s.mu.Lock()
	delete(s.sessions, tokenKey(token))
	s.mu.Unlock()
}

// CleanupExpiredSessions drops expired sessions and stale failures and
// returns how many sessions were removed.
func (s *AuthService) CleanupExpiredSessions() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, session := range s.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(s.sessions, key)
			removed++
		}
	}
	s.pruneFailures(now)
	return removed
}

// Active returns the number of unexpired sessions.
func (s *AuthService) Active() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, session := range s.sessions {
		if now.Before(session.ExpiresAt) {
			n++
		}
	}
	return n
}

// IsLocked reports whether login is locked due to too many failed attempts.
func (s *AuthService) IsLocked() bool {
	if s.maxAttempts <= 0 {
		return false // Lockout disabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneFailures(s.now())
	return len(s.failures) >= s.maxAttempts
}

func (s *AuthService) recordFailure() {
	s.mu.Lock()
	s.failures = append(s.failures, s.now())
	s.mu.Unlock()
}

// pruneFailures drops failures older than the lockout window. Callers hold mu.
func (s *AuthService) pruneFailures(now time.Time) {
	cutoff := now.Add(-s.lockoutDuration)
	kept := s.failures[:0]
	for _, t := range s.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	s.failures = kept
}

func tokenKey(token string) string {
	return fmt.Sprintf("%x", crypto.HashToken(token))
}

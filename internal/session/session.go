// Package session gates ledger access on an authenticated credential.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrExpired         = errors.New("session expired")
	ErrNoIdentity      = errors.New("session has no user identity")
)

// State is a session lifecycle state.
type State int

const (
	Anonymous State = iota
	Authenticated
	Expired
	LoggedOut
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	case LoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// Decoder resolves a token to a user identity.
type Decoder interface {
	Decode(token string) (*models.User, error)
}

// Session holds the credential for one user of the client.
type Session struct {
	mu      sync.Mutex
	decoder Decoder
	logger  *slog.Logger
	now     func() time.Time
	state   State
	token   string
	user    models.User
}

// New creates an anonymous session.
func New(decoder Decoder, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		decoder: decoder,
		logger:  logger,
		now:     time.Now,
	}
}

// Authenticate stores token and decodes the identity it carries. A decode
// failure is logged and leaves the session authenticated without identity:
// ledger operations stay available but fetches are skipped.
func (s *Session) Authenticate(token, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Authenticated
	s.token = token
	s.user = models.User{Username: username}

	user, err := s.decoder.Decode(token)
	if err == nil && user == nil {
		err = errors.New("decoder returned no user")
	}
	if err != nil {
		s.logger.Warn("Failed to decode session token", "error", err)
		return
	}
	s.user = *user
	if s.user.Username == "" {
		s.user.Username = username
	}
	s.logger.Debug("Session authenticated", "user_id", s.user.ID)
}

// Logout discards the credential.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = LoggedOut
	s.token = ""
	s.user = models.User{}
}

// State returns the current lifecycle state, moving to Expired once the
// credential's expiry has passed.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	if s.state == Authenticated && s.user.ExpiresAt != 0 && !s.now().Before(time.Unix(s.user.ExpiresAt, 0)) {
		s.state = Expired
		s.logger.Info("Session expired", "user_id", s.user.ID)
	}
	return s.state
}

// Require returns nil only for an authenticated, unexpired session.
func (s *Session) Require() error {
	switch s.State() {
	case Authenticated:
		return nil
	case Expired:
		return ErrExpired
	default:
		return ErrUnauthenticated
	}
}

// Token returns the bearer token, or "" when not authenticated.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stateLocked() != Authenticated {
		return ""
	}
	return s.token
}

// User returns the decoded identity.
func (s *Session) User() models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// UserID returns the user id, or "" if none was decoded.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.ID
}

// HasIdentity reports whether a user id is available to scope fetches.
func (s *Session) HasIdentity() bool {
	return s.UserID() != ""
}

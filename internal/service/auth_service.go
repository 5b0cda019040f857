package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/session"
)

// AuthService logs the session in and out against the auth service and keeps
// the token between runs.
type AuthService struct {
	authenticator auth.Authenticator
	session       *session.Session
	tokens        session.TokenStore
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service. tokens may be nil.
func NewAuthService(authenticator auth.Authenticator, sess *session.Session, tokens session.TokenStore, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		authenticator: authenticator,
		session:       sess,
		tokens:        tokens,
		logger:        logger,
	}
}

// Register creates a new user account and returns the service's message.
func (s *AuthService) Register(ctx context.Context, username, password string) (string, error) {
	s.logger.Info("Register request", "username", username)

	if err := auth.ValidateCredential(username, password); err != nil {
		return "", err
	}

	msg, err := s.authenticator.Register(ctx, username, password)
	if err != nil {
		s.logger.Error("Registration failed", "username", username, "error", err)
		return "", err
	}

	s.logger.Info("User registered successfully", "username", username)
	return msg, nil
}

// Login authenticates a user and stores the returned token in the session.
func (s *AuthService) Login(ctx context.Context, username, password string) (models.User, error) {
	s.logger.Info("Login request", "username", username)

	if err := auth.ValidateCredential(username, password); err != nil {
		return models.User{}, err
	}

	token, err := s.authenticator.Login(ctx, username, password)
	if err != nil {
		s.logger.Warn("Login failed", "username", username, "error", err)
		return models.User{}, err
	}

	s.session.Authenticate(token, username)
	if s.tokens != nil {
		if err := s.tokens.Save(token); err != nil {
			s.logger.Warn("Failed to persist token", "error", err)
		}
	}

	user := s.session.User()
	s.logger.Info("User logged in successfully", "user_id", user.ID, "username", username)
	return user, nil
}

// Restore authenticates the session from a stored token. It reports false
// when no usable token is stored.
func (s *AuthService) Restore() (bool, error) {
	if s.tokens == nil {
		return false, nil
	}
	token, err := s.tokens.Load()
	if err != nil {
		return false, fmt.Errorf("failed to load stored token: %w", err)
	}
	if token == "" {
		return false, nil
	}

	s.session.Authenticate(token, "")
	if err := s.session.Require(); err != nil {
		s.logger.Info("Stored token is no longer valid", "error", err)
		s.Logout()
		return false, nil
	}
	s.logger.Info("Session restored", "user_id", s.session.UserID())
	return true, nil
}

// Logout discards the credential and the stored token.
func (s *AuthService) Logout() {
	s.session.Logout()
	if s.tokens != nil {
		if err := s.tokens.Clear(); err != nil {
			s.logger.Warn("Failed to clear stored token", "error", err)
		}
	}
	s.logger.Info("Logged out")
}

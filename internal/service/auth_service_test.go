package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/session"
)

type fakeAuthenticator struct {
	registered map[string]string
	logins     int
}

func (f *fakeAuthenticator) Register(ctx context.Context, username, password string) (string, error) {
	if _, ok := f.registered[username]; ok {
		return "", models.ErrExternalService
	}
	f.registered[username] = password
	return "User registered successfully", nil
}

func (f *fakeAuthenticator) Login(ctx context.Context, username, password string) (string, error) {
	f.logins++
	if f.registered[username] != password {
		return "", models.ErrExternalService
	}
	return "tok-" + username, nil
}

func setupAuth(t *testing.T, user *models.User) (*AuthService, *session.Session, *session.FileTokenStore, *fakeAuthenticator) {
	t.Helper()
	sess := session.New(fakeDecoder{user: user}, quietLogger())
	tokens := session.NewFileTokenStore(filepath.Join(t.TempDir(), "token"))
	authn := &fakeAuthenticator{registered: map[string]string{}}
	return NewAuthService(authn, sess, tokens, quietLogger()), sess, tokens, authn
}

func TestRegisterAndLogin(t *testing.T) {
	svc, sess, tokens, _ := setupAuth(t, &models.User{ID: "u-1"})
	ctx := context.Background()

	msg, err := svc.Register(ctx, "alice", "pw")
	if err != nil || msg != "User registered successfully" {
		t.Fatalf("Register = %q, %v", msg, err)
	}
	if _, err := svc.Register(ctx, "alice", "pw"); !errors.Is(err, models.ErrExternalService) {
		t.Errorf("duplicate register = %v", err)
	}

	if _, err := svc.Login(ctx, "alice", "nope"); !errors.Is(err, models.ErrExternalService) {
		t.Fatalf("bad login = %v", err)
	}
	if sess.Require() == nil {
		t.Fatal("failed login authenticated the session")
	}

	user, err := svc.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.ID != "u-1" || user.Username != "alice" {
		t.Errorf("user = %+v", user)
	}
	if sess.Token() != "tok-alice" {
		t.Errorf("session token = %q", sess.Token())
	}
	if stored, _ := tokens.Load(); stored != "tok-alice" {
		t.Errorf("stored token = %q", stored)
	}
}

func TestLoginValidatesBeforeCalling(t *testing.T) {
	svc, _, _, authn := setupAuth(t, nil)

	_, err := svc.Login(context.Background(), "", "pw")
	if !errors.Is(err, ledger.ErrInvalidInput) || !errors.Is(err, auth.ErrMissingUsername) {
		t.Errorf("Login without username = %v", err)
	}
	if authn.logins != 0 {
		t.Error("invalid credentials reached the auth service")
	}
	if _, err := svc.Register(context.Background(), "bob", ""); !errors.Is(err, auth.ErrMissingPassword) {
		t.Errorf("Register without password = %v", err)
	}
}

func TestLogoutClearsToken(t *testing.T) {
	svc, sess, tokens, authn := setupAuth(t, &models.User{ID: "u-1"})
	authn.registered["alice"] = "pw"
	svc.Login(context.Background(), "alice", "pw")

	svc.Logout()
	if sess.State() != session.LoggedOut {
		t.Errorf("state = %s", sess.State())
	}
	if stored, _ := tokens.Load(); stored != "" {
		t.Errorf("token still stored: %q", stored)
	}
}

func TestRestore(t *testing.T) {
	t.Run("no stored token", func(t *testing.T) {
		svc, sess, _, _ := setupAuth(t, &models.User{ID: "u-1"})
		ok, err := svc.Restore()
		if err != nil || ok {
			t.Errorf("Restore = %v, %v", ok, err)
		}
		if sess.State() != session.Anonymous {
			t.Errorf("state = %s", sess.State())
		}
	})

	t.Run("valid token", func(t *testing.T) {
		svc, sess, tokens, _ := setupAuth(t, &models.User{ID: "u-1"})
		tokens.Save("tok-alice")
		ok, err := svc.Restore()
		if err != nil || !ok {
			t.Fatalf("Restore = %v, %v", ok, err)
		}
		if sess.UserID() != "u-1" || sess.Token() != "tok-alice" {
			t.Errorf("session not restored: %+v", sess.User())
		}
	})

	t.Run("expired token", func(t *testing.T) {
		expired := time.Now().Add(-time.Hour).Unix()
		svc, sess, tokens, _ := setupAuth(t, &models.User{ID: "u-1", ExpiresAt: expired})
		tokens.Save("tok-old")
		ok, err := svc.Restore()
		if err != nil || ok {
			t.Errorf("Restore = %v, %v", ok, err)
		}
		if sess.Require() == nil {
			t.Error("expired token restored the session")
		}
		if stored, _ := tokens.Load(); stored != "" {
			t.Error("expired token should be cleared")
		}
	})
}

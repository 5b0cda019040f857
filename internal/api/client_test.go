package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// fakeService mimics the external API closely enough for the client.
type fakeService struct {
	mu       sync.Mutex
	records  map[string]json.RawMessage
	emails   []map[string]any
	lastAuth string
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAuth = r.Header.Get("Authorization")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/login":
		var c credentials
		json.NewDecoder(r.Body).Decode(&c)
		if c.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode("Invalid credentials")
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-" + c.Username})
	case r.Method == http.MethodPost && r.URL.Path == "/register":
		json.NewEncoder(w).Encode("User registered successfully")
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/distributions/"):
		id := strings.TrimPrefix(r.URL.Path, "/distributions/")
		rec, ok := f.records[id]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Write(rec)
	case r.Method == http.MethodPost && r.URL.Path == "/distribution":
		var body map[string]any
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &body)
		if _, ok := body["distribution"].(string); !ok {
			http.Error(w, "distribution must be a string", http.StatusBadRequest)
			return
		}
		f.records[body["user_id"].(string)] = data
		json.NewEncoder(w).Encode(map[string]string{"message": "saved"})
	case r.Method == http.MethodPost && r.URL.Path == "/send-distribution-email":
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.emails = append(f.emails, body)
		json.NewEncoder(w).Encode("Emails sent")
	default:
		http.Error(w, "boom", http.StatusInternalServerError)
	}
}

func (f *fakeService) auth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth
}

func (f *fakeService) sentEmails() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.emails...)
}

func setupClient(t *testing.T) (*Client, *fakeService, func(string)) {
	t.Helper()
	fake := &fakeService{records: make(map[string]json.RawMessage)}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	token := ""
	client := New(server.URL+"/", func() string { return token },
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return client, fake, func(tok string) { token = tok }
}

func TestLoginAndRegister(t *testing.T) {
	client, fake, _ := setupClient(t)
	ctx := context.Background()

	token, err := client.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token != "tok-alice" {
		t.Errorf("token = %q", token)
	}
	if auth := fake.auth(); auth != "" {
		t.Errorf("anonymous login sent Authorization %q", auth)
	}

	_, err = client.Login(ctx, "alice", "wrong")
	if !errors.Is(err, models.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("expected 401, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid credentials") {
		t.Errorf("error message lost: %v", err)
	}

	msg, err := client.Register(ctx, "bob", "pw")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if msg != "User registered successfully" {
		t.Errorf("Register message = %q", msg)
	}
}

func TestSaveAndFetchRecord(t *testing.T) {
	client, fake, setToken := setupClient(t)
	setToken("tok-alice")
	ctx := context.Background()

	if _, err := client.FetchRecord(ctx, "u-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	l := ledger.New().Append("A", "P", ledger.Obligation{Amount: decimal.RequireFromString("33.3333333333333333"), Description: "dinner"})
	form := models.Entry{Amount: "100", Friends: "A, B, C", FriendEmails: "a@x.com", Spender: "P", Description: "dinner"}
	if err := client.SaveRecord(ctx, models.NewRecord("u-1", form, l)); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}
	if auth := fake.auth(); auth != "Bearer tok-alice" {
		t.Errorf("Authorization = %q", auth)
	}

	got, err := client.FetchRecord(ctx, "u-1")
	if err != nil {
		t.Fatalf("FetchRecord failed: %v", err)
	}
	if got.UserID != "u-1" || got.Entry() != form {
		t.Errorf("record = %+v", got)
	}
	if !got.Distribution.Equal(l) {
		t.Error("distribution did not round trip through the service")
	}
}

func TestSendDistribution(t *testing.T) {
	client, fake, _ := setupClient(t)

	l := ledger.New().Append("A", "P", ledger.Obligation{Amount: decimal.NewFromInt(5), Description: "x"})
	err := client.SendDistribution(context.Background(), models.EmailRequest{
		Friends:      []string{"A"},
		FriendEmails: []string{"a@x.com"},
		Distribution: l,
	})
	if err != nil {
		t.Fatalf("SendDistribution failed: %v", err)
	}
	emails := fake.sentEmails()
	if len(emails) != 1 {
		t.Fatalf("expected 1 email request, got %d", len(emails))
	}
	if _, ok := emails[0]["distribution"].(map[string]any); !ok {
		t.Errorf("distribution should be sent as an object, got %T", emails[0]["distribution"])
	}
}

func TestTransportFailureIsExternalServiceError(t *testing.T) {
	client := New("http://127.0.0.1:1", nil, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	_, err := client.Login(context.Background(), "a", "b")
	if !errors.Is(err, models.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 0 {
		t.Errorf("expected transport error, got %#v", err)
	}
}

func TestDecodeMessage(t *testing.T) {
	tests := map[string]string{
		`"hello"`:                 "hello",
		`{"message":"saved"}`:     "saved",
		`{"error":"bad request"}`: "bad request",
		`plain text`:              "plain text",
		``:                        "",
	}
	for in, want := range tests {
		if got := decodeMessage([]byte(in)); got != want {
			t.Errorf("decodeMessage(%q) = %q, want %q", in, got, want)
		}
	}
}

package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/session"
	"github.com/mmynk/splitledger/internal/storage"
)

type stubDecoder struct{}

func (stubDecoder) Decode(token string) (*models.User, error) {
	return &models.User{ID: "id-" + token}, nil
}

type stubAuthenticator struct{}

func (stubAuthenticator) Register(ctx context.Context, username, password string) (string, error) {
	return "User registered successfully", nil
}

func (stubAuthenticator) Login(ctx context.Context, username, password string) (string, error) {
	if password != "pw" {
		return "", models.ErrExternalService
	}
	return username, nil
}

type memoryStore struct {
	records map[string]*models.Record
}

func (m *memoryStore) FetchRecord(ctx context.Context, userID string) (*models.Record, error) {
	if r, ok := m.records[userID]; ok {
		return r, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memoryStore) SaveRecord(ctx context.Context, r *models.Record) error {
	m.records[r.UserID] = r
	return nil
}

func (m *memoryStore) Close() error { return nil }

type recordingNotifier struct {
	sent []models.EmailRequest
}

func (r *recordingNotifier) SendDistribution(ctx context.Context, req models.EmailRequest) error {
	r.sent = append(r.sent, req)
	return nil
}

func newShell(t *testing.T, input string) (*Shell, *bytes.Buffer, *memoryStore, *recordingNotifier) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := session.New(stubDecoder{}, logger)
	store := &memoryStore{records: map[string]*models.Record{}}
	notifier := &recordingNotifier{}
	authSvc := service.NewAuthService(stubAuthenticator{}, sess, nil, logger)
	dist := service.NewDistributionService(sess, store, notifier, nil, logger)

	var out bytes.Buffer
	return New(authSvc, dist, sess, strings.NewReader(input), &out, logger), &out, store, notifier
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{"", nil, false},
		{"   ", nil, false},
		{"show", []string{"show"}, false},
		{"distribute 100 A,B P dinner", []string{"distribute", "100", "A,B", "P", "dinner"}, false},
		{`distribute 100 "A, B" P "late dinner"`, []string{"distribute", "100", "A, B", "P", "late dinner"}, false},
		{`edit A P 0 75 ""`, []string{"edit", "A", "P", "0", "75", ""}, false},
		{`say "a \"quoted\" word"`, []string{"say", `a "quoted" word`}, false},
		{"tabs\tand  spaces", []string{"tabs", "and", "spaces"}, false},
		{`open "quote`, nil, true},
	}

	for _, tt := range tests {
		got, err := splitArgs(tt.line)
		if tt.wantErr {
			if err == nil {
				t.Errorf("splitArgs(%q) expected error", tt.line)
			}
			continue
		}
		if err != nil {
			t.Errorf("splitArgs(%q) unexpected error: %v", tt.line, err)
			continue
		}
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("splitArgs(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, ledger.New()); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "No distribution data available.\n" {
		t.Errorf("empty render = %q", buf.String())
	}

	l := ledger.New().
		Append("A", "P", ledger.Obligation{Amount: decimal.NewFromInt(50), Description: "dinner"}).
		Append("A", "P", ledger.Obligation{Amount: decimal.RequireFromString("12.5"), Description: "taxi", Paid: true})
	buf.Reset()
	if err := Render(&buf, l); err != nil {
		t.Fatal(err)
	}
	want := "A:\n" +
		"  P:\n" +
		"    [0] P paid for dinner: 50.00 (Due)\n" +
		"    [1] P paid for taxi: 12.50 (Paid)\n" +
		"    Total amount due by P: 50.00\n"
	if buf.String() != want {
		t.Errorf("render =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestShellSession(t *testing.T) {
	script := strings.Join([]string{
		"show",
		"login alice pw",
		"whoami",
		`distribute 100 "A, B" P dinner`,
		"edit A P 0 75 lunch",
		"toggle B P 0",
		"total A P",
		`emails "a@x.com, b@x.com"`,
		"send",
		"save",
		"undo",
		"bogus",
		"quit",
		"show",
	}, "\n")
	sh, out, store, notifier := newShell(t, script)

	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"error: authentication required",
		"Logged in as alice.",
		"alice (id id-alice)",
		"[0] P paid for dinner: 50.00 (Due)",
		"[0] P paid for lunch: 75.00 (Due)",
		"Marked B's entry 0 for P as Paid.",
		"A owes P: 75.00",
		"Distribution email sent.",
		"Distribution saved.",
		"No distribution data available.",
		`error: unknown command: "bogus"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n%s", want, got)
		}
	}

	if len(notifier.sent) != 1 || len(notifier.sent[0].FriendEmails) != 2 {
		t.Errorf("sent = %+v", notifier.sent)
	}
	rec, ok := store.records["id-alice"]
	if !ok || rec.Distribution.Len() != 2 {
		t.Errorf("saved record = %+v", rec)
	}
	if strings.Count(got, "No distribution data available.") != 1 {
		t.Error("commands after quit were executed")
	}
}

func TestExecuteErrors(t *testing.T) {
	sh, _, _, _ := newShell(t, "")
	ctx := context.Background()
	if err := sh.Execute(ctx, "login alice pw"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		line string
		want error
	}{
		{"distribute 0 A P x", ledger.ErrInvalidInput},
		{"distribute 10 A", ErrUsage},
		{"toggle A P x", ledger.ErrInvalidInput},
		{"toggle A P 0", ledger.ErrNotFound},
		{"edit A P 0 abc", ledger.ErrInvalidInput},
		{"send", ledger.ErrInvalidInput},
		{"nope", ErrUnknownCommand},
		{`show "`, errUnterminatedQuote},
	}
	for _, tt := range tests {
		if err := sh.Execute(ctx, tt.line); !errors.Is(err, tt.want) {
			t.Errorf("Execute(%q) = %v, want %v", tt.line, err, tt.want)
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := session.New(stubDecoder{}, logger)
	dist := service.NewDistributionService(sess, &memoryStore{records: map[string]*models.Record{}}, &recordingNotifier{}, nil, logger)
	sh := New(service.NewAuthService(stubAuthenticator{}, sess, nil, logger), dist, sess, pr, io.Discard, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sh.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

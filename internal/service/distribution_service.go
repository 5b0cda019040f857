package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/history"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/session"
	"github.com/mmynk/splitledger/internal/storage"
)

// Gate is the part of the session the ledger operations depend on.
type Gate interface {
	Require() error
	UserID() string
}

// DistributionService owns the form, the live ledger and its undo history
// for one session.
type DistributionService struct {
	mu       sync.Mutex
	gate     Gate
	store    storage.Store
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger

	form    models.Entry
	ledger  ledger.Ledger
	history history.Stack
	// version increases on every local change; Load uses it to drop stale responses.
	version uint64
}

// NewDistributionService creates a service with an empty ledger.
func NewDistributionService(gate Gate, store storage.Store, notifier notify.Notifier, m *metrics.Metrics, logger *slog.Logger) *DistributionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DistributionService{
		gate:     gate,
		store:    store,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// Distribute splits entry.Amount equally across entry's friends, owed to
// entry.Spender. The submitted form and the previous ledger are pushed onto the
// history so Undo can restore them. Blank friend emails keep the current ones.
// On error nothing changes.
func (s *DistributionService) Distribute(entry models.Entry) (err error) {
	defer func() { s.metrics.ObserveOperation("distribute", err) }()
	if err := s.gate.Require(); err != nil {
		return err
	}

	amount, err := ledger.ParseAmount(entry.Amount)
	if err != nil {
		return err
	}
	friends := entry.FriendList()

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := calculator.Distribute(amount, friends, entry.Spender, entry.Description, s.ledger)
	if err != nil {
		return err
	}

	s.history.Push(history.Event{
		Amount:      entry.Amount,
		Friends:     friends,
		Spender:     entry.Spender,
		Description: entry.Description,
		Ledger:      s.ledger,
	})
	if entry.FriendEmails == "" {
		entry.FriendEmails = s.form.FriendEmails
	}
	s.form = entry
	s.commit(next)

	s.logger.Info("Distributed amount",
		"amount", amount.String(),
		"participants", len(friends),
		"payer", entry.Spender,
		"history_depth", s.history.Len())
	return nil
}

// Edit replaces the amount and description of one obligation.
func (s *DistributionService) Edit(friend, payer string, index int, req ledger.EditRequest) (err error) {
	defer func() { s.metrics.ObserveOperation("edit", err) }()
	if err := s.gate.Require(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.ledger.EditEntry(friend, payer, index, req)
	if err != nil {
		return err
	}
	s.commit(next)
	s.logger.Debug("Edited obligation", "friend", friend, "payer", payer, "index", index)
	return nil
}

// Toggle flips the paid flag of one obligation and returns the new value.
func (s *DistributionService) Toggle(friend, payer string, index int) (paid bool, err error) {
	defer func() { s.metrics.ObserveOperation("toggle", err) }()
	if err := s.gate.Require(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.ledger.TogglePaid(friend, payer, index)
	if err != nil {
		return false, err
	}
	s.commit(next)
	o, _ := next.Obligation(friend, payer, index)
	return o.Paid, nil
}

// TotalDue sums the unpaid amounts friend owes payer.
func (s *DistributionService) TotalDue(friend, payer string) (decimal.Decimal, error) {
	if err := s.gate.Require(); err != nil {
		return decimal.Zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.TotalDue(friend, payer), nil
}

// Balances nets the unpaid obligations of the live ledger.
func (s *DistributionService) Balances() ([]calculator.MemberBalance, []calculator.DebtEdge, error) {
	if err := s.gate.Require(); err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	l := s.ledger
	s.mu.Unlock()

	balances, debts := calculator.Balances(l)
	return balances, debts, nil
}

// Undo restores the form fields and ledger captured before the most recent
// distribution. Friend emails are left as they are. It reports false when
// there is nothing to undo.
func (s *DistributionService) Undo() (undone bool, err error) {
	defer func() { s.metrics.ObserveOperation("undo", err) }()
	if err := s.gate.Require(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.history.Pop()
	if !ok {
		return false, nil
	}
	restored := event.Entry()
	restored.FriendEmails = s.form.FriendEmails
	s.form = restored
	s.commit(event.Ledger)

	s.logger.Info("Undid distribution", "history_depth", s.history.Len())
	return true, nil
}

// CanUndo reports whether Undo would restore anything.
func (s *DistributionService) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// HistoryDepth returns the number of distributions that can be undone.
func (s *DistributionService) HistoryDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Len()
}

// Load fetches the saved record for the session's user and replaces the form
// and ledger with it. A response that arrives after a local change is
// discarded and applied is false. Without a user id the fetch is skipped.
func (s *DistributionService) Load(ctx context.Context) (applied bool, err error) {
	defer func() { s.metrics.ObserveOperation("load", err) }()
	if err := s.gate.Require(); err != nil {
		return false, err
	}
	userID := s.gate.UserID()
	if userID == "" {
		s.logger.Warn("Skipping fetch: session has no user id")
		return false, nil
	}

	s.mu.Lock()
	started := s.version
	s.mu.Unlock()

	record, err := s.store.FetchRecord(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Info("No saved distribution", "user_id", userID)
		record = models.NewRecord(userID, models.Entry{}, ledger.New())
	} else if err != nil {
		return false, fmt.Errorf("failed to fetch distribution: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version != started {
		s.logger.Info("Discarding stale fetch", "user_id", userID, "started", started, "current", s.version)
		return false, nil
	}

	form := record.Entry()
	if form.FriendEmails == "" {
		form.FriendEmails = s.form.FriendEmails
	}
	s.form = form
	s.commit(record.Distribution)

	s.logger.Info("Loaded distribution", "user_id", userID, "obligations", record.Distribution.Len())
	return true, nil
}

// Save persists the current form and ledger for the session's user.
func (s *DistributionService) Save(ctx context.Context) (err error) {
	defer func() { s.metrics.ObserveOperation("save", err) }()
	if err := s.gate.Require(); err != nil {
		return err
	}
	userID := s.gate.UserID()
	if userID == "" {
		return session.ErrNoIdentity
	}

	s.mu.Lock()
	record := models.NewRecord(userID, s.form, s.ledger)
	s.mu.Unlock()

	if err := s.store.SaveRecord(ctx, record); err != nil {
		return fmt.Errorf("failed to save distribution: %w", err)
	}
	s.logger.Info("Saved distribution", "user_id", userID, "obligations", record.Distribution.Len())
	return nil
}

// SendEmail sends the ledger to the friends in the form. The friend and email
// lists must pair up; otherwise ledger.ErrInvalidInput is returned and no
// request is made.
func (s *DistributionService) SendEmail(ctx context.Context) (err error) {
	defer func() { s.metrics.ObserveOperation("send_email", err) }()
	if err := s.gate.Require(); err != nil {
		return err
	}

	s.mu.Lock()
	form, l := s.form, s.ledger
	s.mu.Unlock()

	req, err := notify.BuildEmailRequest(form.Friends, form.FriendEmails, l)
	if err != nil {
		return err
	}
	if err := s.notifier.SendDistribution(ctx, req); err != nil {
		return fmt.Errorf("failed to send distribution email: %w", err)
	}
	s.logger.Info("Sent distribution email", "recipients", len(req.FriendEmails))
	return nil
}

// SetEmails replaces the comma separated friend emails in the form.
func (s *DistributionService) SetEmails(emails string) error {
	if err := s.gate.Require(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.FriendEmails = emails
	return nil
}

// Form returns the current form fields.
func (s *DistributionService) Form() models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Ledger returns the live ledger. The value is immutable.
func (s *DistributionService) Ledger() ledger.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger
}

// Reset drops the form, ledger and history, as on logout.
func (s *DistributionService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = models.Entry{}
	s.history = history.Stack{}
	s.commit(ledger.New())
}

// commit installs next as the live ledger. Callers hold s.mu.
func (s *DistributionService) commit(next ledger.Ledger) {
	s.ledger = next
	s.version++
	s.metrics.SetHistoryDepth(s.history.Len())
}

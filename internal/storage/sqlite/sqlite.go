// Package sqlite provides a SQLite-backed implementation of the storage.Store
// interface, for running without the remote persistence service.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store keeps one record per user. The ledger is stored as the same opaque
// JSON text the remote service receives.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a Store with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// FetchRecord retrieves the record saved for userID.
func (s *Store) FetchRecord(ctx context.Context, userID string) (*models.Record, error) {
	var (
		amount, friends, emails, spender, description string
		distribution                                  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT amount, friends, friend_emails, spender, description, distribution
		 FROM records WHERE user_id = ?`,
		userID,
	).Scan(&amount, &friends, &emails, &spender, &description, &distribution)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", storage.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var l ledger.Ledger
	if err := json.Unmarshal([]byte(distribution), &l); err != nil {
		return nil, fmt.Errorf("failed to decode stored distribution: %w", err)
	}

	return models.NewRecord(userID, models.Entry{
		Amount:       amount,
		Friends:      friends,
		FriendEmails: emails,
		Spender:      spender,
		Description:  description,
	}, l), nil
}

// SaveRecord inserts or replaces the record for record.UserID.
func (s *Store) SaveRecord(ctx context.Context, record *models.Record) error {
	if record.UserID == "" {
		return fmt.Errorf("%w: record has no user id", ledger.ErrInvalidInput)
	}

	distribution, err := record.Distribution.EncodeString()
	if err != nil {
		return fmt.Errorf("failed to encode distribution: %w", err)
	}

	entry := record.Entry()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (user_id, amount, friends, friend_emails, spender, description, distribution, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		     amount = excluded.amount,
		     friends = excluded.friends,
		     friend_emails = excluded.friend_emails,
		     spender = excluded.spender,
		     description = excluded.description,
		     distribution = excluded.distribution,
		     updated_at = excluded.updated_at`,
		record.UserID, entry.Amount, entry.Friends, entry.FriendEmails, entry.Spender, entry.Description,
		distribution, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

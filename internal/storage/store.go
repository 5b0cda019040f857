// Package storage provides abstractions for persisting distribution records.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

// ErrNotFound is returned when no record exists for a user.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for distribution record persistence.
// This abstraction allows swapping between the remote persistence service
// and a local database without changing the service layer.
type Store interface {
	// FetchRecord retrieves the saved record for a user.
	// Returns ErrNotFound if the user has never saved.
	FetchRecord(ctx context.Context, userID string) (*models.Record, error)

	// SaveRecord persists record under record.UserID, replacing any previous one.
	SaveRecord(ctx context.Context, record *models.Record) error

	// Close releases any resources held by the store.
	Close() error
}

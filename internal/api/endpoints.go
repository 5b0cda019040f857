package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/storage"
)

var (
	_ auth.Authenticator = (*Client)(nil)
	_ storage.Store      = (*Client)(nil)
	_ notify.Notifier    = (*Client)(nil)
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// saveRequest is the body of POST /distribution. The ledger travels as a
// JSON-encoded string.
type saveRequest struct {
	UserID       string `json:"user_id"`
	Amount       string `json:"amount"`
	Friends      string `json:"friends"`
	FriendEmails string `json:"friendEmails"`
	Spender      string `json:"spender"`
	Description  string `json:"description"`
	Distribution string `json:"distribution"`
}

// Login posts the credentials and returns the issued token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	data, _, err := c.do(ctx, "login", http.MethodPost, "/login", credentials{username, password})
	if err != nil {
		return "", err
	}
	var resp loginResponse
	if err := decodeInto("login", data, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &Error{Endpoint: "login", Message: "response has no token"}
	}
	return resp.Token, nil
}

// Register posts the credentials and returns the service's message.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	data, _, err := c.do(ctx, "register", http.MethodPost, "/register", credentials{username, password})
	if err != nil {
		return "", err
	}
	return decodeMessage(data), nil
}

// FetchRecord loads the saved distribution for userID.
func (c *Client) FetchRecord(ctx context.Context, userID string) (*models.Record, error) {
	ctx = middleware.WithUserID(ctx, userID)
	data, status, err := c.do(ctx, "fetch", http.MethodGet, "/distributions/"+url.PathEscape(userID), nil)
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: user %s", storage.ErrNotFound, userID)
	}
	if err != nil {
		return nil, err
	}
	var record models.Record
	if err := decodeInto("fetch", data, &record); err != nil {
		return nil, err
	}
	record.UserID = userID
	return &record, nil
}

// SaveRecord posts the record to the persistence service.
func (c *Client) SaveRecord(ctx context.Context, record *models.Record) error {
	distribution, err := record.Distribution.EncodeString()
	if err != nil {
		return fmt.Errorf("failed to encode distribution: %w", err)
	}
	entry := record.Entry()
	ctx = middleware.WithUserID(ctx, record.UserID)
	_, _, err = c.do(ctx, "save", http.MethodPost, "/distribution", saveRequest{
		UserID:       record.UserID,
		Amount:       entry.Amount,
		Friends:      entry.Friends,
		FriendEmails: entry.FriendEmails,
		Spender:      entry.Spender,
		Description:  entry.Description,
		Distribution: distribution,
	})
	return err
}

// SendDistribution asks the notification service to email each friend.
func (c *Client) SendDistribution(ctx context.Context, req models.EmailRequest) error {
	_, _, err := c.do(ctx, "send_email", http.MethodPost, "/send-distribution-email", req)
	return err
}

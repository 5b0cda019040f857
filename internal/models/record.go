package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mmynk/splitledger/internal/ledger"
)

// Record is a saved distribution: the last form state plus the ledger.
type Record struct {
	UserID       string        `json:"user_id,omitempty"`
	Amount       FlexString    `json:"amount"`
	Friends      FlexString    `json:"friends"`
	FriendEmails FlexString    `json:"friendEmails,omitempty"`
	Spender      FlexString    `json:"spender"`
	Description  FlexString    `json:"description"`
	Distribution ledger.Ledger `json:"distribution"`
}

// NewRecord builds a record from the current form and ledger.
func NewRecord(userID string, form Entry, l ledger.Ledger) *Record {
	return &Record{
		UserID:       userID,
		Amount:       FlexString(form.Amount),
		Friends:      FlexString(form.Friends),
		FriendEmails: FlexString(form.FriendEmails),
		Spender:      FlexString(form.Spender),
		Description:  FlexString(form.Description),
		Distribution: l,
	}
}

// Entry returns the form fields stored in the record.
func (r *Record) Entry() Entry {
	return Entry{
		Amount:       string(r.Amount),
		Friends:      string(r.Friends),
		FriendEmails: string(r.FriendEmails),
		Spender:      string(r.Spender),
		Description:  string(r.Description),
	}
}

// FlexString is a form field that decodes from a JSON string, number, array
// of strings (joined with ", ") or null.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case data[0] == '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("failed to decode list field: %w", err)
		}
		*f = FlexString(strings.Join(items, ", "))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("failed to decode field %s: %w", data, err)
		}
		*f = FlexString(n.String())
	}
	return nil
}

// EmailRequest is what a notifier sends: one email per friend with the
// distribution attached.
type EmailRequest struct {
	Friends      []string      `json:"friends"`
	FriendEmails []string      `json:"friendEmails"`
	Distribution ledger.Ledger `json:"distribution"`
}

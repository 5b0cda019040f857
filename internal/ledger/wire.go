package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type wireObligation struct {
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Paid        bool        `json:"paid"`
}

// MarshalJSON encodes the obligation with its amount as a JSON number.
func (o Obligation) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireObligation{
		Amount:      json.Number(o.Amount.String()),
		Description: o.Description,
		Paid:        o.Paid,
	})
}

// UnmarshalJSON accepts the amount as a JSON number or numeric string.
func (o *Obligation) UnmarshalJSON(data []byte) error {
	var w wireObligation
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	amount := decimal.Zero
	if w.Amount != "" {
		d, err := decimal.NewFromString(string(w.Amount))
		if err != nil {
			return fmt.Errorf("failed to parse amount %q: %w", w.Amount, err)
		}
		amount = d
	}
	*o = Obligation{Amount: amount, Description: w.Description, Paid: w.Paid}
	return nil
}

// MarshalJSON encodes the ledger as a nested JSON object.
func (l Ledger) MarshalJSON() ([]byte, error) {
	if l.buckets == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(l.buckets)
}

// UnmarshalJSON decodes a nested object, or a JSON string holding one.
// Null and the empty string decode to an empty ledger.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return fmt.Errorf("failed to decode ledger string: %w", err)
		}
		data = bytes.TrimSpace([]byte(inner))
	}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = Ledger{}
		return nil
	}

	var buckets map[string]map[string][]Obligation
	if err := json.Unmarshal(data, &buckets); err != nil {
		return fmt.Errorf("failed to decode ledger: %w", err)
	}
	if len(buckets) == 0 {
		buckets = nil
	}
	*l = Ledger{buckets: buckets}
	return nil
}

// EncodeString returns the ledger JSON as a string, the form the save
// endpoint expects.
func (l Ledger) EncodeString() (string, error) {
	data, err := l.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

package calculator

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/ledger"
)

// Share returns amount divided equally between n participants.
// There is no remainder redistribution: n shares may sum to amount ± epsilon.
func Share(amount decimal.Decimal, n int) decimal.Decimal {
	return amount.Div(decimal.NewFromInt(int64(n)))
}

// Distribute splits amount equally across participants and appends one unpaid
// obligation per participant to ledger[participant][payer]. Duplicate names
// each receive their own obligation. The input ledger is not modified.
func Distribute(amount decimal.Decimal, participants []string, payer, description string, l ledger.Ledger) (ledger.Ledger, error) {
	if !amount.IsPositive() {
		return l, fmt.Errorf("%w: amount must be positive, got %s", ledger.ErrInvalidInput, amount)
	}
	if len(participants) == 0 {
		return l, fmt.Errorf("%w: must have at least one participant", ledger.ErrInvalidInput)
	}
	for i, p := range participants {
		if strings.TrimSpace(p) == "" {
			return l, fmt.Errorf("%w: participant %d has no name", ledger.ErrInvalidInput, i+1)
		}
	}
	if strings.TrimSpace(payer) == "" {
		return l, fmt.Errorf("%w: payer is required", ledger.ErrInvalidInput)
	}

	share := Share(amount, len(participants))
	for _, p := range participants {
		l = l.Append(p, payer, ledger.Obligation{
			Amount:      share,
			Description: description,
		})
	}
	return l, nil
}

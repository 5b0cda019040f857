package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/ledger"
)

// settleThreshold hides floating remainders left over from uneven splits.
var settleThreshold = decimal.RequireFromString("0.01")

// MemberBalance is one person's position across every unpaid obligation.
type MemberBalance struct {
	Name       string
	NetBalance decimal.Decimal // Positive = owed money, Negative = owes money
	TotalPaid  decimal.Decimal // Unpaid shares others owe this person as payer
	TotalOwed  decimal.Decimal // Unpaid shares this person owes others
}

// DebtEdge is a simplified payment from one person to another.
type DebtEdge struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount decimal.Decimal
}

// Balances nets the unpaid obligations of a ledger.
//
// Algorithm:
//   - Each unpaid obligation moves its amount from friend (owes) to payer (owed)
//   - Obligations a person owes to themselves are ignored
//   - net_balance = total_paid - total_owed
//   - Debts are simplified by greedily matching debtors with creditors
//
// Both results are sorted by name so output is stable.
func Balances(l ledger.Ledger) ([]MemberBalance, []DebtEdge) {
	balances := make(map[string]*MemberBalance)
	get := func(name string) *MemberBalance {
		if b, ok := balances[name]; ok {
			return b
		}
		b := &MemberBalance{Name: name, TotalPaid: decimal.Zero, TotalOwed: decimal.Zero}
		balances[name] = b
		return b
	}

	for _, friend := range l.Friends() {
		for _, payer := range l.Payers(friend) {
			if friend == payer {
				continue
			}
			due := l.TotalDue(friend, payer)
			if due.IsZero() {
				continue
			}
			get(friend).TotalOwed = get(friend).TotalOwed.Add(due)
			get(payer).TotalPaid = get(payer).TotalPaid.Add(due)
		}
	}

	names := make([]string, 0, len(balances))
	for name := range balances {
		names = append(names, name)
	}
	sort.Strings(names)

	members := make([]MemberBalance, 0, len(names))
	var debtors, creditors []string
	remaining := make(map[string]decimal.Decimal, len(names))
	for _, name := range names {
		b := balances[name]
		b.NetBalance = b.TotalPaid.Sub(b.TotalOwed)
		members = append(members, *b)

		switch {
		case b.NetBalance.IsNegative():
			debtors = append(debtors, name)
			remaining[name] = b.NetBalance.Neg()
		case b.NetBalance.IsPositive():
			creditors = append(creditors, name)
			remaining[name] = b.NetBalance
		}
	}

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := debtors[i], creditors[j]
		amount := decimal.Min(remaining[debtor], remaining[creditor])

		if amount.GreaterThanOrEqual(settleThreshold) {
			edges = append(edges, DebtEdge{From: debtor, To: creditor, Amount: amount})
		}

		remaining[debtor] = remaining[debtor].Sub(amount)
		remaining[creditor] = remaining[creditor].Sub(amount)

		if remaining[debtor].LessThan(settleThreshold) {
			i++
		}
		if remaining[creditor].LessThan(settleThreshold) {
			j++
		}
	}

	return members, edges
}

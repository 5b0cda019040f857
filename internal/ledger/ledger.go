// Package ledger implements the friend → payer → obligations ledger.
//
// A Ledger is an immutable value. Every mutating operation returns a new Ledger
// that copies only the path it touches; untouched buckets are shared with the
// receiver and are never written to again. A Ledger held in a history snapshot
// therefore never observes later edits to the live ledger.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidInput is returned for amounts, names or indexes that cannot be applied.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when (friend, payer, index) does not address an obligation.
	ErrNotFound = errors.New("obligation not found")
)

// Obligation is one share a friend owes a payer for one distribution.
type Obligation struct {
	Amount      decimal.Decimal
	Description string
	Paid        bool
}

// Equal reports whether two obligations hold the same values.
func (o Obligation) Equal(other Obligation) bool {
	return o.Amount.Equal(other.Amount) && o.Description == other.Description && o.Paid == other.Paid
}

// EditRequest carries the replacement values for EditEntry.
type EditRequest struct {
	Amount      decimal.Decimal
	Description string
}

// Ledger maps friend → payer → ordered obligations.
// The zero value is an empty ledger ready to use.
type Ledger struct {
	buckets map[string]map[string][]Obligation
}

// New returns an empty ledger.
func New() Ledger {
	return Ledger{}
}

// ParseAmount parses user-entered amount text.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", ErrInvalidInput)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q is not a finite number", ErrInvalidInput, s)
	}
	return d, nil
}

// IsEmpty reports whether the ledger has no friends.
func (l Ledger) IsEmpty() bool {
	return len(l.buckets) == 0
}

// Len returns the total number of obligations.
func (l Ledger) Len() int {
	n := 0
	for _, payers := range l.buckets {
		for _, bucket := range payers {
			n += len(bucket)
		}
	}
	return n
}

// Friends returns the friend names in sorted order.
func (l Ledger) Friends() []string {
	return sortedKeys(l.buckets)
}

// Payers returns, in sorted order, the payers a friend owes.
func (l Ledger) Payers(friend string) []string {
	return sortedKeys(l.buckets[friend])
}

// Obligations returns a copy of the bucket for (friend, payer).
func (l Ledger) Obligations(friend, payer string) []Obligation {
	bucket := l.buckets[friend][payer]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]Obligation, len(bucket))
	copy(out, bucket)
	return out
}

// Obligation returns the obligation at (friend, payer, index).
func (l Ledger) Obligation(friend, payer string, index int) (Obligation, error) {
	bucket := l.buckets[friend][payer]
	if index < 0 || index >= len(bucket) {
		return Obligation{}, fmt.Errorf("%w: %s/%s[%d]", ErrNotFound, friend, payer, index)
	}
	return bucket[index], nil
}

// Append returns a ledger with o appended to friend's bucket for payer.
func (l Ledger) Append(friend, payer string, o Obligation) Ledger {
	next, payers := l.withFriend(friend)
	bucket := payers[payer]
	grown := make([]Obligation, len(bucket), len(bucket)+1)
	copy(grown, bucket)
	payers[payer] = append(grown, o)
	return next
}

// EditEntry replaces the amount and description at (friend, payer, index).
// The paid flag is preserved.
func (l Ledger) EditEntry(friend, payer string, index int, req EditRequest) (Ledger, error) {
	current, err := l.Obligation(friend, payer, index)
	if err != nil {
		return l, err
	}
	if req.Amount.IsNegative() {
		return l, fmt.Errorf("%w: amount %s is negative", ErrInvalidInput, req.Amount)
	}
	return l.replace(friend, payer, index, Obligation{
		Amount:      req.Amount,
		Description: req.Description,
		Paid:        current.Paid,
	}), nil
}

// TogglePaid flips the paid flag at (friend, payer, index).
func (l Ledger) TogglePaid(friend, payer string, index int) (Ledger, error) {
	current, err := l.Obligation(friend, payer, index)
	if err != nil {
		return l, err
	}
	current.Paid = !current.Paid
	return l.replace(friend, payer, index, current), nil
}

// TotalDue sums the unpaid amounts friend owes payer.
func (l Ledger) TotalDue(friend, payer string) decimal.Decimal {
	total := decimal.Zero
	for _, o := range l.buckets[friend][payer] {
		if !o.Paid {
			total = total.Add(o.Amount)
		}
	}
	return total
}

// Equal reports deep equality, comparing amounts by value.
func (l Ledger) Equal(other Ledger) bool {
	if len(l.buckets) != len(other.buckets) {
		return false
	}
	for friend, payers := range l.buckets {
		otherPayers, ok := other.buckets[friend]
		if !ok || len(payers) != len(otherPayers) {
			return false
		}
		for payer, bucket := range payers {
			otherBucket, ok := otherPayers[payer]
			if !ok || len(bucket) != len(otherBucket) {
				return false
			}
			for i := range bucket {
				if !bucket[i].Equal(otherBucket[i]) {
					return false
				}
			}
		}
	}
	return true
}

func (l Ledger) replace(friend, payer string, index int, o Obligation) Ledger {
	next, payers := l.withFriend(friend)
	bucket := make([]Obligation, len(payers[payer]))
	copy(bucket, payers[payer])
	bucket[index] = o
	payers[payer] = bucket
	return next
}

// withFriend copies the outer map and friend's payer map. The returned payer
// map is owned by the new ledger and safe to write.
func (l Ledger) withFriend(friend string) (Ledger, map[string][]Obligation) {
	buckets := make(map[string]map[string][]Obligation, len(l.buckets)+1)
	for k, v := range l.buckets {
		buckets[k] = v
	}
	old := l.buckets[friend]
	payers := make(map[string][]Obligation, len(old)+1)
	for k, v := range old {
		payers[k] = v
	}
	buckets[friend] = payers
	return Ledger{buckets: buckets}, payers
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

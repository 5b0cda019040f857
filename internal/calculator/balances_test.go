package calculator

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/ledger"
)

func TestBalances(t *testing.T) {
	l := ledger.New()
	l, _ = Distribute(decimal.NewFromInt(90), []string{"Alice", "Bob", "Charlie"}, "Alice", "groceries", l)
	l, _ = Distribute(decimal.NewFromInt(30), []string{"Alice", "Bob"}, "Bob", "taxi", l)

	members, edges := Balances(l)

	// Alice paid 90: Bob owes 30, Charlie owes 30 (Alice's own share ignored).
	// Bob paid 30: Alice owes 15.
	// Alice: +60 -15 = +45, Bob: +15 -30 = -15, Charlie: -30
	want := map[string]string{"Alice": "45", "Bob": "-15", "Charlie": "-30"}
	if len(members) != len(want) {
		t.Fatalf("expected %d members, got %d", len(want), len(members))
	}
	for i, name := range []string{"Alice", "Bob", "Charlie"} {
		if members[i].Name != name {
			t.Errorf("member %d = %s, want %s", i, members[i].Name, name)
		}
		if !members[i].NetBalance.Equal(decimal.RequireFromString(want[name])) {
			t.Errorf("%s net = %s, want %s", name, members[i].NetBalance, want[name])
		}
	}

	if len(edges) != 2 {
		t.Fatalf("expected 2 debt edges, got %d: %+v", len(edges), edges)
	}
	total := decimal.Zero
	for _, e := range edges {
		if e.To != "Alice" {
			t.Errorf("unexpected creditor %s", e.To)
		}
		total = total.Add(e.Amount)
	}
	if !total.Equal(decimal.NewFromInt(45)) {
		t.Errorf("edges settle %s, want 45", total)
	}
}

func TestBalancesIgnoresPaid(t *testing.T) {
	l, _ := Distribute(decimal.NewFromInt(20), []string{"A", "B"}, "P", "lunch", ledger.New())
	l, _ = l.TogglePaid("A", "P", 0)
	l, _ = l.TogglePaid("B", "P", 0)

	members, edges := Balances(l)
	if len(members) != 0 || len(edges) != 0 {
		t.Errorf("expected no balances for fully paid ledger, got %+v %+v", members, edges)
	}
}

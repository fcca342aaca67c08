package books

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/etnz/books/store"
)

// legacy rewrites a snapshot the way version 2 books stored it: no
// referenceId and no funds leg for loans.
func legacy(t *testing.T, s Snapshot, loanID string) Snapshot {
	t.Helper()
	data := make(map[string][]json.RawMessage)
	for name, records := range s.Data {
		for _, raw := range records {
			var r map[string]any
			if err := json.Unmarshal(raw, &r); err != nil {
				t.Fatalf("json.Unmarshal() failed: %v", err)
			}
			if name == store.LedgerEntries && r["referenceId"] == loanID && r["id"] != loanID {
				continue
			}
			if name == store.LedgerEntries || name == store.StockMovements {
				delete(r, "referenceId")
			}
			out, err := json.Marshal(r)
			if err != nil {
				t.Fatalf("json.Marshal() failed: %v", err)
			}
			data[name] = append(data[name], out)
		}
	}
	return Snapshot{Version: legacySchemaVersion, Data: data, Settings: s.Settings}
}

func TestMigrateLegacyReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.buy(t, "4", "10", "10", "")
	f.sell(t, "2", "20", "40", "")
	loan, err := f.e.SubmitLoanEntry(ctx, LoanInput{Kind: "loan", PartyID: f.supplier.ID, Amount: dec("100")}, "")
	if err != nil {
		t.Fatalf("SubmitLoanEntry() failed: %v", err)
	}
	if _, err := f.e.SubmitCashEntry(ctx, CashInput{AccountID: f.bank.ID, Type: Deposit, Amount: dec("7")}, ""); err != nil {
		t.Fatalf("SubmitCashEntry() failed: %v", err)
	}

	current, err := f.e.ExportSnapshot(ctx)
	if err != nil {
		t.Fatalf("ExportSnapshot() failed: %v", err)
	}
	before := f.e.Books()

	old := newTestEngine(t, nil)
	if err := old.ImportSnapshot(ctx, legacy(t, current, loan.ID)); err != nil {
		t.Fatalf("ImportSnapshot() failed: %v", err)
	}
	after := old.Books()

	for _, m := range before.Movements() {
		got, ok := after.movements.get(m.ID)
		if !ok || got.ReferenceID != m.ReferenceID {
			t.Errorf("movement %s: referenceId = %q, want %q", m.Type, got.ReferenceID, m.ReferenceID)
		}
	}
	for _, e := range before.Entries() {
		if e.ReferenceID == loan.ID && e.ID != loan.ID {
			continue // the leg is created again with a new id
		}
		got, ok := after.Entry(e.ID)
		if !ok || got.ReferenceID != e.ReferenceID {
			t.Errorf("entry %q: referenceId = %q, want %q", e.Description, got.ReferenceID, e.ReferenceID)
		}
	}

	legs := entriesOf(after, loan.ID)
	if leg, ok := legs[AccountCash]; !ok || leg.Type != Debit || !leg.Amount.Equal(dec("100")) {
		t.Errorf("loan funds leg = %+v", leg)
	}
	assertBalanced(t, after)

	raw, err := old.Store().GetMeta(ctx, metaSchema)
	if err != nil {
		t.Fatalf("GetMeta() failed: %v", err)
	}
	if strings.TrimSpace(string(raw)) != "3" {
		t.Errorf("schema = %s, want 3", raw)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.sell(t, "1", "10", "10", "")
	report, err := f.e.MigrateLegacyReferences(ctx)
	if err != nil {
		t.Fatalf("MigrateLegacyReferences() failed: %v", err)
	}
	if report.Changed() || report.Orphans != 0 {
		t.Errorf("MigrateLegacyReferences() = %+v on current books", report)
	}
}

func TestNewBooksSchema(t *testing.T) {
	e := newTestEngine(t, nil)
	raw, err := e.Store().GetMeta(context.Background(), metaSchema)
	if err != nil {
		t.Fatalf("GetMeta() failed: %v", err)
	}
	if strings.TrimSpace(string(raw)) != "3" {
		t.Errorf("schema = %s, want 3", raw)
	}
}

func TestOwnerByDescription(t *testing.T) {
	ids := []string{"AB", "ABC", "X"}
	testCases := []struct {
		description string
		want        string
	}{
		{"Sale ABC", "ABC"},
		{"Cash paid AB", "AB"},
		{"Opening balance", ""},
	}
	for _, tc := range testCases {
		if got := ownerByDescription(tc.description, ids); got != tc.want {
			t.Errorf("ownerByDescription(%q) = %q, want %q", tc.description, got, tc.want)
		}
	}
}

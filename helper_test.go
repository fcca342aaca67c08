package books

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/etnz/books/date"
	"github.com/etnz/books/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// testNow is the clock of test engines.
var testNow = time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)

// testToday is the day of testNow.
var testToday = date.Of(testNow)

// dec is a helper for test to create decimals from const.
func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// quietLogger discards the engine logs.
func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// newTestEngine opens an engine over s, a new memory store when nil.
func newTestEngine(t *testing.T, s store.Store, opts ...Option) *Engine {
	t.Helper()
	if s == nil {
		s = store.NewMemory()
	}
	opts = append([]Option{WithClock(func() time.Time { return testNow }), WithLogger(quietLogger())}, opts...)
	e, err := Open(context.Background(), s, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	return e
}

// fixture is a small set of records most tests start from.
type fixture struct {
	e        *Engine
	supplier Party
	customer Party
	chair    Item // 20 in stock at 10
	bank     Bank // balance 500
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{e: newTestEngine(t, nil)}
	var err error
	if f.supplier, err = f.e.SaveParty(ctx, Party{Name: "Acme Supplies", Type: Supplier}); err != nil {
		t.Fatalf("SaveParty() failed: %v", err)
	}
	if f.customer, err = f.e.SaveParty(ctx, Party{Name: "Delta Works", Type: Customer}); err != nil {
		t.Fatalf("SaveParty() failed: %v", err)
	}
	f.chair, err = f.e.SubmitItem(ctx, ItemInput{
		SKU:          "SKU-001",
		Name:         "Office Chair",
		Cost:         dec("10"),
		OpeningStock: dec("20"),
		ReorderLevel: dec("5"),
	}, "")
	if err != nil {
		t.Fatalf("SubmitItem() failed: %v", err)
	}
	if f.bank, err = f.e.SaveBank(ctx, BankInput{Name: "Bank A", OpeningBalance: dec("500")}, ""); err != nil {
		t.Fatalf("SaveBank() failed: %v", err)
	}
	return f
}

// sell records a sale of the chair.
func (f *fixture) sell(t *testing.T, qty, rate, received string, existingID string) Sale {
	t.Helper()
	s, err := f.e.SubmitSale(context.Background(), TradeInput{
		ItemID:   f.chair.ID,
		PartyID:  f.customer.ID,
		Quantity: dec(qty),
		Rate:     dec(rate),
		Payment:  dec(received),
		Date:     testToday,
	}, existingID)
	if err != nil {
		t.Fatalf("SubmitSale() failed: %v", err)
	}
	return s
}

// buy records a purchase of the chair.
func (f *fixture) buy(t *testing.T, qty, rate, paid string, existingID string) Purchase {
	t.Helper()
	p, err := f.e.SubmitPurchase(context.Background(), TradeInput{
		ItemID:   f.chair.ID,
		PartyID:  f.supplier.ID,
		Quantity: dec(qty),
		Rate:     dec(rate),
		Payment:  dec(paid),
		Date:     testToday,
	}, existingID)
	if err != nil {
		t.Fatalf("SubmitPurchase() failed: %v", err)
	}
	return p
}

// entriesOf returns the entries owned by a record, per account.
func entriesOf(b *Books, ref string) map[string]LedgerEntry {
	res := make(map[string]LedgerEntry)
	for _, e := range b.Entries() {
		if e.ReferenceID == ref {
			res[e.AccountID] = e
		}
	}
	return res
}

// assertBalanced fails when the ledger is not balanced.
func assertBalanced(t *testing.T, b *Books) {
	t.Helper()
	if l := NewLedgerBalance(b); !l.Balanced {
		t.Errorf("ledger not balanced: debits %s, credits %s", l.Debits, l.Credits)
	}
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

// failingStore is a memory store whose commits fail on demand.
type failingStore struct {
	*store.Memory
	fail bool
}

func (s *failingStore) Commit(ctx context.Context, b *store.Batch) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.Memory.Commit(ctx, b)
}

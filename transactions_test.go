package books

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/etnz/books/date"
	"github.com/etnz/books/store"
)

func TestSaleScenario(t *testing.T) {
	f := newFixture(t)
	b := f.e.Books()
	assertDecimal(t, "AvailableStock()", b.AvailableStock(f.chair.ID), "20")

	s := f.sell(t, "5", "15", "0", "")
	b = f.e.Books()
	assertDecimal(t, "AvailableStock() after sale", b.AvailableStock(f.chair.ID), "15")
	entries := entriesOf(b, s.ID)
	if len(entries) != 2 {
		t.Fatalf("sale posted %d entries, want 2: %v", len(entries), entries)
	}
	if e := entries[AccountReceivable]; e.Type != Debit || !e.Amount.Equal(dec("75")) {
		t.Errorf("receivable entry = %v %s, want debit 75", e.Type, e.Amount)
	}
	if e := entries[AccountSalesIncome]; e.Type != Credit || !e.Amount.Equal(dec("75")) {
		t.Errorf("sales income entry = %v %s, want credit 75", e.Type, e.Amount)
	}
	if _, ok := entries[AccountCash]; ok {
		t.Errorf("sale without payment posted a cash entry")
	}

	edited := f.sell(t, "8", "15", "0", s.ID)
	if edited.ID != s.ID {
		t.Fatalf("edit changed the id from %s to %s", s.ID, edited.ID)
	}
	b = f.e.Books()
	assertDecimal(t, "AvailableStock() after edit", b.AvailableStock(f.chair.ID), "12")
	var saleMovements []StockMovement
	for _, m := range b.MovementsOf(f.chair.ID) {
		if m.ReferenceID == s.ID {
			saleMovements = append(saleMovements, m)
		}
	}
	if len(saleMovements) != 1 || !saleMovements[0].Quantity.Equal(dec("-8")) {
		t.Errorf("sale movements after edit = %v, want a single -8", saleMovements)
	}
	entries = entriesOf(b, s.ID)
	assertDecimal(t, "receivable after edit", entries[AccountReceivable].Amount, "120")
	assertDecimal(t, "sales income after edit", entries[AccountSalesIncome].Amount, "120")
	if got := len(b.Sales()); got != 1 {
		t.Errorf("len(Sales()) = %d, want 1", got)
	}
	assertBalanced(t, b)
}

func TestSaleRejectedWhenStockIsShort(t *testing.T) {
	f := newFixture(t)
	before := f.e.Books()

	_, err := f.e.SubmitSale(context.Background(), TradeInput{
		ItemID:   f.chair.ID,
		PartyID:  f.customer.ID,
		Quantity: dec("21"),
		Rate:     dec("15"),
		Date:     testToday,
	}, "")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("SubmitSale() error = %v, want ErrValidation", err)
	}
	after := f.e.Books()
	if after != before {
		t.Errorf("a rejected sale published new books")
	}
	if len(after.Sales()) != 0 || len(after.Movements()) != 1 || len(after.Entries()) != 0 {
		t.Errorf("a rejected sale left records: %d sales, %d movements, %d entries", len(after.Sales()), len(after.Movements()), len(after.Entries()))
	}
}

func TestSaleEditNetsItsOwnMovement(t *testing.T) {
	f := newFixture(t)
	s := f.sell(t, "15", "20", "0", "")
	// 5 left in stock, but the sale itself holds 15 of them
	f.sell(t, "20", "20", "0", s.ID)
	assertDecimal(t, "AvailableStock()", f.e.Books().AvailableStock(f.chair.ID), "0")

	_, err := f.e.SubmitSale(context.Background(), TradeInput{
		ItemID: f.chair.ID, PartyID: f.customer.ID, Quantity: dec("21"), Rate: dec("20"), Date: testToday,
	}, s.ID)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("SubmitSale(21) error = %v, want ErrValidation", err)
	}
}

func TestTradeValidation(t *testing.T) {
	f := newFixture(t)
	testCases := []struct {
		name  string
		input TradeInput
		want  error
	}{
		{
			name:  "zero quantity",
			input: TradeInput{ItemID: f.chair.ID, PartyID: f.customer.ID, Quantity: dec("0"), Rate: dec("1")},
			want:  ErrValidation,
		},
		{
			name:  "overpayment",
			input: TradeInput{ItemID: f.chair.ID, PartyID: f.customer.ID, Quantity: dec("2"), Rate: dec("10"), Payment: dec("20.01")},
			want:  ErrValidation,
		},
		{
			name:  "missing item",
			input: TradeInput{ItemID: "nope", PartyID: f.customer.ID, Quantity: dec("1"), Rate: dec("1")},
			want:  ErrNotFound,
		},
		{
			name:  "missing party id",
			input: TradeInput{ItemID: f.chair.ID, Quantity: dec("1"), Rate: dec("1")},
			want:  ErrValidation,
		},
		{
			name:  "zero rate",
			input: TradeInput{ItemID: f.chair.ID, PartyID: f.customer.ID, Quantity: dec("1"), Rate: dec("0")},
			want:  ErrValidation,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.e.SubmitSale(context.Background(), tc.input, "")
			if !errors.Is(err, tc.want) {
				t.Errorf("SubmitSale() error = %v, want %v", err, tc.want)
			}
		})
	}

	_, err := f.e.SubmitSale(context.Background(), TradeInput{ItemID: f.chair.ID, PartyID: f.customer.ID, Quantity: dec("1"), Rate: dec("1")}, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("SubmitSale(missing id) error = %v, want ErrNotFound", err)
	}

	// stock is checked before rate and payment
	_, err = f.e.SubmitSale(context.Background(), TradeInput{ItemID: f.chair.ID, PartyID: f.customer.ID, Quantity: dec("50"), Rate: dec("0")}, "")
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "quantity" {
		t.Errorf("SubmitSale(over stock, zero rate) error = %v, want a quantity error", err)
	}
}

func TestEditWithoutDateKeepsDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	feb := date.New(2025, time.February, 3)

	sale, err := f.e.SubmitSale(ctx, TradeInput{ItemID: f.chair.ID, PartyID: f.customer.ID, Quantity: dec("5"), Rate: dec("15"), Date: feb}, "")
	if err != nil {
		t.Fatalf("SubmitSale() failed: %v", err)
	}
	purchase, err := f.e.SubmitPurchase(ctx, TradeInput{ItemID: f.chair.ID, PartyID: f.supplier.ID, Quantity: dec("5"), Rate: dec("10"), Date: feb}, "")
	if err != nil {
		t.Fatalf("SubmitPurchase() failed: %v", err)
	}
	expense, err := f.e.SubmitExpense(ctx, ExpenseInput{Category: "Rent", Amount: dec("25"), Date: feb}, "")
	if err != nil {
		t.Fatalf("SubmitExpense() failed: %v", err)
	}
	cash, err := f.e.SubmitCashEntry(ctx, CashInput{AccountID: f.bank.ID, Type: Deposit, Amount: dec("100"), Date: feb}, "")
	if err != nil {
		t.Fatalf("SubmitCashEntry() failed: %v", err)
	}
	loan, err := f.e.SubmitLoanEntry(ctx, LoanInput{Kind: "loan", PartyID: f.supplier.ID, Amount: dec("300"), Date: feb}, "")
	if err != nil {
		t.Fatalf("SubmitLoanEntry() failed: %v", err)
	}

	edits := []struct {
		name string
		edit func() (date.Date, error)
	}{
		{"sale", func() (date.Date, error) {
			s, err := f.e.SubmitSale(ctx, TradeInput{ItemID: f.chair.ID, PartyID: f.customer.ID, Quantity: dec("8"), Rate: dec("15")}, sale.ID)
			return s.Date, err
		}},
		{"purchase", func() (date.Date, error) {
			p, err := f.e.SubmitPurchase(ctx, TradeInput{ItemID: f.chair.ID, PartyID: f.supplier.ID, Quantity: dec("6"), Rate: dec("10")}, purchase.ID)
			return p.Date, err
		}},
		{"expense", func() (date.Date, error) {
			x, err := f.e.SubmitExpense(ctx, ExpenseInput{Category: "Rent", Amount: dec("30")}, expense.ID)
			return x.Date, err
		}},
		{"cash", func() (date.Date, error) {
			x, err := f.e.SubmitCashEntry(ctx, CashInput{AccountID: f.bank.ID, Type: Deposit, Amount: dec("150")}, cash.ID)
			return x.Date, err
		}},
		{"loan", func() (date.Date, error) {
			x, err := f.e.SubmitLoanEntry(ctx, LoanInput{Kind: "loan", PartyID: f.supplier.ID, Amount: dec("400")}, loan.ID)
			return x.Date, err
		}},
	}
	for _, tc := range edits {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.edit()
			if err != nil {
				t.Fatalf("edit failed: %v", err)
			}
			if got != feb {
				t.Errorf("date after edit = %s, want %s", got, feb)
			}
		})
	}
	for _, e := range f.e.Books().Entries() {
		if e.Date != feb {
			t.Errorf("entry %s %q is dated %s, want %s", e.AccountID, e.Description, e.Date, feb)
		}
	}

	// an explicit date still moves the record
	moved, err := f.e.SubmitExpense(ctx, ExpenseInput{Category: "Rent", Amount: dec("30"), Date: testToday}, expense.ID)
	if err != nil || moved.Date != testToday {
		t.Errorf("SubmitExpense(dated) = %s, %v, want %s", moved.Date, err, testToday)
	}
}

func TestPurchasePostingsAndCost(t *testing.T) {
	f := newFixture(t)
	// 20 at 10 plus 20 at 20
	p := f.buy(t, "20", "20", "150", "")
	b := f.e.Books()

	assertDecimal(t, "AvailableStock()", b.AvailableStock(f.chair.ID), "40")
	chair, _ := b.Item(f.chair.ID)
	assertDecimal(t, "Cost", chair.Cost, "15")

	entries := entriesOf(b, p.ID)
	assertDecimal(t, "inventory debit", entries[AccountInventory].Amount, "400")
	assertDecimal(t, "cash credit", entries[AccountCash].Amount, "150")
	assertDecimal(t, "payable credit", entries[AccountPayable].Amount, "250")
	assertDecimal(t, "Balance", p.Balance, "250")
	assertBalanced(t, b)

	if err := f.e.DeleteTransaction(context.Background(), p.ID, KindPurchase); err != nil {
		t.Fatalf("DeleteTransaction() failed: %v", err)
	}
	b = f.e.Books()
	chair, _ = b.Item(f.chair.ID)
	assertDecimal(t, "Cost after delete", chair.Cost, "10")
	if len(b.Entries()) != 0 {
		t.Errorf("entries left after delete: %v", b.Entries())
	}
}

func TestPurchaseDeleteCannotMakeStockNegative(t *testing.T) {
	f := newFixture(t)
	p := f.buy(t, "10", "10", "0", "")
	f.sell(t, "25", "12", "0", "")

	err := f.e.DeleteTransaction(context.Background(), p.ID, KindPurchase)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("DeleteTransaction() error = %v, want ErrValidation", err)
	}
	if _, ok := f.e.Books().Purchase(p.ID); !ok {
		t.Errorf("purchase deleted despite the error")
	}
}

func TestDeleteSale(t *testing.T) {
	f := newFixture(t)
	s := f.sell(t, "5", "15", "30", "")
	if err := f.e.DeleteTransaction(context.Background(), s.ID, KindSale); err != nil {
		t.Fatalf("DeleteTransaction() failed: %v", err)
	}
	b := f.e.Books()
	assertDecimal(t, "AvailableStock()", b.AvailableStock(f.chair.ID), "20")
	if len(entriesOf(b, s.ID)) != 0 {
		t.Errorf("entries left for the deleted sale")
	}
	if err := f.e.DeleteTransaction(context.Background(), s.ID, KindSale); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteTransaction() error = %v, want ErrNotFound", err)
	}
}

func TestCashEntryEditRestoresBankBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e, err := f.e.SubmitCashEntry(ctx, CashInput{AccountID: f.bank.ID, Type: Deposit, Amount: dec("100"), Date: testToday}, "")
	if err != nil {
		t.Fatalf("SubmitCashEntry() failed: %v", err)
	}
	bank, _ := f.e.Books().Bank(f.bank.ID)
	assertDecimal(t, "balance after deposit", bank.Balance, "600")

	if _, err := f.e.SubmitCashEntry(ctx, CashInput{AccountID: f.bank.ID, Type: Deposit, Amount: dec("150"), Date: testToday}, e.ID); err != nil {
		t.Fatalf("SubmitCashEntry(edit) failed: %v", err)
	}
	bank, _ = f.e.Books().Bank(f.bank.ID)
	assertDecimal(t, "balance after edit", bank.Balance, "650")

	if _, err := f.e.SubmitCashEntry(ctx, CashInput{AccountID: f.bank.ID, Type: Withdrawal, Amount: dec("50"), Date: testToday}, e.ID); err != nil {
		t.Fatalf("SubmitCashEntry(withdrawal) failed: %v", err)
	}
	bank, _ = f.e.Books().Bank(f.bank.ID)
	assertDecimal(t, "balance after turning into a withdrawal", bank.Balance, "450")

	if err := f.e.DeleteTransaction(ctx, e.ID, KindCash); err != nil {
		t.Fatalf("DeleteTransaction() failed: %v", err)
	}
	bank, _ = f.e.Books().Bank(f.bank.ID)
	assertDecimal(t, "balance after delete", bank.Balance, "500")
}

func TestCashEntryValidation(t *testing.T) {
	f := newFixture(t)
	testCases := []struct {
		name  string
		input CashInput
		want  error
	}{
		{"unknown bank", CashInput{AccountID: "nope", Type: Deposit, Amount: dec("1")}, ErrNotFound},
		{"negative amount", CashInput{AccountID: AccountCash, Type: Deposit, Amount: dec("-1")}, ErrValidation},
		{"ledger type", CashInput{AccountID: AccountCash, Type: Debit, Amount: dec("1")}, ErrValidation},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.e.SubmitCashEntry(context.Background(), tc.input, ""); !errors.Is(err, tc.want) {
				t.Errorf("SubmitCashEntry() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestLoanEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	loan, err := f.e.SubmitLoanEntry(ctx, LoanInput{Kind: "loan", PartyID: f.supplier.ID, Amount: dec("1000"), Interest: dec("5"), AccountID: f.bank.ID}, "")
	if err != nil {
		t.Fatalf("SubmitLoanEntry() failed: %v", err)
	}
	if loan.AccountID != AccountLoans || loan.Type != Credit {
		t.Errorf("loan row = %s %s, want loans credit", loan.AccountID, loan.Type)
	}
	if want := "loan entry for Acme Supplies"; loan.Description != want {
		t.Errorf("Description = %q, want %q", loan.Description, want)
	}
	b := f.e.Books()
	bank, _ := b.Bank(f.bank.ID)
	assertDecimal(t, "bank balance", bank.Balance, "1500")
	rows := entriesOf(b, loan.ID)
	if len(rows) != 2 {
		t.Fatalf("loan entries = %v, want the loans row and the funds row", rows)
	}
	if funds := rows[f.bank.ID]; funds.Type != Debit || funds.Description != "Funds from loan entry for Acme Supplies" {
		t.Errorf("funds row = %s %q, want a debit \"Funds from loan entry for Acme Supplies\"", funds.Type, funds.Description)
	}
	assertBalanced(t, b)

	// edit into capital received in cash
	if _, err := f.e.SubmitLoanEntry(ctx, LoanInput{Kind: "capital", PartyID: f.supplier.ID, Amount: dec("300")}, loan.ID); err != nil {
		t.Fatalf("SubmitLoanEntry(edit) failed: %v", err)
	}
	b = f.e.Books()
	bank, _ = b.Bank(f.bank.ID)
	assertDecimal(t, "bank balance after edit", bank.Balance, "500")
	entries := entriesOf(b, loan.ID)
	if len(entries) != 2 {
		t.Fatalf("loan entries = %v, want the row and the cash leg", entries)
	}
	assertDecimal(t, "capital row", entries[AccountCapital].Amount, "300")
	assertDecimal(t, "cash leg", entries[AccountCash].Amount, "300")
	assertBalanced(t, b)

	if err := f.e.DeleteTransaction(ctx, loan.ID, KindLoan); err != nil {
		t.Fatalf("DeleteTransaction() failed: %v", err)
	}
	if n := len(f.e.Books().Entries()); n != 0 {
		t.Errorf("%d entries left after delete", n)
	}
}

func TestExpense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	x, err := f.e.SubmitExpense(ctx, ExpenseInput{Category: "Rent", Amount: dec("1200"), Recurring: true}, "")
	if err != nil {
		t.Fatalf("SubmitExpense() failed: %v", err)
	}
	if x.Frequency != "monthly" {
		t.Errorf("Frequency = %q, want monthly", x.Frequency)
	}
	entries := entriesOf(f.e.Books(), x.ID)
	assertDecimal(t, "expense debit", entries[ExpenseAccount("Rent")].Amount, "1200")
	assertDecimal(t, "cash credit", entries[AccountCash].Amount, "1200")

	x, err = f.e.SubmitExpense(ctx, ExpenseInput{Category: "Utilities", Amount: dec("300"), Frequency: "weekly"}, x.ID)
	if err != nil {
		t.Fatalf("SubmitExpense(edit) failed: %v", err)
	}
	if x.Frequency != "" {
		t.Errorf("Frequency of a non recurring expense = %q, want empty", x.Frequency)
	}
	entries = entriesOf(f.e.Books(), x.ID)
	if _, ok := entries[ExpenseAccount("Rent")]; ok {
		t.Errorf("the old category entry was not retracted")
	}
	assertDecimal(t, "new expense debit", entries[ExpenseAccount("Utilities")].Amount, "300")
	assertBalanced(t, f.e.Books())

	if _, err := f.e.SubmitExpense(ctx, ExpenseInput{Category: "Rent", Amount: dec("0")}, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("SubmitExpense(0) error = %v, want ErrValidation", err)
	}
	if _, err := f.e.SubmitExpense(ctx, ExpenseInput{Category: "Rent", Amount: dec("1"), Recurring: true, Frequency: "fortnightly"}, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("SubmitExpense(fortnightly) error = %v, want ErrValidation", err)
	}
}

func TestSubmitItemEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	opening := date.New(2025, 1, 2)

	it, err := f.e.SubmitItem(ctx, ItemInput{SKU: "SKU-001", Name: "Chair", Cost: dec("12"), OpeningStock: dec("30"), OpeningDate: &opening}, f.chair.ID)
	if err != nil {
		t.Fatalf("SubmitItem(edit) failed: %v", err)
	}
	if it.Name != "Chair" {
		t.Errorf("Name = %q, want Chair", it.Name)
	}
	b := f.e.Books()
	ms := b.MovementsOf(f.chair.ID)
	if len(ms) != 1 {
		t.Fatalf("movements = %v, want the opening one only", ms)
	}
	if ms[0].Date != opening || !ms[0].Quantity.Equal(dec("30")) || ms[0].ReferenceID != f.chair.ID {
		t.Errorf("opening movement = %+v", ms[0])
	}
	assertDecimal(t, "Cost", it.Cost, "12")

	if _, err := f.e.SubmitItem(ctx, ItemInput{SKU: "sku-001", Name: "Other"}, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("duplicate SKU error = %v, want ErrValidation", err)
	}

	f.sell(t, "25", "20", "0", "")
	if _, err := f.e.SubmitItem(ctx, ItemInput{SKU: "SKU-001", Name: "Chair", OpeningStock: dec("10")}, f.chair.ID); !errors.Is(err, ErrValidation) {
		t.Errorf("SubmitItem() below sold quantity error = %v, want ErrValidation", err)
	}
	if err := f.e.DeleteItem(ctx, f.chair.ID); !errors.Is(err, ErrValidation) {
		t.Errorf("DeleteItem() of a sold item error = %v, want ErrValidation", err)
	}
}

func TestPartiesAndBanks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.e.SaveParty(ctx, Party{Name: "X", Type: "friend"}); !errors.Is(err, ErrValidation) {
		t.Errorf("SaveParty(friend) error = %v, want ErrValidation", err)
	}
	if _, err := f.e.SaveParty(ctx, Party{Name: "X", Type: Customer, Email: "not an email"}); !errors.Is(err, ErrValidation) {
		t.Errorf("SaveParty(bad email) error = %v, want ErrValidation", err)
	}

	f.sell(t, "1", "15", "0", "")
	if err := f.e.DeleteParty(ctx, f.customer.ID); !errors.Is(err, ErrValidation) {
		t.Errorf("DeleteParty(used) error = %v, want ErrValidation", err)
	}
	if err := f.e.DeleteParty(ctx, f.supplier.ID); err != nil {
		t.Errorf("DeleteParty(unused) failed: %v", err)
	}

	renamed, err := f.e.SaveBank(ctx, BankInput{Name: "Main", OpeningBalance: dec("1")}, f.bank.ID)
	if err != nil {
		t.Fatalf("SaveBank(edit) failed: %v", err)
	}
	if renamed.Name != "Main" || !renamed.Balance.Equal(dec("500")) {
		t.Errorf("SaveBank(edit) = %+v, want Main with the balance unchanged", renamed)
	}
}

func TestStorageFailureLeavesBooksUnchanged(t *testing.T) {
	s := &failingStore{Memory: store.NewMemory()}
	e := newTestEngine(t, s)
	before := e.Books()

	s.fail = true
	_, err := e.SaveParty(context.Background(), Party{Name: "Acme", Type: Supplier})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("SaveParty() error = %v, want ErrStorage", err)
	}
	if e.Books() != before || len(e.Books().Parties()) != 0 {
		t.Errorf("the failed operation changed the books")
	}
}

func TestUpdateSettings(t *testing.T) {
	s := store.NewMemory()
	e := newTestEngine(t, s)
	ctx := context.Background()

	for _, bad := range []Settings{
		{Currency: "ZZZ", OrgName: "Shop", FiscalStart: "2025-04"},
		{Currency: "EUR", OrgName: "", FiscalStart: "2025-04"},
		{Currency: "EUR", OrgName: "Shop", FiscalStart: "2025-13"},
	} {
		if _, err := e.UpdateSettings(ctx, bad); !errors.Is(err, ErrValidation) {
			t.Errorf("UpdateSettings(%+v) error = %v, want ErrValidation", bad, err)
		}
	}

	got, err := e.UpdateSettings(ctx, Settings{Currency: "eur", OrgName: "Shop", FiscalStart: "2025-04"})
	if err != nil {
		t.Fatalf("UpdateSettings() failed: %v", err)
	}
	if got.Currency != "EUR" {
		t.Errorf("currency = %q, want EUR", got.Currency)
	}

	reopened := newTestEngine(t, s).Books().Settings()
	if reopened != got {
		t.Errorf("reopened settings = %+v, want %+v", reopened, got)
	}
	if m := reopened.FiscalMonth(); m != 4 {
		t.Errorf("FiscalMonth() = %v, want April", m)
	}
}

package books

import (
	"fmt"
	"time"

	"github.com/etnz/books/date"
	"github.com/shopspring/decimal"
)

// MovementType is the cause of a stock movement.
type MovementType string

const (
	MovementOpening    MovementType = "opening"
	MovementPurchase   MovementType = "purchase"
	MovementSale       MovementType = "sale"
	MovementAdjustment MovementType = "adjustment"
)

// EntryType is the side of a ledger entry. Cash and bank register rows also
// use Deposit and Withdrawal, the register names of debit and credit, and
// Transfer for money moved in from another account.
type EntryType string

const (
	Debit      EntryType = "debit"
	Credit     EntryType = "credit"
	Deposit    EntryType = "deposit"
	Withdrawal EntryType = "withdrawal"
	Transfer   EntryType = "transfer"
)

// PartyType tells suppliers from customers.
type PartyType string

const (
	Supplier PartyType = "supplier"
	Customer PartyType = "customer"
)

// Well known accounts.
const (
	AccountCash        = "cash"
	AccountInventory   = "inventory"
	AccountPayable     = "accounts_payable"
	AccountReceivable  = "accounts_receivable"
	AccountSalesIncome = "sales_income"
	AccountLoans       = "loans"
	AccountCapital     = "capital"
)

// ExpenseAccount returns the account expenses of category are posted to.
func ExpenseAccount(category string) string { return "expense:" + category }

// Kind names the kind of a transaction record.
type Kind string

const (
	KindPurchase Kind = "purchase"
	KindSale     Kind = "sale"
	KindExpense  Kind = "expense"
	KindCash     Kind = "cash"
	KindLoan     Kind = "loan"
)

// ParseKind parses a transaction kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindPurchase, KindSale, KindExpense, KindCash, KindLoan:
		return k, nil
	}
	return "", fmt.Errorf("unknown transaction kind %q", s)
}

// Item is a stocked product.
type Item struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Cost         decimal.Decimal `json:"cost"` // weighted average unit cost
	OpeningStock decimal.Decimal `json:"openingStock"`
	ReorderLevel decimal.Decimal `json:"reorder"`
	OpeningDate  *date.Date      `json:"openingDate,omitempty"`
}

// StockMovement is a signed change of an item quantity.
type StockMovement struct {
	ID          string          `json:"id"`
	ItemID      string          `json:"itemId"`
	Type        MovementType    `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"cost"`
	Date        date.Date       `json:"date"`
	ReferenceID string          `json:"referenceId,omitempty"`
}

// Trade holds the fields shared by purchases and sales.
type Trade struct {
	ID           string          `json:"id"`
	ItemID       string          `json:"itemId"`
	PartyID      string          `json:"partyId"`
	Quantity     decimal.Decimal `json:"quantity"`
	Rate         decimal.Decimal `json:"rate"`
	Total        decimal.Decimal `json:"total"`
	Balance      decimal.Decimal `json:"balance"`
	Date         date.Date       `json:"date"`
	DueDate      *date.Date      `json:"dueDate"`
	AttachmentID string          `json:"attachmentId,omitempty"`
}

// Purchase is stock bought from a supplier.
type Purchase struct {
	Trade
	Paid decimal.Decimal `json:"paid"`
}

// Sale is stock sold to a customer.
type Sale struct {
	Trade
	Received decimal.Decimal `json:"received"`
}

// Expense is a non-stock cost.
type Expense struct {
	ID           string          `json:"id"`
	Category     string          `json:"category"`
	Amount       decimal.Decimal `json:"amount"`
	Date         date.Date       `json:"date"`
	PartyID      string          `json:"partyId,omitempty"`
	Recurring    bool            `json:"recurring"`
	Frequency    string          `json:"frequency,omitempty"`
	AttachmentID string          `json:"attachmentId,omitempty"`
}

// LedgerEntry is one row of the financial ledger.
//
// Entries posted for a record carry its id in ReferenceID. Cash, bank, loan
// and capital rows are records of their own and reference themselves.
type LedgerEntry struct {
	ID          string           `json:"id"`
	AccountID   string           `json:"accountId"`
	Type        EntryType        `json:"type"`
	Amount      decimal.Decimal  `json:"amount"`
	Date        date.Date        `json:"date"`
	Description string           `json:"description"`
	ReferenceID string           `json:"referenceId,omitempty"`
	PartyID     string           `json:"partyId,omitempty"`
	Interest    *decimal.Decimal `json:"interest,omitempty"`
}

// Bank is a bank account and its running balance.
type Bank struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// Party is a supplier or a customer.
type Party struct {
	ID    string    `json:"id"`
	Name  string    `json:"name" validate:"required"`
	Type  PartyType `json:"type" validate:"oneof=supplier customer"`
	Email string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone string    `json:"phone,omitempty"`
}

// Attachment is a file linked to a record.
type Attachment struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Type      string    `json:"type"` // MIME type
	Module    Kind      `json:"module"`
	LinkedID  string    `json:"linkedId"`
	CreatedAt time.Time `json:"createdAt"`
	DataURL   string    `json:"dataUrl"`
}

// Settings are the business preferences.
type Settings struct {
	Currency    string `json:"currency" validate:"required,len=3"`
	OrgName     string `json:"orgName" validate:"required"`
	FiscalStart string `json:"fiscalStart" validate:"required"` // YYYY-MM
}

// DefaultSettings returns the settings of new books.
func DefaultSettings() Settings {
	return Settings{
		Currency:    "USD",
		OrgName:     "Finance Tool",
		FiscalStart: fmt.Sprintf("%d-01", date.Today().Year()),
	}
}

// FiscalMonth returns the month fiscal years start on.
func (s Settings) FiscalMonth() time.Month {
	t, err := time.Parse("2006-01", s.FiscalStart)
	if err != nil {
		return time.January
	}
	return t.Month()
}

func (i Item) key() string          { return i.ID }
func (m StockMovement) key() string { return m.ID }
func (p Purchase) key() string      { return p.ID }
func (s Sale) key() string          { return s.ID }
func (e Expense) key() string       { return e.ID }
func (e LedgerEntry) key() string   { return e.ID }
func (b Bank) key() string          { return b.ID }
func (p Party) key() string         { return p.ID }
func (a Attachment) key() string    { return a.ID }

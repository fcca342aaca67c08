package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/books"
	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"
)

// Items renders the stock list.
func Items(b *books.Books) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2("Items")
	rows := make([][]string, 0, len(b.Items()))
	for _, it := range b.Items() {
		rows = append(rows, []string{it.ID, it.SKU, it.Name, it.Category, qty(b.AvailableStock(it.ID)), qty(it.ReorderLevel), amount(it.Cost, b.Currency())})
	}
	doc.Table(md.TableSet{Header: []string{"ID", "SKU", "Name", "Category", "Stock", "Reorder", "Cost"}, Rows: rows})
	return doc.String()
}

// Parties renders the suppliers and customers.
func Parties(b *books.Books) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2("Parties")
	rows := make([][]string, 0, len(b.Parties()))
	for _, p := range b.Parties() {
		rows = append(rows, []string{p.ID, p.Name, string(p.Type), p.Email, p.Phone})
	}
	doc.Table(md.TableSet{Header: []string{"ID", "Name", "Type", "Email", "Phone"}, Rows: rows})
	return doc.String()
}

// Banks renders the bank accounts and their balances.
func Banks(b *books.Books) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2("Banks")
	rows := make([][]string, 0, len(b.Banks()))
	for _, k := range b.Banks() {
		rows = append(rows, []string{k.ID, k.Name, amount(k.Balance, b.Currency())})
	}
	doc.Table(md.TableSet{Header: []string{"ID", "Name", "Balance"}, Rows: rows})
	return doc.String()
}

// Ledger renders the ledger entries, and whether they balance.
func Ledger(b *books.Books) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2("Ledger")
	cur := b.Currency()
	rows := make([][]string, 0, len(b.Entries()))
	for _, e := range b.Entries() {
		rows = append(rows, []string{e.Date.String(), account(b, e.AccountID), string(e.Type), e.Description, amount(e.Amount, cur), e.ReferenceID})
	}
	doc.Table(md.TableSet{Header: []string{"Date", "Account", "Type", "Description", "Amount", "Reference"}, Rows: rows})

	l := books.NewLedgerBalance(b)
	status := "balanced"
	if !l.Balanced {
		status = fmt.Sprintf("out of balance by %s", amount(l.Difference(), cur))
	}
	doc.PlainText(fmt.Sprintf("Debits %s, credits %s: %s.", amount(l.Debits, cur), amount(l.Credits, cur), status))
	return doc.String()
}

// Transactions renders the purchases, sales and expenses.
func Transactions(b *books.Books) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	cur := b.Currency()

	doc.H2("Purchases")
	rows := make([][]string, 0, len(b.Purchases()))
	for _, p := range b.Purchases() {
		rows = append(rows, trade(b, p.Trade, p.Paid, cur))
	}
	doc.Table(md.TableSet{Header: tradeHeader("Paid"), Rows: rows})

	doc.H2("Sales")
	rows = make([][]string, 0, len(b.Sales()))
	for _, s := range b.Sales() {
		rows = append(rows, trade(b, s.Trade, s.Received, cur))
	}
	doc.Table(md.TableSet{Header: tradeHeader("Received"), Rows: rows})

	doc.H2("Expenses")
	rows = make([][]string, 0, len(b.Expenses()))
	for _, x := range b.Expenses() {
		rows = append(rows, []string{x.ID, x.Date.String(), x.Category, b.PartyName(x.PartyID), x.Frequency, amount(x.Amount, cur)})
	}
	doc.Table(md.TableSet{Header: []string{"ID", "Date", "Category", "Party", "Frequency", "Amount"}, Rows: rows})
	return doc.String()
}

func tradeHeader(settled string) []string {
	return []string{"ID", "Date", "Item", "Party", "Quantity", "Rate", "Total", settled, "Balance", "Due"}
}

func trade(b *books.Books, t books.Trade, settled decimal.Decimal, cur string) []string {
	due := ""
	if t.DueDate != nil {
		due = t.DueDate.String()
	}
	return []string{t.ID, t.Date.String(), b.ItemName(t.ItemID), b.PartyName(t.PartyID), qty(t.Quantity),
		amount(t.Rate, cur), amount(t.Total, cur), amount(settled, cur), amount(t.Balance, cur), due}
}

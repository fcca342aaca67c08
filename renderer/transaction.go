package renderer

import (
	"fmt"

	"github.com/etnz/books"
)

// Transaction describes a record in one line.
func Transaction(b *books.Books, v any) string {
	cur := b.Currency()
	switch v := v.(type) {
	case books.Purchase:
		return fmt.Sprintf("Bought %s of %s from %s for %s, %s paid", v.Quantity, b.ItemName(v.ItemID), b.PartyName(v.PartyID), amount(v.Total, cur), amount(v.Paid, cur))
	case books.Sale:
		return fmt.Sprintf("Sold %s of %s to %s for %s, %s received", v.Quantity, b.ItemName(v.ItemID), b.PartyName(v.PartyID), amount(v.Total, cur), amount(v.Received, cur))
	case books.Expense:
		return fmt.Sprintf("Spent %s on %s", amount(v.Amount, cur), v.Category)
	case books.LedgerEntry:
		return fmt.Sprintf("%s %s on %s: %s", v.Type, amount(v.Amount, cur), account(b, v.AccountID), v.Description)
	case books.Item:
		return fmt.Sprintf("Item %s %q at %s", v.SKU, v.Name, amount(v.Cost, cur))
	case books.Party:
		return fmt.Sprintf("%s %q", v.Type, v.Name)
	case books.Bank:
		return fmt.Sprintf("Bank %q with %s", v.Name, amount(v.Balance, cur))
	default:
		return fmt.Sprint(v)
	}
}

// account names an account, banks by their name.
func account(b *books.Books, id string) string {
	if bank, ok := b.Bank(id); ok {
		return bank.Name
	}
	return id
}

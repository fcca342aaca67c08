package books

import (
	"fmt"

	"github.com/etnz/books/date"
	"github.com/shopspring/decimal"
)

// Check is the outcome of one consistency check.
type Check struct {
	Name   string
	Passed bool
	Detail string // why it failed
}

// SelfTest checks the consistency of the books: stock, aging, income
// statement and ledger.
func SelfTest(b *Books, today date.Date) []Check {
	var res []Check

	stock := Check{Name: "Non-negative stock levels", Passed: true}
	for _, it := range b.Items() {
		if q := b.AvailableStock(it.ID); q.IsNegative() {
			stock.Passed = false
			stock.Detail = fmt.Sprintf("%s has %s in stock", it.Name, q)
			break
		}
	}
	res = append(res, stock)

	aging := ReceivableAging(b, today).Total()
	balances := sum(b.Sales(), func(s Sale) decimal.Decimal { return s.Balance })
	res = append(res, check("Receivable aging totals match balances", aging, balances))

	pnl := NewProfitAndLoss(b)
	res = append(res, check("Net income equals revenue - COGS - expenses",
		pnl.Revenue.Sub(pnl.COGS).Sub(pnl.Expenses), pnl.NetIncome))

	ledger := NewLedgerBalance(b)
	res = append(res, check("Ledger debits equal credits", ledger.Debits, ledger.Credits))
	return res
}

// check compares two sums within rounding.
func check(name string, got, want decimal.Decimal) Check {
	c := Check{Name: name, Passed: got.Sub(want).Abs().LessThan(Tolerance)}
	if !c.Passed {
		c.Detail = fmt.Sprintf("%s != %s", got, want)
	}
	return c
}

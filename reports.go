package books

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/etnz/books/date"
	"github.com/shopspring/decimal"
)

// Reports are pure functions of a *Books. Use Books.Within to restrict them
// to a date range.

// ProfitAndLoss is the income statement.
type ProfitAndLoss struct {
	Revenue     decimal.Decimal
	COGS        decimal.Decimal // cost of goods sold
	GrossProfit decimal.Decimal
	Expenses    decimal.Decimal
	NetIncome   decimal.Decimal
}

// NewProfitAndLoss computes the income statement of b.
func NewProfitAndLoss(b *Books) ProfitAndLoss {
	var r ProfitAndLoss
	r.Revenue = sum(b.Sales(), func(s Sale) decimal.Decimal { return s.Total })
	r.COGS = COGS(b)
	r.Expenses = sum(b.Expenses(), func(e Expense) decimal.Decimal { return e.Amount })
	r.GrossProfit = r.Revenue.Sub(r.COGS)
	r.NetIncome = r.GrossProfit.Sub(r.Expenses)
	return r
}

// COGS is the cost of the sold quantities, at the unit cost recorded on
// their movements.
func COGS(b *Books) decimal.Decimal {
	return sum(b.Movements(), func(m StockMovement) decimal.Decimal {
		if m.Type != MovementSale {
			return decimal.Zero
		}
		return m.Quantity.Abs().Mul(m.UnitCost)
	})
}

// CashFlow sums the money that came in and went out.
//
// Inflows and Outflows add the trade and expense amounts to the debit and
// credit rows of the cash account, so the cash rows those records generate
// count twice. CashIn and CashOut count every movement of cash once,
// register deposits and withdrawals included.
type CashFlow struct {
	Inflows  decimal.Decimal
	Outflows decimal.Decimal
	Net      decimal.Decimal

	CashIn  decimal.Decimal
	CashOut decimal.Decimal
	NetCash decimal.Decimal
}

// NewCashFlow computes the cash flow of b.
func NewCashFlow(b *Books) CashFlow {
	generated := func(e LedgerEntry) bool {
		_, p := b.purchases.get(e.ReferenceID)
		_, s := b.sales.get(e.ReferenceID)
		_, x := b.expenses.get(e.ReferenceID)
		return p || s || x
	}
	var r CashFlow
	received := sum(b.Sales(), func(s Sale) decimal.Decimal { return s.Received })
	paid := sum(b.Purchases(), func(p Purchase) decimal.Decimal { return p.Paid }).
		Add(sum(b.Expenses(), func(e Expense) decimal.Decimal { return e.Amount }))
	r.Inflows, r.Outflows = received, paid
	r.CashIn, r.CashOut = received, paid
	for _, e := range b.Entries() {
		if e.AccountID != AccountCash {
			continue
		}
		switch e.Type {
		case Debit:
			r.Inflows = r.Inflows.Add(e.Amount)
		case Credit:
			r.Outflows = r.Outflows.Add(e.Amount)
		}
		if generated(e) {
			continue
		}
		switch e.Type {
		case Debit, Deposit:
			r.CashIn = r.CashIn.Add(e.Amount)
		case Credit, Withdrawal:
			r.CashOut = r.CashOut.Add(e.Amount)
		}
	}
	r.Net = r.Inflows.Sub(r.Outflows)
	r.NetCash = r.CashIn.Sub(r.CashOut)
	return r
}

// ValuationLine is the stock value of one item.
type ValuationLine struct {
	Item     Item
	Quantity decimal.Decimal
	Value    decimal.Decimal
}

// InventoryValuation values the stock at the items cost.
type InventoryValuation struct {
	Lines []ValuationLine
	Total decimal.Decimal
}

// NewInventoryValuation values the stock of every item.
func NewInventoryValuation(b *Books) InventoryValuation {
	var r InventoryValuation
	for _, it := range b.Items() {
		q := b.AvailableStock(it.ID)
		line := ValuationLine{Item: it, Quantity: q, Value: q.Mul(it.Cost)}
		r.Lines = append(r.Lines, line)
		r.Total = r.Total.Add(line.Value)
	}
	return r
}

// SalesTotal is the sales of a customer or an item.
type SalesTotal struct {
	Name     string
	Quantity decimal.Decimal
	Total    decimal.Decimal
}

// SalesAnalysis ranks customers and items by sales.
type SalesAnalysis struct {
	TopCustomers []SalesTotal
	TopItems     []SalesTotal
}

// NewSalesAnalysis groups the sales by customer and by item, largest first.
func NewSalesAnalysis(b *Books) SalesAnalysis {
	byCustomer := groupSales(b.Sales(), func(s Sale) string { return b.PartyName(s.PartyID) })
	byItem := groupSales(b.Sales(), func(s Sale) string { return b.ItemName(s.ItemID) })
	return SalesAnalysis{TopCustomers: byCustomer, TopItems: byItem}
}

func groupSales(sales []Sale, key func(Sale) string) []SalesTotal {
	var res []SalesTotal
	index := make(map[string]int)
	for _, s := range sales {
		k := key(s)
		i, ok := index[k]
		if !ok {
			i = len(res)
			index[k] = i
			res = append(res, SalesTotal{Name: k})
		}
		res[i].Quantity = res[i].Quantity.Add(s.Quantity)
		res[i].Total = res[i].Total.Add(s.Total)
	}
	slices.SortStableFunc(res, func(a, b SalesTotal) int { return b.Total.Cmp(a.Total) })
	return res
}

// ExpenseCategory totals the expenses of a category.
type ExpenseCategory struct {
	Category  string
	Total     decimal.Decimal
	Recurring int // number of recurring expenses
}

// ExpenseAnalysis breaks the expenses down by category.
type ExpenseAnalysis struct {
	Categories []ExpenseCategory
	Total      decimal.Decimal
}

// NewExpenseAnalysis groups the expenses by category, largest first.
// Expenses without category are "Other".
func NewExpenseAnalysis(b *Books) ExpenseAnalysis {
	var r ExpenseAnalysis
	index := make(map[string]int)
	for _, e := range b.Expenses() {
		c := cmp.Or(e.Category, "Other")
		i, ok := index[c]
		if !ok {
			i = len(r.Categories)
			index[c] = i
			r.Categories = append(r.Categories, ExpenseCategory{Category: c})
		}
		r.Categories[i].Total = r.Categories[i].Total.Add(e.Amount)
		if e.Recurring {
			r.Categories[i].Recurring++
		}
		r.Total = r.Total.Add(e.Amount)
	}
	slices.SortStableFunc(r.Categories, func(a, b ExpenseCategory) int { return b.Total.Cmp(a.Total) })
	return r
}

// DefaultTaxRate is the flat rate of the tax summary.
var DefaultTaxRate = decimal.RequireFromString("0.18")

// TaxSummary estimates the tax due with a flat rate on sales and purchases.
type TaxSummary struct {
	Rate             decimal.Decimal
	TaxableSales     decimal.Decimal
	TaxablePurchases decimal.Decimal
	OutputTax        decimal.Decimal
	InputTax         decimal.Decimal
	NetTax           decimal.Decimal
}

// NewTaxSummary computes the tax summary at rate.
func NewTaxSummary(b *Books, rate decimal.Decimal) TaxSummary {
	r := TaxSummary{Rate: rate}
	r.TaxableSales = sum(b.Sales(), func(s Sale) decimal.Decimal { return s.Total })
	r.TaxablePurchases = sum(b.Purchases(), func(p Purchase) decimal.Decimal { return p.Total })
	r.OutputTax = r.TaxableSales.Mul(rate)
	r.InputTax = r.TaxablePurchases.Mul(rate)
	r.NetTax = r.OutputTax.Sub(r.InputTax)
	return r
}

// KPI is a headline figure of the dashboard.
type KPI struct {
	Label string
	Value decimal.Decimal
}

// DashboardKPIs returns the headline figures.
func DashboardKPIs(b *Books) []KPI {
	pnl := NewProfitAndLoss(b)
	return []KPI{
		{"Revenue", pnl.Revenue},
		{"Net Income", pnl.NetIncome},
		{"Cash Position", NewCashFlow(b).Net},
		{"Inventory Value", NewInventoryValuation(b).Total},
		{"Receivables", sum(b.Sales(), func(s Sale) decimal.Decimal { return s.Balance })},
		{"Payables", sum(b.Purchases(), func(p Purchase) decimal.Decimal { return p.Balance })},
	}
}

// Aging totals open balances per AgingBucket.
type Aging struct {
	Today  date.Date
	Totals map[AgingBucket]decimal.Decimal
}

// Total returns the sum of every bucket.
func (a Aging) Total() decimal.Decimal {
	return sum(AgingBuckets, func(k AgingBucket) decimal.Decimal { return a.Totals[k] })
}

func newAging(today date.Date, trades []Trade) Aging {
	a := Aging{Today: today, Totals: make(map[AgingBucket]decimal.Decimal, len(AgingBuckets))}
	for _, k := range AgingBuckets {
		a.Totals[k] = decimal.Zero
	}
	for _, t := range trades {
		k := BucketOf(t.DueDate, today)
		a.Totals[k] = a.Totals[k].Add(t.Balance)
	}
	return a
}

// ReceivableAging buckets the sales balances.
func ReceivableAging(b *Books, today date.Date) Aging {
	trades := make([]Trade, 0, len(b.sales.order))
	for _, s := range b.Sales() {
		trades = append(trades, s.Trade)
	}
	return newAging(today, trades)
}

// PayableAging buckets the purchases balances.
func PayableAging(b *Books, today date.Date) Aging {
	trades := make([]Trade, 0, len(b.purchases.order))
	for _, p := range b.Purchases() {
		trades = append(trades, p.Trade)
	}
	return newAging(today, trades)
}

// LedgerBalance compares the debit and credit rows of the ledger. Register
// rows (deposits, withdrawals and transfers) are single sided and not
// counted.
type LedgerBalance struct {
	Debits   decimal.Decimal
	Credits  decimal.Decimal
	Balanced bool
}

// Difference returns debits minus credits.
func (l LedgerBalance) Difference() decimal.Decimal { return l.Debits.Sub(l.Credits) }

// NewLedgerBalance checks that the ledger is balanced within Tolerance.
func NewLedgerBalance(b *Books) LedgerBalance {
	var r LedgerBalance
	for _, e := range b.Entries() {
		switch e.Type {
		case Debit:
			r.Debits = r.Debits.Add(e.Amount)
		case Credit:
			r.Credits = r.Credits.Add(e.Amount)
		}
	}
	r.Balanced = r.Difference().Abs().LessThan(Tolerance)
	return r
}

// Alert is a dashboard warning.
type Alert struct {
	Level   string // warning or danger
	Message string
}

// Alerts lists the items at or below their reorder level, and the
// receivables late by more than 60 days.
func Alerts(b *Books, today date.Date) []Alert {
	var res []Alert
	for _, it := range b.Items() {
		if b.AvailableStock(it.ID).LessThanOrEqual(it.ReorderLevel) {
			res = append(res, Alert{"warning", fmt.Sprintf("%s is below reorder level", it.Name)})
		}
	}
	aging := ReceivableAging(b, today)
	if aging.Totals[Late61To90].Add(aging.Totals[Late90Plus]).IsPositive() {
		res = append(res, Alert{"danger", "Aged receivables require attention"})
	}
	return res
}

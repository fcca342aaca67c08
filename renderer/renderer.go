// Package renderer renders the books reports as markdown.
package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/books"
	"github.com/etnz/books/date"
	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"
)

// amount formats v in the books currency.
func amount(v decimal.Decimal, currency string) string {
	return books.M(v, currency).String()
}

// qty formats a quantity.
func qty(v decimal.Decimal) string { return v.String() }

// ProfitAndLoss renders the income statement.
func ProfitAndLoss(r books.ProfitAndLoss, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2("Profit & Loss")
	doc.Table(md.TableSet{
		Header: []string{"Line", "Amount"},
		Rows: [][]string{
			{"Revenue", amount(r.Revenue, currency)},
			{"Cost of goods sold", amount(r.COGS, currency)},
			{"Gross profit", amount(r.GrossProfit, currency)},
			{"Expenses", amount(r.Expenses, currency)},
			{"Net income", amount(r.NetIncome, currency)},
		},
	})
	return doc.String()
}

// CashFlow renders the cash flow statement.
func CashFlow(r books.CashFlow, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2("Cash Flow")
	doc.Table(md.TableSet{
		Header: []string{"Line", "Amount"},
		Rows: [][]string{
			{"Inflows", amount(r.Inflows, currency)},
			{"Outflows", amount(r.Outflows, currency)},
			{"Net cash flow", amount(r.Net, currency)},
			{"Cash in, each movement once", amount(r.CashIn, currency)},
			{"Cash out, each movement once", amount(r.CashOut, currency)},
			{"Net cash", amount(r.NetCash, currency)},
		},
	})
	return doc.String()
}

// Inventory renders the inventory valuation.
func Inventory(r books.InventoryValuation, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2("Inventory Valuation")
	rows := make([][]string, 0, len(r.Lines)+1)
	for _, l := range r.Lines {
		rows = append(rows, []string{l.Item.SKU, l.Item.Name, qty(l.Quantity), amount(l.Item.Cost, currency), amount(l.Value, currency)})
	}
	rows = append(rows, []string{"", "**Total**", "", "", amount(r.Total, currency)})
	doc.Table(md.TableSet{
		Header: []string{"SKU", "Item", "Quantity", "Unit cost", "Value"},
		Rows:   rows,
	})
	return doc.String()
}

// Aging renders the receivables and payables aging side by side.
func Aging(receivables, payables books.Aging, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2(fmt.Sprintf("Aging on %s", receivables.Today))
	rows := make([][]string, 0, len(books.AgingBuckets)+1)
	for _, k := range books.AgingBuckets {
		rows = append(rows, []string{string(k), amount(receivables.Totals[k], currency), amount(payables.Totals[k], currency)})
	}
	rows = append(rows, []string{"**Total**", amount(receivables.Total(), currency), amount(payables.Total(), currency)})
	doc.Table(md.TableSet{
		Header: []string{"Bucket", "Receivables", "Payables"},
		Rows:   rows,
	})
	return doc.String()
}

// Sales renders the top customers and items.
func Sales(r books.SalesAnalysis, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2("Sales Analysis")
	table := func(title string, totals []books.SalesTotal) {
		doc.H3(title)
		if len(totals) == 0 {
			doc.PlainText("No sales.")
			return
		}
		rows := make([][]string, 0, len(totals))
		for _, t := range totals {
			rows = append(rows, []string{t.Name, qty(t.Quantity), amount(t.Total, currency)})
		}
		doc.Table(md.TableSet{Header: []string{"Name", "Quantity", "Total"}, Rows: rows})
	}
	table("Top customers", r.TopCustomers)
	table("Top items", r.TopItems)
	return doc.String()
}

// Expenses renders the expenses by category.
func Expenses(r books.ExpenseAnalysis, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2("Expense Analysis")
	if len(r.Categories) == 0 {
		doc.PlainText("No expenses.")
		return doc.String()
	}
	rows := make([][]string, 0, len(r.Categories)+1)
	for _, c := range r.Categories {
		rows = append(rows, []string{c.Category, fmt.Sprint(c.Recurring), amount(c.Total, currency)})
	}
	rows = append(rows, []string{"**Total**", "", amount(r.Total, currency)})
	doc.Table(md.TableSet{Header: []string{"Category", "Recurring", "Total"}, Rows: rows})
	return doc.String()
}

// Tax renders the tax summary.
func Tax(r books.TaxSummary, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2(fmt.Sprintf("Tax Summary at %s%%", r.Rate.Shift(2)))
	doc.Table(md.TableSet{
		Header: []string{"Line", "Amount"},
		Rows: [][]string{
			{"Taxable sales", amount(r.TaxableSales, currency)},
			{"Output tax", amount(r.OutputTax, currency)},
			{"Taxable purchases", amount(r.TaxablePurchases, currency)},
			{"Input tax", amount(r.InputTax, currency)},
			{"Net tax", amount(r.NetTax, currency)},
		},
	})
	return doc.String()
}

// SelfTest renders the consistency checks.
func SelfTest(checks []books.Check) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2("Self Test")
	rows := make([][]string, 0, len(checks))
	for _, c := range checks {
		status := "pass"
		if !c.Passed {
			status = "FAIL"
		}
		rows = append(rows, []string{c.Name, status, c.Detail})
	}
	doc.Table(md.TableSet{Header: []string{"Check", "Status", "Detail"}, Rows: rows})
	return doc.String()
}

// Financials renders the flow reports of b within r, and the inventory and
// aging positions on today.
func Financials(b *books.Books, r date.Range, today date.Date) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(fmt.Sprintf("%s: %s", b.Settings().OrgName, r))
	in, cur := b.Within(r), b.Currency()
	doc.PlainText(ProfitAndLoss(books.NewProfitAndLoss(in), cur))
	doc.PlainText(CashFlow(books.NewCashFlow(in), cur))
	doc.PlainText(Sales(books.NewSalesAnalysis(in), cur))
	doc.PlainText(Expenses(books.NewExpenseAnalysis(in), cur))
	doc.PlainText(Tax(books.NewTaxSummary(in, books.DefaultTaxRate), cur))
	// stock and open balances are positions on today, not flows
	on := b.AsOf(today)
	doc.PlainText(Inventory(books.NewInventoryValuation(on), cur))
	doc.PlainText(Aging(books.ReceivableAging(on, today), books.PayableAging(on, today), cur))
	return doc.String()
}

package books

import (
	"context"

	"github.com/etnz/books/date"
	"github.com/shopspring/decimal"
)

var sampleItems = []struct {
	sku, name, category   string
	cost, opening, reorder int64
}{
	{"SKU-001", "Office Chair", "Furniture", 95, 20, 5},
	{"SKU-002", "Standing Desk", "Furniture", 220, 10, 2},
	{"SKU-003", `LED Monitor 24"`, "Electronics", 130, 18, 4},
	{"SKU-004", "Wireless Keyboard", "Electronics", 32, 35, 10},
	{"SKU-005", "Wireless Mouse", "Electronics", 22, 40, 12},
	{"SKU-006", "USB-C Hub", "Accessories", 28, 25, 6},
	{"SKU-007", "Noise Cancelling Headphones", "Electronics", 160, 12, 3},
	{"SKU-008", "Projector", "Electronics", 480, 5, 1},
	{"SKU-009", "Printer Ink Cartridge", "Supplies", 18, 50, 15},
	{"SKU-010", "Stationery Pack", "Supplies", 12, 60, 20},
}

var sampleParties = []Party{
	{Name: "Acme Supplies", Type: Supplier, Email: "sales@acme.com"},
	{Name: "Blue Ocean Traders", Type: Supplier, Email: "hello@blueocean.com"},
	{Name: "Creative Solutions", Type: Customer, Email: "finance@creative.com"},
	{Name: "Delta Works", Type: Customer, Email: "accounts@delta.com"},
	{Name: "Evergreen Retail", Type: Customer, Email: "orders@evergreen.com"},
	{Name: "Future Tech Labs", Type: Supplier, Email: "accounts@futuretech.com"},
	{Name: "Green Leaf Stores", Type: Customer, Email: "billing@greenleaf.com"},
	{Name: "Horizon Partners", Type: Supplier, Email: "support@horizon.com"},
	{Name: "Insight Marketing", Type: Customer, Email: "finance@insight.com"},
	{Name: "Jetstream Logistics", Type: Supplier, Email: "info@jetstream.com"},
}

var sampleBanks = []BankInput{
	{Name: "Operating Account", OpeningBalance: decimal.NewFromInt(5000)},
	{Name: "Savings Account", OpeningBalance: decimal.NewFromInt(15000)},
	{Name: "Petty Cash", OpeningBalance: decimal.NewFromInt(750)},
}

var sampleExpenses = []struct {
	category  string
	amount    int64
	daysAgo   int
	party     int // index in sampleParties
	recurring bool
}{
	{"Rent", 1200, 20, 1, true},
	{"Utilities", 350, 10, 0, true},
	{"Software", 220, 15, 5, true},
	{"Travel", 540, 5, 4, false},
	{"Maintenance", 310, 7, 7, false},
}

// Seed fills empty books with sample data, created through the regular
// operations. It reports false and does nothing when the books have items.
func (e *Engine) Seed(ctx context.Context) (bool, error) {
	if len(e.Books().Items()) > 0 {
		return false, nil
	}
	today := date.Of(e.now())

	var suppliers, customers []Party
	parties := make([]Party, 0, len(sampleParties))
	for _, p := range sampleParties {
		p, err := e.SaveParty(ctx, p)
		if err != nil {
			return false, err
		}
		parties = append(parties, p)
		if p.Type == Supplier {
			suppliers = append(suppliers, p)
		} else {
			customers = append(customers, p)
		}
	}

	items := make([]Item, 0, len(sampleItems))
	for _, s := range sampleItems {
		it, err := e.SubmitItem(ctx, ItemInput{
			SKU:          s.sku,
			Name:         s.name,
			Category:     s.category,
			Cost:         decimal.NewFromInt(s.cost),
			OpeningStock: decimal.NewFromInt(s.opening),
			ReorderLevel: decimal.NewFromInt(s.reorder),
			OpeningDate:  &today,
		}, "")
		if err != nil {
			return false, err
		}
		items = append(items, it)
	}

	for _, b := range sampleBanks {
		if _, err := e.SaveBank(ctx, b, ""); err != nil {
			return false, err
		}
	}

	for _, x := range sampleExpenses {
		in := ExpenseInput{
			Category:  x.category,
			Amount:    decimal.NewFromInt(x.amount),
			Date:      today.Add(-x.daysAgo),
			PartyID:   parties[x.party].ID,
			Recurring: x.recurring,
		}
		if _, err := e.SubmitExpense(ctx, in, ""); err != nil {
			return false, err
		}
	}

	for i, it := range items[:5] {
		qty := decimal.NewFromInt(int64(5 + 2*i))
		due := today.Add(14 - 3*i)
		in := TradeInput{
			ItemID:   it.ID,
			PartyID:  suppliers[i%len(suppliers)].ID,
			Quantity: qty,
			Rate:     it.Cost.Mul(decimal.RequireFromString("0.95")),
			Payment:  qty.Mul(it.Cost).Mul(decimal.RequireFromString("0.6")),
			Date:     today.Add(-3 * i),
			DueDate:  &due,
		}
		if _, err := e.SubmitPurchase(ctx, in, ""); err != nil {
			return false, err
		}
	}

	for i, it := range items[3:8] {
		qty := decimal.NewFromInt(int64(3 + i))
		rate := it.Cost.Mul(decimal.RequireFromString("1.4"))
		due := today.Add(7 + 2*i)
		in := TradeInput{
			ItemID:   it.ID,
			PartyID:  customers[i%len(customers)].ID,
			Quantity: qty,
			Rate:     rate,
			Payment:  qty.Mul(rate).Mul(decimal.RequireFromString("0.7")),
			Date:     today.Add(-4 * i),
			DueDate:  &due,
		}
		if _, err := e.SubmitSale(ctx, in, ""); err != nil {
			return false, err
		}
	}
	return true, nil
}

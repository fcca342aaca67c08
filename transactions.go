package books

import (
	"context"
	"fmt"

	"github.com/etnz/books/date"
	"github.com/etnz/books/ids"
	"github.com/shopspring/decimal"
)

// ItemInput creates or edits an item.
type ItemInput struct {
	SKU          string          `json:"sku" validate:"required,max=64"`
	Name         string          `json:"name" validate:"required"`
	Category     string          `json:"category"`
	Cost         decimal.Decimal `json:"cost"`
	OpeningStock decimal.Decimal `json:"openingStock"`
	ReorderLevel decimal.Decimal `json:"reorder"`
	OpeningDate  *date.Date      `json:"openingDate"`
}

// TradeInput creates or edits a purchase or a sale. Payment is what was
// paid for a purchase or received for a sale.
type TradeInput struct {
	ItemID     string          `json:"itemId" validate:"required"`
	PartyID    string          `json:"partyId" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
	Rate       decimal.Decimal `json:"rate"`
	Payment    decimal.Decimal `json:"payment"`
	Date       date.Date       `json:"date"`
	DueDate    *date.Date      `json:"dueDate"`
	Attachment *File           `json:"-"`
}

// ExpenseInput creates or edits an expense.
type ExpenseInput struct {
	Category   string          `json:"category" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Date       date.Date       `json:"date"`
	PartyID    string          `json:"partyId"`
	Recurring  bool            `json:"recurring"`
	Frequency  string          `json:"frequency"`
	Attachment *File           `json:"-"`
}

// CashInput creates or edits a cash or bank register row.
type CashInput struct {
	AccountID   string          `json:"accountId" validate:"required"`
	Type        EntryType       `json:"type" validate:"oneof=deposit withdrawal transfer"`
	Amount      decimal.Decimal `json:"amount"`
	Date        date.Date       `json:"date"`
	Description string          `json:"description"`
}

// LoanInput creates or edits a loan or a capital contribution. AccountID is
// the account receiving the funds, cash when empty.
type LoanInput struct {
	Kind      string          `json:"type" validate:"oneof=loan capital"`
	PartyID   string          `json:"partyId" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Interest  decimal.Decimal `json:"interest"`
	Date      date.Date       `json:"date"`
	AccountID string          `json:"accountId"`
}

// BankInput creates or renames a bank account.
type BankInput struct {
	Name           string          `json:"name" validate:"required"`
	OpeningBalance decimal.Decimal `json:"balance"`
}

// orToday returns d, or today when d is zero.
func (e *Engine) orToday(d date.Date) date.Date {
	if d.IsZero() {
		return date.Of(e.now())
	}
	return d
}

// dateOf returns the date of an edited record: d when set, else the date
// the record had, else today.
func (e *Engine) dateOf(d, prior date.Date) date.Date {
	if d.IsZero() && !prior.IsZero() {
		return prior
	}
	return e.orToday(d)
}

// SubmitItem creates an item with its opening movement, or edits it when
// existingID is set. Editing updates the opening movement in place.
func (e *Engine) SubmitItem(ctx context.Context, in ItemInput, existingID string) (Item, error) {
	if err := validateStruct(in); err != nil {
		return Item{}, err
	}
	if err := nonNegative("cost", in.Cost); err != nil {
		return Item{}, err
	}
	if err := nonNegative("openingStock", in.OpeningStock); err != nil {
		return Item{}, err
	}
	if err := nonNegative("reorder", in.ReorderLevel); err != nil {
		return Item{}, err
	}
	opening := e.orToday(date.Date{})
	if in.OpeningDate != nil {
		opening = *in.OpeningDate
	}

	var res Item
	err := e.mutate(ctx, "item", func(d *Books) error {
		if other, ok := d.ItemBySKU(in.SKU); ok && other.ID != existingID {
			return invalid("sku", "%q is already used by %s", in.SKU, other.Name)
		}
		item := Item{ID: ids.New()}
		if existingID != "" {
			var ok bool
			if item, ok = d.items.get(existingID); !ok {
				return notFound("item", existingID)
			}
		}
		item.SKU, item.Name, item.Category = in.SKU, in.Name, in.Category
		item.Cost, item.OpeningStock, item.ReorderLevel = in.Cost, in.OpeningStock, in.ReorderLevel
		item.OpeningDate = &opening
		d.putItem(item)

		m, ok := d.openingMovement(item.ID)
		if !ok {
			d.recordMovement(item.ID, MovementOpening, in.OpeningStock, in.Cost, opening, item.ID)
		} else {
			m.Quantity, m.UnitCost, m.Date, m.ReferenceID = in.OpeningStock, in.Cost, opening, item.ID
			d.putMovement(m)
			d.recalculateCost(item.ID)
		}
		if it, q, ok := d.negativeStock(item.ID); ok {
			return invalid("openingStock", "would leave %s with %s in stock", it.Name, q)
		}
		res, _ = d.items.get(item.ID)
		return nil
	})
	return res, err
}

// SubmitPurchase records a purchase, or edits it when existingID is set.
func (e *Engine) SubmitPurchase(ctx context.Context, in TradeInput, existingID string) (Purchase, error) {
	var res Purchase
	err := e.submitTrade(ctx, KindPurchase, in, existingID, func(d *Books, t Trade) {
		res = Purchase{Trade: t, Paid: in.Payment}
		d.putPurchase(res)
		d.recordMovement(t.ItemID, MovementPurchase, t.Quantity, t.Rate, t.Date, t.ID)
		d.postPurchase(res)
	})
	return res, err
}

// SubmitSale records a sale, or edits it when existingID is set.
//
// The sale movement is valued at the item cost, or at the sale rate for an
// item without cost.
func (e *Engine) SubmitSale(ctx context.Context, in TradeInput, existingID string) (Sale, error) {
	var res Sale
	err := e.submitTrade(ctx, KindSale, in, existingID, func(d *Books, t Trade) {
		res = Sale{Trade: t, Received: in.Payment}
		d.putSale(res)
		unitCost := t.Rate
		if item, _ := d.items.get(t.ItemID); item.Cost.IsPositive() {
			unitCost = item.Cost
		}
		d.recordMovement(t.ItemID, MovementSale, t.Quantity.Neg(), unitCost, t.Date, t.ID)
		d.postSale(res)
	})
	return res, err
}

// submitTrade validates a purchase or a sale, retracts what a previous
// version posted and calls write to record the new one.
func (e *Engine) submitTrade(ctx context.Context, kind Kind, in TradeInput, existingID string, write func(d *Books, t Trade)) error {
	if err := positive("quantity", in.Quantity); err != nil {
		return err
	}
	if err := validateStruct(in); err != nil {
		return err
	}

	return e.mutate(ctx, string(kind), func(d *Books) error {
		item, ok := d.items.get(in.ItemID)
		if !ok {
			return notFound("item", in.ItemID)
		}
		if _, ok := d.parties.get(in.PartyID); !ok {
			return notFound("party", in.PartyID)
		}

		var prior Trade
		if existingID != "" {
			switch kind {
			case KindPurchase:
				p, found := d.purchases.get(existingID)
				prior, ok = p.Trade, found
			case KindSale:
				s, found := d.sales.get(existingID)
				prior, ok = s.Trade, found
			}
			if !ok {
				return notFound(string(kind), existingID)
			}
		}

		if kind == KindSale {
			available := d.availableStockExcluding(item.ID, existingID)
			if in.Quantity.GreaterThan(available) {
				return invalid("quantity", "only %s of %s in stock", available, item.Name)
			}
		}
		if err := positive("rate", in.Rate); err != nil {
			return err
		}
		if err := nonNegative("payment", in.Payment); err != nil {
			return err
		}
		total := in.Quantity.Mul(in.Rate)
		if in.Payment.GreaterThan(total) {
			return invalid("payment", "%s is more than the total %s", in.Payment, total)
		}

		t := Trade{
			ID:           existingID,
			ItemID:       item.ID,
			PartyID:      in.PartyID,
			Quantity:     in.Quantity,
			Rate:         in.Rate,
			Total:        total,
			Balance:      total.Sub(in.Payment),
			Date:         e.dateOf(in.Date, prior.Date),
			DueDate:      in.DueDate,
			AttachmentID: prior.AttachmentID,
		}
		if t.ID == "" {
			t.ID = ids.New()
		}

		d.removeMovementsFor(t.ID)
		d.retractForRecord(t.ID)
		if in.Attachment != nil {
			att, err := e.replaceAttachment(d, *in.Attachment, kind, t.ID, prior.AttachmentID)
			if err != nil {
				return err
			}
			t.AttachmentID = att.ID
		}
		write(d, t)

		if kind == KindPurchase {
			if it, q, ok := d.negativeStock(prior.ItemID, item.ID); ok {
				return invalid("quantity", "would leave %s with %s in stock", it.Name, q)
			}
		}
		return nil
	})
}

// replaceAttachment stores f for a record, deleting the previous one.
func (e *Engine) replaceAttachment(d *Books, f File, kind Kind, linkedID, previousID string) (Attachment, error) {
	att, err := newAttachment(f, kind, linkedID, e.now())
	if err != nil {
		return Attachment{}, invalid("attachment", "%v", err)
	}
	if previousID != "" {
		d.deleteAttachment(previousID)
	}
	d.putAttachment(att)
	return att, nil
}

// SubmitExpense records an expense, or edits it when existingID is set.
// Recurring expenses are monthly unless told otherwise.
func (e *Engine) SubmitExpense(ctx context.Context, in ExpenseInput, existingID string) (Expense, error) {
	if err := positive("amount", in.Amount); err != nil {
		return Expense{}, err
	}
	if err := validateStruct(in); err != nil {
		return Expense{}, err
	}
	frequency := ""
	if in.Recurring {
		frequency = date.Monthly.String()
		if in.Frequency != "" {
			p, err := date.ParsePeriod(in.Frequency)
			if err != nil {
				return Expense{}, invalid("frequency", "%v", err)
			}
			frequency = p.String()
		}
	}

	var res Expense
	err := e.mutate(ctx, string(KindExpense), func(d *Books) error {
		if in.PartyID != "" {
			if _, ok := d.parties.get(in.PartyID); !ok {
				return notFound("party", in.PartyID)
			}
		}
		res = Expense{ID: existingID}
		if existingID != "" {
			prior, ok := d.expenses.get(existingID)
			if !ok {
				return notFound("expense", existingID)
			}
			res.AttachmentID, res.Date = prior.AttachmentID, prior.Date
		} else {
			res.ID = ids.New()
		}
		res.Category, res.Amount, res.Date = in.Category, in.Amount, e.dateOf(in.Date, res.Date)
		res.PartyID, res.Recurring, res.Frequency = in.PartyID, in.Recurring, frequency

		d.retractForRecord(res.ID)
		if in.Attachment != nil {
			att, err := e.replaceAttachment(d, *in.Attachment, KindExpense, res.ID, res.AttachmentID)
			if err != nil {
				return err
			}
			res.AttachmentID = att.ID
		}
		d.putExpense(res)
		d.postExpense(res)
		return nil
	})
	return res, err
}

// isLoanAccount reports whether account holds loan and capital rows.
func isLoanAccount(account string) bool { return account == AccountLoans || account == AccountCapital }

// registerRow returns the cash or bank register row id.
func (d *Books) registerRow(id string) (LedgerEntry, bool) {
	e, ok := d.entries.get(id)
	if !ok || e.ReferenceID != e.ID || isLoanAccount(e.AccountID) {
		return LedgerEntry{}, false
	}
	return e, true
}

// loanRow returns the loan or capital row id.
func (d *Books) loanRow(id string) (LedgerEntry, bool) {
	e, ok := d.entries.get(id)
	if !ok || !isLoanAccount(e.AccountID) {
		return LedgerEntry{}, false
	}
	return e, true
}

// checkAccount checks that account is cash or a bank.
func (d *Books) checkAccount(account string) error {
	if account == AccountCash {
		return nil
	}
	if _, ok := d.banks.get(account); !ok {
		return notFound("bank", account)
	}
	return nil
}

// SubmitCashEntry records a cash or bank register row, or edits it when
// existingID is set. An edit undoes the previous row on the bank balance
// before applying the new one.
func (e *Engine) SubmitCashEntry(ctx context.Context, in CashInput, existingID string) (LedgerEntry, error) {
	if err := positive("amount", in.Amount); err != nil {
		return LedgerEntry{}, err
	}
	if err := validateStruct(in); err != nil {
		return LedgerEntry{}, err
	}
	var res LedgerEntry
	err := e.mutate(ctx, string(KindCash), func(d *Books) error {
		if err := d.checkAccount(in.AccountID); err != nil {
			return err
		}
		res = LedgerEntry{ID: existingID}
		if existingID != "" {
			prior, ok := d.registerRow(existingID)
			if !ok {
				return notFound("cash entry", existingID)
			}
			d.adjustBankBalance(prior, -1)
			res.Date = prior.Date
		} else {
			res.ID = ids.New()
		}
		res.AccountID, res.Type, res.Amount = in.AccountID, in.Type, in.Amount
		res.Date, res.Description = e.dateOf(in.Date, res.Date), in.Description
		d.postCashEntry(res)
		res, _ = d.entries.get(res.ID)
		return nil
	})
	return res, err
}

// SubmitLoanEntry records a loan or capital contribution, or edits it when
// existingID is set. The funds are debited to the receiving account so that
// the ledger stays balanced.
func (e *Engine) SubmitLoanEntry(ctx context.Context, in LoanInput, existingID string) (LedgerEntry, error) {
	if err := positive("amount", in.Amount); err != nil {
		return LedgerEntry{}, err
	}
	if err := validateStruct(in); err != nil {
		return LedgerEntry{}, err
	}
	if err := nonNegative("interest", in.Interest); err != nil {
		return LedgerEntry{}, err
	}
	account := in.AccountID
	if account == "" {
		account = AccountCash
	}

	var res LedgerEntry
	err := e.mutate(ctx, string(KindLoan), func(d *Books) error {
		party, ok := d.parties.get(in.PartyID)
		if !ok {
			return notFound("party", in.PartyID)
		}
		if err := d.checkAccount(account); err != nil {
			return err
		}
		res = LedgerEntry{ID: existingID}
		if existingID != "" {
			prior, ok := d.loanRow(existingID)
			if !ok {
				return notFound("loan entry", existingID)
			}
			res.Date = prior.Date
			// the row itself is replaced in place, only the funds leg goes
			for _, leg := range d.entries.all() {
				if leg.ReferenceID == existingID && leg.ID != existingID {
					d.deleteEntry(leg.ID)
					d.adjustBankBalance(leg, -1)
				}
			}
		} else {
			res.ID = ids.New()
		}
		res.AccountID = AccountLoans
		if in.Kind == "capital" {
			res.AccountID = AccountCapital
		}
		interest := in.Interest
		res.Amount, res.Date, res.PartyID, res.Interest = in.Amount, e.dateOf(in.Date, res.Date), party.ID, &interest
		res.Description = fmt.Sprintf("%s entry for %s", in.Kind, party.Name)
		d.postLoanEntry(res, account)
		res, _ = d.entries.get(res.ID)
		return nil
	})
	return res, err
}

// DeleteTransaction removes a record with its stock movements, ledger
// entries and attachment.
func (e *Engine) DeleteTransaction(ctx context.Context, id string, kind Kind) error {
	return e.mutate(ctx, "delete "+string(kind), func(d *Books) error {
		switch kind {
		case KindPurchase:
			p, ok := d.purchases.get(id)
			if !ok {
				return notFound("purchase", id)
			}
			d.removeMovementsFor(id)
			d.retractForRecord(id)
			d.deletePurchase(id)
			d.deleteAttachment(p.AttachmentID)
			if it, q, ok := d.negativeStock(p.ItemID); ok {
				return invalid("purchase", "deleting it would leave %s with %s in stock", it.Name, q)
			}
		case KindSale:
			s, ok := d.sales.get(id)
			if !ok {
				return notFound("sale", id)
			}
			d.removeMovementsFor(id)
			d.retractForRecord(id)
			d.deleteSale(id)
			d.deleteAttachment(s.AttachmentID)
		case KindExpense:
			x, ok := d.expenses.get(id)
			if !ok {
				return notFound("expense", id)
			}
			d.retractForRecord(id)
			d.deleteExpense(id)
			d.deleteAttachment(x.AttachmentID)
		case KindCash:
			if _, ok := d.registerRow(id); !ok {
				return notFound("cash entry", id)
			}
			d.retractForRecord(id)
		case KindLoan:
			if _, ok := d.loanRow(id); !ok {
				return notFound("loan entry", id)
			}
			d.retractForRecord(id)
		default:
			return invalid("kind", "unknown transaction kind %q", kind)
		}
		return nil
	})
}

// DeleteItem removes an item that has no transaction.
func (e *Engine) DeleteItem(ctx context.Context, id string) error {
	return e.mutate(ctx, "delete item", func(d *Books) error {
		item, ok := d.items.get(id)
		if !ok {
			return notFound("item", id)
		}
		for _, m := range d.MovementsOf(id) {
			if m.Type != MovementOpening {
				return invalid("item", "%s has %s movements", item.Name, m.Type)
			}
		}
		for _, m := range d.MovementsOf(id) {
			d.deleteMovement(m.ID)
		}
		d.deleteItem(id)
		return nil
	})
}

// SaveParty creates a party, or replaces it when p.ID is set.
func (e *Engine) SaveParty(ctx context.Context, p Party) (Party, error) {
	if err := validateStruct(p); err != nil {
		return Party{}, err
	}
	err := e.mutate(ctx, "party", func(d *Books) error {
		if p.ID == "" {
			p.ID = ids.New()
		} else if _, ok := d.parties.get(p.ID); !ok {
			return notFound("party", p.ID)
		}
		d.putParty(p)
		return nil
	})
	return p, err
}

// DeleteParty removes a party no record refers to.
func (e *Engine) DeleteParty(ctx context.Context, id string) error {
	return e.mutate(ctx, "delete party", func(d *Books) error {
		p, ok := d.parties.get(id)
		if !ok {
			return notFound("party", id)
		}
		used := false
		for _, x := range d.purchases.all() {
			used = used || x.PartyID == id
		}
		for _, x := range d.sales.all() {
			used = used || x.PartyID == id
		}
		for _, x := range d.expenses.all() {
			used = used || x.PartyID == id
		}
		for _, x := range d.entries.all() {
			used = used || x.PartyID == id
		}
		if used {
			return invalid("party", "%s is used by some records", p.Name)
		}
		d.deleteParty(id)
		return nil
	})
}

// SaveBank creates a bank account with an opening balance, or renames it
// when existingID is set. Balances then only move with register rows.
func (e *Engine) SaveBank(ctx context.Context, in BankInput, existingID string) (Bank, error) {
	if err := validateStruct(in); err != nil {
		return Bank{}, err
	}
	var res Bank
	err := e.mutate(ctx, "bank", func(d *Books) error {
		if existingID == "" {
			res = Bank{ID: ids.New(), Name: in.Name, Balance: in.OpeningBalance}
		} else {
			var ok bool
			if res, ok = d.banks.get(existingID); !ok {
				return notFound("bank", existingID)
			}
			res.Name = in.Name
		}
		d.putBank(res)
		return nil
	})
	return res, err
}

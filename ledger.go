package books

import (
	"fmt"

	"github.com/etnz/books/date"
	"github.com/etnz/books/ids"
	"github.com/shopspring/decimal"
)

// This file is the financial ledger: the entries posted for every record
// and the bank balances they move.

// post appends an entry owned by referenceID. Zero amounts are not posted.
func (b *Books) post(account string, typ EntryType, amount decimal.Decimal, on date.Date, description, referenceID string) {
	if amount.IsZero() {
		return
	}
	b.putEntry(LedgerEntry{
		ID:          ids.New(),
		AccountID:   account,
		Type:        typ,
		Amount:      amount,
		Date:        on,
		Description: description,
		ReferenceID: referenceID,
	})
}

// postPurchase debits inventory with the total, credits cash with what was
// paid and accounts payable with the balance.
func (b *Books) postPurchase(p Purchase) {
	b.post(AccountInventory, Debit, p.Total, p.Date, "Purchase "+p.ID, p.ID)
	if p.Paid.IsPositive() {
		b.post(AccountCash, Credit, p.Paid, p.Date, "Cash paid "+p.ID, p.ID)
	}
	if p.Balance.IsPositive() {
		b.post(AccountPayable, Credit, p.Balance, p.Date, "Payable "+p.ID, p.ID)
	}
}

// postSale debits accounts receivable with the balance and cash with what
// was received, and credits sales income with the total.
func (b *Books) postSale(s Sale) {
	b.post(AccountReceivable, Debit, s.Balance, s.Date, "Receivable "+s.ID, s.ID)
	b.post(AccountSalesIncome, Credit, s.Total, s.Date, "Sale "+s.ID, s.ID)
	if s.Received.IsPositive() {
		b.post(AccountCash, Debit, s.Received, s.Date, "Cash received "+s.ID, s.ID)
	}
}

// postExpense debits the expense category and credits cash.
func (b *Books) postExpense(e Expense) {
	b.post(ExpenseAccount(e.Category), Debit, e.Amount, e.Date, "Expense "+e.ID, e.ID)
	b.post(AccountCash, Credit, e.Amount, e.Date, "Expense "+e.ID, e.ID)
}

// postCashEntry writes a cash or bank register row and applies it to the
// bank balance.
func (b *Books) postCashEntry(e LedgerEntry) {
	e.ReferenceID = e.ID
	b.putEntry(e)
	b.adjustBankBalance(e, 1)
}

// postLoanEntry writes the credit row of a loan or capital entry and its
// balancing debit on the account that received the funds.
func (b *Books) postLoanEntry(e LedgerEntry, depositAccount string) {
	e.Type = Credit
	e.ReferenceID = e.ID
	b.putEntry(e)
	b.postFunds(e, depositAccount)
}

// postFunds debits depositAccount with the amount of a loan row.
func (b *Books) postFunds(loan LedgerEntry, depositAccount string) {
	leg := LedgerEntry{
		ID:          ids.New(),
		AccountID:   depositAccount,
		Type:        Debit,
		Amount:      loan.Amount,
		Date:        loan.Date,
		Description: fmt.Sprintf("Funds from %s", loan.Description),
		ReferenceID: loan.ID,
		PartyID:     loan.PartyID,
	}
	b.putEntry(leg)
	b.adjustBankBalance(leg, 1)
}

// retractForRecord deletes every entry owned by a record, undoing their
// effect on bank balances, and returns them.
func (b *Books) retractForRecord(referenceID string) []LedgerEntry {
	var removed []LedgerEntry
	for _, e := range b.entries.all() {
		if e.ReferenceID == referenceID {
			removed = append(removed, e)
		}
	}
	for _, e := range removed {
		b.deleteEntry(e.ID)
		b.adjustBankBalance(e, -1)
	}
	return removed
}

// adjustBankBalance applies direction (1 or -1) times the entry amount to
// the bank it is posted on. Deposits, debits and transfers add, withdrawals
// and credits subtract. Entries on other accounts are ignored.
func (b *Books) adjustBankBalance(e LedgerEntry, direction int) {
	bank, ok := b.banks.get(e.AccountID)
	if !ok {
		return
	}
	delta := e.Amount.Mul(decimal.NewFromInt(int64(direction)))
	switch e.Type {
	case Deposit, Debit, Transfer:
		bank.Balance = bank.Balance.Add(delta)
	case Withdrawal, Credit:
		bank.Balance = bank.Balance.Sub(delta)
	default:
		return
	}
	b.putBank(bank)
}

package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/books"
	"github.com/etnz/books/renderer"
	"github.com/google/subcommands"
)

// --- Purchase and Sale Commands ---

type tradeCmd struct {
	kind    books.Kind
	id      string
	item    string
	party   string
	qty     amountFlag
	rate    amountFlag
	payment amountFlag
	date    dateFlag
	due     dateFlag
	attach  string
}

func (c *tradeCmd) Name() string { return string(c.kind) }
func (c *tradeCmd) Synopsis() string {
	if c.kind == books.KindPurchase {
		return "record or edit a purchase of stock from a supplier"
	}
	return "record or edit a sale of stock to a customer"
}
func (c *tradeCmd) Usage() string {
	return fmt.Sprintf(`bks %s [-id <id>] -item <sku|id> -party <name|id> -q <quantity> -rate <rate> [-pay <amount>] [-d <date>] [-due <date>] [-attach <file>]

  Records a %[1]s, or replaces the %[1]s -id. Its stock movement and ledger
  entries are derived from it, the unpaid part is the open balance.
`, c.kind)
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Record to edit")
	f.StringVar(&c.item, "item", "", "Item SKU or id")
	f.StringVar(&c.party, "party", "", "Party name or id")
	f.Var(&c.qty, "q", "Quantity")
	f.Var(&c.rate, "rate", "Unit price")
	f.Var(&c.payment, "pay", "Amount paid or received now")
	f.Var(&c.date, "d", "Date (YYYY-MM-DD), today by default")
	f.Var(&c.due, "due", "Due date of the balance (YYYY-MM-DD)")
	f.StringVar(&c.attach, "attach", "", "File to attach, replacing the current attachment")
}

func (c *tradeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.item == "" || c.party == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	file, err := attachment(c.attach)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading attachment: %v\n", err)
		return subcommands.ExitFailure
	}
	return run(ctx, func(s *session) error {
		b := s.Books()
		in := books.TradeInput{
			ItemID:     itemID(b, c.item),
			PartyID:    partyID(b, c.party),
			Quantity:   c.qty.Decimal,
			Rate:       c.rate.Decimal,
			Payment:    c.payment.Decimal,
			Date:       c.date.value(),
			DueDate:    c.due.Date,
			Attachment: file,
		}
		var record any
		if c.kind == books.KindPurchase {
			record, err = s.SubmitPurchase(ctx, in, c.id)
		} else {
			record, err = s.SubmitSale(ctx, in, c.id)
		}
		if err != nil {
			return err
		}
		fmt.Println(renderer.Transaction(s.Books(), record))
		return nil
	})
}

// --- Expense Command ---

type expenseCmd struct {
	id        string
	category  string
	amount    amountFlag
	date      dateFlag
	party     string
	recurring bool
	frequency string
	attach    string
}

func (*expenseCmd) Name() string     { return "expense" }
func (*expenseCmd) Synopsis() string { return "record or edit an expense" }
func (*expenseCmd) Usage() string {
	return `bks expense [-id <id>] -category <category> -a <amount> [-d <date>] [-party <name|id>] [-recurring [-frequency <period>]] [-attach <file>]

  Records an expense paid in cash. Recurring expenses are monthly unless
  -frequency says otherwise.
`
}

func (c *expenseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Expense to edit")
	f.StringVar(&c.category, "category", "", "Expense category")
	f.Var(&c.amount, "a", "Amount")
	f.Var(&c.date, "d", "Date (YYYY-MM-DD), today by default")
	f.StringVar(&c.party, "party", "", "Supplier name or id")
	f.BoolVar(&c.recurring, "recurring", false, "The expense repeats")
	f.StringVar(&c.frequency, "frequency", "", "Period of a recurring expense (weekly, monthly, quarterly, yearly)")
	f.StringVar(&c.attach, "attach", "", "File to attach, replacing the current attachment")
}

func (c *expenseCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	file, err := attachment(c.attach)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading attachment: %v\n", err)
		return subcommands.ExitFailure
	}
	return run(ctx, func(s *session) error {
		in := books.ExpenseInput{
			Category:   c.category,
			Amount:     c.amount.Decimal,
			Date:       c.date.value(),
			Recurring:  c.recurring,
			Frequency:  c.frequency,
			Attachment: file,
		}
		if c.party != "" {
			in.PartyID = partyID(s.Books(), c.party)
		}
		x, err := s.SubmitExpense(ctx, in, c.id)
		if err != nil {
			return err
		}
		fmt.Println(renderer.Transaction(s.Books(), x))
		return nil
	})
}

// --- Cash Command ---

type cashCmd struct {
	id          string
	account     string
	typ         string
	amount      amountFlag
	date        dateFlag
	description string
}

func (*cashCmd) Name() string     { return "cash" }
func (*cashCmd) Synopsis() string { return "record or edit a cash or bank register entry" }
func (*cashCmd) Usage() string {
	return `bks cash [-id <id>] [-account cash|<bank>] -type deposit|withdrawal|transfer -a <amount> [-d <date>] [-m <description>]

  Records money moving in or out of the cash account or a bank account.
  Bank balances follow their entries.
`
}

func (c *cashCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Entry to edit")
	f.StringVar(&c.account, "account", books.AccountCash, "cash, or a bank name or id")
	f.StringVar(&c.typ, "type", string(books.Deposit), "deposit, withdrawal or transfer")
	f.Var(&c.amount, "a", "Amount")
	f.Var(&c.date, "d", "Date (YYYY-MM-DD), today by default")
	f.StringVar(&c.description, "m", "", "Description")
}

func (c *cashCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(s *session) error {
		e, err := s.SubmitCashEntry(ctx, books.CashInput{
			AccountID:   bankID(s.Books(), c.account),
			Type:        books.EntryType(c.typ),
			Amount:      c.amount.Decimal,
			Date:        c.date.value(),
			Description: c.description,
		}, c.id)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", renderer.Transaction(s.Books(), e), e.ID)
		return nil
	})
}

// bankID accepts cash, a bank id or a bank name.
func bankID(b *books.Books, ref string) string {
	for _, k := range b.Banks() {
		if k.Name == ref {
			return k.ID
		}
	}
	return ref
}

// --- Loan Command ---

type loanCmd struct {
	id       string
	typ      string
	party    string
	amount   amountFlag
	interest amountFlag
	date     dateFlag
	account  string
}

func (*loanCmd) Name() string     { return "loan" }
func (*loanCmd) Synopsis() string { return "record or edit a loan or a capital contribution" }
func (*loanCmd) Usage() string {
	return `bks loan [-id <id>] [-type loan|capital] -party <name|id> -a <amount> [-interest <rate>] [-d <date>] [-account cash|<bank>]

  Posts two ledger rows: a credit on the loans or capital account, and a
  balancing "Funds from ..." debit on the account that received the funds
  (cash by default). A bank receiving the funds has its balance raised.
  Editing or deleting the entry rewrites or removes both rows.
`
}

func (c *loanCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Entry to edit")
	f.StringVar(&c.typ, "type", "loan", "loan or capital")
	f.StringVar(&c.party, "party", "", "Lender or investor name or id")
	f.Var(&c.amount, "a", "Amount")
	f.Var(&c.interest, "interest", "Interest rate")
	f.Var(&c.date, "d", "Date (YYYY-MM-DD), today by default")
	f.StringVar(&c.account, "account", books.AccountCash, "Account receiving the funds: cash, or a bank name or id")
}

func (c *loanCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(s *session) error {
		b := s.Books()
		e, err := s.SubmitLoanEntry(ctx, books.LoanInput{
			Kind:      c.typ,
			PartyID:   partyID(b, c.party),
			Amount:    c.amount.Decimal,
			Interest:  c.interest.Decimal,
			Date:      c.date.value(),
			AccountID: bankID(b, c.account),
		}, c.id)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", renderer.Transaction(s.Books(), e), e.ID)
		return nil
	})
}

// --- Delete Command ---

type deleteCmd struct {
	kind string
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a transaction or an item" }
func (*deleteCmd) Usage() string {
	return `bks delete -kind purchase|sale|expense|cash|loan|item <id>...

  Deletes records with their stock movements, ledger entries and
  attachments. Deletions that would leave an item with negative stock are
  rejected.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "", "Kind of the records to delete")
}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 || c.kind == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return run(ctx, func(s *session) error {
		for _, id := range f.Args() {
			if c.kind == "item" {
				if err := s.DeleteItem(ctx, id); err != nil {
					return err
				}
				continue
			}
			kind, err := books.ParseKind(c.kind)
			if err != nil {
				return usageError("%v", err)
			}
			if err := s.DeleteTransaction(ctx, id, kind); err != nil {
				return err
			}
		}
		fmt.Printf("Deleted %d record(s)\n", f.NArg())
		return nil
	})
}

// --- Attachment Command ---

type attachmentCmd struct {
	out string
}

func (*attachmentCmd) Name() string     { return "attachment" }
func (*attachmentCmd) Synopsis() string { return "save the file attached to a record" }
func (*attachmentCmd) Usage() string {
	return `bks attachment [-o <file>] <attachment id>

  Writes the attached file, under its own name unless -o is set.
`
}

func (c *attachmentCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "", "Output file")
}

func (c *attachmentCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return run(ctx, func(s *session) error {
		a, ok := s.Books().Attachment(f.Arg(0))
		if !ok {
			return fmt.Errorf("%w: attachment %q", books.ErrNotFound, f.Arg(0))
		}
		data, err := a.Content()
		if err != nil {
			return err
		}
		name := c.out
		if name == "" {
			name = a.Name
		}
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("Wrote %s (%s, %d bytes)\n", name, a.Type, len(data))
		return nil
	})
}

package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/books"
	"github.com/etnz/books/renderer"
	"github.com/google/subcommands"
)

// --- Item Command ---

type itemCmd struct {
	id          string
	sku         string
	name        string
	category    string
	cost        amountFlag
	opening     amountFlag
	reorder     amountFlag
	openingDate dateFlag
}

func (*itemCmd) Name() string     { return "item" }
func (*itemCmd) Synopsis() string { return "create or edit a stocked item" }
func (*itemCmd) Usage() string {
	return `bks item [-id <id>] -sku <sku> -name <name> [-category <category>] [-cost <cost>] [-opening <qty>] [-reorder <qty>] [-opening-date <date>]

  Creates an item, or edits the item -id. The opening stock is recorded as
  an opening stock movement at the item cost.
`
}

func (c *itemCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Item to edit")
	f.StringVar(&c.sku, "sku", "", "Stock keeping unit, unique")
	f.StringVar(&c.name, "name", "", "Item name")
	f.StringVar(&c.category, "category", "", "Item category")
	f.Var(&c.cost, "cost", "Unit cost")
	f.Var(&c.opening, "opening", "Opening stock quantity")
	f.Var(&c.reorder, "reorder", "Reorder level")
	f.Var(&c.openingDate, "opening-date", "Date of the opening stock (YYYY-MM-DD), today by default")
}

func (c *itemCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(s *session) error {
		it, err := s.SubmitItem(ctx, books.ItemInput{
			SKU:          c.sku,
			Name:         c.name,
			Category:     c.category,
			Cost:         c.cost.Decimal,
			OpeningStock: c.opening.Decimal,
			ReorderLevel: c.reorder.Decimal,
			OpeningDate:  c.openingDate.Date,
		}, c.id)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", renderer.Transaction(s.Books(), it), it.ID)
		return nil
	})
}

// --- Party Command ---

type partyCmd struct {
	id    string
	name  string
	typ   string
	email string
	phone string
	del   bool
}

func (*partyCmd) Name() string     { return "party" }
func (*partyCmd) Synopsis() string { return "create, edit or delete a supplier or customer" }
func (*partyCmd) Usage() string {
	return `bks party [-id <id>] -name <name> -type supplier|customer [-email <email>] [-phone <phone>]
bks party -delete -id <id>

  Saves a party. A party used by a record cannot be deleted.
`
}

func (c *partyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Party to edit or delete")
	f.StringVar(&c.name, "name", "", "Party name")
	f.StringVar(&c.typ, "type", string(books.Customer), "supplier or customer")
	f.StringVar(&c.email, "email", "", "Email address")
	f.StringVar(&c.phone, "phone", "", "Phone number")
	f.BoolVar(&c.del, "delete", false, "Delete the party -id")
}

func (c *partyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(s *session) error {
		if c.del {
			if c.id == "" {
				return usageError("-delete needs -id")
			}
			return s.DeleteParty(ctx, c.id)
		}
		p, err := s.SaveParty(ctx, books.Party{ID: c.id, Name: c.name, Type: books.PartyType(c.typ), Email: c.email, Phone: c.phone})
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", renderer.Transaction(s.Books(), p), p.ID)
		return nil
	})
}

// --- Bank Command ---

type bankCmd struct {
	id      string
	name    string
	balance amountFlag
}

func (*bankCmd) Name() string     { return "bank" }
func (*bankCmd) Synopsis() string { return "create or rename a bank account" }
func (*bankCmd) Usage() string {
	return `bks bank [-id <id>] -name <name> [-balance <opening balance>]

  Creates a bank account with its opening balance. Editing an account
  renames it, its balance only changes through cash entries.
`
}

func (c *bankCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Bank account to rename")
	f.StringVar(&c.name, "name", "", "Bank account name")
	f.Var(&c.balance, "balance", "Opening balance")
}

func (c *bankCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(s *session) error {
		b, err := s.SaveBank(ctx, books.BankInput{Name: c.name, OpeningBalance: c.balance.Decimal}, c.id)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", renderer.Transaction(s.Books(), b), b.ID)
		return nil
	})
}

package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/books"
	"github.com/etnz/books/date"
	"github.com/etnz/books/renderer"
	"github.com/google/subcommands"
)

// --- Init Command ---

type initCmd struct {
	seed bool
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "create the books, optionally with sample data" }
func (*initCmd) Usage() string {
	return `bks init [-seed]

  Opens the books, creating them if needed, and prints the dashboard.
  With -seed, empty books are filled with sample items, parties, banks,
  expenses, purchases and sales.
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.seed, "seed", false, "Fill empty books with sample data")
}

func (c *initCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(s *session) error {
		if c.seed {
			seeded, err := s.Seed(ctx)
			if err != nil {
				return err
			}
			if !seeded {
				fmt.Println("The books already have items, no sample data added.")
			}
		}
		printMarkdown(renderer.Dashboard(s.Books(), date.Of(s.Now())))
		return nil
	})
}

// --- Settings Command ---

type settingsCmd struct {
	currency    string
	org         string
	fiscalStart string
}

func (*settingsCmd) Name() string     { return "settings" }
func (*settingsCmd) Synopsis() string { return "show or change the business settings" }
func (*settingsCmd) Usage() string {
	return `bks settings [-currency <code>] [-org <name>] [-fiscal-start <YYYY-MM>]

  Without flags, prints the settings. Flags change the given settings only.
`
}

func (c *settingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "currency", "", "ISO 4217 currency code of the books")
	f.StringVar(&c.org, "org", "", "Organization name")
	f.StringVar(&c.fiscalStart, "fiscal-start", "", "First month of the fiscal year (YYYY-MM)")
}

func (c *settingsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(s *session) error {
		settings := s.Books().Settings()
		if c.currency != "" || c.org != "" || c.fiscalStart != "" {
			if c.currency != "" {
				settings.Currency = c.currency
			}
			if c.org != "" {
				settings.OrgName = c.org
			}
			if c.fiscalStart != "" {
				settings.FiscalStart = c.fiscalStart
			}
			var err error
			if settings, err = s.UpdateSettings(ctx, settings); err != nil {
				return err
			}
		}
		fmt.Printf("Organization: %s\nCurrency:     %s\nFiscal start: %s\n", settings.OrgName, settings.Currency, settings.FiscalStart)
		return nil
	})
}

// --- Migrate Command ---

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "link legacy entries and movements to their records" }
func (*migrateCmd) Usage() string {
	return `bks migrate

  Sets the missing referenceId of stock movements and ledger entries, and
  adds the funds leg of legacy loans. Books are migrated when opened, this
  command runs the migration again on demand.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(s *session) error {
		report, err := s.MigrateLegacyReferences(ctx)
		if err != nil {
			return err
		}
		printMigration(report)
		return nil
	})
}

func printMigration(r books.MigrationReport) {
	if !r.Changed() && r.Orphans == 0 {
		fmt.Println("Nothing to migrate.")
		return
	}
	fmt.Printf("Movements linked: %d\nEntries linked:   %d\nLoan legs added:  %d\nOrphan entries:   %d\n", r.Movements, r.Entries, r.LoanLegs, r.Orphans)
}

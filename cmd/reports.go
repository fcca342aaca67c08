package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/books"
	"github.com/etnz/books/date"
	"github.com/etnz/books/renderer"
	"github.com/google/subcommands"
)

// --- List Command ---

type listCmd struct{}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list items, parties, banks, transactions or ledger entries" }
func (*listCmd) Usage() string {
	return `bks list items|parties|banks|transactions|ledger
`
}

func (*listCmd) SetFlags(f *flag.FlagSet) {}

func (*listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	listings := map[string]func(*books.Books) string{
		"items":        renderer.Items,
		"parties":      renderer.Parties,
		"banks":        renderer.Banks,
		"transactions": renderer.Transactions,
		"ledger":       renderer.Ledger,
	}
	listing, ok := listings[f.Arg(0)]
	if !ok {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return run(ctx, func(s *session) error {
		printMarkdown(listing(s.Books()))
		return nil
	})
}

// --- Dashboard Command ---

type dashboardCmd struct{}

func (*dashboardCmd) Name() string             { return "dashboard" }
func (*dashboardCmd) Synopsis() string         { return "show the key figures and alerts" }
func (*dashboardCmd) Usage() string            { return "bks dashboard\n" }
func (*dashboardCmd) SetFlags(f *flag.FlagSet) {}

func (*dashboardCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(s *session) error {
		printMarkdown(renderer.Dashboard(s.Books(), date.Of(s.Now())))
		return nil
	})
}

// --- Report Command ---

type reportCmd struct {
	period string
	start  string
	date   string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "financial statements over a period" }
func (*reportCmd) Usage() string {
	return `bks report [-p <period> | -s <start_date>] [-d <end_date>]

  Prints the profit & loss, cash flow, sales, expense and tax reports of
  the period, and the inventory and aging positions on the end date. The
  default period is the fiscal year.
`
}

func (p *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.period, "p", "", "Predefined period (day, week, month, quarter, year). The fiscal year by default.")
	f.StringVar(&p.start, "s", "", "The start date for a custom range. Overrides -p.")
	f.StringVar(&p.date, "d", "", "The end date of the report, today by default.")
}

func (p *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(s *session) error {
		end := date.Of(s.Now())
		if p.date != "" {
			var err error
			if end, err = date.Parse(p.date); err != nil {
				return usageError("%v", err)
			}
		}

		var r date.Range
		switch {
		case p.start != "":
			start, err := date.Parse(p.start)
			if err != nil {
				return usageError("%v", err)
			}
			r = date.Range{From: start, To: end}
		case p.period != "":
			period, err := date.ParsePeriod(p.period)
			if err != nil {
				return usageError("%v", err)
			}
			r = date.NewRange(end, period)
		default:
			r = date.FiscalYear(end, s.Books().Settings().FiscalMonth())
		}
		printMarkdown(renderer.Financials(s.Books(), r, end))
		return nil
	})
}

// --- Selftest Command ---

type selftestCmd struct{}

func (*selftestCmd) Name() string             { return "selftest" }
func (*selftestCmd) Synopsis() string         { return "check the consistency of the books" }
func (*selftestCmd) Usage() string            { return "bks selftest\n" }
func (*selftestCmd) SetFlags(f *flag.FlagSet) {}

func (*selftestCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(s *session) error {
		checks := books.SelfTest(s.Books(), date.Of(s.Now()))
		printMarkdown(renderer.SelfTest(checks))
		for _, c := range checks {
			if !c.Passed {
				return fmt.Errorf("check %q failed", c.Name)
			}
		}
		return nil
	})
}

// --- Query Command ---

type queryCmd struct{}

func (*queryCmd) Name() string     { return "query" }
func (*queryCmd) Synopsis() string { return "run a JSONPath query over the books" }
func (*queryCmd) Usage() string {
	return `bks query <jsonpath>

  Evaluates the JSONPath expression on the snapshot of the books, the
  document exported by bks export. Example:

    bks query '$.data.sales[?(@.balance > 0)].id'
`
}

func (*queryCmd) SetFlags(f *flag.FlagSet) {}

func (*queryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return run(ctx, func(s *session) error {
		snapshot, err := s.ExportSnapshot(ctx)
		if err != nil {
			return err
		}
		res, err := books.Query(snapshot, f.Arg(0))
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	})
}

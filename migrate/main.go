// Command migrate upgrades legacy books, offline, outside of the bks tool.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/etnz/books"
	"github.com/etnz/books/config"
	"github.com/etnz/books/date"
	"github.com/etnz/books/store"
	"github.com/google/subcommands"
)

func main() {
	// The migrate tool needs its own set of flags, independent of the main bks tool.
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	commander := subcommands.NewCommander(flag.CommandLine, "migrate")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(&snapshotCmd{}, "")
	commander.Register(&storeCmd{}, "")
	commander.Register(&checkCmd{}, "")
	flag.Parse()
	if err := config.SetupLogger(config.Env(config.EnvLogLevel, "info"), nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(int(subcommands.ExitUsageError))
	}
	os.Exit(int(commander.Execute(context.Background())))
}

// --- snapshotCmd ---

type snapshotCmd struct {
	in  string
	out string
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "migrates a legacy snapshot file to the current schema" }
func (*snapshotCmd) Usage() string {
	return `migrate snapshot -in <legacy_snapshot> -out <migrated_snapshot>

Links the ledger entries and stock movements of a legacy snapshot to their
records, and adds the funds leg of legacy loans. The input and output files
must be in different directories to prevent accidental data loss.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.in, "in", "", "The path to the legacy snapshot, as written by an export.")
	f.StringVar(&c.out, "out", "", "The path where the migrated snapshot will be written.")
}

func (c *snapshotCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.in == "" || c.out == "" {
		fmt.Fprintln(os.Stderr, "Error: -in and -out flags are required.")
		return subcommands.ExitUsageError
	}
	if filepath.Dir(c.in) == filepath.Dir(c.out) {
		fmt.Fprintln(os.Stderr, "Error: -in and -out files must not be in the same directory.")
		return subcommands.ExitUsageError
	}

	raw, err := os.ReadFile(c.in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading snapshot: %v\n", err)
		return subcommands.ExitFailure
	}
	snapshot, err := books.ParseSnapshot(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding snapshot: %v\n", err)
		return subcommands.ExitFailure
	}
	config.GetLogger().WithField("version", snapshot.Version).Info("migrating snapshot")

	// Importing into an empty engine migrates legacy snapshots.
	e, err := books.Open(ctx, store.NewMemory())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening books: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := e.ImportSnapshot(ctx, snapshot); err != nil {
		fmt.Fprintf(os.Stderr, "Error importing snapshot: %v\n", err)
		return subcommands.ExitFailure
	}
	migrated, err := e.ExportSnapshot(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting snapshot: %v\n", err)
		return subcommands.ExitFailure
	}
	data, err := migrated.MarshalIndent()
	if err == nil {
		err = os.WriteFile(c.out, data, 0o644)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing migrated snapshot: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Successfully migrated snapshot to %s\n", c.out)
	return report(e.Books(), date.Of(e.Now()))
}

// --- storeCmd ---

type storeCmd struct {
	source
}

func (*storeCmd) Name() string     { return "store" }
func (*storeCmd) Synopsis() string { return "migrates the books of a store in place" }
func (*storeCmd) Usage() string {
	return `migrate store [-store folder|sql] [-dir <dir>] [-dsn <dsn>]

Links legacy entries and movements to their records in the store. Running it
twice changes nothing.
`
}

func (c *storeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := c.open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening books: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Store().Close()

	r, err := e.MigrateLegacyReferences(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error migrating books: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Linked %d stock movements and %d ledger entries, added %d loan legs.\n", r.Movements, r.Entries, r.LoanLegs)
	return report(e.Books(), date.Of(e.Now()))
}

// --- checkCmd ---

type checkCmd struct {
	source
}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "verifies the migration by running the self test" }
func (*checkCmd) Usage() string {
	return `migrate check [-store folder|sql] [-dir <dir>] [-dsn <dsn>]

Checks stock levels, aging, income statement and ledger balance of the books.
`
}

func (c *checkCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := c.open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening books: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Store().Close()
	return report(e.Books(), date.Of(e.Now()))
}

// --- Helper Functions ---

// source selects the store to migrate.
type source struct {
	kind string
	dir  string
	dsn  string
}

func (s *source) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.kind, "store", config.Env(config.EnvStore, "folder"), "Store of the books: folder or sql")
	f.StringVar(&s.dir, "dir", config.Env(config.EnvDir, config.DefaultDir()), "Folder of the books")
	f.StringVar(&s.dsn, "dsn", config.Env(config.EnvDSN, ""), "PostgreSQL connection string")
}

// open opens the books. Opening migrates them to the current schema.
func (s *source) open(ctx context.Context) (*books.Engine, error) {
	var st store.Store
	var err error
	switch s.kind {
	case "folder":
		st, err = store.OpenFolder(s.dir)
	case "sql":
		if s.dsn == "" {
			return nil, errors.New("the sql store needs -dsn")
		}
		st, err = store.OpenSQL(ctx, s.dsn)
	default:
		return nil, fmt.Errorf("unknown store %q", s.kind)
	}
	if err != nil {
		return nil, err
	}
	e, err := books.Open(ctx, st, books.WithLogger(config.GetLogger()))
	if err != nil {
		st.Close()
		return nil, err
	}
	return e, nil
}

// report prints the self test and fails if a check fails.
func report(b *books.Books, today date.Date) subcommands.ExitStatus {
	status := subcommands.ExitSuccess
	for _, c := range books.SelfTest(b, today) {
		mark := "ok"
		if !c.Passed {
			mark = "FAILED: " + c.Detail
			status = subcommands.ExitFailure
		}
		fmt.Printf("  %-45s %s\n", c.Name, mark)
	}
	return status
}

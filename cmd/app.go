// Package cmd implements the CLI application to keep the books.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/books"
	"github.com/etnz/books/config"
	"github.com/etnz/books/store"
	"github.com/google/subcommands"
	"github.com/prometheus/client_golang/prometheus"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&initCmd{}, "books")
	c.Register(&settingsCmd{}, "books")
	c.Register(&migrateCmd{}, "books")

	c.Register(&itemCmd{}, "records")
	c.Register(&partyCmd{}, "records")
	c.Register(&bankCmd{}, "records")

	c.Register(&tradeCmd{kind: books.KindPurchase}, "transactions")
	c.Register(&tradeCmd{kind: books.KindSale}, "transactions")
	c.Register(&expenseCmd{}, "transactions")
	c.Register(&cashCmd{}, "transactions")
	c.Register(&loanCmd{}, "transactions")
	c.Register(&deleteCmd{}, "transactions")
	c.Register(&attachmentCmd{}, "transactions")

	c.Register(&listCmd{}, "reports")
	c.Register(&dashboardCmd{}, "reports")
	c.Register(&reportCmd{}, "reports")
	c.Register(&selftestCmd{}, "reports")
	c.Register(&queryCmd{}, "reports")

	c.Register(&exportCmd{}, "data")
	c.Register(&importCmd{}, "data")
	c.Register(&backupCmd{}, "data")
	c.Register(&restoreCmd{}, "data")
	c.Register(&autobackupCmd{}, "data")

	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	storeKind   = flag.String("store", config.Env(config.EnvStore, "folder"), "Store of the books: folder, sql or memory")
	booksDir    = flag.String("dir", config.Env(config.EnvDir, config.DefaultDir()), "Folder of the books, for the folder store")
	dsn         = flag.String("dsn", config.Env(config.EnvDSN, ""), "PostgreSQL connection string, for the sql store")
	logLevel    = flag.String("log-level", config.Env(config.EnvLogLevel, "warning"), "Log level: debug, info, warning or error")
	metricsFile = flag.String("metrics-file", "", "Write the operation counters to this file, in the Prometheus text format")
	raw         = flag.Bool("raw", false, "Print reports as raw markdown")
)

// session is the engine open for the duration of a command.
type session struct {
	*books.Engine
	auto     *books.AutoBackup
	registry *prometheus.Registry
}

// openStore opens the store selected by the global flags.
func openStore(ctx context.Context) (store.Store, error) {
	switch *storeKind {
	case "folder":
		return store.OpenFolder(*booksDir)
	case "sql":
		if *dsn == "" {
			return nil, fmt.Errorf("the sql store needs -dsn or %s", config.EnvDSN)
		}
		return store.OpenSQL(ctx, *dsn)
	case "memory":
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store %q, want folder, sql or memory", *storeKind)
	}
}

// open opens the books, restoring the automatic backup into empty books.
func open(ctx context.Context) (*session, error) {
	if err := config.SetupLogger(*logLevel, nil); err != nil {
		return nil, fmt.Errorf("invalid -log-level: %w", err)
	}
	s, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	e, err := books.Open(ctx, s, books.WithMetrics(books.NewMetrics(reg)))
	if err != nil {
		s.Close()
		return nil, err
	}
	delay := config.EnvDuration(config.EnvAutoBackupWait, books.DefaultAutoBackupDelay)
	auto, err := books.NewAutoBackup(ctx, e, delay)
	if err != nil {
		s.Close()
		return nil, err
	}
	if restored, err := auto.RestoreIfEmpty(ctx); err != nil {
		config.GetLogger().WithError(err).Warn("could not restore the automatic backup")
	} else if restored {
		fmt.Fprintf(os.Stderr, "Books restored from %s\n", auto.Config().File)
	}
	return &session{Engine: e, auto: auto, registry: reg}, nil
}

// close flushes the pending automatic backup and the metrics.
func (s *session) close() error {
	err := s.auto.Close()
	if *metricsFile != "" {
		err = errors.Join(err, prometheus.WriteToTextfile(*metricsFile, s.registry))
	}
	return errors.Join(err, s.Store().Close())
}

// run opens the books, calls f and closes them. Errors are printed.
func run(ctx context.Context, f func(s *session) error) subcommands.ExitStatus {
	s, err := open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening the books: %v\n", err)
		return subcommands.ExitFailure
	}
	err = f(s)
	if cerr := s.close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "Error closing the books: %v\n", cerr)
		if err == nil {
			return subcommands.ExitFailure
		}
	}
	return status(err)
}

// status prints err and maps it to an exit status.
func status(err error) subcommands.ExitStatus {
	switch {
	case err == nil:
		return subcommands.ExitSuccess
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	case errors.Is(err, books.ErrValidation):
		fmt.Fprintf(os.Stderr, "Rejected: %v\n", err)
	case errors.Is(err, books.ErrNotFound):
		fmt.Fprintf(os.Stderr, "Not found: %v\n", err)
	case errors.Is(err, books.ErrCrypto):
		fmt.Fprintf(os.Stderr, "Backup error: %v\n", err)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return subcommands.ExitFailure
}

// errUsage marks command line errors.
var errUsage = errors.New("usage error")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// printMarkdown renders md for the terminal, or prints it as is with -raw.
func printMarkdown(md string) {
	if *raw {
		fmt.Println(md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Println(md)
}

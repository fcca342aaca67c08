package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/books"
	"github.com/etnz/books/config"
	"github.com/etnz/books/date"
	"github.com/google/subcommands"
)

// output opens name for writing, stdout for "" or "-".
func output(name string) (io.WriteCloser, error) {
	if name == "" || name == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(name)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// --- Export Command ---

type exportCmd struct {
	format string
	out    string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the books as a JSON snapshot, a ledger CSV or a workbook" }
func (*exportCmd) Usage() string {
	return `bks export [-format json|csv|xlsx] [-o <file>]

  json writes the snapshot read back by bks import. csv writes the ledger
  entries. xlsx writes a workbook with the ledger, the inventory valuation
  and the aging.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "json", "json, csv or xlsx")
	f.StringVar(&c.out, "o", "", "Output file, stdout by default")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.format != "json" && c.format != "csv" && c.format != "xlsx" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return run(ctx, func(s *session) (err error) {
		w, err := output(c.out)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := w.Close(); err == nil {
				err = cerr
			}
		}()

		switch c.format {
		case "csv":
			return books.WriteLedgerCSV(w, s.Books())
		case "xlsx":
			return books.WriteWorkbook(w, s.Books(), date.Of(s.Now()))
		}
		snapshot, err := s.ExportSnapshot(ctx)
		if err != nil {
			return err
		}
		data, err := snapshot.MarshalIndent()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})
}

// --- Import Command ---

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replace the books with a JSON snapshot" }
func (*importCmd) Usage() string {
	return `bks import <file>

  Replaces every collection by the records of the snapshot. Nothing is
  written when a record cannot be read. Legacy snapshots are migrated.
`
}

func (*importCmd) SetFlags(f *flag.FlagSet) {}

func (*importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	raw, err := os.ReadFile(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading snapshot: %v\n", err)
		return subcommands.ExitFailure
	}
	snapshot, err := books.ParseSnapshot(raw)
	if err != nil {
		return status(err)
	}
	return run(ctx, func(s *session) error {
		if err := s.ImportSnapshot(ctx, snapshot); err != nil {
			return err
		}
		b := s.Books()
		fmt.Printf("Imported %d items, %d purchases, %d sales, %d expenses and %d ledger entries\n",
			len(b.Items()), len(b.Purchases()), len(b.Sales()), len(b.Expenses()), len(b.Entries()))
		return nil
	})
}

// passphrase returns the flag value, or the environment one.
func passphrase(flagValue string) (string, error) {
	p := flagValue
	if p == "" {
		p = config.Env(config.EnvPassphrase, "")
	}
	if p == "" {
		return "", usageError("a passphrase is required: -passphrase or %s", config.EnvPassphrase)
	}
	return p, nil
}

// --- Backup Command ---

type backupCmd struct {
	passphrase string
	out        string
}

func (*backupCmd) Name() string     { return "backup" }
func (*backupCmd) Synopsis() string { return "write an encrypted backup of the books" }
func (*backupCmd) Usage() string {
	return `bks backup [-passphrase <passphrase>] [-o <file>]

  Writes the books encrypted with a key derived from the passphrase. The
  passphrase can also be set in BOOKS_PASSPHRASE.
`
}

func (c *backupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.passphrase, "passphrase", "", "Passphrase of the backup")
	f.StringVar(&c.out, "o", "", "Output file, stdout by default")
}

func (c *backupCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p, err := passphrase(c.passphrase)
	if err != nil {
		return status(err)
	}
	return run(ctx, func(s *session) error {
		token, err := s.Backup(ctx, p)
		if err != nil {
			return err
		}
		w, err := output(c.out)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, token); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	})
}

// --- Restore Command ---

type restoreCmd struct {
	passphrase string
}

func (*restoreCmd) Name() string     { return "restore" }
func (*restoreCmd) Synopsis() string { return "replace the books with an encrypted backup" }
func (*restoreCmd) Usage() string {
	return `bks restore [-passphrase <passphrase>] <file>

  Decrypts the backup and replaces the books with it. A wrong passphrase
  leaves the books untouched.
`
}

func (c *restoreCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.passphrase, "passphrase", "", "Passphrase of the backup")
}

func (c *restoreCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	p, err := passphrase(c.passphrase)
	if err != nil {
		return status(err)
	}
	token, err := os.ReadFile(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading backup: %v\n", err)
		return subcommands.ExitFailure
	}
	return run(ctx, func(s *session) error {
		if err := s.Restore(ctx, p, strings.TrimSpace(string(token))); err != nil {
			return err
		}
		fmt.Printf("Restored %d items and %d ledger entries\n", len(s.Books().Items()), len(s.Books().Entries()))
		return nil
	})
}

// --- Autobackup Command ---

type autobackupCmd struct {
	enable  bool
	disable bool
	file    string
}

func (*autobackupCmd) Name() string     { return "autobackup" }
func (*autobackupCmd) Synopsis() string { return "show or configure the automatic backup" }
func (*autobackupCmd) Usage() string {
	return `bks autobackup [-enable [-file <file>] | -disable]

  When enabled, a snapshot file is written shortly after every change, and
  empty books are restored from it when opened. Enabling writes a first
  backup right away.
`
}

func (c *autobackupCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.enable, "enable", false, "Enable the automatic backup")
	f.BoolVar(&c.disable, "disable", false, "Disable the automatic backup")
	f.StringVar(&c.file, "file", config.Env(config.EnvAutoBackupFile, ""), "Snapshot file written by the automatic backup")
}

func (c *autobackupCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.enable && c.disable {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return run(ctx, func(s *session) error {
		if c.enable || c.disable {
			if err := s.auto.Configure(ctx, c.enable, c.file); err != nil {
				return err
			}
		}
		cfg := s.auto.Config()
		state := "disabled"
		if cfg.Enabled {
			state = "enabled"
		}
		fmt.Printf("Automatic backup: %s\nFile:             %s\n", state, cfg.File)
		if cfg.LastRun != nil {
			fmt.Printf("Last run:         %s\n", cfg.LastRun.Local().Format("2006-01-02 15:04:05"))
		}
		return nil
	})
}

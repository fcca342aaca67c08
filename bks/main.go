// Command bks keeps the books of a small business: inventory, purchases,
// sales, expenses, cash, loans and the double-entry ledger behind them.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/etnz/books/cmd"
	"github.com/etnz/books/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, "bks")
	commander.Register(commander.HelpCommand(), "help")
	commander.Register(commander.FlagsCommand(), "help")
	commander.Register(commander.CommandsCommand(), "help")
	cmd.Register(commander)

	completion(commander).Complete("bks")

	flag.Parse()

	// Unknown subcommands are looked up as bks-<name> extensions.
	if name := flag.Arg(0); name != "" && !registered(commander, name) {
		if found, code := cmd.RunExtension(name, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}

func registered(commander *subcommands.Commander, name string) bool {
	found := false
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		if c.Name() == name {
			found = true
		}
	})
	return found
}

// completion describes the subcommands and their flags for the shell.
func completion(commander *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: flags(flag.CommandLine),
	}
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(f)
		root.Sub[c.Name()] = &complete.Command{Flags: flags(f), Args: args(c.Name())}
	})
	return root
}

func flags(f *flag.FlagSet) map[string]complete.Predictor {
	m := map[string]complete.Predictor{}
	f.VisitAll(func(fl *flag.Flag) {
		switch fl.Name {
		case "o", "attach", "file":
			m[fl.Name] = predict.Files("*")
		case "dir":
			m[fl.Name] = predict.Dirs("*")
		case "store":
			m[fl.Name] = predict.Set{"folder", "sql", "memory"}
		case "format":
			m[fl.Name] = predict.Set{"json", "csv", "xlsx"}
		case "p":
			m[fl.Name] = predict.Set{"day", "week", "month", "quarter", "year"}
		case "kind":
			m[fl.Name] = predict.Set{"purchase", "sale", "expense", "cash", "loan", "item"}
		default:
			if b, ok := fl.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
				m[fl.Name] = predict.Nothing
			} else {
				m[fl.Name] = predict.Something
			}
		}
	})
	return m
}

func args(name string) complete.Predictor {
	switch name {
	case "list":
		return predict.Set{"items", "parties", "banks", "transactions", "ledger"}
	case "import", "restore":
		return predict.Files("*")
	case "topic":
		topics, _ := docs.GetAllTopics()
		return predict.Set(append(topics, "readme"))
	}
	return nil
}

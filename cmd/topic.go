package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/books/docs"
	"github.com/google/subcommands"
	md "github.com/nao1215/markdown"
)

type topicCmd struct {
	names bool
}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "show documentation" }
func (*topicCmd) Usage() string {
	return `bks topic [-names] [<topic>...|*]

Without a topic, list the topics with their titles. With topics, show them
one after the other; "*" shows all of them and "readme" the introduction.
`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.names, "names", false, "print the topic names only, one per line")
}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	topics := f.Args()
	if c.names {
		all, err := docs.GetAllTopics()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing topics: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Println(strings.Join(all, "\n"))
		return subcommands.ExitSuccess
	}

	if len(topics) == 0 {
		index, err := topicIndex()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing topics: %v\n", err)
			return subcommands.ExitFailure
		}
		printMarkdown(index)
		return subcommands.ExitSuccess
	}

	for _, t := range topics {
		if t == "*" {
			continue
		}
		if _, err := docs.Title(t); err != nil {
			fmt.Fprintf(os.Stderr, "Unknown topic %q, run 'bks topic' for the list.\n", t)
			return subcommands.ExitUsageError
		}
	}
	doc, err := docs.GetTopics(topics...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading doc: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(doc)
	return subcommands.ExitSuccess
}

// topicIndex renders the table of the documentation topics.
func topicIndex() (string, error) {
	all, err := docs.GetAllTopics()
	if err != nil {
		return "", err
	}
	rows := make([][]string, 0, len(all))
	for _, t := range all {
		title, err := docs.Title(t)
		if err != nil {
			return "", err
		}
		rows = append(rows, []string{title, fmt.Sprintf("`bks topic %s`", t)})
	}

	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Topics")
	doc.PlainText("Run `bks topic readme` for an introduction to bks.")
	doc.Table(md.TableSet{Header: []string{"Topic", "Command"}, Rows: rows})
	return doc.String(), nil
}

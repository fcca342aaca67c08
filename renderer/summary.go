package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/books"
	"github.com/etnz/books/date"
	md "github.com/nao1215/markdown"
)

// Dashboard renders the headline figures and the alerts of b.
func Dashboard(b *books.Books, today date.Date) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("%s on %s", b.Settings().OrgName, today))
	doc.PlainText(fmt.Sprintf("Currency: %s, fiscal year starting %s", b.Currency(), b.Settings().FiscalStart))

	doc.H2("Key figures")
	rows := make([][]string, 0, 6)
	for _, k := range books.DashboardKPIs(b) {
		rows = append(rows, []string{k.Label, amount(k.Value, b.Currency())})
	}
	doc.Table(md.TableSet{Header: []string{"Figure", "Value"}, Rows: rows})

	if alerts := books.Alerts(b, today); len(alerts) > 0 {
		doc.H2("Alerts")
		lines := make([]string, 0, len(alerts))
		for _, a := range alerts {
			lines = append(lines, fmt.Sprintf("%s: %s", a.Level, a.Message))
		}
		doc.BulletList(lines...)
	}

	if l := books.NewLedgerBalance(b); !l.Balanced {
		doc.H2("Ledger")
		doc.PlainText(fmt.Sprintf("The ledger is out of balance by %s.", amount(l.Difference(), b.Currency())))
	}
	return doc.String()
}

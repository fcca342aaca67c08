package books

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/etnz/books/date"
	"github.com/xuri/excelize/v2"
)

// WriteLedgerCSV writes the ledger entries as CSV.
func WriteLedgerCSV(w io.Writer, b *Books) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Type", "Date", "Description", "Amount"}); err != nil {
		return err
	}
	for _, e := range b.Entries() {
		if err := cw.Write([]string{string(e.Type), e.Date.String(), e.Description, e.Amount.String()}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// sheet is a worksheet of the workbook export.
type sheet struct {
	name    string
	headers []any
	rows    [][]any
}

// WriteWorkbook writes an XLSX workbook with the ledger, the inventory
// valuation and the aging of receivables and payables.
func WriteWorkbook(w io.Writer, b *Books, today date.Date) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range workbookSheets(b, today) {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, "A1", &s.headers); err != nil {
			return err
		}
		for j, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, j+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(s.name, cell, &row); err != nil {
				return fmt.Errorf("%s row %d: %w", s.name, j+1, err)
			}
		}
	}
	return f.Write(w)
}

func workbookSheets(b *Books, today date.Date) []sheet {
	ledger := sheet{name: "Ledger", headers: []any{"Date", "Account", "Type", "Description", "Amount", "Reference"}}
	for _, e := range b.Entries() {
		ledger.rows = append(ledger.rows, []any{e.Date.String(), e.AccountID, string(e.Type), e.Description, e.Amount.InexactFloat64(), e.ReferenceID})
	}

	inventory := sheet{name: "Inventory", headers: []any{"SKU", "Item", "Category", "Quantity", "Cost", "Value"}}
	valuation := NewInventoryValuation(b)
	for _, l := range valuation.Lines {
		inventory.rows = append(inventory.rows, []any{l.Item.SKU, l.Item.Name, l.Item.Category, l.Quantity.InexactFloat64(), l.Item.Cost.InexactFloat64(), l.Value.InexactFloat64()})
	}
	inventory.rows = append(inventory.rows, []any{"", "Total", "", "", "", valuation.Total.InexactFloat64()})

	aging := sheet{name: "Aging", headers: []any{"Bucket", "Receivables", "Payables"}}
	receivables, payables := ReceivableAging(b, today), PayableAging(b, today)
	for _, k := range AgingBuckets {
		aging.rows = append(aging.rows, []any{string(k), receivables.Totals[k].InexactFloat64(), payables.Totals[k].InexactFloat64()})
	}
	return []sheet{ledger, inventory, aging}
}

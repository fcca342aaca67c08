package cmd

import (
	"github.com/etnz/books"
	"github.com/etnz/books/date"
	"github.com/shopspring/decimal"
)

// amountFlag is a flag.Value reading amounts leniently ("$1,200.50").
type amountFlag struct{ decimal.Decimal }

func (a *amountFlag) String() string { return a.Decimal.String() }
func (a *amountFlag) Set(s string) error {
	a.Decimal = books.ParseAmount(s)
	return nil
}

// dateFlag is a flag.Value for an optional date.
type dateFlag struct{ *date.Date }

func (d *dateFlag) String() string {
	if d.Date == nil {
		return ""
	}
	return d.Date.String()
}

func (d *dateFlag) Set(s string) error {
	v, err := date.ParseOptional(s)
	if err != nil {
		return err
	}
	d.Date = v
	return nil
}

// value returns the date or the zero date, which the engine reads as today.
func (d dateFlag) value() date.Date {
	if d.Date == nil {
		return date.Date{}
	}
	return *d.Date
}

// itemID accepts an item id or SKU.
func itemID(b *books.Books, ref string) string {
	if it, ok := b.ItemBySKU(ref); ok {
		return it.ID
	}
	return ref
}

// partyID accepts a party id or name.
func partyID(b *books.Books, ref string) string {
	if p, ok := b.PartyByName(ref); ok {
		return p.ID
	}
	return ref
}

// attachment reads the file to attach, if any.
func attachment(path string) (*books.File, error) {
	if path == "" {
		return nil, nil
	}
	f, err := books.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

package books

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/books/date"
	"github.com/etnz/books/store"
	"github.com/shopspring/decimal"
)

type record interface{ key() string }

// collection is an ordered set of records, indexed by id.
type collection[T record] struct {
	order []string
	rows  map[string]T
}

func (c *collection[T]) get(id string) (T, bool) {
	v, ok := c.rows[id]
	return v, ok
}

func (c *collection[T]) put(v T) {
	if c.rows == nil {
		c.rows = make(map[string]T)
	}
	id := v.key()
	if _, exists := c.rows[id]; !exists {
		c.order = append(c.order, id)
	}
	c.rows[id] = v
}

func (c *collection[T]) delete(id string) bool {
	if _, exists := c.rows[id]; !exists {
		return false
	}
	delete(c.rows, id)
	c.order = slices.DeleteFunc(c.order, func(x string) bool { return x == id })
	return true
}

func (c *collection[T]) all() []T {
	res := make([]T, 0, len(c.order))
	for _, id := range c.order {
		res = append(res, c.rows[id])
	}
	return res
}

func (c *collection[T]) filter(keep func(T) bool) collection[T] {
	var res collection[T]
	for _, id := range c.order {
		if v := c.rows[id]; keep(v) {
			res.put(v)
		}
	}
	return res
}

func (c *collection[T]) clone() collection[T] {
	res := collection[T]{order: slices.Clone(c.order), rows: make(map[string]T, len(c.rows))}
	for k, v := range c.rows {
		res.rows[k] = v
	}
	return res
}

// Books is the in-memory image of the store: every record, typed.
//
// A Books returned by the Engine is never modified. Operations work on a
// draft copy that also collects the writes to commit.
type Books struct {
	items       collection[Item]
	movements   collection[StockMovement]
	purchases   collection[Purchase]
	sales       collection[Sale]
	expenses    collection[Expense]
	entries     collection[LedgerEntry]
	parties     collection[Party]
	banks       collection[Bank]
	attachments collection[Attachment]
	settings    Settings

	byItem map[string][]string // movement ids of each item

	// draft only
	pending *store.Batch
	err     error
}

// NewBooks returns empty books.
func NewBooks() *Books {
	return &Books{settings: DefaultSettings(), byItem: make(map[string][]string)}
}

// draft returns a writable copy of b.
func (b *Books) draft() *Books {
	d := &Books{
		items:       b.items.clone(),
		movements:   b.movements.clone(),
		purchases:   b.purchases.clone(),
		sales:       b.sales.clone(),
		expenses:    b.expenses.clone(),
		entries:     b.entries.clone(),
		parties:     b.parties.clone(),
		banks:       b.banks.clone(),
		attachments: b.attachments.clone(),
		settings:    b.settings,
		byItem:      make(map[string][]string, len(b.byItem)),
		pending:     &store.Batch{},
	}
	for k, v := range b.byItem {
		d.byItem[k] = slices.Clone(v)
	}
	return d
}

// stage records v as written in the pending batch.
func (b *Books) stage(collection, id string, v any) {
	if b.pending == nil {
		panic("books: write outside of a draft")
	}
	data, err := json.Marshal(v)
	if err != nil {
		if b.err == nil {
			b.err = fmt.Errorf("could not encode %s/%s: %w", collection, id, err)
		}
		return
	}
	b.pending.Put(collection, id, data)
}

func (b *Books) unstage(collection, id string) {
	if b.pending == nil {
		panic("books: write outside of a draft")
	}
	b.pending.Delete(collection, id)
}

func (b *Books) putItem(v Item)             { b.items.put(v); b.stage(store.Items, v.ID, v) }
func (b *Books) putPurchase(v Purchase)     { b.purchases.put(v); b.stage(store.Purchases, v.ID, v) }
func (b *Books) putSale(v Sale)             { b.sales.put(v); b.stage(store.Sales, v.ID, v) }
func (b *Books) putExpense(v Expense)       { b.expenses.put(v); b.stage(store.Expenses, v.ID, v) }
func (b *Books) putEntry(v LedgerEntry)     { b.entries.put(v); b.stage(store.LedgerEntries, v.ID, v) }
func (b *Books) putParty(v Party)           { b.parties.put(v); b.stage(store.Parties, v.ID, v) }
func (b *Books) putBank(v Bank)             { b.banks.put(v); b.stage(store.Banks, v.ID, v) }
func (b *Books) putAttachment(v Attachment) { b.attachments.put(v); b.stage(store.Attachments, v.ID, v) }

func (b *Books) deleteItem(id string) {
	if b.items.delete(id) {
		b.unstage(store.Items, id)
	}
}

func (b *Books) deletePurchase(id string) {
	if b.purchases.delete(id) {
		b.unstage(store.Purchases, id)
	}
}

func (b *Books) deleteSale(id string) {
	if b.sales.delete(id) {
		b.unstage(store.Sales, id)
	}
}

func (b *Books) deleteExpense(id string) {
	if b.expenses.delete(id) {
		b.unstage(store.Expenses, id)
	}
}

func (b *Books) deleteEntry(id string) {
	if b.entries.delete(id) {
		b.unstage(store.LedgerEntries, id)
	}
}

func (b *Books) deleteParty(id string) {
	if b.parties.delete(id) {
		b.unstage(store.Parties, id)
	}
}

func (b *Books) deleteAttachment(id string) {
	if b.attachments.delete(id) {
		b.unstage(store.Attachments, id)
	}
}

// putMovement writes a movement and maintains the per item index.
func (b *Books) putMovement(m StockMovement) {
	old, exists := b.movements.get(m.ID)
	if exists && old.ItemID != m.ItemID {
		b.unindex(old)
	}
	if !exists || old.ItemID != m.ItemID {
		b.byItem[m.ItemID] = append(b.byItem[m.ItemID], m.ID)
	}
	b.movements.put(m)
	if b.pending != nil {
		b.stage(store.StockMovements, m.ID, m)
	}
}

func (b *Books) deleteMovement(id string) {
	m, ok := b.movements.get(id)
	if !ok {
		return
	}
	b.unindex(m)
	b.movements.delete(id)
	b.unstage(store.StockMovements, id)
}

func (b *Books) unindex(m StockMovement) {
	b.byItem[m.ItemID] = slices.DeleteFunc(b.byItem[m.ItemID], func(x string) bool { return x == m.ID })
	if len(b.byItem[m.ItemID]) == 0 {
		delete(b.byItem, m.ItemID)
	}
}

// Settings returns the business preferences.
func (b *Books) Settings() Settings { return b.settings }

// Currency returns the currency of the books.
func (b *Books) Currency() string { return b.settings.Currency }

func (b *Books) Items() []Item                           { return b.items.all() }
func (b *Books) Item(id string) (Item, bool)             { return b.items.get(id) }
func (b *Books) Movements() []StockMovement              { return b.movements.all() }
func (b *Books) Purchases() []Purchase                   { return b.purchases.all() }
func (b *Books) Purchase(id string) (Purchase, bool)     { return b.purchases.get(id) }
func (b *Books) Sales() []Sale                           { return b.sales.all() }
func (b *Books) Sale(id string) (Sale, bool)             { return b.sales.get(id) }
func (b *Books) Expenses() []Expense                     { return b.expenses.all() }
func (b *Books) Expense(id string) (Expense, bool)       { return b.expenses.get(id) }
func (b *Books) Entries() []LedgerEntry                  { return b.entries.all() }
func (b *Books) Entry(id string) (LedgerEntry, bool)     { return b.entries.get(id) }
func (b *Books) Parties() []Party                        { return b.parties.all() }
func (b *Books) Party(id string) (Party, bool)           { return b.parties.get(id) }
func (b *Books) Banks() []Bank                           { return b.banks.all() }
func (b *Books) Bank(id string) (Bank, bool)             { return b.banks.get(id) }
func (b *Books) Attachments() []Attachment               { return b.attachments.all() }
func (b *Books) Attachment(id string) (Attachment, bool) { return b.attachments.get(id) }

// MovementsOf returns the movements of an item in insertion order.
func (b *Books) MovementsOf(itemID string) []StockMovement {
	ids := b.byItem[itemID]
	res := make([]StockMovement, 0, len(ids))
	for _, id := range ids {
		res = append(res, b.movements.rows[id])
	}
	return res
}

// ItemBySKU finds an item by its SKU, case insensitive.
func (b *Books) ItemBySKU(sku string) (Item, bool) {
	for _, it := range b.items.all() {
		if strings.EqualFold(it.SKU, sku) {
			return it, true
		}
	}
	return Item{}, false
}

// PartyByName finds a party by its name, case insensitive.
func (b *Books) PartyByName(name string) (Party, bool) {
	for _, p := range b.parties.all() {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Party{}, false
}

// PartyName returns the display name of a party.
func (b *Books) PartyName(id string) string {
	if p, ok := b.parties.get(id); ok {
		return p.Name
	}
	return "Unknown"
}

// ItemName returns the display name of an item.
func (b *Books) ItemName(id string) string {
	if it, ok := b.items.get(id); ok {
		return it.Name
	}
	return "Unknown"
}

// Within restricts the transactional collections of b to the records
// dated within r. Items, parties, banks and settings are kept.
func (b *Books) Within(r date.Range) *Books { return b.keep(r.Contains) }

// AsOf restricts b to the records dated on or before end, the books as they
// stood that day.
func (b *Books) AsOf(end date.Date) *Books {
	return b.keep(func(d date.Date) bool { return !d.After(end) })
}

func (b *Books) keep(on func(date.Date) bool) *Books {
	v := &Books{
		items:       b.items,
		movements:   b.movements.filter(func(m StockMovement) bool { return on(m.Date) }),
		purchases:   b.purchases.filter(func(p Purchase) bool { return on(p.Date) }),
		sales:       b.sales.filter(func(s Sale) bool { return on(s.Date) }),
		expenses:    b.expenses.filter(func(e Expense) bool { return on(e.Date) }),
		entries:     b.entries.filter(func(e LedgerEntry) bool { return on(e.Date) }),
		parties:     b.parties,
		banks:       b.banks,
		attachments: b.attachments,
		settings:    b.settings,
		byItem:      make(map[string][]string),
	}
	for _, id := range v.movements.order {
		m := v.movements.rows[id]
		v.byItem[m.ItemID] = append(v.byItem[m.ItemID], id)
	}
	return v
}

// decodeAll decodes the records of a collection.
func decodeAll[T record](records []store.Record, c *collection[T], name string) error {
	for _, r := range records {
		var v T
		if err := json.Unmarshal(r.Data, &v); err != nil {
			return fmt.Errorf("could not decode %s/%s: %w", name, r.ID, err)
		}
		c.put(v)
	}
	return nil
}

// loadBooks reads every collection of s.
func loadBooks(ctx context.Context, s store.Store) (*Books, error) {
	b, err := readBooks(ctx, s)
	if err != nil {
		return nil, storageError(err)
	}
	return b, nil
}

func readBooks(ctx context.Context, s store.Store) (*Books, error) {
	b := NewBooks()
	for _, name := range store.Collections {
		records, err := s.GetAll(ctx, name)
		if err != nil {
			return nil, err
		}
		switch name {
		case store.Items:
			err = decodeAll(records, &b.items, name)
		case store.StockMovements:
			var ms collection[StockMovement]
			err = decodeAll(records, &ms, name)
			for _, m := range ms.all() {
				b.putMovement(m)
			}
		case store.Purchases:
			err = decodeAll(records, &b.purchases, name)
		case store.Sales:
			err = decodeAll(records, &b.sales, name)
		case store.Expenses:
			err = decodeAll(records, &b.expenses, name)
		case store.LedgerEntries:
			err = decodeAll(records, &b.entries, name)
		case store.Parties:
			err = decodeAll(records, &b.parties, name)
		case store.Banks:
			err = decodeAll(records, &b.banks, name)
		case store.Attachments:
			err = decodeAll(records, &b.attachments, name)
		}
		if err != nil {
			return nil, err
		}
	}
	raw, err := s.GetMeta(ctx, metaSettings)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(raw, &b.settings); err != nil {
			return nil, fmt.Errorf("could not decode settings: %w", err)
		}
	}
	return b, nil
}

// Meta keys.
const (
	metaSettings   = "settings"
	metaAutoBackup = "autoBackupConfig"
	metaSchema     = "schema"
)

// totalQuantity sums movement quantities.
func totalQuantity(ms []StockMovement) decimal.Decimal {
	return sum(ms, func(m StockMovement) decimal.Decimal { return m.Quantity })
}

package books

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/etnz/books/store"
	"github.com/sirupsen/logrus"
)

// SchemaVersion is the version of the books written by this package.
// Version 2 books link entries to their records through descriptions only.
const SchemaVersion = 3

const legacySchemaVersion = 2

// MigrationReport counts what MigrateLegacyReferences changed.
type MigrationReport struct {
	Movements int // movements given a referenceId
	Entries   int // entries given a referenceId
	LoanLegs  int // balancing legs added to loans
	Orphans   int // entries no record could be found for
}

// Changed reports whether anything was migrated.
func (r MigrationReport) Changed() bool { return r.Movements+r.Entries+r.LoanLegs > 0 }

// schemaVersion reads the schema meta slot. Books without one are new when
// empty (version 0) and legacy otherwise.
func (e *Engine) schemaVersion(ctx context.Context) (int, error) {
	raw, err := e.store.GetMeta(ctx, metaSchema)
	if errors.Is(err, store.ErrNotFound) {
		if len(e.Books().Items()) == 0 && len(e.Books().Entries()) == 0 {
			return 0, nil
		}
		return legacySchemaVersion, nil
	}
	if err != nil {
		return 0, storageError(err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return legacySchemaVersion, nil
	}
	return v, nil
}

// migrate brings legacy books to SchemaVersion.
func (e *Engine) migrate(ctx context.Context) error {
	v, err := e.schemaVersion(ctx)
	if err != nil || v >= SchemaVersion {
		return err
	}
	if v == 0 {
		// new books
		if err := store.PutMeta(ctx, e.store, metaSchema, json.RawMessage(strconv.Itoa(SchemaVersion))); err != nil {
			return storageError(err)
		}
		return nil
	}
	report, err := e.MigrateLegacyReferences(ctx)
	if err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{
		"from":      v,
		"movements": report.Movements,
		"entries":   report.Entries,
		"loanLegs":  report.LoanLegs,
		"orphans":   report.Orphans,
	}).Info("books migrated")
	return nil
}

// MigrateLegacyReferences sets the missing referenceId of movements and
// entries, and records the schema version.
//
// Movements are matched to the purchase or sale with the same item, date
// and absolute quantity, openings to their item. Entries are matched to the
// record whose id their description contains, the longest id winning. Cash,
// bank, loan and capital rows become their own reference, and loans get the
// cash leg that balances them.
func (e *Engine) MigrateLegacyReferences(ctx context.Context) (MigrationReport, error) {
	var report MigrationReport
	err := e.mutate(ctx, "migrate", func(d *Books) error {
		report = d.migrateReferences()
		d.pending.PutMeta(metaSchema, json.RawMessage(strconv.Itoa(SchemaVersion)))
		return nil
	})
	return report, err
}

func (d *Books) migrateReferences() MigrationReport {
	var report MigrationReport

	claimed := make(map[string]bool)
	for _, m := range d.movements.all() {
		if m.ReferenceID != "" {
			claimed[m.ReferenceID] = true
		}
	}
	for _, m := range d.movements.all() {
		if m.ReferenceID != "" {
			continue
		}
		ref := d.legacyMovementOwner(m, claimed)
		if ref == "" {
			continue
		}
		claimed[ref] = true
		m.ReferenceID = ref
		d.putMovement(m)
		report.Movements++
	}

	var records []string
	for _, p := range d.purchases.all() {
		records = append(records, p.ID)
	}
	for _, s := range d.sales.all() {
		records = append(records, s.ID)
	}
	for _, x := range d.expenses.all() {
		records = append(records, x.ID)
	}

	hasLeg := make(map[string]bool)
	for _, e := range d.entries.all() {
		if e.ReferenceID != "" && e.ReferenceID != e.ID {
			hasLeg[e.ReferenceID] = true
		}
	}
	for _, e := range d.entries.all() {
		if e.ReferenceID != "" {
			continue
		}
		switch {
		case isLoanAccount(e.AccountID):
			e.ReferenceID = e.ID
			d.putEntry(e)
			report.Entries++
			if !hasLeg[e.ID] && e.Type == Credit {
				d.postFunds(e, AccountCash)
				report.LoanLegs++
			}
		case ownerByDescription(e.Description, records) != "":
			e.ReferenceID = ownerByDescription(e.Description, records)
			d.putEntry(e)
			report.Entries++
		case e.AccountID == AccountCash || d.isBank(e.AccountID):
			e.ReferenceID = e.ID
			d.putEntry(e)
			report.Entries++
		default:
			report.Orphans++
		}
	}
	return report
}

// legacyMovementOwner finds the record a movement without reference was
// created for.
func (d *Books) legacyMovementOwner(m StockMovement, claimed map[string]bool) string {
	matches := func(t Trade) bool {
		return !claimed[t.ID] && t.ItemID == m.ItemID && t.Date == m.Date && t.Quantity.Equal(m.Quantity.Abs())
	}
	switch m.Type {
	case MovementOpening:
		if _, ok := d.items.get(m.ItemID); ok && !claimed[m.ItemID] {
			return m.ItemID
		}
	case MovementPurchase:
		for _, p := range d.purchases.all() {
			if matches(p.Trade) {
				return p.ID
			}
		}
	case MovementSale:
		for _, s := range d.sales.all() {
			if matches(s.Trade) {
				return s.ID
			}
		}
	}
	return ""
}

// ownerByDescription returns the longest of ids contained in description.
func ownerByDescription(description string, ids []string) string {
	best := ""
	for _, id := range ids {
		if len(id) > len(best) && strings.Contains(description, id) {
			best = id
		}
	}
	return best
}

func (d *Books) isBank(id string) bool {
	_, ok := d.banks.get(id)
	return ok
}

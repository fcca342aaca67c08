// Package store persists the books as named collections of JSON records plus
// a small key/value meta area.
//
// All writes go through a Batch committed with Store.Commit: a batch is
// applied entirely or not at all. Records keep their insertion order;
// replacing an existing record keeps its position.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Collection names.
const (
	Items          = "items"
	StockMovements = "stockMovements"
	Purchases      = "purchases"
	Sales          = "sales"
	Expenses       = "expenses"
	LedgerEntries  = "ledgerEntries"
	Parties        = "parties"
	Banks          = "banks"
	Attachments    = "attachments"
)

// Collections lists every collection, in export order.
var Collections = []string{Items, StockMovements, Purchases, Sales, Expenses, LedgerEntries, Parties, Banks, Attachments}

var (
	// ErrNotFound is returned when a record or meta key does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnknownCollection is returned for a collection name outside Collections.
	ErrUnknownCollection = errors.New("unknown collection")
)

// Record is a stored JSON document and its key.
type Record struct {
	ID   string
	Data json.RawMessage
}

// Store is the persistence contract of the books.
type Store interface {
	// GetAll returns the records of a collection in insertion order.
	GetAll(ctx context.Context, collection string) ([]Record, error)
	// Get returns one record or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Record, error)
	// GetMeta returns a meta value or ErrNotFound.
	GetMeta(ctx context.Context, key string) (json.RawMessage, error)
	// Commit applies every operation of b atomically.
	Commit(ctx context.Context, b *Batch) error
	Close() error
}

// OpKind is the kind of a batch operation.
type OpKind int

const (
	OpPut OpKind = iota
	OpDelete
	OpClear
	OpPutMeta
)

// Op is a single write in a Batch.
type Op struct {
	Kind       OpKind
	Collection string // or the meta key for OpPutMeta
	ID         string
	Data       json.RawMessage
}

// Batch is an ordered list of writes.
type Batch struct {
	Ops []Op
}

// Put inserts or replaces a record.
func (b *Batch) Put(collection, id string, data json.RawMessage) {
	b.Ops = append(b.Ops, Op{Kind: OpPut, Collection: collection, ID: id, Data: data})
}

// Delete removes a record. Deleting a missing record is not an error.
func (b *Batch) Delete(collection, id string) {
	b.Ops = append(b.Ops, Op{Kind: OpDelete, Collection: collection, ID: id})
}

// Clear removes every record of a collection.
func (b *Batch) Clear(collection string) {
	b.Ops = append(b.Ops, Op{Kind: OpClear, Collection: collection})
}

// PutMeta sets a meta value.
func (b *Batch) PutMeta(key string, data json.RawMessage) {
	b.Ops = append(b.Ops, Op{Kind: OpPutMeta, Collection: key, Data: data})
}

// Len returns the number of operations in the batch.
func (b *Batch) Len() int { return len(b.Ops) }

// validate checks the batch before any of it is applied.
func (b *Batch) validate() error {
	for i, op := range b.Ops {
		switch op.Kind {
		case OpPutMeta:
			if op.Collection == "" {
				return fmt.Errorf("op %d: empty meta key", i)
			}
			if !json.Valid(op.Data) {
				return fmt.Errorf("op %d: invalid json for meta %q", i, op.Collection)
			}
			continue
		case OpPut:
			if !json.Valid(op.Data) {
				return fmt.Errorf("op %d: invalid json for %s/%s", i, op.Collection, op.ID)
			}
			fallthrough
		case OpDelete:
			if op.ID == "" {
				return fmt.Errorf("op %d: empty id in %s", i, op.Collection)
			}
		}
		if !slices.Contains(Collections, op.Collection) {
			return fmt.Errorf("op %d: %w %q", i, ErrUnknownCollection, op.Collection)
		}
	}
	return nil
}

// Put writes a single record.
func Put(ctx context.Context, s Store, collection, id string, data json.RawMessage) error {
	var b Batch
	b.Put(collection, id, data)
	return s.Commit(ctx, &b)
}

// Delete removes a single record.
func Delete(ctx context.Context, s Store, collection, id string) error {
	var b Batch
	b.Delete(collection, id)
	return s.Commit(ctx, &b)
}

// PutMeta writes a single meta value.
func PutMeta(ctx context.Context, s Store, key string, data json.RawMessage) error {
	var b Batch
	b.PutMeta(key, data)
	return s.Commit(ctx, &b)
}

package store

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
)

// table is an ordered set of records.
type table struct {
	order []string
	rows  map[string]json.RawMessage
}

func newTable() *table { return &table{rows: make(map[string]json.RawMessage)} }

func (t *table) put(id string, data json.RawMessage) {
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = slices.Clone(data)
}

func (t *table) delete(id string) {
	if _, exists := t.rows[id]; !exists {
		return
	}
	delete(t.rows, id)
	t.order = slices.DeleteFunc(t.order, func(x string) bool { return x == id })
}

func (t *table) records() []Record {
	res := make([]Record, 0, len(t.order))
	for _, id := range t.order {
		res = append(res, Record{ID: id, Data: slices.Clone(t.rows[id])})
	}
	return res
}

// tables is the in-memory image shared by Memory and Folder.
type tables struct {
	colls map[string]*table
	meta  map[string]json.RawMessage
}

func newTables() *tables {
	t := &tables{colls: make(map[string]*table), meta: make(map[string]json.RawMessage)}
	for _, c := range Collections {
		t.colls[c] = newTable()
	}
	return t
}

// clone copies the collections touched by b, the others are shared.
func (t *tables) clone(b *Batch) *tables {
	res := &tables{colls: make(map[string]*table, len(t.colls)), meta: t.meta}
	for name, tb := range t.colls {
		res.colls[name] = tb
	}
	metaCopied := false
	for _, op := range b.Ops {
		if op.Kind == OpPutMeta {
			if !metaCopied {
				res.meta = make(map[string]json.RawMessage, len(t.meta)+1)
				for k, v := range t.meta {
					res.meta[k] = v
				}
				metaCopied = true
			}
			continue
		}
		if res.colls[op.Collection] != t.colls[op.Collection] {
			continue // already copied
		}
		old := t.colls[op.Collection]
		cp := &table{order: slices.Clone(old.order), rows: make(map[string]json.RawMessage, len(old.rows))}
		for k, v := range old.rows {
			cp.rows[k] = v
		}
		res.colls[op.Collection] = cp
	}
	return res
}

// apply applies b and returns the collections and whether meta were modified.
func (t *tables) apply(b *Batch) (dirty map[string]bool, metaDirty bool) {
	dirty = make(map[string]bool)
	for _, op := range b.Ops {
		switch op.Kind {
		case OpPut:
			t.colls[op.Collection].put(op.ID, op.Data)
		case OpDelete:
			t.colls[op.Collection].delete(op.ID)
		case OpClear:
			t.colls[op.Collection] = newTable()
		case OpPutMeta:
			t.meta[op.Collection] = slices.Clone(op.Data)
			metaDirty = true
			continue
		}
		dirty[op.Collection] = true
	}
	return dirty, metaDirty
}

func (t *tables) getAll(collection string) ([]Record, error) {
	tb, ok := t.colls[collection]
	if !ok {
		return nil, ErrUnknownCollection
	}
	return tb.records(), nil
}

func (t *tables) get(collection, id string) (Record, error) {
	tb, ok := t.colls[collection]
	if !ok {
		return Record{}, ErrUnknownCollection
	}
	data, ok := tb.rows[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return Record{ID: id, Data: slices.Clone(data)}, nil
}

func (t *tables) getMeta(key string) (json.RawMessage, error) {
	v, ok := t.meta[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

// Memory is a volatile Store.
type Memory struct {
	mu   sync.RWMutex
	data *tables
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory { return &Memory{data: newTables()} }

func (m *Memory) GetAll(_ context.Context, collection string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.getAll(collection)
}

func (m *Memory) Get(_ context.Context, collection, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.get(collection, id)
}

func (m *Memory) GetMeta(_ context.Context, key string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.getMeta(key)
}

func (m *Memory) Commit(ctx context.Context, b *Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.data.clone(b)
	next.apply(b)
	m.data = next
	return nil
}

func (m *Memory) Close() error { return nil }

package books

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/etnz/books/config"
	"github.com/etnz/books/store"
)

// Snapshot is every record of the books, as exported and imported.
type Snapshot struct {
	Version    int                          `json:"version"`
	ExportedAt time.Time                    `json:"exportedAt"`
	Data       map[string][]json.RawMessage `json:"data"`
	Settings   *Settings                    `json:"settings,omitempty"`
}

// ParseSnapshot reads a snapshot. A bare data object, without version nor
// exportedAt, is read as a legacy snapshot.
func ParseSnapshot(raw []byte) (Snapshot, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return Snapshot{}, invalid("snapshot", "not a JSON object: %v", err)
	}
	var s Snapshot
	if _, ok := top["data"]; ok {
		if err := json.Unmarshal(raw, &s); err != nil {
			return Snapshot{}, invalid("snapshot", "%v", err)
		}
	} else if err := json.Unmarshal(raw, &s.Data); err != nil {
		return Snapshot{}, invalid("snapshot", "%v", err)
	}
	if s.Version == 0 {
		s.Version = legacySchemaVersion
	}
	return s, nil
}

// ExportSnapshot returns the records as stored.
func (e *Engine) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exportSnapshot(ctx)
}

func (e *Engine) exportSnapshot(ctx context.Context) (Snapshot, error) {
	s := Snapshot{
		Version:    SchemaVersion,
		ExportedAt: e.now().UTC(),
		Data:       make(map[string][]json.RawMessage, len(store.Collections)),
	}
	for _, name := range store.Collections {
		records, err := e.store.GetAll(ctx, name)
		if err != nil {
			return Snapshot{}, storageError(err)
		}
		rows := make([]json.RawMessage, 0, len(records))
		for _, r := range records {
			rows = append(rows, r.Data)
		}
		s.Data[name] = rows
	}
	settings := e.Books().Settings()
	s.Settings = &settings
	return s, nil
}

// ImportSnapshot replaces every collection by the records of s in a single
// commit. Unknown collections are ignored, missing ones are emptied. Legacy
// snapshots are migrated once loaded.
func (e *Engine) ImportSnapshot(ctx context.Context, s Snapshot) (err error) {
	start := time.Now()
	defer func() { e.metrics.observe("import", start, err) }()

	var b store.Batch
	for _, name := range store.Collections {
		b.Clear(name)
		for i, raw := range s.Data[name] {
			id, err := recordID(raw)
			if err != nil {
				return invalid(name, "record %d: %v", i, err)
			}
			var compact bytes.Buffer
			if err := json.Compact(&compact, raw); err != nil {
				return invalid(name, "record %d: %v", i, err)
			}
			b.Put(name, id, compact.Bytes())
		}
	}
	if s.Settings != nil {
		data, err := json.Marshal(s.Settings)
		if err != nil {
			return err
		}
		b.PutMeta(metaSettings, data)
	}
	version := s.Version
	if version == 0 {
		version = legacySchemaVersion
	}
	b.PutMeta(metaSchema, json.RawMessage(strconv.Itoa(version)))

	if err := e.replace(ctx, &b); err != nil {
		return err
	}
	return e.migrate(ctx)
}

// replace commits b and reloads the books from the store. The batch is
// first applied to a scratch store so that records the books cannot read
// are rejected before anything is written.
func (e *Engine) replace(ctx context.Context, b *store.Batch) error {
	scratch := store.NewMemory()
	if err := scratch.Commit(ctx, b); err != nil {
		return invalid("snapshot", "%v", err)
	}
	books, err := readBooks(ctx, scratch)
	if err != nil {
		return invalid("snapshot", "%v", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.Commit(ctx, b); err != nil {
		err = storageError(err)
		config.LogError(e.log, "books", "replace", "commit", b.Len(), err)
		return err
	}
	e.books.Store(books)
	for _, f := range e.listeners {
		f()
	}
	return nil
}

// recordID reads the "id" field of a JSON record.
func recordID(raw json.RawMessage) (string, error) {
	var r struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", err
	}
	if r.ID == "" {
		return "", errors.New("record without an id")
	}
	return r.ID, nil
}

// MarshalIndent returns s as indented JSON.
func (s Snapshot) MarshalIndent() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("could not encode snapshot: %w", err)
	}
	return data, nil
}

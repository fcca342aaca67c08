package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// testContract runs the behaviour every Store must share.
func testContract(t *testing.T, open func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("put then get", func(t *testing.T) {
		s := open(t)
		if err := Put(ctx, s, Items, "a", json.RawMessage(`{"id":"a","sku":"A"}`)); err != nil {
			t.Fatalf("Put() unexpected error: %v", err)
		}
		rec, err := s.Get(ctx, Items, "a")
		if err != nil {
			t.Fatalf("Get() unexpected error: %v", err)
		}
		if got, want := string(rec.Data), `{"id":"a","sku":"A"}`; got != want {
			t.Errorf("Get() = %s, want %s", got, want)
		}
	})

	t.Run("missing record", func(t *testing.T) {
		s := open(t)
		if _, err := s.Get(ctx, Items, "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
		if _, err := s.GetMeta(ctx, "settings"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetMeta() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("order is insertion order", func(t *testing.T) {
		s := open(t)
		var b Batch
		b.Put(Sales, "b", json.RawMessage(`{"id":"b"}`))
		b.Put(Sales, "a", json.RawMessage(`{"id":"a"}`))
		b.Put(Sales, "c", json.RawMessage(`{"id":"c"}`))
		b.Put(Sales, "b", json.RawMessage(`{"id":"b","v":2}`))
		b.Delete(Sales, "c")
		if err := s.Commit(ctx, &b); err != nil {
			t.Fatalf("Commit() unexpected error: %v", err)
		}
		all, err := s.GetAll(ctx, Sales)
		if err != nil {
			t.Fatalf("GetAll() unexpected error: %v", err)
		}
		if len(all) != 2 || all[0].ID != "b" || all[1].ID != "a" {
			t.Fatalf("GetAll() = %v, want [b a]", all)
		}
		if got, want := string(all[0].Data), `{"id":"b","v":2}`; got != want {
			t.Errorf("GetAll()[0] = %s, want %s", got, want)
		}
	})

	t.Run("invalid batch is not applied", func(t *testing.T) {
		s := open(t)
		var b Batch
		b.Put(Items, "a", json.RawMessage(`{"id":"a"}`))
		b.Put("widgets", "w", json.RawMessage(`{"id":"w"}`))
		if err := s.Commit(ctx, &b); !errors.Is(err, ErrUnknownCollection) {
			t.Fatalf("Commit() error = %v, want ErrUnknownCollection", err)
		}
		all, err := s.GetAll(ctx, Items)
		if err != nil {
			t.Fatalf("GetAll() unexpected error: %v", err)
		}
		if len(all) != 0 {
			t.Errorf("GetAll() = %v, want no record", all)
		}
	})

	t.Run("clear and meta", func(t *testing.T) {
		s := open(t)
		var b Batch
		b.Put(Banks, "x", json.RawMessage(`{"id":"x"}`))
		b.PutMeta("settings", json.RawMessage(`{"currency":"USD"}`))
		if err := s.Commit(ctx, &b); err != nil {
			t.Fatalf("Commit() unexpected error: %v", err)
		}
		var clear Batch
		clear.Clear(Banks)
		if err := s.Commit(ctx, &clear); err != nil {
			t.Fatalf("Commit() unexpected error: %v", err)
		}
		all, _ := s.GetAll(ctx, Banks)
		if len(all) != 0 {
			t.Errorf("GetAll() after Clear = %v, want no record", all)
		}
		meta, err := s.GetMeta(ctx, "settings")
		if err != nil {
			t.Fatalf("GetMeta() unexpected error: %v", err)
		}
		if got, want := string(meta), `{"currency":"USD"}`; got != want {
			t.Errorf("GetMeta() = %s, want %s", got, want)
		}
	})
}

func TestMemory(t *testing.T) {
	testContract(t, func(t *testing.T) Store { return NewMemory() })
}

func TestFolder(t *testing.T) {
	testContract(t, func(t *testing.T) Store {
		s, err := OpenFolder(t.TempDir())
		if err != nil {
			t.Fatalf("OpenFolder() unexpected error: %v", err)
		}
		return s
	})
}

func TestFolder_Reopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := OpenFolder(dir)
	if err != nil {
		t.Fatalf("OpenFolder() unexpected error: %v", err)
	}
	var b Batch
	b.Put(Items, "a", json.RawMessage(`{ "id": "a",  "name": "Desk" }`))
	b.Put(Items, "b", json.RawMessage(`{"id":"b"}`))
	b.PutMeta("schema", json.RawMessage(`3`))
	if err := s.Commit(ctx, &b); err != nil {
		t.Fatalf("Commit() unexpected error: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "items.jsonl"))
	if err != nil {
		t.Fatalf("ReadFile() unexpected error: %v", err)
	}
	if got, want := string(content), "{\"id\":\"a\",\"name\":\"Desk\"}\n{\"id\":\"b\"}\n"; got != want {
		t.Errorf("items.jsonl = %q, want %q", got, want)
	}
	if _, err := os.Stat(filepath.Join(dir, "sales.jsonl")); err == nil {
		t.Error("sales.jsonl written although the collection was not modified")
	}

	reopened, err := OpenFolder(dir)
	if err != nil {
		t.Fatalf("OpenFolder() unexpected error: %v", err)
	}
	all, err := reopened.GetAll(ctx, Items)
	if err != nil {
		t.Fatalf("GetAll() unexpected error: %v", err)
	}
	if len(all) != 2 || all[0].ID != "a" || all[1].ID != "b" {
		t.Errorf("GetAll() after reopen = %v, want [a b]", all)
	}
	meta, err := reopened.GetMeta(ctx, "schema")
	if err != nil || string(meta) != "3" {
		t.Errorf("GetMeta() = %s, %v, want 3, nil", meta, err)
	}
}

func TestFolder_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "items.jsonl"), []byte("{\"id\":\"a\"}\nnot json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenFolder(dir); err == nil {
		t.Error("OpenFolder() expected an error for a corrupted file")
	}
}

package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const metaFile = "meta.json"

// Folder is a Store persisted in a directory: one JSON Lines file per
// collection ("items.jsonl", ...) and a "meta.json" object.
//
// The whole content is kept in memory. A commit rewrites the files of the
// collections it touches through a temporary file renamed over the old one.
type Folder struct {
	dir  string
	mu   sync.RWMutex
	data *tables
}

// OpenFolder loads the store in dir, creating the directory if needed.
func OpenFolder(dir string) (*Folder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create store directory %q: %w", dir, err)
	}
	f := &Folder{dir: dir, data: newTables()}
	for _, c := range Collections {
		if err := f.load(c); err != nil {
			return nil, err
		}
	}
	content, err := os.ReadFile(filepath.Join(dir, metaFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("could not read %q: %w", metaFile, err)
	default:
		if err := json.Unmarshal(content, &f.data.meta); err != nil {
			return nil, fmt.Errorf("could not decode %q: %w", metaFile, err)
		}
	}
	return f, nil
}

// Dir returns the directory of the store.
func (f *Folder) Dir() string { return f.dir }

func (f *Folder) path(collection string) string {
	return filepath.Join(f.dir, collection+".jsonl")
}

func (f *Folder) load(collection string) error {
	file, err := os.Open(f.path(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not open %q: %w", f.path(collection), err)
	}
	defer file.Close()

	tb := f.data.colls[collection]
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024) // attachments are inlined
	line := 0
	for scanner.Scan() {
		line++
		row := bytes.TrimSpace(scanner.Bytes())
		if len(row) == 0 {
			continue
		}
		var key struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(row, &key); err != nil {
			return fmt.Errorf("%s:%d: %w", f.path(collection), line, err)
		}
		if key.ID == "" {
			return fmt.Errorf("%s:%d: record without id", f.path(collection), line)
		}
		tb.put(key.ID, row)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("could not read %q: %w", f.path(collection), err)
	}
	return nil
}

func (f *Folder) GetAll(_ context.Context, collection string) ([]Record, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.data.getAll(collection)
}

func (f *Folder) Get(_ context.Context, collection, id string) (Record, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.data.get(collection, id)
}

func (f *Folder) GetMeta(_ context.Context, key string) (json.RawMessage, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.data.getMeta(key)
}

func (f *Folder) Commit(ctx context.Context, b *Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.data.clone(b)
	dirty, metaDirty := next.apply(b)

	// Write every file first, rename them once they are all complete.
	var pending []string
	defer func() {
		for _, tmp := range pending {
			os.Remove(tmp)
		}
	}()
	for _, c := range Collections {
		if !dirty[c] {
			continue
		}
		var buf bytes.Buffer
		for _, rec := range next.colls[c].records() {
			if err := json.Compact(&buf, rec.Data); err != nil {
				return fmt.Errorf("could not encode %s/%s: %w", c, rec.ID, err)
			}
			buf.WriteByte('\n')
		}
		tmp, err := f.writeTemp(c+".jsonl", buf.Bytes())
		if err != nil {
			return err
		}
		pending = append(pending, tmp)
	}
	if metaDirty {
		content, err := json.MarshalIndent(next.meta, "", "  ")
		if err != nil {
			return fmt.Errorf("could not encode meta: %w", err)
		}
		tmp, err := f.writeTemp(metaFile, content)
		if err != nil {
			return err
		}
		pending = append(pending, tmp)
	}
	for len(pending) > 0 {
		tmp := pending[0]
		if err := os.Rename(tmp, tmp[:len(tmp)-len(".tmp")]); err != nil {
			return fmt.Errorf("could not replace %q: %w", tmp, err)
		}
		pending = pending[1:]
	}
	f.data = next
	return nil
}

// writeTemp writes content next to name and returns the temporary path.
func (f *Folder) writeTemp(name string, content []byte) (string, error) {
	tmp := filepath.Join(f.dir, name+".tmp")
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return "", fmt.Errorf("could not write %q: %w", tmp, err)
	}
	return tmp, nil
}

func (f *Folder) Close() error { return nil }

package books

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/etnz/books/store"
	"github.com/sirupsen/logrus"
)

// DefaultAutoBackupDelay is the quiet time after the last commit before the
// automatic backup runs.
const DefaultAutoBackupDelay = 1500 * time.Millisecond

// AutoBackupConfig is the persisted state of the automatic backup.
type AutoBackupConfig struct {
	Enabled bool       `json:"enabled"`
	LastRun *time.Time `json:"lastRun"`
	File    string     `json:"file,omitempty"` // snapshot file written on every run
}

// AutoBackup writes a snapshot file shortly after the books change.
//
// Every commit resets the timer, so a burst of operations produces a
// single backup. Runs never overlap.
type AutoBackup struct {
	engine *Engine
	delay  time.Duration
	log    logrus.FieldLogger

	mu      sync.Mutex
	config  AutoBackupConfig
	timer   *time.Timer
	pending bool

	run sync.Mutex
}

// NewAutoBackup loads the automatic backup configuration and schedules a
// backup after every commit of e.
func NewAutoBackup(ctx context.Context, e *Engine, delay time.Duration) (*AutoBackup, error) {
	if delay <= 0 {
		delay = DefaultAutoBackupDelay
	}
	a := &AutoBackup{engine: e, delay: delay, log: e.log.WithField("component", "autobackup")}
	raw, err := e.store.GetMeta(ctx, metaAutoBackup)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, storageError(err)
	default:
		if err := json.Unmarshal(raw, &a.config); err != nil {
			return nil, storageError(fmt.Errorf("could not decode %s: %w", metaAutoBackup, err))
		}
	}
	e.OnCommit(func() { a.Schedule(false) })
	return a, nil
}

// Config returns the current configuration.
func (a *AutoBackup) Config() AutoBackupConfig {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.config
}

// Configure enables or disables the automatic backup to file. Enabling it
// runs a backup right away.
func (a *AutoBackup) Configure(ctx context.Context, enabled bool, file string) error {
	if enabled && file == "" {
		return invalid("file", "is required to enable the automatic backup")
	}
	a.mu.Lock()
	a.config.Enabled = enabled
	if file != "" {
		a.config.File = file
	}
	cfg := a.config
	a.mu.Unlock()

	if err := a.save(ctx, cfg); err != nil {
		return err
	}
	if enabled {
		return a.Flush(ctx, true)
	}
	a.cancel()
	return nil
}

// Schedule (re)starts the timer. force runs the backup without waiting for
// the delay.
func (a *AutoBackup) Schedule(force bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.config.Enabled {
		return
	}
	delay := a.delay
	if force {
		delay = 0
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.pending = true
	a.timer = time.AfterFunc(delay, func() {
		if err := a.fire(context.Background()); err != nil {
			a.log.WithError(err).Warn("automatic backup failed")
		}
	})
}

// Pending reports whether a backup is scheduled.
func (a *AutoBackup) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

// fire runs the scheduled backup, if still pending.
func (a *AutoBackup) fire(ctx context.Context) error {
	a.mu.Lock()
	if !a.pending {
		a.mu.Unlock()
		return nil
	}
	a.pending = false
	a.mu.Unlock()
	return a.backup(ctx)
}

func (a *AutoBackup) cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.pending = false
}

// Flush runs the pending backup now, or a new one when force is set.
func (a *AutoBackup) Flush(ctx context.Context, force bool) error {
	a.mu.Lock()
	run := a.config.Enabled && (a.pending || force)
	a.mu.Unlock()
	a.cancel()
	if !run {
		return nil
	}
	return a.backup(ctx)
}

// Close flushes a pending backup.
func (a *AutoBackup) Close() error { return a.Flush(context.Background(), false) }

// backup writes the snapshot file and records the run.
func (a *AutoBackup) backup(ctx context.Context) (err error) {
	a.run.Lock()
	defer a.run.Unlock()
	defer func() { a.engine.metrics.observeBackup(err) }()

	cfg := a.Config()
	s, err := a.engine.ExportSnapshot(ctx)
	if err != nil {
		return err
	}
	data, err := s.MarshalIndent()
	if err != nil {
		return err
	}
	if err := writeFileAtomic(cfg.File, data); err != nil {
		return fmt.Errorf("could not write backup file: %w", err)
	}

	a.mu.Lock()
	at := s.ExportedAt
	a.config.LastRun = &at
	cfg = a.config
	a.mu.Unlock()
	if err := a.save(ctx, cfg); err != nil {
		return err
	}
	a.log.WithFields(logrus.Fields{"file": cfg.File, "at": at}).Debug("automatic backup written")
	return nil
}

func (a *AutoBackup) save(ctx context.Context, cfg AutoBackupConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := store.PutMeta(ctx, a.engine.store, metaAutoBackup, data); err != nil {
		return storageError(err)
	}
	return nil
}

// RestoreIfEmpty imports the backup file into books without items. It
// reports whether it did.
func (a *AutoBackup) RestoreIfEmpty(ctx context.Context) (bool, error) {
	cfg := a.Config()
	if !cfg.Enabled || cfg.File == "" || len(a.engine.Books().Items()) > 0 {
		return false, nil
	}
	raw, err := os.ReadFile(cfg.File)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("could not read backup file: %w", err)
	}
	s, err := ParseSnapshot(raw)
	if err != nil {
		return false, err
	}
	if err := a.engine.ImportSnapshot(ctx, s); err != nil {
		return false, err
	}
	// the import scheduled a backup of what was just read
	a.cancel()

	a.mu.Lock()
	if !s.ExportedAt.IsZero() {
		at := s.ExportedAt
		a.config.LastRun = &at
	}
	cfg = a.config
	a.mu.Unlock()
	a.log.WithField("file", cfg.File).Info("books restored from the automatic backup")
	return true, a.save(ctx, cfg)
}

// writeFileAtomic replaces name with data through a temporary file.
func writeFileAtomic(name string, data []byte) error {
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(name)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), name)
}

package books

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/etnz/books/config"
	"github.com/etnz/books/store"
	"github.com/sirupsen/logrus"
)

// Engine applies user operations to the books.
//
// Operations are serialized. Each one works on a draft of the current
// books, commits the draft writes to the store in a single batch, and only
// then publishes the draft as the new current books. A failed operation
// leaves both the store and the books untouched.
type Engine struct {
	mu      sync.Mutex
	store   store.Store
	books   atomic.Pointer[Books]
	log     logrus.FieldLogger
	metrics *Metrics
	now     func() time.Time

	listeners []func()
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger, config.GetLogger() by default.
func WithLogger(l logrus.FieldLogger) Option { return func(e *Engine) { e.log = l } }

// WithMetrics sets the metrics collectors.
func WithMetrics(m *Metrics) Option { return func(e *Engine) { e.metrics = m } }

// WithClock sets the clock used to timestamp attachments and snapshots.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// Open loads the books from s. Legacy data is migrated on the way.
func Open(ctx context.Context, s store.Store, opts ...Option) (*Engine, error) {
	e := &Engine{store: s, log: config.GetLogger(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	b, err := loadBooks(ctx, s)
	if err != nil {
		return nil, err
	}
	e.books.Store(b)
	if err := e.migrate(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Books returns the current books. The value is never modified, later
// operations publish new ones.
func (e *Engine) Books() *Books { return e.books.Load() }

// Store returns the underlying store.
func (e *Engine) Store() store.Store { return e.store }

// OnCommit registers f to be called after every successful commit.
func (e *Engine) OnCommit(f func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, f)
}

// mutate runs fn on a draft and commits it.
func (e *Engine) mutate(ctx context.Context, op string, fn func(d *Books) error) (err error) {
	start := time.Now()
	defer func() { e.metrics.observe(op, start, err) }()

	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.books.Load().draft()
	if err := fn(d); err != nil {
		e.log.WithFields(logrus.Fields{"operation": op}).WithError(err).Info("operation rejected")
		return err
	}
	if d.err != nil {
		err := storageError(d.err)
		config.LogError(e.log, "books", op, "encode", nil, err)
		return err
	}
	if d.pending.Len() == 0 {
		return nil
	}
	if err := e.store.Commit(ctx, d.pending); err != nil {
		err = storageError(err)
		config.LogError(e.log, "books", op, "commit", d.pending.Len(), err)
		return err
	}
	e.log.WithFields(logrus.Fields{"operation": op, "writes": d.pending.Len()}).Debug("operation committed")
	d.pending = nil
	e.books.Store(d)
	for _, f := range e.listeners {
		f()
	}
	return nil
}

// UpdateSettings replaces the business preferences.
func (e *Engine) UpdateSettings(ctx context.Context, s Settings) (Settings, error) {
	if err := validateStruct(s); err != nil {
		return Settings{}, err
	}
	s.Currency = strings.ToUpper(s.Currency)
	if !ValidCurrency(s.Currency) {
		return Settings{}, invalid("currency", "%q is not a known currency", s.Currency)
	}
	if _, err := time.Parse("2006-01", s.FiscalStart); err != nil {
		return Settings{}, invalid("fiscalStart", "%q is not a YYYY-MM month", s.FiscalStart)
	}
	err := e.mutate(ctx, "settings", func(d *Books) error {
		data, err := json.Marshal(s)
		if err != nil {
			return err
		}
		d.settings = s
		d.pending.PutMeta(metaSettings, data)
		return nil
	})
	return s, err
}

// Now returns the engine clock time.
func (e *Engine) Now() time.Time { return e.now() }

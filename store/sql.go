package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Schema creates the tables used by SQL.
const Schema = `
create table if not exists records (
	seq bigserial,
	collection text not null,
	id text not null,
	data text not null,
	primary key (collection, id)
);
create table if not exists meta (
	key text primary key,
	value text not null
);`

// SQL is a Store in a PostgreSQL database.
type SQL struct {
	db *sql.DB
}

// OpenSQL connects to a PostgreSQL database through the pgx driver and
// creates the schema if needed.
func OpenSQL(ctx context.Context, dsn string) (*SQL, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)
	s := NewSQL(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQL wraps an open database.
func NewSQL(db *sql.DB) *SQL { return &SQL{db: db} }

// Migrate creates the tables.
func (s *SQL) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("could not create schema: %w", err)
	}
	return nil
}

func (s *SQL) GetAll(ctx context.Context, collection string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `select id, data from records where collection = $1 order by seq`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Record
	for rows.Next() {
		var r Record
		var data []byte
		if err := rows.Scan(&r.ID, &data); err != nil {
			return nil, err
		}
		r.Data = data
		res = append(res, r)
	}
	return res, rows.Err()
}

func (s *SQL) Get(ctx context.Context, collection, id string) (Record, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `select data from records where collection = $1 and id = $2`, collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return Record{ID: id, Data: data}, nil
}

func (s *SQL) GetMeta(ctx context.Context, key string) (json.RawMessage, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `select value from meta where key = $1`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *SQL) Commit(ctx context.Context, b *Batch) error {
	if err := b.validate(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, op := range b.Ops {
		switch op.Kind {
		case OpPut:
			_, err = tx.ExecContext(ctx, `
				insert into records(collection, id, data)
				values ($1, $2, $3)
				on conflict (collection, id) do update
				set data = excluded.data
			`, op.Collection, op.ID, string(op.Data))
		case OpDelete:
			_, err = tx.ExecContext(ctx, `delete from records where collection = $1 and id = $2`, op.Collection, op.ID)
		case OpClear:
			_, err = tx.ExecContext(ctx, `delete from records where collection = $1`, op.Collection)
		case OpPutMeta:
			_, err = tx.ExecContext(ctx, `
				insert into meta(key, value)
				values ($1, $2)
				on conflict (key) do update
				set value = excluded.value
			`, op.Collection, string(op.Data))
		}
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQL) Close() error { return s.db.Close() }

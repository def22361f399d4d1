// Package sqlstore implements store.Store on SQLite through the pure-Go
// modernc.org/sqlite driver.
//
// Every collection shares a single table:
//
//	records(collection TEXT, id TEXT, name TEXT, doc TEXT, PRIMARY KEY(collection, id))
//
// doc holds the JSON encoding of the record. Find scans a collection in id
// order and evaluates the predicate in process.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"github.com/specialistvlad/osgraph/internal/query"
	"github.com/specialistvlad/osgraph/internal/store"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

const schema = `CREATE TABLE IF NOT EXISTS records (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	name       TEXT NOT NULL,
	doc        TEXT NOT NULL,
	PRIMARY KEY (collection, id)
)`

// Store is a store.Store backed by a SQLite database.
type Store struct {
	db     *sql.DB
	closed atomic.Bool
}

var _ store.Store = (*Store)(nil)

// Open connects to the SQLite database at dsn and ensures the schema exists.
// A plain file path is a valid dsn.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %q: %w", dsn, err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY under
	// concurrent walkers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save upserts rec into collection.
func (s *Store) Save(ctx context.Context, collection string, rec store.Record) (store.Record, error) {
	if s.closed.Load() {
		return store.Record{}, store.ErrClosed
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return store.Record{}, fmt.Errorf("sqlstore: encode %s: %w", rec.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (collection, id, name, doc) VALUES (?, ?, ?, ?)
		 ON CONFLICT (collection, id) DO UPDATE SET name = excluded.name, doc = excluded.doc`,
		collection, rec.ID, rec.Name, string(doc))
	if err != nil {
		return store.Record{}, fmt.Errorf("sqlstore: save %s/%s: %w", collection, rec.ID, err)
	}
	return rec.Clone(), nil
}

// Get loads a record by id.
func (s *Store) Get(ctx context.Context, collection, id string) (store.Record, bool, error) {
	if s.closed.Load() {
		return store.Record{}, false, store.ErrClosed
	}
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM records WHERE collection = ? AND id = ?`, collection, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Record{}, false, nil
	}
	if err != nil {
		return store.Record{}, false, fmt.Errorf("sqlstore: get %s/%s: %w", collection, id, err)
	}
	rec, err := decode(doc)
	if err != nil {
		return store.Record{}, false, fmt.Errorf("sqlstore: decode %s/%s: %w", collection, id, err)
	}
	return rec, true, nil
}

// Delete removes a record by id.
func (s *Store) Delete(ctx context.Context, collection, id string) (bool, error) {
	if s.closed.Load() {
		return false, store.ErrClosed
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return false, fmt.Errorf("sqlstore: delete %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlstore: delete %s/%s: %w", collection, id, err)
	}
	return n > 0, nil
}

// Find returns records of collection matching p, ordered by id.
func (s *Store) Find(ctx context.Context, collection string, p query.Predicate) ([]store.Record, error) {
	if s.closed.Load() {
		return nil, store.ErrClosed
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM records WHERE collection = ? ORDER BY id`, collection)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: find in %s: %w", collection, err)
	}
	defer rows.Close()

	var out []store.Record
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("sqlstore: find in %s: %w", collection, err)
		}
		rec, err := decode(doc)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: find in %s: %w", collection, err)
		}
		ok, err := query.Match(rec.Document(), p)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: find in %s: %w", collection, err)
	}
	return out, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func decode(doc string) (store.Record, error) {
	var rec store.Record
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return store.Record{}, err
	}
	return rec, nil
}

// Public domain.

// Package cache keeps name resolutions in an SQLite file so repeated runs
// do not query the name resolver again.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/soniakeys/finder/sesame"
	"github.com/soniakeys/finder/sky"
)

// Store is an SQLite backed resolution cache.
type Store struct {
	db *sql.DB
}

// Open opens or creates the cache file at path.  ":memory:" gives a
// cache that lasts only as long as the Store.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open cache %s: %w", path, err)
	}
	// one connection, so :memory: is one database
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to open cache %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache tables: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS resolutions (
	name       TEXT    NOT NULL,
	seq        INTEGER NOT NULL,
	resolver   TEXT    NOT NULL,
	otype      TEXT    NOT NULL,
	ra_deg     REAL    NOT NULL,
	dec_deg    REAL    NOT NULL,
	ra_str     TEXT    NOT NULL,
	dec_str    TEXT    NOT NULL,
	fetched_at TEXT    NOT NULL,
	PRIMARY KEY (name, seq)
);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Get returns the cached matches for name.  ok is false if there are none.
func (s *Store) Get(ctx context.Context, name string) (ms []sesame.Match, ok bool, err error) {
	const query = `
SELECT resolver, otype, ra_deg, dec_deg, ra_str, dec_str
FROM resolutions WHERE name = ? ORDER BY seq`
	rows, err := s.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query cache: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m sesame.Match
		var ra, dec float64
		var raStr, decStr string
		if err := rows.Scan(&m.Resolver, &m.OType, &ra, &dec, &raStr, &decStr); err != nil {
			return nil, false, fmt.Errorf("failed to read cache: %w", err)
		}
		m.Position = sky.FromDeg(ra, dec)
		m.Position.RAStr, m.Position.DecStr = raStr, decStr
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to read cache: %w", err)
	}
	return ms, len(ms) > 0, nil
}

// Put replaces the cached matches for name.
func (s *Store) Put(ctx context.Context, name string, ms []sesame.Match) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM resolutions WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to clear cache entry: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	const insert = `
INSERT INTO resolutions (name, seq, resolver, otype, ra_deg, dec_deg, ra_str, dec_str, fetched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for i, m := range ms {
		p := m.Position
		if _, err := tx.ExecContext(ctx, insert, name, i, m.Resolver, m.OType,
			p.RADeg(), p.DecDeg(), p.RAStr, p.DecStr, now); err != nil {
			return fmt.Errorf("failed to insert cache entry: %w", err)
		}
	}
	return tx.Commit()
}

// Lookuper is satisfied by *sesame.Client.
type Lookuper interface {
	Lookup(ctx context.Context, name string) ([]sesame.Match, error)
}

// Resolver answers from the store when it can and from Next otherwise,
// saving new answers.  Empty answers are not saved.
type Resolver struct {
	Next  Lookuper
	Store *Store
}

// Lookup returns matches for name.
func (r *Resolver) Lookup(ctx context.Context, name string) ([]sesame.Match, error) {
	ms, ok, err := r.Store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if ok {
		return ms, nil
	}
	if ms, err = r.Next.Lookup(ctx, name); err != nil {
		return nil, err
	}
	if len(ms) > 0 {
		if err := r.Store.Put(ctx, name, ms); err != nil {
			return nil, err
		}
	}
	return ms, nil
}

// Resolve returns the first match for name, or *sesame.ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, name string) (sky.Position, error) {
	ms, err := r.Lookup(ctx, name)
	if err != nil {
		return sky.Position{}, err
	}
	return sesame.First(name, ms)
}

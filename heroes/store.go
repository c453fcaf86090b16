package heroes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/martzmakes/pact"
)

// ErrHeroNotFound reports a lookup for a hero that does not exist.
var ErrHeroNotFound = errors.New("heroes: hero not found")

// TableRef declares the backing table this package needs. The provisioning
// layer grants the access and injects the address through HEROES_DB.
var TableRef = pact.ResourceRef{
	Name:   "heroes-table",
	EnvVar: "HEROES_DB",
	Access: pact.AccessReadWrite,
}

// Hero is the stored shape; it matches the contract schemas.
type Hero struct {
	Name    string `json:"name"`
	Rescues int    `json:"rescues"`
}

// Store persists heroes in SQLite. Writes are conditional so POST retries
// stay safe: re-adding an existing hero changes nothing.
type Store struct {
	db *sql.DB
}

// Open connects to the database at dsn and ensures the schema exists.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("heroes: open store: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS heroes (
		name TEXT PRIMARY KEY,
		rescues INTEGER NOT NULL DEFAULT 0
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("heroes: create table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// shared is the process-wide store, constructed on first use. Concurrent
// first callers race into a single construction.
var shared = pact.NewLazy(func() (*Store, error) {
	dsn := TableRef.Address()
	if dsn == "" {
		dsn = "file:heroes.db?cache=shared"
	}
	return Open(dsn)
})

// SharedStore returns the process-wide store.
func SharedStore() (*Store, error) {
	return shared.Get()
}

// Add inserts a hero unless one with the same name exists. Returns whether a
// row was written.
func (s *Store) Add(ctx context.Context, h Hero) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO heroes (name, rescues) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		h.Name, h.Rescues)
	if err != nil {
		return false, fmt.Errorf("heroes: add %q: %w", h.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("heroes: add %q: %w", h.Name, err)
	}
	return n > 0, nil
}

// Get fetches one hero by name.
func (s *Store) Get(ctx context.Context, name string) (*Hero, error) {
	var h Hero
	err := s.db.QueryRowContext(ctx,
		`SELECT name, rescues FROM heroes WHERE name = ?`, name).
		Scan(&h.Name, &h.Rescues)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHeroNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("heroes: get %q: %w", name, err)
	}
	return &h, nil
}

// List returns heroes ordered by name. A limit of 0 means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]Hero, error) {
	q := `SELECT name, rescues FROM heroes ORDER BY name`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("heroes: list: %w", err)
	}
	defer rows.Close()

	heroes := []Hero{}
	for rows.Next() {
		var h Hero
		if err := rows.Scan(&h.Name, &h.Rescues); err != nil {
			return nil, fmt.Errorf("heroes: list: %w", err)
		}
		heroes = append(heroes, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("heroes: list: %w", err)
	}
	return heroes, nil
}

// AddRescue increments a hero's rescue count and returns the updated hero.
func (s *Store) AddRescue(ctx context.Context, name string) (*Hero, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE heroes SET rescues = rescues + 1 WHERE name = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("heroes: add rescue for %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("heroes: add rescue for %q: %w", name, err)
	}
	if n == 0 {
		return nil, ErrHeroNotFound
	}
	return s.Get(ctx, name)
}

// Delete removes a hero. Deleting a missing hero is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM heroes WHERE name = ?`, name); err != nil {
		return fmt.Errorf("heroes: delete %q: %w", name, err)
	}
	return nil
}

package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cloud.google.com/go/civil"
	"github.com/geniass/airpods-dealz/pkg/product"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite keeps the ledger in a single price_history table ordered by insertion.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite history path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history: %w", err)
	}
	if err := createSQLiteSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func createSQLiteSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS price_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	link TEXT NOT NULL,
	price REAL NOT NULL,
	observed_on TEXT NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

func (s *SQLite) Read(ctx context.Context) ([]product.Product, error) {
	ps, err := s.load(ctx)
	return swallowCorrupt("sqlite", ps, err)
}

func (s *SQLite) load(ctx context.Context) ([]product.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, link, price, observed_on FROM price_history ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []product.Product
	for rows.Next() {
		var (
			p        product.Product
			observed string
		)
		if err := rows.Scan(&p.Name, &p.Link, &p.Price, &observed); err != nil {
			return nil, err
		}
		d, err := civil.ParseDate(observed)
		if err != nil {
			return nil, fmt.Errorf("%w: row date %q: %v", ErrCorrupt, observed, err)
		}
		p.Date = d
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLite) Write(ctx context.Context, ledger []product.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM price_history`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO price_history (name, link, price, observed_on) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range ledger {
		if _, err := stmt.ExecContext(ctx, p.Name, p.Link, p.Price, p.Date.String()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

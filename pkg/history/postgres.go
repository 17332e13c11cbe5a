package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/geniass/airpods-dealz/pkg/product"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// advisoryLockKey identifies the ledger among the database's advisory locks.
const advisoryLockKey int64 = 0x6169727064656c7a

// Postgres keeps the ledger in a price_history table and guards cycles with a session-level
// advisory lock.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS price_history (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	link TEXT NOT NULL,
	price NUMERIC(12, 2) NOT NULL,
	observed_on DATE NOT NULL
)`
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (s *Postgres) Read(ctx context.Context) ([]product.Product, error) {
	rows, err := s.pool.Query(ctx, `
SELECT name, link, (price::double precision) AS price, observed_on
FROM price_history
ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []product.Product
	for rows.Next() {
		var (
			p        product.Product
			observed time.Time
		)
		if err := rows.Scan(&p.Name, &p.Link, &p.Price, &observed); err != nil {
			return nil, err
		}
		p.Date = civil.DateOf(observed)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Postgres) Write(ctx context.Context, ledger []product.Product) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM price_history`); err != nil {
		return err
	}

	rows := make([][]any, 0, len(ledger))
	for _, p := range ledger {
		rows = append(rows, []any{p.Name, p.Link, p.Price, p.Date.In(time.UTC)})
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"price_history"},
		[]string{"name", "link", "price", "observed_on"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("copy history rows: %w", err)
	}
	return tx.Commit(ctx)
}

// Lock takes the advisory lock on a dedicated connection. The lock lives as long as that
// connection is held.
func (s *Postgres) Lock(ctx context.Context) (func(), error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, advisoryLockKey).Scan(&ok); err != nil {
		conn.Release()
		return nil, err
	}
	if !ok {
		conn.Release()
		return nil, fmt.Errorf("%w: advisory lock %d", ErrLocked, advisoryLockKey)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, advisoryLockKey)
			conn.Release()
		})
	}, nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

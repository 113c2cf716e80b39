package state

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const priceStateSchema = `
CREATE TABLE IF NOT EXISTS price_state (
	route      text PRIMARY KEY,
	min_price  numeric,
	min_when   timestamptz,
	updated_by text,
	updated_at timestamptz NOT NULL DEFAULT now()
)`

// PostgresStore keeps PriceState in a single-row-per-route table. The
// constructor takes a session advisory lock on the route key, held on a
// pinned connection until Close, so the whole read-modify-write cycle of a
// run is serialized against other instances watching the same route.
type PostgresStore struct {
	pool   *pgxpool.Pool
	conn   *pgxpool.Conn
	route  string
	lockID int64
}

// NewPostgresStore connects, bootstraps the schema, and acquires the
// advisory lock for route. Blocks until the lock is granted or ctx expires.
func NewPostgresStore(ctx context.Context, dsn, route string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse state DSN: %w", err)
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create state pool: %w", err)
	}

	if _, err := pool.Exec(ctx, priceStateSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap price_state table: %w", err)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("acquire state connection: %w", err)
	}

	s := &PostgresStore{pool: pool, conn: conn, route: route, lockID: lockKey(route)}
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", s.lockID); err != nil {
		conn.Release()
		pool.Close()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Load(ctx context.Context) (PriceState, error) {
	var (
		minPrice  *string
		minWhen   *time.Time
		updatedBy *string
	)
	err := s.conn.QueryRow(ctx,
		"SELECT min_price::text, min_when, updated_by FROM price_state WHERE route = $1",
		s.route,
	).Scan(&minPrice, &minWhen, &updatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return PriceState{}, nil
	}
	if err != nil {
		return PriceState{}, fmt.Errorf("load price state: %w", err)
	}

	st := PriceState{MinRoute: s.route}
	if minPrice != nil {
		price, err := decimal.NewFromString(*minPrice)
		if err != nil {
			return PriceState{}, fmt.Errorf("stored min_price %q: %w", *minPrice, err)
		}
		st.MinPrice = &price
	}
	if minWhen != nil {
		st.MinWhen = *minWhen
	}
	if updatedBy != nil {
		st.UpdatedBy = *updatedBy
	}
	return st, nil
}

func (s *PostgresStore) Save(ctx context.Context, st PriceState) error {
	var minPrice *string
	if st.MinPrice != nil {
		v := st.MinPrice.String()
		minPrice = &v
	}
	var minWhen *time.Time
	if !st.MinWhen.IsZero() {
		minWhen = &st.MinWhen
	}

	_, err := s.conn.Exec(ctx, `
		INSERT INTO price_state (route, min_price, min_when, updated_by, updated_at)
		VALUES ($1, $2::numeric, $3, $4, now())
		ON CONFLICT (route) DO UPDATE SET
			min_price = EXCLUDED.min_price,
			min_when = EXCLUDED.min_when,
			updated_by = EXCLUDED.updated_by,
			updated_at = now()`,
		s.route, minPrice, minWhen, st.UpdatedBy)
	if err != nil {
		return fmt.Errorf("save price state: %w", err)
	}
	return nil
}

func (s *PostgresStore) Reset(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, "DELETE FROM price_state WHERE route = $1", s.route); err != nil {
		return fmt.Errorf("reset price state: %w", err)
	}
	return nil
}

// Close releases the advisory lock and the pool.
func (s *PostgresStore) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = s.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", s.lockID)
	s.conn.Release()
	s.pool.Close()
}

func lockKey(route string) int64 {
	h := fnv.New64a()
	h.Write([]byte("farewatch:" + route))
	return int64(h.Sum64())
}

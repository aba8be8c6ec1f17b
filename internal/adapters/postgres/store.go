// Package postgres implements ports.OrderStore on PostgreSQL through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/core/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS orders (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	user_type   TEXT NOT NULL DEFAULT '',
	week_start  TEXT NOT NULL DEFAULT '',
	selections  JSONB NOT NULL DEFAULT '[]',
	total       BIGINT NOT NULL,
	status      TEXT NOT NULL,
	payment_id  TEXT NOT NULL DEFAULT '',
	paid_at     TIMESTAMPTZ,
	metadata    JSONB NOT NULL DEFAULT '{}',
	version     BIGINT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);`

const selectColumns = "id, user_id, user_type, week_start, selections, total, status," +
	" payment_id, paid_at, metadata, version, created_at, updated_at"

// Store is the PostgreSQL order store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens the database and creates the orders table when missing.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, unavailable(err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, unavailable(err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks connectivity for the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

// GetByID loads one order.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM orders WHERE id = $1", id)
	return scanOrder(row)
}

// Create inserts order with version 1.
func (s *Store) Create(ctx context.Context, order *domain.Order) error {
	selections, err := json.Marshal(order.Selections)
	if err != nil {
		return err
	}
	metadata, err := json.Marshal(nonNil(order.Metadata))
	if err != nil {
		return err
	}

	now := s.now().UTC()
	createdAt := order.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO orders ("+selectColumns+")"+
			" VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11, $12)",
		order.ID, order.UserID, string(order.UserType), order.WeekStart, selections,
		order.Total, string(order.Status), order.PaymentID, order.PaidAt, metadata,
		createdAt, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrOrderExists
		}
		return unavailable(err)
	}

	order.Version = 1
	order.CreatedAt = createdAt
	order.UpdatedAt = now
	return nil
}

// Update locks the row, checks the version and writes the patched order in one
// transaction.
func (s *Store) Update(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable(err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM orders WHERE id = $1 FOR UPDATE", id)
	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if order.Version != patch.ExpectedVersion {
		return nil, domain.ErrVersionConflict
	}
	if patch.Empty() {
		return order, nil
	}

	order.Apply(patch, s.now().UTC())
	metadata, err := json.Marshal(nonNil(order.Metadata))
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET status = $1, payment_id = $2, paid_at = $3, metadata = $4,"+
			" version = $5, updated_at = $6"+
			" WHERE id = $7 AND version = $8",
		string(order.Status), order.PaymentID, order.PaidAt, metadata,
		order.Version, order.UpdatedAt, id, patch.ExpectedVersion)
	if err != nil {
		return nil, unavailable(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.ErrVersionConflict
	}
	if err := tx.Commit(); err != nil {
		return nil, unavailable(err)
	}
	return order, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o                    domain.Order
		userType, status     string
		selections, metadata []byte
		paidAt               sql.NullTime
	)
	err := row.Scan(&o.ID, &o.UserID, &userType, &o.WeekStart, &selections, &o.Total, &status,
		&o.PaymentID, &paidAt, &metadata, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, unavailable(err)
	}

	o.UserType = domain.UserType(userType)
	o.Status = domain.OrderStatus(status)
	if paidAt.Valid {
		t := paidAt.Time.UTC()
		o.PaidAt = &t
	}
	if err := json.Unmarshal(selections, &o.Selections); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metadata, &o.Metadata); err != nil {
		return nil, err
	}
	return &o, nil
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func unavailable(err error) error {
	return domain.NewServiceError(domain.ErrStoreUnavailable, err.Error(), "STORE_UNAVAILABLE")
}

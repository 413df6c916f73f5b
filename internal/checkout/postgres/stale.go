package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type StaleOrder struct {
	ID        int64  `db:"id"`
	CartID    int64  `db:"cart_id"`
	Reference string `db:"reference"`
}

// StaleOrderFinder lists orders that have sat in one status for too long.
type StaleOrderFinder struct {
	db *sqlx.DB
}

func NewStaleOrderFinder(db *sqlx.DB) *StaleOrderFinder {
	return &StaleOrderFinder{db: db}
}

func (f *StaleOrderFinder) FindStale(ctx context.Context, status string, before time.Time, limit int) ([]StaleOrder, error) {
	query := f.db.Rebind(`
		SELECT id, cart_id, reference
		FROM orders
		WHERE status = ? AND updated_at < ?
		ORDER BY updated_at ASC
		LIMIT ?`)

	var orders []StaleOrder
	if err := f.db.SelectContext(ctx, &orders, query, status, before, limit); err != nil {
		return nil, err
	}
	return orders, nil
}

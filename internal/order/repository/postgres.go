package repository

import (
	"context"
	"database/sql"

	"crm-campaigns/backend/internal/order/domain"
)

const (
	insertOrderSQL          = `INSERT INTO orders (id, customer_id, amount, date, created_at) VALUES ($1, $2, $3, $4, $5)`
	listOrdersByCustomerSQL = `SELECT id, customer_id, amount, date, created_at FROM orders WHERE customer_id = $1 ORDER BY date DESC, id`
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an order repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the order. The order must have ID and CreatedAt set.
func (r *PostgresRepository) Create(ctx context.Context, o *domain.Order) error {
	_, err := r.db.ExecContext(ctx, insertOrderSQL, o.ID, o.CustomerID, o.Amount, o.Date, o.CreatedAt)
	return err
}

// ListByCustomer returns all orders recorded for customerID.
func (r *PostgresRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, listOrdersByCustomerSQL, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.Amount, &o.Date, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}

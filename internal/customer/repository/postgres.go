package repository

import (
	"context"
	"database/sql"
	"errors"

	"crm-campaigns/backend/internal/customer/domain"
)

const customerColumns = "id, name, email, phone, total_spend, visits, last_active, created_at, updated_at"

const (
	insertCustomerSQL = `INSERT INTO customers (` + customerColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	getCustomerSQL    = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	listCustomersSQL  = `SELECT ` + customerColumns + ` FROM customers ORDER BY created_at, id`
	countCustomersSQL = `SELECT COUNT(*) FROM customers`
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a customer repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the customer. The customer must have ID and timestamps set.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Customer) error {
	_, err := r.db.ExecContext(ctx, insertCustomerSQL,
		c.ID, c.Name, c.Email, c.Phone, c.TotalSpend, c.Visits, c.LastActive, c.CreatedAt, c.UpdatedAt)
	return err
}

// GetByID returns the customer for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx, getCustomerSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// List returns customers in creation order.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*domain.Customer, error) {
	query := listCustomersSQL
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1 OFFSET $2"
		args = append(args, limit, offset)
	}
	var out []*domain.Customer
	err := r.each(ctx, query, args, func(c *domain.Customer) error {
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of customers.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countCustomersSQL).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ForEach streams all customers in creation order without materializing the population.
func (r *PostgresRepository) ForEach(ctx context.Context, fn func(*domain.Customer) error) error {
	return r.each(ctx, listCustomersSQL, nil, fn)
}

func (r *PostgresRepository) each(ctx context.Context, query string, args []any, fn func(*domain.Customer) error) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(s rowScanner) (*domain.Customer, error) {
	var c domain.Customer
	if err := s.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.TotalSpend, &c.Visits, &c.LastActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

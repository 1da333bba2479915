package repository

import (
	"context"

	"crm-campaigns/backend/internal/customer/domain"
)

// Repository defines persistence for customers.
type Repository interface {
	Create(ctx context.Context, c *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	// List returns customers oldest first. limit <= 0 means no limit.
	List(ctx context.Context, limit, offset int) ([]*domain.Customer, error)
	Count(ctx context.Context) (int, error)
	// ForEach streams every customer in creation order and stops at the first error returned by fn.
	ForEach(ctx context.Context, fn func(*domain.Customer) error) error
}

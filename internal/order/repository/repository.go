package repository

import (
	"context"

	"crm-campaigns/backend/internal/order/domain"
)

// Repository defines persistence for orders.
type Repository interface {
	Create(ctx context.Context, o *domain.Order) error
	// ListByCustomer returns the customer's orders, newest first.
	ListByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error)
}

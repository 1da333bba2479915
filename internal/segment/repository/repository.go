package repository

import (
	"context"

	"crm-campaigns/backend/internal/segment/domain"
)

// Repository defines persistence for segments. Segments are immutable once created.
type Repository interface {
	Create(ctx context.Context, s *domain.Segment) error
	GetByID(ctx context.Context, id string) (*domain.Segment, error)
}

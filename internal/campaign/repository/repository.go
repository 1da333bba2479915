package repository

import (
	"context"

	"crm-campaigns/backend/internal/campaign/domain"
)

// Repository defines persistence for campaigns.
type Repository interface {
	Create(ctx context.Context, c *domain.Campaign) error
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)
	// List returns campaigns newest first.
	List(ctx context.Context) ([]*domain.Campaign, error)
}

// LogRepository defines persistence for communication logs.
type LogRepository interface {
	// CreateBatch inserts logs in chunks of at most batchSize rows per statement.
	CreateBatch(ctx context.Context, logs []*domain.CommunicationLog, batchSize int) error
	// UpdateStatus sets the status of the log for (campaignID, customerID) and returns
	// the number of rows changed. Zero means no such log exists.
	UpdateStatus(ctx context.Context, campaignID, customerID string, status domain.Status) (int64, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]*domain.LogEntry, error)
	SummaryByStatus(ctx context.Context, campaignID string) (domain.DeliverySummary, error)
}

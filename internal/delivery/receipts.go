package delivery

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"crm-campaigns/backend/internal/campaign/domain"
)

// ErrInvalidStatus is returned for a receipt status other than SENT or FAILED.
var ErrInvalidStatus = errors.New("status must be SENT or FAILED")

// StatusUpdater is implemented by the communication log repository.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, campaignID, customerID string, status domain.Status) (int64, error)
}

// Receipt is a vendor's delivery report for one customer of one campaign.
type Receipt struct {
	CampaignID string        `json:"campaignId"`
	CustomerID string        `json:"customerId"`
	Status     domain.Status `json:"status"`
}

// Processor applies receipts to communication logs. It never touches campaign stats.
type Processor struct {
	logs     StatusUpdater
	receipts metric.Int64Counter
}

// NewProcessor returns a Processor updating logs.
func NewProcessor(logs StatusUpdater) *Processor {
	counter, _ := otel.Meter("crm-campaigns/backend/internal/delivery").Int64Counter("crm.receipts",
		metric.WithDescription("Delivery receipts processed, by outcome"))
	return &Processor{logs: logs, receipts: counter}
}

// ApplyReceipt sets the status of the log for (campaignID, customerID). A receipt that matches
// no log is a logged no-op. Replaying a receipt leaves the log unchanged.
func (p *Processor) ApplyReceipt(ctx context.Context, r Receipt) error {
	if !r.Status.Final() {
		return ErrInvalidStatus
	}
	n, err := p.logs.UpdateStatus(ctx, r.CampaignID, r.CustomerID, r.Status)
	if err != nil {
		return fmt.Errorf("apply receipt: %w", err)
	}
	outcome := "applied"
	if n == 0 {
		outcome = "missed"
		log.Printf("delivery: receipt for campaign %s customer %s matched no log", r.CampaignID, r.CustomerID)
	}
	p.receipts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("status", string(r.Status)),
	))
	return nil
}

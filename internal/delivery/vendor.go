// Package delivery simulates the messaging vendor and applies its delivery receipts to
// communication logs.
package delivery

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"crm-campaigns/backend/internal/campaign/domain"
	customerdomain "crm-campaigns/backend/internal/customer/domain"
)

// Vendor sends one message to one customer and reports the immediate outcome.
type Vendor interface {
	Send(ctx context.Context, campaignID string, c *customerdomain.Customer, message string) (domain.Status, error)
}

// SimulatedVendor reports SENT with probability successRate and FAILED otherwise.
// Safe for concurrent use.
type SimulatedVendor struct {
	mu          sync.Mutex
	rnd         *rand.Rand
	successRate float64
}

// NewSimulatedVendor returns a vendor with the given success rate. rnd may be nil, in which
// case a time-seeded source is used; tests pass a fixed seed.
func NewSimulatedVendor(successRate float64, rnd *rand.Rand) *SimulatedVendor {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SimulatedVendor{rnd: rnd, successRate: successRate}
}

func (v *SimulatedVendor) Send(ctx context.Context, _ string, _ *customerdomain.Customer, _ string) (domain.Status, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v.mu.Lock()
	draw := v.rnd.Float64()
	v.mu.Unlock()
	if draw < v.successRate {
		return domain.StatusSent, nil
	}
	return domain.StatusFailed, nil
}

package domain

import "time"

// Status is the delivery state of one communication.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusSent || s == StatusFailed
}

// Final reports whether s is a delivery outcome a receipt may carry.
func (s Status) Final() bool {
	return s == StatusSent || s == StatusFailed
}

// CommunicationLog records one campaign's delivery attempt to one customer.
type CommunicationLog struct {
	ID         string     `json:"id"`
	CampaignID string     `json:"campaignId"`
	CustomerID string     `json:"customerId"`
	Status     Status     `json:"status"`
	Message    string     `json:"message"`
	SentAt     *time.Time `json:"sentAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// LogEntry is a communication log joined with the customer it targeted.
type LogEntry struct {
	CommunicationLog
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
}

// DeliverySummary counts a campaign's communication logs by current status.
type DeliverySummary struct {
	Pending int `json:"pending"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

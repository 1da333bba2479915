package domain

import (
	"errors"
	"time"
)

// ErrSegmentNotFound is returned when a campaign targets a segment that does not exist.
var ErrSegmentNotFound = errors.New("segment not found")

// ErrCampaignNotFound is returned when a campaign id does not exist.
var ErrCampaignNotFound = errors.New("campaign not found")

// ErrMessageRequired is returned when a campaign is launched without a message.
var ErrMessageRequired = errors.New("message is required")

// Stats is the delivery snapshot captured when the campaign is launched. It is never
// recomputed; receipts only change the underlying communication logs.
type Stats struct {
	AudienceSize int `json:"audienceSize"`
	Sent         int `json:"sent"`
	Failed       int `json:"failed"`
}

// Campaign is a single message send targeted at a segment's audience.
type Campaign struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SegmentID string    `json:"segmentId"`
	Message   string    `json:"message"`
	Tags      []string  `json:"tags"`
	Stats     Stats     `json:"stats"`
	CreatedAt time.Time `json:"createdAt"`
}

// StatsFromLogs derives the launch snapshot from the per-customer outcomes.
func StatsFromLogs(logs []*CommunicationLog) Stats {
	s := Stats{AudienceSize: len(logs)}
	for _, l := range logs {
		if l.Status == StatusSent {
			s.Sent++
		}
	}
	s.Failed = s.AudienceSize - s.Sent
	return s
}

package service

import (
	"context"
	"fmt"
)

// Launcher launches a campaign for an existing segment and returns the campaign id together with
// the audience size the campaign was dispatched to.
type Launcher interface {
	LaunchForSegment(ctx context.Context, segmentID, name, message string) (campaignID string, audienceSize int, err error)
}

// AutoLauncher creates a segment and, when the segment is named and auto-launch is enabled,
// launches a campaign for it as a separate second step. The two steps are not atomic:
// a failed launch leaves the segment in place.
type AutoLauncher struct {
	segments *Service
	launcher Launcher
	enabled  bool
	message  string
}

// NewAutoLauncher returns an AutoLauncher. launcher may be nil, which disables auto-launch.
func NewAutoLauncher(segments *Service, launcher Launcher, enabled bool, message string) *AutoLauncher {
	return &AutoLauncher{segments: segments, launcher: launcher, enabled: enabled && launcher != nil, message: message}
}

// CreateSegment creates the segment, then launches its campaign when applicable.
// When a campaign is launched, AudienceSize is the campaign's audience, which can differ from
// the size computed at creation if customers were ingested in between.
// On launch failure the returned Result is still populated with the created segment.
func (a *AutoLauncher) CreateSegment(ctx context.Context, in CreateInput) (*Result, error) {
	res, err := a.segments.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	if !a.enabled || in.Name == "" {
		return res, nil
	}
	campaignID, audienceSize, err := a.launcher.LaunchForSegment(ctx, res.Segment.ID, in.Name, a.message)
	if err != nil {
		return res, fmt.Errorf("auto-launch campaign for segment %s: %w", res.Segment.ID, err)
	}
	res.CampaignID = campaignID
	res.AudienceSize = audienceSize
	return res, nil
}

// Package service launches campaigns: it resolves a segment's audience, sends the message
// to every member through the delivery vendor and records one communication log per member.
package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"crm-campaigns/backend/internal/campaign/domain"
	"crm-campaigns/backend/internal/campaign/repository"
	"crm-campaigns/backend/internal/delivery"
	"crm-campaigns/backend/internal/events"
	segdomain "crm-campaigns/backend/internal/segment/domain"
	"crm-campaigns/backend/internal/segment/engine"
)

const instrumentationName = "crm-campaigns/backend/internal/campaign/service"

// DefaultBatchSize is the number of communication logs written per statement when none is configured.
const DefaultBatchSize = 500

// SegmentGetter looks up segments. Implemented by the segment repository.
type SegmentGetter interface {
	GetByID(ctx context.Context, id string) (*segdomain.Segment, error)
}

// LaunchInput is the request to launch a campaign.
type LaunchInput struct {
	SegmentID string
	Name      string
	Message   string
	Tags      []string
}

// Dispatcher launches campaigns and serves their history.
type Dispatcher struct {
	segments  SegmentGetter
	resolver  *engine.Resolver
	vendor    delivery.Vendor
	campaigns repository.Repository
	logs      repository.LogRepository
	events    events.Emitter
	batchSize int
	now       func() time.Time

	tracer      trace.Tracer
	launched    metric.Int64Counter
	logsCreated metric.Int64Counter
}

// NewDispatcher returns a Dispatcher. emitter may be nil. batchSize <= 0 uses DefaultBatchSize.
func NewDispatcher(
	segments SegmentGetter,
	resolver *engine.Resolver,
	vendor delivery.Vendor,
	campaigns repository.Repository,
	logs repository.LogRepository,
	emitter events.Emitter,
	batchSize int,
) *Dispatcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	meter := otel.Meter(instrumentationName)
	launched, _ := meter.Int64Counter("crm.campaigns.launched",
		metric.WithDescription("Campaigns launched"))
	logsCreated, _ := meter.Int64Counter("crm.communication_logs.created",
		metric.WithDescription("Communication logs written at launch, by initial status"))
	return &Dispatcher{
		segments:    segments,
		resolver:    resolver,
		vendor:      vendor,
		campaigns:   campaigns,
		logs:        logs,
		events:      emitter,
		batchSize:   batchSize,
		now:         func() time.Time { return time.Now().UTC() },
		tracer:      otel.Tracer(instrumentationName),
		launched:    launched,
		logsCreated: logsCreated,
	}
}

// Launch creates a campaign for the segment's current audience and writes exactly one
// communication log per audience member. The stats snapshot is derived from the logs' initial
// statuses and never changes afterwards. A failure while writing logs leaves the campaign
// with the logs written so far.
func (d *Dispatcher) Launch(ctx context.Context, in LaunchInput) (*domain.Campaign, error) {
	ctx, span := d.tracer.Start(ctx, "campaign.Launch", trace.WithAttributes(attribute.String("segment.id", in.SegmentID)))
	defer span.End()

	c, err := d.launch(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("campaign.id", c.ID),
		attribute.Int("campaign.audience_size", c.Stats.AudienceSize),
	)
	return c, nil
}

func (d *Dispatcher) launch(ctx context.Context, in LaunchInput) (*domain.Campaign, error) {
	if in.Message == "" {
		return nil, domain.ErrMessageRequired
	}
	if in.SegmentID == "" {
		return nil, domain.ErrSegmentNotFound
	}
	seg, err := d.segments.GetByID(ctx, in.SegmentID)
	if err != nil {
		return nil, fmt.Errorf("get segment %s: %w", in.SegmentID, err)
	}
	if seg == nil {
		return nil, domain.ErrSegmentNotFound
	}
	audience, err := d.resolver.Resolve(ctx, seg.Rules, seg.Logic, true)
	if err != nil {
		return nil, fmt.Errorf("resolve audience for segment %s: %w", seg.ID, err)
	}

	now := d.now()
	c := &domain.Campaign{
		ID:        uuid.New().String(),
		Name:      in.Name,
		SegmentID: seg.ID,
		Message:   in.Message,
		Tags:      in.Tags,
		CreatedAt: now,
	}
	if c.Name == "" {
		c.Name = "Campaign for Segment " + seg.ID
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}

	logs := make([]*domain.CommunicationLog, 0, len(audience.Members))
	for _, member := range audience.Members {
		status, err := d.vendor.Send(ctx, c.ID, member, c.Message)
		if err != nil {
			log.Printf("campaign: vendor send to customer %s failed: %v", member.ID, err)
			status = domain.StatusFailed
		}
		sentAt := now
		logs = append(logs, &domain.CommunicationLog{
			ID:         uuid.New().String(),
			CampaignID: c.ID,
			CustomerID: member.ID,
			Status:     status,
			Message:    c.Message,
			SentAt:     &sentAt,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	c.Stats = domain.StatsFromLogs(logs)

	if err := d.campaigns.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	if err := d.logs.CreateBatch(ctx, logs, d.batchSize); err != nil {
		return nil, fmt.Errorf("campaign %s: write communication logs: %w", c.ID, err)
	}

	d.launched.Add(ctx, 1)
	d.logsCreated.Add(ctx, int64(c.Stats.Sent), metric.WithAttributes(attribute.String("status", string(domain.StatusSent))))
	d.logsCreated.Add(ctx, int64(c.Stats.Failed), metric.WithAttributes(attribute.String("status", string(domain.StatusFailed))))
	if d.events != nil {
		d.events.Emit(ctx, events.StreamCampaignEvents, campaignRecord(c))
	}
	return c, nil
}

// LaunchForSegment launches a campaign with no tags and returns its id and audience size.
// Used for auto-launch after segment creation.
func (d *Dispatcher) LaunchForSegment(ctx context.Context, segmentID, name, message string) (string, int, error) {
	c, err := d.Launch(ctx, LaunchInput{SegmentID: segmentID, Name: name, Message: message})
	if err != nil {
		return "", 0, err
	}
	return c.ID, c.Stats.AudienceSize, nil
}

// List returns all campaigns, newest first.
func (d *Dispatcher) List(ctx context.Context) ([]*domain.Campaign, error) {
	return d.campaigns.List(ctx)
}

// Get returns the campaign for id, or nil if it does not exist.
func (d *Dispatcher) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	return d.campaigns.GetByID(ctx, id)
}

// Logs returns the campaign's communication logs with customer name and email.
func (d *Dispatcher) Logs(ctx context.Context, campaignID string) ([]*domain.LogEntry, error) {
	if err := d.mustExist(ctx, campaignID); err != nil {
		return nil, err
	}
	return d.logs.ListByCampaign(ctx, campaignID)
}

// DeliverySummary returns the live per-status counts of the campaign's logs. Unlike the
// campaign's stats it reflects receipts applied after launch.
func (d *Dispatcher) DeliverySummary(ctx context.Context, campaignID string) (domain.DeliverySummary, error) {
	if err := d.mustExist(ctx, campaignID); err != nil {
		return domain.DeliverySummary{}, err
	}
	return d.logs.SummaryByStatus(ctx, campaignID)
}

func (d *Dispatcher) mustExist(ctx context.Context, campaignID string) error {
	c, err := d.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if c == nil {
		return domain.ErrCampaignNotFound
	}
	return nil
}

func campaignRecord(c *domain.Campaign) events.Record {
	return events.Record{
		"type":         "campaign_created",
		"id":           c.ID,
		"name":         c.Name,
		"segmentId":    c.SegmentID,
		"message":      c.Message,
		"tags":         events.Tags(c.Tags),
		"audienceSize": strconv.Itoa(c.Stats.AudienceSize),
		"sent":         strconv.Itoa(c.Stats.Sent),
		"failed":       strconv.Itoa(c.Stats.Failed),
		"createdAt":    c.CreatedAt.Format(time.RFC3339Nano),
	}
}

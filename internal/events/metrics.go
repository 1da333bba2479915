package events

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("crm-campaigns/backend/internal/events")

var publishFailures, _ = meter.Int64Counter("crm.events.publish_failures",
	metric.WithDescription("Async event publishes that failed"))

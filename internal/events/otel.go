package events

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// OTelPublisher emits records as OpenTelemetry log records; the stream becomes an attribute.
type OTelPublisher struct {
	logger recordEmitter
}

// NewOTelPublisher returns a publisher bound to provider.
func NewOTelPublisher(provider *sdklog.LoggerProvider) *OTelPublisher {
	return &OTelPublisher{logger: provider.Logger("crm.events")}
}

func (p *OTelPublisher) Publish(ctx context.Context, stream string, rec Record) error {
	r := otellog.Record{}
	r.SetTimestamp(time.Now().UTC())
	r.SetBody(otellog.StringValue(stream))
	r.AddAttributes(otellog.String("stream", stream))
	for k, v := range rec {
		r.AddAttributes(otellog.String(k, v))
	}
	p.logger.Emit(ctx, r)
	return nil
}

// Close is a no-op; the LoggerProvider is shut down with the other OTel providers.
func (p *OTelPublisher) Close() error { return nil }

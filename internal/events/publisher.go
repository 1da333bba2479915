// Package events publishes ingest and campaign records to a stream backend (Redis streams,
// Kafka, OpenTelemetry logs or the process log) and consumes them in the events worker.
package events

import (
	"context"
	"strings"
)

// Stream names. Kafka topics are these names with the configured prefix.
const (
	StreamCustomerIngest = "customer_ingest"
	StreamOrderIngest    = "order_ingest"
	StreamCampaignEvents = "campaign_events"
)

// Streams lists every stream the backend publishes to.
var Streams = []string{StreamCustomerIngest, StreamOrderIngest, StreamCampaignEvents}

// Record is a flat event payload. All values are strings, as Redis stream entries require.
type Record map[string]string

// Publisher writes records to a stream. Publish may block on the network; request paths
// go through Async instead of calling it directly.
type Publisher interface {
	Publish(ctx context.Context, stream string, rec Record) error
	// Close releases broker connections. Safe to call more than once.
	Close() error
}

// Emitter is the fire-and-forget side used by handlers and services.
type Emitter interface {
	Emit(ctx context.Context, stream string, rec Record)
}

// Key returns the record's partition key: its id, or the customer id for records without one.
func (r Record) Key() string {
	if id := r["id"]; id != "" {
		return id
	}
	return r["customerId"]
}

// Tags joins tags the way records carry them.
func Tags(tags []string) string {
	return strings.Join(tags, ",")
}

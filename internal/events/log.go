package events

import (
	"context"
	"encoding/json"
	"log"
)

// LogPublisher writes records to the process log. Used when no broker is configured.
type LogPublisher struct {
	logger *log.Logger
}

// NewLogPublisher returns a publisher writing to logger, or to the standard logger if nil.
func NewLogPublisher(logger *log.Logger) *LogPublisher {
	if logger == nil {
		logger = log.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, stream string, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	p.logger.Printf("events: %s %s", stream, b)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

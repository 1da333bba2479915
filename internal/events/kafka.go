package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes records as JSON to one topic per stream (prefix + stream name),
// keyed by record id so a record's updates stay ordered.
type KafkaPublisher struct {
	writer messageWriter
	prefix string
}

// NewKafkaPublisher creates a publisher for the given brokers. brokers must be non-empty.
func NewKafkaPublisher(brokers []string, topicPrefix string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("events: kafka brokers are required")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: writer, prefix: topicPrefix}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, stream string, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.prefix + stream,
		Key:   []byte(rec.Key()),
		Value: payload,
	})
}

// Close closes the Kafka writer. Safe to call multiple times.
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer reads every stream topic through one consumer group.
type KafkaConsumer struct {
	reader messageReader
	prefix string
}

// NewKafkaConsumer returns a consumer for the topics of streams under topicPrefix.
func NewKafkaConsumer(brokers []string, topicPrefix, groupID string, streams []string) (*KafkaConsumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("events: kafka brokers are required")
	}
	topics := make([]string, len(streams))
	for i, s := range streams {
		topics[i] = topicPrefix + s
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
		MaxWait:     1 * time.Second,
	})
	return &KafkaConsumer{reader: reader, prefix: topicPrefix}, nil
}

// Consume delivers messages to h until ctx is done. Handler errors are logged and the
// message is committed regardless.
func (c *KafkaConsumer) Consume(ctx context.Context, h Handler) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("events: kafka read error: %v", err)
			continue
		}
		msg := Message{
			Stream: strings.TrimPrefix(m.Topic, c.prefix),
			ID:     fmt.Sprintf("%d-%d", m.Partition, m.Offset),
			Time:   m.Time,
		}
		if err := json.Unmarshal(m.Value, &msg.Record); err != nil {
			log.Printf("events: decode %s: %v", msg.ID, err)
			msg.Record = Record{"raw": string(m.Value)}
		}
		if err := h(ctx, msg); err != nil {
			log.Printf("events: handle %s/%s: %v", msg.Stream, msg.ID, err)
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			log.Printf("events: kafka commit: %v", err)
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

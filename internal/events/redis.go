package events

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// streamWriter is the subset of *redis.Client used for publishing.
type streamWriter interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// RedisPublisher appends records to Redis streams with XADD.
type RedisPublisher struct {
	client streamWriter
	maxLen int64
}

// NewRedisPublisher connects to the Redis URL (e.g. redis://localhost:6379/0).
// maxLen > 0 caps each stream approximately; 0 leaves streams unbounded.
func NewRedisPublisher(redisURL string, maxLen int64) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("events: parse REDIS_URL: %w", err)
	}
	return &RedisPublisher{client: redis.NewClient(opts), maxLen: maxLen}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, stream string, rec Record) error {
	values := make(map[string]any, len(rec))
	for k, v := range rec {
		values[k] = v
	}
	args := &redis.XAddArgs{Stream: stream, ID: "*", Values: values}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	return p.client.XAdd(ctx, args).Err()
}

func (p *RedisPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}

// groupReader is the subset of *redis.Client used by RedisConsumer.
type groupReader interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
	Close() error
}

// RedisConsumer reads the streams through a consumer group and acknowledges each entry after
// the handler returns.
type RedisConsumer struct {
	client   groupReader
	group    string
	consumer string
	streams  []string
	block    time.Duration
}

// NewRedisConsumer returns a consumer reading streams as member consumer of group.
func NewRedisConsumer(redisURL, group, consumer string, streams []string) (*RedisConsumer, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("events: parse REDIS_URL: %w", err)
	}
	return &RedisConsumer{
		client:   redis.NewClient(opts),
		group:    group,
		consumer: consumer,
		streams:  streams,
		block:    time.Second,
	}, nil
}

// Consume creates the group on each stream if needed, then delivers entries to h until ctx is done.
// Handler errors are logged; the entry is still acknowledged.
func (c *RedisConsumer) Consume(ctx context.Context, h Handler) error {
	for _, s := range c.streams {
		err := c.client.XGroupCreateMkStream(ctx, s, c.group, "0").Err()
		if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("events: create group %s on %s: %w", c.group, s, err)
		}
	}
	args := &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  streamArgs(c.streams),
		Count:    100,
		Block:    c.block,
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		res, err := c.client.XReadGroup(ctx, args).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("events: redis read error: %v", err)
			continue
		}
		for _, xs := range res {
			for _, m := range xs.Messages {
				msg := Message{Stream: xs.Stream, ID: m.ID, Record: recordFromValues(m.Values), Time: entryTime(m.ID)}
				if err := h(ctx, msg); err != nil {
					log.Printf("events: handle %s/%s: %v", xs.Stream, m.ID, err)
				}
				if err := c.client.XAck(ctx, xs.Stream, c.group, m.ID).Err(); err != nil {
					log.Printf("events: ack %s/%s: %v", xs.Stream, m.ID, err)
				}
			}
		}
	}
}

func (c *RedisConsumer) Close() error {
	return c.client.Close()
}

// streamArgs builds the XREADGROUP STREAMS argument: the stream names followed by ">" for each.
func streamArgs(streams []string) []string {
	out := make([]string, 0, len(streams)*2)
	out = append(out, streams...)
	for range streams {
		out = append(out, ">")
	}
	return out
}

func recordFromValues(values map[string]any) Record {
	rec := make(Record, len(values))
	for k, v := range values {
		rec[k] = fmt.Sprint(v)
	}
	return rec
}

// entryTime extracts the millisecond timestamp from a stream entry id ("1700000000000-0").
func entryTime(id string) time.Time {
	ms, _, _ := strings.Cut(id, "-")
	var n int64
	if _, err := fmt.Sscan(ms, &n); err != nil || n <= 0 {
		return time.Now().UTC()
	}
	return time.UnixMilli(n).UTC()
}

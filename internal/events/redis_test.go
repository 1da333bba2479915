package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeStreamWriter struct {
	mu   sync.Mutex
	args []*redis.XAddArgs
	err  error
}

func (f *fakeStreamWriter) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.args = append(f.args, a)
	return redis.NewStringResult("1700000000000-0", f.err)
}

func (f *fakeStreamWriter) Close() error { return nil }

func TestRedisPublisher_Publish(t *testing.T) {
	w := &fakeStreamWriter{}
	p := &RedisPublisher{client: w}
	if err := p.Publish(context.Background(), StreamCustomerIngest, Record{"id": "c1", "name": "Ada"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(w.args) != 1 {
		t.Fatalf("expected 1 XADD, got %d", len(w.args))
	}
	a := w.args[0]
	if a.Stream != StreamCustomerIngest || a.ID != "*" {
		t.Errorf("XADD stream/id = %q/%q", a.Stream, a.ID)
	}
	if a.MaxLen != 0 || a.Approx {
		t.Errorf("unbounded publisher set MAXLEN %d approx=%v", a.MaxLen, a.Approx)
	}
	values := a.Values.(map[string]any)
	if values["name"] != "Ada" {
		t.Errorf("values = %v", values)
	}
}

func TestRedisPublisher_MaxLen(t *testing.T) {
	w := &fakeStreamWriter{}
	p := &RedisPublisher{client: w, maxLen: 1000}
	if err := p.Publish(context.Background(), StreamOrderIngest, Record{"id": "o1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if a := w.args[0]; a.MaxLen != 1000 || !a.Approx {
		t.Errorf("MAXLEN = %d approx=%v, want 1000 approx", a.MaxLen, a.Approx)
	}
}

func TestRedisPublisher_Error(t *testing.T) {
	p := &RedisPublisher{client: &fakeStreamWriter{err: errors.New("READONLY")}}
	if err := p.Publish(context.Background(), StreamOrderIngest, Record{"id": "o1"}); err == nil {
		t.Error("expected error")
	}
}

type fakeGroupReader struct {
	mu      sync.Mutex
	batches [][]redis.XStream
	created []string
	acked   []string
	cancel  context.CancelFunc
}

func (f *fakeGroupReader) XGroupCreateMkStream(_ context.Context, stream, _, _ string) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, stream)
	if stream == StreamOrderIngest {
		return redis.NewStatusResult("", errors.New("BUSYGROUP Consumer Group name already exists"))
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeGroupReader) XReadGroup(_ context.Context, _ *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		f.cancel()
		return redis.NewXStreamSliceCmdResult(nil, redis.Nil)
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return redis.NewXStreamSliceCmdResult(b, nil)
}

func (f *fakeGroupReader) XAck(_ context.Context, stream, _ string, ids ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.acked = append(f.acked, stream+"/"+id)
	}
	return redis.NewIntResult(int64(len(ids)), nil)
}

func (f *fakeGroupReader) Close() error { return nil }

func TestRedisConsumer_Consume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &fakeGroupReader{
		cancel: cancel,
		batches: [][]redis.XStream{{
			{Stream: StreamCustomerIngest, Messages: []redis.XMessage{
				{ID: "1700000000000-0", Values: map[string]any{"id": "c1"}},
				{ID: "1700000000001-0", Values: map[string]any{"id": "c2"}},
			}},
		}},
	}
	c := &RedisConsumer{client: reader, group: "g", consumer: "w1", streams: Streams, block: time.Millisecond}

	var got []Message
	err := c.Consume(ctx, func(_ context.Context, m Message) error {
		got = append(got, m)
		if m.Record["id"] == "c2" {
			return errors.New("handler failed")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(reader.created) != len(Streams) {
		t.Errorf("groups created on %v, want all streams", reader.created)
	}
	if len(got) != 2 {
		t.Fatalf("handled %d messages, want 2", len(got))
	}
	if got[0].Stream != StreamCustomerIngest || got[0].Record["id"] != "c1" {
		t.Errorf("first message = %+v", got[0])
	}
	if want := time.UnixMilli(1700000000000).UTC(); !got[0].Time.Equal(want) {
		t.Errorf("entry time = %v, want %v", got[0].Time, want)
	}
	if len(reader.acked) != 2 {
		t.Errorf("acked %v, want both entries acked", reader.acked)
	}
}

func TestStreamArgs(t *testing.T) {
	got := streamArgs([]string{"a", "b"})
	want := []string{"a", "b", ">", ">"}
	if len(got) != len(want) {
		t.Fatalf("streamArgs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("streamArgs[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

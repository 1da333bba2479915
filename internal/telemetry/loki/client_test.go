package loki

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-campaigns/backend/internal/events"
)

func TestNewClient_EmptyURL(t *testing.T) {
	_, err := NewClient("  ", nil)
	assert.Error(t, err)
}

func TestPush(t *testing.T) {
	var got pushRequest
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/", srv.Client())
	require.NoError(t, err)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	brokerTime := time.Date(2026, 2, 28, 9, 30, 0, 0, time.UTC)
	err = c.Push(context.Background(),
		events.Message{Stream: events.StreamCampaignEvents, ID: "0-1", Time: brokerTime,
			Record: events.Record{"type": "campaign_created", "id": "c1"}},
		events.Message{Stream: events.StreamCustomerIngest, ID: "0-2",
			Record: events.Record{"id": "u1", "name": "Ana"}},
		events.Message{Stream: events.StreamCampaignEvents, ID: "0-3", Time: brokerTime,
			Record: events.Record{"type": "campaign_created", "id": "c2"}},
	)
	require.NoError(t, err)

	assert.Equal(t, "/loki/api/v1/push", path)
	require.Len(t, got.Streams, 2)

	campaigns := got.Streams[0]
	assert.Equal(t, map[string]string{"job": "crm", "stream": events.StreamCampaignEvents, "type": "campaign_created"}, campaigns.Stream)
	require.Len(t, campaigns.Values, 2)
	assert.Equal(t, "1772271000000000000", campaigns.Values[0][0])
	assert.JSONEq(t, `{"type":"campaign_created","id":"c1"}`, campaigns.Values[0][1])

	customers := got.Streams[1]
	assert.Equal(t, map[string]string{"job": "crm", "stream": events.StreamCustomerIngest}, customers.Stream)
	require.Len(t, customers.Values, 1)
	assert.Equal(t, "1772366400000000000", customers.Values[0][0])
}

func TestPush_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, srv.Client())
	require.NoError(t, err)
	err = c.Push(context.Background(), events.Message{Stream: "s", Record: events.Record{"id": "1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestPush_NoMessages(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1", nil)
	require.NoError(t, err)
	assert.NoError(t, c.Push(context.Background()))
}

func TestLabels_Sanitized(t *testing.T) {
	labels := Labels(events.Message{Stream: "crm campaign/events", Record: events.Record{"type": " odd type "}})
	assert.Equal(t, "crm_campaign_events", labels["stream"])
	assert.Equal(t, "odd_type", labels["type"])
}

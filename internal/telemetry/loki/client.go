// Package loki pushes consumed CRM event records to Grafana Loki.
package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"crm-campaigns/backend/internal/events"
)

const defaultJob = "crm"

// pushRequest is the Loki push API request body (v1).
type pushRequest struct {
	Streams []stream `json:"streams"`
}

type stream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"` // [timestamp_ns, line]
}

// labelSanitize replaces characters we avoid in label values.
var labelSanitize = regexp.MustCompile(`[^a-zA-Z0-9_\-:.]`)

// Client pushes records to one Loki instance.
type Client struct {
	url  string
	http *http.Client
	now  func() time.Time
}

// NewClient returns a client for the Loki at baseURL (e.g. http://localhost:3100).
// A nil httpClient uses a client with a 10s timeout.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("loki: base URL is empty")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		url:  strings.TrimSuffix(baseURL, "/") + "/loki/api/v1/push",
		http: httpClient,
		now:  time.Now,
	}, nil
}

// Push sends msgs in one request, grouped into Loki streams by (stream, type) labels.
// The log line is the record as JSON; the entry time is the broker time, or now when unknown.
func (c *Client) Push(ctx context.Context, msgs ...events.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	body := pushRequest{}
	index := map[string]int{}
	for _, m := range msgs {
		labels := Labels(m)
		key := labels["stream"] + "\x00" + labels["type"]
		i, ok := index[key]
		if !ok {
			i = len(body.Streams)
			index[key] = i
			body.Streams = append(body.Streams, stream{Stream: labels})
		}
		line, err := json.Marshal(m.Record)
		if err != nil {
			return err
		}
		ts := m.Time
		if ts.IsZero() {
			ts = c.now()
		}
		body.Streams[i].Values = append(body.Streams[i].Values, []string{strconv.FormatInt(ts.UnixNano(), 10), string(line)})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("loki: push returned %s", resp.Status)
	}
	return nil
}

// Labels returns the Loki stream labels for m: job, stream and, when the record has one, type.
func Labels(m events.Message) map[string]string {
	labels := map[string]string{"job": defaultJob}
	if s := sanitize(m.Stream); s != "" {
		labels["stream"] = s
	}
	if s := sanitize(m.Record["type"]); s != "" {
		labels["type"] = s
	}
	return labels
}

func sanitize(v string) string {
	return labelSanitize.ReplaceAllString(strings.TrimSpace(v), "_")
}

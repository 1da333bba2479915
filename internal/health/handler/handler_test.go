package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockPinger implements Pinger for tests.
type mockPinger struct {
	pingErr error
}

func (m *mockPinger) PingContext(context.Context) error {
	return m.pingErr
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(&mockPinger{pingErr: errors.New("down")}).Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 regardless of dependencies", rec.Code)
	}
}

func TestReady(t *testing.T) {
	testCases := []struct {
		name   string
		pinger Pinger
		want   int
	}{
		{"nil pinger", nil, http.StatusOK},
		{"ping success", &mockPinger{}, http.StatusOK},
		{"ping failure", &mockPinger{pingErr: errors.New("connection refused")}, http.StatusServiceUnavailable},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewServer(tc.pinger).Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

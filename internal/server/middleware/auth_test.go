package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"crm-campaigns/backend/internal/security"
)

type fakeVerifier struct{ calls int }

func (f *fakeVerifier) Verify(token string) (*security.Claims, error) {
	f.calls++
	if token != "valid-token" {
		return nil, security.ErrInvalidToken
	}
	c := &security.Claims{Name: "Ops"}
	c.Subject = "operator-1"
	return c, nil
}

func TestAuth(t *testing.T) {
	testCases := []struct {
		name       string
		header     string
		wantStatus int
		wantOp     string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, ""},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, ""},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid token", "Bearer valid-token", http.StatusOK, "operator-1"},
		{"lowercase scheme", "bearer valid-token", http.StatusOK, "operator-1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var gotOp Operator
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotOp, _ = GetOperator(r.Context())
				w.WriteHeader(http.StatusOK)
			})
			h := Auth(&fakeVerifier{})(next)

			req := httptest.NewRequest(http.MethodGet, "/api/campaigns", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if gotOp.ID != tc.wantOp {
				t.Errorf("operator = %q, want %q", gotOp.ID, tc.wantOp)
			}
		})
	}
}

func TestAuth_NilVerifierPassesThrough(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := GetOperator(r.Context()); ok {
			t.Error("operator should not be set without a verifier")
		}
	})
	rec := httptest.NewRecorder()
	Auth(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("next handler not called")
	}
}

func TestExtractBearer(t *testing.T) {
	testCases := []struct {
		in, want string
	}{
		{"", ""},
		{"Bearer", ""},
		{"Bearer abc", "abc"},
		{"  BEARER   abc  ", "abc"},
		{"Token abc", ""},
	}
	for _, tc := range testCases {
		if got := extractBearer(tc.in); got != tc.want {
			t.Errorf("extractBearer(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

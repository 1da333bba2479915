package middleware

import (
	"log"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("crm-campaigns/backend/internal/server/middleware")

var requestDuration, _ = meter.Float64Histogram("crm.http.request.duration",
	metric.WithDescription("HTTP request latency"),
	metric.WithUnit("ms"))

// RequestLog logs one line per request and records its latency.
// Paths in skip (e.g. /health) are served without logging.
func RequestLog(skip map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			requestDuration.Record(r.Context(), float64(elapsed.Microseconds())/1000,
				metric.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.Int("http.status_code", status),
				))
			log.Printf("http: %s %s %d %s reqid=%s ip=%s", r.Method, r.URL.Path, status, elapsed.Round(time.Microsecond),
				chimw.GetReqID(r.Context()), r.RemoteAddr)
		})
	}
}

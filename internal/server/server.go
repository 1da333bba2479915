// Package server builds the HTTP API router.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	campaignhandler "crm-campaigns/backend/internal/campaign/handler"
	customerhandler "crm-campaigns/backend/internal/customer/handler"
	deliveryhandler "crm-campaigns/backend/internal/delivery/handler"
	healthhandler "crm-campaigns/backend/internal/health/handler"
	orderhandler "crm-campaigns/backend/internal/order/handler"
	segmenthandler "crm-campaigns/backend/internal/segment/handler"
	"crm-campaigns/backend/internal/server/middleware"
)

// Deps holds the route handlers and cross-cutting settings for the router.
// A nil handler leaves its routes unmounted.
type Deps struct {
	Customers *customerhandler.Handler
	Orders    *orderhandler.Handler
	Segments  *segmenthandler.Handler
	Campaigns *campaignhandler.Handler
	Delivery  *deliveryhandler.Handler

	// HealthPinger is used by /ready (e.g. *sql.DB). If nil, readiness skips the DB ping.
	HealthPinger healthhandler.Pinger
	// Verifier guards operator routes. If nil, they are open.
	Verifier middleware.TokenVerifier
	// CORSOrigin is the allowed dashboard origin.
	CORSOrigin string
}

// quietPaths are probes excluded from request logging.
var quietPaths = map[string]bool{"/health": true, "/ready": true}

// New returns the API router.
//
// Route → handler mapping:
//   - /api/customers  → internal/customer/handler
//   - /api/orders     → internal/order/handler
//   - /api/segments   → internal/segment/handler
//   - /api/campaigns  → internal/campaign/handler
//   - /api/receipts   → internal/delivery/handler (webhook, no operator auth)
//   - /api/vendor     → internal/delivery/handler (webhook, no operator auth)
//   - /health, /ready → internal/health/handler
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(deps.CORSOrigin))
	r.Use(middleware.RequestLog(quietPaths))

	health := healthhandler.NewServer(deps.HealthPinger)
	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)

	r.Route("/api", func(r chi.Router) {
		if deps.Delivery != nil {
			r.Route("/receipts", deps.Delivery.RegisterReceipts)
			r.Route("/vendor", deps.Delivery.RegisterVendor)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.Verifier))
			if deps.Customers != nil {
				r.Route("/customers", deps.Customers.Register)
			}
			if deps.Orders != nil {
				r.Route("/orders", deps.Orders.Register)
			}
			if deps.Segments != nil {
				r.Route("/segments", deps.Segments.Register)
			}
			if deps.Campaigns != nil {
				r.Route("/campaigns", deps.Campaigns.Register)
			}
		})
	})

	return otelhttp.NewHandler(r, "crm-api",
		otelhttp.WithFilter(func(req *http.Request) bool { return !quietPaths[req.URL.Path] }),
	)
}

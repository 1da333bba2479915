// Package handler serves the order ingest endpoint.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"crm-campaigns/backend/internal/events"
	"crm-campaigns/backend/internal/order/domain"
	"crm-campaigns/backend/internal/order/repository"
	"crm-campaigns/backend/internal/platform/httpx"
	"crm-campaigns/backend/internal/platform/validate"
)

// Handler serves /api/orders.
type Handler struct {
	repo   repository.Repository
	events events.Emitter
	now    func() time.Time
}

// NewHandler returns an order handler. emitter may be nil.
func NewHandler(repo repository.Repository, emitter events.Emitter) *Handler {
	return &Handler{repo: repo, events: emitter, now: func() time.Time { return time.Now().UTC() }}
}

// Register mounts the order routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.ListByCustomer)
}

// customerRef accepts a customer id sent either as a JSON string or as a number.
type customerRef string

func (c *customerRef) UnmarshalJSON(b []byte) error {
	if bytes.HasPrefix(b, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = customerRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = customerRef(n.String())
	return nil
}

type createRequest struct {
	CustomerID customerRef `json:"customerId"`
	Amount     float64     `json:"amount"`
	Date       string      `json:"date"`
}

type createResponse struct {
	Status  string `json:"status"`
	OrderID string `json:"orderId"`
}

// Create persists the order and publishes it to the order ingest stream. The customer id is
// not checked against existing customers.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.Decode(r, validate.Order, &req); err != nil {
		httpx.DecodeError(w, "order: decode", err)
		return
	}
	date, err := httpx.ParseTime(req.Date)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "date must be a date")
		return
	}
	o := &domain.Order{
		ID:         uuid.New().String(),
		CustomerID: string(req.CustomerID),
		Amount:     req.Amount,
		Date:       date,
		CreatedAt:  h.now(),
	}
	if err := o.Validate(); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.Create(r.Context(), o); err != nil {
		httpx.InternalError(w, "order: create", err)
		return
	}
	h.emit(r.Context(), o)
	httpx.JSON(w, http.StatusOK, createResponse{Status: "queued", OrderID: o.ID})
}

// ListByCustomer returns the orders of the customer named by the customerId query parameter.
func (h *Handler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customerId")
	if customerID == "" {
		httpx.Error(w, http.StatusBadRequest, "customerId is required")
		return
	}
	list, err := h.repo.ListByCustomer(r.Context(), customerID)
	if err != nil {
		httpx.InternalError(w, "order: list", err)
		return
	}
	if list == nil {
		list = []*domain.Order{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) emit(ctx context.Context, o *domain.Order) {
	if h.events == nil {
		return
	}
	h.events.Emit(ctx, events.StreamOrderIngest, events.Record{
		"id":         o.ID,
		"customerId": o.CustomerID,
		"amount":     strconv.FormatFloat(o.Amount, 'f', -1, 64),
		"date":       o.Date.Format(time.RFC3339),
	})
}

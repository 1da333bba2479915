// Package handler serves the customer ingest and listing endpoints.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"crm-campaigns/backend/internal/customer/domain"
	"crm-campaigns/backend/internal/customer/repository"
	"crm-campaigns/backend/internal/events"
	"crm-campaigns/backend/internal/platform/httpx"
	"crm-campaigns/backend/internal/platform/validate"
)

// Handler serves /api/customers.
type Handler struct {
	repo   repository.Repository
	events events.Emitter
	now    func() time.Time
}

// NewHandler returns a customer handler. emitter may be nil.
func NewHandler(repo repository.Repository, emitter events.Emitter) *Handler {
	return &Handler{repo: repo, events: emitter, now: func() time.Time { return time.Now().UTC() }}
}

// Register mounts the customer routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
}

type createRequest struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	TotalSpend float64 `json:"totalSpend"`
	Visits     int     `json:"visits"`
	LastActive string  `json:"lastActive"`
}

type createResponse struct {
	Status     string `json:"status"`
	CustomerID string `json:"customerId"`
}

// Create persists the customer and publishes it to the customer ingest stream.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.Decode(r, validate.Customer, &req); err != nil {
		httpx.DecodeError(w, "customer: decode", err)
		return
	}
	lastActive, err := httpx.ParseTime(req.LastActive)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "lastActive must be a date")
		return
	}
	now := h.now()
	c := &domain.Customer{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		TotalSpend: req.TotalSpend,
		Visits:     req.Visits,
		LastActive: lastActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := c.Validate(); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.Create(r.Context(), c); err != nil {
		httpx.InternalError(w, "customer: create", err)
		return
	}
	h.emit(r.Context(), c)
	httpx.JSON(w, http.StatusOK, createResponse{Status: "queued", CustomerID: c.ID})
}

// List returns customers oldest first. Optional limit and offset query parameters page the result.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	list, err := h.repo.List(r.Context(), limit, offset)
	if err != nil {
		httpx.InternalError(w, "customer: list", err)
		return
	}
	if list == nil {
		list = []*domain.Customer{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) emit(ctx context.Context, c *domain.Customer) {
	if h.events == nil {
		return
	}
	h.events.Emit(ctx, events.StreamCustomerIngest, events.Record{
		"id":         c.ID,
		"name":       c.Name,
		"email":      c.Email,
		"phone":      c.Phone,
		"totalSpend": strconv.FormatFloat(c.TotalSpend, 'f', -1, 64),
		"visits":     strconv.Itoa(c.Visits),
		"lastActive": c.LastActive.Format(time.RFC3339),
	})
}

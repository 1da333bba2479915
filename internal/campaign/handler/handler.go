// Package handler serves campaign launch and history endpoints.
package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crm-campaigns/backend/internal/campaign/domain"
	"crm-campaigns/backend/internal/campaign/service"
	"crm-campaigns/backend/internal/platform/httpx"
	"crm-campaigns/backend/internal/platform/validate"
	"crm-campaigns/backend/internal/server/middleware"
)

// Handler serves /api/campaigns.
type Handler struct {
	dispatcher *service.Dispatcher
}

// NewHandler returns a campaign handler backed by dispatcher.
func NewHandler(dispatcher *service.Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// Register mounts the campaign routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/logs", h.Logs)
}

type createRequest struct {
	SegmentID string   `json:"segmentId"`
	Name      string   `json:"name"`
	Message   string   `json:"message"`
	Tags      []string `json:"tags"`
}

type campaignResponse struct {
	*domain.Campaign
	Delivery domain.DeliverySummary `json:"delivery"`
}

// Create launches a campaign: 201 with the campaign, 404 for an unknown segment.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.Decode(r, validate.Campaign, &req); err != nil {
		httpx.DecodeError(w, "campaign: decode", err)
		return
	}
	c, err := h.dispatcher.Launch(r.Context(), service.LaunchInput{
		SegmentID: req.SegmentID,
		Name:      req.Name,
		Message:   req.Message,
		Tags:      req.Tags,
	})
	switch {
	case errors.Is(err, domain.ErrSegmentNotFound):
		httpx.Error(w, http.StatusNotFound, "Segment not found")
	case errors.Is(err, domain.ErrMessageRequired):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	case err != nil:
		httpx.InternalError(w, "campaign: launch", err)
	default:
		if op, ok := middleware.GetOperator(r.Context()); ok {
			log.Printf("campaign: %s launched by operator %s", c.ID, op.ID)
		}
		httpx.JSON(w, http.StatusCreated, c)
	}
}

// List returns all campaigns, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.dispatcher.List(r.Context())
	if err != nil {
		httpx.InternalError(w, "campaign: list", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

// Get returns the campaign with its live delivery summary.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.dispatcher.Get(r.Context(), id)
	if err != nil {
		httpx.InternalError(w, "campaign: get", err)
		return
	}
	if c == nil {
		httpx.Error(w, http.StatusNotFound, "Campaign not found")
		return
	}
	summary, err := h.dispatcher.DeliverySummary(r.Context(), id)
	if err != nil {
		httpx.InternalError(w, "campaign: summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, campaignResponse{Campaign: c, Delivery: summary})
}

// Logs returns the campaign's communication logs.
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.dispatcher.Logs(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, domain.ErrCampaignNotFound):
		httpx.Error(w, http.StatusNotFound, "Campaign not found")
	case err != nil:
		httpx.InternalError(w, "campaign: logs", err)
	default:
		httpx.JSON(w, http.StatusOK, logs)
	}
}

// Package handler serves segment creation, audience preview and lookup.
package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crm-campaigns/backend/internal/platform/httpx"
	"crm-campaigns/backend/internal/platform/validate"
	"crm-campaigns/backend/internal/segment/domain"
	"crm-campaigns/backend/internal/segment/engine"
	"crm-campaigns/backend/internal/segment/service"
)

// Handler serves /api/segments.
type Handler struct {
	segments *service.Service
	creator  *service.AutoLauncher
}

// NewHandler returns a segment handler. Creation goes through creator so named segments
// can launch a campaign.
func NewHandler(segments *service.Service, creator *service.AutoLauncher) *Handler {
	return &Handler{segments: segments, creator: creator}
}

// Register mounts the segment routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.Create)
	r.Post("/preview", h.Preview)
	r.Get("/{id}", h.Get)
}

type segmentRequest struct {
	Name  string        `json:"name"`
	Rules []domain.Rule `json:"rules"`
	Logic domain.Logic  `json:"logic"`
}

type segmentResponse struct {
	*domain.Segment
	AudienceSize int    `json:"audienceSize"`
	CampaignID   string `json:"campaignId,omitempty"`
}

// Create stores the segment and reports its audience size. When a campaign is auto-launched
// its id is included; a failed launch is logged and the segment is still returned.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req segmentRequest
	if err := httpx.Decode(r, validate.Segment, &req); err != nil {
		httpx.DecodeError(w, "segment: decode", err)
		return
	}
	res, err := h.creator.CreateSegment(r.Context(), service.CreateInput{Name: req.Name, Rules: req.Rules, Logic: req.Logic})
	if err != nil {
		if res == nil {
			writeRuleError(w, "segment: create", err)
			return
		}
		log.Printf("segment: %v", err)
	}
	httpx.JSON(w, http.StatusCreated, segmentResponse{Segment: res.Segment, AudienceSize: res.AudienceSize, CampaignID: res.CampaignID})
}

// Preview returns the audience size of a rule set without storing anything.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req segmentRequest
	if err := httpx.Decode(r, validate.Segment, &req); err != nil {
		httpx.DecodeError(w, "segment: decode", err)
		return
	}
	n, err := h.segments.Preview(r.Context(), req.Rules, req.Logic)
	if err != nil {
		writeRuleError(w, "segment: preview", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"audienceSize": n})
}

// Get returns the segment or 404.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	seg, err := h.segments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.InternalError(w, "segment: get", err)
		return
	}
	if seg == nil {
		httpx.Error(w, http.StatusNotFound, "Segment not found")
		return
	}
	httpx.JSON(w, http.StatusOK, seg)
}

func writeRuleError(w http.ResponseWriter, op string, err error) {
	var ire *engine.InvalidRuleError
	switch {
	case errors.As(err, &ire), errors.Is(err, engine.ErrInvalidLogic):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		httpx.InternalError(w, op, err)
	}
}

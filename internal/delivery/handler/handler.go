// Package handler serves the delivery receipt webhook and the vendor simulation endpoint.
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"crm-campaigns/backend/internal/campaign/domain"
	customerdomain "crm-campaigns/backend/internal/customer/domain"
	"crm-campaigns/backend/internal/delivery"
	"crm-campaigns/backend/internal/platform/httpx"
	"crm-campaigns/backend/internal/platform/validate"
)

// receiptTimeout bounds a receipt applied in the background after a vendor send.
const receiptTimeout = 5 * time.Second

// Handler serves /api/receipts and /api/vendor.
type Handler struct {
	processor *delivery.Processor
	vendor    delivery.Vendor
	wg        sync.WaitGroup
}

// NewHandler returns a delivery handler.
func NewHandler(processor *delivery.Processor, vendor delivery.Vendor) *Handler {
	return &Handler{processor: processor, vendor: vendor}
}

// RegisterReceipts mounts the receipt webhook on r.
func (h *Handler) RegisterReceipts(r chi.Router) {
	r.Post("/", h.Receipt)
}

// RegisterVendor mounts the vendor simulation routes on r.
func (h *Handler) RegisterVendor(r chi.Router) {
	r.Post("/send", h.Send)
}

// Receipt applies a delivery receipt. Receipts for unknown logs are accepted and ignored.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	var req delivery.Receipt
	if err := httpx.Decode(r, validate.Receipt, &req); err != nil {
		httpx.DecodeError(w, "delivery: decode", err)
		return
	}
	if err := h.processor.ApplyReceipt(r.Context(), req); err != nil {
		if errors.Is(err, delivery.ErrInvalidStatus) {
			httpx.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		httpx.InternalError(w, "delivery: receipt", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type sendRequest struct {
	CampaignID string `json:"campaignId"`
	Customer   struct {
		ID string `json:"id"`
	} `json:"customer"`
	Message string `json:"message"`
}

// Send draws a delivery outcome from the vendor, returns it, and applies the matching receipt
// in the background as the vendor's callback would.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := httpx.Decode(r, validate.VendorSend, &req); err != nil {
		httpx.DecodeError(w, "delivery: decode", err)
		return
	}
	status, err := h.vendor.Send(r.Context(), req.CampaignID, &customerdomain.Customer{ID: req.Customer.ID}, req.Message)
	if err != nil {
		log.Printf("delivery: vendor send: %v", err)
		status = domain.StatusFailed
	}
	receipt := delivery.Receipt{CampaignID: req.CampaignID, CustomerID: req.Customer.ID, Status: status}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), receiptTimeout)
		defer cancel()
		if err := h.processor.ApplyReceipt(ctx, receipt); err != nil {
			log.Printf("delivery: apply vendor receipt: %v", err)
		}
	}()
	httpx.JSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

// Wait blocks until background receipts started by Send have finished.
func (h *Handler) Wait() {
	h.wg.Wait()
}

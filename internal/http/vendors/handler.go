package vendor

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caldervale/ledgerline/internal/vendors"
)

type Handler struct {
	svc *vendor.Service
}

func NewHandler(svc *vendor.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/corrections", h.corrections)
}

type vendorResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email,omitempty"`
	Address         string          `json:"address,omitempty"`
	ExtractedFields int64           `json:"extracted_fields"`
	CorrectedFields int64           `json:"corrected_fields"`
	AccuracyRate    decimal.Decimal `json:"accuracy_rate"`
	CreatedAt       time.Time       `json:"created_at"`
}

type correctionResponse struct {
	ID          uuid.UUID  `json:"id"`
	InvoiceID   uuid.UUID  `json:"invoice_id"`
	LineItemID  *uuid.UUID `json:"line_item_id,omitempty"`
	Field       string     `json:"field"`
	OldValue    string     `json:"old_value"`
	NewValue    string     `json:"new_value"`
	CorrectedBy string     `json:"corrected_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toResponse(v *vendor.Vendor) vendorResponse {
	return vendorResponse{
		ID:              v.ID,
		Name:            v.Name,
		Email:           v.Email,
		Address:         v.Address,
		ExtractedFields: v.ExtractedFields,
		CorrectedFields: v.CorrectedFields,
		AccuracyRate:    v.AccuracyRate(),
		CreatedAt:       v.CreatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.svc.List(r.Context())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := make([]vendorResponse, len(vendors))
	for i, v := range vendors {
		resp[i] = toResponse(v)
	}

	writeJSON(w, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	v, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, vendor.ErrNotFound) {
			http.Error(w, "vendor not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, toResponse(v))
}

func (h *Handler) corrections(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	corrections, err := h.svc.Corrections(r.Context(), id)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := make([]correctionResponse, len(corrections))
	for i, c := range corrections {
		resp[i] = correctionResponse{
			ID:          c.ID,
			InvoiceID:   c.InvoiceID,
			LineItemID:  c.LineItemID,
			Field:       c.Field,
			OldValue:    c.OldValue,
			NewValue:    c.NewValue,
			CorrectedBy: c.CorrectedBy,
			CreatedAt:   c.CreatedAt,
		}
	}

	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

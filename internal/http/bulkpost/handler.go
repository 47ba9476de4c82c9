package bulkpost

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/caldervale/ledgerline/internal/poster"
)

type Handler struct {
	svc *poster.Service
}

func NewHandler(svc *poster.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.post)
}

type postRequest struct {
	InvoiceIDs []uuid.UUID `json:"invoice_ids"`
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if len(req.InvoiceIDs) == 0 {
		http.Error(w, "invoice_ids is required", http.StatusBadRequest)
		return
	}

	result, err := h.svc.PostBatch(r.Context(), req.InvoiceIDs)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(result); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

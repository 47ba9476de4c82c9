package preflight

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/caldervale/ledgerline/internal/preflight"
)

type Handler struct {
	engine *preflight.Engine
}

func NewHandler(engine *preflight.Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.check)
}

type checkRequest struct {
	InvoiceIDs []uuid.UUID `json:"invoice_ids"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if len(req.InvoiceIDs) == 0 {
		http.Error(w, "invoice_ids is required", http.StatusBadRequest)
		return
	}

	resp, err := h.engine.Check(r.Context(), req.InvoiceIDs)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

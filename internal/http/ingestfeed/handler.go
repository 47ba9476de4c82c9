package ingestfeed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/caldervale/ledgerline/internal/ingest"
	"github.com/caldervale/ledgerline/internal/invoice"
)

type Handler struct {
	ingestSvc  *ingest.Service
	invoiceSvc *invoice.Service
}

func NewHandler(ingestSvc *ingest.Service, invoiceSvc *invoice.Service) *Handler {
	return &Handler{
		ingestSvc:  ingestSvc,
		invoiceSvc: invoiceSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.ingest)
}

type invoiceSummary struct {
	ID         uuid.UUID      `json:"id"`
	Number     string         `json:"number"`
	VendorName string         `json:"vendor_name"`
	Status     invoice.Status `json:"status"`
	Total      string         `json:"total"`
	Lines      int            `json:"lines"`
	Date       time.Time      `json:"invoice_date"`
}

type ingestResponse struct {
	Created    []invoiceSummary `json:"created"`
	Duplicates []invoiceSummary `json:"duplicates"`
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	feed := ingest.Feed(r.FormValue("feed"))
	if feed == "" {
		http.Error(w, "feed field is required", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	params, err := h.ingestSvc.Parse(feed, file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.invoiceSvc.Ingest(r.Context(), params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := ingestResponse{
		Created:    toSummaries(result.Created),
		Duplicates: toSummaries(result.Duplicates),
	}

	status := http.StatusCreated
	if len(result.Created) == 0 && len(result.Duplicates) > 0 {
		status = http.StatusConflict
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func toSummaries(invs []*invoice.Invoice) []invoiceSummary {
	out := make([]invoiceSummary, len(invs))
	for i, inv := range invs {
		out[i] = invoiceSummary{
			ID:         inv.ID,
			Number:     inv.Number,
			VendorName: inv.VendorName,
			Status:     inv.Status,
			Total:      inv.Total.StringFixed(2),
			Lines:      len(inv.LineItems),
			Date:       inv.InvoiceDate,
		}
	}

	return out
}

package issue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/caldervale/ledgerline/internal/issue"
)

type Handler struct {
	svc *issue.Service
}

func NewHandler(svc *issue.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.open)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/{id}/report", h.report)
	r.Post("/{id}/communications", h.addCommunication)
	r.Post("/{id}/resolve", h.resolve)
	r.Post("/{id}/close", h.close)
}

type openIssueRequest struct {
	InvoiceID   uuid.UUID   `json:"invoice_id"`
	VendorName  string      `json:"vendor_name,omitempty"`
	Scope       issue.Scope `json:"scope,omitempty"`
	Type        issue.Type  `json:"type"`
	Description string      `json:"description,omitempty"`
	LineItemIDs []uuid.UUID `json:"line_item_ids,omitempty"`
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	var req openIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	iss, err := h.svc.Open(r.Context(), issue.OpenParams{
		InvoiceID:   req.InvoiceID,
		VendorName:  req.VendorName,
		Scope:       req.Scope,
		Type:        req.Type,
		Description: req.Description,
		LineItemIDs: req.LineItemIDs,
	})
	if err != nil {
		if errors.Is(err, issue.ErrUnknownType) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusCreated, toResponse(iss))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := issue.ListFilter{}

	if s := r.URL.Query().Get("invoice_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, "invalid invoice_id", http.StatusBadRequest)
			return
		}

		filter.InvoiceID = new(id)
	}

	if s := r.URL.Query().Get("vendor"); s != "" {
		filter.VendorName = new(s)
	}

	if s := r.URL.Query().Get("scope"); s != "" {
		filter.Scope = new(issue.Scope(s))
	}

	if r.URL.Query().Get("unresolved") == "true" {
		filter.Unresolved = true
	}

	issues, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(issues))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	iss, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, issue.ErrNotFound) {
			http.Error(w, "issue not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toResponse(iss))
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Report)
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Close)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, do func(ctx context.Context, id uuid.UUID) (*issue.Issue, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	iss, err := do(r.Context(), id)
	if err != nil {
		writeTransitionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(iss))
}

type resolveRequest struct {
	Resolution issue.ResolutionType `json:"resolution"`
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	iss, err := h.svc.Resolve(r.Context(), id, req.Resolution)
	if err != nil {
		writeTransitionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(iss))
}

type communicationRequest struct {
	Kind      issue.CommKind `json:"kind"`
	Content   string         `json:"content"`
	Recipient string         `json:"recipient,omitempty"`
}

func (h *Handler) addCommunication(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req communicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Content == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}

	comm, err := h.svc.AddCommunication(r.Context(), id, req.Kind, req.Content, req.Recipient)
	if err != nil {
		if errors.Is(err, issue.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusCreated, toCommResponse(comm))
}

func writeTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, issue.ErrNotFound):
		http.Error(w, "issue not found", http.StatusNotFound)
	case errors.Is(err, issue.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

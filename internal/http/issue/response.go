package issue

import (
	"time"

	"github.com/google/uuid"

	"github.com/caldervale/ledgerline/internal/issue"
)

type issueResponse struct {
	ID               uuid.UUID              `json:"id"`
	InvoiceID        uuid.UUID              `json:"invoice_id"`
	VendorName       string                 `json:"vendor_name,omitempty"`
	Scope            issue.Scope            `json:"scope"`
	Type             issue.Type             `json:"type"`
	Status           issue.Status           `json:"status"`
	Description      string                 `json:"description,omitempty"`
	LineItemIDs      []uuid.UUID            `json:"line_item_ids,omitempty"`
	ResolutionType   issue.ResolutionType   `json:"resolution_type,omitempty"`
	ResolutionStatus issue.ResolutionStatus `json:"resolution_status"`
	ResolvedAt       *time.Time             `json:"resolved_at,omitempty"`
	Communications   []commResponse         `json:"communications,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        *time.Time             `json:"updated_at,omitempty"`
}

type commResponse struct {
	ID        uuid.UUID      `json:"id"`
	Seq       int            `json:"seq"`
	Kind      issue.CommKind `json:"kind"`
	Content   string         `json:"content"`
	Recipient string         `json:"recipient,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func toResponse(iss *issue.Issue) issueResponse {
	resp := issueResponse{
		ID:               iss.ID,
		InvoiceID:        iss.InvoiceID,
		VendorName:       iss.VendorName,
		Scope:            iss.Scope,
		Type:             iss.Type,
		Status:           iss.Status,
		Description:      iss.Description,
		LineItemIDs:      iss.LineItemIDs,
		ResolutionType:   iss.ResolutionType,
		ResolutionStatus: iss.ResolutionStatus,
		ResolvedAt:       iss.ResolvedAt,
		CreatedAt:        iss.CreatedAt,
		UpdatedAt:        iss.UpdatedAt,
	}

	for _, comm := range iss.Communications {
		resp.Communications = append(resp.Communications, toCommResponse(&comm))
	}

	return resp
}

func toCommResponse(comm *issue.Communication) commResponse {
	return commResponse{
		ID:        comm.ID,
		Seq:       comm.Seq,
		Kind:      comm.Kind,
		Content:   comm.Content,
		Recipient: comm.Recipient,
		CreatedAt: comm.CreatedAt,
	}
}

func toResponseList(issues []*issue.Issue) []issueResponse {
	resp := make([]issueResponse, len(issues))
	for i, iss := range issues {
		resp[i] = toResponse(iss)
	}

	return resp
}

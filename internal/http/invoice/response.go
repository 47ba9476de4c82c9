package invoice

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caldervale/ledgerline/internal/invoice"
)

type invoiceResponse struct {
	ID            uuid.UUID       `json:"id"`
	Number        string          `json:"number"`
	VendorName    string          `json:"vendor_name"`
	VendorEmail   string          `json:"vendor_email,omitempty"`
	VendorAddress string          `json:"vendor_address,omitempty"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Shipping      decimal.Decimal `json:"shipping"`
	Discount      decimal.Decimal `json:"discount"`
	Deposit       decimal.Decimal `json:"deposit"`
	Total         decimal.Decimal `json:"total"`
	Status        invoice.Status  `json:"status"`
	Approved      bool            `json:"approved"`
	PostedAt      *time.Time      `json:"posted_at,omitempty"`
	ExternalRef   string          `json:"external_reference,omitempty"`
	PostResponse  json.RawMessage `json:"post_response,omitempty"`
	LineItems     []lineResponse  `json:"line_items,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     *time.Time      `json:"updated_at,omitempty"`
}

type lineResponse struct {
	ID           uuid.UUID       `json:"id"`
	Position     int             `json:"position"`
	Description  string          `json:"description"`
	UnitsPerCase *int64          `json:"units_per_case,omitempty"`
	Cases        *int64          `json:"cases,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Amount       decimal.Decimal `json:"amount"`
	GLCode       string          `json:"gl_code,omitempty"`
	Confidence   decimal.Decimal `json:"confidence"`
	Corrected    bool            `json:"corrected"`
}

func toResponse(inv *invoice.Invoice) invoiceResponse {
	resp := invoiceResponse{
		ID:            inv.ID,
		Number:        inv.Number,
		VendorName:    inv.VendorName,
		VendorEmail:   inv.VendorEmail,
		VendorAddress: inv.VendorAddress,
		InvoiceDate:   inv.InvoiceDate,
		Subtotal:      inv.Subtotal,
		Tax:           inv.Tax,
		Shipping:      inv.Shipping,
		Discount:      inv.Discount,
		Deposit:       inv.Deposit,
		Total:         inv.Total,
		Status:        inv.Status,
		Approved:      inv.Approved,
		PostedAt:      inv.PostedAt,
		ExternalRef:   inv.ExternalRef,
		PostResponse:  inv.PostResponse,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}

	for _, li := range inv.LineItems {
		resp.LineItems = append(resp.LineItems, lineResponse{
			ID:           li.ID,
			Position:     li.Position,
			Description:  li.Description,
			UnitsPerCase: li.UnitsPerCase,
			Cases:        li.Cases,
			Quantity:     li.Quantity,
			UnitCost:     li.UnitCost,
			Amount:       li.Amount,
			GLCode:       li.GLCode,
			Confidence:   li.Confidence,
			Corrected:    li.Corrected,
		})
	}

	return resp
}

func toResponseList(invs []*invoice.Invoice) []invoiceResponse {
	resp := make([]invoiceResponse, len(invs))
	for i, inv := range invs {
		resp[i] = toResponse(inv)
	}

	return resp
}

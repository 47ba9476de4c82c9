package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/caldervale/ledgerline/internal/invoice"
	"github.com/caldervale/ledgerline/internal/poster"
)

// StatusError is a ledger rejection. Retryable: the invoice lands in failed
// and can be moved back to ready_to_push.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ledger rejected post with status %d: %s", e.Code, e.Body)
}

// Client posts invoices to the external accounting ledger, one request per
// invoice. The ledger may coalesce on its side; this client never batches.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type lineItemPayload struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitCost    string `json:"unit_cost"`
	Amount      string `json:"amount"`
	GLCode      string `json:"gl_code,omitempty"`
}

type postPayload struct {
	InvoiceNumber string            `json:"invoice_number"`
	VendorName    string            `json:"vendor_name"`
	InvoiceDate   string            `json:"invoice_date"`
	Subtotal      string            `json:"subtotal"`
	Tax           string            `json:"tax"`
	Shipping      string            `json:"shipping"`
	Discount      string            `json:"discount"`
	Total         string            `json:"total"`
	LineItems     []lineItemPayload `json:"line_items"`
}

type postResponse struct {
	Reference string `json:"reference"`
}

// Post sends one invoice and returns the ledger's reference number.
func (c *Client) Post(ctx context.Context, inv *invoice.Invoice) (*poster.Receipt, error) {
	payload := postPayload{
		InvoiceNumber: inv.Number,
		VendorName:    inv.VendorName,
		InvoiceDate:   inv.InvoiceDate.Format(time.DateOnly),
		Subtotal:      inv.Subtotal.StringFixed(2),
		Tax:           inv.Tax.StringFixed(2),
		Shipping:      inv.Shipping.StringFixed(2),
		Discount:      inv.Discount.StringFixed(2),
		Total:         inv.Total.StringFixed(2),
	}

	for _, li := range inv.LineItems {
		payload.LineItems = append(payload.LineItems, lineItemPayload{
			Description: li.Description,
			Quantity:    li.Quantity.String(),
			UnitCost:    li.UnitCost.StringFixed(2),
			Amount:      li.Amount.StringFixed(2),
			GLCode:      li.GLCode,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding invoice: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invoices", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}

	var parsed postResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if parsed.Reference == "" {
		return nil, fmt.Errorf("ledger response missing reference")
	}

	return &poster.Receipt{Reference: parsed.Reference, Payload: raw}, nil
}

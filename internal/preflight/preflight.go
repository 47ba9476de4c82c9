package preflight

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caldervale/ledgerline/internal/invoice"
	"github.com/caldervale/ledgerline/internal/issue"
	"github.com/caldervale/ledgerline/internal/money"
)

// Severity of a preflight finding. Only blocking findings keep an invoice out
// of readyIds.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityBlocking Severity = "blocking"
)

// Finding is one per-invoice preflight message. Findings are ordered by batch
// input position, not severity, so the UI renders deterministically.
type Finding struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
}

// VendorBlock lists every batch invoice of a vendor suppressed by an
// unresolved vendor-wide dispute.
type VendorBlock struct {
	VendorName string      `json:"vendor_name"`
	InvoiceIDs []uuid.UUID `json:"invoice_ids"`
	Message    string      `json:"message"`
}

// Response partitions a candidate batch. Every requested id lands in ReadyIDs,
// carries a blocking finding, or sits under a vendor block. The response is
// never persisted; eligibility is recomputed on every call.
type Response struct {
	ReadyIDs        []uuid.UUID   `json:"ready_ids"`
	Findings        []Finding     `json:"issues"`
	BlockingVendors []VendorBlock `json:"blocking_vendors"`
}

type InvoiceSource interface {
	Get(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error)
}

type IssueSource interface {
	List(ctx context.Context, filter issue.ListFilter) ([]*issue.Issue, error)
}

type Engine struct {
	invoices      InvoiceSource
	issues        IssueSource
	minConfidence decimal.Decimal
	tolerance     decimal.Decimal
}

type Options struct {
	// MinConfidence is the extraction confidence below which an uncorrected
	// line item draws a warning.
	MinConfidence decimal.Decimal
	// Tolerance is the rounding slack for monetary invariants.
	Tolerance decimal.Decimal
}

func NewEngine(invoices InvoiceSource, issues IssueSource, opts Options) *Engine {
	if opts.MinConfidence.IsZero() {
		opts.MinConfidence = decimal.NewFromFloat(0.75)
	}

	if opts.Tolerance.IsZero() {
		opts.Tolerance = money.DefaultTolerance
	}

	return &Engine{
		invoices:      invoices,
		issues:        issues,
		minConfidence: opts.MinConfidence,
		tolerance:     opts.Tolerance,
	}
}

type candidate struct {
	id       uuid.UUID
	inv      *invoice.Invoice
	blocked  bool
	findings []Finding
}

// Check evaluates a candidate batch without side effects. Per invoice, in
// order: postable status, structural completeness and monetary invariants,
// unresolved issues, low-confidence lines. A vendor with any unresolved
// vendor-scoped issue then pulls all of its batch invoices into
// BlockingVendors, individually clean or not.
func (e *Engine) Check(ctx context.Context, ids []uuid.UUID) (*Response, error) {
	unresolved, err := e.issues.List(ctx, issue.ListFilter{Unresolved: true})
	if err != nil {
		return nil, fmt.Errorf("listing unresolved issues: %w", err)
	}

	byInvoice := make(map[uuid.UUID][]*issue.Issue)
	vendorIssues := make(map[string]*issue.Issue)

	for _, iss := range unresolved {
		if iss.Scope == issue.ScopeVendor {
			if _, seen := vendorIssues[iss.VendorName]; !seen {
				vendorIssues[iss.VendorName] = iss
			}

			continue
		}

		byInvoice[iss.InvoiceID] = append(byInvoice[iss.InvoiceID], iss)
	}

	seen := make(map[uuid.UUID]bool, len(ids))
	candidates := make([]*candidate, 0, len(ids))

	for _, id := range ids {
		if seen[id] {
			continue
		}

		seen[id] = true

		c := &candidate{id: id}
		candidates = append(candidates, c)

		inv, err := e.invoices.Get(ctx, id)
		if err != nil {
			if errors.Is(err, invoice.ErrNotFound) {
				c.block(id, "invoice not found")
				continue
			}

			return nil, fmt.Errorf("loading invoice %s: %w", id, err)
		}

		c.inv = inv

		e.checkStatus(c)
		e.checkStructure(c)

		for _, iss := range byInvoice[id] {
			c.block(id, fmt.Sprintf("unresolved %s issue: %s", iss.Type, iss.Description))
		}

		e.checkConfidence(c)
	}

	return assemble(candidates, vendorIssues), nil
}

func (c *candidate) block(id uuid.UUID, msg string) {
	c.blocked = true
	c.findings = append(c.findings, Finding{InvoiceID: id, Severity: SeverityBlocking, Message: msg})
}

func (c *candidate) warn(id uuid.UUID, msg string) {
	c.findings = append(c.findings, Finding{InvoiceID: id, Severity: SeverityWarning, Message: msg})
}

func (e *Engine) checkStatus(c *candidate) {
	switch c.inv.Status {
	case invoice.StatusReadyToPush:
	case invoice.StatusNeedsReview:
		c.block(c.id, "awaiting review approval")
	default:
		c.block(c.id, fmt.Sprintf("status %s is not postable", c.inv.Status))
	}
}

func (e *Engine) checkStructure(c *candidate) {
	inv := c.inv

	if inv.VendorName == "" {
		c.block(c.id, "vendor name is missing")
	}

	if inv.Number == "" {
		c.block(c.id, "invoice number is missing")
	}

	expected := inv.ExpectedTotal()
	if !money.EqualWithin(inv.Total, expected, e.tolerance) {
		c.block(c.id, fmt.Sprintf(
			"total %s does not reconcile, expected %s from subtotal + tax + shipping - discount",
			inv.Total.StringFixed(2), expected.StringFixed(2)))
	}

	for i := range inv.LineItems {
		li := &inv.LineItems[i]

		if !li.QuantityConsistent() {
			c.block(c.id, fmt.Sprintf(
				"line %d quantity %s does not match %d units/case x %d cases",
				li.Position+1, li.Quantity.String(), *li.UnitsPerCase, *li.Cases))
		}

		if !money.EqualWithin(li.Amount, li.ExpectedAmount(), e.tolerance) {
			c.block(c.id, fmt.Sprintf(
				"line %d amount %s does not match quantity x unit cost (%s)",
				li.Position+1, li.Amount.StringFixed(2), li.ExpectedAmount().StringFixed(2)))
		}
	}
}

func (e *Engine) checkConfidence(c *candidate) {
	for i := range c.inv.LineItems {
		li := &c.inv.LineItems[i]

		if li.Corrected || li.Confidence.GreaterThanOrEqual(e.minConfidence) {
			continue
		}

		c.warn(c.id, fmt.Sprintf(
			"line %d extracted with low confidence (%s), no correction recorded",
			li.Position+1, li.Confidence.String()))
	}
}

func assemble(candidates []*candidate, vendorIssues map[string]*issue.Issue) *Response {
	resp := &Response{
		ReadyIDs:        []uuid.UUID{},
		Findings:        []Finding{},
		BlockingVendors: []VendorBlock{},
	}

	blockIdx := make(map[string]int)

	for _, c := range candidates {
		resp.Findings = append(resp.Findings, c.findings...)

		if c.inv != nil {
			if iss, found := vendorIssues[c.inv.VendorName]; found {
				idx, started := blockIdx[c.inv.VendorName]
				if !started {
					resp.BlockingVendors = append(resp.BlockingVendors, VendorBlock{
						VendorName: c.inv.VendorName,
						Message:    fmt.Sprintf("unresolved vendor-wide %s issue: %s", iss.Type, iss.Description),
					})
					idx = len(resp.BlockingVendors) - 1
					blockIdx[c.inv.VendorName] = idx
				}

				resp.BlockingVendors[idx].InvoiceIDs = append(resp.BlockingVendors[idx].InvoiceIDs, c.id)

				continue
			}
		}

		if !c.blocked {
			resp.ReadyIDs = append(resp.ReadyIDs, c.id)
		}
	}

	return resp
}

// Package extractfeed parses the CSV export of the upstream extraction
// service: one row per line item, invoice-level columns repeated on every
// row, a header row somewhere above the data.
package extractfeed

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/caldervale/ledgerline/internal/invoice"
	"github.com/caldervale/ledgerline/internal/money"
)

const (
	colNumber     = "Invoice No"
	colVendor     = "Vendor"
	colEmail      = "Vendor Email"
	colAddress    = "Vendor Address"
	colDate       = "Invoice Date"
	colSubtotal   = "Subtotal"
	colTax        = "Tax"
	colShipping   = "Shipping"
	colDiscount   = "Discount"
	colDeposit    = "Deposit"
	colTotal      = "Total"
	colDesc       = "Description"
	colUnits      = "Units/Case"
	colCases      = "Cases"
	colQty        = "Qty"
	colUnitCost   = "Unit Cost"
	colAmount     = "Amount"
	colGL         = "GL Code"
	colConfidence = "Confidence"
)

type Parser struct{}

func New() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]invoice.CreateParams, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading feed csv: %w", err)
	}

	cols := map[string]int{}
	headerFound := false

	var (
		params  []invoice.CreateParams
		current *invoice.CreateParams
	)

	for _, row := range rows {
		if !headerFound {
			// Search for the header landmark: a row carrying at least the
			// invoice number, vendor and amount columns.
			found := map[string]int{}

			for i, col := range row {
				found[strings.TrimSpace(col)] = i
			}

			_, hasNumber := found[colNumber]
			_, hasVendor := found[colVendor]
			_, hasAmount := found[colAmount]

			if hasNumber && hasVendor && hasAmount {
				cols = found
				headerFound = true
			}

			continue
		}

		number := field(row, cols, colNumber)
		if number == "" {
			continue
		}

		if current == nil || current.Number != number || current.VendorName != field(row, cols, colVendor) {
			if current != nil {
				params = append(params, *current)
			}

			header, err := parseInvoiceRow(row, cols, number)
			if err != nil {
				// Footer or garbled row; keep going.
				current = nil
				continue
			}

			current = header
		}

		line, err := parseLineRow(row, cols)
		if err != nil {
			continue
		}

		current.Lines = append(current.Lines, *line)
	}

	if !headerFound {
		return nil, fmt.Errorf("no header row found in feed")
	}

	if current != nil {
		params = append(params, *current)
	}

	return params, nil
}

func field(row []string, cols map[string]int, name string) string {
	idx, found := cols[name]
	if !found || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func parseInvoiceRow(row []string, cols map[string]int, number string) (*invoice.CreateParams, error) {
	date, err := time.Parse("2006-01-02", field(row, cols, colDate))
	if err != nil {
		return nil, fmt.Errorf("parsing invoice date: %w", err)
	}

	p := &invoice.CreateParams{
		Number:        number,
		VendorName:    field(row, cols, colVendor),
		VendorEmail:   field(row, cols, colEmail),
		VendorAddress: field(row, cols, colAddress),
		InvoiceDate:   date,
		Status:        invoice.StatusParsed,
	}

	for _, m := range []struct {
		col  string
		dest *decimal.Decimal
	}{
		{colSubtotal, &p.Subtotal},
		{colTax, &p.Tax},
		{colShipping, &p.Shipping},
		{colDiscount, &p.Discount},
		{colDeposit, &p.Deposit},
		{colTotal, &p.Total},
	} {
		raw := field(row, cols, m.col)
		if raw == "" {
			continue
		}

		d, err := money.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", m.col, err)
		}

		*m.dest = d
	}

	return p, nil
}

func parseLineRow(row []string, cols map[string]int) (*invoice.LineParams, error) {
	qty, err := money.Parse(field(row, cols, colQty))
	if err != nil {
		return nil, fmt.Errorf("parsing quantity: %w", err)
	}

	unitCost, err := money.Parse(field(row, cols, colUnitCost))
	if err != nil {
		return nil, fmt.Errorf("parsing unit cost: %w", err)
	}

	amount, err := money.Parse(field(row, cols, colAmount))
	if err != nil {
		return nil, fmt.Errorf("parsing amount: %w", err)
	}

	line := &invoice.LineParams{
		Description: field(row, cols, colDesc),
		Quantity:    qty,
		UnitCost:    unitCost,
		Amount:      amount,
		GLCode:      field(row, cols, colGL),
	}

	if raw := field(row, cols, colConfidence); raw != "" {
		conf, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing confidence: %w", err)
		}

		line.Confidence = conf
	}

	if raw := field(row, cols, colUnits); raw != "" {
		units, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing units/case: %w", err)
		}

		line.UnitsPerCase = &units
	}

	if raw := field(row, cols, colCases); raw != "" {
		cases, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing cases: %w", err)
		}

		line.Cases = &cases
	}

	return line, nil
}

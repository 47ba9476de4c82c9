package extractfeed_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caldervale/ledgerline/internal/ingest/extractfeed"
	"github.com/caldervale/ledgerline/internal/invoice"
)

const sampleFeed = `Extraction Export,,,,,,,,,,,,,,,,,
Generated 2025-06-03,,,,,,,,,,,,,,,,,
Invoice No,Vendor,Vendor Email,Vendor Address,Invoice Date,Subtotal,Tax,Shipping,Discount,Deposit,Total,Description,Units/Case,Cases,Qty,Unit Cost,Amount,GL Code,Confidence
INV-100,Crestline Produce,ap@crestline.example,12 Dock Rd,2025-06-01,100.00,13.00,5.00,0.00,0.00,118.00,Roma Tomatoes 10lb,10,4,40,2.00,80.00,5010,0.97
INV-100,Crestline Produce,ap@crestline.example,12 Dock Rd,2025-06-01,100.00,13.00,5.00,0.00,0.00,118.00,Basil Bunch,,,8,2.50,20.00,5010,0.42
INV-200,Harbor Dairy,,,2025-06-02,"1,200.00",156.00,0.00,56.00,0.00,"1,300.00",2% Milk 12x1L,12,25,300,4.00,"1,200.00",5020,0.99
`

func TestParser_Parse(t *testing.T) {
	parser := extractfeed.New()

	params, err := parser.Parse(strings.NewReader(sampleFeed))
	require.NoError(t, err)
	require.Len(t, params, 2)

	first := params[0]
	assert.Equal(t, "INV-100", first.Number)
	assert.Equal(t, "Crestline Produce", first.VendorName)
	assert.Equal(t, "ap@crestline.example", first.VendorEmail)
	assert.Equal(t, invoice.StatusParsed, first.Status)
	assert.Equal(t, "118", first.Total.String())
	assert.Equal(t, "2025-06-01", first.InvoiceDate.Format("2006-01-02"))

	require.Len(t, first.Lines, 2)
	assert.Equal(t, "Roma Tomatoes 10lb", first.Lines[0].Description)
	require.NotNil(t, first.Lines[0].UnitsPerCase)
	assert.Equal(t, int64(10), *first.Lines[0].UnitsPerCase)
	require.NotNil(t, first.Lines[0].Cases)
	assert.Equal(t, int64(4), *first.Lines[0].Cases)
	assert.Equal(t, "0.42", first.Lines[1].Confidence.String())
	assert.Nil(t, first.Lines[1].UnitsPerCase)

	second := params[1]
	assert.Equal(t, "INV-200", second.Number)
	assert.Equal(t, "Harbor Dairy", second.VendorName)
	// Thousands separators in monetary columns are stripped.
	assert.Equal(t, "1200", second.Subtotal.String())
	assert.Equal(t, "1300", second.Total.String())
	require.Len(t, second.Lines, 1)
	assert.Equal(t, "1200", second.Lines[0].Amount.String())
}

func TestParser_Parse_NoHeader(t *testing.T) {
	parser := extractfeed.New()

	_, err := parser.Parse(strings.NewReader("just,some,noise\nwithout,a,header\n"))
	assert.Error(t, err)
}

func TestParser_Parse_SkipsGarbledRows(t *testing.T) {
	feed := `Invoice No,Vendor,Invoice Date,Subtotal,Tax,Shipping,Discount,Deposit,Total,Description,Qty,Unit Cost,Amount,Confidence
INV-300,Eastway Paper,2025-06-03,50.00,6.50,0.00,0.00,0.00,56.50,Copy Paper,10,5.00,50.00,0.95
INV-301,Eastway Paper,not-a-date,50.00,6.50,0.00,0.00,0.00,56.50,Copy Paper,10,5.00,50.00,0.95
`

	parser := extractfeed.New()

	params, err := parser.Parse(strings.NewReader(feed))
	require.NoError(t, err)

	// The row with an unparsable date is dropped, not fatal.
	require.Len(t, params, 1)
	assert.Equal(t, "INV-300", params[0].Number)
}

package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caldervale/ledgerline/internal/money"
)

func TestEqualWithin(t *testing.T) {
	tol := money.DefaultTolerance

	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{name: "Exact", a: "118.00", b: "118.00", want: true},
		{name: "AtTolerance", a: "118.005", b: "118.00", want: true},
		{name: "OverTolerance", a: "118.006", b: "118.00", want: false},
		{name: "NegativeDelta", a: "117.996", b: "118.00", want: true},
		{name: "WayOff", a: "200.00", b: "118.00", want: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := money.EqualWithin(money.MustParse(test.a), money.MustParse(test.b), tol)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestParse(t *testing.T) {
	d, err := money.Parse(" 1,234.56 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("1234.56")))

	_, err = money.Parse("12.3.4")
	assert.Error(t, err)
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { money.MustParse("not money") })
}

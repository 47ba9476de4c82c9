package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultTolerance is the rounding slack allowed when reconciling monetary
// invariants. Extracted amounts are rounded independently per field, so exact
// equality is too strict.
var DefaultTolerance = decimal.NewFromFloat(0.005)

// EqualWithin reports whether a and b differ by no more than tol.
func EqualWithin(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}

// Parse parses a monetary amount, tolerating thousands separators.
// "1,234.56" and "1234.56" both parse to 1234.56.
func Parse(s string) (decimal.Decimal, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return decimal.NewFromString(clean)
}

// MustParse is Parse for trusted literals, mainly in tests and defaults.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return d
}

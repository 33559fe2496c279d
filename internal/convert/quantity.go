package convert

import "github.com/shopspring/decimal"

var (
	oneThousand = decimal.NewFromInt(1000)
	tenThousand = decimal.NewFromInt(10000)
)

// AbbreviateQuantity renders value in the compact form shown on the watch ticker.
func AbbreviateQuantity(value float64) string {
	return AbbreviateDecimal(decimal.NewFromFloat(value))
}

// AbbreviateDecimal renders value for the watch ticker:
//
//	below 1000:   the plain number ("999", "0.452")
//	below 10000:  a comma after the leading digit ("1,234", "2,345.6")
//	10000 and up: thousands with a "k" suffix, one decimal only when the
//	              value is not an exact multiple of 1000 ("12k", "12.5k")
func AbbreviateDecimal(value decimal.Decimal) string {
	if value.LessThan(oneThousand) {
		return value.String()
	}
	if value.LessThan(tenThousand) {
		s := value.String()
		return s[:1] + "," + s[1:]
	}

	places := int32(0)
	if !value.Mod(oneThousand).IsZero() {
		places = 1
	}
	return value.Div(oneThousand).StringFixed(places) + "k"
}

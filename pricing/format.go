package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders an amount the way customers read prices: "$5.300",
// "$1.250,50".
func Format(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	whole := d.Truncate(0)
	cents := d.Sub(whole).Shift(2).IntPart()

	digits := whole.String()
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if cents == 0 {
		return sign + "$" + b.String()
	}
	return fmt.Sprintf("%s$%s,%02d", sign, b.String(), cents)
}

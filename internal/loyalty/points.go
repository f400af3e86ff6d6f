package loyalty

import "github.com/shopspring/decimal"

// PointsPerCurrencyUnit is how much order value earns one Zep Point.
var PointsPerCurrencyUnit = decimal.NewFromInt(10)

// PointsForTotal returns floor(total / 10). Non-positive totals earn nothing.
func PointsForTotal(total decimal.Decimal) int64 {
	if !total.IsPositive() {
		return 0
	}
	return total.Div(PointsPerCurrencyUnit).Floor().IntPart()
}

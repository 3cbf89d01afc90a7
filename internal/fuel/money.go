package fuel

import "github.com/shopspring/decimal"

// toKurus converts a lira amount to whole kuruş, rounding half away from zero
func toKurus(lira float64) int {
	return int(decimal.NewFromFloat(lira).Shift(2).Round(0).IntPart())
}

// toLira converts kuruş to lira
func toLira(kurus int) float64 {
	v, _ := decimal.New(int64(kurus), -2).Float64()
	return v
}

// round2 rounds to two decimals
func round2(v float64) float64 {
	r, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return r
}

// ratio2 returns a / b rounded to two decimals, false when b is zero
func ratio2(a, b decimal.Decimal) (float64, bool) {
	if b.IsZero() {
		return 0, false
	}
	v, _ := a.Div(b).Round(2).Float64()
	return v, true
}

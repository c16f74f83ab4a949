package batch

import "github.com/shopspring/decimal"

// Clamp applies the min/max thresholds to an available amount. The second
// return is false when the amount does not clear the minimum (nothing to
// do); otherwise the returned amount is capped at max when max is positive.
// Exceeding the maximum never skips an account, the excess is simply left
// for a later run.
func Clamp(available, min, max decimal.Decimal) (decimal.Decimal, bool) {
	if available.Sign() <= 0 || available.LessThanOrEqual(min) {
		return decimal.Zero, false
	}
	if max.Sign() > 0 && available.GreaterThan(max) {
		return max, true
	}
	return available, true
}

// Whitelisted reports whether a sweep must leave the symbol alone.
func Whitelisted(whitelist map[string]struct{}, symbol string) bool {
	_, ok := whitelist[symbol]
	return ok
}

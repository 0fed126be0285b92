// Package ratemath holds the pure arithmetic behind the option rate scan:
// the tiered strike grid, strike selection, day counting, and the
// annualized rate formula. No state, no I/O.
package ratemath

import (
	"math"
	"sort"
	"time"
)

// Strike grid tiers, checked from the highest price band down. A price in
// a band rounds to the nearest multiple of that band's tick, half up.
var (
	tierFloors = [7]float64{1000, 500, 200, 80, 50, 20, 0}
	tierTicks  = [7]float64{50, 20, 10, 5, 2.5, 1, 0.5}
)

// DiscretizeTarget snaps a raw price onto the strike grid. The first tier
// whose floor the price meets decides the tick size; an exact half-tick
// rounds up.
func DiscretizeTarget(price float64) float64 {
	for i := range tierFloors {
		if price < tierFloors[i] {
			continue
		}
		tick := tierTicks[i]
		rem := math.Mod(price, tick)
		down := price - rem
		if rem >= tick/2 {
			down += tick
		}
		return down
	}
	return price
}

// SelectStrike returns the smallest catalogued strike at or above target.
// The second return is false when the catalog is empty or every entry is
// below target; callers must not open an option leg in that case.
func SelectStrike(target float64, strikes []float64) (float64, bool) {
	i := sort.SearchFloat64s(strikes, target)
	if i == len(strikes) {
		return 0, false
	}
	return strikes[i], true
}

// DaysToExpiry counts whole days between the two dates, pinned to a fixed
// time of day in UTC so daylight-saving shifts never skew the count. The
// raw difference is biased by one day toward settlement.
func DaysToExpiry(today, expiry time.Time) int {
	from := time.Date(today.Year(), today.Month(), today.Day(), 12, 0, 0, 0, time.UTC)
	to := time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 12, 0, 0, 0, time.UTC)
	return int(to.Sub(from)/(24*time.Hour)) + 1
}

// AnnualizedRate computes the implied borrow/lend rate from the
// strike-minus-price spread: price/spread scaled to a 365-day year, in
// percent. Not computable when the spread or day count is zero.
func AnnualizedRate(strike, price float64, days int) (float64, bool) {
	spread := strike - price
	if days == 0 || spread == 0 {
		return 0, false
	}
	return price / spread * 365 / float64(days) * 100, true
}

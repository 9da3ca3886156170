package analysis

import (
	"math"
)

const (
	// feeExponent is applied to the price ratio term on the side where the
	// listing deviates from the base price
	feeExponent = 1.08

	minPriceStep     = 25.0
	maxPriceMultiple = 15.0
)

// FeeRates are the flea market fee coefficients: Ti applies to the item's
// base price, Tr to the listing price.
type FeeRates struct {
	Ti float64
	Tr float64
}

// DefaultFeeRates are the rates in effect when this was written
var DefaultFeeRates = FeeRates{Ti: 0.03, Tr: 0.03}

// Commission returns the flea market fee for listing qty units of an item with
// base price v0 at price vr:
//
//	Po = log10(v0/vr), raised to 1.08 when vr < v0
//	Pr = log10(vr/v0), raised to 1.08 when vr >= v0
//	fee = v0·Ti·4^Po·Q + vr·Tr·4^Pr·Q
//
// ok is false when either price is not positive.
func Commission(v0, vr float64, qty int, rates FeeRates) (fee float64, ok bool) {
	if v0 <= 0 || vr <= 0 {
		return 0, false
	}

	po := math.Log10(v0 / vr)
	if vr < v0 {
		po = math.Pow(po, feeExponent)
	}

	pr := math.Log10(vr / v0)
	if vr >= v0 {
		pr = math.Pow(pr, feeExponent)
	}

	q := float64(qty)
	return v0*rates.Ti*math.Pow(4, po)*q + vr*rates.Tr*math.Pow(4, pr)*q, true
}

// MinProfitablePrice scans listing prices from basePrice up to 15×basePrice in
// steps of 25 and returns the price whose single-unit profit after fees
// (clamped at zero) and purchase cost is the smallest positive one. ok is
// false when no price in the range is profitable.
func MinProfitablePrice(basePrice, purchasePrice float64, rates FeeRates) (price float64, ok bool) {
	if basePrice <= 0 {
		return 0, false
	}

	best := math.Inf(1)
	limit := basePrice * maxPriceMultiple
	for k := 0; ; k++ {
		p := basePrice + float64(k)*minPriceStep
		if p >= limit {
			break
		}

		fee, _ := Commission(basePrice, p, 1, rates)
		if fee < 0 {
			fee = 0
		}
		profit := p - fee - purchasePrice
		if profit > 0 && profit < best {
			best = profit
			price = p
			ok = true
		}
	}
	return price, ok
}
